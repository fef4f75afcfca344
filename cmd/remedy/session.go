package main

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"remedy/internal/config"
	"remedy/internal/document"
	"remedy/internal/source"
	"remedy/internal/syntax"
	"remedy/internal/syntax/plain"
	"remedy/internal/syntax/treesitter"
)

// sniffSize is how much of a file is inspected to tell text from binary.
const sniffSize = 8000

var (
	plainParser = plain.New()
	goParser    = treesitter.NewGoParser()
)

// parserFor picks the syntax parser for a path.
func parserFor(path string) syntax.Parser {
	if strings.HasSuffix(path, ".go") {
		return goParser
	}
	return plainParser
}

// loadConfig honours --config and otherwise searches from the working directory.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, err := cmd.Root().PersistentFlags().GetString("config")
	if err != nil {
		return config.Config{}, fmt.Errorf("failed to get config flag: %w", err)
	}
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load(".")
}

// collectPaths expands args into a sorted list of text files. Directories are
// walked recursively; hidden directories and binary files are skipped.
func collectPaths(args []string) ([]string, error) {
	if len(args) == 0 {
		args = []string{"."}
	}
	seen := make(map[string]struct{})
	var out []string

	add := func(path string) {
		p := source.NormalizePath(path)
		if _, dup := seen[p]; dup {
			return
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			add(arg)
			continue
		}
		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != arg && skipDir(d.Name()) {
					return filepath.SkipDir
				}
				return nil
			}
			if !d.Type().IsRegular() {
				return nil
			}
			text, err := isTextFile(path)
			if err != nil {
				return err
			}
			if text {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", arg, err)
		}
	}
	slices.Sort(out)
	return out, nil
}

func skipDir(name string) bool {
	if strings.HasPrefix(name, ".") {
		return true
	}
	switch name {
	case "vendor", "node_modules", "testdata":
		return true
	}
	return false
}

// isTextFile reports whether the head of the file is NUL-free UTF-8.
func isTextFile(path string) (bool, error) {
	// #nosec G304 -- path comes from walking a user-supplied directory
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	buf := make([]byte, sniffSize)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return false, err
	}
	head := buf[:n]
	if bytes.IndexByte(head, 0) >= 0 {
		return false, nil
	}
	// обрезанный хвост может разрезать руну
	if n == sniffSize {
		for i := 0; i < utf8.UTFMax-1 && !utf8.Valid(head); i++ {
			head = head[:len(head)-1]
		}
	}
	return utf8.Valid(head), nil
}

// loadDocuments reads every path into a new set.
func loadDocuments(paths []string) (*document.Set, []*document.Document, error) {
	set := document.NewSet(parserFor)
	if wd, err := os.Getwd(); err == nil {
		set.SetBaseDir(wd)
	}
	for _, p := range paths {
		if _, err := set.Load(p); err != nil {
			return nil, nil, fmt.Errorf("load %s: %w", p, err)
		}
	}
	return set, set.Documents(), nil
}

// setLocator resolves finding positions against the documents of a set.
// It is not safe for concurrent use.
type setLocator struct {
	set   *document.Set
	index map[source.DocumentID]*source.LineIndex
}

func newSetLocator(set *document.Set) *setLocator {
	return &setLocator{set: set, index: make(map[source.DocumentID]*source.LineIndex)}
}

func (l *setLocator) Locate(id source.DocumentID, sp source.Span) (string, source.LineCol, bool) {
	doc, ok := l.set.Latest(id)
	if !ok || !sp.Within(doc.Len()) {
		return "", source.LineCol{}, false
	}
	idx, ok := l.index[id]
	if !ok {
		idx = source.NewLineIndex(doc.Text())
		l.index[id] = idx
	}
	return l.set.FormatPath(id, "relative"), idx.Position(sp.Start), true
}

// labels maps document ids to display paths for the progress UI.
func labels(set *document.Set, docs []*document.Document) ([]source.DocumentID, map[source.DocumentID]string) {
	ids := make([]source.DocumentID, 0, len(docs))
	out := make(map[source.DocumentID]string, len(docs))
	for _, d := range docs {
		ids = append(ids, d.ID())
		out[d.ID()] = set.FormatPath(d.ID(), "relative")
	}
	return ids, out
}
