package document

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"remedy/internal/source"
	"remedy/internal/syntax"
)

// Flags remember how file bytes were normalized on load.
type Flags uint8

const (
	FlagVirtual Flags = 1 << iota
	FlagHadBOM
	FlagNormalizedCRLF
)

// ParserFunc picks the parser for a path. Returning nil leaves the document
// text-only.
type ParserFunc func(path string) syntax.Parser

// Entry is one stored version of a document.
type Entry struct {
	Doc   *Document
	Path  string
	Flags Flags
}

// Set manages documents loaded into one fix session. Every Add creates a new
// entry; the index always points at the latest one for a path.
type Set struct {
	entries []Entry
	index   map[source.DocumentID]int
	baseDir string // базовая директория для относительных путей
	parsers ParserFunc
}

// NewSet creates an empty set. parsers may be nil.
func NewSet(parsers ParserFunc) *Set {
	return &Set{
		index:   make(map[source.DocumentID]int),
		parsers: parsers,
	}
}

// SetBaseDir устанавливает базовую директорию для относительных путей.
func (s *Set) SetBaseDir(dir string) {
	s.baseDir = dir
}

// BaseDir возвращает текущую базовую директорию.
func (s *Set) BaseDir() string {
	if s.baseDir == "" {
		if wd, err := os.Getwd(); err == nil {
			return wd
		}
	}
	return s.baseDir
}

func (s *Set) parserFor(path string) syntax.Parser {
	if s.parsers == nil {
		return nil
	}
	return s.parsers(path)
}

// Add stores normalized text under path and returns the new document.
func (s *Set) Add(path, text string, flags Flags) *Document {
	normalized := source.NormalizePath(path)
	id := source.DocumentID(normalized)
	doc := New(id, text, s.parserFor(normalized))
	if prev, ok := s.index[id]; ok {
		// версии растут монотонно в пределах одного пути
		doc.version = s.entries[prev].Doc.version + 1
	}
	s.entries = append(s.entries, Entry{Doc: doc, Path: normalized, Flags: flags})
	s.index[id] = len(s.entries) - 1
	return doc
}

// AddVirtual adds a document that has no file behind it.
func (s *Set) AddVirtual(name, text string) *Document {
	return s.Add(name, text, FlagVirtual)
}

// Load reads a file from disk, normalizes CRLF/BOM, and calls Add.
func (s *Set) Load(path string) (*Document, error) {
	// #nosec G304 -- path is provided by the caller
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	content, hadBOM := source.RemoveBOM(content)
	content, hadCRLF := source.NormalizeCRLF(content)

	flags := Flags(0)
	if hadBOM {
		flags |= FlagHadBOM
	}
	if hadCRLF {
		flags |= FlagNormalizedCRLF
	}
	if s.baseDir == "" {
		s.baseDir = filepath.Dir(path)
	}
	return s.Add(path, string(content), flags), nil
}

// Latest returns the newest document stored for id.
func (s *Set) Latest(id source.DocumentID) (*Document, bool) {
	i, ok := s.index[id]
	if !ok {
		return nil, false
	}
	return s.entries[i].Doc, true
}

// Entry returns the newest entry for id.
func (s *Set) Entry(id source.DocumentID) (Entry, bool) {
	i, ok := s.index[id]
	if !ok {
		return Entry{}, false
	}
	return s.entries[i], true
}

// Replace stores doc as the newest version of its id, keeping the flags of
// the entry it replaces.
func (s *Set) Replace(doc *Document) error {
	i, ok := s.index[doc.ID()]
	if !ok {
		return fmt.Errorf("document: unknown id %q", doc.ID())
	}
	prev := s.entries[i]
	s.entries = append(s.entries, Entry{Doc: doc, Path: prev.Path, Flags: prev.Flags})
	s.index[doc.ID()] = len(s.entries) - 1
	return nil
}

// Documents returns the latest version of every document, ordered by id.
func (s *Set) Documents() []*Document {
	ids := make([]source.DocumentID, 0, len(s.index))
	for id := range s.index {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	out := make([]*Document, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.entries[s.index[id]].Doc)
	}
	return out
}

// Len returns the number of distinct documents.
func (s *Set) Len() int {
	return len(s.index)
}

// Encode renders doc back to file bytes, restoring BOM and CRLF if the
// original file had them.
func (s *Set) Encode(doc *Document) []byte {
	text := doc.Text()
	if e, ok := s.Entry(doc.ID()); ok {
		if e.Flags&FlagNormalizedCRLF != 0 {
			text = source.RestoreCRLF(text)
		}
		if e.Flags&FlagHadBOM != 0 {
			text = source.RestoreBOM(text)
		}
	}
	return []byte(text)
}

// WriteBack writes doc to its path. Virtual documents are skipped.
func (s *Set) WriteBack(doc *Document) error {
	e, ok := s.Entry(doc.ID())
	if !ok {
		return fmt.Errorf("document: unknown id %q", doc.ID())
	}
	if e.Flags&FlagVirtual != 0 {
		return nil
	}
	mode := os.FileMode(0o644)
	if st, err := os.Stat(e.Path); err == nil {
		mode = st.Mode().Perm()
	}
	if err := os.WriteFile(e.Path, s.Encode(doc), mode); err != nil {
		return fmt.Errorf("document: write %s: %w", e.Path, err)
	}
	return nil
}

// FormatPath форматирует путь к документу в зависимости от режима.
// mode: "absolute", "relative", "basename", "auto"
func (s *Set) FormatPath(id source.DocumentID, mode string) string {
	path := string(id)
	switch mode {
	case "absolute":
		if abs, err := source.AbsolutePath(path); err == nil {
			return abs
		}
		return path

	case "relative":
		if rel, err := source.RelativePath(path, s.BaseDir()); err == nil {
			return rel
		}
		return path

	case "basename":
		return source.BaseName(path)

	case "auto":
		// Auto: если путь короткий или относительный - как есть, иначе basename
		if len(path) < 40 || !filepath.IsAbs(path) {
			return path
		}
		return source.BaseName(path)

	default:
		return path
	}
}
