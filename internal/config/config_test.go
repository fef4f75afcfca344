package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, path, text string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadWithoutFileGivesDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Path != "" || cfg.Layout.NewlineAtEOF != NewlineRequire || !cfg.Fix.Cache {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadWalksUp(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, FileName), `
[fix]
jobs = 3
disable = ["TX1001"]

[layout]
newline_at_eof = "omit"
`)
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(nested)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Fix.Jobs != 3 || cfg.Layout.NewlineAtEOF != NewlineOmit {
		t.Fatalf("cfg = %+v", cfg)
	}
	if !cfg.Fix.Cache {
		t.Errorf("keys missing from the file must keep defaults")
	}
	if len(cfg.Spacing.CommentDirectives) != 3 {
		t.Errorf("directives = %v", cfg.Spacing.CommentDirectives)
	}
	if cfg.Enabled("TX1001") || !cfg.Enabled("SP1001") {
		t.Errorf("Enabled does not honour disable")
	}
}

func TestLoadFileErrors(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"bad toml", "[fix\n", "failed to parse TOML"},
		{"unknown key", "[fix]\nthreads = 2\n", "unknown keys: fix.threads"},
		{"bad newline mode", "[layout]\nnewline_at_eof = \"sometimes\"\n", "newline_at_eof"},
		{"negative jobs", "[fix]\njobs = -1\n", "jobs"},
		{"enabled and disabled", "[fix]\nrules = [\"A\"]\ndisable = [\"A\"]\n", "both enabled and disabled"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), FileName)
			writeFile(t, path, tt.text)
			_, err := LoadFile(path)
			if err == nil {
				t.Fatalf("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) || !strings.Contains(err.Error(), path) {
				t.Fatalf("err = %v, want mention of %q and the path", err, tt.want)
			}
		})
	}
}

func TestEmptyDirectivesAreKept(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	writeFile(t, path, "[spacing]\ncomment_directives = []\n")
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Spacing.CommentDirectives == nil || len(cfg.Spacing.CommentDirectives) != 0 {
		t.Fatalf("directives = %#v", cfg.Spacing.CommentDirectives)
	}
}

func TestEnabledWithRuleList(t *testing.T) {
	cfg := Default()
	cfg.Fix.Rules = []string{"SP1001"}
	if !cfg.Enabled("SP1001") || cfg.Enabled("SP1028") {
		t.Fatalf("rule list not honoured")
	}
}
