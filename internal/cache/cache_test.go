package cache

import (
	"os"
	"path/filepath"
	"testing"

	"remedy/internal/diag"
	"remedy/internal/fix"
	"remedy/internal/source"
)

func sampleEntry() fix.CachedResult {
	f := diag.Finding{
		RuleID:     "SP1001",
		DocumentID: "a.txt",
		Span:       source.MustSpan(1, 2),
		Severity:   diag.SevWarning,
		Message:    "redundant spaces",
		Properties: map[string]string{diag.PropReplacement: " "},
	}
	return fix.CachedResult{
		Text:    "a b",
		Applied: []diag.Finding{f},
		Skipped: []fix.Skipped{{Finding: f.WithSpan(source.MustSpan(9, 1)), Reason: fix.SkipConflict, Detail: "overlaps"}},
	}
}

func TestDiskCachePutGet(t *testing.T) {
	c, err := OpenDiskCache(t.TempDir())
	if err != nil {
		t.Fatalf("OpenDiskCache: %v", err)
	}
	key := source.Sum("a  b")
	if _, ok := c.Get(key); ok {
		t.Fatalf("empty cache must miss")
	}
	if err := c.Put(key, sampleEntry()); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, ok := c.Get(key)
	if !ok {
		t.Fatalf("Get after Put missed")
	}
	if got.Text != "a b" || len(got.Applied) != 1 || len(got.Skipped) != 1 {
		t.Fatalf("got %+v", got)
	}
	if got.Applied[0].Span != source.MustSpan(1, 2) || got.Applied[0].Properties[diag.PropReplacement] != " " {
		t.Errorf("finding round trip = %+v", got.Applied[0])
	}
	if got.Skipped[0].Reason != fix.SkipConflict {
		t.Errorf("skip reason = %v", got.Skipped[0].Reason)
	}
}

func TestDiskCacheNoTempFilesLeft(t *testing.T) {
	dir := t.TempDir()
	c, err := OpenDiskCache(dir)
	if err != nil {
		t.Fatal(err)
	}
	key := source.Sum("x")
	if err := c.Put(key, sampleEntry()); err != nil {
		t.Fatal(err)
	}
	hexKey := key.String()
	entries, err := os.ReadDir(filepath.Join(dir, "fix", hexKey[:2]))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != hexKey+".mp" {
		t.Fatalf("unexpected files: %v", entries)
	}
}

func TestDiskCacheCorruptEntryIsMiss(t *testing.T) {
	dir := t.TempDir()
	c, err := OpenDiskCache(dir)
	if err != nil {
		t.Fatal(err)
	}
	key := source.Sum("y")
	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte("not msgpack"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, ok := c.Get(key); ok {
		t.Fatalf("corrupt entry must be a miss")
	}
}

func TestDiskCacheDropAll(t *testing.T) {
	c, err := OpenDiskCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	key := source.Sum("z")
	if err := c.Put(key, sampleEntry()); err != nil {
		t.Fatal(err)
	}
	if err := c.DropAll(); err != nil {
		t.Fatalf("DropAll: %v", err)
	}
	if _, ok := c.Get(key); ok {
		t.Fatalf("entry survived DropAll")
	}
	if err := c.Put(key, sampleEntry()); err != nil {
		t.Fatalf("Put after DropAll: %v", err)
	}
}

func TestDefaultDirHonoursXDG(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/xdg")
	dir, err := DefaultDir("remedy")
	if err != nil {
		t.Fatal(err)
	}
	if dir != filepath.Join("/tmp/xdg", "remedy") {
		t.Fatalf("dir = %q", dir)
	}
}

func TestLayeredWarmsUpperLevels(t *testing.T) {
	mem := NewMemoryCache(1)
	disk, err := OpenDiskCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	key := source.Sum("w")
	if err := disk.Put(key, sampleEntry()); err != nil {
		t.Fatal(err)
	}
	l := Layered{mem, disk}
	if _, ok := l.Get(key); !ok {
		t.Fatalf("layered miss")
	}
	if mem.Len() != 1 {
		t.Fatalf("memory level not warmed")
	}
}
