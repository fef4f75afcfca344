package version

import (
	"strings"
	"testing"

	"github.com/fatih/color"
)

func withNoColor(t *testing.T) {
	t.Helper()
	orig := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = orig })
}

func TestColoredWithoutTerminalIsPlain(t *testing.T) {
	withNoColor(t)
	if got := Colored(); got != Version {
		t.Fatalf("Colored() = %q, want %q", got, Version)
	}
}

func TestColoredKeepsSuffix(t *testing.T) {
	withNoColor(t)
	orig := Version
	t.Cleanup(func() { Version = orig })

	Version = "1.2.3-rc.1"
	if got := Colored(); got != "1.2.3-rc.1" {
		t.Fatalf("Colored() = %q", got)
	}
	Version = "weird"
	if got := Colored(); got != "weird" {
		t.Fatalf("non-semver must pass through, got %q", got)
	}
}

func TestInfo(t *testing.T) {
	orig := [3]string{Version, GitCommit, BuildDate}
	t.Cleanup(func() { Version, GitCommit, BuildDate = orig[0], orig[1], orig[2] })

	Version, GitCommit, BuildDate = "1.0.0", "", ""
	if got := Info(false); got != "remedy 1.0.0\n" {
		t.Fatalf("Info = %q", got)
	}

	GitCommit, BuildDate = "abc123", "2024-01-15T10:30:00Z"
	got := Info(false)
	if !strings.Contains(got, "commit: abc123\n") || !strings.Contains(got, "built:  2024-01-15T10:30:00Z\n") {
		t.Fatalf("Info = %q", got)
	}
}
