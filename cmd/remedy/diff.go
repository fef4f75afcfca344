package main

import (
	"strings"

	"github.com/fatih/color"
	"github.com/pmezard/go-difflib/difflib"
)

var (
	diffAddColor  = color.New(color.FgGreen)
	diffDelColor  = color.New(color.FgRed)
	diffHunkColor = color.New(color.FgCyan)
)

// unifiedDiff renders the line diff between before and after with three lines
// of context. Equal texts give an empty string.
func unifiedDiff(path, before, after string) (string, error) {
	if before == after {
		return "", nil
	}
	out, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(before),
		B:        difflib.SplitLines(after),
		FromFile: "a/" + path,
		ToFile:   "b/" + path,
		Context:  3,
	})
	if err != nil {
		return "", err
	}
	// без перевода строки в конце difflib склеивает строки
	if out != "" && !strings.HasSuffix(out, "\n") {
		out += "\n"
	}
	return out, nil
}

// colorizeDiff paints diff lines. It is a no-op when color is disabled.
func colorizeDiff(diff string) string {
	if color.NoColor || diff == "" {
		return diff
	}
	lines := strings.SplitAfter(diff, "\n")
	var sb strings.Builder
	for _, line := range lines {
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
			sb.WriteString(line)
		case strings.HasPrefix(line, "@@"):
			sb.WriteString(diffHunkColor.Sprint(line))
		case strings.HasPrefix(line, "+"):
			sb.WriteString(diffAddColor.Sprint(line))
		case strings.HasPrefix(line, "-"):
			sb.WriteString(diffDelColor.Sprint(line))
		default:
			sb.WriteString(line)
		}
	}
	return sb.String()
}
