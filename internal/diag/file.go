package diag

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"remedy/internal/source"
)

// spanRecord is the external {start, length} span form.
type spanRecord struct {
	Start  int `yaml:"start"`
	Length int `yaml:"length"`
}

type findingRecord struct {
	RuleID     string            `yaml:"ruleId"`
	DocumentID string            `yaml:"documentId"`
	Span       spanRecord        `yaml:"span"`
	Severity   string            `yaml:"severity,omitempty"`
	Message    string            `yaml:"message,omitempty"`
	Properties map[string]string `yaml:"properties,omitempty"`
}

type findingsFile struct {
	Findings []findingRecord `yaml:"findings"`
}

// LoadFindings decodes findings from YAML or JSON. Both a bare list and a
// document with a top-level "findings" key are accepted.
func LoadFindings(r io.Reader) ([]Finding, error) {
	var root yaml.Node
	if err := yaml.NewDecoder(r).Decode(&root); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("findings: decode: %w", err)
	}

	node := &root
	if node.Kind == yaml.DocumentNode && len(node.Content) > 0 {
		node = node.Content[0]
	}

	var records []findingRecord
	switch node.Kind {
	case yaml.SequenceNode:
		if err := node.Decode(&records); err != nil {
			return nil, fmt.Errorf("findings: decode list: %w", err)
		}
	case yaml.MappingNode:
		var file findingsFile
		if err := node.Decode(&file); err != nil {
			return nil, fmt.Errorf("findings: decode: %w", err)
		}
		records = file.Findings
	default:
		return nil, fmt.Errorf("findings: line %d: expected a list or a mapping", node.Line)
	}

	out := make([]Finding, 0, len(records))
	for i, rec := range records {
		f, err := rec.finding()
		if err != nil {
			return nil, fmt.Errorf("findings: entry %d: %w", i, err)
		}
		out = append(out, f)
	}
	return out, nil
}

// LoadFindingsFile reads findings from path.
func LoadFindingsFile(path string) ([]Finding, error) {
	// #nosec G304 -- path is provided by the caller
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()
	out, err := LoadFindings(fh)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return out, nil
}

func (rec findingRecord) finding() (Finding, error) {
	if rec.RuleID == "" {
		return Finding{}, errors.New("missing ruleId")
	}
	if rec.DocumentID == "" {
		return Finding{}, errors.New("missing documentId")
	}
	sp, err := source.NewSpan(rec.Span.Start, rec.Span.Length)
	if err != nil {
		return Finding{}, err
	}
	sev, err := ParseSeverity(rec.Severity)
	if err != nil {
		return Finding{}, err
	}
	return Finding{
		RuleID:     rec.RuleID,
		DocumentID: source.DocumentID(source.NormalizePath(rec.DocumentID)),
		Span:       sp,
		Properties: rec.Properties,
		Severity:   sev,
		Message:    rec.Message,
	}, nil
}

// WriteFindings encodes findings as YAML in the form LoadFindings reads.
func WriteFindings(w io.Writer, findings []Finding) error {
	file := findingsFile{Findings: make([]findingRecord, 0, len(findings))}
	for _, f := range findings {
		file.Findings = append(file.Findings, findingRecord{
			RuleID:     f.RuleID,
			DocumentID: string(f.DocumentID),
			Span:       spanRecord{Start: int(f.Span.Start), Length: int(f.Span.Len())},
			Severity:   f.Severity.Label(),
			Message:    f.Message,
			Properties: f.Properties,
		})
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(file); err != nil {
		return fmt.Errorf("findings: encode: %w", err)
	}
	return enc.Close()
}
