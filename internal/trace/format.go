package trace

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Format of serialized events.
type Format uint8

const (
	FormatAuto Format = iota
	FormatText
	FormatNDJSON
)

// ParseFormat converts a flag value to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return FormatAuto, nil
	case "text":
		return FormatText, nil
	case "ndjson", "json":
		return FormatNDJSON, nil
	}
	return FormatAuto, fmt.Errorf("invalid trace format: %q (expected: auto|text|ndjson)", s)
}

// FormatEvent serializes ev as one line including the trailing newline.
func FormatEvent(ev *Event, format Format) []byte {
	if format == FormatNDJSON {
		return marshalJSON(ev)
	}
	return appendText(nil, ev)
}

type jsonAttrs []Attr

// MarshalJSON writes the attributes as an object in insertion order.
func (a jsonAttrs) MarshalJSON() ([]byte, error) {
	buf := []byte{'{'}
	for i, attr := range a {
		if i > 0 {
			buf = append(buf, ',')
		}
		k, err := json.Marshal(attr.Key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(attr.Value)
		if err != nil {
			return nil, err
		}
		buf = append(buf, k...)
		buf = append(buf, ':')
		buf = append(buf, v...)
	}
	return append(buf, '}'), nil
}

type jsonEvent struct {
	Time   string    `json:"ts"`
	Seq    uint64    `json:"seq"`
	Kind   string    `json:"kind"`
	Scope  string    `json:"scope,omitempty"`
	Span   uint64    `json:"span,omitempty"`
	Parent uint64    `json:"parent,omitempty"`
	Name   string    `json:"name"`
	Detail string    `json:"detail,omitempty"`
	Attrs  jsonAttrs `json:"attrs,omitempty"`
}

func marshalJSON(ev *Event) []byte {
	j := jsonEvent{
		Time:   ev.Time.UTC().Format(time.RFC3339Nano),
		Seq:    ev.Seq,
		Kind:   ev.Kind.String(),
		Span:   ev.SpanID,
		Parent: ev.ParentID,
		Name:   ev.Name,
		Detail: ev.Detail,
		Attrs:  ev.Attrs,
	}
	if ev.Scope != 0 {
		j.Scope = ev.Scope.String()
	}
	data, err := json.Marshal(j)
	if err != nil {
		return nil
	}
	return append(data, '\n')
}

var kindMarks = [...]string{
	KindSpanBegin: ">",
	KindSpanEnd:   "<",
	KindPoint:     "*",
	KindHeartbeat: "~",
}

// appendText renders
//
//	15:04:05.000 document   > a.go (detail) applied=3 skipped=0
//
// with nesting shown by indenting finer scopes.
func appendText(buf []byte, ev *Event) []byte {
	buf = ev.Time.AppendFormat(buf, "15:04:05.000")
	buf = append(buf, ' ')
	buf = fmt.Appendf(buf, "%-9s", scopeLabel(ev))
	if ev.Scope > ScopeRun {
		buf = append(buf, strings.Repeat("  ", int(ev.Scope-ScopeRun))...)
	}
	mark := "?"
	if int(ev.Kind) < len(kindMarks) && kindMarks[ev.Kind] != "" {
		mark = kindMarks[ev.Kind]
	}
	buf = append(buf, mark...)
	buf = append(buf, ' ')
	buf = append(buf, ev.Name...)
	if ev.Detail != "" {
		buf = append(buf, " ("...)
		buf = append(buf, ev.Detail...)
		buf = append(buf, ')')
	}
	for _, a := range ev.Attrs {
		buf = append(buf, ' ')
		buf = append(buf, a.Key...)
		buf = append(buf, '=')
		if strings.ContainsAny(a.Value, " \t\n\"") || a.Value == "" {
			buf = fmt.Appendf(buf, "%q", a.Value)
		} else {
			buf = append(buf, a.Value...)
		}
	}
	return append(buf, '\n')
}

func scopeLabel(ev *Event) string {
	if ev.Kind == KindHeartbeat {
		return "heartbeat"
	}
	return ev.Scope.String()
}
