package trace

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Kind of a trace event.
type Kind uint8

const (
	KindSpanBegin Kind = iota + 1
	KindSpanEnd
	KindPoint
	KindHeartbeat
)

var kindNames = [...]string{
	KindSpanBegin: "begin",
	KindSpanEnd:   "end",
	KindPoint:     "point",
	KindHeartbeat: "heartbeat",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return "unknown"
}

// Scope is the granularity of an event. Smaller values are coarser.
type Scope uint8

const (
	// ScopeRun is one CLI command or fix-all invocation.
	ScopeRun Scope = iota + 1
	// ScopeDocument is the work on one document.
	ScopeDocument
	// ScopeBatch is one rule batch inside a document.
	ScopeBatch
	ScopeFinding
)

var scopeNames = [...]string{
	ScopeRun:      "run",
	ScopeDocument: "document",
	ScopeBatch:    "batch",
	ScopeFinding:  "finding",
}

func (s Scope) String() string {
	if int(s) < len(scopeNames) && scopeNames[s] != "" {
		return scopeNames[s]
	}
	return "unknown"
}

// Level controls which scopes reach the tracer.
type Level uint8

const (
	LevelOff Level = iota
	// LevelError keeps the tracer alive for heartbeats and dumps only.
	LevelError
	LevelPhase  // run + document
	LevelDetail // + rule batches
	LevelDebug  // + single findings
)

var levelNames = [...]string{
	LevelOff:    "off",
	LevelError:  "error",
	LevelPhase:  "phase",
	LevelDetail: "detail",
	LevelDebug:  "debug",
}

// deepest scope emitted per level; 0 emits nothing
var levelDepth = [...]Scope{
	LevelOff:    0,
	LevelError:  0,
	LevelPhase:  ScopeDocument,
	LevelDetail: ScopeBatch,
	LevelDebug:  ScopeFinding,
}

func (l Level) String() string {
	if int(l) < len(levelNames) {
		return levelNames[l]
	}
	return "unknown"
}

// ParseLevel converts a flag or config value to a Level. Empty means off.
func ParseLevel(s string) (Level, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return LevelOff, nil
	}
	for l, name := range levelNames {
		if name == s {
			return Level(l), nil
		}
	}
	return LevelOff, fmt.Errorf("invalid trace level: %q (expected: off|error|phase|detail|debug)", s)
}

// ShouldEmit reports whether events of scope pass at this level.
func (l Level) ShouldEmit(scope Scope) bool {
	if int(l) >= len(levelDepth) {
		return false
	}
	return scope != 0 && scope <= levelDepth[l]
}

// Attr is one key/value pair attached to an event. Order is kept as added.
type Attr struct {
	Key   string
	Value string
}

// Str builds a string attribute.
func Str(key, value string) Attr { return Attr{Key: key, Value: value} }

// Int builds an integer attribute.
func Int(key string, n int) Attr { return Attr{Key: key, Value: strconv.Itoa(n)} }

// Event is a single trace record.
type Event struct {
	Time     time.Time
	Seq      uint64 // монотонный номер события в процессе
	Kind     Kind
	Scope    Scope
	SpanID   uint64
	ParentID uint64 // 0 для корня
	Name     string // "fix-all", "a.go", "batch:SP1001"
	Detail   string
	Attrs    []Attr
}

// Attr returns the value of key and whether it is present.
func (ev *Event) Attr(key string) (string, bool) {
	for _, a := range ev.Attrs {
		if a.Key == key {
			return a.Value, true
		}
	}
	return "", false
}
