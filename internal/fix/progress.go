package fix

import (
	"time"

	"remedy/internal/source"
)

// Status captures progress state of one document.
type Status string

const (
	// StatusQueued indicates the document is waiting for a worker.
	StatusQueued Status = "queued"
	// StatusWorking indicates fixes are being applied.
	StatusWorking Status = "working"
	// StatusDone indicates the document is finished.
	StatusDone Status = "done"
	// StatusCached indicates the result came from the cache.
	StatusCached Status = "cached"
	// StatusError indicates the document was aborted.
	StatusError Status = "error"
)

// Event reports progress for a document (or for the whole run when Document is empty).
type Event struct {
	Document source.DocumentID
	Status   Status
	Applied  int
	Err      error
	Elapsed  time.Duration
}

// ProgressSink consumes progress events. OnEvent may be called from several
// goroutines at once.
type ProgressSink interface {
	OnEvent(Event)
}

// ChannelSink forwards events into a channel.
type ChannelSink struct {
	Ch chan<- Event
}

func (s ChannelSink) OnEvent(evt Event) {
	if s.Ch == nil {
		return
	}
	s.Ch <- evt
}

// Recorder receives fix counters. The metrics package provides a Prometheus
// backed implementation.
type Recorder interface {
	FixApplied(rule string)
	FixSkipped(rule string, reason SkipReason)
	DocumentChanged()
	DocumentDuration(d time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) FixApplied(string)              {}
func (nopRecorder) FixSkipped(string, SkipReason)  {}
func (nopRecorder) DocumentChanged()               {}
func (nopRecorder) DocumentDuration(time.Duration) {}

type nopSink struct{}

func (nopSink) OnEvent(Event) {}
