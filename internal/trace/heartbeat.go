package trace

import (
	"runtime"
	"sync"
	"time"
)

// Heartbeat emits a beat event every interval until stopped. Beats that keep
// coming without document end events point at a stuck document.
type Heartbeat struct {
	done chan struct{}
	wg   sync.WaitGroup
	once sync.Once
}

// StartHeartbeat returns nil when tracer is disabled or interval is not positive.
func StartHeartbeat(tracer Tracer, interval time.Duration) *Heartbeat {
	if tracer == nil || !tracer.Enabled() || interval <= 0 {
		return nil
	}
	h := &Heartbeat{done: make(chan struct{})}
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		tick := time.NewTicker(interval)
		defer tick.Stop()
		for beat := 1; ; beat++ {
			select {
			case <-h.done:
				return
			case now := <-tick.C:
				tracer.Emit(&Event{
					Time: now,
					Seq:  nextSeq(),
					Kind: KindHeartbeat,
					Name: "beat",
					Attrs: []Attr{
						Int("n", beat),
						Int("goroutines", runtime.NumGoroutine()),
					},
				})
			}
		}
	}()
	return h
}

// Stop ends the beat goroutine and waits for it. Safe on nil and repeated calls.
func (h *Heartbeat) Stop() {
	if h == nil {
		return
	}
	h.once.Do(func() { close(h.done) })
	h.wg.Wait()
}
