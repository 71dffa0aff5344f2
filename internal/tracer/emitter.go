package tracer

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
)

// Emitter receives one event per evaluated query. Implementations must
// not block evaluation; failures are the emitter's own concern.
type Emitter interface {
	Emit(Event)
}

// Nop discards all events.
type Nop struct{}

func (Nop) Emit(Event) {}

// JSONL appends events to a JSONL file, one line per event. Writes
// serialize under a mutex; a failed write drops the event (tracing is
// best-effort, unlike the audit trail).
type JSONL struct {
	mu   sync.Mutex
	file *os.File
}

// OpenJSONL opens (or creates) a JSONL trace file for appending.
func OpenJSONL(path string) (*JSONL, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil, err
	}
	return &JSONL{file: f}, nil
}

// Emit writes the event as one JSON line.
func (j *JSONL) Emit(e Event) {
	if e.Timestamp == "" {
		e.Timestamp = UTCNowISO()
	}
	line, err := json.Marshal(e)
	if err != nil {
		return
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	_, _ = j.file.Write(append(line, '\n'))
}

// Close closes the trace file.
func (j *JSONL) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.file.Close()
}

// Collector retains events in memory. For tests.
type Collector struct {
	mu     sync.Mutex
	events []Event
}

// Emit appends the event.
func (c *Collector) Emit(e Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
}

// Events returns a copy of the collected events.
func (c *Collector) Events() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Event, len(c.events))
	copy(out, c.events)
	return out
}
