package audit

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// SinkError reports that an audit sink failed to persist an entry. The
// user-facing decision proceeds regardless; an unaudited security
// decision is a compliance gap, so the failure is surfaced to the
// operational channel rather than swallowed.
type SinkError struct {
	Sink string
	Err  error
}

func (e *SinkError) Error() string {
	return fmt.Sprintf("audit sink %s: %v", e.Sink, e.Err)
}

func (e *SinkError) Unwrap() error {
	return e.Err
}

// Recorder fans one entry out to the JSONL chain log and the sqlite
// store. Record never fails the caller: sink failures go to the
// OnSinkError callback (wired to the alert dispatcher by the gateway).
// Appends serialize under one mutex so entries land in call order in
// both sinks.
type Recorder struct {
	log   *Log   // optional
	store *Store // optional

	// OnSinkError receives every *SinkError. Nil means failures are
	// only counted.
	OnSinkError func(*SinkError)

	mu       sync.Mutex
	recorded int
	failed   int
}

// NewRecorder creates a Recorder over the given sinks. Either may be nil.
func NewRecorder(log *Log, store *Store) *Recorder {
	return &Recorder{log: log, store: store}
}

// Record assigns the entry an ID and timestamp, appends it to all
// configured sinks, and returns the entry ID. Exactly one entry is
// produced per call regardless of sink health.
func (r *Recorder) Record(e Entry) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp == "" {
		e.Timestamp = time.Now().UTC().Format(TimestampFormat)
	}

	if r.log != nil {
		if err := r.log.Append(e); err != nil {
			r.sinkFailed("jsonl", err)
		}
	}
	if r.store != nil {
		if err := r.store.Insert(e); err != nil {
			r.sinkFailed("sqlite", err)
		}
	}

	r.recorded++
	return e.ID
}

// AttachResponse links a response reference to a recorded entry.
func (r *Recorder) AttachResponse(entryID, ref string) {
	if r.store == nil || entryID == "" {
		return
	}
	if err := r.store.AttachResponse(entryID, ref); err != nil {
		r.mu.Lock()
		r.sinkFailed("sqlite", err)
		r.mu.Unlock()
	}
}

// Stats returns counts of recorded entries and sink failures.
func (r *Recorder) Stats() (recorded, failed int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recorded, r.failed
}

// sinkFailed must be called with r.mu held.
func (r *Recorder) sinkFailed(sink string, err error) {
	r.failed++
	if r.OnSinkError != nil {
		r.OnSinkError(&SinkError{Sink: sink, Err: err})
	}
}
