// Package tracer emits per-query dimensional tag events for the
// external observability collaborator. The core only produces the tags;
// filtering and analysis happen downstream.
package tracer

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// Event is a JSON-serializable record of one evaluated query, carrying
// the dimensions reviewers filter on.
type Event struct {
	Timestamp  string   `json:"ts"`
	TraceID    string   `json:"trace_id"`
	SessionID  string   `json:"session_id,omitempty"`
	EmployeeID string   `json:"employee_id"`
	Clearance  int      `json:"scl_level"`
	Department string   `json:"department"`
	Location   string   `json:"location"`
	Outcome    string   `json:"outcome"`
	Tags       []string `json:"tags"`
}

// BuildTags composes the dimensional tag set in the fixed
// scl-/dept-/loc-/outcome- form.
func BuildTags(clearance int, department, location, outcome string) []string {
	return []string{
		fmt.Sprintf("scl-%d", clearance),
		"dept-" + department,
		"loc-" + dashify(location),
		"outcome-" + outcome,
	}
}

// NewTraceID generates a trace ID.
func NewTraceID() string {
	return prefixedID("t", 12)
}

// UTCNowISO returns the current UTC time in ISO format with Z suffix.
func UTCNowISO() string {
	return time.Now().UTC().Format("2006-01-02T15:04:05.000Z")
}

func prefixedID(prefix string, hexLen int) string {
	b := make([]byte, (hexLen+1)/2)
	if _, err := rand.Read(b); err != nil {
		// Fallback to timestamp-based ID if crypto/rand fails
		return fmt.Sprintf("%s-%x", prefix, time.Now().UnixNano())
	}
	return fmt.Sprintf("%s-%s", prefix, hex.EncodeToString(b)[:hexLen])
}

func dashify(s string) string {
	out := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == ' ' {
			out[i] = '-'
		} else {
			out[i] = s[i]
		}
	}
	return string(out)
}
