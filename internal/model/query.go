package model

import (
	"strings"
	"time"
)

// Query is one inbound natural-language request. Created per turn,
// consumed by the policy engine, never mutated.
type Query struct {
	Identity  Identity  `json:"identity"`
	Text      string    `json:"text"`
	SessionID string    `json:"session_id,omitempty"`
	At        time.Time `json:"at"`
}

// NewQuery stamps a query with the current UTC time.
func NewQuery(id Identity, text, sessionID string) Query {
	return Query{
		Identity:  id,
		Text:      text,
		SessionID: sessionID,
		At:        time.Now().UTC(),
	}
}

// Empty reports whether the query carries no evaluable text.
func (q Query) Empty() bool {
	return strings.TrimSpace(q.Text) == ""
}
