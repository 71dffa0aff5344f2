package alert

// Config defines a webhook alert destination.
type Config struct {
	URL     string            `yaml:"url"     json:"url"`
	Format  string            `yaml:"format"  json:"format"` // "generic", "slack", "pagerduty"
	Events  []string          `yaml:"events"  json:"events"` // denial outcomes and "audit_sink_error"
	Headers map[string]string `yaml:"headers" json:"headers"`
}

// Event is the payload sent to webhook endpoints. Type carries the
// verdict outcome for policy denials or "audit_sink_error" for a
// degraded audit sink.
type Event struct {
	Timestamp  string `json:"timestamp"`
	Type       string `json:"type"`
	SessionID  string `json:"session_id,omitempty"`
	EmployeeID string `json:"employee_id,omitempty"`
	Clearance  int    `json:"scl_level,omitempty"`
	Location   string `json:"location,omitempty"`
	Reason     string `json:"reason"`
	Keyword    string `json:"keyword,omitempty"`
	TableHash  string `json:"table_hash,omitempty"`
}
