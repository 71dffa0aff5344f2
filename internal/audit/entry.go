package audit

// IdentitySnapshot is the identity as it stood when the query was
// evaluated. Snapshotted so later roster changes cannot rewrite history.
type IdentitySnapshot struct {
	EmployeeID string `json:"employee_id"`
	Name       string `json:"name"`
	Department string `json:"department"`
	Location   string `json:"location"`
	Clearance  int    `json:"clearance_level"`
}

// Entry is one line in the hash-chained JSONL audit log and one row in
// the query store. All fields are flat structs (no map[string]any) to
// guarantee deterministic json.Marshal field order for reproducible
// hashing. Once recorded, the verdict fields are never mutated; only the
// response reference may be attached afterwards, and only in the store.
type Entry struct {
	ID        string           `json:"id"`
	Timestamp string           `json:"ts"`
	SessionID string           `json:"session_id"`
	Identity  IdentitySnapshot `json:"identity"`
	Query     string           `json:"query"`
	Outcome   string           `json:"outcome"`
	Reason    string           `json:"reason"`
	Keyword   string           `json:"keyword,omitempty"`

	// Retrieval parameters used for allowed queries; zero when denied
	// or when the query was empty.
	K            int     `json:"k,omitempty"`
	Threshold    float64 `json:"threshold,omitempty"`
	MaxClearance int     `json:"max_clearance,omitempty"`

	ResponseRef string `json:"response_ref,omitempty"`
	TableHash   string `json:"table_hash,omitempty"`
	PrevHash    string `json:"prev_hash"`
}
