package model

// Outcome is the result category of one policy evaluation.
// Denials are first-class results, never errors: the audit and UI layers
// render a distinct message per reason code.
type Outcome string

const (
	Allowed         Outcome = "allowed"
	DeniedOmega7    Outcome = "denied_omega7"
	DeniedFacility  Outcome = "denied_facility"
	DeniedClearance Outcome = "denied_clearance"
)

// Denied reports whether the outcome is any denial reason.
func (o Outcome) Denied() bool {
	return o != Allowed
}

// MetadataFilter restricts retrievable documents. A document is admitted
// only when its clearance tag does not exceed MaxClearance and its topic
// is in the allow set ("*" admits every topic).
type MetadataFilter struct {
	MaxClearance int      `json:"max_clearance"`
	Topics       []string `json:"topics,omitempty"`
}

// Admits reports whether a document with the given clearance tag and
// topic passes the filter.
func (f MetadataFilter) Admits(clearanceTag int, topic string) bool {
	if clearanceTag > f.MaxClearance {
		return false
	}
	if len(f.Topics) == 0 {
		return false
	}
	for _, t := range f.Topics {
		if t == "*" || t == topic {
			return true
		}
	}
	return false
}

// RetrievalConfig is the derived parameter set governing one retrieval
// call. Immutable once produced.
type RetrievalConfig struct {
	K              int            `json:"k"`
	ScoreThreshold float64        `json:"score_threshold"`
	Filter         MetadataFilter `json:"filter"`
}

// Verdict is the outcome of evaluating one query against policy.
// Retrieval is non-nil only for Allowed verdicts on non-empty queries.
type Verdict struct {
	Outcome Outcome `json:"outcome"`

	// Reason is the human-readable explanation; for keyword denials it
	// names the triggering term and language.
	Reason string `json:"reason"`

	// Keyword is the matched denylist term, empty for Allowed.
	Keyword string `json:"keyword,omitempty"`

	// RequiredLevel is the minimum clearance that would not have denied,
	// 0 when not applicable (OMEGA-7 can never be satisfied).
	RequiredLevel int `json:"required_level,omitempty"`

	Retrieval *RetrievalConfig `json:"retrieval,omitempty"`
}

// Allow builds an Allowed verdict carrying the retrieval configuration.
func Allow(rc *RetrievalConfig) Verdict {
	return Verdict{Outcome: Allowed, Reason: "query within clearance", Retrieval: rc}
}
