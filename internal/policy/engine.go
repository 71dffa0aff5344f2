// Package policy evaluates inbound queries against the clearance table
// and the fixed denylists. Evaluation order is a security property and
// must not be changed: the clearance-independent OMEGA-7 check runs
// first regardless of level, then the facility gate, then the per-level
// keyword gate. Each layer short-circuits.
package policy

import (
	"fmt"

	"github.com/umbrellacorp/usiop/internal/alert"
	"github.com/umbrellacorp/usiop/internal/audit"
	"github.com/umbrellacorp/usiop/internal/clearance"
	"github.com/umbrellacorp/usiop/internal/denylist"
	"github.com/umbrellacorp/usiop/internal/model"
	"github.com/umbrellacorp/usiop/internal/retrieval"
	"github.com/umbrellacorp/usiop/internal/tracer"
)

// DefaultPrivilegedFacility is the one site whose underground facility
// exists as far as any asset may learn.
const DefaultPrivilegedFacility = "Raccoon City HQ"

// Engine evaluates queries. It is a pure function of (identity, query)
// over immutable inputs: the same pair always yields the same verdict.
// Side effects (one audit entry and one tracer event per call) happen
// on every path, deny and allow alike.
type Engine struct {
	table     *clearance.Table
	dl        *denylist.Denylist
	resolver  *retrieval.Resolver
	recorder  *audit.Recorder
	emitter   tracer.Emitter
	alerts    *alert.Dispatcher
	tableHash string
	facility  string
}

// Option configures an Engine.
type Option func(*Engine)

// WithRecorder replaces the default sink-less recorder. Every engine
// records one entry per evaluation; the recorder decides where entries
// are persisted. The gateway wires one backed by the JSONL chain and
// the sqlite store.
func WithRecorder(r *audit.Recorder) Option {
	return func(e *Engine) { e.recorder = r }
}

// WithEmitter wires the observability emitter.
func WithEmitter(em tracer.Emitter) Option {
	return func(e *Engine) { e.emitter = em }
}

// WithAlerts wires the denial alert dispatcher.
func WithAlerts(d *alert.Dispatcher) Option {
	return func(e *Engine) { e.alerts = d }
}

// WithTableHash pins the clearance table version in audit entries.
func WithTableHash(hash string) Option {
	return func(e *Engine) { e.tableHash = hash }
}

// WithPrivilegedFacility overrides the facility whose location grants
// underground access.
func WithPrivilegedFacility(name string) Option {
	return func(e *Engine) { e.facility = name }
}

// NewEngine builds an Engine over an already-validated clearance table
// and denylist.
func NewEngine(table *clearance.Table, dl *denylist.Denylist, opts ...Option) *Engine {
	e := &Engine{
		table:    table,
		dl:       dl,
		resolver: retrieval.NewResolver(table),
		recorder: audit.NewRecorder(nil, nil),
		emitter:  tracer.Nop{},
		facility: DefaultPrivilegedFacility,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Resolver returns the engine's retrieval parameter resolver.
func (e *Engine) Resolver() *retrieval.Resolver {
	return e.resolver
}

// Recorder returns the engine's audit recorder.
func (e *Engine) Recorder() *audit.Recorder {
	return e.recorder
}

// Evaluate runs the ordered policy layers for one query and returns the
// verdict. Exactly one audit entry is recorded per call, matching the
// returned verdict.
func (e *Engine) Evaluate(id model.Identity, q model.Query) model.Verdict {
	v, _ := e.EvaluateWithAudit(id, q)
	return v
}

// EvaluateWithAudit is Evaluate plus the recorded audit entry ID, so the
// caller can attach a response reference once the collaborators answer.
func (e *Engine) EvaluateWithAudit(id model.Identity, q model.Query) (model.Verdict, string) {
	verdict := e.decide(id, q)
	entryID := e.record(id, q, verdict)
	e.emit(id, q, verdict)
	e.alertOnDenial(id, q, verdict)
	return verdict, entryID
}

// decide is the pure decision function: no side effects.
func (e *Engine) decide(id model.Identity, q model.Query) model.Verdict {
	// Nothing to evaluate, nothing to retrieve against.
	if q.Empty() {
		return model.Verdict{Outcome: model.Allowed, Reason: "empty query, no retrieval"}
	}

	// Layer 1: OMEGA-7. No clearance level overrides this, including 5.
	if kw, lang, ok := e.dl.MatchOmega7(q.Text); ok {
		return model.Verdict{
			Outcome: model.DeniedOmega7,
			Reason:  fmt.Sprintf("OMEGA-7 classified term %q (%s)", kw, lang),
			Keyword: kw,
		}
	}

	rule, err := e.table.RuleFor(id.ClearanceLevel)
	if err != nil {
		// Identity carries a level the table does not know. Most
		// restrictive response: treat as insufficient clearance.
		return model.Verdict{
			Outcome: model.DeniedClearance,
			Reason:  fmt.Sprintf("no clearance rule for level %d", id.ClearanceLevel),
		}
	}

	// Layer 2: restricted facility.
	if kw, lang, ok := e.dl.MatchFacility(q.Text); ok {
		if !rule.FacilityAccess || !e.atPrivilegedFacility(id) {
			return model.Verdict{
				Outcome:       model.DeniedFacility,
				Reason:        fmt.Sprintf("restricted facility term %q (%s) without facility access", kw, lang),
				Keyword:       kw,
				RequiredLevel: e.facilityLevel(),
			}
		}
	}

	// Layer 3: per-level denied keywords.
	if kw, ok := denylist.Match(q.Text, rule.MergedDenied()); ok {
		return model.Verdict{
			Outcome:       model.DeniedClearance,
			Reason:        fmt.Sprintf("term %q requires SCL-%d, asset holds SCL-%d", kw, e.requiredLevel(kw), id.ClearanceLevel),
			Keyword:       kw,
			RequiredLevel: e.requiredLevel(kw),
		}
	}

	cfg, err := e.resolver.Resolve(id)
	if err != nil {
		return model.Verdict{
			Outcome: model.DeniedClearance,
			Reason:  fmt.Sprintf("no retrieval parameters for level %d", id.ClearanceLevel),
		}
	}
	return model.Allow(&cfg)
}

// atPrivilegedFacility reports whether the identity may acknowledge the
// underground facility: either assigned to the privileged site or
// granted facility access by the directory.
func (e *Engine) atPrivilegedFacility(id model.Identity) bool {
	return id.Location == e.facility || id.FacilityAccess
}

// requiredLevel returns the lowest clearance level whose rule does not
// deny the keyword, defaulting to the maximum.
func (e *Engine) requiredLevel(keyword string) int {
	for _, lvl := range e.table.Levels() {
		rule, err := e.table.RuleFor(lvl)
		if err != nil {
			continue
		}
		if _, denied := denylist.Match(keyword, rule.MergedDenied()); !denied {
			return lvl
		}
	}
	return model.MaxClearance
}

// facilityLevel returns the lowest level whose rule grants facility
// access, defaulting to the maximum.
func (e *Engine) facilityLevel() int {
	for _, lvl := range e.table.Levels() {
		if rule, err := e.table.RuleFor(lvl); err == nil && rule.FacilityAccess {
			return lvl
		}
	}
	return model.MaxClearance
}

func (e *Engine) record(id model.Identity, q model.Query, v model.Verdict) string {
	if e.recorder == nil {
		return ""
	}

	entry := audit.Entry{
		SessionID: q.SessionID,
		Identity: audit.IdentitySnapshot{
			EmployeeID: id.EmployeeID,
			Name:       id.FullName(),
			Department: id.Department,
			Location:   id.Location,
			Clearance:  id.ClearanceLevel,
		},
		Query:     q.Text,
		Outcome:   string(v.Outcome),
		Reason:    v.Reason,
		Keyword:   v.Keyword,
		TableHash: e.tableHash,
	}
	if v.Retrieval != nil {
		entry.K = v.Retrieval.K
		entry.Threshold = v.Retrieval.ScoreThreshold
		entry.MaxClearance = v.Retrieval.Filter.MaxClearance
	}
	return e.recorder.Record(entry)
}

func (e *Engine) emit(id model.Identity, q model.Query, v model.Verdict) {
	e.emitter.Emit(tracer.Event{
		TraceID:    tracer.NewTraceID(),
		SessionID:  q.SessionID,
		EmployeeID: id.EmployeeID,
		Clearance:  id.ClearanceLevel,
		Department: id.Department,
		Location:   id.Location,
		Outcome:    string(v.Outcome),
		Tags:       tracer.BuildTags(id.ClearanceLevel, id.Department, id.Location, string(v.Outcome)),
	})
}

func (e *Engine) alertOnDenial(id model.Identity, q model.Query, v model.Verdict) {
	if e.alerts == nil || !v.Outcome.Denied() {
		return
	}
	e.alerts.Dispatch(alert.Event{
		Timestamp:  tracer.UTCNowISO(),
		Type:       string(v.Outcome),
		SessionID:  q.SessionID,
		EmployeeID: id.EmployeeID,
		Clearance:  id.ClearanceLevel,
		Location:   id.Location,
		Reason:     v.Reason,
		Keyword:    v.Keyword,
		TableHash:  e.tableHash,
	})
}
