// Package assistant orchestrates one conversational turn: policy
// evaluation, retrieval-parameter resolution, the external retrieval
// and generation collaborators, session append, and the audit response
// reference. Policy outcomes are decided before any collaborator is
// touched; a degraded collaborator degrades the answer, never the gate.
package assistant

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/umbrellacorp/usiop/internal/audit"
	"github.com/umbrellacorp/usiop/internal/model"
	"github.com/umbrellacorp/usiop/internal/policy"
	"github.com/umbrellacorp/usiop/internal/prompt"
	"github.com/umbrellacorp/usiop/internal/retrieval"
	"github.com/umbrellacorp/usiop/internal/session"
)

// Generator is the external language-model collaborator. It receives
// the clearance-scoped instruction, conversation history, admitted
// documents, and the query; it returns generated text.
type Generator interface {
	Generate(ctx context.Context, instruction string, history []session.Turn, docs []retrieval.Document, input string) (string, error)
}

// Assistant runs the clearance-gated query pipeline for sessions.
type Assistant struct {
	engine    *policy.Engine
	retriever retrieval.Retriever
	generator Generator
	recorder  *audit.Recorder
	logger    *slog.Logger
}

// New creates an Assistant. Retriever and generator may be nil, in
// which case allowed queries get the degraded-collaborator notice.
func New(engine *policy.Engine, retriever retrieval.Retriever, generator Generator, recorder *audit.Recorder, logger *slog.Logger) *Assistant {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assistant{
		engine:    engine,
		retriever: retriever,
		generator: generator,
		recorder:  recorder,
		logger:    logger,
	}
}

// Respond evaluates one query within a session and returns the rendered
// response alongside the verdict. The verdict is authoritative whatever
// the collaborators do afterwards. The whole turn runs under the
// session's turn lock, so a later query of the same session is not
// evaluated until this one has completed and appended; turn-history
// order matches audit order.
func (a *Assistant) Respond(ctx context.Context, sess *session.Session, text string) (string, model.Verdict, error) {
	var (
		response string
		verdict  model.Verdict
		err      error
	)
	sess.Do(func() {
		response, verdict, err = a.turn(ctx, sess, text)
	})
	return response, verdict, err
}

func (a *Assistant) turn(ctx context.Context, sess *session.Session, text string) (string, model.Verdict, error) {
	id := sess.Identity()
	q := model.NewQuery(id, text, sess.ID())

	verdict, entryID := a.engine.EvaluateWithAudit(id, q)

	var response string
	switch {
	case verdict.Outcome.Denied():
		response = prompt.Denial(id, verdict)

	case verdict.Retrieval == nil:
		// Empty query: allowed, nothing to retrieve against.
		response = prompt.Welcome(id)

	default:
		response = a.generate(ctx, sess, q, verdict)
	}

	if a.recorder != nil && entryID != "" {
		a.recorder.AttachResponse(entryID, audit.HashLine([]byte(response)))
	}

	if err := sess.AppendTurn(q, verdict, response); err != nil {
		return "", verdict, fmt.Errorf("append turn: %w", err)
	}
	return response, verdict, nil
}

func (a *Assistant) generate(ctx context.Context, sess *session.Session, q model.Query, verdict model.Verdict) string {
	id := sess.Identity()

	if a.retriever == nil || a.generator == nil {
		return prompt.Unavailable(id)
	}

	docs, err := a.retriever.Retrieve(ctx, q.Text, *verdict.Retrieval)
	if err != nil {
		a.logger.Error("retrieval failed", "session", sess.ID(), "err", err)
		return prompt.Unavailable(id)
	}

	// Belt and braces: drop anything the collaborator returned above
	// the asset's clearance. The collaborator owns similarity, this
	// core owns admission.
	admitted := docs[:0]
	for _, d := range docs {
		if verdict.Retrieval.Filter.Admits(d.ClearanceTag, d.Topic) {
			admitted = append(admitted, d)
		}
	}

	out, err := a.generator.Generate(ctx, prompt.Instruction(id), sess.History(), admitted, q.Text)
	if err != nil {
		a.logger.Error("generation failed", "session", sess.ID(), "err", err)
		return prompt.Unavailable(id)
	}

	return prompt.Transmission(id, out)
}
