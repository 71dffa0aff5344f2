// Package retrieval derives per-query retrieval parameters from the
// clearance table and enforces the document-side clearance bound. The
// vector-similarity store itself is an external collaborator behind the
// Retriever interface; this package owns only what goes into the call
// and which results are admissible.
package retrieval

import (
	"github.com/umbrellacorp/usiop/internal/clearance"
	"github.com/umbrellacorp/usiop/internal/model"
)

// Resolver computes RetrievalConfig values from the clearance table.
// Pure: the same identity always resolves to the same configuration.
type Resolver struct {
	table *clearance.Table
}

// NewResolver creates a Resolver over an immutable clearance table.
func NewResolver(table *clearance.Table) *Resolver {
	return &Resolver{table: table}
}

// Resolve returns the retrieval configuration for the identity's
// clearance level. The metadata filter caps document clearance tags at
// the identity's level: retrieval must never surface a document tagged
// above the asset querying for it.
func (r *Resolver) Resolve(id model.Identity) (model.RetrievalConfig, error) {
	rule, err := r.table.RuleFor(id.ClearanceLevel)
	if err != nil {
		return model.RetrievalConfig{}, err
	}

	return model.RetrievalConfig{
		K:              rule.K,
		ScoreThreshold: rule.ScoreThreshold,
		Filter: model.MetadataFilter{
			MaxClearance: id.ClearanceLevel,
			Topics:       rule.Topics,
		},
	}, nil
}
