package assistant

import (
	"context"
	"fmt"
	"strings"

	"github.com/umbrellacorp/usiop/internal/retrieval"
	"github.com/umbrellacorp/usiop/internal/session"
)

// EchoGenerator answers from retrieved documents without a language
// model. Used by the demo command and tests; the shape of the answer
// mirrors what the external collaborator would produce.
type EchoGenerator struct{}

// Generate summarizes the admitted documents, citing their sources.
func (EchoGenerator) Generate(_ context.Context, _ string, _ []session.Turn, docs []retrieval.Document, input string) (string, error) {
	if len(docs) == 0 {
		return "No relevant policy information found within your clearance level.", nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Policy references for %q:\n", input)
	for _, d := range docs {
		fmt.Fprintf(&b, "\n[Source: %s]\n%s\n", d.Source, d.Content)
	}
	return strings.TrimSpace(b.String()), nil
}
