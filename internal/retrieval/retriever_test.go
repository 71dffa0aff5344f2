package retrieval

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/umbrellacorp/usiop/internal/model"
)

func testDocs() []Document {
	return []Document{
		{Source: "a.md", Topic: "hr_benefits", ClearanceTag: 1, Content: "annual leave requests go to your supervisor"},
		{Source: "b.md", Topic: "hr_benefits", ClearanceTag: 3, Content: "annual leave for research staff follows lab rotation"},
		{Source: "c.md", Topic: "containment_protocols", ClearanceTag: 4, Content: "annual containment review and leave blackout periods"},
		{Source: "d.md", Topic: "hr_benefits", ClearanceTag: 1, Content: "parking permits are issued quarterly"},
	}
}

func TestRetrieveRespectsClearanceBound(t *testing.T) {
	store := NewMemoryStore()
	store.Add(testDocs()...)

	cfg := model.RetrievalConfig{
		K:              10,
		ScoreThreshold: 0.1,
		Filter:         model.MetadataFilter{MaxClearance: 1, Topics: []string{"hr_benefits"}},
	}

	docs, err := store.Retrieve(context.Background(), "annual leave", cfg)
	if err != nil {
		t.Fatal(err)
	}
	for _, d := range docs {
		if d.ClearanceTag > 1 {
			t.Errorf("document %s tagged %d leaked past max clearance 1", d.Source, d.ClearanceTag)
		}
	}
}

func TestRetrieveRespectsTopicFilter(t *testing.T) {
	store := NewMemoryStore()
	store.Add(testDocs()...)

	cfg := model.RetrievalConfig{
		K:              10,
		ScoreThreshold: 0.1,
		Filter:         model.MetadataFilter{MaxClearance: 5, Topics: []string{"containment_protocols"}},
	}

	docs, err := store.Retrieve(context.Background(), "annual leave", cfg)
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 1 || docs[0].Source != "c.md" {
		t.Fatalf("expected only the containment doc, got %v", docs)
	}
}

func TestRetrieveTruncatesToK(t *testing.T) {
	store := NewMemoryStore()
	store.Add(testDocs()...)

	cfg := model.RetrievalConfig{
		K:              1,
		ScoreThreshold: 0.1,
		Filter:         model.MetadataFilter{MaxClearance: 5, Topics: []string{"*"}},
	}

	docs, err := store.Retrieve(context.Background(), "annual leave", cfg)
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 1 {
		t.Fatalf("expected 1 result with k=1, got %d", len(docs))
	}
}

func TestRetrieveAppliesThreshold(t *testing.T) {
	store := NewMemoryStore()
	store.Add(testDocs()...)

	cfg := model.RetrievalConfig{
		K:              10,
		ScoreThreshold: 0.9,
		Filter:         model.MetadataFilter{MaxClearance: 5, Topics: []string{"*"}},
	}

	// "parking" hits only one term of a two-term query in every doc but d.
	docs, err := store.Retrieve(context.Background(), "parking permits", cfg)
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 1 || docs[0].Source != "d.md" {
		t.Fatalf("expected only the full-overlap doc above threshold 0.9, got %v", docs)
	}
}

func TestRetrieveOrdersByScore(t *testing.T) {
	store := NewMemoryStore()
	store.Add(testDocs()...)

	cfg := model.RetrievalConfig{
		K:              10,
		ScoreThreshold: 0,
		Filter:         model.MetadataFilter{MaxClearance: 5, Topics: []string{"*"}},
	}

	docs, err := store.Retrieve(context.Background(), "annual leave", cfg)
	if err != nil {
		t.Fatal(err)
	}
	for i := 1; i < len(docs); i++ {
		if docs[i].Score > docs[i-1].Score {
			t.Errorf("results not sorted by score: %v", docs)
		}
	}
}

func TestRetrieveCancelledContext(t *testing.T) {
	store := NewMemoryStore()
	store.Add(testDocs()...)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := store.Retrieve(ctx, "annual leave", model.RetrievalConfig{K: 1}); err == nil {
		t.Fatal("expected error on cancelled context")
	}
}

func TestLoadDocuments(t *testing.T) {
	yaml := `documents:
  - source: handbook/leave.md
    topic: hr_benefits
    clearance_tag: 1
    content: annual leave requests go through your supervisor
  - source: labs/specimens.md
    topic: research_guidelines
    clearance_tag: 3
    content: specimen handling requires dual sign-off
`
	path := filepath.Join(t.TempDir(), "docs.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0600); err != nil {
		t.Fatal(err)
	}

	docs, err := LoadDocuments(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(docs))
	}
	if docs[1].ClearanceTag != 3 {
		t.Errorf("expected clearance tag 3, got %d", docs[1].ClearanceTag)
	}
}

func TestLoadDocumentsRejectsBadTag(t *testing.T) {
	yaml := `documents:
  - source: x.md
    topic: hr_benefits
    clearance_tag: 9
    content: whatever
`
	path := filepath.Join(t.TempDir(), "docs.yaml")
	os.WriteFile(path, []byte(yaml), 0600)

	if _, err := LoadDocuments(path); err == nil {
		t.Fatal("expected error for out-of-range clearance tag")
	}
}
