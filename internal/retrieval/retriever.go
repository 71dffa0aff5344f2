package retrieval

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/umbrellacorp/usiop/internal/model"
)

// Document is one retrievable policy fragment. ClearanceTag is the
// minimum SCL required to see it.
type Document struct {
	Source       string  `json:"source" yaml:"source"`
	Topic        string  `json:"topic" yaml:"topic"`
	ClearanceTag int     `json:"clearance_tag" yaml:"clearance_tag"`
	Content      string  `json:"content" yaml:"content"`
	Score        float64 `json:"score,omitempty" yaml:"-"`
}

// Retriever is the external document-retrieval collaborator. It owns
// similarity computation; implementations must honor the config: at most
// K results, score at or above the threshold, and only documents the
// filter admits.
type Retriever interface {
	Retrieve(ctx context.Context, query string, cfg model.RetrievalConfig) ([]Document, error)
}

// MemoryStore is a term-overlap Retriever used by the demo pipeline and
// tests. It is not a similarity engine; it exists so the filter and
// parameter plumbing can be exercised without an external store.
type MemoryStore struct {
	mu   sync.RWMutex
	docs []Document
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Add appends documents to the store.
func (m *MemoryStore) Add(docs ...Document) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs = append(m.docs, docs...)
}

// Retrieve scores documents by term overlap, applies the metadata filter
// and threshold, and returns at most cfg.K results, best first.
func (m *MemoryStore) Retrieve(ctx context.Context, query string, cfg model.RetrievalConfig) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	terms := strings.Fields(strings.ToLower(query))
	var results []Document
	for _, d := range m.docs {
		if !cfg.Filter.Admits(d.ClearanceTag, d.Topic) {
			continue
		}
		score := overlapScore(terms, strings.ToLower(d.Content))
		if score < cfg.ScoreThreshold {
			continue
		}
		d.Score = score
		results = append(results, d)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if len(results) > cfg.K {
		results = results[:cfg.K]
	}
	return results, nil
}

// overlapScore is the fraction of query terms present in the content.
func overlapScore(terms []string, content string) float64 {
	if len(terms) == 0 {
		return 0
	}
	hits := 0
	for _, t := range terms {
		if strings.Contains(content, t) {
			hits++
		}
	}
	return float64(hits) / float64(len(terms))
}
