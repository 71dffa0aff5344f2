package retrieval

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/umbrellacorp/usiop/internal/model"
)

// docsFile is the YAML shape of a document corpus on disk.
type docsFile struct {
	Documents []Document `yaml:"documents"`
}

// LoadDocuments reads a document corpus from a YAML file, validating
// clearance tags.
func LoadDocuments(path string) ([]Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("documents: %w", err)
	}

	var f docsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("documents: parse %s: %w", path, err)
	}

	for i, d := range f.Documents {
		if d.ClearanceTag < model.MinClearance || d.ClearanceTag > model.MaxClearance {
			return nil, fmt.Errorf("documents: %s entry %d: clearance tag %d outside %d-%d",
				path, i, d.ClearanceTag, model.MinClearance, model.MaxClearance)
		}
		if d.Topic == "" {
			return nil, fmt.Errorf("documents: %s entry %d: missing topic", path, i)
		}
	}
	return f.Documents, nil
}
