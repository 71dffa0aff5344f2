package clearance

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/umbrellacorp/usiop/internal/model"
)

// ConfigError reports a malformed or missing clearance rule. It is fatal
// at startup: a process must not serve queries against a broken table.
type ConfigError struct {
	Source string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Source == "" {
		return "clearance config: " + e.Reason
	}
	return fmt.Sprintf("clearance config (%s): %s", e.Source, e.Reason)
}

// Rule is one row of the clearance table: what an SCL may ask about and
// how much it may retrieve. DeniedKeywords is organized as per-language
// sublists; matching unions them so a language switch cannot bypass a term.
type Rule struct {
	Level          int                 `yaml:"level"`
	Topics         []string            `yaml:"topics"`
	DeniedKeywords map[string][]string `yaml:"denied_keywords"`
	K              int                 `yaml:"k"`
	ScoreThreshold float64             `yaml:"score_threshold"`
	FacilityAccess bool                `yaml:"facility_access"`
}

// tableFile is the YAML shape of a clearance table on disk.
type tableFile struct {
	Levels []Rule `yaml:"levels"`
}

// Table is the immutable per-SCL rule set. Constructed once, injected
// into the policy engine and resolver, never mutated.
type Table struct {
	rules map[int]Rule
}

// NewTable validates the given rules and builds a Table.
func NewTable(rules []Rule) (*Table, error) {
	return newTable(rules, "")
}

func newTable(rules []Rule, source string) (*Table, error) {
	byLevel := make(map[int]Rule, len(rules))
	for _, r := range rules {
		if r.Level < model.MinClearance || r.Level > model.MaxClearance {
			return nil, &ConfigError{Source: source, Reason: fmt.Sprintf("rule level %d outside %d-%d", r.Level, model.MinClearance, model.MaxClearance)}
		}
		if _, dup := byLevel[r.Level]; dup {
			return nil, &ConfigError{Source: source, Reason: fmt.Sprintf("duplicate rule for level %d", r.Level)}
		}
		if r.K <= 0 {
			return nil, &ConfigError{Source: source, Reason: fmt.Sprintf("level %d: k must be positive, got %d", r.Level, r.K)}
		}
		if r.ScoreThreshold < 0 || r.ScoreThreshold > 1 {
			return nil, &ConfigError{Source: source, Reason: fmt.Sprintf("level %d: score_threshold %.2f outside [0,1]", r.Level, r.ScoreThreshold)}
		}
		if len(r.Topics) == 0 {
			return nil, &ConfigError{Source: source, Reason: fmt.Sprintf("level %d: empty topic set", r.Level)}
		}
		byLevel[r.Level] = r
	}

	for lvl := model.MinClearance; lvl <= model.MaxClearance; lvl++ {
		if _, ok := byLevel[lvl]; !ok {
			return nil, &ConfigError{Source: source, Reason: fmt.Sprintf("missing rule for level %d", lvl)}
		}
	}

	// Higher clearance retrieves more, more liberally: k never shrinks,
	// the threshold never rises, as level increases.
	for lvl := model.MinClearance + 1; lvl <= model.MaxClearance; lvl++ {
		prev, cur := byLevel[lvl-1], byLevel[lvl]
		if cur.K < prev.K {
			return nil, &ConfigError{Source: source, Reason: fmt.Sprintf("k not monotone: level %d has k=%d below level %d k=%d", lvl, cur.K, lvl-1, prev.K)}
		}
		if cur.ScoreThreshold > prev.ScoreThreshold {
			return nil, &ConfigError{Source: source, Reason: fmt.Sprintf("threshold not monotone: level %d has %.2f above level %d %.2f", lvl, cur.ScoreThreshold, lvl-1, prev.ScoreThreshold)}
		}
	}

	return &Table{rules: byLevel}, nil
}

// RuleFor returns the rule for the given clearance level.
func (t *Table) RuleFor(level int) (Rule, error) {
	r, ok := t.rules[level]
	if !ok {
		return Rule{}, &ConfigError{Reason: fmt.Sprintf("no rule for clearance level %d", level)}
	}
	return r, nil
}

// Levels returns the configured levels in ascending order.
func (t *Table) Levels() []int {
	levels := make([]int, 0, len(t.rules))
	for lvl := range t.rules {
		levels = append(levels, lvl)
	}
	sort.Ints(levels)
	return levels
}

// MergedDenied returns the union of all per-language denied keyword
// sublists for the rule, lowercased matching is the caller's concern.
func (r Rule) MergedDenied() []string {
	var merged []string
	langs := make([]string, 0, len(r.DeniedKeywords))
	for lang := range r.DeniedKeywords {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	for _, lang := range langs {
		merged = append(merged, r.DeniedKeywords[lang]...)
	}
	return merged
}

// Load reads a clearance table from a YAML file. An empty path falls back
// to ~/.usiop/clearance.yaml; a missing file yields the built-in defaults.
func Load(path string) (*Table, error) {
	t, _, err := LoadWithHash(path)
	return t, err
}

// LoadWithHash loads a clearance table and returns the SHA-256 hash of
// the raw YAML bytes, so audit entries can pin the table version.
// Defaults hash as SHA-256 of empty input.
func LoadWithHash(path string) (*Table, string, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return defaultsWithHash()
		}
		path = filepath.Join(home, ".usiop", "clearance.yaml")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return defaultsWithHash()
		}
		return nil, "", &ConfigError{Source: path, Reason: err.Error()}
	}

	var f tableFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, "", &ConfigError{Source: path, Reason: "parse: " + err.Error()}
	}

	t, err := newTable(f.Levels, path)
	if err != nil {
		return nil, "", err
	}

	h := sha256.Sum256(data)
	return t, "sha256:" + hex.EncodeToString(h[:]), nil
}

func defaultsWithHash() (*Table, string, error) {
	t, err := NewTable(DefaultRules())
	if err != nil {
		return nil, "", err
	}
	h := sha256.Sum256(nil)
	return t, "sha256:" + hex.EncodeToString(h[:]), nil
}
