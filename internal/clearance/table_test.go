package clearance

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/umbrellacorp/usiop/internal/model"
)

func TestDefaultRulesBuildValidTable(t *testing.T) {
	table, err := NewTable(DefaultRules())
	if err != nil {
		t.Fatalf("default rules should validate: %v", err)
	}

	levels := table.Levels()
	if len(levels) != 5 {
		t.Fatalf("expected 5 levels, got %d", len(levels))
	}
	for i, lvl := range levels {
		if lvl != i+1 {
			t.Fatalf("expected ascending levels 1-5, got %v", levels)
		}
	}
}

func TestRetrievalParametersMonotone(t *testing.T) {
	table, err := NewTable(DefaultRules())
	if err != nil {
		t.Fatal(err)
	}

	prev, _ := table.RuleFor(model.MinClearance)
	for lvl := model.MinClearance + 1; lvl <= model.MaxClearance; lvl++ {
		cur, err := table.RuleFor(lvl)
		if err != nil {
			t.Fatalf("level %d: %v", lvl, err)
		}
		if cur.K < prev.K {
			t.Errorf("k shrinks from level %d (%d) to %d (%d)", lvl-1, prev.K, lvl, cur.K)
		}
		if cur.ScoreThreshold > prev.ScoreThreshold {
			t.Errorf("threshold rises from level %d (%.2f) to %d (%.2f)", lvl-1, prev.ScoreThreshold, lvl, cur.ScoreThreshold)
		}
		prev = cur
	}
}

func TestMissingLevelRejected(t *testing.T) {
	rules := DefaultRules()[:4]

	_, err := NewTable(rules)
	if err == nil {
		t.Fatal("expected error for missing level 5")
	}
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError, got %T", err)
	}
}

func TestDuplicateLevelRejected(t *testing.T) {
	rules := append(DefaultRules(), DefaultRules()[0])

	if _, err := NewTable(rules); err == nil {
		t.Fatal("expected error for duplicate level")
	}
}

func TestNonMonotoneKRejected(t *testing.T) {
	rules := DefaultRules()
	rules[4].K = 1 // below level 4's k

	_, err := NewTable(rules)
	if err == nil {
		t.Fatal("expected error for shrinking k")
	}
	if !strings.Contains(err.Error(), "k not monotone") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestNonMonotoneThresholdRejected(t *testing.T) {
	rules := DefaultRules()
	rules[4].ScoreThreshold = 0.95 // above level 4's threshold

	_, err := NewTable(rules)
	if err == nil {
		t.Fatal("expected error for rising threshold")
	}
	if !strings.Contains(err.Error(), "threshold not monotone") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestInvalidRuleValuesRejected(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(r *Rule)
	}{
		{"zero k", func(r *Rule) { r.K = 0 }},
		{"negative threshold", func(r *Rule) { r.ScoreThreshold = -0.1 }},
		{"threshold above one", func(r *Rule) { r.ScoreThreshold = 1.5 }},
		{"empty topics", func(r *Rule) { r.Topics = nil }},
		{"level out of range", func(r *Rule) { r.Level = 7 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rules := DefaultRules()
			tc.mutate(&rules[0])
			if _, err := NewTable(rules); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestRuleForUnknownLevel(t *testing.T) {
	table, _ := NewTable(DefaultRules())

	if _, err := table.RuleFor(9); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestMergedDeniedUnionsLanguages(t *testing.T) {
	r := Rule{DeniedKeywords: map[string][]string{
		"tr": {"salgın"},
		"en": {"outbreak", "specimen"},
	}}

	merged := r.MergedDenied()
	if len(merged) != 3 {
		t.Fatalf("expected 3 merged terms, got %v", merged)
	}
	// Languages merge in sorted order so the result is stable.
	if merged[0] != "outbreak" || merged[2] != "salgın" {
		t.Errorf("unexpected merge order: %v", merged)
	}
}

func TestLoadWithHashFromFile(t *testing.T) {
	yaml := `levels:
  - level: 1
    topics: [general_policies]
    denied_keywords:
      en: [secret]
    k: 2
    score_threshold: 0.8
  - level: 2
    topics: [general_policies]
    k: 2
    score_threshold: 0.8
  - level: 3
    topics: [general_policies]
    k: 3
    score_threshold: 0.7
  - level: 4
    topics: [general_policies]
    k: 4
    score_threshold: 0.6
    facility_access: true
  - level: 5
    topics: ["*"]
    k: 10
    score_threshold: 0.5
    facility_access: true
`
	path := filepath.Join(t.TempDir(), "clearance.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0600); err != nil {
		t.Fatal(err)
	}

	table, hash, err := LoadWithHash(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !strings.HasPrefix(hash, "sha256:") {
		t.Errorf("expected sha256-prefixed hash, got %q", hash)
	}

	rule, err := table.RuleFor(4)
	if err != nil {
		t.Fatal(err)
	}
	if !rule.FacilityAccess {
		t.Error("expected facility access at level 4")
	}
}

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	table, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("missing file should fall back to defaults: %v", err)
	}

	rule, err := table.RuleFor(5)
	if err != nil {
		t.Fatal(err)
	}
	if rule.K != 10 {
		t.Errorf("expected default k=10 at level 5, got %d", rule.K)
	}
}

func TestLoadMalformedFileFatal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clearance.yaml")
	os.WriteFile(path, []byte("levels: [{level: 1, k: 0}]"), 0600)

	if _, err := Load(path); err == nil {
		t.Fatal("expected error for malformed table")
	}
}
