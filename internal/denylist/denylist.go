// Package denylist holds the clearance-independent keyword lists: the
// OMEGA-7 confidential terms that no clearance may query, and the
// restricted-facility terms gated by facility access. Lists are composed
// of per-language sublists merged at load time, so matching stays
// language-agnostic and a language switch cannot bypass a term.
package denylist

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Lists holds the raw terms organized by category and language.
type Lists struct {
	Omega7   map[string][]string `yaml:"omega7"`
	Facility map[string][]string `yaml:"facility"`
}

// Denylist holds merged, lowercased terms for fast matching.
type Denylist struct {
	omega7   []term
	facility []term
	raw      Lists
}

// term keeps the originating language for denial reasons and audit.
type term struct {
	text string
	lang string
}

// New creates a Denylist from raw lists, merging language sublists.
func New(l Lists) *Denylist {
	return &Denylist{
		omega7:   mergeTerms(l.Omega7),
		facility: mergeTerms(l.Facility),
		raw:      l,
	}
}

// NewDefault creates a Denylist with the built-in default lists.
func NewDefault() *Denylist {
	return New(DefaultLists)
}

// Load reads a denylist from a YAML file. Empty path falls back to
// ~/.usiop/denylist.yaml; a missing file yields the defaults.
func Load(path string) (*Denylist, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return NewDefault(), nil
		}
		path = filepath.Join(home, ".usiop", "denylist.yaml")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewDefault(), nil
		}
		return nil, err
	}

	var l Lists
	if err := yaml.Unmarshal(data, &l); err != nil {
		return nil, err
	}

	return New(l), nil
}

// MatchOmega7 returns the first OMEGA-7 term contained in the text and
// its language. This check can never be overridden by clearance level.
func (d *Denylist) MatchOmega7(text string) (keyword, lang string, ok bool) {
	return matchTerms(text, d.omega7)
}

// MatchFacility returns the first restricted-facility term contained in
// the text and its language.
func (d *Denylist) MatchFacility(text string) (keyword, lang string, ok bool) {
	return matchTerms(text, d.facility)
}

// Match reports the first of the given terms contained in the text.
// Matching is case-insensitive substring, the same rule the category
// lists use, exposed for per-level clearance keywords.
func Match(text string, terms []string) (string, bool) {
	lower := strings.ToLower(text)
	for _, t := range terms {
		if t == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(t)) {
			return t, true
		}
	}
	return "", false
}

// ToLists returns the raw lists for serialization.
func (d *Denylist) ToLists() Lists {
	return d.raw
}

func mergeTerms(byLang map[string][]string) []term {
	langs := make([]string, 0, len(byLang))
	for lang := range byLang {
		langs = append(langs, lang)
	}
	sort.Strings(langs)

	var merged []term
	for _, lang := range langs {
		for _, t := range byLang[lang] {
			t = strings.ToLower(strings.TrimSpace(t))
			if t == "" {
				continue
			}
			merged = append(merged, term{text: t, lang: lang})
		}
	}
	return merged
}

func matchTerms(text string, terms []term) (string, string, bool) {
	lower := strings.ToLower(text)
	for _, t := range terms {
		if strings.Contains(lower, t.text) {
			return t.text, t.lang, true
		}
	}
	return "", "", false
}
