package clearance

// DefaultRules returns the built-in clearance table. Topics widen with
// level; the denied keyword sets shrink as named programs become
// need-to-know rather than forbidden. Turkish sublists mirror the English
// terms for sites where assets query in either language; the program
// codenames (t-virus, nemesis, ...) are untranslated proper names.
func DefaultRules() []Rule {
	return []Rule{
		{
			Level:  1,
			Topics: []string{"general_policies", "hr_benefits", "office_locations"},
			DeniedKeywords: map[string][]string{
				"en": {"outbreak", "specimen", "t-virus", "g-virus", "nemesis", "tyrant", "secret", "classified"},
				"tr": {"salgın", "numune", "gizli", "sınıflandırılmış"},
			},
			K:              2,
			ScoreThreshold: 0.80,
		},
		{
			Level:  2,
			Topics: []string{"general_policies", "hr_benefits", "office_locations", "safety_protocols", "emergency_procedures"},
			DeniedKeywords: map[string][]string{
				"en": {"outbreak", "specimen", "t-virus", "g-virus", "nemesis", "tyrant"},
				"tr": {"salgın", "numune"},
			},
			K:              3,
			ScoreThreshold: 0.75,
		},
		{
			Level:  3,
			Topics: []string{"general_policies", "hr_benefits", "office_locations", "safety_protocols", "emergency_procedures", "research_guidelines"},
			DeniedKeywords: map[string][]string{
				"en": {"t-virus", "g-virus", "nemesis", "tyrant"},
			},
			K:              4,
			ScoreThreshold: 0.70,
		},
		{
			Level:  4,
			Topics: []string{"general_policies", "hr_benefits", "office_locations", "safety_protocols", "emergency_procedures", "research_guidelines", "containment_protocols"},
			DeniedKeywords: map[string][]string{
				"en": {"nemesis", "tyrant"},
			},
			K:              5,
			ScoreThreshold: 0.60,
			FacilityAccess: true,
		},
		{
			Level:          5,
			Topics:         []string{"*"},
			DeniedKeywords: map[string][]string{},
			K:              10,
			ScoreThreshold: 0.50,
			FacilityAccess: true,
		},
	}
}
