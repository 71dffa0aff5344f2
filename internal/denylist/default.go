package denylist

// DefaultLists are the built-in OMEGA-7 and facility keyword lists.
// OMEGA-7 terms cover compensation, performance, and PII queries; they
// apply to every clearance level including SCL-5. Facility terms cover
// the underground facility, acknowledgeable only by facility-cleared
// assets at the privileged site.
var DefaultLists = Lists{
	Omega7: map[string][]string{
		"en": {"salary", "compensation", "performance", "evaluation", "pay grade", "personnel file"},
		"tr": {"maaş", "ücret", "performans", "değerlendirme"},
	},
	Facility: map[string][]string{
		"en": {"underground", "sub-level", "basement", "secret facility"},
		"tr": {"yeraltı", "bodrum", "gizli tesis"},
	},
}
