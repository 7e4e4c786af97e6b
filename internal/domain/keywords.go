package domain

// Keyword sets drive the heuristic scoring and the guardrail's role
// promotion. They are defaults: configuration may replace any set
// wholesale, so alternate vocabularies stay testable.

// DefaultScoringKeywords are the dragende (load-bearing) Dutch legal terms
// that raise a block's relevance score.
var DefaultScoringKeywords = []string{
	"rechtsregel", "toetsingskader", "maatstaf", "oordeelt", "overweegt",
	"schending", "niet-ontvankelijk", "verwerpt", "gegrond", "ongegrond",
	"cassatie", "sluit aan bij", "art.", "artikel", "evrm", "bw", "sr", "sv",
	"proportionaliteit", "subsidiariteit", "motiveringsgebrek",
	"belangenafweging", "kwalificatie",
}

// DefaultRoleKeywords are the per-role vocabularies the guardrail uses to
// promote an unlabeled block into a missing substantive role.
var DefaultRoleKeywords = map[Role][]string{
	RoleRule: {
		"rechtsregel", "maatstaf", "toetsingskader", "volgt uit", "heeft te gelden",
	},
	RoleApplication: {
		"toegepast", "in casu", "in dit geval", "het hof", "de rechtbank", "past toe",
	},
	RoleConclusion: {
		"concludeert", "oordeelt", "veroordeelt", "vernietigt", "verwerpt",
		"gegrond", "ongegrond", "beslist",
	},
}
