package domain

// Role labels the function of an annotated rechtsoverweging within the
// IRAC analysis. Closed enumeration; anything else fails validation.
type Role string

const (
	RoleRule        Role = "Rule"
	RoleApplication Role = "Application"
	RoleConclusion  Role = "Conclusion"
	RoleOther       Role = "Other"
)

// SubstantiveRoles are the roles the guardrail guarantees at least one
// block for, in promotion order.
var SubstantiveRoles = []Role{RoleRule, RoleApplication, RoleConclusion}

// Valid reports whether r is one of the four allowed role values.
func (r Role) Valid() bool {
	switch r {
	case RoleRule, RoleApplication, RoleConclusion, RoleOther:
		return true
	}
	return false
}

// AnnotatedBlock is one rechtsoverweging as annotated by the synthesis
// collaborator: which paragraph, what role it plays, a literal quote,
// a short summary, and any statute/case citations it mentions.
type AnnotatedBlock struct {
	RONumber  string   `json:"ro_number"`
	Role      Role     `json:"role"`
	Quote     string   `json:"quote"`
	Summary   string   `json:"summary"`
	Citations []string `json:"citations"`
}

// IracResult is the validated structured analysis of one decision.
// Sources preserve insertion order and are deduplicated.
type IracResult struct {
	Issue       string           `json:"issue"`
	Rule        string           `json:"rule"`
	Application string           `json:"application"`
	Conclusion  string           `json:"conclusion"`
	Blocks      []AnnotatedBlock `json:"blocks"`
	Sources     []string         `json:"sources"`
}

// Gist is the short "essentie" summary of a decision: one compact paragraph
// plus a handful of factual key points.
type Gist struct {
	Essence   string   `json:"essence"`
	KeyPoints []string `json:"key_points"`
}

// Summary is the full outcome of one pipeline run: the guardrailed result,
// the candidate set that was offered to the collaborator, and any soft
// warnings (e.g. a substantive role that could not be filled).
type Summary struct {
	Result     IracResult  `json:"result"`
	Candidates []Candidate `json:"candidates"`
	References []string    `json:"references"`
	Warnings   []string    `json:"warnings,omitempty"`
}

// CandidateSet is the preprocessing-only outcome: ranked candidates and the
// case-citation identifiers found in the document.
type CandidateSet struct {
	Candidates []Candidate `json:"candidates"`
	References []string    `json:"references"`
}

// MergeSources appends extra identifiers to sources, deduplicating while
// preserving first-seen order.
func MergeSources(sources, extra []string) []string {
	seen := make(map[string]struct{}, len(sources)+len(extra))
	merged := make([]string, 0, len(sources)+len(extra))
	for _, lists := range [][]string{sources, extra} {
		for _, s := range lists {
			if _, ok := seen[s]; ok {
				continue
			}
			seen[s] = struct{}{}
			merged = append(merged, s)
		}
	}
	return merged
}
