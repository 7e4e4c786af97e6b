package domain

// Header is a located rechtsoverweging marker in a normalized document.
// Start/End are byte offsets of the marker itself; block content begins at End.
type Header struct {
	Number NumberPath
	Start  int
	End    int
}

// Block is one segmented rechtsoverweging: the paragraph number plus its
// cleaned content, running up to the next header (or end of document).
type Block struct {
	Number NumberPath
	Text   string
}

// ScoredBlock carries the ranking score alongside the block. It only lives
// inside the ranker; callers see plain Blocks or Candidates.
type ScoredBlock struct {
	Block
	Score  float64
	Length int
}

// Candidate is the wire shape of one ranked block as offered to the
// synthesis collaborator.
type Candidate struct {
	Number string `json:"number"`
	Text   string `json:"text"`
}

// SynthesisRequest is the bounded, deterministic payload handed to the
// synthesis collaborator. It is the only evidence surface the collaborator
// is allowed to draw from.
type SynthesisRequest struct {
	DocumentExcerpt string      `json:"document_excerpt"`
	Candidates      []Candidate `json:"candidates"`
	ReferenceHints  []string    `json:"reference_hints"`
}

// CandidateNumbers lists the offered paragraph numbers, in candidate order.
func (r SynthesisRequest) CandidateNumbers() []string {
	nums := make([]string, len(r.Candidates))
	for i, c := range r.Candidates {
		nums[i] = c.Number
	}
	return nums
}
