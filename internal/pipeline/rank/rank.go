// Package rank scores segmented blocks and selects the bounded candidate
// set offered to the synthesis collaborator. Selection is deterministic:
// identical input and configuration always yield identical output.
package rank

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/iracify/iracify/internal/domain"
	"github.com/iracify/iracify/internal/pipeline/normalize"
)

// Default ranking knobs, tuned against Hoge Raad and hof decisions.
const (
	DefaultTopK           = 12
	DefaultBlockMaxChars  = 1600
	DefaultMinParentChars = 220
)

// Scoring constants. Keyword hits dominate; length and depth refine.
const (
	keywordWeight     = 2.0
	articleWeight     = 1.5
	rightsTreatyBonus = 1.0
	goodLengthBonus   = 1.2
	tooLongPenalty    = 0.6
	tooShortPenalty   = 0.4
	documentRefBonus  = 0.3
	depthStep         = 0.3
	depthBonusCap     = 0.9

	goodLengthMin = 250
	goodLengthMax = 1200
	tooLongMin    = 1800
	tooShortMax   = 120
)

var articleRe = regexp.MustCompile(`\bart\.\s*\d+`)

// rightsTreaty is the supranational-rights-instrument abbreviation that
// earns a dedicated bonus when a block invokes it.
const rightsTreaty = "evrm"

// Config controls ranking. Zero values fall back to defaults; an empty
// Keywords slice falls back to domain.DefaultScoringKeywords.
type Config struct {
	TopK           int
	BlockMaxChars  int
	MinParentChars int
	Keywords       []string
}

func (c Config) withDefaults() Config {
	if c.TopK <= 0 {
		c.TopK = DefaultTopK
	}
	if c.BlockMaxChars <= 0 {
		c.BlockMaxChars = DefaultBlockMaxChars
	}
	if c.MinParentChars <= 0 {
		c.MinParentChars = DefaultMinParentChars
	}
	if len(c.Keywords) == 0 {
		c.Keywords = domain.DefaultScoringKeywords
	}
	return c
}

// Score computes the relevance score of one block. hasReference reports
// whether the document as a whole contains at least one case-citation
// identifier (a weak global signal, not per-block).
func Score(b domain.Block, hasReference bool, keywords []string) float64 {
	text := strings.ToLower(b.Number.String() + " " + b.Text)
	score := 0.0
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			score += keywordWeight
		}
	}
	if articleRe.MatchString(text) {
		score += articleWeight
	}
	if strings.Contains(text, rightsTreaty) {
		score += rightsTreatyBonus
	}
	switch n := utf8.RuneCountInString(b.Text); {
	case n >= goodLengthMin && n <= goodLengthMax:
		score += goodLengthBonus
	case n > tooLongMin:
		score -= tooLongPenalty
	case n < tooShortMax:
		score -= tooShortPenalty
	}
	if hasReference {
		score += documentRefBonus
	}
	depthBonus := depthStep * float64(b.Number.Depth())
	if depthBonus > depthBonusCap {
		depthBonus = depthBonusCap
	}
	return score + depthBonus
}

// Select filters, scores, orders, and truncates blocks into the candidate
// set. Shallow parents shorter than MinParentChars whose children are also
// present are dropped before scoring; survivors are ordered by (score
// desc, length desc, number asc), deduplicated by number (first wins),
// capped at TopK, and soft-truncated to BlockMaxChars.
func Select(blocks []domain.Block, hasReference bool, cfg Config) []domain.Candidate {
	cfg = cfg.withDefaults()

	scored := make([]domain.ScoredBlock, 0, len(blocks))
	for _, b := range blocks {
		if hasChildren(b.Number, blocks) && utf8.RuneCountInString(b.Text) < cfg.MinParentChars {
			continue
		}
		scored = append(scored, domain.ScoredBlock{
			Block:  b,
			Score:  Score(b, hasReference, cfg.Keywords),
			Length: utf8.RuneCountInString(b.Text),
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		if scored[i].Length != scored[j].Length {
			return scored[i].Length > scored[j].Length
		}
		return domain.CompareNumberPaths(scored[i].Number, scored[j].Number) < 0
	})

	seen := make(map[string]struct{}, cfg.TopK)
	top := make([]domain.Candidate, 0, cfg.TopK)
	for _, sb := range scored {
		num := sb.Number.String()
		if _, ok := seen[num]; ok {
			continue
		}
		seen[num] = struct{}{}
		top = append(top, domain.Candidate{
			Number: num,
			Text:   normalize.Clamp(strings.TrimSpace(sb.Text), cfg.BlockMaxChars),
		})
		if len(top) >= cfg.TopK {
			break
		}
	}
	return top
}

func hasChildren(num domain.NumberPath, blocks []domain.Block) bool {
	for _, b := range blocks {
		if b.Number.IsChildOf(num) {
			return true
		}
	}
	return false
}
