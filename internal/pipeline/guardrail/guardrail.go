// Package guardrail hardens a validated synthesis result: it guarantees
// the substantive roles are represented when any unlabeled block
// plausibly fits, and it refuses to treat paragraph numbers the
// collaborator invented as load-bearing evidence.
package guardrail

import (
	"fmt"
	"strings"

	"github.com/iracify/iracify/internal/domain"
)

// Config controls role promotion. A nil/empty RoleKeywords map falls back
// to domain.DefaultRoleKeywords.
type Config struct {
	RoleKeywords map[domain.Role][]string
}

func (c Config) keywords() map[domain.Role][]string {
	if len(c.RoleKeywords) == 0 {
		return domain.DefaultRoleKeywords
	}
	return c.RoleKeywords
}

// Apply runs both guardrail passes in order, mutating res in place:
//
//  1. Minimum-role enforcement: for each absent substantive role, the
//     best-matching Other-labeled block (keyword score over summary+quote,
//     must be > 0) is promoted; each block is promoted at most once per
//     run. Unfillable roles are returned as soft warnings, never errors.
//  2. Anti-hallucination: any block whose ro_number was not among the
//     offered candidate numbers is demoted to Other, regardless of the
//     role the collaborator claimed.
func Apply(res *domain.IracResult, offered []string, cfg Config) []string {
	warnings := enforceMinimumRoles(res, cfg.keywords())
	denyUnknownNumbers(res, offered)
	return warnings
}

func enforceMinimumRoles(res *domain.IracResult, roleKeywords map[domain.Role][]string) []string {
	present := make(map[domain.Role]bool, len(res.Blocks))
	for _, b := range res.Blocks {
		present[b.Role] = true
	}

	var warnings []string
	promoted := make(map[int]bool)
	for _, want := range domain.SubstantiveRoles {
		if present[want] {
			continue
		}
		idx := pickBestForRole(res.Blocks, roleKeywords[want], promoted)
		if idx < 0 {
			warnings = append(warnings, fmt.Sprintf("no block could be promoted to role %s", want))
			continue
		}
		res.Blocks[idx].Role = want
		promoted[idx] = true
	}
	return warnings
}

// pickBestForRole scores every still-Other block against the missing
// role's keyword set and returns the index of the best strictly-positive
// scorer, or -1. Ties keep the earliest block, so promotion is
// deterministic.
func pickBestForRole(blocks []domain.AnnotatedBlock, keywords []string, promoted map[int]bool) int {
	bestIdx, bestScore := -1, 0
	for i, b := range blocks {
		if b.Role != domain.RoleOther || promoted[i] {
			continue
		}
		text := strings.ToLower(b.Summary + " " + b.Quote)
		score := 0
		for _, kw := range keywords {
			if strings.Contains(text, kw) {
				score++
			}
		}
		if score > bestScore {
			bestIdx, bestScore = i, score
		}
	}
	return bestIdx
}

// denyUnknownNumbers applies only when a candidate set was actually
// offered; with no structural evidence there is nothing to check against.
func denyUnknownNumbers(res *domain.IracResult, offered []string) {
	if len(offered) == 0 {
		return
	}
	allowed := make(map[string]struct{}, len(offered))
	for _, n := range offered {
		allowed[n] = struct{}{}
	}
	for i, b := range res.Blocks {
		if _, ok := allowed[b.RONumber]; !ok {
			res.Blocks[i].Role = domain.RoleOther
		}
	}
}
