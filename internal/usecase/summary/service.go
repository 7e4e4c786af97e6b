// Package summary orchestrates the deterministic pipeline around the
// synthesis collaborator: candidate generation upstream, validation and
// guardrails downstream.
package summary

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/iracify/iracify/internal/domain"
	"github.com/iracify/iracify/internal/pipeline/guardrail"
	"github.com/iracify/iracify/internal/pipeline/normalize"
	"github.com/iracify/iracify/internal/pipeline/rank"
	"github.com/iracify/iracify/internal/pipeline/reference"
	"github.com/iracify/iracify/internal/pipeline/segment"
	"github.com/iracify/iracify/internal/pipeline/validate"
)

// DefaultExcerptMaxChars bounds the document excerpt in the payload.
const DefaultExcerptMaxChars = 3000

// DefaultGistMaxChars bounds the text handed to the gist synthesis.
const DefaultGistMaxChars = 6000

// Options are the pipeline knobs. Zero values fall back to defaults.
type Options struct {
	TopK             int
	BlockMaxChars    int
	MinParentChars   int
	ExcerptMaxChars  int
	GistMaxChars     int
	FallbackMaxFirst int
	ScoringKeywords  []string
	RoleKeywords     map[domain.Role][]string
}

func (o Options) withDefaults() Options {
	if o.TopK <= 0 {
		o.TopK = rank.DefaultTopK
	}
	if o.BlockMaxChars <= 0 {
		o.BlockMaxChars = rank.DefaultBlockMaxChars
	}
	if o.MinParentChars <= 0 {
		o.MinParentChars = rank.DefaultMinParentChars
	}
	if o.ExcerptMaxChars <= 0 {
		o.ExcerptMaxChars = DefaultExcerptMaxChars
	}
	if o.GistMaxChars <= 0 {
		o.GistMaxChars = DefaultGistMaxChars
	}
	if o.FallbackMaxFirst <= 0 {
		o.FallbackMaxFirst = segment.DefaultFallbackMaxFirst
	}
	return o
}

// Fingerprint identifies the knob combination for cache keying: the same
// document under different knobs is a different pipeline run. Keyword
// lists are hashed by content, so editing a keyword invalidates cached
// entries even when the list length stays the same.
func (o Options) Fingerprint() string {
	o = o.withDefaults()

	h := sha256.New()
	fmt.Fprintf(h, "k%d:b%d:p%d:e%d:g%d:f%d",
		o.TopK, o.BlockMaxChars, o.MinParentChars, o.ExcerptMaxChars, o.GistMaxChars, o.FallbackMaxFirst)
	fmt.Fprintf(h, "|kw:%s", strings.Join(o.ScoringKeywords, "\x00"))

	roles := make([]string, 0, len(o.RoleKeywords))
	for r := range o.RoleKeywords {
		roles = append(roles, string(r))
	}
	sort.Strings(roles)
	for _, r := range roles {
		fmt.Fprintf(h, "|%s:%s", r, strings.Join(o.RoleKeywords[domain.Role(r)], "\x00"))
	}

	return hex.EncodeToString(h.Sum(nil))[:16]
}

// Service runs the summarization pipeline for one document per call.
// Stateless apart from configuration; safe for concurrent use.
type Service struct {
	synth  Synthesizer
	opts   Options
	logger *zap.Logger
}

// New creates a summary service.
func New(synth Synthesizer, opts Options, logger *zap.Logger) *Service {
	return &Service{synth: synth, opts: opts.withDefaults(), logger: logger}
}

// Options returns the effective (defaulted) pipeline options.
func (s *Service) Options() Options { return s.opts }

// Candidates runs the deterministic preprocessing alone: normalize,
// extract references, segment, rank. No external call is made. An input
// without any detectable headers yields an empty candidate set, not an
// error.
func (s *Service) Candidates(_ context.Context, text string) (domain.CandidateSet, error) {
	norm := normalize.Normalize(text)
	if norm == "" {
		return domain.CandidateSet{}, domain.ErrEmptyDocument
	}
	return s.candidateSet(norm), nil
}

func (s *Service) candidateSet(norm string) domain.CandidateSet {
	refs := reference.Extract(norm)
	blocks := segment.Blocks(norm, s.opts.FallbackMaxFirst)
	cands := rank.Select(blocks, len(refs) > 0, rank.Config{
		TopK:           s.opts.TopK,
		BlockMaxChars:  s.opts.BlockMaxChars,
		MinParentChars: s.opts.MinParentChars,
		Keywords:       s.opts.ScoringKeywords,
	})
	return domain.CandidateSet{Candidates: cands, References: refs}
}

// Summarize runs the full pipeline: candidate generation, the synthesis
// call, validation, guardrails, and source merging.
func (s *Service) Summarize(ctx context.Context, text string) (domain.Summary, error) {
	norm := normalize.Normalize(text)
	if norm == "" {
		return domain.Summary{}, domain.ErrEmptyDocument
	}

	set := s.candidateSet(norm)

	req := domain.SynthesisRequest{
		DocumentExcerpt: normalize.Clamp(norm, s.opts.ExcerptMaxChars),
		Candidates:      set.Candidates,
		ReferenceHints:  set.References,
	}

	s.logger.Debug("synthesis payload prepared",
		zap.Int("candidates", len(req.Candidates)),
		zap.Int("references", len(req.ReferenceHints)),
	)

	raw, err := s.synth.Synthesize(ctx, req)
	if err != nil {
		return domain.Summary{}, fmt.Errorf("synthesize: %w", err)
	}

	res, err := validate.Result(raw)
	if err != nil {
		return domain.Summary{}, err
	}

	warnings := guardrail.Apply(&res, req.CandidateNumbers(), guardrail.Config{
		RoleKeywords: s.opts.RoleKeywords,
	})
	for _, w := range warnings {
		s.logger.Warn("role gap after guardrail", zap.String("warning", w))
	}

	res.Sources = domain.MergeSources(res.Sources, set.References)

	return domain.Summary{
		Result:     res,
		Candidates: set.Candidates,
		References: set.References,
		Warnings:   warnings,
	}, nil
}

// Gist produces the short essence summary of a decision.
func (s *Service) Gist(ctx context.Context, text string) (domain.Gist, error) {
	norm := normalize.Normalize(text)
	if norm == "" {
		return domain.Gist{}, domain.ErrEmptyDocument
	}

	raw, err := s.synth.SynthesizeGist(ctx, normalize.Clamp(norm, s.opts.GistMaxChars))
	if err != nil {
		return domain.Gist{}, fmt.Errorf("synthesize gist: %w", err)
	}
	return validate.Gist(raw)
}
