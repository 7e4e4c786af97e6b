package summary

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/iracify/iracify/internal/domain"
)

const demoText = `
ECLI:NL:HR:2022:9999
De Hoge Raad overweegt als volgt.
r.o. 3 In cassatie staat centraal of het weigeren van bewijsstukken het recht op een eerlijk proces schendt.
r.o. 3.1 De maatstaf volgt uit art. 6 EVRM.
r.o. 3.2 Het hof sloot stukken uit, maar motiveerde niet.
r.o. 3.3 De Hoge Raad oordeelt dat het hof ontoereikend motiveerde.
r.o. 4 Het middel slaagt; uitspraak wordt vernietigd.
`

type stubSynthesizer struct {
	response []byte
	gist     []byte
	err      error
	gotReq   domain.SynthesisRequest
	calls    int
}

func (s *stubSynthesizer) Synthesize(_ context.Context, req domain.SynthesisRequest) ([]byte, error) {
	s.calls++
	s.gotReq = req
	return s.response, s.err
}

func (s *stubSynthesizer) SynthesizeGist(_ context.Context, _ string) ([]byte, error) {
	s.calls++
	return s.gist, s.err
}

func validResponse(blocks ...domain.AnnotatedBlock) []byte {
	res := domain.IracResult{
		Issue:       "Schendt de weigering art. 6 EVRM?",
		Rule:        "De maatstaf volgt uit art. 6 EVRM.",
		Application: "Het hof motiveerde niet.",
		Conclusion:  "Het middel slaagt.",
		Blocks:      append([]domain.AnnotatedBlock{}, blocks...),
		Sources:     []string{},
	}
	raw, _ := json.Marshal(res)
	return raw
}

func newService(synth Synthesizer) *Service {
	return New(synth, Options{}, zap.NewNop())
}

func TestSummarize_EndToEnd(t *testing.T) {
	synth := &stubSynthesizer{response: validResponse(domain.AnnotatedBlock{
		RONumber:  "3.1",
		Role:      domain.RoleRule,
		Quote:     "De maatstaf volgt uit art. 6 EVRM.",
		Summary:   "Toetsingskader.",
		Citations: []string{"art. 6 EVRM"},
	})}
	svc := newService(synth)

	sum, err := svc.Summarize(context.Background(), demoText)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Document ECLI is merged into sources even though the collaborator
	// returned none.
	found := false
	for _, src := range sum.Result.Sources {
		if src == "ECLI:NL:HR:2022:9999" {
			found = true
		}
	}
	if !found {
		t.Errorf("document ECLI missing from sources: %v", sum.Result.Sources)
	}

	if len(synth.gotReq.Candidates) == 0 {
		t.Fatal("synthesizer must receive candidates")
	}
	if len(synth.gotReq.ReferenceHints) != 1 {
		t.Errorf("reference hints = %v", synth.gotReq.ReferenceHints)
	}
	for _, c := range synth.gotReq.Candidates {
		if c.Number == "3" {
			t.Error("terse parent 3 must not be offered as candidate")
		}
	}
}

func TestSummarize_GuardrailDemotesInventedNumber(t *testing.T) {
	synth := &stubSynthesizer{response: validResponse(
		domain.AnnotatedBlock{RONumber: "3.1", Role: domain.RoleRule, Quote: "q", Summary: "s", Citations: []string{}},
		domain.AnnotatedBlock{RONumber: "9.9", Role: domain.RoleConclusion, Quote: "q", Summary: "s", Citations: []string{}},
	)}
	svc := newService(synth)

	sum, err := svc.Summarize(context.Background(), demoText)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, b := range sum.Result.Blocks {
		if b.RONumber == "9.9" && b.Role != domain.RoleOther {
			t.Errorf("invented 9.9 kept role %s", b.Role)
		}
	}
}

func TestSummarize_EmptyDocument(t *testing.T) {
	svc := newService(&stubSynthesizer{})
	_, err := svc.Summarize(context.Background(), "   \n\n  ")
	if !errors.Is(err, domain.ErrEmptyDocument) {
		t.Errorf("expected ErrEmptyDocument, got %v", err)
	}
}

func TestSummarize_NoHeadersStillRuns(t *testing.T) {
	// Zero r.o. markers: the pipeline proceeds with an empty candidate
	// set instead of failing.
	synth := &stubSynthesizer{response: validResponse()}
	svc := newService(synth)

	_, err := svc.Summarize(context.Background(), "Een lopend verhaal zonder genummerde overwegingen erin.")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(synth.gotReq.Candidates) != 0 {
		t.Errorf("expected empty candidate set, got %v", synth.gotReq.Candidates)
	}
}

func TestSummarize_SchemaFailurePropagates(t *testing.T) {
	synth := &stubSynthesizer{response: []byte(`{"issue": "alleen dit"}`)}
	svc := newService(synth)

	_, err := svc.Summarize(context.Background(), demoText)
	if !errors.Is(err, domain.ErrInvalidResult) {
		t.Errorf("expected ErrInvalidResult, got %v", err)
	}
	var se *domain.SchemaError
	if !errors.As(err, &se) {
		t.Errorf("expected SchemaError, got %T", err)
	}
}

func TestSummarize_SynthesisFailurePropagates(t *testing.T) {
	synth := &stubSynthesizer{err: domain.ErrSynthesis}
	svc := newService(synth)

	_, err := svc.Summarize(context.Background(), demoText)
	if !errors.Is(err, domain.ErrSynthesis) {
		t.Errorf("expected ErrSynthesis, got %v", err)
	}
	// Distinguishable from a schema failure, so callers can retry only
	// the collaborator call.
	if errors.Is(err, domain.ErrInvalidResult) {
		t.Error("synthesis failure must not be conflated with schema failure")
	}
}

func TestCandidates_Deterministic(t *testing.T) {
	svc := newService(&stubSynthesizer{})
	first, err := svc.Candidates(context.Background(), demoText)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := svc.Candidates(context.Background(), demoText)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(again.Candidates) != len(first.Candidates) {
			t.Fatal("candidate membership changed between runs")
		}
		for j := range again.Candidates {
			if again.Candidates[j] != first.Candidates[j] {
				t.Fatal("candidate order changed between runs")
			}
		}
	}
}

func TestGist(t *testing.T) {
	synth := &stubSynthesizer{gist: []byte(`{"essence": "Kern.", "key_points": ["een", "twee", "drie"]}`)}
	svc := newService(synth)

	g, err := svc.Gist(context.Background(), demoText)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.Essence != "Kern." || len(g.KeyPoints) != 3 {
		t.Errorf("gist = %+v", g)
	}
}

func TestOptions_Fingerprint(t *testing.T) {
	a := Options{}.Fingerprint()
	b := Options{TopK: 5}.Fingerprint()
	if a == b {
		t.Error("different knobs must produce different fingerprints")
	}
	if a != (Options{}).Fingerprint() {
		t.Error("fingerprint must be stable")
	}
	if a == (Options{GistMaxChars: 4000}).Fingerprint() {
		t.Error("gist limit must participate in the fingerprint")
	}
}

func TestOptions_FingerprintKeywordContents(t *testing.T) {
	// Same list length, different words: a keyword edit must invalidate
	// cached entries.
	a := Options{ScoringKeywords: []string{"maatstaf", "oordeel"}}.Fingerprint()
	b := Options{ScoringKeywords: []string{"maatstaf", "slaagt"}}.Fingerprint()
	if a == b {
		t.Error("keyword contents must participate in the fingerprint")
	}
	if a != (Options{ScoringKeywords: []string{"maatstaf", "oordeel"}}).Fingerprint() {
		t.Error("fingerprint must be stable for equal keyword lists")
	}

	base := Options{RoleKeywords: map[domain.Role][]string{
		domain.RoleRule: {"maatstaf"},
	}}
	edited := Options{RoleKeywords: map[domain.Role][]string{
		domain.RoleRule: {"toetsingskader"},
	}}
	if base.Fingerprint() == edited.Fingerprint() {
		t.Error("role keyword contents must participate in the fingerprint")
	}
	if base.Fingerprint() != (Options{RoleKeywords: map[domain.Role][]string{
		domain.RoleRule: {"maatstaf"},
	}}).Fingerprint() {
		t.Error("fingerprint must be stable for equal role keyword maps")
	}
}
