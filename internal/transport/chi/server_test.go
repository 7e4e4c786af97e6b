package chi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	chimux "github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/iracify/iracify/internal/domain"
	healthuc "github.com/iracify/iracify/internal/usecase/health"
)

type stubSummarizer struct {
	summary    domain.Summary
	candidates domain.CandidateSet
	gist       domain.Gist
	err        error

	lastText string
}

func (s *stubSummarizer) Summarize(_ context.Context, text string) (domain.Summary, error) {
	s.lastText = text
	if s.err != nil {
		return domain.Summary{}, s.err
	}
	return s.summary, nil
}

func (s *stubSummarizer) Candidates(_ context.Context, text string) (domain.CandidateSet, error) {
	s.lastText = text
	if s.err != nil {
		return domain.CandidateSet{}, s.err
	}
	return s.candidates, nil
}

func (s *stubSummarizer) Gist(_ context.Context, text string) (domain.Gist, error) {
	s.lastText = text
	if s.err != nil {
		return domain.Gist{}, s.err
	}
	return s.gist, nil
}

func newTestRouter(t *testing.T, stub *stubSummarizer) http.Handler {
	t.Helper()
	srv := NewServer(stub, healthuc.New(nil, nil), zap.NewNop())
	r := chimux.NewRouter()
	srv.RegisterRoutes(r)
	return r
}

func postText(t *testing.T, h http.Handler, path, text string) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest("POST", path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestCreateSummary_OK(t *testing.T) {
	stub := &stubSummarizer{
		summary: domain.Summary{
			Result: domain.IracResult{
				Issue:      "Is het bewijs bruikbaar?",
				Conclusion: "Het middel slaagt.",
				Sources:    []string{"ECLI:NL:HR:2022:9999"},
			},
			Candidates: []domain.Candidate{{Number: "3.1", Text: "Overweging."}},
			References: []string{"ECLI:NL:HR:2022:9999"},
			Warnings:   []string{"geen blok gevonden voor rol Application"},
		},
	}
	router := newTestRouter(t, stub)

	rr := postText(t, router, "/v1/summaries", "3.1 Overweging.")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}

	var got domain.Summary
	if err := json.NewDecoder(rr.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Result.Issue != stub.summary.Result.Issue {
		t.Errorf("issue = %q", got.Result.Issue)
	}
	if len(got.Warnings) != 1 {
		t.Errorf("warnings = %v", got.Warnings)
	}
	if stub.lastText != "3.1 Overweging." {
		t.Errorf("text passed through = %q", stub.lastText)
	}
}

func TestCreateSummary_InvalidBody(t *testing.T) {
	router := newTestRouter(t, &stubSummarizer{})

	req := httptest.NewRequest("POST", "/v1/summaries", bytes.NewReader([]byte("{not json")))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
	var errResp ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&errResp); err != nil {
		t.Fatal(err)
	}
	if errResp.Code != CodeBadRequest {
		t.Errorf("code = %s", errResp.Code)
	}
}

func TestCreateSummary_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   ErrorCode
	}{
		{"empty document", domain.ErrEmptyDocument, http.StatusBadRequest, CodeEmptyDocument},
		{"invalid result", fmt.Errorf("validate: %w", domain.ErrInvalidResult), http.StatusBadGateway, CodeInvalidResult},
		{"synthesis failed", fmt.Errorf("call: %w", domain.ErrSynthesis), http.StatusBadGateway, CodeSynthesisFailed},
		{"rate limited", domain.ErrRateLimited, http.StatusTooManyRequests, CodeRateLimited},
		{"unknown error", fmt.Errorf("disk on fire"), http.StatusInternalServerError, CodeInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(t, &stubSummarizer{err: tt.err})
			rr := postText(t, router, "/v1/summaries", "tekst")

			if rr.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rr.Code, tt.wantStatus)
			}
			var errResp ErrorResponse
			if err := json.NewDecoder(rr.Body).Decode(&errResp); err != nil {
				t.Fatal(err)
			}
			if errResp.Code != tt.wantCode {
				t.Errorf("code = %s, want %s", errResp.Code, tt.wantCode)
			}
		})
	}
}

func TestCreateSummary_SchemaErrorIncludesPath(t *testing.T) {
	router := newTestRouter(t, &stubSummarizer{
		err: domain.NewSchemaError("$.blocks[0].role", "unknown role %q", "Overig"),
	})

	rr := postText(t, router, "/v1/summaries", "tekst")
	if rr.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rr.Code)
	}

	var errResp ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&errResp); err != nil {
		t.Fatal(err)
	}
	if errResp.Code != CodeInvalidResult {
		t.Errorf("code = %s", errResp.Code)
	}
	if errResp.Path != "$.blocks[0].role" {
		t.Errorf("path = %q", errResp.Path)
	}
}

func TestCreateSummary_UnknownErrorNotLeaked(t *testing.T) {
	router := newTestRouter(t, &stubSummarizer{err: fmt.Errorf("redis password hunter2 rejected")})

	rr := postText(t, router, "/v1/summaries", "tekst")
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rr.Code)
	}
	if bytes.Contains(rr.Body.Bytes(), []byte("hunter2")) {
		t.Error("internal error detail leaked to client")
	}
}

func TestCreateCandidates_OK(t *testing.T) {
	stub := &stubSummarizer{
		candidates: domain.CandidateSet{
			Candidates: []domain.Candidate{{Number: "4.2", Text: "De maatstaf."}},
			References: []string{"ECLI:NL:PHR:2021:1"},
		},
	}
	router := newTestRouter(t, stub)

	rr := postText(t, router, "/v1/candidates", "4.2 De maatstaf.")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}

	var got domain.CandidateSet
	if err := json.NewDecoder(rr.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if len(got.Candidates) != 1 || got.Candidates[0].Number != "4.2" {
		t.Errorf("candidates = %+v", got.Candidates)
	}
	if len(got.References) != 1 {
		t.Errorf("references = %v", got.References)
	}
}

func TestCreateGist_OK(t *testing.T) {
	stub := &stubSummarizer{
		gist: domain.Gist{Essence: "Kern van de uitspraak.", KeyPoints: []string{"punt"}},
	}
	router := newTestRouter(t, stub)

	rr := postText(t, router, "/v1/gists", "uitspraak")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}

	var got domain.Gist
	if err := json.NewDecoder(rr.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got.Essence != "Kern van de uitspraak." {
		t.Errorf("gist = %+v", got)
	}
}

func TestHealthCheck_Degraded503(t *testing.T) {
	srv := NewServer(&stubSummarizer{}, healthuc.New(nil, &failingChecker{}), zap.NewNop())
	r := chimux.NewRouter()
	srv.RegisterRoutes(r)

	req := httptest.NewRequest("GET", "/healthz", http.NoBody)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rr.Code)
	}
}

func TestHealthCheck_Healthy200(t *testing.T) {
	router := newTestRouter(t, &stubSummarizer{})

	req := httptest.NewRequest("GET", "/healthz", http.NoBody)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rr.Code)
	}

	var report healthuc.Report
	if err := json.NewDecoder(rr.Body).Decode(&report); err != nil {
		t.Fatal(err)
	}
	if report.Status != healthuc.Healthy {
		t.Errorf("status = %q", report.Status)
	}
}

type failingChecker struct{}

func (f *failingChecker) HealthCheck(_ context.Context) error {
	return fmt.Errorf("provider unreachable")
}
