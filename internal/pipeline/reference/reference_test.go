package reference

import (
	"reflect"
	"testing"

	"github.com/iracify/iracify/internal/pipeline/normalize"
)

func TestExtract_CanonicalizesAndDeduplicates(t *testing.T) {
	text := "Zie ecli:nl:hr:2022:1234 en later nogmaals ECLI:NL:HR:2022:1234."
	got := Extract(text)
	want := []string{"ECLI:NL:HR:2022:1234"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestExtract_PreservesFirstSeenOrder(t *testing.T) {
	text := "Eerst ECLI:NL:PHR:2021:555, dan ECLI:NL:HR:2022:1, dan weer ecli:nl:phr:2021:555."
	got := Extract(text)
	want := []string{"ECLI:NL:PHR:2021:555", "ECLI:NL:HR:2022:1"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestExtract_TrailingSuffix(t *testing.T) {
	got := Extract("ECLI:NL:GHAMS:2019:AB123-2 slot")
	if len(got) != 1 || got[0] != "ECLI:NL:GHAMS:2019:AB123-2" {
		t.Errorf("got %v", got)
	}
}

func TestExtract_RejectsMalformed(t *testing.T) {
	for _, text := range []string{
		"ECLI:N:HR:2022:1",    // one-letter country
		"ECLI:NL:H:2022:1",    // one-letter court
		"ECLI:NL:HR:22:1",     // two-digit year
		"zomaar wat tekst",    // nothing
	} {
		if got := Extract(text); len(got) != 0 {
			t.Errorf("%q: expected no matches, got %v", text, got)
		}
	}
}

func TestExtract_RoundTripThroughNormalizer(t *testing.T) {
	// Two identical identifiers in different casing, normalized first,
	// must collapse to exactly one canonical upper-case identifier.
	raw := "ecli:nl:hr:2022:9999\r\n\r\n\r\nECLI:NL:HR:2022:9999\t"
	got := Extract(normalize.Normalize(raw))
	if len(got) != 1 || got[0] != "ECLI:NL:HR:2022:9999" {
		t.Errorf("got %v", got)
	}
}
