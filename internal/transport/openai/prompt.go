package openai

import (
	"fmt"
	"strings"

	"github.com/iracify/iracify/internal/domain"
)

const systemPrompt = "Je bent een Nederlandse juridisch redacteur. " +
	"Vat arresten samen in IRAC (Issue, Rule, Application, Conclusion) " +
	"en benoem expliciet de relevante rechtsoverwegingen (R.O.'s). " +
	"Gebruik juridisch correcte NL-terminologie. Wees kort, precies en feitelijk."

// iracUserPrompt renders the synthesis request into the instruction the
// collaborator receives. The candidate fragments are the only evidence it
// may use; the instruction says so explicitly, and the guardrail enforces
// it afterwards regardless.
func iracUserPrompt(req domain.SynthesisRequest) string {
	fragments := make([]string, len(req.Candidates))
	for i, c := range req.Candidates {
		fragments[i] = fmt.Sprintf("[%s]\n%s", c.Number, c.Text)
	}

	hints := ""
	if len(req.ReferenceHints) > 0 {
		hints = " | ECLI's: " + strings.Join(req.ReferenceHints, ", ")
	}

	return "Je krijgt kandidaat-fragmenten uit rechtsoverwegingen (r.o.). " +
		"Selecteer uitsluitend de overwegingen die dragend zijn voor rechtsregel en uitkomst. " +
		"Voor elke gekozen r.o.:\n" +
		" - Geef een KORTE LETTERLIJKE QUOTE (1-2 zinnen),\n" +
		" - Geef daarna een SAMENVATTING met concrete details (max 3 zinnen),\n" +
		" - Label de rol: Rule | Application | Conclusion | Other,\n" +
		" - Noteer expliciet wetsverwijzingen/HR-verwijzingen.\n" +
		"Gebruik geen algemeenheden; benoem specifieke afwegingen, toetsingskaders en belangen.\n" +
		"Zorg dat er minimaal een Rule, een Application en een Conclusion is.\n" +
		"Baseer je uitsluitend op de aangeleverde fragmenten; verzin geen r.o.-nummers.\n\n" +
		"Context" + hints + "\n\n" +
		"Beknopte zaaktekst:\n" + req.DocumentExcerpt + "\n\n" +
		"Kandidaat r.o.-fragmenten:\n" + strings.Join(fragments, "\n\n") + "\n\n" +
		"Gebruik altijd het meest specifieke r.o.-nummer dat beschikbaar is (bijv. 3.3 i.p.v. 3).\n" +
		"Lever uitsluitend JSON volgens het schema; geen extra tekst."
}

func gistUserPrompt(text string) string {
	return "Vat de essentie van het arrest kort en feitelijk samen. " +
		"Schrijf in helder Nederlands, zonder retoriek. " +
		"Geef eerst een compacte alinea (max ~120 woorden) met probleem, rechtsregel en uitkomst; " +
		"daarna 3-5 puntsgewijze kernpunten met concrete details (namen, artikelen, beslissingen). " +
		"Lever uitsluitend JSON met velden 'essence' en 'key_points' conform schema; geen extra tekst.\n\n" +
		"TEKST:\n" + text
}
