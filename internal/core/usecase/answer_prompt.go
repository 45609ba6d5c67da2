package usecase

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/kirillkom/labor-law-assistant/internal/core/domain"
)

const answerSystemPrompt = `Eres un asistente legal especializado en derecho laboral colombiano.

Reglas:
1. Responde ÚNICAMENTE con la información de los documentos proporcionados en el contexto.
2. Cita cada afirmación con el marcador del documento que la respalda, por ejemplo [Doc1] o [Doc2].
3. Si los documentos no contienen la información necesaria, responde exactamente: "No tengo suficiente información en los documentos proporcionados para responder con certeza."
4. No inventes normas, artículos, cifras ni fechas.
5. Usa un lenguaje claro y profesional, sin jerga innecesaria.
6. Si la pregunta es ambigua, indica qué aclaración se necesita.

Al final de tu respuesta agrega una línea con tu nivel de confianza entre 0.0 y 1.0 con este formato exacto:
CONFIANZA: [puntuación]`

// legalReference renders the citation form used in Colombian labor law.
func legalReference(docType domain.DocumentType, reference string) string {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return "N/A"
	}
	switch docType {
	case domain.TypeLey:
		return "Ley " + reference
	case domain.TypeDecreto:
		return "Decreto " + reference
	case domain.TypeSentencia:
		return "Sentencia " + reference
	case domain.TypeResolucion:
		return "Resolución " + reference
	case domain.TypeCircular:
		return "Circular " + reference
	case domain.TypeConcepto:
		return "Concepto " + reference
	default:
		return reference
	}
}

func buildAnswerContext(results []domain.RetrievalResult, maxSnippetChars int) string {
	var b strings.Builder
	for i, result := range results {
		fmt.Fprintf(&b, "[Doc%d] %s | %s | tipo=%s | relevancia=%.3f\n",
			i+1,
			legalReference(result.DocumentType, result.ReferenceNumber),
			strings.TrimSpace(result.Title),
			result.DocumentType,
			result.RelevanceScore,
		)
		b.WriteString(truncateRunes(strings.TrimSpace(result.Snippet), maxSnippetChars))
		b.WriteString("\n\n")
	}
	return strings.TrimSpace(b.String())
}

func buildAnswerUserPrompt(question, context string, maxPromptChars int) string {
	prompt := "Contexto legal:\n" + context + "\n\nPregunta del usuario: " + strings.TrimSpace(question)
	if maxPromptChars > 0 && utf8.RuneCountInString(prompt) > maxPromptChars {
		// keep the question, trim the context
		suffix := "\n\nPregunta del usuario: " + strings.TrimSpace(question)
		budget := maxPromptChars - utf8.RuneCountInString(suffix) - utf8.RuneCountInString("Contexto legal:\n")
		trimmed := ""
		if budget > 0 {
			trimmed = truncateRunes(context, budget)
		}
		prompt = "Contexto legal:\n" + trimmed + suffix
	}
	return prompt
}

func truncateRunes(text string, max int) string {
	if max <= 0 || utf8.RuneCountInString(text) <= max {
		return text
	}
	return string([]rune(text)[:max])
}
