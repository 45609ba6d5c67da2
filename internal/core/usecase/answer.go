package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/kirillkom/labor-law-assistant/internal/core/domain"
	"github.com/kirillkom/labor-law-assistant/internal/core/ports"
)

const (
	DefaultReviewThreshold        = 0.7
	DefaultLowConfidenceThreshold = 0.4
	// ConfiguredThreshold asks Answer to use the review threshold from its options.
	ConfiguredThreshold = -1.0
	defaultConfidence             = 0.5

	ReasonInsufficient = "Información insuficiente en los documentos proporcionados"
	ReasonPartial      = "Información parcial que requiere verificación"

	FallbackAnswerText    = "Lo siento, no pude procesar tu consulta en este momento. Un especialista revisará tu caso."
	lowConfidenceNotice   = "Nota: esta respuesta tiene un nivel de confianza bajo. Un especialista revisará tu caso antes de que tomes decisiones con base en ella."
	generationErrorPrefix = "Error en la generación de respuesta: "
)

var (
	// A confidence line carries the label and a single value token, nothing else.
	confidenceLinePattern = regexp.MustCompile(`(?i)^[\s*_#>]*confianza\s*:[\s*_\[]*([^\s*_\[\]]+)[\s*_\]]*$`)
	citationPattern        = regexp.MustCompile(`(?i)\[doc\s*(\d+)\]`)
)

type AnswerOptions struct {
	ReviewThreshold        float64
	LowConfidenceThreshold float64
	MaxContextDocuments    int
	MaxSnippetChars        int
	MaxPromptChars         int
	MaxTokens              int
	Temperature            float64
	Timeout                time.Duration
}

func DefaultAnswerOptions() AnswerOptions {
	return AnswerOptions{
		ReviewThreshold:        DefaultReviewThreshold,
		LowConfidenceThreshold: DefaultLowConfidenceThreshold,
		MaxContextDocuments:    5,
		MaxSnippetChars:        2000,
		MaxPromptChars:         32000,
		MaxTokens:              1500,
		Temperature:            0.1,
		Timeout:                60 * time.Second,
	}
}

// AnswerUseCase turns retrieval results into a cited answer with a confidence
// score and an escalation decision. It never returns an error: model failures
// become a review-flagged fallback answer.
type AnswerUseCase struct {
	llm      ports.CompletionClient
	opts     AnswerOptions
	observer ports.PipelineObserver
	logger   *slog.Logger
}

func NewAnswerUseCase(llm ports.CompletionClient, opts AnswerOptions, observer ports.PipelineObserver, logger *slog.Logger) *AnswerUseCase {
	def := DefaultAnswerOptions()
	if opts.ReviewThreshold < 0 {
		opts.ReviewThreshold = def.ReviewThreshold
	}
	if opts.LowConfidenceThreshold <= 0 {
		opts.LowConfidenceThreshold = def.LowConfidenceThreshold
	}
	if opts.MaxContextDocuments <= 0 {
		opts.MaxContextDocuments = def.MaxContextDocuments
	}
	if opts.MaxSnippetChars <= 0 {
		opts.MaxSnippetChars = def.MaxSnippetChars
	}
	if opts.MaxPromptChars <= 0 {
		opts.MaxPromptChars = def.MaxPromptChars
	}
	if observer == nil {
		observer = ports.NopObserver{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AnswerUseCase{
		llm:      llm,
		opts:     opts,
		observer: observer,
		logger:   logger,
	}
}

func (uc *AnswerUseCase) ReviewThreshold() float64 {
	return uc.opts.ReviewThreshold
}

// Answer synthesizes a response from the top results. A negative threshold
// selects the configured one; zero disables review on confidence.
func (uc *AnswerUseCase) Answer(ctx context.Context, question string, results []domain.RetrievalResult, threshold float64) domain.SynthesizedAnswer {
	if threshold < 0 {
		threshold = uc.opts.ReviewThreshold
	}
	contextDocs := results
	if len(contextDocs) > uc.opts.MaxContextDocuments {
		contextDocs = contextDocs[:uc.opts.MaxContextDocuments]
	}

	req := ports.CompletionRequest{
		System:      answerSystemPrompt,
		User:        buildAnswerUserPrompt(question, buildAnswerContext(contextDocs, uc.opts.MaxSnippetChars), uc.opts.MaxPromptChars),
		MaxTokens:   uc.opts.MaxTokens,
		Temperature: uc.opts.Temperature,
	}

	callCtx := ctx
	if uc.opts.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, uc.opts.Timeout)
		defer cancel()
	}

	raw, err := uc.llm.Complete(callCtx, req)
	if err == nil && strings.TrimSpace(raw) == "" {
		err = errors.New("empty completion")
	}
	if err != nil {
		uc.logger.Error("answer_generation_failed", "error", err)
		answer := domain.SynthesizedAnswer{
			Text:             FallbackAnswerText,
			ConfidenceScore:  0,
			NeedsHumanReview: true,
			ReviewReason:     generationErrorPrefix + err.Error(),
			CitedSources:     []domain.CitedSource{},
		}
		uc.observer.ObserveAnswer(0, true, "failure", true)
		return answer
	}

	text, confidence := extractConfidence(raw)
	cited := resolveCitations(text, contextDocs, uc.logger)

	answer := domain.SynthesizedAnswer{
		Text:            text,
		ConfidenceScore: confidence,
		CitedSources:    cited,
	}
	if confidence < threshold {
		answer.NeedsHumanReview = true
		answer.ReviewReason = ReasonPartial
		if confidence < uc.opts.LowConfidenceThreshold {
			answer.ReviewReason = ReasonInsufficient
		}
	}
	if confidence < uc.opts.LowConfidenceThreshold {
		answer.Text = strings.TrimSpace(answer.Text + "\n\n" + lowConfidenceNotice)
	}

	reasonLabel := "none"
	switch answer.ReviewReason {
	case ReasonPartial:
		reasonLabel = "partial"
	case ReasonInsufficient:
		reasonLabel = "insufficient"
	}
	uc.observer.ObserveAnswer(confidence, answer.NeedsHumanReview, reasonLabel, false)
	return answer
}

// extractConfidence removes the last confidence line and returns its value.
// Other lines, including prose that happens to start with "Confianza:", are
// kept. Missing, malformed or out-of-range values yield 0.5.
func extractConfidence(raw string) (string, float64) {
	lines := strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		m := confidenceLinePattern.FindStringSubmatch(lines[i])
		if m == nil {
			continue
		}
		confidence := defaultConfidence
		value := strings.ReplaceAll(strings.TrimRight(m[1], "."), ",", ".")
		if parsed, err := strconv.ParseFloat(value, 64); err == nil && parsed >= 0 && parsed <= 1 {
			confidence = parsed
		}
		kept := append(lines[:i:i], lines[i+1:]...)
		return strings.TrimSpace(strings.Join(kept, "\n")), confidence
	}
	return strings.TrimSpace(strings.Join(lines, "\n")), defaultConfidence
}

// resolveCitations maps [DocN] markers to context positions in order of first
// appearance. Markers outside the context are dropped, not renumbered.
func resolveCitations(text string, contextDocs []domain.RetrievalResult, logger *slog.Logger) []domain.CitedSource {
	matches := citationPattern.FindAllStringSubmatch(text, -1)
	seen := make(map[int]struct{}, len(matches))
	out := make([]domain.CitedSource, 0, len(matches))

	for _, m := range matches {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		if n < 1 || n > len(contextDocs) {
			logger.Debug("answer_citation_out_of_range", "marker", n, "context_documents", len(contextDocs))
			continue
		}
		doc := contextDocs[n-1]
		out = append(out, domain.CitedSource{
			Marker:          fmt.Sprintf("Doc%d", n),
			DocumentID:      doc.DocumentID,
			Title:           doc.Title,
			ReferenceNumber: doc.ReferenceNumber,
			DocumentType:    doc.DocumentType,
			RelevanceScore:  doc.RelevanceScore,
		})
	}
	return out
}
