package usecase

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/kirillkom/labor-law-assistant/internal/core/domain"
	"github.com/kirillkom/labor-law-assistant/internal/core/ports"
)

const (
	DefaultAskTopK = 5

	NoDocumentsAnswerText = "No encontré documentos legales relevantes para tu consulta. Un especialista revisará tu caso."
	ReasonNoDocuments     = "No se encontraron documentos relevantes"
)

// AskUseCase composes retrieval and answer synthesis for end users.
type AskUseCase struct {
	retriever ports.Retriever
	answerer  *AnswerUseCase
	topK      int
	logger    *slog.Logger
}

func NewAskUseCase(retriever ports.Retriever, answerer *AnswerUseCase, topK int, logger *slog.Logger) *AskUseCase {
	if topK <= 0 {
		topK = DefaultAskTopK
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AskUseCase{
		retriever: retriever,
		answerer:  answerer,
		topK:      topK,
		logger:    logger,
	}
}

func (uc *AskUseCase) Ask(ctx context.Context, question string) domain.LegalAnswer {
	start := time.Now()
	question = strings.TrimSpace(question)

	results, err := uc.retriever.Search(ctx, domain.SearchQuery{Text: question, Limit: uc.topK})
	if err != nil {
		uc.logger.Warn("ask_search_failed", "error", err)
		results = nil
	}

	if len(results) == 0 {
		return domain.LegalAnswer{
			Query:              question,
			ResponseText:       NoDocumentsAnswerText,
			References:         []domain.CitedSource{},
			ConfidenceScore:    0,
			NeedsHumanReview:   true,
			ReviewReason:       ReasonNoDocuments,
			RetrievedDocuments: 0,
			ProcessingTimeMS:   elapsedMS(start),
		}
	}

	answer := uc.answerer.Answer(ctx, question, results, ConfiguredThreshold)
	return domain.LegalAnswer{
		Query:              question,
		ResponseText:       answer.Text,
		References:         answer.CitedSources,
		ConfidenceScore:    answer.ConfidenceScore,
		NeedsHumanReview:   answer.NeedsHumanReview,
		ReviewReason:       answer.ReviewReason,
		RetrievedDocuments: len(results),
		ProcessingTimeMS:   elapsedMS(start),
	}
}

func elapsedMS(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000.0
}
