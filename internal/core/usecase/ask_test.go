package usecase

import (
	"context"
	"testing"

	"github.com/kirillkom/labor-law-assistant/internal/core/domain"
	"github.com/kirillkom/labor-law-assistant/internal/core/lexical"
)

func newTestAskUseCase(llm *fakeLLM, corpus ...domain.LegalDocument) *AskUseCase {
	docs := newFakeDocs(corpus...)
	normalizer := lexical.NewNormalizer()
	index := NewIndexManager(docs, normalizer, lexical.DefaultParams(), nil, nil)
	search := NewSearchUseCase(index, docs, NewQueryCache(newMemoryCacheStore(), DefaultCacheTTL, nil, nil), normalizer, SearchOptions{}, nil, nil)
	return NewAskUseCase(search, newTestAnswerUseCase(llm), DefaultAskTopK, nil)
}

func TestAskReturnsOnlyCitedReferences(t *testing.T) {
	llm := &fakeLLM{response: "La licencia de maternidad dura dieciocho semanas [Doc1].\nCONFIANZA: 0.85"}
	uc := newTestAskUseCase(llm, laborCorpus()...)

	got := uc.Ask(context.Background(), "¿Cuántas semanas de licencia de maternidad?")
	if got.RetrievedDocuments < 2 {
		t.Fatalf("expected several retrieved documents, got %d", got.RetrievedDocuments)
	}
	if len(got.References) != 1 || got.References[0].DocumentID != 1 {
		t.Fatalf("expected only the cited statute, got %+v", got.References)
	}
	if got.NeedsHumanReview {
		t.Fatalf("unexpected review: %+v", got)
	}
	if got.Query == "" || got.ResponseText == "" {
		t.Fatalf("expected query and response text, got %+v", got)
	}
}

func TestAskWithoutDocumentsNeedsReview(t *testing.T) {
	llm := &fakeLLM{response: "no debería llamarse"}
	uc := newTestAskUseCase(llm, laborCorpus()...)

	got := uc.Ask(context.Background(), "pensión de invalidez")
	if got.ResponseText != NoDocumentsAnswerText {
		t.Fatalf("unexpected response: %q", got.ResponseText)
	}
	if got.ConfidenceScore != 0 || !got.NeedsHumanReview || got.ReviewReason != ReasonNoDocuments {
		t.Fatalf("expected zero-confidence review, got %+v", got)
	}
	if len(llm.requests) != 0 {
		t.Fatalf("model must not be called without documents")
	}
}

func TestAskModelFailureStillReturnsAnswer(t *testing.T) {
	llm := &fakeLLM{err: context.DeadlineExceeded}
	uc := newTestAskUseCase(llm, laborCorpus()...)

	got := uc.Ask(context.Background(), "licencia de maternidad")
	if got.ResponseText != FallbackAnswerText || !got.NeedsHumanReview || got.ConfidenceScore != 0 {
		t.Fatalf("expected fallback answer, got %+v", got)
	}
}
