package domain

import (
	"strings"
	"time"
	"unicode/utf8"
)

const (
	DefaultSearchLimit = 10
	MaxSearchLimit     = 100
	MinQueryRunes      = 3
)

type SearchQuery struct {
	Text     string       `json:"query"`
	Type     DocumentType `json:"document_type,omitempty"`
	Category string       `json:"category,omitempty"`
	Limit    int          `json:"limit,omitempty"`
}

// Normalize trims the text and clamps the limit into [1, maxLimit].
func (q SearchQuery) Normalize(defaultLimit, maxLimit int) SearchQuery {
	if defaultLimit <= 0 {
		defaultLimit = DefaultSearchLimit
	}
	if maxLimit <= 0 {
		maxLimit = MaxSearchLimit
	}
	out := q
	out.Text = strings.TrimSpace(q.Text)
	out.Category = strings.TrimSpace(q.Category)
	switch {
	case out.Limit <= 0:
		out.Limit = defaultLimit
	case out.Limit > maxLimit:
		out.Limit = maxLimit
	}
	return out
}

// Searchable reports whether the text is long enough to run a search.
func (q SearchQuery) Searchable() bool {
	return utf8.RuneCountInString(strings.TrimSpace(q.Text)) >= MinQueryRunes
}

func (q SearchQuery) Filter() DocumentFilter {
	return DocumentFilter{Type: q.Type, Category: q.Category}
}

type RetrievalResult struct {
	DocumentID      int64        `json:"document_id"`
	Title           string       `json:"title"`
	ReferenceNumber string       `json:"reference_number,omitempty"`
	DocumentType    DocumentType `json:"document_type"`
	RelevanceScore  float64      `json:"relevance_score"`
	Snippet         string       `json:"snippet"`
	FromCache       bool         `json:"from_cache"`
}

type CacheEntry struct {
	QueryHash string            `json:"query_hash"`
	QueryText string            `json:"query_text"`
	Results   []RetrievalResult `json:"results"`
	CreatedAt time.Time         `json:"created_at"`
}

type CitedSource struct {
	Marker          string       `json:"marker"`
	DocumentID      int64        `json:"document_id"`
	Title           string       `json:"title"`
	ReferenceNumber string       `json:"reference_number,omitempty"`
	DocumentType    DocumentType `json:"document_type"`
	RelevanceScore  float64      `json:"relevance_score"`
}

type SynthesizedAnswer struct {
	Text             string        `json:"text"`
	ConfidenceScore  float64       `json:"confidence_score"`
	NeedsHumanReview bool          `json:"needs_human_review"`
	ReviewReason     string        `json:"review_reason,omitempty"`
	CitedSources     []CitedSource `json:"cited_sources"`
}

// LegalAnswer is what callers of ask receive.
type LegalAnswer struct {
	Query              string        `json:"query"`
	ResponseText       string        `json:"response_text"`
	References         []CitedSource `json:"references"`
	ConfidenceScore    float64       `json:"confidence_score"`
	NeedsHumanReview   bool          `json:"needs_human_review"`
	ReviewReason       string        `json:"review_reason,omitempty"`
	RetrievedDocuments int           `json:"retrieved_documents"`
	ProcessingTimeMS   float64       `json:"processing_time_ms"`
}
