package lexical

import (
	"errors"
	"testing"

	"github.com/kirillkom/labor-law-assistant/internal/core/domain"
)

func testCorpus() [][]string {
	return [][]string{
		{"licenci", "matern", "seman", "dieciocho"},
		{"salari", "minim", "mensual", "vigent"},
		{"vacacion", "remuner", "quinc", "dias", "habil"},
		{"licenci", "patern", "seman", "dos"},
	}
}

func TestScoreZeroOverlapIsExactlyZero(t *testing.T) {
	ix, err := NewIndex(testCorpus(), DefaultParams())
	if err != nil {
		t.Fatalf("NewIndex() error = %v", err)
	}

	scores := ix.Score([]string{"matern"})
	if scores[0] <= 0 {
		t.Fatalf("expected positive score for matching document, got %v", scores[0])
	}
	for _, pos := range []int{1, 2, 3} {
		if scores[pos] != 0 {
			t.Fatalf("document %d shares no term, got score %v", pos, scores[pos])
		}
	}
}

func TestScoreIsNonNegativeForUbiquitousTerms(t *testing.T) {
	corpus := [][]string{
		{"trabaj", "contrat"},
		{"trabaj", "salari"},
		{"trabaj", "jornad"},
	}
	ix, err := NewIndex(corpus, DefaultParams())
	if err != nil {
		t.Fatalf("NewIndex() error = %v", err)
	}
	for pos, score := range ix.Score([]string{"trabaj"}) {
		if score <= 0 {
			t.Fatalf("document %d: expected positive score for term present everywhere, got %v", pos, score)
		}
	}
}

func TestScoreIsDeterministic(t *testing.T) {
	ix, err := NewIndex(testCorpus(), DefaultParams())
	if err != nil {
		t.Fatalf("NewIndex() error = %v", err)
	}
	query := []string{"licenci", "seman", "licenci"}
	first := ix.Score(query)
	for i := 0; i < 10; i++ {
		got := ix.Score(query)
		for pos := range got {
			if got[pos] != first[pos] {
				t.Fatalf("run %d pos %d: %v != %v", i, pos, got[pos], first[pos])
			}
		}
	}
}

func TestLengthNormalizationPenalizesLongDocuments(t *testing.T) {
	corpus := [][]string{
		{"salari", "corto"},
		{"salari", "uno", "dos", "tres", "cuatro", "cinco", "seis", "siete", "ocho", "nueve"},
		{"otro", "texto", "sin", "relacion"},
	}
	score := func(b float64) (short, long float64) {
		ix, err := NewIndex(corpus, Params{TermSaturation: 1.5, LengthNormalization: b})
		if err != nil {
			t.Fatalf("NewIndex(b=%v) error = %v", b, err)
		}
		return ix.ScoreAt([]string{"salari"}, 0), ix.ScoreAt([]string{"salari"}, 1)
	}

	shortNoNorm, longNoNorm := score(0)
	if shortNoNorm != longNoNorm {
		t.Fatalf("b=0 should ignore length: short=%v long=%v", shortNoNorm, longNoNorm)
	}

	short, long := score(0.75)
	if long >= short {
		t.Fatalf("b=0.75 should favour the short document: short=%v long=%v", short, long)
	}

	_, longFull := score(1)
	if longFull >= long {
		t.Fatalf("raising b should penalize the long document more: b=1 %v, b=0.75 %v", longFull, long)
	}
}

func TestNewIndexRejectsEmptyCorpus(t *testing.T) {
	_, err := NewIndex(nil, DefaultParams())
	if !errors.Is(err, domain.ErrEmptyCorpus) {
		t.Fatalf("expected ErrEmptyCorpus, got %v", err)
	}
}

func TestNewIndexRejectsEmptyDocumentAndBadParams(t *testing.T) {
	if _, err := NewIndex([][]string{{"a"}, {}}, DefaultParams()); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty document, got %v", err)
	}
	if _, err := NewIndex(testCorpus(), Params{TermSaturation: 1.5, LengthNormalization: 1.5}); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for b > 1, got %v", err)
	}
}

func TestScoreAtOutOfRangeIsZero(t *testing.T) {
	ix, err := NewIndex(testCorpus(), DefaultParams())
	if err != nil {
		t.Fatalf("NewIndex() error = %v", err)
	}
	if got := ix.ScoreAt([]string{"licenci"}, 99); got != 0 {
		t.Fatalf("expected 0 for out-of-range position, got %v", got)
	}
	if ix.Len() != 4 {
		t.Fatalf("Len() = %d, want 4", ix.Len())
	}
}
