package lexical

import (
	"fmt"
	"math"

	"github.com/kirillkom/labor-law-assistant/internal/core/domain"
)

// Params are the Okapi BM25 tuning constants.
type Params struct {
	TermSaturation      float64 // k1
	LengthNormalization float64 // b
}

func DefaultParams() Params {
	return Params{
		TermSaturation:      1.5,
		LengthNormalization: 0.75,
	}
}

func (p Params) validate() error {
	if p.TermSaturation < 0 || math.IsNaN(p.TermSaturation) {
		return fmt.Errorf("term saturation must be >= 0, got %v", p.TermSaturation)
	}
	if p.LengthNormalization < 0 || p.LengthNormalization > 1 || math.IsNaN(p.LengthNormalization) {
		return fmt.Errorf("length normalization must be within [0, 1], got %v", p.LengthNormalization)
	}
	return nil
}

// Index is an immutable BM25 index over a tokenized corpus. Positions match
// the order of the corpus passed to NewIndex.
type Index struct {
	params    Params
	termFreqs []map[string]int
	docLens   []int
	avgLen    float64
	idf       map[string]float64
}

// NewIndex requires a non-empty corpus of non-empty documents.
func NewIndex(corpus [][]string, params Params) (*Index, error) {
	if err := params.validate(); err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "new bm25 index", err)
	}
	if len(corpus) == 0 {
		return nil, domain.ErrEmptyCorpus
	}

	termFreqs := make([]map[string]int, len(corpus))
	docLens := make([]int, len(corpus))
	docFreq := make(map[string]int)
	totalLen := 0

	for i, tokens := range corpus {
		if len(tokens) == 0 {
			return nil, domain.WrapError(domain.ErrInvalidInput, "new bm25 index", fmt.Errorf("document at position %d has no tokens", i))
		}
		freqs := make(map[string]int, len(tokens))
		for _, token := range tokens {
			freqs[token]++
		}
		for token := range freqs {
			docFreq[token]++
		}
		termFreqs[i] = freqs
		docLens[i] = len(tokens)
		totalLen += len(tokens)
	}

	n := float64(len(corpus))
	idf := make(map[string]float64, len(docFreq))
	for term, df := range docFreq {
		// ln(1 + ...) keeps idf positive even for terms present in every document.
		idf[term] = math.Log(1 + (n-float64(df)+0.5)/(float64(df)+0.5))
	}

	return &Index{
		params:    params,
		termFreqs: termFreqs,
		docLens:   docLens,
		avgLen:    float64(totalLen) / n,
		idf:       idf,
	}, nil
}

func (ix *Index) Len() int {
	return len(ix.docLens)
}

func (ix *Index) Params() Params {
	return ix.params
}

// Score returns one score per document, aligned with corpus order.
func (ix *Index) Score(query []string) []float64 {
	scores := make([]float64, len(ix.docLens))
	for pos := range scores {
		scores[pos] = ix.ScoreAt(query, pos)
	}
	return scores
}

// ScoreAt scores a single document. Repeated query terms count each time.
func (ix *Index) ScoreAt(query []string, pos int) float64 {
	if pos < 0 || pos >= len(ix.docLens) {
		return 0
	}
	k1 := ix.params.TermSaturation
	b := ix.params.LengthNormalization
	freqs := ix.termFreqs[pos]
	lengthNorm := k1 * (1 - b + b*float64(ix.docLens[pos])/ix.avgLen)

	score := 0.0
	for _, term := range query {
		tf, ok := freqs[term]
		if !ok {
			continue
		}
		f := float64(tf)
		score += ix.idf[term] * (f * (k1 + 1)) / (f + lengthNorm)
	}
	return score
}
