package lexical

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/kljensen/snowball/spanish"
	"golang.org/x/text/unicode/norm"
)

const minTokenRunes = 3

// Normalizer turns free Spanish text into index terms. It holds no mutable
// state after construction and is safe for concurrent use.
type Normalizer struct {
	stopwords map[string]struct{}
	stem      func(string) string
}

func NewNormalizer(extraStopwords ...string) *Normalizer {
	words := make([]string, 0, len(spanishStopwords)+len(legalStopwords)+len(extraStopwords))
	words = append(words, spanishStopwords...)
	words = append(words, legalStopwords...)
	words = append(words, extraStopwords...)

	stopwords := make(map[string]struct{}, len(words)*2)
	for _, word := range words {
		w := strings.ToLower(norm.NFC.String(strings.TrimSpace(word)))
		if w == "" {
			continue
		}
		stopwords[w] = struct{}{}
		// users often type legal terms without accents
		stopwords[foldAccents(w)] = struct{}{}
	}

	return &Normalizer{
		stopwords: stopwords,
		stem: func(word string) string {
			return spanish.Stem(word, false)
		},
	}
}

// Normalize returns stemmed index terms in text order.
func (n *Normalizer) Normalize(text string) []string {
	terms := n.Terms(text)
	out := make([]string, 0, len(terms))
	for _, term := range terms {
		stemmed := n.stem(term)
		if utf8.RuneCountInString(stemmed) < minTokenRunes {
			continue
		}
		out = append(out, stemmed)
	}
	return out
}

// Terms is Normalize without stemming. Snippet extraction matches these
// literally against sentence text.
func (n *Normalizer) Terms(text string) []string {
	lowered := strings.ToLower(norm.NFC.String(text))
	fields := strings.FieldsFunc(lowered, isSeparator)

	out := make([]string, 0, len(fields))
	for _, field := range fields {
		if utf8.RuneCountInString(field) < minTokenRunes {
			continue
		}
		if _, stop := n.stopwords[field]; stop {
			continue
		}
		out = append(out, field)
	}
	return out
}

func isSeparator(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

var accentFolder = strings.NewReplacer(
	"á", "a",
	"é", "e",
	"í", "i",
	"ó", "o",
	"ú", "u",
	"ü", "u",
)

func foldAccents(word string) string {
	return accentFolder.Replace(word)
}
