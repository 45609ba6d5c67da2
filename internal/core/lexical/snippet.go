package lexical

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

const (
	DefaultSnippetLength = 250
	ellipsis             = "..."
)

// A period after one of these words does not end a sentence ("Art. 236").
var abbreviations = map[string]struct{}{
	"art": {}, "arts": {}, "num": {}, "núm": {}, "nro": {},
	"inc": {}, "lit": {}, "par": {}, "parág": {},
}

type scoredSentence struct {
	text  string
	score float64
}

// ExtractSnippet picks the sentences of body that mention terms most densely
// and joins them, best first, without exceeding maxLen runes.
func ExtractSnippet(body string, terms []string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = DefaultSnippetLength
	}
	body = strings.TrimSpace(body)

	sentences := splitSentences(body)
	if len(sentences) == 0 || len(terms) == 0 {
		return truncate(body, maxLen)
	}

	ranked := make([]scoredSentence, 0, len(sentences))
	for _, sentence := range sentences {
		lowered := strings.ToLower(norm.NFC.String(sentence))
		hits := 0
		for _, term := range terms {
			if term == "" {
				continue
			}
			hits += strings.Count(lowered, term)
		}
		words := len(strings.Fields(sentence))
		ranked = append(ranked, scoredSentence{
			text:  sentence,
			score: float64(hits) / float64(words+1),
		})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	parts := make([]string, 0, len(ranked))
	length := 0
	for _, sentence := range ranked {
		size := utf8.RuneCountInString(sentence.text)
		if len(parts) > 0 {
			size++
		}
		if length+size > maxLen {
			if len(parts) == 0 {
				return truncate(sentence.text, maxLen)
			}
			break
		}
		parts = append(parts, sentence.text)
		length += size
	}
	return strings.Join(parts, " ")
}

// splitSentences cuts text after runs of . ! ? and returns nil when the text
// has no sentence boundary at all. Periods inside numbers ("1.300.000") and
// after legal abbreviations are not boundaries.
func splitSentences(text string) []string {
	var out []string
	start := 0
	for i := 0; i < len(text); i++ {
		if !isTerminator(text[i]) {
			continue
		}
		end := i + 1
		for end < len(text) && isTerminator(text[end]) {
			end++
		}
		if end == i+1 && text[i] == '.' && !periodEndsSentence(text, i) {
			continue
		}
		if s := strings.TrimSpace(text[start:end]); s != "" {
			out = append(out, s)
		}
		start = end
		i = end - 1
	}
	if len(out) == 0 {
		return nil
	}
	if tail := strings.TrimSpace(text[start:]); tail != "" {
		out = append(out, tail)
	}
	return out
}

func isTerminator(b byte) bool {
	return b == '.' || b == '!' || b == '?'
}

func periodEndsSentence(text string, dot int) bool {
	if next, _ := utf8.DecodeRuneInString(text[dot+1:]); unicode.IsDigit(next) {
		return false
	}
	wordStart := dot
	for wordStart > 0 {
		r, size := utf8.DecodeLastRuneInString(text[:wordStart])
		if !unicode.IsLetter(r) {
			break
		}
		wordStart -= size
	}
	_, abbrev := abbreviations[strings.ToLower(text[wordStart:dot])]
	return !abbrev
}

func truncate(text string, maxLen int) string {
	if utf8.RuneCountInString(text) <= maxLen {
		return text
	}
	runes := []rune(text)
	if maxLen <= len(ellipsis) {
		return string(runes[:maxLen])
	}
	return strings.TrimSpace(string(runes[:maxLen-len(ellipsis)])) + ellipsis
}
