package loader

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/kirillkom/labor-law-assistant/internal/core/domain"
	"github.com/kirillkom/labor-law-assistant/internal/core/lexical"
)

const (
	untitled        = "Documento sin título"
	unknownSource   = "Desconocido"
	generalCategory = "General"
	otherCategory   = "Otro"
	maxKeywords     = 10
	maxTitleRunes   = 100
)

type typePattern struct {
	docType domain.DocumentType
	re      *regexp.Regexp
}

// Checked in order; the first match wins.
var typePatterns = []typePattern{
	{domain.TypeLey, regexp.MustCompile(`(?i)ley\s+(?:no\.?|número)?\s*\d+|artículo\s+\d+|código\s+(?:sustantivo|penal|civil)`)},
	{domain.TypeDecreto, regexp.MustCompile(`(?i)decreto\s+(?:no\.?|número)?\s*\d+`)},
	{domain.TypeSentencia, regexp.MustCompile(`(?i)sentencia\s+(?:no\.?|número)?\s*[a-z0-9\-]+`)},
	{domain.TypeResolucion, regexp.MustCompile(`(?i)resoluci[oó]n\s+(?:no\.?|número)?\s*\d+`)},
	{domain.TypeCircular, regexp.MustCompile(`(?i)circular\s+(?:no\.?|número)?\s*\d+`)},
	{domain.TypeConcepto, regexp.MustCompile(`(?i)concepto\s+(?:no\.?|número)?\s*\d+`)},
}

var referencePatterns = map[domain.DocumentType]*regexp.Regexp{
	domain.TypeLey:        regexp.MustCompile(`(?i)ley\s+(?:no\.?|número)?\s*(\d+)(?:\s+de\s+(\d{4}))?`),
	domain.TypeDecreto:    regexp.MustCompile(`(?i)decreto\s+(?:no\.?|número)?\s*(\d+)(?:\s+de\s+(\d{4}))?`),
	domain.TypeSentencia:  regexp.MustCompile(`(?i)sentencia\s+(?:no\.?|número)?\s*([a-z]{1,3}-\d+[a-z0-9\-]*|\d+)(?:\s+de\s+(\d{4}))?`),
	domain.TypeResolucion: regexp.MustCompile(`(?i)resoluci[oó]n\s+(?:no\.?|número)?\s*(\d+)(?:\s+de\s+(\d{4}))?`),
	domain.TypeCircular:   regexp.MustCompile(`(?i)circular\s+(?:no\.?|número)?\s*(\d+)(?:\s+de\s+(\d{4}))?`),
	domain.TypeConcepto:   regexp.MustCompile(`(?i)concepto\s+(?:no\.?|número)?\s*(\d+)(?:\s+de\s+(\d{4}))?`),
}

var (
	laborCodePattern = regexp.MustCompile(`(?i)\bc(?:ódigo)?\s*s(?:ustantivo)?\s*(?:del)?\s*t(?:rabajo)?\b`)
	articlePattern   = regexp.MustCompile(`(?i)artículo\s+(\d+)`)
	spanishDate      = regexp.MustCompile(`(?i)(\d{1,2})\s+de\s+(enero|febrero|marzo|abril|mayo|junio|julio|agosto|septiembre|octubre|noviembre|diciembre)\s+(?:de\s+)?(\d{4})`)
	slashDate        = regexp.MustCompile(`(\d{1,2})/(\d{1,2})/(\d{4})`)
	isoDate          = regexp.MustCompile(`(\d{4})-(\d{1,2})-(\d{1,2})`)
	yearOnly         = regexp.MustCompile(`\b(19\d{2}|20\d{2})\b`)
	whitespace       = regexp.MustCompile(`\s+`)
)

var sourcePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)ministerio\s+de(?:l)?\s+[a-záéíóúüñ]+(?:\s+y\s+[a-záéíóúüñ]+)?`),
	regexp.MustCompile(`(?i)corte\s+(?:constitucional|suprema\s+de\s+justicia|suprema)`),
	regexp.MustCompile(`(?i)congreso\s+(?:de\s+la\s+república|de\s+colombia)`),
	regexp.MustCompile(`(?i)presidencia\s+de\s+(?:la\s+república|colombia)`),
	regexp.MustCompile(`(?i)consejo\s+de\s+estado`),
}

var spanishMonths = map[string]time.Month{
	"enero": time.January, "febrero": time.February, "marzo": time.March, "abril": time.April,
	"mayo": time.May, "junio": time.June, "julio": time.July, "agosto": time.August,
	"septiembre": time.September, "octubre": time.October, "noviembre": time.November, "diciembre": time.December,
}

type laborCategory struct {
	name          string
	keywords      []string
	subcategories []string
}

var laborCategories = []laborCategory{
	{"licencias", []string{"licencia", "permiso", "autorización", "ausencia"}, []string{"maternidad", "paternidad", "incapacidad", "calamidad"}},
	{"salarios", []string{"remuneración", "pago", "salario", "sueldo", "prima", "bonificación"}, []string{"mínimo", "integral", "auxilio", "prestaciones", "cesantías"}},
	{"contratos", []string{"contrato", "vinculación", "relación laboral", "empleador", "trabajador"}, []string{"término fijo", "indefinido", "obra labor", "prestación servicios"}},
	{"terminación", []string{"terminación", "despido", "renuncia", "finalización", "liquidación"}, []string{"indemnización", "despido", "justa causa", "sin justa causa"}},
	{"protección", []string{"protección", "fuero", "estabilidad", "discriminación", "acoso"}, []string{"estabilidad", "reforzada", "fuero", "acoso laboral"}},
}

var titleCaser = cases.Title(language.Spanish)

func cleanText(text string) string {
	return strings.TrimSpace(whitespace.ReplaceAllString(text, " "))
}

func detectType(text string) domain.DocumentType {
	for _, p := range typePatterns {
		if p.re.MatchString(text) {
			return p.docType
		}
	}
	return domain.TypeOtro
}

// extractReference returns the bare identifier ("1822 de 2017", "T-123");
// the type prefix is added when the reference is displayed.
func extractReference(text string, docType domain.DocumentType) string {
	if docType == domain.TypeLey && !referencePatterns[docType].MatchString(text) && laborCodePattern.MatchString(text) {
		if m := articlePattern.FindStringSubmatch(text); m != nil {
			return "CST-Art " + m[1]
		}
		return "CST"
	}
	re, ok := referencePatterns[docType]
	if !ok {
		return ""
	}
	m := re.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	ref := strings.ToUpper(m[1])
	if len(m) > 2 && m[2] != "" {
		ref += " de " + m[2]
	}
	return ref
}

func extractDate(text string) *time.Time {
	if m := spanishDate.FindStringSubmatch(text); m != nil {
		if t, ok := makeDate(m[3], int(spanishMonths[strings.ToLower(m[2])]), m[1]); ok {
			return &t
		}
	}
	if m := slashDate.FindStringSubmatch(text); m != nil {
		month, _ := strconv.Atoi(m[2])
		if t, ok := makeDate(m[3], month, m[1]); ok {
			return &t
		}
	}
	if m := isoDate.FindStringSubmatch(text); m != nil {
		month, _ := strconv.Atoi(m[2])
		if t, ok := makeDate(m[1], month, m[3]); ok {
			return &t
		}
	}
	if m := yearOnly.FindStringSubmatch(text); m != nil {
		year, _ := strconv.Atoi(m[1])
		t := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
		return &t
	}
	return nil
}

func makeDate(yearRaw string, month int, dayRaw string) (time.Time, bool) {
	year, err := strconv.Atoi(yearRaw)
	if err != nil {
		return time.Time{}, false
	}
	day, err := strconv.Atoi(dayRaw)
	if err != nil || month < 1 || month > 12 || day < 1 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes 31/02 into March; reject it instead.
	if t.Day() != day || int(t.Month()) != month {
		return time.Time{}, false
	}
	return t, true
}

func extractSource(text string) string {
	for _, re := range sourcePatterns {
		if m := re.FindString(text); m != "" {
			return titleCaser.String(strings.ToLower(cleanText(m)))
		}
	}
	return unknownSource
}

func extractTitle(raw string) string {
	var lines []string
	for _, line := range strings.Split(raw, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		return untitled
	}
	for _, line := range lines[:min(5, len(lines))] {
		if n := len([]rune(line)); n > 10 && n < maxTitleRunes {
			return line
		}
	}
	runes := []rune(lines[0])
	if len(runes) > maxTitleRunes {
		runes = runes[:maxTitleRunes]
	}
	return string(runes)
}

// extractCategories scores the labor-law categories by keyword containment in
// either direction, then the subcategories of the winner.
func extractCategories(tokens []string) (string, string) {
	best, bestScore := -1, 0
	for i, cat := range laborCategories {
		score := containmentScore(tokens, cat.keywords)
		if score > bestScore {
			best, bestScore = i, score
		}
	}
	if best < 0 {
		return generalCategory, otherCategory
	}
	cat := laborCategories[best]

	sub, subScore := "", 0
	for _, candidate := range cat.subcategories {
		score := containmentScore(tokens, []string{candidate})
		if score > subScore {
			sub, subScore = candidate, score
		}
	}
	if sub == "" {
		return capitalize(cat.name), otherCategory
	}
	return capitalize(cat.name), capitalize(sub)
}

func containmentScore(tokens, keywords []string) int {
	score := 0
	for _, token := range tokens {
		for _, kw := range keywords {
			if strings.Contains(kw, token) || strings.Contains(token, kw) {
				score++
			}
		}
	}
	return score
}

func capitalize(s string) string {
	r := []rune(s)
	if len(r) == 0 {
		return s
	}
	return strings.ToUpper(string(r[0])) + string(r[1:])
}

// extractKeywords keeps the most frequent terms; ties keep first appearance.
func extractKeywords(tokens []string) string {
	counts := make(map[string]int, len(tokens))
	var order []string
	for _, token := range tokens {
		if counts[token] == 0 {
			order = append(order, token)
		}
		counts[token]++
	}
	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > maxKeywords {
		order = order[:maxKeywords]
	}
	return strings.Join(order, ", ")
}

// describe derives every metadata field from the document text.
func describe(raw string, normalizer *lexical.Normalizer) domain.LegalDocument {
	content := cleanText(raw)
	lowered := strings.ToLower(content)
	tokens := normalizer.Terms(content)
	docType := detectType(lowered)
	category, subcategory := extractCategories(tokens)

	return domain.LegalDocument{
		Title:           extractTitle(raw),
		Type:            docType,
		ReferenceNumber: extractReference(lowered, docType),
		IssueDate:       extractDate(lowered),
		Source:          extractSource(lowered),
		Body:            content,
		Keywords:        extractKeywords(tokens),
		Category:        category,
		Subcategory:     subcategory,
	}
}
