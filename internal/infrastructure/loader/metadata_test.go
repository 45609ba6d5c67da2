package loader

import (
	"testing"
	"time"

	"github.com/kirillkom/labor-law-assistant/internal/core/domain"
	"github.com/kirillkom/labor-law-assistant/internal/core/lexical"
)

func TestDetectType(t *testing.T) {
	cases := map[string]domain.DocumentType{
		"por medio de la ley 1822 de 2017 se modifica":         domain.TypeLey,
		"decreto 1072 de 2015, decreto único reglamentario":   domain.TypeDecreto,
		"sentencia t-123 de 2019 de la corte constitucional":  domain.TypeSentencia,
		"resolución 2400 de 1979":                             domain.TypeResolucion,
		"circular 0042 del ministerio":                        domain.TypeCircular,
		"concepto 12345 de la oficina jurídica":               domain.TypeConcepto,
		"guía práctica para empleadores":                      domain.TypeOtro,
	}
	for text, want := range cases {
		if got := detectType(text); got != want {
			t.Fatalf("detectType(%q) = %s, want %s", text, got, want)
		}
	}
}

func TestExtractReference(t *testing.T) {
	cases := []struct {
		text    string
		docType domain.DocumentType
		want    string
	}{
		{"la ley 1822 de 2017 incrementa la licencia", domain.TypeLey, "1822 de 2017"},
		{"ley no. 50 establece", domain.TypeLey, "50"},
		{"decreto 1072 de 2015", domain.TypeDecreto, "1072 de 2015"},
		{"sentencia t-123 de 2019", domain.TypeSentencia, "T-123 de 2019"},
		{"código sustantivo del trabajo artículo 64", domain.TypeLey, "CST-Art 64"},
		{"guía sin número", domain.TypeOtro, ""},
	}
	for _, tc := range cases {
		if got := extractReference(tc.text, tc.docType); got != tc.want {
			t.Fatalf("extractReference(%q) = %q, want %q", tc.text, got, tc.want)
		}
	}
}

func TestExtractDate(t *testing.T) {
	cases := map[string]time.Time{
		"expedida el 4 de enero de 2017":  time.Date(2017, time.January, 4, 0, 0, 0, 0, time.UTC),
		"bogotá, 26/05/2015":              time.Date(2015, time.May, 26, 0, 0, 0, 0, time.UTC),
		"publicado 2019-11-03 en el diario": time.Date(2019, time.November, 3, 0, 0, 0, 0, time.UTC),
		"vigente desde 1990":              time.Date(1990, time.January, 1, 0, 0, 0, 0, time.UTC),
	}
	for text, want := range cases {
		got := extractDate(text)
		if got == nil || !got.Equal(want) {
			t.Fatalf("extractDate(%q) = %v, want %v", text, got, want)
		}
	}
	if got := extractDate("31/02/2020"); got == nil || got.Year() != 2020 || got.Month() != time.January {
		t.Fatalf("invalid calendar date must fall back to the year, got %v", got)
	}
	if got := extractDate("sin fecha"); got != nil {
		t.Fatalf("expected nil date, got %v", got)
	}
}

func TestExtractSource(t *testing.T) {
	if got := extractSource("la corte constitucional decidió"); got != "Corte Constitucional" {
		t.Fatalf("unexpected source %q", got)
	}
	if got := extractSource("texto cualquiera"); got != unknownSource {
		t.Fatalf("expected unknown source, got %q", got)
	}
}

func TestExtractTitle(t *testing.T) {
	raw := "\n  LEY\n Ley 1822 de 2017 sobre licencia de maternidad \nArtículo 1..."
	if got := extractTitle(raw); got != "Ley 1822 de 2017 sobre licencia de maternidad" {
		t.Fatalf("unexpected title %q", got)
	}
	if got := extractTitle("   \n "); got != untitled {
		t.Fatalf("expected placeholder title, got %q", got)
	}
	if got := extractTitle("corto"); got != "corto" {
		t.Fatalf("expected first line fallback, got %q", got)
	}
}

func TestExtractCategories(t *testing.T) {
	n := lexical.NewNormalizer()
	cat, sub := extractCategories(n.Terms("La licencia de maternidad y el permiso de maternidad remunerado"))
	if cat != "Licencias" || sub != "Maternidad" {
		t.Fatalf("unexpected categories %q/%q", cat, sub)
	}
	cat, sub = extractCategories(n.Terms("Texto genérico sobre otra materia"))
	if cat != generalCategory || sub != otherCategory {
		t.Fatalf("expected general categories, got %q/%q", cat, sub)
	}
}

func TestExtractKeywordsOrdersByFrequency(t *testing.T) {
	got := extractKeywords([]string{"salario", "mínimo", "salario", "aumento", "mínimo", "salario"})
	if got != "salario, mínimo, aumento" {
		t.Fatalf("unexpected keywords %q", got)
	}
}

func TestDescribeBuildsDocument(t *testing.T) {
	raw := "Ley 1822 de 2017\nPor medio de la cual se incentiva la adecuada atención.\nLa licencia de maternidad será de dieciocho semanas. El Congreso de la República decreta."
	doc := describe(raw, lexical.NewNormalizer())
	if doc.Type != domain.TypeLey || doc.ReferenceNumber != "1822 de 2017" {
		t.Fatalf("unexpected type/reference: %s %q", doc.Type, doc.ReferenceNumber)
	}
	if doc.Source != "Congreso De La República" {
		t.Fatalf("unexpected source %q", doc.Source)
	}
	if doc.Category != "Licencias" {
		t.Fatalf("unexpected category %q", doc.Category)
	}
	if doc.IssueDate == nil || doc.IssueDate.Year() != 2017 {
		t.Fatalf("expected 2017 issue date, got %v", doc.IssueDate)
	}
	if doc.Body == raw {
		t.Fatalf("expected whitespace to be collapsed")
	}
}
