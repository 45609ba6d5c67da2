package loader

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/labor-law-assistant/internal/core/domain"
	"github.com/kirillkom/labor-law-assistant/internal/observability/logging"
)

type fakeWriter struct {
	nextID int64
	docs   []domain.LegalDocument
	failOn string
}

func (w *fakeWriter) Upsert(_ context.Context, doc *domain.LegalDocument) error {
	if w.failOn != "" && strings.Contains(doc.Body, w.failOn) {
		return domain.WrapError(domain.ErrInvalidInput, "upsert document", errors.New("rejected"))
	}
	w.nextID++
	doc.ID = w.nextID
	w.docs = append(w.docs, *doc)
	return nil
}

type fakeEvents struct {
	published []domain.DocumentsChanged
	err       error
}

func (e *fakeEvents) PublishDocumentsChanged(_ context.Context, event domain.DocumentsChanged) error {
	if e.err != nil {
		return e.err
	}
	e.published = append(e.published, event)
	return nil
}

func (e *fakeEvents) SubscribeDocumentsChanged(context.Context, func(context.Context, domain.DocumentsChanged) error) error {
	return nil
}

func writeFile(t *testing.T, path string, content []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

const statuteText = "Ley 1822 de 2017\nPor medio de la cual se incentiva la adecuada atención y cuidado de la primera infancia.\nLa licencia de maternidad será de dieciocho semanas."

func TestLoadTextFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ley-1822.txt")
	writeFile(t, path, []byte(statuteText))

	writer := &fakeWriter{}
	report, err := New(writer, nil, logging.Discard()).Load(context.Background(), []string{path}, Overrides{}, false)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if report.Files != 1 || report.Loaded != 1 || len(report.IDs) != 1 || report.IDs[0] != 1 {
		t.Fatalf("unexpected report: %+v", report)
	}
	doc := writer.docs[0]
	if doc.Type != domain.TypeLey || doc.ReferenceNumber != "1822 de 2017" {
		t.Fatalf("unexpected metadata: %s %q", doc.Type, doc.ReferenceNumber)
	}
	if doc.Title != "Ley 1822 de 2017" {
		t.Fatalf("unexpected title %q", doc.Title)
	}
	if doc.Category != "Licencias" || doc.Subcategory != "Maternidad" {
		t.Fatalf("unexpected categories %q/%q", doc.Category, doc.Subcategory)
	}
}

func TestLoadDecodesLatin1(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "resolucion.txt")
	writeFile(t, path, []byte("Resoluci\xf3n 2400 de 1979 sobre vivienda, higiene y seguridad en los establecimientos de trabajo"))

	writer := &fakeWriter{}
	if _, err := New(writer, nil, logging.Discard()).Load(context.Background(), []string{path}, Overrides{}, false); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(writer.docs) != 1 {
		t.Fatalf("expected one document, got %d", len(writer.docs))
	}
	doc := writer.docs[0]
	if !strings.HasPrefix(doc.Title, "Resolución 2400") {
		t.Fatalf("expected decoded title, got %q", doc.Title)
	}
	if doc.Type != domain.TypeResolucion || doc.ReferenceNumber != "2400 de 1979" {
		t.Fatalf("unexpected metadata: %s %q", doc.Type, doc.ReferenceNumber)
	}
}

func TestLoadFallsBackToFileStemReference(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "guia-vacaciones.md")
	writeFile(t, path, []byte("# Guía de vacaciones\nEl trabajador tiene derecho a quince días hábiles de descanso."))

	writer := &fakeWriter{}
	if _, err := New(writer, nil, logging.Discard()).Load(context.Background(), []string{path}, Overrides{}, false); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := writer.docs[0].ReferenceNumber; got != "guia-vacaciones" {
		t.Fatalf("expected stem reference, got %q", got)
	}
}

func TestLoadAppliesOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.txt")
	writeFile(t, path, []byte(statuteText))

	writer := &fakeWriter{}
	overrides := Overrides{Type: "Concepto", Category: "Salarios", Reference: "C-1", Source: "Ministerio del Trabajo"}
	if _, err := New(writer, nil, logging.Discard()).Load(context.Background(), []string{path}, overrides, false); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	doc := writer.docs[0]
	if doc.Type != domain.TypeConcepto || doc.Category != "Salarios" || doc.ReferenceNumber != "C-1" || doc.Source != "Ministerio del Trabajo" {
		t.Fatalf("overrides not applied: %+v", doc)
	}
	if doc.Subcategory != "Maternidad" {
		t.Fatalf("unset overrides must keep detected values, got %q", doc.Subcategory)
	}
}

func TestLoadRejectsUnknownOverrideType(t *testing.T) {
	_, err := New(&fakeWriter{}, nil, logging.Discard()).Load(context.Background(), nil, Overrides{Type: "memorando"}, false)
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestLoadSkipsUnsupportedAndBrokenFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), []byte(statuteText))
	writeFile(t, filepath.Join(dir, "b.docx"), []byte("binary"))
	writeFile(t, filepath.Join(dir, "c.pdf"), []byte("not a pdf"))
	writeFile(t, filepath.Join(dir, "d.txt"), []byte("   \n  "))
	writeFile(t, filepath.Join(dir, ".drafts", "e.txt"), []byte(statuteText))
	direct := filepath.Join(dir, "b.docx")

	writer := &fakeWriter{}
	report, err := New(writer, nil, logging.Discard()).Load(context.Background(), []string{dir, direct}, Overrides{}, false)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if report.Files != 3 {
		t.Fatalf("expected three supported files, got %d", report.Files)
	}
	if report.Loaded != 1 {
		t.Fatalf("expected one loaded document, got %d", report.Loaded)
	}
	if len(report.Skipped) != 3 {
		t.Fatalf("expected pdf, empty text and docx to be skipped, got %+v", report.Skipped)
	}
}

func TestLoadReportsWriterFailures(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), []byte(statuteText))
	writeFile(t, filepath.Join(dir, "b.txt"), []byte("Decreto 1072 de 2015 reglamentario del sector trabajo"))

	writer := &fakeWriter{failOn: "Decreto"}
	report, err := New(writer, nil, logging.Discard()).Load(context.Background(), []string{dir}, Overrides{}, false)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if report.Loaded != 1 || len(report.Skipped) != 1 {
		t.Fatalf("unexpected report: %+v", report)
	}
}

func TestLoadPublishesSingleEvent(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), []byte(statuteText))
	writeFile(t, filepath.Join(dir, "b.txt"), []byte("Decreto 1072 de 2015 reglamentario del sector trabajo"))

	events := &fakeEvents{}
	report, err := New(&fakeWriter{}, events, logging.Discard()).Load(context.Background(), []string{dir}, Overrides{}, true)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !report.Notified || len(events.published) != 1 {
		t.Fatalf("expected one event, got %+v", events.published)
	}
	if events.published[0].Count != 2 || events.published[0].Source != "loader" {
		t.Fatalf("unexpected event: %+v", events.published[0])
	}
}

func TestLoadSkipsNotificationWhenNothingLoaded(t *testing.T) {
	events := &fakeEvents{}
	report, err := New(&fakeWriter{}, events, logging.Discard()).Load(context.Background(), []string{t.TempDir()}, Overrides{}, true)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if report.Notified || len(events.published) != 0 {
		t.Fatalf("expected no event, got %+v", events.published)
	}
}

func TestLoadReturnsPublishError(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), []byte(statuteText))

	events := &fakeEvents{err: errors.New("nats down")}
	report, err := New(&fakeWriter{}, events, logging.Discard()).Load(context.Background(), []string{dir}, Overrides{}, true)
	if err == nil {
		t.Fatalf("expected publish error")
	}
	if report.Loaded != 1 || report.Notified {
		t.Fatalf("documents stay loaded when notification fails: %+v", report)
	}
}

func TestLoadCatalogWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalogo.xlsx")
	f := excelize.NewFile()
	rows := [][]interface{}{
		{"Título", "Tipo", "Referencia", "Fecha", "Contenido"},
		{"Licencia de maternidad", "ley", "1822 de 2017", "2017-01-04", "La licencia de maternidad será de dieciocho semanas."},
		{"Sin contenido", "ley", "", "", ""},
		{"", "sentencia", "", "", "La Corte Constitucional en la sentencia t-353 de 2016 protegió la estabilidad reforzada."},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		if err := f.SetSheetRow("Sheet1", cell, &row); err != nil {
			t.Fatalf("SetSheetRow() error = %v", err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs() error = %v", err)
	}
	_ = f.Close()

	writer := &fakeWriter{}
	report, err := New(writer, nil, logging.Discard()).Load(context.Background(), []string{path}, Overrides{}, false)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if report.Loaded != 2 {
		t.Fatalf("expected two catalog rows, got %+v", report)
	}
	first := writer.docs[0]
	if first.Title != "Licencia de maternidad" || first.ReferenceNumber != "1822 de 2017" {
		t.Fatalf("unexpected first row: %+v", first)
	}
	if first.IssueDate == nil || first.IssueDate.Day() != 4 {
		t.Fatalf("expected parsed issue date, got %v", first.IssueDate)
	}
	second := writer.docs[1]
	if second.Type != domain.TypeSentencia || second.ReferenceNumber != "T-353 de 2016" {
		t.Fatalf("unexpected second row: %s %q", second.Type, second.ReferenceNumber)
	}
	if second.Source != "Corte Constitucional" || second.Category != "Protección" {
		t.Fatalf("unexpected derived metadata: %q %q", second.Source, second.Category)
	}
}

func TestParseCatalogDate(t *testing.T) {
	if got, err := parseCatalogDate("26/05/2015"); err != nil || got.Month() != 5 {
		t.Fatalf("parseCatalogDate() = %v, %v", got, err)
	}
	if _, err := parseCatalogDate("mayo"); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}
