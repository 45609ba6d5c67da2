// Package loader turns files on disk into legal documents: plain text,
// Markdown and PDF files become one document each, spreadsheets become one
// document per row.
package loader

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/kirillkom/labor-law-assistant/internal/core/domain"
	"github.com/kirillkom/labor-law-assistant/internal/core/lexical"
	"github.com/kirillkom/labor-law-assistant/internal/core/ports"
)

// Overrides replace detected metadata for every loaded document.
type Overrides struct {
	Type        domain.DocumentType
	Category    string
	Subcategory string
	Reference   string
	Source      string
}

type Skipped struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

type Report struct {
	Files    int       `json:"files"`
	Loaded   int       `json:"loaded"`
	IDs      []int64   `json:"ids"`
	Skipped  []Skipped `json:"skipped,omitempty"`
	Notified bool      `json:"notified"`
	Duration float64   `json:"duration_ms"`
}

type Loader struct {
	writer     ports.DocumentWriter
	events     ports.DocumentEvents
	normalizer *lexical.Normalizer
	logger     *slog.Logger
}

// New builds a loader. events may be nil when change notifications are off.
func New(writer ports.DocumentWriter, events ports.DocumentEvents, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		writer:     writer,
		events:     events,
		normalizer: lexical.NewNormalizer(),
		logger:     logger,
	}
}

// Load writes every supported file under paths. Per-file failures are
// reported and skipped; only a cancelled context aborts the run.
func (l *Loader) Load(ctx context.Context, paths []string, overrides Overrides, notify bool) (Report, error) {
	start := time.Now()
	var report Report

	if overrides.Type != "" {
		parsed, err := domain.ParseDocumentType(string(overrides.Type))
		if err != nil {
			return report, err
		}
		overrides.Type = parsed
	}

	files, skipped := expandPaths(paths)
	report.Skipped = append(report.Skipped, skipped...)
	report.Files = len(files)

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		docs, err := l.documentsFromFile(path)
		if err != nil {
			l.logger.Warn("loader_file_skipped", "path", path, "error", err)
			report.Skipped = append(report.Skipped, Skipped{Path: path, Reason: err.Error()})
			continue
		}
		for i := range docs {
			doc := &docs[i]
			applyOverrides(doc, overrides)
			if err := l.writer.Upsert(ctx, doc); err != nil {
				l.logger.Warn("loader_upsert_failed", "path", path, "title", doc.Title, "error", err)
				report.Skipped = append(report.Skipped, Skipped{Path: path, Reason: err.Error()})
				continue
			}
			report.Loaded++
			report.IDs = append(report.IDs, doc.ID)
		}
	}

	if notify && report.Loaded > 0 && l.events != nil {
		event := domain.DocumentsChanged{Count: report.Loaded, Source: "loader", OccurredAt: time.Now().UTC()}
		if err := l.events.PublishDocumentsChanged(ctx, event); err != nil {
			report.Duration = elapsedMS(start)
			return report, fmt.Errorf("notify documents changed: %w", err)
		}
		report.Notified = true
	}

	report.Duration = elapsedMS(start)
	l.logger.Info("loader_completed", "files", report.Files, "loaded", report.Loaded, "skipped", len(report.Skipped), "notified", report.Notified)
	return report, nil
}

func (l *Loader) documentsFromFile(path string) ([]domain.LegalDocument, error) {
	ext := strings.ToLower(filepath.Ext(path))
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	switch {
	case ext == ".xlsx":
		return l.documentsFromCatalog(path, stem)
	case ext == ".pdf":
		text, err := readPDF(path)
		if err != nil {
			return nil, err
		}
		return l.singleDocument(text, stem)
	default:
		text, err := readText(path)
		if err != nil {
			return nil, err
		}
		return l.singleDocument(text, stem)
	}
}

func (l *Loader) singleDocument(text, stem string) ([]domain.LegalDocument, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("document has no extractable text")
	}
	doc := describe(text, l.normalizer)
	if doc.ReferenceNumber == "" {
		doc.ReferenceNumber = stem
	}
	return []domain.LegalDocument{doc}, nil
}

func (l *Loader) documentsFromCatalog(path, stem string) ([]domain.LegalDocument, error) {
	rows, err := readCatalog(path)
	if err != nil {
		return nil, err
	}
	docs := make([]domain.LegalDocument, 0, len(rows))
	for _, row := range rows {
		doc := describe(row.fields["body"], l.normalizer)
		if v := row.fields["title"]; v != "" {
			doc.Title = v
		}
		if v := row.fields["type"]; v != "" {
			parsed, err := domain.ParseDocumentType(v)
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", row.line, err)
			}
			doc.Type = parsed
		}
		if v := row.fields["reference"]; v != "" {
			doc.ReferenceNumber = v
		}
		if doc.ReferenceNumber == "" {
			doc.ReferenceNumber = fmt.Sprintf("%s-%d", stem, row.line)
		}
		if v := row.fields["issue_date"]; v != "" {
			date, err := parseCatalogDate(v)
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", row.line, err)
			}
			doc.IssueDate = date
		}
		if v := row.fields["category"]; v != "" {
			doc.Category = v
		}
		if v := row.fields["subcategory"]; v != "" {
			doc.Subcategory = v
		}
		if v := row.fields["source"]; v != "" {
			doc.Source = v
		}
		if v := row.fields["keywords"]; v != "" {
			doc.Keywords = v
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func applyOverrides(doc *domain.LegalDocument, o Overrides) {
	if o.Type != "" {
		doc.Type = o.Type
	}
	if o.Category != "" {
		doc.Category = o.Category
	}
	if o.Subcategory != "" {
		doc.Subcategory = o.Subcategory
	}
	if o.Reference != "" {
		doc.ReferenceNumber = o.Reference
	}
	if o.Source != "" {
		doc.Source = o.Source
	}
}

// expandPaths walks directories and returns supported files in lexical order.
func expandPaths(paths []string) ([]string, []Skipped) {
	var (
		files   []string
		skipped []Skipped
		seen    = make(map[string]struct{})
	)
	add := func(path string) {
		if _, ok := seen[path]; ok {
			return
		}
		seen[path] = struct{}{}
		files = append(files, path)
	}

	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			skipped = append(skipped, Skipped{Path: root, Reason: err.Error()})
			continue
		}
		if !info.IsDir() {
			if supported(root) {
				add(root)
			} else {
				skipped = append(skipped, Skipped{Path: root, Reason: "unsupported file type"})
			}
			continue
		}
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				skipped = append(skipped, Skipped{Path: path, Reason: err.Error()})
				return nil
			}
			if d.IsDir() {
				if path != root && strings.HasPrefix(d.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if supported(path) {
				add(path)
			}
			return nil
		})
		if err != nil {
			skipped = append(skipped, Skipped{Path: root, Reason: err.Error()})
		}
	}
	sort.Strings(files)
	return files, skipped
}

func elapsedMS(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000.0
}
