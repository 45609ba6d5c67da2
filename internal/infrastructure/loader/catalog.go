package loader

import (
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/labor-law-assistant/internal/core/domain"
)

// catalogColumns maps accepted header spellings onto document fields.
var catalogColumns = map[string]string{
	"title":            "title",
	"titulo":           "title",
	"título":           "title",
	"type":             "type",
	"tipo":             "type",
	"document_type":    "type",
	"reference":        "reference",
	"reference_number": "reference",
	"referencia":       "reference",
	"numero":           "reference",
	"número":           "reference",
	"issue_date":       "issue_date",
	"fecha":            "issue_date",
	"category":         "category",
	"categoria":        "category",
	"categoría":        "category",
	"subcategory":      "subcategory",
	"subcategoria":     "subcategory",
	"subcategoría":     "subcategory",
	"source":           "source",
	"fuente":           "source",
	"keywords":         "keywords",
	"palabras_clave":   "keywords",
	"body":             "body",
	"content":          "body",
	"contenido":        "body",
	"texto":            "body",
}

var catalogDateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"2/1/2006",
	"01-02-06",
	time.RFC3339,
}

// catalogRow is one spreadsheet row keyed by field name. Empty fields are
// filled from the body text later.
type catalogRow struct {
	line   int
	fields map[string]string
}

// readCatalog reads every sheet of a workbook. The first non-empty row of a
// sheet is its header; rows without a body are skipped.
func readCatalog(path string) ([]catalogRow, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	var out []catalogRow
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
		}
		var header []string
		for i, row := range rows {
			if header == nil {
				if isBlankRow(row) {
					continue
				}
				header = mapHeader(row)
				continue
			}
			fields := make(map[string]string, len(header))
			for col, value := range row {
				if col >= len(header) || header[col] == "" {
					continue
				}
				if value = strings.TrimSpace(value); value != "" {
					fields[header[col]] = value
				}
			}
			if fields["body"] == "" {
				continue
			}
			out = append(out, catalogRow{line: i + 1, fields: fields})
		}
	}
	return out, nil
}

func mapHeader(row []string) []string {
	header := make([]string, len(row))
	for i, cell := range row {
		key := strings.ToLower(strings.TrimSpace(cell))
		key = strings.ReplaceAll(key, " ", "_")
		header[i] = catalogColumns[key]
	}
	return header
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func parseCatalogDate(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range catalogDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, nil
		}
	}
	return nil, domain.WrapError(domain.ErrInvalidInput, "parse issue date", fmt.Errorf("unrecognized date %q", raw))
}
