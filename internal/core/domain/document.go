package domain

import (
	"fmt"
	"strings"
	"time"
)

type DocumentType string

const (
	TypeSentencia  DocumentType = "sentencia"
	TypeLey        DocumentType = "ley"
	TypeDecreto    DocumentType = "decreto"
	TypeResolucion DocumentType = "resolucion"
	TypeCircular   DocumentType = "circular"
	TypeConcepto   DocumentType = "concepto"
	TypeOtro       DocumentType = "otro"
)

var documentTypes = []DocumentType{
	TypeSentencia,
	TypeLey,
	TypeDecreto,
	TypeResolucion,
	TypeCircular,
	TypeConcepto,
	TypeOtro,
}

func DocumentTypes() []DocumentType {
	out := make([]DocumentType, len(documentTypes))
	copy(out, documentTypes)
	return out
}

// ParseDocumentType accepts any casing and the accented "resolución" spelling.
func ParseDocumentType(raw string) (DocumentType, error) {
	value := strings.ToLower(strings.TrimSpace(raw))
	value = strings.ReplaceAll(value, "ó", "o")
	for _, t := range documentTypes {
		if string(t) == value {
			return t, nil
		}
	}
	return "", WrapError(ErrInvalidInput, "parse document type", fmt.Errorf("unknown document type %q", raw))
}

// LegalDocument is the persisted unit of retrieval. The core never writes it.
type LegalDocument struct {
	ID              int64        `json:"id"`
	Title           string       `json:"title"`
	Type            DocumentType `json:"document_type"`
	ReferenceNumber string       `json:"reference_number,omitempty"`
	IssueDate       *time.Time   `json:"issue_date,omitempty"`
	Source          string       `json:"source,omitempty"`
	Body            string       `json:"content"`
	Keywords        string       `json:"keywords,omitempty"`
	Category        string       `json:"category,omitempty"`
	Subcategory     string       `json:"subcategory,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

type DocumentFilter struct {
	Type     DocumentType
	Category string
}

func (f DocumentFilter) IsZero() bool {
	return f.Type == "" && strings.TrimSpace(f.Category) == ""
}

// DocumentsChanged is broadcast after the loader writes documents.
type DocumentsChanged struct {
	Count      int       `json:"count"`
	Source     string    `json:"source,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
