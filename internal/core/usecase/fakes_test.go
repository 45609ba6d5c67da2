package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/kirillkom/labor-law-assistant/internal/core/domain"
	"github.com/kirillkom/labor-law-assistant/internal/core/ports"
)

type fakeDocs struct {
	mu        sync.Mutex
	docs      []domain.LegalDocument
	latest    time.Time
	listErr   error
	listCalls int
	// gate, when set, blocks ListDocuments until closed; entered is signalled first.
	gate    chan struct{}
	entered chan struct{}
}

func newFakeDocs(docs ...domain.LegalDocument) *fakeDocs {
	return &fakeDocs{
		docs:   docs,
		latest: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (f *fakeDocs) ListDocuments(context.Context) ([]domain.LegalDocument, error) {
	f.mu.Lock()
	f.listCalls++
	gate, entered := f.gate, f.entered
	f.mu.Unlock()

	if entered != nil {
		entered <- struct{}{}
	}
	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]domain.LegalDocument, len(f.docs))
	copy(out, f.docs)
	return out, nil
}

func (f *fakeDocs) LatestUpdate(context.Context) (time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.latest, nil
}

func (f *fakeDocs) CountDocuments(context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.docs), nil
}

func (f *fakeDocs) ListIDsByFilter(_ context.Context, filter domain.DocumentFilter) ([]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []int64
	for _, doc := range f.docs {
		if filter.Type != "" && doc.Type != filter.Type {
			continue
		}
		if filter.Category != "" && doc.Category != filter.Category {
			continue
		}
		ids = append(ids, doc.ID)
	}
	return ids, nil
}

func (f *fakeDocs) add(doc domain.LegalDocument) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.docs = append(f.docs, doc)
}

func (f *fakeDocs) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listCalls
}

type memoryCacheStore struct {
	mu      sync.Mutex
	entries map[string]domain.CacheEntry
	puts    int
	getErr  error
}

func newMemoryCacheStore() *memoryCacheStore {
	return &memoryCacheStore{entries: make(map[string]domain.CacheEntry)}
}

func (s *memoryCacheStore) Get(_ context.Context, key string) (*domain.CacheEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	entry, ok := s.entries[key]
	if !ok {
		return nil, nil
	}
	return &entry, nil
}

func (s *memoryCacheStore) Put(_ context.Context, entry domain.CacheEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.puts++
	s.entries[entry.QueryHash] = entry
	return nil
}

func (s *memoryCacheStore) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var deleted int64
	for key, entry := range s.entries {
		if !entry.CreatedAt.After(cutoff) {
			delete(s.entries, key)
			deleted++
		}
	}
	return deleted, nil
}

type fakeLLM struct {
	mu       sync.Mutex
	response string
	err      error
	requests []ports.CompletionRequest
}

func (f *fakeLLM) Complete(_ context.Context, req ports.CompletionRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func (f *fakeLLM) lastRequest() ports.CompletionRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.requests) == 0 {
		return ports.CompletionRequest{}
	}
	return f.requests[len(f.requests)-1]
}

func laborCorpus() []domain.LegalDocument {
	return []domain.LegalDocument{
		{
			ID:              1,
			Title:           "Licencia de maternidad",
			Type:            domain.TypeLey,
			ReferenceNumber: "1822",
			Category:        "laboral",
			Body:            "La trabajadora en estado de embarazo tiene derecho a una licencia de maternidad de dieciocho semanas. La licencia de maternidad es remunerada.",
		},
		{
			ID:              2,
			Title:           "Salario mínimo",
			Type:            domain.TypeDecreto,
			ReferenceNumber: "2613",
			Category:        "laboral",
			Body:            "El salario mínimo mensual vigente se fija cada año por decreto del gobierno nacional.",
		},
		{
			ID:              3,
			Title:           "Vacaciones",
			Type:            domain.TypeSentencia,
			ReferenceNumber: "C-019",
			Category:        "laboral",
			Body:            "Los trabajadores tienen derecho a quince días hábiles de vacaciones remuneradas por cada año de servicio.",
		},
		{
			ID:              4,
			Title:           "Licencia de paternidad",
			Type:            domain.TypeLey,
			ReferenceNumber: "2114",
			Category:        "familia",
			Body:            "El padre tiene derecho a una licencia de paternidad de dos semanas remuneradas.",
		},
	}
}
