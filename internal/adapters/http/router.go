package httpadapter

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/labor-law-assistant/internal/config"
	"github.com/kirillkom/labor-law-assistant/internal/core/domain"
	"github.com/kirillkom/labor-law-assistant/internal/core/ports"
	"github.com/kirillkom/labor-law-assistant/internal/observability/metrics"
)

const (
	serviceName     = "api"
	maxRequestBytes = 1 << 20
	queueWait       = 250 * time.Millisecond
)

type Router struct {
	cfg       config.Config
	retriever ports.Retriever
	assistant ports.LegalAssistant
	index     ports.IndexAdmin
	metrics   *metrics.HTTPServerMetrics
	logger    *slog.Logger
}

// NewRouter wires the HTTP surface. httpMetrics may be nil, in which case
// /metrics is not served.
func NewRouter(
	cfg config.Config,
	retriever ports.Retriever,
	assistant ports.LegalAssistant,
	index ports.IndexAdmin,
	httpMetrics *metrics.HTTPServerMetrics,
	logger *slog.Logger,
) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		cfg:       cfg,
		retriever: retriever,
		assistant: assistant,
		index:     index,
		metrics:   httpMetrics,
		logger:    logger,
	}
}

func (rt *Router) Handler() http.Handler {
	api := http.NewServeMux()
	api.HandleFunc("/v1/ask", rt.ask)
	api.HandleFunc("/v1/search", rt.search)
	api.HandleFunc("/v1/index/status", rt.indexStatus)
	api.HandleFunc("/v1/index/rebuild", rt.indexRebuild)

	var guarded http.Handler = api
	guarded = backpressureMiddleware(guarded, rt.cfg.APIMaxInFlight, queueWait, rt.onReject)
	guarded = rateLimitMiddleware(guarded, rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst, rt.onReject)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}
	mux.Handle("/", guarded)

	var handler http.Handler = mux
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(serviceName, handler)
	}
	handler = accessLogMiddleware(rt.logger, handler)
	return requestIDMiddleware(handler)
}

func (rt *Router) onReject(reason string) {
	if rt.metrics != nil {
		rt.metrics.RecordRejection(serviceName, reason)
	}
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) ask(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req struct {
		Question string `json:"question"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "question is required"})
		return
	}

	writeJSON(w, http.StatusOK, rt.assistant.Ask(r.Context(), req.Question))
}

type searchResponse struct {
	Query            string                   `json:"query"`
	Cached           bool                     `json:"cached"`
	Results          []domain.RetrievalResult `json:"results"`
	ProcessingTimeMS float64                  `json:"processing_time_ms"`
	DocumentCount    int                      `json:"document_count"`
	Timestamp        time.Time                `json:"timestamp"`
}

func (rt *Router) search(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	start := time.Now()

	var req struct {
		Query        string `json:"query"`
		DocumentType string `json:"document_type"`
		Category     string `json:"category"`
		Limit        int    `json:"limit"`
		ForceReindex bool   `json:"force_reindex"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "query is required"})
		return
	}

	query := domain.SearchQuery{Text: req.Query, Category: req.Category, Limit: req.Limit}
	if req.DocumentType != "" {
		docType, err := domain.ParseDocumentType(req.DocumentType)
		if err != nil {
			writeError(w, err)
			return
		}
		query.Type = docType
	}

	if req.ForceReindex {
		// A build already in flight satisfies the request.
		if _, err := rt.index.Rebuild(r.Context()); err != nil && !errors.Is(err, domain.ErrIndexBuilding) {
			rt.logger.Warn("force_reindex_failed", "request_id", requestIDFromContext(r.Context()), "error", err)
		}
	}

	results, err := rt.retriever.Search(r.Context(), query)
	if err != nil {
		writeError(w, err)
		return
	}
	if results == nil {
		results = []domain.RetrievalResult{}
	}

	writeJSON(w, http.StatusOK, searchResponse{
		Query:            req.Query,
		Cached:           len(results) > 0 && results[0].FromCache,
		Results:          results,
		ProcessingTimeMS: float64(time.Since(start).Microseconds()) / 1000.0,
		DocumentCount:    rt.index.Status().DocumentCount,
		Timestamp:        time.Now().UTC(),
	})
}

func (rt *Router) indexStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	writeJSON(w, http.StatusOK, rt.index.Status())
}

func (rt *Router) indexRebuild(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	status, err := rt.index.Rebuild(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, maxRequestBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return domain.WrapError(domain.ErrInvalidInput, "decode request", errors.New("empty body"))
		}
		return domain.WrapError(domain.ErrInvalidInput, "decode request", errors.New("invalid json"))
	}
	return nil
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
