package httpadapter

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/okomarov/mrag-assistant/internal/core/ports"
	"github.com/okomarov/mrag-assistant/internal/observability/metrics"
)

const serviceName = "api"

// Router exposes the question-answering and ingestion surface:
//
//	POST /v1/ask            one question-answering turn
//	POST /v1/documents      multipart upload, async processing
//	GET  /v1/documents/{id} ingestion status
//	POST /v1/query/expand   query expansion preview
type Router struct {
	ask      ports.QuestionAnswerer
	ingest   ports.DocumentIngestor
	reader   ports.DocumentReader
	expander ports.QueryExpander
	metrics  *metrics.HTTPServerMetrics

	rateLimitRPS   float64
	rateLimitBurst int
	maxConcurrent  int
}

type RouterOptions struct {
	RateLimitRPS   float64
	RateLimitBurst int
	MaxConcurrent  int
}

func NewRouter(
	ask ports.QuestionAnswerer,
	ingest ports.DocumentIngestor,
	reader ports.DocumentReader,
	expander ports.QueryExpander,
	m *metrics.HTTPServerMetrics,
	options RouterOptions,
) *Router {
	return &Router{
		ask:            ask,
		ingest:         ingest,
		reader:         reader,
		expander:       expander,
		metrics:        m,
		rateLimitRPS:   options.RateLimitRPS,
		rateLimitBurst: options.RateLimitBurst,
		maxConcurrent:  options.MaxConcurrent,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/ask", rt.askQuestion)
	mux.HandleFunc("/v1/documents", rt.uploadDocument)
	mux.HandleFunc("/v1/documents/", rt.getDocumentByID)
	mux.HandleFunc("/v1/query/expand", rt.expandQuery)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	var handler http.Handler = mux
	if rt.maxConcurrent > 0 {
		handler = backpressureMiddleware(handler, rt.maxConcurrent, 100*time.Millisecond)
	}
	if rt.rateLimitRPS > 0 {
		handler = rateLimitMiddleware(handler, rt.rateLimitRPS, rt.rateLimitBurst)
	}
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(serviceName, handler)
	}
	return requestIDMiddleware(accessLogMiddleware(handler))
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) askQuestion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req struct {
		Question  string `json:"question"`
		SessionID string `json:"session_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	start := time.Now()
	result, err := rt.ask.Ask(r.Context(), req.Question, req.SessionID)
	if err != nil {
		rt.recordAsk("error", start)
		writeError(w, err)
		return
	}
	rt.recordAsk("ok", start)

	writeJSON(w, http.StatusOK, map[string]any{
		"answer":         result.Answer,
		"context_texts":  result.ContextTexts,
		"context_images": result.ContextImages,
	})
}

func (rt *Router) uploadDocument(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'file' is required"})
		return
	}
	defer file.Close()

	var images []string
	if r.MultipartForm != nil {
		for _, img := range r.MultipartForm.Value["images"] {
			if img = strings.TrimSpace(img); img != "" {
				images = append(images, img)
			}
		}
	}

	doc, err := rt.ingest.Upload(
		r.Context(),
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		file,
		images,
	)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, doc)
}

func (rt *Router) getDocumentByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/v1/documents/")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "document id is required"})
		return
	}

	doc, err := rt.reader.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (rt *Router) expandQuery(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req struct {
		Question string `json:"question"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "question is required"})
		return
	}

	queries, err := rt.expander.Expand(r.Context(), req.Question)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"queries": queries})
}

func (rt *Router) recordAsk(outcome string, start time.Time) {
	if rt.metrics != nil {
		rt.metrics.RecordAsk(serviceName, outcome, time.Since(start))
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
}
