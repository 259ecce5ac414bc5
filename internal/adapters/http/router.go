package httpadapter

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/rebuttal-assistant/internal/core/ports"
)

type Router struct {
	evidence ports.EvidenceIngestor
	docs     ports.EvidenceDocumentRepository
	reports  ports.ReportIngestor
	runs     ports.RunReader
	options  Options
}

type Options struct {
	// RateLimitRPS of zero disables request rate limiting.
	RateLimitRPS   float64
	RateLimitBurst int

	// MaxInFlight of zero disables backpressure shedding.
	MaxInFlight  int
	QueueTimeout time.Duration

	// RecordUpload is called with "evidence" or "report" on accepted uploads.
	RecordUpload func(kind string)
}

func NewRouter(
	evidence ports.EvidenceIngestor,
	docs ports.EvidenceDocumentRepository,
	reports ports.ReportIngestor,
	runs ports.RunReader,
	options Options,
) *Router {
	if options.QueueTimeout <= 0 {
		options.QueueTimeout = 2 * time.Second
	}
	return &Router{
		evidence: evidence,
		docs:     docs,
		reports:  reports,
		runs:     runs,
		options:  options,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/evidence/documents", rt.uploadEvidence)
	mux.HandleFunc("/v1/evidence/documents/", rt.getEvidenceByID)
	mux.HandleFunc("/v1/reports", rt.uploadReport)
	mux.HandleFunc("/v1/reports/", rt.reportSubroutes)

	var handler http.Handler = mux
	handler = backpressureMiddleware(handler, rt.options.MaxInFlight, rt.options.QueueTimeout)
	handler = rateLimitMiddleware(handler, rt.options.RateLimitRPS, rt.options.RateLimitBurst)
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) uploadEvidence(w http.ResponseWriter, r *http.Request) {
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

	doc, err := rt.evidence.Upload(
		r.Context(),
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		file,
	)
	if err != nil {
		writeError(w, err)
		return
	}

	rt.recordUpload("evidence")
	writeJSON(w, http.StatusAccepted, doc)
}

func (rt *Router) getEvidenceByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/v1/evidence/documents/")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "document id is required"})
		return
	}

	doc, err := rt.docs.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (rt *Router) uploadReport(w http.ResponseWriter, r *http.Request) {
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

	run, err := rt.reports.Upload(r.Context(), fileHeader.Filename, file)
	if err != nil {
		writeError(w, err)
		return
	}

	rt.recordUpload("report")
	writeJSON(w, http.StatusAccepted, run)
}

func (rt *Router) reportSubroutes(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/reports/")
	if rest == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "report id is required"})
		return
	}

	if id, ok := strings.CutSuffix(rest, "/analyze"); ok {
		rt.requestAnalysis(w, r, id)
		return
	}
	rt.getRunByID(w, r, rest)
}

func (rt *Router) requestAnalysis(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "report id is required"})
		return
	}

	if err := rt.reports.RequestAnalysis(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"report_id": id, "status": "queued"})
}

func (rt *Router) getRunByID(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	run, err := rt.runs.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (rt *Router) recordUpload(kind string) {
	if rt.options.RecordUpload != nil {
		rt.options.RecordUpload(kind)
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
