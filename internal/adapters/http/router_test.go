package httpadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kirillkom/rebuttal-assistant/internal/core/domain"
)

type fakeEvidenceIngestor struct {
	doc *domain.EvidenceDocument
	err error
}

func (f *fakeEvidenceIngestor) Upload(_ context.Context, filename, mimeType string, _ io.Reader) (*domain.EvidenceDocument, error) {
	if f.err != nil {
		return nil, f.err
	}
	doc := *f.doc
	doc.Filename = filename
	doc.MimeType = mimeType
	return &doc, nil
}

type fakeDocsRepo struct {
	doc *domain.EvidenceDocument
}

func (f *fakeDocsRepo) Create(context.Context, *domain.EvidenceDocument) error { return nil }

func (f *fakeDocsRepo) GetByID(_ context.Context, id string) (*domain.EvidenceDocument, error) {
	if f.doc == nil || f.doc.ID != id {
		return nil, domain.WrapError(domain.ErrDocumentNotFound, "get evidence document", io.EOF)
	}
	return f.doc, nil
}

func (f *fakeDocsRepo) UpdateStatus(context.Context, string, domain.DocumentStatus, string) error {
	return nil
}

func (f *fakeDocsRepo) SaveChunkCount(context.Context, string, int) error { return nil }

type fakeReportIngestor struct {
	run        *domain.RebuttalRun
	analyzeErr error
	requested  []string
}

func (f *fakeReportIngestor) Upload(_ context.Context, filename string, _ io.Reader) (*domain.RebuttalRun, error) {
	run := *f.run
	run.Filename = filename
	return &run, nil
}

func (f *fakeReportIngestor) RequestAnalysis(_ context.Context, id string) error {
	if f.analyzeErr != nil {
		return f.analyzeErr
	}
	f.requested = append(f.requested, id)
	return nil
}

type fakeRunReader struct {
	run *domain.RebuttalRun
}

func (f *fakeRunReader) GetByID(_ context.Context, id string) (*domain.RebuttalRun, error) {
	if f.run == nil || f.run.ID != id {
		return nil, domain.WrapError(domain.ErrRunNotFound, "get run", io.EOF)
	}
	return f.run, nil
}

func multipartBody(t *testing.T, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write([]byte(content)); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return body, writer.FormDataContentType()
}

func newTestRouter(options Options) (*Router, *fakeReportIngestor) {
	reports := &fakeReportIngestor{
		run: &domain.RebuttalRun{ID: "run-1", Status: domain.RunUploaded},
	}
	router := NewRouter(
		&fakeEvidenceIngestor{doc: &domain.EvidenceDocument{ID: "doc-1", Status: domain.StatusUploaded}},
		&fakeDocsRepo{doc: &domain.EvidenceDocument{ID: "doc-1", Status: domain.StatusIndexed}},
		reports,
		&fakeRunReader{run: &domain.RebuttalRun{
			ID:     "run-1",
			Status: domain.RunReady,
			Report: &domain.Report{ReportID: "run-1", Markdown: "# Report"},
		}},
		options,
	)
	return router, reports
}

func TestUploadEvidenceAccepted(t *testing.T) {
	var recorded []string
	router, _ := newTestRouter(Options{
		RecordUpload: func(kind string) { recorded = append(recorded, kind) },
	})
	handler := router.Handler()

	body, contentType := multipartBody(t, "audit.pdf", "pdf bytes")
	req := httptest.NewRequest(http.MethodPost, "/v1/evidence/documents", body)
	req.Header.Set("Content-Type", contentType)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", res.Code, res.Body.String())
	}
	var doc domain.EvidenceDocument
	if err := json.Unmarshal(res.Body.Bytes(), &doc); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if doc.Filename != "audit.pdf" {
		t.Fatalf("unexpected filename %q", doc.Filename)
	}
	if len(recorded) != 1 || recorded[0] != "evidence" {
		t.Fatalf("unexpected upload records: %v", recorded)
	}
}

func TestUploadEvidenceRequiresFile(t *testing.T) {
	router, _ := newTestRouter(Options{})
	handler := router.Handler()

	req := httptest.NewRequest(http.MethodPost, "/v1/evidence/documents", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestGetEvidenceNotFound(t *testing.T) {
	router, _ := newTestRouter(Options{})
	handler := router.Handler()

	req := httptest.NewRequest(http.MethodGet, "/v1/evidence/documents/missing", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", res.Code)
	}
}

func TestUploadReportAccepted(t *testing.T) {
	router, _ := newTestRouter(Options{})
	handler := router.Handler()

	body, contentType := multipartBody(t, "short_report.pdf", "pdf bytes")
	req := httptest.NewRequest(http.MethodPost, "/v1/reports", body)
	req.Header.Set("Content-Type", contentType)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", res.Code, res.Body.String())
	}
}

func TestRequestAnalysisQueuesRun(t *testing.T) {
	router, reports := newTestRouter(Options{})
	handler := router.Handler()

	req := httptest.NewRequest(http.MethodPost, "/v1/reports/run-1/analyze", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", res.Code, res.Body.String())
	}
	if len(reports.requested) != 1 || reports.requested[0] != "run-1" {
		t.Fatalf("unexpected analysis requests: %v", reports.requested)
	}
}

func TestRequestAnalysisMissingRun(t *testing.T) {
	router, reports := newTestRouter(Options{})
	reports.analyzeErr = domain.WrapError(domain.ErrRunNotFound, "get run", io.EOF)
	handler := router.Handler()

	req := httptest.NewRequest(http.MethodPost, "/v1/reports/missing/analyze", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", res.Code)
	}
}

func TestGetRunReturnsReport(t *testing.T) {
	router, _ := newTestRouter(Options{})
	handler := router.Handler()

	req := httptest.NewRequest(http.MethodGet, "/v1/reports/run-1", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	var run domain.RebuttalRun
	if err := json.Unmarshal(res.Body.Bytes(), &run); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if run.Status != domain.RunReady || run.Report == nil {
		t.Fatalf("unexpected run: %#v", run)
	}
}

func TestRateLimitReturns429(t *testing.T) {
	router, _ := newTestRouter(Options{RateLimitRPS: 1, RateLimitBurst: 1})
	handler := router.Handler()

	req1 := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	res1 := httptest.NewRecorder()
	handler.ServeHTTP(res1, req1)
	if res1.Code != http.StatusOK {
		t.Fatalf("first request expected 200, got %d", res1.Code)
	}

	req2 := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	res2 := httptest.NewRecorder()
	handler.ServeHTTP(res2, req2)
	if res2.Code != http.StatusTooManyRequests {
		t.Fatalf("second request expected 429, got %d", res2.Code)
	}
	if res2.Header().Get("Retry-After") == "" {
		t.Fatal("expected Retry-After header on 429 response")
	}
}

func TestBackpressureReturns503WhenSaturated(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan int, 1)

	base := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		started <- struct{}{}
		<-release
		w.WriteHeader(http.StatusNoContent)
	})
	handler := backpressureMiddleware(base, 1, 20*time.Millisecond)

	go func() {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		res := httptest.NewRecorder()
		handler.ServeHTTP(res, req)
		done <- res.Code
	}()

	<-started

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 for saturated gate, got %d", res.Code)
	}

	close(release)
	if code := <-done; code != http.StatusNoContent {
		t.Fatalf("expected first request to finish with 204, got %d", code)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	router, _ := newTestRouter(Options{})
	handler := router.Handler()

	req := httptest.NewRequest(http.MethodDelete, "/v1/reports", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", res.Code)
	}
}
