package httpadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/okomarov/mrag-assistant/internal/core/domain"
)

type fakeAnswerer struct {
	result *domain.AskResult
	err    error

	gotQuestion  string
	gotSessionID string
}

func (f *fakeAnswerer) Ask(ctx context.Context, question, sessionID string) (*domain.AskResult, error) {
	f.gotQuestion = question
	f.gotSessionID = sessionID
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeIngestor struct {
	doc       *domain.Document
	err       error
	gotImages []string
}

func (f *fakeIngestor) Upload(ctx context.Context, filename, mimeType string, body io.Reader, images []string) (*domain.Document, error) {
	f.gotImages = images
	if f.err != nil {
		return nil, f.err
	}
	return f.doc, nil
}

type fakeReader struct {
	doc *domain.Document
	err error
}

func (f *fakeReader) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.doc, nil
}

type fakeExpander struct {
	queries []string
	err     error
}

func (f *fakeExpander) Expand(ctx context.Context, question string) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.queries, nil
}

func newTestRouter(ask *fakeAnswerer, ingest *fakeIngestor, reader *fakeReader, expander *fakeExpander) http.Handler {
	if ask == nil {
		ask = &fakeAnswerer{result: &domain.AskResult{Answer: "ok"}}
	}
	if ingest == nil {
		ingest = &fakeIngestor{doc: &domain.Document{ID: "doc-1"}}
	}
	if reader == nil {
		reader = &fakeReader{doc: &domain.Document{ID: "doc-1"}}
	}
	if expander == nil {
		expander = &fakeExpander{queries: []string{"q"}}
	}
	return NewRouter(ask, ingest, reader, expander, nil, RouterOptions{}).Handler()
}

func TestAskReturnsAnswerWithContext(t *testing.T) {
	ask := &fakeAnswerer{result: &domain.AskResult{
		Answer: "revenue grew 12%",
		ContextTexts: []domain.ContextText{
			{PageNumber: 3, Text: "revenue table", Score: 0.91},
		},
		ContextImages: []string{"aW1n"},
	}}
	handler := newTestRouter(ask, nil, nil, nil)

	body := `{"question":"how did revenue do?","session_id":"s-1"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/ask", strings.NewReader(body))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}
	if ask.gotQuestion != "how did revenue do?" || ask.gotSessionID != "s-1" {
		t.Fatalf("unexpected usecase args: %q %q", ask.gotQuestion, ask.gotSessionID)
	}

	var decoded struct {
		Answer       string `json:"answer"`
		ContextTexts []struct {
			PageNo int     `json:"page_no"`
			Text   string  `json:"text"`
			Score  float64 `json:"score"`
		} `json:"context_texts"`
		ContextImages []string `json:"context_images"`
	}
	if err := json.Unmarshal(res.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if decoded.Answer != "revenue grew 12%" {
		t.Fatalf("unexpected answer: %q", decoded.Answer)
	}
	if len(decoded.ContextTexts) != 1 || decoded.ContextTexts[0].PageNo != 3 {
		t.Fatalf("unexpected context texts: %+v", decoded.ContextTexts)
	}
	if len(decoded.ContextImages) != 1 {
		t.Fatalf("unexpected context images: %+v", decoded.ContextImages)
	}
}

func TestAskMapsInvalidInputTo400(t *testing.T) {
	ask := &fakeAnswerer{err: domain.WrapError(domain.ErrInvalidInput, "ask", errors.New("question is required"))}
	handler := newTestRouter(ask, nil, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/ask", strings.NewReader(`{"session_id":"s-1"}`))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestAskMapsGenerationUnavailableTo503(t *testing.T) {
	ask := &fakeAnswerer{err: domain.WrapError(domain.ErrGenerationUnavailable, "generate answer", errors.New("model down"))}
	handler := newTestRouter(ask, nil, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/ask", strings.NewReader(`{"question":"q","session_id":"s"}`))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", res.Code)
	}
}

func TestUploadDocumentAcceptsFileAndImages(t *testing.T) {
	ingest := &fakeIngestor{doc: &domain.Document{ID: "doc-1", Status: domain.StatusUploaded}}
	handler := newTestRouter(nil, ingest, nil, nil)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "report.pdf")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	fmt.Fprint(fw, "%PDF-1.4 fake")
	_ = mw.WriteField("images", "aW1hZ2Ux")
	_ = mw.WriteField("images", "aW1hZ2Uy")
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/v1/documents", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", res.Code, res.Body.String())
	}
	if len(ingest.gotImages) != 2 {
		t.Fatalf("expected 2 images forwarded, got %d", len(ingest.gotImages))
	}
}

func TestUploadDocumentRequiresFile(t *testing.T) {
	handler := newTestRouter(nil, nil, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/documents", strings.NewReader("not multipart"))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestGetDocumentMapsNotFoundTo404(t *testing.T) {
	reader := &fakeReader{err: domain.WrapError(domain.ErrDocumentNotFound, "get document", errors.New("id missing"))}
	handler := newTestRouter(nil, nil, reader, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/documents/missing", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", res.Code)
	}
}

func TestExpandQueryReturnsQueries(t *testing.T) {
	expander := &fakeExpander{queries: []string{"a", "b", "c"}}
	handler := newTestRouter(nil, nil, nil, expander)

	req := httptest.NewRequest(http.MethodPost, "/v1/query/expand", strings.NewReader(`{"question":"original"}`))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	var decoded struct {
		Queries []string `json:"queries"`
	}
	if err := json.Unmarshal(res.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(decoded.Queries) != 3 {
		t.Fatalf("expected 3 queries, got %v", decoded.Queries)
	}
}

func TestRequestIDHeaderIsEchoed(t *testing.T) {
	handler := newTestRouter(nil, nil, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, "fixed-id")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if got := res.Header().Get(requestIDHeader); got != "fixed-id" {
		t.Fatalf("expected request id echoed, got %q", got)
	}
}
