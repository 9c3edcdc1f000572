package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nicholasgasior/markitdown-api/internal/markitdown"
	"github.com/nicholasgasior/markitdown-api/internal/service"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// recordingBackend counts conversions and returns a canned result.
type recordingBackend struct {
	mu           sync.Mutex
	calls        int
	lastFilename string
	lastFormat   service.Format
	result       *service.Result
	err          error
}

func (b *recordingBackend) Convert(data []byte, format service.Format, filename string) (*service.Result, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls++
	b.lastFilename = filename
	b.lastFormat = format
	if b.err != nil {
		return nil, b.err
	}
	if b.result != nil {
		return b.result, nil
	}
	return &service.Result{Markdown: "converted"}, nil
}

func (b *recordingBackend) callCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls
}

func (b *recordingBackend) setErr(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.err = err
}

// blockingBackend holds every conversion until released.
type blockingBackend struct {
	started chan struct{}
	release chan struct{}
}

func (b *blockingBackend) Convert(data []byte, format service.Format, filename string) (*service.Result, error) {
	b.started <- struct{}{}
	<-b.release
	return &service.Result{Markdown: "done"}, nil
}

type routerOptions struct {
	backend service.Backend
	workers int
	queue   int
	timeout time.Duration
	maxSize int64
}

func newTestRouter(t *testing.T, opts routerOptions) http.Handler {
	t.Helper()

	if opts.backend == nil {
		opts.backend = &recordingBackend{}
	}
	if opts.workers == 0 {
		opts.workers = 2
	}
	if opts.timeout == 0 {
		opts.timeout = 5 * time.Second
	}
	if opts.maxSize == 0 {
		opts.maxSize = 1 << 20
	}

	logger := discardLogger()
	orch := service.NewOrchestrator(opts.backend, opts.workers, opts.queue, opts.timeout, logger)
	t.Cleanup(orch.Close)

	convert := NewConvertHandler(orch, opts.maxSize, logger)
	return NewRouter(convert, NewHealthHandler(), []string{"*"}, logger)
}

// multipartUpload builds a multipart body with a single file field.
func multipartUpload(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fw.Write(content); err != nil {
		t.Fatal(err)
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf, mw.FormDataContentType()
}

func postFile(t *testing.T, router http.Handler, path, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()

	body, contentType := multipartUpload(t, "file", filename, content)
	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", contentType)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()

	var resp ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error response: %v\nbody: %s", err, rr.Body.String())
	}
	if resp.Success {
		t.Errorf("error response has success=true: %s", rr.Body.String())
	}
	return resp
}

func TestParseHTMLEndToEnd(t *testing.T) {
	// Full stack with the real engine: the upload comes back as the exact
	// wire payload, field by field and byte for byte.
	router := newTestRouter(t, routerOptions{
		backend: service.NewEngineBackend(markitdown.New()),
	})

	content := []byte("<h1>Hi</h1>")
	rr := postFile(t, router, "/parse_html", "page.html", content)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	want := fmt.Sprintf(`{"success":true,"filename":"page.html","markdown_content":"# Hi","title":null,"metadata":{"original_filename":"page.html","file_size":%d,"mime_type":"text/html"}}`, len(content))
	if got := rr.Body.String(); got != want {
		t.Errorf("body mismatch\ngot:  %s\nwant: %s", got, want)
	}
}

func TestParseSuccessWithTitle(t *testing.T) {
	title := "Annual Report"
	backend := &recordingBackend{result: &service.Result{Markdown: "# Annual Report\n\nContents", Title: &title}}
	router := newTestRouter(t, routerOptions{backend: backend})

	rr := postFile(t, router, "/parse_docx", "report.docx", []byte("stub-bytes"))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}

	var resp ConversionResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Success {
		t.Error("success = false")
	}
	if resp.Filename != "report.docx" {
		t.Errorf("filename = %q", resp.Filename)
	}
	if resp.Title == nil || *resp.Title != title {
		t.Errorf("title = %v, want %q", resp.Title, title)
	}
	if resp.Metadata.OriginalFilename != "report.docx" {
		t.Errorf("original_filename = %q", resp.Metadata.OriginalFilename)
	}
	if resp.Metadata.FileSize != int64(len("stub-bytes")) {
		t.Errorf("file_size = %d, want %d", resp.Metadata.FileSize, len("stub-bytes"))
	}
	if resp.Metadata.MIMEType != "application/vnd.openxmlformats-officedocument.wordprocessingml.document" {
		t.Errorf("mime_type = %q", resp.Metadata.MIMEType)
	}
	if backend.lastFormat != service.FormatDocx {
		t.Errorf("backend format = %q, want docx", backend.lastFormat)
	}
}

func TestParseEndpointExtensions(t *testing.T) {
	tests := []struct {
		path     string
		filename string
		mime     string
	}{
		{"/parse_pdf", "doc.pdf", "application/pdf"},
		{"/parse_pdf", "DOC.PDF", "application/pdf"},
		{"/parse_docx", "doc.docx", "application/vnd.openxmlformats-officedocument.wordprocessingml.document"},
		{"/parse_xlsx", "sheet.xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"},
		{"/parse_xlsx", "sheet.xls", "application/vnd.ms-excel"},
		{"/parse_pptx", "deck.pptx", "application/vnd.openxmlformats-officedocument.presentationml.presentation"},
		{"/parse_pptx", "deck.ppt", "application/vnd.ms-powerpoint"},
		{"/parse_html", "page.html", "text/html"},
		{"/parse_html", "page.htm", "text/html"},
	}

	for _, tt := range tests {
		t.Run(tt.path+"/"+tt.filename, func(t *testing.T) {
			backend := &recordingBackend{}
			router := newTestRouter(t, routerOptions{backend: backend})

			rr := postFile(t, router, tt.path, tt.filename, []byte("payload"))

			if rr.Code != http.StatusOK {
				t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
			}
			var resp ConversionResponse
			if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Metadata.MIMEType != tt.mime {
				t.Errorf("mime_type = %q, want %q", resp.Metadata.MIMEType, tt.mime)
			}
			if backend.callCount() != 1 {
				t.Errorf("backend calls = %d, want 1", backend.callCount())
			}
		})
	}
}

func TestParseRejectsWrongExtension(t *testing.T) {
	tests := []struct {
		path     string
		filename string
		expected string
	}{
		{"/parse_pdf", "doc.docx", "pdf"},
		{"/parse_docx", "doc.pdf", "docx"},
		{"/parse_xlsx", "sheet.csv", "xlsx, xls"},
		{"/parse_pptx", "deck.odp", "pptx, ppt"},
		{"/parse_html", "page.txt", "html, htm"},
		{"/parse_pdf", "noextension", "pdf"},
	}

	for _, tt := range tests {
		t.Run(tt.path+"/"+tt.filename, func(t *testing.T) {
			backend := &recordingBackend{}
			router := newTestRouter(t, routerOptions{backend: backend})

			rr := postFile(t, router, tt.path, tt.filename, []byte("payload"))

			if rr.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rr.Code)
			}
			resp := decodeError(t, rr)
			if resp.Error != "UnsupportedFormat" {
				t.Errorf("error = %q, want UnsupportedFormat", resp.Error)
			}
			if want := "Invalid file type. Expected: " + tt.expected; resp.Message != want {
				t.Errorf("message = %q, want %q", resp.Message, want)
			}
			if backend.callCount() != 0 {
				t.Errorf("backend called %d times for rejected upload", backend.callCount())
			}
		})
	}
}

func TestParseRejectsEmptyFile(t *testing.T) {
	backend := &recordingBackend{}
	router := newTestRouter(t, routerOptions{backend: backend})

	rr := postFile(t, router, "/parse_pdf", "empty.pdf", nil)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
	resp := decodeError(t, rr)
	if resp.Error != "EmptyPayload" {
		t.Errorf("error = %q, want EmptyPayload", resp.Error)
	}
	if resp.Message != "Empty file provided" {
		t.Errorf("message = %q", resp.Message)
	}
	if backend.callCount() != 0 {
		t.Errorf("backend called %d times for empty upload", backend.callCount())
	}
}

func TestParseRejectsMissingFileField(t *testing.T) {
	backend := &recordingBackend{}
	router := newTestRouter(t, routerOptions{backend: backend})

	body, contentType := multipartUpload(t, "document", "doc.pdf", []byte("payload"))
	req := httptest.NewRequest(http.MethodPost, "/parse_pdf", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
	resp := decodeError(t, rr)
	if resp.Error != "EmptyPayload" {
		t.Errorf("error = %q, want EmptyPayload", resp.Error)
	}
	if resp.Message != "No file provided" {
		t.Errorf("message = %q", resp.Message)
	}
	if backend.callCount() != 0 {
		t.Errorf("backend called %d times without a file field", backend.callCount())
	}
}

func TestParseRejectsMalformedBody(t *testing.T) {
	backend := &recordingBackend{}
	router := newTestRouter(t, routerOptions{backend: backend})

	req := httptest.NewRequest(http.MethodPost, "/parse_html", strings.NewReader(`{"not":"multipart"}`))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
	if resp := decodeError(t, rr); resp.Error != "EmptyPayload" {
		t.Errorf("error = %q, want EmptyPayload", resp.Error)
	}
	if backend.callCount() != 0 {
		t.Errorf("backend called %d times for malformed body", backend.callCount())
	}
}

func TestParseRejectsOversizedUpload(t *testing.T) {
	backend := &recordingBackend{}
	router := newTestRouter(t, routerOptions{backend: backend, maxSize: 1024})

	big := bytes.Repeat([]byte("x"), 4096)

	t.Run("declared content length", func(t *testing.T) {
		rr := postFile(t, router, "/parse_pdf", "big.pdf", big)

		if rr.Code != http.StatusRequestEntityTooLarge {
			t.Fatalf("status = %d, want 413", rr.Code)
		}
		resp := decodeError(t, rr)
		if resp.Error != "PayloadTooLarge" {
			t.Errorf("error = %q, want PayloadTooLarge", resp.Error)
		}
		if !strings.Contains(resp.Message, "maximum size") {
			t.Errorf("message = %q", resp.Message)
		}
	})

	t.Run("undeclared content length", func(t *testing.T) {
		body, contentType := multipartUpload(t, "file", "big.pdf", big)
		req := httptest.NewRequest(http.MethodPost, "/parse_pdf", body)
		req.Header.Set("Content-Type", contentType)
		req.ContentLength = -1

		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		if rr.Code != http.StatusRequestEntityTooLarge {
			t.Fatalf("status = %d, want 413", rr.Code)
		}
		if resp := decodeError(t, rr); resp.Error != "PayloadTooLarge" {
			t.Errorf("error = %q, want PayloadTooLarge", resp.Error)
		}
	})

	if backend.callCount() != 0 {
		t.Errorf("backend called %d times for oversized uploads", backend.callCount())
	}
}

func TestParseBackendFailure(t *testing.T) {
	backend := &recordingBackend{err: fmt.Errorf("corrupt document structure")}
	router := newTestRouter(t, routerOptions{backend: backend})

	rr := postFile(t, router, "/parse_docx", "bad.docx", []byte("payload"))

	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rr.Code)
	}
	resp := decodeError(t, rr)
	if resp.Error != "ConversionFailed" {
		t.Errorf("error = %q, want ConversionFailed", resp.Error)
	}
	if !strings.Contains(resp.Message, "corrupt document structure") {
		t.Errorf("message = %q, want backend message preserved", resp.Message)
	}

	// The next valid request succeeds on the same pool
	backend.setErr(nil)
	rr = postFile(t, router, "/parse_docx", "good.docx", []byte("payload"))
	if rr.Code != http.StatusOK {
		t.Errorf("follow-up status = %d, body = %s", rr.Code, rr.Body.String())
	}
}

func TestParseTimeout(t *testing.T) {
	backend := &blockingBackend{
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	router := newTestRouter(t, routerOptions{backend: backend, workers: 1, timeout: 30 * time.Millisecond})
	defer close(backend.release)

	rr := postFile(t, router, "/parse_pdf", "slow.pdf", []byte("payload"))

	if rr.Code != http.StatusGatewayTimeout {
		t.Fatalf("status = %d, want 504", rr.Code)
	}
	resp := decodeError(t, rr)
	if resp.Error != "ConversionTimeout" {
		t.Errorf("error = %q, want ConversionTimeout", resp.Error)
	}
}

func TestParseServiceBusy(t *testing.T) {
	backend := &blockingBackend{
		started: make(chan struct{}, 2),
		release: make(chan struct{}),
	}
	router := newTestRouter(t, routerOptions{backend: backend, workers: 1})

	firstDone := make(chan int, 1)
	go func() {
		rr := postFile(t, router, "/parse_html", "first.html", []byte("<p>1</p>"))
		firstDone <- rr.Code
	}()

	<-backend.started

	rr := postFile(t, router, "/parse_html", "second.html", []byte("<p>2</p>"))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rr.Code)
	}
	resp := decodeError(t, rr)
	if resp.Error != "ServiceBusy" {
		t.Errorf("error = %q, want ServiceBusy", resp.Error)
	}

	close(backend.release)
	if code := <-firstDone; code != http.StatusOK {
		t.Errorf("first upload status = %d, want 200", code)
	}
}

func TestParseConcurrentRequestsIsolated(t *testing.T) {
	backend := &recordingBackend{}
	router := newTestRouter(t, routerOptions{backend: backend, workers: 3, queue: 8})

	const n = 6
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()

			name := fmt.Sprintf("doc%d.html", i)
			content := bytes.Repeat([]byte("x"), 10+i)
			rr := postFile(t, router, "/parse_html", name, content)

			if rr.Code != http.StatusOK {
				t.Errorf("%s: status = %d, body = %s", name, rr.Code, rr.Body.String())
				return
			}
			var resp ConversionResponse
			if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
				t.Errorf("%s: decode: %v", name, err)
				return
			}
			if resp.Filename != name || resp.Metadata.OriginalFilename != name {
				t.Errorf("%s: echoed filename %q / %q", name, resp.Filename, resp.Metadata.OriginalFilename)
			}
			if resp.Metadata.FileSize != int64(len(content)) {
				t.Errorf("%s: file_size = %d, want %d", name, resp.Metadata.FileSize, len(content))
			}
		}(i)
	}
	wg.Wait()

	if backend.callCount() != n {
		t.Errorf("backend calls = %d, want %d", backend.callCount(), n)
	}
}

func TestParseSanitizesFilename(t *testing.T) {
	backend := &recordingBackend{}
	router := newTestRouter(t, routerOptions{backend: backend})

	rr := postFile(t, router, "/parse_html", "../../etc/passwd.html", []byte("<p>x</p>"))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	var resp ConversionResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Filename != "passwd.html" {
		t.Errorf("filename = %q, want path stripped", resp.Filename)
	}
	if backend.lastFilename != "passwd.html" {
		t.Errorf("backend saw filename %q", backend.lastFilename)
	}
}

func TestHealth(t *testing.T) {
	router := newTestRouter(t, routerOptions{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if got, want := rr.Body.String(), `{"status":"healthy","service":"markitdown-api"}`; got != want {
		t.Errorf("body = %s, want %s", got, want)
	}
}

func TestServiceInfo(t *testing.T) {
	router := newTestRouter(t, routerOptions{})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	var info ServiceInfo
	if err := json.Unmarshal(rr.Body.Bytes(), &info); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if info.Message == "" || info.Version == "" {
		t.Errorf("incomplete info: %+v", info)
	}
	if len(info.Endpoints) != 5 {
		t.Errorf("endpoints = %d, want 5", len(info.Endpoints))
	}
}

func TestMethodNotAllowed(t *testing.T) {
	router := newTestRouter(t, routerOptions{})

	req := httptest.NewRequest(http.MethodGet, "/parse_pdf", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rr.Code)
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	router := newTestRouter(t, routerOptions{})

	t.Run("generated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		if rr.Header().Get("X-Request-ID") == "" {
			t.Error("expected a generated X-Request-ID header")
		}
	})

	t.Run("honored", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("X-Request-ID", "req-123")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		if got := rr.Header().Get("X-Request-ID"); got != "req-123" {
			t.Errorf("X-Request-ID = %q, want req-123", got)
		}
	})
}

func TestRecoveryMiddleware(t *testing.T) {
	panicking := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("handler exploded")
	})
	wrapped := Recovery(discardLogger())(panicking)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	wrapped.ServeHTTP(rr, req)

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rr.Code)
	}
	resp := decodeError(t, rr)
	if resp.Error != "InternalError" {
		t.Errorf("error = %q, want InternalError", resp.Error)
	}
	if strings.Contains(resp.Message, "exploded") {
		t.Errorf("panic detail leaked to client: %q", resp.Message)
	}
}

func TestCORSPreflight(t *testing.T) {
	router := newTestRouter(t, routerOptions{})

	req := httptest.NewRequest(http.MethodOptions, "/parse_html", nil)
	req.Header.Set("Origin", "https://app.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want *", got)
	}
}
