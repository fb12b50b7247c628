package api

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gzaln/fin/classification"
	"github.com/gzaln/fin/extractor"
)

func testServer() *Server {
	return New(DefaultConfig(), extractor.NewDetector(nil), classification.NewEngine(classification.DefaultRules()))
}

func TestNew(t *testing.T) {
	server := testServer()

	if server == nil {
		t.Fatal("Expected server to be created")
	}
	if server.mux == nil {
		t.Fatal("Expected mux to be initialized")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Port != ":8080" {
		t.Errorf("Expected port ':8080', got '%s'", cfg.Port)
	}
}

func TestHealthEndpoint(t *testing.T) {
	server := testServer()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	server.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	var response map[string]string
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if response["status"] != "ok" {
		t.Errorf("Expected status 'ok', got '%s'", response["status"])
	}
}

func TestExtractEndpoint_MethodNotAllowed(t *testing.T) {
	server := testServer()

	req := httptest.NewRequest(http.MethodGet, "/extract", nil)
	w := httptest.NewRecorder()

	server.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected status 405, got %d", w.Code)
	}
}

func TestExtractEndpoint_NoFile(t *testing.T) {
	server := testServer()

	req := httptest.NewRequest(http.MethodPost, "/extract", nil)
	req.Header.Set("Content-Type", "multipart/form-data")
	w := httptest.NewRecorder()

	server.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestDetectEndpoint_InvalidPDF(t *testing.T) {
	server := testServer()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "garbage.pdf")
	if err != nil {
		t.Fatalf("Failed to create form file: %v", err)
	}
	io.WriteString(part, "this is not a pdf")
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/detect", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()

	server.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestParseExtractOptions_QueryFlags(t *testing.T) {
	server := testServer()

	req := httptest.NewRequest(http.MethodPost, "/extract?statement_only=true", nil)
	opts := server.parseExtractOptions(req)

	if !opts.StatementOnly {
		t.Error("Expected statement_only flag to be read from the query string")
	}
	if opts.TransactionsOnly || opts.TextOnly {
		t.Error("Expected unset flags to stay false")
	}
}
