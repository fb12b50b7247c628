// Package api exposes the statement extractor over HTTP. It is a capability
// module: the CLI serves it, and embedders can mount Handler() wherever they
// like.
package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/gzaln/fin/classification"
	"github.com/gzaln/fin/extractor"
	"github.com/gzaln/fin/extractor/common"
)

// Config holds the API server configuration
type Config struct {
	Port      string
	LogPrefix string
}

// DefaultConfig returns the default API configuration
func DefaultConfig() Config {
	return Config{
		Port:      ":8080",
		LogPrefix: "API: ",
	}
}

// Server represents the HTTP API server
type Server struct {
	config     Config
	detector   *extractor.Detector
	classifier *classification.Engine
	mux        *http.ServeMux
}

// New creates a new API server. classifier may be nil to skip categorization.
func New(cfg Config, detector *extractor.Detector, classifier *classification.Engine) *Server {
	s := &Server{
		config:     cfg,
		detector:   detector,
		classifier: classifier,
		mux:        http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

// registerRoutes sets up the API endpoints
func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/extract", s.handleExtract)
	s.mux.HandleFunc("/detect", s.handleDetect)
	s.mux.HandleFunc("/health", s.handleHealth)
}

// Handler returns the http.Handler for the server so it can be mounted under
// a custom http.Server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start starts the HTTP server (blocking)
func (s *Server) Start() error {
	log.Printf("%sStarting server on %s", s.config.LogPrefix, s.config.Port)
	return http.ListenAndServe(s.config.Port, s.mux)
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// ExtractOptions holds the options for extraction
type ExtractOptions struct {
	StatementOnly    bool
	TransactionsOnly bool
	TextOnly         bool
}

// parseExtractOptions extracts options from form values or the query string.
func (s *Server) parseExtractOptions(r *http.Request) ExtractOptions {
	flag := func(name string) bool {
		return r.FormValue(name) == "true" || r.URL.Query().Get(name) == "true"
	}
	return ExtractOptions{
		StatementOnly:    flag("statement_only"),
		TransactionsOnly: flag("transactions_only"),
		TextOnly:         flag("text_only"),
	}
}

// readUpload pulls the multipart "file" field into memory.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (*bytes.Reader, string, bool) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return nil, "", false
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		log.Printf("%sError parsing multipart form: %v", s.config.LogPrefix, err)
		http.Error(w, "Could not parse multipart form: "+err.Error(), http.StatusBadRequest)
		return nil, "", false
	}

	file, handler, err := r.FormFile("file")
	if err != nil {
		log.Printf("%sError getting file from form: %v", s.config.LogPrefix, err)
		http.Error(w, "Could not get uploaded file: "+err.Error(), http.StatusBadRequest)
		return nil, "", false
	}
	defer file.Close()

	fileBytes, err := io.ReadAll(file)
	if err != nil {
		log.Printf("%sError reading file bytes: %v", s.config.LogPrefix, err)
		http.Error(w, "Could not read file: "+err.Error(), http.StatusInternalServerError)
		return nil, "", false
	}

	return bytes.NewReader(fileBytes), handler.Filename, true
}

// handleExtract handles PDF extraction requests
func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	log.Printf("%sReceived request from %s", s.config.LogPrefix, r.RemoteAddr)

	fileReader, filename, ok := s.readUpload(w, r)
	if !ok {
		return
	}

	opts := s.parseExtractOptions(r)

	if opts.TextOnly {
		s.handleTextOnlyExtract(w, fileReader, filename)
		return
	}

	result, err := s.detector.ProcessReader(fileReader, filename)
	if err != nil {
		status := http.StatusUnprocessableEntity
		if errors.Is(err, extractor.ErrBankNotRecognized) {
			status = http.StatusBadRequest
		}
		log.Printf("%sExtraction failed for %s: %v", s.config.LogPrefix, filename, err)
		http.Error(w, err.Error(), status)
		return
	}

	if s.classifier != nil {
		s.classifier.Apply(result.Transactions)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(shapeOutput(result, opts))
}

// handleDetect reports which bank claims the uploaded document, without
// running a full parse.
func (s *Server) handleDetect(w http.ResponseWriter, r *http.Request) {
	fileReader, filename, ok := s.readUpload(w, r)
	if !ok {
		return
	}

	doc, err := common.LoadDocumentReader(fileReader, filename)
	if err != nil {
		http.Error(w, "Could not read PDF: "+err.Error(), http.StatusBadRequest)
		return
	}

	bank, err := s.detector.GetBankName(doc)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"filename": filename,
		"bank":     bank,
	})
}

// handleTextOnlyExtract returns the raw row text, for grammar debugging.
func (s *Server) handleTextOnlyExtract(w http.ResponseWriter, reader *bytes.Reader, filename string) {
	doc, err := common.LoadDocumentReader(reader, filename)
	if err != nil {
		log.Printf("%sError extracting text: %v", s.config.LogPrefix, err)
		http.Error(w, "Could not extract text from file: "+err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"filename": filename,
		"text":     doc.FullText(),
	})
}

// shapeOutput trims the result to what the caller asked for.
func shapeOutput(result common.Result, opts ExtractOptions) any {
	switch {
	case opts.StatementOnly:
		return map[string]any{"summary": result.Summary}
	case opts.TransactionsOnly:
		return map[string]any{"transactions": result.Transactions}
	default:
		return result
	}
}
