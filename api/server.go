// Package api provides HTTP API capabilities for the statex extractor.
// This is a capability module that can be enabled via the CLI or used programmatically.
package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/aqlanhadi/statex/export"
	"github.com/aqlanhadi/statex/extractor"
	"github.com/aqlanhadi/statex/extractor/common"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"golang.org/x/time/rate"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Config holds the API server configuration
type Config struct {
	Port               string
	LogPrefix          string
	MaxUploadBytes     int64
	RateLimitPerSecond float64
	RateLimitBurst     int
}

// DefaultConfig returns the default API configuration
func DefaultConfig() Config {
	return Config{
		Port:           ":8080",
		LogPrefix:      "API: ",
		MaxUploadBytes: 16 << 20,
	}
}

// Server represents the HTTP API server
type Server struct {
	config   Config
	mux      *http.ServeMux
	handler  http.Handler
	registry *prometheus.Registry
	metrics  *metrics
}

// New creates a new API server with the given configuration. A non-positive
// MaxUploadBytes falls back to the default limit.
func New(cfg Config) *Server {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = DefaultConfig().MaxUploadBytes
	}

	s := &Server{
		config:   cfg,
		mux:      http.NewServeMux(),
		registry: prometheus.NewRegistry(),
	}
	s.metrics = newMetrics(s.registry)
	s.registerRoutes()

	var h http.Handler = s.mux
	if cfg.RateLimitPerSecond > 0 {
		h = rateLimit(rate.NewLimiter(rate.Limit(cfg.RateLimitPerSecond), max(cfg.RateLimitBurst, 1)), h)
	}
	h = withRequestID(h)
	s.handler = cors.Default().Handler(h)
	return s
}

// registerRoutes sets up the API endpoints
func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/upload", s.handleUpload)
	s.mux.HandleFunc("/extract", s.handleExtract)
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
}

// Handler returns the http.Handler for the server
// This allows the server to be used with custom http.Server configurations
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start starts the HTTP server (blocking)
func (s *Server) Start() error {
	log.Printf("%sStarting server on %s", s.config.LogPrefix, s.config.Port)
	return http.ListenAndServe(s.config.Port, s.handler)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// handleUpload converts an uploaded statement into an xlsx workbook.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		s.logf(r, "Error parsing multipart form: %v", err)
		writeError(w, http.StatusBadRequest, "No file part")
		return
	}

	file, handler, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No file part")
		return
	}
	defer file.Close()

	if handler.Filename == "" {
		writeError(w, http.StatusBadRequest, "No selected file")
		return
	}
	if !strings.EqualFold(filepath.Ext(handler.Filename), ".pdf") {
		writeError(w, http.StatusBadRequest, "Invalid file type. Only PDF files are allowed.")
		return
	}

	statement, err := s.process(r, file, handler.Filename)
	if err != nil {
		if errors.Is(err, extractor.ErrNoTransactions) {
			writeError(w, http.StatusBadRequest, "No transactions found in the PDF")
			return
		}
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("An error occurred: %v", err))
		return
	}

	var buf bytes.Buffer
	if err := export.WriteWorkbook(&buf, statement); err != nil {
		s.logf(r, "Error writing workbook: %v", err)
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("An error occurred: %v", err))
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.WorkbookName(handler.Filename)))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// handleExtract handles PDF extraction requests and answers with JSON
func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	s.logf(r, "Received request from %s", r.RemoteAddr)

	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		s.logf(r, "Error parsing multipart form: %v", err)
		http.Error(w, "Could not parse multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}

	opts := s.parseExtractOptions(r)

	var (
		body     io.Reader
		filename string
	)
	if opts.Text == "" {
		file, handler, err := r.FormFile("file")
		if err != nil {
			s.logf(r, "Error getting file from form: %v", err)
			http.Error(w, "Could not get uploaded file: "+err.Error(), http.StatusBadRequest)
			return
		}
		defer file.Close()
		body, filename = file, handler.Filename
	} else {
		filename = coalesce(r.FormValue("filename"), "statement.txt")
	}

	if opts.TextOnly {
		s.handleTextOnlyExtract(w, r, body, filename, opts.Text)
		return
	}

	statement, err := s.process(r, body, filename)
	if err != nil && !errors.Is(err, extractor.ErrNoTransactions) {
		s.logf(r, "Error extracting %s: %v", filename, err)
	}

	writeJSON(w, http.StatusOK, extractor.CreateFinalOutput(statement, opts.TransactionOnly, opts.StatementOnly))
}

// ExtractOptions holds the options for extraction
type ExtractOptions struct {
	StatementOnly   bool
	TransactionOnly bool
	TextOnly        bool
	Text            string
}

// parseExtractOptions extracts options from the HTTP request
func (s *Server) parseExtractOptions(r *http.Request) ExtractOptions {
	return ExtractOptions{
		StatementOnly:   r.FormValue("statement_only") == "true" || r.URL.Query().Get("statement_only") == "true",
		TransactionOnly: r.FormValue("transaction_only") == "true" || r.URL.Query().Get("transaction_only") == "true",
		TextOnly:        r.FormValue("text_only") == "true" || r.URL.Query().Get("text_only") == "true",
		Text:            r.FormValue("text"),
	}
}

// handleTextOnlyExtract returns the linearised text without extracting
func (s *Server) handleTextOnlyExtract(w http.ResponseWriter, r *http.Request, body io.Reader, filename, text string) {
	if text == "" {
		var err error
		text, err = extractor.ReadText(body, filename)
		if err != nil {
			s.logf(r, "Error extracting text: %v", err)
			http.Error(w, "Could not extract text from file: "+err.Error(), http.StatusBadRequest)
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"filename": filename,
		"text":     text,
	})
}

// process extracts a statement from the uploaded file, or from the
// pre-extracted text form value when the client sent one.
func (s *Server) process(r *http.Request, file io.Reader, filename string) (common.Statement, error) {
	var (
		statement common.Statement
		err       error
	)
	if text := r.FormValue("text"); text != "" {
		source := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
		statement, err = extractor.ProcessText(source, text)
	} else {
		statement, err = extractor.ProcessReader(file, filename)
	}

	s.metrics.observe(statement, err)
	if err != nil {
		s.logf(r, "✗ %s: %v", filename, err)
	} else {
		s.logf(r, "✓ %s: %d transactions", filename, len(statement.Transactions))
	}
	return statement, err
}

func (s *Server) logf(r *http.Request, format string, args ...interface{}) {
	log.Printf("%s[%s] %s", s.config.LogPrefix, requestID(r), fmt.Sprintf(format, args...))
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// coalesce returns the first non-empty string
func coalesce(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

const requestIDHeader = "X-Request-ID"

func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
			r.Header.Set(requestIDHeader, id)
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

func requestID(r *http.Request) string {
	return r.Header.Get(requestIDHeader)
}

func rateLimit(limiter *rate.Limiter, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			writeError(w, http.StatusTooManyRequests, "Too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}
