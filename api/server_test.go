package api

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const statementText = `Account No : 123456
A/C Name : JOHN DOE
15-Jan-2024 ATM Withdrawal 5,000.00Dr 45,000.00Cr
20-Feb-2024 Salary Credit 50,000.00 95,000.00Cr
`

// multipartRequest builds a POST request with an optional file part and
// plain form fields.
func multipartRequest(t *testing.T, path, filename string, content string, fields map[string]string) *http.Request {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if filename != "" {
		part, err := writer.CreateFormFile("file", filename)
		require.NoError(t, err)
		io.WriteString(part, content)
	}
	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()

	var response map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	return response["error"]
}

func TestNew(t *testing.T) {
	cfg := DefaultConfig()
	server := New(cfg)

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
	assert.Equal(t, int64(16<<20), cfg.MaxUploadBytes)
	assert.Zero(t, cfg.RateLimitPerSecond, "rate limiting is off by default")
}

func TestHealthEndpoint(t *testing.T) {
	server := New(DefaultConfig())

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

	if response["status"] != "healthy" {
		t.Errorf("Expected status 'healthy', got '%s'", response["status"])
	}
}

func TestRequestID(t *testing.T) {
	server := New(DefaultConfig())

	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Len(t, w.Header().Get("X-Request-ID"), 36, "a uuid is generated when the client sends none")

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "client-id")
	w = httptest.NewRecorder()
	server.Handler().ServeHTTP(w, req)
	assert.Equal(t, "client-id", w.Header().Get("X-Request-ID"))
}

func TestCORSPreflight(t *testing.T) {
	server := New(DefaultConfig())

	req := httptest.NewRequest(http.MethodOptions, "/upload", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()

	server.Handler().ServeHTTP(w, req)

	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRateLimit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RateLimitPerSecond = 0.001
	cfg.RateLimitBurst = 1
	server := New(cfg)

	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	server.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestUploadEndpoint_Errors(t *testing.T) {
	viper.Reset()
	server := New(DefaultConfig())

	tests := []struct {
		name     string
		req      *http.Request
		status   int
		expected string
	}{
		{
			name:     "no file part",
			req:      multipartRequest(t, "/upload", "", "", map[string]string{"other": "x"}),
			status:   http.StatusBadRequest,
			expected: "No file part",
		},
		{
			name:     "not multipart",
			req:      httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader("x")),
			status:   http.StatusBadRequest,
			expected: "No file part",
		},
		{
			name:     "wrong extension",
			req:      multipartRequest(t, "/upload", "statement.txt", statementText, nil),
			status:   http.StatusBadRequest,
			expected: "Invalid file type. Only PDF files are allowed.",
		},
		{
			name:     "no transactions",
			req:      multipartRequest(t, "/upload", "letter.pdf", "ignored", map[string]string{"text": "Dear customer"}),
			status:   http.StatusBadRequest,
			expected: "No transactions found in the PDF",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			server.Handler().ServeHTTP(w, tt.req)

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.expected, decodeError(t, w))
		})
	}
}

func TestUploadEndpoint_InvalidPDF(t *testing.T) {
	viper.Reset()
	server := New(DefaultConfig())

	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, multipartRequest(t, "/upload", "broken.pdf", "not a valid pdf", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.True(t, strings.HasPrefix(decodeError(t, w), "An error occurred: "))
}

func TestUploadEndpoint_MethodNotAllowed(t *testing.T) {
	server := New(DefaultConfig())

	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/upload", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestUploadEndpoint_TooLarge(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxUploadBytes = 64
	server := New(cfg)

	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, multipartRequest(t, "/upload", "big.pdf", strings.Repeat("x", 1024), nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUploadEndpoint_Workbook(t *testing.T) {
	viper.Reset()
	server := New(DefaultConfig())

	req := multipartRequest(t, "/upload", "jan.pdf", "ignored", map[string]string{"text": statementText})
	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="jan_statement.xlsx"`, w.Header().Get("Content-Disposition"))

	f, err := excelize.OpenReader(w.Body)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Transactions")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"15-Jan-2024", "ATM Withdrawal", "5000.00", "", "45000.00"}, rows[1])
	assert.Equal(t, []string{"20-Feb-2024", "Salary Credit", "", "50000.00", "95000.00"}, rows[2])

	details, err := f.GetRows("Account Details")
	require.NoError(t, err)
	assert.Contains(t, details, []string{"account_no", "123456"})
}

func TestUploadEndpoint_PDF(t *testing.T) {
	viper.Reset()
	server := New(DefaultConfig())

	pdf, err := os.ReadFile(filepath.Join("..", "extractor", "common", "testdata", "ledger.pdf"))
	require.NoError(t, err)

	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, multipartRequest(t, "/upload", "ledger.pdf", string(pdf), nil))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, `attachment; filename="ledger_statement.xlsx"`, w.Header().Get("Content-Disposition"))

	f, err := excelize.OpenReader(w.Body)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Transactions")
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Date", "Description", "Debit", "Credit", "Balance"},
		{"15-Jan-2024", "ATM Withdrawal", "5000.00", "", "45000.00"},
		{"20-Feb-2024", "Salary Credit", "", "50000.00", "95000.00"},
	}, rows)

	details, err := f.GetRows("Account Details")
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Field", "Value"},
		{"account_no", "123456"},
		{"account_name", "JOHN DOE"},
	}, details)
}

func TestNew_ZeroUploadLimitUsesDefault(t *testing.T) {
	viper.Reset()
	server := New(Config{Port: ":9000"})

	assert.Equal(t, DefaultConfig().MaxUploadBytes, server.config.MaxUploadBytes)

	req := multipartRequest(t, "/upload", "jan.pdf", "ignored", map[string]string{"text": statementText})
	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestExtractEndpoint_MethodNotAllowed(t *testing.T) {
	server := New(DefaultConfig())

	req := httptest.NewRequest(http.MethodGet, "/extract", nil)
	w := httptest.NewRecorder()

	server.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected status 405, got %d", w.Code)
	}
}

func TestExtractEndpoint_NoFile(t *testing.T) {
	server := New(DefaultConfig())

	req := httptest.NewRequest(http.MethodPost, "/extract", nil)
	req.Header.Set("Content-Type", "multipart/form-data")
	w := httptest.NewRecorder()

	server.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestExtractEndpoint_InvalidFile(t *testing.T) {
	viper.Reset()
	server := New(DefaultConfig())

	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, multipartRequest(t, "/extract", "test.pdf", "not a valid pdf", nil))

	// Should return 200 with empty result (extractor handles invalid PDFs gracefully)
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
}

func TestExtractEndpoint_Text(t *testing.T) {
	viper.Reset()
	server := New(DefaultConfig())

	req := multipartRequest(t, "/extract", "", "", map[string]string{"text": statementText, "filename": "jan.pdf"})
	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Source         string              `json:"source"`
		AccountDetails map[string]string   `json:"account_details"`
		Transactions   []map[string]string `json:"transactions"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))

	assert.Equal(t, "jan", response.Source)
	assert.Equal(t, "JOHN DOE", response.AccountDetails["account_name"])
	require.Len(t, response.Transactions, 2)
	assert.Equal(t, "5000.00", response.Transactions[0]["debit"])
	assert.Equal(t, "50000.00", response.Transactions[1]["credit"])
}

func TestExtractEndpoint_TextOnly(t *testing.T) {
	viper.Reset()
	server := New(DefaultConfig())

	req := multipartRequest(t, "/extract?text_only=true", "notes.txt", statementText, nil)
	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var response map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, "notes.txt", response["filename"])
	assert.Equal(t, statementText, response["text"])
}

func TestMetricsEndpoint(t *testing.T) {
	viper.Reset()
	server := New(DefaultConfig())

	req := multipartRequest(t, "/extract", "", "", map[string]string{"text": statementText})
	server.Handler().ServeHTTP(httptest.NewRecorder(), req)

	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `statex_extractions_total{outcome="ok"} 1`)
	assert.Contains(t, body, "statex_transactions_extracted_total 2")
}

func TestParseExtractOptions_FormValues(t *testing.T) {
	server := New(DefaultConfig())

	req := multipartRequest(t, "/extract", "", "", map[string]string{
		"statement_only": "true",
		"text":           "raw text",
	})
	req.ParseMultipartForm(32 << 20)

	opts := server.parseExtractOptions(req)

	if !opts.StatementOnly {
		t.Error("Expected StatementOnly to be true")
	}
	if opts.Text != "raw text" {
		t.Errorf("Expected Text 'raw text', got '%s'", opts.Text)
	}
}

func TestParseExtractOptions_QueryParams(t *testing.T) {
	server := New(DefaultConfig())

	req := httptest.NewRequest(http.MethodPost, "/extract?transaction_only=true&text_only=true", nil)

	opts := server.parseExtractOptions(req)

	if !opts.TransactionOnly {
		t.Error("Expected TransactionOnly to be true")
	}
	if !opts.TextOnly {
		t.Error("Expected TextOnly to be true")
	}
}

func TestCoalesce(t *testing.T) {
	tests := []struct {
		input    []string
		expected string
	}{
		{[]string{"", "", "third"}, "third"},
		{[]string{"first", "second"}, "first"},
		{[]string{"", ""}, ""},
		{[]string{}, ""},
		{[]string{"only"}, "only"},
	}

	for _, tt := range tests {
		result := coalesce(tt.input...)
		if result != tt.expected {
			t.Errorf("coalesce(%v) = '%s', expected '%s'", tt.input, result, tt.expected)
		}
	}
}

func TestExtractEndpoint_ContentType(t *testing.T) {
	viper.Reset()
	server := New(DefaultConfig())

	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, multipartRequest(t, "/extract", "statement.pdf", "mock content", nil))

	contentType := w.Header().Get("Content-Type")
	if contentType != "application/json" {
		t.Errorf("Expected Content-Type 'application/json', got '%s'", contentType)
	}
}
