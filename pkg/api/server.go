package api

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/relab-tools/faultline/pkg/engine"
	"github.com/relab-tools/faultline/pkg/reports"
	"github.com/relab-tools/faultline/pkg/store"
	cache "github.com/relab-tools/faultline/pkg/store/redis"
)

// Context keys
type contextKey string

const traceIDKey contextKey = "trace_id"

// StoreInterface is the persistence surface the server needs. *store.Store
// satisfies it; tests may substitute a fake.
type StoreInterface interface {
	SaveRun(ctx context.Context, run *store.Run) error
	GetRun(ctx context.Context, runID string) (*store.Run, error)
	ListRuns(ctx context.Context, filter store.RunFilter) ([]*store.Run, error)
	DeleteRun(ctx context.Context, runID string) error
}

// ResultCache memoizes analysis results across identical requests.
// Optional; a nil cache disables memoization.
type ResultCache interface {
	Get(ctx context.Context, key string) (*engine.Result, bool)
	Set(ctx context.Context, key string, result *engine.Result)
}

// Server encapsulates the HTTP API server
type Server struct {
	store  StoreInterface
	cache  ResultCache
	server *http.Server

	// TLS Config
	tlsCertFile string
	tlsKeyFile  string
}

// NewServer creates a new API server instance
func NewServer(st StoreInterface, addr string) *Server {
	mux := http.NewServeMux()

	// Register routes
	mux.HandleFunc("/v1/health", handleHealth)
	mux.Handle("/metrics", promhttp.Handler())

	s := &Server{store: st}

	mux.HandleFunc("/v1/analyze", s.handleAnalyze)
	mux.HandleFunc("/v1/quantify", s.handleQuantify)
	mux.HandleFunc("/v1/runs", s.handleRuns)
	mux.HandleFunc("/v1/runs/", s.handleRun) // handleRun dispatches GET and DELETE
	mux.HandleFunc("/v1/reports", s.handleReports)

	// Middleware: Logging, Panic Recovery, Security Headers
	handler := withLogging(withRecovery(withSecureHeaders(mux)))

	// Use default port if addr is empty
	if addr == "" {
		addr = ":8490"
	}

	s.server = &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  15 * time.Second,
	}

	return s
}

// SetResultCache enables result memoization.
func (s *Server) SetResultCache(c ResultCache) {
	s.cache = c
}

// SetTLS configures the server to use TLS
func (s *Server) SetTLS(certFile, keyFile string) {
	s.tlsCertFile = certFile
	s.tlsKeyFile = keyFile
}

// Handler exposes the configured handler chain for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start runs the HTTP server (blocking)
func (s *Server) Start() error {
	if s.tlsCertFile != "" && s.tlsKeyFile != "" {
		fmt.Printf(`{"level":"info","msg":"server_starting_tls","addr":"%s"}`+"\n", s.server.Addr)
		if err := s.server.ListenAndServeTLS(s.tlsCertFile, s.tlsKeyFile); err != http.ErrServerClosed {
			return err
		}
	} else {
		fmt.Printf(`{"level":"info","msg":"server_starting","addr":"%s"}`+"\n", s.server.Addr)
		if err := s.server.ListenAndServe(); err != http.ErrServerClosed {
			return err
		}
	}
	return nil
}

// Stop gracefully shuts down the server
func (s *Server) Stop(ctx context.Context) error {
	fmt.Println(`{"level":"info","msg":"server_stopping"}`)
	return s.server.Shutdown(ctx)
}

// handleAnalyze runs a full analysis of the posted model document.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, `{"error":"method_not_allowed"}`, http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, `{"error":"failed_to_read_body"}`, http.StatusBadRequest)
		return
	}
	var req AnalyzeRequest
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, `{"error":"invalid_json_body"}`, http.StatusBadRequest)
		return
	}

	settings := engine.DefaultSettings()
	if req.Settings != nil {
		settings = *req.Settings
	}
	if err := settings.Validate(); err != nil {
		http.Error(w, fmt.Sprintf(`{"error":"invalid_settings","details":"%v"}`, err), http.StatusBadRequest)
		return
	}

	// Cache lookup before building the model: the key covers the raw
	// document and the settings.
	var cacheKey string
	if s.cache != nil {
		if doc, err := json.Marshal(req.Model); err == nil {
			cacheKey = cache.Key(doc, settings)
			if result, ok := s.cache.Get(r.Context(), cacheKey); ok {
				s.respondAnalyze(w, r, result, true)
				return
			}
		}
	}

	m, err := req.Model.Build()
	if err != nil {
		http.Error(w, fmt.Sprintf(`{"error":"invalid_model","details":"%v"}`, err), http.StatusBadRequest)
		return
	}

	result, err := engine.Run(m, settings)
	if err != nil {
		fmt.Printf(`{"level":"error","msg":"analysis_failed","trace_id":"%s","error":"%v"}`+"\n", getTraceID(r.Context()), err)
		http.Error(w, fmt.Sprintf(`{"error":"analysis_failed","details":"%v"}`, err), http.StatusUnprocessableEntity)
		return
	}

	if s.cache != nil && cacheKey != "" {
		s.cache.Set(r.Context(), cacheKey, result)
	}
	s.respondAnalyze(w, r, result, false)
}

// respondAnalyze persists the run and writes the response.
func (s *Server) respondAnalyze(w http.ResponseWriter, r *http.Request, result *engine.Result, cached bool) {
	run := &store.Run{
		RunID:        fmt.Sprintf("run_%d", time.Now().UnixNano()),
		Model:        result.Model,
		Algorithm:    string(result.Settings.Algorithm),
		CreatedAt:    time.Now().UTC(),
		ProductCount: len(result.Products.Products),
		Truncated:    result.Truncated,
		Probability:  result.Probability,
		Result:       result,
	}
	if err := s.store.SaveRun(r.Context(), run); err != nil {
		fmt.Printf(`{"level":"error","msg":"failed_to_save_run","trace_id":"%s","error":"%v"}`+"\n", getTraceID(r.Context()), err)
		http.Error(w, `{"error":"internal_server_error"}`, http.StatusInternalServerError)
		return
	}

	resp := AnalyzeResponse{RunID: run.RunID, Cached: cached, Result: result}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		fmt.Printf(`{"level":"error","msg":"failed_to_encode_response","trace_id":"%s","error":"%v"}`+"\n", getTraceID(r.Context()), err)
	}
}

// handleQuantify evaluates a posted product set.
func (s *Server) handleQuantify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, `{"error":"method_not_allowed"}`, http.StatusMethodNotAllowed)
		return
	}

	var req QuantifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid_json_body"}`, http.StatusBadRequest)
		return
	}

	settings := engine.DefaultSettings()
	if req.Approximation != "" {
		settings.Approximation = req.Approximation
	}
	if req.NumSums > 0 {
		settings.NumSums = req.NumSums
	}
	if err := settings.Validate(); err != nil {
		http.Error(w, fmt.Sprintf(`{"error":"invalid_settings","details":"%v"}`, err), http.StatusBadRequest)
		return
	}

	q := engine.NewQuantifier(settings)
	container := &engine.ProductContainer{Products: req.Products}
	resp := QuantifyResponse{
		Probability: q.Probability(container, req.Probabilities),
		Findings:    q.Findings(),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		fmt.Printf(`{"level":"error","msg":"failed_to_encode_response","trace_id":"%s","error":"%v"}`+"\n", getTraceID(r.Context()), err)
	}
}

// handleRuns lists stored runs.
func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, `{"error":"method_not_allowed"}`, http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	filter := store.RunFilter{Model: q.Get("model")}
	if sinceStr := q.Get("since"); sinceStr != "" {
		since, err := time.Parse(time.RFC3339, sinceStr)
		if err != nil {
			http.Error(w, `{"error":"invalid_since","format":"RFC3339"}`, http.StatusBadRequest)
			return
		}
		filter.Since = since
	}
	filter.Limit = 50
	if l := q.Get("limit"); l != "" {
		if val, err := strconv.Atoi(l); err == nil && val > 0 {
			filter.Limit = val
		}
	}

	runs, err := s.store.ListRuns(r.Context(), filter)
	if err != nil {
		fmt.Printf(`{"level":"error","msg":"failed_to_list_runs","trace_id":"%s","error":"%v"}`+"\n", getTraceID(r.Context()), err)
		http.Error(w, `{"error":"internal_server_error"}`, http.StatusInternalServerError)
		return
	}
	if runs == nil {
		runs = []*store.Run{}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(runs); err != nil {
		fmt.Printf(`{"level":"error","msg":"failed_to_encode_runs","trace_id":"%s","error":"%v"}`+"\n", getTraceID(r.Context()), err)
	}
}

// handleRun serves one run by ID and supports deletion.
func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/v1/runs/")
	if id == "" {
		http.Error(w, `{"error":"missing_run_id"}`, http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodGet:
		run, err := s.store.GetRun(r.Context(), id)
		if err != nil {
			fmt.Printf(`{"level":"error","msg":"failed_to_get_run","trace_id":"%s","error":"%v"}`+"\n", getTraceID(r.Context()), err)
			http.Error(w, `{"error":"internal_server_error"}`, http.StatusInternalServerError)
			return
		}
		if run == nil {
			http.Error(w, `{"error":"run_not_found"}`, http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if err := json.NewEncoder(w).Encode(run); err != nil {
			fmt.Printf(`{"level":"error","msg":"failed_to_encode_run","trace_id":"%s","error":"%v"}`+"\n", getTraceID(r.Context()), err)
		}
	case http.MethodDelete:
		if err := s.store.DeleteRun(r.Context(), id); err != nil {
			fmt.Printf(`{"level":"error","msg":"failed_to_delete_run","trace_id":"%s","error":"%v"}`+"\n", getTraceID(r.Context()), err)
			http.Error(w, `{"error":"internal_server_error"}`, http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, `{"error":"method_not_allowed"}`, http.StatusMethodNotAllowed)
	}
}

// handleReports generates and streams reports.
func (s *Server) handleReports(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, `{"error":"method_not_allowed"}`, http.StatusMethodNotAllowed)
		return
	}

	// Parse parameters
	q := r.URL.Query()
	reportType := reports.ReportType(q.Get("type"))
	if reportType == "" {
		http.Error(w, `{"error":"missing_type"}`, http.StatusBadRequest)
		return
	}
	format := reports.ReportFormat(q.Get("format"))
	if format == "" {
		format = reports.ReportFormatCSV
	}

	params := reports.ReportParams{
		RunID: q.Get("run_id"),
		Model: q.Get("model"),
	}
	if sinceStr := q.Get("since"); sinceStr != "" {
		since, err := time.Parse(time.RFC3339, sinceStr)
		if err != nil {
			http.Error(w, `{"error":"invalid_since","format":"RFC3339"}`, http.StatusBadRequest)
			return
		}
		params.Since = since
	}
	if l := q.Get("limit"); l != "" {
		if val, err := strconv.Atoi(l); err == nil && val > 0 {
			params.Limit = val
		}
	}

	// Create generator
	gen, err := reports.NewReportGenerator(reportType, format, s.store)
	if err != nil {
		http.Error(w, fmt.Sprintf(`{"error":"invalid_report_type","details":"%v"}`, err), http.StatusBadRequest)
		return
	}

	// Generate
	reader, err := gen.Generate(r.Context(), params)
	if err != nil {
		fmt.Printf(`{"level":"error","msg":"failed_to_generate_report","trace_id":"%s","error":"%v"}`+"\n", getTraceID(r.Context()), err)
		http.Error(w, `{"error":"report_generation_failed"}`, http.StatusInternalServerError)
		return
	}

	// Set headers
	if format == reports.ReportFormatJSON {
		w.Header().Set("Content-Type", "application/json")
	} else {
		w.Header().Set("Content-Type", "text/csv")
		filename := fmt.Sprintf("report_%s_%d.csv", reportType, time.Now().Unix())
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	}

	// Stream response
	if _, err := io.Copy(w, reader); err != nil {
		fmt.Printf(`{"level":"error","msg":"failed_to_stream_report","trace_id":"%s","error":"%v"}`+"\n", getTraceID(r.Context()), err)
	}
}

// handleHealth returns simple status
func handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

// Middleware: Panic Recovery
func withRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				fmt.Printf(`{"level":"error","msg":"panic_recovered","error":"%v","path":"%s"}`+"\n", err, r.URL.Path)
				http.Error(w, `{"error":"internal_server_error"}`, http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// Middleware: Request Logging
func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// 1. Extract or Generate Trace ID
		traceID := r.Header.Get("X-Trace-ID")
		if traceID == "" {
			traceID = generateTraceID()
		}

		// 2. Inject into Context
		ctx := context.WithValue(r.Context(), traceIDKey, traceID)
		r = r.WithContext(ctx)

		// Wrap writer to capture status code
		ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		// 3. Set response header
		w.Header().Set("X-Trace-ID", traceID)

		next.ServeHTTP(ww, r)

		duration := time.Since(start)
		fmt.Printf(`{"level":"info","msg":"http_request","trace_id":"%s","method":"%s","path":"%s","status":%d,"duration_ms":%d}`+"\n",
			traceID, r.Method, r.URL.Path, ww.status, duration.Milliseconds())
	})
}

func generateTraceID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		// Fallback if random fails (unlikely)
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b)
}

func getTraceID(ctx context.Context) string {
	if v, ok := ctx.Value(traceIDKey).(string); ok {
		return v
	}
	return ""
}

// statusWriter captures HTTP status code
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Middleware: Secure Headers
func withSecureHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Security-Policy", "default-src 'self'")
		w.Header().Set("Strict-Transport-Security", "max-age=63072000; includeSubDomains")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "no-referrer")

		next.ServeHTTP(w, r)
	})
}
