// Package httpapi exposes the assistant over HTTP for the companion app.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/cors"

	"kebbi/internal/application"
	"kebbi/internal/domain"
	"kebbi/internal/infra/metrics"
)

const (
	maxJSONBody  = 64 << 10
	maxAudioBody = 25 << 20
)

type Options struct {
	Addr           string
	AuthToken      string
	AllowedOrigins []string
	UploadDir      string
	// RateLimit is the number of requests per minute allowed per client IP.
	RateLimit int
}

type Server struct {
	opts    Options
	service *application.Service
	stt     application.SpeechToText
	metrics *metrics.Metrics
	logger  *slog.Logger

	mux         *http.ServeMux
	handler     http.Handler
	rateLimiter *RateLimiter
	started     time.Time

	mu      sync.Mutex
	server  *http.Server
	running bool
}

func NewServer(
	service *application.Service,
	stt application.SpeechToText,
	m *metrics.Metrics,
	opts Options,
	logger *slog.Logger,
) *Server {
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	if opts.UploadDir == "" {
		opts.UploadDir = "uploads"
	}

	s := &Server{
		opts:        opts,
		service:     service,
		stt:         stt,
		metrics:     m,
		logger:      logger,
		mux:         http.NewServeMux(),
		rateLimiter: NewRateLimiter(opts.RateLimit, time.Minute),
		started:     time.Now(),
	}

	s.route("POST /api/chat", s.handleChat)
	s.route("POST /api/classify_intent", s.handleClassify)
	s.route("POST /api/handle_item", s.handleItem)
	s.route("POST /api/handle_schedule", s.handleSchedule)
	s.route("POST /api/route", s.handleRoute)
	s.route("POST /upload_audio", s.handleUploadAudio)
	s.route("GET /api/items", s.handleItems)
	s.route("GET /api/schedules", s.handleSchedules)
	s.route("GET /api/chat_history", s.handleChatHistory)

	// No rate limiting or auth on probes
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.Handle("GET /metrics", m.Handler())

	c := cors.New(cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	})
	s.handler = c.Handler(s.requestID(s.mux))

	return s
}

func (s *Server) route(pattern string, h http.HandlerFunc) {
	_, path, _ := strings.Cut(pattern, " ")
	s.mux.HandleFunc(pattern, s.metrics.Middleware(path, s.rateLimiter.Middleware(s.authorize(h))))
}

func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) Start(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	if err := os.MkdirAll(s.opts.UploadDir, 0755); err != nil {
		return fmt.Errorf("creating upload dir: %w", err)
	}

	s.server = &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		s.logger.Info("HTTP API starting", "addr", s.opts.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server error", "error", err)
		}
	}()

	s.running = true
	return nil
}

func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.server.Shutdown(ctx); err != nil {
		s.logger.Warn("graceful shutdown failed, forcing close", "error", err)
		if err := s.server.Close(); err != nil {
			return fmt.Errorf("closing server: %w", err)
		}
	}

	s.running = false
	return nil
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// requestID tags every request with an X-Request-ID and writes one access
// log line per request.
func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)

		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		s.logger.Info("http request",
			"request_id", id,
			"method", r.Method,
			"path", r.URL.Path,
			"status", sw.status,
			"duration", time.Since(start),
			"remote_addr", clientIP(r),
		)
	})
}

// authorize checks X-Auth-Token (or ?token=) when a token is configured.
func (s *Server) authorize(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.opts.AuthToken != "" {
			token := r.Header.Get("X-Auth-Token")
			if token == "" {
				token = r.URL.Query().Get("token")
			}
			if token != s.opts.AuthToken {
				s.logger.Warn("unauthorized request", "path", r.URL.Path, "remote_addr", clientIP(r))
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
		}
		next(w, r)
	}
}

type messageRequest struct {
	Text string `json:"text"`
}

// readText decodes {"text": ...} and rejects empty text.
func readText(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req messageRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return "", false
	}

	text := strings.TrimSpace(req.Text)
	if text == "" {
		writeError(w, http.StatusBadRequest, "empty text")
		return "", false
	}
	return text, true
}

// optional renders a failed generation as JSON null.
func optional(text string, ok bool) *string {
	if !ok {
		return nil
	}
	return &text
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	text, ok := readText(w, r)
	if !ok {
		return
	}

	reply, ok := s.service.Chat(r.Context(), domain.NewTextUtterance(text))
	writeJSON(w, http.StatusOK, map[string]any{"reply": optional(reply, ok)})
}

func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	text, ok := readText(w, r)
	if !ok {
		return
	}

	intent := s.service.Classify(r.Context(), domain.NewTextUtterance(text))
	writeJSON(w, http.StatusOK, map[string]any{
		"intent":     intent.Label(),
		"recognized": intent.Recognized(),
	})
}

func (s *Server) handleItem(w http.ResponseWriter, r *http.Request) {
	text, ok := readText(w, r)
	if !ok {
		return
	}

	_, stored := s.service.LogItem(r.Context(), domain.NewTextUtterance(text))
	writeJSON(w, http.StatusOK, map[string]any{"message": application.AckItem, "stored": stored})
}

func (s *Server) handleSchedule(w http.ResponseWriter, r *http.Request) {
	text, ok := readText(w, r)
	if !ok {
		return
	}

	_, stored := s.service.LogSchedule(r.Context(), domain.NewTextUtterance(text))
	writeJSON(w, http.StatusOK, map[string]any{"message": application.AckSchedule, "stored": stored})
}

func (s *Server) handleRoute(w http.ResponseWriter, r *http.Request) {
	text, ok := readText(w, r)
	if !ok {
		return
	}

	reply := s.service.Handle(r.Context(), domain.NewTextUtterance(text))
	writeJSON(w, http.StatusOK, map[string]any{
		"intent": reply.Intent.Label(),
		"reply":  optional(reply.Text, reply.Text != ""),
		"ok":     reply.OK,
	})
}

func (s *Server) handleUploadAudio(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxAudioBody)

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read upload")
		return
	}
	if len(data) == 0 {
		writeError(w, http.StatusBadRequest, "empty audio")
		return
	}

	path, err := s.saveUpload(header.Filename, data)
	if err != nil {
		s.logger.Error("saving upload", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save upload")
		return
	}
	s.logger.Info("received audio upload", "path", path, "bytes", len(data))

	text, err := s.stt.Transcribe(r.Context(), data)
	if err != nil {
		s.logger.Error("transcribing upload", "path", path, "error", err)
		writeError(w, http.StatusBadGateway, "transcription failed")
		return
	}
	s.logger.Info("transcribed upload", "text", text)

	reply, ok := s.service.Chat(r.Context(), domain.NewSpeechUtterance(text))
	writeJSON(w, http.StatusOK, map[string]any{"reply": optional(reply, ok)})
}

// saveUpload stores the upload under a generated name, keeping only the
// client's file extension.
func (s *Server) saveUpload(filename string, data []byte) (string, error) {
	if err := os.MkdirAll(s.opts.UploadDir, 0755); err != nil {
		return "", fmt.Errorf("creating upload dir: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(filepath.Base(filename)))
	if len(ext) > 8 || strings.ContainsAny(ext, `/\`) {
		ext = ""
	}

	path := filepath.Join(s.opts.UploadDir, uuid.NewString()+ext)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}

func (s *Server) handleItems(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, nonNil(s.service.Items(r.Context())))
}

func (s *Server) handleSchedules(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, nonNil(s.service.Schedules(r.Context())))
}

func (s *Server) handleChatHistory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, nonNil(s.service.ChatHistory(r.Context())))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "ok",
		"uptime_seconds": int(time.Since(s.started).Seconds()),
	})
}

func nonNil[T any](records []T) []T {
	if records == nil {
		return []T{}
	}
	return records
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
