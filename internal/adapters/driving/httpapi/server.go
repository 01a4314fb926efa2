// Package httpapi exposes the question answering pipeline over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/coursetta-labs/coursetta/internal/core/domain"
	"github.com/coursetta-labs/coursetta/internal/core/ports/driving"
	"github.com/coursetta-labs/coursetta/internal/logger"
)

// Default server timeouts.
const (
	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 120 * time.Second
	DefaultShutdownTimeout = 5 * time.Second

	// maxBodyBytes bounds the request body: an 8 MiB image grows by
	// 4/3 under base64, plus headroom for the question text.
	maxBodyBytes = 12 << 20
)

// Server serves the ask API.
type Server struct {
	answers driving.AnswerService
	addr    string
}

// NewServer creates a new HTTP server for the ask API.
func NewServer(answers driving.AnswerService, addr string) *Server {
	return &Server{answers: answers, addr: addr}
}

// askRequest is the POST /api/ request body.
type askRequest struct {
	Question string `json:"question"`
	// Image is an optional base64-encoded attachment.
	Image string `json:"image,omitempty"`
}

// askResponse is the POST /api/ response body.
type askResponse struct {
	Answer string         `json:"answer"`
	Links  []responseLink `json:"links"`
}

type responseLink struct {
	Text string `json:"text"`
	URL  string `json:"url"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Handler returns the routed handler with middleware applied.
// Exposed separately from Start for tests.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/", s.handleAsk)
	mux.HandleFunc("/healthz", s.handleHealth)
	return requestIDMiddleware(mux)
}

// Start runs the HTTP server until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:         s.addr,
		Handler:      s.Handler(),
		ReadTimeout:  DefaultReadTimeout,
		WriteTimeout: DefaultWriteTimeout,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Info("HTTP server listening on %s", s.addr)
	if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// handleAsk answers one question. Malformed input is the caller's fault
// and gets a 400; everything else comes back 200 and Answer-shaped,
// even when the pipeline degraded.
func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}

	answer, err := s.answers.Ask(r.Context(), req.Question, req.Image)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		logger.Error("ask: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}

	links := make([]responseLink, len(answer.Links))
	for i, l := range answer.Links {
		links[i] = responseLink{Text: l.Title, URL: l.URL}
	}
	writeJSON(w, http.StatusOK, askResponse{Answer: answer.Text, Links: links})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("write response: %v", err)
	}
}

// requestIDMiddleware tags each request with a UUID and logs its
// method, path, status and duration.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		w.Header().Set("X-Request-ID", id)

		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(recorder, r)
		logger.Debug("%s %s %d %v request_id=%s",
			r.Method, r.URL.Path, recorder.status, time.Since(start), id)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
