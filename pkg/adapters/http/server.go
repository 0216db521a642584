package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aretw0/deepstock"
	"github.com/aretw0/deepstock/pkg/domain"
	"github.com/aretw0/deepstock/pkg/orchestrator"
	"github.com/aretw0/deepstock/pkg/render"
	"github.com/aretw0/deepstock/pkg/runner"
)

// Engine defines the orchestrator surface the HTTP API drives.
type Engine interface {
	Submit(raw string) (uint64, bool)
	Snapshot() orchestrator.Snapshot
	Wait(ctx context.Context, ticket uint64) (domain.RequestState, error)
	Subscribe() (<-chan domain.RequestState, func())
	SetCredential(ctx context.Context, value string) error
	Credential() domain.Credential
}

// Server holds the HTTP handlers.
type Server struct {
	Engine   Engine
	Logger   *slog.Logger
	Gatherer prometheus.Gatherer
}

// Option configures the handler.
type Option func(*Server)

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.Logger = logger
	}
}

// WithMetrics exposes the gatherer on GET /metrics.
func WithMetrics(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.Gatherer = g
	}
}

// NewHandler creates a new HTTP handler for the engine.
func NewHandler(engine Engine, opts ...Option) http.Handler {
	server := &Server{
		Engine: engine,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(server)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Get("/healthz", server.GetHealth)
	r.Get("/info", server.GetInfo)
	r.Get("/state", server.GetState)
	r.Get("/report", server.GetReport)
	r.Post("/research", server.Research)
	r.Get("/credential", server.GetCredential)
	r.Put("/credential", server.PutCredential)
	r.Delete("/credential", server.DeleteCredential)
	r.Get("/events", server.SubscribeEvents)
	if server.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(server.Gatherer, promhttp.HandlerOpts{}))
	}

	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ResearchRequest is the body of POST /research.
type ResearchRequest struct {
	Subject string `json:"subject"`
}

// ResearchResponse acknowledges an accepted submission.
type ResearchResponse struct {
	Ticket uint64              `json:"ticket"`
	State  domain.RequestState `json:"state"`
}

// CredentialRequest is the body of PUT /credential.
type CredentialRequest struct {
	Value string `json:"value"`
}

// CredentialResponse never carries the raw secret.
type CredentialResponse struct {
	Set      bool   `json:"set"`
	Masked   string `json:"masked"`
	Required bool   `json:"required"`
}

// Research handles the POST /research request.
func (s *Server) Research(w http.ResponseWriter, r *http.Request) {
	var body ResearchRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.Logger.Warn("Research: Invalid request body", "error", err)
		return
	}

	// Sanitize Input (Global Policy)
	subject, err := runner.SanitizeInput(body.Subject)
	if err != nil {
		http.Error(w, fmt.Sprintf("Invalid subject: %v", err), http.StatusBadRequest)
		s.Logger.Warn("Research: Input rejected", "error", err, "size", len(body.Subject))
		return
	}

	ticket, ok := s.Engine.Submit(subject)
	if !ok {
		http.Error(w, domain.ErrEmptySubject.Error(), http.StatusBadRequest)
		return
	}

	wait, _ := strconv.ParseBool(r.URL.Query().Get("wait"))
	if !wait {
		writeJSON(w, http.StatusAccepted, ResearchResponse{Ticket: ticket, State: s.Engine.Snapshot().State}, s.Logger)
		return
	}

	st, err := s.Engine.Wait(r.Context(), ticket)
	switch {
	case errors.Is(err, domain.ErrSuperseded):
		http.Error(w, "Request superseded by a newer submission", http.StatusConflict)
		return
	case err != nil:
		s.Logger.Info("Research: Wait aborted", "ticket", ticket, "error", err)
		http.Error(w, fmt.Sprintf("Wait aborted: %v", err), http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, ResearchResponse{Ticket: ticket, State: st}, s.Logger)
}

// GetState handles the GET /state request.
func (s *Server) GetState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Engine.Snapshot(), s.Logger)
}

// GetReport handles the GET /report request: the current memo as markdown.
func (s *Server) GetReport(w http.ResponseWriter, r *http.Request) {
	st := s.Engine.Snapshot().State
	if st.Phase != domain.PhaseSucceeded {
		http.Error(w, "No report available", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	_, _ = io.WriteString(w, render.ToMarkdown(st.Blocks))
}

// GetCredential handles the GET /credential request.
func (s *Server) GetCredential(w http.ResponseWriter, r *http.Request) {
	cred := s.Engine.Credential()
	writeJSON(w, http.StatusOK, CredentialResponse{
		Set:      cred.IsSet(),
		Masked:   cred.Masked(),
		Required: s.Engine.Snapshot().CredentialRequired,
	}, s.Logger)
}

// PutCredential handles the PUT /credential request.
func (s *Server) PutCredential(w http.ResponseWriter, r *http.Request) {
	var body CredentialRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	s.setCredential(w, r, strings.TrimSpace(body.Value))
}

// DeleteCredential handles the DELETE /credential request.
func (s *Server) DeleteCredential(w http.ResponseWriter, r *http.Request) {
	s.setCredential(w, r, "")
}

func (s *Server) setCredential(w http.ResponseWriter, r *http.Request, value string) {
	if err := s.Engine.SetCredential(r.Context(), value); err != nil {
		// The in-memory credential is already active; only persistence failed.
		s.Logger.Error("Credential persist failed", "error", err)
		http.Error(w, fmt.Sprintf("Credential not persisted: %v", err), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetHealth handles the GET /healthz request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"}, s.Logger)
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"app":     "deepstock-http",
		"version": strings.TrimSpace(deepstock.Version),
	}, s.Logger)
}

// SubscribeEvents handles the GET /events request (SSE).
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.Logger.Error("SubscribeEvents: Streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	states, cancel := s.Engine.Subscribe()
	defer cancel()

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.Logger.Debug("SSE Client Disconnected")
			return
		case st, ok := <-states:
			if !ok {
				return
			}
			payload, err := json.Marshal(st)
			if err != nil {
				s.Logger.Error("SSE: state encode failed", "error", err)
				continue
			}
			fmt.Fprintf(w, "event: state\ndata: %s\n\n", payload)
			flusher.Flush()
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Response encode failed", "error", err)
	}
}
