// Package mcp exposes the research orchestrator as a Model Context Protocol server.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"golang.org/x/sync/errgroup"

	"github.com/aretw0/deepstock"
	"github.com/aretw0/deepstock/pkg/domain"
	"github.com/aretw0/deepstock/pkg/orchestrator"
	"github.com/aretw0/deepstock/pkg/render"
	"github.com/aretw0/deepstock/pkg/runner"
)

const (
	StateURI  = "deepstock://state"
	ReportURI = "deepstock://report"
)

// ResearchArgs are the arguments of the research tool.
type ResearchArgs struct {
	Subject string `json:"subject"`
}

// ResearchResult is the structured output of the research tool.
type ResearchResult struct {
	Ticket   uint64                `json:"ticket" jsonschema_description:"Submission ticket"`
	Phase    domain.Phase          `json:"phase" jsonschema_description:"Terminal phase of the request"`
	Subject  string                `json:"subject" jsonschema_description:"Researched ticker or company"`
	Markdown string                `json:"markdown,omitempty" jsonschema_description:"The memo as markdown"`
	Blocks   []domain.ContentBlock `json:"blocks,omitempty" jsonschema_description:"The memo as structured blocks"`
	Error    string                `json:"error,omitempty" jsonschema_description:"Failure kind when the request failed"`
	Message  string                `json:"message,omitempty" jsonschema_description:"Failure detail"`
}

// Engine defines the orchestrator surface required by the MCP server.
type Engine interface {
	Submit(raw string) (uint64, bool)
	Wait(ctx context.Context, ticket uint64) (domain.RequestState, error)
	Snapshot() orchestrator.Snapshot
}

// Server wraps the orchestrator and exposes it as an MCP Server.
type Server struct {
	engine    Engine
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(engine Engine, opts ...Option) *Server {
	s := &Server{
		engine:    engine,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		mcpServer: server.NewMCPServer("deepstock-mcp", strings.TrimSpace(deepstock.Version)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying protocol server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the SSE transport on the given port until ctx is cancelled.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	})
	return g.Wait()
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	researchTool := mcp.NewTool("research",
		mcp.WithDescription("Produce an investment research memo for a ticker or company name. Blocks until the memo is ready."),
		mcp.WithString("subject", mcp.Required(), mcp.Description("Ticker symbol or company name, e.g. AAPL")),
		mcp.WithOutputSchema[ResearchResult](),
	)
	s.mcpServer.AddTool(researchTool, mcp.NewStructuredToolHandler(s.handleResearch))

	s.mcpServer.AddTool(mcp.NewTool("get_state",
		mcp.WithDescription("Get the current request state and whether a credential is required."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		payload, err := json.Marshal(s.engine.Snapshot())
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("encode state: %v", err)), nil
		}
		return mcp.NewToolResultText(string(payload)), nil
	})
}

func (s *Server) handleResearch(ctx context.Context, request mcp.CallToolRequest, args ResearchArgs) (ResearchResult, error) {
	subject, err := runner.SanitizeInput(args.Subject)
	if err != nil {
		s.logger.Warn("MCP Research: Input rejected", "error", err, "size", len(args.Subject))
		return ResearchResult{}, fmt.Errorf("input rejected: %w", err)
	}

	ticket, ok := s.engine.Submit(subject)
	if !ok {
		return ResearchResult{}, domain.ErrEmptySubject
	}

	st, err := s.engine.Wait(ctx, ticket)
	if err != nil {
		return ResearchResult{}, fmt.Errorf("research %q: %w", subject, err)
	}

	res := ResearchResult{
		Ticket:  ticket,
		Phase:   st.Phase,
		Subject: st.Subject.String(),
	}
	if st.Phase == domain.PhaseFailed {
		res.Error = string(st.ErrorKind)
		res.Message = st.Message
		return res, nil
	}
	res.Markdown = render.ToMarkdown(st.Blocks)
	res.Blocks = st.Blocks
	return res, nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(StateURI, "Current Request State",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		payload, err := json.Marshal(s.engine.Snapshot())
		if err != nil {
			return nil, fmt.Errorf("encode state: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      StateURI,
				MIMEType: "application/json",
				Text:     string(payload),
			},
		}, nil
	})

	s.mcpServer.AddResource(mcp.NewResource(ReportURI, "Latest Research Memo",
		mcp.WithMIMEType("text/markdown"),
	), s.readReport)
}

func (s *Server) readReport(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	st := s.engine.Snapshot().State
	if st.Phase != domain.PhaseSucceeded {
		return nil, fmt.Errorf("no report available (phase %s)", st.Phase)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      ReportURI,
			MIMEType: "text/markdown",
			Text:     render.ToMarkdown(st.Blocks),
		},
	}, nil
}
