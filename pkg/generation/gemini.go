// Package generation adapts the Gemini API to the ports.Generator contract.
package generation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"google.golang.org/genai"

	"github.com/aretw0/deepstock/pkg/domain"
	"github.com/aretw0/deepstock/pkg/ports"
)

// DefaultModel is the Gemini model used when none is configured.
const DefaultModel = "gemini-1.5-pro"

// VerifyPrompt is the probe sent by Verify.
const VerifyPrompt = "Say 'The key matches' if you can read this."

// Client calls Gemini once per Generate. It holds no per-request state.
type Client struct {
	model      string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithModel selects the Gemini model.
func WithModel(model string) Option {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

// WithBaseURL points the client at an alternative API endpoint.
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithHTTPClient overrides the transport.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New creates a Gemini client.
func New(opts ...Option) *Client {
	c := &Client{
		model:  DefaultModel,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ ports.Generator = (*Client)(nil)

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.model
}

// Generate sends the prompt and returns the complete response text.
// Every failure is a *domain.GenerationError.
func (c *Client) Generate(ctx context.Context, prompt string, credential domain.Credential) (string, error) {
	if !credential.IsSet() {
		return "", domain.MissingCredentialError()
	}

	api, err := c.connect(ctx, credential)
	if err != nil {
		return "", domain.TransportError(err)
	}

	start := time.Now()
	resp, err := api.Models.GenerateContent(ctx, c.model, genai.Text(prompt), nil)
	if err != nil {
		genErr := classify(err)
		c.logger.Warn("Gemini generate failed",
			"model", c.model,
			"kind", genErr.Kind,
			"status", genErr.Status,
			"duration", time.Since(start),
			"error", err,
		)
		return "", genErr
	}

	text := resp.Text()
	if text == "" && resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		msg := fmt.Sprintf("prompt blocked: %s", resp.PromptFeedback.BlockReason)
		if resp.PromptFeedback.BlockReasonMessage != "" {
			msg += ": " + resp.PromptFeedback.BlockReasonMessage
		}
		return "", domain.RejectedError(0, msg, nil)
	}

	c.logger.Debug("Gemini generate succeeded", "model", c.model, "chars", len(text), "duration", time.Since(start))
	return text, nil
}

// Verify sends a short probe prompt to check that the credential is accepted.
func (c *Client) Verify(ctx context.Context, credential domain.Credential) (string, error) {
	return c.Generate(ctx, VerifyPrompt, credential)
}

// ModelInfo describes a model available to a credential.
type ModelInfo struct {
	Name        string   `json:"name"`
	DisplayName string   `json:"display_name,omitempty"`
	Actions     []string `json:"actions,omitempty"`
}

// ListModels enumerates the models the credential can access.
func (c *Client) ListModels(ctx context.Context, credential domain.Credential) ([]ModelInfo, error) {
	if !credential.IsSet() {
		return nil, domain.MissingCredentialError()
	}

	api, err := c.connect(ctx, credential)
	if err != nil {
		return nil, domain.TransportError(err)
	}

	var models []ModelInfo
	for m, err := range api.Models.All(ctx) {
		if err != nil {
			return nil, classify(err)
		}
		models = append(models, ModelInfo{
			Name:        m.Name,
			DisplayName: m.DisplayName,
			Actions:     m.SupportedActions,
		})
	}
	return models, nil
}

func (c *Client) connect(ctx context.Context, credential domain.Credential) (*genai.Client, error) {
	cfg := &genai.ClientConfig{
		APIKey:     credential.Value(),
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: c.httpClient,
	}
	if c.baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: c.baseURL}
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create Gemini client: %w", err)
	}
	return client, nil
}

// classify maps an SDK error onto the failure taxonomy.
// Only an API status reply counts as a rejection; everything else is transport.
func classify(err error) *domain.GenerationError {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return domain.RejectedError(apiErr.Code, apiMessage(apiErr), err)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return domain.RejectedError(apiErrPtr.Code, apiMessage(*apiErrPtr), err)
	}
	return domain.TransportError(err)
}

func apiMessage(e genai.APIError) string {
	if e.Message != "" {
		return e.Message
	}
	if e.Status != "" {
		return e.Status
	}
	return http.StatusText(e.Code)
}
