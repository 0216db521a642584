package runner

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/aretw0/deepstock/pkg/domain"
)

// JSONHandler implements the IOHandler interface for structured JSON-Lines communication.
type JSONHandler struct {
	Reader  *bufio.Reader
	Writer  io.Writer
	Encoder *json.Encoder
}

// JSONMessage is one output line.
type JSONMessage struct {
	Type    string               `json:"type"`
	State   *domain.RequestState `json:"state,omitempty"`
	Message string               `json:"message,omitempty"`
}

// NewJSONHandler creates a handler for JSON IO.
func NewJSONHandler(r io.Reader, w io.Writer) *JSONHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	return &JSONHandler{
		Reader:  bufio.NewReader(r),
		Writer:  w,
		Encoder: json.NewEncoder(w),
	}
}

// Input reads one line. It accepts {"subject": "..."}, a JSON string or raw text.
func (h *JSONHandler) Input(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	text, err := h.Reader.ReadString('\n')
	if err != nil && (err != io.EOF || text == "") {
		return "", err
	}
	text = strings.TrimSpace(text)

	var req struct {
		Subject string `json:"subject"`
	}
	if json.Unmarshal([]byte(text), &req) == nil && req.Subject != "" {
		return SanitizeInput(req.Subject)
	}

	var val string
	if json.Unmarshal([]byte(text), &val) == nil {
		return SanitizeInput(val)
	}

	// Fallback: raw text
	return SanitizeInput(text)
}

func (h *JSONHandler) Output(ctx context.Context, st domain.RequestState) error {
	return h.Encoder.Encode(JSONMessage{Type: "state", State: &st})
}

func (h *JSONHandler) SystemOutput(ctx context.Context, msg string) error {
	return h.Encoder.Encode(JSONMessage{Type: "system", Message: msg})
}
