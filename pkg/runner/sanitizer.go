package runner

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	// DefaultMaxInputSize bounds one input line in bytes. Subjects are short;
	// the limit mostly guards against pasted documents.
	DefaultMaxInputSize = 1024
	// EnvMaxInputSize overrides DefaultMaxInputSize.
	EnvMaxInputSize = "DEEPSTOCK_MAX_INPUT_SIZE"
)

var (
	ErrInputTooLarge = errors.New("input exceeds maximum allowed size")
	ErrInvalidUTF8   = errors.New("input contains invalid UTF-8 sequences")
)

// SanitizeInput prepares a line of user input for submission.
// It rejects oversized or non-UTF-8 input, turns line breaks and tabs into
// spaces and drops every other control character (ANSI escapes, NUL, BEL).
// Surrounding whitespace is left for the orchestrator to trim.
func SanitizeInput(input string) (string, error) {
	if limit := maxInputSize(); len(input) > limit {
		// Reject rather than truncate: a cut subject would research something else.
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrInputTooLarge, len(input), limit)
	}
	if !utf8.ValidString(input) {
		return "", ErrInvalidUTF8
	}

	if strings.IndexFunc(input, unicode.IsControl) < 0 {
		return input, nil
	}

	var b strings.Builder
	b.Grow(len(input))
	for _, r := range input {
		switch {
		case r == '\n' || r == '\r' || r == '\t':
			b.WriteByte(' ')
		case unicode.IsControl(r):
		default:
			b.WriteRune(r)
		}
	}
	return b.String(), nil
}

func maxInputSize() int {
	if val := os.Getenv(EnvMaxInputSize); val != "" {
		if size, err := strconv.Atoi(val); err == nil && size > 0 {
			return size
		}
	}
	return DefaultMaxInputSize
}
