// Package prompt builds the instruction document sent to the generation backend.
package prompt

import (
	_ "embed"
	"errors"
	"strings"
	"sync"

	"github.com/aretw0/deepstock/pkg/domain"
)

// Placeholder marks every slot the subject is substituted into.
const Placeholder = "{{SUBJECT}}"

// ErrNoPlaceholder is returned by New for a template without any slot.
var ErrNoPlaceholder = errors.New("prompt template contains no " + Placeholder + " placeholder")

//go:embed memo.tmpl
var defaultTemplate string

// Builder maps a subject to a complete prompt.
type Builder struct {
	parts []string
}

// Default returns the builder for the built-in 13-section research memo.
var Default = sync.OnceValue(func() *Builder {
	b, err := New(defaultTemplate)
	if err != nil {
		panic(err)
	}
	return b
})

// Build renders the built-in memo prompt for subject.
func Build(subject domain.Subject) string {
	return Default().Build(subject)
}

// New parses a custom template. The template is split once on the placeholder,
// so substituted subjects are never scanned again.
func New(template string) (*Builder, error) {
	if !strings.Contains(template, Placeholder) {
		return nil, ErrNoPlaceholder
	}
	return &Builder{parts: strings.Split(template, Placeholder)}, nil
}

// Build returns the template with the subject in every slot.
func (b *Builder) Build(subject domain.Subject) string {
	return strings.Join(b.parts, subject.String())
}

// Slots reports how many placeholders the template holds.
func (b *Builder) Slots() int {
	return len(b.parts) - 1
}

// Template reconstructs the raw template text.
func (b *Builder) Template() string {
	return strings.Join(b.parts, Placeholder)
}
