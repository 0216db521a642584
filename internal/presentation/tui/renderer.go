package tui

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"

	"github.com/aretw0/deepstock/pkg/domain"
	"github.com/aretw0/deepstock/pkg/render"
)

// NewRenderer returns a content renderer that draws memo blocks with glamour.
// style is a glamour style name ("dark", "light", "notty"); "" or "auto" detects the background.
func NewRenderer(style string, wordWrap int) (func([]domain.ContentBlock) (string, error), error) {
	opts := []glamour.TermRendererOption{}
	switch style {
	case "", "auto":
		opts = append(opts, glamour.WithAutoStyle())
	default:
		opts = append(opts, glamour.WithStandardStyle(style))
	}
	if wordWrap > 0 {
		opts = append(opts, glamour.WithWordWrap(wordWrap))
	}

	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return nil, err
	}

	return func(blocks []domain.ContentBlock) (string, error) {
		return r.Render(render.ToMarkdown(blocks))
	}, nil
}

// StyledText renders blocks with plain ANSI attributes: colored headings,
// bold strong runs, bulleted list items. An Ascii profile yields uncolored text.
func StyledText(blocks []domain.ContentBlock, p termenv.Profile) string {
	var b strings.Builder
	for i, block := range blocks {
		if i > 0 {
			b.WriteString("\n")
		}
		switch block.Kind {
		case domain.BlockHeading:
			s := p.String(block.Text).Bold()
			if block.Level == 1 {
				s = s.Foreground(p.Color("#34d399")).Underline()
			} else {
				s = s.Foreground(p.Color("#38bdf8"))
			}
			b.WriteString(s.String())
			b.WriteString("\n")
		case domain.BlockParagraph:
			b.WriteString(styledRuns(block.Runs, p))
			b.WriteString("\n")
		case domain.BlockUnorderedList:
			for _, item := range block.Items {
				b.WriteString("  • ")
				b.WriteString(styledRuns(item, p))
				b.WriteString("\n")
			}
		}
	}
	return b.String()
}

func styledRuns(runs []domain.InlineRun, p termenv.Profile) string {
	var b strings.Builder
	for _, r := range runs {
		if r.Strong {
			b.WriteString(p.String(r.Text).Bold().String())
			continue
		}
		b.WriteString(r.Text)
	}
	return b.String()
}
