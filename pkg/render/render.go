// Package render turns generated memo text into a closed set of typed content blocks.
//
// Only four constructs are recognized: headings of level 1 to 3, "-" or "*" list
// items, blank-line separated paragraphs and "**strong**" spans. Everything else,
// including HTML, script markup, links and code fences, is kept as literal text.
package render

import (
	"strings"

	"github.com/aretw0/deepstock/pkg/domain"
)

const strongMarker = "**"

// Render converts raw text into content blocks in a single pass over its lines.
func Render(raw string) []domain.ContentBlock {
	p := &parser{}
	for _, line := range strings.Split(normalizeNewlines(raw), "\n") {
		p.line(line)
	}
	p.flush()
	return p.blocks
}

type parser struct {
	blocks    []domain.ContentBlock
	paragraph []string
	items     [][]domain.InlineRun
}

func (p *parser) line(line string) {
	content := strings.TrimLeft(line, " \t")
	if strings.TrimSpace(content) == "" {
		p.flush()
		return
	}

	if level, text, ok := heading(content); ok {
		p.flush()
		p.blocks = append(p.blocks, domain.Heading(level, joinRuns(parseInline(text))))
		return
	}

	if text, ok := listItem(content); ok {
		p.flushParagraph()
		p.items = append(p.items, parseInline(text))
		return
	}

	p.flushList()
	p.paragraph = append(p.paragraph, strings.TrimSpace(content))
}

func (p *parser) flush() {
	p.flushParagraph()
	p.flushList()
}

func (p *parser) flushParagraph() {
	if len(p.paragraph) == 0 {
		return
	}
	p.blocks = append(p.blocks, domain.Paragraph(parseInline(strings.Join(p.paragraph, " "))...))
	p.paragraph = nil
}

func (p *parser) flushList() {
	if len(p.items) == 0 {
		return
	}
	p.blocks = append(p.blocks, domain.UnorderedList(p.items...))
	p.items = nil
}

// heading matches "#", "##" or "###" followed by a space.
func heading(line string) (int, string, bool) {
	level := 0
	for level < len(line) && line[level] == '#' {
		level++
	}
	if level == 0 || level > 3 || level >= len(line) || line[level] != ' ' {
		return 0, "", false
	}
	return level, strings.TrimSpace(line[level+1:]), true
}

func listItem(line string) (string, bool) {
	if len(line) < 2 || line[1] != ' ' || (line[0] != '-' && line[0] != '*') {
		return "", false
	}
	return strings.TrimSpace(line[2:]), true
}

// parseInline splits text into literal and strong runs.
// An opening marker without a matching close stays literal.
func parseInline(text string) []domain.InlineRun {
	var runs []domain.InlineRun
	var literal strings.Builder

	rest := text
	for {
		open := strings.Index(rest, strongMarker)
		if open < 0 {
			break
		}
		after := rest[open+len(strongMarker):]
		end := strings.Index(after, strongMarker)
		if end < 0 {
			break
		}
		if end == 0 {
			// "****" carries no content.
			literal.WriteString(rest[:open+2*len(strongMarker)])
			rest = after[len(strongMarker):]
			continue
		}
		literal.WriteString(rest[:open])
		if literal.Len() > 0 {
			runs = append(runs, domain.Text(literal.String()))
			literal.Reset()
		}
		runs = append(runs, domain.Strong(after[:end]))
		rest = after[end+len(strongMarker):]
	}

	literal.WriteString(rest)
	if literal.Len() > 0 {
		runs = append(runs, domain.Text(literal.String()))
	}
	return runs
}

func joinRuns(runs []domain.InlineRun) string {
	var b strings.Builder
	for _, r := range runs {
		b.WriteString(r.Text)
	}
	return b.String()
}

func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}
