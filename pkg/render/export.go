package render

import (
	"strings"

	"github.com/aretw0/deepstock/pkg/domain"
)

// markdownEscaper backslash-escapes characters a markdown viewer would interpret.
var markdownEscaper = strings.NewReplacer(
	`\`, `\\`,
	"`", "\\`",
	`*`, `\*`,
	`_`, `\_`,
	`[`, `\[`,
	`]`, `\]`,
	`<`, `\<`,
	`>`, `\>`,
	`#`, `\#`,
	`|`, `\|`,
	`~`, `\~`,
	`!`, `\!`,
	`&`, `\&`,
)

// ToMarkdown re-emits blocks as normalized markdown.
// Literal text is escaped so a downstream markdown renderer shows it verbatim.
func ToMarkdown(blocks []domain.ContentBlock) string {
	var b strings.Builder
	for i, block := range blocks {
		if i > 0 {
			b.WriteString("\n")
		}
		switch block.Kind {
		case domain.BlockHeading:
			b.WriteString(strings.Repeat("#", block.Level))
			b.WriteString(" ")
			b.WriteString(escape(block.Text))
			b.WriteString("\n")
		case domain.BlockParagraph:
			b.WriteString(leadingSafe(markdownRuns(block.Runs)))
			b.WriteString("\n")
		case domain.BlockUnorderedList:
			for _, item := range block.Items {
				b.WriteString("- ")
				b.WriteString(markdownRuns(item))
				b.WriteString("\n")
			}
		}
	}
	return b.String()
}

// PlainText flattens blocks into unstyled text.
func PlainText(blocks []domain.ContentBlock) string {
	var b strings.Builder
	for i, block := range blocks {
		if i > 0 {
			b.WriteString("\n")
		}
		switch block.Kind {
		case domain.BlockHeading:
			b.WriteString(block.Text)
			b.WriteString("\n")
		case domain.BlockParagraph:
			b.WriteString(joinRuns(block.Runs))
			b.WriteString("\n")
		case domain.BlockUnorderedList:
			for _, item := range block.Items {
				b.WriteString("- ")
				b.WriteString(joinRuns(item))
				b.WriteString("\n")
			}
		}
	}
	return b.String()
}

func markdownRuns(runs []domain.InlineRun) string {
	var b strings.Builder
	for _, r := range runs {
		if r.Strong {
			b.WriteString(strongMarker)
			b.WriteString(escape(r.Text))
			b.WriteString(strongMarker)
			continue
		}
		b.WriteString(escape(r.Text))
	}
	return b.String()
}

func escape(s string) string {
	return markdownEscaper.Replace(s)
}

// leadingSafe stops a paragraph from being read as a list item, ordered item or rule.
func leadingSafe(s string) string {
	if s == "" {
		return s
	}
	switch s[0] {
	case '-', '+', '=':
		return `\` + s
	}
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i > 0 && i < len(s) && (s[i] == '.' || s[i] == ')') {
		return s[:i] + `\` + s[i:]
	}
	return s
}
