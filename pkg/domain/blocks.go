package domain

// BlockKind enumerates the closed set of content blocks.
type BlockKind string

const (
	BlockHeading       BlockKind = "heading"
	BlockParagraph     BlockKind = "paragraph"
	BlockUnorderedList BlockKind = "unordered_list"
)

// InlineRun is a span of literal text, optionally strong-emphasized.
type InlineRun struct {
	Text   string `json:"text"`
	Strong bool   `json:"strong,omitempty"`
}

// ContentBlock is one structural unit of a rendered memo.
//
//	Heading       -> Level (1-3), Text
//	Paragraph     -> Runs
//	UnorderedList -> Items
type ContentBlock struct {
	Kind  BlockKind     `json:"kind"`
	Level int           `json:"level,omitempty"`
	Text  string        `json:"text,omitempty"`
	Runs  []InlineRun   `json:"runs,omitempty"`
	Items [][]InlineRun `json:"items,omitempty"`
}

// Heading builds a heading block.
func Heading(level int, text string) ContentBlock {
	return ContentBlock{Kind: BlockHeading, Level: level, Text: text}
}

// Paragraph builds a paragraph block from inline runs.
func Paragraph(runs ...InlineRun) ContentBlock {
	return ContentBlock{Kind: BlockParagraph, Runs: runs}
}

// UnorderedList builds a list block; each item is a sequence of inline runs.
func UnorderedList(items ...[]InlineRun) ContentBlock {
	return ContentBlock{Kind: BlockUnorderedList, Items: items}
}

// Text builds a literal run.
func Text(s string) InlineRun {
	return InlineRun{Text: s}
}

// Strong builds a strong-emphasis run.
func Strong(s string) InlineRun {
	return InlineRun{Text: s, Strong: true}
}

// CloneBlocks deep-copies a block sequence.
func CloneBlocks(blocks []ContentBlock) []ContentBlock {
	if blocks == nil {
		return nil
	}
	out := make([]ContentBlock, len(blocks))
	for i, b := range blocks {
		out[i] = b
		if b.Runs != nil {
			out[i].Runs = append([]InlineRun(nil), b.Runs...)
		}
		if b.Items != nil {
			out[i].Items = make([][]InlineRun, len(b.Items))
			for j, item := range b.Items {
				out[i].Items[j] = append([]InlineRun(nil), item...)
			}
		}
	}
	return out
}
