package rendering

import "strings"

// BlockKind is the type of a canonical markdown element
type BlockKind string

const (
	BlockHeading   BlockKind = "heading"
	BlockList      BlockKind = "list"
	BlockParagraph BlockKind = "paragraph"
)

// Block is one element of a parsed canonical document.
// Headings use Level and Text, lists use Items, paragraphs use Text.
type Block struct {
	Kind  BlockKind
	Level int
	Text  string
	Items []string
}

// headingPrefixes is checked longest first so "### " is not read as "# "
var headingPrefixes = []struct {
	prefix string
	level  int
}{
	{"### ", 3},
	{"## ", 2},
	{"# ", 1},
}

// ParseBlocks scans canonical markdown line by line. Headings close any open
// paragraph or list; consecutive "- " lines form one list; other non-empty
// lines join the open paragraph with a space. A blank line closes everything.
func ParseBlocks(markdown string) []Block {
	var (
		blocks []Block
		para   []string
		list   []string
	)
	flushPara := func() {
		if len(para) > 0 {
			blocks = append(blocks, Block{Kind: BlockParagraph, Text: strings.Join(para, " ")})
			para = nil
		}
	}
	flushList := func() {
		if len(list) > 0 {
			blocks = append(blocks, Block{Kind: BlockList, Items: list})
			list = nil
		}
	}

	for _, raw := range strings.Split(markdown, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			flushPara()
			flushList()
			continue
		}

		if level, text, ok := headingLine(line); ok {
			flushPara()
			flushList()
			blocks = append(blocks, Block{Kind: BlockHeading, Level: level, Text: text})
			continue
		}

		if item, ok := strings.CutPrefix(line, "- "); ok {
			flushPara()
			if item = strings.TrimSpace(item); item != "" {
				list = append(list, item)
			}
			continue
		}

		flushList()
		para = append(para, line)
	}
	flushPara()
	flushList()
	return blocks
}

func headingLine(line string) (int, string, bool) {
	for _, h := range headingPrefixes {
		if text, ok := strings.CutPrefix(line, h.prefix); ok {
			return h.level, strings.TrimSpace(text), true
		}
	}
	return 0, "", false
}

// Title returns the text of the first level-1 heading, or "" when there is none
func Title(blocks []Block) string {
	for _, b := range blocks {
		if b.Kind == BlockHeading && b.Level == 1 {
			return b.Text
		}
	}
	return ""
}
