package document

import (
	"fmt"
	"io"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// ParseTipTap reads a TipTap JSON document into blocks.
// Unknown node and mark types are skipped.
func ParseTipTap(data []byte) ([]Block, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: malformed JSON", ErrInvalidDocument)
	}
	root := gjson.ParseBytes(data)
	if t := root.Get("type").String(); t != "doc" {
		return nil, fmt.Errorf("%w: root type %q, want \"doc\"", ErrInvalidDocument, t)
	}

	var blocks []Block
	root.Get("content").ForEach(func(_, node gjson.Result) bool {
		blocks = append(blocks, parseNode(node)...)
		return true
	})
	return blocks, nil
}

// LoadTipTap reads a TipTap JSON document and opens a session on it.
func LoadTipTap(r io.Reader) (*Session, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading document: %w", err)
	}
	blocks, err := ParseTipTap(data)
	if err != nil {
		return nil, err
	}
	return New(blocks...), nil
}

func parseNode(node gjson.Result) []Block {
	switch t := BlockType(node.Get("type").String()); t {
	case BlockParagraph:
		return []Block{NewBlock(BlockParagraph, 0, parseInline(node)...)}
	case BlockHeading:
		level := int(node.Get("attrs.level").Int())
		if level < 1 || level > MaxHeadingLevel {
			level = 1
		}
		return []Block{NewBlock(BlockHeading, level, parseInline(node)...)}
	case BlockCodeBlock:
		b := NewBlock(BlockCodeBlock, 0, parseInline(node)...)
		b.Runs = normalize([]Run{{Text: b.PlainText()}})
		return []Block{b}
	case BlockBlockquote:
		return parseContainer(node, BlockBlockquote)
	case BlockBulletList, BlockOrderedList:
		var out []Block
		node.Get("content").ForEach(func(_, item gjson.Result) bool {
			if item.Get("type").String() == "listItem" {
				out = append(out, parseContainer(item, t)...)
			}
			return true
		})
		return out
	}
	return nil
}

// parseContainer flattens the textblocks of a container into blocks of type t.
func parseContainer(node gjson.Result, t BlockType) []Block {
	var out []Block
	node.Get("content").ForEach(func(_, child gjson.Result) bool {
		switch child.Get("type").String() {
		case "paragraph", "heading":
			out = append(out, NewBlock(t, 0, parseInline(child)...))
		}
		return true
	})
	if len(out) == 0 {
		out = append(out, NewBlock(t, 0))
	}
	return out
}

func parseInline(node gjson.Result) []Run {
	var runs []Run
	node.Get("content").ForEach(func(_, child gjson.Result) bool {
		switch child.Get("type").String() {
		case "text":
			var marks MarkSet
			child.Get("marks.#.type").ForEach(func(_, m gjson.Result) bool {
				marks = marks.With(MarkType(m.String()))
				return true
			})
			runs = append(runs, Run{Text: child.Get("text").String(), Marks: marks})
		case "hardBreak":
			runs = append(runs, Run{Text: "\n"})
		}
		return true
	})
	return runs
}

// TipTapJSON exports the session document as TipTap JSON. Consecutive
// blockquote and list blocks are grouped into one container node and line
// breaks outside code blocks become hardBreak nodes.
func (s *Session) TipTapJSON() ([]byte, error) {
	return MarshalTipTap(s.Blocks())
}

// MarshalTipTap exports blocks as TipTap JSON.
func MarshalTipTap(blocks []Block) ([]byte, error) {
	doc := []byte(`{"type":"doc","content":[]}`)
	var err error

	for i := 0; i < len(blocks); {
		b := blocks[i]
		j := i + 1
		if b.Type == BlockBlockquote || b.Type.IsList() {
			for j < len(blocks) && blocks[j].Type == b.Type {
				j++
			}
		}

		var node []byte
		switch {
		case b.Type == BlockBlockquote:
			node, err = containerJSON(string(BlockBlockquote), "", blocks[i:j])
		case b.Type.IsList():
			node, err = containerJSON(string(b.Type), "listItem", blocks[i:j])
		default:
			node, err = textblockJSON(b)
		}
		if err != nil {
			return nil, err
		}
		if doc, err = sjson.SetRawBytes(doc, "content.-1", node); err != nil {
			return nil, err
		}
		i = j
	}
	return doc, nil
}

func containerJSON(nodeType, itemType string, blocks []Block) ([]byte, error) {
	node, err := sjson.SetBytes([]byte(`{"content":[]}`), "type", nodeType)
	if err != nil {
		return nil, err
	}
	for _, b := range blocks {
		para := b
		para.Type, para.Level = BlockParagraph, 0
		child, err := textblockJSON(para)
		if err != nil {
			return nil, err
		}
		if itemType != "" {
			item, err := sjson.SetBytes([]byte(`{"content":[]}`), "type", itemType)
			if err != nil {
				return nil, err
			}
			if child, err = sjson.SetRawBytes(item, "content.-1", child); err != nil {
				return nil, err
			}
		}
		if node, err = sjson.SetRawBytes(node, "content.-1", child); err != nil {
			return nil, err
		}
	}
	return node, nil
}

func textblockJSON(b Block) ([]byte, error) {
	node, err := sjson.SetBytes([]byte(`{}`), "type", string(b.Type))
	if err != nil {
		return nil, err
	}
	if b.Type == BlockHeading {
		if node, err = sjson.SetBytes(node, "attrs.level", b.Level); err != nil {
			return nil, err
		}
	}
	if len(b.Runs) > 0 {
		if node, err = sjson.SetRawBytes(node, "content", []byte(`[]`)); err != nil {
			return nil, err
		}
	}
	for _, r := range b.Runs {
		parts := []string{r.Text}
		if b.Type != BlockCodeBlock {
			parts = strings.Split(r.Text, "\n")
		}
		for i, part := range parts {
			if i > 0 {
				if node, err = sjson.SetRawBytes(node, "content.-1", []byte(`{"type":"hardBreak"}`)); err != nil {
					return nil, err
				}
			}
			if part == "" {
				continue
			}
			text, err := textJSON(part, r.Marks)
			if err != nil {
				return nil, err
			}
			if node, err = sjson.SetRawBytes(node, "content.-1", text); err != nil {
				return nil, err
			}
		}
	}
	return node, nil
}

func textJSON(s string, marks MarkSet) ([]byte, error) {
	text, err := sjson.SetBytes([]byte(`{"type":"text"}`), "text", s)
	if err != nil {
		return nil, err
	}
	if marks != 0 {
		if text, err = sjson.SetRawBytes(text, "marks", []byte(`[]`)); err != nil {
			return nil, err
		}
	}
	for _, m := range marks.Types() {
		mark, err := sjson.SetBytes([]byte(`{}`), "type", string(m))
		if err != nil {
			return nil, err
		}
		if text, err = sjson.SetRawBytes(text, "marks.-1", mark); err != nil {
			return nil, err
		}
	}
	return text, nil
}
