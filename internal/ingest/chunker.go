package ingest

import (
	"strings"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

const (
	// Rune budgets per chunk. maxChunkSize targets roughly 450 tokens for a
	// 512-token embedding model.
	minChunkSize = 50
	maxChunkSize = 700
)

// Chunk is one embeddable piece of a file's extracted text.
type Chunk struct {
	Index   int
	Heading string
	Text    string
}

// Chunker splits extracted file text into heading-aware, size-constrained
// chunks. Extracted text is treated as markdown; plain text degrades to
// paragraph splitting.
type Chunker struct {
	parser goldmark.Markdown
}

func NewChunker() *Chunker {
	return &Chunker{
		parser: goldmark.New(
			goldmark.WithExtensions(extension.Table),
		),
	}
}

// Chunk splits content into chunks. Empty content yields no chunks.
func (c *Chunker) Chunk(content []byte) []Chunk {
	if len(strings.TrimSpace(string(content))) == 0 {
		return nil
	}

	reader := text.NewReader(content)
	doc := c.parser.Parser().Parse(reader)

	chunks := c.collect(doc, content)
	return applySizeConstraints(chunks)
}

// collect walks the AST, starting a new chunk at every heading and
// accumulating the text in between.
func (c *Chunker) collect(doc ast.Node, content []byte) []Chunk {
	var chunks []Chunk
	var current *Chunk

	flush := func() {
		if current != nil && strings.TrimSpace(current.Text) != "" {
			current.Text = strings.TrimSpace(current.Text)
			chunks = append(chunks, *current)
		}
	}

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *ast.Heading:
			flush()
			current = &Chunk{
				Index:   len(chunks),
				Heading: nodeText(node, content),
			}
			return ast.WalkSkipChildren, nil

		case *ast.Text:
			if current == nil {
				current = &Chunk{Index: len(chunks)}
			}
			current.Text += string(node.Segment.Value(content))

		case *ast.String:
			if current == nil {
				current = &Chunk{Index: len(chunks)}
			}
			current.Text += string(node.Value)

		case *ast.Paragraph, *ast.List, *ast.ListItem:
			if current != nil && current.Text != "" && !strings.HasSuffix(current.Text, "\n") {
				current.Text += "\n"
			}

		case *ast.CodeBlock:
			if current == nil {
				current = &Chunk{Index: len(chunks)}
			}
			lines := node.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				current.Text += string(seg.Value(content))
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	flush()

	// No markdown structure at all: fall back to the raw text as one chunk.
	if len(chunks) == 0 {
		chunks = append(chunks, Chunk{Index: 0, Text: strings.TrimSpace(string(content))})
	}
	return chunks
}

func nodeText(n ast.Node, content []byte) string {
	var sb strings.Builder
	_ = ast.Walk(n, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := node.(type) {
		case *ast.Text:
			sb.Write(v.Segment.Value(content))
		case *ast.String:
			sb.Write(v.Value)
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(sb.String())
}

// applySizeConstraints merges undersized chunks forward and splits oversized
// ones, then re-indexes.
func applySizeConstraints(chunks []Chunk) []Chunk {
	if len(chunks) == 0 {
		return chunks
	}

	var result []Chunk
	i := 0
	for i < len(chunks) {
		current := chunks[i]

		for utf8.RuneCountInString(current.Text) < minChunkSize && i+1 < len(chunks) {
			next := chunks[i+1]
			merged := current.Text + "\n\n" + next.Text
			if utf8.RuneCountInString(merged) > maxChunkSize {
				break
			}
			current.Text = merged
			if current.Heading == "" {
				current.Heading = next.Heading
			}
			i++
		}

		if utf8.RuneCountInString(current.Text) > maxChunkSize {
			result = append(result, splitChunk(current)...)
		} else {
			result = append(result, current)
		}
		i++
	}

	for i := range result {
		result[i].Index = i
	}
	return result
}

// splitChunk breaks an oversized chunk, preferring paragraph, then line,
// then sentence boundaries before a hard cut.
func splitChunk(chunk Chunk) []Chunk {
	runes := []rune(chunk.Text)
	if len(runes) <= maxChunkSize {
		return []Chunk{chunk}
	}

	var splits []Chunk
	start := 0
	for start < len(runes) {
		end := start + maxChunkSize
		if end >= len(runes) {
			splits = append(splits, Chunk{Heading: chunk.Heading, Text: string(runes[start:])})
			break
		}

		window := string(runes[start:end])
		splitPoint := end
		if b := strings.LastIndex(window, "\n\n"); b != -1 {
			splitPoint = start + utf8.RuneCountInString(window[:b]) + 2
		} else if b := strings.LastIndex(window, "\n"); b != -1 {
			splitPoint = start + utf8.RuneCountInString(window[:b]) + 1
		} else if b := strings.LastIndex(window, ". "); b != -1 {
			splitPoint = start + utf8.RuneCountInString(window[:b]) + 2
		}

		splits = append(splits, Chunk{Heading: chunk.Heading, Text: string(runes[start:splitPoint])})
		start = splitPoint
	}
	return splits
}
