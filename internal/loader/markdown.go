package loader

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

// mdParser is the shared goldmark instance for markdown parsing.
// goldmark.Markdown is safe for concurrent use.
var mdParser = goldmark.New(
	goldmark.WithExtensions(extension.Table),
)

// parseMarkdown extracts the plain text of a markdown document into a single record.
// Formatting is discarded; only the readable text is kept for embedding.
func parseMarkdown(content []byte, source string) ([]Record, error) {
	if len(content) == 0 {
		return nil, nil
	}

	reader := text.NewReader(content)
	doc := mdParser.Parser().Parse(reader)

	var builder strings.Builder
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *ast.Text:
			builder.Write(node.Segment.Value(content))
			if node.HardLineBreak() || node.SoftLineBreak() {
				builder.WriteByte('\n')
			}
		case *ast.String:
			builder.Write(node.Value)
		case *ast.CodeBlock, *ast.FencedCodeBlock:
			lines := n.Lines()
			for i := 0; i < lines.Len(); i++ {
				line := lines.At(i)
				builder.Write(line.Value(content))
			}
		case *ast.Heading, *ast.Paragraph, *ast.ListItem, *ast.Blockquote:
			if builder.Len() > 0 && !strings.HasSuffix(builder.String(), "\n") {
				builder.WriteByte('\n')
			}
		}
		return ast.WalkContinue, nil
	})

	extracted := strings.TrimSpace(builder.String())
	if extracted == "" {
		return nil, nil
	}

	return []Record{{
		Content:  extracted,
		Metadata: map[string]string{"source": source},
	}}, nil
}
