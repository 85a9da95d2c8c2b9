package loader

import (
	"html"
	"regexp"
	"strings"
)

// Pre-compiled regular expressions for HTML text extraction.
var (
	scriptTag     = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	styleTag      = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	noscriptTag   = regexp.MustCompile(`(?is)<noscript[^>]*>.*?</noscript>`)
	htmlComments  = regexp.MustCompile(`(?s)<!--.*?-->`)
	blockElements = regexp.MustCompile(`(?i)</?(p|div|br|hr|h[1-6]|li|ul|ol|tr|td|th|blockquote|pre|table|section|article|header|footer)[^>]*>`)
	allTags       = regexp.MustCompile(`<[^>]+>`)
	multiSpaces   = regexp.MustCompile(`[ \t]+`)
)

// parseHTML strips tags from an HTML document and wraps the readable text
// into a single record.
func parseHTML(content []byte, source string) ([]Record, error) {
	text := HTMLText(string(content))
	if text == "" {
		return nil, nil
	}
	return []Record{{
		Content:  text,
		Metadata: map[string]string{"source": source},
	}}, nil
}

// HTMLText converts HTML markup to readable plain text.
// Script, style and noscript blocks are dropped entirely; block elements
// become line breaks; entities are decoded. The link fetcher shares this
// to extract page text.
func HTMLText(content string) string {
	content = scriptTag.ReplaceAllString(content, "")
	content = styleTag.ReplaceAllString(content, "")
	content = noscriptTag.ReplaceAllString(content, "")
	content = htmlComments.ReplaceAllString(content, "")

	content = blockElements.ReplaceAllString(content, "\n")
	content = allTags.ReplaceAllString(content, "")
	content = html.UnescapeString(content)
	content = multiSpaces.ReplaceAllString(content, " ")

	// Trim each line and drop empty ones
	lines := strings.Split(content, "\n")
	var result []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			result = append(result, line)
		}
	}

	return strings.Join(result, "\n")
}
