package loader

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// docxDocumentXMLPath is the path to the main document body inside a .docx zip.
const docxDocumentXMLPath = "word/document.xml"

// wtTag matches <w:t>text</w:t> including variants with attributes
// such as <w:t xml:space="preserve">.
var wtTag = regexp.MustCompile(`<w:t[^>]*>([^<]*)</w:t>`)

// wpClose matches the end of a paragraph, used to keep paragraph breaks.
var wpClose = regexp.MustCompile(`</w:p>`)

// parseDOCX extracts text from .docx bytes into a single record.
// DOCX is a ZIP containing word/document.xml (OOXML); all <w:t> text runs are
// collected so content is extracted regardless of paragraph or run attributes.
func parseDOCX(content []byte, source string) ([]Record, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("failed to open DOCX: not a zip: %w", err)
	}

	var docXML []byte
	for _, f := range zr.File {
		if f.Name != docxDocumentXMLPath {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", f.Name, err)
		}
		docXML, err = io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", f.Name, err)
		}
		break
	}
	if docXML == nil {
		return nil, fmt.Errorf("failed to parse DOCX: %s not found", docxDocumentXMLPath)
	}

	// Preserve paragraph boundaries, then collect all text runs.
	normalized := wpClose.ReplaceAllString(string(docXML), "</w:p>\n")

	var builder strings.Builder
	for _, line := range strings.Split(normalized, "\n") {
		parts := wtTag.FindAllStringSubmatch(line, -1)
		if len(parts) == 0 {
			continue
		}
		for _, p := range parts {
			builder.WriteString(p[1])
		}
		builder.WriteByte('\n')
	}

	text := strings.TrimSpace(builder.String())
	if text == "" {
		return nil, nil
	}

	return []Record{{
		Content:  text,
		Metadata: map[string]string{"source": source},
	}}, nil
}
