// Package doctext extracts best-effort plain text from downloaded grounding
// documents. Extraction failures are caught and logged by callers, never
// aborting the pipeline.
package doctext

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/microcosm-cc/bluemonday"
)

// Extractor extracts text content from document bytes by filename extension.
type Extractor struct {
	maxSize int64 // Max document size in bytes
}

// NewExtractor creates a document content extractor with a size limit.
func NewExtractor(maxSizeMB int) *Extractor {
	return &Extractor{
		maxSize: int64(maxSizeMB) * 1024 * 1024,
	}
}

// IsBinary reports whether the named document requires binary text
// extraction rather than raw decoding.
func IsBinary(name string) bool {
	return strings.ToLower(filepath.Ext(name)) == ".pdf"
}

// Extract returns plain text for the named document's bytes.
// Supported formats: .txt, .md, .csv, .json (raw), .html/.htm (sanitized),
// .pdf (text layer).
func (e *Extractor) Extract(name string, content []byte) (string, error) {
	if int64(len(content)) > e.maxSize {
		return "", fmt.Errorf("document %s size %d exceeds limit %d bytes", name, len(content), e.maxSize)
	}

	if IsBinary(name) {
		return extractPDF(content)
	}

	ext := strings.ToLower(filepath.Ext(name))

	switch ext {
	case ".txt", ".md", ".csv", ".json", "":
		return string(content), nil

	case ".html", ".htm":
		p := bluemonday.StrictPolicy()
		return p.Sanitize(string(content)), nil

	default:
		return "", fmt.Errorf("unsupported document type: %s", ext)
	}
}

// extractPDF pulls the text layer out of a PDF. Image-only PDFs yield an
// empty string, which callers treat the same as a read failure.
func extractPDF(content []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("opening pdf: %w", err)
	}
	textReader, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extracting pdf text: %w", err)
	}
	var sb strings.Builder
	if _, err := io.Copy(&sb, textReader); err != nil {
		return "", fmt.Errorf("reading pdf text: %w", err)
	}
	return sb.String(), nil
}
