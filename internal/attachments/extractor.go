package attachments

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	rpdf "rsc.io/pdf"
)

// ErrUnsupportedFormat marks files we cannot extract text from. Only PDF is
// supported today.
var errUnsupportedFormat = fmt.Errorf("unsupported format (only PDF supported)")

// ExtractText extracts text from a downloaded attachment. The file is
// treated as PDF when the extension, MIME type, or magic bytes say so.
// Returns the text and page count.
func ExtractText(path, mimeType string) (string, int, error) {
	isPDF := strings.EqualFold(filepath.Ext(path), ".pdf") ||
		strings.Contains(strings.ToLower(mimeType), "pdf")

	content, err := os.ReadFile(path)
	if err != nil {
		return "", 0, fmt.Errorf("failed to read attachment file: %w", err)
	}

	if !isPDF && !bytes.HasPrefix(content, []byte("%PDF-")) {
		return "", 0, errUnsupportedFormat
	}

	return extractPDFText(content)
}

// extractPDFText parses the PDF and concatenates per-page text. The parser
// panics on some malformed files, so the recover turns those into errors.
func extractPDFText(content []byte) (text string, pages int, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("pdf parser panic: %v", recovered)
			text = ""
			pages = 0
		}
	}()

	reader, err := rpdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", 0, err
	}

	pages = reader.NumPage()
	var builder strings.Builder
	for pageIndex := 1; pageIndex <= pages; pageIndex++ {
		page := reader.Page(pageIndex)
		if page.V.IsNull() {
			continue
		}
		for _, fragment := range page.Content().Text {
			builder.WriteString(fragment.S)
			builder.WriteString(" ")
		}
		builder.WriteString("\n")
	}

	return builder.String(), pages, nil
}
