package hcl

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
)

// Media types of a timeline spec body.
const (
	ContentTypeHCL  = "application/vnd.hcl"
	ContentTypeJSON = "application/json"
)

// DetectContentType reports whether a layout request carries its timeline
// as HCL or JSON. An explicit Content-Type of either kind wins; otherwise
// the body is inspected and put back on the request for the handler.
func DetectContentType(r *http.Request) (string, error) {
	contentType := r.Header.Get("Content-Type")
	if contentType != "" {
		mediaType, _, err := mime.ParseMediaType(contentType)
		if err == nil {
			if mediaType == ContentTypeHCL {
				return ContentTypeHCL, nil
			}
			if mediaType == ContentTypeJSON {
				return ContentTypeJSON, nil
			}
		}
	}

	if r.Body == nil {
		return ContentTypeJSON, nil
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read request body: %w", err)
	}
	r.Body = io.NopCloser(bytes.NewBuffer(body))

	return DetectContent(body), nil
}

// DetectContent classifies a timeline document by inspection alone. A JSON
// spec or event source opens with { or [, which HCL attributes and band
// blocks never do; anything else that parses as HCL is HCL.
func DetectContent(body []byte) string {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 {
		if trimmed[0] == '{' || trimmed[0] == '[' {
			return ContentTypeJSON
		}
		if IsHCL(trimmed) {
			return ContentTypeHCL
		}
	}
	return ContentTypeJSON
}

// IsHCLBasedOnExtension reports whether a file in a timeline directory is
// read as HCL. Directories are merged from their .hcl files only.
func IsHCLBasedOnExtension(filename string) bool {
	return strings.EqualFold(filepath.Ext(filename), ".hcl")
}
