// Package extractor converts source files into a single text payload.
//
// Extraction is all-or-nothing: an extractor either returns the whole
// best-effort text of a file or an error, never a partially decoded body.
package extractor

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

var (
	// ErrUnsupported is returned for file extensions with no registered extractor
	ErrUnsupported = errors.New("extractor: unsupported format")
)

// Extractor extracts text from raw file content
type Extractor interface {
	Extract(data []byte) (string, error)
}

// Func adapts a function to the Extractor interface
type Func func(data []byte) (string, error)

// Extract calls f(data)
func (f Func) Extract(data []byte) (string, error) {
	return f(data)
}

// Result distinguishes extracted text, no text, and extraction failure
type Result struct {
	Text string
	Err  error
}

// Empty reports a successful extraction that produced no usable text
func (r Result) Empty() bool {
	return r.Err == nil && strings.TrimSpace(r.Text) == ""
}

// Factory selects an extractor by file extension
type Factory struct {
	byExtension map[string]Extractor
}

// NewFactory creates a factory with text, markdown, pdf, docx, xlsx and xls support
func NewFactory() *Factory {
	f := &Factory{byExtension: make(map[string]Extractor)}
	f.Register(".txt", Func(extractPlainText))
	f.Register(".md", Func(extractPlainText))
	f.Register(".pdf", Func(extractPDF))
	f.Register(".docx", Func(extractDOCX))
	f.Register(".xlsx", Func(extractExcel))
	f.Register(".xls", Func(extractXLS))
	return f
}

// Register binds an extractor to a file extension
func (f *Factory) Register(ext string, extractor Extractor) {
	ext = strings.ToLower(ext)
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	f.byExtension[ext] = extractor
}

// Supported reports whether the path has a registered extension
func (f *Factory) Supported(path string) bool {
	_, ok := f.byExtension[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Extensions returns the registered extensions in sorted order
func (f *Factory) Extensions() []string {
	ret := make([]string, 0, len(f.byExtension))
	for ext := range f.byExtension {
		ret = append(ret, ext)
	}
	sort.Strings(ret)
	return ret
}

// Extract extracts text from data using the extractor registered for path's extension
func (f *Factory) Extract(path string, data []byte) Result {
	ext := strings.ToLower(filepath.Ext(path))
	extractor, ok := f.byExtension[ext]
	if !ok {
		return Result{Err: fmt.Errorf("%w: %q", ErrUnsupported, ext)}
	}
	text, err := extractor.Extract(data)
	if err != nil {
		return Result{Err: fmt.Errorf("failed to extract %s: %w", path, err)}
	}
	return Result{Text: text}
}
