// Package printing renders financial reports as XLSX workbooks and PDF
// documents.
package printing

import (
	"context"
	"time"
)

// Content types of the rendered documents
const (
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ContentTypePDF  = "application/pdf"
)

// PrintRequest is an HTML page to print
type PrintRequest struct {
	HTML      string
	Title     string
	Landscape bool
	// Timeout overrides the printer's default
	Timeout time.Duration
}

// HTMLPrinter converts an HTML page to PDF
type HTMLPrinter interface {
	Print(ctx context.Context, req *PrintRequest) ([]byte, error)
	Close() error
}

// RenderError represents a rendering failure
type RenderError struct {
	Code    string
	Message string
	Cause   error
}

func (e *RenderError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *RenderError) Unwrap() error {
	return e.Cause
}

// Error codes for rendering failures
const (
	ErrCodeRenderTimeout = "RENDER_TIMEOUT"
	ErrCodeRenderFailed  = "RENDER_FAILED"
	ErrCodeInvalidHTML   = "INVALID_HTML"
	ErrCodeInvalidReport = "INVALID_REPORT"
)

// NewRenderError creates a new RenderError
func NewRenderError(code, message string, cause error) *RenderError {
	return &RenderError{Code: code, Message: message, Cause: cause}
}
