// Package output renders ldapext command results.
package output

import (
	"fmt"
	"io"
)

// Format is an output format name.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Formatter writes data to w.
type Formatter interface {
	Format(w io.Writer, data any) error
}

// NewFormatter returns the formatter for format. Text output is command
// specific, so text selects the generic TextFormatter.
func NewFormatter(format Format) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{}
	case FormatYAML:
		return &YAMLFormatter{}
	default:
		return &TextFormatter{}
	}
}

// Texter is implemented by results with a human-readable form.
type Texter interface {
	Text(w io.Writer) error
}

// TextFormatter uses Texter when available and fmt otherwise.
type TextFormatter struct{}

func (f *TextFormatter) Format(w io.Writer, data any) error {
	if t, ok := data.(Texter); ok {
		return t.Text(w)
	}
	_, err := fmt.Fprintln(w, data)
	return err
}
