// Package ui renders command results in terminal (rich), text (plain) and
// structured (JSON, YAML, TOML) formats.
package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/arthur-debert/revlink/pkg/ui/data"
	"github.com/arthur-debert/revlink/pkg/ui/terminal"
	"github.com/arthur-debert/revlink/pkg/ui/text"
)

// Renderer is the common interface for all output renderers.
type Renderer interface {
	// RenderResult renders a command result: an inventory, a manager
	// report or a manifest check.
	RenderResult(result interface{}) error

	// RenderError renders an error with appropriate formatting
	RenderError(err error) error

	// RenderMessage renders a simple message
	RenderMessage(msg string) error
}

// NewRenderer creates a renderer for format. FormatAuto picks terminal
// output for a color-capable *os.File and plain text for anything else.
func NewRenderer(format Format, output io.Writer) (Renderer, error) {
	switch format {
	case FormatAuto:
		if file, ok := output.(*os.File); ok {
			return NewRenderer(DetectFormat(file), output)
		}
		return NewRenderer(FormatText, output)
	case FormatTerminal:
		return terminal.New(output), nil
	case FormatText:
		return text.New(output), nil
	case FormatJSON:
		return data.New(data.JSON, output), nil
	case FormatYAML:
		return data.New(data.YAML, output), nil
	case FormatTOML:
		return data.New(data.TOML, output), nil
	default:
		return nil, fmt.Errorf("unknown format: %v", format)
	}
}
