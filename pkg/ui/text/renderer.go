// Package text provides plain text output without any styling
package text

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/arthur-debert/revlink/pkg/deploy"
	"github.com/arthur-debert/revlink/pkg/manifest"
	"github.com/arthur-debert/revlink/pkg/ui/display"
)

// Renderer provides plain text output without colors or styling
type Renderer struct {
	output io.Writer
}

// New creates a new text renderer
func New(output io.Writer) *Renderer {
	return &Renderer{output: output}
}

// RenderResult renders a command result as aligned plain text
func (r *Renderer) RenderResult(result interface{}) error {
	switch v := result.(type) {
	case *deploy.Inventory:
		return r.render(display.InventoryFields(v), display.InventoryTable(v))
	case *deploy.Report:
		return r.render(display.ReportFields(v), display.Table{})
	case deploy.Report:
		return r.render(display.ReportFields(&v), display.Table{})
	case *manifest.Check:
		return r.render(display.CheckFields(v), display.CheckTable(v))
	default:
		_, err := fmt.Fprintf(r.output, "%+v\n", result)
		return err
	}
}

// RenderError renders an error as plain text
func (r *Renderer) RenderError(err error) error {
	_, werr := fmt.Fprintf(r.output, "Error: %v\n", err)
	return werr
}

// RenderMessage renders a simple message as plain text
func (r *Renderer) RenderMessage(msg string) error {
	_, err := fmt.Fprintln(r.output, msg)
	return err
}

func (r *Renderer) render(fields []display.Field, table display.Table) error {
	tw := tabwriter.NewWriter(r.output, 0, 4, 2, ' ', 0)
	for _, f := range fields {
		fmt.Fprintf(tw, "%s:\t%s\n", f.Label, f.Value)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if table.Empty() {
		return nil
	}

	if _, err := fmt.Fprintln(r.output); err != nil {
		return err
	}
	tw = tabwriter.NewWriter(r.output, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(table.Header, "\t"))
	for _, row := range table.Rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}
