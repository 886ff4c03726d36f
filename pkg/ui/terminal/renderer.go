// Package terminal provides rich terminal output with colors and styling
package terminal

import (
	"fmt"
	"io"

	"github.com/arthur-debert/revlink/pkg/deploy"
	"github.com/arthur-debert/revlink/pkg/errors"
	"github.com/arthur-debert/revlink/pkg/manifest"
	"github.com/arthur-debert/revlink/pkg/ui/display"
	"github.com/arthur-debert/revlink/pkg/ui/styles"
	"github.com/pterm/pterm"
)

// Renderer provides rich terminal output using lipgloss styles and pterm
// tables
type Renderer struct {
	output io.Writer
}

// New creates a new terminal renderer
func New(w io.Writer) *Renderer {
	return &Renderer{output: w}
}

// RenderResult renders a command result with rich terminal formatting
func (r *Renderer) RenderResult(result interface{}) error {
	switch v := result.(type) {
	case *deploy.Inventory:
		return r.render("Content", display.InventoryFields(v), display.InventoryTable(v))
	case *deploy.Report:
		return r.render("Update", display.ReportFields(v), display.Table{})
	case deploy.Report:
		return r.render("Update", display.ReportFields(&v), display.Table{})
	case *manifest.Check:
		return r.render("Manifest", display.CheckFields(v), display.CheckTable(v))
	default:
		_, err := fmt.Fprintf(r.output, "%+v\n", result)
		return err
	}
}

// RenderError renders an error with its code highlighted
func (r *Renderer) RenderError(err error) error {
	line := styles.Render("Error", "Error:") + " " + err.Error()
	if code := errors.GetErrorCode(err); code != errors.ErrUnknown {
		line += " " + styles.Render("Code", "("+string(code)+")")
	}
	_, werr := fmt.Fprintln(r.output, line)
	return werr
}

// RenderMessage renders a simple message
func (r *Renderer) RenderMessage(msg string) error {
	_, err := fmt.Fprintln(r.output, styles.Render("Info", msg))
	return err
}

func (r *Renderer) render(title string, fields []display.Field, table display.Table) error {
	if _, err := fmt.Fprintln(r.output, styles.Render("Header", title)); err != nil {
		return err
	}
	indent := styles.GetStyle("Indent")
	for _, f := range fields {
		value := f.Value
		if f.Kind != display.KindPlain {
			value = styles.Render(f.Kind, value)
		}
		line := styles.Render("Label", f.Label) + " " + value
		if _, err := fmt.Fprintln(r.output, indent.Render(line)); err != nil {
			return err
		}
	}
	if table.Empty() {
		return nil
	}

	data := pterm.TableData{table.Header}
	data = append(data, table.Rows...)
	out, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(r.output, "\n%s\n", out)
	return err
}
