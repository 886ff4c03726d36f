// Package styles defines the visual styling for revlink's terminal output.
//
// Styles use semantic names ("Live", "Path", "Error") and adaptive colors
// that follow the terminal's light or dark background. Definitions live in
// the embedded styles.yaml; a user file can replace them with LoadStyles.
package styles

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"
)

type colorDef struct {
	Light string `yaml:"light"`
	Dark  string `yaml:"dark"`
}

type styleDef struct {
	Bold         bool   `yaml:"bold"`
	Italic       bool   `yaml:"italic"`
	Underline    bool   `yaml:"underline"`
	Foreground   string `yaml:"foreground"`
	Background   string `yaml:"background"`
	Width        int    `yaml:"width"`
	MarginLeft   int    `yaml:"marginLeft"`
	PaddingLeft  int    `yaml:"paddingLeft"`
	PaddingRight int    `yaml:"paddingRight"`
}

// styleFile is the layout of styles.yaml. Styles refer to colors by name.
type styleFile struct {
	Colors map[string]colorDef `yaml:"colors"`
	Styles map[string]styleDef `yaml:"styles"`
}

// StyleRegistry maps semantic names to lipgloss styles
var StyleRegistry map[string]lipgloss.Style

//go:embed styles.yaml
var embeddedStyles []byte

// defaultNames are registered unstyled when the embedded data is unusable.
var defaultNames = []string{
	"Header", "Success", "Error", "Warning", "Info",
	"Muted", "Bold", "Path", "Live", "Code", "Label", "Indent",
}

func init() {
	if err := LoadStylesFromData(embeddedStyles); err != nil {
		initDefaultStyles()
	}
}

func initDefaultStyles() {
	StyleRegistry = make(map[string]lipgloss.Style, len(defaultNames))
	for _, name := range defaultNames {
		StyleRegistry[name] = lipgloss.NewStyle()
	}
}

// LoadStyles replaces the registry with the definitions in a YAML file
func LoadStyles(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read styles file %s: %w", path, err)
	}
	return LoadStylesFromData(data)
}

// LoadStylesFromData replaces the registry with the definitions in data.
// The registry is left alone when data is invalid.
func LoadStylesFromData(data []byte) error {
	var file styleFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse styles data: %w", err)
	}
	if len(file.Styles) == 0 {
		return fmt.Errorf("styles data defines no styles")
	}

	registry := make(map[string]lipgloss.Style, len(file.Styles))
	for name, def := range file.Styles {
		registry[name] = def.build(file.Colors)
	}
	StyleRegistry = registry
	return nil
}

// build turns a definition into a lipgloss style. Unknown color names leave
// the color unset.
func (d styleDef) build(colors map[string]colorDef) lipgloss.Style {
	style := lipgloss.NewStyle().
		Bold(d.Bold).
		Italic(d.Italic).
		Underline(d.Underline).
		Width(d.Width).
		MarginLeft(d.MarginLeft).
		PaddingLeft(d.PaddingLeft).
		PaddingRight(d.PaddingRight)

	if c, ok := colors[d.Foreground]; ok {
		style = style.Foreground(lipgloss.AdaptiveColor{Light: c.Light, Dark: c.Dark})
	}
	if c, ok := colors[d.Background]; ok {
		style = style.Background(lipgloss.AdaptiveColor{Light: c.Light, Dark: c.Dark})
	}
	return style
}

// GetStyle returns the named style, or an empty style for unknown names.
func GetStyle(name string) lipgloss.Style {
	if style, ok := StyleRegistry[name]; ok {
		return style
	}
	return lipgloss.NewStyle()
}

// Render applies the named style to s.
func Render(name, s string) string {
	return GetStyle(name).Render(s)
}
