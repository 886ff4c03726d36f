package ui

import (
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
)

// Format selects how command results are rendered.
type Format int

const (
	// FormatAuto picks terminal or text output from the destination.
	FormatAuto Format = iota
	// FormatTerminal is styled, colored output for people.
	FormatTerminal
	// FormatText is the same layout without escape sequences.
	FormatText
	FormatJSON
	FormatYAML
	FormatTOML
)

// Formats lists the canonical names accepted by ParseFormat, indexed by
// Format.
var Formats = []string{"auto", "term", "text", "json", "yaml", "toml"}

// formatAliases are accepted on input but never printed.
var formatAliases = map[string]Format{
	"":         FormatAuto,
	"terminal": FormatTerminal,
	"plain":    FormatText,
	"yml":      FormatYAML,
}

func (f Format) String() string {
	if f < 0 || int(f) >= len(Formats) {
		return "unknown"
	}
	return Formats[f]
}

// Structured reports whether the format is meant for machines.
func (f Format) Structured() bool {
	return f == FormatJSON || f == FormatYAML || f == FormatTOML
}

// ParseFormat resolves a --output value, case-insensitively.
func ParseFormat(s string) (Format, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, candidate := range Formats {
		if name == candidate {
			return Format(i), nil
		}
	}
	if f, ok := formatAliases[name]; ok {
		return f, nil
	}
	return FormatAuto, fmt.Errorf("unknown format %q (want one of %s)", s, strings.Join(Formats, ", "))
}

// DetectFormat chooses between terminal and text output for a file.
// NO_COLOR, a pipe or a terminal without color support all mean text.
func DetectFormat(output *os.File) Format {
	if os.Getenv("NO_COLOR") != "" {
		return FormatText
	}
	fd := output.Fd()
	if !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd) {
		return FormatText
	}
	if termenv.NewOutput(output).ColorProfile() == termenv.Ascii {
		return FormatText
	}
	return FormatTerminal
}
