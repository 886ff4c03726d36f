// Package data renders results as JSON, YAML or TOML for machine
// consumption.
package data

import (
	"encoding/json"
	"io"

	"github.com/arthur-debert/revlink/pkg/errors"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Encoding selects the serialization.
type Encoding int

const (
	JSON Encoding = iota
	YAML
	TOML
)

// Renderer writes one document per call.
type Renderer struct {
	output   io.Writer
	encoding Encoding
}

// New creates a renderer writing enc documents to output.
func New(enc Encoding, output io.Writer) *Renderer {
	return &Renderer{output: output, encoding: enc}
}

// RenderResult serializes result using its json, yaml or toml tags.
func (r *Renderer) RenderResult(result interface{}) error {
	return r.encode(result)
}

// RenderError renders an error with its code and details.
func (r *Renderer) RenderError(err error) error {
	doc := errorDoc{
		Error: err.Error(),
		Code:  string(errors.GetErrorCode(err)),
	}
	for k, v := range errors.GetErrorDetails(err) {
		if doc.Details == nil {
			doc.Details = make(map[string]interface{})
		}
		doc.Details[k] = v
	}
	return r.encode(doc)
}

// RenderMessage renders a simple message.
func (r *Renderer) RenderMessage(msg string) error {
	return r.encode(messageDoc{Message: msg})
}

type errorDoc struct {
	Error   string                 `json:"error" yaml:"error" toml:"error"`
	Code    string                 `json:"code" yaml:"code" toml:"code"`
	Details map[string]interface{} `json:"details,omitempty" yaml:"details,omitempty" toml:"details,omitempty"`
}

type messageDoc struct {
	Message string `json:"message" yaml:"message" toml:"message"`
}

func (r *Renderer) encode(v interface{}) error {
	switch r.encoding {
	case YAML:
		enc := yaml.NewEncoder(r.output)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	case TOML:
		return toml.NewEncoder(r.output).Encode(v)
	default:
		enc := json.NewEncoder(r.output)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
}
