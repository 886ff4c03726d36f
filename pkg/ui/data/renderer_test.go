package data_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/arthur-debert/revlink/pkg/deploy"
	"github.com/arthur-debert/revlink/pkg/errors"
	"github.com/arthur-debert/revlink/pkg/types"
	"github.com/arthur-debert/revlink/pkg/ui/data"
	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func sampleInventory() *deploy.Inventory {
	return &deploy.Inventory{
		Root:     "/content",
		LivePath: "/content/live",
		Live:     &types.RevisionKey{Branch: "trunk", Revision: 5},
		Branches: []deploy.BranchInventory{{Name: "trunk", Revisions: []int{4, 5}}},
	}
}

func TestRenderInventory(t *testing.T) {
	tests := []struct {
		name   string
		enc    data.Encoding
		decode func([]byte, interface{}) error
	}{
		{"json", data.JSON, json.Unmarshal},
		{"yaml", data.YAML, yaml.Unmarshal},
		{"toml", data.TOML, toml.Unmarshal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, data.New(tt.enc, &buf).RenderResult(sampleInventory()))

			var got deploy.Inventory
			require.NoError(t, tt.decode(buf.Bytes(), &got))
			assert.Equal(t, "/content/live", got.LivePath)
			require.NotNil(t, got.Live)
			assert.Equal(t, 5, got.Live.Revision)
			require.Len(t, got.Branches, 1)
			assert.Equal(t, []int{4, 5}, got.Branches[0].Revisions)
		})
	}
}

func TestRenderError(t *testing.T) {
	var buf bytes.Buffer
	err := errors.New(errors.ErrLink, "could not link").WithDetail("path", "/content/live")
	require.NoError(t, data.New(data.JSON, &buf).RenderError(err))

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "LINK", doc["code"])
	assert.Equal(t, map[string]interface{}{"path": "/content/live"}, doc["details"])
}

func TestRenderMessage(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, data.New(data.TOML, &buf).RenderMessage("hello"))

	var doc map[string]string
	require.NoError(t, toml.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, map[string]string{"message": "hello"}, doc)
}
