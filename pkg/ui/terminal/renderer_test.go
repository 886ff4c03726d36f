package terminal_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/arthur-debert/revlink/pkg/deploy"
	"github.com/arthur-debert/revlink/pkg/errors"
	"github.com/arthur-debert/revlink/pkg/manifest"
	"github.com/arthur-debert/revlink/pkg/types"
	"github.com/arthur-debert/revlink/pkg/ui/terminal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderInventory(t *testing.T) {
	var buf bytes.Buffer
	inv := &deploy.Inventory{
		Root:       "/content",
		LivePath:   "/content/live",
		LiveTarget: "/content/trunk/5",
		Live:       &types.RevisionKey{Branch: "trunk", Revision: 5},
		Branches: []deploy.BranchInventory{
			{Name: "trunk", Revisions: []int{4, 5}},
			{Name: "beta", Revisions: []int{3}, Staging: []string{"4.staging"}},
		},
	}
	require.NoError(t, terminal.New(&buf).RenderResult(inv))

	out := buf.String()
	assert.Contains(t, out, "Content")
	assert.Contains(t, out, "/content/trunk/5")
	assert.Contains(t, out, "BRANCH")
	assert.Contains(t, out, "beta")
	assert.Contains(t, out, "4.staging")
}

func TestRenderCheck(t *testing.T) {
	var buf bytes.Buffer
	check, err := manifest.CheckManifest(strings.NewReader("true\ttrunk\t5\nfalse\tbeta\t3\n"))
	require.NoError(t, err)
	require.NoError(t, terminal.New(&buf).RenderResult(check))

	out := buf.String()
	assert.Contains(t, out, "Manifest")
	assert.Contains(t, out, "trunk/5")
	assert.Contains(t, out, "beta")
}

func TestRenderReport(t *testing.T) {
	var buf bytes.Buffer
	report := deploy.Report{
		Root:      "/content",
		LivePath:  "/content/live",
		LiveDir:   "/content/trunk/5",
		CyclesRun: 1,
	}
	require.NoError(t, terminal.New(&buf).RenderResult(&report))
	assert.Contains(t, buf.String(), "Update")
	assert.Contains(t, buf.String(), "/content/trunk/5")
}

func TestRenderErrorShowsCode(t *testing.T) {
	var buf bytes.Buffer
	err := errors.New(errors.ErrNoLiveRevision, "manifest has no live revision")
	require.NoError(t, terminal.New(&buf).RenderError(err))

	assert.Contains(t, buf.String(), "Error:")
	assert.Contains(t, buf.String(), "NO_LIVE_REVISION")
}

func TestRenderUnknownResult(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, terminal.New(&buf).RenderResult(struct{ Name string }{"x"}))
	assert.Contains(t, buf.String(), "Name:x")
}
