package text_test

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/arthur-debert/revlink/pkg/deploy"
	"github.com/arthur-debert/revlink/pkg/manifest"
	"github.com/arthur-debert/revlink/pkg/types"
	"github.com/arthur-debert/revlink/pkg/ui/text"
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
		Branches:   []deploy.BranchInventory{{Name: "trunk", Revisions: []int{4, 5}}},
	}
	require.NoError(t, text.New(&buf).RenderResult(inv))

	out := buf.String()
	assert.Contains(t, out, "Live path:")
	assert.Contains(t, out, "/content/trunk/5")
	assert.Contains(t, out, "BRANCH")
	assert.Regexp(t, `trunk\s+4 5\s+-\s+5`, out)
	assert.NotContains(t, out, "\x1b[")
}

func TestRenderCheck(t *testing.T) {
	var buf bytes.Buffer
	check, err := manifest.CheckManifest(strings.NewReader("true\ttrunk\t5\n"))
	require.NoError(t, err)
	require.NoError(t, text.New(&buf).RenderResult(check))

	assert.Regexp(t, `Live:\s+trunk/5`, buf.String())
	assert.Regexp(t, `true\s+trunk\s+5`, buf.String())
}

func TestRenderReportValue(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, text.New(&buf).RenderResult(deploy.Report{}))
	assert.Contains(t, buf.String(), "no cycle run")
}

func TestRenderErrorAndMessage(t *testing.T) {
	var buf bytes.Buffer
	r := text.New(&buf)
	require.NoError(t, r.RenderError(fmt.Errorf("boom")))
	require.NoError(t, r.RenderMessage("done"))
	assert.Equal(t, "Error: boom\ndone\n", buf.String())
}
