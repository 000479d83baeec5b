package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var output bytes.Buffer
	cmd.SetOut(&output)
	cmd.SetErr(&output)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return output.String(), err
}

func TestRulesCommand_Table(t *testing.T) {
	out, err := runCommand(t, "rules")
	require.NoError(t, err)

	for _, want := range []string{"audio", "video", "image", "document", "stl", "solidworks", ".mp3", ".sldprt", "downloaded_pdfs", "SFX"} {
		assert.Contains(t, out, want)
	}

	// evaluation order is preserved
	assert.Less(t, strings.Index(out, "audio"), strings.Index(out, "solidworks"))
}

func TestRulesCommand_YAML(t *testing.T) {
	out, err := runCommand(t, "rules", "--format", "yaml")
	require.NoError(t, err)

	var views []ruleView
	require.NoError(t, yaml.Unmarshal([]byte(out), &views))
	require.Len(t, views, 6)

	audio := views[0]
	assert.Equal(t, "audio", audio.Category)
	require.NotNil(t, audio.Split)
	assert.Equal(t, int64(10_000_000), audio.Split.ThresholdBytes)
	assert.Equal(t, "SFX", audio.Split.Marker)
	assert.Equal(t, "downloaded_sfx", audio.Split.Short)
	assert.Equal(t, "downloaded_music", audio.Split.Long)
	assert.Empty(t, audio.Destination)

	assert.Equal(t, "downloaded_solidworks", views[5].Destination)
	assert.Nil(t, views[5].Split)
}

func TestRulesCommand_UnknownFormat(t *testing.T) {
	_, err := runCommand(t, "rules", "--format", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown format")
}
