package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderActionRowsPlain(t *testing.T) {
	var buf bytes.Buffer
	renderActionRows(&buf, []actionRow{
		{file: "a.js", export: "like", id: "11"},
		{file: "b.js", export: "default", id: "22"},
	}, false)
	assert.Equal(t, "a.js\tlike\t11\nb.js\tdefault\t22\n", buf.String())
}

func TestRenderActionRowsTable(t *testing.T) {
	var buf bytes.Buffer
	renderActionRows(&buf, []actionRow{
		{file: "a.js", export: "like", id: "11"},
	}, true)
	out := buf.String()
	assert.Contains(t, out, "FILE")
	assert.Contains(t, out, "like")
	assert.Contains(t, out, "11")
}

func TestVersionCommand(t *testing.T) {
	var buf bytes.Buffer
	versionCmd.SetOut(&buf)
	versionCmd.Run(versionCmd, nil)
	require.True(t, strings.HasPrefix(buf.String(), "actionc "))
}

func TestLoadProjectMissingExplicitConfig(t *testing.T) {
	_, err := loadProject("does-not-exist.toml")
	require.Error(t, err)
}

func TestPlural(t *testing.T) {
	assert.Equal(t, "1 error", plural(1, "error"))
	assert.Equal(t, "0 errors", plural(0, "error"))
	assert.Equal(t, "3 files", plural(3, "file"))
}
