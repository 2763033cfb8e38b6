package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/actionc/actionc/internal/server_actions"
)

func TestBuildSkipsFilesWithoutActions(t *testing.T) {
	m := Build(map[string][]server_actions.Action{
		"app/actions.js": {{Name: "go", ID: "abc"}},
		"app/other.js":   nil,
	})
	assert.Equal(t, Version, m.Version)
	assert.Len(t, m.Files, 1)
	assert.Equal(t, []Entry{{Name: "go", ID: "abc"}}, m.Files["app/actions.js"])
}

func TestPathsSorted(t *testing.T) {
	m := Build(map[string][]server_actions.Action{
		"b.js": {{Name: "b", ID: "1"}},
		"a.js": {{Name: "a", ID: "2"}},
		"c.js": {{Name: "c", ID: "3"}},
	})
	assert.Equal(t, []string{"a.js", "b.js", "c.js"}, m.Paths())
}

func TestEncode(t *testing.T) {
	m := Build(map[string][]server_actions.Action{
		"app/actions.js": {
			{Name: "like", ID: "11"},
			{Name: "default", ID: "22"},
		},
	})
	data, err := m.Encode()
	require.NoError(t, err)
	assert.Equal(t, `{
  "version": 1,
  "files": {
    "app/actions.js": [
      {
        "name": "like",
        "id": "11"
      },
      {
        "name": "default",
        "id": "22"
      }
    ]
  }
}
`, string(data))
}

func TestWriteFile(t *testing.T) {
	m := Build(map[string][]server_actions.Action{
		"a.js": {{Name: "a", ID: "1"}},
	})
	path := filepath.Join(t.TempDir(), "out", "actions-manifest.json")
	require.NoError(t, m.WriteFile(path))

	written, err := os.ReadFile(path)
	require.NoError(t, err)
	expected, err := m.Encode()
	require.NoError(t, err)
	assert.Equal(t, expected, written)
}
