package driver

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/actionc/actionc/internal/cache"
	"github.com/actionc/actionc/internal/config"
	"github.com/actionc/actionc/internal/server_actions"
)

const actionFile = `"use server";

export async function like(post) {
  return db.like(post);
}
`

const plainFile = `export function add(a, b) {
  return a + b;
}
`

const badFile = `"use server";

export function sync() {
  return 1;
}
`

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, contents := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	}
	return root
}

func testConfig(t *testing.T, root string) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Root = root
	cfg.OutDir = filepath.Join(t.TempDir(), "dist")
	return cfg
}

func TestBuildScansAndTransforms(t *testing.T) {
	root := writeTree(t, map[string]string{
		"app/actions.js": actionFile,
		"app/util.js":    plainFile,
		"app/styles.css": "body {}",
	})
	cfg := testConfig(t, root)

	result, err := Build(context.Background(), Options{Config: cfg, Write: true})
	require.NoError(t, err)
	require.Len(t, result.Files, 2)
	assert.Equal(t, 0, result.Errors)

	// Sorted by path regardless of scheduling
	assert.Equal(t, "app/actions.js", result.Files[0].Path)
	assert.Equal(t, "app/util.js", result.Files[1].Path)

	actions := result.Files[0]
	assert.True(t, actions.HasAction)
	require.Len(t, actions.Actions, 1)
	assert.Equal(t, "like", actions.Actions[0].Name)
	assert.Equal(t, server_actions.ActionID("app/actions.js", "like"), actions.Actions[0].ID)
	assert.Contains(t, actions.Code, "__next_internal_action_entry_do_not_use__ like")
	assert.Contains(t, actions.Code, "like.$$typeof = Symbol.for(\"react.server.reference\");")

	util := result.Files[1]
	assert.False(t, util.HasAction)
	assert.Equal(t, plainFile, util.Code)

	// Outputs mirror the input layout under out_dir
	written, err := os.ReadFile(filepath.Join(cfg.OutDir, "app", "actions.js"))
	require.NoError(t, err)
	assert.Equal(t, actions.Code, string(written))

	// Manifest lists only the action file
	assert.Equal(t, []string{"app/actions.js"}, result.Manifest.Paths())
}

func TestBuildExplicitFiles(t *testing.T) {
	root := writeTree(t, map[string]string{"actions.js": actionFile})
	cfg := testConfig(t, root)

	result, err := Build(context.Background(), Options{
		Config: cfg,
		Files:  []string{filepath.Join(root, "actions.js")},
	})
	require.NoError(t, err)
	require.Len(t, result.Files, 1)
	assert.True(t, result.Files[0].HasAction)

	// No Write flag, so nothing lands in out_dir
	_, err = os.Stat(cfg.OutDir)
	assert.True(t, os.IsNotExist(err))
}

func TestBuildReportsDiagnostics(t *testing.T) {
	root := writeTree(t, map[string]string{"bad.js": badFile})
	cfg := testConfig(t, root)

	result, err := Build(context.Background(), Options{Config: cfg, Write: true})
	require.NoError(t, err)
	require.Len(t, result.Files, 1)
	assert.NotZero(t, result.Errors)
	require.NotEmpty(t, result.Files[0].Msgs)

	// Files with errors are never written
	_, err = os.Stat(result.Files[0].OutPath)
	assert.True(t, os.IsNotExist(err))
}

func TestBuildUsesCache(t *testing.T) {
	root := writeTree(t, map[string]string{"actions.js": actionFile})
	cfg := testConfig(t, root)
	c, err := cache.Open(t.TempDir())
	require.NoError(t, err)

	first, err := Build(context.Background(), Options{Config: cfg, Cache: c})
	require.NoError(t, err)
	require.Len(t, first.Files, 1)
	assert.False(t, first.Files[0].Cached)

	second, err := Build(context.Background(), Options{Config: cfg, Cache: c})
	require.NoError(t, err)
	require.Len(t, second.Files, 1)
	assert.True(t, second.Files[0].Cached)

	// A hit must be byte-identical to a fresh transform
	assert.Equal(t, first.Files[0].Code, second.Files[0].Code)
	assert.Equal(t, first.Files[0].Actions, second.Files[0].Actions)

	// Editing the file invalidates the entry
	require.NoError(t, os.WriteFile(filepath.Join(root, "actions.js"),
		[]byte(actionFile+"\n// changed\n"), 0o644))
	third, err := Build(context.Background(), Options{Config: cfg, Cache: c})
	require.NoError(t, err)
	assert.False(t, third.Files[0].Cached)
}

func TestBuildErrorFilesAreNotCached(t *testing.T) {
	root := writeTree(t, map[string]string{"bad.js": badFile})
	cfg := testConfig(t, root)
	c, err := cache.Open(t.TempDir())
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		result, err := Build(context.Background(), Options{Config: cfg, Cache: c})
		require.NoError(t, err)
		require.Len(t, result.Files, 1)
		assert.False(t, result.Files[0].Cached)
		assert.NotZero(t, result.Errors)
	}
}

func TestBuildMissingExplicitFile(t *testing.T) {
	cfg := testConfig(t, t.TempDir())
	_, err := Build(context.Background(), Options{
		Config: cfg,
		Files:  []string{filepath.Join(cfg.Root, "missing.js")},
	})
	require.Error(t, err)
}
