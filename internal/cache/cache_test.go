package cache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/actionc/actionc/internal/server_actions"
)

func TestKeyDependsOnEveryInput(t *testing.T) {
	base := Key("a.js", "contents", true)
	assert.Len(t, base, 64)
	assert.Equal(t, base, Key("a.js", "contents", true))
	assert.NotEqual(t, base, Key("b.js", "contents", true))
	assert.NotEqual(t, base, Key("a.js", "changed", true))
	assert.NotEqual(t, base, Key("a.js", "contents", false))

	// The path/contents boundary must matter.
	assert.NotEqual(t, Key("ab", "c", true), Key("a", "bc", true))
}

func TestPutGetRoundTrip(t *testing.T) {
	c, err := Open(t.TempDir())
	require.NoError(t, err)

	key := Key("app/actions.js", `export async function go() {}`, true)
	put := &Payload{
		Code:      "transformed code\n",
		HasAction: true,
		Actions: []server_actions.Action{
			{Name: "go", ID: server_actions.ActionID("app/actions.js", "go")},
		},
	}
	require.NoError(t, c.Put(key, put))

	got, ok := c.Get(key)
	require.True(t, ok)
	assert.Equal(t, put.Code, got.Code)
	assert.Equal(t, put.HasAction, got.HasAction)
	assert.Equal(t, put.Actions, got.Actions)
}

func TestGetMissing(t *testing.T) {
	c, err := Open(t.TempDir())
	require.NoError(t, err)
	_, ok := c.Get(Key("a.js", "x", false))
	assert.False(t, ok)
}

func TestCorruptedEntryIsAMiss(t *testing.T) {
	dir := t.TempDir()
	c, err := Open(dir)
	require.NoError(t, err)

	key := Key("a.js", "x", false)
	require.NoError(t, c.Put(key, &Payload{Code: "ok"}))
	require.NoError(t, os.WriteFile(filepath.Join(dir, key+".mp"), []byte("not msgpack"), 0o644))

	_, ok := c.Get(key)
	assert.False(t, ok)
}

func TestSchemaMismatchIsAMiss(t *testing.T) {
	dir := t.TempDir()
	c, err := Open(dir)
	require.NoError(t, err)

	key := Key("a.js", "x", false)
	require.NoError(t, c.Put(key, &Payload{Code: "ok"}))

	// Rewrite the entry with a stale schema number.
	stale := &Payload{Code: "ok"}
	require.NoError(t, c.Put(key, stale))
	raw, ok := c.Get(key)
	require.True(t, ok)
	raw.Schema = schemaVersion + 1
	writeRaw(t, c, key, raw)

	_, ok = c.Get(key)
	assert.False(t, ok)
}

func TestNilCache(t *testing.T) {
	var c *Cache
	_, ok := c.Get("whatever")
	assert.False(t, ok)
	assert.NoError(t, c.Put("whatever", &Payload{}))
	assert.NoError(t, c.DropAll())
}

func TestDropAll(t *testing.T) {
	c, err := Open(t.TempDir())
	require.NoError(t, err)

	key := Key("a.js", "x", false)
	require.NoError(t, c.Put(key, &Payload{Code: "ok"}))
	require.NoError(t, c.DropAll())

	_, ok := c.Get(key)
	assert.False(t, ok)
}

// writeRaw bypasses Put's schema stamping so tests can plant bad entries.
func writeRaw(t *testing.T, c *Cache, key string, payload *Payload) {
	t.Helper()
	f, err := os.Create(c.pathFor(key))
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, msgpack.NewEncoder(f).Encode(payload))
}
