package cache

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/actionc/actionc/internal/server_actions"
)

// The transform cache stores finished per-file results keyed by the inputs
// that determine them, so unchanged files skip the parse/transform/print
// pipeline entirely. Corruption is never fatal: anything that fails to read
// or decode is a miss and the file is transformed again.

// Bump when Payload changes shape. The schema participates in the key, so
// old entries become unreachable rather than misdecoded.
const schemaVersion uint16 = 1

// Payload is one cached transform result.
type Payload struct {
	Schema    uint16
	Code      string
	HasAction bool
	Actions   []server_actions.Action
}

// Key identifies a transform result: the digest covers the schema version,
// the file's identity, its contents, and the server flag. Any change to one
// of those must produce a different entry.
func Key(prettyPath string, contents string, isServer bool) string {
	hash := sha256.New()
	var schema [2]byte
	binary.LittleEndian.PutUint16(schema[:], schemaVersion)
	hash.Write(schema[:])
	hash.Write([]byte(prettyPath))
	hash.Write([]byte{0})
	hash.Write([]byte(contents))
	if isServer {
		hash.Write([]byte{1})
	} else {
		hash.Write([]byte{0})
	}
	return hex.EncodeToString(hash.Sum(nil))
}

// Cache is a content-addressed directory of msgpack payloads. Safe for
// concurrent use. A nil *Cache is valid and never hits.
type Cache struct {
	mu  sync.Mutex
	dir string
}

// Open creates the cache directory if needed and returns a handle to it.
func Open(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &Cache{dir: dir}, nil
}

func (c *Cache) pathFor(key string) string {
	return filepath.Join(c.dir, key+".mp")
}

// Get looks up a payload. Missing files, unreadable files, undecodable
// payloads, and schema mismatches all report a miss.
func (c *Cache) Get(key string) (*Payload, bool) {
	if c == nil {
		return nil, false
	}
	f, err := os.Open(c.pathFor(key))
	if err != nil {
		return nil, false
	}
	defer f.Close()
	var payload Payload
	if err := msgpack.NewDecoder(f).Decode(&payload); err != nil {
		return nil, false
	}
	if payload.Schema != schemaVersion {
		return nil, false
	}
	return &payload, true
}

// Put writes a payload under key via a temp-file rename so readers never see
// a partial entry. The stored schema is always the current one.
func (c *Cache) Put(key string, payload *Payload) error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	payload.Schema = schemaVersion
	f, err := os.CreateTemp(c.dir, "tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create cache entry: %w", err)
	}
	tmp := f.Name()
	if err := msgpack.NewEncoder(f).Encode(payload); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, c.pathFor(key)); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

// DropAll removes every entry, for "--no-cache"-style resets and schema
// migrations during development.
func (c *Cache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".mp" {
			continue
		}
		if err := os.Remove(filepath.Join(c.dir, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}
