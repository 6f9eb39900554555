// Package cache provides the content-addressed transform cache: an LRU
// in-memory front backed by LZ4-compressed blocks on disk. Keys are content
// hashes, so a cached transform is valid for as long as its inputs are
// byte-identical and entries never need invalidation.
package cache

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pierrec/lz4/v4"
)

// DefaultMemoryEntries is the default capacity of the in-memory LRU front.
const DefaultMemoryEntries = 4096

// blockHeaderSize is the number of bytes reserved for the uncompressed length.
const blockHeaderSize = 8

// cacheFileMode is the permission mode for cache block files.
const cacheFileMode = 0o644

// cacheDirMode is the permission mode for cache shard directories.
const cacheDirMode = 0o755

// Key derives the content hash for a transform: the source bytes plus a
// fingerprint of every option that affects the output.
func Key(source []byte, fingerprint ...string) string {
	h := sha256.New()
	h.Write(source)

	for _, part := range fingerprint {
		h.Write([]byte{0})
		h.Write([]byte(part))
	}

	return hex.EncodeToString(h.Sum(nil))
}

// TransformCache is the two-tier cache. The zero value is not usable; call New.
type TransformCache struct {
	dir    string
	memory *lru.Cache[string, []byte]

	// Metrics (atomic for lock-free reads).
	hits   atomic.Int64
	misses atomic.Int64
}

// New creates a transform cache rooted at dir. An empty dir disables the disk
// tier and the cache degrades to memory-only.
func New(dir string, memoryEntries int) (*TransformCache, error) {
	if memoryEntries <= 0 {
		memoryEntries = DefaultMemoryEntries
	}

	memory, err := lru.New[string, []byte](memoryEntries)
	if err != nil {
		return nil, fmt.Errorf("create memory cache: %w", err)
	}

	if dir != "" {
		if mkErr := os.MkdirAll(dir, cacheDirMode); mkErr != nil {
			return nil, fmt.Errorf("create cache dir: %w", mkErr)
		}
	}

	return &TransformCache{dir: dir, memory: memory}, nil
}

// Get returns the cached transform output for key. A disk hit is promoted
// into the memory tier.
func (c *TransformCache) Get(key string) ([]byte, bool) {
	if data, ok := c.memory.Get(key); ok {
		c.hits.Add(1)

		return data, true
	}

	data, ok := c.readBlock(key)
	if !ok {
		c.misses.Add(1)

		return nil, false
	}

	c.memory.Add(key, data)
	c.hits.Add(1)

	return data, true
}

// Put stores a transform output under key in both tiers.
func (c *TransformCache) Put(key string, data []byte) error {
	c.memory.Add(key, data)

	return c.writeBlock(key, data)
}

// Stats returns hit and miss counters for the summary report.
func (c *TransformCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// blockPath shards block files by the first hash byte to keep directory
// listings manageable.
func (c *TransformCache) blockPath(key string) string {
	return filepath.Join(c.dir, key[:2], key+".lz4")
}

// writeBlock persists a block: an 8-byte little-endian uncompressed length
// followed by the LZ4-compressed payload. Incompressible payloads are stored
// raw, signalled by the payload length matching the header.
func (c *TransformCache) writeBlock(key string, data []byte) error {
	if c.dir == "" || len(key) < 2 {
		return nil
	}

	path := c.blockPath(key)

	if mkErr := os.MkdirAll(filepath.Dir(path), cacheDirMode); mkErr != nil {
		return fmt.Errorf("create cache shard: %w", mkErr)
	}

	compressed := make([]byte, lz4.CompressBlockBound(len(data)))

	written, err := lz4.CompressBlock(data, compressed, nil)
	if err != nil {
		return fmt.Errorf("compress cache block: %w", err)
	}

	block := make([]byte, blockHeaderSize, blockHeaderSize+written)
	binary.LittleEndian.PutUint64(block, uint64(len(data)))

	// A compressed payload is always strictly smaller than the original, so
	// the reader can tell raw from compressed by length alone.
	if written == 0 || written >= len(data) {
		block = append(block, data...)
	} else {
		block = append(block, compressed[:written]...)
	}

	if writeErr := os.WriteFile(path, block, cacheFileMode); writeErr != nil {
		return fmt.Errorf("write cache block: %w", writeErr)
	}

	return nil
}

// readBlock loads and decompresses a block from disk. Corrupt or truncated
// blocks are treated as misses; the transform simply reruns.
func (c *TransformCache) readBlock(key string) ([]byte, bool) {
	if c.dir == "" || len(key) < 2 {
		return nil, false
	}

	block, err := os.ReadFile(c.blockPath(key))
	if err != nil || len(block) < blockHeaderSize {
		return nil, false
	}

	size := binary.LittleEndian.Uint64(block)
	payload := block[blockHeaderSize:]

	if uint64(len(payload)) == size {
		// Stored raw: the payload did not compress.
		return payload, true
	}

	data := make([]byte, size)

	n, err := lz4.UncompressBlock(payload, data)
	if err != nil || uint64(n) != size {
		return nil, false
	}

	return data, true
}
