package corpus

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/klauspost/compress/zstd"
)

const cacheExt = ".words.zst"

// Cache keeps the words extracted from PDFs on disk so reopening a document
// skips extraction. Entries are zstd-compressed, one file per document, and
// the oldest entries are evicted once the cache grows past its capacity.
type Cache struct {
	dir      string
	capacity int64 // bytes

	mu      sync.Mutex
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// NewCache creates a cache in dir holding at most capacity bytes.
func NewCache(dir string, capacity int64) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil { //nolint:gosec
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		_ = enc.Close()
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}

	return &Cache{dir: dir, capacity: capacity, encoder: enc, decoder: dec}, nil
}

// Key identifies the words of the PDF at path as extracted with opts. It
// changes whenever the file is modified.
func (c *Cache) Key(path string, opts PDFOptions) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("unable to get absolute path: %w", err)
	}
	st, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("unable to stat file: %w", err)
	}

	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%d\x00%d\x00%d-%d\x00%t",
		abs, st.Size(), st.ModTime().UnixNano(),
		opts.FirstPage, opts.LastPage, opts.ExcludeHeadersFooters)
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Get returns the cached words for key.
func (c *Cache) Get(key string) ([]string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	path := c.path(key)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}

	raw, err := c.decoder.DecodeAll(data, nil)
	if err != nil {
		log.Debug("dropping corrupt cache entry", "key", key, "error", err)
		_ = os.Remove(path)
		return nil, false
	}

	// Mark as recently used.
	now := time.Now()
	_ = os.Chtimes(path, now, now)

	if len(raw) == 0 {
		return []string{}, true
	}
	return strings.Split(string(raw), "\n"), true
}

// Put stores words under key and evicts old entries if the cache is full.
// Words must not contain newlines.
func (c *Cache) Put(key string, words []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	data := c.encoder.EncodeAll([]byte(strings.Join(words, "\n")), nil)

	// Write to a temp file first so readers never see a partial entry.
	tmp, err := os.CreateTemp(c.dir, "tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create cache file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	if err := os.Rename(tmp.Name(), c.path(key)); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to store cache file: %w", err)
	}

	c.evict()
	return nil
}

// Size returns the bytes used by cache entries.
func (c *Cache) Size() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	var size int64
	for _, e := range c.entries() {
		size += e.size
	}
	return size
}

// Close releases the compressor.
func (c *Cache) Close() error {
	c.decoder.Close()
	return c.encoder.Close() //nolint:wrapcheck
}

func (c *Cache) path(key string) string {
	return filepath.Join(c.dir, key+cacheExt)
}

type cacheEntry struct {
	path  string
	size  int64
	mtime int64
}

func (c *Cache) entries() []cacheEntry {
	matches, err := filepath.Glob(filepath.Join(c.dir, "*"+cacheExt))
	if err != nil {
		return nil
	}

	entries := make([]cacheEntry, 0, len(matches))
	for _, m := range matches {
		st, err := os.Stat(m)
		if err != nil {
			continue
		}
		entries = append(entries, cacheEntry{path: m, size: st.Size(), mtime: st.ModTime().UnixNano()})
	}
	return entries
}

// evict removes least recently used entries until the cache fits.
func (c *Cache) evict() {
	entries := c.entries()

	var size int64
	for _, e := range entries {
		size += e.size
	}
	if size <= c.capacity {
		return
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].mtime < entries[j].mtime })
	for _, e := range entries {
		if size <= c.capacity {
			break
		}
		if err := os.Remove(e.path); err != nil {
			continue
		}
		size -= e.size
		log.Debug("evicted cache entry", "path", e.path, "size", e.size)
	}
}
