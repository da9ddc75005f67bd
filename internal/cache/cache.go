package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/shouze/asp-classic-parser/internal/outcome"
)

// formatVersion is bumped whenever the snapshot layout changes. A snapshot
// carrying any other value is treated as corrupt and replaced by an empty
// cache.
const formatVersion = "1"

// DefaultMaxAge is how long an entry stays reusable before it expires.
const DefaultMaxAge = 24 * time.Hour

// SnapshotName is the file name of the persisted snapshot.
const SnapshotName = "parse_cache.mp"

// EnvCacheDir overrides the snapshot directory when set.
const EnvCacheDir = "ASPLINT_CACHE_DIR"

// Entry is the durable record for one file. It is owned by the Cache and
// mutated only through Record; callers get copies, never references.
type Entry struct {
	FilePath     string       `msgpack:"file_path"`
	ContentHash  string       `msgpack:"content_hash"`
	OptionsHash  string       `msgpack:"options_hash"`
	CreatedAt    time.Time    `msgpack:"created_at"`
	OutcomeKind  outcome.Kind `msgpack:"outcome_kind"`
	ErrorMessage string       `msgpack:"error_message,omitempty"`
}

type snapshot struct {
	FormatVersion string           `msgpack:"format_version"`
	Entries       map[string]Entry `msgpack:"entries"`
	LastModified  time.Time        `msgpack:"last_modified"`
	MaxAgeSecs    int64            `msgpack:"max_age_secs"`
}

// Cache is the persistent fingerprint cache consulted by the batch driver.
// All disk I/O is confined to Load and Save; every other operation works on
// the in-memory table under the internal mutex, so a single Cache value can
// be shared across workers.
type Cache struct {
	mu           sync.RWMutex
	entries      map[string]Entry
	lastModified time.Time
	maxAge       time.Duration
}

// New returns an empty cache with the default max age.
func New() *Cache {
	return &Cache{
		entries:      make(map[string]Entry),
		lastModified: time.Now(),
		maxAge:       DefaultMaxAge,
	}
}

// HashOptions hashes a canonical, order-sensitive concatenation of the option
// values that can change a parse outcome. The same sequence in the same order
// always yields the same digest; a reordered sequence yields a different one.
func HashOptions(options []string) string {
	sum := sha256.Sum256([]byte(strings.Join(options, ",")))
	return hex.EncodeToString(sum[:])
}

// HashFile hashes the raw bytes of the file at path. No encoding
// normalization: two byte-identical files hash the same regardless of charset.
func HashFile(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:]), nil
}

// DefaultPath resolves the snapshot location: $ASPLINT_CACHE_DIR when set,
// otherwise the XDG cache directory under an app-specific subdirectory.
func DefaultPath() string {
	if dir := os.Getenv(EnvCacheDir); dir != "" {
		return filepath.Join(dir, SnapshotName)
	}
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(".cache", "asp-classic-parser", SnapshotName)
		}
		base = filepath.Join(home, ".cache")
	}
	return filepath.Join(base, "asp-classic-parser", SnapshotName)
}

// Load reads a snapshot from path. Any failure (missing file, unreadable
// file, malformed payload, format version mismatch) degrades to an empty
// cache; a warning is printed for everything except a missing file. Load
// never aborts a run.
func Load(path string) *Cache {
	c := New()

	f, err := os.Open(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "warning: failed to read cache file: %v\n", err)
		}
		return c
	}
	defer f.Close()

	var snap snapshot
	if err := msgpack.NewDecoder(f).Decode(&snap); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to parse cache file: %v\n", err)
		return c
	}
	if snap.FormatVersion != formatVersion {
		fmt.Fprintf(os.Stderr, "warning: cache format version %q does not match %q, starting empty\n",
			snap.FormatVersion, formatVersion)
		return c
	}

	if snap.Entries != nil {
		c.entries = snap.Entries
	}
	c.lastModified = snap.LastModified
	if snap.MaxAgeSecs > 0 {
		c.maxAge = time.Duration(snap.MaxAgeSecs) * time.Second
	}
	return c
}

// Save writes the snapshot to path, creating parent directories as needed.
// The write goes through a temp file and an atomic rename so a crashed run
// never leaves a truncated snapshot behind.
func (c *Cache) Save(path string) error {
	c.mu.RLock()
	snap := snapshot{
		FormatVersion: formatVersion,
		Entries:       make(map[string]Entry, len(c.entries)),
		LastModified:  c.lastModified,
		MaxAgeSecs:    int64(c.maxAge / time.Second),
	}
	for k, v := range c.entries {
		snap.Entries[k] = v
	}
	c.mu.RUnlock()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("save cache: %w", err)
	}
	f, err := os.CreateTemp(dir, "tmp-*")
	if err != nil {
		return fmt.Errorf("save cache: %w", err)
	}
	tmpName := f.Name()
	if err := msgpack.NewEncoder(f).Encode(&snap); err != nil {
		f.Close()
		os.Remove(tmpName)
		return fmt.Errorf("save cache: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("save cache: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("save cache: %w", err)
	}
	return nil
}

// IsValid reports whether the entry for path can be reused: it must exist, be
// younger than the max age, carry the same options hash, and the file's
// current bytes must hash to the recorded content hash. A hashing failure is
// returned so the caller can treat it as "not valid" rather than fatal.
func (c *Cache) IsValid(path string, optionsHash string) (bool, error) {
	c.mu.RLock()
	entry, ok := c.entries[keyFor(path)]
	maxAge := c.maxAge
	c.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if time.Since(entry.CreatedAt) > maxAge {
		return false, nil
	}
	if entry.OptionsHash != optionsHash {
		return false, nil
	}
	currentHash, err := HashFile(path)
	if err != nil {
		return false, err
	}
	return currentHash == entry.ContentHash, nil
}

// Record inserts or atomically replaces the entry for path. errorMessage is
// stored for true errors and for recoverable skips (the message disambiguates
// the skip reason on a later hit); pass "" for success.
func (c *Cache) Record(path string, kind outcome.Kind, optionsHash, errorMessage string) error {
	contentHash, err := HashFile(path)
	if err != nil {
		return err
	}
	entry := Entry{
		FilePath:     path,
		ContentHash:  contentHash,
		OptionsHash:  optionsHash,
		CreatedAt:    time.Now(),
		OutcomeKind:  kind,
		ErrorMessage: errorMessage,
	}
	c.mu.Lock()
	c.entries[keyFor(path)] = entry
	c.lastModified = time.Now()
	c.mu.Unlock()
	return nil
}

// Lookup returns a copy of the entry for path.
func (c *Cache) Lookup(path string) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[keyFor(path)]
	return entry, ok
}

// Remove deletes the entry for path and reports whether one existed.
func (c *Cache) Remove(path string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := keyFor(path)
	if _, ok := c.entries[key]; !ok {
		return false
	}
	delete(c.entries, key)
	c.lastModified = time.Now()
	return true
}

// SweepExpired removes every entry older than the max age and returns how
// many were dropped. The batch driver runs this opportunistically at the
// start of a run.
func (c *Cache) SweepExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now()
	count := 0
	for key, entry := range c.entries {
		if now.Sub(entry.CreatedAt) > c.maxAge {
			delete(c.entries, key)
			count++
		}
	}
	if count > 0 {
		c.lastModified = now
	}
	return count
}

// Len returns the number of entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// SetMaxAge overrides the entry expiry age.
func (c *Cache) SetMaxAge(d time.Duration) {
	c.mu.Lock()
	c.maxAge = d
	c.mu.Unlock()
}

func keyFor(path string) string {
	return filepath.ToSlash(path)
}
