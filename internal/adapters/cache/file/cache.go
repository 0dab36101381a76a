// Package file implements the snapshot cache as one JSON record per
// tag inside an identity-scoped directory.
package file

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/vshulcz/Intfstat/internal/domain"
	"github.com/vshulcz/Intfstat/internal/misc"
	"github.com/vshulcz/Intfstat/internal/ports"
)

// DefaultTag is the record name used when the caller supplies no tag.
const DefaultTag = "latest"

const recordVersion = 1

const recordSuffix = ".snapshot.json"

// validTag rejects tags that could escape the cache directory.
var validTag = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// Cache stores tagged snapshots under dir. Identity scoping (one
// directory per invoking user) is the caller's responsibility; the
// cache never resolves paths on its own.
type Cache struct {
	dir string
}

var _ ports.SnapshotCache = (*Cache)(nil)

// New returns a cache rooted at dir. The directory is created lazily
// on first save.
func New(dir string) *Cache {
	return &Cache{dir: dir}
}

// record is the persisted envelope. The snapshot travels as raw JSON so
// the checksum covers exactly the bytes on disk.
type record struct {
	Version  int             `json:"version"`
	SavedAt  time.Time       `json:"saved_at"`
	Checksum string          `json:"checksum"`
	Snapshot json.RawMessage `json:"snapshot"`
}

// Save persists s under tag, overwriting any existing record. The write
// goes through a temp file and rename, so a concurrent reader sees
// either the old or the new record, never a partial one.
func (c *Cache) Save(_ context.Context, tag string, s domain.Snapshot) error {
	path, err := c.path(tag)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("%w: encode snapshot: %v", domain.ErrStorage, err)
	}
	rec := record{
		Version:  recordVersion,
		SavedAt:  time.Now().UTC(),
		Checksum: misc.Checksum(payload),
		Snapshot: payload,
	}
	if err := writeJSONAtomic(path, rec); err != nil {
		return fmt.Errorf("%w: save %q: %v", domain.ErrStorage, tag, err)
	}
	return nil
}

// Load reads the record saved under tag. A missing record returns
// domain.ErrNotFound; a present but unreadable or corrupted record is a
// storage error, never silently shown as a baseline.
func (c *Cache) Load(_ context.Context, tag string) (domain.CachedSnapshot, error) {
	path, err := c.path(tag)
	if err != nil {
		return domain.CachedSnapshot{}, err
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.CachedSnapshot{}, fmt.Errorf("%w: no snapshot saved under %q", domain.ErrNotFound, tag)
		}
		return domain.CachedSnapshot{}, fmt.Errorf("%w: read %q: %v", domain.ErrStorage, tag, err)
	}

	var rec record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return domain.CachedSnapshot{}, fmt.Errorf("%w: decode %q: %v", domain.ErrStorage, tag, err)
	}
	if rec.Version != recordVersion {
		return domain.CachedSnapshot{}, fmt.Errorf("%w: record %q has unsupported version %d", domain.ErrStorage, tag, rec.Version)
	}
	// The stored payload is indented on disk; the checksum covers the
	// compact form.
	var compact bytes.Buffer
	if err := json.Compact(&compact, rec.Snapshot); err != nil {
		return domain.CachedSnapshot{}, fmt.Errorf("%w: decode %q: %v", domain.ErrStorage, tag, err)
	}
	if sum := misc.Checksum(compact.Bytes()); sum != rec.Checksum {
		return domain.CachedSnapshot{}, fmt.Errorf("%w: record %q failed checksum verification", domain.ErrStorage, tag)
	}

	var s domain.Snapshot
	if err := json.Unmarshal(rec.Snapshot, &s); err != nil {
		return domain.CachedSnapshot{}, fmt.Errorf("%w: decode snapshot %q: %v", domain.ErrStorage, tag, err)
	}
	return domain.CachedSnapshot{SavedAt: rec.SavedAt, Snapshot: s}, nil
}

// Delete removes the record saved under tag; deleting an absent record
// is not an error.
func (c *Cache) Delete(_ context.Context, tag string) error {
	path, err := c.path(tag)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: delete %q: %v", domain.ErrStorage, tag, err)
	}
	return nil
}

// DeleteAll removes every record in the cache directory, regardless of
// tag. Files that are not cache records are left alone.
func (c *Cache) DeleteAll(_ context.Context) error {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("%w: read cache dir: %v", domain.ErrStorage, err)
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), recordSuffix) {
			continue
		}
		if err := os.Remove(filepath.Join(c.dir, e.Name())); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: delete %q: %v", domain.ErrStorage, e.Name(), err)
		}
	}
	return nil
}

func (c *Cache) path(tag string) (string, error) {
	if tag == "" {
		tag = DefaultTag
	}
	if !validTag.MatchString(tag) {
		return "", fmt.Errorf("%w: tag %q", domain.ErrInvalidFilter, tag)
	}
	return filepath.Join(c.dir, tag+recordSuffix), nil
}

func writeJSONAtomic(path string, rec record) (retErr error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("mkdir: %w", err)
		}
	}
	tmp, err := os.CreateTemp(dir, ".snapshot-*")
	if err != nil {
		return fmt.Errorf("create tmp: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := true
	closed := false
	defer func() {
		if !closed {
			if cerr := tmp.Close(); cerr != nil && retErr == nil {
				retErr = fmt.Errorf("close tmp: %w", cerr)
			}
		}
		if cleanup {
			if err := os.Remove(tmpName); err != nil && retErr == nil {
				retErr = fmt.Errorf("remove tmp: %w", err)
			}
		}
	}()
	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rec); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close tmp: %w", err)
	}
	closed = true
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	cleanup = false
	return nil
}
