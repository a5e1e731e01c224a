package ics

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// cacheEntry is the validator state kept next to a cached feed body.
type cacheEntry struct {
	URL          string    `json:"url"`
	ETag         string    `json:"etag,omitempty"`
	LastModified string    `json:"last_modified,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// feedCache stores the last good body of each feed URL under dir, one
// directory per URL:
//
//	<dir>/<sha256(url)[:16]>/feed.ics
//	<dir>/<sha256(url)[:16]>/validators.json
//
// A nil *feedCache is valid and caches nothing.
type feedCache struct {
	dir string
}

func (c *feedCache) slot(feedURL string) string {
	sum := sha256.Sum256([]byte(feedURL))
	return filepath.Join(c.dir, hex.EncodeToString(sum[:8]))
}

// lookup returns the stored validators and body for feedURL. Misses and
// unreadable entries come back empty.
func (c *feedCache) lookup(feedURL string) (cacheEntry, []byte) {
	if c == nil {
		return cacheEntry{}, nil
	}
	slot := c.slot(feedURL)
	body, err := os.ReadFile(filepath.Join(slot, "feed.ics"))
	if err != nil {
		return cacheEntry{}, nil
	}
	var meta cacheEntry
	if data, err := os.ReadFile(filepath.Join(slot, "validators.json")); err == nil {
		if json.Unmarshal(data, &meta) != nil || meta.URL != feedURL {
			meta = cacheEntry{}
		}
	}
	return meta, body
}

// store replaces the cached body and validators for feedURL. The body is
// renamed into place before the validators, so validators never describe
// a body that is not on disk.
func (c *feedCache) store(feedURL string, meta cacheEntry, body []byte) error {
	slot := c.slot(feedURL)
	if err := os.MkdirAll(slot, 0o700); err != nil {
		return err
	}
	if err := replaceFile(filepath.Join(slot, "feed.ics"), body); err != nil {
		return err
	}

	meta.URL = feedURL
	meta.UpdatedAt = time.Now().UTC()
	data, err := json.MarshalIndent(&meta, "", "  ")
	if err != nil {
		return err
	}
	return replaceFile(filepath.Join(slot, "validators.json"), data)
}

func replaceFile(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".cache-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
