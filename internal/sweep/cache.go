package sweep

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/wbeardall/schedtools-go/internal/jobmodel"
)

// FallbackCache holds the tracked payload locally when the remote mirror
// write fails, so the next sweep can replay it. Implementations must write
// atomically (§5: temp file then rename).
type FallbackCache interface {
	Load() ([]jobmodel.JobSpec, bool, error)
	Save(specs []jobmodel.JobSpec) error
	Clear() error
}

// FileCache is a FallbackCache backed by a single JSON file on local disk.
type FileCache struct {
	path string
}

// NewFileCache builds a FileCache rooted at path.
func NewFileCache(path string) *FileCache {
	return &FileCache{path: path}
}

// Load reads the cache file. ok is false if the file does not exist.
func (c *FileCache) Load() ([]jobmodel.JobSpec, bool, error) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("load fallback cache %s: %w", c.path, err)
	}
	var specs []jobmodel.JobSpec
	if err := json.Unmarshal(data, &specs); err != nil {
		return nil, false, fmt.Errorf("parse fallback cache %s: %w", c.path, err)
	}
	return specs, true, nil
}

// Save writes specs to the cache file atomically: write to a temp file in
// the same directory, then rename over the target.
func (c *FileCache) Save(specs []jobmodel.JobSpec) error {
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("save fallback cache %s: %w", c.path, err)
	}
	data, err := json.Marshal(specs)
	if err != nil {
		return fmt.Errorf("save fallback cache %s: %w", c.path, err)
	}
	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("save fallback cache %s: %w", c.path, err)
	}
	if err := os.Rename(tmp, c.path); err != nil {
		return fmt.Errorf("save fallback cache %s: %w", c.path, err)
	}
	return nil
}

// Clear removes the cache file, if present.
func (c *FileCache) Clear() error {
	if err := os.Remove(c.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("clear fallback cache %s: %w", c.path, err)
	}
	return nil
}

// DefaultCachePath returns the well-known local fallback cache path for
// host, per §6: under /var/tmp when running as a system service (root),
// otherwise under the user's home directory.
func DefaultCachePath(host string) string {
	if os.Geteuid() == 0 {
		return filepath.Join("/var/tmp/remote-jobs", host+".json")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".remote-jobs", host+".json")
}
