package server

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ironsheep/superpixel-tools/internal/classifier"
	"github.com/ironsheep/superpixel-tools/internal/features"
)

// ModelCache keeps decoded model files keyed by absolute path so repeated
// classify calls do not re-read them. A model file rewritten since it was
// cached (for example by retraining) is read again on the next Load.
//
// ModelCache is safe for concurrent use.
type ModelCache struct {
	mu     sync.Mutex
	models map[string]cachedModel
}

type cachedModel struct {
	model   *classifier.Loaded
	modTime time.Time
	size    int64
}

// NewModelCache creates an empty cache.
func NewModelCache() *ModelCache {
	return &ModelCache{models: make(map[string]cachedModel)}
}

// Load returns the model at path, reading it on first use or when the file
// changed. Models trained on a different feature layout are rejected.
func (c *ModelCache) Load(path string) (*classifier.Loaded, error) {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	info, statErr := os.Stat(path)
	if statErr == nil {
		if e, ok := c.models[path]; ok && e.modTime.Equal(info.ModTime()) && e.size == info.Size() {
			return e.model, nil
		}
	}

	m, err := classifier.Load(path, features.Names())
	if err != nil {
		delete(c.models, path)
		return nil, err
	}
	if statErr == nil {
		c.models[path] = cachedModel{model: m, modTime: info.ModTime(), size: info.Size()}
	}
	return m, nil
}
