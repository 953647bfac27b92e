package workouts

import (
	"fmt"

	"github.com/2beens/liftlog/internal/telemetry/metrics"

	"github.com/coocood/freecache"
	log "github.com/sirupsen/logrus"
)

const (
	// rendered views of older snapshot versions are never read again,
	// they just age out
	viewCacheExpireSeconds = 60 * 60
	minViewCacheSizeMB     = 1
)

// ViewCache keeps rendered JSON views keyed by snapshot version, so a view is
// computed at most once per snapshot.
type ViewCache struct {
	cache          *freecache.Cache
	metricsManager *metrics.Manager
}

func NewViewCache(sizeMB int, metricsManager *metrics.Manager) *ViewCache {
	if sizeMB < minViewCacheSizeMB {
		sizeMB = minViewCacheSizeMB
	}
	return &ViewCache{
		cache:          freecache.NewCache(sizeMB * 1024 * 1024),
		metricsManager: metricsManager,
	}
}

func viewCacheKey(version uint64, view string) []byte {
	return []byte(fmt.Sprintf("v%d::%s", version, view))
}

// GetOrRender returns the cached bytes for the view at the given snapshot
// version, rendering and storing them on a miss.
func (c *ViewCache) GetOrRender(version uint64, view string, render func() ([]byte, error)) ([]byte, error) {
	key := viewCacheKey(version, view)
	if cached, err := c.cache.Get(key); err == nil {
		c.metricsManager.CounterViewCache.WithLabelValues("hit").Inc()
		return cached, nil
	}
	c.metricsManager.CounterViewCache.WithLabelValues("miss").Inc()

	rendered, err := render()
	if err != nil {
		return nil, err
	}

	if err := c.cache.Set(key, rendered, viewCacheExpireSeconds); err != nil {
		// too large for the cache, serve it anyway
		log.Warnf("view cache, set [%s]: %s", key, err)
	}
	return rendered, nil
}

func (c *ViewCache) EntryCount() int64 {
	return c.cache.EntryCount()
}
