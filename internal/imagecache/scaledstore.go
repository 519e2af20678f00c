package imagecache

import (
	"image"
	"log/slog"
	"sync"

	"glyphcache/internal/logging"
)

// ScaledImage is a display-ready bitmap plus the key that produced it.
type ScaledImage struct {
	Image image.Image
	Key   Key
}

// ScaledStore is the L2 tier: composite Key to scaled bitmap, strict LRU.
// Hit and miss counters are incremented on every Get.
type ScaledStore struct {
	mu     sync.Mutex
	lru    *lruCache[Key, ScaledImage]
	stats  *Stats
	logger *slog.Logger
}

// NewScaledStore builds the L2 tier with the given entry capacity.
func NewScaledStore(capacity int, stats *Stats, logger *slog.Logger) *ScaledStore {
	store := &ScaledStore{
		stats:  stats,
		logger: logging.NewComponentLogger(logger, "scaledstore"),
	}
	store.lru = newLRUCache[Key, ScaledImage](capacity, func(_ Key, value ScaledImage) {
		stats.addMemory(-EstimateBytes(value.Image))
	})
	return store
}

// Get returns the scaled bitmap for key, promoting it to most-recently-used.
func (s *ScaledStore) Get(key Key) (ScaledImage, bool) {
	s.mu.Lock()
	value, ok := s.lru.get(key)
	s.mu.Unlock()

	if ok {
		s.stats.recordScaledHit()
	} else {
		s.stats.recordScaledMiss()
	}
	return value, ok
}

// Put inserts or overwrites the scaled bitmap for key. A given key maps to at
// most one entry; overwrite is last-write-wins on the same slot.
func (s *ScaledStore) Put(key Key, img image.Image) {
	if img == nil {
		return
	}

	s.mu.Lock()
	evicted := s.lru.put(key, ScaledImage{Image: img, Key: key})
	s.mu.Unlock()

	s.stats.addMemory(EstimateBytes(img))
	s.stats.recordEvictions(evicted)
}

// Clear drops every entry and returns the number evicted.
func (s *ScaledStore) Clear() int {
	s.mu.Lock()
	count := s.lru.clear()
	s.mu.Unlock()

	s.stats.recordEvictions(count)
	s.logger.Debug("cleared scaled store", logging.Int("evicted", count))
	return count
}

// Len returns the current entry count.
func (s *ScaledStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lru.len()
}
