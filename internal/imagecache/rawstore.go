package imagecache

import (
	"image"
	"log/slog"
	"sync"

	"glyphcache/internal/logging"
)

// RawImage is a decoded, unscaled bitmap plus the bookkeeping the memory
// estimate needs. Never mutated after insertion.
type RawImage struct {
	Image      image.Image
	SourcePath string
	ByteSize   int64
}

// EstimateBytes approximates the in-memory footprint of a decoded bitmap.
func EstimateBytes(img image.Image) int64 {
	if img == nil {
		return 0
	}
	bounds := img.Bounds()
	return int64(bounds.Dx()) * int64(bounds.Dy()) * 4
}

// RawStore is the L1 tier: source path to decoded bitmap, strict LRU.
type RawStore struct {
	mu     sync.Mutex
	lru    *lruCache[string, RawImage]
	stats  *Stats
	logger *slog.Logger
}

// NewRawStore builds the L1 tier with the given entry capacity.
func NewRawStore(capacity int, stats *Stats, logger *slog.Logger) *RawStore {
	store := &RawStore{
		stats:  stats,
		logger: logging.NewComponentLogger(logger, "rawstore"),
	}
	store.lru = newLRUCache[string, RawImage](capacity, func(_ string, value RawImage) {
		stats.addMemory(-value.ByteSize)
	})
	return store
}

// Get returns the cached decode for path, promoting it to most-recently-used.
func (s *RawStore) Get(path string) (RawImage, bool) {
	s.mu.Lock()
	value, ok := s.lru.get(path)
	s.mu.Unlock()

	if ok {
		s.stats.recordRawHit()
	} else {
		s.stats.recordRawMiss()
	}
	return value, ok
}

// Put inserts or overwrites the decode for path. Insertion beyond capacity
// evicts the least-recently-used entry.
func (s *RawStore) Put(path string, img RawImage) {
	if img.Image == nil {
		return
	}
	if img.ByteSize <= 0 {
		img.ByteSize = EstimateBytes(img.Image)
	}

	s.mu.Lock()
	evicted := s.lru.put(path, img)
	s.mu.Unlock()

	s.stats.addMemory(img.ByteSize)
	s.stats.recordEvictions(evicted)
}

// Clear drops every entry and returns the number evicted.
func (s *RawStore) Clear() int {
	s.mu.Lock()
	count := s.lru.clear()
	s.mu.Unlock()

	s.stats.recordEvictions(count)
	s.logger.Debug("cleared raw store", logging.Int("evicted", count))
	return count
}

// Len returns the current entry count.
func (s *RawStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lru.len()
}
