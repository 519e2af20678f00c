package imagecache

import "sync/atomic"

// Stats tracks hit/miss counters and the current memory estimate across all
// tiers. Counters only grow; Reset is explicit. All methods are safe for
// concurrent use.
type Stats struct {
	rawHits      atomic.Int64
	rawMisses    atomic.Int64
	scaledHits   atomic.Int64
	scaledMisses atomic.Int64
	diskHits     atomic.Int64
	diskMisses   atomic.Int64
	evictions    atomic.Int64
	memoryBytes  atomic.Int64
}

// Snapshot is a point-in-time copy of the counters for reporting.
type Snapshot struct {
	RawHits      int64 `json:"raw_hits"`
	RawMisses    int64 `json:"raw_misses"`
	ScaledHits   int64 `json:"scaled_hits"`
	ScaledMisses int64 `json:"scaled_misses"`
	DiskHits     int64 `json:"disk_hits"`
	DiskMisses   int64 `json:"disk_misses"`
	Evictions    int64 `json:"evictions"`
	MemoryBytes  int64 `json:"memory_bytes"`
}

func (s *Stats) recordRawHit()      { s.rawHits.Add(1) }
func (s *Stats) recordRawMiss()     { s.rawMisses.Add(1) }
func (s *Stats) recordScaledHit()   { s.scaledHits.Add(1) }
func (s *Stats) recordScaledMiss()  { s.scaledMisses.Add(1) }
func (s *Stats) recordDiskHit()     { s.diskHits.Add(1) }
func (s *Stats) recordDiskMiss()    { s.diskMisses.Add(1) }
func (s *Stats) recordEvictions(n int) {
	if n > 0 {
		s.evictions.Add(int64(n))
	}
}
func (s *Stats) addMemory(delta int64) { s.memoryBytes.Add(delta) }

// Snapshot copies the current counter values.
func (s *Stats) Snapshot() Snapshot {
	return Snapshot{
		RawHits:      s.rawHits.Load(),
		RawMisses:    s.rawMisses.Load(),
		ScaledHits:   s.scaledHits.Load(),
		ScaledMisses: s.scaledMisses.Load(),
		DiskHits:     s.diskHits.Load(),
		DiskMisses:   s.diskMisses.Load(),
		Evictions:    s.evictions.Load(),
		MemoryBytes:  s.memoryBytes.Load(),
	}
}

// Reset zeroes every counter. Only the explicit clear paths call this.
func (s *Stats) Reset() {
	s.rawHits.Store(0)
	s.rawMisses.Store(0)
	s.scaledHits.Store(0)
	s.scaledMisses.Store(0)
	s.diskHits.Store(0)
	s.diskMisses.Store(0)
	s.evictions.Store(0)
	s.memoryBytes.Store(0)
}

// RawHitRate returns the L1 hit ratio in [0,1], or 0 with no lookups yet.
func (sn Snapshot) RawHitRate() float64 { return hitRate(sn.RawHits, sn.RawMisses) }

// ScaledHitRate returns the L2 hit ratio in [0,1].
func (sn Snapshot) ScaledHitRate() float64 { return hitRate(sn.ScaledHits, sn.ScaledMisses) }

// DiskHitRate returns the disk tier hit ratio in [0,1].
func (sn Snapshot) DiskHitRate() float64 { return hitRate(sn.DiskHits, sn.DiskMisses) }

func hitRate(hits, misses int64) float64 {
	total := hits + misses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}
