// Package imagecache implements the three-tier image cache behind both the
// interactive display path and the batch export pipeline.
//
// The tiers, from fastest to slowest:
//
//   - RawStore (L1): decoded, unscaled bitmaps keyed by source path.
//   - ScaledStore (L2): display-ready bitmaps keyed by the composite Key.
//   - DiskCache: scaled bitmaps persisted under the cache root, surviving
//     restarts, each guarded by a sidecar fingerprint of the source file.
//
// The Coordinator owns the lookup chain (L2, disk, L1, source decode) and
// populates higher tiers on each miss. Both in-memory tiers are strict LRU
// with configurable capacities; every mutating operation is atomic with
// respect to concurrent readers and writers, so the display path and a
// running export job may share the stores freely.
//
// Disk failures never propagate: a read or write error is logged and treated
// as a miss, letting the pipeline degrade to re-rendering instead of crashing.
package imagecache
