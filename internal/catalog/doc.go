// Package catalog enumerates the source image library into stable
// SourceDescriptors.
//
// The library layout is one subdirectory per word containing that word's
// rendered sequence variations, with flat files at the root treated as
// single-image words. Scanning is deterministic: descriptors come back sorted
// by word then path, so batch runs over an unchanged library process items in
// the same order every time.
package catalog
