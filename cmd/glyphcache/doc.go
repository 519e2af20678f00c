// Command glyphcache manages the pictograph image cache and runs batch
// exports of the word catalog.
package main
