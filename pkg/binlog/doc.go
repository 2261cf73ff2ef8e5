// Package binlog stores commits in a pair of append-only files.
//
// # File Layout
//
// The index file holds one fixed-size record per commit:
//
//	[magic 0x42650100(4)][CommitIndexItem(64)]...
//
// The content file holds the encoded commits back to back, in index order:
//
//	[magic 0x42650200(4)][commit bytes]...
//
// Each CommitIndexItem records the commit key, the length of its content and
// the SHAKE-256 hash of that content, so the content file needs no framing.
//
// # Writing
//
// Writer appends content first and flushes it, then appends and flushes the
// index record. A crash between the two leaves an unindexed blob at the end of
// the content file, never an index record pointing at missing content. Recover
// trims such tails.
//
// # Reading
//
// Reader replays both files sequentially. IndexedReader loads the whole index
// into a MemoryIndex and serves lookups by key or hash as well as sequential
// reads. Every read verifies the content hash and that the decoded commit
// carries the key its index record names.
package binlog
