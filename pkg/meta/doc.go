// Package meta defines the records the commit log stores and indexes.
//
// A Commit is keyed by a CommitPtr and carries revisions: pairs of a RevPtr,
// naming an attribute of an object, and a Rev, describing the change made to
// it. Commits travel through the value codec as records of the standard types
// std:meta:commit, std:meta:commit-ptr, std:meta:rev-ptr and std:meta:rev.
//
// CommitPtr and CommitIndexItem also have fixed-size big-endian forms used by
// the index file:
//
//	CommitPtr        [secs(8)][nanos(4)][object type(2)][object id(8)][seq(2)]   24 bytes
//	CommitIndexItem  [CommitPtr(24)][content length(8)][content hash(32)]        64 bytes
package meta
