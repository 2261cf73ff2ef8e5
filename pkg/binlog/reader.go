package binlog

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"

	"github.com/Berylsoft/Zeon/pkg/meta"
)

// readIndexItem reads one index record. A stream that ends exactly at a
// record boundary yields io.EOF; a partial record is an error.
func readIndexItem(r io.Reader) (meta.CommitIndexItem, error) {
	var buf [meta.CommitIndexItemSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		if err == io.EOF {
			return meta.CommitIndexItem{}, io.EOF
		}
		return meta.CommitIndexItem{}, &IOError{Stream: StreamIndex, Err: err}
	}
	item, err := meta.ParseCommitIndexItem(buf[:])
	if err != nil {
		return meta.CommitIndexItem{}, &IOError{Stream: StreamIndex, Err: err}
	}
	return item, nil
}

// readContent reads exactly n content bytes. Running out of content is an
// error even at a clean end of file.
func readContent(r io.Reader, n, limit uint64) ([]byte, error) {
	if n > limit {
		return nil, fmt.Errorf("%w: %d > %d", ErrContentTooLarge, n, limit)
	}
	data, err := io.ReadAll(io.LimitReader(r, int64(n)))
	if err != nil {
		return nil, &IOError{Stream: StreamContent, Err: err}
	}
	if uint64(len(data)) < n {
		return nil, &IOError{Stream: StreamContent, Err: io.ErrUnexpectedEOF}
	}
	return data, nil
}

// verify checks content against its index record and decodes it
func verify(item meta.CommitIndexItem, data []byte) (meta.Commit, error) {
	if got := meta.Sum(data); got != item.Hash {
		return meta.Commit{}, &HashError{Ptr: item.Ptr, Want: item.Hash, Got: got}
	}
	c, err := meta.DecodeCommit(data)
	if err != nil {
		return meta.Commit{}, fmt.Errorf("binlog: decode commit %s: %w", item.Ptr, err)
	}
	if c.Ptr != item.Ptr {
		return meta.Commit{}, &PtrError{Index: item.Ptr, Content: c.Ptr}
	}
	return c, nil
}

// Reader replays a pair of files from the start. It reads forward only.
type Reader struct {
	index   *bufio.Reader
	content *bufio.Reader
	limit   uint64
	logger  *slog.Logger
	metrics *Metrics
}

// NewReader checks both magic numbers and returns a reader positioned at the
// first commit
func NewReader(index, content io.Reader, opts ...Option) (*Reader, error) {
	o := buildOptions(opts)
	r := &Reader{
		index:   bufio.NewReader(index),
		content: bufio.NewReader(content),
		limit:   o.maxContentLen,
		logger:  o.logger,
		metrics: o.metrics,
	}
	if err := readMagic(r.index, StreamIndex); err != nil {
		o.metrics.recordFailure(err)
		return nil, err
	}
	if err := readMagic(r.content, StreamContent); err != nil {
		o.metrics.recordFailure(err)
		return nil, err
	}
	return r, nil
}

// Next returns the next commit and its content hash. It returns io.EOF once
// the index is exhausted.
func (r *Reader) Next() (meta.Commit, meta.Hash, error) {
	item, err := readIndexItem(r.index)
	if err == io.EOF {
		return meta.Commit{}, meta.Hash{}, io.EOF
	}
	if err != nil {
		r.metrics.recordFailure(err)
		return meta.Commit{}, meta.Hash{}, err
	}

	data, err := readContent(r.content, item.Len, r.limit)
	if err != nil {
		r.metrics.recordFailure(err)
		return meta.Commit{}, meta.Hash{}, fmt.Errorf("commit %s: %w", item.Ptr, err)
	}

	c, err := verify(item, data)
	if err != nil {
		r.metrics.recordFailure(err)
		r.logger.Warn("commit failed verification", "ptr", item.Ptr.String(), "error", err)
		return meta.Commit{}, meta.Hash{}, err
	}

	r.metrics.recordRead(meta.CommitIndexItemSize, len(data))
	return c, item.Hash, nil
}

// Iterator returns an iterator over the remaining commits
func (r *Reader) Iterator() *CommitIterator {
	return &CommitIterator{next: r.Next}
}

// CommitIterator walks commits until the end of the log or the first error
type CommitIterator struct {
	next   func() (meta.Commit, meta.Hash, error)
	commit meta.Commit
	hash   meta.Hash
	err    error
	done   bool
}

// Next advances to the next commit. It returns false at the end of the log or
// on error; check Err to tell them apart.
func (it *CommitIterator) Next() bool {
	if it.done {
		return false
	}
	c, h, err := it.next()
	if err != nil {
		it.done = true
		if err != io.EOF {
			it.err = err
		}
		return false
	}
	it.commit, it.hash = c, h
	return true
}

// Commit returns the current commit
func (it *CommitIterator) Commit() meta.Commit { return it.commit }

// Hash returns the content hash of the current commit
func (it *CommitIterator) Hash() meta.Hash { return it.hash }

// Err returns the error that stopped the iterator, if any
func (it *CommitIterator) Err() error { return it.err }
