package binlog

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/Berylsoft/Zeon/pkg/meta"
)

// cursorState tracks whether the content cursor sits where the next
// sequential record begins
type cursorState uint8

const (
	// cursorClean: the last positioning of the content stream was sequential
	cursorClean cursorState = iota
	// cursorDirty: a lookup moved the content stream; the next sequential read
	// must seek first
	cursorDirty
)

// IndexedReader serves commits by key, by hash and in order from a fully
// loaded index and a seekable content stream
type IndexedReader struct {
	index   *MemoryIndex
	content io.ReadSeeker
	state   cursorState
	limit   uint64
	logger  *slog.Logger
	metrics *Metrics
}

// NewIndexedReader checks the content magic and positions sequential reads
// at the first record of index
func NewIndexedReader(index *MemoryIndex, content io.ReadSeeker, opts ...Option) (*IndexedReader, error) {
	o := buildOptions(opts)
	if _, err := content.Seek(0, io.SeekStart); err != nil {
		return nil, &IOError{Stream: StreamContent, Err: err}
	}
	if err := readMagic(content, StreamContent); err != nil {
		o.metrics.recordFailure(err)
		return nil, err
	}
	index.Reset()
	return &IndexedReader{
		index:   index,
		content: content,
		state:   cursorClean,
		limit:   o.maxContentLen,
		logger:  o.logger,
		metrics: o.metrics,
	}, nil
}

// OpenIndexedReader loads the whole index stream and opens an IndexedReader
// over it
func OpenIndexedReader(index io.Reader, content io.ReadSeeker, opts ...Option) (*IndexedReader, error) {
	ir, err := NewIndexReader(index, opts...)
	if err != nil {
		return nil, err
	}
	m, err := ir.ReadAll()
	if err != nil {
		return nil, err
	}
	return NewIndexedReader(m, content, opts...)
}

// Index returns the in-memory index
func (r *IndexedReader) Index() *MemoryIndex { return r.index }

// Next returns the next commit in file order, or io.EOF after the last one.
// It seeks only when a lookup moved the content stream since the previous
// sequential read.
func (r *IndexedReader) Next() (meta.Commit, meta.Hash, error) {
	loc, ok := r.index.At(r.index.next)
	if !ok {
		return meta.Commit{}, meta.Hash{}, io.EOF
	}
	// a failed seek leaves the position on loc so the next call retries it
	if r.state == cursorDirty {
		if err := r.seek(loc); err != nil {
			return meta.Commit{}, meta.Hash{}, err
		}
		r.state = cursorClean
	}
	r.index.next++
	return r.read(loc)
}

// Find returns the first commit whose key is ptr, or ErrNotFound
func (r *IndexedReader) Find(ptr meta.CommitPtr) (meta.Commit, meta.Hash, error) {
	loc, ok := r.index.Find(ptr)
	if !ok {
		return meta.Commit{}, meta.Hash{}, fmt.Errorf("%w: %s", ErrNotFound, ptr)
	}
	return r.readAt(loc)
}

// FindByHash returns the first commit whose content hash is h, or ErrNotFound
func (r *IndexedReader) FindByHash(h meta.Hash) (meta.Commit, meta.Hash, error) {
	loc, ok := r.index.FindByHash(h)
	if !ok {
		return meta.Commit{}, meta.Hash{}, fmt.Errorf("%w: hash %s", ErrNotFound, h)
	}
	return r.readAt(loc)
}

// ReadAt returns the commit stored at loc
func (r *IndexedReader) ReadAt(loc Location) (meta.Commit, meta.Hash, error) {
	return r.readAt(loc)
}

// Reset restarts sequential reads at the first record
func (r *IndexedReader) Reset() {
	r.index.Reset()
	r.state = cursorDirty
}

func (r *IndexedReader) readAt(loc Location) (meta.Commit, meta.Hash, error) {
	if err := r.seek(loc); err != nil {
		return meta.Commit{}, meta.Hash{}, err
	}
	r.state = cursorDirty
	return r.read(loc)
}

func (r *IndexedReader) seek(loc Location) error {
	r.metrics.recordSeek()
	if _, err := r.content.Seek(int64(HeaderSize+loc.Offset), io.SeekStart); err != nil {
		return &IOError{Stream: StreamContent, Err: err}
	}
	return nil
}

// read consumes the content of loc from the current position. On error the
// cursor position is unknown, so the next sequential read seeks.
func (r *IndexedReader) read(loc Location) (meta.Commit, meta.Hash, error) {
	data, err := readContent(r.content, loc.Item.Len, r.limit)
	if err != nil {
		r.state = cursorDirty
		r.metrics.recordFailure(err)
		return meta.Commit{}, meta.Hash{}, fmt.Errorf("commit %s: %w", loc.Item.Ptr, err)
	}
	c, err := verify(loc.Item, data)
	if err != nil {
		r.metrics.recordFailure(err)
		r.logger.Warn("commit failed verification", "ptr", loc.Item.Ptr.String(), "error", err)
		return meta.Commit{}, meta.Hash{}, err
	}
	r.metrics.recordRead(0, len(data))
	return c, loc.Item.Hash, nil
}
