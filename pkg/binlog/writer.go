package binlog

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/Berylsoft/Zeon/pkg/meta"
)

type syncer interface {
	Sync() error
}

// stream is one buffered output file
type stream struct {
	kind Stream
	w    *bufio.Writer
	sync syncer
}

func newStream(kind Stream, w io.Writer, sync bool) *stream {
	s := &stream{kind: kind, w: bufio.NewWriter(w)}
	if sync {
		s.sync, _ = w.(syncer)
	}
	return s
}

func (s *stream) write(p []byte) error {
	if _, err := s.w.Write(p); err != nil {
		return &IOError{Stream: s.kind, Err: fmt.Errorf("bufio.Write: %w", err)}
	}
	return nil
}

func (s *stream) flush() error {
	if err := s.w.Flush(); err != nil {
		return &IOError{Stream: s.kind, Err: fmt.Errorf("bufio.Flush: %w", err)}
	}
	if s.sync != nil {
		if err := s.sync.Sync(); err != nil {
			return &IOError{Stream: s.kind, Err: fmt.Errorf("sync: %w", err)}
		}
	}
	return nil
}

// Writer appends commits to an index and content stream. A Writer must be
// the only writer of its streams.
//
// A failed write or flush leaves the streams in an unknown state, so the
// Writer refuses every later commit with ErrWriterFailed. Reopening the files
// and running Recover restores a writable log.
type Writer struct {
	index   *stream
	content *stream
	limit   uint64
	logger  *slog.Logger
	metrics *Metrics
	buf     []byte
	err     error
}

// NewWriter starts a new pair of files by writing both magic numbers
func NewWriter(index, content io.Writer, opts ...Option) (*Writer, error) {
	w := ResumeWriter(index, content, opts...)
	if err := writeMagic(w.index.w, StreamIndex); err != nil {
		return nil, err
	}
	if err := writeMagic(w.content.w, StreamContent); err != nil {
		return nil, err
	}
	if err := w.content.flush(); err != nil {
		return nil, err
	}
	if err := w.index.flush(); err != nil {
		return nil, err
	}
	w.logger.Debug("binlog initialized")
	return w, nil
}

// ResumeWriter appends to a pair of files whose magic numbers are already in
// place. Both writers must be positioned at the end of their valid data.
func ResumeWriter(index, content io.Writer, opts ...Option) *Writer {
	o := buildOptions(opts)
	return &Writer{
		index:   newStream(StreamIndex, index, o.sync),
		content: newStream(StreamContent, content, o.sync),
		limit:   o.maxContentLen,
		logger:  o.logger,
		metrics: o.metrics,
	}
}

// WriteCommit appends c and returns the index record written for it. The
// content is flushed before the index record is written. Content longer than
// the configured limit is rejected with ErrContentTooLarge before anything is
// written.
func (w *Writer) WriteCommit(c meta.Commit) (meta.CommitIndexItem, error) {
	if w.err != nil {
		return meta.CommitIndexItem{}, fmt.Errorf("%w: %w", ErrWriterFailed, w.err)
	}
	start := time.Now()

	data, err := c.Encode()
	if err != nil {
		return meta.CommitIndexItem{}, fmt.Errorf("binlog: encode commit %s: %w", c.Ptr, err)
	}
	if uint64(len(data)) > w.limit {
		return meta.CommitIndexItem{}, fmt.Errorf("commit %s: %w: %d > %d", c.Ptr, ErrContentTooLarge, len(data), w.limit)
	}
	item := meta.CommitIndexItem{
		Ptr:  c.Ptr,
		Len:  uint64(len(data)),
		Hash: meta.Sum(data),
	}

	if err := w.write(w.content, data); err != nil {
		return meta.CommitIndexItem{}, err
	}
	w.buf = item.Append(w.buf[:0])
	if err := w.write(w.index, w.buf); err != nil {
		return meta.CommitIndexItem{}, err
	}

	w.metrics.recordWrite(len(w.buf), len(data), time.Since(start))
	w.logger.Debug("commit appended",
		"ptr", c.Ptr.String(),
		"len", item.Len,
		"hash", item.Hash.String())
	return item, nil
}

// write writes and flushes p, marking the Writer failed on error
func (w *Writer) write(s *stream, p []byte) error {
	err := s.write(p)
	if err == nil {
		err = s.flush()
	}
	if err != nil {
		w.err = err
		w.logger.Error("binlog write failed", "stream", s.kind.String(), "error", err)
	}
	return err
}
