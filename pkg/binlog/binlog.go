package binlog

import (
	"encoding/binary"
	"io"
	"log/slog"
)

// Magic numbers written at the start of each file
const (
	IndexMagic   uint32 = 0x42650100
	ContentMagic uint32 = 0x42650200
)

// HeaderSize is the length of the magic number heading each file
const HeaderSize = 4

// DefaultMaxContentLen bounds the content length a reader accepts from an
// index record
const DefaultMaxContentLen uint64 = 1 << 30

// Stream identifies one of the two files
type Stream uint8

const (
	StreamIndex Stream = iota
	StreamContent
)

func (s Stream) String() string {
	if s == StreamIndex {
		return "index"
	}
	return "content"
}

func (s Stream) magic() uint32 {
	if s == StreamIndex {
		return IndexMagic
	}
	return ContentMagic
}

// Option configures writers and readers
type Option func(*options)

type options struct {
	logger        *slog.Logger
	metrics       *Metrics
	sync          bool
	maxContentLen uint64
}

// WithLogger sets a logger. Without one nothing is logged.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMetrics records activity in m
func WithMetrics(m *Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithSync makes the writer fsync each stream after flushing it, when the
// underlying writer supports Sync
func WithSync(sync bool) Option {
	return func(o *options) {
		o.sync = sync
	}
}

// WithMaxContentLen overrides DefaultMaxContentLen
func WithMaxContentLen(n uint64) Option {
	return func(o *options) {
		o.maxContentLen = n
	}
}

func buildOptions(opts []Option) options {
	o := options{
		logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		maxContentLen: DefaultMaxContentLen,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func readMagic(r io.Reader, s Stream) error {
	var buf [HeaderSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return &IOError{Stream: s, Err: err}
	}
	if got := binary.BigEndian.Uint32(buf[:]); got != s.magic() {
		return &IdentError{Stream: s, Got: got, Want: s.magic()}
	}
	return nil
}

func writeMagic(w io.Writer, s Stream) error {
	var buf [HeaderSize]byte
	binary.BigEndian.PutUint32(buf[:], s.magic())
	if _, err := w.Write(buf[:]); err != nil {
		return &IOError{Stream: s, Err: err}
	}
	return nil
}
