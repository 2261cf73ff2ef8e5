package binlog

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Berylsoft/Zeon/pkg/meta"
	"github.com/Berylsoft/Zeon/pkg/std"
	"github.com/Berylsoft/Zeon/pkg/types"
)

func testCommit(i int) meta.Commit {
	obj := types.ObjectPtr{Type: 0x0100, ID: uint64(i)}
	return meta.Commit{
		Ptr: meta.CommitPtr{
			TS:  types.Timestamp{Secs: int64(1000 + i), Nanos: 500},
			Opr: types.ObjectPtr{Type: 1, ID: 7},
			Seq: uint16(i),
		},
		Revs: []meta.RevEntry{
			{Ptr: meta.RevPtr{Object: obj, TraitType: std.Name}, Rev: meta.MutRev(types.String(fmt.Sprintf("object-%d", i)))},
			{Ptr: meta.RevPtr{Object: obj, TraitType: std.ObjectMeta}, Rev: meta.SetAddRev(std.Name)},
		},
	}
}

type testLog struct {
	index   *bytes.Buffer
	content *bytes.Buffer
	commits []meta.Commit
	items   []meta.CommitIndexItem
}

func writeLog(t *testing.T, n int, opts ...Option) *testLog {
	t.Helper()
	l := &testLog{index: new(bytes.Buffer), content: new(bytes.Buffer)}
	w, err := NewWriter(l.index, l.content, opts...)
	require.NoError(t, err)
	for i := 0; i < n; i++ {
		c := testCommit(i)
		item, err := w.WriteCommit(c)
		require.NoError(t, err)
		l.commits = append(l.commits, c)
		l.items = append(l.items, item)
	}
	return l
}

func (l *testLog) reader(t *testing.T, opts ...Option) *Reader {
	t.Helper()
	r, err := NewReader(bytes.NewReader(l.index.Bytes()), bytes.NewReader(l.content.Bytes()), opts...)
	require.NoError(t, err)
	return r
}

// contentOffset returns where the content of commit i starts in the file
func (l *testLog) contentOffset(i int) int {
	off := HeaderSize
	for _, item := range l.items[:i] {
		off += int(item.Len)
	}
	return off
}

func TestWriteAndReplay(t *testing.T) {
	l := writeLog(t, 3)

	assert.Equal(t, HeaderSize+3*meta.CommitIndexItemSize, l.index.Len())
	assert.Equal(t, IndexMagic, binary.BigEndian.Uint32(l.index.Bytes()[:4]))
	assert.Equal(t, ContentMagic, binary.BigEndian.Uint32(l.content.Bytes()[:4]))
	assert.Equal(t, l.contentOffset(3), l.content.Len())

	for i, item := range l.items {
		data, err := l.commits[i].Encode()
		require.NoError(t, err)
		assert.Equal(t, uint64(len(data)), item.Len)
		assert.Equal(t, meta.Sum(data), item.Hash)
		assert.Equal(t, l.commits[i].Ptr, item.Ptr)
		off := HeaderSize + i*meta.CommitIndexItemSize
		assert.Equal(t, item.Bytes(), l.index.Bytes()[off:off+meta.CommitIndexItemSize])
	}

	r := l.reader(t)
	for i := range l.commits {
		c, h, err := r.Next()
		require.NoError(t, err)
		assert.Equal(t, l.commits[i], c)
		assert.Equal(t, l.items[i].Hash, h)
	}

	_, _, err := r.Next()
	assert.Equal(t, io.EOF, err)
	_, _, err = r.Next()
	assert.Equal(t, io.EOF, err, "end of log is sticky")
}

func TestReaderEmptyLog(t *testing.T) {
	l := writeLog(t, 0)
	assert.Equal(t, HeaderSize, l.index.Len())
	assert.Equal(t, HeaderSize, l.content.Len())

	_, _, err := l.reader(t).Next()
	assert.Equal(t, io.EOF, err)
}

func TestReaderBadMagic(t *testing.T) {
	l := writeLog(t, 1)

	// streams swapped
	_, err := NewReader(bytes.NewReader(l.content.Bytes()), bytes.NewReader(l.index.Bytes()))
	assert.ErrorIs(t, err, ErrIdent)
	var identErr *IdentError
	require.ErrorAs(t, err, &identErr)
	assert.Equal(t, StreamIndex, identErr.Stream)
	assert.Equal(t, ContentMagic, identErr.Got)
	assert.Equal(t, IndexMagic, identErr.Want)

	_, err = NewReader(bytes.NewReader(l.index.Bytes()), bytes.NewReader(l.index.Bytes()))
	require.ErrorAs(t, err, &identErr)
	assert.Equal(t, StreamContent, identErr.Stream)

	_, err = NewReader(bytes.NewReader(nil), bytes.NewReader(l.content.Bytes()))
	var ioErr *IOError
	require.ErrorAs(t, err, &ioErr)
	assert.Equal(t, StreamIndex, ioErr.Stream)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestReaderCorruptContent(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	l := writeLog(t, 3)

	l.content.Bytes()[l.contentOffset(1)+1] ^= 0xff

	r := l.reader(t, WithMetrics(metrics))
	c, _, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, l.commits[0], c)

	_, _, err = r.Next()
	assert.ErrorIs(t, err, ErrHashMismatch)
	var hashErr *HashError
	require.ErrorAs(t, err, &hashErr)
	assert.Equal(t, l.items[1].Ptr, hashErr.Ptr)
	assert.Equal(t, l.items[1].Hash, hashErr.Want)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.verifyFailureTotal.WithLabelValues("hash")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.commitsTotal.WithLabelValues(opRead)))
}

func TestReaderPartialIndex(t *testing.T) {
	l := writeLog(t, 3)
	index := l.index.Bytes()[:l.index.Len()-10]

	r, err := NewReader(bytes.NewReader(index), bytes.NewReader(l.content.Bytes()))
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, _, err := r.Next()
		require.NoError(t, err)
	}
	_, _, err = r.Next()
	var ioErr *IOError
	require.ErrorAs(t, err, &ioErr)
	assert.Equal(t, StreamIndex, ioErr.Stream)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestReaderMissingContent(t *testing.T) {
	l := writeLog(t, 2)
	content := l.content.Bytes()[:l.contentOffset(1)+3]

	r, err := NewReader(bytes.NewReader(l.index.Bytes()), bytes.NewReader(content))
	require.NoError(t, err)

	_, _, err = r.Next()
	require.NoError(t, err)

	_, _, err = r.Next()
	var ioErr *IOError
	require.ErrorAs(t, err, &ioErr)
	assert.Equal(t, StreamContent, ioErr.Stream)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestReaderPtrMismatch(t *testing.T) {
	c := testCommit(0)
	data, err := c.Encode()
	require.NoError(t, err)

	other := testCommit(1).Ptr
	item := meta.CommitIndexItem{Ptr: other, Len: uint64(len(data)), Hash: meta.Sum(data)}

	index, content := new(bytes.Buffer), new(bytes.Buffer)
	require.NoError(t, writeMagic(index, StreamIndex))
	require.NoError(t, writeMagic(content, StreamContent))
	index.Write(item.Bytes())
	content.Write(data)

	r, err := NewReader(index, content)
	require.NoError(t, err)
	_, _, err = r.Next()
	assert.ErrorIs(t, err, ErrPtrMismatch)

	var ptrErr *PtrError
	require.ErrorAs(t, err, &ptrErr)
	assert.Equal(t, other, ptrErr.Index)
	assert.Equal(t, c.Ptr, ptrErr.Content)
}

func TestReaderUndecodableContent(t *testing.T) {
	data := []byte{0xc0}
	item := meta.CommitIndexItem{Ptr: testCommit(0).Ptr, Len: 1, Hash: meta.Sum(data)}

	index, content := new(bytes.Buffer), new(bytes.Buffer)
	require.NoError(t, writeMagic(index, StreamIndex))
	require.NoError(t, writeMagic(content, StreamContent))
	index.Write(item.Bytes())
	content.Write(data)

	r, err := NewReader(index, content)
	require.NoError(t, err)
	_, _, err = r.Next()
	assert.ErrorIs(t, err, types.ErrUnknownHighTag)
}

func TestReaderContentLimit(t *testing.T) {
	l := writeLog(t, 1)
	r := l.reader(t, WithMaxContentLen(10))
	_, _, err := r.Next()
	assert.ErrorIs(t, err, ErrContentTooLarge)
}

func TestIterator(t *testing.T) {
	l := writeLog(t, 4)
	it := l.reader(t).Iterator()

	var got []meta.Commit
	for it.Next() {
		got = append(got, it.Commit())
		assert.Equal(t, l.items[len(got)-1].Hash, it.Hash())
	}
	require.NoError(t, it.Err())
	assert.Equal(t, l.commits, got)
	assert.False(t, it.Next())

	l.content.Bytes()[l.contentOffset(2)] ^= 0x01
	it = l.reader(t).Iterator()
	n := 0
	for it.Next() {
		n++
	}
	assert.Equal(t, 2, n)
	assert.ErrorIs(t, it.Err(), ErrHashMismatch)
}

func TestWriterMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	l := writeLog(t, 3, WithMetrics(metrics))

	assert.Equal(t, 3.0, testutil.ToFloat64(metrics.commitsTotal.WithLabelValues(opWrite)))
	assert.Equal(t, float64(3*meta.CommitIndexItemSize),
		testutil.ToFloat64(metrics.bytesTotal.WithLabelValues(opWrite, "index")))
	assert.Equal(t, float64(l.content.Len()-HeaderSize),
		testutil.ToFloat64(metrics.bytesTotal.WithLabelValues(opWrite, "content")))
}

type failingWriter struct{ err error }

func (w failingWriter) Write([]byte) (int, error) { return 0, w.err }

func TestWriterErrors(t *testing.T) {
	boom := fmt.Errorf("disk on fire")

	_, err := NewWriter(failingWriter{boom}, new(bytes.Buffer))
	var ioErr *IOError
	require.ErrorAs(t, err, &ioErr)
	assert.Equal(t, StreamIndex, ioErr.Stream)
	assert.ErrorIs(t, err, boom)

	// content failures must stop the index record from being written
	index := new(bytes.Buffer)
	w := ResumeWriter(index, failingWriter{boom})
	_, err = w.WriteCommit(testCommit(0))
	require.ErrorAs(t, err, &ioErr)
	assert.Equal(t, StreamContent, ioErr.Stream)
	assert.Zero(t, index.Len())

	w = ResumeWriter(new(bytes.Buffer), new(bytes.Buffer))
	_, err = w.WriteCommit(meta.Commit{Revs: []meta.RevEntry{{Rev: meta.MutRev(nil)}}})
	assert.ErrorIs(t, err, types.ErrNilValue)
}

func TestWriterRejectsOversizedContent(t *testing.T) {
	index, content := new(bytes.Buffer), new(bytes.Buffer)
	w := ResumeWriter(index, content, WithMaxContentLen(10))

	_, err := w.WriteCommit(testCommit(0))
	assert.ErrorIs(t, err, ErrContentTooLarge)
	assert.Zero(t, index.Len())
	assert.Zero(t, content.Len())

	// a rejected commit does not stop later ones
	data, err := testCommit(1).Encode()
	require.NoError(t, err)
	w = ResumeWriter(index, content, WithMaxContentLen(uint64(len(data))))
	_, err = w.WriteCommit(testCommit(1))
	require.NoError(t, err)
	assert.Equal(t, len(data), content.Len())
}

// flakyWriter fails Write while fail is set
type flakyWriter struct {
	bytes.Buffer
	fail bool
}

func (w *flakyWriter) Write(p []byte) (int, error) {
	if w.fail {
		return 0, fmt.Errorf("write failed")
	}
	return w.Buffer.Write(p)
}

func TestWriterFailsAfterIOError(t *testing.T) {
	index := new(bytes.Buffer)
	content := &flakyWriter{fail: true}
	w := ResumeWriter(index, content)

	_, err := w.WriteCommit(testCommit(0))
	var ioErr *IOError
	require.ErrorAs(t, err, &ioErr)

	content.fail = false
	_, err = w.WriteCommit(testCommit(1))
	assert.ErrorIs(t, err, ErrWriterFailed)
	assert.ErrorIs(t, err, ioErr)
	assert.Zero(t, index.Len())
	assert.Zero(t, content.Len())
}
