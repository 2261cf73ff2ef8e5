package binlog

import (
	"bufio"
	"io"

	"github.com/Berylsoft/Zeon/pkg/meta"
)

// IndexReader reads only the index file
type IndexReader struct {
	r       *bufio.Reader
	metrics *Metrics
}

// NewIndexReader checks the index magic and returns a reader positioned at
// the first record
func NewIndexReader(index io.Reader, opts ...Option) (*IndexReader, error) {
	o := buildOptions(opts)
	r := &IndexReader{r: bufio.NewReader(index), metrics: o.metrics}
	if err := readMagic(r.r, StreamIndex); err != nil {
		return nil, err
	}
	return r, nil
}

// Next returns the next index record or io.EOF at a clean end
func (r *IndexReader) Next() (meta.CommitIndexItem, error) {
	return readIndexItem(r.r)
}

// ReadAll reads every remaining record into a MemoryIndex
func (r *IndexReader) ReadAll() (*MemoryIndex, error) {
	m := NewMemoryIndex(nil)
	for {
		item, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		m.Append(item)
	}
	m.metrics = r.metrics
	m.metrics.setIndexEntries(m.Len())
	return m, nil
}

// Location is an index record together with where its content starts,
// counted from the first byte after the content magic
type Location struct {
	Pos    int
	Offset uint64
	Item   meta.CommitIndexItem
}

// End returns the offset just past the content of l
func (l Location) End() uint64 {
	return l.Offset + l.Item.Len
}

// MemoryIndex holds every index record in file order with the content offset
// of each. Lookups by key or hash return the first matching record.
type MemoryIndex struct {
	items   []meta.CommitIndexItem
	offsets []uint64
	size    uint64
	byPtr   map[meta.CommitPtr]int
	byHash  map[meta.Hash]int
	next    int
	metrics *Metrics
}

// NewMemoryIndex builds an index over items
func NewMemoryIndex(items []meta.CommitIndexItem) *MemoryIndex {
	m := &MemoryIndex{
		byPtr:  make(map[meta.CommitPtr]int, len(items)),
		byHash: make(map[meta.Hash]int, len(items)),
	}
	for _, item := range items {
		m.Append(item)
	}
	return m
}

// Append adds a record written after all existing ones
func (m *MemoryIndex) Append(item meta.CommitIndexItem) {
	pos := len(m.items)
	m.items = append(m.items, item)
	m.offsets = append(m.offsets, m.size)
	m.size += item.Len
	if _, ok := m.byPtr[item.Ptr]; !ok {
		m.byPtr[item.Ptr] = pos
	}
	if _, ok := m.byHash[item.Hash]; !ok {
		m.byHash[item.Hash] = pos
	}
	m.metrics.setIndexEntries(len(m.items))
}

// Len returns the number of records
func (m *MemoryIndex) Len() int { return len(m.items) }

// Size returns the total content length of all records
func (m *MemoryIndex) Size() uint64 { return m.size }

// Items returns a copy of the records in file order
func (m *MemoryIndex) Items() []meta.CommitIndexItem {
	return append([]meta.CommitIndexItem(nil), m.items...)
}

// At returns the record at position i
func (m *MemoryIndex) At(i int) (Location, bool) {
	if i < 0 || i >= len(m.items) {
		return Location{}, false
	}
	return Location{Pos: i, Offset: m.offsets[i], Item: m.items[i]}, true
}

// Contains reports whether a record with key ptr exists
func (m *MemoryIndex) Contains(ptr meta.CommitPtr) bool {
	_, ok := m.byPtr[ptr]
	return ok
}

// Find returns the first record with key ptr
func (m *MemoryIndex) Find(ptr meta.CommitPtr) (Location, bool) {
	i, ok := m.byPtr[ptr]
	if !ok {
		return Location{}, false
	}
	return m.At(i)
}

// FindByHash returns the first record whose content hash is h
func (m *MemoryIndex) FindByHash(h meta.Hash) (Location, bool) {
	i, ok := m.byHash[h]
	if !ok {
		return Location{}, false
	}
	return m.At(i)
}

// Next returns the record after the one last returned by Next and advances
func (m *MemoryIndex) Next() (Location, bool) {
	loc, ok := m.At(m.next)
	if ok {
		m.next++
	}
	return loc, ok
}

// Reset moves sequential iteration back to the first record
func (m *MemoryIndex) Reset() { m.next = 0 }
