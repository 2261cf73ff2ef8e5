// Package catalog keeps a pebble-backed secondary index from objects to the
// commits that touched them. It holds nothing the binlog does not: a missing
// or stale catalog is rebuilt by replaying the log.
package catalog

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/cockroachdb/pebble"
	"github.com/segmentio/ksuid"

	"github.com/Berylsoft/Zeon/pkg/meta"
	"github.com/Berylsoft/Zeon/pkg/types"
	"github.com/Berylsoft/Zeon/pkg/wire"
)

const (
	historyPrefix byte = 'h'

	ksuidSize      = 20
	historyKeySize = 1 + types.ObjectPtrSize + meta.CommitPtrSize
	stateSize      = 8 + meta.HashSize + ksuidSize
)

var stateKey = []byte("m:state")

var ErrCorruptState = errors.New("catalog: corrupt state record")

// Entry is one commit in the history of an object
type Entry struct {
	Commit meta.CommitPtr
	Hash   meta.Hash
}

// State summarizes what the catalog has indexed. Commits and Last are
// compared against the binlog to detect a stale catalog.
type State struct {
	Commits uint64
	Last    meta.Hash
	// Build identifies the rebuild that produced the catalog; its embedded
	// timestamp is when that rebuild started
	Build ksuid.KSUID
}

// Option configures a Catalog
type Option func(*Catalog)

// WithLogger sets the logger used by the catalog and by pebble
func WithLogger(logger *slog.Logger) Option {
	return func(c *Catalog) {
		c.logger = logger
	}
}

// WithSync makes every write durable before it returns
func WithSync(sync bool) Option {
	return func(c *Catalog) {
		if sync {
			c.writeOpts = pebble.Sync
		}
	}
}

// Catalog is the object history index
type Catalog struct {
	db        *pebble.DB
	logger    *slog.Logger
	writeOpts *pebble.WriteOptions
}

// Open opens or creates a catalog in dir
func Open(dir string, opts ...Option) (*Catalog, error) {
	c := &Catalog{
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		writeOpts: pebble.NoSync,
	}
	for _, opt := range opts {
		opt(c)
	}

	db, err := pebble.Open(dir, &pebble.Options{Logger: pebbleLogger{c.logger}})
	if err != nil {
		return nil, fmt.Errorf("catalog: open %s: %w", dir, err)
	}
	c.db = db
	return c, nil
}

// State returns the indexed commit count and last hash. A catalog that has
// never been written returns the zero State.
func (c *Catalog) State() (State, error) {
	data, closer, err := c.db.Get(stateKey)
	if errors.Is(err, pebble.ErrNotFound) {
		return State{}, nil
	}
	if err != nil {
		return State{}, fmt.Errorf("catalog: read state: %w", err)
	}
	defer closer.Close()
	return decodeState(data)
}

// Add records commit c with content hash h against every object it touches
func (c *Catalog) Add(commit meta.Commit, h meta.Hash) error {
	st, err := c.State()
	if err != nil {
		return err
	}

	batch := c.db.NewBatch()
	defer batch.Close()

	seen := make(map[types.ObjectPtr]struct{}, len(commit.Revs))
	for _, rev := range commit.Revs {
		obj := rev.Ptr.Object
		if _, ok := seen[obj]; ok {
			continue
		}
		seen[obj] = struct{}{}
		if err := batch.Set(historyKey(obj, commit.Ptr), h[:], nil); err != nil {
			return fmt.Errorf("catalog: add %s: %w", commit.Ptr, err)
		}
	}

	st.Commits++
	st.Last = h
	if err := batch.Set(stateKey, encodeState(st), nil); err != nil {
		return fmt.Errorf("catalog: add %s: %w", commit.Ptr, err)
	}
	if err := batch.Commit(c.writeOpts); err != nil {
		return fmt.Errorf("catalog: add %s: %w", commit.Ptr, err)
	}
	return nil
}

// History returns the commits that touched obj in commit key order
func (c *Catalog) History(obj types.ObjectPtr) ([]Entry, error) {
	lower := make([]byte, 0, 1+types.ObjectPtrSize)
	lower = append(lower, historyPrefix)
	lower = obj.Append(lower)

	iter, err := c.db.NewIter(&pebble.IterOptions{
		LowerBound: lower,
		UpperBound: prefixEnd(lower),
	})
	if err != nil {
		return nil, fmt.Errorf("catalog: history %s: %w", obj, err)
	}
	defer iter.Close()

	var entries []Entry
	for iter.First(); iter.Valid(); iter.Next() {
		key, value := iter.Key(), iter.Value()
		if len(key) != historyKeySize || len(value) != meta.HashSize {
			return nil, fmt.Errorf("catalog: history %s: malformed entry %x", obj, key)
		}
		ptr, err := meta.ReadCommitPtr(wire.NewCursor(key[1+types.ObjectPtrSize:]))
		if err != nil {
			return nil, fmt.Errorf("catalog: history %s: %w", obj, err)
		}
		e := Entry{Commit: ptr}
		copy(e.Hash[:], value)
		entries = append(entries, e)
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("catalog: history %s: %w", obj, err)
	}
	return entries, nil
}

// Reset drops every entry and starts a new build
func (c *Catalog) Reset() (State, error) {
	st := State{Build: ksuid.New()}

	batch := c.db.NewBatch()
	defer batch.Close()
	if err := batch.DeleteRange([]byte{0x00}, []byte{0xff}, nil); err != nil {
		return State{}, fmt.Errorf("catalog: reset: %w", err)
	}
	if err := batch.Set(stateKey, encodeState(st), nil); err != nil {
		return State{}, fmt.Errorf("catalog: reset: %w", err)
	}
	if err := batch.Commit(c.writeOpts); err != nil {
		return State{}, fmt.Errorf("catalog: reset: %w", err)
	}

	c.logger.Info("catalog reset", "build", st.Build.String())
	return st, nil
}

// Close closes the underlying database
func (c *Catalog) Close() error {
	return c.db.Close()
}

func historyKey(obj types.ObjectPtr, ptr meta.CommitPtr) []byte {
	key := make([]byte, 0, historyKeySize)
	key = append(key, historyPrefix)
	key = obj.Append(key)
	return ptr.Append(key)
}

func prefixEnd(prefix []byte) []byte {
	end := append([]byte(nil), prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil
}

func encodeState(st State) []byte {
	buf := make([]byte, 0, stateSize)
	buf = binary.BigEndian.AppendUint64(buf, st.Commits)
	buf = append(buf, st.Last[:]...)
	return append(buf, st.Build.Bytes()...)
}

func decodeState(data []byte) (State, error) {
	if len(data) != stateSize {
		return State{}, fmt.Errorf("%w: %d bytes", ErrCorruptState, len(data))
	}
	var st State
	st.Commits = binary.BigEndian.Uint64(data)
	copy(st.Last[:], data[8:8+meta.HashSize])
	build, err := ksuid.FromBytes(data[8+meta.HashSize:])
	if err != nil {
		return State{}, fmt.Errorf("%w: %v", ErrCorruptState, err)
	}
	st.Build = build
	return st, nil
}

// pebbleLogger routes pebble's log output through slog
type pebbleLogger struct {
	l *slog.Logger
}

func (p pebbleLogger) Infof(format string, args ...interface{}) {
	p.l.Debug(fmt.Sprintf(format, args...), "component", "pebble")
}

func (p pebbleLogger) Errorf(format string, args ...interface{}) {
	p.l.Error(fmt.Sprintf(format, args...), "component", "pebble")
}

func (p pebbleLogger) Fatalf(format string, args ...interface{}) {
	p.l.Error(fmt.Sprintf(format, args...), "component", "pebble")
	os.Exit(1)
}
