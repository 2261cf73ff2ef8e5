package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Berylsoft/Zeon/pkg/binlog"
	"github.com/Berylsoft/Zeon/pkg/catalog"
	"github.com/Berylsoft/Zeon/pkg/config"
	"github.com/Berylsoft/Zeon/pkg/meta"
	"github.com/Berylsoft/Zeon/pkg/std"
	"github.com/Berylsoft/Zeon/pkg/types"
)

var (
	widget = types.ObjectPtr{Type: 0x0100, ID: 1}
	gadget = types.ObjectPtr{Type: 0x0100, ID: 2}
)

func newConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.DataDir = t.TempDir()
	return cfg
}

func openStore(t *testing.T, cfg *config.Config, opts ...Option) *CommitStore {
	t.Helper()
	s, err := Open(cfg, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func nameCommit(seq int, obj types.ObjectPtr, name string) meta.Commit {
	return meta.Commit{
		Ptr: meta.CommitPtr{
			TS:  types.Timestamp{Secs: int64(700000000 + seq)},
			Opr: types.ObjectPtr{Type: 1, ID: 42},
			Seq: uint16(seq),
		},
		Revs: []meta.RevEntry{
			{Ptr: meta.RevPtr{Object: obj, TraitType: std.Name}, Rev: meta.MutRev(types.String(name))},
		},
	}
}

func appendAll(t *testing.T, s *CommitStore, commits ...meta.Commit) []meta.CommitIndexItem {
	t.Helper()
	var items []meta.CommitIndexItem
	for _, c := range commits {
		item, err := s.Append(context.Background(), c)
		require.NoError(t, err)
		items = append(items, item)
	}
	return items
}

func TestCommitStore_BasicOperations(t *testing.T) {
	cfg := newConfig(t)
	s := openStore(t, cfg)

	commits := []meta.Commit{
		nameCommit(1, widget, "widget"),
		nameCommit(2, gadget, "gadget"),
		nameCommit(3, widget, "widget v2"),
	}
	items := appendAll(t, s, commits...)

	for i, c := range commits {
		got, h, err := s.Get(c.Ptr)
		require.NoError(t, err)
		assert.Equal(t, c, got)
		assert.Equal(t, items[i].Hash, h)

		got, err = s.GetByHash(items[i].Hash)
		require.NoError(t, err)
		assert.Equal(t, c, got)
	}

	_, _, err := s.Get(nameCommit(9, widget, "missing").Ptr)
	assert.ErrorIs(t, err, ErrCommitNotFound)
	_, err = s.GetByHash(meta.Sum(nil))
	assert.ErrorIs(t, err, ErrCommitNotFound)

	var replayed []meta.Commit
	err = s.Replay(context.Background(), func(c meta.Commit, h meta.Hash) error {
		assert.Equal(t, items[len(replayed)].Hash, h)
		replayed = append(replayed, c)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, commits, replayed)

	info, err := os.Stat(cfg.IndexPath())
	require.NoError(t, err)
	assert.Equal(t, int64(binlog.HeaderSize+3*meta.CommitIndexItemSize), info.Size())
}

func TestCommitStore_Reopen(t *testing.T) {
	cfg := newConfig(t)
	commits := []meta.Commit{nameCommit(1, widget, "a"), nameCommit(2, widget, "b")}

	s, err := Open(cfg)
	require.NoError(t, err)
	appendAll(t, s, commits...)
	require.NoError(t, s.Close())

	s = openStore(t, cfg)
	assert.False(t, s.Recovery().Truncated())
	assert.Equal(t, 2, s.Recovery().RecordsValidated)

	more := nameCommit(3, gadget, "c")
	appendAll(t, s, more)

	var replayed []meta.Commit
	require.NoError(t, s.Replay(context.Background(), func(c meta.Commit, _ meta.Hash) error {
		replayed = append(replayed, c)
		return nil
	}))
	assert.Equal(t, append(commits, more), replayed)
}

func TestCommitStore_DuplicateRejected(t *testing.T) {
	cfg := newConfig(t)
	s := openStore(t, cfg)

	c := nameCommit(1, widget, "first")
	appendAll(t, s, c)

	dup := nameCommit(1, gadget, "second")
	_, err := s.Append(context.Background(), dup)
	assert.ErrorIs(t, err, binlog.ErrDuplicate)

	stats, err := s.Stats()
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Commits)

	got, _, err := s.Get(c.Ptr)
	require.NoError(t, err)
	assert.Equal(t, c, got)
}

func TestCommitStore_Closed(t *testing.T) {
	s, err := Open(newConfig(t))
	require.NoError(t, err)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close(), "close is idempotent")

	ctx := context.Background()
	_, err = s.Append(ctx, nameCommit(1, widget, "x"))
	assert.ErrorIs(t, err, ErrClosed)
	_, _, err = s.Get(meta.CommitPtr{})
	assert.ErrorIs(t, err, ErrClosed)
	_, err = s.GetByHash(meta.Hash{})
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, s.Replay(ctx, func(meta.Commit, meta.Hash) error { return nil }), ErrClosed)
	_, err = s.History(ctx, widget)
	assert.ErrorIs(t, err, ErrClosed)
	_, err = s.Stats()
	assert.ErrorIs(t, err, ErrClosed)
	_, err = s.Verify(ctx)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestCommitStore_InvalidConfig(t *testing.T) {
	cfg := newConfig(t)
	cfg.MaxContentLen = 0
	_, err := Open(cfg)
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestCommitStore_Replay(t *testing.T) {
	s := openStore(t, newConfig(t))
	appendAll(t, s, nameCommit(1, widget, "a"), nameCommit(2, widget, "b"), nameCommit(3, widget, "c"))

	t.Run("callback error stops replay", func(t *testing.T) {
		stop := errors.New("stop")
		n := 0
		err := s.Replay(context.Background(), func(meta.Commit, meta.Hash) error {
			n++
			if n == 2 {
				return stop
			}
			return nil
		})
		assert.ErrorIs(t, err, stop)
		assert.Equal(t, 2, n)
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := s.Replay(ctx, func(meta.Commit, meta.Hash) error { return nil })
		assert.ErrorIs(t, err, context.Canceled)

		_, err = s.Append(ctx, nameCommit(4, widget, "d"))
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("replay restarts from the first commit", func(t *testing.T) {
		var seqs []uint16
		require.NoError(t, s.Replay(context.Background(), func(c meta.Commit, _ meta.Hash) error {
			seqs = append(seqs, c.Ptr.Seq)
			return nil
		}))
		assert.Equal(t, []uint16{1, 2, 3}, seqs)
	})
}

func TestCommitStore_History(t *testing.T) {
	cfg := newConfig(t)
	s := openStore(t, cfg)

	items := appendAll(t, s,
		nameCommit(1, widget, "a"),
		nameCommit(2, gadget, "b"),
		nameCommit(3, widget, "c"))

	hist, err := s.History(context.Background(), widget)
	require.NoError(t, err)
	assert.Equal(t, []catalog.Entry{
		{Commit: items[0].Ptr, Hash: items[0].Hash},
		{Commit: items[2].Ptr, Hash: items[2].Hash},
	}, hist)

	stats, err := s.Stats()
	require.NoError(t, err)
	require.NotNil(t, stats.Catalog)
	assert.Equal(t, uint64(3), stats.Catalog.Commits)
	assert.Equal(t, items[2].Hash, stats.Catalog.Last)
}

func TestCommitStore_HistoryDisabled(t *testing.T) {
	cfg := newConfig(t)
	cfg.Catalog.Enabled = false
	s := openStore(t, cfg)

	_, err := s.History(context.Background(), widget)
	assert.ErrorIs(t, err, ErrCatalogDisabled)
	assert.ErrorIs(t, s.RebuildCatalog(context.Background()), ErrCatalogDisabled)

	stats, err := s.Stats()
	require.NoError(t, err)
	assert.Nil(t, stats.Catalog)
}

func TestCommitStore_StaleCatalogRebuilt(t *testing.T) {
	cfg := newConfig(t)

	s, err := Open(cfg)
	require.NoError(t, err)
	appendAll(t, s, nameCommit(1, widget, "a"))
	stats, err := s.Stats()
	require.NoError(t, err)
	build := stats.Catalog.Build
	require.NoError(t, s.Close())

	// commits appended while the catalog is off are missing from it
	cfg.Catalog.Enabled = false
	s, err = Open(cfg)
	require.NoError(t, err)
	late := appendAll(t, s, nameCommit(2, widget, "b"))
	require.NoError(t, s.Close())

	cfg.Catalog.Enabled = true
	s = openStore(t, cfg)
	stats, err = s.Stats()
	require.NoError(t, err)
	assert.NotEqual(t, build, stats.Catalog.Build)
	assert.Equal(t, uint64(2), stats.Catalog.Commits)

	hist, err := s.History(context.Background(), widget)
	require.NoError(t, err)
	require.Len(t, hist, 2)
	assert.Equal(t, late[0].Hash, hist[1].Hash)
}

func TestCommitStore_Stats(t *testing.T) {
	reg := prometheus.NewRegistry()
	s := openStore(t, newConfig(t), WithRegisterer(reg))

	stats, err := s.Stats()
	require.NoError(t, err)
	assert.Zero(t, stats.Commits)
	assert.Equal(t, int64(binlog.HeaderSize), stats.IndexSize)
	assert.Equal(t, int64(binlog.HeaderSize), stats.ContentSize)

	items := appendAll(t, s, nameCommit(1, widget, "a"), nameCommit(2, gadget, "b"))

	stats, err = s.Stats()
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Commits)
	assert.Equal(t, int64(binlog.HeaderSize+2*meta.CommitIndexItemSize), stats.IndexSize)
	assert.Equal(t, int64(binlog.HeaderSize)+int64(items[0].Len+items[1].Len), stats.ContentSize)
	assert.Equal(t, items[1].Hash, stats.LastHash)

	mfs, err := reg.Gather()
	require.NoError(t, err)
	gauges := map[string]float64{}
	for _, mf := range mfs {
		if m := mf.GetMetric(); len(m) == 1 && m[0].GetGauge() != nil {
			gauges[mf.GetName()] = m[0].GetGauge().GetValue()
		}
	}
	assert.Equal(t, 2.0, gauges["zeon_binlog_index_entries"])
}

func TestCommitStore_HalfCreatedPair(t *testing.T) {
	cfg := newConfig(t)
	// only the content magic made it to disk
	require.NoError(t, os.WriteFile(cfg.ContentPath(), []byte{0x42, 0x65, 0x02, 0x00}, 0644))

	s := openStore(t, cfg)
	appendAll(t, s, nameCommit(1, widget, "a"))

	res, err := s.Verify(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.RecordsVerified)
	assert.NoError(t, res.Err)
}

func TestCommitStore_BadMagic(t *testing.T) {
	cfg := newConfig(t)
	require.NoError(t, os.WriteFile(cfg.IndexPath(), []byte("not a binlog"), 0644))
	require.NoError(t, os.WriteFile(cfg.ContentPath(), []byte("not a binlog"), 0644))

	_, err := Open(cfg)
	assert.ErrorIs(t, err, binlog.ErrIdent)
}

func Example() {
	dir, _ := os.MkdirTemp("", "zeon")
	defer os.RemoveAll(dir)

	cfg := config.DefaultConfig()
	cfg.DataDir = dir
	s, err := Open(cfg)
	if err != nil {
		panic(err)
	}
	defer s.Close()

	c := nameCommit(1, widget, "widget")
	if _, err := s.Append(context.Background(), c); err != nil {
		panic(err)
	}
	got, _, _ := s.Get(c.Ptr)
	fmt.Println(types.Format(got.Revs[0].Rev.Value))
	// Output: "widget"
}

func TestCommitStore_ContentLimit(t *testing.T) {
	cfg := newConfig(t)
	cfg.MaxContentLen = 256
	s, err := Open(cfg)
	require.NoError(t, err)

	small := nameCommit(1, widget, "widget")
	big := nameCommit(2, widget, strings.Repeat("w", 1000))
	after := nameCommit(3, gadget, "gadget")

	appendAll(t, s, small)
	_, err = s.Append(context.Background(), big)
	assert.ErrorIs(t, err, binlog.ErrContentTooLarge)
	appendAll(t, s, after)

	_, _, err = s.Get(big.Ptr)
	assert.ErrorIs(t, err, ErrCommitNotFound)
	require.NoError(t, s.Close())

	// lowering the limit on an existing log keeps every commit
	cfg.MaxContentLen = 8
	s = openStore(t, cfg)
	assert.False(t, s.Recovery().Truncated())
	st, err := s.Stats()
	require.NoError(t, err)
	assert.Equal(t, 2, st.Commits)

	_, _, err = s.Get(after.Ptr)
	assert.ErrorIs(t, err, binlog.ErrContentTooLarge)
	require.NoError(t, s.Close())

	cfg.MaxContentLen = 256
	s = openStore(t, cfg)
	c, _, err := s.Get(after.Ptr)
	require.NoError(t, err)
	assert.Equal(t, after, c)
}
