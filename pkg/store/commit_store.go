package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/segmentio/ksuid"

	"github.com/Berylsoft/Zeon/pkg/binlog"
	"github.com/Berylsoft/Zeon/pkg/catalog"
	"github.com/Berylsoft/Zeon/pkg/config"
	"github.com/Berylsoft/Zeon/pkg/meta"
	"github.com/Berylsoft/Zeon/pkg/types"
)

// Option configures a CommitStore
type Option func(*CommitStore)

// WithLogger sets the logger for the store and everything it opens
func WithLogger(logger *slog.Logger) Option {
	return func(s *CommitStore) {
		s.logger = logger
	}
}

// WithRegisterer registers binlog metrics with reg
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(s *CommitStore) {
		s.metrics = binlog.NewMetrics(reg)
	}
}

// CommitStore owns one index and content file pair in a data directory,
// plus the optional object catalog
type CommitStore struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *binlog.Metrics

	indexFile   *os.File // append handle
	contentFile *os.File // append handle
	contentRead *os.File

	writer   *binlog.Writer
	reader   *binlog.IndexedReader
	catalog  *catalog.Catalog
	stale    bool
	recovery binlog.RecoveryResult

	mutex  sync.Mutex
	isOpen bool
}

// Open opens the store described by cfg. A missing file pair is created.
// An existing pair is first recovered to its longest valid prefix.
func Open(cfg *config.Config, opts ...Option) (*CommitStore, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &CommitStore{
		cfg:    cfg,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	if err := s.openFiles(); err != nil {
		s.closeFiles()
		return nil, err
	}

	if cfg.Catalog.Enabled {
		cat, err := catalog.Open(cfg.CatalogPath(),
			catalog.WithLogger(s.logger),
			catalog.WithSync(cfg.Sync))
		if err != nil {
			s.closeFiles()
			return nil, err
		}
		s.catalog = cat
		if err := s.syncCatalog(context.Background()); err != nil {
			s.catalog.Close()
			s.closeFiles()
			return nil, err
		}
	}

	s.isOpen = true
	s.logger.Info("store opened",
		"data_dir", cfg.DataDir,
		"commits", s.reader.Index().Len(),
		"catalog", cfg.Catalog.Enabled)
	return s, nil
}

func (s *CommitStore) binlogOptions() []binlog.Option {
	return []binlog.Option{
		binlog.WithLogger(s.logger),
		binlog.WithMetrics(s.metrics),
		binlog.WithSync(s.cfg.Sync),
		binlog.WithMaxContentLen(s.cfg.MaxContentLen),
	}
}

func (s *CommitStore) openFiles() error {
	var err error
	flags := os.O_RDWR | os.O_CREATE | os.O_APPEND
	if s.indexFile, err = os.OpenFile(s.cfg.IndexPath(), flags, 0644); err != nil {
		return fmt.Errorf("open index file: %w", err)
	}
	if s.contentFile, err = os.OpenFile(s.cfg.ContentPath(), flags, 0644); err != nil {
		return fmt.Errorf("open content file: %w", err)
	}

	indexInfo, err := s.indexFile.Stat()
	if err != nil {
		return fmt.Errorf("stat index file: %w", err)
	}
	contentInfo, err := s.contentFile.Stat()
	if err != nil {
		return fmt.Errorf("stat content file: %w", err)
	}

	opts := s.binlogOptions()

	// A crash while creating the pair can leave only the content magic behind
	if indexInfo.Size() == 0 && contentInfo.Size() <= binlog.HeaderSize {
		if err := s.contentFile.Truncate(0); err != nil {
			return fmt.Errorf("truncate content file: %w", err)
		}
		if s.writer, err = binlog.NewWriter(s.indexFile, s.contentFile, opts...); err != nil {
			return err
		}
		s.logger.Info("created binlog", "index", s.cfg.IndexPath(), "content", s.cfg.ContentPath())
	} else {
		if s.recovery, err = binlog.Recover(s.indexFile, s.contentFile, opts...); err != nil {
			return err
		}
		s.writer = binlog.ResumeWriter(s.indexFile, s.contentFile, opts...)
	}

	indexRead, err := os.Open(s.cfg.IndexPath())
	if err != nil {
		return fmt.Errorf("open index file: %w", err)
	}
	defer indexRead.Close()
	if s.contentRead, err = os.Open(s.cfg.ContentPath()); err != nil {
		return fmt.Errorf("open content file: %w", err)
	}
	s.reader, err = binlog.OpenIndexedReader(indexRead, s.contentRead, opts...)
	return err
}

func (s *CommitStore) closeFiles() error {
	var errs []error
	for _, f := range []*os.File{s.indexFile, s.contentFile, s.contentRead} {
		if f != nil {
			errs = append(errs, f.Close())
		}
	}
	return errors.Join(errs...)
}

// Append writes c to the log. A commit whose key is already present is
// rejected with binlog.ErrDuplicate, and one whose content exceeds the
// configured limit with binlog.ErrContentTooLarge. After a failed file write
// every later Append returns binlog.ErrWriterFailed until the store is
// reopened, which recovers the files.
func (s *CommitStore) Append(ctx context.Context, c meta.Commit) (meta.CommitIndexItem, error) {
	if err := ctx.Err(); err != nil {
		return meta.CommitIndexItem{}, err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if !s.isOpen {
		return meta.CommitIndexItem{}, ErrClosed
	}

	index := s.reader.Index()
	if index.Contains(c.Ptr) {
		return meta.CommitIndexItem{}, fmt.Errorf("%w: %s", binlog.ErrDuplicate, c.Ptr)
	}

	item, err := s.writer.WriteCommit(c)
	if err != nil {
		return meta.CommitIndexItem{}, err
	}
	index.Append(item)

	if s.catalog != nil && !s.stale {
		if err := s.catalog.Add(c, item.Hash); err != nil {
			// the log is authoritative; rebuild on the next history query
			s.stale = true
			s.logger.Error("catalog update failed", "ptr", c.Ptr.String(), "error", err)
		}
	}
	return item, nil
}

// Get returns the commit with key ptr and its content hash
func (s *CommitStore) Get(ptr meta.CommitPtr) (meta.Commit, meta.Hash, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if !s.isOpen {
		return meta.Commit{}, meta.Hash{}, ErrClosed
	}

	c, h, err := s.reader.Find(ptr)
	if errors.Is(err, binlog.ErrNotFound) {
		return meta.Commit{}, meta.Hash{}, fmt.Errorf("%w: %s", ErrCommitNotFound, ptr)
	}
	return c, h, err
}

// GetByHash returns the first commit whose content hashes to h
func (s *CommitStore) GetByHash(h meta.Hash) (meta.Commit, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if !s.isOpen {
		return meta.Commit{}, ErrClosed
	}

	c, _, err := s.reader.FindByHash(h)
	if errors.Is(err, binlog.ErrNotFound) {
		return meta.Commit{}, fmt.Errorf("%w: hash %s", ErrCommitNotFound, h)
	}
	return c, err
}

// Replay calls fn for every commit in log order. The store is locked for the
// duration, so fn must not call back into it.
func (s *CommitStore) Replay(ctx context.Context, fn ReplayFunc) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if !s.isOpen {
		return ErrClosed
	}
	return s.replay(ctx, fn)
}

func (s *CommitStore) replay(ctx context.Context, fn ReplayFunc) error {
	s.reader.Reset()
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		c, h, err := s.reader.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if err := fn(c, h); err != nil {
			return err
		}
	}
}

// History returns the commits that touched obj, oldest key first
func (s *CommitStore) History(ctx context.Context, obj types.ObjectPtr) ([]catalog.Entry, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if !s.isOpen {
		return nil, ErrClosed
	}
	if s.catalog == nil {
		return nil, ErrCatalogDisabled
	}
	if s.stale {
		if err := s.rebuildCatalog(ctx); err != nil {
			return nil, err
		}
	}
	return s.catalog.History(obj)
}

// RebuildCatalog discards the catalog and rebuilds it from the log
func (s *CommitStore) RebuildCatalog(ctx context.Context) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if !s.isOpen {
		return ErrClosed
	}
	if s.catalog == nil {
		return ErrCatalogDisabled
	}
	return s.rebuildCatalog(ctx)
}

// syncCatalog rebuilds the catalog when it does not describe the log
func (s *CommitStore) syncCatalog(ctx context.Context) error {
	st, err := s.catalog.State()
	if err != nil {
		s.logger.Warn("catalog state unreadable", "error", err)
		return s.rebuildCatalog(ctx)
	}
	n, last := s.lastItem()
	if st.Build == ksuid.Nil || st.Commits != uint64(n) || st.Last != last {
		s.logger.Info("catalog is stale",
			"catalog_commits", st.Commits,
			"log_commits", n)
		return s.rebuildCatalog(ctx)
	}
	return nil
}

func (s *CommitStore) rebuildCatalog(ctx context.Context) error {
	st, err := s.catalog.Reset()
	if err != nil {
		return err
	}
	s.stale = true
	err = s.replay(ctx, func(c meta.Commit, h meta.Hash) error {
		return s.catalog.Add(c, h)
	})
	if err != nil {
		return fmt.Errorf("rebuild catalog: %w", err)
	}
	s.stale = false
	s.logger.Info("catalog rebuilt", "build", st.Build.String(), "commits", s.reader.Index().Len())
	return nil
}

func (s *CommitStore) lastItem() (int, meta.Hash) {
	index := s.reader.Index()
	loc, ok := index.At(index.Len() - 1)
	if !ok {
		return 0, meta.Hash{}
	}
	return index.Len(), loc.Item.Hash
}

// Stats returns store statistics
func (s *CommitStore) Stats() (Stats, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if !s.isOpen {
		return Stats{}, ErrClosed
	}

	index := s.reader.Index()
	n, last := s.lastItem()
	stats := Stats{
		Commits:     n,
		IndexSize:   int64(binlog.HeaderSize + n*meta.CommitIndexItemSize),
		ContentSize: int64(binlog.HeaderSize) + int64(index.Size()),
		LastHash:    last,
		Recovery:    s.recovery,
	}
	if s.catalog != nil {
		st, err := s.catalog.State()
		if err != nil {
			return Stats{}, err
		}
		stats.Catalog = &st
	}
	return stats, nil
}

// Recovery returns what Open found when it checked the files
func (s *CommitStore) Recovery() binlog.RecoveryResult {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.recovery
}

// Verify rereads both files from disk and checks every record. A record that
// fails is reported in the result, not as an error.
func (s *CommitStore) Verify(ctx context.Context) (VerifyResult, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if !s.isOpen {
		return VerifyResult{}, ErrClosed
	}

	index, err := os.Open(s.cfg.IndexPath())
	if err != nil {
		return VerifyResult{}, fmt.Errorf("open index file: %w", err)
	}
	defer index.Close()
	content, err := os.Open(s.cfg.ContentPath())
	if err != nil {
		return VerifyResult{}, fmt.Errorf("open content file: %w", err)
	}
	defer content.Close()

	var res VerifyResult
	r, err := binlog.NewReader(index, content, s.binlogOptions()...)
	if err != nil {
		res.Err = err
		return res, nil
	}
	for {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		_, _, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			res.Err = err
			break
		}
		res.RecordsVerified++
	}

	s.logger.Info("verify finished", "records", res.RecordsVerified, "error", res.Err)
	return res, nil
}

// Close shuts down the store
func (s *CommitStore) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if !s.isOpen {
		return nil
	}
	s.isOpen = false

	var errs []error
	if s.catalog != nil {
		errs = append(errs, s.catalog.Close())
	}
	errs = append(errs, s.closeFiles())
	return errors.Join(errs...)
}
