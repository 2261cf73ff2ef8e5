package store

import (
	"errors"

	"github.com/Berylsoft/Zeon/pkg/binlog"
	"github.com/Berylsoft/Zeon/pkg/catalog"
	"github.com/Berylsoft/Zeon/pkg/meta"
)

// Errors
var (
	ErrCommitNotFound  = errors.New("commit not found")
	ErrClosed          = errors.New("store is closed")
	ErrCatalogDisabled = errors.New("catalog is disabled")
)

// ReplayFunc receives each commit in log order. Returning an error stops the
// replay and is returned by Replay.
type ReplayFunc func(c meta.Commit, h meta.Hash) error

// Stats holds statistics about the store
type Stats struct {
	Commits     int
	IndexSize   int64
	ContentSize int64
	LastHash    meta.Hash
	// Recovery is what Open found when it checked the files
	Recovery binlog.RecoveryResult
	// Catalog is nil when the catalog is disabled
	Catalog *catalog.State
}

// VerifyResult reports a full pass over the files
type VerifyResult struct {
	RecordsVerified int
	// Err is the first record that failed, nil when every record verified
	Err error
}
