package binlog

import (
	"bufio"
	"fmt"
	"io"
	"time"

	"github.com/Berylsoft/Zeon/pkg/meta"
)

// TruncateFile is a file that recovery can read and shorten. *os.File
// satisfies it.
type TruncateFile interface {
	io.ReadSeeker
	Truncate(size int64) error
}

// RecoveryResult describes what Recover found and changed
type RecoveryResult struct {
	RecordsValidated  int
	IndexSizeBefore   int64
	IndexSizeAfter    int64
	ContentSizeBefore int64
	ContentSizeAfter  int64
	// Cause is the error that ended the valid prefix, nil for a clean log
	Cause        error
	RecoveryTime time.Duration
}

// Truncated reports whether Recover shortened either file
func (r RecoveryResult) Truncated() bool {
	return r.IndexSizeAfter < r.IndexSizeBefore || r.ContentSizeAfter < r.ContentSizeBefore
}

// Recover keeps the longest prefix of records that read and verify cleanly
// and truncates both files to it. Bytes after that prefix, such as an
// unindexed blob left by a crash between the content and index flushes, are
// dropped. Both files are left positioned at their new end. A bad magic
// number is returned as an error and nothing is truncated. The content length
// limit option does not apply: records longer than it are kept.
func Recover(index, content TruncateFile, opts ...Option) (RecoveryResult, error) {
	o := buildOptions(opts)
	start := time.Now()

	var res RecoveryResult
	var err error
	if res.IndexSizeBefore, err = fileSize(index, StreamIndex); err != nil {
		return res, err
	}
	if res.ContentSizeBefore, err = fileSize(content, StreamContent); err != nil {
		return res, err
	}

	ir := bufio.NewReader(index)
	cr := bufio.NewReader(content)
	if err := readMagic(ir, StreamIndex); err != nil {
		return res, err
	}
	if err := readMagic(cr, StreamContent); err != nil {
		return res, err
	}

	indexEnd := int64(HeaderSize)
	contentEnd := int64(HeaderSize)
	for {
		item, err := readIndexItem(ir)
		if err == io.EOF {
			break
		}
		if err != nil {
			res.Cause = err
			break
		}
		// The content limit guards reads of an intact log. Here the only bound
		// is the file itself, so lowering the limit never truncates valid commits.
		if item.Len > uint64(res.ContentSizeBefore-contentEnd) {
			res.Cause = fmt.Errorf("commit %s: %w", item.Ptr, &IOError{Stream: StreamContent, Err: io.ErrUnexpectedEOF})
			break
		}
		data, err := readContent(cr, item.Len, item.Len)
		if err != nil {
			res.Cause = fmt.Errorf("commit %s: %w", item.Ptr, err)
			break
		}
		if _, err := verify(item, data); err != nil {
			res.Cause = err
			break
		}
		res.RecordsValidated++
		indexEnd += meta.CommitIndexItemSize
		contentEnd += int64(item.Len)
	}

	if err := truncate(index, StreamIndex, res.IndexSizeBefore, indexEnd); err != nil {
		return res, err
	}
	if err := truncate(content, StreamContent, res.ContentSizeBefore, contentEnd); err != nil {
		return res, err
	}
	res.IndexSizeAfter = min(res.IndexSizeBefore, indexEnd)
	res.ContentSizeAfter = min(res.ContentSizeBefore, contentEnd)
	res.RecoveryTime = time.Since(start)

	if res.Cause != nil {
		o.metrics.recordFailure(res.Cause)
	}
	if res.Truncated() {
		o.logger.Warn("binlog truncated to last valid commit",
			"records", res.RecordsValidated,
			"index_dropped", res.IndexSizeBefore-res.IndexSizeAfter,
			"content_dropped", res.ContentSizeBefore-res.ContentSizeAfter,
			"cause", res.Cause)
	} else {
		o.logger.Debug("binlog verified", "records", res.RecordsValidated)
	}
	return res, nil
}

func fileSize(f io.Seeker, s Stream) (int64, error) {
	size, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, &IOError{Stream: s, Err: err}
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return 0, &IOError{Stream: s, Err: err}
	}
	return size, nil
}

func truncate(f TruncateFile, s Stream, size, end int64) error {
	if size > end {
		if err := f.Truncate(end); err != nil {
			return &IOError{Stream: s, Err: fmt.Errorf("truncate: %w", err)}
		}
	}
	if _, err := f.Seek(min(size, end), io.SeekStart); err != nil {
		return &IOError{Stream: s, Err: err}
	}
	return nil
}
