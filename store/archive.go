package store

import (
	"fmt"
	"sync"
)

// DefaultFlushRows is how many runs an Archive buffers per parquet file.
const DefaultFlushRows = 1000

// Archive appends runs to rotating parquet files in one directory. It is safe
// for concurrent use; self-play workers share one Archive.
type Archive struct {
	mu        sync.Mutex
	outDir    string
	flushRows int
	w         *BatchWriter
	files     []string
	rows      int
}

// NewArchive prepares outDir. flushRows <= 0 uses DefaultFlushRows.
func NewArchive(outDir string, flushRows int) (*Archive, error) {
	if outDir == "" {
		return nil, fmt.Errorf("archive dir is required")
	}
	if flushRows <= 0 {
		flushRows = DefaultFlushRows
	}
	return &Archive{outDir: outDir, flushRows: flushRows}, nil
}

// Add writes one row, rotating to a new file once flushRows are buffered.
func (a *Archive) Add(row RunRow) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.w == nil {
		w, err := NewBatchWriter(a.outDir)
		if err != nil {
			return err
		}
		a.w = w
	}
	if err := a.w.WriteRows([]RunRow{row}); err != nil {
		return err
	}
	if a.w.BufferedRows() >= a.flushRows {
		_, err := a.flushLocked()
		return err
	}
	return nil
}

// Flush finalizes the current file, if any, and returns its path.
func (a *Archive) Flush() (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.flushLocked()
}

func (a *Archive) flushLocked() (string, error) {
	if a.w == nil {
		return "", nil
	}
	path, rows, err := a.w.Finalize()
	a.w = nil
	if err != nil {
		return "", fmt.Errorf("finalize archive batch: %w", err)
	}
	if path != "" {
		a.files = append(a.files, path)
		a.rows += rows
	}
	return path, nil
}

// Close flushes the pending file.
func (a *Archive) Close() error {
	_, err := a.Flush()
	return err
}

// Files lists the parquet files finalized so far.
func (a *Archive) Files() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.files...)
}

// Rows is the number of rows in finalized files.
func (a *Archive) Rows() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.rows
}
