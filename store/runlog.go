package store

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// RunLog is the local score history: an append-only file with one JSON
// encoded RunRow per line.
//
// The whole file is read into memory on open. Lines that do not decode, or
// that have no run id, are skipped and counted so a crash mid-write never
// blocks startup. Appends are synced before they are acknowledged.
type RunLog struct {
	mu      sync.RWMutex
	path    string
	file    *os.File
	runs    []RunRow
	ids     map[string]struct{}
	skipped int
}

// OpenRunLog loads the log at path, creating its directory if needed.
func OpenRunLog(path string) (*RunLog, error) {
	if path == "" {
		return nil, fmt.Errorf("log path is required")
	}

	l := &RunLog{path: path, ids: make(map[string]struct{})}

	if f, err := os.Open(path); err == nil {
		scanner := bufio.NewScanner(f)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			var row RunRow
			if err := json.Unmarshal([]byte(line), &row); err != nil || row.RunID == "" {
				l.skipped++
				continue
			}
			if _, dup := l.ids[row.RunID]; dup {
				continue
			}
			l.ids[row.RunID] = struct{}{}
			l.runs = append(l.runs, row)
		}
		if err := scanner.Err(); err != nil {
			l.skipped++
		}
		_ = f.Close()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	l.file = file
	return l, nil
}

// Close closes the file. Later appends fail.
func (l *RunLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

// Path is the file backing the log.
func (l *RunLog) Path() string { return l.path }

// Skipped is the number of malformed lines ignored on open.
func (l *RunLog) Skipped() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.skipped
}

// Count is the number of runs in the log.
func (l *RunLog) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.runs)
}

// Has reports whether runID is already logged.
func (l *RunLog) Has(runID string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.ids[runID]
	return ok
}

// Runs returns the history in file order.
func (l *RunLog) Runs() []RunRow {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]RunRow(nil), l.runs...)
}

// Best returns up to n runs by score, highest first. Ties go to the shorter
// run.
func (l *RunLog) Best(n int) []RunRow {
	runs := l.Runs()
	sort.SliceStable(runs, func(i, j int) bool {
		if runs[i].Score != runs[j].Score {
			return runs[i].Score > runs[j].Score
		}
		return runs[i].DurationMs < runs[j].DurationMs
	})
	if n >= 0 && n < len(runs) {
		runs = runs[:n]
	}
	return runs
}

// Append writes row and syncs. A run id already in the log is ignored.
func (l *RunLog) Append(row RunRow) error {
	if row.RunID == "" {
		return fmt.Errorf("run id is empty")
	}
	b, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("encode run: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.ids[row.RunID]; ok {
		return nil
	}
	if l.file == nil {
		return fmt.Errorf("log file is closed")
	}
	if _, err := l.file.Write(append(b, '\n')); err != nil {
		return fmt.Errorf("append log: %w", err)
	}
	if err := l.file.Sync(); err != nil {
		return fmt.Errorf("sync log: %w", err)
	}

	l.ids[row.RunID] = struct{}{}
	l.runs = append(l.runs, row)
	return nil
}
