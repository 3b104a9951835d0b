package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress/zstd"

	"github.com/brensch/demonsnake/session"
)

// RunSchema is stamped into the key/value metadata of every run file.
const RunSchema = "demon_snake_run_v1"

// Sources written into RunRow.Source.
const (
	SourceHuman     = "human"
	SourceAutopilot = "autopilot"
)

// RunRow is one finished run, as stored in the JSON-lines history and in the
// parquet archive.
type RunRow struct {
	RunID          string `parquet:"run_id" json:"id"`
	Version        string `parquet:"version,dict" json:"version"`
	Seed           int64  `parquet:"seed" json:"seed"`
	Score          int64  `parquet:"score" json:"score"`
	SnakeLen       int32  `parquet:"snake_len" json:"snake_len"`
	Outcome        string `parquet:"outcome,dict" json:"outcome"`
	HighDifficulty bool   `parquet:"high_difficulty" json:"high_difficulty"`
	StartedNs      int64  `parquet:"started_ns" json:"started_ns"`
	DurationMs     int64  `parquet:"duration_ms" json:"duration_ms"`
	Source         string `parquet:"source,dict" json:"source"`
}

// RowFromRecord flattens a session record.
func RowFromRecord(rec session.RunRecord, source string) RunRow {
	return RunRow{
		RunID:          rec.ID,
		Version:        rec.Version,
		Seed:           rec.Seed,
		Score:          int64(rec.Score),
		SnakeLen:       int32(rec.SnakeLen),
		Outcome:        rec.Outcome.String(),
		HighDifficulty: rec.HighDifficulty,
		StartedNs:      rec.StartedAt.UnixNano(),
		DurationMs:     rec.Duration.Milliseconds(),
		Source:         source,
	}
}

// StartedAt is the run start in UTC.
func (r RunRow) StartedAt() time.Time {
	return time.Unix(0, r.StartedNs).UTC()
}

var fileSeq atomic.Uint64

// runFileName is unique within a process even for files created in the same
// nanosecond.
func runFileName() string {
	return fmt.Sprintf("runs_%d_%d.parquet", time.Now().UnixNano(), fileSeq.Add(1))
}

func writerOptions() []parquet.WriterOption {
	return []parquet.WriterOption{
		parquet.Compression(&zstd.Codec{Level: zstd.SpeedBetterCompression}),
		parquet.KeyValueMetadata("schema", RunSchema),
	}
}

// WriteRunsParquetAtomic writes rows into outDir/tmp and then moves the file
// into outDir, so readers never observe a partial file. It returns the final
// path.
func WriteRunsParquetAtomic(outDir string, rows []RunRow) (string, error) {
	if len(rows) == 0 {
		return "", fmt.Errorf("no rows to write")
	}
	tmpDir := filepath.Join(outDir, "tmp")
	if err := os.MkdirAll(tmpDir, 0o755); err != nil {
		return "", fmt.Errorf("create tmp dir: %w", err)
	}

	name := runFileName()
	finalPath := filepath.Join(outDir, name)
	tmpPath := filepath.Join(tmpDir, name+".tmp")
	_ = os.Remove(tmpPath)

	if err := parquet.WriteFile(tmpPath, rows, writerOptions()...); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("write parquet: %w", err)
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("rename parquet: %w", err)
	}
	return finalPath, nil
}

// ReadRunsParquet loads every row of one run file.
func ReadRunsParquet(path string) ([]RunRow, error) {
	rows, err := parquet.ReadFile[RunRow](path)
	if err != nil {
		return nil, fmt.Errorf("read parquet %s: %w", path, err)
	}
	return rows, nil
}
