package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "github.com/duckdb/duckdb-go/v2"
)

// Leaderboard ranks runs across parquet archives with an in-memory DuckDB
// view named runs.
type Leaderboard struct {
	db    *sql.DB
	files []string
}

// TopQuery filters a leaderboard query. The zero value returns the ten best
// runs of every source and difficulty.
type TopQuery struct {
	Limit          int
	Source         string
	HighDifficulty *bool
}

// Summary aggregates every run in the view.
type Summary struct {
	Runs      int64
	BestScore int64
	MeanScore float64
	Won       int64
}

// OpenLeaderboard builds the runs view over every parquet file below roots,
// skipping tmp directories.
func OpenLeaderboard(roots []string) (*Leaderboard, error) {
	files, err := findRunFiles(roots)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	// Ignore errors for compatibility across versions.
	_, _ = db.Exec("PRAGMA threads=4")

	if err := createRunsView(db, files); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Leaderboard{db: db, files: files}, nil
}

func findRunFiles(roots []string) ([]string, error) {
	var files []string
	for _, root := range roots {
		root = strings.TrimSpace(root)
		if root == "" {
			continue
		}
		// A root nothing has been archived to yet is just empty.
		if _, err := os.Stat(root); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if d.Name() == "tmp" && path != root {
					return filepath.SkipDir
				}
				return nil
			}
			if strings.HasSuffix(d.Name(), ".parquet") {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", root, err)
		}
	}
	sort.Strings(files)
	return files, nil
}

func createRunsView(db *sql.DB, files []string) error {
	if len(files) == 0 {
		_, err := db.Exec(`CREATE OR REPLACE VIEW runs AS
			SELECT * FROM (
				SELECT
					NULL::VARCHAR AS run_id,
					NULL::VARCHAR AS version,
					NULL::BIGINT AS seed,
					NULL::BIGINT AS score,
					NULL::INTEGER AS snake_len,
					NULL::VARCHAR AS outcome,
					NULL::BOOLEAN AS high_difficulty,
					NULL::BIGINT AS started_ns,
					NULL::BIGINT AS duration_ms,
					NULL::VARCHAR AS source,
					NULL::VARCHAR AS filename
			) WHERE 1=0`)
		if err != nil {
			return fmt.Errorf("create empty runs view: %w", err)
		}
		return nil
	}

	quoted := make([]string, len(files))
	for i, f := range files {
		quoted[i] = "'" + escapeSQLString(f) + "'"
	}
	// A run exported twice (history import and archive) counts once.
	sqlText := `CREATE OR REPLACE VIEW runs AS
		SELECT * FROM read_parquet([` + strings.Join(quoted, ",") + `], filename=true, union_by_name=true)
		QUALIFY row_number() OVER (PARTITION BY run_id ORDER BY filename) = 1`
	if _, err := db.Exec(sqlText); err != nil {
		return fmt.Errorf("create runs view: %w", err)
	}
	return nil
}

func escapeSQLString(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

// Files lists the parquet files behind the view.
func (l *Leaderboard) Files() []string {
	return append([]string(nil), l.files...)
}

// Top returns the best runs by score. Ties go to the shorter run, then the
// run id.
func (l *Leaderboard) Top(ctx context.Context, q TopQuery) ([]RunRow, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = 10
	}

	var (
		where []string
		args  []any
	)
	if q.Source != "" {
		where = append(where, "source = ?")
		args = append(args, q.Source)
	}
	if q.HighDifficulty != nil {
		where = append(where, "high_difficulty = ?")
		args = append(args, *q.HighDifficulty)
	}
	query := `SELECT run_id, version, seed, score, snake_len, outcome,
			high_difficulty, started_ns, duration_ms, source
		FROM runs`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += fmt.Sprintf(" ORDER BY score DESC, duration_ms ASC, run_id ASC LIMIT %d", limit)

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query top runs: %w", err)
	}
	defer rows.Close()

	var out []RunRow
	for rows.Next() {
		var r RunRow
		if err := rows.Scan(&r.RunID, &r.Version, &r.Seed, &r.Score, &r.SnakeLen, &r.Outcome,
			&r.HighDifficulty, &r.StartedNs, &r.DurationMs, &r.Source); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return out, nil
}

// Summary counts runs and aggregates score over the whole view.
func (l *Leaderboard) Summary(ctx context.Context) (Summary, error) {
	var (
		s    Summary
		best sql.NullInt64
		mean sql.NullFloat64
	)
	err := l.db.QueryRowContext(ctx, `SELECT
			COUNT(*),
			MAX(score),
			AVG(score),
			COUNT(*) FILTER (WHERE outcome = 'won')
		FROM runs`).Scan(&s.Runs, &best, &mean, &s.Won)
	if err != nil {
		return Summary{}, fmt.Errorf("query summary: %w", err)
	}
	s.BestScore = best.Int64
	s.MeanScore = mean.Float64
	return s, nil
}

// Close releases the DuckDB connection.
func (l *Leaderboard) Close() error {
	return l.db.Close()
}
