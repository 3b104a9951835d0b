package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	dec := json.NewDecoder(buf)
	for dec.More() {
		var m map[string]any
		if err := dec.Decode(&m); err != nil {
			t.Fatalf("decode: %v\n%s", err, buf.String())
		}
		out = append(out, m)
	}
	return out
}

func TestHandler_FieldsAndGroups(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, slog.LevelInfo).With("seed", int64(7)).WithGroup("run")

	log.Info("session finished",
		"outcome", "lost",
		"duration", 1500*time.Millisecond,
		"err", errors.New("boom"),
		slog.Group("board", "w", 25, "h", 25),
	)

	recs := decodeLines(t, &buf)
	if len(recs) != 1 {
		t.Fatalf("records=%d want=1", len(recs))
	}
	rec := recs[0]
	if rec["msg"] != "session finished" || rec["level"] != "INFO" {
		t.Fatalf("header: %v", rec)
	}
	if rec["seed"] != float64(7) {
		t.Fatalf("seed attr before group: %v", rec)
	}
	run, ok := rec["run"].(map[string]any)
	if !ok {
		t.Fatalf("missing run group: %v", rec)
	}
	if run["outcome"] != "lost" || run["duration"] != "1.5s" || run["err"] != "boom" {
		t.Fatalf("run group: %v", run)
	}
	board, ok := run["board"].(map[string]any)
	if !ok || board["w"] != float64(25) {
		t.Fatalf("board group: %v", run)
	}
}

func TestHandler_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	log := NewCompact(&buf, slog.LevelWarn)
	log.Info("dropped")
	log.Warn("kept")
	log.Error("kept too")

	out := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(out) != 2 {
		t.Fatalf("lines=%d want=2:\n%s", len(out), buf.String())
	}
	if !strings.Contains(out[0], `"msg":"kept"`) {
		t.Fatalf("first line=%s", out[0])
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"":      slog.LevelInfo,
		"DEBUG": slog.LevelDebug,
		"warn":  slog.LevelWarn,
		"Error": slog.LevelError,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Fatalf("ParseLevel(%q)=%v,%v want %v", in, got, err, want)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}
