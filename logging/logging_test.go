package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestPrettyJSONHandler_GroupsAndAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewPrettyJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	logger.With("worker", 3).WithGroup("search").Debug("done",
		"iterations", 120,
		slog.Group("move", "row", 5, "col", 6),
		"err", errors.New("boom"),
	)

	if !strings.Contains(buf.String(), "\n  \"") {
		t.Fatalf("output not indented: %q", buf.String())
	}

	var got map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v\n%s", err, buf.String())
	}
	if got["msg"] != "done" || got["level"] != "DEBUG" {
		t.Fatalf("header fields: %v", got)
	}
	if got["worker"] != float64(3) {
		t.Fatalf("worker=%v", got["worker"])
	}
	search, ok := got["search"].(map[string]any)
	if !ok {
		t.Fatalf("search group missing: %v", got)
	}
	if search["iterations"] != float64(120) || search["err"] != "boom" {
		t.Fatalf("search=%v", search)
	}
	move, ok := search["move"].(map[string]any)
	if !ok || move["row"] != float64(5) || move["col"] != float64(6) {
		t.Fatalf("move=%v", search["move"])
	}
}

func TestPrettyJSONHandler_Level(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewPrettyJSONHandler(&buf, nil))
	logger.Debug("hidden")
	if buf.Len() != 0 {
		t.Fatalf("debug record written at info level: %s", buf.String())
	}
	logger.Info("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Fatalf("info record missing")
	}
}

func TestFromFlags(t *testing.T) {
	var buf bytes.Buffer
	logger, err := FromFlags(&buf, "json", "warn")
	if err != nil {
		t.Fatalf("FromFlags: %v", err)
	}
	logger.Info("hidden")
	logger.Warn("shown", "k", "v")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), `"k":"v"`) {
		t.Fatalf("output=%s", buf.String())
	}

	if _, err := FromFlags(&buf, "xml", "info"); !errors.Is(err, ErrUnknownFormat) {
		t.Fatalf("xml err=%v", err)
	}
	if _, err := FromFlags(&buf, "text", "loud"); err == nil {
		t.Fatalf("bad level accepted")
	}
}
