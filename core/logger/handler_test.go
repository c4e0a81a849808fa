package logger

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func render(t *testing.T, format logFormat, ctx context.Context, component, event string, attrs ...slog.Attr) string {
	t.Helper()
	buf := &bytes.Buffer{}
	aw := newAsyncWriter([]output{{w: buf}}, 1024)
	handler := newStructuredHandler(handlerConfig{
		level:  slog.LevelDebug,
		writer: aw,
		format: format,
	})
	LogEvent(ctx, slog.New(handler).With("component", component), slog.LevelInfo, event, attrs...)
	if err := aw.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	return strings.TrimSpace(buf.String())
}

func assertInOrder(t *testing.T, line string, parts ...string) {
	t.Helper()
	pos := -1
	for _, p := range parts {
		idx := strings.Index(line, p)
		if idx == -1 || idx < pos {
			t.Fatalf("%s not found in order within %s", p, line)
		}
		pos = idx
	}
}

func TestStructuredHandlerKVOrder(t *testing.T) {
	ctx := WithUpdateMeta(WithRID(context.Background(), "rid-123"), 42, 7, 9)
	line := render(t, formatKV, ctx, "app", "test.event",
		slog.String("cause", "unit"),
		slog.String("status", "ok"),
	)

	tokens := strings.Split(line, " ")
	expected := []string{"ts=", "level=INFO", "component=app", "event=test.event", "status=ok", "rid=rid-123"}
	if len(tokens) < len(expected) {
		t.Fatalf("unexpected token count: %d (%s)", len(tokens), line)
	}
	for i, prefix := range expected {
		if !strings.HasPrefix(tokens[i], prefix) {
			t.Fatalf("token %d = %s, expected prefix %s", i, tokens[i], prefix)
		}
	}
	assertInOrder(t, line, "update_id=42", "user_id=7", "chat_id=9", "cause=unit")
}

func TestStructuredHandlerJSONOrder(t *testing.T) {
	ctx := WithUpdateMeta(WithRID(context.Background(), "rid-json"), 11, 22, 33)
	line := render(t, formatJSON, ctx, "store.records", "records.put",
		slog.String("err_code", "persist_error"),
		slog.String("status", "FAIL"),
	)
	if !strings.HasPrefix(line, "{") {
		t.Fatalf("expected JSON, got %s", line)
	}
	assertInOrder(t, line, `{"ts":`, `"level":"INFO"`, `"component":"store.records"`,
		`"event":"records.put"`, `"status":"fail"`, `"rid":"rid-json"`, `"err_code":"persist_error"`)
}

func TestStructuredHandlerCompactRID(t *testing.T) {
	ctx := WithRID(context.Background(), "123:456:789")

	kv := render(t, formatKV, ctx, "app", "rid.test")
	if !strings.Contains(kv, "rid="+CompactRID("123:456:789")) {
		t.Fatalf("expected compact rid, got %s", kv)
	}
	if strings.Contains(kv, "rid_full=") {
		t.Fatalf("rid_full should be omitted in KV output, got %s", kv)
	}

	js := render(t, formatJSON, ctx, "app", "rid.test")
	if !strings.Contains(js, `"rid":"3f.co.lx"`) {
		t.Fatalf("expected compact rid in JSON, got %s", js)
	}
	if !strings.Contains(js, `"rid_full":"123:456:789"`) || !strings.Contains(js, `"ts_unix_nano"`) {
		t.Fatalf("expected rid_full and ts_unix_nano in JSON output, got %s", js)
	}
}

func TestStructuredHandlerTransitionKeysFollowStatus(t *testing.T) {
	line := render(t, formatKV, WithChat(context.Background(), 5), "engine", "fsm.transition",
		slog.String("to", "AudioChosen"),
		slog.String("from", "Initial"),
		slog.String("status", "ok"),
	)
	assertInOrder(t, line, "event=fsm.transition", "status=ok", "chat_id=5", "from=Initial", "to=AudioChosen")
}

func TestStructuredHandlerNormalizesValues(t *testing.T) {
	line := render(t, formatKV, context.Background(), "upload", "upload.progress",
		slog.Duration("duration", 1500*time.Microsecond),
		slog.Duration("startup_duration", 2*time.Second),
		slog.Int("percent", 130),
		slog.String("outcome", "weird"),
		slog.String("path", "audio/a b.mp3"),
		slog.String("empty", ""),
		slog.Group("blob", slog.String("bucket", "media")),
	)
	for _, want := range []string{
		"duration_ms=2",
		"startup_duration_ms=2000",
		"percent=100",
		`path="audio/a b.mp3"`,
		"blob.bucket=media",
	} {
		if !strings.Contains(line, want) {
			t.Fatalf("expected %s in %s", want, line)
		}
	}
	for _, absent := range []string{"outcome=", "empty="} {
		if strings.Contains(line, absent) {
			t.Fatalf("unexpected %s in %s", absent, line)
		}
	}
}

func TestContextHelpers(t *testing.T) {
	ctx := WithHandler(WithChat(context.Background(), 12), "cmd:start")
	if ChatIDFrom(ctx) != 12 || HandlerFrom(ctx) != "cmd:start" {
		t.Fatalf("unexpected context values: %d %q", ChatIDFrom(ctx), HandlerFrom(ctx))
	}
	if UserIDFrom(ctx) != 0 || RIDFrom(ctx) != "" {
		t.Fatal("expected zero values for missing keys")
	}
	if got := SanitizeLimit("a\x00b\u200bc\td", 3); got != "abc" {
		t.Fatalf("SanitizeLimit = %q", got)
	}
	if got := CompactRID("not-a-rid"); got != "not-a-rid" {
		t.Fatalf("CompactRID = %q", got)
	}
}

func TestAsyncWriterRoutesWarningsToErrorsOutput(t *testing.T) {
	all, errs := &bytes.Buffer{}, &bytes.Buffer{}
	aw := newAsyncWriter([]output{{w: all}, {w: errs, errorsOnly: true}}, 0)

	for _, l := range []struct {
		line  string
		level slog.Level
	}{
		{"debug\n", slog.LevelDebug},
		{"info\n", slog.LevelInfo},
		{"warn\n", slog.LevelWarn},
		{"error\n", slog.LevelError},
	} {
		if err := aw.Write([]byte(l.line), l.level); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	if err := aw.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if err := aw.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if got := all.String(); got != "debug\ninfo\nwarn\nerror\n" {
		t.Fatalf("all output = %q", got)
	}
	if got := errs.String(); got != "warn\nerror\n" {
		t.Fatalf("errors output = %q", got)
	}
}

func TestRatioSampler(t *testing.T) {
	s := newRatioSampler(2, 5)
	passed := 0
	for i := 0; i < 10; i++ {
		if s.Allow() {
			passed++
		}
	}
	if passed != 4 {
		t.Fatalf("passed = %d, want 4", passed)
	}

	s.Set(0, 0)
	if !s.Allow() {
		t.Fatal("disabled sampler must allow everything")
	}

	for raw, want := range map[string][2]int{
		"1/10":  {1, 10},
		"20":    {1, 20},
		"0":     {0, 0},
		"x/y":   {0, 0},
		"":      {0, 0},
		" 3/4 ": {3, 4},
	} {
		n, d := parseRatio(raw)
		if n != want[0] || d != want[1] {
			t.Fatalf("parseRatio(%q) = %d/%d, want %d/%d", raw, n, d, want[0], want[1])
		}
	}
}
