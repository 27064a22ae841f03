package logger

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{
		Writer: &buf,
		Format: FormatJSON,
		Level:  slog.LevelInfo,
	})

	log.Info("recompute complete", "challenge_id", "chal-1", "submissions", 42)

	out := buf.String()
	assert.Contains(t, out, `"msg":"recompute complete"`)
	assert.Contains(t, out, `"challenge_id":"chal-1"`)
	assert.Contains(t, out, `"submissions":42`)
	assert.Contains(t, out, `"level":"INFO"`)
}

func TestNew_DefaultWriter(t *testing.T) {
	log := New(Config{Format: FormatJSON, Level: slog.LevelInfo})
	require.NotNil(t, log)
	require.NotNil(t, log.Logger)
}

func TestNew_FormatByEnvironment(t *testing.T) {
	tests := []struct {
		name        string
		environment string
		wantJSON    bool
	}{
		{name: "production defaults to json", environment: "production", wantJSON: true},
		{name: "development defaults to pretty", environment: "development", wantJSON: false},
		{name: "staging defaults to pretty", environment: "staging", wantJSON: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			log := New(Config{Writer: &buf, Environment: tt.environment, Level: slog.LevelInfo})

			log.Info("cache rebuilt", "key", "rank:challenge:chal-1:daily")

			out := buf.String()
			if tt.wantJSON {
				assert.Contains(t, out, `"msg":"cache rebuilt"`)
			} else {
				assert.Contains(t, out, "cache rebuilt")
				assert.Contains(t, out, "key=rank:challenge:chal-1:daily")
				assert.NotContains(t, out, `"msg"`)
			}
		})
	}
}

func TestNew_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Writer: &buf, Format: FormatJSON, Level: slog.LevelWarn})

	log.Debug("scoring submission", "submission_id", "sub-1")
	log.Info("leaderboard served")
	log.Warn("cache read failed, falling back to store")

	out := buf.String()
	assert.NotContains(t, out, "scoring submission")
	assert.NotContains(t, out, "leaderboard served")
	assert.Contains(t, out, "cache read failed")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"ERROR", slog.LevelError},
		{"", slog.LevelInfo},
		{"nonsense", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run("level "+tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.input))
		})
	}
}

func TestPrettyHandler_LevelLabels(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Writer: &buf, Format: FormatPretty, Level: slog.LevelDebug})

	log.Debug("d")
	log.Info("i")
	log.Warn("w")
	log.Error("e")

	out := buf.String()
	assert.Contains(t, out, "DBG")
	assert.Contains(t, out, "INF")
	assert.Contains(t, out, "WRN")
	assert.Contains(t, out, "ERR")
}

func TestPrettyHandler_WithAttrsAndGroup(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Writer: &buf, Format: FormatPretty, Level: slog.LevelInfo})

	scoped := log.With("challenge_id", "chal-1").WithGroup("run")
	scoped.Info("snapshot recorded", "snapshot_id", "snap-abc")

	out := buf.String()
	assert.Contains(t, out, "challenge_id=chal-1")
	assert.Contains(t, out, "run.snapshot_id=snap-abc")

	// The derived logger must not leak attrs back into the parent.
	buf.Reset()
	log.Info("plain")
	assert.NotContains(t, buf.String(), "challenge_id")
}

func TestPrettyHandler_OneLinePerRecord(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Writer: &buf, Format: FormatPretty, Level: slog.LevelInfo})

	log.Info("first", "rank", 1)
	log.Info("second", "rank", 2)

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	assert.Len(t, lines, 2)
}
