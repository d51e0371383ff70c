package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestNew(t *testing.T) {
	log := New()
	if log.GetLevel() == zerolog.Disabled {
		t.Error("Expected logger to be enabled")
	}
}

func TestNewWithWriter(t *testing.T) {
	buf := &bytes.Buffer{}
	log := NewWithWriter(buf)

	log.Info().Msg("test message")

	if !strings.Contains(buf.String(), "test message") {
		t.Errorf("Expected output to contain 'test message', got: %s", buf.String())
	}
}

func TestConfigure(t *testing.T) {
	tests := []struct {
		name      string
		level     string
		format    string
		wantLevel zerolog.Level
		wantJSON  bool
	}{
		{"defaults", "", "", zerolog.InfoLevel, false},
		{"debug json", "debug", "json", zerolog.DebugLevel, true},
		{"upper case", "WARN", "JSON", zerolog.WarnLevel, true},
		{"garbage level", "loud", "console", zerolog.InfoLevel, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			log := Configure(buf, tt.level, tt.format)
			if log.GetLevel() != tt.wantLevel {
				t.Errorf("level = %v, want %v", log.GetLevel(), tt.wantLevel)
			}

			log.Error().Msg("hello")
			var decoded map[string]interface{}
			isJSON := json.Unmarshal(buf.Bytes(), &decoded) == nil
			if isJSON != tt.wantJSON {
				t.Errorf("json output = %v, want %v (%s)", isJSON, tt.wantJSON, buf.String())
			}
		})
	}
}

func TestConfigure_FiltersBelowLevel(t *testing.T) {
	buf := &bytes.Buffer{}
	log := Configure(buf, "warn", "json")

	log.Info().Msg("quiet")
	if buf.Len() != 0 {
		t.Errorf("info event should be dropped at warn level, got %s", buf.String())
	}
}

func TestFromContext(t *testing.T) {
	buf := &bytes.Buffer{}
	ctx := WithContext(context.Background(), NewWithWriter(buf))

	log := FromContext(ctx)
	log.Info().Msg("test")

	if buf.Len() == 0 {
		t.Error("Expected log output from retrieved logger")
	}
}

func TestFromContext_DefaultLogger(t *testing.T) {
	log := FromContext(context.Background())
	if log.GetLevel() == zerolog.Disabled {
		t.Error("Expected default logger to be enabled")
	}
}

func TestWithFields(t *testing.T) {
	buf := &bytes.Buffer{}
	log := WithFields(NewWithWriter(buf), map[string]interface{}{
		"rule_id": "r-1",
		"count":   3,
	})
	log.Info().Msg("processed")

	var decoded map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if decoded["rule_id"] != "r-1" {
		t.Errorf("rule_id = %v", decoded["rule_id"])
	}
	if decoded["count"] != float64(3) {
		t.Errorf("count = %v", decoded["count"])
	}
}

func TestWithUser(t *testing.T) {
	buf := &bytes.Buffer{}
	log := WithUser(NewWithWriter(buf), "alice")
	log.Info().Msg("hi")

	if !strings.Contains(buf.String(), `"user_id":"alice"`) {
		t.Errorf("missing user_id field: %s", buf.String())
	}
}
