package logger

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestNewProductionWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "production", "")
	l.Debug().Msg("hidden")
	l.Info().Str("sku", "S1").Msg("shown")

	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("expected one JSON line, got %q: %v", buf.String(), err)
	}
	if entry["sku"] != "S1" || entry["message"] != "shown" || entry["time"] == nil {
		t.Fatalf("unexpected entry %v", entry)
	}
}

func TestNewHonoursLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "development", "warn")
	l.Info().Msg("quiet")
	if buf.Len() != 0 {
		t.Fatalf("info should be filtered at warn level, got %q", buf.String())
	}
}

func TestOrNop(t *testing.T) {
	OrNop(nil).Info().Msg("discarded")
}
