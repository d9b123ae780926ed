package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTempConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}

func TestEmptyMuxConfigDefaults(t *testing.T) {
	cfg := EmptyMuxConfig()

	if got := cfg.GetRingSize(); got != 256 {
		t.Errorf("GetRingSize() = %d, want 256", got)
	}
	if got := cfg.GetScratchSize(); got != 32 {
		t.Errorf("GetScratchSize() = %d, want 32", got)
	}
	if got := cfg.GetChannels(); got != 4 {
		t.Errorf("GetChannels() = %d, want 4", got)
	}
	if got := cfg.GetEndpoints(); got != 1 {
		t.Errorf("GetEndpoints() = %d, want 1", got)
	}
	if cfg.GetVerbose() {
		t.Error("GetVerbose() = true, want false")
	}
	if got := cfg.GetBaudRate(); got != 115200 {
		t.Errorf("GetBaudRate() = %d, want 115200", got)
	}
	if got := cfg.GetDataBits(); got != 8 {
		t.Errorf("GetDataBits() = %d, want 8", got)
	}
	if got := cfg.GetStopBits(); got != 1 {
		t.Errorf("GetStopBits() = %d, want 1", got)
	}
	if got := cfg.GetParity(); got != "N" {
		t.Errorf("GetParity() = %q, want N", got)
	}
}

func TestLoadMuxConfigPartialFile(t *testing.T) {
	path := writeTempConfig(t, "mux.json", `{
		"ring_size": 128,
		"channels": 8,
		"verbose": true,
		"baud_rate": 9600
	}`)

	cfg, err := LoadMuxConfig(path)
	if err != nil {
		t.Fatalf("LoadMuxConfig: %v", err)
	}
	if got := cfg.GetRingSize(); got != 128 {
		t.Errorf("GetRingSize() = %d, want 128", got)
	}
	if got := cfg.GetChannels(); got != 8 {
		t.Errorf("GetChannels() = %d, want 8", got)
	}
	if !cfg.GetVerbose() {
		t.Error("GetVerbose() = false, want true")
	}
	if got := cfg.GetBaudRate(); got != 9600 {
		t.Errorf("GetBaudRate() = %d, want 9600", got)
	}
	// Omitted fields keep defaults.
	if got := cfg.GetScratchSize(); got != 32 {
		t.Errorf("GetScratchSize() = %d, want default 32", got)
	}
	if got := cfg.GetEndpoints(); got != 1 {
		t.Errorf("GetEndpoints() = %d, want default 1", got)
	}
}

func TestLoadMuxConfigRejectsNonJSONExtension(t *testing.T) {
	path := writeTempConfig(t, "mux.yaml", `{}`)
	if _, err := LoadMuxConfig(path); err == nil || !strings.Contains(err.Error(), ".json") {
		t.Errorf("LoadMuxConfig(.yaml) = %v, want extension error", err)
	}
}

func TestLoadMuxConfigMissingFile(t *testing.T) {
	if _, err := LoadMuxConfig(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Error("LoadMuxConfig on missing file should fail")
	}
}

func TestLoadMuxConfigMalformedJSON(t *testing.T) {
	path := writeTempConfig(t, "bad.json", `{"ring_size": `)
	if _, err := LoadMuxConfig(path); err == nil {
		t.Error("malformed JSON should fail")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	intp := func(v int) *int { return &v }

	tests := []struct {
		name string
		cfg  MuxConfig
	}{
		{"zero ring", MuxConfig{RingSize: intp(0)}},
		{"negative scratch", MuxConfig{ScratchSize: intp(-1)}},
		{"zero channels", MuxConfig{Channels: intp(0)}},
		{"negative endpoints", MuxConfig{Endpoints: intp(-2)}},
		{"data bits too small", MuxConfig{DataBits: intp(4)}},
		{"data bits too large", MuxConfig{DataBits: intp(9)}},
		{"bad stop bits", MuxConfig{StopBits: intp(3)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); err == nil {
				t.Errorf("Validate(%+v) succeeded, want error", tt.cfg)
			}
		})
	}
}

func TestValidateAcceptsLoadedValues(t *testing.T) {
	path := writeTempConfig(t, "ok.json", `{
		"ring_size": 64,
		"scratch_size": 16,
		"channels": 2,
		"endpoints": 2,
		"data_bits": 7,
		"stop_bits": 2,
		"parity": "E"
	}`)
	cfg, err := LoadMuxConfig(path)
	if err != nil {
		t.Fatalf("LoadMuxConfig: %v", err)
	}
	if got := cfg.GetDataBits(); got != 7 {
		t.Errorf("GetDataBits() = %d, want 7", got)
	}
	if got := cfg.GetParity(); got != "E" {
		t.Errorf("GetParity() = %q, want E", got)
	}
}
