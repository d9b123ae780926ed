package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// MuxConfig represents the root configuration for the mux driver. Fields are
// pointers so that partial JSON files are safe: anything omitted falls back
// to the Get* defaults.
type MuxConfig struct {
	// Driver sizing
	RingSize    *int `json:"ring_size,omitempty"`    // per-ring byte capacity
	ScratchSize *int `json:"scratch_size,omitempty"` // ISR temp buffer bytes
	Channels    *int `json:"channels,omitempty"`     // virtual channel pool size
	Endpoints   *int `json:"endpoints,omitempty"`    // physical line pool size

	// Diagnostics
	Verbose *bool `json:"verbose,omitempty"` // hexdump muxed RX/TX traffic

	// Serial line params for the real-port backend
	BaudRate *int    `json:"baud_rate,omitempty"`
	DataBits *int    `json:"data_bits,omitempty"`
	StopBits *int    `json:"stop_bits,omitempty"`
	Parity   *string `json:"parity,omitempty"`
}

// EmptyMuxConfig returns a MuxConfig with all fields set to nil.
func EmptyMuxConfig() *MuxConfig {
	return &MuxConfig{}
}

// LoadMuxConfig loads a MuxConfig from a JSON file. The file is validated to
// ensure it has a .json extension and is under the max file size. Fields
// omitted from the JSON file retain their default values, so partial configs
// are safe.
func LoadMuxConfig(path string) (*MuxConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyMuxConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration values are valid.
func (c *MuxConfig) Validate() error {
	if c.RingSize != nil && *c.RingSize <= 0 {
		return fmt.Errorf("ring_size must be positive, got %d", *c.RingSize)
	}
	if c.ScratchSize != nil && *c.ScratchSize <= 0 {
		return fmt.Errorf("scratch_size must be positive, got %d", *c.ScratchSize)
	}
	if c.Channels != nil && *c.Channels <= 0 {
		return fmt.Errorf("channels must be positive, got %d", *c.Channels)
	}
	if c.Endpoints != nil && *c.Endpoints <= 0 {
		return fmt.Errorf("endpoints must be positive, got %d", *c.Endpoints)
	}
	if c.DataBits != nil && (*c.DataBits < 5 || *c.DataBits > 8) {
		return fmt.Errorf("invalid data bits %d: must be between 5 and 8", *c.DataBits)
	}
	if c.StopBits != nil && *c.StopBits != 1 && *c.StopBits != 2 {
		return fmt.Errorf("invalid stop bits %d: supported values are 1 or 2", *c.StopBits)
	}
	return nil
}

// GetRingSize returns the ring_size value or the default.
func (c *MuxConfig) GetRingSize() int {
	if c.RingSize == nil {
		return 256
	}
	return *c.RingSize
}

// GetScratchSize returns the scratch_size value or the default.
func (c *MuxConfig) GetScratchSize() int {
	if c.ScratchSize == nil {
		return 32
	}
	return *c.ScratchSize
}

// GetChannels returns the channels value or the default.
func (c *MuxConfig) GetChannels() int {
	if c.Channels == nil {
		return 4
	}
	return *c.Channels
}

// GetEndpoints returns the endpoints value or the default.
func (c *MuxConfig) GetEndpoints() int {
	if c.Endpoints == nil {
		return 1
	}
	return *c.Endpoints
}

// GetVerbose returns the verbose value or the default.
func (c *MuxConfig) GetVerbose() bool {
	if c.Verbose == nil {
		return false
	}
	return *c.Verbose
}

// GetBaudRate returns the baud_rate value or the default.
func (c *MuxConfig) GetBaudRate() int {
	if c.BaudRate == nil {
		return 115200
	}
	return *c.BaudRate
}

// GetDataBits returns the data_bits value or the default.
func (c *MuxConfig) GetDataBits() int {
	if c.DataBits == nil {
		return 8
	}
	return *c.DataBits
}

// GetStopBits returns the stop_bits value or the default.
func (c *MuxConfig) GetStopBits() int {
	if c.StopBits == nil {
		return 1
	}
	return *c.StopBits
}

// GetParity returns the parity value or the default.
func (c *MuxConfig) GetParity() string {
	if c.Parity == nil {
		return "N"
	}
	return *c.Parity
}
