// SPDX-License-Identifier: MIT

// Package config defines the runtime configuration for the analysis engine
// and loads it from YAML files, environment overrides and CLI flags.
package config

import "time"

// Defaults and limits for the analysis engine. The analysis defaults mirror
// the classic visualizer setup: CD-rate input, 2048-point FFT, 20-deep
// smoothing history refreshed every 20 ms.
const (
	DefaultSampleRate   = 44100.0
	DefaultFFTSize      = 2048
	DefaultHistoryDepth = 20
	DefaultPeriod       = 20 * time.Millisecond
	DefaultWindow       = "hann"

	DefaultChannels = 1
	DefaultDeviceID = MinDeviceID
	DefaultFormat   = "int16"

	MinDeviceID   = -1 // -1 selects the system default device
	MinSampleRate = 8000.0
	MaxSampleRate = 192000.0
	MaxFFTSize    = 8192
)

// Config is the root application configuration, loaded from YAML and then
// overridden by environment variables and CLI flags.
type Config struct {
	Debug    bool   `yaml:"debug"`
	LogLevel string `yaml:"log_level"`

	Analysis  AnalysisConfig  `yaml:"analysis"`
	Input     InputConfig     `yaml:"input"`
	Transport TransportConfig `yaml:"transport"`

	// Set by CLI parsing, not by file.
	Command string `yaml:"-"` // one-off command ("devices"), empty to run
	TUIMode bool   `yaml:"-"` // render the terminal spectrum view
}

// AnalysisConfig holds the parameters fixed at analyzer construction.
type AnalysisConfig struct {
	SampleRate     float64       `yaml:"sample_rate"`     // input sample rate in Hz
	FFTSize        int           `yaml:"fft_size"`        // frame size F, power of two
	HistoryDepth   int           `yaml:"history_depth"`   // smoothing history slots
	Period         time.Duration `yaml:"period"`          // analysis loop wake-up period
	BufferCapacity int           `yaml:"buffer_capacity"` // ingest capacity in samples, 0 for 2*fft_size
	Window         string        `yaml:"window"`          // analysis window name (hann, hamming, ...)
}

// InputConfig selects where PCM chunks come from.
type InputConfig struct {
	File     string `yaml:"file"`     // WAV file path, "-" for raw PCM on stdin; empty means live capture
	DeviceID int    `yaml:"device"`   // capture device index, -1 for default
	Channels int    `yaml:"channels"` // channels delivered by the producer
	Format   string `yaml:"format"`   // stdin sample format (int16, int32, float32)
}

// TransportConfig controls network publication of analysis results.
type TransportConfig struct {
	WebSocketEnabled bool   `yaml:"websocket_enabled"`
	WebSocketAddr    string `yaml:"websocket_addr"`
	UDPEnabled       bool   `yaml:"udp_enabled"`
	UDPTargetAddress string `yaml:"udp_target_address"`
}

// NewConfig returns a Config populated with defaults. This is the base that
// file, environment and flag values are layered onto.
func NewConfig() *Config {
	return &Config{
		Debug:    false,
		LogLevel: "info",
		Analysis: AnalysisConfig{
			SampleRate:     DefaultSampleRate,
			FFTSize:        DefaultFFTSize,
			HistoryDepth:   DefaultHistoryDepth,
			Period:         DefaultPeriod,
			BufferCapacity: 0,
			Window:         DefaultWindow,
		},
		Input: InputConfig{
			File:     "",
			DeviceID: DefaultDeviceID,
			Channels: DefaultChannels,
			Format:   DefaultFormat,
		},
		Transport: TransportConfig{
			WebSocketEnabled: false,
			WebSocketAddr:    ":8080",
			UDPEnabled:       false,
			UDPTargetAddress: "127.0.0.1:9090",
		},
	}
}
