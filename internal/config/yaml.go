// SPDX-License-Identifier: MIT
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"spectra/pkg/bitint"
)

// LoadConfig loads configuration from a YAML file. If path is empty, the
// default locations are searched; when no file is found the built-in
// defaults are used. Environment overrides are applied after file values,
// and the final configuration is validated.
func LoadConfig(path string) (*Config, error) {
	cfg := NewConfig()

	if path == "" {
		candidates := []string{"config.yaml"}
		found := false
		for _, candidate := range candidates {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				found = true
				break
			}
		}
		if !found {
			cfg.applyEnvOverrides()
			if err := cfg.Validate(); err != nil {
				return nil, fmt.Errorf("invalid default configuration: %w", err)
			}
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks the configuration for values the analyzer cannot run
// with. It is called after all override layers have been applied.
func (c *Config) Validate() error {
	a := &c.Analysis
	if !bitint.IsPowerOfTwo(a.FFTSize) || a.FFTSize > MaxFFTSize {
		return fmt.Errorf("analysis.fft_size must be a power of 2 up to %d, got %d", MaxFFTSize, a.FFTSize)
	}
	if a.SampleRate < MinSampleRate || a.SampleRate > MaxSampleRate {
		return fmt.Errorf("analysis.sample_rate must be in [%.0f, %.0f], got %f", MinSampleRate, MaxSampleRate, a.SampleRate)
	}
	if a.HistoryDepth <= 0 {
		return fmt.Errorf("analysis.history_depth must be positive, got %d", a.HistoryDepth)
	}
	if a.Period <= 0 {
		return fmt.Errorf("analysis.period must be positive, got %s", a.Period)
	}
	if a.BufferCapacity != 0 && a.BufferCapacity < 2*a.FFTSize {
		return fmt.Errorf("analysis.buffer_capacity must be at least 2*fft_size (%d), got %d", 2*a.FFTSize, a.BufferCapacity)
	}
	if c.Input.Channels <= 0 {
		return fmt.Errorf("input.channels must be positive, got %d", c.Input.Channels)
	}
	if c.Transport.UDPEnabled && c.Transport.UDPTargetAddress == "" {
		return fmt.Errorf("transport.udp_target_address must be set when UDP is enabled")
	}
	if c.Transport.WebSocketEnabled && c.Transport.WebSocketAddr == "" {
		return fmt.Errorf("transport.websocket_addr must be set when websocket is enabled")
	}
	return nil
}

// applyEnvOverrides layers SPECTRA_* environment variables over the current
// values. Malformed values are ignored rather than fatal so a bad variable
// cannot keep the engine from starting.
func (cfg *Config) applyEnvOverrides() {
	if val, ok := os.LookupEnv("SPECTRA_DEBUG"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			cfg.Debug = bVal
		}
	}
	if val, ok := os.LookupEnv("SPECTRA_LOG_LEVEL"); ok {
		cfg.LogLevel = val
	}
	if val, ok := os.LookupEnv("SPECTRA_PERIOD"); ok {
		if dur, err := time.ParseDuration(val); err == nil {
			cfg.Analysis.Period = dur
		}
	}
	if val, ok := os.LookupEnv("SPECTRA_UDP_ENABLED"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			cfg.Transport.UDPEnabled = bVal
		}
	}
	if val, ok := os.LookupEnv("SPECTRA_UDP_TARGET_ADDRESS"); ok {
		cfg.Transport.UDPTargetAddress = val
	}
	if val, ok := os.LookupEnv("SPECTRA_WEBSOCKET_ADDR"); ok {
		cfg.Transport.WebSocketAddr = val
	}
}
