/*
 * Copyright 2025 QADataSwap Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

// readerConfig holds the consumer demo's runtime settings.
type readerConfig struct {
	Channel    string // channel name shared with the writer
	Dir        string // region directory override, empty = default
	TimeoutMs  int    // per-read timeout
	MaxBatches int    // stop after this many batches, 0 = until idle/EOS
	MaxIdle    int    // consecutive empty reads before giving up
	Stream     bool   // consume via the chunked streaming API
}

// swapreader config.toml key mapping.
type readerFileConfig struct {
	Channel    string `toml:"channel"`
	Dir        string `toml:"dir"`
	TimeoutMs  int    `toml:"timeout_ms"`
	MaxBatches int    `toml:"max_batches"`
	MaxIdle    int    `toml:"max_idle"`
	Stream     bool   `toml:"stream"`
}

func defaultReaderConfig() readerConfig {
	return readerConfig{
		Channel:   "swapdemo",
		TimeoutMs: 1000,
		MaxIdle:   5,
	}
}

// loadReaderConfig overlays config.toml values on the defaults.
func loadReaderConfig(path string) (readerConfig, error) {
	cfg := defaultReaderConfig()

	var raw readerFileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return readerConfig{}, fmt.Errorf("load swapreader config: %w", err)
	}

	if meta.IsDefined("channel") {
		cfg.Channel = strings.TrimSpace(raw.Channel)
	}
	if meta.IsDefined("dir") {
		cfg.Dir = strings.TrimSpace(raw.Dir)
	}
	if meta.IsDefined("timeout_ms") {
		cfg.TimeoutMs = raw.TimeoutMs
	}
	if meta.IsDefined("max_batches") {
		cfg.MaxBatches = raw.MaxBatches
	}
	if meta.IsDefined("max_idle") {
		cfg.MaxIdle = raw.MaxIdle
	}
	if meta.IsDefined("stream") {
		cfg.Stream = raw.Stream
	}

	if cfg.Channel == "" {
		return readerConfig{}, fmt.Errorf("swapreader config: channel must not be empty")
	}
	if cfg.TimeoutMs < 1 {
		return readerConfig{}, fmt.Errorf("swapreader config: timeout_ms %d must be positive", cfg.TimeoutMs)
	}
	return cfg, nil
}
