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

// writerConfig holds the producer demo's runtime settings.
type writerConfig struct {
	Channel        string // channel name shared with the reader
	Dir            string // region directory override, empty = default
	CapacityBytes  uint64 // total arena capacity
	BufferCount    int    // slots per arena
	Rows           int    // rows per synthetic batch
	Batches        int    // number of batches to publish
	IntervalMs     int    // pause between batches
	WriteTimeoutMs int    // 0 = block indefinitely under backpressure
	Stream         bool   // use the chunked streaming API and Finish
}

// swapwriter config.toml key mapping.
type fileConfig struct {
	Channel        string `toml:"channel"`
	Dir            string `toml:"dir"`
	CapacityBytes  int64  `toml:"capacity_bytes"`
	BufferCount    int    `toml:"buffer_count"`
	Rows           int    `toml:"rows"`
	Batches        int    `toml:"batches"`
	IntervalMs     int    `toml:"interval_ms"`
	WriteTimeoutMs int    `toml:"write_timeout_ms"`
	Stream         bool   `toml:"stream"`
}

func defaultWriterConfig() writerConfig {
	return writerConfig{
		Channel:       "swapdemo",
		CapacityBytes: 16 << 20,
		BufferCount:   3,
		Rows:          1000,
		Batches:       10,
		IntervalMs:    100,
	}
}

// loadWriterConfig overlays config.toml values on the defaults; only keys
// present in the file override anything.
func loadWriterConfig(path string) (writerConfig, error) {
	cfg := defaultWriterConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return writerConfig{}, fmt.Errorf("load swapwriter config: %w", err)
	}

	if meta.IsDefined("channel") {
		cfg.Channel = strings.TrimSpace(raw.Channel)
	}
	if meta.IsDefined("dir") {
		cfg.Dir = strings.TrimSpace(raw.Dir)
	}
	if meta.IsDefined("capacity_bytes") {
		cfg.CapacityBytes = uint64(raw.CapacityBytes)
	}
	if meta.IsDefined("buffer_count") {
		cfg.BufferCount = raw.BufferCount
	}
	if meta.IsDefined("rows") {
		cfg.Rows = raw.Rows
	}
	if meta.IsDefined("batches") {
		cfg.Batches = raw.Batches
	}
	if meta.IsDefined("interval_ms") {
		cfg.IntervalMs = raw.IntervalMs
	}
	if meta.IsDefined("write_timeout_ms") {
		cfg.WriteTimeoutMs = raw.WriteTimeoutMs
	}
	if meta.IsDefined("stream") {
		cfg.Stream = raw.Stream
	}

	if cfg.Channel == "" {
		return writerConfig{}, fmt.Errorf("swapwriter config: channel must not be empty")
	}
	if cfg.BufferCount < 1 {
		return writerConfig{}, fmt.Errorf("swapwriter config: buffer_count %d must be at least 1", cfg.BufferCount)
	}
	return cfg, nil
}
