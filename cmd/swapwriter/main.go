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

// swapwriter publishes synthetic columnar batches to a named qadataswap
// channel. Pair it with swapreader in a second terminal to watch batches
// cross the process boundary.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/yutiansut/qadataswap"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly})

	cfgPath := flag.String("config", "", "path to config.toml")
	channel := flag.String("channel", "", "channel name (overrides config)")
	flag.Parse()

	cfg := defaultWriterConfig()
	if *cfgPath != "" {
		var err error
		cfg, err = loadWriterConfig(*cfgPath)
		if err != nil {
			log.Fatal().Err(err).Msg("config load failed")
		}
	}
	if *channel != "" {
		cfg.Channel = *channel
	}

	if err := run(cfg); err != nil {
		log.Fatal().Err(err).Msg("swapwriter failed")
	}
}

func run(cfg writerConfig) error {
	var regOpts []qadataswap.RegistryOption
	regOpts = append(regOpts, qadataswap.WithLogger(log.Logger))
	if cfg.Dir != "" {
		regOpts = append(regOpts, qadataswap.WithDirectory(cfg.Dir))
	}
	registry := qadataswap.NewRegistry(regOpts...)

	var wOpts []qadataswap.WriterOption
	wOpts = append(wOpts, qadataswap.WithBufferCount(cfg.BufferCount))
	if cfg.WriteTimeoutMs > 0 {
		wOpts = append(wOpts, qadataswap.WithWriteTimeout(time.Duration(cfg.WriteTimeoutMs)*time.Millisecond))
	}

	if cfg.Stream {
		return runStream(registry, cfg, wOpts)
	}

	w, err := registry.CreateWriter(cfg.Channel, cfg.CapacityBytes, wOpts...)
	if err != nil {
		return err
	}
	defer w.Close()

	log.Info().Str("channel", cfg.Channel).Int("batches", cfg.Batches).Msg("publishing")

	for i := 0; i < cfg.Batches; i++ {
		batch, err := syntheticBatch(i, cfg.Rows)
		if err != nil {
			return err
		}
		if err := w.Write(batch); err != nil {
			return fmt.Errorf("write batch %d: %w", i, err)
		}
		log.Info().Int("batch", i).Int("rows", cfg.Rows).Msg("published")
		time.Sleep(time.Duration(cfg.IntervalMs) * time.Millisecond)
	}

	logStats("writer", w.Stats())
	return nil
}

func runStream(registry *qadataswap.Registry, cfg writerConfig, wOpts []qadataswap.WriterOption) error {
	sw, err := registry.CreateStreamWriter(cfg.Channel, cfg.CapacityBytes, wOpts...)
	if err != nil {
		return err
	}
	defer sw.Close()

	log.Info().Str("channel", cfg.Channel).Int("chunks", cfg.Batches).Msg("streaming")

	for i := 0; i < cfg.Batches; i++ {
		batch, err := syntheticBatch(i, cfg.Rows)
		if err != nil {
			return err
		}
		if err := sw.WriteChunk(batch); err != nil {
			return fmt.Errorf("write chunk %d: %w", i, err)
		}
		time.Sleep(time.Duration(cfg.IntervalMs) * time.Millisecond)
	}
	if err := sw.Finish(); err != nil {
		return fmt.Errorf("finish stream: %w", err)
	}

	logStats("stream writer", sw.Stats())
	return nil
}

// syntheticBatch builds one demo batch: monotone IDs, a price walk, a symbol
// column and a publish timestamp.
func syntheticBatch(seq, rows int) (*qadataswap.Batch, error) {
	ids := make([]int64, rows)
	prices := make([]float64, rows)
	symbols := make([]string, rows)
	stamps := make([]time.Time, rows)

	now := time.Now()
	for i := 0; i < rows; i++ {
		ids[i] = int64(seq*rows + i)
		prices[i] = 100 + float64(i%50)*0.25
		symbols[i] = fmt.Sprintf("SYM%03d", i%7)
		stamps[i] = now
	}

	return qadataswap.NewBatch(
		qadataswap.Int64Column("id", ids),
		qadataswap.Float64Column("price", prices),
		qadataswap.StringColumn("symbol", symbols),
		qadataswap.TimestampColumn("ts", stamps),
	)
}

func logStats(role string, s qadataswap.Stats) {
	log.Info().
		Str("role", role).
		Uint64("operations", s.Operations).
		Uint64("bytes", s.Bytes).
		Dur("wait_time", s.WaitTime).
		Uint64("timeouts", s.Timeouts).
		Msg("final stats")
}
