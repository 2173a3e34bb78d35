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

// swapreader consumes columnar batches from a named qadataswap channel
// published by swapwriter (or any other producer process).
package main

import (
	"errors"
	"flag"
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

	cfg := defaultReaderConfig()
	if *cfgPath != "" {
		var err error
		cfg, err = loadReaderConfig(*cfgPath)
		if err != nil {
			log.Fatal().Err(err).Msg("config load failed")
		}
	}
	if *channel != "" {
		cfg.Channel = *channel
	}

	if err := run(cfg); err != nil {
		log.Fatal().Err(err).Msg("swapreader failed")
	}
}

func run(cfg readerConfig) error {
	var regOpts []qadataswap.RegistryOption
	regOpts = append(regOpts, qadataswap.WithLogger(log.Logger))
	if cfg.Dir != "" {
		regOpts = append(regOpts, qadataswap.WithDirectory(cfg.Dir))
	}
	registry := qadataswap.NewRegistry(regOpts...)

	if cfg.Stream {
		return runStream(registry, cfg)
	}

	r, err := registry.CreateReader(cfg.Channel)
	if err != nil {
		return err
	}
	defer r.Close()

	timeout := time.Duration(cfg.TimeoutMs) * time.Millisecond
	consumed, idle := 0, 0

	for {
		batch, err := r.Read(timeout)
		if errors.Is(err, qadataswap.ErrEndOfStream) {
			log.Info().Msg("end of stream")
			break
		}
		if err != nil {
			return err
		}
		if batch == nil {
			idle++
			log.Debug().Int("idle", idle).Msg("no data")
			if cfg.MaxIdle > 0 && idle >= cfg.MaxIdle {
				log.Info().Msg("idle limit reached")
				break
			}
			continue
		}

		idle = 0
		consumed++
		logBatch(consumed, batch)
		if cfg.MaxBatches > 0 && consumed >= cfg.MaxBatches {
			break
		}
	}

	logStats("reader", r.Stats())
	return nil
}

func runStream(registry *qadataswap.Registry, cfg readerConfig) error {
	sr, err := registry.CreateStreamReader(cfg.Channel)
	if err != nil {
		return err
	}
	defer sr.Close()

	consumed := 0
	for batch, err := range sr.Chunks() {
		if err != nil {
			return err
		}
		consumed++
		logBatch(consumed, batch)
		if cfg.MaxBatches > 0 && consumed >= cfg.MaxBatches {
			break
		}
	}
	log.Info().Int("chunks", consumed).Msg("stream drained")

	logStats("stream reader", sr.Stats())
	return nil
}

func logBatch(n int, b *qadataswap.Batch) {
	ev := log.Info().
		Int("batch", n).
		Int("rows", b.NumRows()).
		Int("cols", b.NumCols())
	if col, ok := b.ColumnByName("id"); ok {
		if ids, ok := col.Int64s(); ok && len(ids) > 0 {
			ev = ev.Int64("first_id", ids[0]).Int64("last_id", ids[len(ids)-1])
		}
	}
	ev.Msg("consumed")
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
