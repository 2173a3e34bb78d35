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

package qadataswap

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/yutiansut/qadataswap/internal/arena"
)

// Writer is the producer handle of a channel. It is process-local and not
// safe for concurrent use by multiple goroutines; the protocol itself is
// strictly one writer process per channel.
type Writer struct {
	a            *arena.Arena
	name         string
	owner        bool
	writeTimeout time.Duration
	log          zerolog.Logger

	stats  handleStats
	closed atomic.Bool
}

// Name returns the channel name.
func (w *Writer) Name() string { return w.name }

// SlotCapacity returns the maximum serialized batch size one slot holds.
func (w *Writer) SlotCapacity() uint64 { return w.a.SlotSize() }

// Write serializes the batch into the next free slot and publishes it.
//
// When every slot holds an unread batch the call blocks — backpressure, not
// loss. With a configured write timeout an expired wait returns
// ErrWriteTimeout and leaves the channel untouched. A batch whose
// serialized form exceeds one slot fails with ErrCapacityExceeded before
// any bytes are staged.
func (w *Writer) Write(b *Batch) error {
	if w.closed.Load() {
		return ErrAlreadyClosed
	}

	size := encodedBatchSize(b)
	if uint64(size) > w.a.SlotSize() {
		return fmt.Errorf("%w: batch serializes to %d bytes, slot holds %d",
			ErrCapacityExceeded, size, w.a.SlotSize())
	}

	start := time.Now()
	idx, data, err := w.a.AcquireWriteSlot(w.writeTimeout)
	w.stats.addWait(time.Since(start))
	if errors.Is(err, arena.ErrTimeout) {
		w.stats.timeouts.Add(1)
		return ErrWriteTimeout
	}
	if err != nil {
		return fmt.Errorf("acquire write slot: %w", err)
	}

	n := encodeBatch(data, b)
	if err := w.a.Publish(idx, uint64(n), uint64(b.NumRows()), uint32(b.NumCols()), 0); err != nil {
		w.a.AbortWrite(idx)
		return fmt.Errorf("publish slot: %w", err)
	}

	w.stats.ops.Add(1)
	w.stats.bytes.Add(uint64(n))
	return nil
}

// writeMarker publishes the distinguished end-of-stream slot: empty payload,
// end-of-stream flag set. It occupies the next slot in rotation like any
// batch, so the reader observes it in order.
func (w *Writer) writeMarker() error {
	if w.closed.Load() {
		return ErrAlreadyClosed
	}

	start := time.Now()
	idx, _, err := w.a.AcquireWriteSlot(w.writeTimeout)
	w.stats.addWait(time.Since(start))
	if errors.Is(err, arena.ErrTimeout) {
		w.stats.timeouts.Add(1)
		return ErrWriteTimeout
	}
	if err != nil {
		return fmt.Errorf("acquire write slot: %w", err)
	}

	if err := w.a.Publish(idx, 0, 0, 0, arena.SlotFlagEndOfStream); err != nil {
		w.a.AbortWrite(idx)
		return fmt.Errorf("publish end-of-stream: %w", err)
	}
	return nil
}

// Stats returns a snapshot of the writer's counters.
func (w *Writer) Stats() Stats {
	return w.stats.snapshot()
}

// Close releases the process-local mapping. The owning writer (the default)
// also destroys the OS-level region; a reader still mapped afterwards
// observes undefined bytes, which is the documented teardown hazard.
// Close does not interrupt an in-progress Write in another goroutine.
func (w *Writer) Close() error {
	if !w.closed.CompareAndSwap(false, true) {
		return ErrAlreadyClosed
	}

	var err error
	if w.owner {
		err = w.a.Destroy()
		w.log.Debug().Str("channel", w.name).Msg("channel destroyed")
	} else {
		err = w.a.Close()
		w.log.Debug().Str("channel", w.name).Msg("writer detached")
	}
	return err
}
