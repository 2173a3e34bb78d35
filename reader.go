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

// Reader is the consumer handle of a channel. Process-local, single
// goroutine; the protocol is strictly one reader process per channel.
type Reader struct {
	a    *arena.Arena
	name string
	log  zerolog.Logger

	stats  handleStats
	closed atomic.Bool
}

// Name returns the channel name.
func (r *Reader) Name() string { return r.name }

// readSlot claims the oldest ready slot, decodes it, invokes fn and returns
// the slot to the free pool when fn returns. fn receives a nil view for the
// end-of-stream marker. The boolean result is false when the wait timed out
// ("no data") — never an error.
func (r *Reader) readSlot(timeout time.Duration, fn func(slot *arena.SlotHeader, view *BatchView) error) (bool, error) {
	if r.closed.Load() {
		return false, ErrAlreadyClosed
	}

	start := time.Now()
	idx, err := r.a.AcquireReadSlot(timeout)
	r.stats.addWait(time.Since(start))
	if errors.Is(err, arena.ErrTimeout) {
		r.stats.timeouts.Add(1)
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("acquire read slot: %w", err)
	}
	defer r.a.ReleaseReadSlot(idx)

	slot := r.a.Slot(idx)
	if slot.Flags()&arena.SlotFlagEndOfStream != 0 {
		return true, fn(slot, nil)
	}

	data := r.a.SlotData(idx)[:slot.DataSize()]
	view, err := decodeView(data)
	if err != nil {
		return true, err
	}
	if uint64(view.NumRows()) != slot.Rows() || uint32(view.NumCols()) != slot.Cols() {
		return true, fmt.Errorf("%w: slot metadata says %dx%d, payload says %dx%d",
			ErrSchemaMismatch, slot.Rows(), slot.Cols(), view.NumRows(), view.NumCols())
	}

	r.stats.ops.Add(1)
	r.stats.bytes.Add(slot.DataSize())
	return true, fn(slot, view)
}

// ReadView waits up to timeout for a published batch and hands fn a
// borrowed zero-copy view of it. The slot is released when fn returns, so
// nothing obtained from the view may escape fn. The first result is false
// when no batch arrived within the timeout; a timeout is never an error.
// Timeout zero blocks indefinitely. Consuming the end-of-stream marker
// returns ErrEndOfStream.
func (r *Reader) ReadView(timeout time.Duration, fn func(*BatchView) error) (bool, error) {
	return r.readSlot(timeout, func(slot *arena.SlotHeader, view *BatchView) error {
		if view == nil {
			return ErrEndOfStream
		}
		return fn(view)
	})
}

// Read waits up to timeout for a published batch and returns an owned deep
// copy of it. A nil batch with a nil error means no data arrived within the
// timeout — distinct from an empty batch of zero rows, and never an error.
// Timeout zero blocks indefinitely.
func (r *Reader) Read(timeout time.Duration) (*Batch, error) {
	var out *Batch
	ok, err := r.readSlot(timeout, func(slot *arena.SlotHeader, view *BatchView) error {
		if view == nil {
			return ErrEndOfStream
		}
		b, err := view.Materialize()
		out = b
		return err
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return out, nil
}

// Stats returns a snapshot of the reader's counters.
func (r *Reader) Stats() Stats {
	return r.stats.snapshot()
}

// Close releases the process-local mapping. Readers never destroy the
// region; the owning writer does. Close does not interrupt an in-progress
// Read in another goroutine.
func (r *Reader) Close() error {
	if !r.closed.CompareAndSwap(false, true) {
		return ErrAlreadyClosed
	}
	err := r.a.Close()
	r.log.Debug().Str("channel", r.name).Msg("reader detached")
	return err
}
