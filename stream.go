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
	"iter"
	"sync/atomic"
	"time"

	"github.com/yutiansut/qadataswap/internal/arena"
)

// StreamWriter sends a finite sequence of batches over a channel as ordered
// chunks terminated by an explicit end-of-stream marker.
type StreamWriter struct {
	w        *Writer
	finished atomic.Bool
}

// Name returns the channel name.
func (sw *StreamWriter) Name() string { return sw.w.Name() }

// WriteChunk publishes one chunk. Chunks occupy consecutive slots in
// rotation, so the reader observes them in write order.
func (sw *StreamWriter) WriteChunk(b *Batch) error {
	if sw.finished.Load() {
		return ErrAlreadyClosed
	}
	return sw.w.Write(b)
}

// Finish publishes the end-of-stream marker. No chunk may follow it;
// further WriteChunk calls fail with ErrAlreadyClosed. Finish blocks like a
// write if no slot is free.
func (sw *StreamWriter) Finish() error {
	if !sw.finished.CompareAndSwap(false, true) {
		return ErrAlreadyClosed
	}
	return sw.w.writeMarker()
}

// Stats returns the underlying writer's counters.
func (sw *StreamWriter) Stats() Stats { return sw.w.Stats() }

// Close closes the underlying writer. It does not publish a marker; call
// Finish first for an orderly end of stream.
func (sw *StreamWriter) Close() error { return sw.w.Close() }

// StreamReader consumes a chunked stream: a lazy, finite, single-pass
// sequence of batches ending at the end-of-stream marker. Once consumed it
// cannot be replayed.
type StreamReader struct {
	r       *Reader
	nextSeq uint64
	haveSeq bool
	done    atomic.Bool
}

// Name returns the channel name.
func (sr *StreamReader) Name() string { return sr.r.Name() }

// Next pulls the next chunk, waiting up to timeout (zero blocks
// indefinitely). A nil batch with nil error means no chunk arrived in time.
// After the end-of-stream marker is consumed, Next returns ErrEndOfStream
// forever. A chunk whose publish sequence does not continue the previous
// one fails with ErrSequenceGap.
func (sr *StreamReader) Next(timeout time.Duration) (*Batch, error) {
	if sr.done.Load() {
		return nil, ErrEndOfStream
	}

	var out *Batch
	ok, err := sr.r.readSlot(timeout, func(slot *arena.SlotHeader, view *BatchView) error {
		seq := slot.Sequence()
		if sr.haveSeq && seq != sr.nextSeq {
			return fmt.Errorf("%w: chunk sequence %d, expected %d", ErrSequenceGap, seq, sr.nextSeq)
		}
		sr.haveSeq = true
		sr.nextSeq = seq + 1

		if view == nil {
			sr.done.Store(true)
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

// Chunks iterates the remaining stream, blocking on each pull until a chunk
// arrives and stopping cleanly at the end-of-stream marker. Any other
// failure is yielded once with a nil batch, then iteration stops. The
// sequence is single-pass: chunks consumed here are gone.
func (sr *StreamReader) Chunks() iter.Seq2[*Batch, error] {
	return func(yield func(*Batch, error) bool) {
		for {
			b, err := sr.Next(0)
			if errors.Is(err, ErrEndOfStream) {
				return
			}
			if err != nil {
				yield(nil, err)
				return
			}
			if b == nil {
				// Unbounded pull; only a destroyed channel gets here.
				return
			}
			if !yield(b, nil) {
				return
			}
		}
	}
}

// Stats returns the underlying reader's counters.
func (sr *StreamReader) Stats() Stats { return sr.r.Stats() }

// Close releases the underlying reader's mapping.
func (sr *StreamReader) Close() error { return sr.r.Close() }
