//go:build linux

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
	"testing"
	"time"

	"golang.org/x/sync/errgroup"
)

func TestStreamRoundTrip(t *testing.T) {
	reg := testRegistry(t)

	sw, err := reg.CreateStreamWriter("stream", 1<<20, WithBufferCount(4))
	if err != nil {
		t.Fatalf("CreateStreamWriter failed: %v", err)
	}
	defer sw.Close()

	sr, err := reg.CreateStreamReader("stream")
	if err != nil {
		t.Fatalf("CreateStreamReader failed: %v", err)
	}
	defer sr.Close()

	const chunks = 10
	var g errgroup.Group
	g.Go(func() error {
		for i := 0; i < chunks; i++ {
			b, err := NewBatch(Int64Column("seq", []int64{int64(i)}))
			if err != nil {
				return err
			}
			if err := sw.WriteChunk(b); err != nil {
				return fmt.Errorf("chunk %d: %w", i, err)
			}
		}
		return sw.Finish()
	})

	for i := 0; i < chunks; i++ {
		got, err := sr.Next(5 * time.Second)
		if err != nil {
			t.Fatalf("Next %d failed: %v", i, err)
		}
		if got == nil {
			t.Fatalf("Next %d returned no data", i)
		}
		seqs, _ := got.Column(0).Int64s()
		if seqs[0] != int64(i) {
			t.Fatalf("chunk %d carries sequence %d: order violated", i, seqs[0])
		}
	}

	// The marker terminates the stream, and the end state is sticky.
	if _, err := sr.Next(5 * time.Second); !errors.Is(err, ErrEndOfStream) {
		t.Fatalf("expected ErrEndOfStream after the marker, got: %v", err)
	}
	if _, err := sr.Next(time.Millisecond); !errors.Is(err, ErrEndOfStream) {
		t.Fatalf("expected ErrEndOfStream to persist, got: %v", err)
	}

	if err := g.Wait(); err != nil {
		t.Fatalf("stream writer failed: %v", err)
	}
}

func TestStreamWriteAfterFinish(t *testing.T) {
	reg := testRegistry(t)

	sw, err := reg.CreateStreamWriter("finished", 1<<20)
	if err != nil {
		t.Fatalf("CreateStreamWriter failed: %v", err)
	}
	defer sw.Close()

	b, err := NewBatch(Int64Column("seq", []int64{1}))
	if err != nil {
		t.Fatalf("NewBatch failed: %v", err)
	}
	if err := sw.WriteChunk(b); err != nil {
		t.Fatalf("WriteChunk failed: %v", err)
	}
	if err := sw.Finish(); err != nil {
		t.Fatalf("Finish failed: %v", err)
	}

	if err := sw.WriteChunk(b); !errors.Is(err, ErrAlreadyClosed) {
		t.Fatalf("WriteChunk after Finish: expected ErrAlreadyClosed, got: %v", err)
	}
	if err := sw.Finish(); !errors.Is(err, ErrAlreadyClosed) {
		t.Fatalf("second Finish: expected ErrAlreadyClosed, got: %v", err)
	}
}

func TestStreamChunksIterator(t *testing.T) {
	reg := testRegistry(t)

	sw, err := reg.CreateStreamWriter("iter", 1<<20, WithBufferCount(4))
	if err != nil {
		t.Fatalf("CreateStreamWriter failed: %v", err)
	}
	defer sw.Close()

	sr, err := reg.CreateStreamReader("iter")
	if err != nil {
		t.Fatalf("CreateStreamReader failed: %v", err)
	}
	defer sr.Close()

	const chunks = 7
	var g errgroup.Group
	g.Go(func() error {
		for i := 0; i < chunks; i++ {
			b, err := NewBatch(Int64Column("seq", []int64{int64(i)}))
			if err != nil {
				return err
			}
			if err := sw.WriteChunk(b); err != nil {
				return err
			}
		}
		return sw.Finish()
	})

	var want int64
	for b, err := range sr.Chunks() {
		if err != nil {
			t.Fatalf("iteration failed at chunk %d: %v", want, err)
		}
		seqs, _ := b.Column(0).Int64s()
		if seqs[0] != want {
			t.Fatalf("chunk carries sequence %d, expected %d", seqs[0], want)
		}
		want++
	}
	if want != chunks {
		t.Fatalf("iterator yielded %d chunks, expected %d", want, chunks)
	}

	if err := g.Wait(); err != nil {
		t.Fatalf("stream writer failed: %v", err)
	}

	// A drained stream iterates as empty.
	for range sr.Chunks() {
		t.Fatal("drained stream yielded a chunk")
	}
}

func TestStreamChunksEarlyBreak(t *testing.T) {
	reg := testRegistry(t)

	sw, err := reg.CreateStreamWriter("break", 1<<20, WithBufferCount(8))
	if err != nil {
		t.Fatalf("CreateStreamWriter failed: %v", err)
	}
	defer sw.Close()

	sr, err := reg.CreateStreamReader("break")
	if err != nil {
		t.Fatalf("CreateStreamReader failed: %v", err)
	}
	defer sr.Close()

	for i := 0; i < 5; i++ {
		b, err := NewBatch(Int64Column("seq", []int64{int64(i)}))
		if err != nil {
			t.Fatalf("NewBatch failed: %v", err)
		}
		if err := sw.WriteChunk(b); err != nil {
			t.Fatalf("WriteChunk %d failed: %v", i, err)
		}
	}
	if err := sw.Finish(); err != nil {
		t.Fatalf("Finish failed: %v", err)
	}

	seen := 0
	for _, err := range sr.Chunks() {
		if err != nil {
			t.Fatalf("iteration failed: %v", err)
		}
		seen++
		if seen == 2 {
			break
		}
	}

	// Consumption resumes where the break left off.
	got, err := sr.Next(time.Second)
	if err != nil {
		t.Fatalf("Next after break failed: %v", err)
	}
	seqs, _ := got.Column(0).Int64s()
	if seqs[0] != 2 {
		t.Fatalf("Next after break returned sequence %d, expected 2", seqs[0])
	}
}

func TestStreamSequenceGap(t *testing.T) {
	reg := testRegistry(t)

	sw, err := reg.CreateStreamWriter("gap", 1<<20, WithBufferCount(8))
	if err != nil {
		t.Fatalf("CreateStreamWriter failed: %v", err)
	}
	defer sw.Close()

	sr, err := reg.CreateStreamReader("gap")
	if err != nil {
		t.Fatalf("CreateStreamReader failed: %v", err)
	}
	defer sr.Close()

	for i := 0; i < 3; i++ {
		b, err := NewBatch(Int64Column("seq", []int64{int64(i)}))
		if err != nil {
			t.Fatalf("NewBatch failed: %v", err)
		}
		if err := sw.WriteChunk(b); err != nil {
			t.Fatalf("WriteChunk %d failed: %v", i, err)
		}
	}

	// First chunk establishes the expected sequence.
	if _, err := sr.Next(time.Second); err != nil {
		t.Fatalf("Next failed: %v", err)
	}

	// A second reader siphons off the next chunk behind the stream reader's
	// back, breaking continuity.
	thief, err := reg.CreateReader("gap")
	if err != nil {
		t.Fatalf("CreateReader failed: %v", err)
	}
	defer thief.Close()
	if _, err := thief.Read(time.Second); err != nil {
		t.Fatalf("interleaved Read failed: %v", err)
	}

	if _, err := sr.Next(time.Second); !errors.Is(err, ErrSequenceGap) {
		t.Fatalf("expected ErrSequenceGap, got: %v", err)
	}
}

func TestStreamStats(t *testing.T) {
	reg := testRegistry(t)

	sw, err := reg.CreateStreamWriter("streamstats", 1<<20, WithBufferCount(4))
	if err != nil {
		t.Fatalf("CreateStreamWriter failed: %v", err)
	}
	defer sw.Close()

	sr, err := reg.CreateStreamReader("streamstats")
	if err != nil {
		t.Fatalf("CreateStreamReader failed: %v", err)
	}
	defer sr.Close()

	for i := 0; i < 3; i++ {
		b, err := NewBatch(Int64Column("seq", []int64{int64(i)}))
		if err != nil {
			t.Fatalf("NewBatch failed: %v", err)
		}
		if err := sw.WriteChunk(b); err != nil {
			t.Fatalf("WriteChunk %d failed: %v", i, err)
		}
	}
	if err := sw.Finish(); err != nil {
		t.Fatalf("Finish failed: %v", err)
	}

	for {
		if _, err := sr.Next(time.Second); err != nil {
			if !errors.Is(err, ErrEndOfStream) {
				t.Fatalf("Next failed: %v", err)
			}
			break
		}
	}

	// The marker is control flow, not data: it counts in neither direction.
	if ws := sw.Stats(); ws.Operations != 3 {
		t.Fatalf("stream writer counted %d operations, expected 3", ws.Operations)
	}
	if rs := sr.Stats(); rs.Operations != 3 {
		t.Fatalf("stream reader counted %d operations, expected 3", rs.Operations)
	}
}
