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

// Package qadataswap moves columnar record batches between independent
// processes through named shared memory channels, without copying payload
// bytes through the kernel or a serialization round trip.
//
// A channel is a fixed-capacity shared memory arena partitioned into a small
// number of equally sized slots. The producer writes a batch directly into a
// slot in its final, self-describing binary layout and publishes it; the
// consumer maps the same region and reinterprets the bytes in place as typed
// columns. Two futex-backed counting semaphores hand slots between the one
// writer and the one reader per channel, giving bounded-capacity
// backpressure and timeout-bounded blocking reads.
//
// Basic usage:
//
//	w, err := qadataswap.CreateWriter("ticks", 16<<20)
//	...
//	batch, _ := qadataswap.NewBatch(
//		qadataswap.Int64Column("id", ids),
//		qadataswap.Float64Column("price", prices),
//	)
//	err = w.Write(batch)
//
// and on the consumer side, in another process:
//
//	r, err := qadataswap.CreateReader("ticks")
//	...
//	batch, err := r.Read(100 * time.Millisecond)
//	if batch == nil && err == nil {
//		// no data within the timeout; not an error
//	}
//
// Channels are strictly single-producer, single-consumer and purely
// transient: nothing survives the destruction of the backing region by the
// owning writer's Close.
package qadataswap
