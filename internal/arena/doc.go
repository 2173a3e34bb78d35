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

// Package arena implements the shared memory arena underneath a qadataswap
// channel: a memory-mapped file partitioned into a fixed number of equally
// sized slots, plus the cross-process synchronization protocol that hands
// slots between exactly one writer process and one reader process.
//
// The arena header and the per-slot headers live at fixed offsets inside the
// mapping and are accessed only through atomic operations, so two
// independently compiled processes can coordinate through the raw bytes.
// Producer/consumer handoff uses two futex-backed counting semaphores: one
// counts slots free for writing (initialized to the slot count) and one
// counts slots ready for reading (initialized to zero). Slots rotate through
// the cyclic state machine Free -> Writing -> Ready -> Reading -> Free, and
// both sides select slots by round-robin over monotonic publish/consume
// sequence numbers, which keeps the single reader in lock-step with the
// single writer.
package arena
