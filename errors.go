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

import "errors"

var (
	// ErrCreationFailed indicates a channel could not be created: the name
	// already denotes a region, or the OS denied the allocation.
	ErrCreationFailed = errors.New("qadataswap: channel creation failed")

	// ErrAttachFailed indicates no compatible channel of the given name
	// exists to attach to.
	ErrAttachFailed = errors.New("qadataswap: channel attach failed")

	// ErrCapacityExceeded indicates a batch's serialized form does not fit
	// one slot. The write fails before any bytes are staged; nothing
	// partial is ever published.
	ErrCapacityExceeded = errors.New("qadataswap: batch exceeds slot capacity")

	// ErrSchemaMismatch indicates published bytes cannot be reinterpreted
	// under their embedded schema descriptor (version skew or corruption).
	ErrSchemaMismatch = errors.New("qadataswap: payload does not match schema descriptor")

	// ErrAlreadyClosed indicates an operation on a closed handle.
	ErrAlreadyClosed = errors.New("qadataswap: handle already closed")

	// ErrWriteTimeout indicates a write with a configured timeout expired
	// while every slot still held an unread batch. Distinct from a hard
	// failure: the channel state is untouched and the write may be retried.
	ErrWriteTimeout = errors.New("qadataswap: write timed out waiting for a free slot")

	// ErrEndOfStream indicates the distinguished end-of-stream marker was
	// consumed; no further batches will arrive on this channel.
	ErrEndOfStream = errors.New("qadataswap: end of stream")

	// ErrSequenceGap indicates a streaming reader observed a publish
	// sequence that does not continue the previous chunk's.
	ErrSequenceGap = errors.New("qadataswap: stream sequence gap")
)
