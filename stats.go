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
	"sync/atomic"
	"time"
)

// Stats is a point-in-time snapshot of a handle's counters. All counters
// increase monotonically over the handle's lifetime and are never reset;
// reading them has no effect on the protocol.
type Stats struct {
	// Operations counts successful writes (writer handle) or successful
	// data reads (reader handle). End-of-stream markers are protocol
	// metadata and are not counted.
	Operations uint64

	// Bytes is the total serialized payload bytes transferred.
	Bytes uint64

	// WaitTime is the cumulative time spent blocked waiting for a slot,
	// including waits that ended in a timeout.
	WaitTime time.Duration

	// Timeouts counts waits that expired before a slot became available.
	Timeouts uint64
}

// handleStats is the live atomic counter set behind Stats snapshots.
type handleStats struct {
	ops       atomic.Uint64
	bytes     atomic.Uint64
	waitNanos atomic.Int64
	timeouts  atomic.Uint64
}

func (s *handleStats) addWait(d time.Duration) {
	if d > 0 {
		s.waitNanos.Add(int64(d))
	}
}

func (s *handleStats) snapshot() Stats {
	return Stats{
		Operations: s.ops.Load(),
		Bytes:      s.bytes.Load(),
		WaitTime:   time.Duration(s.waitNanos.Load()),
		Timeouts:   s.timeouts.Load(),
	}
}
