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

package arena

import (
	"sync/atomic"
	"time"
)

// Sema is a cross-process counting semaphore over a single uint32 futex word
// in shared memory. The word's value IS the count: Acquire decrements a
// positive count or sleeps on zero, Release increments and wakes one waiter.
//
// An arena carries two of these: freeCount (initialized to the slot count)
// gates the writer, readyCount (initialized to zero) gates the reader. They
// are the only arbitration mechanism in the protocol.
type Sema struct {
	addr *uint32
}

// NewSema wraps a futex word. The word must live inside a MAP_SHARED region
// for cross-process operation; initialization of the count is the arena
// creator's job.
func NewSema(addr *uint32) Sema {
	return Sema{addr: addr}
}

// Value returns the current count. Only a snapshot; it can change
// immediately after the load.
func (s Sema) Value() uint32 {
	return atomic.LoadUint32(s.addr)
}

// TryAcquire attempts to decrement a positive count without blocking.
func (s Sema) TryAcquire() bool {
	for {
		c := atomic.LoadUint32(s.addr)
		if c == 0 {
			return false
		}
		if atomic.CompareAndSwapUint32(s.addr, c, c-1) {
			return true
		}
	}
}

// Acquire decrements the count, blocking while it is zero. A timeout of zero
// (or negative) blocks indefinitely; otherwise ErrTimeout is returned once
// the deadline passes without a successful decrement. No count is consumed
// on timeout.
func (s Sema) Acquire(timeout time.Duration) error {
	if s.TryAcquire() {
		return nil
	}

	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}

	for {
		if timeout > 0 {
			remaining := time.Until(deadline)
			if remaining <= 0 {
				return ErrTimeout
			}
			err := futexWaitTimeout(s.addr, 0, remaining.Nanoseconds())
			if err != nil && err != ErrTimeout {
				return err
			}
			// A release may have raced the expiry; only report timeout
			// after one more decrement attempt.
			if s.TryAcquire() {
				return nil
			}
			if err == ErrTimeout {
				return ErrTimeout
			}
		} else {
			if err := futexWait(s.addr, 0); err != nil {
				return err
			}
			if s.TryAcquire() {
				return nil
			}
			// Spurious wake or another waiter won the count; wait again.
		}
	}
}

// Release increments the count and wakes one waiter.
func (s Sema) Release() error {
	atomic.AddUint32(s.addr, 1)
	_, err := futexWake(s.addr, 1)
	return err
}
