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

package arena

import (
	"fmt"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/unix"
)

// The futex words live in a MAP_SHARED mapping touched by two independent
// processes, so the shared (non-private) futex operations are required here.
// FUTEX_*_PRIVATE would silently fail to match waiters across processes.

// Futex operation codes from uapi/linux/futex.h; golang.org/x/sys/unix does
// not export them.
const (
	futexOpWait = 0 // FUTEX_WAIT
	futexOpWake = 1 // FUTEX_WAKE
)

// futexWait blocks until the value at addr is no longer val, another process
// calls futexWake on the same address, or the call is interrupted.
//
// Callers must re-check their logical condition after this returns: wakeups
// can be spurious, and EAGAIN/EINTR are deliberately not surfaced as errors.
func futexWait(addr *uint32, val uint32) error {
	// Re-check the value before entering the syscall. This closes the
	// lost-wake race where the counterpart signals between our snapshot
	// and futex entry; the kernel re-checks atomically as well.
	if atomic.LoadUint32(addr) != val {
		return nil
	}

	_, _, errno := unix.Syscall6(
		unix.SYS_FUTEX,
		uintptr(unsafe.Pointer(addr)),
		uintptr(futexOpWait),
		uintptr(val),
		0, // timeout: infinite
		0,
		0,
	)

	switch errno {
	case 0, unix.EAGAIN, unix.EINTR:
		return nil
	default:
		return fmt.Errorf("futex wait failed: %w", errno)
	}
}

// futexWaitTimeout is futexWait bounded by timeoutNs nanoseconds. It returns
// ErrTimeout when the kernel reports the wait expired. timeoutNs <= 0 means
// an unbounded wait.
func futexWaitTimeout(addr *uint32, val uint32, timeoutNs int64) error {
	if timeoutNs <= 0 {
		return futexWait(addr, val)
	}

	if atomic.LoadUint32(addr) != val {
		return nil
	}

	ts := unix.NsecToTimespec(timeoutNs)

	_, _, errno := unix.Syscall6(
		unix.SYS_FUTEX,
		uintptr(unsafe.Pointer(addr)),
		uintptr(futexOpWait),
		uintptr(val),
		uintptr(unsafe.Pointer(&ts)),
		0,
		0,
	)

	switch errno {
	case 0, unix.EAGAIN, unix.EINTR:
		return nil
	case unix.ETIMEDOUT:
		return ErrTimeout
	default:
		return fmt.Errorf("futex wait failed: %w", errno)
	}
}

// futexWake wakes up to n processes waiting on addr and returns the number
// actually woken.
func futexWake(addr *uint32, n int) (int, error) {
	r1, _, errno := unix.Syscall6(
		unix.SYS_FUTEX,
		uintptr(unsafe.Pointer(addr)),
		uintptr(futexOpWake),
		uintptr(n),
		0,
		0,
		0,
	)
	if errno != 0 {
		return 0, fmt.Errorf("futex wake failed: %w", errno)
	}
	return int(r1), nil
}
