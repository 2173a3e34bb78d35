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
	"testing"
	"time"

	"golang.org/x/sync/errgroup"
)

func TestSemaTryAcquire(t *testing.T) {
	var word uint32 = 2
	sem := NewSema(&word)

	if !sem.TryAcquire() {
		t.Fatal("TryAcquire failed with count 2")
	}
	if !sem.TryAcquire() {
		t.Fatal("TryAcquire failed with count 1")
	}
	if sem.TryAcquire() {
		t.Fatal("TryAcquire succeeded with count 0")
	}
	if sem.Value() != 0 {
		t.Fatalf("count is %d, expected 0", sem.Value())
	}
}

func TestSemaAcquireTimeout(t *testing.T) {
	var word uint32
	sem := NewSema(&word)

	const timeout = 50 * time.Millisecond
	start := time.Now()
	err := sem.Acquire(timeout)
	elapsed := time.Since(start)

	if err != ErrTimeout {
		t.Fatalf("expected ErrTimeout, got: %v", err)
	}
	if elapsed < timeout {
		t.Fatalf("acquire returned after %v, before the %v timeout", elapsed, timeout)
	}
	if elapsed > timeout+500*time.Millisecond {
		t.Fatalf("acquire took %v, far beyond the %v timeout", elapsed, timeout)
	}
}

func TestSemaReleaseWakesWaiter(t *testing.T) {
	var word uint32
	sem := NewSema(&word)

	done := make(chan error, 1)
	go func() {
		done <- sem.Acquire(2 * time.Second)
	}()

	time.AfterFunc(50*time.Millisecond, func() {
		if err := sem.Release(); err != nil {
			t.Errorf("release failed: %v", err)
		}
	})

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("acquire after release failed: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("waiter was never woken")
	}

	if sem.Value() != 0 {
		t.Fatalf("count is %d after acquire, expected 0", sem.Value())
	}
}

func TestSemaNoCountConsumedOnTimeout(t *testing.T) {
	var word uint32
	sem := NewSema(&word)

	if err := sem.Acquire(20 * time.Millisecond); err != ErrTimeout {
		t.Fatalf("expected ErrTimeout, got: %v", err)
	}

	// A later release must still be acquirable: the timed-out wait must
	// not have consumed anything.
	if err := sem.Release(); err != nil {
		t.Fatalf("release failed: %v", err)
	}
	if !sem.TryAcquire() {
		t.Fatal("count released after a timed-out wait was not acquirable")
	}
}

func TestSemaConcurrentHandoff(t *testing.T) {
	var word uint32
	sem := NewSema(&word)

	const rounds = 1000
	var g errgroup.Group

	g.Go(func() error {
		for i := 0; i < rounds; i++ {
			if err := sem.Release(); err != nil {
				return err
			}
		}
		return nil
	})
	g.Go(func() error {
		for i := 0; i < rounds; i++ {
			if err := sem.Acquire(5 * time.Second); err != nil {
				return err
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		t.Fatalf("concurrent handoff failed: %v", err)
	}
	if sem.Value() != 0 {
		t.Fatalf("count is %d after balanced handoff, expected 0", sem.Value())
	}
}
