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
	"os"
	"sync/atomic"
	"time"
	"unsafe"
)

// Arena is a process-local handle on a mapped shared memory arena. The
// mapping itself is shared; the Arena struct never is. At most one writer
// process and one reader process may hold handles on the same arena.
type Arena struct {
	file  *os.File
	mem   []byte
	path  string
	owner bool

	free  Sema // slots free to write, counts down to zero under backpressure
	ready Sema // slots ready to read

	closed atomic.Bool
}

// Create allocates and initializes a new arena backed by the file at path.
// It fails if a file of that name already exists. capacityBytes is
// partitioned per CalculateLayout; every slot starts Free with generation 0,
// the free semaphore starts at slotCount and the ready semaphore at zero.
// The creating process is the arena owner: its Destroy unlinks the region.
func Create(path string, capacityBytes, slotCount uint64, instanceID [16]byte) (*Arena, error) {
	layout, err := CalculateLayout(capacityBytes, slotCount)
	if err != nil {
		return nil, fmt.Errorf("layout calculation failed: %w", err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to create arena file %s: %w", path, err)
	}

	cleanup := func() {
		file.Close()
		os.Remove(path)
	}

	if err := file.Truncate(int64(layout.TotalSize)); err != nil {
		cleanup()
		return nil, fmt.Errorf("failed to resize arena file: %w", err)
	}

	mem, err := mmapFile(file, int(layout.TotalSize))
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("failed to mmap arena: %w", err)
	}

	a := &Arena{
		file:  file,
		mem:   mem,
		path:  path,
		owner: true,
	}

	h := a.header()
	h.SetMagic(arenaMagicBytes())
	h.SetVersion(ArenaVersion)
	h.SetTotalSize(layout.TotalSize)
	h.SetSlotCount(layout.SlotCount)
	h.SetSlotSize(layout.SlotSize)
	h.SetSlotsOffset(layout.SlotsOffset)
	h.SetDataOffset(layout.DataOffset)
	h.SetOwnerPID(uint32(os.Getpid()))
	h.SetInstanceID(instanceID)

	for i := uint64(0); i < layout.SlotCount; i++ {
		a.Slot(i).SetState(SlotFree)
	}

	// The two counting signals: all slots free, none ready.
	atomic.StoreUint32(&h.freeCount, uint32(layout.SlotCount))
	atomic.StoreUint32(&h.readyCount, 0)

	a.free = NewSema(&h.freeCount)
	a.ready = NewSema(&h.readyCount)
	h.AddWriter(1)

	return a, nil
}

// Attach maps an existing arena read-write without reinitializing any of its
// state. It fails if no arena file exists at path or the header does not
// validate.
func Attach(path string) (*Arena, error) {
	file, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to open arena file %s: %w", path, err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to stat arena file: %w", err)
	}
	if info.Size() < ArenaHeaderSize {
		file.Close()
		return nil, fmt.Errorf("arena file too small: %d bytes", info.Size())
	}

	mem, err := mmapFile(file, int(info.Size()))
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to mmap arena: %w", err)
	}

	a := &Arena{
		file: file,
		mem:  mem,
		path: path,
	}

	if err := ValidateHeader(a.header()); err != nil {
		munmapMemory(mem)
		file.Close()
		return nil, fmt.Errorf("invalid arena header: %w", err)
	}
	if uint64(info.Size()) != a.header().TotalSize() {
		munmapMemory(mem)
		file.Close()
		return nil, fmt.Errorf("arena file size %d does not match header total %d",
			info.Size(), a.header().TotalSize())
	}

	h := a.header()
	a.free = NewSema(&h.freeCount)
	a.ready = NewSema(&h.readyCount)
	h.AddReader(1)

	return a, nil
}

// header returns the arena header at offset 0 of the mapping.
func (a *Arena) header() *ArenaHeader {
	return (*ArenaHeader)(unsafe.Pointer(&a.mem[0]))
}

// Header exposes the arena header for inspection.
func (a *Arena) Header() *ArenaHeader {
	return a.header()
}

// Path returns the backing file path.
func (a *Arena) Path() string {
	return a.path
}

// SlotCount returns the number of slots.
func (a *Arena) SlotCount() uint64 {
	return a.header().SlotCount()
}

// SlotSize returns the payload capacity of each slot.
func (a *Arena) SlotSize() uint64 {
	return a.header().SlotSize()
}

// Slot returns the header of slot i.
func (a *Arena) Slot(i uint64) *SlotHeader {
	h := a.header()
	off := h.SlotsOffset() + i*SlotHeaderSize
	return (*SlotHeader)(unsafe.Pointer(&a.mem[off]))
}

// SlotData returns slot i's full payload region.
func (a *Arena) SlotData(i uint64) []byte {
	h := a.header()
	off := h.DataOffset() + i*h.SlotSize()
	return a.mem[off : off+h.SlotSize() : off+h.SlotSize()]
}

// AcquireWriteSlot claims the next slot in the writer's rotation, blocking
// on the free semaphore while every slot holds an unread batch. That wait is
// the channel's backpressure: unread data is never overwritten. A positive
// timeout bounds the wait; expiry returns ErrTimeout with no slot consumed.
//
// On success the slot is in Writing state with its generation bumped, and
// the returned byte slice is its payload region, exclusively owned by the
// caller until Publish.
func (a *Arena) AcquireWriteSlot(timeout time.Duration) (uint64, []byte, error) {
	if a.closed.Load() {
		return 0, nil, fmt.Errorf("arena is closed")
	}

	if err := a.free.Acquire(timeout); err != nil {
		return 0, nil, err
	}

	h := a.header()
	idx := h.WriteSeq() % h.SlotCount()
	slot := a.Slot(idx)

	if !slot.CasState(SlotFree, SlotWriting) {
		// The free count said this slot was available; a failed CAS means
		// the region is corrupt or a second writer is attached.
		a.free.Release()
		return 0, nil, fmt.Errorf("slot %d not free (state %s): protocol violation", idx, slot.State())
	}
	slot.IncrementGeneration()

	return idx, a.SlotData(idx), nil
}

// Publish completes a write: it fills slot idx's metadata, transitions
// Writing -> Ready with release semantics so the payload bytes are visible
// to the reader before the state flip, advances the writer's rotation and
// signals the ready semaphore.
func (a *Arena) Publish(idx uint64, dataSize, rows uint64, cols uint32, flags uint32) error {
	slot := a.Slot(idx)
	if slot.State() != SlotWriting {
		return fmt.Errorf("slot %d not in Writing state (state %s)", idx, slot.State())
	}
	if dataSize > a.SlotSize() {
		return fmt.Errorf("payload %d exceeds slot capacity %d", dataSize, a.SlotSize())
	}

	h := a.header()
	slot.SetDataSize(dataSize)
	slot.SetRows(rows)
	slot.SetCols(cols)
	slot.SetFlags(flags)
	slot.SetSequence(h.WriteSeq())

	// The CAS is the release barrier making all payload and metadata
	// stores above visible before the reader can observe Ready.
	if !slot.CasState(SlotWriting, SlotReady) {
		return fmt.Errorf("slot %d changed state during publish", idx)
	}

	h.IncrementWriteSeq()
	return a.ready.Release()
}

// AbortWrite returns an acquired slot to Free without publishing, for a
// write that failed after slot acquisition. No partial payload is ever
// exposed.
func (a *Arena) AbortWrite(idx uint64) error {
	slot := a.Slot(idx)
	if !slot.CasState(SlotWriting, SlotFree) {
		return fmt.Errorf("slot %d not in Writing state (state %s)", idx, slot.State())
	}
	// The rotation did not advance, so the same slot is handed out again
	// on the next acquire.
	return a.free.Release()
}

// AcquireReadSlot claims the oldest Ready slot, blocking on the ready
// semaphore up to timeout (zero means block indefinitely). Expiry returns
// ErrTimeout with no state transition; the caller maps that to its "no
// data" result. On success the slot is in Reading state and its bytes may
// be borrowed until ReleaseReadSlot.
func (a *Arena) AcquireReadSlot(timeout time.Duration) (uint64, error) {
	if a.closed.Load() {
		return 0, fmt.Errorf("arena is closed")
	}

	if err := a.ready.Acquire(timeout); err != nil {
		return 0, err
	}

	h := a.header()
	idx := h.ReadSeq() % h.SlotCount()
	slot := a.Slot(idx)

	// The acquire side of Publish's release CAS: observing Ready here
	// guarantees the payload bytes written before the flip are visible.
	if !slot.CasState(SlotReady, SlotReading) {
		a.ready.Release()
		return 0, fmt.Errorf("slot %d not ready (state %s): protocol violation", idx, slot.State())
	}

	return idx, nil
}

// ReleaseReadSlot returns a consumed slot to Free, advances the reader's
// rotation and signals the free semaphore, unblocking a backpressured
// writer.
func (a *Arena) ReleaseReadSlot(idx uint64) error {
	slot := a.Slot(idx)
	if !slot.CasState(SlotReading, SlotFree) {
		return fmt.Errorf("slot %d not in Reading state (state %s)", idx, slot.State())
	}
	a.header().IncrementReadSeq()
	return a.free.Release()
}

// Close releases the process-local mapping. The shared region itself
// survives; only Destroy removes it.
func (a *Arena) Close() error {
	if !a.closed.CompareAndSwap(false, true) {
		return nil
	}

	var firstErr error
	if a.mem != nil {
		if err := munmapMemory(a.mem); err != nil && firstErr == nil {
			firstErr = err
		}
		a.mem = nil
	}
	if a.file != nil {
		if err := a.file.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		a.file = nil
	}
	return firstErr
}

// Destroy tears down the OS-level region: it marks the arena closed, unmaps
// and unlinks the backing file. Only the owner handle may call it. A wait
// already in progress in another process is not interrupted; it runs to its
// timeout. Processes still holding a mapping afterwards observe undefined
// behavior; that hazard is documented, not guarded.
func (a *Arena) Destroy() error {
	if !a.owner {
		return fmt.Errorf("only the arena owner may destroy it")
	}

	if a.mem != nil {
		a.header().SetClosed(true)
	}

	firstErr := a.Close()
	if err := os.Remove(a.path); err != nil && !os.IsNotExist(err) && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
