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
)

// Memory layout constants
const (
	// Magic bytes identifying a qadataswap arena
	ArenaMagic = "QDSWAP\x00\x00"

	// Current wire protocol version
	ArenaVersion = uint32(1)

	// Arena header size (aligned to 128 bytes)
	ArenaHeaderSize = 128

	// Per-slot header size (aligned to 64 bytes)
	SlotHeaderSize = 64

	// Minimum payload capacity per slot (4KB)
	MinSlotPayload = 4096

	// Minimum and default number of slots per arena
	MinSlotCount     = 1
	DefaultSlotCount = 3

	// Default total arena capacity (16MB)
	DefaultCapacity = 16 * 1024 * 1024
)

// SlotState is the lifecycle state of one slot. The cycle is
// Free -> Writing -> Ready -> Reading -> Free, driven by CAS transitions.
//
//go:generate go tool stringer -type=SlotState -trimprefix=Slot
type SlotState uint32

const (
	SlotFree SlotState = iota
	SlotWriting
	SlotReady
	SlotReading
)

// Slot flag bits, published in SlotHeader.flags.
const (
	// SlotFlagEndOfStream marks the distinguished end-of-stream slot
	// published by a streaming writer's Finish. Its payload is empty.
	SlotFlagEndOfStream = uint32(1 << 0)
)

// ArenaHeader is the fixed header at offset 0 of the mapping.
// All cross-process fields are accessed atomically; the two futex words
// (freeCount, readyCount) double as counting semaphores.
type ArenaHeader struct {
	magic      [8]byte  // 0x00: "QDSWAP\0\0"
	version    uint32   // 0x08: protocol version
	flags      uint32   // 0x0C: reserved flags
	totalSize  uint64   // 0x10: total mapping size
	slotCount  uint64   // 0x18: number of slots
	slotSize   uint64   // 0x20: payload capacity of each slot
	slotsOff   uint64   // 0x28: offset of the slot header array
	dataOff    uint64   // 0x30: offset of slot 0's payload region
	writeSeq   uint64   // 0x38: monotonic count of published batches
	readSeq    uint64   // 0x40: monotonic count of consumed batches
	freeCount  uint32   // 0x48: futex word, slots free to write
	readyCount uint32   // 0x4C: futex word, slots ready to read
	ownerPID   uint32   // 0x50: creating (owning) process ID
	writers    uint32   // 0x54: attached writer count (must stay <= 1)
	readers    uint32   // 0x58: attached reader count
	closed     uint32   // 0x5C: closed flag (0 open, 1 closed)
	instanceID [16]byte // 0x60: random ID stamped at creation
	reserved   [16]byte // 0x70-0x7F: padding to 128B
}

// Magic returns the magic bytes.
func (h *ArenaHeader) Magic() [8]byte { return h.magic }

// SetMagic sets the magic bytes.
func (h *ArenaHeader) SetMagic(magic [8]byte) { h.magic = magic }

// Version returns the protocol version.
func (h *ArenaHeader) Version() uint32 { return atomic.LoadUint32(&h.version) }

// SetVersion sets the protocol version.
func (h *ArenaHeader) SetVersion(v uint32) { atomic.StoreUint32(&h.version, v) }

// TotalSize returns the total mapping size.
func (h *ArenaHeader) TotalSize() uint64 { return atomic.LoadUint64(&h.totalSize) }

// SetTotalSize sets the total mapping size.
func (h *ArenaHeader) SetTotalSize(n uint64) { atomic.StoreUint64(&h.totalSize, n) }

// SlotCount returns the number of slots.
func (h *ArenaHeader) SlotCount() uint64 { return atomic.LoadUint64(&h.slotCount) }

// SetSlotCount sets the number of slots.
func (h *ArenaHeader) SetSlotCount(n uint64) { atomic.StoreUint64(&h.slotCount, n) }

// SlotSize returns the payload capacity of each slot.
func (h *ArenaHeader) SlotSize() uint64 { return atomic.LoadUint64(&h.slotSize) }

// SetSlotSize sets the payload capacity of each slot.
func (h *ArenaHeader) SetSlotSize(n uint64) { atomic.StoreUint64(&h.slotSize, n) }

// SlotsOffset returns the offset of the slot header array.
func (h *ArenaHeader) SlotsOffset() uint64 { return atomic.LoadUint64(&h.slotsOff) }

// SetSlotsOffset sets the offset of the slot header array.
func (h *ArenaHeader) SetSlotsOffset(off uint64) { atomic.StoreUint64(&h.slotsOff, off) }

// DataOffset returns the offset of slot 0's payload region.
func (h *ArenaHeader) DataOffset() uint64 { return atomic.LoadUint64(&h.dataOff) }

// SetDataOffset sets the offset of slot 0's payload region.
func (h *ArenaHeader) SetDataOffset(off uint64) { atomic.StoreUint64(&h.dataOff, off) }

// WriteSeq returns the monotonic count of published batches.
func (h *ArenaHeader) WriteSeq() uint64 { return atomic.LoadUint64(&h.writeSeq) }

// IncrementWriteSeq atomically increments the publish counter and returns
// the new value.
func (h *ArenaHeader) IncrementWriteSeq() uint64 { return atomic.AddUint64(&h.writeSeq, 1) }

// ReadSeq returns the monotonic count of consumed batches.
func (h *ArenaHeader) ReadSeq() uint64 { return atomic.LoadUint64(&h.readSeq) }

// IncrementReadSeq atomically increments the consume counter and returns
// the new value.
func (h *ArenaHeader) IncrementReadSeq() uint64 { return atomic.AddUint64(&h.readSeq, 1) }

// OwnerPID returns the creating process ID.
func (h *ArenaHeader) OwnerPID() uint32 { return atomic.LoadUint32(&h.ownerPID) }

// SetOwnerPID sets the creating process ID.
func (h *ArenaHeader) SetOwnerPID(pid uint32) { atomic.StoreUint32(&h.ownerPID, pid) }

// AddWriter atomically increments the attached writer count and returns the
// new value. The protocol requires this never exceeds one.
func (h *ArenaHeader) AddWriter(delta int32) uint32 {
	return atomic.AddUint32(&h.writers, uint32(delta))
}

// Writers returns the attached writer count.
func (h *ArenaHeader) Writers() uint32 { return atomic.LoadUint32(&h.writers) }

// AddReader atomically adjusts the attached reader count and returns the
// new value.
func (h *ArenaHeader) AddReader(delta int32) uint32 {
	return atomic.AddUint32(&h.readers, uint32(delta))
}

// Readers returns the attached reader count.
func (h *ArenaHeader) Readers() uint32 { return atomic.LoadUint32(&h.readers) }

// Closed returns the closed flag.
func (h *ArenaHeader) Closed() bool { return atomic.LoadUint32(&h.closed) != 0 }

// SetClosed sets the closed flag.
func (h *ArenaHeader) SetClosed(closed bool) {
	var v uint32
	if closed {
		v = 1
	}
	atomic.StoreUint32(&h.closed, v)
}

// InstanceID returns the random ID stamped at creation.
func (h *ArenaHeader) InstanceID() [16]byte { return h.instanceID }

// SetInstanceID sets the creation instance ID.
func (h *ArenaHeader) SetInstanceID(id [16]byte) { h.instanceID = id }

// SlotHeader is the per-slot metadata record. One SlotHeader lives at
// slotsOff + i*SlotHeaderSize for slot i; the payload bytes it describes
// live at dataOff + i*slotSize.
type SlotHeader struct {
	state      uint32   // 0x00: SlotState
	flags      uint32   // 0x04: slot flag bits
	generation uint64   // 0x08: increments on every reuse
	sequence   uint64   // 0x10: publish sequence of the current payload
	dataSize   uint64   // 0x18: serialized payload length in bytes
	rows       uint64   // 0x20: row count of the published batch
	cols       uint32   // 0x28: column count of the published batch
	pad        uint32   // 0x2C: padding
	reserved   [16]byte // 0x30-0x3F: padding to 64B
}

// State returns the current slot state.
func (s *SlotHeader) State() SlotState {
	return SlotState(atomic.LoadUint32(&s.state))
}

// CasState attempts the transition from -> to and reports whether it won.
func (s *SlotHeader) CasState(from, to SlotState) bool {
	return atomic.CompareAndSwapUint32(&s.state, uint32(from), uint32(to))
}

// SetState unconditionally stores the slot state. Used only during arena
// initialization; live transitions go through CasState.
func (s *SlotHeader) SetState(st SlotState) { atomic.StoreUint32(&s.state, uint32(st)) }

// Flags returns the slot flag bits.
func (s *SlotHeader) Flags() uint32 { return atomic.LoadUint32(&s.flags) }

// SetFlags stores the slot flag bits.
func (s *SlotHeader) SetFlags(f uint32) { atomic.StoreUint32(&s.flags, f) }

// Generation returns the slot's reuse counter.
func (s *SlotHeader) Generation() uint64 { return atomic.LoadUint64(&s.generation) }

// IncrementGeneration bumps the reuse counter and returns the new value.
func (s *SlotHeader) IncrementGeneration() uint64 { return atomic.AddUint64(&s.generation, 1) }

// Sequence returns the publish sequence of the slot's current payload.
func (s *SlotHeader) Sequence() uint64 { return atomic.LoadUint64(&s.sequence) }

// SetSequence stores the publish sequence.
func (s *SlotHeader) SetSequence(seq uint64) { atomic.StoreUint64(&s.sequence, seq) }

// DataSize returns the serialized payload length.
func (s *SlotHeader) DataSize() uint64 { return atomic.LoadUint64(&s.dataSize) }

// SetDataSize stores the serialized payload length.
func (s *SlotHeader) SetDataSize(n uint64) { atomic.StoreUint64(&s.dataSize, n) }

// Rows returns the row count of the published batch.
func (s *SlotHeader) Rows() uint64 { return atomic.LoadUint64(&s.rows) }

// SetRows stores the row count.
func (s *SlotHeader) SetRows(n uint64) { atomic.StoreUint64(&s.rows, n) }

// Cols returns the column count of the published batch.
func (s *SlotHeader) Cols() uint32 { return atomic.LoadUint32(&s.cols) }

// SetCols stores the column count.
func (s *SlotHeader) SetCols(n uint32) { atomic.StoreUint32(&s.cols, n) }

// Layout holds the computed partitioning of an arena mapping.
type Layout struct {
	TotalSize   uint64 // total mapping size in bytes
	SlotCount   uint64 // number of slots
	SlotSize    uint64 // payload capacity per slot
	SlotsOffset uint64 // offset of the slot header array
	DataOffset  uint64 // offset of slot 0's payload
}

// CalculateLayout partitions capacityBytes into the arena header, the slot
// header array and slotCount equal payload regions. The per-slot payload is
// aligned down to 64 bytes; slot i's payload offset is
// DataOffset + i*SlotSize, computable without indirection.
func CalculateLayout(capacityBytes, slotCount uint64) (Layout, error) {
	if slotCount < MinSlotCount {
		return Layout{}, fmt.Errorf("slot count %d is below minimum %d", slotCount, MinSlotCount)
	}

	slotsOffset := uint64(ArenaHeaderSize)
	dataOffset := alignTo64(slotsOffset + slotCount*SlotHeaderSize)

	if capacityBytes <= dataOffset {
		return Layout{}, fmt.Errorf("capacity %d leaves no payload space after %d header bytes",
			capacityBytes, dataOffset)
	}

	slotSize := (capacityBytes - dataOffset) / slotCount
	slotSize &^= 63 // align payload regions to 64 bytes
	if slotSize < MinSlotPayload {
		return Layout{}, fmt.Errorf("capacity %d yields per-slot payload %d, below minimum %d",
			capacityBytes, slotSize, MinSlotPayload)
	}

	return Layout{
		TotalSize:   dataOffset + slotCount*slotSize,
		SlotCount:   slotCount,
		SlotSize:    slotSize,
		SlotsOffset: slotsOffset,
		DataOffset:  dataOffset,
	}, nil
}

// alignTo64 aligns a size to a 64-byte boundary.
func alignTo64(n uint64) uint64 {
	return (n + 63) &^ 63
}

// arenaMagicBytes returns the magic constant as a byte array.
func arenaMagicBytes() [8]byte {
	return [8]byte{'Q', 'D', 'S', 'W', 'A', 'P', 0, 0}
}

// ValidateHeader validates an arena header against the layout it claims,
// guarding an attaching reader against mapping an incompatible or corrupt
// region.
func ValidateHeader(h *ArenaHeader) error {
	if h.Magic() != arenaMagicBytes() {
		return fmt.Errorf("invalid magic bytes")
	}
	if h.Version() != ArenaVersion {
		return fmt.Errorf("unsupported version %d, expected %d", h.Version(), ArenaVersion)
	}

	layout, err := CalculateLayout(h.TotalSize(), h.SlotCount())
	if err != nil {
		return fmt.Errorf("layout calculation failed: %w", err)
	}
	if h.SlotSize() != layout.SlotSize {
		return fmt.Errorf("slot size mismatch: got %d, expected %d", h.SlotSize(), layout.SlotSize)
	}
	if h.SlotsOffset() != layout.SlotsOffset {
		return fmt.Errorf("slot header offset mismatch: got %d, expected %d",
			h.SlotsOffset(), layout.SlotsOffset)
	}
	if h.DataOffset() != layout.DataOffset {
		return fmt.Errorf("data offset mismatch: got %d, expected %d",
			h.DataOffset(), layout.DataOffset)
	}
	if h.TotalSize() != layout.TotalSize {
		return fmt.Errorf("total size mismatch: got %d, expected %d",
			h.TotalSize(), layout.TotalSize)
	}
	return nil
}
