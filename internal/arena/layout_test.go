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
	"unsafe"
)

func TestHeaderSizes(t *testing.T) {
	if got := unsafe.Sizeof(ArenaHeader{}); got != ArenaHeaderSize {
		t.Fatalf("ArenaHeader is %d bytes, expected %d", got, ArenaHeaderSize)
	}
	if got := unsafe.Sizeof(SlotHeader{}); got != SlotHeaderSize {
		t.Fatalf("SlotHeader is %d bytes, expected %d", got, SlotHeaderSize)
	}
}

func TestCalculateLayout(t *testing.T) {
	layout, err := CalculateLayout(1<<20, 3)
	if err != nil {
		t.Fatalf("CalculateLayout failed: %v", err)
	}

	if layout.SlotCount != 3 {
		t.Fatalf("slot count %d, expected 3", layout.SlotCount)
	}
	if layout.SlotSize%64 != 0 {
		t.Fatalf("slot size %d not 64-byte aligned", layout.SlotSize)
	}
	if layout.SlotSize < MinSlotPayload {
		t.Fatalf("slot size %d below minimum %d", layout.SlotSize, MinSlotPayload)
	}
	if layout.DataOffset%64 != 0 {
		t.Fatalf("data offset %d not 64-byte aligned", layout.DataOffset)
	}
	if layout.SlotsOffset != ArenaHeaderSize {
		t.Fatalf("slots offset %d, expected %d", layout.SlotsOffset, ArenaHeaderSize)
	}
	if layout.TotalSize > 1<<20 {
		t.Fatalf("total size %d exceeds requested capacity", layout.TotalSize)
	}
	if want := layout.DataOffset + 3*layout.SlotSize; layout.TotalSize != want {
		t.Fatalf("total size %d, expected %d", layout.TotalSize, want)
	}
}

func TestCalculateLayoutErrors(t *testing.T) {
	if _, err := CalculateLayout(1<<20, 0); err == nil {
		t.Fatal("expected error for zero slot count")
	}
	if _, err := CalculateLayout(64, 1); err == nil {
		t.Fatal("expected error for capacity smaller than the header")
	}
	// Enough room for headers but not for a minimum payload.
	if _, err := CalculateLayout(ArenaHeaderSize+SlotHeaderSize+1024, 1); err == nil {
		t.Fatal("expected error for sub-minimum slot payload")
	}
}

func TestValidateHeader(t *testing.T) {
	layout, err := CalculateLayout(1<<20, 4)
	if err != nil {
		t.Fatalf("CalculateLayout failed: %v", err)
	}

	var h ArenaHeader
	h.SetMagic(arenaMagicBytes())
	h.SetVersion(ArenaVersion)
	h.SetTotalSize(layout.TotalSize)
	h.SetSlotCount(layout.SlotCount)
	h.SetSlotSize(layout.SlotSize)
	h.SetSlotsOffset(layout.SlotsOffset)
	h.SetDataOffset(layout.DataOffset)

	if err := ValidateHeader(&h); err != nil {
		t.Fatalf("ValidateHeader rejected a consistent header: %v", err)
	}

	bad := h
	bad.SetVersion(99)
	if err := ValidateHeader(&bad); err == nil {
		t.Fatal("expected version mismatch error")
	}

	bad = h
	bad.SetMagic([8]byte{'B', 'O', 'G', 'U', 'S'})
	if err := ValidateHeader(&bad); err == nil {
		t.Fatal("expected magic mismatch error")
	}

	bad = h
	bad.SetSlotSize(layout.SlotSize + 64)
	if err := ValidateHeader(&bad); err == nil {
		t.Fatal("expected slot size mismatch error")
	}
}

func TestSlotStateString(t *testing.T) {
	cases := map[SlotState]string{
		SlotFree:    "Free",
		SlotWriting: "Writing",
		SlotReady:   "Ready",
		SlotReading: "Reading",
	}
	for state, want := range cases {
		if got := state.String(); got != want {
			t.Fatalf("SlotState(%d).String() = %q, expected %q", state, got, want)
		}
	}
}
