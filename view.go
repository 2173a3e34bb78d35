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
	"encoding/binary"
	"fmt"
	"unsafe"
)

// BatchView is a borrowed, read-only view of a published batch,
// reinterpreting the slot's bytes in place. A view is valid only while its
// slot is in Reading state — that is, for the duration of the ReadView
// callback that produced it. Slices and strings returned by its accessors
// alias shared memory and must not escape the callback; use Materialize to
// keep the data.
type BatchView struct {
	schema  Schema
	rows    int
	regions [][]byte // one data region per column, string offsets included
}

// decodeView parses a slot payload into a BatchView, validating the magic,
// version, descriptor and every region bound. Failures wrap
// ErrSchemaMismatch.
func decodeView(buf []byte) (*BatchView, error) {
	if len(buf) < batchHeaderSize {
		return nil, fmt.Errorf("%w: payload truncated at %d bytes", ErrSchemaMismatch, len(buf))
	}
	if string(buf[0:4]) != batchMagic {
		return nil, fmt.Errorf("%w: bad payload magic", ErrSchemaMismatch)
	}
	if v := binary.LittleEndian.Uint32(buf[4:8]); v != batchWireVersion {
		return nil, fmt.Errorf("%w: unsupported wire version %d", ErrSchemaMismatch, v)
	}

	rows := binary.LittleEndian.Uint64(buf[8:16])
	ncols := int(binary.LittleEndian.Uint32(buf[16:20]))
	schemaLen := int(binary.LittleEndian.Uint32(buf[20:24]))

	// Every column region costs at least one byte per row, so a row count
	// beyond the payload size is corrupt. Rejecting it here also keeps the
	// int conversion below in range on every platform.
	if rows > uint64(len(buf)) {
		return nil, fmt.Errorf("%w: row count %d exceeds payload size %d", ErrSchemaMismatch, rows, len(buf))
	}

	if batchHeaderSize+schemaLen > len(buf) {
		return nil, fmt.Errorf("%w: descriptor overruns payload", ErrSchemaMismatch)
	}
	schema, err := decodeDescriptor(buf[batchHeaderSize : batchHeaderSize+schemaLen])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaMismatch, err)
	}
	if len(schema) != ncols {
		return nil, fmt.Errorf("%w: descriptor has %d fields, header says %d",
			ErrSchemaMismatch, len(schema), ncols)
	}

	tableOff := alignTo8(batchHeaderSize + schemaLen)
	tableEnd := tableOff + columnTableEntry*ncols
	if tableEnd > len(buf) {
		return nil, fmt.Errorf("%w: column table overruns payload", ErrSchemaMismatch)
	}

	v := &BatchView{schema: schema, rows: int(rows), regions: make([][]byte, ncols)}
	for i := 0; i < ncols; i++ {
		entry := buf[tableOff+columnTableEntry*i:]
		off := binary.LittleEndian.Uint64(entry[0:8])
		length := binary.LittleEndian.Uint64(entry[8:16])

		if off%8 != 0 {
			return nil, fmt.Errorf("%w: column %d region misaligned", ErrSchemaMismatch, i)
		}
		// Overflow-safe form of off+length > len(buf): a corrupt offset near
		// the top of the uint64 range must not wrap past the bound.
		if length > uint64(len(buf)) || off > uint64(len(buf))-length || off < uint64(tableEnd) {
			return nil, fmt.Errorf("%w: column %d region out of bounds", ErrSchemaMismatch, i)
		}
		region := buf[off : off+length : off+length]

		if err := validateRegion(schema[i].Kind, region, int(rows)); err != nil {
			return nil, fmt.Errorf("%w: column %q: %v", ErrSchemaMismatch, schema[i].Name, err)
		}
		v.regions[i] = region
	}
	return v, nil
}

// validateRegion checks one column region's length (and, for strings, the
// offsets table) against the declared kind and row count.
func validateRegion(kind Kind, region []byte, rows int) error {
	if kind == KindString {
		offBytes := 4 * (rows + 1)
		if len(region) < offBytes {
			return fmt.Errorf("region %d bytes, need %d for offsets", len(region), offBytes)
		}
		offsets := castSlice[uint32](region, rows+1)
		dataLen := len(region) - offBytes
		prev := uint32(0)
		for i, o := range offsets {
			if int(o) > dataLen || o < prev {
				return fmt.Errorf("offset %d at index %d out of order or out of range", o, i)
			}
			prev = o
		}
		if int(offsets[rows]) != dataLen {
			return fmt.Errorf("final offset %d does not match data length %d", offsets[rows], dataLen)
		}
		return nil
	}
	if want := rows * kind.Width(); len(region) != want {
		return fmt.Errorf("region %d bytes, expected %d", len(region), want)
	}
	return nil
}

// castSlice reinterprets the front of b as n elements of T. Legal because
// every region is 8-byte aligned relative to a 64-byte aligned slot base.
func castSlice[T any](b []byte, n int) []T {
	if n == 0 {
		return nil
	}
	return unsafe.Slice((*T)(unsafe.Pointer(&b[0])), n)
}

// Schema returns the embedded schema.
func (v *BatchView) Schema() Schema { return v.schema }

// NumRows returns the row count.
func (v *BatchView) NumRows() int { return v.rows }

// NumCols returns the column count.
func (v *BatchView) NumCols() int { return len(v.schema) }

// kindAt checks that column i exists and has the wanted kind.
func (v *BatchView) kindAt(i int, want Kind) bool {
	return i >= 0 && i < len(v.schema) && v.schema[i].Kind == want
}

// Int8s returns column i's values in place.
func (v *BatchView) Int8s(i int) ([]int8, bool) {
	if !v.kindAt(i, KindInt8) {
		return nil, false
	}
	return castSlice[int8](v.regions[i], v.rows), true
}

// Int16s returns column i's values in place.
func (v *BatchView) Int16s(i int) ([]int16, bool) {
	if !v.kindAt(i, KindInt16) {
		return nil, false
	}
	return castSlice[int16](v.regions[i], v.rows), true
}

// Int32s returns column i's values in place.
func (v *BatchView) Int32s(i int) ([]int32, bool) {
	if !v.kindAt(i, KindInt32) {
		return nil, false
	}
	return castSlice[int32](v.regions[i], v.rows), true
}

// Int64s returns column i's values in place.
func (v *BatchView) Int64s(i int) ([]int64, bool) {
	if !v.kindAt(i, KindInt64) {
		return nil, false
	}
	return castSlice[int64](v.regions[i], v.rows), true
}

// Uint8s returns column i's values in place.
func (v *BatchView) Uint8s(i int) ([]uint8, bool) {
	if !v.kindAt(i, KindUint8) {
		return nil, false
	}
	return v.regions[i][:v.rows], true
}

// Uint16s returns column i's values in place.
func (v *BatchView) Uint16s(i int) ([]uint16, bool) {
	if !v.kindAt(i, KindUint16) {
		return nil, false
	}
	return castSlice[uint16](v.regions[i], v.rows), true
}

// Uint32s returns column i's values in place.
func (v *BatchView) Uint32s(i int) ([]uint32, bool) {
	if !v.kindAt(i, KindUint32) {
		return nil, false
	}
	return castSlice[uint32](v.regions[i], v.rows), true
}

// Uint64s returns column i's values in place.
func (v *BatchView) Uint64s(i int) ([]uint64, bool) {
	if !v.kindAt(i, KindUint64) {
		return nil, false
	}
	return castSlice[uint64](v.regions[i], v.rows), true
}

// Float32s returns column i's values in place.
func (v *BatchView) Float32s(i int) ([]float32, bool) {
	if !v.kindAt(i, KindFloat32) {
		return nil, false
	}
	return castSlice[float32](v.regions[i], v.rows), true
}

// Float64s returns column i's values in place.
func (v *BatchView) Float64s(i int) ([]float64, bool) {
	if !v.kindAt(i, KindFloat64) {
		return nil, false
	}
	return castSlice[float64](v.regions[i], v.rows), true
}

// Bools returns column i's values in place.
func (v *BatchView) Bools(i int) ([]bool, bool) {
	if !v.kindAt(i, KindBool) {
		return nil, false
	}
	return castSlice[bool](v.regions[i], v.rows), true
}

// TimestampNanos returns column i's values as epoch nanoseconds, in place.
func (v *BatchView) TimestampNanos(i int) ([]int64, bool) {
	if !v.kindAt(i, KindTimestamp) {
		return nil, false
	}
	return castSlice[int64](v.regions[i], v.rows), true
}

// StringAt returns row's value in String column i without copying. The
// returned string aliases shared memory and is only valid while the view is.
func (v *BatchView) StringAt(i, row int) (string, bool) {
	if !v.kindAt(i, KindString) || row < 0 || row >= v.rows {
		return "", false
	}
	region := v.regions[i]
	offsets := castSlice[uint32](region, v.rows+1)
	data := region[4*(v.rows+1):]
	start, end := offsets[row], offsets[row+1]
	if start == end {
		return "", true
	}
	return unsafe.String(&data[start], int(end-start)), true
}

// Materialize deep-copies the view into an owned Batch that remains valid
// after the slot is released.
func (v *BatchView) Materialize() (*Batch, error) {
	cols := make([]Column, len(v.schema))
	for i, f := range v.schema {
		switch f.Kind {
		case KindInt8:
			vals, _ := v.Int8s(i)
			cols[i] = Int8Column(f.Name, append([]int8(nil), vals...))
		case KindInt16:
			vals, _ := v.Int16s(i)
			cols[i] = Int16Column(f.Name, append([]int16(nil), vals...))
		case KindInt32:
			vals, _ := v.Int32s(i)
			cols[i] = Int32Column(f.Name, append([]int32(nil), vals...))
		case KindInt64:
			vals, _ := v.Int64s(i)
			cols[i] = Int64Column(f.Name, append([]int64(nil), vals...))
		case KindUint8:
			vals, _ := v.Uint8s(i)
			cols[i] = Uint8Column(f.Name, append([]uint8(nil), vals...))
		case KindUint16:
			vals, _ := v.Uint16s(i)
			cols[i] = Uint16Column(f.Name, append([]uint16(nil), vals...))
		case KindUint32:
			vals, _ := v.Uint32s(i)
			cols[i] = Uint32Column(f.Name, append([]uint32(nil), vals...))
		case KindUint64:
			vals, _ := v.Uint64s(i)
			cols[i] = Uint64Column(f.Name, append([]uint64(nil), vals...))
		case KindFloat32:
			vals, _ := v.Float32s(i)
			cols[i] = Float32Column(f.Name, append([]float32(nil), vals...))
		case KindFloat64:
			vals, _ := v.Float64s(i)
			cols[i] = Float64Column(f.Name, append([]float64(nil), vals...))
		case KindBool:
			vals, _ := v.Bools(i)
			cols[i] = BoolColumn(f.Name, append([]bool(nil), vals...))
		case KindTimestamp:
			vals, _ := v.TimestampNanos(i)
			cols[i] = TimestampNanosColumn(f.Name, append([]int64(nil), vals...))
		case KindString:
			vals := make([]string, v.rows)
			for row := 0; row < v.rows; row++ {
				s, _ := v.StringAt(i, row)
				vals[row] = string(append([]byte(nil), s...))
			}
			cols[i] = StringColumn(f.Name, vals)
		default:
			return nil, fmt.Errorf("%w: unknown kind %d", ErrSchemaMismatch, f.Kind)
		}
	}
	return NewBatch(cols...)
}
