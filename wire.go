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
	"math"
)

// Self-describing batch payload, written directly into a slot:
//
//	0x00  [4] magic "QBAT"
//	0x04  u32 wire version
//	0x08  u64 row count
//	0x10  u32 column count
//	0x14  u32 schema descriptor length S
//	0x18  [S] schema descriptor (see schema.go)
//	      ... padding to 8-byte alignment
//	      column table: per column {u64 offset, u64 length},
//	      offsets relative to payload start
//	      column regions, each 8-byte aligned:
//	        fixed-width kinds  rows * width bytes, little-endian
//	        Bool               rows bytes, 0 or 1
//	        String             (rows+1) u32 offsets, then concatenated bytes
//
// All integers are little-endian. Region alignment plus the 64-byte slot
// alignment guarantee typed in-place reinterpretation is legal on the
// reader side.
const (
	batchMagic       = "QBAT"
	batchWireVersion = uint32(1)
	batchHeaderSize  = 24
	columnTableEntry = 16
)

// alignTo8 aligns an offset to an 8-byte boundary.
func alignTo8(n int) int {
	return (n + 7) &^ 7
}

// columnRegionSize returns the encoded byte length of one column's data
// region, before alignment padding.
func columnRegionSize(c Column) int {
	if c.field.Kind == KindString {
		n := 4 * (c.length + 1)
		for _, s := range c.str {
			n += len(s)
		}
		return n
	}
	return c.length * c.field.Kind.Width()
}

// encodedBatchSize returns the exact serialized size of a batch. Computed
// up front so a write that cannot fit one slot fails before any bytes are
// staged.
func encodedBatchSize(b *Batch) int {
	size := alignTo8(batchHeaderSize + b.schema.descriptorSize())
	size += columnTableEntry * len(b.cols)
	for _, c := range b.cols {
		size = alignTo8(size)
		size += columnRegionSize(c)
	}
	return size
}

// encodeBatch serializes b into dst, which must be at least
// encodedBatchSize(b) bytes, and returns the number of bytes written.
func encodeBatch(dst []byte, b *Batch) int {
	copy(dst[0:4], batchMagic)
	binary.LittleEndian.PutUint32(dst[4:8], batchWireVersion)
	binary.LittleEndian.PutUint64(dst[8:16], uint64(b.rows))
	binary.LittleEndian.PutUint32(dst[16:20], uint32(len(b.cols)))

	schemaLen := b.schema.descriptorSize()
	binary.LittleEndian.PutUint32(dst[20:24], uint32(schemaLen))
	b.schema.appendDescriptor(dst[batchHeaderSize:batchHeaderSize])

	tableOff := alignTo8(batchHeaderSize + schemaLen)
	zeroFill(dst[batchHeaderSize+schemaLen : tableOff])

	off := tableOff + columnTableEntry*len(b.cols)
	for i, c := range b.cols {
		padded := alignTo8(off)
		zeroFill(dst[off:padded])
		off = padded

		n := encodeColumn(dst[off:], c)

		entry := tableOff + columnTableEntry*i
		binary.LittleEndian.PutUint64(dst[entry:entry+8], uint64(off))
		binary.LittleEndian.PutUint64(dst[entry+8:entry+16], uint64(n))
		off += n
	}
	return off
}

// zeroFill clears padding bytes so published payloads are deterministic.
func zeroFill(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// encodeColumn writes one column's data region and returns its length.
func encodeColumn(dst []byte, c Column) int {
	switch c.field.Kind {
	case KindInt8:
		for i, v := range c.i8 {
			dst[i] = byte(v)
		}
	case KindUint8:
		copy(dst, c.u8)
	case KindInt16:
		for i, v := range c.i16 {
			binary.LittleEndian.PutUint16(dst[2*i:], uint16(v))
		}
	case KindUint16:
		for i, v := range c.u16 {
			binary.LittleEndian.PutUint16(dst[2*i:], v)
		}
	case KindInt32:
		for i, v := range c.i32 {
			binary.LittleEndian.PutUint32(dst[4*i:], uint32(v))
		}
	case KindUint32:
		for i, v := range c.u32 {
			binary.LittleEndian.PutUint32(dst[4*i:], v)
		}
	case KindInt64, KindTimestamp:
		for i, v := range c.i64 {
			binary.LittleEndian.PutUint64(dst[8*i:], uint64(v))
		}
	case KindUint64:
		for i, v := range c.u64 {
			binary.LittleEndian.PutUint64(dst[8*i:], v)
		}
	case KindFloat32:
		for i, v := range c.f32 {
			binary.LittleEndian.PutUint32(dst[4*i:], math.Float32bits(v))
		}
	case KindFloat64:
		for i, v := range c.f64 {
			binary.LittleEndian.PutUint64(dst[8*i:], math.Float64bits(v))
		}
	case KindBool:
		for i, v := range c.bool {
			if v {
				dst[i] = 1
			} else {
				dst[i] = 0
			}
		}
	case KindString:
		// (rows+1) u32 offsets into the byte region that follows them.
		dataStart := 4 * (c.length + 1)
		pos := 0
		for i, s := range c.str {
			binary.LittleEndian.PutUint32(dst[4*i:], uint32(pos))
			copy(dst[dataStart+pos:], s)
			pos += len(s)
		}
		binary.LittleEndian.PutUint32(dst[4*c.length:], uint32(pos))
		return dataStart + pos
	}
	return columnRegionSize(c)
}
