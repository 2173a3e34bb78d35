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

// Kind is the element type of a column: a closed, tagged set of supported
// variants. It is part of the wire format; values must never be renumbered.
//
//go:generate go tool stringer -type=Kind -trimprefix=Kind
type Kind uint8

const (
	KindInvalid Kind = iota
	KindInt8
	KindInt16
	KindInt32
	KindInt64
	KindUint8
	KindUint16
	KindUint32
	KindUint64
	KindFloat32
	KindFloat64
	KindBool
	KindString
	KindTimestamp // int64 nanoseconds since the Unix epoch, UTC
)

// Width returns the fixed element width in bytes, or 0 for variable-length
// kinds (String).
func (k Kind) Width() int {
	switch k {
	case KindInt8, KindUint8, KindBool:
		return 1
	case KindInt16, KindUint16:
		return 2
	case KindInt32, KindUint32, KindFloat32:
		return 4
	case KindInt64, KindUint64, KindFloat64, KindTimestamp:
		return 8
	default:
		return 0
	}
}

// Valid reports whether k is a known column kind.
func (k Kind) Valid() bool {
	return k > KindInvalid && k <= KindTimestamp
}
