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
	"fmt"
	"time"
)

// Column is one named, typed column of values. Exactly one of the value
// slices is populated, selected by the field's kind; access goes through the
// typed getters rather than reflection.
type Column struct {
	field  Field
	length int

	i8   []int8
	i16  []int16
	i32  []int32
	i64  []int64 // Int64 and Timestamp (nanoseconds)
	u8   []uint8
	u16  []uint16
	u32  []uint32
	u64  []uint64
	f32  []float32
	f64  []float64
	bool []bool
	str  []string
}

// Int8Column builds an Int8 column.
func Int8Column(name string, vals []int8) Column {
	return Column{field: Field{name, KindInt8}, length: len(vals), i8: vals}
}

// Int16Column builds an Int16 column.
func Int16Column(name string, vals []int16) Column {
	return Column{field: Field{name, KindInt16}, length: len(vals), i16: vals}
}

// Int32Column builds an Int32 column.
func Int32Column(name string, vals []int32) Column {
	return Column{field: Field{name, KindInt32}, length: len(vals), i32: vals}
}

// Int64Column builds an Int64 column.
func Int64Column(name string, vals []int64) Column {
	return Column{field: Field{name, KindInt64}, length: len(vals), i64: vals}
}

// Uint8Column builds a Uint8 column.
func Uint8Column(name string, vals []uint8) Column {
	return Column{field: Field{name, KindUint8}, length: len(vals), u8: vals}
}

// Uint16Column builds a Uint16 column.
func Uint16Column(name string, vals []uint16) Column {
	return Column{field: Field{name, KindUint16}, length: len(vals), u16: vals}
}

// Uint32Column builds a Uint32 column.
func Uint32Column(name string, vals []uint32) Column {
	return Column{field: Field{name, KindUint32}, length: len(vals), u32: vals}
}

// Uint64Column builds a Uint64 column.
func Uint64Column(name string, vals []uint64) Column {
	return Column{field: Field{name, KindUint64}, length: len(vals), u64: vals}
}

// Float32Column builds a Float32 column.
func Float32Column(name string, vals []float32) Column {
	return Column{field: Field{name, KindFloat32}, length: len(vals), f32: vals}
}

// Float64Column builds a Float64 column.
func Float64Column(name string, vals []float64) Column {
	return Column{field: Field{name, KindFloat64}, length: len(vals), f64: vals}
}

// BoolColumn builds a Bool column.
func BoolColumn(name string, vals []bool) Column {
	return Column{field: Field{name, KindBool}, length: len(vals), bool: vals}
}

// StringColumn builds a variable-length text column.
func StringColumn(name string, vals []string) Column {
	return Column{field: Field{name, KindString}, length: len(vals), str: vals}
}

// TimestampColumn builds a Timestamp column from time values, stored as
// nanoseconds since the Unix epoch.
func TimestampColumn(name string, vals []time.Time) Column {
	nanos := make([]int64, len(vals))
	for i, t := range vals {
		nanos[i] = t.UnixNano()
	}
	return Column{field: Field{name, KindTimestamp}, length: len(nanos), i64: nanos}
}

// TimestampNanosColumn builds a Timestamp column directly from epoch
// nanoseconds, avoiding the conversion pass.
func TimestampNanosColumn(name string, nanos []int64) Column {
	return Column{field: Field{name, KindTimestamp}, length: len(nanos), i64: nanos}
}

// Field returns the column's name and kind.
func (c Column) Field() Field { return c.field }

// Len returns the number of values.
func (c Column) Len() int { return c.length }

// Int8s returns the values of an Int8 column.
func (c Column) Int8s() ([]int8, bool) { return c.i8, c.field.Kind == KindInt8 }

// Int16s returns the values of an Int16 column.
func (c Column) Int16s() ([]int16, bool) { return c.i16, c.field.Kind == KindInt16 }

// Int32s returns the values of an Int32 column.
func (c Column) Int32s() ([]int32, bool) { return c.i32, c.field.Kind == KindInt32 }

// Int64s returns the values of an Int64 column.
func (c Column) Int64s() ([]int64, bool) { return c.i64, c.field.Kind == KindInt64 }

// Uint8s returns the values of a Uint8 column.
func (c Column) Uint8s() ([]uint8, bool) { return c.u8, c.field.Kind == KindUint8 }

// Uint16s returns the values of a Uint16 column.
func (c Column) Uint16s() ([]uint16, bool) { return c.u16, c.field.Kind == KindUint16 }

// Uint32s returns the values of a Uint32 column.
func (c Column) Uint32s() ([]uint32, bool) { return c.u32, c.field.Kind == KindUint32 }

// Uint64s returns the values of a Uint64 column.
func (c Column) Uint64s() ([]uint64, bool) { return c.u64, c.field.Kind == KindUint64 }

// Float32s returns the values of a Float32 column.
func (c Column) Float32s() ([]float32, bool) { return c.f32, c.field.Kind == KindFloat32 }

// Float64s returns the values of a Float64 column.
func (c Column) Float64s() ([]float64, bool) { return c.f64, c.field.Kind == KindFloat64 }

// Bools returns the values of a Bool column.
func (c Column) Bools() ([]bool, bool) { return c.bool, c.field.Kind == KindBool }

// Strings returns the values of a String column.
func (c Column) Strings() ([]string, bool) { return c.str, c.field.Kind == KindString }

// TimestampNanos returns a Timestamp column's values as epoch nanoseconds.
func (c Column) TimestampNanos() ([]int64, bool) {
	return c.i64, c.field.Kind == KindTimestamp
}

// Timestamps returns the values of a Timestamp column as time values in UTC.
func (c Column) Timestamps() ([]time.Time, bool) {
	if c.field.Kind != KindTimestamp {
		return nil, false
	}
	ts := make([]time.Time, len(c.i64))
	for i, n := range c.i64 {
		ts[i] = time.Unix(0, n).UTC()
	}
	return ts, true
}

// Batch is a self-describing collection of named, typed columns of equal
// length. A zero-row batch is valid and distinct from the "no data" result
// of a timed-out read.
type Batch struct {
	schema Schema
	cols   []Column
	rows   int
}

// NewBatch assembles columns into a batch, validating the derived schema and
// that every column has the same length.
func NewBatch(cols ...Column) (*Batch, error) {
	if len(cols) == 0 {
		return nil, fmt.Errorf("batch needs at least one column")
	}

	schema := make(Schema, len(cols))
	rows := cols[0].Len()
	for i, c := range cols {
		schema[i] = c.field
		if c.Len() != rows {
			return nil, fmt.Errorf("column %q has %d rows, expected %d", c.field.Name, c.Len(), rows)
		}
	}
	if err := schema.Validate(); err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}

	return &Batch{schema: schema, cols: cols, rows: rows}, nil
}

// Schema returns the batch's schema.
func (b *Batch) Schema() Schema { return b.schema }

// NumRows returns the row count.
func (b *Batch) NumRows() int { return b.rows }

// NumCols returns the column count.
func (b *Batch) NumCols() int { return len(b.cols) }

// Column returns column i.
func (b *Batch) Column(i int) Column { return b.cols[i] }

// ColumnByName returns the column with the given name.
func (b *Batch) ColumnByName(name string) (Column, bool) {
	for _, c := range b.cols {
		if c.field.Name == name {
			return c, true
		}
	}
	return Column{}, false
}
