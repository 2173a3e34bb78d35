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
	"testing"
	"time"
)

func TestNewBatch(t *testing.T) {
	b, err := NewBatch(
		Int64Column("id", []int64{1, 2, 3}),
		Float64Column("price", []float64{1.5, 2.5, 3.5}),
		StringColumn("symbol", []string{"AAPL", "MSFT", "GOOG"}),
	)
	if err != nil {
		t.Fatalf("NewBatch failed: %v", err)
	}
	if b.NumRows() != 3 || b.NumCols() != 3 {
		t.Fatalf("batch is %dx%d, expected 3x3", b.NumRows(), b.NumCols())
	}

	want := Schema{
		{Name: "id", Kind: KindInt64},
		{Name: "price", Kind: KindFloat64},
		{Name: "symbol", Kind: KindString},
	}
	if !b.Schema().Equal(want) {
		t.Fatalf("derived schema %v, expected %v", b.Schema(), want)
	}
}

func TestNewBatchErrors(t *testing.T) {
	if _, err := NewBatch(); err == nil {
		t.Error("expected error for a batch with no columns")
	}

	_, err := NewBatch(
		Int64Column("id", []int64{1, 2, 3}),
		Float64Column("price", []float64{1.5}),
	)
	if err == nil {
		t.Error("expected error for mismatched column lengths")
	}

	_, err = NewBatch(
		Int64Column("id", []int64{1}),
		Float64Column("id", []float64{1.5}),
	)
	if err == nil {
		t.Error("expected error for duplicate column names")
	}
}

func TestZeroRowBatch(t *testing.T) {
	b, err := NewBatch(Int64Column("id", nil))
	if err != nil {
		t.Fatalf("NewBatch failed for zero rows: %v", err)
	}
	if b.NumRows() != 0 {
		t.Fatalf("row count %d, expected 0", b.NumRows())
	}
}

func TestColumnTypedAccess(t *testing.T) {
	c := Int64Column("id", []int64{7, 8})

	if vals, ok := c.Int64s(); !ok || len(vals) != 2 || vals[0] != 7 {
		t.Fatalf("Int64s returned %v, %v", vals, ok)
	}
	if _, ok := c.Float64s(); ok {
		t.Fatal("Float64s succeeded on an Int64 column")
	}
	if c.Field() != (Field{Name: "id", Kind: KindInt64}) {
		t.Fatalf("field is %v", c.Field())
	}
}

func TestColumnByName(t *testing.T) {
	b, err := NewBatch(
		Int64Column("id", []int64{1}),
		BoolColumn("active", []bool{true}),
	)
	if err != nil {
		t.Fatalf("NewBatch failed: %v", err)
	}

	col, ok := b.ColumnByName("active")
	if !ok {
		t.Fatal("ColumnByName missed an existing column")
	}
	if vals, ok := col.Bools(); !ok || !vals[0] {
		t.Fatalf("Bools returned %v, %v", vals, ok)
	}
	if _, ok := b.ColumnByName("missing"); ok {
		t.Fatal("ColumnByName found a nonexistent column")
	}
}

func TestTimestampColumn(t *testing.T) {
	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	t1 := t0.Add(time.Second)

	c := TimestampColumn("ts", []time.Time{t0, t1})
	nanos, ok := c.TimestampNanos()
	if !ok {
		t.Fatal("TimestampNanos failed on a Timestamp column")
	}
	if nanos[0] != t0.UnixNano() || nanos[1] != t1.UnixNano() {
		t.Fatalf("nanos %v do not match source times", nanos)
	}

	ts, ok := c.Timestamps()
	if !ok {
		t.Fatal("Timestamps failed on a Timestamp column")
	}
	if !ts[0].Equal(t0) || !ts[1].Equal(t1) {
		t.Fatalf("round-tripped times %v do not match source", ts)
	}
	if ts[0].Location() != time.UTC {
		t.Fatal("round-tripped time is not UTC")
	}
}
