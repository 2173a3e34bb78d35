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
)

func TestSchemaValidate(t *testing.T) {
	good := Schema{
		{Name: "id", Kind: KindInt64},
		{Name: "price", Kind: KindFloat64},
		{Name: "symbol", Kind: KindString},
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("valid schema rejected: %v", err)
	}

	cases := []struct {
		name   string
		schema Schema
	}{
		{"empty", Schema{}},
		{"empty field name", Schema{{Name: "", Kind: KindInt64}}},
		{"unknown kind", Schema{{Name: "x", Kind: Kind(200)}}},
		{"invalid kind", Schema{{Name: "x", Kind: KindInvalid}}},
		{"duplicate names", Schema{
			{Name: "x", Kind: KindInt64},
			{Name: "x", Kind: KindFloat64},
		}},
	}
	for _, tc := range cases {
		if err := tc.schema.Validate(); err == nil {
			t.Errorf("%s: expected validation error", tc.name)
		}
	}
}

func TestSchemaEqual(t *testing.T) {
	a := Schema{{Name: "id", Kind: KindInt64}, {Name: "v", Kind: KindFloat64}}
	b := Schema{{Name: "id", Kind: KindInt64}, {Name: "v", Kind: KindFloat64}}
	if !a.Equal(b) {
		t.Fatal("identical schemas reported unequal")
	}

	if a.Equal(a[:1]) {
		t.Fatal("schemas of different length reported equal")
	}
	c := Schema{{Name: "id", Kind: KindInt64}, {Name: "v", Kind: KindFloat32}}
	if a.Equal(c) {
		t.Fatal("schemas with different kinds reported equal")
	}
	d := Schema{{Name: "id", Kind: KindInt64}, {Name: "w", Kind: KindFloat64}}
	if a.Equal(d) {
		t.Fatal("schemas with different names reported equal")
	}
}

func TestDescriptorRoundTrip(t *testing.T) {
	schema := Schema{
		{Name: "id", Kind: KindInt64},
		{Name: "price", Kind: KindFloat64},
		{Name: "active", Kind: KindBool},
		{Name: "symbol", Kind: KindString},
		{Name: "ts", Kind: KindTimestamp},
	}

	buf := schema.appendDescriptor(nil)
	if len(buf) != schema.descriptorSize() {
		t.Fatalf("descriptor is %d bytes, descriptorSize says %d", len(buf), schema.descriptorSize())
	}

	decoded, err := decodeDescriptor(buf)
	if err != nil {
		t.Fatalf("decodeDescriptor failed: %v", err)
	}
	if !decoded.Equal(schema) {
		t.Fatalf("decoded schema %v does not match original %v", decoded, schema)
	}
}

func TestDecodeDescriptorErrors(t *testing.T) {
	schema := Schema{{Name: "id", Kind: KindInt64}}
	buf := schema.appendDescriptor(nil)

	if _, err := decodeDescriptor(nil); err == nil {
		t.Error("expected error for an empty descriptor")
	}
	if _, err := decodeDescriptor(buf[:len(buf)-1]); err == nil {
		t.Error("expected error for a truncated name")
	}
	if _, err := decodeDescriptor(append(buf, 0xFF)); err == nil {
		t.Error("expected error for trailing bytes")
	}

	bad := append([]byte(nil), buf...)
	bad[2] = 250 // field 0's kind byte
	if _, err := decodeDescriptor(bad); err == nil {
		t.Error("expected error for an unknown kind")
	}
}

func TestKindWidth(t *testing.T) {
	widths := map[Kind]int{
		KindInt8:      1,
		KindUint8:     1,
		KindBool:      1,
		KindInt16:     2,
		KindUint16:    2,
		KindInt32:     4,
		KindUint32:    4,
		KindFloat32:   4,
		KindInt64:     8,
		KindUint64:    8,
		KindFloat64:   8,
		KindTimestamp: 8,
	}
	for kind, want := range widths {
		if got := kind.Width(); got != want {
			t.Errorf("%s.Width() = %d, expected %d", kind, got, want)
		}
	}
	if KindInvalid.Valid() {
		t.Error("KindInvalid reported valid")
	}
	if !KindString.Valid() {
		t.Error("KindString reported invalid")
	}
}
