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
	"math"
)

// Field is one named, typed column in a schema.
type Field struct {
	Name string
	Kind Kind
}

// Schema is the ordered list of a batch's fields. It is written inline with
// every published batch as a compact descriptor, so a reader needs no
// external type information to reinterpret the payload bytes.
type Schema []Field

// Validate checks the schema for wire-encodability: at least one field,
// nonempty unique names that fit the descriptor's length field, and known
// kinds.
func (s Schema) Validate() error {
	if len(s) == 0 {
		return fmt.Errorf("schema has no fields")
	}
	if len(s) > math.MaxUint16 {
		return fmt.Errorf("schema has %d fields, maximum is %d", len(s), math.MaxUint16)
	}
	seen := make(map[string]struct{}, len(s))
	for i, f := range s {
		if f.Name == "" {
			return fmt.Errorf("field %d has an empty name", i)
		}
		if len(f.Name) > math.MaxUint16 {
			return fmt.Errorf("field %q name is too long", f.Name[:32])
		}
		if !f.Kind.Valid() {
			return fmt.Errorf("field %q has unknown kind %d", f.Name, f.Kind)
		}
		if _, dup := seen[f.Name]; dup {
			return fmt.Errorf("duplicate field name %q", f.Name)
		}
		seen[f.Name] = struct{}{}
	}
	return nil
}

// Equal reports whether two schemas have identical fields in identical order.
func (s Schema) Equal(other Schema) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// descriptorSize returns the encoded size of the schema descriptor:
// a u16 field count followed by {u8 kind, u16 name length, name bytes}
// per field.
func (s Schema) descriptorSize() int {
	n := 2
	for _, f := range s {
		n += 1 + 2 + len(f.Name)
	}
	return n
}

// appendDescriptor encodes the schema descriptor into dst.
func (s Schema) appendDescriptor(dst []byte) []byte {
	dst = binary.LittleEndian.AppendUint16(dst, uint16(len(s)))
	for _, f := range s {
		dst = append(dst, byte(f.Kind))
		dst = binary.LittleEndian.AppendUint16(dst, uint16(len(f.Name)))
		dst = append(dst, f.Name...)
	}
	return dst
}

// decodeDescriptor parses a schema descriptor. Any structural inconsistency
// is reported as a plain error; callers wrap it as ErrSchemaMismatch.
func decodeDescriptor(buf []byte) (Schema, error) {
	if len(buf) < 2 {
		return nil, fmt.Errorf("descriptor truncated: %d bytes", len(buf))
	}
	n := int(binary.LittleEndian.Uint16(buf))
	buf = buf[2:]

	schema := make(Schema, 0, n)
	for i := 0; i < n; i++ {
		if len(buf) < 3 {
			return nil, fmt.Errorf("descriptor truncated in field %d", i)
		}
		kind := Kind(buf[0])
		nameLen := int(binary.LittleEndian.Uint16(buf[1:]))
		buf = buf[3:]
		if len(buf) < nameLen {
			return nil, fmt.Errorf("descriptor truncated in field %d name", i)
		}
		if !kind.Valid() {
			return nil, fmt.Errorf("field %d has unknown kind %d", i, kind)
		}
		schema = append(schema, Field{Name: string(buf[:nameLen]), Kind: kind})
		buf = buf[nameLen:]
	}
	if len(buf) != 0 {
		return nil, fmt.Errorf("%d trailing descriptor bytes", len(buf))
	}
	if err := schema.Validate(); err != nil {
		return nil, err
	}
	return schema, nil
}
