// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package ir is the facade the resolver core is written against: a small,
// LLVM-shaped intermediate representation with structural types, tagged
// values, and a data-layout query. Concrete IR (loaded from bitcode,
// textual IR, or built for tests) is translated into this facade once by
// an adapter (see package llvmadapter); the core packages never see the
// adapter's underlying library types.
package ir

// TypeKind tags the structural shape of a Type.
type TypeKind int

// The type kinds the resolver needs to distinguish. Every other LLVM type
// (floats, labels, metadata, opaque) is folded into KindOther: the resolver
// never descends into or stores function targets under those types.
const (
	KindInt TypeKind = iota
	KindPointer
	KindStruct
	KindArray
	KindVector
	KindFunc
	KindOther
)

// Type is a structural description of an IR type. Two Types are considered
// the same type by typekey.HashType iff they are structurally equal under a
// DataLayout: named structs compare by name, everything else compares
// element-wise. Type is a plain value so the resolver can copy, hash, and
// compare it without going back through the adapter.
type Type struct {
	Kind TypeKind

	// Name is the identified name of a struct type ("struct.S"), empty for
	// a literal/unnamed struct or any non-struct kind.
	Name string

	// BitWidth is valid for KindInt.
	BitWidth int

	// Elem is the pointee (KindPointer) or element type (KindArray, KindVector).
	Elem *Type

	// Len is the element count, valid for KindArray and KindVector.
	Len int

	// Fields are the member types in declaration order, valid for KindStruct.
	Fields []*Type

	// Ret and Params describe a KindFunc type. Variadic marks a C-style vararg
	// function; the resolver's arity check treats it specially (see sigindex).
	Ret      *Type
	Params   []*Type
	Variadic bool
}

// IsComposite reports whether Ty is a struct, array, or vector: the three
// aggregate kinds the layer walker can descend through.
func (t *Type) IsComposite() bool {
	if t == nil {
		return false
	}
	switch t.Kind {
	case KindStruct, KindArray, KindVector:
		return true
	default:
		return false
	}
}

// FieldCount returns the number of addressable elements/fields of a
// composite type, or 0 for anything else.
func (t *Type) FieldCount() int {
	if t == nil {
		return 0
	}
	switch t.Kind {
	case KindStruct:
		return len(t.Fields)
	case KindArray, KindVector:
		return t.Len
	default:
		return 0
	}
}

// FieldType returns the type of field/element i of a composite type. Array
// and vector types return the same Elem regardless of i. Returns nil if i is
// out of range or Ty is not composite.
func (t *Type) FieldType(i int) *Type {
	if t == nil || i < 0 {
		return nil
	}
	switch t.Kind {
	case KindStruct:
		if i >= len(t.Fields) {
			return nil
		}
		return t.Fields[i]
	case KindArray, KindVector:
		return t.Elem
	default:
		return nil
	}
}

// IsBytePointer reports whether Ty is LLVM's "general pointer" i8*: the
// fuzzy-match wildcard type described in spec section 4.2. An opaque pointer
// (nil Elem) does not count.
func (t *Type) IsBytePointer() bool {
	return t != nil && t.Kind == KindPointer && t.Elem != nil && t.Elem.Kind == KindInt && t.Elem.BitWidth == 8
}

// IsIntPointerSized reports whether Ty is an integer as wide as a pointer
// (LLVM's intptr_t idiom), the other fuzzy-match wildcard.
func (t *Type) IsIntPointerSized(ptrBits int) bool {
	return t != nil && t.Kind == KindInt && t.BitWidth == ptrBits
}
