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

// Package typekey computes stable structural hashes for types,
// (type, field-index) pairs, and call/function signatures: TK, TIK, and CSK
// in spec section 3. Two structurally equal types under a data layout hash
// to the same Type, regardless of which module or which pointer identity
// produced them.
package typekey

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"

	"github.com/aws/mlta-go/ir"
)

// Type is a stable hash of a structural IR type (TK).
type Type uint64

// Index is a stable hash of a (Type, field-index) pair (TIK). Field index -1
// means "any field."
type Index uint64

// Signature is a stable hash of a call or function signature (CSK):
// (return type, arg count, arg types...).
type Signature uint64

// AnyField is the sentinel field index meaning "any field," used both as a
// wildcard write target during collection and as a wildcard read during
// resolution (spec section 3, item 2).
const AnyField = -1

// HashType computes TK for t. Named struct types hash by name alone (two
// definitions of "struct.S" anywhere in the program are the same type);
// unnamed aggregates hash element-wise. This mirrors the C++ source's
// typeHash, including the choice (documented as an open question in
// spec.md) to not union in the hashes of a struct's transitively contained
// types.
func HashType(t *ir.Type) Type {
	if t == nil {
		return 0
	}
	h := xxhash.New()
	hashTypeInto(h, t, map[*ir.Type]bool{})
	return Type(h.Sum64())
}

func hashTypeInto(h *xxhash.Digest, t *ir.Type, seen map[*ir.Type]bool) {
	writeByte(h, byte(t.Kind))
	switch t.Kind {
	case ir.KindInt:
		writeInt(h, int64(t.BitWidth))
	case ir.KindPointer:
		if t.Elem != nil && !seen[t.Elem] {
			seen[t.Elem] = true
			hashTypeInto(h, t.Elem, seen)
			delete(seen, t.Elem)
		}
	case ir.KindArray, ir.KindVector:
		writeInt(h, int64(t.Len))
		if t.Elem != nil {
			hashTypeInto(h, t.Elem, seen)
		}
	case ir.KindStruct:
		if t.Name != "" {
			// Named structs are identified by name alone: this both matches
			// two separately-parsed modules' identical struct names, and
			// terminates recursion for self-referential struct layouts
			// (a struct holding a pointer to itself).
			_, _ = h.WriteString(t.Name)
			return
		}
		writeInt(h, int64(len(t.Fields)))
		for _, f := range t.Fields {
			if f != nil {
				hashTypeInto(h, f, seen)
			}
		}
	case ir.KindFunc:
		if t.Ret != nil {
			hashTypeInto(h, t.Ret, seen)
		}
		writeInt(h, int64(len(t.Params)))
		for _, p := range t.Params {
			hashTypeInto(h, p, seen)
		}
		if t.Variadic {
			writeByte(h, 1)
		}
	default:
		// KindOther: all otherwise-unclassified types collapse to one hash
		// bucket per kind byte already written above.
	}
}

func writeByte(h *xxhash.Digest, b byte) { _, _ = h.Write([]byte{b}) }

func writeInt(h *xxhash.Digest, v int64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(v))
	_, _ = h.Write(buf[:])
}

// HashIndex computes TIK for (t, i).
func HashIndex(t Type, i int) Index {
	h := xxhash.New()
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[0:8], uint64(t))
	binary.LittleEndian.PutUint64(buf[8:16], uint64(int64(i)))
	_, _ = h.Write(buf[:])
	return Index(h.Sum64())
}

// HashCallSignature computes CSK for a call site's or function's declared
// signature: hash(ret, arg count, arg types...). This is the exact
// structural hash used to bucket sig_funcs (spec section 4.3); the
// wildcard-tolerant comparison used to seed that bucket lives in
// package sigindex's FuzzyMatch.
func HashCallSignature(ret *ir.Type, args []*ir.Type) Signature {
	h := xxhash.New()
	hashTypeInto(h, orOther(ret), map[*ir.Type]bool{})
	writeInt(h, int64(len(args)))
	for _, a := range args {
		hashTypeInto(h, orOther(a), map[*ir.Type]bool{})
	}
	return Signature(h.Sum64())
}

func orOther(t *ir.Type) *ir.Type {
	if t == nil {
		return &ir.Type{Kind: ir.KindOther}
	}
	return t
}

// FunctionSignature computes func_sig(F): the same hash as HashCallSignature
// applied to F's declared return type and parameter types.
func FunctionSignature(f *ir.Function) Signature {
	ft := f.Type()
	if ft == nil {
		return HashCallSignature(nil, nil)
	}
	return HashCallSignature(ft.Ret, ft.Params)
}
