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

package typekey_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aws/mlta-go/ir"
	"github.com/aws/mlta-go/typekey"
)

func TestHashTypeNamedStructIgnoresFields(t *testing.T) {
	a := &ir.Type{Kind: ir.KindStruct, Name: "struct.S", Fields: []*ir.Type{{Kind: ir.KindInt, BitWidth: 32}}}
	b := &ir.Type{Kind: ir.KindStruct, Name: "struct.S", Fields: []*ir.Type{{Kind: ir.KindInt, BitWidth: 64}, {Kind: ir.KindInt, BitWidth: 8}}}

	require.Equal(t, typekey.HashType(a), typekey.HashType(b), "named structs with the same name should hash equal regardless of field layout")
}

func TestHashTypeUnnamedStructIsElementWise(t *testing.T) {
	a := &ir.Type{Kind: ir.KindStruct, Fields: []*ir.Type{{Kind: ir.KindInt, BitWidth: 32}}}
	b := &ir.Type{Kind: ir.KindStruct, Fields: []*ir.Type{{Kind: ir.KindInt, BitWidth: 64}}}

	require.NotEqual(t, typekey.HashType(a), typekey.HashType(b), "unnamed structs with different field types should hash differently")
}

func TestHashTypeSelfReferentialStructTerminates(t *testing.T) {
	// A named struct short-circuits on its name before visiting Fields, so a
	// struct holding a pointer to itself (a linked-list node) must not hang.
	s := &ir.Type{Kind: ir.KindStruct, Name: "struct.Node"}
	ptr := &ir.Type{Kind: ir.KindPointer, Elem: s}
	s.Fields = []*ir.Type{ptr}

	require.Equal(t, typekey.HashType(&ir.Type{Kind: ir.KindStruct, Name: "struct.Node"}), typekey.HashType(s),
		"self-referential named struct should still hash by name alone")
}

func TestHashIndexDistinguishesFieldsAndWildcard(t *testing.T) {
	tk := typekey.HashType(&ir.Type{Kind: ir.KindStruct, Name: "struct.S"})
	i0 := typekey.HashIndex(tk, 0)
	i1 := typekey.HashIndex(tk, 1)
	iAny := typekey.HashIndex(tk, typekey.AnyField)

	require.NotEqual(t, i0, i1)
	require.NotEqual(t, i0, iAny)
	require.NotEqual(t, i1, iAny)
}

func TestFunctionSignatureMatchesCallSignature(t *testing.T) {
	i32 := &ir.Type{Kind: ir.KindInt, BitWidth: 32}
	ptr := &ir.Type{Kind: ir.KindPointer, Elem: i32}
	ft := &ir.Type{Kind: ir.KindFunc, Ret: i32, Params: []*ir.Type{ptr}}
	f := ir.NewFunction(1, ft, "f")

	require.Equal(t, typekey.HashCallSignature(i32, []*ir.Type{ptr}), typekey.FunctionSignature(f))
}

func TestFunctionSignatureIgnoresVariadicFlag(t *testing.T) {
	i32 := &ir.Type{Kind: ir.KindInt, BitWidth: 32}
	fixed := ir.NewFunction(1, &ir.Type{Kind: ir.KindFunc, Ret: i32}, "fixed")
	variadic := ir.NewFunction(2, &ir.Type{Kind: ir.KindFunc, Ret: i32, Variadic: true}, "variadic")

	require.Equal(t, typekey.FunctionSignature(fixed), typekey.FunctionSignature(variadic),
		"func_sig hashes the return and parameter types only, like a call site's signature, so a variadic function shares its fixed-arity twin's signature")
}
