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

package sigindex_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aws/mlta-go/ir"
	"github.com/aws/mlta-go/sigindex"
)

var (
	i8      = &ir.Type{Kind: ir.KindInt, BitWidth: 8}
	i32     = &ir.Type{Kind: ir.KindInt, BitWidth: 32}
	i64     = &ir.Type{Kind: ir.KindInt, BitWidth: 64}
	bytePtr = &ir.Type{Kind: ir.KindPointer, Elem: i8}
	i32Ptr  = &ir.Type{Kind: ir.KindPointer, Elem: i32}
)

func addressTakenFunc(id ir.ValueID, name string, ft *ir.Type) *ir.Function {
	f := ir.NewFunction(id, ft, name)
	f.AddressTaken = true
	return f
}

func TestBuildSeedsExactSignature(t *testing.T) {
	ft := &ir.Type{Kind: ir.KindFunc, Ret: i32, Params: []*ir.Type{i32Ptr}}
	f := addressTakenFunc(1, "handler", ft)
	m := &ir.Module{Functions: []*ir.Function{f}}

	idx := sigindex.Build([]*ir.Module{m})
	cs := sigindex.CallSite{Ret: i32, Args: []*ir.Type{i32Ptr}}

	require.True(t, idx.Seed(cs.Sig())[f], "Seed(cs.Sig()) did not return the address-taken function with the matching signature")
}

func TestFuzzyMatchBytePointerWildcard(t *testing.T) {
	require.True(t, sigindex.FuzzyMatch(bytePtr, i32Ptr, 64), "a byte pointer should fuzzy-match any other pointer type")
	require.True(t, sigindex.FuzzyMatch(i32Ptr, bytePtr, 64), "FuzzyMatch must be symmetric")
	require.False(t, sigindex.FuzzyMatch(i32, i64, 64), "integers of different bit widths should not fuzzy-match")
}

func TestFuzzyMatchIntPointerSizedWildcard(t *testing.T) {
	require.True(t, sigindex.FuzzyMatch(bytePtr, i64, 64), "a byte pointer should fuzzy-match a pointer-sized integer")
}

func TestFuzzyMatchIntPointerSizedWildcardAsSourceSide(t *testing.T) {
	require.True(t, sigindex.FuzzyMatch(i64, i32Ptr, 64),
		"a pointer-sized integer on the source side should fuzzy-match any pointer, not just when it's the target side")
	require.True(t, sigindex.FuzzyMatch(i32Ptr, i64, 64), "FuzzyMatch must be symmetric")
	require.False(t, sigindex.FuzzyMatch(i32, i32Ptr, 64),
		"an integer that is not pointer-sized must not wildcard-match a pointer")
}

func TestFuzzyMatchNamedStructByName(t *testing.T) {
	a := &ir.Type{Kind: ir.KindStruct, Name: "struct.S", Fields: []*ir.Type{i32}}
	b := &ir.Type{Kind: ir.KindStruct, Name: "struct.S", Fields: []*ir.Type{i64}}
	require.True(t, sigindex.FuzzyMatch(a, b, 64), "named structs with the same name should fuzzy-match regardless of field layout")
}

func TestFindCalleesWithTypeRespectsArity(t *testing.T) {
	fixed := addressTakenFunc(1, "fixed", &ir.Type{Kind: ir.KindFunc, Ret: i32, Params: []*ir.Type{i32}})
	variadic := addressTakenFunc(2, "variadic", &ir.Type{Kind: ir.KindFunc, Ret: i32, Params: []*ir.Type{i32}, Variadic: true})
	m := &ir.Module{Functions: []*ir.Function{fixed, variadic}}

	finder := sigindex.NewFinder([]*ir.Module{m}, 64)
	cs := sigindex.CallSite{Ret: i32, Args: []*ir.Type{i32, i32}}

	result := finder.FindCalleesWithType(cs)
	require.False(t, result[fixed], "a fixed-arity function must not match a call with more arguments than parameters")
	require.True(t, result[variadic], "a variadic function should match a call supplying extra arguments beyond its fixed parameters")
}

func TestFindCalleesWithTypeSkipsInlineAsm(t *testing.T) {
	fn := addressTakenFunc(1, "f", &ir.Type{Kind: ir.KindFunc, Ret: i32})
	m := &ir.Module{Functions: []*ir.Function{fn}}
	finder := sigindex.NewFinder([]*ir.Module{m}, 64)

	result := finder.FindCalleesWithType(sigindex.CallSite{Ret: i32, InlineAsm: true})
	require.Empty(t, result, "an inline-asm call site should never resolve to any callee")
}
