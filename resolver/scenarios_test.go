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

package resolver_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aws/mlta-go/ir"
	"github.com/aws/mlta-go/resolver"
)

// buildMemcpyScenario builds two differently-named, same-shape struct types,
// SrcOps and DstOps, each holding one function-pointer field. real is
// confined under SrcOps by a direct field store; a whole-struct copy (the
// byte-copy intrinsic memcpy, lowered by package llvmadapter to a plain
// Store of src into dst) then carries that confinement across into DstOps
// without ever storing into DstOps's field directly. Resolving the call
// therefore depends entirely on GetDependentTypes widening DstOps's field-0
// layer with whatever flows into it from SrcOps.
func buildMemcpyScenario() (mod *ir.Module, call *ir.Call, mainFn *ir.Function) {
	fnPtr := &ir.Type{Kind: ir.KindPointer, Elem: &ir.Type{Kind: ir.KindFunc, Ret: i32}}
	srcT := &ir.Type{Kind: ir.KindStruct, Name: "struct.SrcOps", Fields: []*ir.Type{fnPtr}}
	dstT := &ir.Type{Kind: ir.KindStruct, Name: "struct.DstOps", Fields: []*ir.Type{fnPtr}}

	src := ir.NewGlobalVariable(1, srcT, "src")
	dst := ir.NewGlobalVariable(2, dstT, "dst")

	real := ir.NewFunction(3, &ir.Type{Kind: ir.KindFunc, Ret: i32}, "real")
	real.AddressTaken = true

	storeGEP := ir.NewGEP(4, &ir.Type{Kind: ir.KindPointer, Elem: fnPtr}, srcT, src)
	storeGEP.Idx = []ir.Index{{Const: true, I: 0}, {Const: true, I: 0}}
	fieldStore := ir.NewStore(5, storeGEP, real)

	initFn := ir.NewFunction(6, &ir.Type{Kind: ir.KindFunc}, "init")
	initFn.Blocks = []ir.Instruction{storeGEP, fieldStore}

	copyStore := ir.NewStore(7, dst, src)
	copyFn := ir.NewFunction(8, &ir.Type{Kind: ir.KindFunc}, "copy_ops")
	copyFn.Blocks = []ir.Instruction{copyStore}

	loadGEP := ir.NewGEP(9, &ir.Type{Kind: ir.KindPointer, Elem: fnPtr}, dstT, dst)
	loadGEP.Idx = []ir.Index{{Const: true, I: 0}, {Const: true, I: 0}}
	load := ir.NewLoad(10, fnPtr, loadGEP)
	call = ir.NewCall(11, i32, load, false)

	mainFn = ir.NewFunction(12, &ir.Type{Kind: ir.KindFunc, Ret: i32}, "main")
	mainFn.Blocks = []ir.Instruction{loadGEP, load, call}

	mod = &ir.Module{
		Functions: []*ir.Function{real, initFn, copyFn, mainFn},
		Globals:   []*ir.GlobalVariable{src, dst},
		Layout:    stubLayout{},
	}
	return mod, call, mainFn
}

func TestResolveIndirectCallWidensThroughMemcpyPropagation(t *testing.T) {
	mod, call, mainFn := buildMemcpyScenario()
	m := resolver.New(resolver.FullMLTA, true, false, 0, 64)
	require.NoError(t, m.Collect(context.Background(), []*ir.Module{mod}))

	got := m.ResolveIndirectCall(resolver.Site{Call: call, Func: mainFn, Layout: stubLayout{}})
	require.Len(t, got, 1, "a function confined only under the memcpy source type should still be found by reading the destination type back through GetDependentTypes")
	for f := range got {
		require.Equal(t, "real", f.Name)
	}
}

// buildAnyFieldArrayScenario stores real into a function-pointer array at a
// non-constant index, so confinement can only record it at the array's
// AnyField (wildcard) layer. The call site then reads a fixed, constant
// slot of the same array; resolving it depends on FuncsAt unioning a
// concrete field query with the type's AnyField bucket.
func buildAnyFieldArrayScenario() (mod *ir.Module, call *ir.Call, mainFn *ir.Function) {
	fnPtr := &ir.Type{Kind: ir.KindPointer, Elem: &ir.Type{Kind: ir.KindFunc, Ret: i32}}
	arrT := &ir.Type{Kind: ir.KindArray, Elem: fnPtr, Len: 4}

	arr := ir.NewGlobalVariable(1, arrT, "arr")

	real := ir.NewFunction(2, &ir.Type{Kind: ir.KindFunc, Ret: i32}, "real")
	real.AddressTaken = true

	storeGEP := ir.NewGEP(3, &ir.Type{Kind: ir.KindPointer, Elem: fnPtr}, arrT, arr)
	storeGEP.Idx = []ir.Index{{Const: true, I: 0}, {Const: false}}
	store := ir.NewStore(4, storeGEP, real)

	initFn := ir.NewFunction(5, &ir.Type{Kind: ir.KindFunc}, "init")
	initFn.Blocks = []ir.Instruction{storeGEP, store}

	loadGEP := ir.NewGEP(6, &ir.Type{Kind: ir.KindPointer, Elem: fnPtr}, arrT, arr)
	loadGEP.Idx = []ir.Index{{Const: true, I: 0}, {Const: true, I: 2}}
	load := ir.NewLoad(7, fnPtr, loadGEP)
	call = ir.NewCall(8, i32, load, false)

	mainFn = ir.NewFunction(9, &ir.Type{Kind: ir.KindFunc, Ret: i32}, "main")
	mainFn.Blocks = []ir.Instruction{loadGEP, load, call}

	mod = &ir.Module{
		Functions: []*ir.Function{real, initFn, mainFn},
		Globals:   []*ir.GlobalVariable{arr},
		Layout:    stubLayout{},
	}
	return mod, call, mainFn
}

func TestResolveIndirectCallFindsFunctionConfinedAtAnyField(t *testing.T) {
	mod, call, mainFn := buildAnyFieldArrayScenario()
	m := resolver.New(resolver.FullMLTA, true, false, 0, 64)
	require.NoError(t, m.Collect(context.Background(), []*ir.Module{mod}))

	got := m.ResolveIndirectCall(resolver.Site{Call: call, Func: mainFn, Layout: stubLayout{}})
	require.Len(t, got, 1, "a function confined at the array's dynamic-index (AnyField) layer should still resolve a fixed-index read of the same array")
	for f := range got {
		require.Equal(t, "real", f.Name)
	}
}
