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
	"github.com/aws/mlta-go/sigindex"
)

var i32 = &ir.Type{Kind: ir.KindInt, BitWidth: 32}

type stubLayout struct{}

func (stubLayout) PointerBits() int { return 64 }
func (stubLayout) SizeOf(ty *ir.Type) int64 {
	if ty != nil && ty.Kind == ir.KindInt {
		return int64((ty.BitWidth + 7) / 8)
	}
	return 8
}
func (stubLayout) IndicesForOffset(ty *ir.Type, byteOffset int64) ([]int64, bool) {
	if byteOffset == 0 {
		return []int64{}, true
	}
	return nil, false
}

// buildDispatchTableScenario builds a program with a two-field function
// pointer table (struct.Ops), a target function stored at field 1, a decoy
// function of the same signature that is never stored into the table, and
// an indirect call reading field 1 back out of the table. This is the
// classic case MLTA is built to disambiguate: a signature-only resolution
// cannot tell target and decoy apart, but the layer walk back through the
// GEP that loaded the callee can.
func buildDispatchTableScenario() (mod *ir.Module, call *ir.Call, mainFn *ir.Function) {
	fnPtr := &ir.Type{Kind: ir.KindPointer, Elem: &ir.Type{Kind: ir.KindFunc, Ret: i32}}
	s := &ir.Type{Kind: ir.KindStruct, Name: "struct.Ops", Fields: []*ir.Type{fnPtr, fnPtr}}

	ops := ir.NewGlobalVariable(1, s, "ops")

	target := ir.NewFunction(2, &ir.Type{Kind: ir.KindFunc, Ret: i32}, "target")
	target.AddressTaken = true
	decoy := ir.NewFunction(3, &ir.Type{Kind: ir.KindFunc, Ret: i32}, "decoy")
	decoy.AddressTaken = true

	storeGEP := ir.NewGEP(4, &ir.Type{Kind: ir.KindPointer, Elem: s.Fields[1]}, s, ops)
	storeGEP.Idx = []ir.Index{{Const: true, I: 0}, {Const: true, I: 1}}
	store := ir.NewStore(5, storeGEP, target)

	initFn := ir.NewFunction(6, &ir.Type{Kind: ir.KindFunc}, "init")
	initFn.Blocks = []ir.Instruction{storeGEP, store}

	loadGEP := ir.NewGEP(7, &ir.Type{Kind: ir.KindPointer, Elem: s.Fields[1]}, s, ops)
	loadGEP.Idx = []ir.Index{{Const: true, I: 0}, {Const: true, I: 1}}
	load := ir.NewLoad(8, s.Fields[1], loadGEP)
	call = ir.NewCall(9, i32, load, false)

	mainFn = ir.NewFunction(10, &ir.Type{Kind: ir.KindFunc, Ret: i32}, "main")
	mainFn.Blocks = []ir.Instruction{loadGEP, load, call}

	mod = &ir.Module{
		Functions: []*ir.Function{target, decoy, initFn, mainFn},
		Globals:   []*ir.GlobalVariable{ops},
		Layout:    stubLayout{},
	}
	return mod, call, mainFn
}

func TestResolveIndirectCallNoIndirectAlwaysUnresolved(t *testing.T) {
	mod, call, mainFn := buildDispatchTableScenario()
	m := resolver.New(resolver.NoIndirect, true, false, 0, 64)
	require.NoError(t, m.Collect(context.Background(), []*ir.Module{mod}))

	got := m.ResolveIndirectCall(resolver.Site{Call: call, Func: mainFn, Layout: stubLayout{}})
	require.Empty(t, got, "NoIndirect mode should never resolve a callee")
}

func TestResolveIndirectCallSignaturesOnlyCannotDistinguishDecoy(t *testing.T) {
	mod, call, mainFn := buildDispatchTableScenario()
	m := resolver.New(resolver.SignaturesOnly, true, false, 0, 64)
	require.NoError(t, m.Collect(context.Background(), []*ir.Module{mod}))

	got := m.ResolveIndirectCall(resolver.Site{Call: call, Func: mainFn, Layout: stubLayout{}})
	require.Len(t, got, 2, "signature-only resolution over two same-signature address-taken functions should return both")
}

func TestResolveIndirectCallFullMLTANarrowsToStoredTarget(t *testing.T) {
	mod, call, mainFn := buildDispatchTableScenario()
	m := resolver.New(resolver.FullMLTA, true, false, 0, 64)
	require.NoError(t, m.Collect(context.Background(), []*ir.Module{mod}))

	got := m.ResolveIndirectCall(resolver.Site{Call: call, Func: mainFn, Layout: stubLayout{}})
	require.Len(t, got, 1, "full MLTA should narrow the call down to the single function actually stored at field 1")
	for f := range got {
		require.Equal(t, "target", f.Name)
	}
}

func TestResolveBySignatureIgnoresLayerWalk(t *testing.T) {
	mod, call, _ := buildDispatchTableScenario()
	m := resolver.New(resolver.FullMLTA, true, false, 0, 64)
	require.NoError(t, m.Collect(context.Background(), []*ir.Module{mod}))

	got := m.ResolveBySignature(sigindex.FromCall(call))
	require.Len(t, got, 2, "ResolveBySignature should answer from the signature index alone, ignoring the layer walk")
}
