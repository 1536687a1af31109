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

package resolver

import (
	"github.com/aws/mlta-go/ir"
	"github.com/aws/mlta-go/layerwalk"
	"github.com/aws/mlta-go/sigindex"
	"github.com/aws/mlta-go/typeflow"
	"github.com/aws/mlta-go/typekey"
)

// Site is everything ResolveIndirectCall needs about one call: the call
// instruction itself, the function it appears in (to recover that
// function's byte-pointer alias map), and that function's module data
// layout (to interpret alias-recovered GEP offsets).
type Site struct {
	Call   *ir.Call
	Func   *ir.Function
	Layout ir.DataLayout
}

// ResolveIndirectCall answers find_callees_with_mlta (spec section 4.8) for
// one indirect call site: seed from the signature index, then refine layer
// by layer through Callee's base-type chain, intersecting the candidate set
// at each layer and widening it first with that layer's propagation
// closure. Refinement stops early, keeping whatever candidates survived so
// far, once MaxLayers is reached or (in sound mode) a capped or escaped
// layer is reached.
func (m *MLTA) ResolveIndirectCall(site Site) sigindex.FuncSet {
	cs := sigindex.FromCall(site.Call)

	switch m.Mode {
	case NoIndirect:
		return sigindex.FuncSet{}
	case SignaturesOnly:
		return m.seedFuncs(cs)
	default:
		return m.refineWithLayers(site, cs, m.seedFuncs(cs))
	}
}

// ResolveBySignature answers resolve_by_signature directly from the
// signature index and its fuzzy-match fallback, without walking any layer.
func (m *MLTA) ResolveBySignature(cs sigindex.CallSite) sigindex.FuncSet {
	return m.seedFuncs(cs)
}

func (m *MLTA) seedFuncs(cs sigindex.CallSite) sigindex.FuncSet {
	if exact := m.sig.Seed(cs.Sig()); len(exact) > 0 {
		return exact
	}
	return m.finder.FindCalleesWithType(cs)
}

func (m *MLTA) refineWithLayers(site Site, cs sigindex.CallSite, seed sigindex.FuncSet) sigindex.FuncSet {
	_ = cs
	fs := seed

	alias := typeflow.CollectAliasStructPtr(site.Func)
	w := &layerwalk.Walker{
		Layout:         site.Layout,
		Alias:          alias,
		FieldSensitive: m.FieldSensitive,
		Sound:          m.Sound,
	}

	chain, _, _ := w.GetBaseTypeChain(site.Call.Callee)

	layer := 0
	for _, l := range chain {
		if layer >= m.MaxLayers {
			break
		}
		layer++

		tk := typekey.HashType(l.T)
		tik := typekey.HashIndex(tk, l.I)

		layerFuncs, ok := m.cache.Load(tik)
		if !ok {
			layerFuncs = m.tables.FuncsAt(tk, l.I)
			for _, dep := range m.tables.GetDependentTypes(tk, l.I) {
				layerFuncs = layerFuncs.Union(m.tables.FuncsAt(dep.T, dep.I))
			}
			m.cache.Store(tik, layerFuncs)
		}

		// find_callees_with_mlta intersects the current layer's own targets
		// into the result before it ever tests cap/escape, so a capped or
		// escaped layer still contributes its own narrowing (MLTA.cpp
		// 1098-1242); only the layers beyond it are given up on.
		fs = fs.Intersect(layerFuncs)

		if m.Sound && (m.tables.HasCap(l.T) || m.tables.HasEscaped(tk, l.I)) {
			break
		}
	}

	return fs
}
