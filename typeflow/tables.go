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

// Package typeflow builds the type-flow tables of spec section 3 by
// confinement (section 4.4.1/4.4.2), propagation (4.4.3), and byte-pointer
// alias recovery (4.4.4): typeidx_funcs, type_cap, type_escape,
// vtable_funcs, typeidx_prop, and alias_struct_ptr. Package resolver reads
// the result but never mutates it.
package typeflow

import (
	"sync"

	"github.com/aws/mlta-go/ir"
	"github.com/aws/mlta-go/layerwalk"
	"github.com/aws/mlta-go/sigindex"
	"github.com/aws/mlta-go/typekey"
)

// Tables is the merged, read-only result of a Collect run: every table spec
// section 3 lists except sig_funcs, which package sigindex owns on its own,
// alias_struct_ptr, which CollectAliasStructPtr builds per function on
// demand, and the resolution cache, which package resolver keeps.
type Tables struct {
	TypeIdxFuncs map[typekey.Index]sigindex.FuncSet
	TypeCap      map[uint64]bool
	TypeEscape   map[typekey.Index]bool
	VTableFuncs  map[ir.ValueID]sigindex.FuncSet
	Prop         *PropGraph

	// FieldIndex records, per type, every field index a function was ever
	// confined at (including typekey.AnyField). FuncsAt uses it to answer an
	// AnyField query by unioning across every field bucket a type actually
	// has, since typekey.Index is a one-way hash and can't be enumerated
	// back from a *ir.Type otherwise.
	FieldIndex map[typekey.Type]map[int]bool
}

// HasCap reports whether type ty was recorded as capped.
func (t *Tables) HasCap(ty *ir.Type) bool {
	return t.TypeCap[uint64(typekey.HashType(ty))]
}

// HasEscaped reports whether the (type, field) pair (ty, i) was recorded as
// escaping the program's static structure. Escaping at the type's AnyField
// bucket escapes every field of it, matching type_escape[(T,-1)] in
// get_targets_with_layer (spec section 4.7/4.8): an incomplete store or copy
// through the type poisons any field it might have landed on.
func (t *Tables) HasEscaped(ty typekey.Type, i int) bool {
	if t.TypeEscape[typekey.HashIndex(ty, i)] {
		return true
	}
	if i == typekey.AnyField {
		return false
	}
	return t.TypeEscape[typekey.HashIndex(ty, typekey.AnyField)]
}

// FuncsAt returns the functions recorded at layer (ty, i), unioned with the
// type's AnyField bucket (spec section 4.7/4.8's get_targets_with_layer: a
// concrete field query also picks up whatever an incomplete/escaping store
// confined at the type's wildcard field). Querying with i == AnyField
// instead unions across every field bucket the type was ever recorded
// under. The returned set is always freshly allocated, never a live
// reference into the table, so callers may safely mutate it (e.g. via
// FuncSet.Union) without corrupting Tables.
func (t *Tables) FuncsAt(ty typekey.Type, i int) sigindex.FuncSet {
	out := sigindex.FuncSet{}
	merge := func(idx int) {
		for f := range t.TypeIdxFuncs[typekey.HashIndex(ty, idx)] {
			out[f] = true
		}
	}
	if i == typekey.AnyField {
		for idx := range t.FieldIndex[ty] {
			merge(idx)
		}
		return out
	}
	merge(i)
	merge(typekey.AnyField)
	return out
}

// VTableFuncsAt returns the functions recorded in the vtable-shaped constant
// rooted at global gv, or an empty set.
func (t *Tables) VTableFuncsAt(gv ir.ValueID) sigindex.FuncSet {
	if fs, ok := t.VTableFuncs[gv]; ok {
		return fs
	}
	return sigindex.FuncSet{}
}

// staging accumulates one module's contribution to the tables so that concurrent collectors never share
// mutable state; CollectAll merges every staging into the final Tables
// under a single lock once all of them finish.
type staging struct {
	typeIdxFuncs map[typekey.Index]sigindex.FuncSet
	typeCap      map[uint64]bool
	typeEscape   map[typekey.Index]bool
	vtableFuncs  map[ir.ValueID]sigindex.FuncSet
	fieldIndex   map[typekey.Type]map[int]bool
	propEdges    []propEdge
}

func newStaging() *staging {
	return &staging{
		typeIdxFuncs: map[typekey.Index]sigindex.FuncSet{},
		typeCap:      map[uint64]bool{},
		typeEscape:   map[typekey.Index]bool{},
		vtableFuncs:  map[ir.ValueID]sigindex.FuncSet{},
		fieldIndex:   map[typekey.Type]map[int]bool{},
	}
}

func (s *staging) addTypeIdxFunc(t *ir.Type, i int, f *ir.Function) {
	if t == nil {
		return
	}
	tk := typekey.HashType(t)
	tik := typekey.HashIndex(tk, i)
	set, ok := s.typeIdxFuncs[tik]
	if !ok {
		set = sigindex.FuncSet{}
		s.typeIdxFuncs[tik] = set
	}
	set[f] = true

	fields, ok := s.fieldIndex[tk]
	if !ok {
		fields = map[int]bool{}
		s.fieldIndex[tk] = fields
	}
	fields[i] = true
}

// CapType implements layerwalk.CapSink.
func (s *staging) CapType(t *ir.Type) {
	if t == nil {
		return
	}
	s.typeCap[uint64(typekey.HashType(t))] = true
}

func (s *staging) capSignature(sig typekey.Signature) {
	s.typeCap[uint64(sig)] = true
}

func (s *staging) addEscape(t *ir.Type, i int) {
	if t == nil {
		return
	}
	s.typeEscape[typekey.HashIndex(typekey.HashType(t), i)] = true
}

func (s *staging) addVTableFunc(gv ir.ValueID, f *ir.Function) {
	set, ok := s.vtableFuncs[gv]
	if !ok {
		set = sigindex.FuncSet{}
		s.vtableFuncs[gv] = set
	}
	set[f] = true
}

func (s *staging) addPropEdge(fromT *ir.Type, fromI int, toT *ir.Type, toI int) {
	if fromT == nil || toT == nil {
		return
	}
	s.propEdges = append(s.propEdges, propEdge{
		from: layerwalk.Layer{T: fromT, I: fromI},
		to:   layerwalk.Layer{T: toT, I: toI},
	})
}

// merge folds s into the shared Tables. Called once per staging, under mu.
func mergeStaging(dst *Tables, mu *sync.Mutex, s *staging) {
	mu.Lock()
	defer mu.Unlock()

	for tik, set := range s.typeIdxFuncs {
		existing, ok := dst.TypeIdxFuncs[tik]
		if !ok {
			dst.TypeIdxFuncs[tik] = set
			continue
		}
		existing.Union(set)
	}
	for k, v := range s.typeCap {
		if v {
			dst.TypeCap[k] = true
		}
	}
	for k, v := range s.typeEscape {
		if v {
			dst.TypeEscape[k] = true
		}
	}
	for gv, set := range s.vtableFuncs {
		existing, ok := dst.VTableFuncs[gv]
		if !ok {
			dst.VTableFuncs[gv] = set
			continue
		}
		existing.Union(set)
	}
	for tk, fields := range s.fieldIndex {
		existing, ok := dst.FieldIndex[tk]
		if !ok {
			dst.FieldIndex[tk] = fields
			continue
		}
		for i := range fields {
			existing[i] = true
		}
	}
}
