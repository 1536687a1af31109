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

package typeflow

import (
	"fmt"

	"github.com/aws/mlta-go/ir"
)

// containerRef records that some value sits at index Index inside Container,
// the state confine_in_initializer climbs back through once it finds a
// function (spec section 4.4.1).
type containerRef struct {
	Container *ir.ConstantAggregate
	Index     int
}

// initWalker descends a global's initializer constant tree looking for
// function values, address-taken by way of a struct or array field rather
// than a direct address-of. It implements ir.Visitor so the descent reuses
// the same tagged-dispatch idiom as the rest of the facade instead of a
// bespoke type switch.
type initWalker struct {
	ir.NoopVisitor

	s              *staging
	global         *ir.GlobalVariable
	fieldSensitive bool

	containers map[ir.ValueID]containerRef
	visited    map[ir.ValueID]bool

	// container/index describe the aggregate slot the value currently being
	// identified occupies; they follow the value through any chain of
	// BitCast/PtrToInt unwrapping before a function is found or the walk
	// gives up.
	container *ir.ConstantAggregate
	index     int
}

// confineInInitializer runs confine_in_initializer over one global's
// initializer, recording every function reachable through it into
// typeidx_funcs and vtable_funcs.
func confineInInitializer(g *ir.GlobalVariable, opts Options, s *staging) {
	agg, ok := g.Init.(*ir.ConstantAggregate)
	if !ok {
		return
	}
	w := &initWalker{
		s:              s,
		global:         g,
		fieldSensitive: opts.FieldSensitive,
		containers:     map[ir.ValueID]containerRef{},
		visited:        map[ir.ValueID]bool{},
	}
	w.walk(agg)
}

func (w *initWalker) walk(agg *ir.ConstantAggregate) {
	if w.visited[agg.ID()] {
		return
	}
	w.visited[agg.ID()] = true

	if agg.Type().Kind == ir.KindStruct && len(agg.Operands) != agg.Type().FieldCount() {
		panic(fmt.Sprintf("mlta: struct constant %q has %d operands but its type has %d fields",
			agg.Type().Name, len(agg.Operands), agg.Type().FieldCount()))
	}

	for idx, operand := range agg.Operands {
		if operand == nil {
			continue
		}
		w.containers[operand.ID()] = containerRef{Container: agg, Index: idx}
		w.identify(operand, agg, idx)
	}
}

func (w *initWalker) identify(v ir.Value, container *ir.ConstantAggregate, idx int) {
	w.container, w.index = container, idx
	ir.Dispatch(w, v)
}

func (w *initWalker) DoFunction(f *ir.Function) { w.foundFunction(f) }

func (w *initWalker) DoConstantAggregate(agg *ir.ConstantAggregate) { w.walk(agg) }

func (w *initWalker) DoPtrToInt(c *ir.PtrToInt) {
	if f, ok := c.Src.(*ir.Function); ok {
		w.foundFunction(f)
		return
	}
	w.identify(c.Src, w.container, w.index)
}

func (w *initWalker) DoBitCast(c *ir.BitCast) {
	if f, ok := c.Src.(*ir.Function); ok {
		w.foundFunction(f)
		if w.container == nil || w.container.Type().Kind != ir.KindStruct {
			w.s.addVTableFunc(w.global.ID(), f)
		}
		return
	}
	w.identify(c.Src, w.container, w.index)
}

func (w *initWalker) DoGlobalVariable(g *ir.GlobalVariable) {
	// A pointer-typed operand referencing another global: the facade
	// convention makes g.Type() the pointee type directly. Deeper structure
	// behind the reference is only visible when that global's own
	// initializer is walked (the top-level collection loop does this for
	// every global independently), so here we only cap the pointee type.
	if pointee := g.Type(); pointee != nil && pointee.Kind == ir.KindStruct {
		w.s.CapType(pointee)
	}
}

func (w *initWalker) foundFunction(f *ir.Function) {
	visited := map[ir.ValueID]bool{}
	container, idx := w.container, w.index
	for container != nil && !visited[container.ID()] {
		visited[container.ID()] = true
		rec := idx
		if !w.fieldSensitive {
			rec = 0
		}
		w.s.addTypeIdxFunc(container.Type(), rec, f)
		ref, ok := w.containers[container.ID()]
		if !ok {
			break
		}
		container, idx = ref.Container, ref.Index
	}
}
