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
	"github.com/aws/mlta-go/ir"
	"github.com/aws/mlta-go/layerwalk"
	"github.com/aws/mlta-go/typekey"
)

// propagateInFunction runs propagate_in_function (spec section 4.4.3) over
// every Store in f. The byte-copy intrinsic memcpy is not a distinct facade
// kind: package llvmadapter lowers memcpy(dst, src, len) directly into a
// synthetic Store{Ptr: dst, Val: src}, so it falls out of this same loop for
// free ("memcpy modeled as Store").
func propagateInFunction(f *ir.Function, w *layerwalk.Walker, s *staging) {
	for _, inst := range f.Blocks {
		st, ok := inst.(*ir.Store)
		if !ok {
			continue
		}
		propagateStore(st.Ptr, st.Val, w, s)
	}
}

func propagateStore(po, vo ir.Value, w *layerwalk.Walker, s *staging) {
	vt := vo.Type()
	if vt == nil {
		return
	}
	if !vt.IsComposite() && vt.Kind != ir.KindPointer {
		return
	}

	if layers, _, ok := w.NextLayerBaseType(vo, map[ir.ValueID]bool{}); ok && len(layers) > 0 {
		for _, l := range layers {
			propagate(po, l.T, l.I, w, s)
		}
		return
	}

	if t := w.BaseType(vo); t != nil {
		propagate(po, t, typekey.AnyField, w, s)
		return
	}

	if vt.Kind == ir.KindPointer && vt.Elem != nil && vt.Elem.Kind == ir.KindFunc {
		propagate(po, vt, typekey.AnyField, w, s)
		return
	}

	escape(po, w, s)
}

// propagate records that the layer (fromT, fromI) flows into every layer of
// po's own base-type chain, adding an edge to typeidx_prop for each; if
// po's chain cannot be proven complete, the source layer is additionally
// marked escaped, since it may end up reachable from outside the visible
// program structure.
func propagate(po ir.Value, fromT *ir.Type, fromI int, w *layerwalk.Walker, s *staging) {
	chain, complete, _ := w.GetBaseTypeChain(po)
	for _, l := range chain {
		s.addPropEdge(fromT, fromI, l.T, l.I)
	}
	if !complete {
		s.addEscape(fromT, fromI)
	}
}

// escape marks every layer of v's base-type chain as escaped: v itself
// carries no recoverable structure (an opaque pointer of unknown
// provenance), so nothing that flows into it can be trusted either.
func escape(v ir.Value, w *layerwalk.Walker, s *staging) {
	chain, _, _ := w.GetBaseTypeChain(v)
	for _, l := range chain {
		s.addEscape(l.T, l.I)
	}
}
