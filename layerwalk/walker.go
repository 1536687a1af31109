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

package layerwalk

import "github.com/aws/mlta-go/ir"

// NextLayerBaseType computes the single backward step of spec section 4.5:
// given a value v, it returns the layers exposed by that step (empty for
// anything but a GEP), the value to continue the walk from, and whether the
// step succeeded at all. Argument, a value already visited this walk, or
// anything not handled below reports ok=false and leaves the caller's
// current value as the walk's stopping point.
func (w *Walker) NextLayerBaseType(v ir.Value, visited map[ir.ValueID]bool) (layers []Layer, next ir.Value, ok bool) {
	if v == nil {
		return nil, nil, false
	}
	if _, isArg := v.(*ir.Argument); isArg {
		return nil, nil, false
	}
	if visited[v.ID()] {
		return nil, nil, false
	}
	visited[v.ID()] = true

	switch x := v.(type) {
	case *ir.GEP:
		return w.walkGEP(x)
	case *ir.Load:
		return w.NextLayerBaseType(x.Ptr, visited)
	case *ir.BitCast:
		return w.NextLayerBaseType(x.Src, visited)
	case *ir.Phi:
		for _, inc := range x.Incoming {
			if ls, nv, ok := w.NextLayerBaseType(inc, cloneVisited(visited)); ok {
				return ls, nv, ok
			}
		}
		return nil, nil, false
	case *ir.Select:
		return w.NextLayerBaseType(x.True, visited)
	case *ir.Unary:
		return w.NextLayerBaseType(x.X, visited)
	default:
		return nil, nil, false
	}
}

// walkGEP implements the GEP case of next_layer_base_type.
func (w *Walker) walkGEP(g *ir.GEP) ([]Layer, ir.Value, bool) {
	if len(g.Idx) == 0 {
		return nil, g.PointerOp, true
	}

	idx0 := g.Idx[0]
	ety := g.SourceType

	if idx0.Const && idx0.I != 0 {
		if recovered, ok := w.Alias.Recover(g.PointerOp); ok && w.Layout != nil {
			byteOffset := idx0.I * w.Layout.SizeOf(ety)
			if indices, ok := w.Layout.IndicesForOffset(recovered, byteOffset); ok {
				return w.layersFromOffsets(recovered, indices), g.PointerOp, true
			}
		} else if ety.Kind == ir.KindStruct && w.Sound {
			if _, has := bitcastUserPointee(g); has {
				// Downcast GEP with no alias recovery: bail rather than guess.
				return nil, nil, false
			}
		}
	}

	layers, final := w.layersFromIndices(ety, g.Idx[1:])

	if final != nil && final.Kind == ir.KindStruct && len(final.Fields) > 0 {
		if pointee, has := bitcastUserPointee(g); has && sameShape(final.Fields[0], pointee) {
			layers = append([]Layer{{T: final, I: 0}}, layers...)
		}
	}

	return layers, g.PointerOp, true
}

// layersFromIndices walks idxs (positions 1..N of a GEP) starting at start,
// recording (container type, index) at each step before descending, and
// prepending each new layer to the accumulated list per spec section 4.5.
func (w *Walker) layersFromIndices(start *ir.Type, idxs []ir.Index) ([]Layer, *ir.Type) {
	var layers []Layer
	cur := start
	for _, idx := range idxs {
		if cur == nil {
			break
		}
		rec := -1
		if idx.Const {
			rec = int(idx.I)
		}
		if !w.FieldSensitive {
			rec = 0
		}
		layers = append([]Layer{{T: cur, I: rec}}, layers...)
		if idx.Const {
			cur = cur.FieldType(int(idx.I))
		} else {
			cur = cur.FieldType(0)
		}
	}
	return layers, cur
}

// layersFromOffsets is layersFromIndices for the constant index path
// produced by an alias-recovered offset reinterpretation. Unlike a GEP's own
// index list, ir.DataLayout.IndicesForOffset returns field/element selectors
// only, with no leading base-pointer step, so every entry is recorded.
func (w *Walker) layersFromOffsets(start *ir.Type, idxs []int64) []Layer {
	var layers []Layer
	cur := start
	for _, i := range idxs {
		if cur == nil {
			break
		}
		rec := int(i)
		if !w.FieldSensitive {
			rec = 0
		}
		layers = append([]Layer{{T: cur, I: rec}}, layers...)
		cur = cur.FieldType(int(i))
	}
	return layers
}

// bitcastUserPointee returns the pointee type of a BitCast user of v, if v
// has one: the "bitcast user of the GEP" referenced twice in spec 4.5.
func bitcastUserPointee(v ir.Value) (*ir.Type, bool) {
	for _, u := range v.Users() {
		if bc, ok := u.(*ir.BitCast); ok {
			t := bc.Type()
			if t != nil && t.Kind == ir.KindPointer && t.Elem != nil {
				return t.Elem, true
			}
		}
	}
	return nil, false
}

// sameShape is a cheap structural-equality check used only to compare a
// struct's first field against a bitcast pointee; it does not need the full
// aliasing rules FuzzyMatch applies to call sites.
func sameShape(a, b *ir.Type) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind != b.Kind {
		return false
	}
	if a.Kind == ir.KindStruct {
		return a.Name != "" && a.Name == b.Name
	}
	return true
}
