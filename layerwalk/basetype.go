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

// BaseType computes the single-layer base type of v (spec section 4.6): if
// v's own type is already composite, or a pointer to a composite, that type
// is the answer directly. Otherwise it consults the walker's alias map, and
// failing that recurses through the one operand of a BitCast, the True arm
// of a Select, every incoming value of a Phi, or the pointer operand of a
// Load, stopping (nil) on anything else or a revisited value.
func (w *Walker) BaseType(v ir.Value) *ir.Type {
	return w.baseType(v, map[ir.ValueID]bool{})
}

func (w *Walker) baseType(v ir.Value, visited map[ir.ValueID]bool) *ir.Type {
	if v == nil || visited[v.ID()] {
		return nil
	}
	visited[v.ID()] = true

	if t := staticBaseType(v); t != nil {
		return t
	}
	if t, ok := w.Alias.Recover(v); ok {
		return t
	}

	switch x := v.(type) {
	case *ir.BitCast:
		return w.baseType(x.Src, visited)
	case *ir.Select:
		return w.baseType(x.True, visited)
	case *ir.Phi:
		for _, inc := range x.Incoming {
			if t := w.baseType(inc, cloneVisited(visited)); t != nil {
				return t
			}
		}
		return nil
	case *ir.Load:
		return w.baseType(x.Ptr, visited)
	default:
		return nil
	}
}

// staticBaseType handles the two cases that need no walking at all: a value
// whose static type is itself composite (the facade's convention for
// GlobalVariable.Type(), which reports the pointee directly), or a value
// whose static type is a pointer to a composite (Argument and every
// instruction result that carries a real pointer type).
func staticBaseType(v ir.Value) *ir.Type {
	t := v.Type()
	if t == nil {
		return nil
	}
	if t.IsComposite() {
		return t
	}
	if t.Kind == ir.KindPointer && t.Elem.IsComposite() {
		return t.Elem
	}
	return nil
}

// isIncomplete reports whether a base-type-chain walk that stopped at v
// should be treated as unsound (spec section 4.6, step 4): v is nil, a
// pointer-typed Argument (an unconstrained caller-supplied pointer), or the
// pointer operand of some Store (a value that escapes into memory the walk
// cannot see back out of).
func isIncomplete(v ir.Value) bool {
	if v == nil {
		return true
	}
	if arg, ok := v.(*ir.Argument); ok {
		t := arg.Type()
		return t != nil && t.Kind == ir.KindPointer
	}
	for _, u := range v.Users() {
		if st, ok := u.(*ir.Store); ok && st.Ptr == v {
			return true
		}
	}
	return false
}
