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

// confineInFunction runs confine_in_function (spec section 4.4.2) over every
// instruction of f: a function value stored through a pointer, or passed
// into a callee and then stored or cast there, is confined at every
// container layer its target location flows through.
func confineInFunction(f *ir.Function, w *layerwalk.Walker, s *staging) {
	for _, inst := range f.Blocks {
		switch x := inst.(type) {
		case *ir.Store:
			if fn, ok := stripCastsToFunction(x.Val); ok {
				confineTarget(w, s, x.Ptr, fn)
			}
		case *ir.Call:
			confineCallArgs(x, w, s)
		}
	}
}

// confineCallArgs handles the two call-site shapes spec section 4.4.2
// describes: a function-valued argument to an indirect call is confined at
// its own position, and a function-valued argument to a direct call is
// confined wherever the matching formal parameter is subsequently stored
// inside the callee (after passing through at most one bitcast).
func confineCallArgs(ci *ir.Call, w *layerwalk.Walker, s *staging) {
	callee, direct := ci.Callee.(*ir.Function)

	for idx, arg := range ci.Args {
		fn, ok := stripCastsToFunction(arg)
		if !ok {
			continue
		}
		if !direct {
			confineTarget(w, s, arg, fn)
			continue
		}
		if idx >= len(callee.Params) {
			continue
		}
		confineParamStores(callee.Params[idx], fn, w, s)
	}
}

func confineParamStores(param *ir.Argument, fn *ir.Function, w *layerwalk.Walker, s *staging) {
	for _, use := range param.Users() {
		switch u := use.(type) {
		case *ir.Store:
			if u.Val == param {
				confineTarget(w, s, u.Ptr, fn)
			}
		case *ir.BitCast:
			if u.Src == param {
				for _, use2 := range u.Users() {
					if st, ok := use2.(*ir.Store); ok && st.Val == u {
						confineTarget(w, s, st.Ptr, fn)
					}
				}
			}
		}
	}
}

// confineTarget implements confine_target(V, F) (spec section 4.4.2): walk
// V's base-type chain and record F at every layer it passes through; if the
// chain could not be proven complete, cap what it found (an empty chain
// caps F's own signature rather than a type, matching the original
// implementation's typeCapSet.insert(funcHash(F))).
func confineTarget(w *layerwalk.Walker, s *staging, v ir.Value, fn *ir.Function) {
	chain, complete, _ := w.GetBaseTypeChain(v)
	for _, layer := range chain {
		s.addTypeIdxFunc(layer.T, layer.I, fn)
	}
	if !complete && len(chain) == 0 {
		s.capSignature(typekey.FunctionSignature(fn))
	}
}

// stripCastsToFunction unwraps BitCast/PtrToInt casts to find an underlying
// facade Function value.
func stripCastsToFunction(v ir.Value) (*ir.Function, bool) {
	for {
		switch x := v.(type) {
		case *ir.Function:
			return x, true
		case *ir.BitCast:
			v = x.Src
		case *ir.PtrToInt:
			v = x.Src
		default:
			return nil, false
		}
	}
}
