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

package llvmadapter

import (
	llvmconstant "github.com/llir/llvm/ir/constant"
	llvmir "github.com/llir/llvm/ir"

	"github.com/aws/mlta-go/ir"
)

// translateConstant translates a constant.Constant into the facade shape
// confine_in_initializer walks (spec section 4.4.1): structs and arrays
// become ConstantAggregate, a function or global reference resolves to its
// already-declared shell, casts become BitCast/PtrToInt over the underlying
// constant, and everything else collapses to an opaque ConstantData leaf.
func (b *builder) translateConstant(c llvmconstant.Constant) ir.Value {
	if out, ok := b.values[c]; ok {
		return out
	}

	switch x := c.(type) {
	case *llvmir.Func:
		// Declared up front by Translate; reaching here means a constant
		// expression referenced a function before Translate ran its
		// declare pass, which cannot happen given the two-pass structure.
		out := ir.NewConstantData(b.id(), b.translateType(x.Type()))
		b.values[c] = out
		return out

	case *llvmir.Global:
		out := ir.NewConstantData(b.id(), b.translateType(x.Type()))
		b.values[c] = out
		return out

	case *llvmconstant.Null:
		out := ir.NewConstantPointerNull(b.id(), b.translateType(x.Type()))
		b.values[c] = out
		return out

	case *llvmconstant.Struct:
		out := ir.NewConstantAggregate(b.id(), b.translateType(x.Type()))
		b.values[c] = out
		for _, f := range x.Fields {
			fv := b.translateConstant(f)
			out.Operands = append(out.Operands, fv)
			ir.AddUser(fv, out)
			b.markAddressTaken(fv)
		}
		return out

	case *llvmconstant.Array:
		out := ir.NewConstantAggregate(b.id(), b.translateType(x.Type()))
		b.values[c] = out
		for _, e := range x.Elems {
			ev := b.translateConstant(e)
			out.Operands = append(out.Operands, ev)
			ir.AddUser(ev, out)
			b.markAddressTaken(ev)
		}
		return out

	case *llvmconstant.ExprBitCast:
		from := b.translateConstant(x.From)
		out := ir.NewBitCast(b.id(), b.translateType(x.To), from)
		ir.AddUser(from, out)
		b.markAddressTaken(from)
		b.values[c] = out
		return out

	case *llvmconstant.ExprPtrToInt:
		from := b.translateConstant(x.From)
		out := ir.NewPtrToInt(b.id(), b.translateType(x.To), from)
		ir.AddUser(from, out)
		b.markAddressTaken(from)
		b.values[c] = out
		return out

	case *llvmconstant.ExprGetElementPtr:
		src := b.translateConstant(x.Src)
		out := ir.NewGEP(b.id(), b.translateType(x.Type()), b.translateType(x.ElemType), src)
		for _, idx := range x.Indices {
			out.Idx = append(out.Idx, b.translateGEPIndex(idx))
		}
		ir.AddUser(src, out)
		b.markAddressTaken(src)
		b.values[c] = out
		return out

	default:
		out := ir.NewConstantData(b.id(), b.translateType(c.Type()))
		b.values[c] = out
		return out
	}
}
