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
	llvmvalue "github.com/llir/llvm/ir/value"

	"github.com/aws/mlta-go/ir"
)

// translateInstruction declares and immediately wires one instruction; it
// is only correct for instructions with no forward-referencing operand
// (everything but Phi, which loop back-edges can reference before its
// facade shell exists). fillFunction relies on def-before-use order for a
// straight-line scan and special-cases Phi via declarePhi, whose incoming
// operands are wired by a pending closure that Translate runs afterwards.
func (b *builder) translateInstruction(inst llvmvalue.Value) ir.Value {
	switch x := inst.(type) {
	case *llvmir.InstGetElementPtr:
		return b.translateGEP(x)
	case *llvmir.InstLoad:
		v := ir.NewLoad(b.id(), b.translateType(x.Type()), b.translateValue(x.Src))
		ir.AddUser(v.Ptr, v)
		b.values[x] = v
		return v
	case *llvmir.InstStore:
		ptr := b.translateValue(x.Dst)
		val := b.translateValue(x.Src)
		v := ir.NewStore(b.id(), ptr, val)
		ir.AddUser(ptr, v)
		ir.AddUser(val, v)
		b.markAddressTaken(val)
		b.values[x] = v
		return v
	case *llvmir.InstBitCast:
		src := b.translateValue(x.From)
		v := ir.NewBitCast(b.id(), b.translateType(x.To), src)
		ir.AddUser(src, v)
		b.markAddressTaken(src)
		b.values[x] = v
		return v
	case *llvmir.InstPtrToInt:
		src := b.translateValue(x.From)
		v := ir.NewPtrToInt(b.id(), b.translateType(x.To), src)
		ir.AddUser(src, v)
		b.markAddressTaken(src)
		b.values[x] = v
		return v
	case *llvmir.InstPhi:
		return b.declarePhi(x)
	case *llvmir.InstSelect:
		cond := b.translateValue(x.Cond)
		t := b.translateValue(x.X)
		f := b.translateValue(x.Y)
		v := ir.NewSelect(b.id(), b.translateType(x.Type()), t, f)
		_ = cond // the walker never inspects the condition
		ir.AddUser(t, v)
		ir.AddUser(f, v)
		b.values[x] = v
		return v
	case *llvmir.InstCall:
		return b.translateCall(x)
	default:
		return b.translateUnary(inst)
	}
}

// translateGEP handles a getelementptr instruction. The llvm.memcpy
// intrinsic is not lowered here: translateCall synthesizes it directly as a
// Store for propagateInFunction.
func (b *builder) translateGEP(x *llvmir.InstGetElementPtr) ir.Value {
	ptr := b.translateValue(x.Src)
	v := ir.NewGEP(b.id(), b.translateType(x.Type()), b.translateType(x.ElemType), ptr)
	for _, idx := range x.Indices {
		v.Idx = append(v.Idx, b.translateGEPIndex(idx))
	}
	ir.AddUser(ptr, v)
	b.values[x] = v
	return v
}

func (b *builder) translateGEPIndex(v llvmvalue.Value) ir.Index {
	if ci, ok := v.(*llvmconstant.Int); ok {
		return ir.Index{Const: true, I: ci.X.Int64()}
	}
	return ir.Index{Const: false}
}

// translateUnary covers every single-operand instruction the walker treats
// uniformly: sign/zero extension, truncation, address-space casts, and
// anything else llir/llvm exposes as a one-operand instruction this
// resolver does not need to distinguish.
func (b *builder) translateUnary(inst llvmvalue.Value) ir.Value {
	type unaryOperand interface{ Operand() llvmvalue.Value }
	uo, ok := inst.(unaryOperand)
	if !ok {
		v := ir.NewConstantData(b.id(), b.translateType(inst.Type()))
		b.values[inst] = v
		return v
	}
	src := b.translateValue(uo.Operand())
	v := ir.NewUnary(b.id(), b.translateType(inst.Type()), src)
	ir.AddUser(src, v)
	b.values[inst] = v
	return v
}

func (b *builder) declarePhi(x *llvmir.InstPhi) *ir.Phi {
	v := ir.NewPhi(b.id(), b.translateType(x.Type()))
	b.values[x] = v
	b.pending = append(b.pending, func() {
		for _, inc := range x.Incs {
			val := b.translateValue(inc.X)
			v.Incoming = append(v.Incoming, val)
			ir.AddUser(val, v)
		}
	})
	return v
}

// translateCall lowers a Call instruction, except for llvm.memcpy* and
// llvm.memmove*, which propagateInFunction wants to see as a plain Store
// from the source pointer into the destination pointer (spec section
// 4.4.3's "memcpy modeled as Store").
func (b *builder) translateCall(x *llvmir.InstCall) ir.Value {
	if name, ok := calleeIntrinsicName(x.Callee); ok && isMemcpyLike(name) && len(x.Args) >= 2 {
		dst := b.translateValue(x.Args[0])
		src := b.translateValue(x.Args[1])
		v := ir.NewStore(b.id(), dst, src)
		ir.AddUser(dst, v)
		ir.AddUser(src, v)
		b.values[x] = v
		return v
	}

	callee := b.translateValue(x.Callee)
	v := ir.NewCall(b.id(), b.translateType(x.Type()), callee, false)
	for _, a := range x.Args {
		arg := b.translateValue(a)
		v.Args = append(v.Args, arg)
		ir.AddUser(arg, v)
		b.markAddressTaken(arg)
	}
	if _, direct := callee.(*ir.Function); !direct {
		b.markAddressTaken(callee)
	}
	b.values[x] = v
	return v
}

func calleeIntrinsicName(v llvmvalue.Value) (string, bool) {
	if f, ok := v.(*llvmir.Func); ok {
		return f.GlobalName, isIntrinsic(f.GlobalName)
	}
	return "", false
}

func isMemcpyLike(name string) bool {
	return len(name) > 11 && (name[:11] == "llvm.memcpy" || name[:12] == "llvm.memmove")
}

// translateValue resolves an operand to its facade Value, translating a
// constant on first use and caching it, or returning the already-declared
// shell for a global, function, parameter, or earlier instruction.
func (b *builder) translateValue(v llvmvalue.Value) ir.Value {
	if out, ok := b.values[v]; ok {
		return out
	}
	if c, ok := v.(llvmconstant.Constant); ok {
		return b.translateConstant(c)
	}
	// An instruction referenced before it was translated: reached when the
	// operand's defining instruction comes later in block order than its
	// use. The operand becomes an opaque ConstantData leaf.
	out := ir.NewConstantData(b.id(), b.translateType(v.Type()))
	b.values[v] = out
	return out
}
