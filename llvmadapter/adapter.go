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

// Package llvmadapter translates a github.com/llir/llvm module into the
// facade defined by package ir. It is the only package in this module that
// imports llir/llvm: every translation risk (a field renamed, an
// instruction shape assumed different from the real library) is confined
// here, never leaking into the resolver core, which is written against the
// facade alone.
package llvmadapter

import (
	llvmir "github.com/llir/llvm/ir"
	llvmtypes "github.com/llir/llvm/ir/types"
	llvmvalue "github.com/llir/llvm/ir/value"

	"github.com/aws/mlta-go/ir"
)

// builder holds the translation state for one module: the value/type
// identity maps that let every reference to the same llir/llvm value or
// type resolve to the same facade node, and a queue of operand-wiring work
// deferred until every function and global has a facade node (so forward
// references resolve correctly).
type builder struct {
	nextID ir.ValueID

	values map[llvmvalue.Value]ir.Value
	types  map[llvmtypes.Type]*ir.Type

	addressTaken map[*llvmir.Func]bool

	pending []func()
}

// Translate converts an llir/llvm module into a facade Module.
func Translate(m *llvmir.Module) *ir.Module {
	b := &builder{
		values:       map[llvmvalue.Value]ir.Value{},
		types:        map[llvmtypes.Type]*ir.Type{},
		addressTaken: map[*llvmir.Func]bool{},
	}

	out := &ir.Module{Name: m.SourceFilename}
	out.Layout = newDataLayout(b, m)

	globals := make([]*ir.GlobalVariable, len(m.Globals))
	for i, g := range m.Globals {
		globals[i] = b.declareGlobal(g)
	}
	out.Globals = globals

	funcs := make([]*ir.Function, len(m.Funcs))
	for i, f := range m.Funcs {
		funcs[i] = b.declareFunction(f)
	}
	out.Functions = funcs

	for i, g := range m.Globals {
		b.fillGlobal(globals[i], g)
	}
	for i, f := range m.Funcs {
		b.fillFunction(funcs[i], f)
	}
	for _, run := range b.pending {
		run()
	}
	for i, f := range m.Funcs {
		funcs[i].AddressTaken = b.addressTaken[f]
	}

	return out
}

func (b *builder) id() ir.ValueID {
	b.nextID++
	return b.nextID
}

// markAddressTaken records that fn's address escaped into something other
// than the direct-callee slot of a Call, the facade's AddressTaken flag
// (llir/llvm keeps no such bit itself).
func (b *builder) markAddressTaken(v ir.Value) {
	if fn, ok := v.(*ir.Function); ok {
		for f, out := range b.values {
			if out == fn {
				if llvmFn, ok := f.(*llvmir.Func); ok {
					b.addressTaken[llvmFn] = true
				}
			}
		}
	}
}

func (b *builder) translateType(t llvmtypes.Type) *ir.Type {
	if t == nil {
		return nil
	}
	if cached, ok := b.types[t]; ok {
		return cached
	}
	out := &ir.Type{}
	b.types[t] = out

	switch x := t.(type) {
	case *llvmtypes.IntType:
		out.Kind = ir.KindInt
		out.BitWidth = int(x.BitSize)
	case *llvmtypes.PointerType:
		out.Kind = ir.KindPointer
		out.Elem = b.translateType(x.ElemType)
	case *llvmtypes.StructType:
		out.Kind = ir.KindStruct
		out.Name = x.TypeName
		for _, f := range x.Fields {
			out.Fields = append(out.Fields, b.translateType(f))
		}
	case *llvmtypes.ArrayType:
		out.Kind = ir.KindArray
		out.Len = int(x.Len)
		out.Elem = b.translateType(x.ElemType)
	case *llvmtypes.VectorType:
		out.Kind = ir.KindVector
		out.Len = int(x.Len)
		out.Elem = b.translateType(x.ElemType)
	case *llvmtypes.FuncType:
		out.Kind = ir.KindFunc
		out.Ret = b.translateType(x.RetType)
		out.Variadic = x.Variadic
		for _, p := range x.Params {
			out.Params = append(out.Params, b.translateType(p))
		}
	default:
		out.Kind = ir.KindOther
	}
	return out
}

func (b *builder) declareGlobal(g *llvmir.Global) *ir.GlobalVariable {
	out := ir.NewGlobalVariable(b.id(), b.translateType(g.ContentType), g.GlobalName)
	b.values[g] = out
	return out
}

func (b *builder) fillGlobal(out *ir.GlobalVariable, g *llvmir.Global) {
	if g.Init != nil {
		out.Init = b.translateConstant(g.Init)
		b.markAddressTaken(out.Init)
	}
}

func (b *builder) declareFunction(f *llvmir.Func) *ir.Function {
	sig := b.translateType(f.Sig)
	out := ir.NewFunction(b.id(), sig, f.GlobalName)
	out.Declaration = len(f.Blocks) == 0
	out.Vararg = f.Sig.Variadic
	out.Intrinsic = isIntrinsic(f.GlobalName)

	for i, p := range f.Params {
		arg := ir.NewArgument(b.id(), b.translateType(p.Type()), p.LocalName, i)
		out.Params = append(out.Params, arg)
		b.values[p] = arg
	}
	b.values[f] = out
	return out
}

func (b *builder) fillFunction(out *ir.Function, f *llvmir.Func) {
	for _, block := range f.Blocks {
		for _, inst := range block.Insts {
			if v := b.translateInstruction(inst); v != nil {
				out.Blocks = append(out.Blocks, v)
			}
		}
	}
}

func isIntrinsic(name string) bool {
	return len(name) > 5 && name[:5] == "llvm."
}
