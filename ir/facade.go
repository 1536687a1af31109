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

package ir

// ValueID identifies a Value uniquely within the Module that owns it. IDs
// are assigned by the adapter that builds the facade; the core never
// constructs one, it only compares and maps on them.
type ValueID uint64

// Value is any operand in the facade: a function, a global, a constant, a
// basic-block argument, or the result of an instruction (void for Store,
// which has no result but still implements Value so it can appear in
// Users()).
type Value interface {
	// ID returns the stable identifier of this value, used as a map key by
	// every visited-set in the collector and the layer walker.
	ID() ValueID

	// Type returns the static type of the value.
	Type() *Type

	// Users returns every instruction or constant that uses this value as an
	// operand. Used by the layer walker to find a "bitcast user of the GEP"
	// and by the alias-recovery pass to find casts of an allocator result.
	Users() []Value
}

// base is embedded by every concrete Value in this package; it supplies the
// bookkeeping fields the facade needs (identity, type, use list) so that
// each kind only has to add the fields specific to it. This is the
// "tagged-variant" alternative to a class hierarchy described in the design
// notes: dispatch happens by type-switching on the concrete pointer types
// below, not through virtual methods.
type base struct {
	id    ValueID
	typ   *Type
	users []Value
}

func (b *base) ID() ValueID    { return b.id }
func (b *base) Type() *Type    { return b.typ }
func (b *base) Users() []Value { return b.users }

// NewBase constructs the embeddable identity/type/users triple. Adapters use
// this to build each concrete node; AddUser is called while wiring operands.
func NewBase(id ValueID, typ *Type) base { return base{id: id, typ: typ} }

// AddUser records that user references v as an operand. Adapters call this
// once per (value, user) edge while translating the source IR.
func AddUser(v Value, user Value) {
	switch x := v.(type) {
	case *Function:
		x.users = append(x.users, user)
	case *Argument:
		x.users = append(x.users, user)
	case *GlobalVariable:
		x.users = append(x.users, user)
	case *ConstantPointerNull:
		x.users = append(x.users, user)
	case *ConstantData:
		x.users = append(x.users, user)
	case *ConstantAggregate:
		x.users = append(x.users, user)
	case *GEP:
		x.users = append(x.users, user)
	case *Load:
		x.users = append(x.users, user)
	case *BitCast:
		x.users = append(x.users, user)
	case *PtrToInt:
		x.users = append(x.users, user)
	case *Unary:
		x.users = append(x.users, user)
	case *Phi:
		x.users = append(x.users, user)
	case *Select:
		x.users = append(x.users, user)
	case *Call:
		x.users = append(x.users, user)
	}
}

// Function is a non-intrinsic or intrinsic function definition/declaration.
// Its Type() is the function's own signature type (KindFunc: return type,
// parameter types, variadic flag), not a pointer-to-function type — the one
// facade convention that departs from LLVM's literal type system, chosen so
// package typekey can hash a function's signature directly off Type().
type Function struct {
	base
	Name         string
	Intrinsic    bool
	Declaration  bool
	Vararg       bool
	AddressTaken bool
	Params       []*Argument
	// Blocks holds every instruction in the function, in program order,
	// flattened across basic blocks: the resolver never needs block
	// structure, only instruction order within a function.
	Blocks []Instruction
}

// NewFunction constructs a Function; adapters fill Params and Blocks
// afterward since those may reference the function itself (recursion) or
// values not yet translated.
func NewFunction(id ValueID, sig *Type, name string) *Function {
	return &Function{base: NewBase(id, sig), Name: name}
}

// Argument is a formal parameter value.
type Argument struct {
	base
	Name  string
	Index int
}

// NewArgument constructs an Argument.
func NewArgument(id ValueID, typ *Type, name string, index int) *Argument {
	return &Argument{base: NewBase(id, typ), Name: name, Index: index}
}

// GlobalVariable is a module-level global. Init is nil for a declaration.
type GlobalVariable struct {
	base
	Name string
	Init Value
}

// NewGlobalVariable constructs a GlobalVariable with typ set to the
// global's value (pointee) type, per this package's facade convention.
func NewGlobalVariable(id ValueID, valueType *Type, name string) *GlobalVariable {
	return &GlobalVariable{base: NewBase(id, valueType), Name: name}
}

// ConstantPointerNull is LLVM's null pointer constant.
type ConstantPointerNull struct{ base }

// NewConstantPointerNull constructs a ConstantPointerNull of the given
// pointer type.
func NewConstantPointerNull(id ValueID, typ *Type) *ConstantPointerNull {
	return &ConstantPointerNull{base: NewBase(id, typ)}
}

// ConstantData is any opaque leaf constant: integers, floats, undef,
// constant strings, block addresses. The collector never needs to look
// inside it.
type ConstantData struct{ base }

// NewConstantData constructs a ConstantData leaf.
func NewConstantData(id ValueID, typ *Type) *ConstantData {
	return &ConstantData{base: NewBase(id, typ)}
}

// ConstantAggregate is a struct, array, or vector constant. Operands are
// the element constants in declaration order; a struct constant's operand
// count must equal its type's field count (checked by the collector, see
// spec section 4.4.1).
type ConstantAggregate struct {
	base
	Operands []Value
}

// NewConstantAggregate constructs a ConstantAggregate; adapters append to
// Operands directly after construction.
func NewConstantAggregate(id ValueID, typ *Type) *ConstantAggregate {
	return &ConstantAggregate{base: NewBase(id, typ)}
}

// Instruction is any Value produced by an instruction, plus generic operand
// access used by code that doesn't need to switch on the concrete kind
// (e.g. printing, or a generic "does this reach a Store" check).
type Instruction interface {
	Value
	Operands() []Value
}

// Index is one GEP index: either a compile-time constant or unknown (-1 in
// the wire-format sense of spec section 4.5, represented here as Const=false).
type Index struct {
	Const bool
	I     int64
}

// GEP computes the address of a field or element inside an aggregate.
// SourceType is the pointee type the indices are interpreted against (LLVM's
// "source element type" operand of getelementptr); PointerOp is the base
// pointer; Idx holds idx_0, idx_1, ... in source order.
type GEP struct {
	base
	SourceType *Type
	PointerOp  Value
	Idx        []Index
}

func (g *GEP) Operands() []Value { return []Value{g.PointerOp} }

// NewGEP constructs a GEP; adapters set Idx directly after construction.
func NewGEP(id ValueID, resultType, sourceType *Type, ptrOp Value) *GEP {
	return &GEP{base: NewBase(id, resultType), SourceType: sourceType, PointerOp: ptrOp}
}

// Load reads through a pointer.
type Load struct {
	base
	Ptr Value
}

func (l *Load) Operands() []Value { return []Value{l.Ptr} }

// NewLoad constructs a Load.
func NewLoad(id ValueID, typ *Type, ptr Value) *Load {
	return &Load{base: NewBase(id, typ), Ptr: ptr}
}

// Store writes Val through Ptr. Store's own Type() is always nil (LLVM
// stores have no result); it still satisfies Value so it can be recorded as
// a "user" and so completeness checks in the layer walker can recognize
// "this value is the pointer operand of a Store" (spec section 4.6, step 3).
type Store struct {
	base
	Ptr Value
	Val Value
}

func (s *Store) Operands() []Value { return []Value{s.Ptr, s.Val} }

// NewStore constructs a Store. id only needs to be unique; a Store has no
// result, but still needs an identity to serve as a map key in visited sets.
func NewStore(id ValueID, ptr, val Value) *Store {
	return &Store{base: NewBase(id, nil), Ptr: ptr, Val: val}
}

// BitCast reinterprets a value as another type without changing bits.
type BitCast struct {
	base
	Src Value
}

func (c *BitCast) Operands() []Value { return []Value{c.Src} }

// NewBitCast constructs a BitCast.
func NewBitCast(id ValueID, typ *Type, src Value) *BitCast {
	return &BitCast{base: NewBase(id, typ), Src: src}
}

// PtrToInt converts a pointer to an integer; used to recognize a function
// address stored as an integer (spec section 4.4.1).
type PtrToInt struct {
	base
	Src Value
}

func (c *PtrToInt) Operands() []Value { return []Value{c.Src} }

// NewPtrToInt constructs a PtrToInt.
func NewPtrToInt(id ValueID, typ *Type, src Value) *PtrToInt {
	return &PtrToInt{base: NewBase(id, typ), Src: src}
}

// Unary covers every other single-operand instruction the walker treats
// uniformly by recursing on its one operand (sign/zero extension,
// truncation, address-space casts, and so on).
type Unary struct {
	base
	X Value
}

func (u *Unary) Operands() []Value { return []Value{u.X} }

// NewUnary constructs a Unary.
func NewUnary(id ValueID, typ *Type, x Value) *Unary {
	return &Unary{base: NewBase(id, typ), X: x}
}

// Phi joins values along incoming control-flow edges.
type Phi struct {
	base
	Incoming []Value
}

func (p *Phi) Operands() []Value { return p.Incoming }

// NewPhi constructs a Phi; adapters append to Incoming directly after
// construction, once every incoming block has been translated.
func NewPhi(id ValueID, typ *Type) *Phi {
	return &Phi{base: NewBase(id, typ)}
}

// Select picks True or False based on a condition the walker does not track.
// Per spec section 4.5 the walker only ever recurses into True.
type Select struct {
	base
	True  Value
	False Value
}

func (s *Select) Operands() []Value { return []Value{s.True, s.False} }

// NewSelect constructs a Select.
func NewSelect(id ValueID, typ *Type, trueVal, falseVal Value) *Select {
	return &Select{base: NewBase(id, typ), True: trueVal, False: falseVal}
}

// Call invokes Callee (a *Function for a direct call, anything else for an
// indirect call) with Args.
type Call struct {
	base
	Callee    Value
	Args      []Value
	InlineAsm bool
}

func (c *Call) Operands() []Value { return append([]Value{c.Callee}, c.Args...) }

// NewCall constructs a Call; adapters append to Args directly after
// construction.
func NewCall(id ValueID, typ *Type, callee Value, inlineAsm bool) *Call {
	return &Call{base: NewBase(id, typ), Callee: callee, InlineAsm: inlineAsm}
}

// IsIndirect reports whether the call's target is not a statically named
// function: exactly the calls resolve_indirect_call is asked about.
func (c *Call) IsIndirect() bool {
	_, ok := c.Callee.(*Function)
	return !ok
}

// DataLayout answers the one query the layer walker needs beyond structural
// type information: converting a byte offset into a type into a sequence of
// structural indices, used for alias-recovered GEPs (spec section 4.5,
// "byte-pointer alias recovery").
type DataLayout interface {
	// IndicesForOffset returns the structural index path from the start of a
	// value of type ty to the field or element at byteOffset (field/element
	// indices only, with no leading pointer-step index), or ok=false if the
	// offset does not land exactly on a field/element boundary.
	IndicesForOffset(ty *Type, byteOffset int64) (indices []int64, ok bool)

	// PointerBits is the bit width of a pointer under this layout, used for
	// the "integer pointer" fuzzy-match wildcard (spec section 4.2).
	PointerBits() int

	// SizeOf returns the storage size in bytes of a value of type ty under
	// this layout, used to turn a GEP's leading (element-count) index into a
	// byte offset before alias-recovered index reinterpretation.
	SizeOf(ty *Type) int64
}

// Module is a single translation unit: its functions, globals, and the data
// layout its GEP/alias-recovery computations must use.
type Module struct {
	Name      string
	Functions []*Function
	Globals   []*GlobalVariable
	Layout    DataLayout
}

// AddressTakenFuncs returns every non-intrinsic function in the module whose
// address is taken somewhere in the program (the seed set for the signature
// index, spec section 4.3).
func (m *Module) AddressTakenFuncs() []*Function {
	var fns []*Function
	for _, f := range m.Functions {
		if f.AddressTaken && !f.Intrinsic {
			fns = append(fns, f)
		}
	}
	return fns
}
