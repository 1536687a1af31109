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

// Package sigindex builds the signature index (spec section 4.3): for every
// address-taken, non-intrinsic function, a bucket keyed by its exact
// signature hash, plus the fuzzy-match fallback resolver used to seed layer
// 1 of MLTA and to answer resolve_by_signature queries directly.
package sigindex

import (
	"github.com/puzpuzpuz/xsync/v4"

	"github.com/aws/mlta-go/internal/funcutil"
	"github.com/aws/mlta-go/ir"
	"github.com/aws/mlta-go/typekey"
)

// FuncSet is a set of candidate callees, keyed by facade identity.
type FuncSet map[*ir.Function]bool

// Union adds every function in other to fs and returns fs.
func (fs FuncSet) Union(other FuncSet) FuncSet {
	return funcutil.Union(fs, other)
}

// Intersect returns a new set containing only functions present in both fs
// and other.
func (fs FuncSet) Intersect(other FuncSet) FuncSet {
	out := FuncSet{}
	for f := range fs {
		if other[f] {
			out[f] = true
		}
	}
	return out
}

// Index is sig_funcs: CSK -> set<FN> (spec section 3, item 1).
type Index struct {
	buckets map[typekey.Signature]FuncSet
}

// Build indexes every address-taken, non-intrinsic function across modules
// by its exact function signature hash.
func Build(modules []*ir.Module) *Index {
	idx := &Index{buckets: map[typekey.Signature]FuncSet{}}
	for _, m := range modules {
		for _, f := range m.AddressTakenFuncs() {
			sig := typekey.FunctionSignature(f)
			set, ok := idx.buckets[sig]
			if !ok {
				set = FuncSet{}
				idx.buckets[sig] = set
			}
			set[f] = true
		}
	}
	return idx
}

// Seed returns the address-taken functions whose signature hash exactly
// matches sig, used to seed layer 1 of find_callees_with_mlta.
func (idx *Index) Seed(sig typekey.Signature) FuncSet {
	if set, ok := idx.buckets[sig]; ok {
		return set
	}
	return FuncSet{}
}

// CallSite is the minimal view of an indirect call the fuzzy matcher and
// signature index need: the actual argument/return types observed at the
// call, independent of what the (unknown) callee declares.
type CallSite struct {
	Ret       *ir.Type
	Args      []*ir.Type
	InlineAsm bool
}

// FromCall extracts a CallSite from a facade Call instruction.
func FromCall(ci *ir.Call) CallSite {
	args := make([]*ir.Type, len(ci.Args))
	for i, a := range ci.Args {
		args[i] = a.Type()
	}
	return CallSite{Ret: ci.Type(), Args: args, InlineAsm: ci.InlineAsm}
}

// Sig returns call_sig(CI): the exact structural signature hash of the call
// site, used both to bucket into Index and to key the fuzzy-match cache.
func (cs CallSite) Sig() typekey.Signature { return typekey.HashCallSignature(cs.Ret, cs.Args) }

// Finder answers find_callees_with_type (spec section 4.3): the O(n) fuzzy
// scan over all address-taken functions, memoized by call signature. It is
// also the implementation behind MLTA.ResolveBySignature.
type Finder struct {
	addressTaken []*ir.Function
	ptrBits      int
	cache        *xsync.Map[typekey.Signature, FuncSet]
}

// NewFinder builds a fuzzy-match finder over every address-taken,
// non-intrinsic function across modules.
func NewFinder(modules []*ir.Module, ptrBits int) *Finder {
	var fns []*ir.Function
	for _, m := range modules {
		fns = append(fns, m.AddressTakenFuncs()...)
	}
	return &Finder{addressTaken: fns, ptrBits: ptrBits, cache: xsync.NewMap[typekey.Signature, FuncSet]()}
}

// FindCalleesWithType returns every address-taken function whose declared
// signature fuzzy-matches cs, memoized by cs.Sig().
func (f *Finder) FindCalleesWithType(cs CallSite) FuncSet {
	if cs.InlineAsm {
		return FuncSet{}
	}
	sig := cs.Sig()
	if cached, ok := f.cache.Load(sig); ok {
		return cached
	}

	result := FuncSet{}
	for _, fn := range f.addressTaken {
		if fn.Intrinsic {
			continue
		}
		ft := fn.Type()
		if ft == nil {
			continue
		}
		if !f.arityMatches(ft, cs) {
			continue
		}
		if !FuzzyMatch(ft.Ret, cs.Ret, f.ptrBits) {
			continue
		}
		matched := true
		n := len(cs.Args)
		if len(ft.Params) < n {
			n = len(ft.Params)
		}
		for i := 0; i < n; i++ {
			if !FuzzyMatch(ft.Params[i], cs.Args[i], f.ptrBits) {
				matched = false
				break
			}
		}
		if matched {
			result[fn] = true
		}
	}

	f.cache.Store(sig, result)
	return result
}

// arityMatches implements the vararg/arity rule of spec section 4.3: a
// vararg function only needs its fixed, positional arguments to match;
// otherwise the argument counts must be equal.
func (f *Finder) arityMatches(ft *ir.Type, cs CallSite) bool {
	if ft.Variadic {
		return len(cs.Args) >= len(ft.Params)
	}
	return len(ft.Params) == len(cs.Args)
}

// FuzzyMatch implements the structural-equivalence-with-wildcards comparison
// of spec section 4.2: identical types match; pointer pairs are peeled
// together and their pointees compared; named structs match by name;
// integers match by bit width; and a byte pointer or pointer-sized integer
// on either side is treated as a wildcard for any pointer or pointer-sized
// integer on the other. FuzzyMatch is symmetric by construction (every
// branch is written to consider both orderings of a, b).
func FuzzyMatch(a, b *ir.Type, ptrBits int) bool {
	if a == nil || b == nil {
		return a == b
	}
	if typekey.HashType(a) == typekey.HashType(b) {
		return true
	}
	if wildcardMatch(a, b, ptrBits) || wildcardMatch(b, a, ptrBits) {
		return true
	}

	for a.Kind == ir.KindPointer && b.Kind == ir.KindPointer {
		a, b = a.Elem, b.Elem
		if a == nil || b == nil {
			return a == b
		}
	}

	if a.Kind == ir.KindStruct && b.Kind == ir.KindStruct && a.Name != "" && a.Name == b.Name {
		return true
	}
	if a.Kind == ir.KindInt && b.Kind == ir.KindInt && a.BitWidth == b.BitWidth {
		return true
	}

	if wildcardMatch(a, b, ptrBits) || wildcardMatch(b, a, ptrBits) {
		return true
	}
	return false
}

// wildcardMatch reports whether x is a "general pointer" — a byte pointer
// (i8*) or a pointer-sized integer — that should be treated as equivalent to
// y being any pointer or pointer-sized integer.
func wildcardMatch(x, y *ir.Type, ptrBits int) bool {
	if !x.IsBytePointer() && !x.IsIntPointerSized(ptrBits) {
		return false
	}
	return y.Kind == ir.KindPointer || y.IsIntPointerSized(ptrBits)
}
