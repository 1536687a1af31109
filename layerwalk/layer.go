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

// Package layerwalk walks a value backward through the instructions that
// produced it to recover the sequence of (container type, field index)
// layers it flowed through: next_layer_base_type and base_type of spec
// section 4.5/4.6, and the completeness rule of section 4.6 used by
// confine_target. It is the one piece of the algorithm shared verbatim by
// both collection (package typeflow) and resolution (package resolver).
package layerwalk

import "github.com/aws/mlta-go/ir"

// Layer is one (container type, field index) pair discovered while walking
// back through a GEP chain. I is 0 when field sensitivity is off, and -1
// (typekey.AnyField) when the index was not a compile-time constant.
type Layer struct {
	T *ir.Type
	I int
}

// AliasMap recovers the composite type a byte-pointer value (typically an
// allocator call result) is known to have been cast to elsewhere in its
// function: alias_struct_ptr of spec section 4.4.4, simplified to store the
// recovered type directly rather than the cast value it was derived from,
// since the type is all any caller ever needs from it.
type AliasMap map[ir.ValueID]*ir.Type

// Recover looks up the composite type v was aliased to, if any.
func (m AliasMap) Recover(v ir.Value) (*ir.Type, bool) {
	if m == nil || v == nil {
		return nil, false
	}
	t, ok := m[v.ID()]
	return t, ok
}

// CapSink receives a type whose deeper layers should be treated as
// untrusted because the walk that reached it could not prove it complete.
// Implemented by package typeflow's Tables.
type CapSink interface {
	CapType(t *ir.Type)
}

// Walker holds the configuration next_layer_base_type and base_type need:
// the data layout for alias-recovered index reinterpretation, the
// per-function alias map, and the two mode flags from spec section 6
// (FieldSensitive, Sound).
type Walker struct {
	Layout         ir.DataLayout
	Alias          AliasMap
	FieldSensitive bool
	Sound          bool
	Cap            CapSink
}

func cloneVisited(v map[ir.ValueID]bool) map[ir.ValueID]bool {
	out := make(map[ir.ValueID]bool, len(v))
	for k, ok := range v {
		out[k] = ok
	}
	return out
}
