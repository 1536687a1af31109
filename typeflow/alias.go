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

// CollectAliasStructPtr runs collect_alias_struct_ptr (spec section 4.4.4)
// over one function: every BitCast of a byte-pointer call result (the shape
// a generic allocator's return value takes before the caller narrows it to
// a concrete type) to a pointer-to-struct type recovers that struct type
// for the call result's identity, for use by base_type and by GEPs whose
// leading index is non-zero. A call result cast to two different struct
// types is ambiguous and is dropped from the map. Exported so package
// resolver can build the same per-function alias view at resolution time
// without re-running the rest of collection.
func CollectAliasStructPtr(f *ir.Function) layerwalk.AliasMap {
	alias := layerwalk.AliasMap{}
	conflicted := map[ir.ValueID]bool{}
	for _, inst := range f.Blocks {
		bc, ok := inst.(*ir.BitCast)
		if !ok {
			continue
		}
		if _, isCall := bc.Src.(*ir.Call); !isCall {
			continue
		}
		srcT := bc.Src.Type()
		if srcT == nil || !srcT.IsBytePointer() {
			continue
		}
		dstT := bc.Type()
		if dstT == nil || dstT.Kind != ir.KindPointer || dstT.Elem == nil || dstT.Elem.Kind != ir.KindStruct {
			continue
		}
		id := bc.Src.ID()
		if conflicted[id] {
			continue
		}
		if prev, seen := alias[id]; seen && typekey.HashType(prev) != typekey.HashType(dstT.Elem) {
			delete(alias, id)
			conflicted[id] = true
			continue
		}
		alias[id] = dstT.Elem
	}
	return alias
}
