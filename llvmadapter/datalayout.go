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
	"strconv"
	"strings"

	llvmir "github.com/llir/llvm/ir"

	"github.com/aws/mlta-go/ir"
)

// dataLayout answers the byte-offset and size queries the walker needs
// (spec section 4.5's "byte-pointer alias recovery"), derived from the
// module's data layout string. It does not model per-field alignment
// padding: struct field offsets are the sum of preceding fields' sizes,
// which is exact for the packed, pointer-and-pointer-sized-int heavy
// aggregates this resolver actually walks, and only ever a source of
// imprecision (a missed offset match), never unsoundness.
type dataLayout struct {
	ptrBits int
}

func newDataLayout(b *builder, m *llvmir.Module) ir.DataLayout {
	return &dataLayout{ptrBits: parsePointerBits(m.DataLayout)}
}

// parsePointerBits looks for an "p:<size>:..." or "p0:<size>:..." spec in an
// LLVM data layout string and returns the pointer size in bits, defaulting
// to 64 (every target this resolver has been pointed at so far is LP64).
func parsePointerBits(layout string) int {
	for _, spec := range strings.Split(layout, "-") {
		if !strings.HasPrefix(spec, "p") {
			continue
		}
		fields := strings.Split(spec, ":")
		if len(fields) < 2 || (fields[0] != "p" && fields[0] != "p0") {
			continue
		}
		if bits, err := strconv.Atoi(fields[1]); err == nil {
			return bits
		}
	}
	return 64
}

func (d *dataLayout) PointerBits() int { return d.ptrBits }

// SizeOf returns the storage size in bytes of ty, ignoring alignment padding
// (see the dataLayout doc comment).
func (d *dataLayout) SizeOf(ty *ir.Type) int64 {
	if ty == nil {
		return 0
	}
	switch ty.Kind {
	case ir.KindInt:
		return int64((ty.BitWidth + 7) / 8)
	case ir.KindPointer:
		return int64(d.ptrBits / 8)
	case ir.KindArray, ir.KindVector:
		return int64(ty.Len) * d.SizeOf(ty.Elem)
	case ir.KindStruct:
		var total int64
		for _, f := range ty.Fields {
			total += d.SizeOf(f)
		}
		return total
	default:
		return 0
	}
}

// IndicesForOffset walks ty's fields/elements to find the structural index
// path landing exactly on byteOffset, the inverse of the offset arithmetic
// walkGEP performs when recovering a bitcast alias's true struct type.
func (d *dataLayout) IndicesForOffset(ty *ir.Type, byteOffset int64) ([]int64, bool) {
	if byteOffset == 0 {
		return []int64{}, true
	}
	if ty == nil {
		return nil, false
	}
	switch ty.Kind {
	case ir.KindStruct:
		var cur int64
		for i, f := range ty.Fields {
			size := d.SizeOf(f)
			if byteOffset < cur+size {
				sub, ok := d.IndicesForOffset(f, byteOffset-cur)
				if !ok {
					return nil, false
				}
				return append([]int64{int64(i)}, sub...), true
			}
			cur += size
		}
		return nil, false
	case ir.KindArray, ir.KindVector:
		elemSize := d.SizeOf(ty.Elem)
		if elemSize <= 0 {
			return nil, false
		}
		idx := byteOffset / elemSize
		if idx >= int64(ty.Len) {
			return nil, false
		}
		sub, ok := d.IndicesForOffset(ty.Elem, byteOffset%elemSize)
		if !ok {
			return nil, false
		}
		return append([]int64{idx}, sub...), true
	default:
		return nil, false
	}
}
