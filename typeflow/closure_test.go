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
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aws/mlta-go/ir"
	"github.com/aws/mlta-go/layerwalk"
	"github.com/aws/mlta-go/typekey"
)

func TestPropGraphClosureFollowsChainOfEdges(t *testing.T) {
	a := &ir.Type{Kind: ir.KindStruct, Name: "struct.A"}
	b := &ir.Type{Kind: ir.KindStruct, Name: "struct.B"}
	c := &ir.Type{Kind: ir.KindStruct, Name: "struct.C"}

	edges := []propEdge{
		{from: layerwalk.Layer{T: a, I: 0}, to: layerwalk.Layer{T: b, I: 0}},
		{from: layerwalk.Layer{T: b, I: 0}, to: layerwalk.Layer{T: c, I: 0}},
	}
	g := buildPropGraph(edges)

	// A flows into B, which flows into C, so everything flows into C.
	closure := g.Closure(typekey.HashType(c), 0)
	require.Len(t, closure, 3, "Closure((C,0)) should reach C, B, and A")
}

func TestPropGraphClosureAlsoFollowsWildcardField(t *testing.T) {
	a := &ir.Type{Kind: ir.KindStruct, Name: "struct.A"}
	b := &ir.Type{Kind: ir.KindStruct, Name: "struct.B"}
	c := &ir.Type{Kind: ir.KindStruct, Name: "struct.C"}

	// (A,3) has its own direct edge (so the node exists at all), and
	// separately C flows into (A,-1): Closure((A,3)) must reach C too,
	// by hopping to the wildcard field after visiting (A,3).
	edges := []propEdge{
		{from: layerwalk.Layer{T: b, I: 0}, to: layerwalk.Layer{T: a, I: 3}},
		{from: layerwalk.Layer{T: c, I: 0}, to: layerwalk.Layer{T: a, I: typekey.AnyField}},
	}
	g := buildPropGraph(edges)

	closure := g.Closure(typekey.HashType(a), 3)
	require.Contains(t, closure, propKey{T: typekey.HashType(c), I: 0},
		"Closure((A,3)) should also follow (A,-1)'s edges")
}

func TestPropGraphDedupsRepeatedAndSelfEdges(t *testing.T) {
	a := &ir.Type{Kind: ir.KindStruct, Name: "struct.A"}
	edges := []propEdge{
		{from: layerwalk.Layer{T: a, I: 0}, to: layerwalk.Layer{T: a, I: 0}},
		{from: layerwalk.Layer{T: a, I: 0}, to: layerwalk.Layer{T: a, I: 0}},
	}
	g := buildPropGraph(edges)

	closure := g.Closure(typekey.HashType(a), 0)
	require.Len(t, closure, 1, "a self-loop should not expand the closure beyond the starting node")
}
