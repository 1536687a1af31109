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
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"

	"github.com/aws/mlta-go/layerwalk"
	"github.com/aws/mlta-go/typekey"
)

// propEdge is one directed edge recorded by propagate() before the final
// graph is built: a value flowed from layer `from` to layer `to`.
type propEdge struct {
	from, to layerwalk.Layer
}

// propKey identifies a node of the propagation graph: a (type, field)
// layer, hashed so the graph never has to compare *ir.Type pointers across
// modules.
type propKey struct {
	T typekey.Type
	I int
}

type propNode int64

func (n propNode) ID() int64 { return int64(n) }

type propEdgeImpl struct{ f, t propNode }

func (e propEdgeImpl) From() graph.Node         { return e.f }
func (e propEdgeImpl) To() graph.Node           { return e.t }
func (e propEdgeImpl) ReversedEdge() graph.Edge { return propEdgeImpl{e.t, e.f} }

// PropGraph is typeidx_prop (spec section 3, item 3): a directed graph over
// (type, field) layers, built once from every propagate() edge recorded
// during collection, and queried by get_dependent_types (section 4.7) via
// BreadthFirst-style closure.
type PropGraph struct {
	g      *simple.DirectedGraph
	idOf   map[propKey]int64
	keyOf  map[int64]propKey
	nextID int64
}

func newPropGraph() *PropGraph {
	return &PropGraph{g: simple.NewDirectedGraph(), idOf: map[propKey]int64{}, keyOf: map[int64]propKey{}}
}

func (p *PropGraph) nodeID(k propKey) int64 {
	if id, ok := p.idOf[k]; ok {
		return id
	}
	id := p.nextID
	p.nextID++
	p.idOf[k] = id
	p.keyOf[id] = k
	p.g.AddNode(propNode(id))
	return id
}

// buildPropGraph assembles the final graph from every edge recorded across
// every collector's staging. Building it once, after collection, avoids
// making simple.DirectedGraph itself concurrency-safe.
//
// propagate() records (from, to) meaning "from flows into to" (source,
// dest), matching typeIdxPropMap[dest][idx] ∋ source in the original: the
// map is keyed by the destination layer and holds the sources that flow
// into it. get_dependent_types(dest) must return those sources, and Closure
// finds them by walking graph successors from the query node, so the graph
// edge stored here runs dest -> source, the reverse of the propEdge itself.
func buildPropGraph(edges []propEdge) *PropGraph {
	p := newPropGraph()
	for _, e := range edges {
		fk := propKey{typekey.HashType(e.from.T), e.from.I}
		tk := propKey{typekey.HashType(e.to.T), e.to.I}
		fid, tid := p.nodeID(fk), p.nodeID(tk)
		if fid == tid || p.g.HasEdgeFromTo(tid, fid) {
			continue
		}
		p.g.SetEdge(propEdgeImpl{f: propNode(tid), t: propNode(fid)})
	}
	return p
}

// Closure returns every (type, field) layer that flows into (t, i) by
// following propagation edges, additionally following the wildcard-field
// edges of a type at every node visited: spec section 4.7's "also follow
// (type_key(T), -1) edges at every step."
func (p *PropGraph) Closure(t typekey.Type, i int) []propKey {
	start := propKey{t, i}
	id, ok := p.idOf[start]
	if !ok {
		return nil
	}

	visited := map[int64]bool{}
	queue := []int64{id}
	var order []propKey

	enqueue := func(k propKey) {
		if wid, ok := p.idOf[k]; ok && !visited[wid] {
			queue = append(queue, wid)
		}
	}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if visited[cur] {
			continue
		}
		visited[cur] = true
		key := p.keyOf[cur]
		order = append(order, key)

		it := p.g.From(cur)
		for it.Next() {
			nid := it.Node().ID()
			if !visited[nid] {
				queue = append(queue, nid)
			}
		}
		if key.I != typekey.AnyField {
			enqueue(propKey{key.T, typekey.AnyField})
		}
	}
	return order
}

// DepLayer is one (type, field) layer returned by GetDependentTypes: a
// source layer whose confined functions must widen the query layer's
// result, per get_targets_with_layer's dependent-type union (spec section
// 4.7/4.8).
type DepLayer struct {
	T typekey.Type
	I int
}

// GetDependentTypes wraps PropGraph.Closure to return the layers that flow
// into (ty, i), the form the resolver consumes. The type is kept alongside
// the field index (rather than pre-hashed into a typekey.Index) so the
// caller can run FuncsAt's own -1/AnyField union against each dependent
// layer instead of just its exact bucket.
func (t *Tables) GetDependentTypes(ty typekey.Type, i int) []DepLayer {
	if t.Prop == nil {
		return nil
	}
	keys := t.Prop.Closure(ty, i)
	out := make([]DepLayer, 0, len(keys))
	for _, k := range keys {
		out = append(out, DepLayer{T: k.T, I: k.I})
	}
	return out
}
