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
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/aws/mlta-go/ir"
	"github.com/aws/mlta-go/layerwalk"
	"github.com/aws/mlta-go/sigindex"
	"github.com/aws/mlta-go/typekey"
)

// Options carries the two analysis modes spec section 6 exposes to the
// resolver, plus a concurrency cap for CollectAll.
type Options struct {
	FieldSensitive bool
	Sound          bool

	// Concurrency bounds the number of modules collected in parallel; zero
	// means unbounded (errgroup.Group's default).
	Concurrency int
}

// CollectAll runs confinement (4.4.1, 4.4.2), propagation (4.4.3), and
// alias recovery (4.4.4) over every module and merges the result into one
// Tables (spec section 5): one goroutine per module, each building its own
// staging area before a single locked merge, so no table is ever written by
// two goroutines at once.
func CollectAll(ctx context.Context, modules []*ir.Module, opts Options) (*Tables, error) {
	tables := &Tables{
		TypeIdxFuncs: map[typekey.Index]sigindex.FuncSet{},
		TypeCap:      map[uint64]bool{},
		TypeEscape:   map[typekey.Index]bool{},
		VTableFuncs:  map[ir.ValueID]sigindex.FuncSet{},
		FieldIndex:   map[typekey.Type]map[int]bool{},
	}
	var mu sync.Mutex
	var allEdges []propEdge

	g, gctx := errgroup.WithContext(ctx)
	if opts.Concurrency > 0 {
		g.SetLimit(opts.Concurrency)
	}

	for _, m := range modules {
		m := m
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			s := newStaging()
			collectModule(m, opts, s)

			mu.Lock()
			allEdges = append(allEdges, s.propEdges...)
			mu.Unlock()
			mergeStaging(tables, &mu, s)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	tables.Prop = buildPropGraph(allEdges)
	return tables, nil
}

func collectModule(m *ir.Module, opts Options, s *staging) {
	for _, gv := range m.Globals {
		confineInInitializer(gv, opts, s)
	}
	for _, f := range m.Functions {
		if f.Declaration || f.Intrinsic {
			continue
		}
		alias := CollectAliasStructPtr(f)
		w := &layerwalk.Walker{
			Layout:         m.Layout,
			Alias:          alias,
			FieldSensitive: opts.FieldSensitive,
			Sound:          opts.Sound,
			Cap:            s,
		}
		confineInFunction(f, w, s)
		propagateInFunction(f, w, s)
	}
}
