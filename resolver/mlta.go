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

// Package resolver answers resolve_indirect_call and resolve_by_signature
// (spec section 6) against the tables package typeflow builds. It never
// mutates those tables: collection and resolution are separate phases, run
// once each per set of modules.
package resolver

import (
	"context"

	"github.com/puzpuzpuz/xsync/v4"

	"github.com/aws/mlta-go/ir"
	"github.com/aws/mlta-go/sigindex"
	"github.com/aws/mlta-go/typeflow"
	"github.com/aws/mlta-go/typekey"
)

// Mode selects how much of the algorithm resolve_indirect_call runs, from
// spec section 6.
type Mode int

const (
	// NoIndirect never resolves an indirect call; every call is treated as
	// unresolved. Useful as a baseline for measuring MLTA's precision gain.
	NoIndirect Mode = iota
	// SignaturesOnly answers every indirect call from the signature index
	// alone (exact match, falling back to the fuzzy scan), skipping the
	// layer walk entirely.
	SignaturesOnly
	// FullMLTA runs the complete layer-by-layer refinement of spec
	// section 4.8.
	FullMLTA
)

// DefaultMaxLayers bounds the number of layers find_callees_with_mlta will
// refine through before stopping, guarding against a pathological, very
// deeply nested GEP chain doing unbounded work per call site.
const DefaultMaxLayers = 8

// MLTA holds the tables built by one Collect run and answers resolution
// queries against them. It is safe for concurrent use by multiple
// goroutines calling ResolveIndirectCall or ResolveBySignature once
// Collect has returned.
type MLTA struct {
	Mode           Mode
	FieldSensitive bool
	Sound          bool
	MaxLayers      int

	sig     *sigindex.Index
	finder  *sigindex.Finder
	tables  *typeflow.Tables
	cache   *xsync.Map[typekey.Index, sigindex.FuncSet]
	ptrBits int
}

// New builds an MLTA context. Collect must be called before either resolve
// method is used; a zero-value MaxLayers is replaced with DefaultMaxLayers.
func New(mode Mode, fieldSensitive, sound bool, maxLayers int, ptrBits int) *MLTA {
	if maxLayers <= 0 {
		maxLayers = DefaultMaxLayers
	}
	return &MLTA{
		Mode:           mode,
		FieldSensitive: fieldSensitive,
		Sound:          sound,
		MaxLayers:      maxLayers,
		cache:          xsync.NewMap[typekey.Index, sigindex.FuncSet](),
		ptrBits:        ptrBits,
	}
}

// Collect builds the signature index and the type-flow tables over modules,
// per spec section 5. It must be called exactly once before resolving any
// call site.
func (m *MLTA) Collect(ctx context.Context, modules []*ir.Module) error {
	m.sig = sigindex.Build(modules)
	m.finder = sigindex.NewFinder(modules, m.ptrBits)

	tables, err := typeflow.CollectAll(ctx, modules, typeflow.Options{
		FieldSensitive: m.FieldSensitive,
		Sound:          m.Sound,
	})
	if err != nil {
		return err
	}
	m.tables = tables
	return nil
}
