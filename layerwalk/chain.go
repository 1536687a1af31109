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

package layerwalk

import "github.com/aws/mlta-go/ir"

// GetBaseTypeChain repeatedly applies NextLayerBaseType starting at v,
// prefixing the walk with BaseType(v) itself as an implicit field-0 layer,
// and returns the full chain together with whether the walk ended at a
// value the completeness rule accepts (spec section 4.6, step 4). Used by
// typeflow's confine_target to seed typeidx_funcs at every layer a function
// pointer value passed through on its way into a store or call.
//
// Whenever the chain reaches a struct or array layer that the walk cannot
// prove complete, the layer's type is reported to the configured CapSink so
// the resolver knows not to trust anything found deeper than it.
//
// root is the value the walk finally stopped at. The callers in packages
// resolver and typeflow currently discard it.
func (w *Walker) GetBaseTypeChain(v ir.Value) (chain []Layer, complete bool, root ir.Value) {
	if t := w.BaseType(v); t != nil {
		chain = append(chain, Layer{T: t, I: 0})
	}

	visited := map[ir.ValueID]bool{}
	cur := v
	for {
		layers, next, ok := w.NextLayerBaseType(cur, visited)
		if !ok {
			complete = !isIncomplete(cur)
			if !complete && len(chain) > 0 && w.Cap != nil {
				w.Cap.CapType(chain[len(chain)-1].T)
			}
			return chain, complete, cur
		}
		chain = append(chain, layers...)
		cur = next
	}
}
