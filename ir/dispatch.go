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

// Visitor contains one method per concrete Value kind the facade defines.
// It is the tagged-variant match called for in the design notes: instead of
// virtual dispatch on an IR node class hierarchy, callers implement Visitor
// and pass it to Dispatch, which type-switches once and calls the matching
// method. Modeled on the ValueOp/ValueSwitch pair the teacher repo uses for
// go/ssa values (analysis/ssafuncs/values.go).
type Visitor interface {
	DoFunction(*Function)
	DoArgument(*Argument)
	DoGlobalVariable(*GlobalVariable)
	DoConstantPointerNull(*ConstantPointerNull)
	DoConstantData(*ConstantData)
	DoConstantAggregate(*ConstantAggregate)
	DoGEP(*GEP)
	DoLoad(*Load)
	DoStore(*Store)
	DoBitCast(*BitCast)
	DoPtrToInt(*PtrToInt)
	DoUnary(*Unary)
	DoPhi(*Phi)
	DoSelect(*Select)
	DoCall(*Call)
	DoOther(Value)
}

// Dispatch type-switches on the concrete kind of v and calls the matching
// Visitor method.
func Dispatch(vis Visitor, v Value) {
	switch x := v.(type) {
	case *Function:
		vis.DoFunction(x)
	case *Argument:
		vis.DoArgument(x)
	case *GlobalVariable:
		vis.DoGlobalVariable(x)
	case *ConstantPointerNull:
		vis.DoConstantPointerNull(x)
	case *ConstantData:
		vis.DoConstantData(x)
	case *ConstantAggregate:
		vis.DoConstantAggregate(x)
	case *GEP:
		vis.DoGEP(x)
	case *Load:
		vis.DoLoad(x)
	case *Store:
		vis.DoStore(x)
	case *BitCast:
		vis.DoBitCast(x)
	case *PtrToInt:
		vis.DoPtrToInt(x)
	case *Unary:
		vis.DoUnary(x)
	case *Phi:
		vis.DoPhi(x)
	case *Select:
		vis.DoSelect(x)
	case *Call:
		vis.DoCall(x)
	default:
		vis.DoOther(v)
	}
}

// NoopVisitor implements Visitor with no-op methods; embed it and override
// only the cases a particular walk cares about.
type NoopVisitor struct{}

func (NoopVisitor) DoFunction(*Function)                       {}
func (NoopVisitor) DoArgument(*Argument)                       {}
func (NoopVisitor) DoGlobalVariable(*GlobalVariable)           {}
func (NoopVisitor) DoConstantPointerNull(*ConstantPointerNull) {}
func (NoopVisitor) DoConstantData(*ConstantData)               {}
func (NoopVisitor) DoConstantAggregate(*ConstantAggregate)     {}
func (NoopVisitor) DoGEP(*GEP)                                 {}
func (NoopVisitor) DoLoad(*Load)                               {}
func (NoopVisitor) DoStore(*Store)                              {}
func (NoopVisitor) DoBitCast(*BitCast)                         {}
func (NoopVisitor) DoPtrToInt(*PtrToInt)                       {}
func (NoopVisitor) DoUnary(*Unary)                             {}
func (NoopVisitor) DoPhi(*Phi)                                 {}
func (NoopVisitor) DoSelect(*Select)                           {}
func (NoopVisitor) DoCall(*Call)                               {}
func (NoopVisitor) DoOther(Value)                              {}
