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

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type recordingVisitor struct {
	NoopVisitor
	sawFunction bool
	sawGEP      bool
	sawOther    bool
}

func (v *recordingVisitor) DoFunction(*Function) { v.sawFunction = true }
func (v *recordingVisitor) DoGEP(*GEP)           { v.sawGEP = true }
func (v *recordingVisitor) DoOther(Value)        { v.sawOther = true }

func TestDispatchRoutesToConcreteKind(t *testing.T) {
	fn := NewFunction(1, &Type{Kind: KindFunc}, "f")
	v := &recordingVisitor{}
	Dispatch(v, fn)
	require.True(t, v.sawFunction, "Dispatch did not route *Function to DoFunction")

	gep := NewGEP(2, &Type{Kind: KindPointer}, &Type{Kind: KindStruct}, fn)
	v2 := &recordingVisitor{}
	Dispatch(v2, gep)
	require.True(t, v2.sawGEP, "Dispatch did not route *GEP to DoGEP")
}

func TestDispatchDefaultsToOther(t *testing.T) {
	v := &recordingVisitor{}
	Dispatch(v, nil)
	require.True(t, v.sawOther, "Dispatch did not route nil to DoOther")
}

func TestAddUserRecordsBackEdge(t *testing.T) {
	ptr := NewGlobalVariable(1, &Type{Kind: KindStruct}, "g")
	load := NewLoad(2, &Type{Kind: KindStruct}, ptr)
	AddUser(ptr, load)

	users := ptr.Users()
	require.Len(t, users, 1, "AddUser did not record load as a user of ptr")
	require.Equal(t, Value(load), users[0])
}

func TestStoreHasNilResultType(t *testing.T) {
	ptr := NewGlobalVariable(1, &Type{Kind: KindStruct}, "g")
	val := NewConstantData(2, &Type{Kind: KindInt, BitWidth: 32})
	st := NewStore(3, ptr, val)
	require.Nil(t, st.Type())
	require.Len(t, st.Operands(), 2, "Store.Operands() should be [Ptr, Val]")
}
