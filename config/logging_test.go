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

package config_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aws/mlta-go/config"
)

func TestLogGroupGatesBelowConfiguredLevel(t *testing.T) {
	cfg := config.NewDefault()
	cfg.LogLevel = int(config.WarnLevel)
	logs := config.NewLogGroup(cfg)

	var buf bytes.Buffer
	logs.SetAllOutput(&buf)

	logs.Infof("collected %d modules", 3)
	logs.Debugf("function %s", "foo")
	logs.Warnf("no callees resolved for call at %s", "site")

	out := buf.String()
	require.NotContains(t, out, "collected", "Info lines should be gated out at WarnLevel")
	require.NotContains(t, out, "function foo", "Debug lines should be gated out at WarnLevel")
	require.Contains(t, out, "no callees resolved", "Warnf should log at WarnLevel")
}

func TestLogGroupTraceLevelLogsEverything(t *testing.T) {
	cfg := config.NewDefault()
	cfg.LogLevel = int(config.TraceLevel)
	logs := config.NewLogGroup(cfg)

	var buf bytes.Buffer
	logs.SetAllOutput(&buf)

	logs.Tracef("walked layer %d", 2)
	logs.Errorf("boom")

	out := buf.String()
	require.Contains(t, out, "walked layer 2", "Tracef should log at TraceLevel")
	require.Contains(t, out, "boom", "Errorf should always log")
}
