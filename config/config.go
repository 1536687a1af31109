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

// Package config loads the YAML options that select a resolver's mode and
// tuning parameters, and builds the leveled logger the rest of the module
// writes through.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds every option that can be set from a YAML config file passed
// to cmd/mlta. If a field is absent from the file it keeps the value
// NewDefault gives it.
type Config struct {
	sourceFile string

	// Mode selects how much of MLTA runs: "none", "signatures", or "full".
	Mode string `yaml:"mode"`

	// FieldSensitive turns on precise per-field tracking of GEP indices
	// instead of collapsing every field of a container to index 0.
	FieldSensitive bool `yaml:"field-sensitive"`

	// Sound makes resolution stop refining, rather than guess, once it
	// reaches a type recorded in type_cap or type_escape, or a downcast GEP
	// it cannot recover an alias for.
	Sound bool `yaml:"sound"`

	// MaxLayers bounds how many layers of a call site's base-type chain
	// resolution will refine through. Zero means resolver.DefaultMaxLayers.
	MaxLayers int `yaml:"max-layers"`

	// Concurrency is read from the file but not passed on: resolver.New and
	// Collect take no concurrency option, so typeflow.CollectAll runs with
	// its module parallelism unbounded whatever this is set to.
	Concurrency int `yaml:"concurrency"`

	// LogLevel is one of the LogLevel constants in logging.go.
	LogLevel int `yaml:"log-level"`
}

// NewDefault returns a Config with the resolver running in full MLTA mode,
// unsound (matching the original tool's default of preferring recall over
// missing a real target), field-insensitive, and logging at InfoLevel.
func NewDefault() *Config {
	return &Config{
		Mode:     "full",
		LogLevel: int(InfoLevel),
	}
}

// Load reads and parses a YAML config file, starting from NewDefault so
// every field the file omits keeps its default.
func Load(filename string) (*Config, error) {
	cfg := NewDefault()
	b, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("could not read config file: %w", err)
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("could not unmarshal config file %s: %w", filename, err)
	}
	cfg.sourceFile = filename
	return cfg, nil
}

// SourceFile returns the path Load read cfg from, or "" for a NewDefault
// config that was never loaded from a file.
func (c *Config) SourceFile() string { return c.sourceFile }
