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

// Command mlta resolves the indirect call targets of one or more LLVM IR
// modules using Multi-Layer Type Analysis and prints the resolved callee
// set for every indirect call site found. It is a thin driver: every
// interesting decision lives in package resolver.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/llir/llvm/asm"

	"github.com/aws/mlta-go/config"
	"github.com/aws/mlta-go/internal/formatutil"
	"github.com/aws/mlta-go/internal/funcutil"
	"github.com/aws/mlta-go/ir"
	"github.com/aws/mlta-go/llvmadapter"
	"github.com/aws/mlta-go/resolver"
	"github.com/aws/mlta-go/sigindex"
)

var (
	configPath = flag.String("config", "", "Config file path for MLTA resolution")
	verbose    = flag.Bool("verbose", false, "Verbose printing on standard output")
)

const usage = `Resolve indirect call targets across LLVM IR modules using MLTA.
Usage:
    mlta [options] <module.ll> [module.ll ...]
Examples:
% mlta -config config.yaml module1.ll module2.ll
`

func main() {
	flag.Parse()

	if flag.NArg() == 0 {
		_, _ = fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
		os.Exit(2)
	}

	logger := log.New(os.Stdout, "", log.Flags())

	cfg := config.NewDefault()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "could not load config %s\n", *configPath)
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if *verbose {
		cfg.LogLevel = int(config.DebugLevel)
	}
	logs := config.NewLogGroup(cfg)

	logger.Printf(formatutil.Faint("Parsing LLVM IR modules") + "\n")

	modules, err := loadModules(flag.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not load modules: %v\n", err)
		os.Exit(1)
	}

	m := resolver.New(modeFromString(cfg.Mode), cfg.FieldSensitive, cfg.Sound, cfg.MaxLayers, ptrBitsOf(modules))

	start := time.Now()
	if err := m.Collect(context.Background(), modules); err != nil {
		fmt.Fprintf(os.Stderr, "collection failed: %v\n", err)
		os.Exit(1)
	}
	logs.Infof("collected type-flow tables in %s", time.Since(start))

	total, resolved := 0, 0
	for _, mod := range modules {
		for _, f := range mod.Functions {
			for _, inst := range f.Blocks {
				ci, ok := inst.(*ir.Call)
				if !ok || !ci.IsIndirect() {
					continue
				}
				total++
				site := resolver.Site{Call: ci, Func: f, Layout: mod.Layout}
				callees := m.ResolveIndirectCall(site)
				if len(callees) > 0 {
					resolved++
				}
				logger.Printf("%s: %s\n", f.Name, describeCallees(callees))
			}
		}
	}
	logger.Printf("")
	logger.Printf("-%s", strings.Repeat("*", 80))
	logger.Printf("Resolved %d/%d indirect call sites in %s\n", resolved, total, time.Since(start))
}

func loadModules(paths []string) ([]*ir.Module, error) {
	modules := make([]*ir.Module, 0, len(paths))
	for _, p := range paths {
		src, err := asm.ParseFile(p)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", p, err)
		}
		modules = append(modules, llvmadapter.Translate(src))
	}
	return modules, nil
}

func modeFromString(s string) resolver.Mode {
	switch s {
	case "none":
		return resolver.NoIndirect
	case "signatures":
		return resolver.SignaturesOnly
	default:
		return resolver.FullMLTA
	}
}

// ptrBitsOf reports the pointer width the fuzzy matcher and signature index
// share across every module: mixed-width linking is out of scope, so the
// first module's layout stands for the whole set.
func ptrBitsOf(modules []*ir.Module) int {
	if len(modules) == 0 {
		return 64
	}
	return modules[0].Layout.PointerBits()
}

func describeCallees(fs sigindex.FuncSet) string {
	if len(fs) == 0 {
		return "unresolved"
	}
	names := map[string]bool{}
	for f := range fs {
		names[f.Name] = true
	}
	return strings.Join(funcutil.SetToOrderedSlice(names), ", ")
}
