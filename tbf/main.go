// Copyright 2015 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// tbf generates tests for a C program with a test generator and validates them.
// Usage:
//
//	tbf [flags] program.c
//	tbf -config=tbf.cfg [flags]
//
// The verdict is printed as "TBF verdict: <TRUE|FALSE|UNKNOWN|ERROR|DONE>".
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/sosy-lab/tbf/pkg/config"
	"github.com/sosy-lab/tbf/pkg/generator"
	"github.com/sosy-lab/tbf/pkg/log"
	"github.com/sosy-lab/tbf/pkg/osutil"
	"github.com/sosy-lab/tbf/pkg/runner"
	"github.com/sosy-lab/tbf/pkg/stat"
	"github.com/sosy-lab/tbf/pkg/tbfconfig"
	"github.com/sosy-lab/tbf/pkg/tool"
	"github.com/sosy-lab/tbf/pkg/validator"
)

var (
	flagConfig       = flag.String("config", "", "configuration file (json or yaml)")
	flagWorkdir      = flag.String("workdir", "", "working directory")
	flagEngine       = flag.String("engine", "", fmt.Sprintf("test generator: %v", generator.Names()))
	flagMachine      = flag.String("machine", "", "machine model: 32 or 64")
	flagErrorMethod  = flag.String("error-method", "", "prefix of the error function")
	flagNondet       = flag.String("nondet-pattern", "", "prefix of non-deterministic functions")
	flagSVComp       = flag.Bool("svcomp-only", false, "only functions matching -nondet-pattern are inputs")
	flagTimelimit    = flag.Int("timelimit", 0, "time limit of the test generator in seconds (0 - no limit)")
	flagValidation   = flag.Int("validation-timelimit", 0, "time limit of a validation run in seconds")
	flagStrategy     = flag.String("strategy", "", "validation: execution, witness or both")
	flagStopOnError  = flag.Bool("stop-on-error", false, "stop at the first counterexample")
	flagProcs        = flag.Int("procs", 0, "number of parallel validation runs")
	flagCompiler     = flag.String("cc", "", "C compiler for harnesses")
	flagFormat       = flag.Bool("format", false, "run written harnesses through clang-format")
	flagHTTP         = flag.String("http", "", "serve /metrics on this address")
	flagEngineConfig = flag.String("engine-config", "", "json merged into the engine_config of the config")
	flagExcludes     tool.ListFlag
	flagCFlags       tool.ListFlag
)

func main() {
	flag.Var(&flagExcludes, "exclude", "comma-separated undefined functions that are not inputs")
	flag.Var(&flagCFlags, "cflags", "comma-separated additional harness compiler flags")
	defer tool.Init()()
	cfg, err := loadConfig()
	if err != nil {
		tool.Fail(err)
	}
	log.EnableLogCaching(1000, 1<<20)
	if cfg.HTTP != "" {
		initHTTP(cfg)
	}
	shutdown := make(chan struct{})
	osutil.HandleInterrupts(shutdown)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-shutdown
		cancel()
	}()
	res, err := runner.Run(ctx, cfg)
	if err != nil {
		log.Errorf("%v", err)
	}
	printResult(res)
	if res.Verdict == validator.Error {
		os.Exit(1)
	}
}

func loadConfig() (*tbfconfig.Config, error) {
	cfg := tbfconfig.Default()
	if *flagConfig != "" {
		var err error
		if cfg, err = tbfconfig.LoadPartialFile(*flagConfig); err != nil {
			return nil, err
		}
	}
	visited := tool.Visited(flag.CommandLine)
	if flag.NArg() > 1 {
		return nil, fmt.Errorf("want at most one program, got %q", flag.Args())
	}
	if flag.NArg() == 1 {
		cfg.Program = flag.Arg(0)
	}
	setString := func(name string, dst *string, val string) {
		if visited[name] {
			*dst = val
		}
	}
	setString("workdir", &cfg.Workdir, *flagWorkdir)
	setString("engine", &cfg.Engine, *flagEngine)
	setString("machine", &cfg.Machine, *flagMachine)
	setString("error-method", &cfg.ErrorMethod, *flagErrorMethod)
	setString("nondet-pattern", &cfg.NondetPattern, *flagNondet)
	setString("strategy", &cfg.Strategy, *flagStrategy)
	setString("cc", &cfg.Compiler, *flagCompiler)
	setString("http", &cfg.HTTP, *flagHTTP)
	if visited["svcomp-only"] {
		cfg.SVCompOnly = *flagSVComp
	}
	if visited["timelimit"] {
		cfg.Timelimit = *flagTimelimit
	}
	if visited["validation-timelimit"] {
		cfg.ValidationTimelimit = *flagValidation
	}
	if visited["stop-on-error"] {
		cfg.StopOnError = *flagStopOnError
	}
	if visited["procs"] {
		cfg.Procs = *flagProcs
	}
	if visited["format"] {
		cfg.FormatHarness = *flagFormat
	}
	if visited["exclude"] {
		cfg.Excludes = flagExcludes
	}
	if visited["cflags"] {
		cfg.CompilerFlags = flagCFlags
	}
	if visited["engine-config"] {
		merged, err := config.MergeJSONData(cfg.EngineConfig, []byte(*flagEngineConfig))
		if err != nil {
			return nil, fmt.Errorf("bad -engine-config: %w", err)
		}
		cfg.EngineConfig = json.RawMessage(merged)
	}
	if err := tbfconfig.Complete(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func printResult(res *runner.Result) {
	fmt.Printf("\nStatistics:\n")
	for _, s := range stat.Collect(stat.Console) {
		fmt.Printf("%-24v%v\n", s.Name+":", s.Value)
	}
	if res.Counterexample != nil {
		fmt.Printf("\nCounterexample (%v):\n%v\n", res.Test, res.Counterexample)
	}
	fmt.Printf("\nFiles: %v\n", res.Dir)
	fmt.Printf("\nTBF verdict: %v\n", res.Verdict)
}
