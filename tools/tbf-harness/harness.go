// Copyright 2017 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// tbf-harness writes the test harness for a program and a vector file.
// Without -vector it writes the generic harness that reads values from stdin.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/sosy-lab/tbf/pkg/cast"
	"github.com/sosy-lab/tbf/pkg/harness"
	"github.com/sosy-lab/tbf/pkg/instrument"
	"github.com/sosy-lab/tbf/pkg/machine"
	"github.com/sosy-lab/tbf/pkg/osutil"
	"github.com/sosy-lab/tbf/pkg/tool"
	"github.com/sosy-lab/tbf/pkg/vector"
)

var (
	flagVector      = flag.String("vector", "", "vector file")
	flagErrorMethod = flag.String("error-method", instrument.DefaultErrorMethod, "error function to define")
	flagMachine     = flag.String("machine", "32", "machine model for -build: 32 or 64")
	flagBuild       = flag.String("build", "", "also build the harness with the program into this binary")
	flagFormat      = flag.Bool("format", false, "run the harness through clang-format")
	flagOut         = flag.String("o", "harness.c", "output file")
)

func main() {
	defer tool.Init()()
	if flag.NArg() != 1 {
		tool.Failf("usage: tbf-harness [flags] program.c")
	}
	program := flag.Arg(0)
	file, err := cast.ParseFile(program)
	if err != nil {
		tool.Fail(err)
	}
	opts := &instrument.Options{ErrorMethod: *flagErrorMethod}
	methods := instrument.FindNondetMethods(file, opts)
	var vec *vector.Vector
	if *flagVector != "" {
		data, err := os.ReadFile(*flagVector)
		if err != nil {
			tool.Failf("failed to read vector: %v", err)
		}
		if vec, err = vector.Parse(data); err != nil {
			tool.Failf("bad vector file: %v", err)
		}
	}
	data := harness.Synthesize(methods, vec, harness.Options{ErrorMethod: *flagErrorMethod})
	ctx := context.Background()
	if *flagFormat {
		data = harness.Format(ctx, data)
	}
	if err := osutil.WriteFile(*flagOut, data); err != nil {
		tool.Fail(err)
	}
	if *flagBuild == "" {
		return
	}
	model, err := machine.Lookup(*flagMachine)
	if err != nil {
		tool.Fail(err)
	}
	cc := &harness.Compiler{Model: model}
	if err := cc.Build(ctx, osutil.Abs(program), *flagOut, *flagBuild); err != nil {
		tool.Fail(err)
	}
}
