// Copyright 2017 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// tbf-instrument rewrites a C program for a test generator backend.
// With -diff it prints the changes to the original program instead of the result.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/sosy-lab/tbf/pkg/cast"
	"github.com/sosy-lab/tbf/pkg/instrument"
	"github.com/sosy-lab/tbf/pkg/osutil"
	"github.com/sosy-lab/tbf/pkg/tool"

	dmp "github.com/sergi/go-diff/diffmatchpatch"
)

var (
	flagBackend     = flag.String("backend", "plain", fmt.Sprintf("instrumentation backend: %v", instrument.Backends()))
	flagErrorMethod = flag.String("error-method", "", "prefix of the error function")
	flagNondet      = flag.String("nondet-pattern", "", "prefix of non-deterministic functions")
	flagSVComp      = flag.Bool("svcomp-only", false, "only functions matching -nondet-pattern are inputs")
	flagDiff        = flag.Bool("diff", false, "print a diff against the original program")
	flagMethods     = flag.Bool("methods", false, "only print the non-deterministic methods and error lines")
	flagOut         = flag.String("o", "", "output file (stdout by default)")
	flagExcludes    tool.ListFlag
)

func main() {
	flag.Var(&flagExcludes, "exclude", "comma-separated undefined functions that are not inputs")
	defer tool.Init()()
	if flag.NArg() != 1 {
		tool.Failf("usage: tbf-instrument [flags] program.c")
	}
	filename := flag.Arg(0)
	data, err := os.ReadFile(filename)
	if err != nil {
		tool.Failf("failed to read program: %v", err)
	}
	backend, err := instrument.LookupBackend(*flagBackend)
	if err != nil {
		tool.Fail(err)
	}
	opts := &instrument.Options{
		ErrorMethod:  *flagErrorMethod,
		NondetPrefix: *flagNondet,
		SVCompOnly:   *flagSVComp,
		Excludes:     flagExcludes,
	}
	file, err := cast.ParseSource(data, filename)
	if err != nil {
		tool.Fail(err)
	}
	opts.Methods = instrument.FindNondetMethods(file, opts)
	if *flagMethods {
		out := new(strings.Builder)
		for _, m := range opts.Methods {
			fmt.Fprintf(out, "%v\n", m.Head())
		}
		fmt.Fprintf(out, "error lines: %v\n", instrument.ErrorLines(file, opts))
		output([]byte(out.String()))
		return
	}
	res, _, err := instrument.Source(data, filename, backend, opts)
	if err != nil {
		tool.Fail(err)
	}
	if *flagDiff {
		res = []byte(lineDiff(string(data), string(res)))
	}
	output(res)
}

func output(data []byte) {
	if *flagOut == "" {
		os.Stdout.Write(data)
		return
	}
	if err := osutil.WriteFile(*flagOut, data); err != nil {
		tool.Fail(err)
	}
}

// lineDiff returns a line-by-line diff of from and to, with +/- prefixed lines.
func lineDiff(from, to string) string {
	differ := dmp.New()
	a, b, lines := differ.DiffLinesToChars(from, to)
	diffs := differ.DiffCharsToLines(differ.DiffMain(a, b, false), lines)
	out := new(strings.Builder)
	for _, d := range diffs {
		prefix := " "
		switch d.Type {
		case dmp.DiffInsert:
			prefix = "+"
		case dmp.DiffDelete:
			prefix = "-"
		}
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			out.WriteString(prefix + line)
			if !strings.HasSuffix(line, "\n") {
				out.WriteString("\n")
			}
		}
	}
	return out.String()
}
