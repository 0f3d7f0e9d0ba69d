// Copyright 2017 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// tbf-witness writes the violation witness for a program and a vector file.
// With -check it verifies that an existing witness was written for the program.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/sosy-lab/tbf/pkg/cast"
	"github.com/sosy-lab/tbf/pkg/instrument"
	"github.com/sosy-lab/tbf/pkg/machine"
	"github.com/sosy-lab/tbf/pkg/osutil"
	"github.com/sosy-lab/tbf/pkg/tool"
	"github.com/sosy-lab/tbf/pkg/vector"
	"github.com/sosy-lab/tbf/pkg/witness"
)

var (
	flagVector      = flag.String("vector", "", "vector file (required)")
	flagErrorMethod = flag.String("error-method", instrument.DefaultErrorMethod, "error function")
	flagMachine     = flag.String("machine", "32", "machine model: 32 or 64")
	flagProducer    = flag.String("producer", "tbf", "producer recorded in the witness")
	flagOut         = flag.String("o", "witness.graphml", "output file")
	flagCheck       = flag.String("check", "", "witness file to check against the program")
)

func main() {
	defer tool.Init()()
	if flag.NArg() != 1 || (*flagVector == "") == (*flagCheck == "") {
		tool.Failf("usage: tbf-witness -vector=file [flags] program.c\n" +
			"       tbf-witness -check=witness.graphml program.c")
	}
	program := flag.Arg(0)
	if *flagCheck != "" {
		check(*flagCheck, program)
		return
	}
	file, err := cast.ParseFile(program)
	if err != nil {
		tool.Fail(err)
	}
	model, err := machine.Lookup(*flagMachine)
	if err != nil {
		tool.Fail(err)
	}
	data, err := os.ReadFile(*flagVector)
	if err != nil {
		tool.Failf("failed to read vector: %v", err)
	}
	vec, err := vector.Parse(data)
	if err != nil {
		tool.Failf("bad vector file: %v", err)
	}
	opts := &instrument.Options{ErrorMethod: *flagErrorMethod}
	var names []string
	for _, m := range instrument.FindNondetMethods(file, opts) {
		if m.Type != "void" {
			names = append(names, m.Name)
		}
	}
	info, err := witness.NewInfo(*flagProducer, program, model.Architecture(), *flagErrorMethod)
	if err != nil {
		tool.Fail(err)
	}
	doc, err := witness.Synthesize(info, vec, names, instrument.ErrorLines(file, opts))
	if err != nil {
		tool.Fail(err)
	}
	if err := osutil.WriteFile(*flagOut, doc); err != nil {
		tool.Fail(err)
	}
}

func check(file, program string) {
	doc, err := os.ReadFile(file)
	if err != nil {
		tool.Fail(err)
	}
	info, automaton, err := witness.Unmarshal(doc)
	if err != nil {
		tool.Fail(err)
	}
	if err := info.Check(program); err != nil {
		tool.Fail(err)
	}
	fmt.Printf("%v: %v nodes, %v edges, produced by %v\n",
		file, len(automaton.Nodes), len(automaton.Edges), info.Producer)
}
