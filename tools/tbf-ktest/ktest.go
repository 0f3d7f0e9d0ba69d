// Copyright 2017 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// tbf-ktest prints KLEE .ktest files. With -program the objects are decoded
// with the types of the program's non-deterministic methods and printed as vector files.
package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"os"

	"github.com/sosy-lab/tbf/pkg/cast"
	"github.com/sosy-lab/tbf/pkg/decode"
	"github.com/sosy-lab/tbf/pkg/generator/klee"
	"github.com/sosy-lab/tbf/pkg/instrument"
	"github.com/sosy-lab/tbf/pkg/machine"
	"github.com/sosy-lab/tbf/pkg/tool"
	"github.com/sosy-lab/tbf/pkg/vector"
)

var (
	flagProgram = flag.String("program", "", "program the tests were generated for")
	flagMachine = flag.String("machine", "32", "machine model: 32 or 64")
)

func main() {
	defer tool.Init()()
	if flag.NArg() == 0 {
		tool.Failf("usage: tbf-ktest [flags] test000001.ktest...")
	}
	var types map[string]string
	var model *machine.Model
	if *flagProgram != "" {
		file, err := cast.ParseFile(*flagProgram)
		if err != nil {
			tool.Fail(err)
		}
		if model, err = machine.Lookup(*flagMachine); err != nil {
			tool.Fail(err)
		}
		types = make(map[string]string)
		for _, m := range instrument.FindNondetMethods(file, nil) {
			types[m.Name] = m.Type
		}
	}
	for _, name := range flag.Args() {
		data, err := os.ReadFile(name)
		if err != nil {
			tool.Failf("failed to read ktest: %v", err)
		}
		kt, err := klee.ParseKTest(data)
		if err != nil {
			tool.Failf("%v: %v", name, err)
		}
		if types == nil {
			printKTest(name, kt)
			continue
		}
		vec, err := toVector(kt, types, decode.BinaryDecoder{Model: model})
		if err != nil {
			tool.Failf("%v: %v", name, err)
		}
		fmt.Printf("# %v\n", name)
		vec.WriteTo(os.Stdout)
	}
}

func printKTest(name string, kt *klee.KTest) {
	fmt.Printf("ktest file : %q\n", name)
	fmt.Printf("version    : %v\n", kt.Version)
	fmt.Printf("args       : %q\n", kt.Args)
	fmt.Printf("num objects: %v\n", len(kt.Objects))
	for i, obj := range kt.Objects {
		fmt.Printf("object %4d: name: %q\n", i, obj.Name)
		fmt.Printf("object %4d: size: %v\n", i, len(obj.Bytes))
		fmt.Printf("object %4d: data: %v\n", i, hex.EncodeToString(obj.Bytes))
	}
}

func toVector(kt *klee.KTest, types map[string]string, dec decode.Decoder) (*vector.Vector, error) {
	var values []vector.Value
	for _, obj := range kt.Objects {
		method, ok := instrument.MethodOf(obj.Name)
		if !ok {
			continue
		}
		typ, ok := types[method]
		if !ok {
			return nil, fmt.Errorf("object %v: unknown method %v", obj.Name, method)
		}
		v, err := dec.Decode(obj.Bytes, typ)
		if err != nil {
			return nil, fmt.Errorf("object %v: %w", obj.Name, err)
		}
		values = append(values, vector.Value{Value: v.String(), Method: method})
	}
	return vector.New(values...), nil
}
