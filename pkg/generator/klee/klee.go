// Copyright 2017 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// Package klee runs the KLEE symbolic execution engine.
package klee

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sosy-lab/tbf/pkg/config"
	"github.com/sosy-lab/tbf/pkg/decode"
	"github.com/sosy-lab/tbf/pkg/generator/genimpl"
	"github.com/sosy-lab/tbf/pkg/instrument"
	"github.com/sosy-lab/tbf/pkg/log"
	"github.com/sosy-lab/tbf/pkg/osutil"
	"github.com/sosy-lab/tbf/pkg/vector"
)

func init() {
	genimpl.Register("klee", ctor)
}

type Config struct {
	BinDir     string   `json:"bin_dir"`     // dir with clang and klee, PATH if empty
	IncludeDir string   `json:"include_dir"` // dir with klee/klee.h
	Search     []string `json:"search"`      // search heuristics
	Args       []string `json:"args"`        // additional klee arguments
	// SeedDir contains vector files, e.g. the vectors dir of an earlier run.
	// KLEE starts with the paths they take.
	SeedDir string `json:"seed_dir"`
}

// TestDir is where KLEE writes tests, relative to the workdir.
const TestDir = "klee-tests"

// SeedDir is where seeds are converted to, relative to the workdir.
const SeedDir = "klee-seeds"

type Engine struct {
	env     *genimpl.Env
	cfg     *Config
	decoder decode.Decoder
	seeds   int
}

func ctor(env *genimpl.Env) (genimpl.Engine, error) {
	cfg := &Config{
		Search: []string{"random-path", "nurs:covnew"},
	}
	if len(env.Config) != 0 {
		if err := config.LoadData(env.Config, cfg); err != nil {
			return nil, err
		}
	}
	return &Engine{
		env:     env,
		cfg:     cfg,
		decoder: decode.BinaryDecoder{Model: env.Model},
	}, nil
}

func (eng *Engine) Prepare(src []byte, filename string) (string, error) {
	if eng.cfg.SeedDir != "" {
		if err := eng.writeSeeds(); err != nil {
			return "", err
		}
	}
	return eng.env.Instrument(src, filename, "klee-program.c", instrument.Klee{})
}

func (eng *Engine) writeSeeds() error {
	names, err := osutil.ListDir(eng.cfg.SeedDir)
	if err != nil {
		return fmt.Errorf("failed to read seeds: %w", err)
	}
	dir := filepath.Join(eng.env.Workdir, SeedDir)
	if err := osutil.MkdirAll(dir); err != nil {
		return err
	}
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(eng.cfg.SeedDir, name))
		if err != nil {
			return err
		}
		vec, err := vector.Parse(data)
		if err != nil {
			log.Logf(0, "skipping seed %v: %v", name, err)
			continue
		}
		kt, err := eng.KTest(vec)
		if err != nil {
			log.Logf(0, "skipping seed %v: %v", name, err)
			continue
		}
		file := filepath.Join(dir, fmt.Sprintf("seed%06d.ktest", eng.seeds))
		if err := osutil.WriteFile(file, kt.Serialize()); err != nil {
			return err
		}
		eng.seeds++
	}
	log.Logf(0, "klee: %v seeds", eng.seeds)
	return nil
}

// KTest converts a vector into a ktest whose objects are named like the variables
// of the rewrite. Values without a method need a program with a single nondet method.
func (eng *Engine) KTest(vec *vector.Vector) (*KTest, error) {
	text := decode.TextDecoder{Model: eng.env.Model}
	kt := &KTest{Version: maxVersion}
	for i := 0; i < vec.Len(); i++ {
		val := vec.At(i)
		m, err := eng.method(val.Method)
		if err != nil {
			return nil, fmt.Errorf("value %v: %w", i, err)
		}
		v, err := text.Decode([]byte(val.Value), m.Type)
		if err != nil {
			return nil, fmt.Errorf("value %v: %w", i, err)
		}
		kt.Objects = append(kt.Objects, Object{
			Name:  instrument.VarName(m.Name, i),
			Bytes: v.Bytes(),
		})
	}
	return kt, nil
}

func (eng *Engine) method(name string) (*instrument.Method, error) {
	if name != "" {
		if m := eng.env.Method(name); m != nil {
			return m, nil
		}
		return nil, fmt.Errorf("unknown method %v", name)
	}
	var res *instrument.Method
	for _, m := range eng.env.Methods {
		if m.Type == "void" {
			continue
		}
		if res != nil {
			return nil, fmt.Errorf("no method given and the program has several")
		}
		res = m
	}
	if res == nil {
		return nil, fmt.Errorf("program has no nondet methods")
	}
	return res, nil
}

func (eng *Engine) Commands(prepared string) [][]string {
	bc := strings.TrimSuffix(prepared, filepath.Ext(prepared)) + ".bc"
	compile := []string{eng.bin("clang"), eng.env.Model.CFlag}
	if eng.cfg.IncludeDir != "" {
		compile = append(compile, "-I", eng.cfg.IncludeDir)
	}
	compile = append(compile, "-emit-llvm", "-c", "-g", "-o", bc, prepared)
	run := []string{eng.bin("klee")}
	if eng.env.Timelimit != 0 {
		run = append(run, fmt.Sprintf("-max-time=%vs", int(eng.env.Timelimit/time.Second)))
	}
	run = append(run, "-only-output-states-covering-new")
	for _, search := range eng.cfg.Search {
		run = append(run, "-search="+search)
	}
	if eng.seeds != 0 {
		run = append(run, "-seed-dir="+SeedDir, "-allow-seed-extension", "-allow-seed-truncation")
	}
	run = append(run, eng.cfg.Args...)
	run = append(run, "-output-dir="+TestDir, bc)
	return [][]string{compile, run}
}

func (eng *Engine) bin(name string) string {
	if eng.cfg.BinDir == "" {
		return name
	}
	return filepath.Join(eng.cfg.BinDir, name)
}

// Exhaustive is true unless additional arguments may limit the search.
func (eng *Engine) Exhaustive() bool {
	return len(eng.cfg.Args) == 0
}

func (eng *Engine) Env() []string {
	return nil
}

func (eng *Engine) Decoder() decode.Decoder {
	return eng.decoder
}

func (eng *Engine) Tests(done map[string]bool) ([]*vector.TestCase, error) {
	return genimpl.ReadTests(filepath.Join(eng.env.Workdir, TestDir), done, func(name string) bool {
		return strings.HasSuffix(name, ".ktest")
	})
}

// Vector decodes the objects of a ktest. Objects are named after the variables
// the rewrite introduced, which gives the method and thus the type of each value.
func (eng *Engine) Vector(tc *vector.TestCase) (*vector.Vector, error) {
	kt, err := ParseKTest(tc.Data)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", tc.Name, err)
	}
	var values []vector.Value
	for _, obj := range kt.Objects {
		name, ok := instrument.MethodOf(obj.Name)
		if !ok {
			log.Logf(1, "%v: skipping object %q", tc.Name, obj.Name)
			continue
		}
		m := eng.env.Method(name)
		if m == nil {
			return nil, fmt.Errorf("%v: object %q of unknown method %v", tc.Name, obj.Name, name)
		}
		v, err := eng.decoder.Decode(obj.Bytes, m.Type)
		if err != nil {
			return nil, fmt.Errorf("%v: object %q: %w", tc.Name, obj.Name, err)
		}
		values = append(values, vector.Value{Value: v.String(), Method: name})
	}
	return vector.New(values...), nil
}
