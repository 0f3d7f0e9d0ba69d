// Copyright 2017 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// Package crest runs the CREST concolic tester.
// CREST writes the inputs of each iteration as decimal numbers, one per line,
// in call order but without the name of the input.
// 64-bit inputs need a CREST build with the long and long long markers.
package crest

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/sosy-lab/tbf/pkg/config"
	"github.com/sosy-lab/tbf/pkg/decode"
	"github.com/sosy-lab/tbf/pkg/generator/genimpl"
	"github.com/sosy-lab/tbf/pkg/instrument"
	"github.com/sosy-lab/tbf/pkg/vector"
)

func init() {
	genimpl.Register("crest", ctor)
}

type Config struct {
	BinDir     string   `json:"bin_dir"`    // dir with crestc and run_crest
	LibDir     string   `json:"lib_dir"`    // added to LD_LIBRARY_PATH
	Iterations int      `json:"iterations"` // iterations of run_crest
	Strategy   []string `json:"strategy"`   // search strategy arguments
}

var testRe = regexp.MustCompile(`^input[0-9]+$`)

type Engine struct {
	env     *genimpl.Env
	cfg     *Config
	decoder decode.Decoder
}

func ctor(env *genimpl.Env) (genimpl.Engine, error) {
	cfg := &Config{
		Iterations: 100000,
		Strategy:   []string{"-ppc"},
	}
	if len(env.Config) != 0 {
		if err := config.LoadData(env.Config, cfg); err != nil {
			return nil, err
		}
	}
	if cfg.Iterations <= 0 {
		return nil, fmt.Errorf("bad crest iterations %v", cfg.Iterations)
	}
	return &Engine{
		env:     env,
		cfg:     cfg,
		decoder: decode.TextDecoder{Model: env.Model},
	}, nil
}

func (eng *Engine) Prepare(src []byte, filename string) (string, error) {
	return eng.env.Instrument(src, filename, "crest-program.c", instrument.Crest{})
}

// Commands compiles with crestc, which writes the binary next to the source without .c.
func (eng *Engine) Commands(prepared string) [][]string {
	bin := strings.TrimSuffix(prepared, ".c")
	run := []string{eng.bin("run_crest"), "./" + bin, fmt.Sprint(eng.cfg.Iterations)}
	run = append(run, eng.cfg.Strategy...)
	return [][]string{
		{eng.bin("crestc"), prepared},
		run,
	}
}

func (eng *Engine) bin(name string) string {
	if eng.cfg.BinDir == "" {
		return name
	}
	return filepath.Join(eng.cfg.BinDir, name)
}

func (eng *Engine) Env() []string {
	env := []string{genimpl.PathEnv(eng.cfg.BinDir)}
	if eng.cfg.LibDir != "" {
		env = append(env, "LD_LIBRARY_PATH="+eng.cfg.LibDir)
	}
	return env
}

func (eng *Engine) Decoder() decode.Decoder {
	return eng.decoder
}

func (eng *Engine) Tests(done map[string]bool) ([]*vector.TestCase, error) {
	return genimpl.ReadTests(eng.env.Workdir, done, testRe.MatchString)
}

// Vector returns the values of a test. The values are not attributed to methods.
// If all methods have the same type, the values are checked against it.
func (eng *Engine) Vector(tc *vector.TestCase) (*vector.Vector, error) {
	typ := commonType(eng.env.Methods)
	var values []vector.Value
	for _, line := range genimpl.Lines(tc.Data) {
		if typ != "" {
			v, err := eng.decoder.Decode([]byte(line), typ)
			if err != nil {
				return nil, fmt.Errorf("%v: %w", tc.Name, err)
			}
			line = v.String()
		}
		values = append(values, vector.Value{Value: line})
	}
	return vector.New(values...), nil
}

func commonType(methods []*instrument.Method) string {
	typ := ""
	for _, m := range methods {
		if m.Type == "void" {
			continue
		}
		if typ != "" && typ != m.Type {
			return ""
		}
		typ = m.Type
	}
	return typ
}
