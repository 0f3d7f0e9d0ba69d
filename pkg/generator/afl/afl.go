// Copyright 2017 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// Package afl runs the AFL fuzzer on the program linked with the generic harness,
// which reads one input value per line from stdin.
package afl

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/sosy-lab/tbf/pkg/config"
	"github.com/sosy-lab/tbf/pkg/decode"
	"github.com/sosy-lab/tbf/pkg/generator/genimpl"
	"github.com/sosy-lab/tbf/pkg/harness"
	"github.com/sosy-lab/tbf/pkg/instrument"
	"github.com/sosy-lab/tbf/pkg/osutil"
	"github.com/sosy-lab/tbf/pkg/vector"
)

func init() {
	genimpl.Register("afl", ctor)
}

type Config struct {
	BinDir string   `json:"bin_dir"` // dir with afl-gcc and afl-fuzz
	Args   []string `json:"args"`    // additional afl-fuzz arguments
	// Seed is the content of the initial test, 1000 zeros if empty.
	Seed string `json:"seed"`
}

const (
	findingsDir = "findings"
	seedDir     = "initial-tests"
	binary      = "tested.out"
)

type Engine struct {
	env     *genimpl.Env
	cfg     *Config
	decoder decode.Decoder
}

func ctor(env *genimpl.Env) (genimpl.Engine, error) {
	cfg := &Config{
		Seed: strings.Repeat("0\n", 1000),
	}
	if len(env.Config) != 0 {
		if err := config.LoadData(env.Config, cfg); err != nil {
			return nil, err
		}
	}
	return &Engine{
		env:     env,
		cfg:     cfg,
		decoder: decode.TextDecoder{Model: env.Model},
	}, nil
}

// Prepare appends the generic harness to the program and writes the initial test.
func (eng *Engine) Prepare(src []byte, filename string) (string, error) {
	opts := harness.Options{ErrorMethod: errorMethod(eng.env.Options)}
	prepared := append(append(append([]byte(nil), src...), '\n'), harness.Generic(eng.env.Methods, opts)...)
	const name = "afl-program.c"
	if err := osutil.WriteFile(filepath.Join(eng.env.Workdir, name), prepared); err != nil {
		return "", err
	}
	if err := osutil.MkdirAll(filepath.Join(eng.env.Workdir, seedDir)); err != nil {
		return "", err
	}
	seed := filepath.Join(eng.env.Workdir, seedDir, "0.afl-test")
	if err := osutil.WriteFile(seed, []byte(eng.cfg.Seed)); err != nil {
		return "", err
	}
	return name, nil
}

func errorMethod(opts *instrument.Options) string {
	if opts == nil || opts.ErrorMethod == "" {
		return instrument.DefaultErrorMethod
	}
	return opts.ErrorMethod
}

func (eng *Engine) Commands(prepared string) [][]string {
	run := []string{eng.bin("afl-fuzz"), "-i", seedDir, "-o", findingsDir}
	run = append(run, eng.cfg.Args...)
	run = append(run, "--", "./"+binary)
	return [][]string{
		{eng.bin("afl-gcc"), eng.env.Model.CFlag, "-o", binary, prepared, "-lm"},
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
	env := []string{
		"AFL_I_DONT_CARE_ABOUT_MISSING_CRASHES=1",
		"AFL_SKIP_CPUFREQ=1",
		"AFL_NO_UI=1",
	}
	if eng.cfg.BinDir != "" {
		env = append(env, "AFL_PATH="+eng.cfg.BinDir)
	}
	return env
}

func (eng *Engine) Decoder() decode.Decoder {
	return eng.decoder
}

// Tests returns the queue. Crashes and hangs cannot reach the error method,
// since it exits normally.
func (eng *Engine) Tests(done map[string]bool) ([]*vector.TestCase, error) {
	return genimpl.ReadTests(filepath.Join(eng.env.Workdir, findingsDir, "queue"), done, func(name string) bool {
		return strings.HasPrefix(name, "id:")
	})
}

// Vector returns one unattributed value per line. The harness aborts on the first
// line it cannot parse, so the vector ends there. An empty line parses as 0.
func (eng *Engine) Vector(tc *vector.TestCase) (*vector.Vector, error) {
	var values []vector.Value
	lines := bytes.Split(tc.Data, []byte{'\n'})
	if len(lines[len(lines)-1]) == 0 {
		lines = lines[:len(lines)-1]
	}
	for _, line := range lines {
		if len(bytes.TrimSpace(line)) == 0 {
			values = append(values, vector.Value{Value: "0"})
			continue
		}
		v, err := eng.decoder.Decode(line, "long long")
		if err != nil {
			if v, err = eng.decoder.Decode(line, "long double"); err != nil {
				break
			}
		}
		values = append(values, vector.Value{Value: v.String()})
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("%v: no values", tc.Name)
	}
	return vector.New(values...), nil
}
