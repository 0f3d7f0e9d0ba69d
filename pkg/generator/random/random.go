// Copyright 2017 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// Package random runs the program repeatedly with random inputs.
// Each input call appends a "name: 0x<bytes>" line to vector.test,
// where the bytes are in big-endian order. After each run the file is moved
// into the test dir.
package random

import (
	"encoding/hex"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/sosy-lab/tbf/pkg/config"
	"github.com/sosy-lab/tbf/pkg/decode"
	"github.com/sosy-lab/tbf/pkg/generator/genimpl"
	"github.com/sosy-lab/tbf/pkg/instrument"
	"github.com/sosy-lab/tbf/pkg/osutil"
	"github.com/sosy-lab/tbf/pkg/vector"
)

func init() {
	genimpl.Register("random", ctor)
}

type Config struct {
	CC string `json:"cc"`
	// RunTimeout limits a single run of the program, in seconds.
	RunTimeout int `json:"run_timeout"`
	// Runs is the number of runs, 0 means until the time limit.
	Runs int `json:"runs"`
}

const (
	TestDir = "tests"
	runtime = "random_tester.c"
	binary  = "random-program"
)

var testRe = regexp.MustCompile(`^vector[0-9]+\.test$`)

const runtimeSource = `#include <stdio.h>
#include <stdlib.h>
#include <time.h>
#include <unistd.h>

static int seeded;

void input(void *var, unsigned long var_size, const char *var_name) {
	unsigned char *val = var;
	unsigned long i;
	FILE *vector;

	if (!seeded) {
		struct timespec now;
		clock_gettime(CLOCK_REALTIME, &now);
		srand(now.tv_nsec ^ getpid());
		seeded = 1;
	}
	for (i = 0; i < var_size; i++)
		val[i] = rand() & 255;
	vector = fopen("vector.test", "a");
	if (!vector)
		abort();
	fprintf(vector, "%s: 0x", var_name);
	for (i = var_size; i > 0; i--)
		fprintf(vector, "%.2x", val[i - 1]);
	fprintf(vector, "\n");
	fclose(vector);
}
`

type Engine struct {
	env     *genimpl.Env
	cfg     *Config
	decoder decode.Decoder
}

func ctor(env *genimpl.Env) (genimpl.Engine, error) {
	cfg := &Config{
		CC:         "gcc",
		RunTimeout: 1,
	}
	if len(env.Config) != 0 {
		if err := config.LoadData(env.Config, cfg); err != nil {
			return nil, err
		}
	}
	if cfg.RunTimeout <= 0 || cfg.Runs < 0 {
		return nil, fmt.Errorf("bad random config: run_timeout %v, runs %v", cfg.RunTimeout, cfg.Runs)
	}
	return &Engine{
		env:     env,
		cfg:     cfg,
		decoder: decode.BinaryDecoder{Model: env.Model},
	}, nil
}

func (eng *Engine) Prepare(src []byte, filename string) (string, error) {
	if err := osutil.WriteFile(filepath.Join(eng.env.Workdir, runtime), []byte(runtimeSource)); err != nil {
		return "", err
	}
	if err := osutil.MkdirAll(filepath.Join(eng.env.Workdir, TestDir)); err != nil {
		return "", err
	}
	return eng.env.Instrument(src, filename, "random-program.c", instrument.Random{})
}

func (eng *Engine) Commands(prepared string) [][]string {
	cond := ":"
	if eng.cfg.Runs != 0 {
		cond = fmt.Sprintf("[ $i -lt %v ]", eng.cfg.Runs)
	}
	loop := fmt.Sprintf("i=0; while %v; do i=$((i+1)); rm -f vector.test; "+
		"timeout %v ./%v </dev/null >/dev/null 2>&1; "+
		"if [ -f vector.test ]; then mv vector.test %v/vector$i.test; fi; done",
		cond, eng.cfg.RunTimeout, binary, TestDir)
	return [][]string{
		{eng.cfg.CC, "-std=gnu11", eng.env.Model.CFlag, "-o", binary, runtime, prepared, "-lm"},
		{"sh", "-c", loop},
	}
}

func (eng *Engine) Env() []string {
	return nil
}

func (eng *Engine) Decoder() decode.Decoder {
	return eng.decoder
}

func (eng *Engine) Tests(done map[string]bool) ([]*vector.TestCase, error) {
	return genimpl.ReadTests(filepath.Join(eng.env.Workdir, TestDir), done, testRe.MatchString)
}

// Vector converts the big-endian hex of each value to target byte order and decodes it
// with the type of the method the variable belongs to.
func (eng *Engine) Vector(tc *vector.TestCase) (*vector.Vector, error) {
	var values []vector.Value
	for i, line := range genimpl.Lines(tc.Data) {
		name, val, ok := strings.Cut(line, ":")
		if !ok {
			return nil, fmt.Errorf("%v:%v: bad line %q", tc.Name, i+1, line)
		}
		method, ok := instrument.MethodOf(strings.TrimSpace(name))
		if !ok {
			return nil, fmt.Errorf("%v:%v: bad variable %q", tc.Name, i+1, name)
		}
		m := eng.env.Method(method)
		if m == nil {
			return nil, fmt.Errorf("%v:%v: unknown method %v", tc.Name, i+1, method)
		}
		raw, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(val), "0x"))
		if err != nil {
			return nil, fmt.Errorf("%v:%v: %w", tc.Name, i+1, err)
		}
		for l, r := 0, len(raw)-1; l < r; l, r = l+1, r-1 {
			raw[l], raw[r] = raw[r], raw[l]
		}
		v, err := eng.decoder.Decode(raw, m.Type)
		if err != nil {
			return nil, fmt.Errorf("%v:%v: %w", tc.Name, i+1, err)
		}
		values = append(values, vector.Value{Value: v.String(), Method: method})
	}
	return vector.New(values...), nil
}
