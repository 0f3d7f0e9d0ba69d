// Copyright 2017 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// Package validator checks test vectors by executing the program with them.
// The program is compiled once with the generic harness, each vector is then
// fed to the binary through stdin.
package validator

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/sosy-lab/tbf/pkg/harness"
	"github.com/sosy-lab/tbf/pkg/instrument"
	"github.com/sosy-lab/tbf/pkg/log"
	"github.com/sosy-lab/tbf/pkg/osutil"
	"github.com/sosy-lab/tbf/pkg/vector"
)

// Verdict is the result of a whole run.
type Verdict string

const (
	// True means that the generator finished without any counterexample.
	True Verdict = "TRUE"
	// False means that a counterexample was found.
	False Verdict = "FALSE"
	// Unknown means that the time limit was hit without a counterexample.
	Unknown Verdict = "UNKNOWN"
	// Error means that the run failed.
	Error Verdict = "ERROR"
	// Done means that tests were generated without validation.
	Done Verdict = "DONE"
)

const (
	DefaultTimeout = 5 * time.Second
	binary         = "harness.out"
	genericHarness = "harness.c"
)

type Config struct {
	// Program is the C file the harness is compiled with.
	Program string
	// Workdir keeps the harness and the binary.
	Workdir  string
	Methods  []*instrument.Method
	Harness  harness.Options
	Compiler *harness.Compiler
	// Timeout limits a single run of the program.
	Timeout time.Duration
	// Procs is the number of vectors validated in parallel.
	Procs int
}

type Validator struct {
	cfg *Config
	bin string
	sem *osutil.Semaphore
}

// Result of the validation of one vector.
type Result struct {
	Vector *vector.Vector
	// Found is set if the vector reaches the error method.
	Found    bool
	Timeout  bool
	Output   []byte
	Duration time.Duration
}

// New builds the program with the generic harness.
func New(ctx context.Context, cfg *Config) (*Validator, error) {
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Procs <= 0 {
		cfg.Procs = 1
	}
	if cfg.Compiler == nil {
		cfg.Compiler = new(harness.Compiler)
	}
	if err := osutil.MkdirAll(cfg.Workdir); err != nil {
		return nil, err
	}
	file := filepath.Join(cfg.Workdir, genericHarness)
	if err := osutil.WriteFile(file, harness.Generic(cfg.Methods, cfg.Harness)); err != nil {
		return nil, err
	}
	bin := filepath.Join(cfg.Workdir, binary)
	if err := cfg.Compiler.Build(ctx, osutil.Abs(cfg.Program), file, bin); err != nil {
		return nil, err
	}
	log.Logf(1, "built validation harness %v", bin)
	return &Validator{
		cfg: cfg,
		bin: bin,
		sem: osutil.NewSemaphore(cfg.Procs),
	}, nil
}

// Validate runs the program with vec. Failure to run the binary is an error,
// crashes and timeouts of the program are not.
func (v *Validator) Validate(ctx context.Context, vec *vector.Vector) (*Result, error) {
	select {
	case <-v.sem.WaitC():
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer v.sem.Signal()
	cmd := osutil.Command(v.bin)
	cmd.Dir = v.cfg.Workdir
	cmd.Stdin = strings.NewReader(Input(vec))
	start := time.Now()
	output, err := osutil.Run(ctx, v.cfg.Timeout, cmd)
	res := &Result{
		Vector:   vec,
		Found:    bytes.Contains(output, []byte(harness.ErrorMarker)),
		Timeout:  osutil.IsTimeout(err),
		Output:   output,
		Duration: time.Since(start),
	}
	if err != nil && output == nil {
		return nil, err
	}
	if ctx.Err() != nil && !res.Found {
		return nil, ctx.Err()
	}
	log.Logf(2, "validated %v values in %v: found=%v timeout=%v", vec.Len(), res.Duration, res.Found, res.Timeout)
	return res, nil
}

// Input returns the stdin of the generic harness for vec.
func Input(vec *vector.Vector) string {
	buf := new(strings.Builder)
	for i := 0; i < vec.Len(); i++ {
		fmt.Fprintf(buf, "%v\n", vec.At(i).Value)
	}
	return buf.String()
}
