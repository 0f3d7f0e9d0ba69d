// Copyright 2017 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// Package runner runs a test generator on a program and processes the generated tests
// while the generator is still running: tests are converted into vectors,
// replay artifacts are written and vectors are validated.
package runner

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sosy-lab/tbf/pkg/cast"
	"github.com/sosy-lab/tbf/pkg/config"
	"github.com/sosy-lab/tbf/pkg/generator"
	"github.com/sosy-lab/tbf/pkg/generator/genimpl"
	"github.com/sosy-lab/tbf/pkg/harness"
	"github.com/sosy-lab/tbf/pkg/instrument"
	"github.com/sosy-lab/tbf/pkg/log"
	"github.com/sosy-lab/tbf/pkg/osutil"
	"github.com/sosy-lab/tbf/pkg/stat"
	"github.com/sosy-lab/tbf/pkg/tbfconfig"
	"github.com/sosy-lab/tbf/pkg/validator"
	"github.com/sosy-lab/tbf/pkg/vector"
	"github.com/sosy-lab/tbf/pkg/witness"
	"golang.org/x/sync/errgroup"
)

var (
	statTests = stat.New("tests", "Tests generated by the engine",
		stat.Console, stat.Rate{}, stat.Prometheus("tbf_tests"))
	statBadTests = stat.New("bad tests", "Tests that could not be converted into vectors",
		stat.Console, stat.Prometheus("tbf_bad_tests"))
	statVectors = stat.New("vectors", "Test vectors", stat.Console, stat.Prometheus("tbf_vectors"))
	statValidated = stat.New("validated", "Vectors validated by execution",
		stat.Console, stat.Prometheus("tbf_validated"))
	statWitnesses = stat.New("witnesses", "Violation witnesses written", stat.Console)
	statFound     = stat.New("counterexamples", "Vectors that reach the error method",
		stat.Console, stat.Prometheus("tbf_counterexamples"))
	statVectorLen = stat.New("vector length", "Values per vector",
		stat.Console, stat.Distribution{})
	statValidationTime = stat.New("validation time", "Time of a validation run",
		stat.Console, stat.Distribution{}, stat.FormatDuration)
)

const pollPeriod = time.Second

// Result of a run.
type Result struct {
	RunID   string
	Verdict validator.Verdict
	// Dir contains all files of the run.
	Dir string
	// Counterexample is the first vector that reaches the error method.
	Counterexample *vector.Vector
	// Test is the engine test the counterexample comes from.
	Test string
	// Finished says that the generator terminated by itself.
	Finished bool
	Vectors  int
	// Log is the recent log output, set on errors.
	Log string
}

type run struct {
	cfg         *tbfconfig.Config
	id          string
	dir         string
	src         []byte
	methods     []*instrument.Method
	names       []string
	errorLines  []int
	opts        *instrument.Options
	harnessOpts harness.Options
	env         *generator.Env
	eng         generator.Engine
	validator   *validator.Validator
	info        *witness.Info
	done        map[string]bool
	validation  stat.AverageValue[time.Duration]

	mu      sync.Mutex
	found   bool
	cex     *vector.Vector
	cexTest string
	vectors int
}

// Run runs the engine of cfg on the program of cfg until the time limit.
// Errors are returned together with an Error verdict result.
func Run(ctx context.Context, cfg *tbfconfig.Config) (*Result, error) {
	id := uuid.New().String()[:8]
	res := &Result{
		RunID:   id,
		Verdict: validator.Error,
		Dir:     filepath.Join(cfg.Workdir, "run-"+id),
	}
	r, err := prepare(ctx, cfg, id, res.Dir)
	if err == nil {
		res.Finished, err = r.run(ctx)
	}
	if r != nil {
		r.mu.Lock()
		res.Counterexample, res.Test, res.Vectors = r.cex, r.cexTest, r.vectors
		r.mu.Unlock()
	}
	if err != nil {
		res.Log = log.CachedLogOutput()
		r.writeStatistics(res)
		return res, err
	}
	res.Verdict = r.verdict(res.Finished)
	if err := r.writeStatistics(res); err != nil {
		return res, err
	}
	return res, nil
}

func prepare(ctx context.Context, cfg *tbfconfig.Config, id, dir string) (*run, error) {
	r := &run{
		cfg:  cfg,
		id:   id,
		dir:  dir,
		done: make(map[string]bool),
		opts: &instrument.Options{
			ErrorMethod:  cfg.ErrorMethod,
			NondetPrefix: cfg.NondetPattern,
			SVCompOnly:   cfg.SVCompOnly,
			Excludes:     cfg.Excludes,
		},
	}
	var err error
	if r.src, err = os.ReadFile(cfg.Program); err != nil {
		return nil, fmt.Errorf("failed to read program: %w", err)
	}
	file, err := cast.ParseSource(r.src, cfg.Program)
	if err != nil {
		// Engines that instrument the program fail later on their own,
		// afl replays the raw program and only needs the methods.
		log.Logf(0, "failed to parse program, scanning text for nondet methods: %v", err)
		r.methods = instrument.FindNondetMethodsText(r.src, r.opts)
		r.errorLines = instrument.ErrorLinesText(r.src, r.opts)
	} else {
		r.methods = instrument.FindNondetMethods(file, r.opts)
		r.errorLines = instrument.ErrorLines(file, r.opts)
	}
	for _, m := range r.methods {
		if m.Type != "void" {
			r.names = append(r.names, m.Name)
		}
	}
	log.Logf(0, "run %v: %v nondet methods, %v error calls", id, len(r.methods), len(r.errorLines))
	for _, m := range r.methods {
		log.Logf(1, "nondet method: %v", m.Head())
	}
	errorMethod := cfg.ErrorMethod
	if errorMethod == "" {
		errorMethod = instrument.DefaultErrorMethod
	}
	defined := definedFunctions(file)
	r.harnessOpts = harness.Options{
		ErrorMethod: errorMethod,
		NoAssume:    defined[instrument.AssumeMethod],
	}
	if defined[errorMethod] {
		log.Logf(0, "warning: program defines %v, execution can't detect calls to it", errorMethod)
		r.harnessOpts.ErrorMethod = ""
	}
	if err := osutil.MkdirAll(dir); err != nil {
		return nil, err
	}
	// The effective config reproduces the run with "tbf -config".
	if err := config.SaveFile(filepath.Join(dir, "config.json"), cfg); err != nil {
		return nil, fmt.Errorf("failed to save config: %w", err)
	}
	r.env = &generator.Env{
		Workdir:   filepath.Join(dir, cfg.Engine),
		Model:     cfg.Model,
		Timelimit: cfg.Timeout,
		Methods:   r.methods,
		Options:   r.opts,
		Debug:     log.V(2),
		Config:    cfg.EngineConfig,
	}
	if r.eng, err = generator.Create(cfg.Engine, r.env); err != nil {
		return r, err
	}
	if r.info, err = witness.NewInfo(fmt.Sprintf("%v-%v-%v", cfg.Producer, cfg.Engine, id),
		cfg.Program, cfg.Model.Architecture(), errorMethod); err != nil {
		return r, err
	}
	if cfg.ExecutionValidation() {
		r.validator, err = validator.New(ctx, &validator.Config{
			Program: cfg.Program,
			Workdir: filepath.Join(dir, "validator"),
			Methods: r.methods,
			Harness: r.harnessOpts,
			Compiler: &harness.Compiler{
				CC:    cfg.Compiler,
				Flags: cfg.CompilerFlags,
				Model: cfg.Model,
			},
			Timeout: cfg.ValidationTimeout,
			Procs:   cfg.Procs,
		})
		if err != nil {
			return r, err
		}
	}
	return r, nil
}

func definedFunctions(file *cast.File) map[string]bool {
	defined := make(map[string]bool)
	if file == nil {
		return defined
	}
	for _, item := range file.Items {
		if fn, ok := item.(*cast.FuncDef); ok {
			defined[cast.DeclName(fn)] = true
		}
	}
	return defined
}

func (r *run) run(ctx context.Context) (bool, error) {
	prepared, err := r.eng.Prepare(r.src, r.cfg.Program)
	if err != nil {
		return false, err
	}
	g, ctx := errgroup.WithContext(ctx)
	genCtx, stopGenerator := context.WithCancel(ctx)
	defer stopGenerator()
	genDone := make(chan struct{})
	finished := false
	g.Go(func() error {
		defer close(genDone)
		var err error
		finished, err = generator.Run(genCtx, r.eng, r.env, prepared)
		return err
	})
	g.Go(func() error {
		defer stopGenerator()
		return r.poll(ctx, genDone)
	})
	err = g.Wait()
	return finished, err
}

// poll processes new tests of the engine until the engine is done,
// or until the first counterexample if the run stops on errors.
func (r *run) poll(ctx context.Context, genDone <-chan struct{}) error {
	ticker := time.NewTicker(pollPeriod)
	defer ticker.Stop()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Procs)
	for last := false; !last && !r.stopped(); {
		select {
		case <-gctx.Done():
			return g.Wait()
		case <-genDone:
			last = true
		case <-ticker.C:
		}
		tests, err := r.eng.Tests(r.done)
		if err != nil {
			g.Wait()
			return err
		}
		for _, tc := range tests {
			if r.stopped() {
				break
			}
			r.done[tc.Name] = true
			n := len(r.done)
			tc := tc
			g.Go(func() error {
				return r.process(gctx, n, tc)
			})
		}
	}
	return g.Wait()
}

func (r *run) stopped() bool {
	if !r.cfg.StopOnError {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.found
}

func (r *run) process(ctx context.Context, n int, tc *vector.TestCase) error {
	if r.stopped() {
		return nil
	}
	statTests.Add(1)
	vec, err := r.eng.Vector(tc)
	if err != nil {
		log.Logf(0, "failed to convert test %v: %v", tc.Name, err)
		statBadTests.Add(1)
		return nil
	}
	statVectors.Add(1)
	statVectorLen.Add(vec.Len())
	r.mu.Lock()
	r.vectors++
	r.mu.Unlock()
	log.Logf(1, "test %v: %v", tc.Name, vec)
	if r.cfg.WriteVectors {
		if err := r.writeVector(filepath.Join(r.dir, "vectors", fmt.Sprintf("%v.txt", n)), tc, vec); err != nil {
			return err
		}
	}
	if r.cfg.WriteHarness {
		if err := r.writeHarness(ctx, filepath.Join(r.dir, "harness", fmt.Sprintf("%v.c", n)), vec); err != nil {
			return err
		}
	}
	if r.cfg.WitnessValidation() {
		data, err := witness.Synthesize(r.info, vec, r.names, r.errorLines)
		if err != nil {
			return err
		}
		if err := writeFile(filepath.Join(r.dir, "witness", fmt.Sprintf("%v.graphml", n)), data); err != nil {
			return err
		}
		statWitnesses.Add(1)
	}
	if r.validator == nil {
		return nil
	}
	res, err := r.validator.Validate(ctx, vec)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}
	statValidated.Add(1)
	statValidationTime.Add(int(res.Duration / time.Millisecond))
	r.validation.Save(res.Duration)
	if !res.Found {
		return nil
	}
	statFound.Add(1)
	log.Logf(0, "test %v reaches %v", tc.Name, r.harnessOpts.ErrorMethod)
	r.mu.Lock()
	first := !r.found
	if first {
		r.found, r.cex, r.cexTest = true, vec, tc.Name
	}
	r.mu.Unlock()
	if !first {
		return nil
	}
	if err := r.writeVector(filepath.Join(r.dir, "counterexample.txt"), tc, vec); err != nil {
		return err
	}
	return r.writeHarness(ctx, filepath.Join(r.dir, "counterexample.c"), vec)
}

func (r *run) writeVector(file string, tc *vector.TestCase, vec *vector.Vector) error {
	buf := new(bytes.Buffer)
	fmt.Fprintf(buf, "# %v/%v\n", r.cfg.Engine, tc.Name)
	vec.WriteTo(buf)
	return writeFile(file, buf.Bytes())
}

func (r *run) writeHarness(ctx context.Context, file string, vec *vector.Vector) error {
	data := harness.Synthesize(r.methods, vec, r.harnessOpts)
	if r.cfg.FormatHarness {
		data = harness.Format(ctx, data)
	}
	return writeFile(file, data)
}

func writeFile(file string, data []byte) error {
	if err := osutil.MkdirAll(filepath.Dir(file)); err != nil {
		return err
	}
	return osutil.WriteFile(file, data)
}

func (r *run) verdict(finished bool) validator.Verdict {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch {
	case r.found:
		return validator.False
	case r.validator == nil:
		return validator.Done
	case finished && exhaustive(r.eng):
		return validator.True
	default:
		return validator.Unknown
	}
}

func exhaustive(eng generator.Engine) bool {
	ex, ok := eng.(genimpl.Exhaustive)
	return ok && ex.Exhaustive()
}

func (r *run) writeStatistics(res *Result) error {
	if r == nil {
		return nil
	}
	buf := new(bytes.Buffer)
	fmt.Fprintf(buf, "Run %v of %v on %v\n\n", r.id, r.cfg.Engine, r.cfg.Program)
	for _, s := range stat.Collect(stat.Console) {
		fmt.Fprintf(buf, "%-24v%v\n", s.Name+":", s.Value)
	}
	if n := r.validation.Count(); n != 0 {
		fmt.Fprintf(buf, "%-24v%v (%v runs)\n", "mean validation time:",
			r.validation.Value().Round(time.Millisecond), n)
	}
	fmt.Fprintf(buf, "\nTBF verdict: %v\n", res.Verdict)
	return writeFile(filepath.Join(r.dir, "Statistics.txt"), buf.Bytes())
}
