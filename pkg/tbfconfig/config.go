// Copyright 2015 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package tbfconfig

import (
	"encoding/json"
	"time"

	"github.com/sosy-lab/tbf/pkg/machine"
)

type Config struct {
	// C program to generate tests for (preprocessed or not).
	Program string `json:"program"`
	// Location of a working directory for the run. Outputs here include:
	// - <workdir>/run-<id>/<engine>: files of the test generator
	// - <workdir>/run-<id>/validator: the validation harness
	// - <workdir>/run-<id>/harness/<n>.c: harness per vector
	// - <workdir>/run-<id>/witness/<n>.graphml: violation witness per vector
	// - <workdir>/run-<id>/vectors/<n>.txt: test vector files
	// - <workdir>/run-<id>/Statistics.txt: statistics and the verdict
	// - <workdir>/run-<id>/counterexample.{txt,c}: the first counterexample and its harness
	Workdir string `json:"workdir"`
	// Test generator: klee, crest, afl or random.
	Engine string `json:"engine"`
	// Machine model: "32" or "64".
	Machine string `json:"machine"`
	// Prefix of the error function, __VERIFIER_error by default.
	ErrorMethod string `json:"error_method,omitempty"`
	// Prefix of the functions that are always non-deterministic.
	NondetPattern string `json:"nondet_pattern,omitempty"`
	// Only functions matching nondet_pattern are inputs.
	// Otherwise every function that is declared but not defined is an input.
	SVCompOnly bool `json:"svcomp_only,omitempty"`
	// Undefined functions that are not inputs.
	Excludes []string `json:"excludes,omitempty"`
	// Time limit of the test generator in seconds, 0 means no limit.
	Timelimit int `json:"timelimit"`
	// Time limit of a single validation run in seconds.
	ValidationTimelimit int `json:"validation_timelimit"`
	// How vectors are validated:
	// "execution": run the program with the vector and look for the error marker,
	// "witness": write a violation witness for every vector,
	// "both": do both.
	Strategy string `json:"strategy"`
	// Stop the run at the first counterexample.
	StopOnError bool `json:"stop_on_error"`
	// Write a harness per vector.
	WriteHarness bool `json:"write_harness"`
	// Write a witness per vector (always done for "witness" and "both" strategies).
	WriteWitness bool `json:"write_witness"`
	// Write vector files.
	WriteVectors bool `json:"write_vectors"`
	// Number of vectors validated in parallel.
	Procs int `json:"procs"`
	// C compiler for harnesses, gcc by default.
	Compiler string `json:"compiler,omitempty"`
	// Additional compiler flags for harnesses.
	CompilerFlags []string `json:"compiler_flags,omitempty"`
	// Run written harnesses through clang-format.
	FormatHarness bool `json:"format_harness,omitempty"`
	// Producer name recorded in witnesses.
	Producer string `json:"producer,omitempty"`
	// Address to serve /metrics on (e.g. "localhost:8080"), none if empty.
	HTTP string `json:"http,omitempty"`
	// Engine-specific config, see pkg/generator/*/*.go for the fields.
	EngineConfig json.RawMessage `json:"engine_config,omitempty"`

	// Implementation details beyond this point. Filled after parsing.
	Model             *machine.Model `json:"-"`
	Timeout           time.Duration  `json:"-"`
	ValidationTimeout time.Duration  `json:"-"`
}

// Validation strategies.
const (
	Execution = "execution"
	Witness   = "witness"
	Both      = "both"
)

// ExecutionValidation says if vectors are run.
func (cfg *Config) ExecutionValidation() bool {
	return cfg.Strategy == Execution || cfg.Strategy == Both
}

// WitnessValidation says if witnesses are written.
func (cfg *Config) WitnessValidation() bool {
	return cfg.Strategy == Witness || cfg.Strategy == Both || cfg.WriteWitness
}
