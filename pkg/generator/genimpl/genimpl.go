// Copyright 2017 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// Package genimpl provides the abstract test generator (engine) interface
// for the rest of the system and helpers shared by engine implementations.
package genimpl

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sosy-lab/tbf/pkg/decode"
	"github.com/sosy-lab/tbf/pkg/instrument"
	"github.com/sosy-lab/tbf/pkg/machine"
	"github.com/sosy-lab/tbf/pkg/osutil"
	"github.com/sosy-lab/tbf/pkg/vector"
)

// Engine is a test generator.
// All files of an engine live in Env.Workdir, commands run there.
type Engine interface {
	// Prepare writes the program to generate tests for and any auxiliary files into the workdir.
	// Returns the name of the prepared program relative to the workdir.
	Prepare(src []byte, filename string) (string, error)

	// Commands returns the commands that build and run the generator, in order.
	// Only the last one is the generator itself and runs under the time limit.
	Commands(prepared string) [][]string

	// Env returns additional environment variables for the commands.
	Env() []string

	// Decoder returns the decoder for raw values of this engine.
	Decoder() decode.Decoder

	// Tests returns the tests generated so far, except those in done, sorted by name.
	Tests(done map[string]bool) ([]*vector.TestCase, error)

	// Vector converts a test into a test vector.
	Vector(tc *vector.TestCase) (*vector.Vector, error)
}

// Exhaustive is optionally implemented by engines that explore all paths of a program
// when they terminate before the time limit.
type Exhaustive interface {
	Exhaustive() bool
}

// Env contains global constant parameters of a run.
type Env struct {
	Workdir string
	Model   *machine.Model
	// Timelimit of the generator, 0 means no limit.
	Timelimit time.Duration
	// Methods are the non-deterministic methods of the program.
	Methods []*instrument.Method
	Options *instrument.Options
	Debug   bool
	Config  []byte // json-serialized engine-specific config
}

type ctorFunc func(env *Env) (Engine, error)

var Types = make(map[string]ctorFunc)

// Register registers a new engine within the package.
func Register(name string, ctor ctorFunc) {
	if Types[name] != nil {
		panic(fmt.Sprintf("engine %v is already registered", name))
	}
	Types[name] = ctor
}

// Method returns the method with the given name.
func (env *Env) Method(name string) *instrument.Method {
	for _, m := range env.Methods {
		if m.Name == name {
			return m
		}
	}
	return nil
}

// Instrument rewrites src with backend and writes it into the workdir as name.
func (env *Env) Instrument(src []byte, filename, name string, backend instrument.Backend) (string, error) {
	opts := new(instrument.Options)
	if env.Options != nil {
		*opts = *env.Options
	}
	opts.Methods = env.Methods
	out, _, err := instrument.Source(src, filename, backend, opts)
	if err != nil {
		return "", fmt.Errorf("failed to instrument %v: %w", filename, err)
	}
	if err := osutil.WriteFile(filepath.Join(env.Workdir, name), out); err != nil {
		return "", err
	}
	return name, nil
}

// ReadTests reads files in dir for which match returns true, sorted by name.
// Empty files are skipped, they may still be written.
func ReadTests(dir string, done map[string]bool, match func(name string) bool) ([]*vector.TestCase, error) {
	names, err := osutil.ListDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var tests []*vector.TestCase
	for _, name := range names {
		if done[name] || !match(name) {
			continue
		}
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if len(data) == 0 {
			continue
		}
		tests = append(tests, &vector.TestCase{
			Name:  name,
			Path:  path,
			Data:  data,
			Found: time.Now(),
		})
	}
	return tests, nil
}

// Lines returns the non-empty trimmed lines of data.
func Lines(data []byte) []string {
	var lines []string
	for _, line := range strings.Split(string(data), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// PathEnv returns the PATH variable with dirs in front.
func PathEnv(dirs ...string) string {
	path := os.Getenv("PATH")
	for i := len(dirs) - 1; i >= 0; i-- {
		if dirs[i] != "" {
			path = dirs[i] + string(os.PathListSeparator) + path
		}
	}
	return "PATH=" + path
}
