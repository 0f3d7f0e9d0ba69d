// Copyright 2017 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// Package instrument rewrites C translation units for test generators:
// calls to non-deterministic input functions are replaced with fresh variables
// that the generator backend controls, and calls to the error function are replaced
// with a backend-specific error statement.
package instrument

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/sosy-lab/tbf/pkg/cast"
)

const (
	DefaultErrorMethod  = "__VERIFIER_error"
	DefaultNondetPrefix = "__VERIFIER_nondet_"
	AssumeMethod        = "__VERIFIER_assume"

	// SymPrefix starts names of all variables introduced by the rewrite.
	SymPrefix = "__sym_"
	// ErrorReturn is the exit status of instrumented programs that reached the error call.
	ErrorReturn = 107
)

var (
	// ErrUnknownType means that a nondet call has no declaration in scope.
	ErrUnknownType = errors.New("unknown type")
	// ErrUnsupported means that the program uses a construct the rewrite does not handle.
	ErrUnsupported = errors.New("construct not supported")
)

type Options struct {
	// ErrorMethod is a prefix of names of error functions.
	ErrorMethod string
	// NondetPrefix is a prefix of names of functions that are always non-deterministic.
	NondetPrefix string
	// SVCompOnly restricts non-deterministic methods to those matching NondetPrefix.
	// Otherwise every function that is declared but not defined is an input.
	SVCompOnly bool
	// Excludes are names of undefined functions that are not inputs.
	Excludes []string
	// Methods are non-deterministic methods found by FindNondetMethods.
	// Methods that are not declared in the unit get a declaration at the top.
	Methods []*Method
}

func (opts *Options) errorMethod() string {
	if opts == nil || opts.ErrorMethod == "" {
		return DefaultErrorMethod
	}
	return opts.ErrorMethod
}

func (opts *Options) nondetPrefix() string {
	if opts == nil || opts.NondetPrefix == "" {
		return DefaultNondetPrefix
	}
	return opts.NondetPrefix
}

func (opts *Options) svcompOnly() bool {
	return opts != nil && opts.SVCompOnly
}

func (opts *Options) excluded(name string) bool {
	if name == AssumeMethod || strings.HasPrefix(name, opts.errorMethod()) {
		return true
	}
	if opts != nil {
		for _, ex := range opts.Excludes {
			if name == ex {
				return true
			}
		}
	}
	return false
}

// Var is a variable introduced for a nondet call.
type Var struct {
	Name   string
	Method string
	Type   string
	Pos    cast.Pos
}

// VarName returns the name of the n-th variable introduced for method.
func VarName(method string, n int) string {
	return fmt.Sprintf("%v%v_%v", SymPrefix, method, n)
}

// MethodOf returns the method a variable with the given name was introduced for.
func MethodOf(name string) (string, bool) {
	rest, ok := strings.CutPrefix(name, SymPrefix)
	if !ok {
		return "", false
	}
	pos := strings.LastIndexByte(rest, '_')
	if pos <= 0 {
		return "", false
	}
	if _, err := strconv.ParseUint(rest[pos+1:], 10, 64); err != nil {
		return "", false
	}
	return rest[:pos], true
}

// Source prepares, parses and rewrites C source and returns the instrumented source.
func Source(data []byte, filename string, backend Backend, opts *Options) ([]byte, []Var, error) {
	file, err := cast.ParseSource(data, filename)
	if err != nil {
		return nil, nil, err
	}
	r := NewReplacer(backend, opts)
	if err := r.Rewrite(file); err != nil {
		return nil, nil, err
	}
	out := []byte(backend.Preamble())
	out = append(out, cast.Format(file)...)
	return out, r.Vars(), nil
}
