// Copyright 2017 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// Package machine describes the two supported target machine models.
package machine

import (
	"fmt"
	"strings"
)

// Model gives byte sizes of C arithmetic types.
type Model struct {
	Bits       int
	Name       string
	Short      int
	Int        int
	Long       int
	LongLong   int
	Float      int
	Double     int
	LongDouble int
	// CFlag selects the model when compiling.
	CFlag string
}

var (
	Model32 = &Model{
		Bits:       32,
		Name:       "32 bit linux",
		Short:      2,
		Int:        4,
		Long:       4,
		LongLong:   8,
		Float:      4,
		Double:     8,
		LongDouble: 12,
		CFlag:      "-m32",
	}
	Model64 = &Model{
		Bits:       64,
		Name:       "64 bit linux",
		Short:      2,
		Int:        4,
		Long:       8,
		LongLong:   8,
		Float:      4,
		Double:     8,
		LongDouble: 16,
		CFlag:      "-m64",
	}
)

// Lookup returns the model for "32" or "64" (a "bit" suffix is accepted).
func Lookup(name string) (*Model, error) {
	switch strings.TrimSuffix(strings.TrimSpace(name), "bit") {
	case "32":
		return Model32, nil
	case "64":
		return Model64, nil
	}
	return nil, fmt.Errorf("unknown machine model %q, expect 32 or 64", name)
}

// Architecture is the witness architecture name: "32bit" or "64bit".
func (m *Model) Architecture() string {
	return fmt.Sprintf("%vbit", m.Bits)
}

func (m *Model) String() string {
	return m.Architecture()
}

// PtrSize returns the size of data pointers.
func (m *Model) PtrSize() int {
	return m.Bits / 8
}

// Size returns the size of the arithmetic type typ, e.g. "unsigned long long".
// Signedness and qualifiers do not matter. Pointers have the pointer size.
// Returns false for types that are not arithmetic or pointer types.
func (m *Model) Size(typ string) (int, bool) {
	typ = strings.TrimSpace(typ)
	if strings.HasSuffix(typ, "*") {
		return m.PtrSize(), true
	}
	words := make(map[string]int)
	for _, w := range strings.Fields(typ) {
		words[w]++
	}
	switch {
	case words["_Bool"] != 0 || words["char"] != 0:
		return 1, true
	case words["short"] != 0:
		return m.Short, true
	case words["long"] >= 2:
		return m.LongLong, true
	case words["long"] != 0 && words["double"] != 0:
		return m.LongDouble, true
	case words["long"] != 0:
		return m.Long, true
	case words["double"] != 0:
		return m.Double, true
	case words["float"] != 0:
		return m.Float, true
	case words["int"] != 0 || words["signed"] != 0 || words["unsigned"] != 0:
		return m.Int, true
	}
	return 0, false
}
