// Copyright 2017 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// Package vector defines test vectors and the raw test cases they are converted from.
package vector

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"
)

// Value is one input value in call order.
// Method is the input function that returned it, or empty if the engine does not tell.
type Value struct {
	Value  string
	Method string
}

// Vector is an immutable sequence of input values.
type Vector struct {
	values []Value
}

func New(values ...Value) *Vector {
	return &Vector{values: append([]Value(nil), values...)}
}

func (v *Vector) Len() int {
	return len(v.values)
}

func (v *Vector) At(i int) Value {
	return v.values[i]
}

// Values returns a copy of the values.
func (v *Vector) Values() []Value {
	return append([]Value(nil), v.values...)
}

// Attributed says if every value has a method.
func (v *Vector) Attributed() bool {
	for _, val := range v.values {
		if val.Method == "" {
			return false
		}
	}
	return true
}

// ForMethod returns the values attributed to method, in call order.
func (v *Vector) ForMethod(method string) []string {
	var res []string
	for _, val := range v.values {
		if val.Method == method {
			res = append(res, val.Value)
		}
	}
	return res
}

func (v *Vector) String() string {
	buf := new(bytes.Buffer)
	v.WriteTo(buf)
	return buf.String()
}

// WriteTo writes one value per line, as "method: value" or "value".
func (v *Vector) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for _, val := range v.values {
		line := val.Value + "\n"
		if val.Method != "" {
			line = val.Method + ": " + line
		}
		n, err := io.WriteString(w, line)
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// Parse reads a vector in the format of WriteTo.
// Empty lines and lines starting with # are skipped.
func Parse(data []byte) (*Vector, error) {
	v := new(Vector)
	s := bufio.NewScanner(bytes.NewReader(data))
	for line := 1; s.Scan(); line++ {
		text := strings.TrimSpace(s.Text())
		if text == "" || text[0] == '#' {
			continue
		}
		val := Value{Value: text}
		if method, value, ok := strings.Cut(text, ":"); ok {
			method, value = strings.TrimSpace(method), strings.TrimSpace(value)
			if !isIdent(method) || value == "" {
				return nil, fmt.Errorf("line %v: bad value %q", line, text)
			}
			val = Value{Value: value, Method: method}
		}
		v.values = append(v.values, val)
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	return v, nil
}

func isIdent(s string) bool {
	for i, c := range s {
		switch {
		case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9' && i > 0:
		default:
			return false
		}
	}
	return s != ""
}

// TestCase is a raw test produced by an engine, before conversion to a vector.
type TestCase struct {
	// Name is unique among the tests of one run, usually the file name.
	Name string
	Path string
	Data []byte
	// Found is when the test was first seen.
	Found time.Time
}
