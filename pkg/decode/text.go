// Copyright 2017 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package decode

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/sosy-lab/tbf/pkg/machine"
)

// TextDecoder decodes decimal, hex ("0x...") and floating literals.
// Raw data may carry a trailing newline and C integer suffixes (u, l).
type TextDecoder struct {
	Model *machine.Model
}

func (d TextDecoder) Decode(raw []byte, typ string) (Value, error) {
	c := Classify(typ, d.Model)
	s := strings.TrimSpace(string(raw))
	if s == "" {
		return Value{}, fmt.Errorf("empty data for %v", typ)
	}
	if c.Kind == Float {
		f, err := parseFloat(s)
		if err != nil {
			return Value{}, fmt.Errorf("bad value %q for %v: %w", s, typ, err)
		}
		if c.Size == 4 {
			f = float64(float32(f))
		}
		return Value{Kind: Float, Size: c.Size, Flt: f}, nil
	}
	bits, negative, err := parseInt(s)
	if err != nil {
		return Value{}, fmt.Errorf("bad value %q for %v: %w", s, typ, err)
	}
	if !fits(bits, negative, c.Size) {
		return Value{}, fmt.Errorf("value %v does not fit into %v of size %v", s, typ, c.Size)
	}
	return fromBits(c, bits), nil
}

func parseInt(s string) (uint64, bool, error) {
	s = strings.TrimRight(s, "uUlL")
	if v, err := strconv.ParseUint(s, 0, 64); err == nil {
		return v, false, nil
	}
	v, err := strconv.ParseInt(s, 0, 64)
	if err != nil {
		return 0, false, err
	}
	return uint64(v), v < 0, nil
}

func parseFloat(s string) (float64, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil && !strings.HasPrefix(strings.ToLower(s), "0x") {
		f, err = strconv.ParseFloat(strings.TrimRight(s, "fFlL"), 64)
	}
	if err == nil {
		return f, nil
	}
	if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
		return f, nil
	}
	// Hex integers are not valid float syntax without an exponent.
	bits, negative, ierr := parseInt(s)
	if ierr != nil {
		return 0, err
	}
	if negative {
		return float64(int64(bits)), nil
	}
	return float64(bits), nil
}

// Decimal decodes s as a number of type typ and returns it as a C literal.
func Decimal(s, typ string, m *machine.Model) (string, error) {
	v, err := TextDecoder{m}.Decode([]byte(s), typ)
	if err != nil {
		return "", err
	}
	return v.String(), nil
}

// Finite is false for infinite and NaN floating values, which have no C literal.
func (v Value) Finite() bool {
	return v.Kind != Float || !math.IsInf(v.Flt, 0) && !math.IsNaN(v.Flt)
}
