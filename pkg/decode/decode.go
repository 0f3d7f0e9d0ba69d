// Copyright 2017 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// Package decode converts raw test data of test generators into values of C types.
//
// Binary data is little-endian, as written by symbolic execution engines.
// Text data is a decimal, hex or floating literal. Integers are narrowed to the declared
// width with C conversion semantics, but only if the value fits into the width either
// as a signed or as an unsigned number. Anything else is an error, never a silent truncation.
package decode

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sosy-lab/tbf/pkg/log"
	"github.com/sosy-lab/tbf/pkg/machine"
)

type Kind int

const (
	Signed Kind = iota
	Unsigned
	Float
)

func (k Kind) String() string {
	switch k {
	case Signed:
		return "signed"
	case Unsigned:
		return "unsigned"
	case Float:
		return "float"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Value is a decoded value. Only the field matching Kind is set.
type Value struct {
	Kind Kind
	Size int
	Int  int64
	Uint uint64
	Flt  float64
}

// String returns the value as a C literal that strtoull/strtoll/strtold accept.
func (v Value) String() string {
	switch v.Kind {
	case Signed:
		return strconv.FormatInt(v.Int, 10)
	case Unsigned:
		return strconv.FormatUint(v.Uint, 10)
	default:
		s := strconv.FormatFloat(v.Flt, 'g', -1, 64)
		if v.Size == 4 {
			s = strconv.FormatFloat(v.Flt, 'g', -1, 32)
		}
		return strings.TrimPrefix(s, "+")
	}
}

// Decoder decodes raw data of a value of type typ.
type Decoder interface {
	Decode(raw []byte, typ string) (Value, error)
}

// Class is the representation of a C type.
type Class struct {
	Kind Kind
	Size int
}

// Classify returns the representation of the C type typ.
// Types that are not arithmetic or pointer types fall back to the widest unsigned type.
func Classify(typ string, m *machine.Model) Class {
	typ = normalize(typ)
	size, ok := m.Size(typ)
	if !ok {
		log.Logf(0, "warning: unsupported type %q, decoding as unsigned long long", typ)
		return Class{Unsigned, m.LongLong}
	}
	words := strings.Fields(typ)
	switch {
	case strings.HasSuffix(typ, "*"), has(words, "_Bool"), has(words, "unsigned"):
		return Class{Unsigned, size}
	case has(words, "float"), has(words, "double"):
		return Class{Float, size}
	}
	return Class{Signed, size}
}

func normalize(typ string) string {
	var words []string
	for _, w := range strings.Fields(typ) {
		switch w {
		case "const", "volatile", "static", "extern", "register", "restrict":
			continue
		}
		words = append(words, w)
	}
	return strings.Join(words, " ")
}

func has(words []string, w string) bool {
	for _, w1 := range words {
		if w1 == w {
			return true
		}
	}
	return false
}

// fromBits builds a value of class c from the low c.Size bytes of bits.
func fromBits(c Class, bits uint64) Value {
	shift := uint(64 - 8*c.Size)
	switch c.Kind {
	case Signed:
		return Value{Kind: Signed, Size: c.Size, Int: int64(bits<<shift) >> shift}
	default:
		return Value{Kind: Unsigned, Size: c.Size, Uint: bits << shift >> shift}
	}
}

// fits says if bits is representable in size bytes as a signed or an unsigned number.
func fits(bits uint64, negative bool, size int) bool {
	if size >= 8 {
		return true
	}
	if negative {
		min := int64(-1) << (8*size - 1)
		return int64(bits) >= min
	}
	return bits>>(8*size) == 0
}
