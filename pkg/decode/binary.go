// Copyright 2017 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package decode

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/sosy-lab/tbf/pkg/machine"
)

// BinaryDecoder decodes little-endian blobs.
// A blob shorter than the type is decoded at its own width and then widened;
// engines emit such blobs for narrow objects. Longer blobs are an error.
type BinaryDecoder struct {
	Model *machine.Model
}

func (d BinaryDecoder) Decode(raw []byte, typ string) (Value, error) {
	c := Classify(typ, d.Model)
	if len(raw) == 0 {
		return Value{}, fmt.Errorf("empty data for %v", typ)
	}
	if len(raw) > c.Size {
		return Value{}, fmt.Errorf("%v bytes of data for %v of size %v", len(raw), typ, c.Size)
	}
	if c.Kind == Float {
		return decodeFloat(raw, c)
	}
	var buf [8]byte
	copy(buf[:], raw)
	bits := binary.LittleEndian.Uint64(buf[:])
	// Sign-extend at blob width, then narrow to the type.
	v := fromBits(Class{c.Kind, len(raw)}, bits)
	if c.Kind == Signed {
		return Value{Kind: Signed, Size: c.Size, Int: v.Int}, nil
	}
	return Value{Kind: Unsigned, Size: c.Size, Uint: v.Uint}, nil
}

func decodeFloat(raw []byte, c Class) (Value, error) {
	v := Value{Kind: Float, Size: c.Size}
	switch len(raw) {
	case 4:
		v.Flt = float64(math.Float32frombits(binary.LittleEndian.Uint32(raw)))
	case 8:
		v.Flt = math.Float64frombits(binary.LittleEndian.Uint64(raw))
	case 10, 12, 16:
		v.Flt = extended(raw)
	default:
		return Value{}, fmt.Errorf("%v bytes of data for floating type of size %v", len(raw), c.Size)
	}
	return v, nil
}

// extended converts an x87 80-bit extended precision number.
// Padding bytes past the first 10 are ignored.
func extended(raw []byte) float64 {
	mant := binary.LittleEndian.Uint64(raw[:8])
	se := binary.LittleEndian.Uint16(raw[8:10])
	neg := se&0x8000 != 0
	exp := int(se & 0x7fff)
	var f float64
	switch {
	case exp == 0x7fff && mant<<1 == 0:
		f = math.Inf(1)
	case exp == 0x7fff:
		f = math.NaN()
	case exp == 0 && mant == 0:
		f = 0
	default:
		if exp == 0 {
			exp = 1
		}
		f = math.Ldexp(float64(mant), exp-16383-63)
	}
	if neg {
		f = math.Copysign(f, -1)
	}
	return f
}
