// Copyright 2017 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package decode

import (
	"encoding/binary"
	"math"
	"unsafe"

	"golang.org/x/exp/constraints"
)

// Encode returns the little-endian representation of v, as engines write it.
func Encode[T constraints.Integer](v T) []byte {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, uint64(v))
	return buf[:unsafe.Sizeof(v)]
}

// EncodeFloat returns the little-endian representation of v.
func EncodeFloat[T constraints.Float](v T) []byte {
	if unsafe.Sizeof(v) == 4 {
		return binary.LittleEndian.AppendUint32(nil, math.Float32bits(float32(v)))
	}
	return binary.LittleEndian.AppendUint64(nil, math.Float64bits(float64(v)))
}

// Bytes returns the representation of v that BinaryDecoder decodes back into v.
// Long doubles are x87 extended numbers padded to the size of the type.
func (v Value) Bytes() []byte {
	switch v.Kind {
	case Float:
		switch v.Size {
		case 4:
			return EncodeFloat(float32(v.Flt))
		case 8:
			return EncodeFloat(v.Flt)
		}
		return encodeExtended(v.Flt, v.Size)
	case Signed:
		return encodeInt(v.Int, v.Size)
	}
	return encodeInt(v.Uint, v.Size)
}

func encodeInt[T constraints.Integer](v T, size int) []byte {
	switch size {
	case 1:
		return Encode(uint8(v))
	case 2:
		return Encode(uint16(v))
	case 4:
		return Encode(uint32(v))
	}
	return Encode(uint64(v))
}

func encodeExtended(f float64, size int) []byte {
	buf := make([]byte, max(size, 10))
	var se uint16
	if math.Signbit(f) {
		se = 0x8000
		f = -f
	}
	var mant uint64
	switch {
	case math.IsNaN(f):
		se |= 0x7fff
		mant = 0xc000000000000000
	case math.IsInf(f, 0):
		se |= 0x7fff
		mant = 1 << 63
	case f != 0:
		frac, exp := math.Frexp(f)
		// frac is in [0.5, 1), the explicit integer bit is the top mantissa bit.
		mant = uint64(math.Ldexp(frac, 64))
		se |= uint16(exp - 1 + 16383)
	}
	binary.LittleEndian.PutUint64(buf, mant)
	binary.LittleEndian.PutUint16(buf[8:], se)
	return buf
}
