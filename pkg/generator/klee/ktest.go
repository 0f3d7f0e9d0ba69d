// Copyright 2017 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package klee

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// KTest is a test written by KLEE.
// All integers in the file are big-endian, object bytes are in target byte order.
type KTest struct {
	Version    uint32
	Args       []string
	SymArgvs   uint32
	SymArgvLen uint32
	Objects    []Object
}

type Object struct {
	Name  string
	Bytes []byte
}

const (
	magic      = "KTEST"
	magicOld   = "BOUT\n"
	maxVersion = 3
)

// ParseKTest parses a .ktest file.
func ParseKTest(data []byte) (*KTest, error) {
	p := &ktestParser{data: data}
	kt, err := p.parse()
	if err != nil {
		return nil, fmt.Errorf("bad ktest at offset %v: %w", p.pos, err)
	}
	return kt, nil
}

type ktestParser struct {
	data []byte
	pos  int
}

func (p *ktestParser) parse() (*KTest, error) {
	if !bytes.HasPrefix(p.data, []byte(magic)) && !bytes.HasPrefix(p.data, []byte(magicOld)) {
		return nil, fmt.Errorf("no magic")
	}
	p.pos = len(magic)
	kt := new(KTest)
	var err error
	if kt.Version, err = p.u32(); err != nil {
		return nil, err
	}
	if kt.Version > maxVersion {
		return nil, fmt.Errorf("unsupported version %v", kt.Version)
	}
	nargs, err := p.u32()
	if err != nil {
		return nil, err
	}
	for i := uint32(0); i < nargs; i++ {
		arg, err := p.bytes()
		if err != nil {
			return nil, err
		}
		kt.Args = append(kt.Args, string(arg))
	}
	if kt.Version >= 2 {
		if kt.SymArgvs, err = p.u32(); err != nil {
			return nil, err
		}
		if kt.SymArgvLen, err = p.u32(); err != nil {
			return nil, err
		}
	}
	nobjs, err := p.u32()
	if err != nil {
		return nil, err
	}
	for i := uint32(0); i < nobjs; i++ {
		name, err := p.bytes()
		if err != nil {
			return nil, err
		}
		data, err := p.bytes()
		if err != nil {
			return nil, err
		}
		kt.Objects = append(kt.Objects, Object{Name: string(name), Bytes: data})
	}
	if p.pos != len(p.data) {
		return nil, fmt.Errorf("%v trailing bytes", len(p.data)-p.pos)
	}
	return kt, nil
}

func (p *ktestParser) u32() (uint32, error) {
	if len(p.data)-p.pos < 4 {
		return 0, fmt.Errorf("unexpected end of data")
	}
	v := binary.BigEndian.Uint32(p.data[p.pos:])
	p.pos += 4
	return v, nil
}

func (p *ktestParser) bytes() ([]byte, error) {
	n, err := p.u32()
	if err != nil {
		return nil, err
	}
	if uint64(len(p.data)-p.pos) < uint64(n) {
		return nil, fmt.Errorf("object of %v bytes past end of data", n)
	}
	data := p.data[p.pos : p.pos+int(n)]
	p.pos += int(n)
	return data, nil
}

// Serialize returns kt in the .ktest format.
func (kt *KTest) Serialize() []byte {
	buf := new(bytes.Buffer)
	buf.WriteString(magic)
	u32 := func(v uint32) {
		binary.Write(buf, binary.BigEndian, v)
	}
	str := func(data []byte) {
		u32(uint32(len(data)))
		buf.Write(data)
	}
	u32(kt.Version)
	u32(uint32(len(kt.Args)))
	for _, arg := range kt.Args {
		str([]byte(arg))
	}
	if kt.Version >= 2 {
		u32(kt.SymArgvs)
		u32(kt.SymArgvLen)
	}
	u32(uint32(len(kt.Objects)))
	for _, obj := range kt.Objects {
		str([]byte(obj.Name))
		str(obj.Bytes)
	}
	return buf.Bytes()
}
