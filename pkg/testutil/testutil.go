// Copyright 2022 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// Package testutil contains helpers shared by tests: seeded randomness, random inputs
// for decoders and vectors, and a writer that forwards engine output to the test log.
package testutil

import (
	"math/rand"
	"os"
	"os/exec"
	"reflect"
	"strconv"
	"testing"
	"testing/quick"
)

func IterCount() int {
	iters := 1000
	if testing.Short() {
		iters /= 10
	}
	return iters
}

// RandSource returns a source seeded from TBF_SEED, or from the current time.
func RandSource(t *testing.T) rand.Source {
	seed := int64(os.Getpid())<<32 ^ int64(rand.Uint32())
	if fixed := os.Getenv("TBF_SEED"); fixed != "" {
		seed, _ = strconv.ParseInt(fixed, 0, 64)
	}
	if os.Getenv("CI") != "" {
		seed = 0
	}
	t.Logf("seed=%v", seed)
	return rand.NewSource(seed)
}

// RandBlob returns a random blob of 1 to maxLen bytes.
func RandBlob(r *rand.Rand, maxLen int) []byte {
	blob := make([]byte, 1+r.Intn(maxLen))
	r.Read(blob)
	return blob
}

// RandValue creates a random value of the same type as the argument typ.
// It recursively fills structs/slices/maps similar to testing/quick.Value.
func RandValue(t *testing.T, typ any) any {
	return randValue(t, rand.New(RandSource(t)), reflect.TypeOf(typ)).Interface()
}

func randValue(t *testing.T, rnd *rand.Rand, typ reflect.Type) reflect.Value {
	v := reflect.New(typ).Elem()
	switch typ.Kind() {
	default:
		ok := false
		v, ok = quick.Value(typ, rnd)
		if !ok {
			t.Fatalf("failed to generate random value of type %v", typ)
		}
	case reflect.Slice:
		size := rnd.Intn(4)
		v.Set(reflect.MakeSlice(typ, size, size))
		fallthrough
	case reflect.Array:
		for i := 0; i < v.Len(); i++ {
			v.Index(i).Set(randValue(t, rnd, typ.Elem()))
		}
	case reflect.Struct:
		for i := 0; i < v.NumField(); i++ {
			v.Field(i).Set(randValue(t, rnd, typ.Field(i).Type))
		}
	case reflect.Pointer:
		v.SetZero()
		if rnd.Intn(2) == 0 {
			v.Set(reflect.New(typ.Elem()))
			v.Elem().Set(randValue(t, rnd, typ.Elem()))
		}
	case reflect.Map:
		v.Set(reflect.MakeMap(typ))
		for i := rnd.Intn(4); i > 0; i-- {
			v.SetMapIndex(randValue(t, rnd, typ.Key()), randValue(t, rnd, typ.Elem()))
		}
	}
	return v
}

// RequireCompiler skips the test if no C compiler is installed.
func RequireCompiler(t *testing.T) string {
	t.Helper()
	for _, cc := range []string{"gcc", "cc", "clang"} {
		if path, err := exec.LookPath(cc); err == nil {
			return path
		}
	}
	t.Skip("no C compiler found")
	return ""
}

type Writer struct {
	testing.TB
}

func (w *Writer) Write(data []byte) (int, error) {
	w.TB.Logf("%s", data)
	return len(data), nil
}
