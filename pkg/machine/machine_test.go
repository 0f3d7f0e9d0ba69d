// Copyright 2017 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package machine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSize(t *testing.T) {
	tests := []struct {
		typ    string
		size32 int
		size64 int
	}{
		{"_Bool", 1, 1},
		{"unsigned char", 1, 1},
		{"signed char", 1, 1},
		{"short", 2, 2},
		{"unsigned short int", 2, 2},
		{"int", 4, 4},
		{"unsigned", 4, 4},
		{"const int", 4, 4},
		{"long", 4, 8},
		{"unsigned long int", 4, 8},
		{"long long", 8, 8},
		{"unsigned long long", 8, 8},
		{"float", 4, 4},
		{"double", 8, 8},
		{"long double", 12, 16},
		{"char *", 4, 8},
		{"struct s *", 4, 8},
	}
	for _, test := range tests {
		size, ok := Model32.Size(test.typ)
		assert.True(t, ok, test.typ)
		assert.Equal(t, test.size32, size, test.typ)
		size, ok = Model64.Size(test.typ)
		assert.True(t, ok, test.typ)
		assert.Equal(t, test.size64, size, test.typ)
	}
	for _, typ := range []string{"struct s", "void", "my_int_t"} {
		_, ok := Model64.Size(typ)
		assert.False(t, ok, typ)
	}
}

func TestLookup(t *testing.T) {
	for name, want := range map[string]*Model{"32": Model32, "64bit": Model64, " 64 ": Model64} {
		m, err := Lookup(name)
		require.NoError(t, err)
		assert.Same(t, want, m)
	}
	_, err := Lookup("16")
	assert.Error(t, err)
	assert.Equal(t, "32bit", Model32.Architecture())
	assert.Equal(t, "-m64", Model64.CFlag)
}
