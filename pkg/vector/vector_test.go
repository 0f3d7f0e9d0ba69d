// Copyright 2017 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package vector

import (
	"strconv"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/sosy-lab/tbf/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	data := `
# generated
__VERIFIER_nondet_int: 5
  -3
input:0x10
`
	v, err := Parse([]byte(data))
	require.NoError(t, err)
	want := []Value{
		{Value: "5", Method: "__VERIFIER_nondet_int"},
		{Value: "-3"},
		{Value: "0x10", Method: "input"},
	}
	if diff := cmp.Diff(want, v.Values()); diff != "" {
		t.Fatalf("wrong values (-want +got):\n%s", diff)
	}
	assert.False(t, v.Attributed())
	assert.Equal(t, []string{"0x10"}, v.ForMethod("input"))
	assert.Equal(t, "__VERIFIER_nondet_int: 5\n-3\ninput: 0x10\n", v.String())
}

func TestParseErrors(t *testing.T) {
	for _, data := range []string{"a b: 1", "x:", "1x: 2"} {
		_, err := Parse([]byte(data))
		assert.Error(t, err, data)
	}
}

func TestImmutable(t *testing.T) {
	values := []Value{{Value: "1"}}
	v := New(values...)
	values[0].Value = "2"
	v.Values()[0].Value = "3"
	assert.Equal(t, "1", v.At(0).Value)
	assert.True(t, New().Attributed())
	assert.Equal(t, 0, New().Len())
}

func TestRoundTrip(t *testing.T) {
	type raw struct {
		Values  []uint64
		Methods []bool
	}
	for i := 0; i < testutil.IterCount()/10; i++ {
		r := testutil.RandValue(t, raw{}).(raw)
		var values []Value
		for j, x := range r.Values {
			val := Value{Value: strconv.FormatUint(x, 10)}
			if j < len(r.Methods) && r.Methods[j] {
				val.Method = "m"
			}
			values = append(values, val)
		}
		v := New(values...)
		v1, err := Parse([]byte(v.String()))
		require.NoError(t, err)
		assert.Equal(t, v.Values(), v1.Values())
	}
}
