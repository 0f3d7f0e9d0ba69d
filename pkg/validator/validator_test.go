// Copyright 2017 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package validator

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/sosy-lab/tbf/pkg/harness"
	"github.com/sosy-lab/tbf/pkg/instrument"
	"github.com/sosy-lab/tbf/pkg/osutil"
	"github.com/sosy-lab/tbf/pkg/testutil"
	"github.com/sosy-lab/tbf/pkg/vector"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const program = `
extern void __VERIFIER_error(void);
extern int __VERIFIER_nondet_int(void);
extern unsigned long __VERIFIER_nondet_ulong(void);
int main() {
	int x = __VERIFIER_nondet_int();
	unsigned long n = __VERIFIER_nondet_ulong();
	if (x == 42 && n > 1000)
		__VERIFIER_error();
	if (x == 7)
		for (;;);
	return 0;
}
`

func values(vs ...string) *vector.Vector {
	var res []vector.Value
	for _, v := range vs {
		res = append(res, vector.Value{Value: v})
	}
	return vector.New(res...)
}

func TestInput(t *testing.T) {
	assert.Equal(t, "", Input(values()))
	assert.Equal(t, "1\n-2\n0.5\n", Input(values("1", "-2", "0.5")))
}

func TestValidate(t *testing.T) {
	testutil.RequireCompiler(t)
	dir := t.TempDir()
	prog := filepath.Join(dir, "program.c")
	require.NoError(t, osutil.WriteFile(prog, []byte(program)))
	v, err := New(context.Background(), &Config{
		Program: prog,
		Workdir: filepath.Join(dir, "validator"),
		Methods: []*instrument.Method{
			{Name: "__VERIFIER_nondet_int", Type: "int"},
			{Name: "__VERIFIER_nondet_ulong", Type: "unsigned long"},
		},
		Harness: harness.Options{ErrorMethod: instrument.DefaultErrorMethod},
		Timeout: time.Second,
		Procs:   2,
	})
	require.NoError(t, err)
	tests := []struct {
		name    string
		vec     *vector.Vector
		found   bool
		timeout bool
	}{
		{"reach", values("42", "1001"), true, false},
		{"hex", values("0x2a", "0xffffffff"), true, false},
		{"miss", values("42", "1000"), false, false},
		{"short", values("42"), false, false},
		{"hang", values("7", "0"), false, true},
	}
	var wg sync.WaitGroup
	for _, test := range tests {
		test := test
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := v.Validate(context.Background(), test.vec)
			if !assert.NoError(t, err, test.name) {
				return
			}
			assert.Equal(t, test.found, res.Found, "%v: %s", test.name, res.Output)
			assert.Equal(t, test.timeout, res.Timeout, test.name)
		}()
	}
	wg.Wait()
	assert.Equal(t, 2, v.sem.Available())
}

func TestBuildError(t *testing.T) {
	testutil.RequireCompiler(t)
	dir := t.TempDir()
	prog := filepath.Join(dir, "program.c")
	require.NoError(t, osutil.WriteFile(prog, []byte("int main() { return undefined_var; }")))
	_, err := New(context.Background(), &Config{Program: prog, Workdir: dir})
	assert.ErrorContains(t, err, "failed to build")
}
