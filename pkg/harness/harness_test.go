// Copyright 2017 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package harness

import (
	"bytes"
	"context"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sosy-lab/tbf/pkg/instrument"
	"github.com/sosy-lab/tbf/pkg/osutil"
	"github.com/sosy-lab/tbf/pkg/testutil"
	"github.com/sosy-lab/tbf/pkg/vector"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var nondetInt = &instrument.Method{Name: "__VERIFIER_nondet_int", Type: "int"}

func TestSwitchStub(t *testing.T) {
	vec := vector.New(vector.Value{Value: "5", Method: nondetInt.Name})
	src := string(Synthesize([]*instrument.Method{nondetInt}, vec, Options{}))
	want := `int __VERIFIER_nondet_int(void) {
    unsigned int inp_size = 3000;
    char *inp_var = malloc(inp_size);
    switch (access_counter) {
    case 0: strcpy(inp_var, "5"); break;
    default: {
#ifdef TBF_GCOV
        __gcov_flush();
#endif
        abort();
    }
    }
    access_counter++;
    return *((int *) parse_inp(inp_var));
}
`
	assert.Contains(t, src, want)
	assert.Contains(t, src, "unsigned int access_counter = 0;\n")
	assert.Contains(t, src, "void __VERIFIER_assume(int cond) {")
	assert.NotContains(t, src, "Error found.")
	assert.NotContains(t, src, "fgets(inp_var")
	assert.NotContains(t, src, "#include")
}

func TestGenericStub(t *testing.T) {
	methods := []*instrument.Method{
		{Name: "get_ptr", Type: "char *", Params: []string{"int"}},
		{Name: "sink", Type: "void", Params: []string{"int", "..."}},
		{Name: "get_float", Type: "float"},
	}
	src := string(Generic(methods, Options{ErrorMethod: "reach_error", NoAssume: true}))
	assert.Contains(t, src, "char *get_ptr(int param0) {\n")
	assert.Contains(t, src, "    if (!fgets(inp_var, inp_size, stdin)) {\n        abort();\n    }\n"+
		"    return *((char **) parse_inp(inp_var));\n")
	assert.Contains(t, src, "void sink(int param0, ...) {\n}\n")
	assert.Contains(t, src, "void reach_error() {\n    fprintf(stderr, \"Error found.\\n\");\n    exit(1);\n}\n")
	assert.Contains(t, src, "    return (float) parse_float_inp(inp_var);\n")
	assert.NotContains(t, src, "access_counter")
	assert.NotContains(t, src, "__VERIFIER_assume")
	// The parse order is unsigned, signed, floating.
	u := strings.Index(src, "strtoull(")
	s := strings.Index(src, "strtoll(")
	f := strings.Index(src, "strtold(")
	assert.True(t, u < s && s < f)
	assert.Contains(t, src, "malloc(16)")
}

func TestQuote(t *testing.T) {
	assert.Equal(t, `"-1"`, quote("-1"))
	assert.Equal(t, `"a\"b\\c\012"`, quote("a\"b\\c\n"))
}

const program = `
extern void __VERIFIER_error(void);
extern int __VERIFIER_nondet_int(void);
extern unsigned char __VERIFIER_nondet_uchar(void);
extern double __VERIFIER_nondet_double(void);
int main() {
	int x = __VERIFIER_nondet_int();
	unsigned char c = __VERIFIER_nondet_uchar();
	double d = __VERIFIER_nondet_double();
	if (x == -5 && c == 200 && d > 1.0)
		__VERIFIER_error();
	return 0;
}
`

func TestReplay(t *testing.T) {
	testutil.RequireCompiler(t)
	methods := []*instrument.Method{
		{Name: "__VERIFIER_nondet_double", Type: "double"},
		nondetInt,
		{Name: "__VERIFIER_nondet_uchar", Type: "unsigned char"},
	}
	tests := []struct {
		name   string
		values []string
		reach  bool
		abort  bool
	}{
		{"reach", []string{"-5", "200", "2.5"}, true, false},
		{"miss", []string{"-5", "201", "2.5"}, false, false},
		{"overrun", []string{"-5", "200"}, false, true},
	}
	dir := t.TempDir()
	prog := filepath.Join(dir, "program.c")
	require.NoError(t, osutil.WriteFile(prog, []byte(program)))
	cc := &Compiler{}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var values []vector.Value
			for _, v := range test.values {
				values = append(values, vector.Value{Value: v})
			}
			src := Synthesize(methods, vector.New(values...), Options{ErrorMethod: instrument.DefaultErrorMethod})
			file := filepath.Join(dir, test.name+".c")
			bin := filepath.Join(dir, test.name)
			require.NoError(t, osutil.WriteFile(file, src))
			require.NoError(t, cc.Build(context.Background(), prog, file, bin))
			out, err := exec.Command(bin).CombinedOutput()
			assert.Equal(t, test.reach, bytes.Contains(out, []byte(ErrorMarker)), "%s", out)
			assert.Equal(t, test.reach || test.abort, err != nil, "%v", err)
		})
	}
}

func TestGenericReplay(t *testing.T) {
	testutil.RequireCompiler(t)
	dir := t.TempDir()
	prog := filepath.Join(dir, "program.c")
	require.NoError(t, osutil.WriteFile(prog, []byte(program)))
	methods := []*instrument.Method{
		nondetInt,
		{Name: "__VERIFIER_nondet_uchar", Type: "unsigned char"},
		{Name: "__VERIFIER_nondet_double", Type: "double"},
	}
	file := filepath.Join(dir, "harness.c")
	bin := filepath.Join(dir, "harness")
	require.NoError(t, osutil.WriteFile(file, Generic(methods, Options{ErrorMethod: instrument.DefaultErrorMethod})))
	require.NoError(t, (&Compiler{}).Build(context.Background(), prog, file, bin))
	cmd := exec.Command(bin)
	cmd.Stdin = strings.NewReader("-5\n0xc8\n1.5\n")
	out, err := cmd.CombinedOutput()
	assert.Error(t, err)
	assert.Contains(t, string(out), ErrorMarker)
}
