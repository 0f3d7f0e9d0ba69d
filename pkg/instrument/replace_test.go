// Copyright 2017 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package instrument

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/sosy-lab/tbf/pkg/cast"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rewriteSource(t *testing.T, src string, backend Backend, opts *Options) (*cast.File, []Var) {
	t.Helper()
	file, err := cast.ParseSource([]byte(src), "test.c")
	require.NoError(t, err)
	r := NewReplacer(backend, opts)
	require.NoError(t, r.Rewrite(file))
	return file, r.Vars()
}

func funcDef(t *testing.T, file *cast.File, name string) *cast.FuncDef {
	t.Helper()
	for _, item := range file.Items {
		if def, ok := item.(*cast.FuncDef); ok && def.Decl.Name == name {
			return def
		}
	}
	t.Fatalf("no definition of %v", name)
	return nil
}

func TestReplaceInCondition(t *testing.T) {
	file, vars := rewriteSource(t, `
int __VERIFIER_nondet_int(void);
int main() {
	int x = 1;
	if (x > __VERIFIER_nondet_int()) {
		return 1;
	}
	return 0;
}
`, Klee{}, nil)
	want := `int main()
{
	int x = 1;
	int __sym___VERIFIER_nondet_int_0;
	klee_make_symbolic(&__sym___VERIFIER_nondet_int_0, sizeof(__sym___VERIFIER_nondet_int_0), "__sym___VERIFIER_nondet_int_0");
	if (x > __sym___VERIFIER_nondet_int_0) {
		return 1;
	}
	return 0;
}
`
	if diff := cmp.Diff(want, cast.FormatNode(funcDef(t, file, "main"))); diff != "" {
		t.Fatalf("wrong rewrite (-want +got):\n%s", diff)
	}
	require.Len(t, vars, 1)
	assert.Equal(t, "__sym___VERIFIER_nondet_int_0", vars[0].Name)
	assert.Equal(t, "__VERIFIER_nondet_int", vars[0].Method)
	assert.Equal(t, "int", vars[0].Type)
	assert.Equal(t, 5, vars[0].Pos.Line)
}

func TestReplaceStatements(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "while",
			body: "while (__VERIFIER_nondet_int())\n\t\tx++;",
			want: "\tfor (;;) {\n" +
				"\t\tint __sym___VERIFIER_nondet_int_0;\n" +
				"\t\tif (!__sym___VERIFIER_nondet_int_0)\n" +
				"\t\t\tbreak;\n" +
				"\t\tx++;\n" +
				"\t}\n",
		},
		{
			name: "for",
			body: "for (x = 0; x < __VERIFIER_nondet_int(); x++)\n\t\ty += x;",
			want: "\tfor (x = 0;; x++) {\n" +
				"\t\tint __sym___VERIFIER_nondet_int_0;\n" +
				"\t\tif (!(x < __sym___VERIFIER_nondet_int_0))\n" +
				"\t\t\tbreak;\n" +
				"\t\ty += x;\n" +
				"\t}\n",
		},
		{
			name: "for-init",
			body: "for (x = __VERIFIER_nondet_int(); x < 10; x++)\n\t\ty += x;",
			want: "\tint __sym___VERIFIER_nondet_int_0;\n" +
				"\tfor (x = __sym___VERIFIER_nondet_int_0; x < 10; x++)\n" +
				"\t\ty += x;\n",
		},
		{
			name: "branch",
			body: "if (y)\n\t\tx = __VERIFIER_nondet_int();\n\telse\n\t\tx = 0;",
			want: "\tif (y) {\n" +
				"\t\tint __sym___VERIFIER_nondet_int_0;\n" +
				"\t\tx = __sym___VERIFIER_nondet_int_0;\n" +
				"\t} else\n" +
				"\t\tx = 0;\n",
		},
		{
			name: "error",
			body: "if (x)\n\t\t__VERIFIER_error();",
			want: "\tif (x)\n" +
				"\t\texit(107);\n",
		},
		{
			name: "arguments",
			body: "y = x + g(__VERIFIER_nondet_int(), __VERIFIER_nondet_int());",
			want: "\tint __sym___VERIFIER_nondet_int_0;\n" +
				"\tint __sym___VERIFIER_nondet_int_1;\n" +
				"\ty = x + g(__sym___VERIFIER_nondet_int_0, __sym___VERIFIER_nondet_int_1);\n",
		},
		{
			name: "sizeof",
			body: "y = sizeof(__VERIFIER_nondet_int());",
			want: "\ty = sizeof(__VERIFIER_nondet_int());\n",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			src := "int __VERIFIER_nondet_int(void);\nvoid __VERIFIER_error(void);\n" +
				"int g(int a, int b);\nint main() {\n\tint x, y;\n\t" + test.body + "\n}\n"
			file, _ := rewriteSource(t, src, Plain{}, nil)
			want := "int main()\n{\n\tint x;\n\tint y;\n" + test.want + "}\n"
			if diff := cmp.Diff(want, cast.FormatNode(funcDef(t, file, "main"))); diff != "" {
				t.Fatalf("wrong rewrite (-want +got):\n%s", diff)
			}
		})
	}
}

func TestHoistInvariant(t *testing.T) {
	for n := 0; n < 6; n++ {
		var body strings.Builder
		for i := 0; i < n; i++ {
			fmt.Fprintf(&body, "\tx%v = __VERIFIER_nondet_int() + %v;\n", i, i)
		}
		src := "int __VERIFIER_nondet_int(void);\nint main() {\n" + body.String() + "\treturn 0;\n}\n"
		file, vars := rewriteSource(t, src, Klee{}, nil)
		main := funcDef(t, file, "main")
		// Each statement is preceded by its declaration and marker.
		require.Len(t, main.Body.Items, 3*n+1)
		require.Len(t, vars, n)
		for i := 0; i < n; i++ {
			decl, ok := main.Body.Items[3*i].(*cast.Decl)
			require.True(t, ok)
			assert.Equal(t, VarName("__VERIFIER_nondet_int", i), decl.Name)
			assert.Equal(t, vars[i].Name, decl.Name)
			marker := main.Body.Items[3*i+1].(*cast.ExprStmt).X.(*cast.FuncCall)
			assert.Equal(t, "klee_make_symbolic", cast.DeclName(marker))
			assign := main.Body.Items[3*i+2].(*cast.ExprStmt).X.(*cast.Assignment)
			assert.Equal(t, decl.Name, assign.RHS.(*cast.BinaryOp).X.(*cast.Ident).Name)
		}
	}
}

func TestUniqueNames(t *testing.T) {
	src := `
int __VERIFIER_nondet_int(void);
unsigned char __VERIFIER_nondet_uchar(void);
int f(int a) {
	return a + __VERIFIER_nondet_int();
}
int main() {
	int s = 0;
	while (s < __VERIFIER_nondet_uchar()) {
		s += f(__VERIFIER_nondet_int()) ? __VERIFIER_nondet_int() : __VERIFIER_nondet_uchar();
	}
	return s;
}
`
	data, vars, err := Source([]byte(src), "test.c", Random{}, nil)
	require.NoError(t, err)
	require.Len(t, vars, 5)
	seen := make(map[string]bool)
	for _, v := range vars {
		assert.False(t, seen[v.Name], "duplicate name %v", v.Name)
		seen[v.Name] = true
		method, ok := MethodOf(v.Name)
		assert.True(t, ok)
		assert.Equal(t, v.Method, method)
	}
	assert.Equal(t, "unsigned char", vars[1].Type)
	// The result is valid C again.
	_, err = cast.ParseSource(data, "instrumented.c")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), Random{}.Preamble()))
}

func TestUnsupported(t *testing.T) {
	tests := []struct {
		name string
		src  string
		err  error
	}{
		{
			name: "do-while",
			src:  "int __VERIFIER_nondet_int(void);\nint main() { do { } while (__VERIFIER_nondet_int()); }",
			err:  ErrUnsupported,
		},
		{
			name: "for-next",
			src:  "int __VERIFIER_nondet_int(void);\nint main() { int x; for (;; x += __VERIFIER_nondet_int()) { } }",
			err:  ErrUnsupported,
		},
		{
			name: "case",
			src:  "int __VERIFIER_nondet_int(void);\nint main() { switch (1) { case __VERIFIER_nondet_int(): break; } }",
			err:  ErrUnsupported,
		},
		{
			name: "global-init",
			src:  "extern int __VERIFIER_nondet_int(void);\nint g = __VERIFIER_nondet_int();\nint main() { return g; }",
			err:  ErrUnsupported,
		},
		{
			name: "global-init-list",
			src:  "extern int __VERIFIER_nondet_int(void);\nint a[2] = {1, __VERIFIER_nondet_int()};\nint main() { return a[0]; }",
			err:  ErrUnsupported,
		},
		{
			name: "conflicting-extern",
			src:  "extern int input(void);\nextern long input(void);\nint main() { return input(); }",
			err:  ErrUnsupported,
		},
		{
			name: "undeclared",
			src:  "int main() { return __VERIFIER_nondet_int(); }",
			err:  ErrUnknownType,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, _, err := Source([]byte(test.src), "test.c", Plain{}, nil)
			assert.ErrorIs(t, err, test.err)
		})
	}
}

func TestFileScopeNondet(t *testing.T) {
	src := "extern int __VERIFIER_nondet_int(void);\nint g = __VERIFIER_nondet_int();\nint main() { return g; }"
	for _, backend := range []Backend{Plain{}, Klee{}, Crest{}, Random{}} {
		out, _, err := Source([]byte(src), "g.c", backend, nil)
		assert.ErrorIs(t, err, ErrUnsupported, backend.Name())
		assert.ErrorContains(t, err, "g.c:2", backend.Name())
		assert.Nil(t, out, backend.Name())
	}
	// Calls inside function bodies next to globals are still rewritten.
	src = "extern int __VERIFIER_nondet_int(void);\nint g = 1;\nint main() { g = __VERIFIER_nondet_int(); return g; }"
	_, vars := rewriteSource(t, src, Klee{}, nil)
	assert.Len(t, vars, 1)
}

func TestExternalFunctions(t *testing.T) {
	src := `
extern int input(void);
extern int input(void);
extern int printf(const char *fmt, ...);
extern void sink(int);
extern int helper(void);
int helper(void) { return 1; }
int main() {
	int a = input();
	printf("%d", a);
	sink(a);
	return helper();
}
`
	_, vars := rewriteSource(t, src, Plain{}, nil)
	require.Len(t, vars, 1)
	assert.Equal(t, "__sym_input_0", vars[0].Name)

	// Only the nondet prefix counts.
	_, vars = rewriteSource(t, src, Plain{}, &Options{SVCompOnly: true})
	assert.Empty(t, vars)
	_, vars = rewriteSource(t, src, Plain{}, &Options{Excludes: []string{"input"}})
	assert.Empty(t, vars)
}

func TestErrorBeforeNondet(t *testing.T) {
	src := `
void __VERIFIER_error(void);
int __VERIFIER_nondet_int(void);
int main() {
	__VERIFIER_error();
	return __VERIFIER_nondet_int();
}
`
	file, vars := rewriteSource(t, src, Plain{}, &Options{NondetPrefix: "__VERIFIER_"})
	require.Len(t, vars, 1)
	assert.Equal(t, "__VERIFIER_nondet_int", vars[0].Method)
	assert.Contains(t, cast.FormatNode(funcDef(t, file, "main")), "\texit(107);\n")
}

func TestAssume(t *testing.T) {
	countAssume := func(file *cast.File) int {
		n := 0
		for _, item := range file.Items {
			if cast.DeclName(item) == AssumeMethod {
				n++
			}
		}
		return n
	}
	file, _ := rewriteSource(t, "int main() { return 0; }", Plain{}, nil)
	require.Equal(t, 1, countAssume(file))
	assume := file.Items[0].(*cast.FuncDef)
	assert.Equal(t, "void __VERIFIER_assume(int __cond)\n{\n\tif (!__cond) {\n\t\texit(0);\n\t}\n\treturn;\n}\n",
		cast.FormatNode(assume))

	file, vars := rewriteSource(t, `
int __VERIFIER_nondet_int(void);
void __VERIFIER_assume(int);
void __VERIFIER_assume(int cond) { while (!cond) { } }
int main() {
	__VERIFIER_assume(__VERIFIER_nondet_int() > 0);
	return 0;
}
`, Plain{}, nil)
	assert.Equal(t, 1, countAssume(file))
	_, ok := file.Items[1].(*cast.FuncDef)
	assert.True(t, ok)
	require.Len(t, vars, 1)
	main := funcDef(t, file, "main")
	assert.Equal(t, "__VERIFIER_assume(__sym___VERIFIER_nondet_int_0 > 0);\n", cast.FormatNode(main.Body.Items[1]))
}

func TestDeclareMethods(t *testing.T) {
	src := "int main() { return __VERIFIER_nondet_long() + input(); }"
	file, err := cast.ParseSource([]byte(src), "test.c")
	require.NoError(t, err)
	opts := &Options{Methods: FindNondetMethods(file, nil)}
	require.Len(t, opts.Methods, 1)
	// input is neither declared nor matching the prefix, so it is not an input.
	opts.Methods = append(opts.Methods, &Method{Name: "input", Type: "unsigned short"})
	data, vars, err := Source([]byte(src), "test.c", Plain{}, opts)
	require.NoError(t, err)
	require.Len(t, vars, 2)
	assert.Equal(t, "long", vars[0].Type)
	assert.Equal(t, "unsigned short", vars[1].Type)
	assert.Contains(t, string(data), "extern long __VERIFIER_nondet_long(void);\n")
	assert.Contains(t, string(data), "extern unsigned short input(void);\n")
}

func TestMethodOf(t *testing.T) {
	tests := []struct {
		name   string
		method string
		ok     bool
	}{
		{VarName("__VERIFIER_nondet_int", 0), "__VERIFIER_nondet_int", true},
		{VarName("read_2", 15), "read_2", true},
		{"__sym_x", "", false},
		{"__sym_x_y", "", false},
		{"x_1", "", false},
	}
	for _, test := range tests {
		method, ok := MethodOf(test.name)
		assert.Equal(t, test.ok, ok, test.name)
		assert.Equal(t, test.method, method, test.name)
	}
}
