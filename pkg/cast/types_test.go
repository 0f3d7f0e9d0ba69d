// Copyright 2017 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package cast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypeString(t *testing.T) {
	tests := []struct {
		decl string
		typ  string
		full string
	}{
		{"int x;", "int", "int x"},
		{"unsigned int *p;", "unsigned int *", "unsigned int *p"},
		{"int a[10];", "int [10]", "int a[10]"},
		{"char *argv[];", "char *[]", "char *argv[]"},
		{"int (*fp)(int);", "int (*)(int)", "int (*fp)(int)"},
		{"int (*ap)[3];", "int (*)[3]", "int (*ap)[3]"},
		{"const char *const s;", "const char *const", "const char *const s"},
		{"struct point pt;", "struct point", "struct point pt"},
		{"struct { int a; } anon;", "struct { int a; }", "struct { int a; } anon"},
		{"enum { A, B = 2 } e;", "enum {A, B = 2}", "enum {A, B = 2} e"},
		{"void f(void);", "void (void)", "void f(void)"},
		{"long long (*g(int n))(char, ...);", "long long (*(int))(char, ...)",
			"long long (*g(int n))(char, ...)"},
		{"int (*cmp)(const void *a, const void *b);", "int (*)(const void *, const void *)",
			"int (*cmp)(const void *a, const void *b)"},
		{"void h(int (*cb)(int x), char *argv[]);", "void (int (*)(int), char *[])",
			"void h(int (*cb)(int x), char *argv[])"},
		{"unsigned long long **pp[2][4];", "unsigned long long **[2][4]", "unsigned long long **pp[2][4]"},
	}
	for _, test := range tests {
		t.Run(test.decl, func(t *testing.T) {
			file, err := ParseSource([]byte(test.decl), "test.c")
			require.NoError(t, err)
			decl := file.Items[0].(*Decl)
			assert.Equal(t, test.typ, TypeString(decl.Type))
			assert.Equal(t, test.full, DeclString(decl.Type, decl.Name))
		})
	}
}

func TestDeclare(t *testing.T) {
	assert.Equal(t, "int (*x)(int)", Declare("int (*)(int)", "x"))
	assert.Equal(t, "char *p", Declare("char *", "p"))
	assert.Equal(t, "int a[10]", Declare("int [10]", "a"))
	assert.Equal(t, "char *argv[]", Declare("char *[]", "argv"))
	assert.Equal(t, "unsigned long v", Declare("unsigned long", "v"))
}

func TestDeclType(t *testing.T) {
	file, err := ParseSource([]byte("static unsigned char c; extern int e;"), "test.c")
	require.NoError(t, err)
	assert.Equal(t, "static unsigned char", DeclType(file.Items[0].(*Decl)))
	assert.Equal(t, "int", DeclType(file.Items[1].(*Decl)))
}

func TestDeclName(t *testing.T) {
	file, err := ParseSource([]byte(`
typedef int myint;
struct tag { int x; };
int (*table[4])(void);
int main() { return (*table[0])() + foo(1); }
`), "test.c")
	require.NoError(t, err)
	assert.Equal(t, "myint", DeclName(file.Items[0]))
	assert.Equal(t, "tag", DeclName(file.Items[1].(*Decl).Type))
	assert.Equal(t, "table", DeclName(file.Items[2]))
	assert.Equal(t, "table", DeclName(file.Items[2].(*Decl).Type))
	main := file.Items[3].(*FuncDef)
	assert.Equal(t, "main", DeclName(main))
	sum := main.Body.Items[0].(*Return).X.(*BinaryOp)
	assert.Equal(t, "", DeclName(sum.X))
	assert.Equal(t, "foo", DeclName(sum.Y))
	assert.Panics(t, func() { DeclName(&Compound{}) })
}

func TestWithName(t *testing.T) {
	file, err := ParseSource([]byte(`
struct s { int a; } *get_s(void);
unsigned long long get_ull(int);
`), "test.c")
	require.NoError(t, err)
	get := file.Items[0].(*Decl)
	ret := get.Type.(*FuncDecl).Type
	renamed := WithName(ret, "__sym_get_s_0")
	assert.Equal(t, "struct s *__sym_get_s_0", FormatNode(&Decl{Name: "__sym_get_s_0", Type: renamed}))
	// The original declaration is left intact.
	assert.Equal(t, "get_s", DeclName(get.Type))
	assert.Contains(t, FormatNode(get), "struct s {")

	ull := file.Items[1].(*Decl).Type.(*FuncDecl).Type
	assert.Equal(t, "unsigned long long v", FormatNode(&Decl{Name: "v", Type: WithName(ull, "v")}))
}
