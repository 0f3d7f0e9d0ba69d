// Copyright 2017 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package cast

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ignorePos = cmpopts.IgnoreTypes(Pos{})

const roundTripSource = `
typedef unsigned long size_t;
typedef struct node {
	int value;
	struct node *next;
} node_t, *node_p;
extern int __VERIFIER_nondet_int(void);
extern void __VERIFIER_error(void);
static const char *names[] = {"a", "b" "c", 0};
struct { int x : 3; unsigned : 2; } bits;
enum color { RED, GREEN = 5, BLUE };
int (*handler)(int, char *);
int matrix[2][3] = {{1, 2, 3}, [1] = {4, 5, 6}};
struct point { int x, y; } origin = {.x = 0, .y = -1};
#pragma once

int sum(int n, ...);

static inline int max(int a, int b)
{
	return a > b ? a : b;
}

int main(void)
{
	int i, x = __VERIFIER_nondet_int(), *p = &x;
	node_t *head = (node_t *)0;
	for (i = 0; i < 10; i++) {
		x += i * (x - 1) << 2;
		if (x < 0 && !(x & 1))
			continue;
		else if (x == 3)
			break;
		else
			x = -x;
	}
	for (int j = 0, k = 1; ; ) {
		break;
	}
	do {
		x--;
	} while (x > 0);
	switch (x) {
	case 1:
		x = sizeof(int) + sizeof x + sizeof(struct point);
		break;
	default:
		x = (int){1} + *p++;
	}
	while (head != 0 && head->next)
		head = head->next;
	if (x)
		if (i)
			x = 1;
		else
			x = 2;
	goto out;
out:
	if (x > 100) {
		__VERIFIER_error();
	}
	x = (x, i), x ? x : i ? 1 : 2;
	return origin.x + names[0][1] + - -x + matrix[1][2];
}
`

func TestParseFormatRoundTrip(t *testing.T) {
	file, err := ParseSource([]byte(roundTripSource), "test.c")
	require.NoError(t, err)
	data := Format(file)
	file2, err := ParseSource(data, "test.c")
	require.NoError(t, err, "formatted source:\n%s", data)
	if diff := cmp.Diff(file, file2, ignorePos); diff != "" {
		t.Fatalf("formatting changed code:\n%s\nformatted:\n%s", diff, data)
	}
	// Formatting is stable.
	assert.Equal(t, string(data), string(Format(file2)))
}

func TestParseStructure(t *testing.T) {
	file, err := ParseSource([]byte(`
int g = 1, *h;
struct s { int a; } v, w;
int f(int x) { return x; }
`), "test.c")
	require.NoError(t, err)
	require.Len(t, file.Items, 5)
	assert.Equal(t, "g", DeclName(file.Items[0]))
	assert.Equal(t, "h", DeclName(file.Items[1]))
	v, w := file.Items[2].(*Decl), file.Items[3].(*Decl)
	assert.Same(t, baseOf(v.Type), baseOf(w.Type))
	def, ok := file.Items[4].(*FuncDef)
	require.True(t, ok)
	assert.Equal(t, "f", DeclName(def))
	assert.Equal(t, []string{"int"}, ParamTypes(def.Decl.Type.(*FuncDecl)))
	ret := def.Body.Items[0].(*Return)
	assert.Equal(t, Pos{File: "test.c", Off: 57, Line: 4, Col: 16}, ret.Pos)
}

func TestOldStyleDefinition(t *testing.T) {
	old, err := ParseSource([]byte(`
int f(a, b, c)
	int a;
	register char *b;
{
	return a + *b + c;
}
int g(x) unsigned x, y;
`), "test.c")
	require.Nil(t, old)
	require.ErrorContains(t, err, `bad declaration of parameter "y"`)

	old, err = ParseSource([]byte("int f(a, b, c) int a; register char *b; { return a + *b + c; }\nint g();\n"), "test.c")
	require.NoError(t, err)
	proto, err := ParseSource([]byte("int f(int a, register char *b, int c) { return a + *b + c; }\nint g();\n"), "test.c")
	require.NoError(t, err)
	if diff := cmp.Diff(proto, old, ignorePos); diff != "" {
		t.Fatalf("old-style definition differs from prototype (-want +got):\n%s", diff)
	}
	assert.Equal(t, []string{"int", "char *", "int"}, ParamTypes(old.Items[0].(*FuncDef).Decl.Type.(*FuncDecl)))
}

func TestParsePositions(t *testing.T) {
	src := "# 1 \"orig.c\"\nint f(void);\n# 10 \"orig.c\"\nint main() {\n  f();\n}\n"
	file, err := ParseSource([]byte(src), "pre.i")
	require.NoError(t, err)
	main := file.Items[1].(*FuncDef)
	call := main.Body.Items[0].(*ExprStmt).X.(*FuncCall)
	assert.Equal(t, "orig.c", call.Pos.File)
	assert.Equal(t, 11, call.Pos.Line)
	assert.Equal(t, 3, call.Pos.Col)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		input string
		err   string
	}{
		{"int = 1;", `test.c:1:5: unexpected "=", expecting identifier`},
		{"int x = ;", `test.c:1:9: unexpected ";", expecting expression`},
		{"int f(a, b) int a; int c; { }", `test.c:1:24: bad declaration of parameter "c"`},
		{"int f(a) int a = 1; { }", `bad declaration of parameter "a"`},
		{"int x = ({ 1; });", "statement expressions are not supported"},
		{"unsigned long long int x;", ""},
		{"int x = 'a;", "literal is not terminated"},
	}
	for _, test := range tests {
		t.Run(test.input, func(t *testing.T) {
			var errs []string
			file := Parse([]byte(test.input), "test.c", func(pos Pos, msg string) {
				errs = append(errs, pos.String()+": "+msg)
			})
			if test.err == "" {
				assert.NotNil(t, file)
				assert.Empty(t, errs)
				return
			}
			assert.Nil(t, file)
			require.NotEmpty(t, errs)
			assert.Contains(t, errs[0], test.err)
		})
	}
}

func TestParseRecovery(t *testing.T) {
	var errs []string
	file := Parse([]byte("int a = ;\nint b;\nint c(( ;\nint d;\n"), "test.c", func(pos Pos, msg string) {
		errs = append(errs, msg)
	})
	assert.Nil(t, file)
	// Every broken declaration is reported once, the rest parses fine.
	assert.Len(t, errs, 2)
}

func TestParseFileMissing(t *testing.T) {
	_, err := ParseFile("nonexistent.c")
	assert.ErrorContains(t, err, "failed to read input file")
}

func TestTypedefNames(t *testing.T) {
	// "T * x;" is a declaration once T is a typedef name and a multiplication otherwise.
	file, err := ParseSource([]byte(`
typedef int T;
int f(int U) { T * x; U * x; return 0; }
`), "test.c")
	require.NoError(t, err)
	body := file.Items[1].(*FuncDef).Body
	_, isDecl := body.Items[0].(*Decl)
	assert.True(t, isDecl)
	stmt, isExpr := body.Items[1].(*ExprStmt)
	require.True(t, isExpr)
	assert.Equal(t, "U * x", FormatNode(stmt.X))
}

func TestFormatStatements(t *testing.T) {
	file, err := ParseSource([]byte(`
void f(int x) {
	if (x) { x = 1; } else if (x > 1) x = 2; else { x = 3; }
	l: ;
}`), "test.c")
	require.NoError(t, err)
	want := `void f(int x)
{
	if (x) {
		x = 1;
	} else if (x > 1)
		x = 2;
	else {
		x = 3;
	}
	l:
	;
}
`
	assert.Equal(t, want, string(Format(file)))
	assert.True(t, strings.HasPrefix(FormatNode(file.Items[0].(*FuncDef).Body.Items[0]), "if (x) {\n"))
}
