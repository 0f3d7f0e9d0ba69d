// Copyright 2017 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package cast

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrepare(t *testing.T) {
	tests := []struct {
		input  string
		output string
	}{
		{
			"void abort(void) __attribute__((__noreturn__));",
			"void abort(void)  ;",
		},
		{
			"int x; // comment\nint y; /* multi\nline */ int z;",
			"int x; \nint y; \n  int z;",
		},
		{
			`char *s = "/* not a comment */ __attribute__";`,
			`char *s = "/* not a comment */ __attribute__";`,
		},
		{
			"__extension__ typedef long long __int64_t;",
			" typedef long long __int64_t;",
		},
		{
			"static __inline__ int f(int *__restrict p) { __asm__ __volatile__(\"nop\" : : : \"memory\"); }",
			"static inline int f(int * p) {  ; }",
		},
		{
			"# 1 \"a.c\" __attribute__\nint __signed__ x1ul = 10ul;",
			"# 1 \"a.c\" __attribute__\nint signed x1ul = 10ul;",
		},
	}
	for _, test := range tests {
		t.Run(test.input, func(t *testing.T) {
			assert.Equal(t, test.output, string(Prepare([]byte(test.input))))
		})
	}
}

func TestPrepareKeepsLines(t *testing.T) {
	input := "int a /* x\ny\nz */;\nint f(void) __attribute__((\n\tnoreturn\n));\nint b;\n"
	output := string(Prepare([]byte(input)))
	assert.Equal(t, strings.Count(input, "\n"), strings.Count(output, "\n"))
	file, err := ParseSource([]byte(input), "test.c")
	require.NoError(t, err)
	assert.Equal(t, 7, file.Items[2].Info().Line)
}
