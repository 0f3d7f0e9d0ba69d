// Copyright 2017 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// Package harness synthesizes C test harnesses that replay test vectors.
//
// A harness defines every non-deterministic method of a program. With a vector,
// the n-th call to any of them returns the n-th vector value, and a call past the
// end of the vector aborts. Without a vector (the generic harness), each call reads
// one line from stdin. The error method prints ErrorMarker to stderr and exits with 1.
//
// The harness is compiled together with the program, e.g. with "-include program.c".
package harness

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/sosy-lab/tbf/pkg/cast"
	"github.com/sosy-lab/tbf/pkg/instrument"
	"github.com/sosy-lab/tbf/pkg/vector"
)

const (
	// ErrorMarker is printed when the error method is reached.
	ErrorMarker = "Error found."
	// ErrorStatus is the exit status after ErrorMarker.
	ErrorStatus = 1
	// valueSize is the buffer size of parse_inp, enough for long double.
	valueSize = 16
	// inputSize is the line buffer of a stub.
	inputSize = 3000
)

// Declarations of the library functions a harness uses, so that it needs no headers.
const externalDeclarations = `struct _IO_FILE;
typedef struct _IO_FILE FILE;
extern struct _IO_FILE *stdin;
extern struct _IO_FILE *stderr;
typedef __SIZE_TYPE__ size_t;
extern void abort(void);
extern void exit(int __status);
extern char *fgets(char *__s, int __n, FILE *__stream);
extern size_t strlen(const char *__s);
extern char *strcpy(char *__dest, const char *__src);
extern int fprintf(FILE *__stream, const char *__format, ...);
extern void *malloc(size_t __size);
extern void *memcpy(void *__dest, const void *__src, size_t __n);
extern unsigned long long strtoull(const char *__nptr, char **__endptr, int __base);
extern long long strtoll(const char *__nptr, char **__endptr, int __base);
extern long double strtold(const char *__nptr, char **__endptr);
`

// parseInput reinterprets a text value as unsigned, then signed, then floating.
// strtoull accepts a leading minus, which only matters for types wider than the value.
var parseInput = fmt.Sprintf(`char *parse_inp(char *__inp_var) {
    unsigned int input_length = strlen(__inp_var) - 1;
    if (__inp_var[input_length] == '\n') {
        __inp_var[input_length] = '\0';
    }

    char *parseEnd;
    char *value_pointer = malloc(%[1]v);

    unsigned long long intVal = strtoull(__inp_var, &parseEnd, 0);
    if (*parseEnd != 0) {
        long long sintVal = strtoll(__inp_var, &parseEnd, 0);
        if (*parseEnd != 0) {
            long double floatVal = strtold(__inp_var, &parseEnd);
            if (*parseEnd != 0) {
                fprintf(stderr, "Can't parse input: '%%s' (failing at '%%s')\n", __inp_var, parseEnd);
                abort();
            } else {
                memcpy(value_pointer, &floatVal, %[1]v);
            }
        } else {
            memcpy(value_pointer, &sintVal, 8);
        }
    } else {
        memcpy(value_pointer, &intVal, 8);
    }

    return value_pointer;
}

long double parse_float_inp(char *__inp_var) {
    char *parseEnd;
    long double floatVal = strtold(__inp_var, &parseEnd);
    if (*parseEnd != 0 && *parseEnd != '\n') {
        fprintf(stderr, "Can't parse input: '%%s' (failing at '%%s')\n", __inp_var, parseEnd);
        abort();
    }
    return floatVal;
}
`, valueSize)

// Options control optional parts of a harness.
type Options struct {
	// ErrorMethod is the error function to define, none if empty.
	ErrorMethod string
	// NoAssume omits the __VERIFIER_assume definition, for programs that define it.
	NoAssume bool
}

// Synthesize returns a harness for methods that replays vec.
// A nil vec gives the generic harness that reads values from stdin, one per line.
func Synthesize(methods []*instrument.Method, vec *vector.Vector, opts Options) []byte {
	buf := new(bytes.Buffer)
	buf.WriteString(externalDeclarations)
	buf.WriteString("\n")
	if !opts.NoAssume {
		fmt.Fprintf(buf, "void %v(int cond) {\n    if (!cond) {\n        abort();\n    }\n}\n\n",
			instrument.AssumeMethod)
	}
	buf.WriteString(parseInput)
	buf.WriteString("\n")
	if opts.ErrorMethod != "" {
		fmt.Fprintf(buf, "void %v() {\n    fprintf(stderr, \"%v\\n\");\n    exit(%v);\n}\n\n",
			opts.ErrorMethod, ErrorMarker, ErrorStatus)
	}
	if vec != nil {
		buf.WriteString("unsigned int access_counter = 0;\n\n")
	}
	for _, m := range methods {
		writeStub(buf, m, vec)
	}
	return buf.Bytes()
}

// Generic returns the harness that reads values from stdin.
func Generic(methods []*instrument.Method, opts Options) []byte {
	return Synthesize(methods, nil, opts)
}

func writeStub(buf *bytes.Buffer, m *instrument.Method, vec *vector.Vector) {
	fmt.Fprintf(buf, "%v {\n", m.Head())
	if m.Type != "void" {
		fmt.Fprintf(buf, "    unsigned int inp_size = %v;\n", inputSize)
		buf.WriteString("    char *inp_var = malloc(inp_size);\n")
		if vec == nil {
			buf.WriteString("    if (!fgets(inp_var, inp_size, stdin)) {\n        abort();\n    }\n")
		} else {
			buf.WriteString("    switch (access_counter) {\n")
			for i := 0; i < vec.Len(); i++ {
				fmt.Fprintf(buf, "    case %v: strcpy(inp_var, %v); break;\n", i, quote(vec.At(i).Value))
			}
			buf.WriteString("    default: {\n#ifdef TBF_GCOV\n        __gcov_flush();\n#endif\n        abort();\n    }\n")
			buf.WriteString("    }\n")
			buf.WriteString("    access_counter++;\n")
		}
		if isFloating(m.Type) {
			// parse_inp stores integer literals as integers, which a floating load misreads.
			fmt.Fprintf(buf, "    return (%v) parse_float_inp(inp_var);\n", m.Type)
		} else {
			fmt.Fprintf(buf, "    return *((%v) parse_inp(inp_var));\n", cast.Declare(m.Type, "*"))
		}
	}
	buf.WriteString("}\n\n")
}

func isFloating(typ string) bool {
	if strings.Contains(typ, "*") {
		return false
	}
	for _, w := range strings.Fields(typ) {
		if w == "float" || w == "double" {
			return true
		}
	}
	return false
}

// quote returns s as a C string literal.
func quote(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, c := range []byte(s) {
		switch {
		case c == '"' || c == '\\':
			b.WriteByte('\\')
			b.WriteByte(c)
		case c < 0x20 || c >= 0x7f:
			fmt.Fprintf(&b, "\\%03o", c)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte('"')
	return b.String()
}
