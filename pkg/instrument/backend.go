// Copyright 2017 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package instrument

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sosy-lab/tbf/pkg/cast"
	"github.com/sosy-lab/tbf/pkg/log"
)

// Backend customizes the rewrite for a particular test generator.
type Backend interface {
	Name() string
	// Preamble is C text emitted in front of the instrumented unit.
	Preamble() string
	// Init returns an initializer for a new nondet variable, or nil.
	Init(v *cast.Decl) cast.Expr
	// Marker returns a statement that follows the declaration of a new nondet variable, or nil.
	Marker(v *cast.Decl) cast.Stmt
	// ErrorCall replaces calls to the error function.
	ErrorCall() cast.Expr
	// AssumeFail is the statement of the assume helper executed on a false condition.
	AssumeFail() string
}

var backends = map[string]Backend{}

func register(b Backend) {
	if backends[b.Name()] != nil {
		panic(fmt.Sprintf("backend %v is already registered", b.Name()))
	}
	backends[b.Name()] = b
}

func init() {
	register(Plain{})
	register(Klee{})
	register(Crest{})
	register(Random{})
}

// LookupBackend returns the backend with the given name.
func LookupBackend(name string) (Backend, error) {
	b := backends[name]
	if b == nil {
		return nil, fmt.Errorf("unknown backend %q, known backends: %v", name, strings.Join(Backends(), ", "))
	}
	return b, nil
}

// Backends returns names of all backends.
func Backends() []string {
	var names []string
	for name := range backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

const exitDecl = "extern void exit(int);\n"

// Plain only replaces nondet calls with uninitialized variables.
type Plain struct{}

func (Plain) Name() string                  { return "plain" }
func (Plain) Preamble() string              { return exitDecl }
func (Plain) Init(v *cast.Decl) cast.Expr   { return nil }
func (Plain) Marker(v *cast.Decl) cast.Stmt { return nil }
func (Plain) ErrorCall() cast.Expr          { return exitCall(ErrorReturn) }
func (Plain) AssumeFail() string            { return "exit(0);" }

// Klee makes every nondet variable symbolic.
type Klee struct{ Plain }

func (Klee) Name() string { return "klee" }

func (Klee) Preamble() string {
	return exitDecl + "void klee_make_symbolic(void *addr, unsigned long size, const char *name);\n"
}

func (Klee) Marker(v *cast.Decl) cast.Stmt {
	return callStmt("klee_make_symbolic", addrOf(v.Name), sizeOf(v.Name), str(v.Name))
}

// Crest marks nondet variables of integer types as concolic inputs.
// _Bool is marked as char. CREST has no marker for floating and pointer types,
// these are marked as int, which never writes past the variable.
type Crest struct{ Plain }

func (Crest) Name() string { return "crest" }

func (Crest) Preamble() string {
	return "#include <crest.h>\n" + exitDecl
}

// crestTypes maps integer type spellings to the type of their CREST marker.
var crestTypes = map[string]string{
	"_Bool": "char",
	"char":  "char", "unsigned char": "unsigned char",
	"short": "short", "short int": "short",
	"unsigned short": "unsigned short", "unsigned short int": "unsigned short",
	"int": "int", "signed": "int", "unsigned": "unsigned int", "unsigned int": "unsigned int",
	"long": "long", "long int": "long",
	"unsigned long": "unsigned long", "unsigned long int": "unsigned long",
	"long long": "long long", "long long int": "long long",
	"unsigned long long": "unsigned long long", "unsigned long long int": "unsigned long long",
}

func (Crest) Marker(v *cast.Decl) cast.Stmt {
	typ := strings.Join(strings.Fields(cast.TypeString(v.Type)), " ")
	typ = strings.TrimPrefix(typ, "signed ")
	marker, ok := crestTypes[typ]
	if !ok {
		log.Logf(1, "crest: no marker for %v %v, marking it as int", typ, v.Name)
		marker = "int"
	}
	return callStmt("CREST_"+strings.ReplaceAll(marker, " ", "_"), ident(v.Name))
}

// Random fills nondet variables with random bytes through the input function of the random tester.
type Random struct{ Plain }

func (Random) Name() string { return "random" }

func (Random) Preamble() string {
	return exitDecl + "void input(void *var, unsigned long var_size, const char *var_name);\n"
}

func (Random) Marker(v *cast.Decl) cast.Stmt {
	return callStmt("input", addrOf(v.Name), sizeOf(v.Name), str(v.Name))
}

func ident(name string) *cast.Ident {
	return &cast.Ident{Name: name}
}

func addrOf(name string) cast.Expr {
	return &cast.UnaryOp{Op: "&", X: ident(name)}
}

func sizeOf(name string) cast.Expr {
	return &cast.UnaryOp{Op: "sizeof", X: ident(name)}
}

func str(s string) cast.Expr {
	return &cast.Constant{Kind: cast.ConstString, Value: fmt.Sprintf("%q", s)}
}

func call(fn string, args ...cast.Expr) *cast.FuncCall {
	c := &cast.FuncCall{Fn: ident(fn)}
	if len(args) != 0 {
		c.Args = &cast.ExprList{Exprs: args}
	}
	return c
}

func callStmt(fn string, args ...cast.Expr) cast.Stmt {
	return &cast.ExprStmt{X: call(fn, args...)}
}

func exitCall(status int) cast.Expr {
	return call("exit", &cast.Constant{Kind: cast.ConstInt, Value: fmt.Sprint(status)})
}
