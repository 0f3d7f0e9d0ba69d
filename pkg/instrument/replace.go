// Copyright 2017 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package instrument

import (
	"fmt"
	"strings"

	"github.com/sosy-lab/tbf/pkg/cast"
	"github.com/sosy-lab/tbf/pkg/log"
)

// Replacer is the rewrite pass. Each node visit returns the rewritten node
// and the statements that must be placed before the statement containing the node.
// Only statement lists (blocks, function bodies and the unit) consume them.
//
// A Replacer keeps the scope stack and the variable counter of one unit
// and must not be used for more than one unit.
type Replacer struct {
	backend  Backend
	opts     *Options
	methods  map[string]*Method
	defined  map[string]bool
	external map[string]*cast.FuncDecl
	scopes   []map[string]cast.Type
	counter  int
	vars     []Var
	assume   bool
}

// rewrite is the result of visiting a node.
type rewrite struct {
	hoist []cast.Stmt
	node  cast.Node
}

// fatal carries errors that abort the rewrite of the whole unit.
type fatal struct {
	err error
}

func NewReplacer(backend Backend, opts *Options) *Replacer {
	r := &Replacer{
		backend:  backend,
		opts:     opts,
		methods:  make(map[string]*Method),
		defined:  make(map[string]bool),
		external: make(map[string]*cast.FuncDecl),
	}
	if opts != nil {
		for _, m := range opts.Methods {
			r.methods[m.Name] = m
		}
	}
	return r
}

// Vars returns the variables introduced so far, in source order.
func (r *Replacer) Vars() []Var {
	return r.vars
}

// Rewrite rewrites file in place.
func (r *Replacer) Rewrite(file *cast.File) (err error) {
	defer func() {
		if e := recover(); e != nil {
			f, ok := e.(fatal)
			if !ok {
				panic(e)
			}
			err = f.err
		}
	}()
	for _, name := range definedFunctions(file) {
		r.defined[name] = true
	}
	r.scopes = []map[string]cast.Type{make(map[string]cast.Type)}
	var decls []cast.Stmt
	for _, m := range r.opts.methodsToDeclare(file) {
		decl, err := m.Decl()
		if err != nil {
			return err
		}
		r.bind(decl.Name, decl.Type)
		decls = append(decls, decl)
	}
	cast.Visit[rewrite](r, file)
	if !r.assume {
		def, err := r.assumeDefinition()
		if err != nil {
			return err
		}
		decls = append(decls, def)
	}
	file.Items = append(decls, file.Items...)
	return nil
}

func (opts *Options) methodsToDeclare(file *cast.File) []*Method {
	if opts == nil {
		return nil
	}
	declared := make(map[string]bool)
	for _, d := range functionDecls(file) {
		declared[d.Name] = true
	}
	var res []*Method
	for _, m := range opts.Methods {
		if !declared[m.Name] {
			res = append(res, m)
		}
	}
	return res
}

func (r *Replacer) fail(err error, pos cast.Pos, msg string, args ...any) {
	panic(fatal{fmt.Errorf("%v: %v: %w", pos, fmt.Sprintf(msg, args...), err)})
}

func (r *Replacer) bind(name string, typ cast.Type) {
	if name == "" {
		return
	}
	scope := r.scopes[len(r.scopes)-1]
	if _, ok := scope[name]; ok {
		log.Logf(1, "not rebinding %v in the same scope", name)
		return
	}
	scope[name] = typ
}

func (r *Replacer) lookup(name string) cast.Type {
	for i := len(r.scopes) - 1; i >= 0; i-- {
		if typ, ok := r.scopes[i][name]; ok {
			return typ
		}
	}
	return nil
}

func (r *Replacer) isErrorCall(name string) bool {
	return name != "" && strings.HasPrefix(name, r.opts.errorMethod())
}

func (r *Replacer) isNondetCall(name string) bool {
	switch {
	case name == "" || name == AssumeMethod:
		return false
	case r.methods[name] != nil:
		return true
	case strings.HasPrefix(name, r.opts.nondetPrefix()):
		return true
	}
	if r.opts.svcompOnly() || r.opts.excluded(name) {
		return false
	}
	_, ext := r.external[name]
	return ext && !r.defined[name] && !isLibraryFunction(name)
}

func (r *Replacer) assumeDefinition() (*cast.FuncDef, error) {
	src := fmt.Sprintf("void %v(int __cond) {\n\tif (!__cond) {\n\t\t%v\n\t}\n\treturn;\n}\n",
		AssumeMethod, r.backend.AssumeFail())
	file, err := cast.ParseSource([]byte(src), "<assume>")
	if err != nil {
		return nil, fmt.Errorf("failed to parse assume definition: %w", err)
	}
	return file.Items[0].(*cast.FuncDef), nil
}

// Typed helpers. Each returns the hoisted statements explicitly, callers that are not
// statement lists must pass them on.

func (r *Replacer) expr(e cast.Expr) ([]cast.Stmt, cast.Expr) {
	if e == nil {
		return nil, nil
	}
	res := cast.Visit[rewrite](r, e)
	return res.hoist, res.node.(cast.Expr)
}

func (r *Replacer) stmt(s cast.Stmt) ([]cast.Stmt, cast.Stmt) {
	if s == nil {
		return nil, nil
	}
	res := cast.Visit[rewrite](r, s)
	if res.node == nil {
		return res.hoist, nil
	}
	return res.hoist, res.node.(cast.Stmt)
}

func (r *Replacer) typ(t cast.Type) ([]cast.Stmt, cast.Type) {
	if t == nil {
		return nil, nil
	}
	res := cast.Visit[rewrite](r, t)
	return res.hoist, res.node.(cast.Type)
}

// block rewrites a statement list, placing hoisted statements right before
// the statement they were hoisted from.
func (r *Replacer) block(items []cast.Stmt) []cast.Stmt {
	var res []cast.Stmt
	for _, item := range items {
		hoist, s := r.stmt(item)
		res = append(res, hoist...)
		if s != nil {
			res = append(res, s)
		}
	}
	return res
}

// branch rewrites a statement in a position that is not a statement list.
// Hoisted statements are kept on the branch by wrapping it in a block.
func (r *Replacer) branch(s cast.Stmt) cast.Stmt {
	hoist, s := r.stmt(s)
	if len(hoist) == 0 {
		return s
	}
	items := hoist
	if s != nil {
		items = append(items, s)
	}
	return &cast.Compound{Pos: items[0].Info(), Items: items}
}

func keep(n cast.Node) rewrite {
	return rewrite{node: n}
}

func (r *Replacer) VisitNil() rewrite { return rewrite{} }

// VisitFile rewrites the top-level items. A nondet call there has no statement
// list to hoist into, and a nondet variable is not a constant initializer.
func (r *Replacer) VisitFile(n *cast.File) rewrite {
	var items []cast.Stmt
	for _, item := range n.Items {
		hoist, s := r.stmt(item)
		if len(hoist) != 0 {
			r.fail(ErrUnsupported, item.Info(), "non-deterministic call at file scope")
		}
		if s != nil {
			items = append(items, s)
		}
	}
	n.Items = items
	return keep(n)
}

func (r *Replacer) VisitDecl(n *cast.Decl) rewrite {
	if strings.HasPrefix(n.Name, AssumeMethod) && len(r.scopes) == 1 {
		return r.replaceAssume(n)
	}
	if fn, ok := n.Type.(*cast.FuncDecl); ok && hasStorage(n, "extern") {
		if prev, dup := r.external[n.Name]; dup {
			if signature(prev) != signature(fn) {
				r.fail(ErrUnsupported, n.Pos, "conflicting declarations of external function %v", n.Name)
			}
			log.Logf(1, "%v: external function %v is declared again", n.Pos, n.Name)
		} else {
			r.external[n.Name] = fn
		}
	}
	r.bind(n.Name, n.Type)
	var hoist []cast.Stmt
	h, typ := r.typ(n.Type)
	hoist = append(hoist, h...)
	n.Type = typ
	h, n.Init = r.expr(n.Init)
	hoist = append(hoist, h...)
	return rewrite{hoist, n}
}

// signature does not distinguish "f()" from "f(void)".
func signature(fn *cast.FuncDecl) string {
	return cast.TypeString(fn.Type) + "(" + strings.Join(cast.ParamTypes(fn), ", ") + ")"
}

func hasStorage(n *cast.Decl, storage string) bool {
	for _, s := range n.Storage {
		if s == storage {
			return true
		}
	}
	return false
}

// replaceAssume replaces the first declaration or definition of the assume function
// with the synthesized definition and drops the others.
func (r *Replacer) replaceAssume(n cast.Node) rewrite {
	if r.assume {
		return rewrite{}
	}
	r.assume = true
	def, err := r.assumeDefinition()
	if err != nil {
		panic(fatal{err})
	}
	r.bind(AssumeMethod, def.Decl.Type)
	return keep(def)
}

func (r *Replacer) VisitDeclList(n *cast.DeclList) rewrite {
	var hoist []cast.Stmt
	for _, d := range n.Decls {
		h, _ := r.stmt(d)
		hoist = append(hoist, h...)
	}
	return rewrite{hoist, n}
}

func (r *Replacer) VisitTypedef(n *cast.Typedef) rewrite { return keep(n) }

func (r *Replacer) VisitFuncDef(n *cast.FuncDef) rewrite {
	if strings.HasPrefix(n.Decl.Name, AssumeMethod) {
		return r.replaceAssume(n)
	}
	if len(r.scopes) != 1 {
		r.fail(ErrUnsupported, n.Pos, "nested function definition %v", n.Decl.Name)
	}
	r.bind(n.Decl.Name, n.Decl.Type)
	r.scopes = append(r.scopes, make(map[string]cast.Type))
	if fn, ok := n.Decl.Type.(*cast.FuncDecl); ok && fn.Params != nil {
		for _, p := range fn.Params.Params {
			if d, ok := p.(*cast.Decl); ok {
				r.bind(d.Name, d.Type)
			}
		}
	}
	n.Body.Items = r.block(n.Body.Items)
	r.scopes = r.scopes[:len(r.scopes)-1]
	return keep(n)
}

func (r *Replacer) VisitPragma(n *cast.Pragma) rewrite { return keep(n) }

func (r *Replacer) VisitTypeDecl(n *cast.TypeDecl) rewrite { return keep(n) }

func (r *Replacer) VisitPtrDecl(n *cast.PtrDecl) rewrite {
	hoist, typ := r.typ(n.Type)
	n.Type = typ
	return rewrite{hoist, n}
}

// VisitArrayDecl rewrites dimensions of variable length arrays.
func (r *Replacer) VisitArrayDecl(n *cast.ArrayDecl) rewrite {
	hoist, typ := r.typ(n.Type)
	n.Type = typ
	h, dim := r.expr(n.Dim)
	n.Dim = dim
	return rewrite{append(hoist, h...), n}
}

// Parameter lists and return types never contain calls that are evaluated.

func (r *Replacer) VisitFuncDecl(n *cast.FuncDecl) rewrite { return keep(n) }

func (r *Replacer) VisitParamList(n *cast.ParamList) rewrite { return keep(n) }

func (r *Replacer) VisitEllipsisParam(n *cast.EllipsisParam) rewrite { return keep(n) }

func (r *Replacer) VisitTypename(n *cast.Typename) rewrite { return keep(n) }

func (r *Replacer) VisitIdentifierType(n *cast.IdentifierType) rewrite { return keep(n) }

func (r *Replacer) VisitStruct(n *cast.Struct) rewrite { return keep(n) }

func (r *Replacer) VisitUnion(n *cast.Union) rewrite { return keep(n) }

func (r *Replacer) VisitEnum(n *cast.Enum) rewrite { return keep(n) }

func (r *Replacer) VisitEnumeratorList(n *cast.EnumeratorList) rewrite { return keep(n) }

func (r *Replacer) VisitEnumerator(n *cast.Enumerator) rewrite { return keep(n) }

func (r *Replacer) VisitCompound(n *cast.Compound) rewrite {
	n.Items = r.block(n.Items)
	return keep(n)
}

func (r *Replacer) VisitExprStmt(n *cast.ExprStmt) rewrite {
	hoist, x := r.expr(n.X)
	n.X = x
	return rewrite{hoist, n}
}

func (r *Replacer) VisitEmptyStmt(n *cast.EmptyStmt) rewrite { return keep(n) }

func (r *Replacer) VisitIf(n *cast.If) rewrite {
	hoist, cond := r.expr(n.Cond)
	n.Cond = cond
	n.Then = r.branch(n.Then)
	n.Else = r.branch(n.Else)
	return rewrite{hoist, n}
}

func (r *Replacer) VisitWhile(n *cast.While) rewrite {
	hoist, cond := r.expr(n.Cond)
	body := r.branch(n.Body)
	if len(hoist) == 0 {
		n.Cond, n.Body = cond, body
		return keep(n)
	}
	return keep(loop(n.Pos, nil, hoist, cond, nil, body))
}

// loop builds "for (init; ; next) { hoist; if (!(cond)) break; body }",
// so that the hoisted statements are executed before every evaluation of the condition.
func loop(pos cast.Pos, init cast.Node, hoist []cast.Stmt, cond, next cast.Expr, body cast.Stmt) *cast.For {
	check := &cast.If{
		Pos:  cond.Info(),
		Cond: &cast.UnaryOp{Pos: cond.Info(), Op: "!", X: cond},
		Then: &cast.Break{Pos: cond.Info()},
	}
	items := append(hoist, check)
	if body != nil {
		items = append(items, body)
	}
	return &cast.For{
		Pos:  pos,
		Init: init,
		Next: next,
		Body: &cast.Compound{Pos: pos, Items: items},
	}
}

func (r *Replacer) VisitDoWhile(n *cast.DoWhile) rewrite {
	n.Body = r.branch(n.Body)
	hoist, cond := r.expr(n.Cond)
	if len(hoist) != 0 {
		r.fail(ErrUnsupported, n.Cond.Info(), "non-deterministic call in do-while condition")
	}
	n.Cond = cond
	return keep(n)
}

func (r *Replacer) VisitFor(n *cast.For) rewrite {
	var hoist []cast.Stmt
	switch init := n.Init.(type) {
	case nil:
	case cast.Expr:
		hoist, n.Init = r.expr(init)
	default:
		res := cast.Visit[rewrite](r, init)
		hoist = res.hoist
	}
	condHoist, cond := r.expr(n.Cond)
	nextHoist, next := r.expr(n.Next)
	if len(nextHoist) != 0 {
		r.fail(ErrUnsupported, n.Next.Info(), "non-deterministic call in for loop increment")
	}
	body := r.branch(n.Body)
	if len(condHoist) == 0 {
		n.Cond, n.Next, n.Body = cond, next, body
		return rewrite{hoist, n}
	}
	return rewrite{hoist, loop(n.Pos, n.Init, condHoist, cond, next, body)}
}

func (r *Replacer) VisitSwitch(n *cast.Switch) rewrite {
	hoist, cond := r.expr(n.Cond)
	n.Cond = cond
	n.Body = r.branch(n.Body)
	return rewrite{hoist, n}
}

func (r *Replacer) VisitCase(n *cast.Case) rewrite {
	if hoist, _ := r.expr(n.X); len(hoist) != 0 {
		r.fail(ErrUnsupported, n.Pos, "non-deterministic call in case label")
	}
	n.Stmt = r.branch(n.Stmt)
	return keep(n)
}

func (r *Replacer) VisitDefault(n *cast.Default) rewrite {
	n.Stmt = r.branch(n.Stmt)
	return keep(n)
}

func (r *Replacer) VisitLabel(n *cast.Label) rewrite {
	n.Stmt = r.branch(n.Stmt)
	return keep(n)
}

func (r *Replacer) VisitGoto(n *cast.Goto) rewrite { return keep(n) }

func (r *Replacer) VisitBreak(n *cast.Break) rewrite { return keep(n) }

func (r *Replacer) VisitContinue(n *cast.Continue) rewrite { return keep(n) }

func (r *Replacer) VisitReturn(n *cast.Return) rewrite {
	hoist, x := r.expr(n.X)
	n.X = x
	return rewrite{hoist, n}
}

func (r *Replacer) VisitIdent(n *cast.Ident) rewrite { return keep(n) }

func (r *Replacer) VisitConstant(n *cast.Constant) rewrite { return keep(n) }

func (r *Replacer) VisitUnaryOp(n *cast.UnaryOp) rewrite {
	switch n.Op {
	case "sizeof", "_Alignof", "__alignof__":
		// The operand is not evaluated.
		return keep(n)
	}
	hoist, x := r.expr(n.X)
	n.X = x
	return rewrite{hoist, n}
}

func (r *Replacer) VisitBinaryOp(n *cast.BinaryOp) rewrite {
	hoist, x := r.expr(n.X)
	h, y := r.expr(n.Y)
	n.X, n.Y = x, y
	return rewrite{append(hoist, h...), n}
}

func (r *Replacer) VisitAssignment(n *cast.Assignment) rewrite {
	hoist, lhs := r.expr(n.LHS)
	h, rhs := r.expr(n.RHS)
	n.LHS, n.RHS = lhs, rhs
	return rewrite{append(hoist, h...), n}
}

func (r *Replacer) VisitTernaryOp(n *cast.TernaryOp) rewrite {
	hoist, cond := r.expr(n.Cond)
	h1, then := r.expr(n.Then)
	h2, els := r.expr(n.Else)
	n.Cond, n.Then, n.Else = cond, then, els
	hoist = append(hoist, h1...)
	return rewrite{append(hoist, h2...), n}
}

func (r *Replacer) VisitFuncCall(n *cast.FuncCall) rewrite {
	name := cast.DeclName(n.Fn)
	if r.isErrorCall(name) {
		return keep(r.backend.ErrorCall())
	}
	if r.isNondetCall(name) {
		if v := r.nondetVar(name, n.Pos); v != nil {
			hoist := []cast.Stmt{v}
			if marker := r.backend.Marker(v); marker != nil {
				hoist = append(hoist, marker)
			}
			return rewrite{hoist, &cast.Ident{Pos: n.Pos, Name: v.Name}}
		}
	}
	hoist, fn := r.expr(n.Fn)
	n.Fn = fn
	if n.Args != nil {
		h, args := r.expr(n.Args)
		n.Args = args.(*cast.ExprList)
		hoist = append(hoist, h...)
	}
	return rewrite{hoist, n}
}

// nondetVar declares a fresh variable of the return type of method.
// Returns nil for methods that do not return a value.
func (r *Replacer) nondetVar(method string, pos cast.Pos) *cast.Decl {
	typ := r.lookup(method)
	if typ == nil {
		r.fail(ErrUnknownType, pos, "no declaration of %v", method)
	}
	fn, ok := typ.(*cast.FuncDecl)
	if !ok {
		r.fail(ErrUnknownType, pos, "%v is not a function", method)
	}
	ret := cast.TypeString(fn.Type)
	if ret == "void" {
		return nil
	}
	name := VarName(method, r.counter)
	r.counter++
	v := &cast.Decl{Pos: pos, Name: name, Type: cast.WithName(fn.Type, name)}
	v.Init = r.backend.Init(v)
	r.vars = append(r.vars, Var{Name: name, Method: method, Type: ret, Pos: pos})
	return v
}

func (r *Replacer) VisitArrayRef(n *cast.ArrayRef) rewrite {
	hoist, x := r.expr(n.X)
	h, index := r.expr(n.Index)
	n.X, n.Index = x, index
	return rewrite{append(hoist, h...), n}
}

func (r *Replacer) VisitStructRef(n *cast.StructRef) rewrite {
	hoist, x := r.expr(n.X)
	n.X = x
	return rewrite{hoist, n}
}

func (r *Replacer) VisitCast(n *cast.Cast) rewrite {
	hoist, x := r.expr(n.X)
	n.X = x
	return rewrite{hoist, n}
}

func (r *Replacer) VisitCompoundLiteral(n *cast.CompoundLiteral) rewrite {
	hoist, _ := r.expr(n.Init)
	return rewrite{hoist, n}
}

func (r *Replacer) VisitExprList(n *cast.ExprList) rewrite {
	var hoist []cast.Stmt
	for i, e := range n.Exprs {
		var h []cast.Stmt
		h, n.Exprs[i] = r.expr(e)
		hoist = append(hoist, h...)
	}
	return rewrite{hoist, n}
}

func (r *Replacer) VisitInitList(n *cast.InitList) rewrite {
	var hoist []cast.Stmt
	for i, e := range n.Exprs {
		var h []cast.Stmt
		h, n.Exprs[i] = r.expr(e)
		hoist = append(hoist, h...)
	}
	return rewrite{hoist, n}
}

func (r *Replacer) VisitNamedInitializer(n *cast.NamedInitializer) rewrite {
	hoist, x := r.expr(n.X)
	n.X = x
	return rewrite{hoist, n}
}
