// Copyright 2017 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package cast

import (
	"strings"
)

// Format returns C source for the file.
// Formatting a parsed file and parsing the result again gives the same tree.
func Format(file *File) []byte {
	return []byte(Visit[string](&formatter{bodies: true}, file))
}


// FormatNode returns C source for a single node.
// Statements are terminated with a newline, declarations and expressions are not.
func FormatNode(n Node) string {
	return Visit[string](&formatter{bodies: true}, n)
}

// Binary operators take precCond+binaryPrec[op].
const (
	precComma   = 1
	precAssign  = 2
	precCond    = 3
	precUnary   = 14
	precPostfix = 15
	precPrimary = 16
)

type formatter struct {
	level int
	// bodies says if struct/union/enum definitions are printed in full.
	// Otherwise only anonymous aggregates are expanded (on a single line).
	bodies bool
	// abstract omits parameter names, as in type names.
	abstract bool
}

func (f *formatter) indent() string {
	return strings.Repeat("\t", f.level)
}

func precedence(e Expr) int {
	switch e := e.(type) {
	case *ExprList:
		return precComma
	case *Assignment:
		return precAssign
	case *TernaryOp:
		return precCond
	case *BinaryOp:
		return precCond + binaryPrec[e.Op]
	case *UnaryOp:
		if e.Op == "p++" || e.Op == "p--" {
			return precPostfix
		}
		return precUnary
	case *Cast:
		return precUnary
	case *FuncCall, *ArrayRef, *StructRef, *CompoundLiteral:
		return precPostfix
	}
	return precPrimary
}

// expr formats e and parenthesizes it if it binds weaker than min.
func (f *formatter) expr(e Expr, min int) string {
	s := Visit[string](f, e)
	if precedence(e) < min {
		return "(" + s + ")"
	}
	return s
}

// stmt formats s as a complete statement line (or lines).
func (f *formatter) stmt(s Stmt) string {
	switch s.(type) {
	case *Decl, *Typedef, *DeclList:
		return f.indent() + Visit[string](f, s) + ";\n"
	}
	return Visit[string](f, s)
}

// items formats a statement list. Consecutive declarations that share
// an aggregate definition ("struct {...} a, *b;") are printed as one declaration.
func (f *formatter) items(items []Stmt) string {
	var sb strings.Builder
	for i := 0; i < len(items); {
		j := i + 1
		if base := sharedBase(items[i]); base != nil {
			for j < len(items) && sharedBase(items[j]) == base {
				j++
			}
		}
		if j-i > 1 {
			sb.WriteString(f.indent() + f.declGroup(items[i:j]) + ";\n")
		} else {
			sb.WriteString(f.stmt(items[i]))
			if _, ok := items[i].(*FuncDef); ok && j < len(items) {
				sb.WriteString("\n")
			}
		}
		i = j
	}
	return sb.String()
}

func sharedBase(s Stmt) Type {
	var base Type
	switch d := s.(type) {
	case *Decl:
		if d.Name == "" {
			return nil
		}
		base = baseOf(d.Type)
	case *Typedef:
		base = baseOf(d.Type)
	default:
		return nil
	}
	switch b := base.(type) {
	case *Struct:
		if b.Decls != nil {
			return b
		}
	case *Union:
		if b.Decls != nil {
			return b
		}
	case *Enum:
		if b.Values != nil {
			return b
		}
	}
	return nil
}

// bottomOf returns the TypeDecl that ends the declarator chain t.
func bottomOf(t Type) *TypeDecl {
	for {
		switch n := t.(type) {
		case *TypeDecl:
			return n
		case *PtrDecl:
			t = n.Type
		case *ArrayDecl:
			t = n.Type
		case *FuncDecl:
			t = n.Type
		default:
			return nil
		}
	}
}

// baseOf returns the base type of the chain t.
func baseOf(t Type) Type {
	if td := bottomOf(t); td != nil {
		return td.Type
	}
	return t
}

// declGroup prints the first declaration in full and only the declarators of the rest.
func (f *formatter) declGroup(items []Stmt) string {
	res := []string{Visit[string](f, items[0])}
	for _, s := range items[1:] {
		text := Visit[string](f, s)
		prefix := f.declPrefix(s)
		if prefix != "" && strings.HasPrefix(text, prefix+" ") {
			text = strings.TrimPrefix(text, prefix+" ")
		}
		res = append(res, text)
	}
	return strings.Join(res, ", ")
}

// declPrefix returns the specifiers part of a declaration.
func (f *formatter) declPrefix(s Stmt) string {
	switch d := s.(type) {
	case *Decl:
		if td := bottomOf(d.Type); td != nil {
			return specifiers(d.Storage, d.FuncSpec) + td.spell(f, "")
		}
	case *Typedef:
		if td := bottomOf(d.Type); td != nil {
			return "typedef " + specifiers(d.Storage, nil) + td.spell(f, "")
		}
	}
	return ""
}

func specifiers(storage, funcSpec []string) string {
	s := ""
	for _, w := range storage {
		s += w + " "
	}
	for _, w := range funcSpec {
		s += w + " "
	}
	return s
}

func (f *formatter) declText(d *Decl) string {
	s := specifiers(d.Storage, d.FuncSpec)
	switch d.Type.(type) {
	case *IdentifierType, *Struct, *Union, *Enum:
		// Tag declaration or anonymous member.
		if len(d.Quals) != 0 {
			s += strings.Join(d.Quals, " ") + " "
		}
		s += d.Type.spell(f, d.Name)
	default:
		s += d.Type.spell(f, d.Name)
	}
	if d.Bitsize != nil {
		s += " : " + f.expr(d.Bitsize, precCond)
	}
	if d.Init != nil {
		s += " = " + f.expr(d.Init, precAssign)
	}
	return s
}

// braces formats a compound statement without the leading indentation and trailing newline.
func (f *formatter) braces(c *Compound) string {
	f.level++
	s := "{\n" + f.items(c.Items)
	f.level--
	return s + f.indent() + "}"
}

// body formats the body of a control statement that follows its header.
func (f *formatter) body(s Stmt) string {
	if c, ok := s.(*Compound); ok {
		return " " + f.braces(c) + "\n"
	}
	f.level++
	res := "\n" + f.stmt(s)
	f.level--
	return res
}

func (f *formatter) VisitNil() string { return "" }

func (f *formatter) VisitFile(n *File) string { return f.items(n.Items) }

func (f *formatter) VisitDecl(n *Decl) string { return f.declText(n) }

func (f *formatter) VisitDeclList(n *DeclList) string {
	items := make([]Stmt, len(n.Decls))
	for i, d := range n.Decls {
		items[i] = d
	}
	return f.declGroup(items)
}

func (f *formatter) VisitTypedef(n *Typedef) string {
	return "typedef " + specifiers(n.Storage, nil) + n.Type.spell(f, n.Name)
}

func (f *formatter) VisitFuncDef(n *FuncDef) string {
	return f.indent() + f.declText(n.Decl) + "\n" + f.indent() + f.braces(n.Body) + "\n"
}

func (f *formatter) VisitPragma(n *Pragma) string { return "#pragma " + n.Text + "\n" }

func (f *formatter) VisitTypeDecl(n *TypeDecl) string { return n.spell(f, "") }

func (f *formatter) VisitPtrDecl(n *PtrDecl) string { return n.spell(f, "") }

func (f *formatter) VisitArrayDecl(n *ArrayDecl) string { return n.spell(f, "") }

func (f *formatter) VisitFuncDecl(n *FuncDecl) string { return n.spell(f, "") }

func (f *formatter) VisitParamList(n *ParamList) string { return f.params(n) }

func (f *formatter) VisitEllipsisParam(n *EllipsisParam) string { return "..." }

func (f *formatter) VisitTypename(n *Typename) string { return n.Type.spell(f, "") }

func (f *formatter) VisitIdentifierType(n *IdentifierType) string { return n.spell(f, "") }

func (f *formatter) VisitStruct(n *Struct) string { return n.spell(f, "") }

func (f *formatter) VisitUnion(n *Union) string { return n.spell(f, "") }

func (f *formatter) VisitEnum(n *Enum) string { return n.spell(f, "") }

func (f *formatter) VisitEnumeratorList(n *EnumeratorList) string {
	var values []string
	for _, e := range n.Enumerators {
		values = append(values, f.VisitEnumerator(e))
	}
	return strings.Join(values, ", ")
}

func (f *formatter) VisitEnumerator(n *Enumerator) string {
	if n.Value == nil {
		return n.Name
	}
	return n.Name + " = " + f.expr(n.Value, precCond)
}

func (f *formatter) VisitCompound(n *Compound) string {
	return f.indent() + f.braces(n) + "\n"
}

func (f *formatter) VisitExprStmt(n *ExprStmt) string {
	return f.indent() + Visit[string](f, n.X) + ";\n"
}

func (f *formatter) VisitEmptyStmt(n *EmptyStmt) string { return f.indent() + ";\n" }

func (f *formatter) VisitIf(n *If) string {
	then := n.Then
	if _, ok := then.(*If); ok && n.Else != nil {
		// Keep the else attached to this if.
		then = &Compound{Pos: then.Info(), Items: []Stmt{then}}
	}
	s := f.indent() + "if (" + Visit[string](f, n.Cond) + ")" + f.body(then)
	if n.Else == nil {
		return s
	}
	if _, ok := then.(*Compound); ok {
		s = strings.TrimSuffix(s, "\n") + " else"
	} else {
		s += f.indent() + "else"
	}
	if elif, ok := n.Else.(*If); ok {
		return s + " " + strings.TrimLeft(f.VisitIf(elif), "\t")
	}
	return s + f.body(n.Else)
}

func (f *formatter) VisitWhile(n *While) string {
	return f.indent() + "while (" + Visit[string](f, n.Cond) + ")" + f.body(n.Body)
}

func (f *formatter) VisitDoWhile(n *DoWhile) string {
	s := f.indent() + "do" + f.body(n.Body)
	if _, ok := n.Body.(*Compound); ok {
		s = strings.TrimSuffix(s, "\n") + " "
	} else {
		s += f.indent()
	}
	return s + "while (" + Visit[string](f, n.Cond) + ");\n"
}

func (f *formatter) VisitFor(n *For) string {
	s := f.indent() + "for (" + Visit[string](f, n.Init) + ";"
	if n.Cond != nil {
		s += " " + Visit[string](f, n.Cond)
	}
	s += ";"
	if n.Next != nil {
		s += " " + Visit[string](f, n.Next)
	}
	return s + ")" + f.body(n.Body)
}

func (f *formatter) VisitSwitch(n *Switch) string {
	return f.indent() + "switch (" + Visit[string](f, n.Cond) + ")" + f.body(n.Body)
}

func (f *formatter) labeled(head string, s Stmt, nested bool) string {
	if s == nil {
		return head + "\n"
	}
	if nested {
		f.level++
		defer func() { f.level-- }()
	}
	return head + "\n" + f.stmt(s)
}

func (f *formatter) VisitCase(n *Case) string {
	return f.labeled(f.indent()+"case "+f.expr(n.X, precCond)+":", n.Stmt, true)
}

func (f *formatter) VisitDefault(n *Default) string {
	return f.labeled(f.indent()+"default:", n.Stmt, true)
}

func (f *formatter) VisitLabel(n *Label) string {
	return f.labeled(f.indent()+n.Name+":", n.Stmt, false)
}

func (f *formatter) VisitGoto(n *Goto) string { return f.indent() + "goto " + n.Label + ";\n" }

func (f *formatter) VisitBreak(n *Break) string { return f.indent() + "break;\n" }

func (f *formatter) VisitContinue(n *Continue) string { return f.indent() + "continue;\n" }

func (f *formatter) VisitReturn(n *Return) string {
	if n.X == nil {
		return f.indent() + "return;\n"
	}
	return f.indent() + "return " + Visit[string](f, n.X) + ";\n"
}

func (f *formatter) VisitIdent(n *Ident) string { return n.Name }

func (f *formatter) VisitConstant(n *Constant) string { return n.Value }

func (f *formatter) VisitUnaryOp(n *UnaryOp) string {
	switch n.Op {
	case "p++", "p--":
		return f.expr(n.X, precPostfix) + n.Op[1:]
	case "sizeof", "_Alignof", "__alignof__":
		return n.Op + "(" + Visit[string](f, n.X) + ")"
	}
	x := f.expr(n.X, precUnary)
	if last := n.Op[len(n.Op)-1]; x != "" && x[0] == last && strings.IndexByte("+-&", last) != -1 {
		return n.Op + " " + x
	}
	return n.Op + x
}

func (f *formatter) VisitBinaryOp(n *BinaryOp) string {
	prec := precedence(n)
	return f.expr(n.X, prec) + " " + n.Op + " " + f.expr(n.Y, prec+1)
}

func (f *formatter) VisitAssignment(n *Assignment) string {
	return f.expr(n.LHS, precUnary) + " " + n.Op + " " + f.expr(n.RHS, precAssign)
}

func (f *formatter) VisitTernaryOp(n *TernaryOp) string {
	return f.expr(n.Cond, precCond+1) + " ? " + f.expr(n.Then, precComma) + " : " + f.expr(n.Else, precCond)
}

func (f *formatter) VisitFuncCall(n *FuncCall) string {
	return f.expr(n.Fn, precPostfix) + "(" + f.list(n.Args) + ")"
}

func (f *formatter) list(l *ExprList) string {
	if l == nil {
		return ""
	}
	var res []string
	for _, e := range l.Exprs {
		res = append(res, f.expr(e, precAssign))
	}
	return strings.Join(res, ", ")
}

func (f *formatter) VisitArrayRef(n *ArrayRef) string {
	return f.expr(n.X, precPostfix) + "[" + Visit[string](f, n.Index) + "]"
}

func (f *formatter) VisitStructRef(n *StructRef) string {
	sep := "."
	if n.Arrow {
		sep = "->"
	}
	return f.expr(n.X, precPostfix) + sep + n.Field.Name
}

func (f *formatter) VisitCast(n *Cast) string {
	return "(" + f.VisitTypename(n.To) + ")" + f.expr(n.X, precUnary)
}

func (f *formatter) VisitCompoundLiteral(n *CompoundLiteral) string {
	return "(" + f.VisitTypename(n.Type) + ")" + f.VisitInitList(n.Init)
}

func (f *formatter) VisitExprList(n *ExprList) string { return f.list(n) }

func (f *formatter) VisitInitList(n *InitList) string {
	var res []string
	for _, e := range n.Exprs {
		res = append(res, f.expr(e, precAssign))
	}
	return "{" + strings.Join(res, ", ") + "}"
}

func (f *formatter) VisitNamedInitializer(n *NamedInitializer) string {
	s := ""
	for i, d := range n.Designator {
		if n.Fields[i] {
			s += "." + Visit[string](f, d)
		} else {
			s += "[" + f.expr(d, precCond) + "]"
		}
	}
	return s + " = " + f.expr(n.X, precAssign)
}
