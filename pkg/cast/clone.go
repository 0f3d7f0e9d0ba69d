// Copyright 2017 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package cast

// Clone returns a deep copy of n.
func Clone(n Node) Node {
	return Visit[Node](cloner{}, n)
}

type cloner struct{}

func (c cloner) expr(e Expr) Expr {
	res, _ := Visit[Node](c, e).(Expr)
	return res
}

func (c cloner) stmt(s Stmt) Stmt {
	res, _ := Visit[Node](c, s).(Stmt)
	return res
}

func (c cloner) typ(t Type) Type {
	res, _ := Visit[Node](c, t).(Type)
	return res
}

func (c cloner) ident(n *Ident) *Ident {
	if n == nil {
		return nil
	}
	return c.VisitIdent(n).(*Ident)
}

func (c cloner) stmts(list []Stmt) []Stmt {
	if list == nil {
		return nil
	}
	res := make([]Stmt, len(list))
	for i, s := range list {
		res[i] = c.stmt(s)
	}
	return res
}

func (c cloner) exprs(list []Expr) []Expr {
	if list == nil {
		return nil
	}
	res := make([]Expr, len(list))
	for i, e := range list {
		res[i] = c.expr(e)
	}
	return res
}

func (c cloner) decls(list []*Decl) []*Decl {
	if list == nil {
		return nil
	}
	res := make([]*Decl, len(list))
	for i, d := range list {
		res[i] = c.decl(d)
	}
	return res
}

func (c cloner) decl(n *Decl) *Decl {
	if n == nil {
		return nil
	}
	return c.VisitDecl(n).(*Decl)
}

func (c cloner) compound(n *Compound) *Compound {
	if n == nil {
		return nil
	}
	return c.VisitCompound(n).(*Compound)
}

func (c cloner) typename(n *Typename) *Typename {
	if n == nil {
		return nil
	}
	return c.VisitTypename(n).(*Typename)
}

func (c cloner) exprList(n *ExprList) *ExprList {
	if n == nil {
		return nil
	}
	return c.VisitExprList(n).(*ExprList)
}

func strs(list []string) []string {
	if list == nil {
		return nil
	}
	return append([]string{}, list...)
}

func (c cloner) VisitNil() Node { return nil }

func (c cloner) VisitFile(n *File) Node {
	return &File{Pos: n.Pos, Items: c.stmts(n.Items)}
}

func (c cloner) VisitDecl(n *Decl) Node {
	return &Decl{
		Pos:      n.Pos,
		Name:     n.Name,
		Quals:    strs(n.Quals),
		Storage:  strs(n.Storage),
		FuncSpec: strs(n.FuncSpec),
		Type:     c.typ(n.Type),
		Init:     c.expr(n.Init),
		Bitsize:  c.expr(n.Bitsize),
	}
}

func (c cloner) VisitDeclList(n *DeclList) Node {
	return &DeclList{Pos: n.Pos, Decls: c.decls(n.Decls)}
}

func (c cloner) VisitTypedef(n *Typedef) Node {
	return &Typedef{
		Pos:     n.Pos,
		Name:    n.Name,
		Quals:   strs(n.Quals),
		Storage: strs(n.Storage),
		Type:    c.typ(n.Type),
	}
}

func (c cloner) VisitFuncDef(n *FuncDef) Node {
	return &FuncDef{Pos: n.Pos, Decl: c.decl(n.Decl), Body: c.compound(n.Body)}
}

func (c cloner) VisitPragma(n *Pragma) Node {
	return &Pragma{Pos: n.Pos, Text: n.Text}
}

func (c cloner) VisitTypeDecl(n *TypeDecl) Node {
	return &TypeDecl{Pos: n.Pos, DeclName: n.DeclName, Quals: strs(n.Quals), Type: c.typ(n.Type)}
}

func (c cloner) VisitPtrDecl(n *PtrDecl) Node {
	return &PtrDecl{Pos: n.Pos, Quals: strs(n.Quals), Type: c.typ(n.Type)}
}

func (c cloner) VisitArrayDecl(n *ArrayDecl) Node {
	return &ArrayDecl{Pos: n.Pos, Type: c.typ(n.Type), Dim: c.expr(n.Dim), DimQuals: strs(n.DimQuals)}
}

func (c cloner) VisitFuncDecl(n *FuncDecl) Node {
	res := &FuncDecl{Pos: n.Pos, Type: c.typ(n.Type)}
	if n.Params != nil {
		res.Params = c.VisitParamList(n.Params).(*ParamList)
	}
	return res
}

func (c cloner) VisitParamList(n *ParamList) Node {
	res := &ParamList{Pos: n.Pos}
	for _, p := range n.Params {
		res.Params = append(res.Params, Visit[Node](c, p))
	}
	return res
}

func (c cloner) VisitEllipsisParam(n *EllipsisParam) Node {
	return &EllipsisParam{Pos: n.Pos}
}

func (c cloner) VisitTypename(n *Typename) Node {
	return &Typename{Pos: n.Pos, Quals: strs(n.Quals), Type: c.typ(n.Type)}
}

func (c cloner) VisitIdentifierType(n *IdentifierType) Node {
	return &IdentifierType{Pos: n.Pos, Names: strs(n.Names)}
}

func (c cloner) VisitStruct(n *Struct) Node {
	return &Struct{Pos: n.Pos, Name: n.Name, Decls: c.decls(n.Decls)}
}

func (c cloner) VisitUnion(n *Union) Node {
	return &Union{Pos: n.Pos, Name: n.Name, Decls: c.decls(n.Decls)}
}

func (c cloner) VisitEnum(n *Enum) Node {
	res := &Enum{Pos: n.Pos, Name: n.Name}
	if n.Values != nil {
		res.Values = c.VisitEnumeratorList(n.Values).(*EnumeratorList)
	}
	return res
}

func (c cloner) VisitEnumeratorList(n *EnumeratorList) Node {
	res := &EnumeratorList{Pos: n.Pos}
	for _, e := range n.Enumerators {
		res.Enumerators = append(res.Enumerators, c.VisitEnumerator(e).(*Enumerator))
	}
	return res
}

func (c cloner) VisitEnumerator(n *Enumerator) Node {
	return &Enumerator{Pos: n.Pos, Name: n.Name, Value: c.expr(n.Value)}
}

func (c cloner) VisitCompound(n *Compound) Node {
	return &Compound{Pos: n.Pos, Items: c.stmts(n.Items)}
}

func (c cloner) VisitExprStmt(n *ExprStmt) Node {
	return &ExprStmt{Pos: n.Pos, X: c.expr(n.X)}
}

func (c cloner) VisitEmptyStmt(n *EmptyStmt) Node {
	return &EmptyStmt{Pos: n.Pos}
}

func (c cloner) VisitIf(n *If) Node {
	return &If{Pos: n.Pos, Cond: c.expr(n.Cond), Then: c.stmt(n.Then), Else: c.stmt(n.Else)}
}

func (c cloner) VisitWhile(n *While) Node {
	return &While{Pos: n.Pos, Cond: c.expr(n.Cond), Body: c.stmt(n.Body)}
}

func (c cloner) VisitDoWhile(n *DoWhile) Node {
	return &DoWhile{Pos: n.Pos, Cond: c.expr(n.Cond), Body: c.stmt(n.Body)}
}

func (c cloner) VisitFor(n *For) Node {
	return &For{
		Pos:  n.Pos,
		Init: Visit[Node](c, n.Init),
		Cond: c.expr(n.Cond),
		Next: c.expr(n.Next),
		Body: c.stmt(n.Body),
	}
}

func (c cloner) VisitSwitch(n *Switch) Node {
	return &Switch{Pos: n.Pos, Cond: c.expr(n.Cond), Body: c.stmt(n.Body)}
}

func (c cloner) VisitCase(n *Case) Node {
	return &Case{Pos: n.Pos, X: c.expr(n.X), Stmt: c.stmt(n.Stmt)}
}

func (c cloner) VisitDefault(n *Default) Node {
	return &Default{Pos: n.Pos, Stmt: c.stmt(n.Stmt)}
}

func (c cloner) VisitLabel(n *Label) Node {
	return &Label{Pos: n.Pos, Name: n.Name, Stmt: c.stmt(n.Stmt)}
}

func (c cloner) VisitGoto(n *Goto) Node {
	return &Goto{Pos: n.Pos, Label: n.Label}
}

func (c cloner) VisitBreak(n *Break) Node {
	return &Break{Pos: n.Pos}
}

func (c cloner) VisitContinue(n *Continue) Node {
	return &Continue{Pos: n.Pos}
}

func (c cloner) VisitReturn(n *Return) Node {
	return &Return{Pos: n.Pos, X: c.expr(n.X)}
}

func (c cloner) VisitIdent(n *Ident) Node {
	return &Ident{Pos: n.Pos, Name: n.Name}
}

func (c cloner) VisitConstant(n *Constant) Node {
	return &Constant{Pos: n.Pos, Kind: n.Kind, Value: n.Value}
}

func (c cloner) VisitUnaryOp(n *UnaryOp) Node {
	return &UnaryOp{Pos: n.Pos, Op: n.Op, X: c.expr(n.X)}
}

func (c cloner) VisitBinaryOp(n *BinaryOp) Node {
	return &BinaryOp{Pos: n.Pos, Op: n.Op, X: c.expr(n.X), Y: c.expr(n.Y)}
}

func (c cloner) VisitAssignment(n *Assignment) Node {
	return &Assignment{Pos: n.Pos, Op: n.Op, LHS: c.expr(n.LHS), RHS: c.expr(n.RHS)}
}

func (c cloner) VisitTernaryOp(n *TernaryOp) Node {
	return &TernaryOp{Pos: n.Pos, Cond: c.expr(n.Cond), Then: c.expr(n.Then), Else: c.expr(n.Else)}
}

func (c cloner) VisitFuncCall(n *FuncCall) Node {
	return &FuncCall{Pos: n.Pos, Fn: c.expr(n.Fn), Args: c.exprList(n.Args)}
}

func (c cloner) VisitArrayRef(n *ArrayRef) Node {
	return &ArrayRef{Pos: n.Pos, X: c.expr(n.X), Index: c.expr(n.Index)}
}

func (c cloner) VisitStructRef(n *StructRef) Node {
	return &StructRef{Pos: n.Pos, X: c.expr(n.X), Arrow: n.Arrow, Field: c.ident(n.Field)}
}

func (c cloner) VisitCast(n *Cast) Node {
	return &Cast{Pos: n.Pos, To: c.typename(n.To), X: c.expr(n.X)}
}

func (c cloner) VisitCompoundLiteral(n *CompoundLiteral) Node {
	res := &CompoundLiteral{Pos: n.Pos, Type: c.typename(n.Type)}
	if n.Init != nil {
		res.Init = c.VisitInitList(n.Init).(*InitList)
	}
	return res
}

func (c cloner) VisitExprList(n *ExprList) Node {
	return &ExprList{Pos: n.Pos, Exprs: c.exprs(n.Exprs)}
}

func (c cloner) VisitInitList(n *InitList) Node {
	return &InitList{Pos: n.Pos, Exprs: c.exprs(n.Exprs)}
}

func (c cloner) VisitNamedInitializer(n *NamedInitializer) Node {
	return &NamedInitializer{
		Pos:        n.Pos,
		Designator: c.exprs(n.Designator),
		Fields:     append([]bool(nil), n.Fields...),
		X:          c.expr(n.X),
	}
}
