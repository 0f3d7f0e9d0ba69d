// Copyright 2017 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package cast

// DFS is a Visitor that visits all children in source order and concatenates their results.
// Concrete passes embed DFS, override the node kinds they care about
// and set Self to themselves so that the default traversal dispatches back into the overrides:
//
//	type callCollector struct{ cast.DFS[*cast.FuncCall] }
//
//	func (c *callCollector) VisitFuncCall(n *cast.FuncCall) []*cast.FuncCall {
//		return append([]*cast.FuncCall{n}, c.DFS.VisitFuncCall(n)...)
//	}
//
//	c := new(callCollector)
//	c.Self = c
//	calls := cast.Visit[[]*cast.FuncCall](c, file)
type DFS[T any] struct {
	Self Visitor[[]T]
}

func (v *DFS[T]) self() Visitor[[]T] {
	if v.Self == nil {
		return v
	}
	return v.Self
}

func (v *DFS[T]) visit(nodes ...Node) []T {
	var res []T
	for _, n := range nodes {
		res = append(res, Visit(v.self(), n)...)
	}
	return res
}

func visitList[T any, N Node](v *DFS[T], list []N) []T {
	var res []T
	for _, n := range list {
		res = append(res, Visit(v.self(), Node(n))...)
	}
	return res
}

func (v *DFS[T]) VisitNil() []T { return nil }

func (v *DFS[T]) VisitFile(n *File) []T { return visitList(v, n.Items) }

func (v *DFS[T]) VisitDecl(n *Decl) []T { return v.visit(n.Type, n.Init, n.Bitsize) }

func (v *DFS[T]) VisitDeclList(n *DeclList) []T { return visitList(v, n.Decls) }

func (v *DFS[T]) VisitTypedef(n *Typedef) []T { return v.visit(n.Type) }

func (v *DFS[T]) VisitFuncDef(n *FuncDef) []T { return v.visit(n.Decl, n.Body) }

func (v *DFS[T]) VisitPragma(n *Pragma) []T { return nil }

func (v *DFS[T]) VisitTypeDecl(n *TypeDecl) []T { return v.visit(n.Type) }

func (v *DFS[T]) VisitPtrDecl(n *PtrDecl) []T { return v.visit(n.Type) }

func (v *DFS[T]) VisitArrayDecl(n *ArrayDecl) []T { return v.visit(n.Type, n.Dim) }

func (v *DFS[T]) VisitFuncDecl(n *FuncDecl) []T { return v.visit(n.Params, n.Type) }

func (v *DFS[T]) VisitParamList(n *ParamList) []T { return visitList(v, n.Params) }

func (v *DFS[T]) VisitEllipsisParam(n *EllipsisParam) []T { return nil }

func (v *DFS[T]) VisitTypename(n *Typename) []T { return v.visit(n.Type) }

func (v *DFS[T]) VisitIdentifierType(n *IdentifierType) []T { return nil }

func (v *DFS[T]) VisitStruct(n *Struct) []T { return visitList(v, n.Decls) }

func (v *DFS[T]) VisitUnion(n *Union) []T { return visitList(v, n.Decls) }

func (v *DFS[T]) VisitEnum(n *Enum) []T { return v.visit(n.Values) }

func (v *DFS[T]) VisitEnumeratorList(n *EnumeratorList) []T { return visitList(v, n.Enumerators) }

func (v *DFS[T]) VisitEnumerator(n *Enumerator) []T { return v.visit(n.Value) }

func (v *DFS[T]) VisitCompound(n *Compound) []T { return visitList(v, n.Items) }

func (v *DFS[T]) VisitExprStmt(n *ExprStmt) []T { return v.visit(n.X) }

func (v *DFS[T]) VisitEmptyStmt(n *EmptyStmt) []T { return nil }

func (v *DFS[T]) VisitIf(n *If) []T { return v.visit(n.Cond, n.Then, n.Else) }

func (v *DFS[T]) VisitWhile(n *While) []T { return v.visit(n.Cond, n.Body) }

func (v *DFS[T]) VisitDoWhile(n *DoWhile) []T { return v.visit(n.Body, n.Cond) }

func (v *DFS[T]) VisitFor(n *For) []T { return v.visit(n.Init, n.Cond, n.Next, n.Body) }

func (v *DFS[T]) VisitSwitch(n *Switch) []T { return v.visit(n.Cond, n.Body) }

func (v *DFS[T]) VisitCase(n *Case) []T { return v.visit(n.X, n.Stmt) }

func (v *DFS[T]) VisitDefault(n *Default) []T { return v.visit(n.Stmt) }

func (v *DFS[T]) VisitLabel(n *Label) []T { return v.visit(n.Stmt) }

func (v *DFS[T]) VisitGoto(n *Goto) []T { return nil }

func (v *DFS[T]) VisitBreak(n *Break) []T { return nil }

func (v *DFS[T]) VisitContinue(n *Continue) []T { return nil }

func (v *DFS[T]) VisitReturn(n *Return) []T { return v.visit(n.X) }

func (v *DFS[T]) VisitIdent(n *Ident) []T { return nil }

func (v *DFS[T]) VisitConstant(n *Constant) []T { return nil }

func (v *DFS[T]) VisitUnaryOp(n *UnaryOp) []T { return v.visit(n.X) }

func (v *DFS[T]) VisitBinaryOp(n *BinaryOp) []T { return v.visit(n.X, n.Y) }

func (v *DFS[T]) VisitAssignment(n *Assignment) []T { return v.visit(n.LHS, n.RHS) }

func (v *DFS[T]) VisitTernaryOp(n *TernaryOp) []T { return v.visit(n.Cond, n.Then, n.Else) }

func (v *DFS[T]) VisitFuncCall(n *FuncCall) []T { return v.visit(n.Fn, n.Args) }

func (v *DFS[T]) VisitArrayRef(n *ArrayRef) []T { return v.visit(n.X, n.Index) }

func (v *DFS[T]) VisitStructRef(n *StructRef) []T { return v.visit(n.X, n.Field) }

func (v *DFS[T]) VisitCast(n *Cast) []T { return v.visit(n.To, n.X) }

func (v *DFS[T]) VisitCompoundLiteral(n *CompoundLiteral) []T { return v.visit(n.Type, n.Init) }

func (v *DFS[T]) VisitExprList(n *ExprList) []T { return visitList(v, n.Exprs) }

func (v *DFS[T]) VisitInitList(n *InitList) []T { return visitList(v, n.Exprs) }

func (v *DFS[T]) VisitNamedInitializer(n *NamedInitializer) []T {
	return append(visitList(v, n.Designator), v.visit(n.X)...)
}
