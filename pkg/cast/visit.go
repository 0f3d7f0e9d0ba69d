// Copyright 2017 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package cast

// Visitor has one method per node kind. Adding a node kind without
// extending Visitor (and thus every visitor) does not compile.
// Absent children (nil) are routed to VisitNil.
type Visitor[R any] interface {
	VisitFile(n *File) R
	VisitDecl(n *Decl) R
	VisitDeclList(n *DeclList) R
	VisitTypedef(n *Typedef) R
	VisitFuncDef(n *FuncDef) R
	VisitPragma(n *Pragma) R
	VisitTypeDecl(n *TypeDecl) R
	VisitPtrDecl(n *PtrDecl) R
	VisitArrayDecl(n *ArrayDecl) R
	VisitFuncDecl(n *FuncDecl) R
	VisitParamList(n *ParamList) R
	VisitEllipsisParam(n *EllipsisParam) R
	VisitTypename(n *Typename) R
	VisitIdentifierType(n *IdentifierType) R
	VisitStruct(n *Struct) R
	VisitUnion(n *Union) R
	VisitEnum(n *Enum) R
	VisitEnumeratorList(n *EnumeratorList) R
	VisitEnumerator(n *Enumerator) R
	VisitCompound(n *Compound) R
	VisitExprStmt(n *ExprStmt) R
	VisitEmptyStmt(n *EmptyStmt) R
	VisitIf(n *If) R
	VisitWhile(n *While) R
	VisitDoWhile(n *DoWhile) R
	VisitFor(n *For) R
	VisitSwitch(n *Switch) R
	VisitCase(n *Case) R
	VisitDefault(n *Default) R
	VisitLabel(n *Label) R
	VisitGoto(n *Goto) R
	VisitBreak(n *Break) R
	VisitContinue(n *Continue) R
	VisitReturn(n *Return) R
	VisitIdent(n *Ident) R
	VisitConstant(n *Constant) R
	VisitUnaryOp(n *UnaryOp) R
	VisitBinaryOp(n *BinaryOp) R
	VisitAssignment(n *Assignment) R
	VisitTernaryOp(n *TernaryOp) R
	VisitFuncCall(n *FuncCall) R
	VisitArrayRef(n *ArrayRef) R
	VisitStructRef(n *StructRef) R
	VisitCast(n *Cast) R
	VisitCompoundLiteral(n *CompoundLiteral) R
	VisitExprList(n *ExprList) R
	VisitInitList(n *InitList) R
	VisitNamedInitializer(n *NamedInitializer) R
	VisitNil() R
}

// Visit dispatches n to the matching method of v.
func Visit[R any](v Visitor[R], n Node) R {
	if n == nil {
		return v.VisitNil()
	}
	d := &dispatch[R]{v: v}
	n.accept(d)
	return d.res
}

// Interface methods can't have type parameters, so nodes call into the
// non-generic dispatcher and dispatch[R] forwards to Visitor[R].
type dispatcher interface {
	onFile(n *File)
	onDecl(n *Decl)
	onDeclList(n *DeclList)
	onTypedef(n *Typedef)
	onFuncDef(n *FuncDef)
	onPragma(n *Pragma)
	onTypeDecl(n *TypeDecl)
	onPtrDecl(n *PtrDecl)
	onArrayDecl(n *ArrayDecl)
	onFuncDecl(n *FuncDecl)
	onParamList(n *ParamList)
	onEllipsisParam(n *EllipsisParam)
	onTypename(n *Typename)
	onIdentifierType(n *IdentifierType)
	onStruct(n *Struct)
	onUnion(n *Union)
	onEnum(n *Enum)
	onEnumeratorList(n *EnumeratorList)
	onEnumerator(n *Enumerator)
	onCompound(n *Compound)
	onExprStmt(n *ExprStmt)
	onEmptyStmt(n *EmptyStmt)
	onIf(n *If)
	onWhile(n *While)
	onDoWhile(n *DoWhile)
	onFor(n *For)
	onSwitch(n *Switch)
	onCase(n *Case)
	onDefault(n *Default)
	onLabel(n *Label)
	onGoto(n *Goto)
	onBreak(n *Break)
	onContinue(n *Continue)
	onReturn(n *Return)
	onIdent(n *Ident)
	onConstant(n *Constant)
	onUnaryOp(n *UnaryOp)
	onBinaryOp(n *BinaryOp)
	onAssignment(n *Assignment)
	onTernaryOp(n *TernaryOp)
	onFuncCall(n *FuncCall)
	onArrayRef(n *ArrayRef)
	onStructRef(n *StructRef)
	onCast(n *Cast)
	onCompoundLiteral(n *CompoundLiteral)
	onExprList(n *ExprList)
	onInitList(n *InitList)
	onNamedInitializer(n *NamedInitializer)
}

type dispatch[R any] struct {
	v   Visitor[R]
	res R
}

// call stores f(n), or VisitNil() if n is a typed nil.
func call[R, T any](d *dispatch[R], n *T, f func(*T) R) {
	if n == nil {
		d.res = d.v.VisitNil()
		return
	}
	d.res = f(n)
}

func (d *dispatch[R]) onFile(n *File) { call(d, n, d.v.VisitFile) }
func (d *dispatch[R]) onDecl(n *Decl) { call(d, n, d.v.VisitDecl) }
func (d *dispatch[R]) onDeclList(n *DeclList) { call(d, n, d.v.VisitDeclList) }
func (d *dispatch[R]) onTypedef(n *Typedef) { call(d, n, d.v.VisitTypedef) }
func (d *dispatch[R]) onFuncDef(n *FuncDef) { call(d, n, d.v.VisitFuncDef) }
func (d *dispatch[R]) onPragma(n *Pragma) { call(d, n, d.v.VisitPragma) }
func (d *dispatch[R]) onTypeDecl(n *TypeDecl) { call(d, n, d.v.VisitTypeDecl) }
func (d *dispatch[R]) onPtrDecl(n *PtrDecl) { call(d, n, d.v.VisitPtrDecl) }
func (d *dispatch[R]) onArrayDecl(n *ArrayDecl) { call(d, n, d.v.VisitArrayDecl) }
func (d *dispatch[R]) onFuncDecl(n *FuncDecl) { call(d, n, d.v.VisitFuncDecl) }
func (d *dispatch[R]) onParamList(n *ParamList) { call(d, n, d.v.VisitParamList) }
func (d *dispatch[R]) onEllipsisParam(n *EllipsisParam) { call(d, n, d.v.VisitEllipsisParam) }
func (d *dispatch[R]) onTypename(n *Typename) { call(d, n, d.v.VisitTypename) }
func (d *dispatch[R]) onIdentifierType(n *IdentifierType) { call(d, n, d.v.VisitIdentifierType) }
func (d *dispatch[R]) onStruct(n *Struct) { call(d, n, d.v.VisitStruct) }
func (d *dispatch[R]) onUnion(n *Union) { call(d, n, d.v.VisitUnion) }
func (d *dispatch[R]) onEnum(n *Enum) { call(d, n, d.v.VisitEnum) }
func (d *dispatch[R]) onEnumeratorList(n *EnumeratorList) { call(d, n, d.v.VisitEnumeratorList) }
func (d *dispatch[R]) onEnumerator(n *Enumerator) { call(d, n, d.v.VisitEnumerator) }
func (d *dispatch[R]) onCompound(n *Compound) { call(d, n, d.v.VisitCompound) }
func (d *dispatch[R]) onExprStmt(n *ExprStmt) { call(d, n, d.v.VisitExprStmt) }
func (d *dispatch[R]) onEmptyStmt(n *EmptyStmt) { call(d, n, d.v.VisitEmptyStmt) }
func (d *dispatch[R]) onIf(n *If) { call(d, n, d.v.VisitIf) }
func (d *dispatch[R]) onWhile(n *While) { call(d, n, d.v.VisitWhile) }
func (d *dispatch[R]) onDoWhile(n *DoWhile) { call(d, n, d.v.VisitDoWhile) }
func (d *dispatch[R]) onFor(n *For) { call(d, n, d.v.VisitFor) }
func (d *dispatch[R]) onSwitch(n *Switch) { call(d, n, d.v.VisitSwitch) }
func (d *dispatch[R]) onCase(n *Case) { call(d, n, d.v.VisitCase) }
func (d *dispatch[R]) onDefault(n *Default) { call(d, n, d.v.VisitDefault) }
func (d *dispatch[R]) onLabel(n *Label) { call(d, n, d.v.VisitLabel) }
func (d *dispatch[R]) onGoto(n *Goto) { call(d, n, d.v.VisitGoto) }
func (d *dispatch[R]) onBreak(n *Break) { call(d, n, d.v.VisitBreak) }
func (d *dispatch[R]) onContinue(n *Continue) { call(d, n, d.v.VisitContinue) }
func (d *dispatch[R]) onReturn(n *Return) { call(d, n, d.v.VisitReturn) }
func (d *dispatch[R]) onIdent(n *Ident) { call(d, n, d.v.VisitIdent) }
func (d *dispatch[R]) onConstant(n *Constant) { call(d, n, d.v.VisitConstant) }
func (d *dispatch[R]) onUnaryOp(n *UnaryOp) { call(d, n, d.v.VisitUnaryOp) }
func (d *dispatch[R]) onBinaryOp(n *BinaryOp) { call(d, n, d.v.VisitBinaryOp) }
func (d *dispatch[R]) onAssignment(n *Assignment) { call(d, n, d.v.VisitAssignment) }
func (d *dispatch[R]) onTernaryOp(n *TernaryOp) { call(d, n, d.v.VisitTernaryOp) }
func (d *dispatch[R]) onFuncCall(n *FuncCall) { call(d, n, d.v.VisitFuncCall) }
func (d *dispatch[R]) onArrayRef(n *ArrayRef) { call(d, n, d.v.VisitArrayRef) }
func (d *dispatch[R]) onStructRef(n *StructRef) { call(d, n, d.v.VisitStructRef) }
func (d *dispatch[R]) onCast(n *Cast) { call(d, n, d.v.VisitCast) }
func (d *dispatch[R]) onCompoundLiteral(n *CompoundLiteral) { call(d, n, d.v.VisitCompoundLiteral) }
func (d *dispatch[R]) onExprList(n *ExprList) { call(d, n, d.v.VisitExprList) }
func (d *dispatch[R]) onInitList(n *InitList) { call(d, n, d.v.VisitInitList) }
func (d *dispatch[R]) onNamedInitializer(n *NamedInitializer) { call(d, n, d.v.VisitNamedInitializer) }

func (n *File) accept(d dispatcher) { d.onFile(n) }
func (n *Decl) accept(d dispatcher) { d.onDecl(n) }
func (n *DeclList) accept(d dispatcher) { d.onDeclList(n) }
func (n *Typedef) accept(d dispatcher) { d.onTypedef(n) }
func (n *FuncDef) accept(d dispatcher) { d.onFuncDef(n) }
func (n *Pragma) accept(d dispatcher) { d.onPragma(n) }
func (n *TypeDecl) accept(d dispatcher) { d.onTypeDecl(n) }
func (n *PtrDecl) accept(d dispatcher) { d.onPtrDecl(n) }
func (n *ArrayDecl) accept(d dispatcher) { d.onArrayDecl(n) }
func (n *FuncDecl) accept(d dispatcher) { d.onFuncDecl(n) }
func (n *ParamList) accept(d dispatcher) { d.onParamList(n) }
func (n *EllipsisParam) accept(d dispatcher) { d.onEllipsisParam(n) }
func (n *Typename) accept(d dispatcher) { d.onTypename(n) }
func (n *IdentifierType) accept(d dispatcher) { d.onIdentifierType(n) }
func (n *Struct) accept(d dispatcher) { d.onStruct(n) }
func (n *Union) accept(d dispatcher) { d.onUnion(n) }
func (n *Enum) accept(d dispatcher) { d.onEnum(n) }
func (n *EnumeratorList) accept(d dispatcher) { d.onEnumeratorList(n) }
func (n *Enumerator) accept(d dispatcher) { d.onEnumerator(n) }
func (n *Compound) accept(d dispatcher) { d.onCompound(n) }
func (n *ExprStmt) accept(d dispatcher) { d.onExprStmt(n) }
func (n *EmptyStmt) accept(d dispatcher) { d.onEmptyStmt(n) }
func (n *If) accept(d dispatcher) { d.onIf(n) }
func (n *While) accept(d dispatcher) { d.onWhile(n) }
func (n *DoWhile) accept(d dispatcher) { d.onDoWhile(n) }
func (n *For) accept(d dispatcher) { d.onFor(n) }
func (n *Switch) accept(d dispatcher) { d.onSwitch(n) }
func (n *Case) accept(d dispatcher) { d.onCase(n) }
func (n *Default) accept(d dispatcher) { d.onDefault(n) }
func (n *Label) accept(d dispatcher) { d.onLabel(n) }
func (n *Goto) accept(d dispatcher) { d.onGoto(n) }
func (n *Break) accept(d dispatcher) { d.onBreak(n) }
func (n *Continue) accept(d dispatcher) { d.onContinue(n) }
func (n *Return) accept(d dispatcher) { d.onReturn(n) }
func (n *Ident) accept(d dispatcher) { d.onIdent(n) }
func (n *Constant) accept(d dispatcher) { d.onConstant(n) }
func (n *UnaryOp) accept(d dispatcher) { d.onUnaryOp(n) }
func (n *BinaryOp) accept(d dispatcher) { d.onBinaryOp(n) }
func (n *Assignment) accept(d dispatcher) { d.onAssignment(n) }
func (n *TernaryOp) accept(d dispatcher) { d.onTernaryOp(n) }
func (n *FuncCall) accept(d dispatcher) { d.onFuncCall(n) }
func (n *ArrayRef) accept(d dispatcher) { d.onArrayRef(n) }
func (n *StructRef) accept(d dispatcher) { d.onStructRef(n) }
func (n *Cast) accept(d dispatcher) { d.onCast(n) }
func (n *CompoundLiteral) accept(d dispatcher) { d.onCompoundLiteral(n) }
func (n *ExprList) accept(d dispatcher) { d.onExprList(n) }
func (n *InitList) accept(d dispatcher) { d.onInitList(n) }
func (n *NamedInitializer) accept(d dispatcher) { d.onNamedInitializer(n) }

func (n *File) Info() Pos { return n.Pos }
func (n *Decl) Info() Pos { return n.Pos }
func (n *DeclList) Info() Pos { return n.Pos }
func (n *Typedef) Info() Pos { return n.Pos }
func (n *FuncDef) Info() Pos { return n.Pos }
func (n *Pragma) Info() Pos { return n.Pos }
func (n *TypeDecl) Info() Pos { return n.Pos }
func (n *PtrDecl) Info() Pos { return n.Pos }
func (n *ArrayDecl) Info() Pos { return n.Pos }
func (n *FuncDecl) Info() Pos { return n.Pos }
func (n *ParamList) Info() Pos { return n.Pos }
func (n *EllipsisParam) Info() Pos { return n.Pos }
func (n *Typename) Info() Pos { return n.Pos }
func (n *IdentifierType) Info() Pos { return n.Pos }
func (n *Struct) Info() Pos { return n.Pos }
func (n *Union) Info() Pos { return n.Pos }
func (n *Enum) Info() Pos { return n.Pos }
func (n *EnumeratorList) Info() Pos { return n.Pos }
func (n *Enumerator) Info() Pos { return n.Pos }
func (n *Compound) Info() Pos { return n.Pos }
func (n *ExprStmt) Info() Pos { return n.Pos }
func (n *EmptyStmt) Info() Pos { return n.Pos }
func (n *If) Info() Pos { return n.Pos }
func (n *While) Info() Pos { return n.Pos }
func (n *DoWhile) Info() Pos { return n.Pos }
func (n *For) Info() Pos { return n.Pos }
func (n *Switch) Info() Pos { return n.Pos }
func (n *Case) Info() Pos { return n.Pos }
func (n *Default) Info() Pos { return n.Pos }
func (n *Label) Info() Pos { return n.Pos }
func (n *Goto) Info() Pos { return n.Pos }
func (n *Break) Info() Pos { return n.Pos }
func (n *Continue) Info() Pos { return n.Pos }
func (n *Return) Info() Pos { return n.Pos }
func (n *Ident) Info() Pos { return n.Pos }
func (n *Constant) Info() Pos { return n.Pos }
func (n *UnaryOp) Info() Pos { return n.Pos }
func (n *BinaryOp) Info() Pos { return n.Pos }
func (n *Assignment) Info() Pos { return n.Pos }
func (n *TernaryOp) Info() Pos { return n.Pos }
func (n *FuncCall) Info() Pos { return n.Pos }
func (n *ArrayRef) Info() Pos { return n.Pos }
func (n *StructRef) Info() Pos { return n.Pos }
func (n *Cast) Info() Pos { return n.Pos }
func (n *CompoundLiteral) Info() Pos { return n.Pos }
func (n *ExprList) Info() Pos { return n.Pos }
func (n *InitList) Info() Pos { return n.Pos }
func (n *NamedInitializer) Info() Pos { return n.Pos }
