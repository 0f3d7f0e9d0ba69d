// Copyright 2017 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// Package cast parses, walks, rewrites and formats C translation units.
// The node set mirrors the usual C front-end split into declarations,
// statements, expressions and declarator chains.
package cast

// Pos represents source info for AST nodes.
type Pos struct {
	File string
	Off  int // byte offset, starting at 0
	Line int // line number, starting at 1
	Col  int // column number, starting at 1 (byte count)
}

// Node is implemented by every AST node kind.
// The set of kinds is closed: see Visitor.
type Node interface {
	Info() Pos
	accept(d dispatcher)
}

// Expr is a node that can appear in expression position.
type Expr interface {
	Node
	exprNode()
}

// Stmt is a node that can appear in a statement list (block items and top-level items).
type Stmt interface {
	Node
	stmtNode()
}

// Type is a node of a declarator chain or a base type.
// A chain is a sequence of PtrDecl/ArrayDecl/FuncDecl ending in TypeDecl,
// and TypeDecl refers to a base type (IdentifierType, Struct, Union or Enum).
// Every type kind spells itself, so a new kind without a spelling does not compile.
type Type interface {
	Node
	// spell returns the declaration of inner with this type,
	// inner is empty for abstract types.
	spell(f *formatter, inner string) string
}

// Top-level and declaration nodes:

type File struct {
	Pos   Pos
	Items []Stmt
}

type Decl struct {
	Pos      Pos
	Name     string
	Quals    []string
	Storage  []string
	FuncSpec []string
	Type     Type
	Init     Expr // nil, expression or *InitList
	Bitsize  Expr
}

// DeclList is used for declarations in for loop headers.
type DeclList struct {
	Pos   Pos
	Decls []*Decl
}

type Typedef struct {
	Pos     Pos
	Name    string
	Quals   []string
	Storage []string
	Type    Type
}

type FuncDef struct {
	Pos  Pos
	Decl *Decl
	Body *Compound
}

type Pragma struct {
	Pos  Pos
	Text string
}

// Declarator chain nodes:

type TypeDecl struct {
	Pos      Pos
	DeclName string
	Quals    []string
	Type     Type
}

type PtrDecl struct {
	Pos   Pos
	Quals []string
	Type  Type
}

type ArrayDecl struct {
	Pos      Pos
	Type     Type
	Dim      Expr
	DimQuals []string
}

type FuncDecl struct {
	Pos    Pos
	Params *ParamList // nil for "f()"
	Type   Type
}

type ParamList struct {
	Pos    Pos
	Params []Node // *Decl, *Typename or *EllipsisParam
}

type EllipsisParam struct {
	Pos Pos
}

// Typename is an abstract type as used in casts, sizeof and unnamed parameters.
type Typename struct {
	Pos   Pos
	Quals []string
	Type  Type
}

// Base types:

type IdentifierType struct {
	Pos   Pos
	Names []string
}

type Struct struct {
	Pos   Pos
	Name  string
	Decls []*Decl // nil means the struct is only referenced, not defined
}

type Union struct {
	Pos   Pos
	Name  string
	Decls []*Decl
}

type Enum struct {
	Pos    Pos
	Name   string
	Values *EnumeratorList
}

type EnumeratorList struct {
	Pos         Pos
	Enumerators []*Enumerator
}

type Enumerator struct {
	Pos   Pos
	Name  string
	Value Expr
}

// Statements:

type Compound struct {
	Pos   Pos
	Items []Stmt
}

type ExprStmt struct {
	Pos Pos
	X   Expr
}

type EmptyStmt struct {
	Pos Pos
}

type If struct {
	Pos  Pos
	Cond Expr
	Then Stmt
	Else Stmt
}

type While struct {
	Pos  Pos
	Cond Expr
	Body Stmt
}

type DoWhile struct {
	Pos  Pos
	Cond Expr
	Body Stmt
}

type For struct {
	Pos  Pos
	Init Node // nil, *DeclList or Expr
	Cond Expr
	Next Expr
	Body Stmt
}

type Switch struct {
	Pos  Pos
	Cond Expr
	Body Stmt
}

type Case struct {
	Pos  Pos
	X    Expr
	Stmt Stmt
}

type Default struct {
	Pos  Pos
	Stmt Stmt
}

type Label struct {
	Pos  Pos
	Name string
	Stmt Stmt
}

type Goto struct {
	Pos   Pos
	Label string
}

type Break struct {
	Pos Pos
}

type Continue struct {
	Pos Pos
}

type Return struct {
	Pos Pos
	X   Expr
}

// Expressions:

type Ident struct {
	Pos  Pos
	Name string
}

type ConstKind int

const (
	ConstInt ConstKind = iota
	ConstFloat
	ConstChar
	ConstString
)

type Constant struct {
	Pos   Pos
	Kind  ConstKind
	Value string // literal spelling, including quotes and suffixes
}

type UnaryOp struct {
	Pos Pos
	// Op is one of "&", "*", "+", "-", "~", "!", "++", "--", "p++", "p--", "sizeof".
	// For sizeof of a type X is a *Typename.
	Op string
	X  Expr
}

type BinaryOp struct {
	Pos Pos
	Op  string
	X   Expr
	Y   Expr
}

type Assignment struct {
	Pos Pos
	Op  string
	LHS Expr
	RHS Expr
}

type TernaryOp struct {
	Pos  Pos
	Cond Expr
	Then Expr
	Else Expr
}

type FuncCall struct {
	Pos  Pos
	Fn   Expr
	Args *ExprList // nil for "f()"
}

type ArrayRef struct {
	Pos   Pos
	X     Expr
	Index Expr
}

type StructRef struct {
	Pos   Pos
	X     Expr
	Arrow bool
	Field *Ident
}

type Cast struct {
	Pos Pos
	To  *Typename
	X   Expr
}

type CompoundLiteral struct {
	Pos  Pos
	Type *Typename
	Init *InitList
}

// ExprList is both an argument list and a comma expression.
type ExprList struct {
	Pos   Pos
	Exprs []Expr
}

type InitList struct {
	Pos   Pos
	Exprs []Expr
}

// NamedInitializer is a designated initializer: ".a.b[2] = x".
// Designators are *Ident for fields and any other expression for indexes.
type NamedInitializer struct {
	Pos        Pos
	Designator []Expr
	Fields     []bool // Fields[i] is set if Designator[i] is a field name
	X          Expr
}

func (*Decl) stmtNode()      {}
func (*DeclList) stmtNode()  {}
func (*Typedef) stmtNode()   {}
func (*FuncDef) stmtNode()   {}
func (*Pragma) stmtNode()    {}
func (*Compound) stmtNode()  {}
func (*ExprStmt) stmtNode()  {}
func (*EmptyStmt) stmtNode() {}
func (*If) stmtNode()        {}
func (*While) stmtNode()     {}
func (*DoWhile) stmtNode()   {}
func (*For) stmtNode()       {}
func (*Switch) stmtNode()    {}
func (*Case) stmtNode()      {}
func (*Default) stmtNode()   {}
func (*Label) stmtNode()     {}
func (*Goto) stmtNode()      {}
func (*Break) stmtNode()     {}
func (*Continue) stmtNode()  {}
func (*Return) stmtNode()    {}

func (*Ident) exprNode()            {}
func (*Constant) exprNode()         {}
func (*UnaryOp) exprNode()          {}
func (*BinaryOp) exprNode()         {}
func (*Assignment) exprNode()       {}
func (*TernaryOp) exprNode()        {}
func (*FuncCall) exprNode()         {}
func (*ArrayRef) exprNode()         {}
func (*StructRef) exprNode()        {}
func (*Cast) exprNode()             {}
func (*CompoundLiteral) exprNode()  {}
func (*ExprList) exprNode()         {}
func (*InitList) exprNode()         {}
func (*NamedInitializer) exprNode() {}
func (*Typename) exprNode()         {}
