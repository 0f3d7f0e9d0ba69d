// Copyright 2017 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package cast

import (
	"fmt"
	"strings"
)

// TypeString returns the canonical spelling of t as an abstract type,
// e.g. "unsigned int *", "int (*)(int)" or "struct foo".
// Parameters are spelled without names.
func TypeString(t Type) string {
	return t.spell(&formatter{abstract: true}, "")
}

// DeclString returns the declaration of name with type t, e.g. "int (*name)(int)".
func DeclString(t Type, name string) string {
	return t.spell(&formatter{}, name)
}

// DeclType is TypeString of a declaration; "static" storage moves to the front.
func DeclType(d *Decl) string {
	typ := TypeString(d.Type)
	for _, s := range d.Storage {
		if s == "static" {
			return "static " + typ
		}
	}
	return typ
}

// ParamTypes returns the type spellings of the parameters of f.
// "f(void)" and "f()" both have no parameters.
func ParamTypes(f *FuncDecl) []string {
	if f.Params == nil {
		return nil
	}
	var res []string
	for _, p := range f.Params.Params {
		switch p := p.(type) {
		case *Decl:
			res = append(res, TypeString(p.Type))
		case *Typename:
			res = append(res, TypeString(p.Type))
		case *EllipsisParam:
			res = append(res, "...")
		}
	}
	if len(res) == 1 && res[0] == "void" {
		return nil
	}
	return res
}

// Declare declares name with a type spelled by TypeString.
func Declare(typ, name string) string {
	switch {
	case strings.Contains(typ, "(*)"):
		return strings.Replace(typ, "(*)", "(*"+name+")", 1)
	case strings.HasSuffix(typ, "*"):
		return typ + name
	case strings.Contains(typ, "["):
		i := strings.Index(typ, "[")
		head := strings.TrimRight(typ[:i], " ")
		if strings.HasSuffix(head, "*") {
			return head + name + typ[i:]
		}
		return head + " " + name + typ[i:]
	}
	return typ + " " + name
}

// DeclName returns the name declared or referenced by n.
func DeclName(n Node) string {
	switch n := n.(type) {
	case *FuncCall:
		return DeclName(n.Fn)
	case *Ident:
		return n.Name
	case *Decl:
		return n.Name
	case *FuncDef:
		return n.Decl.Name
	case *Typedef:
		return n.Name
	case *TypeDecl:
		return n.DeclName
	case *PtrDecl:
		return DeclName(n.Type)
	case *ArrayDecl:
		return DeclName(n.Type)
	case *FuncDecl:
		return DeclName(n.Type)
	case *Struct:
		return n.Name
	case *Union:
		return n.Name
	case *Enum:
		return n.Name
	case *Typename, *Constant, *StructRef, *ArrayRef, *UnaryOp, *Cast:
		// Calls through function pointers and the like have no name.
		return ""
	}
	panic(fmt.Sprintf("unhandled node: %#v", n))
}

// WithName returns a copy of the declarator chain t declaring name instead.
func WithName(t Type, name string) Type {
	t = Clone(t).(Type)
	for cur := t; ; {
		switch n := cur.(type) {
		case *TypeDecl:
			n.DeclName = name
			// Named aggregates are referenced, not defined again.
			switch base := n.Type.(type) {
			case *Struct:
				if base.Name != "" {
					base.Decls = nil
				}
			case *Union:
				if base.Name != "" {
					base.Decls = nil
				}
			case *Enum:
				if base.Name != "" {
					base.Values = nil
				}
			}
			return t
		case *PtrDecl:
			cur = n.Type
		case *ArrayDecl:
			cur = n.Type
		case *FuncDecl:
			cur = n.Type
		default:
			return t
		}
	}
}

func pad(inner string) string {
	if inner == "" {
		return ""
	}
	return " " + inner
}

func (n *TypeDecl) spell(f *formatter, inner string) string {
	s := n.Type.spell(f, inner)
	if len(n.Quals) != 0 {
		s = strings.Join(n.Quals, " ") + " " + s
	}
	return s
}

func (n *PtrDecl) spell(f *formatter, inner string) string {
	s := "*"
	if len(n.Quals) != 0 {
		s += strings.Join(n.Quals, " ")
		if inner != "" {
			s += " "
		}
	}
	s += inner
	switch n.Type.(type) {
	case *ArrayDecl, *FuncDecl:
		s = "(" + s + ")"
	}
	return n.Type.spell(f, s)
}

func (n *ArrayDecl) spell(f *formatter, inner string) string {
	dim := strings.Join(n.DimQuals, " ")
	if n.Dim != nil {
		dim += pad(f.expr(n.Dim, precAssign))
		dim = strings.TrimPrefix(dim, " ")
	}
	if inner == "" {
		return n.Type.spell(f, "["+dim+"]")
	}
	return n.Type.spell(f, inner+"["+dim+"]")
}

func (n *FuncDecl) spell(f *formatter, inner string) string {
	return n.Type.spell(f, inner+"("+f.params(n.Params)+")")
}

func (n *IdentifierType) spell(f *formatter, inner string) string {
	return strings.Join(n.Names, " ") + pad(inner)
}

func (n *Struct) spell(f *formatter, inner string) string {
	return f.aggregate("struct", n.Name, n.Decls) + pad(inner)
}

func (n *Union) spell(f *formatter, inner string) string {
	return f.aggregate("union", n.Name, n.Decls) + pad(inner)
}

func (n *Enum) spell(f *formatter, inner string) string {
	s := "enum"
	if n.Name != "" {
		s += " " + n.Name
	}
	if n.Values == nil || !f.bodies && n.Name != "" {
		return s + pad(inner)
	}
	var values []string
	for _, e := range n.Values.Enumerators {
		values = append(values, Visit[string](f, e))
	}
	if !f.bodies {
		return s + " {" + strings.Join(values, ", ") + "}" + pad(inner)
	}
	f.level++
	s += " {\n" + f.indent() + strings.Join(values, ",\n"+f.indent()) + "\n"
	f.level--
	return s + f.indent() + "}" + pad(inner)
}

func (f *formatter) aggregate(kind, name string, decls []*Decl) string {
	s := kind
	if name != "" {
		s += " " + name
	}
	if decls == nil || !f.bodies && name != "" {
		return s
	}
	if !f.bodies {
		s += " {"
		for _, d := range decls {
			s += " " + f.declText(d) + ";"
		}
		return s + " }"
	}
	s += " {\n"
	f.level++
	for _, d := range decls {
		s += f.indent() + f.declText(d) + ";\n"
	}
	f.level--
	return s + f.indent() + "}"
}

func (f *formatter) params(list *ParamList) string {
	if list == nil {
		return ""
	}
	var params []string
	for _, p := range list.Params {
		switch p := p.(type) {
		case *Decl:
			if f.abstract {
				params = append(params, p.Type.spell(f, ""))
			} else {
				params = append(params, f.declText(p))
			}
		case *Typename:
			params = append(params, p.Type.spell(f, ""))
		case *EllipsisParam:
			params = append(params, "...")
		default:
			panic(fmt.Sprintf("unexpected parameter: %#v", p))
		}
	}
	return strings.Join(params, ", ")
}
