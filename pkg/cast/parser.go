// Copyright 2017 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package cast

import (
	"errors"
	"fmt"
	"os"
)

// Parse parses a C translation unit.
// The input is expected to be preprocessed and to have gone through Prepare.
// If any errors are encountered, returns nil.
func Parse(data []byte, filename string, errorHandler ErrorHandler) *File {
	p := &parser{
		s:        newScanner(data, filename, errorHandler),
		typedefs: make(map[string]bool),
		oldStyle: make(map[*ParamList]bool),
	}
	file := &File{Pos: Pos{File: filename, Line: 1, Col: 1}}
	for p.next(); p.tok != tokEOF && p.s.errors < maxErrors; {
		file.Items = append(file.Items, p.parseExternalRecover()...)
	}
	if !p.s.Ok() {
		return nil
	}
	return file
}

// Error is a syntax error.
type Error struct {
	Pos Pos
	Msg string
}

func (err *Error) Error() string {
	return fmt.Sprintf("%v: %v", err.Pos, err.Msg)
}

// ParseSource prepares and parses data. The first syntax error is returned.
func ParseSource(data []byte, filename string) (*File, error) {
	var errs []error
	file := Parse(Prepare(data), filename, func(pos Pos, msg string) {
		errs = append(errs, &Error{Pos: pos, Msg: msg})
	})
	if file == nil {
		if len(errs) == 0 {
			return nil, fmt.Errorf("failed to parse %v", filename)
		}
		return nil, errs[0]
	}
	return file, nil
}

// ParseFile reads, prepares and parses the given file.
func ParseFile(filename string) (*File, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read input file: %w", err)
	}
	return ParseSource(data, filename)
}

const maxErrors = 10

type parser struct {
	s *scanner

	// Current token:
	tok token
	lit string
	pos Pos

	ahead    []lookahead
	typedefs map[string]bool
	// oldStyle holds identifier lists of old-style definitions,
	// their types come from the declarations before the body.
	oldStyle map[*ParamList]bool
}

type lookahead struct {
	tok token
	lit string
	pos Pos
}

// Skip parsing till the end of the current declaration, for error recovery.
var errSkipDecl = errors.New("")

func (p *parser) parseExternalRecover() (items []Stmt) {
	defer func() {
		switch err := recover(); err {
		case nil:
		case errSkipDecl:
			// Try to recover by consuming everything until the end of the declaration.
			depth := 0
			for p.tok != tokEOF {
				switch {
				case p.is("{"):
					depth++
				case p.is("}"):
					depth--
					if depth <= 0 {
						p.next()
						return
					}
				case p.is(";") && depth == 0:
					p.next()
					return
				}
				p.next()
			}
		default:
			panic(err)
		}
	}()
	return p.parseExternal()
}

func (p *parser) parseExternal() []Stmt {
	switch {
	case p.tok == tokPragma:
		pragma := &Pragma{Pos: p.pos, Text: p.lit}
		p.next()
		return []Stmt{pragma}
	case p.tryConsume(";"):
		return nil
	}
	return p.parseDeclaration(true)
}

func (p *parser) next() {
	if len(p.ahead) != 0 {
		p.tok, p.lit, p.pos = p.ahead[0].tok, p.ahead[0].lit, p.ahead[0].pos
		p.ahead = p.ahead[1:]
		return
	}
	p.tok, p.lit, p.pos = p.s.Scan()
}

// peek returns the token after the current one.
func (p *parser) peek() (token, string) {
	if len(p.ahead) == 0 {
		tok, lit, pos := p.s.Scan()
		p.ahead = append(p.ahead, lookahead{tok, lit, pos})
	}
	return p.ahead[0].tok, p.ahead[0].lit
}

func (p *parser) is(punct string) bool {
	return p.tok == tokPunct && p.lit == punct
}

func (p *parser) isKeyword(kw string) bool {
	return p.tok == tokKeyword && p.lit == kw
}

func (p *parser) tryConsume(punct string) bool {
	if !p.is(punct) {
		return false
	}
	p.next()
	return true
}

func (p *parser) consume(punct string) {
	if !p.is(punct) {
		p.unexpected(fmt.Sprintf("%q", punct))
	}
	p.next()
}

func (p *parser) tryKeyword(kw string) bool {
	if !p.isKeyword(kw) {
		return false
	}
	p.next()
	return true
}

func (p *parser) ident() (string, Pos) {
	if p.tok != tokIdent {
		p.unexpected(tokIdent.String())
	}
	name, pos := p.lit, p.pos
	p.next()
	return name, pos
}

func (p *parser) unexpected(expected string) {
	found := p.tok.String()
	if p.tok != tokEOF {
		found = fmt.Sprintf("%q", p.lit)
	}
	p.errorf("unexpected %v, expecting %v", found, expected)
}

func (p *parser) errorf(msg string, args ...any) {
	p.s.Error(p.pos, msg, args...)
	panic(errSkipDecl)
}

var (
	storageClasses = map[string]bool{
		"typedef": true, "extern": true, "static": true, "auto": true, "register": true,
		"_Thread_local": true,
	}
	typeQualifiers = map[string]bool{
		"const": true, "volatile": true, "restrict": true, "_Atomic": true,
	}
	funcSpecifiers = map[string]bool{
		"inline": true, "_Noreturn": true,
	}
	typeSpecifiers = map[string]bool{
		"void": true, "char": true, "short": true, "int": true, "long": true, "float": true,
		"double": true, "signed": true, "unsigned": true, "_Bool": true, "_Complex": true,
	}
	// Identifiers that act as type specifiers in GNU code.
	gnuTypeSpecifiers = map[string]bool{
		"__int128": true, "_Float128": true, "__float128": true,
	}
)

// isTypeStart says if the current token can start declaration specifiers.
func (p *parser) isTypeStart() bool {
	return p.typeStart(p.tok, p.lit)
}

func (p *parser) typeStart(tok token, lit string) bool {
	switch tok {
	case tokKeyword:
		return storageClasses[lit] || typeQualifiers[lit] || funcSpecifiers[lit] ||
			typeSpecifiers[lit] || lit == "struct" || lit == "union" || lit == "enum"
	case tokIdent:
		return p.typedefs[lit] || gnuTypeSpecifiers[lit]
	}
	return false
}

// typeStartAhead says if the token after the current one starts a type name.
func (p *parser) typeStartAhead() bool {
	tok, lit := p.peek()
	return p.typeStart(tok, lit)
}

// specs are declaration specifiers.
type specs struct {
	pos      Pos
	storage  []string
	quals    []string
	funcSpec []string
	typ      Type // *IdentifierType, *Struct, *Union or *Enum
}

func (sp *specs) isTypedef() bool {
	for _, s := range sp.storage {
		if s == "typedef" {
			return true
		}
	}
	return false
}

func (p *parser) parseSpecs() *specs {
	sp := &specs{pos: p.pos}
	var names []string
loop:
	for {
		switch {
		case p.tok == tokKeyword && storageClasses[p.lit]:
			sp.storage = append(sp.storage, p.lit)
		case p.tok == tokKeyword && typeQualifiers[p.lit]:
			sp.quals = append(sp.quals, p.lit)
		case p.tok == tokKeyword && funcSpecifiers[p.lit]:
			sp.funcSpec = append(sp.funcSpec, p.lit)
		case p.tok == tokKeyword && typeSpecifiers[p.lit],
			p.tok == tokIdent && gnuTypeSpecifiers[p.lit]:
			names = append(names, p.lit)
		case p.isKeyword("struct") || p.isKeyword("union"):
			if sp.typ != nil || len(names) != 0 {
				p.errorf("two or more data types in declaration specifiers")
			}
			sp.typ = p.parseStructOrUnion()
			continue
		case p.isKeyword("enum"):
			if sp.typ != nil || len(names) != 0 {
				p.errorf("two or more data types in declaration specifiers")
			}
			sp.typ = p.parseEnum()
			continue
		case p.tok == tokIdent && p.typedefs[p.lit] && sp.typ == nil && len(names) == 0:
			names = append(names, p.lit)
			p.next()
			sp.typ = &IdentifierType{Pos: sp.pos, Names: names}
			continue
		default:
			break loop
		}
		p.next()
	}
	if sp.typ == nil {
		if len(names) == 0 {
			if len(sp.storage) == 0 && len(sp.quals) == 0 && len(sp.funcSpec) == 0 {
				p.unexpected("type specifier")
			}
			// Implicit int.
			names = []string{"int"}
		}
		sp.typ = &IdentifierType{Pos: sp.pos, Names: names}
	} else if len(names) > 1 || len(names) == 1 && !p.typedefs[names[0]] {
		p.errorf("two or more data types in declaration specifiers")
	}
	return sp
}

func (p *parser) parseStructOrUnion() Type {
	pos, kind := p.pos, p.lit
	p.next()
	name := ""
	if p.tok == tokIdent {
		name = p.lit
		p.next()
	}
	var decls []*Decl
	if p.tryConsume("{") {
		decls = []*Decl{}
		for !p.tryConsume("}") {
			if p.tryConsume(";") {
				continue
			}
			if p.tok == tokPragma {
				p.next()
				continue
			}
			decls = append(decls, p.parseMembers()...)
		}
	}
	if kind == "union" {
		return &Union{Pos: pos, Name: name, Decls: decls}
	}
	return &Struct{Pos: pos, Name: name, Decls: decls}
}

func (p *parser) parseMembers() []*Decl {
	sp := p.parseSpecs()
	if p.tryConsume(";") {
		// Anonymous struct/union member.
		return []*Decl{{Pos: sp.pos, Quals: sp.quals, Type: sp.typ}}
	}
	var decls []*Decl
	for {
		d := &declarator{pos: p.pos}
		if !p.is(":") {
			d = p.parseDeclarator(false)
		}
		name, pos := d.ident()
		decl := &Decl{
			Pos:   pos,
			Name:  name,
			Quals: sp.quals,
			Type:  d.build(sp.typ, sp.quals),
		}
		if p.tryConsume(":") {
			decl.Bitsize = p.parseConditional()
		}
		decls = append(decls, decl)
		if !p.tryConsume(",") {
			break
		}
	}
	p.consume(";")
	return decls
}

func (p *parser) parseEnum() Type {
	enum := &Enum{Pos: p.pos}
	p.next()
	if p.tok == tokIdent {
		enum.Name = p.lit
		p.next()
	}
	if !p.is("{") {
		return enum
	}
	enum.Values = &EnumeratorList{Pos: p.pos}
	p.next()
	for !p.tryConsume("}") {
		name, pos := p.ident()
		e := &Enumerator{Pos: pos, Name: name}
		if p.tryConsume("=") {
			e.Value = p.parseConditional()
		}
		enum.Values.Enumerators = append(enum.Values.Enumerators, e)
		if !p.tryConsume(",") {
			p.consume("}")
			break
		}
	}
	return enum
}

// declarator is a parsed, not yet applied declarator:
// pointers bind weaker than array/function suffixes, and a parenthesized
// inner declarator applies last.
type declarator struct {
	name     string
	pos      Pos
	ptrs     [][]string // qualifiers of each '*', left to right
	suffixes []Type     // *ArrayDecl and *FuncDecl with Type unset, left to right
	inner    *declarator
}

func (d *declarator) ident() (string, Pos) {
	if d.inner != nil {
		return d.inner.ident()
	}
	return d.name, d.pos
}

// build applies the declarator to the base type.
func (d *declarator) build(base Type, quals []string) Type {
	name, pos := d.ident()
	return d.wrap(&TypeDecl{Pos: pos, DeclName: name, Quals: quals, Type: base})
}

func (d *declarator) wrap(t Type) Type {
	for _, quals := range d.ptrs {
		t = &PtrDecl{Pos: d.pos, Quals: quals, Type: t}
	}
	for i := len(d.suffixes) - 1; i >= 0; i-- {
		switch s := d.suffixes[i].(type) {
		case *ArrayDecl:
			s.Type = t
		case *FuncDecl:
			s.Type = t
		}
		t = d.suffixes[i]
	}
	if d.inner != nil {
		t = d.inner.wrap(t)
	}
	return t
}

func (p *parser) parseDeclarator(abstract bool) *declarator {
	d := &declarator{pos: p.pos}
	for p.tryConsume("*") {
		var quals []string
		for p.tok == tokKeyword && typeQualifiers[p.lit] {
			quals = append(quals, p.lit)
			p.next()
		}
		d.ptrs = append(d.ptrs, quals)
	}
	switch {
	case p.tok == tokIdent:
		d.name, d.pos = p.lit, p.pos
		p.next()
	case p.is("(") && p.nestedDeclaratorAhead():
		p.next()
		d.inner = p.parseDeclarator(abstract)
		p.consume(")")
	case !abstract:
		p.unexpected(tokIdent.String())
	}
	for {
		switch {
		case p.is("["):
			d.suffixes = append(d.suffixes, p.parseArraySuffix())
		case p.is("("):
			pos := p.pos
			d.suffixes = append(d.suffixes, &FuncDecl{Pos: pos, Params: p.parseParams()})
		default:
			return d
		}
	}
}

// nestedDeclaratorAhead distinguishes "(*f)" from a parameter list.
func (p *parser) nestedDeclaratorAhead() bool {
	tok, lit := p.peek()
	if tok == tokPunct && lit == ")" {
		return false
	}
	return !p.typeStart(tok, lit)
}

func (p *parser) parseArraySuffix() *ArrayDecl {
	arr := &ArrayDecl{Pos: p.pos}
	p.consume("[")
	for p.tok == tokKeyword && (typeQualifiers[p.lit] || p.lit == "static") {
		arr.DimQuals = append(arr.DimQuals, p.lit)
		p.next()
	}
	switch {
	case p.is("]"):
	case p.is("*"):
		if tok, lit := p.peek(); tok == tokPunct && lit == "]" {
			arr.Dim = &Ident{Pos: p.pos, Name: "*"}
			p.next()
			break
		}
		arr.Dim = p.parseAssign()
	default:
		arr.Dim = p.parseAssign()
	}
	p.consume("]")
	return arr
}

// parseParams returns nil for an empty list "()".
func (p *parser) parseParams() *ParamList {
	params := &ParamList{Pos: p.pos}
	p.consume("(")
	if p.tryConsume(")") {
		return nil
	}
	for {
		if p.is("...") {
			params.Params = append(params.Params, &EllipsisParam{Pos: p.pos})
			p.next()
			break
		}
		if p.tok == tokIdent && !p.isTypeStart() {
			p.parseIdentList(params)
			break
		}
		sp := p.parseSpecs()
		d := p.parseDeclarator(true)
		name, pos := d.ident()
		if name == "" {
			pos = sp.pos
		}
		typ := d.build(sp.typ, sp.quals)
		if name != "" {
			params.Params = append(params.Params, &Decl{
				Pos:     pos,
				Name:    name,
				Quals:   sp.quals,
				Storage: sp.storage,
				Type:    typ,
			})
		} else {
			params.Params = append(params.Params, &Typename{
				Pos:   pos,
				Quals: sp.quals,
				Type:  typ,
			})
		}
		if !p.tryConsume(",") {
			break
		}
	}
	p.consume(")")
	return params
}

// parseIdentList parses the identifier list of an old-style definition "f(a, b)".
// Parameters are int until the declarations before the body say otherwise.
func (p *parser) parseIdentList(params *ParamList) {
	p.oldStyle[params] = true
	for {
		name, pos := p.ident()
		params.Params = append(params.Params, &Decl{
			Pos:  pos,
			Name: name,
			Type: &TypeDecl{Pos: pos, DeclName: name, Type: &IdentifierType{Pos: pos, Names: []string{"int"}}},
		})
		if !p.tryConsume(",") {
			return
		}
	}
}

// parseParamDecls parses the parameter declarations of an old-style definition
// and replaces the types of the matching parameters.
func (p *parser) parseParamDecls(params *ParamList) {
	byName := make(map[string]*Decl)
	for _, param := range params.Params {
		d := param.(*Decl)
		byName[d.Name] = d
	}
	for !p.is("{") && p.tok != tokEOF {
		for _, s := range p.parseDeclaration(false) {
			d, ok := s.(*Decl)
			if !ok || byName[d.Name] == nil || d.Init != nil {
				p.s.Error(s.Info(), "bad declaration of parameter %q", DeclName(s))
				panic(errSkipDecl)
			}
			*byName[d.Name] = *d
		}
	}
}

func (p *parser) parseTypename() *Typename {
	sp := p.parseSpecs()
	d := p.parseDeclarator(true)
	if name, _ := d.ident(); name != "" {
		p.s.Error(d.pos, "unexpected name %q in type name", name)
		panic(errSkipDecl)
	}
	return &Typename{
		Pos:   sp.pos,
		Quals: sp.quals,
		Type:  d.build(sp.typ, sp.quals),
	}
}

// parseDeclaration parses a declaration, and at the top level also function definitions.
func (p *parser) parseDeclaration(top bool) []Stmt {
	sp := p.parseSpecs()
	storage := without(sp.storage, "typedef")
	if p.tryConsume(";") {
		// Declaration of a struct/union/enum tag.
		return []Stmt{&Decl{
			Pos:      sp.pos,
			Quals:    sp.quals,
			Storage:  storage,
			FuncSpec: sp.funcSpec,
			Type:     sp.typ,
		}}
	}
	var res []Stmt
	for {
		d := p.parseDeclarator(false)
		name, pos := d.ident()
		typ := d.build(sp.typ, sp.quals)
		if sp.isTypedef() {
			p.typedefs[name] = true
			res = append(res, &Typedef{
				Pos:     pos,
				Name:    name,
				Quals:   sp.quals,
				Storage: storage,
				Type:    typ,
			})
		} else {
			decl := &Decl{
				Pos:      pos,
				Name:     name,
				Quals:    sp.quals,
				Storage:  storage,
				FuncSpec: sp.funcSpec,
				Type:     typ,
			}
			if fn, isFunc := typ.(*FuncDecl); isFunc && top && len(res) == 0 &&
				fn.Params != nil && p.oldStyle[fn.Params] && !p.is(";") && !p.is(",") {
				p.parseParamDecls(fn.Params)
			}
			if _, isFunc := typ.(*FuncDecl); isFunc && top && len(res) == 0 && p.is("{") {
				return []Stmt{&FuncDef{
					Pos:  sp.pos,
					Decl: decl,
					Body: p.parseCompound(),
				}}
			}
			if p.tryConsume("=") {
				decl.Init = p.parseInitializer()
			}
			res = append(res, decl)
		}
		if !p.tryConsume(",") {
			break
		}
	}
	p.consume(";")
	return res
}

func without(list []string, drop string) []string {
	var res []string
	for _, s := range list {
		if s != drop {
			res = append(res, s)
		}
	}
	return res
}

func (p *parser) parseInitializer() Expr {
	if p.is("{") {
		return p.parseInitList()
	}
	return p.parseAssign()
}

func (p *parser) parseInitList() *InitList {
	list := &InitList{Pos: p.pos}
	p.consume("{")
	for !p.tryConsume("}") {
		if p.is(".") || p.is("[") {
			list.Exprs = append(list.Exprs, p.parseNamedInitializer())
		} else {
			list.Exprs = append(list.Exprs, p.parseInitializer())
		}
		if !p.tryConsume(",") {
			p.consume("}")
			break
		}
	}
	return list
}

func (p *parser) parseNamedInitializer() *NamedInitializer {
	init := &NamedInitializer{Pos: p.pos}
	for {
		if p.tryConsume(".") {
			name, pos := p.ident()
			init.Designator = append(init.Designator, &Ident{Pos: pos, Name: name})
			init.Fields = append(init.Fields, true)
		} else if p.tryConsume("[") {
			init.Designator = append(init.Designator, p.parseConditional())
			init.Fields = append(init.Fields, false)
			p.consume("]")
		} else {
			break
		}
	}
	p.consume("=")
	init.X = p.parseInitializer()
	return init
}
