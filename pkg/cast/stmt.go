// Copyright 2017 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package cast

func (p *parser) parseCompound() *Compound {
	block := &Compound{Pos: p.pos}
	p.consume("{")
	for !p.tryConsume("}") {
		if p.tok == tokEOF {
			p.unexpected(`"}"`)
		}
		block.Items = append(block.Items, p.parseBlockItem()...)
	}
	return block
}

func (p *parser) parseBlockItem() []Stmt {
	if p.isTypeStart() && !p.labelAhead() {
		return p.parseDeclaration(false)
	}
	return []Stmt{p.parseStmt()}
}

// labelAhead says if the current identifier is a label ("name:").
func (p *parser) labelAhead() bool {
	if p.tok != tokIdent {
		return false
	}
	tok, lit := p.peek()
	return tok == tokPunct && lit == ":"
}

func (p *parser) parseStmt() Stmt {
	pos := p.pos
	switch {
	case p.is("{"):
		return p.parseCompound()
	case p.tok == tokPragma:
		pragma := &Pragma{Pos: pos, Text: p.lit}
		p.next()
		return pragma
	case p.tryConsume(";"):
		return &EmptyStmt{Pos: pos}
	case p.labelAhead():
		name, _ := p.ident()
		p.consume(":")
		return &Label{Pos: pos, Name: name, Stmt: p.parseLabeled()}
	case p.tok == tokKeyword:
		if stmt := p.parseKeywordStmt(); stmt != nil {
			return stmt
		}
	}
	x := p.parseExpr()
	p.consume(";")
	return &ExprStmt{Pos: pos, X: x}
}

// parseLabeled parses the statement after a label, "case" or "default".
// A label right before the end of a block labels an empty statement.
func (p *parser) parseLabeled() Stmt {
	if p.is("}") {
		return &EmptyStmt{Pos: p.pos}
	}
	if p.isTypeStart() && !p.labelAhead() {
		// Declarations after labels are accepted by GCC, keep them in a block.
		items := p.parseDeclaration(false)
		return &Compound{Pos: items[0].Info(), Items: items}
	}
	return p.parseStmt()
}

func (p *parser) parseKeywordStmt() Stmt {
	pos := p.pos
	switch p.lit {
	case "if":
		p.next()
		stmt := &If{Pos: pos, Cond: p.parseParenExpr()}
		stmt.Then = p.parseStmt()
		if p.tryKeyword("else") {
			stmt.Else = p.parseStmt()
		}
		return stmt
	case "while":
		p.next()
		stmt := &While{Pos: pos, Cond: p.parseParenExpr()}
		stmt.Body = p.parseStmt()
		return stmt
	case "do":
		p.next()
		stmt := &DoWhile{Pos: pos, Body: p.parseStmt()}
		if !p.tryKeyword("while") {
			p.unexpected(`"while"`)
		}
		stmt.Cond = p.parseParenExpr()
		p.consume(";")
		return stmt
	case "for":
		return p.parseFor()
	case "switch":
		p.next()
		stmt := &Switch{Pos: pos, Cond: p.parseParenExpr()}
		stmt.Body = p.parseStmt()
		return stmt
	case "case":
		p.next()
		stmt := &Case{Pos: pos, X: p.parseConditional()}
		p.consume(":")
		stmt.Stmt = p.parseLabeled()
		return stmt
	case "default":
		p.next()
		p.consume(":")
		return &Default{Pos: pos, Stmt: p.parseLabeled()}
	case "break":
		p.next()
		p.consume(";")
		return &Break{Pos: pos}
	case "continue":
		p.next()
		p.consume(";")
		return &Continue{Pos: pos}
	case "return":
		p.next()
		stmt := &Return{Pos: pos}
		if !p.is(";") {
			stmt.X = p.parseExpr()
		}
		p.consume(";")
		return stmt
	case "goto":
		p.next()
		name, _ := p.ident()
		p.consume(";")
		return &Goto{Pos: pos, Label: name}
	}
	return nil
}

func (p *parser) parseParenExpr() Expr {
	p.consume("(")
	x := p.parseExpr()
	p.consume(")")
	return x
}

func (p *parser) parseFor() Stmt {
	stmt := &For{Pos: p.pos}
	p.next()
	p.consume("(")
	switch {
	case p.tryConsume(";"):
	case p.isTypeStart():
		list := &DeclList{Pos: p.pos}
		for _, item := range p.parseDeclaration(false) {
			decl, ok := item.(*Decl)
			if !ok {
				p.s.Error(item.Info(), "only variable declarations are allowed in for loop headers")
				panic(errSkipDecl)
			}
			list.Decls = append(list.Decls, decl)
		}
		stmt.Init = list
	default:
		stmt.Init = p.parseExpr()
		p.consume(";")
	}
	if !p.is(";") {
		stmt.Cond = p.parseExpr()
	}
	p.consume(";")
	if !p.is(")") {
		stmt.Next = p.parseExpr()
	}
	p.consume(")")
	stmt.Body = p.parseStmt()
	return stmt
}
