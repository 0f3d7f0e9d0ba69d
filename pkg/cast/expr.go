// Copyright 2017 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package cast

var assignOps = map[string]bool{
	"=": true, "*=": true, "/=": true, "%=": true, "+=": true, "-=": true,
	"<<=": true, ">>=": true, "&=": true, "^=": true, "|=": true,
}

// Binary operator precedence, higher binds tighter.
var binaryPrec = map[string]int{
	"||": 1,
	"&&": 2,
	"|":  3,
	"^":  4,
	"&":  5,
	"==": 6, "!=": 6,
	"<": 7, ">": 7, "<=": 7, ">=": 7,
	"<<": 8, ">>": 8,
	"+": 9, "-": 9,
	"*": 10, "/": 10, "%": 10,
}

func (p *parser) parseExpr() Expr {
	x := p.parseAssign()
	if !p.is(",") {
		return x
	}
	list := &ExprList{Pos: x.Info(), Exprs: []Expr{x}}
	for p.tryConsume(",") {
		list.Exprs = append(list.Exprs, p.parseAssign())
	}
	return list
}

func (p *parser) parseAssign() Expr {
	x := p.parseConditional()
	if p.tok == tokPunct && assignOps[p.lit] {
		op := p.lit
		p.next()
		return &Assignment{Pos: x.Info(), Op: op, LHS: x, RHS: p.parseAssign()}
	}
	return x
}

func (p *parser) parseConditional() Expr {
	x := p.parseBinary(1)
	if !p.tryConsume("?") {
		return x
	}
	then := p.parseExpr()
	p.consume(":")
	return &TernaryOp{Pos: x.Info(), Cond: x, Then: then, Else: p.parseConditional()}
}

func (p *parser) parseBinary(minPrec int) Expr {
	x := p.parseCast()
	for p.tok == tokPunct {
		prec := binaryPrec[p.lit]
		if prec == 0 || prec < minPrec {
			break
		}
		op := p.lit
		p.next()
		x = &BinaryOp{Pos: x.Info(), Op: op, X: x, Y: p.parseBinary(prec + 1)}
	}
	return x
}

func (p *parser) parseCast() Expr {
	if !p.is("(") || !p.typeStartAhead() {
		return p.parseUnary()
	}
	pos := p.pos
	p.next()
	typ := p.parseTypename()
	p.consume(")")
	if p.is("{") {
		lit := &CompoundLiteral{Pos: pos, Type: typ, Init: p.parseInitList()}
		return p.parsePostfixOps(lit)
	}
	return &Cast{Pos: pos, To: typ, X: p.parseCast()}
}

func (p *parser) parseUnary() Expr {
	pos := p.pos
	switch {
	case p.is("++") || p.is("--"):
		op := p.lit
		p.next()
		return &UnaryOp{Pos: pos, Op: op, X: p.parseUnary()}
	case p.is("&") || p.is("*") || p.is("+") || p.is("-") || p.is("~") || p.is("!"):
		op := p.lit
		p.next()
		return &UnaryOp{Pos: pos, Op: op, X: p.parseCast()}
	case p.isKeyword("sizeof") || p.isKeyword("_Alignof") || p.isKeyword("__alignof__"):
		op := p.lit
		p.next()
		if p.is("(") && p.typeStartAhead() {
			p.next()
			typ := p.parseTypename()
			p.consume(")")
			if p.is("{") {
				lit := &CompoundLiteral{Pos: typ.Pos, Type: typ, Init: p.parseInitList()}
				return &UnaryOp{Pos: pos, Op: op, X: p.parsePostfixOps(lit)}
			}
			return &UnaryOp{Pos: pos, Op: op, X: typ}
		}
		return &UnaryOp{Pos: pos, Op: op, X: p.parseUnary()}
	}
	return p.parsePostfixOps(p.parsePrimary())
}

func (p *parser) parsePostfixOps(x Expr) Expr {
	for {
		switch {
		case p.tryConsume("["):
			index := p.parseExpr()
			p.consume("]")
			x = &ArrayRef{Pos: x.Info(), X: x, Index: index}
		case p.is("("):
			x = &FuncCall{Pos: x.Info(), Fn: x, Args: p.parseArgs()}
		case p.is(".") || p.is("->"):
			arrow := p.is("->")
			p.next()
			name, pos := p.ident()
			x = &StructRef{Pos: x.Info(), X: x, Arrow: arrow, Field: &Ident{Pos: pos, Name: name}}
		case p.is("++") || p.is("--"):
			x = &UnaryOp{Pos: x.Info(), Op: "p" + p.lit, X: x}
			p.next()
		default:
			return x
		}
	}
}

// parseArgs returns nil for an empty argument list.
func (p *parser) parseArgs() *ExprList {
	p.consume("(")
	if p.tryConsume(")") {
		return nil
	}
	args := &ExprList{Pos: p.pos}
	for {
		args.Exprs = append(args.Exprs, p.parseAssign())
		if !p.tryConsume(",") {
			break
		}
	}
	p.consume(")")
	return args
}

func (p *parser) parsePrimary() Expr {
	pos := p.pos
	switch p.tok {
	case tokIdent:
		name := p.lit
		p.next()
		return &Ident{Pos: pos, Name: name}
	case tokInt, tokFloat, tokChar:
		kind := map[token]ConstKind{tokInt: ConstInt, tokFloat: ConstFloat, tokChar: ConstChar}[p.tok]
		c := &Constant{Pos: pos, Kind: kind, Value: p.lit}
		p.next()
		return c
	case tokString:
		c := &Constant{Pos: pos, Kind: ConstString, Value: p.lit}
		// Adjacent string literals are kept as written.
		for p.next(); p.tok == tokString; p.next() {
			c.Value += " " + p.lit
		}
		return c
	case tokPunct:
		if p.is("(") {
			p.next()
			if p.is("{") {
				p.errorf("statement expressions are not supported")
			}
			x := p.parseExpr()
			p.consume(")")
			return x
		}
	}
	p.unexpected("expression")
	return nil
}
