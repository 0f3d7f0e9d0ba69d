// Copyright 2017 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package cast

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

type token int

const (
	tokIllegal token = iota
	tokIdent
	tokKeyword
	tokInt
	tokFloat
	tokChar
	tokString
	tokPunct
	tokPragma
	tokEOF
)

var tok2str = [...]string{
	tokIllegal: "ILLEGAL",
	tokIdent:   "identifier",
	tokKeyword: "keyword",
	tokInt:     "integer constant",
	tokFloat:   "floating constant",
	tokChar:    "character constant",
	tokString:  "string literal",
	tokPunct:   "punctuation",
	tokPragma:  "pragma",
	tokEOF:     "EOF",
}

func (tok token) String() string {
	return tok2str[tok]
}

var keywords = map[string]bool{
	"auto": true, "break": true, "case": true, "char": true, "const": true, "continue": true,
	"default": true, "do": true, "double": true, "else": true, "enum": true, "extern": true,
	"float": true, "for": true, "goto": true, "if": true, "inline": true, "int": true,
	"long": true, "register": true, "restrict": true, "return": true, "short": true,
	"signed": true, "sizeof": true, "static": true, "struct": true, "switch": true,
	"typedef": true, "union": true, "unsigned": true, "void": true, "volatile": true,
	"while": true, "_Bool": true, "_Complex": true, "_Noreturn": true, "_Thread_local": true,
	"_Alignof": true, "__alignof__": true, "_Atomic": true,
}

// Punctuators ordered so that the longest match is tried first.
var punctuators = []string{
	"...", "<<=", ">>=",
	"->", "++", "--", "<<", ">>", "<=", ">=", "==", "!=", "&&", "||",
	"*=", "/=", "%=", "+=", "-=", "&=", "^=", "|=",
	"(", ")", "[", "]", "{", "}", ".", "&", "*", "+", "-", "~", "!",
	"/", "%", "<", ">", "^", "|", "?", ":", ";", "=", ",",
}

type scanner struct {
	data         []byte
	filename     string
	errorHandler ErrorHandler

	ch   byte
	off  int
	line int
	col  int
	bol  bool // at the beginning of a line (only whitespace seen)

	errors int
}

func newScanner(data []byte, filename string, errorHandler ErrorHandler) *scanner {
	if errorHandler == nil {
		errorHandler = LoggingHandler
	}
	s := &scanner{
		data:         data,
		filename:     filename,
		errorHandler: errorHandler,
		off:          -1,
		bol:          true,
	}
	s.next()
	return s
}

type ErrorHandler func(pos Pos, msg string)

func LoggingHandler(pos Pos, msg string) {
	fmt.Fprintf(os.Stderr, "%v: %v\n", pos, msg)
}

func (pos Pos) String() string {
	if pos.Col == 0 {
		return fmt.Sprintf("%v:%v", pos.File, pos.Line)
	}
	return fmt.Sprintf("%v:%v:%v", pos.File, pos.Line, pos.Col)
}

func (s *scanner) Scan() (tok token, lit string, pos Pos) {
	for {
		s.skipWhitespace()
		if s.ch != '#' || !s.bol {
			break
		}
		pos = s.pos()
		if text, ok := s.scanDirective(); ok {
			return tokPragma, text, pos
		}
	}
	s.bol = false
	pos = s.pos()
	switch {
	case s.ch == 0:
		tok = tokEOF
	case s.ch == '"':
		tok = tokString
		lit = s.scanQuoted(pos, '"')
	case s.ch == '\'':
		tok = tokChar
		lit = s.scanQuoted(pos, '\'')
	case s.ch == 'L' && (s.peek() == '"' || s.peek() == '\''):
		quote := s.peek()
		s.next()
		tok = tokString
		if quote == '\'' {
			tok = tokChar
		}
		lit = s.scanQuoted(pos, quote)
	case isDigit(s.ch) || s.ch == '.' && isDigit(s.peek()):
		tok, lit = s.scanNumber(pos)
	case isIdentStart(s.ch):
		tok, lit = s.scanIdent(pos)
	default:
		rest := string(s.data[s.off:min(s.off+3, len(s.data))])
		for _, p := range punctuators {
			if strings.HasPrefix(rest, p) {
				for range p {
					s.next()
				}
				return tokPunct, p, pos
			}
		}
		s.Error(pos, "illegal character %#U", s.ch)
		s.next()
		tok = tokIllegal
	}
	return
}

// scanDirective consumes a preprocessor line. Line markers ("# 12 "file.c"" and "#line 12")
// update the position; pragmas are returned, everything else is skipped.
func (s *scanner) scanDirective() (string, bool) {
	start := s.off
	for s.ch != '\n' && s.ch != 0 {
		s.next()
	}
	text := strings.TrimSpace(string(s.data[start+1 : s.off]))
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return "", false
	}
	if fields[0] == "pragma" {
		return strings.TrimSpace(strings.TrimPrefix(text, "pragma")), true
	}
	if fields[0] == "line" {
		fields = fields[1:]
	}
	if len(fields) == 0 {
		return "", false
	}
	if line, err := strconv.Atoi(fields[0]); err == nil {
		// The marker names the line that follows it.
		s.line = line - 1
		if len(fields) > 1 {
			if file, err := strconv.Unquote(fields[1]); err == nil {
				s.filename = file
			}
		}
	}
	return "", false
}

func (s *scanner) scanQuoted(pos Pos, quote byte) string {
	for s.next(); s.ch != quote; s.next() {
		if s.ch == 0 || s.ch == '\n' {
			s.Error(pos, "literal is not terminated")
			return string(quote) + string(quote)
		}
		if s.ch == '\\' {
			s.next()
		}
	}
	s.next()
	return string(s.data[pos.Off:s.off])
}

func (s *scanner) scanNumber(pos Pos) (token, string) {
	tok := tokInt
	hex := s.ch == '0' && (s.peek() == 'x' || s.peek() == 'X')
	if hex {
		s.next()
		s.next()
	}
	for {
		switch {
		case isDigit(s.ch), hex && isHexDigit(s.ch):
		case s.ch == '.':
			tok = tokFloat
		case (s.ch == 'e' || s.ch == 'E') && !hex, (s.ch == 'p' || s.ch == 'P') && hex:
			tok = tokFloat
			if s.peek() == '+' || s.peek() == '-' {
				s.next()
			}
		case isIdentStart(s.ch):
			// Suffixes: u, l, ll, f and combinations.
		default:
			return tok, string(s.data[pos.Off:s.off])
		}
		s.next()
	}
}

func (s *scanner) scanIdent(pos Pos) (tok token, lit string) {
	tok = tokIdent
	for isIdentStart(s.ch) || isDigit(s.ch) {
		s.next()
	}
	lit = string(s.data[pos.Off:s.off])
	if keywords[lit] {
		tok = tokKeyword
	}
	return
}

func (s *scanner) Error(pos Pos, msg string, args ...any) {
	s.errors++
	s.errorHandler(pos, fmt.Sprintf(msg, args...))
}

func (s *scanner) Ok() bool {
	return s.errors == 0
}

func (s *scanner) next() {
	s.off++
	for s.off < len(s.data) && s.data[s.off] == '\r' {
		s.off++
	}
	if s.off >= len(s.data) {
		s.off = len(s.data)
		s.ch = 0
		return
	}
	if s.off == 0 || s.data[s.off-1] == '\n' {
		s.line++
		s.col = 0
		s.bol = true
	}
	s.ch = s.data[s.off]
	s.col++
}

func (s *scanner) peek() byte {
	if s.off+1 < len(s.data) {
		return s.data[s.off+1]
	}
	return 0
}

func (s *scanner) skipWhitespace() {
	for s.ch == ' ' || s.ch == '\t' || s.ch == '\n' || s.ch == '\f' || s.ch == '\v' {
		s.next()
	}
}

func (s *scanner) pos() Pos {
	return Pos{
		File: s.filename,
		Off:  s.off,
		Line: s.line,
		Col:  s.col,
	}
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isHexDigit(ch byte) bool {
	return isDigit(ch) || ch >= 'a' && ch <= 'f' || ch >= 'A' && ch <= 'F'
}

func isIdentStart(ch byte) bool {
	return ch == '_' || ch == '$' || ch >= 'a' && ch <= 'z' || ch >= 'A' && ch <= 'Z'
}
