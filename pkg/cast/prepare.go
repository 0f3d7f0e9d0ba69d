// Copyright 2017 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package cast

import (
	"bytes"
)

// GNU keywords with a standard spelling. An empty replacement drops the keyword.
var gnuKeywords = map[string]string{
	"__extension__":     "",
	"__restrict":        "",
	"__restrict__":      "",
	"__inline":          "inline",
	"__inline__":        "inline",
	"__const":           "const",
	"__const__":         "const",
	"__signed":          "signed",
	"__signed__":        "signed",
	"__volatile":        "volatile",
	"__volatile__":      "volatile",
	"__builtin_va_list": "int",
}

// Keywords that are dropped together with the parenthesized group that follows them.
var gnuGroups = map[string]bool{
	"__attribute__": true,
	"__attribute":   true,
	"__asm__":       true,
	"__asm":         true,
	"asm":           true,
}

// Prepare strips GCC-specific syntax that the parser does not handle:
// comments, attributes, inline assembly and GNU keyword spellings.
// Newlines are preserved so that positions still match the original source.
func Prepare(data []byte) []byte {
	out := new(bytes.Buffer)
	out.Grow(len(data))
	for i := 0; i < len(data); {
		ch := data[i]
		switch {
		case ch == '"' || ch == '\'':
			end := skipQuoted(data, i)
			out.Write(data[i:end])
			i = end
		case ch == '/' && i+1 < len(data) && data[i+1] == '/':
			for i < len(data) && data[i] != '\n' {
				i++
			}
		case ch == '/' && i+1 < len(data) && data[i+1] == '*':
			i += 2
			for i < len(data) && !(data[i] == '*' && i+1 < len(data) && data[i+1] == '/') {
				if data[i] == '\n' {
					out.WriteByte('\n')
				}
				i++
			}
			i += 2
			out.WriteByte(' ')
		case ch == '#' && atLineStart(data, i):
			// Preprocessor lines are left to the scanner.
			end := bytes.IndexByte(data[i:], '\n')
			if end == -1 {
				end = len(data) - i
			}
			out.Write(data[i : i+end])
			i += end
		case isIdentStart(ch):
			end := i
			for end < len(data) && (isIdentStart(data[end]) || isDigit(data[end])) {
				end++
			}
			word := string(data[i:end])
			switch {
			case gnuGroups[word]:
				i = skipGroup(data, end, out)
			default:
				if repl, ok := gnuKeywords[word]; ok {
					out.WriteString(repl)
				} else {
					out.WriteString(word)
				}
				i = end
			}
		case isDigit(ch):
			// Keep numbers whole so that suffixes are not taken for identifiers.
			end := i
			for end < len(data) && (isIdentStart(data[end]) || isDigit(data[end]) || data[end] == '.') {
				end++
			}
			out.Write(data[i:end])
			i = end
		default:
			out.WriteByte(ch)
			i++
		}
	}
	return out.Bytes()
}

func skipQuoted(data []byte, i int) int {
	quote := data[i]
	for i++; i < len(data) && data[i] != quote && data[i] != '\n'; i++ {
		if data[i] == '\\' {
			i++
		}
	}
	return min(i+1, len(data))
}

func atLineStart(data []byte, i int) bool {
	for i--; i >= 0; i-- {
		switch data[i] {
		case '\n':
			return true
		case ' ', '\t':
		default:
			return false
		}
	}
	return true
}

// skipGroup skips asm qualifiers and one balanced parenthesized group starting at i.
// Newlines inside the group are preserved.
func skipGroup(data []byte, i int, out *bytes.Buffer) int {
	for {
		for i < len(data) && (data[i] == ' ' || data[i] == '\t' || data[i] == '\n') {
			if data[i] == '\n' {
				out.WriteByte('\n')
			}
			i++
		}
		end := i
		for end < len(data) && isIdentStart(data[end]) {
			end++
		}
		word := string(data[i:end])
		if word != "volatile" && word != "__volatile__" && word != "__volatile" &&
			word != "goto" && word != "inline" {
			break
		}
		i = end
	}
	if i >= len(data) || data[i] != '(' {
		return i
	}
	depth := 0
	for ; i < len(data); i++ {
		switch data[i] {
		case '"', '\'':
			i = skipQuoted(data, i) - 1
		case '\n':
			out.WriteByte('\n')
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				out.WriteByte(' ')
				return i + 1
			}
		}
	}
	return i
}
