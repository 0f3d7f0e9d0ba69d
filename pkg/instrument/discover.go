// Copyright 2017 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package instrument

import (
	"bytes"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/sosy-lab/tbf/pkg/cast"
	"github.com/sosy-lab/tbf/pkg/log"
)

// Method describes a non-deterministic method.
type Method struct {
	Name   string
	Type   string   // return type spelling
	Params []string // parameter type spellings, empty for no parameters
}

// Head returns the function head with parameters named param0, param1 and so on.
func (m *Method) Head() string {
	var params []string
	for i, typ := range m.Params {
		if typ == "..." {
			params = append(params, typ)
			continue
		}
		params = append(params, cast.Declare(typ, fmt.Sprintf("param%v", i)))
	}
	if len(params) == 0 {
		params = []string{"void"}
	}
	return cast.Declare(m.Type, fmt.Sprintf("%v(%v)", m.Name, strings.Join(params, ", ")))
}

// Decl returns an extern declaration of the method.
func (m *Method) Decl() (*cast.Decl, error) {
	file, err := cast.ParseSource([]byte("extern "+m.Head()+";"), "<"+m.Name+">")
	if err != nil {
		return nil, fmt.Errorf("bad signature of method %v: %w", m.Name, err)
	}
	if len(file.Items) != 1 {
		return nil, fmt.Errorf("bad signature of method %v", m.Name)
	}
	decl, ok := file.Items[0].(*cast.Decl)
	if !ok {
		return nil, fmt.Errorf("bad signature of method %v", m.Name)
	}
	return decl, nil
}

// FindNondetMethods returns the non-deterministic methods of file sorted by name.
// These are functions that are declared but not defined and that are not known library functions,
// and functions matching the nondet prefix, even if they are only called.
// The types of methods that are never declared are derived from their names.
func FindNondetMethods(file *cast.File, opts *Options) []*Method {
	prefix := opts.nondetPrefix()
	defined := make(map[string]bool)
	for _, name := range definedFunctions(file) {
		defined[name] = true
	}
	methods := make(map[string]*Method)
	for _, decl := range functionDecls(file) {
		name := decl.Name
		if defined[name] || opts.excluded(name) || isLibraryFunction(name) {
			continue
		}
		if opts.svcompOnly() && !strings.HasPrefix(name, prefix) {
			continue
		}
		if methods[name] != nil {
			log.Logf(1, "%v: method %v is declared again", decl.Pos, name)
			continue
		}
		fn := decl.Type.(*cast.FuncDecl)
		methods[name] = &Method{
			Name:   name,
			Type:   cast.TypeString(fn.Type),
			Params: cast.ParamTypes(fn),
		}
	}
	for _, name := range calledFunctions(file) {
		if methods[name] == nil && !defined[name] && !opts.excluded(name) && strings.HasPrefix(name, prefix) {
			methods[name] = &Method{Name: name, Type: typeFromName(name, prefix)}
		}
	}
	return sortMethods(methods)
}

var identRe = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*`)

// FindNondetMethodsText is the fallback of FindNondetMethods for sources that cannot be parsed.
// It finds calls of functions matching the nondet prefix in the text.
func FindNondetMethodsText(data []byte, opts *Options) []*Method {
	prefix := opts.nondetPrefix()
	re := regexp.MustCompile(regexp.QuoteMeta(prefix) + `[A-Za-z0-9_]*\s*\(\s*\)`)
	methods := make(map[string]*Method)
	for _, match := range re.FindAll(data, -1) {
		name := identRe.FindString(string(match))
		if methods[name] == nil && !opts.excluded(name) {
			methods[name] = &Method{Name: name, Type: typeFromName(name, prefix)}
		}
	}
	return sortMethods(methods)
}

func sortMethods(methods map[string]*Method) []*Method {
	var res []*Method
	for _, m := range methods {
		res = append(res, m)
	}
	sort.Slice(res, func(i, j int) bool {
		return res[i].Name < res[j].Name
	})
	return res
}

// typeFromName derives the return type of a nondet method from its name,
// e.g. __VERIFIER_nondet_uint returns unsigned int.
func typeFromName(name, prefix string) string {
	typ := strings.ToLower(strings.TrimPrefix(name, prefix))
	switch typ {
	case "bool":
		return "_Bool"
	case "u32", "unsigned":
		return "unsigned int"
	case "u16":
		return "unsigned short"
	case "u8":
		return "unsigned char"
	case "pointer":
		return "void *"
	case "pchar":
		return "char *"
	case "s8":
		return "char"
	case "":
		return "int"
	}
	if typ[0] == 'u' {
		return "unsigned " + typ[1:]
	}
	return typ
}

// ErrorLines returns the sorted source lines of calls to the error method.
func ErrorLines(file *cast.File, opts *Options) []int {
	c := &errorCallCollector{method: opts.errorMethod()}
	c.Self = c
	seen := make(map[int]bool)
	var lines []int
	for _, call := range cast.Visit[[]*cast.FuncCall](c, file) {
		if line := call.Pos.Line; !seen[line] {
			seen[line] = true
			lines = append(lines, line)
		}
	}
	sort.Ints(lines)
	return lines
}

// ErrorLinesText is the fallback of ErrorLines for sources that cannot be parsed.
// Lines are counted in the raw text, before any preprocessing.
func ErrorLinesText(data []byte, opts *Options) []int {
	re := regexp.MustCompile(`\b` + regexp.QuoteMeta(opts.errorMethod()) + `[A-Za-z0-9_]*\s*\(`)
	var lines []int
	for i, line := range bytes.Split(data, []byte("\n")) {
		if re.Match(line) {
			lines = append(lines, i+1)
		}
	}
	return lines
}

type errorCallCollector struct {
	cast.DFS[*cast.FuncCall]
	method string
}

func (c *errorCallCollector) VisitFuncCall(n *cast.FuncCall) []*cast.FuncCall {
	res := c.DFS.VisitFuncCall(n)
	if strings.HasPrefix(cast.DeclName(n), c.method) {
		res = append([]*cast.FuncCall{n}, res...)
	}
	return res
}

// funcDeclCollector collects declarations of functions. Definitions are not declarations.
type funcDeclCollector struct {
	cast.DFS[*cast.Decl]
}

func (c *funcDeclCollector) VisitDecl(n *cast.Decl) []*cast.Decl {
	if _, ok := n.Type.(*cast.FuncDecl); ok && n.Name != "" {
		return []*cast.Decl{n}
	}
	return nil
}

func (c *funcDeclCollector) VisitFuncDef(n *cast.FuncDef) []*cast.Decl {
	return cast.Visit[[]*cast.Decl](c, n.Body)
}

func functionDecls(file *cast.File) []*cast.Decl {
	c := new(funcDeclCollector)
	c.Self = c
	return cast.Visit[[]*cast.Decl](c, file)
}

func definedFunctions(file *cast.File) []string {
	var res []string
	for _, item := range file.Items {
		if def, ok := item.(*cast.FuncDef); ok {
			res = append(res, def.Decl.Name)
		}
	}
	return res
}

type callCollector struct {
	cast.DFS[string]
}

func (c *callCollector) VisitFuncCall(n *cast.FuncCall) []string {
	res := c.DFS.VisitFuncCall(n)
	if name := cast.DeclName(n); name != "" {
		res = append([]string{name}, res...)
	}
	return res
}

func calledFunctions(file *cast.File) []string {
	c := new(callCollector)
	c.Self = c
	return cast.Visit[[]string](c, file)
}
