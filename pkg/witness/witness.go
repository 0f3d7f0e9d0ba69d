// Copyright 2017 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// Package witness synthesizes GraphML violation witnesses from test vectors.
//
// The automaton is a path: the entry node, one node per vector value and the violation node.
// Each value edge assumes that the responsible method returned that value. The last value node
// reaches the violation node at any error call line, and goes to the sink node on any further
// input call, so that a longer execution does not match the witness.
package witness

import (
	"fmt"
	"sort"

	"github.com/sosy-lab/tbf/pkg/hash"
	"github.com/sosy-lab/tbf/pkg/log"
	"github.com/sosy-lab/tbf/pkg/vector"
)

const SinkID = "sink"

type Node struct {
	ID        string
	Entry     bool
	Violation bool
}

type Edge struct {
	Source     string
	Target     string
	Assumption string
	// StartLine is the source line of the edge, 0 if any.
	StartLine      int
	Scope          string
	ResultFunction string
}

type Automaton struct {
	Nodes []*Node
	Edges []*Edge
}

// Build returns the automaton for vec.
// A value attributed to a method gets one edge for it, an unattributed value gets one edge
// per method in methods. Node ids are A0, A1, ... in path order.
func Build(vec *vector.Vector, methods []string, errorLines []int) *Automaton {
	methods = append([]string(nil), methods...)
	sort.Strings(methods)
	a := new(Automaton)
	prev := a.node(true, false)
	for i := 0; i < vec.Len(); i++ {
		val := vec.At(i)
		next := a.node(false, false)
		candidates := methods
		if val.Method != "" {
			candidates = []string{val.Method}
		} else if len(methods) == 0 {
			log.Logf(0, "witness: no method for value %v at %v", val.Value, i)
		}
		for _, method := range candidates {
			a.Edges = append(a.Edges, &Edge{
				Source:         prev.ID,
				Target:         next.ID,
				Assumption:     fmt.Sprintf("\\result == %v;", val.Value),
				ResultFunction: method,
			})
		}
		prev = next
	}
	violation := a.node(false, true)
	for _, line := range errorLines {
		a.Edges = append(a.Edges, &Edge{
			Source:    prev.ID,
			Target:    violation.ID,
			StartLine: line,
		})
	}
	sink := &Node{ID: SinkID}
	a.Nodes = append(a.Nodes, sink)
	for _, method := range methods {
		a.Edges = append(a.Edges, &Edge{
			Source:         prev.ID,
			Target:         sink.ID,
			Assumption:     "\\result == 0;",
			ResultFunction: method,
		})
	}
	return a
}

func (a *Automaton) node(entry, violation bool) *Node {
	n := &Node{
		ID:        fmt.Sprintf("A%v", len(a.Nodes)),
		Entry:     entry,
		Violation: violation,
	}
	a.Nodes = append(a.Nodes, n)
	return n
}

// Info describes the program a witness is for.
type Info struct {
	Producer     string
	ProgramFile  string
	ProgramHash  string
	Architecture string
	// ErrorMethod is the error function of the reachability property.
	ErrorMethod string
}

// NewInfo hashes the program file.
func NewInfo(producer, program, architecture, errorMethod string) (*Info, error) {
	sig, err := hash.File(program)
	if err != nil {
		return nil, err
	}
	return &Info{
		Producer:     producer,
		ProgramFile:  program,
		ProgramHash:  sig.String(),
		Architecture: architecture,
		ErrorMethod:  errorMethod,
	}, nil
}

// Check returns an error if the witness does not belong to the contents of program.
func (info *Info) Check(program string) error {
	want, err := hash.FromString(info.ProgramHash)
	if err != nil {
		return fmt.Errorf("bad program hash in witness: %w", err)
	}
	got, err := hash.File(program)
	if err != nil {
		return err
	}
	if got != want {
		return fmt.Errorf("witness is for program %v with hash %v, %v has hash %v",
			info.ProgramFile, info.ProgramHash, program, got.String())
	}
	return nil
}

// Specification returns the reachability property for the error method.
func (info *Info) Specification() string {
	method := info.ErrorMethod
	if method == "" {
		method = "__VERIFIER_error"
	}
	return fmt.Sprintf("CHECK( init(main()), LTL(G ! call(%v())) )", method)
}

// Synthesize returns the GraphML witness for vec.
func Synthesize(info *Info, vec *vector.Vector, methods []string, errorLines []int) ([]byte, error) {
	return Marshal(info, Build(vec, methods, errorLines))
}
