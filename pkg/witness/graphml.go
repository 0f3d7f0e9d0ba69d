// Copyright 2017 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package witness

import (
	"encoding/xml"
	"fmt"
	"strconv"
)

type graphML struct {
	XMLName xml.Name `xml:"graphml"`
	Xmlns   string   `xml:"xmlns,attr"`
	Xsi     string   `xml:"xmlns:xsi,attr"`
	Keys    []key    `xml:"key"`
	Graph   graph    `xml:"graph"`
}

type key struct {
	ID      string  `xml:"id,attr"`
	For     string  `xml:"for,attr"`
	Name    string  `xml:"attr.name,attr"`
	Type    string  `xml:"attr.type,attr"`
	Default *string `xml:"default,omitempty"`
}

type graph struct {
	EdgeDefault string `xml:"edgedefault,attr"`
	Data        []data `xml:"data"`
	Nodes       []node `xml:"node"`
	Edges       []edge `xml:"edge"`
}

type node struct {
	ID   string `xml:"id,attr"`
	Data []data `xml:"data"`
}

type edge struct {
	Source string `xml:"source,attr"`
	Target string `xml:"target,attr"`
	Data   []data `xml:"data"`
}

type data struct {
	Key   string `xml:"key,attr"`
	Value string `xml:",chardata"`
}

func keys(programFile string) []key {
	str := func(s string) *string { return &s }
	return []key{
		{ID: "originfile", For: "edge", Name: "originFileName", Type: "string", Default: str(programFile)},
		{ID: "witness-type", For: "graph", Name: "witness-type", Type: "string"},
		{ID: "sourcecodelang", For: "graph", Name: "sourcecodeLanguage", Type: "string"},
		{ID: "producer", For: "graph", Name: "producer", Type: "string"},
		{ID: "specification", For: "graph", Name: "specification", Type: "string"},
		{ID: "programfile", For: "graph", Name: "programFile", Type: "string"},
		{ID: "programhash", For: "graph", Name: "programHash", Type: "string"},
		{ID: "architecture", For: "graph", Name: "architecture", Type: "string"},
		{ID: "entry", For: "node", Name: "isEntryNode", Type: "boolean", Default: str("false")},
		{ID: "violation", For: "node", Name: "isViolationNode", Type: "boolean", Default: str("false")},
		{ID: "startline", For: "edge", Name: "startline", Type: "int"},
		{ID: "assumption", For: "edge", Name: "assumption", Type: "string"},
		{ID: "assumption.scope", For: "edge", Name: "assumption.scope", Type: "string"},
		{ID: "assumption.resultfunction", For: "edge", Name: "assumption.resultfunction", Type: "string"},
	}
}

// Marshal returns a as an indented GraphML document.
func Marshal(info *Info, a *Automaton) ([]byte, error) {
	doc := &graphML{
		Xmlns: "http://graphml.graphdrawing.org/xmlns",
		Xsi:   "http://www.w3.org/2001/XMLSchema-instance",
		Keys:  keys(info.ProgramFile),
		Graph: graph{
			EdgeDefault: "directed",
			Data: []data{
				{"witness-type", "violation_witness"},
				{"sourcecodelang", "C"},
				{"producer", info.Producer},
				{"specification", info.Specification()},
				{"programfile", info.ProgramFile},
				{"programhash", info.ProgramHash},
				{"architecture", info.Architecture},
			},
		},
	}
	for _, n := range a.Nodes {
		xn := node{ID: n.ID}
		if n.Entry {
			xn.Data = append(xn.Data, data{"entry", "true"})
		}
		if n.Violation {
			xn.Data = append(xn.Data, data{"violation", "true"})
		}
		doc.Graph.Nodes = append(doc.Graph.Nodes, xn)
	}
	for _, e := range a.Edges {
		xe := edge{Source: e.Source, Target: e.Target}
		if e.StartLine != 0 {
			xe.Data = append(xe.Data, data{"startline", strconv.Itoa(e.StartLine)})
		}
		if e.Assumption != "" {
			xe.Data = append(xe.Data, data{"assumption", e.Assumption})
		}
		if e.Scope != "" {
			xe.Data = append(xe.Data, data{"assumption.scope", e.Scope})
		}
		if e.ResultFunction != "" {
			xe.Data = append(xe.Data, data{"assumption.resultfunction", e.ResultFunction})
		}
		doc.Graph.Edges = append(doc.Graph.Edges, xe)
	}
	out, err := xml.MarshalIndent(doc, "", "    ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal witness: %w", err)
	}
	return append([]byte(xml.Header), append(out, '\n')...), nil
}

// Unmarshal parses a witness written by Marshal back into an automaton.
func Unmarshal(doc []byte) (*Info, *Automaton, error) {
	var g graphML
	if err := xml.Unmarshal(doc, &g); err != nil {
		return nil, nil, fmt.Errorf("failed to parse witness: %w", err)
	}
	info := new(Info)
	for _, d := range g.Graph.Data {
		switch d.Key {
		case "producer":
			info.Producer = d.Value
		case "programfile":
			info.ProgramFile = d.Value
		case "programhash":
			info.ProgramHash = d.Value
		case "architecture":
			info.Architecture = d.Value
		}
	}
	a := new(Automaton)
	for _, xn := range g.Graph.Nodes {
		n := &Node{ID: xn.ID}
		for _, d := range xn.Data {
			switch d.Key {
			case "entry":
				n.Entry = d.Value == "true"
			case "violation":
				n.Violation = d.Value == "true"
			}
		}
		a.Nodes = append(a.Nodes, n)
	}
	for _, xe := range g.Graph.Edges {
		e := &Edge{Source: xe.Source, Target: xe.Target}
		for _, d := range xe.Data {
			switch d.Key {
			case "startline":
				line, err := strconv.Atoi(d.Value)
				if err != nil {
					return nil, nil, fmt.Errorf("bad startline %q", d.Value)
				}
				e.StartLine = line
			case "assumption":
				e.Assumption = d.Value
			case "assumption.scope":
				e.Scope = d.Value
			case "assumption.resultfunction":
				e.ResultFunction = d.Value
			}
		}
		a.Edges = append(a.Edges, e)
	}
	return info, a, nil
}
