// Copyright 2017 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package witness

import (
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/sosy-lab/tbf/pkg/hash"
	"github.com/sosy-lab/tbf/pkg/testutil"
	"github.com/sosy-lab/tbf/pkg/vector"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSingleValue(t *testing.T) {
	vec := vector.New(vector.Value{Value: "5", Method: "__VERIFIER_nondet_int"})
	a := Build(vec, []string{"__VERIFIER_nondet_int"}, []int{42})
	wantNodes := []*Node{
		{ID: "A0", Entry: true},
		{ID: "A1"},
		{ID: "A2", Violation: true},
		{ID: "sink"},
	}
	wantEdges := []*Edge{
		{Source: "A0", Target: "A1", Assumption: `\result == 5;`, ResultFunction: "__VERIFIER_nondet_int"},
		{Source: "A1", Target: "A2", StartLine: 42},
		{Source: "A1", Target: "sink", Assumption: `\result == 0;`, ResultFunction: "__VERIFIER_nondet_int"},
	}
	if diff := cmp.Diff(wantNodes, a.Nodes); diff != "" {
		t.Fatalf("wrong nodes (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(wantEdges, a.Edges); diff != "" {
		t.Fatalf("wrong edges (-want +got):\n%s", diff)
	}
}

func TestBuildUnattributed(t *testing.T) {
	vec := vector.New(vector.Value{Value: "1"}, vector.Value{Value: "2", Method: "b"})
	a := Build(vec, []string{"b", "a"}, []int{7, 9})
	var got []string
	for _, e := range a.Edges {
		got = append(got, e.Source+">"+e.Target+" "+e.ResultFunction+" "+e.Assumption+" "+strconv.Itoa(e.StartLine))
	}
	want := []string{
		`A0>A1 a \result == 1; 0`,
		`A0>A1 b \result == 1; 0`,
		`A1>A2 b \result == 2; 0`,
		`A2>A3   7`,
		`A2>A3   9`,
		`A2>sink a \result == 0; 0`,
		`A2>sink b \result == 0; 0`,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("wrong edges (-want +got):\n%s", diff)
	}
}

func TestPathLength(t *testing.T) {
	r := rand.New(testutil.RandSource(t))
	for i := 0; i < testutil.IterCount(); i++ {
		var values []vector.Value
		for k := r.Intn(20); k > 0; k-- {
			values = append(values, vector.Value{Value: strconv.Itoa(r.Int()), Method: "m"})
		}
		a := Build(vector.New(values...), []string{"m"}, []int{1})
		// Entry, one node per value and violation, then the sink.
		require.Len(t, a.Nodes, len(values)+3)
		assert.Equal(t, SinkID, a.Nodes[len(a.Nodes)-1].ID)
		assert.True(t, a.Nodes[len(values)+1].Violation)
		for j, n := range a.Nodes[:len(values)+2] {
			assert.Equal(t, "A"+strconv.Itoa(j), n.ID)
		}
	}
}

func TestMarshal(t *testing.T) {
	dir := t.TempDir()
	prog := filepath.Join(dir, "prog.c")
	require.NoError(t, os.WriteFile(prog, []byte("int main() { return 0; }\n"), 0644))
	info, err := NewInfo("tbf-test", prog, "32bit", "")
	require.NoError(t, err)
	sig, err := hash.File(prog)
	require.NoError(t, err)
	assert.Equal(t, sig.String(), info.ProgramHash)
	assert.Len(t, info.ProgramHash, 40)

	vec := vector.New(vector.Value{Value: "5", Method: "__VERIFIER_nondet_int"})
	doc, err := Synthesize(info, vec, []string{"__VERIFIER_nondet_int"}, []int{42})
	require.NoError(t, err)
	text := string(doc)
	for _, want := range []string{
		`<?xml version="1.0" encoding="UTF-8"?>`,
		`<graphml xmlns="http://graphml.graphdrawing.org/xmlns" xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance">`,
		`    <key id="originfile" for="edge" attr.name="originFileName" attr.type="string">`,
		`        <default>` + prog + `</default>`,
		`    <graph edgedefault="directed">`,
		`        <data key="witness-type">violation_witness</data>`,
		`        <data key="specification">CHECK( init(main()), LTL(G ! call(__VERIFIER_error())) )</data>`,
		`        <data key="architecture">32bit</data>`,
		`            <data key="entry">true</data>`,
		`            <data key="assumption">\result == 5;</data>`,
		`            <data key="startline">42</data>`,
		`        <node id="sink"></node>`,
	} {
		assert.Contains(t, text, want+"\n")
	}

	info1, a, err := Unmarshal(doc)
	require.NoError(t, err)
	info.ErrorMethod = ""
	assert.Equal(t, info, info1)
	if diff := cmp.Diff(Build(vec, []string{"__VERIFIER_nondet_int"}, []int{42}), a); diff != "" {
		t.Fatalf("wrong automaton (-want +got):\n%s", diff)
	}
}

func TestMarshalEscapes(t *testing.T) {
	vec := vector.New(vector.Value{Value: "1 < 2 && x", Method: "m"})
	doc, err := Synthesize(&Info{ErrorMethod: "reach_error"}, vec, nil, nil)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(doc), `\result == 1 &lt; 2 &amp;&amp; x;`))
	assert.Contains(t, string(doc), "call(reach_error())")
	_, a, err := Unmarshal(doc)
	require.NoError(t, err)
	assert.Equal(t, `\result == 1 < 2 && x;`, a.Edges[0].Assumption)
}

func TestCheck(t *testing.T) {
	dir := t.TempDir()
	prog := filepath.Join(dir, "prog.c")
	require.NoError(t, os.WriteFile(prog, []byte("int main() { return 0; }\n"), 0644))
	info, err := NewInfo("tbf-test", prog, "32bit", "")
	require.NoError(t, err)
	doc, err := Synthesize(info, vector.New(vector.Value{Value: "1"}), []string{"input"}, nil)
	require.NoError(t, err)
	info1, _, err := Unmarshal(doc)
	require.NoError(t, err)
	assert.NoError(t, info1.Check(prog))

	require.NoError(t, os.WriteFile(prog, []byte("int main() { return 1; }\n"), 0644))
	assert.ErrorContains(t, info1.Check(prog), "has hash")
	info1.ProgramHash = "xyz"
	assert.ErrorContains(t, info1.Check(prog), "bad program hash")
	assert.Error(t, info.Check(filepath.Join(dir, "missing.c")))
}
