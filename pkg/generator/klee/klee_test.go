// Copyright 2017 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package klee

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/sosy-lab/tbf/pkg/decode"
	"github.com/sosy-lab/tbf/pkg/generator/genimpl"
	"github.com/sosy-lab/tbf/pkg/instrument"
	"github.com/sosy-lab/tbf/pkg/machine"
	"github.com/sosy-lab/tbf/pkg/vector"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEngine(t *testing.T, cfg string) (*Engine, *genimpl.Env) {
	env := &genimpl.Env{
		Workdir:   t.TempDir(),
		Model:     machine.Model32,
		Timelimit: 90 * time.Second,
		Methods: []*instrument.Method{
			{Name: "__VERIFIER_nondet_int", Type: "int"},
			{Name: "__VERIFIER_nondet_uchar", Type: "unsigned char"},
		},
		Config: []byte(cfg),
	}
	eng, err := genimpl.Types["klee"](env)
	require.NoError(t, err)
	return eng.(*Engine), env
}

func TestKTest(t *testing.T) {
	kt := &KTest{
		Version:  3,
		Args:     []string{"prog.bc"},
		SymArgvs: 0,
		Objects: []Object{
			{Name: "__sym___VERIFIER_nondet_int_0", Bytes: decode.Encode(int32(-5))},
			{Name: "__sym___VERIFIER_nondet_uchar_1", Bytes: []byte{200}},
		},
	}
	data := kt.Serialize()
	assert.True(t, strings.HasPrefix(string(data), "KTEST\x00\x00\x00\x03"))
	kt1, err := ParseKTest(data)
	require.NoError(t, err)
	if diff := cmp.Diff(kt, kt1); diff != "" {
		t.Fatalf("wrong ktest (-want +got):\n%s", diff)
	}

	old := append([]byte("BOUT\n"), data[len(magic):]...)
	_, err = ParseKTest(old)
	assert.NoError(t, err)

	for _, bad := range [][]byte{
		nil,
		[]byte("KTES"),
		data[:len(data)-1],
		append(append([]byte(nil), data...), 0),
		append([]byte("KTEST\x00\x00\x00\x09"), data[9:]...),
	} {
		_, err := ParseKTest(bad)
		assert.Error(t, err)
	}
}

func TestCommands(t *testing.T) {
	eng, _ := testEngine(t, `{"bin_dir": "/opt/klee", "args": ["-libc=uclibc"]}`)
	cmds := eng.Commands("klee-program.c")
	want := [][]string{
		{"/opt/klee/clang", "-m32", "-emit-llvm", "-c", "-g", "-o", "klee-program.bc", "klee-program.c"},
		{"/opt/klee/klee", "-max-time=90s", "-only-output-states-covering-new",
			"-search=random-path", "-search=nurs:covnew", "-libc=uclibc",
			"-output-dir=klee-tests", "klee-program.bc"},
	}
	if diff := cmp.Diff(want, cmds); diff != "" {
		t.Fatalf("wrong commands (-want +got):\n%s", diff)
	}
	assert.False(t, eng.Exhaustive())
	eng, _ = testEngine(t, "")
	assert.True(t, eng.Exhaustive())
	_, err := genimpl.Types["klee"](&genimpl.Env{Config: []byte(`{"bad": 1}`)})
	assert.Error(t, err)
}

func TestPrepare(t *testing.T) {
	eng, env := testEngine(t, "")
	src := `
extern int __VERIFIER_nondet_int(void);
extern void __VERIFIER_error(void);
int main() {
	if (__VERIFIER_nondet_int() == 3)
		__VERIFIER_error();
	return 0;
}
`
	name, err := eng.Prepare([]byte(src), "prog.c")
	require.NoError(t, err)
	data, err := os.ReadFile(filepath.Join(env.Workdir, name))
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, "void klee_make_symbolic(")
	assert.Contains(t, out, `klee_make_symbolic(&__sym___VERIFIER_nondet_int_0, sizeof(__sym___VERIFIER_nondet_int_0), "__sym___VERIFIER_nondet_int_0");`)
	assert.Contains(t, out, "exit(107);")
}

func TestVector(t *testing.T) {
	eng, env := testEngine(t, "")
	dir := filepath.Join(env.Workdir, TestDir)
	require.NoError(t, os.MkdirAll(dir, 0755))
	kt := &KTest{
		Version: 3,
		Objects: []Object{
			{Name: "model_version", Bytes: []byte{1, 0, 0, 0}},
			{Name: "__sym___VERIFIER_nondet_int_0", Bytes: decode.Encode(int32(-5))},
			{Name: "__sym___VERIFIER_nondet_uchar_1", Bytes: []byte{200}},
			{Name: "__sym___VERIFIER_nondet_int_2", Bytes: []byte{0xff, 0xff, 0xff, 0x7f}},
		},
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "test000002.ktest"), kt.Serialize(), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "test000001.ktest"), kt.Serialize(), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "info"), []byte("klee"), 0644))

	tests, err := eng.Tests(map[string]bool{"test000001.ktest": true})
	require.NoError(t, err)
	require.Len(t, tests, 1)
	assert.Equal(t, "test000002.ktest", tests[0].Name)

	vec, err := eng.Vector(tests[0])
	require.NoError(t, err)
	want := []vector.Value{
		{Value: "-5", Method: "__VERIFIER_nondet_int"},
		{Value: "200", Method: "__VERIFIER_nondet_uchar"},
		{Value: "2147483647", Method: "__VERIFIER_nondet_int"},
	}
	if diff := cmp.Diff(want, vec.Values()); diff != "" {
		t.Fatalf("wrong vector (-want +got):\n%s", diff)
	}

	kt.Objects = append(kt.Objects, Object{Name: "__sym_other_3", Bytes: []byte{1}})
	_, err = eng.Vector(&vector.TestCase{Name: "bad", Data: kt.Serialize()})
	assert.Error(t, err)
	_, err = eng.Vector(&vector.TestCase{Name: "bad", Data: []byte("garbage")})
	assert.Error(t, err)
}

func TestSeeds(t *testing.T) {
	seeds := t.TempDir()
	for name, data := range map[string]string{
		"1.txt": "# klee/test000001.ktest\n__VERIFIER_nondet_int: -5\n__VERIFIER_nondet_uchar: 200\n",
		"2.txt": "__VERIFIER_nondet_int: 2147483647\n",
		"3.txt": "__VERIFIER_nondet_int: 1.5\n",
		"4.txt": "7\n",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(seeds, name), []byte(data), 0644))
	}
	eng, env := testEngine(t, fmt.Sprintf(`{"seed_dir": %q}`, seeds))
	_, err := eng.Prepare([]byte("int main() { return 0; }"), "prog.c")
	require.NoError(t, err)
	// The float value and the value without a method are skipped.
	assert.Equal(t, 2, eng.seeds)
	cmds := eng.Commands("klee-program.c")
	assert.Contains(t, cmds[1], "-seed-dir="+SeedDir)

	data, err := os.ReadFile(filepath.Join(env.Workdir, SeedDir, "seed000000.ktest"))
	require.NoError(t, err)
	kt, err := ParseKTest(data)
	require.NoError(t, err)
	assert.Equal(t, []Object{
		{Name: "__sym___VERIFIER_nondet_int_0", Bytes: decode.Encode(int32(-5))},
		{Name: "__sym___VERIFIER_nondet_uchar_1", Bytes: []byte{200}},
	}, kt.Objects)
	vec, err := eng.Vector(&vector.TestCase{Name: "seed", Data: data})
	require.NoError(t, err)
	assert.Equal(t, "-5", vec.At(0).Value)
	assert.Equal(t, "200", vec.At(1).Value)

	eng.env.Methods = eng.env.Methods[:1]
	kt, err = eng.KTest(vector.New(vector.Value{Value: "7"}))
	require.NoError(t, err)
	assert.Equal(t, decode.Encode(int32(7)), kt.Objects[0].Bytes)
}
