// Copyright 2017 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package generator

import (
	"context"
	"testing"
	"time"

	"github.com/sosy-lab/tbf/pkg/decode"
	"github.com/sosy-lab/tbf/pkg/machine"
	"github.com/sosy-lab/tbf/pkg/vector"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNames(t *testing.T) {
	assert.Equal(t, []string{"afl", "crest", "klee", "random"}, Names())
}

func TestCreate(t *testing.T) {
	for _, name := range Names() {
		env := &Env{Workdir: t.TempDir(), Model: machine.Model64}
		eng, err := Create(name, env)
		require.NoError(t, err, name)
		assert.NotNil(t, eng.Decoder(), name)
		assert.NotEmpty(t, eng.Commands("prog.c"), name)
	}
	_, err := Create("cpachecker", &Env{Workdir: t.TempDir(), Model: machine.Model64})
	assert.ErrorContains(t, err, "known engines: afl, crest, klee, random")
	_, err = Create("klee", &Env{Workdir: t.TempDir()})
	assert.Error(t, err)
	_, err = Create("klee", &Env{Workdir: t.TempDir(), Model: machine.Model64, Config: []byte(`{"foo": 1}`)})
	assert.Error(t, err)
}

type shellEngine struct {
	cmds [][]string
}

func (eng *shellEngine) Prepare(src []byte, filename string) (string, error) { return filename, nil }
func (eng *shellEngine) Commands(prepared string) [][]string                { return eng.cmds }
func (eng *shellEngine) Env() []string                                      { return []string{"TBF_TEST=1"} }
func (eng *shellEngine) Decoder() decode.Decoder                            { return nil }
func (eng *shellEngine) Tests(done map[string]bool) ([]*vector.TestCase, error) {
	return nil, nil
}
func (eng *shellEngine) Vector(tc *vector.TestCase) (*vector.Vector, error) { return nil, nil }

func TestRun(t *testing.T) {
	env := &Env{Workdir: t.TempDir(), Timelimit: time.Second}
	tests := []struct {
		name     string
		cmds     [][]string
		ok       bool
		finished bool
	}{
		{"ok", [][]string{{"true"}, {"sh", "-c", `test "$TBF_TEST" = 1`}}, true, true},
		{"timelimit", [][]string{{"true"}, {"sleep", "100"}}, true, false},
		{"build-fails", [][]string{{"false"}, {"true"}}, false, false},
		{"generator-fails", [][]string{{"true"}, {"false"}}, false, false},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			start := time.Now()
			finished, err := Run(context.Background(), &shellEngine{test.cmds}, env, "prog.c")
			assert.Equal(t, test.finished, finished)
			if test.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
			assert.Less(t, time.Since(start), time.Minute)
		})
	}
}

func TestRunCancel(t *testing.T) {
	env := &Env{Workdir: t.TempDir()}
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()
	finished, err := Run(ctx, &shellEngine{[][]string{{"sleep", "100"}}}, env, "prog.c")
	assert.NoError(t, err)
	assert.False(t, finished)
}
