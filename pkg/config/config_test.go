// Copyright 2016 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Nested struct {
	Aaa int    `json:"aaa"`
	Bbb string `json:"bbb"`
}

type Config struct {
	Foo int             `json:"foo"`
	Bar string          `json:"bar"`
	Baz string          `json:"-"`
	Raw json.RawMessage `json:"raw"`
	Qux []string        `json:"qux"`
	Box Nested          `json:"box"`
	Boq *Nested         `json:"boq"`
	Arr []Nested        `json:"arr"`
	T   time.Time       `json:"t"`
}

func TestLoad(t *testing.T) {
	tests := []struct {
		input  string
		output Config
		err    string
	}{
		{
			input:  `{"foo": 42}`,
			output: Config{Foo: 42},
		},
		{
			input: `
# comment
{"bar": "Baz", "foo": 42}`,
			output: Config{Foo: 42, Bar: "Baz"},
		},
		{
			input: `{"foobar": 42}`,
			err:   `unknown field "foobar"`,
		},
		{
			input: `{"box": {"aaa": 12, "ccc": "bbb"}}`,
			err:   `unknown field "ccc"`,
		},
		{
			input: `{"foo": 1, "boq": {"aaa": 12, "bbb": "bbb"}, "arr": [{"aaa": 13}]}`,
			output: Config{
				Foo: 1,
				Boq: &Nested{Aaa: 12, Bbb: "bbb"},
				Arr: []Nested{{Aaa: 13}},
			},
		},
		{
			input:  `{"raw": {"zux": 11}}`,
			output: Config{Raw: []byte(`{"zux": 11}`)},
		},
		{
			input:  `{"t": "2000-01-02T03:04:05Z"}`,
			output: Config{T: time.Date(2000, 1, 2, 3, 4, 5, 0, time.UTC)},
		},
		{
			input: `
# yaml
foo: 7
qux: [a, b]
box:
  aaa: 1
`,
			output: Config{Foo: 7, Qux: []string{"a", "b"}, Box: Nested{Aaa: 1}},
		},
		{
			input: "foo: 1\nzzz: 2\n",
			err:   `unknown field "zzz"`,
		},
	}
	for i, test := range tests {
		t.Run(fmt.Sprint(i), func(t *testing.T) {
			var cfg Config
			err := LoadData([]byte(test.input), &cfg)
			if test.err != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), test.err)
				return
			}
			require.NoError(t, err)
			if diff := cmp.Diff(test.output, cfg); diff != "" {
				t.Fatalf("bad config (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLoadBadType(t *testing.T) {
	want := "config type is not pointer to struct"
	if err := LoadData([]byte("{}"), 1); err == nil || err.Error() != want {
		t.Fatalf("got '%v', want '%v'", err, want)
	}
	i := 0
	if err := LoadData([]byte("{}"), &i); err == nil || err.Error() != want {
		t.Fatalf("got '%v', want '%v'", err, want)
	}
	s := struct{}{}
	if err := LoadData([]byte("{}"), s); err == nil || err.Error() != want {
		t.Fatalf("got '%v', want '%v'", err, want)
	}
}

func TestSaveLoadFile(t *testing.T) {
	type fileConfig struct {
		Foo int      `json:"foo"`
		Qux []string `json:"qux"`
		Boq *Nested  `json:"boq"`
	}
	dir := t.TempDir()
	cfg := fileConfig{Foo: 3, Qux: []string{"x"}, Boq: &Nested{Bbb: "y"}}
	for _, name := range []string{"cfg.json", "cfg.yaml"} {
		file := filepath.Join(dir, name)
		require.NoError(t, SaveFile(file, cfg))
		data, err := os.ReadFile(file)
		require.NoError(t, err)
		assert.Equal(t, name == "cfg.json", strings.HasPrefix(string(data), "{"))
		var cfg1 fileConfig
		require.NoError(t, LoadFile(file, &cfg1))
		if diff := cmp.Diff(cfg, cfg1); diff != "" {
			t.Fatalf("bad config (-want +got):\n%s", diff)
		}
	}
	assert.Error(t, LoadFile("", &cfg))
	assert.Error(t, LoadFile(filepath.Join(dir, "missing.json"), &cfg))
}
