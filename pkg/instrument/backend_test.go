// Copyright 2017 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package instrument

import (
	"testing"

	"github.com/sosy-lab/tbf/pkg/cast"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupBackend(t *testing.T) {
	assert.Equal(t, []string{"crest", "klee", "plain", "random"}, Backends())
	for _, name := range Backends() {
		b, err := LookupBackend(name)
		require.NoError(t, err)
		assert.Equal(t, name, b.Name())
	}
	_, err := LookupBackend("cbmc")
	assert.Error(t, err)
}

func TestBackendMarkers(t *testing.T) {
	tests := []struct {
		backend Backend
		typ     string
		marker  string
	}{
		{Plain{}, "int", ""},
		{Klee{}, "long", `klee_make_symbolic(&v, sizeof(v), "v");` + "\n"},
		{Random{}, "struct s *", `input(&v, sizeof(v), "v");` + "\n"},
		{Crest{}, "unsigned char", "CREST_unsigned_char(v);\n"},
		{Crest{}, "signed short", "CREST_short(v);\n"},
		{Crest{}, "long long", "CREST_long_long(v);\n"},
		{Crest{}, "unsigned long int", "CREST_unsigned_long(v);\n"},
		{Crest{}, "long", "CREST_long(v);\n"},
		{Crest{}, "_Bool", "CREST_char(v);\n"},
		{Crest{}, "unsigned", "CREST_unsigned_int(v);\n"},
		{Crest{}, "double", "CREST_int(v);\n"},
		{Crest{}, "char *", "CREST_int(v);\n"},
	}
	for _, test := range tests {
		t.Run(test.backend.Name()+"/"+test.typ, func(t *testing.T) {
			decl, err := (&Method{Name: "v", Type: test.typ}).Decl()
			require.NoError(t, err)
			v := &cast.Decl{Name: "v", Type: cast.WithName(decl.Type.(*cast.FuncDecl).Type, "v")}
			assert.Nil(t, test.backend.Init(v))
			marker := test.backend.Marker(v)
			if test.marker == "" {
				assert.Nil(t, marker)
				return
			}
			assert.Equal(t, test.marker, cast.FormatNode(marker))
			assert.Equal(t, "exit(107)", cast.FormatNode(test.backend.ErrorCall()))
		})
	}
}

func TestPreambleParses(t *testing.T) {
	for _, name := range Backends() {
		if name == "crest" {
			// Needs the CREST headers.
			continue
		}
		b, _ := LookupBackend(name)
		_, err := cast.ParseSource([]byte(b.Preamble()), name+".c")
		assert.NoError(t, err, name)
	}
}
