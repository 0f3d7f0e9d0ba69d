// Copyright 2017 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// Package config loads JSON and YAML configs into structs.
// JSON configs may contain comment lines starting with #.
// Unknown fields are an error in both formats.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"regexp"

	"github.com/sosy-lab/tbf/pkg/osutil"
	"sigs.k8s.io/yaml"
)

func LoadFile(filename string, cfg any) error {
	if filename == "" {
		return fmt.Errorf("no config file specified")
	}
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	switch filepath.Ext(filename) {
	case ".yaml", ".yml":
		data, err = yaml.YAMLToJSON(data)
		if err != nil {
			return fmt.Errorf("failed to parse config file: %w", err)
		}
	}
	return LoadData(data, cfg)
}

var commentRe = regexp.MustCompile(`(^|\n)\s*#[^\n]*`)

// LoadData loads a JSON config, or a YAML config if data is not a JSON object.
func LoadData(data []byte, cfg any) error {
	if typ := reflect.TypeOf(cfg); typ == nil || typ.Kind() != reflect.Ptr || typ.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("config type is not pointer to struct")
	}
	// Remove comment lines starting with #.
	data = commentRe.ReplaceAll(data, nil)
	if trimmed := bytes.TrimSpace(data); len(trimmed) != 0 && trimmed[0] != '{' {
		var err error
		if data, err = yaml.YAMLToJSON(data); err != nil {
			return fmt.Errorf("failed to parse config file: %w", err)
		}
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

func SaveFile(filename string, cfg any) error {
	var data []byte
	var err error
	switch filepath.Ext(filename) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(cfg)
	default:
		data, err = json.MarshalIndent(cfg, "", "\t")
	}
	if err != nil {
		return err
	}
	return osutil.WriteFile(filename, data)
}

// MergeJSONData merges right into left. Objects are merged recursively,
// any other value in right replaces the one in left.
func MergeJSONData(left, right []byte) ([]byte, error) {
	vLeft := map[string]any{}
	if len(bytes.TrimSpace(left)) != 0 {
		if err := json.Unmarshal(left, &vLeft); err != nil {
			return nil, fmt.Errorf("failed to unmarshal left: %w", err)
		}
	}
	vRight := map[string]any{}
	if len(bytes.TrimSpace(right)) != 0 {
		if err := json.Unmarshal(right, &vRight); err != nil {
			return nil, fmt.Errorf("failed to unmarshal right: %w", err)
		}
	}
	return json.Marshal(mergeRecursive(vLeft, vRight))
}

func mergeRecursive(left, right any) any {
	l, lok := left.(map[string]any)
	r, rok := right.(map[string]any)
	if !lok || !rok {
		return right
	}
	for k, v := range r {
		if lv, ok := l[k]; ok {
			l[k] = mergeRecursive(lv, v)
		} else {
			l[k] = v
		}
	}
	return l
}
