// Copyright 2020 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package tool

import (
	"errors"
	"flag"
	"strings"
)

// ListFlag allows passing a comma-separated list to a flag,
// e.g. -exclude=foo,bar or -cflags="-O0, -g".
type ListFlag []string

func (list *ListFlag) String() string {
	return strings.Join(*list, ",")
}

func (list *ListFlag) Set(value string) error {
	if len(*list) > 0 {
		return errors.New("list flag was already set")
	}
	for _, v := range strings.Split(value, ",") {
		if v = strings.TrimSpace(v); v != "" {
			*list = append(*list, v)
		}
	}
	return nil
}

// Visited returns the names of the flags set on the command line.
// Only these override values of a config file.
func Visited(set *flag.FlagSet) map[string]bool {
	visited := make(map[string]bool)
	set.Visit(func(f *flag.Flag) {
		visited[f.Name] = true
	})
	return visited
}
