// Copyright 2020 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// Package tool contains helpers shared by the tbf command line tools.
package tool

import (
	"flag"
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"
)

// Init parses the command line flags and sets up profiling.
// The returned function must be deferred by main.
func Init() func() {
	cpuProfile := flag.String("cpuprofile", "", "write CPU profile to this file")
	memProfile := flag.String("memprofile", "", "write memory profile to this file")
	flag.Parse()
	stopCPU := startCPUProfile(*cpuProfile)
	return func() {
		stopCPU()
		if *memProfile != "" {
			writeHeapProfile(*memProfile)
		}
	}
}

func startCPUProfile(file string) func() {
	if file == "" {
		return func() {}
	}
	f, err := os.Create(file)
	if err != nil {
		Failf("failed to create cpu profile: %v", err)
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		Failf("failed to start cpu profile: %v", err)
	}
	return func() {
		pprof.StopCPUProfile()
		f.Close()
	}
}

func writeHeapProfile(file string) {
	f, err := os.Create(file)
	if err != nil {
		Failf("failed to create memory profile: %v", err)
	}
	defer f.Close()
	runtime.GC()
	if err := pprof.WriteHeapProfile(f); err != nil {
		Failf("failed to write memory profile: %v", err)
	}
}

func Failf(msg string, args ...any) {
	fmt.Fprintf(os.Stderr, msg+"\n", args...)
	os.Exit(1)
}

func Fail(err error) {
	Failf("%v", err)
}
