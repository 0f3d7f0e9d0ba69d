// Copyright 2015 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package tbfconfig

import (
	"fmt"
	"slices"
	"time"

	"github.com/sosy-lab/tbf/pkg/config"
	"github.com/sosy-lab/tbf/pkg/generator"
	"github.com/sosy-lab/tbf/pkg/machine"
	"github.com/sosy-lab/tbf/pkg/osutil"
)

func LoadData(data []byte) (*Config, error) {
	cfg := Default()
	if err := config.LoadData(data, cfg); err != nil {
		return nil, err
	}
	if err := Complete(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func LoadFile(filename string) (*Config, error) {
	cfg, err := LoadPartialFile(filename)
	if err != nil {
		return nil, err
	}
	if err := Complete(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadPartialFile loads the config without Complete, so that command line flags can
// override values before validation.
func LoadPartialFile(filename string) (*Config, error) {
	cfg := Default()
	if err := config.LoadFile(filename, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns a config with default values, partial until Complete.
func Default() *Config {
	return &Config{
		Workdir:             "tbf-workdir",
		Engine:              "random",
		Machine:             "32",
		Timelimit:           900,
		ValidationTimelimit: 5,
		Strategy:            Execution,
		WriteHarness:        true,
		WriteVectors:        true,
		Procs:               1,
		Compiler:            "gcc",
		Producer:            "tbf",
	}
}

func Complete(cfg *Config) error {
	if cfg.Program == "" {
		return fmt.Errorf("config param program is empty")
	}
	if err := osutil.IsAccessible(cfg.Program); err != nil {
		return err
	}
	cfg.Program = osutil.Abs(cfg.Program)
	if cfg.Workdir == "" {
		return fmt.Errorf("config param workdir is empty")
	}
	cfg.Workdir = osutil.Abs(cfg.Workdir)
	if !slices.Contains(generator.Names(), cfg.Engine) {
		return fmt.Errorf("bad config param engine: %q, want one of %v", cfg.Engine, generator.Names())
	}
	var err error
	if cfg.Model, err = machine.Lookup(cfg.Machine); err != nil {
		return err
	}
	switch cfg.Strategy {
	case Execution, Witness, Both:
	default:
		return fmt.Errorf("config param strategy must contain one of %v/%v/%v", Execution, Witness, Both)
	}
	if cfg.Timelimit < 0 {
		return fmt.Errorf("bad config param timelimit: %v", cfg.Timelimit)
	}
	if cfg.ValidationTimelimit <= 0 {
		return fmt.Errorf("bad config param validation_timelimit: %v", cfg.ValidationTimelimit)
	}
	cfg.Timeout = time.Duration(cfg.Timelimit) * time.Second
	cfg.ValidationTimeout = time.Duration(cfg.ValidationTimelimit) * time.Second
	if cfg.Procs < 1 || cfg.Procs > 64 {
		return fmt.Errorf("bad config param procs: '%v', want [1, 64]", cfg.Procs)
	}
	if cfg.Compiler == "" {
		cfg.Compiler = "gcc"
	}
	if cfg.Producer == "" {
		return fmt.Errorf("config param producer is empty")
	}
	return nil
}
