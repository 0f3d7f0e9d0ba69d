// Copyright 2017 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// Package generator provides the test generator (engine) registry and runs engine commands.
// The actual engines live in subpackages and register themselves.
package generator

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/sosy-lab/tbf/pkg/generator/genimpl"
	"github.com/sosy-lab/tbf/pkg/log"
	"github.com/sosy-lab/tbf/pkg/osutil"

	// Import all engines, so that users only need to import generator.
	_ "github.com/sosy-lab/tbf/pkg/generator/afl"
	_ "github.com/sosy-lab/tbf/pkg/generator/crest"
	_ "github.com/sosy-lab/tbf/pkg/generator/klee"
	_ "github.com/sosy-lab/tbf/pkg/generator/random"
)

type (
	Engine = genimpl.Engine
	Env    = genimpl.Env
)

// buildTimeout limits the commands that prepare the generator.
const buildTimeout = 10 * time.Minute

// noLimit stands in for a missing time limit.
const noLimit = 100 * 365 * 24 * time.Hour

// Create creates the engine name.
func Create(name string, env *Env) (Engine, error) {
	ctor := genimpl.Types[name]
	if ctor == nil {
		return nil, fmt.Errorf("unknown engine %q, known engines: %v", name, strings.Join(Names(), ", "))
	}
	if env.Model == nil {
		return nil, fmt.Errorf("engine %v: no machine model", name)
	}
	if err := osutil.MkdirAll(env.Workdir); err != nil {
		return nil, err
	}
	eng, err := ctor(env)
	if err != nil {
		return nil, fmt.Errorf("failed to create engine %v: %w", name, err)
	}
	return eng, nil
}

// Names returns names of all registered engines.
func Names() []string {
	var names []string
	for name := range genimpl.Types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Run runs the commands of eng for prepared in the workdir.
// The generator (the last command) is stopped when the time limit is reached
// or ctx is cancelled, which is a normal termination. finished says that
// the generator exited by itself.
func Run(ctx context.Context, eng Engine, env *Env, prepared string) (finished bool, err error) {
	cmds := eng.Commands(prepared)
	for i, args := range cmds {
		last := i == len(cmds)-1
		timeout := buildTimeout
		if last {
			timeout = env.Timelimit
			if timeout == 0 {
				timeout = noLimit
			}
		}
		cmd := osutil.Command(args[0], args[1:]...)
		cmd.Dir = env.Workdir
		cmd.Env = append(os.Environ(), eng.Env()...)
		if env.Debug {
			cmd.Stdout = log.VerboseWriter(0)
			cmd.Stderr = log.VerboseWriter(0)
		}
		log.Logf(1, "running %q", args)
		start := time.Now()
		var output []byte
		output, err = osutil.Run(ctx, timeout, cmd)
		log.Logf(2, "%v finished in %v:\n%s", args[0], time.Since(start), output)
		if err == nil {
			continue
		}
		if last && (osutil.IsTimeout(err) || ctx.Err() != nil) {
			log.Logf(1, "%v stopped after %v", args[0], time.Since(start))
			return false, nil
		}
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		return false, osutil.PrependContext(fmt.Sprintf("engine command %v failed", args[0]), err)
	}
	return true, nil
}
