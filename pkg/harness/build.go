// Copyright 2017 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package harness

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"time"

	"github.com/sosy-lab/tbf/pkg/log"
	"github.com/sosy-lab/tbf/pkg/machine"
	"github.com/sosy-lab/tbf/pkg/osutil"
)

// Compiler builds harness executables.
type Compiler struct {
	// CC is the compiler binary, gcc if empty.
	CC      string
	Flags   []string
	Model   *machine.Model
	Timeout time.Duration
}

// Build compiles harness with program included in front of it into out.
// gnu11 is tried first, then gnu90 for programs that use old-style constructs.
func (c *Compiler) Build(ctx context.Context, program, harness, out string) error {
	var err error
	for _, std := range []string{"gnu11", "gnu90"} {
		args := []string{"-std=" + std}
		if c.Model != nil {
			args = append(args, c.Model.CFlag)
		}
		args = append(args, "-D__alias__(x)=")
		args = append(args, c.Flags...)
		args = append(args, "-o", out, "-include", program, harness, "-lm")
		if _, err = osutil.RunCmd(ctx, c.timeout(), "", c.cc(), args...); err == nil {
			return nil
		}
		log.Logf(1, "compiling %v with %v failed", harness, std)
	}
	return osutil.PrependContext(fmt.Sprintf("failed to build %v", harness), err)
}

func (c *Compiler) cc() string {
	if c.CC == "" {
		return "gcc"
	}
	return c.CC
}

func (c *Compiler) timeout() time.Duration {
	if c.Timeout == 0 {
		return 5 * time.Minute
	}
	return c.Timeout
}

// Format runs clang-format over a harness.
// If clang-format is not installed, the harness is returned unchanged.
func Format(ctx context.Context, data []byte) []byte {
	bin, err := exec.LookPath("clang-format")
	if err != nil {
		return data
	}
	cmd := osutil.Command(bin, "-style=LLVM")
	cmd.Stdin = bytes.NewReader(data)
	stdout := new(bytes.Buffer)
	cmd.Stdout = stdout
	if _, err := osutil.Run(ctx, time.Minute, cmd); err != nil {
		log.Logf(0, "clang-format failed: %v", err)
		return data
	}
	return stdout.Bytes()
}
