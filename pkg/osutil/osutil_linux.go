// Copyright 2017 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package osutil

import (
	"os/exec"

	"golang.org/x/sys/unix"
)

func setPdeathsig(cmd *exec.Cmd) {
	setPgid(cmd)
	// Generators must die with us.
	cmd.SysProcAttr.Pdeathsig = unix.SIGKILL
}
