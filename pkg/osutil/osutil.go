// Copyright 2017 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package osutil

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"time"
)

const (
	DefaultDirPerm  = 0755
	DefaultFilePerm = 0644
)

// RunCmd runs "bin args..." in dir with timeout and returns its output.
func RunCmd(ctx context.Context, timeout time.Duration, dir, bin string, args ...string) ([]byte, error) {
	cmd := Command(bin, args...)
	cmd.Dir = dir
	return Run(ctx, timeout, cmd)
}

// Run runs cmd until it exits, the timeout expires or ctx is cancelled.
// Returns combined output. If the command fails, err includes output.
// On timeout or cancellation the whole process group is killed,
// so engines that fork helpers do not outlive the run.
func Run(ctx context.Context, timeout time.Duration, cmd *exec.Cmd) ([]byte, error) {
	output := new(bytes.Buffer)
	if cmd.Stdout == nil {
		cmd.Stdout = output
	}
	if cmd.Stderr == nil {
		cmd.Stderr = output
	}
	setPdeathsig(cmd)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %v %+v: %w", cmd.Path, cmd.Args, err)
	}
	done := make(chan bool)
	timedout := make(chan bool, 1)
	timer := time.NewTimer(timeout)
	go func() {
		select {
		case <-timer.C:
			timedout <- true
			killPgroup(cmd)
			cmd.Process.Kill()
		case <-ctx.Done():
			timedout <- true
			timer.Stop()
			killPgroup(cmd)
			cmd.Process.Kill()
		case <-done:
			timedout <- false
			timer.Stop()
		}
	}()
	err := cmd.Wait()
	close(done)
	if err != nil {
		verr := &VerboseError{
			Title:  fmt.Sprintf("failed to run %q: %v", cmd.Args, err),
			Output: output.Bytes(),
		}
		if <-timedout {
			verr.Title = fmt.Sprintf("timedout after %v %q", timeout, cmd.Args)
			verr.Timeout = true
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			verr.ExitCode = exitErr.ExitCode()
		}
		return output.Bytes(), verr
	}
	return output.Bytes(), nil
}

// Command is similar to os/exec.Command, but also puts the process into
// its own process group and sets PDEATHSIG on linux.
func Command(bin string, args ...string) *exec.Cmd {
	cmd := exec.Command(bin, args...)
	setPdeathsig(cmd)
	return cmd
}

type VerboseError struct {
	Title    string
	Output   []byte
	ExitCode int
	Timeout  bool
}

func (err *VerboseError) Error() string {
	if len(err.Output) == 0 {
		return err.Title
	}
	return fmt.Sprintf("%v\n%s", err.Title, err.Output)
}

// IsTimeout says if err is a VerboseError of a command that was killed on timeout.
func IsTimeout(err error) bool {
	var verr *VerboseError
	return errors.As(err, &verr) && verr.Timeout
}

func PrependContext(ctx string, err error) error {
	var verr *VerboseError
	if errors.As(err, &verr) {
		verr.Title = fmt.Sprintf("%v: %v", ctx, verr.Title)
		return verr
	}
	return fmt.Errorf("%v: %w", ctx, err)
}

// IsExist returns true if the file name exists.
func IsExist(name string) bool {
	_, err := os.Stat(name)
	return err == nil
}

// IsAccessible checks if the file can be opened.
func IsAccessible(name string) error {
	if !IsExist(name) {
		return fmt.Errorf("%v does not exist", name)
	}
	f, err := os.Open(name)
	if err != nil {
		return fmt.Errorf("%v can't be opened (%w)", name, err)
	}
	f.Close()
	return nil
}

func MkdirAll(dir string) error {
	return os.MkdirAll(dir, DefaultDirPerm)
}

func WriteFile(filename string, data []byte) error {
	return os.WriteFile(filename, data, DefaultFilePerm)
}

// ListDir returns all file names in a directory, sorted.
func ListDir(dir string) ([]string, error) {
	f, err := os.Open(dir)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	names, err := f.Readdirnames(-1)
	sort.Strings(names)
	return names, err
}

var wd string

func init() {
	var err error
	wd, err = os.Getwd()
	if err != nil {
		panic(fmt.Sprintf("failed to get wd: %v", err))
	}
}

func Abs(path string) string {
	if wd1, err := os.Getwd(); err == nil && wd1 != wd {
		panic("don't mess with wd in a concurrent program")
	}
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(wd, path)
}
