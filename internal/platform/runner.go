// Package platform starts the external pager and editor.
package platform

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

var ErrExecutableNotFound = errors.New("executable not found")

// Runner runs configured command lines with the terminal attached.
type Runner struct {
	LookPath func(string) (string, error)
	Stdin    io.Reader
	Stdout   io.Writer
	Stderr   io.Writer
}

func NewRunner() Runner {
	return Runner{LookPath: exec.LookPath, Stdin: os.Stdin, Stdout: os.Stdout, Stderr: os.Stderr}
}

// Page feeds text to the pager on its standard input.
func (r Runner) Page(ctx context.Context, command, text string) error {
	cmd, err := r.command(ctx, command)
	if err != nil {
		return err
	}
	cmd.Stdin = strings.NewReader(text)
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("run %s: %w", cmd.Args[0], err)
	}
	return nil
}

// Edit opens path in the editor and waits for it to exit.
func (r Runner) Edit(ctx context.Context, command, path string) error {
	cmd, err := r.command(ctx, command, path)
	if err != nil {
		return err
	}
	cmd.Stdin = r.Stdin
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("run %s: %w", cmd.Args[0], err)
	}
	return nil
}

func (r Runner) command(ctx context.Context, command string, extra ...string) (*exec.Cmd, error) {
	name, args, err := splitCommandLine(command)
	if err != nil {
		return nil, err
	}
	lookPath := r.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	path, err := lookPath(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrExecutableNotFound, name)
	}
	cmd := exec.CommandContext(ctx, path, append(args, extra...)...)
	cmd.Args[0] = name
	return cmd, nil
}

func splitCommandLine(command string) (string, []string, error) {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return "", nil, fmt.Errorf("empty command")
	}
	return fields[0], fields[1:], nil
}
