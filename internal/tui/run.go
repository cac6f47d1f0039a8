package tui

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/glabrego/pona-cli/internal/shell"
)

// Terminal is the part of a running program that hands the terminal to a
// child process and takes it back.
type Terminal interface {
	ReleaseTerminal() error
	RestoreTerminal() error
}

// TerminalRunner releases the terminal while the pager or editor runs.
type TerminalRunner struct {
	Runner   shell.Runner
	Terminal Terminal
}

func (r TerminalRunner) Page(ctx context.Context, command, text string) error {
	return r.withTerminal(func() error { return r.Runner.Page(ctx, command, text) })
}

func (r TerminalRunner) Edit(ctx context.Context, command, path string) error {
	return r.withTerminal(func() error { return r.Runner.Edit(ctx, command, path) })
}

func (r TerminalRunner) withTerminal(run func() error) error {
	if err := r.Terminal.ReleaseTerminal(); err != nil {
		return fmt.Errorf("release terminal: %w", err)
	}
	runErr := run()
	if err := r.Terminal.RestoreTerminal(); err != nil && runErr == nil {
		return fmt.Errorf("restore terminal: %w", err)
	}
	return runErr
}

// Run drives sess from the keyboard until quit or ctx is cancelled.
func Run(ctx context.Context, sess *shell.Session, runner shell.Runner, in io.Reader, out io.Writer) error {
	p := tea.NewProgram(NewModel(ctx, sess), tea.WithContext(ctx), tea.WithInput(in), tea.WithOutput(out))
	if runner != nil {
		sess.SetRunner(TerminalRunner{Runner: runner, Terminal: p})
	}
	_, err := p.Run()
	if err != nil && ctx.Err() != nil && errors.Is(err, tea.ErrProgramKilled) {
		return nil
	}
	return err
}

// RunPlain reads lines from in without terminal handling. End of input runs
// the EOF command.
func RunPlain(ctx context.Context, exec Executor, in io.Reader, out io.Writer) error {
	exec.SetOutput(out)
	scanner := bufio.NewScanner(in)
	for !exec.Done() {
		if ctx.Err() != nil {
			return nil
		}
		fmt.Fprint(out, Prompt)
		line := "EOF"
		if scanner.Scan() {
			line = scanner.Text()
		} else if err := scanner.Err(); err != nil {
			return fmt.Errorf("read input: %w", err)
		} else {
			fmt.Fprintln(out)
		}
		exec.Execute(ctx, line)
	}
	return nil
}
