// Package rootcmd wires the root cobra.Command for the pona binary.
package rootcmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	historycmd "github.com/glabrego/pona-cli/cmd/pona/history"
	"github.com/glabrego/pona-cli/cmd/pona/shared"
	"github.com/glabrego/pona-cli/internal/config"
	"github.com/glabrego/pona-cli/internal/diaspora"
	"github.com/glabrego/pona-cli/internal/notes"
	"github.com/glabrego/pona-cli/internal/observability"
	"github.com/glabrego/pona-cli/internal/platform"
	"github.com/glabrego/pona-cli/internal/shell"
	"github.com/glabrego/pona-cli/internal/tui"
)

// Command implements `pona [user@pod]`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command

	plain bool
}

// New creates the root command.
func New() *cobra.Command {
	c := &Command{ctx: &shared.Context{}}
	c.cmd = &cobra.Command{
		Use:           "pona [user@pod]",
		Short:         "Line-oriented client for diaspora* pods",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          c.run,
	}

	c.cmd.PersistentFlags().StringVar(
		&c.ctx.ConfigFile, "config", "",
		"Config file (default ~/.config/pona/config.yaml)",
	)
	c.cmd.Flags().BoolVar(&c.plain, "plain", false, "Read commands line by line without terminal handling")

	c.cmd.AddCommand(historycmd.New(c.ctx).Cmd())

	return c.cmd
}

func (c *Command) run(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := c.ctx.LoadConfig()
	if err != nil {
		return err
	}

	logger, closeLog, err := openLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLog()
	observability.SetLogger(logger)

	repo, err := shared.OpenHistory(ctx, cfg.HistoryDB)
	if err != nil {
		return err
	}
	defer repo.Close()

	store, err := notes.NewStore(cfg.NotesDir)
	if err != nil {
		return fmt.Errorf("notes init error: %w", err)
	}

	runner := platform.NewRunner()
	sess := shell.New(shell.Options{
		Dial:      func(pod string) shell.Feed { return diaspora.NewClient(pod, nil) },
		Notes:     store,
		Runner:    runner,
		History:   repo,
		Logger:    logger,
		Out:       cmd.OutOrStdout(),
		Password:  cfg.Password,
		Pager:     cfg.Pager,
		Editor:    cfg.Editor,
		Shortcuts: cfg.Shortcuts,
	})

	account := cfg.Account
	if len(args) == 1 {
		account = args[0]
	}
	if account != "" {
		sess.Enqueue("account " + account)
	}
	if path, ok := config.FindRCFile(); ok {
		lines, err := config.ReadRCFile(path)
		if err != nil {
			return err
		}
		logger.Debug("queued rc file", "path", path, "lines", len(lines))
		sess.Enqueue(lines...)
	}

	sess.RunQueued(ctx)
	if sess.Done() {
		return nil
	}

	if !c.plain && isTerminal(os.Stdin) && isTerminal(os.Stdout) {
		return tui.Run(ctx, sess, runner, os.Stdin, os.Stdout)
	}
	return tui.RunPlain(ctx, sess, cmd.InOrStdin(), cmd.OutOrStdout())
}

func openLogger(cfg config.Config) (*slog.Logger, func(), error) {
	if cfg.LogFile == "" {
		return observability.Logger(), func() {}, nil
	}
	if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0o700); err != nil {
		return nil, nil, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	logger, err := observability.New(io.Writer(f), cfg.LogLevel)
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	return logger, func() { f.Close() }, nil
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
