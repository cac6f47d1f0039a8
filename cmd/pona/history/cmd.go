// Package historycmd implements the `pona history` command.
package historycmd

import (
	"fmt"

	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/glabrego/pona-cli/cmd/pona/shared"
)

// Command implements `pona history`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command

	limit int
}

// New creates the history command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "history",
		Short: "Print recently entered command lines",
		Args:  cobra.NoArgs,
		RunE:  c.run,
	}

	c.cmd.Flags().IntVar(&c.limit, "limit", 20, "Maximum number of lines to show")

	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) run(cmd *cobra.Command, _ []string) error {
	cfg, err := c.ctx.LoadConfig()
	if err != nil {
		return err
	}
	repo, err := shared.OpenHistory(cmd.Context(), cfg.HistoryDB)
	if err != nil {
		return err
	}
	defer repo.Close()

	entries, err := repo.Recent(cmd.Context(), c.limit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No history yet.")
		return nil
	}

	table := uitable.New()
	table.MaxColWidth = 80
	for _, entry := range entries {
		table.AddRow(entry.ID, entry.At.Local().Format("2006-01-02 15:04"), entry.Line)
	}
	fmt.Fprintln(cmd.OutOrStdout(), table)
	return nil
}
