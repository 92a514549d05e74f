package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/pflag"

	"taskboard/internal/config"
	"taskboard/internal/exitcode"
	"taskboard/internal/service"
	"taskboard/internal/tui"
)

func init() {
	Register(&TuiCmd{})
}

// TuiCmd implements the tui command.
type TuiCmd struct{}

func (c *TuiCmd) Name() string       { return "tui" }
func (c *TuiCmd) Aliases() []string  { return nil }
func (c *TuiCmd) Synopsis() string   { return "Open the terminal UI" }
func (c *TuiCmd) Usage() string      { return "taskboard tui" }
func (c *TuiCmd) NeedsService() bool { return true }
func (c *TuiCmd) NeedsAuth() bool    { return false }

func (c *TuiCmd) RegisterFlags(fs *pflag.FlagSet) {}

func (c *TuiCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	if err := tui.Run(ctx, svc, cfg.Logger()); err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.BackendError
	}
	return exitcode.Success
}
