package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/pflag"

	"taskboard/internal/config"
	"taskboard/internal/exitcode"
	"taskboard/internal/gate"
	"taskboard/internal/service"
)

func init() {
	Register(&StatusCmd{})
}

// StatusCmd implements the status command.
type StatusCmd struct{}

func (c *StatusCmd) Name() string       { return "status" }
func (c *StatusCmd) Aliases() []string  { return []string{"whoami"} }
func (c *StatusCmd) Synopsis() string   { return "Show the backend and the signed-in user" }
func (c *StatusCmd) Usage() string      { return "taskboard status" }
func (c *StatusCmd) NeedsService() bool { return true }
func (c *StatusCmd) NeedsAuth() bool    { return false }

func (c *StatusCmd) RegisterFlags(fs *pflag.FlagSet) {}

func (c *StatusCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	fmt.Fprintf(out, "backend: table=%s storage=%s auth=%s\n", cfg.Backend.Table, cfg.Backend.Storage, cfg.Backend.Auth)

	sess, err := gate.Require(ctx, svc)
	if err != nil {
		cfg.Logger().Printf("session: %v", err)
		if cfg.HasSession() {
			fmt.Fprintln(out, "session: stored session is invalid (run: taskboard login)")
		} else {
			fmt.Fprintln(out, "session: not logged in")
		}
		return exitcode.Success
	}
	fmt.Fprintf(out, "session: logged in as %s\n", sess.User.Email)
	return exitcode.Success
}
