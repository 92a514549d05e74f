package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/pflag"

	"taskboard/internal/config"
	"taskboard/internal/exitcode"
	"taskboard/internal/service"
)

func init() {
	Register(&LogoutCmd{})
}

// LogoutCmd implements the logout command.
type LogoutCmd struct{}

func (c *LogoutCmd) Name() string       { return "logout" }
func (c *LogoutCmd) Aliases() []string  { return nil }
func (c *LogoutCmd) Synopsis() string   { return "Sign out and remove the stored session" }
func (c *LogoutCmd) Usage() string      { return "taskboard logout [common flags]" }
func (c *LogoutCmd) NeedsService() bool { return true }
func (c *LogoutCmd) NeedsAuth() bool    { return false }

func (c *LogoutCmd) RegisterFlags(fs *pflag.FlagSet) {}

func (c *LogoutCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	sess, err := svc.Session(ctx)
	if err != nil {
		// An unusable session is signed out all the same.
		cfg.Logger().Printf("session: %v", err)
	}
	if sess == nil && err == nil {
		if !cfg.Quiet {
			fmt.Fprintln(out, "not logged in")
		}
		return exitcode.Success
	}

	if signOutErr := svc.SignOut(ctx); signOutErr != nil {
		// A stored session the server no longer accepts is removed locally.
		if err == nil || !cfg.HasSession() {
			return fail(errOut, signOutErr)
		}
		cfg.Logger().Printf("sign out: %v", signOutErr)
		if rmErr := cfg.RemoveSession(); rmErr != nil {
			return fail(errOut, rmErr)
		}
	}

	ok(cfg, out)
	return exitcode.Success
}
