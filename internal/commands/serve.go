package commands

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/spf13/pflag"

	"taskboard/internal/config"
	"taskboard/internal/exitcode"
	"taskboard/internal/service"
	"taskboard/internal/uistate"
	"taskboard/internal/web"
)

func init() {
	Register(&ServeCmd{})
}

// ServeCmd implements the serve command: the web UI.
type ServeCmd struct {
	addr string
}

// SetAddr sets the listen address (for testing).
func (c *ServeCmd) SetAddr(addr string) {
	c.addr = addr
}

func (c *ServeCmd) Name() string       { return "serve" }
func (c *ServeCmd) Aliases() []string  { return []string{"web"} }
func (c *ServeCmd) Synopsis() string   { return "Serve the web UI" }
func (c *ServeCmd) Usage() string      { return "taskboard serve [--addr <host:port>]" }
func (c *ServeCmd) NeedsService() bool { return true }
func (c *ServeCmd) NeedsAuth() bool    { return false }

func (c *ServeCmd) RegisterFlags(fs *pflag.FlagSet) {
	fs.StringVar(&c.addr, "addr", "", "listen address (default: web.addr)")
}

func (c *ServeCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	addr := c.addr
	if addr == "" {
		addr = cfg.Web.Addr
	}

	states := uistate.New(cfg.Redis)
	defer states.Close()

	opts := web.Options{
		Service: svc,
		States:  states,
		Log:     log.New(errOut, "", log.LstdFlags),
	}
	if !cfg.Quiet {
		opts.AccessLog = errOut
	}
	if cfg.Backend.Storage == config.KindLocal {
		opts.FilesDir = cfg.Local.Dir
	}

	srv, err := web.NewServer(opts)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	if err := srv.Run(ctx, addr); err != nil {
		fmt.Fprintf(errOut, "error: server: %v\n", err)
		return exitcode.BackendError
	}
	return exitcode.Success
}
