// Package cli builds the command tree from the registry and runs it.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/spf13/cobra"

	"taskboard/internal/commands"
	"taskboard/internal/config"
	"taskboard/internal/exitcode"
	"taskboard/internal/gate"
	"taskboard/internal/service"
)

// ServiceFactory creates a Service from config.
// Used to inject the backend during dispatch.
type ServiceFactory func(ctx context.Context, cfg *config.Config) (service.Service, error)

// Dispatcher handles command-line parsing and dispatch.
type Dispatcher struct {
	registry *commands.Registry
	factory  ServiceFactory
}

// NewDispatcher creates a new dispatcher with the given registry and service factory.
func NewDispatcher(registry *commands.Registry, factory ServiceFactory) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		factory:  factory,
	}
}

// globals holds the flags shared by every command.
type globals struct {
	configDir string
	quiet     bool
	debug     bool
}

// Run parses arguments and dispatches to the appropriate command.
// Returns the exit code.
func (d *Dispatcher) Run(ctx context.Context, args []string, out, errOut io.Writer) int {
	var (
		g    globals
		code = exitcode.Success
	)

	root := &cobra.Command{
		Use:           "taskboard",
		Short:         "Manage tasks with image and video attachments",
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(c *cobra.Command, args []string) error {
			// Unknown names land here because the root accepts any args.
			if len(args) > 0 {
				fmt.Fprintf(errOut, "error: unknown command: %s\n", args[0])
				code = exitcode.UserError
				return nil
			}
			list, ok := d.registry.Find("list")
			if !ok {
				fmt.Fprintln(errOut, "error: unknown command: list")
				code = exitcode.UserError
				return nil
			}
			code = d.runCommand(c.Context(), list, nil, g, out, errOut)
			return nil
		},
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.SetOut(out)
	root.SetErr(errOut)
	root.SetArgs(args)

	pf := root.PersistentFlags()
	pf.StringVar(&g.configDir, "config", "", "override config directory")
	pf.BoolVar(&g.quiet, "quiet", false, "suppress informational output")
	pf.BoolVar(&g.debug, "debug", false, "print debug logs to stderr")

	root.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return &flagError{err: err}
	})
	root.SetHelpFunc(func(c *cobra.Command, _ []string) {
		var topic []string
		if c != root {
			topic = []string{c.Name()}
		}
		code = commands.NewHelpCmd(d.registry).Run(c.Context(), &config.Config{}, nil, topic, out, errOut)
	})

	for _, cmd := range d.registry.All() {
		cmd := cmd
		sub := &cobra.Command{
			Use:     cmd.Name(),
			Aliases: cmd.Aliases(),
			Short:   cmd.Synopsis(),
			Args:    cobra.ArbitraryArgs,
			RunE: func(c *cobra.Command, args []string) error {
				code = d.runCommand(c.Context(), cmd, args, g, out, errOut)
				return nil
			},
		}
		cmd.RegisterFlags(sub.Flags())
		if cmd.Name() == "help" {
			root.SetHelpCommand(sub)
			continue
		}
		root.AddCommand(sub)
	}

	if err := root.ExecuteContext(ctx); err != nil {
		var fe *flagError
		if errors.As(err, &fe) {
			fmt.Fprintf(errOut, "error: %v\n", fe.err)
		} else {
			fmt.Fprintf(errOut, "error: %v\n", err)
		}
		return exitcode.UserError
	}
	return code
}

// runCommand builds config and service for cmd and runs it.
func (d *Dispatcher) runCommand(ctx context.Context, cmd commands.Command, args []string, g globals, out, errOut io.Writer) int {
	cfg, err := config.New(g.configDir)
	if err != nil {
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.UserError
	}
	cfg.Quiet = g.quiet
	cfg.Debug = g.debug
	if g.debug {
		cfg.Log = log.New(errOut, "debug: ", log.LstdFlags)
	}

	needsService := cmd.NeedsService() || cmd.NeedsAuth()
	if err := cfg.Load(); err != nil {
		if needsService {
			fmt.Fprintf(errOut, "error: %v\n", err)
			return exitcode.AuthError
		}
		cfg.Logger().Printf("config: %v", err)
	}

	var svc service.Service
	if needsService {
		if d.factory == nil {
			fmt.Fprintln(errOut, "error: no backend configured")
			return exitcode.AuthError
		}
		svc, err = d.factory(ctx, cfg)
		if err != nil {
			if errors.Is(err, service.ErrUnauthorized) {
				fmt.Fprintf(errOut, "error: auth error: %v\n", err)
				return exitcode.AuthError
			}
			fmt.Fprintf(errOut, "error: backend error: %v\n", err)
			return exitcode.BackendError
		}
		if c, ok := svc.(io.Closer); ok {
			defer c.Close()
		}
	}

	if cmd.NeedsAuth() {
		if _, err := gate.Require(ctx, svc); err != nil {
			cfg.Logger().Printf("session: %v", err)
			fmt.Fprintln(errOut, "error: not logged in (run: taskboard login)")
			return exitcode.AuthError
		}
	}

	return cmd.Run(ctx, cfg, svc, args, out, errOut)
}

// flagError marks errors raised while parsing flags.
type flagError struct {
	err error
}

func (e *flagError) Error() string { return e.err.Error() }
func (e *flagError) Unwrap() error { return e.err }
