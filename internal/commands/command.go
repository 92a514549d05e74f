// Package commands provides the command interface and implementations.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/pflag"

	"taskboard/internal/app"
	"taskboard/internal/config"
	"taskboard/internal/exitcode"
	"taskboard/internal/service"
)

// Command defines the interface for CLI commands.
type Command interface {
	// Name returns the primary command name.
	Name() string

	// Aliases returns alternative names for the command.
	Aliases() []string

	// Synopsis returns a short description for help output.
	Synopsis() string

	// Usage returns the usage string for help output.
	Usage() string

	// NeedsService returns true if the command talks to the backend.
	NeedsService() bool

	// NeedsAuth returns true if the command requires a signed-in session.
	// It implies NeedsService.
	NeedsAuth() bool

	// RegisterFlags registers command-specific flags.
	RegisterFlags(fs *pflag.FlagSet)

	// Run executes the command.
	// cfg is always provided (config dir, paths, backend settings).
	// svc is nil unless NeedsService or NeedsAuth returns true.
	// args contains positional arguments after flag parsing.
	// Returns exit code.
	Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int
}

// fail prints a backend error and returns the matching exit code.
func fail(errOut io.Writer, err error) int {
	switch {
	case errors.Is(err, service.ErrUnauthorized), errors.Is(err, service.ErrNoSession):
		fmt.Fprintf(errOut, "error: auth error: %v\n", err)
		return exitcode.AuthError
	case errors.Is(err, service.ErrTimeout):
		fmt.Fprintln(errOut, "error: backend error: request timed out")
		return exitcode.BackendError
	default:
		fmt.Fprintf(errOut, "error: backend error: %v\n", err)
		return exitcode.BackendError
	}
}

// parseTaskID parses the single task id argument.
func parseTaskID(args []string) (int64, error) {
	if len(args) == 0 {
		return 0, errors.New("task id required")
	}
	if len(args) > 1 {
		return 0, fmt.Errorf("unexpected argument: %s", args[1])
	}
	id, err := strconv.ParseInt(strings.TrimPrefix(args[0], "#"), 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid task id: %s", args[0])
	}
	return id, nil
}

// uploadFile uploads the file at path and returns its public URL.
// Errors caused by the file itself wrap errBadFile.
func uploadFile(ctx context.Context, cfg *config.Config, svc service.ObjectStore, cat service.Category, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errBadFile, err)
	}
	defer f.Close()

	url, err := app.NewUploader(svc, cfg.Logger()).Upload(ctx, cat, filepath.Base(path), f)
	if errors.Is(err, app.ErrMediaType) {
		return "", fmt.Errorf("%w: %s is not a %s file", errBadFile, path, cat)
	}
	return url, err
}

var errBadFile = errors.New("bad file")

// failUpload reports an uploadFile error.
func failUpload(errOut io.Writer, err error) int {
	if errors.Is(err, errBadFile) {
		fmt.Fprintf(errOut, "error: %s\n", strings.TrimPrefix(err.Error(), errBadFile.Error()+": "))
		return exitcode.UserError
	}
	return fail(errOut, err)
}

// ok prints the success marker unless quiet.
func ok(cfg *config.Config, out io.Writer) {
	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
}
