package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"taskboard/internal/config"
	"taskboard/internal/exitcode"
	"taskboard/internal/service"
)

func init() {
	Register(&LoginCmd{})
}

// LoginCmd implements the login command.
type LoginCmd struct {
	email         string
	passwordStdin bool
	signup        bool

	in io.Reader
}

// SetInput replaces stdin (for testing).
func (c *LoginCmd) SetInput(r io.Reader) {
	c.in = r
}

func (c *LoginCmd) Name() string       { return "login" }
func (c *LoginCmd) Aliases() []string  { return nil }
func (c *LoginCmd) Synopsis() string   { return "Sign in (or sign up) and store the session" }
func (c *LoginCmd) Usage() string      { return "taskboard login [--email <e>] [--password-stdin] [--signup]" }
func (c *LoginCmd) NeedsService() bool { return true }
func (c *LoginCmd) NeedsAuth() bool    { return false }

func (c *LoginCmd) RegisterFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&c.email, "email", "e", "", "account email")
	fs.BoolVar(&c.passwordStdin, "password-stdin", false, "read the password from stdin")
	fs.BoolVar(&c.signup, "signup", false, "create the account first")
}

func (c *LoginCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}

	in := c.in
	if in == nil {
		in = os.Stdin
	}
	reader := bufio.NewReader(in)

	email := strings.TrimSpace(c.email)
	if email == "" {
		fmt.Fprint(errOut, "Email: ")
		line, err := readLine(reader)
		if err != nil {
			fmt.Fprintf(errOut, "error: failed to read email: %v\n", err)
			return exitcode.UserError
		}
		email = strings.TrimSpace(line)
	}

	password, err := c.readPassword(in, reader, errOut)
	if err != nil {
		fmt.Fprintf(errOut, "error: failed to read password: %v\n", err)
		return exitcode.UserError
	}
	if email == "" || password == "" {
		fmt.Fprintln(errOut, "error: email and password required")
		return exitcode.UserError
	}

	if err := cfg.EnsureDir(); err != nil {
		fmt.Fprintf(errOut, "error: failed to create config directory: %v\n", err)
		return exitcode.AuthError
	}

	var sess *service.Session
	if c.signup {
		sess, err = svc.SignUp(ctx, email, password)
	} else {
		sess, err = svc.SignIn(ctx, email, password)
	}
	if err != nil {
		if errors.Is(err, service.ErrUnauthorized) {
			fmt.Fprintf(errOut, "error: login failed: %v\n", err)
			return exitcode.AuthError
		}
		return fail(errOut, err)
	}

	if sess == nil {
		if !cfg.Quiet {
			fmt.Fprintln(out, "check your email to confirm your account, then run: taskboard login")
		}
		return exitcode.Success
	}
	cfg.Logger().Printf("signed in as %s", sess.User.Email)
	ok(cfg, out)
	return exitcode.Success
}

// readPassword reads the password without echo when stdin is a terminal.
func (c *LoginCmd) readPassword(in io.Reader, reader *bufio.Reader, errOut io.Writer) (string, error) {
	if !c.passwordStdin {
		if f, isFile := in.(*os.File); isFile && term.IsTerminal(int(f.Fd())) {
			fmt.Fprint(errOut, "Password: ")
			data, err := term.ReadPassword(int(f.Fd()))
			fmt.Fprintln(errOut)
			return string(data), err
		}
		fmt.Fprint(errOut, "Password: ")
	}
	return readLine(reader)
}

// readLine reads one line without its terminator. A final line without a
// newline is accepted.
func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
