// ABOUTME: Shared plumbing for commands that talk to the backend
// ABOUTME: Builds the client, runs the bootstrap gate and checks the command's roles

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/markalston/clinic-console/internal/authz"
	"github.com/markalston/clinic-console/internal/bootstrap"
	"github.com/markalston/clinic-console/internal/client"
	"github.com/markalston/clinic-console/internal/credstore"
	"github.com/markalston/clinic-console/internal/i18n"
	"github.com/markalston/clinic-console/internal/session"
	"github.com/markalston/clinic-console/internal/validation"
)

// Exit codes
const (
	exitOK        = 0
	exitFailed    = 1
	exitNoSession = 2
	exitForbidden = 3
)

// console is one process's view of the backend.
type console struct {
	client *client.Client
	jar    *credstore.Jar
	gate   *bootstrap.Gate
}

func openConsole() (*console, error) {
	jar, err := credstore.Open(settings.StateDir)
	if err != nil {
		return nil, fmt.Errorf("opening session state: %w", err)
	}
	c := client.New(settings.APIURL, session.NewStore(),
		client.WithCookieJar(jar),
		client.WithTimeout(settings.Timeout),
	)
	return &console{
		client: c,
		jar:    jar,
		gate:   bootstrap.New(c.Store(), c, settings.RefreshTimeout),
	}, nil
}

// boot restores the session from the saved cookie, if any.
func (c *console) boot(ctx context.Context) session.Snapshot {
	c.gate.Run(ctx)
	return c.client.Store().Snapshot()
}

// authorize boots the session and checks it against roles. A non-zero code
// means the command must stop; the reason has already been written to w.
func (c *console) authorize(ctx context.Context, w io.Writer, roles ...session.Role) (session.Snapshot, int) {
	return c.check(ctx, w, true, roles)
}

// check is authorize with the pending password change made optional, for
// the commands a user with a temporary password still needs.
func (c *console) check(ctx context.Context, w io.Writer, passwordChanged bool, roles []session.Role) (session.Snapshot, int) {
	snap := c.boot(ctx)
	switch authz.Evaluate(roles, snap) {
	case authz.RedirectLogin:
		fmt.Fprintln(w, i18n.T("cli.not_signed_in"))
		return snap, exitNoSession
	case authz.Forbidden:
		fmt.Fprintln(w, i18n.T("cli.forbidden", map[string]any{"Role": snap.Identity.Role}))
		return snap, exitForbidden
	case authz.Pending:
		return snap, exitNoSession
	}
	if passwordChanged && snap.Identity.MustChangePassword {
		fmt.Fprintln(w, i18n.T("cli.must_change_password"))
		return snap, exitForbidden
	}
	return snap, exitOK
}

// protected opens the console and authorizes it for roles, then calls fn.
func protected(ctx context.Context, w io.Writer, roles []session.Role, fn func(*console) int) int {
	c, err := openConsole()
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitFailed
	}
	if _, code := c.authorize(ctx, w, roles...); code != exitOK {
		return code
	}
	return fn(c)
}

// fail reports err and maps it to an exit code.
func fail(w io.Writer, err error) int {
	if errors.Is(err, validation.ErrInvalid) {
		fmt.Fprintf(w, "Error: %s\n", validation.Message(err))
		return exitFailed
	}

	fmt.Fprintf(w, "Error: %s\n", client.Message(err))
	var apiErr *client.APIError
	switch {
	case errors.Is(err, client.ErrUnauthorized):
		return exitNoSession
	case errors.Is(err, client.ErrForbidden):
		return exitForbidden
	case errors.As(err, &apiErr):
		return exitFailed
	default:
		// Transport errors
		return exitNoSession
	}
}

// command wraps a runX function as a cobra Run that exits with its code.
func command(run func(ctx context.Context, cmd *cobra.Command, args []string) int) func(*cobra.Command, []string) {
	return func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		if code := run(ctx, cmd, args); code != exitOK {
			cancel()
			os.Exit(code)
		}
	}
}
