// ABOUTME: Sign-in commands: login, logout, whoami and passwd
// ABOUTME: The refresh cookie is kept in the state directory between runs

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/markalston/clinic-console/internal/client"
	"github.com/markalston/clinic-console/internal/i18n"
	"github.com/markalston/clinic-console/internal/session"
)

var loginEmail string

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to the backend",
	Long: `Sign in with an email and password. The password is read without echo
from a terminal, or as a line from standard input when piped.`,
	Args: cobra.NoArgs,
	Run: command(func(ctx context.Context, cmd *cobra.Command, args []string) int {
		return runLogin(ctx, os.Stdin, os.Stdout, loginEmail)
	}),
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and forget the saved session",
	Args:  cobra.NoArgs,
	Run: command(func(ctx context.Context, cmd *cobra.Command, args []string) int {
		return runLogout(ctx, os.Stdout)
	}),
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in account",
	Args:  cobra.NoArgs,
	Run: command(func(ctx context.Context, cmd *cobra.Command, args []string) int {
		return runWhoami(ctx, os.Stdout)
	}),
}

var passwdCmd = &cobra.Command{
	Use:   "passwd",
	Short: "Change your password",
	Args:  cobra.NoArgs,
	Run: command(func(ctx context.Context, cmd *cobra.Command, args []string) int {
		return runPasswd(ctx, os.Stdin, os.Stdout)
	}),
}

func init() {
	rootCmd.AddCommand(loginCmd, logoutCmd, whoamiCmd, passwdCmd)
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "Account email (prompted when empty)")
}

func runLogin(ctx context.Context, in io.Reader, w io.Writer, email string) int {
	c, err := openConsole()
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitFailed
	}

	p := newPrompter(in, w)
	if email == "" {
		if email, err = p.line(i18n.T("login.email") + ": "); err != nil {
			fmt.Fprintf(w, "Error: %v\n", err)
			return exitFailed
		}
	}
	password, err := p.secret(i18n.T("login.password") + ": ")
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitFailed
	}

	auth, err := c.client.Login(ctx, client.Credentials{Email: strings.TrimSpace(email), Password: password})
	if err != nil {
		return fail(w, err)
	}

	fmt.Fprintln(w, signedIn(auth.User))
	if auth.User.MustChangePassword {
		fmt.Fprintln(w, i18n.T("cli.must_change_password"))
	}
	return exitOK
}

func runLogout(ctx context.Context, w io.Writer) int {
	c, err := openConsole()
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitFailed
	}
	c.boot(ctx)
	c.client.Logout(ctx)
	if err := c.jar.Clear(); err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitFailed
	}
	fmt.Fprintln(w, i18n.T("cli.signed_out"))
	return exitOK
}

func runWhoami(ctx context.Context, w io.Writer) int {
	c, err := openConsole()
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitFailed
	}
	snap := c.boot(ctx)
	if !snap.Authenticated() {
		fmt.Fprintln(w, i18n.T("cli.not_signed_in"))
		return exitNoSession
	}

	id := snap.Identity
	err = render(w, id, func() string {
		var sb strings.Builder
		sb.WriteString(signedIn(*id))
		sb.WriteString("\n")
		sb.WriteString(i18n.T("cli.backend", map[string]any{"URL": c.client.BaseURL()}))
		if id.MustChangePassword {
			sb.WriteString("\n")
			sb.WriteString(i18n.T("cli.must_change_password"))
		}
		return sb.String()
	})
	if err != nil {
		return fail(w, err)
	}
	return exitOK
}

func runPasswd(ctx context.Context, in io.Reader, w io.Writer) int {
	c, err := openConsole()
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitFailed
	}
	if _, code := c.check(ctx, w, false, session.AllRoles); code != exitOK {
		return code
	}

	p := newPrompter(in, w)
	var change client.PasswordChange
	var confirm string
	for _, f := range []struct {
		label string
		dst   *string
	}{
		{i18n.T("passwd.current"), &change.CurrentPassword},
		{i18n.T("passwd.new"), &change.NewPassword},
		{i18n.T("passwd.confirm"), &confirm},
	} {
		if *f.dst, err = p.secret(f.label + ": "); err != nil {
			fmt.Fprintf(w, "Error: %v\n", err)
			return exitFailed
		}
	}
	if change.NewPassword != confirm {
		fmt.Fprintln(w, "Error: "+i18n.T("passwd.mismatch"))
		return exitFailed
	}

	if err := c.client.ChangePassword(ctx, change); err != nil {
		return fail(w, err)
	}
	fmt.Fprintln(w, i18n.T("cli.password_changed"))
	return exitOK
}

func signedIn(id session.Identity) string {
	return i18n.T("whoami.signed_in", map[string]any{"Email": id.Email, "Role": id.Role})
}
