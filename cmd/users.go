// ABOUTME: Staff account commands for administrators
// ABOUTME: list, create, role, status and delete against /users

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

var (
	adminOnly = []session.Role{session.RoleAdmin}
	frontDesk = []session.Role{session.RoleAdmin, session.RoleReception}
)

var (
	usersSearch string
	usersRole   string
	newUser     client.NewUser
	newUserRole string
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage staff accounts",
}

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List staff accounts",
	Long:  `List staff accounts. Reception sees active doctors only.`,
	Args:  cobra.NoArgs,
	Run: command(func(ctx context.Context, cmd *cobra.Command, args []string) int {
		return runUsersList(ctx, os.Stdout, usersSearch, usersRole)
	}),
}

var usersCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a staff account with a temporary password",
	Args:  cobra.NoArgs,
	Run: command(func(ctx context.Context, cmd *cobra.Command, args []string) int {
		u := newUser
		u.Role = session.Role(newUserRole)
		return runUsersCreate(ctx, os.Stdout, u)
	}),
}

var usersRoleCmd = &cobra.Command{
	Use:   "role <id> <admin|doctor|reception>",
	Short: "Change an account's role",
	Args:  cobra.ExactArgs(2),
	Run: command(func(ctx context.Context, cmd *cobra.Command, args []string) int {
		return runUsersRole(ctx, os.Stdout, args[0], args[1])
	}),
}

var usersStatusCmd = &cobra.Command{
	Use:   "status <id> <active|inactive>",
	Short: "Activate or deactivate an account",
	Args:  cobra.ExactArgs(2),
	Run: command(func(ctx context.Context, cmd *cobra.Command, args []string) int {
		return runUsersStatus(ctx, os.Stdout, args[0], args[1])
	}),
}

var usersDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an account",
	Args:  cobra.ExactArgs(1),
	Run: command(func(ctx context.Context, cmd *cobra.Command, args []string) int {
		return runUsersDelete(ctx, os.Stdout, args[0])
	}),
}

func init() {
	rootCmd.AddCommand(usersCmd)
	usersCmd.AddCommand(usersListCmd, usersCreateCmd, usersRoleCmd, usersStatusCmd, usersDeleteCmd)

	usersListCmd.Flags().StringVarP(&usersSearch, "search", "q", "", "Match name or email")
	usersListCmd.Flags().StringVar(&usersRole, "role", "", "Only this role")

	f := usersCreateCmd.Flags()
	f.StringVar(&newUser.Email, "email", "", "Email address")
	f.StringVar(&newUser.FirstName, "first-name", "", "First name")
	f.StringVar(&newUser.LastName, "last-name", "", "Last name")
	f.StringVar(&newUserRole, "role", "", "admin, doctor or reception")
	f.StringVar(&newUser.TemporaryPassword, "temporary-password", "", "Password the user must change at first sign-in")
	for _, name := range []string{"email", "first-name", "last-name", "role", "temporary-password"} {
		_ = usersCreateCmd.MarkFlagRequired(name)
	}
}

func runUsersList(ctx context.Context, w io.Writer, q, role string) int {
	var filter session.Role
	if role != "" {
		r, err := session.ParseRole(role)
		if err != nil {
			fmt.Fprintf(w, "Error: %v\n", err)
			return exitFailed
		}
		filter = r
	}

	return protected(ctx, w, frontDesk, func(c *console) int {
		list, err := c.client.ListUsers(ctx, q, filter)
		if err != nil {
			return fail(w, err)
		}
		if err := render(w, list, func() string { return usersTable(list) }); err != nil {
			return fail(w, err)
		}
		return exitOK
	})
}

func usersTable(list []client.User) string {
	if len(list) == 0 {
		return i18n.T("users.empty")
	}
	t := newTable("ID", i18n.T("users.col_name"), i18n.T("users.col_email"), i18n.T("users.col_role"), i18n.T("users.col_status"))
	for _, u := range list {
		status := i18n.T("users.active")
		if !u.IsActive {
			status = i18n.T("users.inactive")
		}
		t.Row(u.ID, u.FullName(), u.Email, i18n.T("role."+string(u.Role)), status)
	}
	return t.Render()
}

func runUsersCreate(ctx context.Context, w io.Writer, u client.NewUser) int {
	u.Email = strings.TrimSpace(u.Email)
	return protected(ctx, w, adminOnly, func(c *console) int {
		created, err := c.client.CreateUser(ctx, u)
		if err != nil {
			return fail(w, err)
		}
		err = render(w, created, func() string {
			return i18n.T("users.created", map[string]any{"Email": created.Email}) + "\n" + created.ID
		})
		if err != nil {
			return fail(w, err)
		}
		return exitOK
	})
}

func runUsersRole(ctx context.Context, w io.Writer, id, role string) int {
	r, err := session.ParseRole(role)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitFailed
	}
	return protected(ctx, w, adminOnly, func(c *console) int {
		u, err := c.client.ChangeUserRole(ctx, id, r)
		if err != nil {
			return fail(w, err)
		}
		err = render(w, u, func() string {
			return i18n.T("users.role_changed", map[string]any{"Name": u.FullName(), "Role": i18n.T("role." + string(u.Role))})
		})
		if err != nil {
			return fail(w, err)
		}
		return exitOK
	})
}

func runUsersStatus(ctx context.Context, w io.Writer, id, status string) int {
	var active bool
	switch strings.ToLower(status) {
	case "active":
		active = true
	case "inactive":
		active = false
	default:
		fmt.Fprintf(w, "Error: status must be active or inactive, got %q\n", status)
		return exitFailed
	}

	return protected(ctx, w, adminOnly, func(c *console) int {
		u, err := c.client.SetUserStatus(ctx, id, active)
		if err != nil {
			return fail(w, err)
		}
		notice := "users.deactivated"
		if u.IsActive {
			notice = "users.activated"
		}
		if err := render(w, u, func() string { return i18n.T(notice, map[string]any{"Name": u.FullName()}) }); err != nil {
			return fail(w, err)
		}
		return exitOK
	})
}

func runUsersDelete(ctx context.Context, w io.Writer, id string) int {
	return protected(ctx, w, adminOnly, func(c *console) int {
		if err := c.client.DeleteUser(ctx, id); err != nil {
			return fail(w, err)
		}
		fmt.Fprintln(w, i18n.T("cli.deleted", map[string]any{"ID": id}))
		return exitOK
	})
}
