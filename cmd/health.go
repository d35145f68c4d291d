// ABOUTME: Health command for the clinic console CLI
// ABOUTME: Checks backend connectivity without signing in

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/markalston/clinic-console/internal/client"
	"github.com/markalston/clinic-console/internal/i18n"
	"github.com/markalston/clinic-console/internal/session"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check backend connectivity",
	Long:  `Check connectivity to the clinic backend and show how much data it holds.`,
	Args:  cobra.NoArgs,
	Run: command(func(ctx context.Context, cmd *cobra.Command, args []string) int {
		return runHealth(ctx, os.Stdout)
	}),
}

func init() {
	rootCmd.AddCommand(healthCmd)
}

// runHealth executes the health check and returns exit code
func runHealth(ctx context.Context, w io.Writer) int {
	c := client.New(settings.APIURL, session.NewStore(), client.WithTimeout(settings.Timeout))

	resp, err := c.Health(ctx)
	if err != nil {
		fmt.Fprintf(w, "Error: %s\n", client.Message(err))
		return exitNoSession
	}

	if err := render(w, resp, func() string { return formatHealthHuman(settings.APIURL, resp) }); err != nil {
		return fail(w, err)
	}
	return exitOK
}

// formatHealthHuman formats health response for human readability
func formatHealthHuman(url string, resp *client.Health) string {
	return fmt.Sprintf(`%-14s %s
%-14s %s
%-14s %s
%-14s %d
%-14s %d
%-14s %d`,
		i18n.T("health.backend")+":", url,
		i18n.T("health.status")+":", resp.Status,
		i18n.T("health.uptime")+":", resp.Uptime,
		i18n.T("health.users")+":", resp.Users,
		i18n.T("health.patients")+":", resp.Patients,
		i18n.T("health.appointments")+":", resp.Appointments)
}
