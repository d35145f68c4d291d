// ABOUTME: Runs the in-memory sandbox backend
// ABOUTME: Settings come from SANDBOX_* variables and an optional .env file

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/markalston/clinic-console/internal/logger"
	"github.com/markalston/clinic-console/internal/sandbox"
	sbconfig "github.com/markalston/clinic-console/internal/sandbox/config"
)

var sandboxAddr string

var sandboxCmd = &cobra.Command{
	Use:   "sandbox",
	Short: "Run an in-memory clinic backend for trying the console",
	Long: `Run an in-memory implementation of the clinic backend. Data is lost on exit.

Environment Variables:
  SANDBOX_ADDR             Listen address (default: 127.0.0.1:3000)
  SANDBOX_ADMIN_EMAIL      Seeded administrator (default: admin@clinic.local)
  SANDBOX_ADMIN_PASSWORD   Its password (default: admin12345)
  SANDBOX_SEED_DEMO        Seed demo staff, patients and appointments (default: true)
  SANDBOX_JWT_SECRET       Token signing key (default: random per run)
  SANDBOX_ACCESS_TTL       Access token lifetime (default: 15m)
  SANDBOX_REFRESH_TTL      Refresh session lifetime (default: 168h)`,
	Args: cobra.NoArgs,
	Run: command(func(ctx context.Context, cmd *cobra.Command, args []string) int {
		return runSandbox(ctx, os.Stderr, sandboxAddr)
	}),
}

func init() {
	rootCmd.AddCommand(sandboxCmd)
	sandboxCmd.Flags().StringVar(&sandboxAddr, "addr", "", "Listen address (overrides SANDBOX_ADDR)")
}

func runSandbox(ctx context.Context, w io.Writer, addr string) int {
	cfg, err := sbconfig.Load(ctx)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitFailed
	}
	if addr != "" {
		cfg.Addr = addr
	}
	logger.Init(cfg.LogLevel, cfg.LogFormat, os.Stdout)

	srv, err := sandbox.New(cfg)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitFailed
	}
	if err := srv.Run(ctx); err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitFailed
	}
	return exitOK
}
