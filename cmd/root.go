// ABOUTME: Root command for the clinic console CLI
// ABOUTME: Loads configuration, translations and logging before any subcommand runs

package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/markalston/clinic-console/internal/config"
	"github.com/markalston/clinic-console/internal/i18n"
	"github.com/markalston/clinic-console/internal/logger"
)

var (
	cfgFile   string
	startPath string

	// settings is the effective configuration, loaded before every command.
	settings *config.Config
)

// rootCmd is the base command. Run without a subcommand it opens the console.
var rootCmd = &cobra.Command{
	Use:   "clinic",
	Short: "Clinic administration console",
	Long: `clinic is the terminal console for the clinic administration backend.

Run without arguments to open the interactive console, or use a subcommand
for scripting.

Exit codes:
  0 - Success
  1 - The operation failed
  2 - Not signed in, or the backend is unreachable
  3 - The signed-in role may not run the command

Environment Variables:
  CLINIC_API_URL     Backend API URL (default: http://localhost:3000)
  CLINIC_LANG        Interface language: en, uz
  CLINIC_OUTPUT      Output format: text, json, yaml
  CLINIC_STATE_DIR   Where the session cookie and debug log are kept
  CLINIC_LOG_LEVEL   debug, info, warn, error`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cmd.Flags(), cfgFile)
		if err != nil {
			return err
		}
		if err := i18n.Init(cfg.Lang); err != nil {
			return err
		}
		logger.Init(cfg.LogLevel, cfg.LogFormat, os.Stderr)
		settings = cfg
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTUI(startPath)
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "Config file (default: <user config dir>/clinic/clinic.yaml)")
	flags.String("api-url", "", "Backend API URL (overrides CLINIC_API_URL)")
	flags.StringP("output", "o", "", "Output format: text, json, yaml")
	flags.String("lang", "", "Interface language: en, uz")
	rootCmd.Flags().StringVar(&startPath, "path", "", "Screen to open first, e.g. /patients")
}
