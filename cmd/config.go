// ABOUTME: Config commands: show the effective settings or write a starter file
// ABOUTME: The file is YAML in the user config directory unless --path is given

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"

	"github.com/markalston/clinic-console/internal/config"
	"github.com/markalston/clinic-console/internal/i18n"
)

var (
	configPath  string
	configForce bool
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect or create the console configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	Run: command(func(ctx context.Context, cmd *cobra.Command, args []string) int {
		return runConfigShow(os.Stdout)
	}),
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the effective configuration to a file",
	Args:  cobra.NoArgs,
	Run: command(func(ctx context.Context, cmd *cobra.Command, args []string) int {
		return runConfigInit(os.Stdout, configPath, configForce)
	}),
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd, configInitCmd)
	configInitCmd.Flags().StringVar(&configPath, "path", "", "Where to write (default: <user config dir>/clinic/clinic.yaml)")
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite an existing file")
}

func runConfigShow(w io.Writer) int {
	err := render(w, settings, func() string {
		data, err := yaml.Marshal(settings)
		if err != nil {
			return err.Error()
		}
		return string(data)
	})
	if err != nil {
		return fail(w, err)
	}
	return exitOK
}

func runConfigInit(w io.Writer, path string, force bool) int {
	if path == "" {
		dir, err := config.DefaultConfigDir()
		if err != nil {
			fmt.Fprintf(w, "Error: %v\n", err)
			return exitFailed
		}
		path = filepath.Join(dir, "clinic.yaml")
	}
	if !force {
		if _, err := os.Stat(path); err == nil {
			fmt.Fprintln(w, "Error: "+i18n.T("cli.config_exists", map[string]any{"Path": path}))
			return exitFailed
		}
	}
	written, err := config.WriteFile(settings, path)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitFailed
	}
	fmt.Fprintln(w, i18n.T("cli.config_written", map[string]any{"Path": written}))
	return exitOK
}
