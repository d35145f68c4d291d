// ABOUTME: Launches the interactive console
// ABOUTME: Logs go to the state directory while the TUI owns the terminal

package cmd

import (
	"fmt"
	"log/slog"

	"github.com/markalston/clinic-console/internal/logger"
	"github.com/markalston/clinic-console/internal/tui"
)

func runTUI(start string) error {
	f, err := logger.OpenFile(settings.StateDir)
	if err != nil {
		logger.Discard()
	} else {
		defer f.Close()
		logger.Init(settings.LogLevel, settings.LogFormat, f)
	}

	c, err := openConsole()
	if err != nil {
		return err
	}
	slog.Info("Console starting", "api_url", settings.APIURL, "lang", settings.Lang)
	if err := tui.Run(c.client, c.gate, c.jar, start); err != nil {
		return fmt.Errorf("console: %w", err)
	}
	return nil
}
