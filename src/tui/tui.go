package tui

import (
	"fmt"
	"net/http"
	"os"

	"git.gdb.dev/gdb/board/src/boardapi"
	"git.gdb.dev/gdb/board/src/config"
	"git.gdb.dev/gdb/board/src/logging"
	"git.gdb.dev/gdb/board/src/website"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

func init() {
	tuiCommand := &cobra.Command{
		Use:   "tui",
		Short: "Browse the board in the terminal",
		Run: func(cmd *cobra.Command, args []string) {
			// Anything written to stderr would tear up the screen.
			logFile, err := os.OpenFile(config.Config.TUI.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
			if err != nil {
				fmt.Fprintf(os.Stderr, "failed to open log file %s: %v\n", config.Config.TUI.LogFile, err)
				os.Exit(1)
			}
			defer logFile.Close()
			logging.SetOutput(logFile, false)
			defer logging.LogPanics(nil)

			api := boardapi.NewClient(config.Config.Board.APIUrl, &http.Client{
				Timeout: config.Config.Board.RequestTimeout,
			})
			m := New(api, Options{})
			defer m.Close()

			p := tea.NewProgram(m, tea.WithAltScreen())
			m.Send = p.Send

			logging.Info().Str("api", config.Config.Board.APIUrl).Msg("Starting the terminal client")
			if _, err := p.Run(); err != nil {
				logging.Error().Err(err).Msg("Terminal client crashed")
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
		},
	}

	website.WebsiteCommand.AddCommand(tuiCommand)
}
