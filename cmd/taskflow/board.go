package main

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/taskflowhq/taskflow-cli/internal/conversation"
	"github.com/taskflowhq/taskflow-cli/internal/tasklist"
	"github.com/taskflowhq/taskflow-cli/internal/ui"
)

var boardCmd = &cobra.Command{
	Use:   "board",
	Short: "Open the interactive task board",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, store, err := newAPIClient()
		if err != nil {
			return err
		}
		sess, err := requireSession(store)
		if err != nil {
			return err
		}

		app := ui.NewApp(
			tasklist.NewManager(client),
			conversation.NewManager(client, sess.User.ID),
		)
		_, err = tea.NewProgram(app, tea.WithAltScreen()).Run()
		return err
	},
}
