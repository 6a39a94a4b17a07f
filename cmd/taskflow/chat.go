package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/taskflowhq/taskflow-cli/internal/conversation"
)

var chatCmd = &cobra.Command{
	Use:   "chat [message]",
	Short: "Talk to the task assistant",
	Long: `Talk to the task assistant.

With a message argument, sends it and prints the reply. Without one, starts
an interactive session (/clear starts a new conversation, /quit exits).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, store, err := newAPIClient()
		if err != nil {
			return err
		}
		sess, err := requireSession(store)
		if err != nil {
			return err
		}

		mgr := conversation.NewManager(client, sess.User.ID)

		if len(args) > 0 {
			return sendAndPrint(cmd, mgr, strings.Join(args, " "))
		}

		fmt.Println("Chatting with the task assistant. /clear starts over, /quit exits.")
		scanner := bufio.NewScanner(os.Stdin)
		for {
			fmt.Print(colorize(colorBold, "you › "))
			if !scanner.Scan() {
				fmt.Println()
				return scanner.Err()
			}
			line := strings.TrimSpace(scanner.Text())

			switch line {
			case "":
				continue
			case "/quit", "/exit":
				return nil
			case "/clear":
				mgr.Clear()
				fmt.Println(colorize(colorGray, "(new conversation)"))
				continue
			}

			if err := sendAndPrint(cmd, mgr, line); err != nil {
				// The manager already rolled the message back; keep the
				// session alive so the user can retry.
				printWarning("%v", err)
			}
		}
	},
}

func sendAndPrint(cmd *cobra.Command, mgr *conversation.Manager, text string) error {
	reply, err := mgr.Send(cmd.Context(), text)
	if err != nil {
		return err
	}
	if reply == nil {
		return nil
	}

	fmt.Println(reply.Content)
	for _, call := range reply.ToolCalls {
		fmt.Println(colorize(colorCyan, "  ⚙ "+call.Tool))
	}
	return nil
}
