package main

import (
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/taskflowhq/taskflow-cli/internal/api"
	"github.com/taskflowhq/taskflow-cli/internal/session"
)

var signupCmd = &cobra.Command{
	Use:   "signup <email>",
	Short: "Create an account and sign in",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		if name == "" {
			return fmt.Errorf("--name is required")
		}

		password, err := readPassword("Password: ")
		if err != nil {
			return err
		}

		client, store, err := newAPIClient()
		if err != nil {
			return err
		}

		data, err := checked(client.SignUp(cmd.Context(), api.SignUpRequest{
			Email:    args[0],
			Password: password,
			Name:     name,
		}))
		if err != nil {
			return err
		}

		if err := store.Save(session.Session{User: data.User, Token: data.Token}); err != nil {
			return fmt.Errorf("saving session: %w", err)
		}
		printSuccess("Signed up as %s", data.User.Email)
		return nil
	},
}

var signinCmd = &cobra.Command{
	Use:     "signin <email>",
	Aliases: []string{"login"},
	Short:   "Sign in to your account",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		password, err := readPassword("Password: ")
		if err != nil {
			return err
		}

		client, store, err := newAPIClient()
		if err != nil {
			return err
		}

		data, err := checked(client.SignIn(cmd.Context(), api.Credentials{
			Email:    args[0],
			Password: password,
		}))
		if err != nil {
			return err
		}

		if err := store.Save(session.Session{User: data.User, Token: data.Token}); err != nil {
			return fmt.Errorf("saving session: %w", err)
		}
		printSuccess("Signed in as %s", data.User.Email)
		return nil
	},
}

var signoutCmd = &cobra.Command{
	Use:     "signout",
	Aliases: []string{"logout"},
	Short:   "Discard the saved session",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, store, err := newAPIClient()
		if err != nil {
			return err
		}
		if err := store.Clear(); err != nil {
			return fmt.Errorf("clearing session: %w", err)
		}
		printSuccess("Signed out")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, store, err := newAPIClient()
		if err != nil {
			return err
		}
		if _, err := requireSession(store); err != nil {
			return err
		}

		// Ask the server so a revoked or expired token shows up here
		// instead of on the next task command.
		user, err := checked(client.Me(cmd.Context()))
		if err != nil {
			return err
		}
		fmt.Printf("%s <%s>\n", user.Name, user.Email)
		return nil
	},
}

func init() {
	signupCmd.Flags().String("name", "", "display name for the new account")
}

// readPassword prompts on stderr and reads without echo when stdin is a
// terminal; otherwise it reads a line (for scripts and tests).
func readPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	if term.IsTerminal(int(syscall.Stdin)) {
		raw, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("reading password: %w", err)
		}
		return string(raw), nil
	}

	var line string
	if _, err := fmt.Fscanln(os.Stdin, &line); err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return strings.TrimSpace(line), nil
}
