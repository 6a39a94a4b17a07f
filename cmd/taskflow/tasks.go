package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/taskflowhq/taskflow-cli/internal/api"
	"github.com/taskflowhq/taskflow-cli/internal/task"
)

const dueDateLayout = "2006-01-02"

var addCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Add a task",
	Long: `Add a task.

Examples:
  taskflow add "Buy milk"
  taskflow add "Water the plants" --priority high --tags home,recurring --due 2026-09-15 --repeat weekly`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		priority, _ := cmd.Flags().GetString("priority")
		tagsStr, _ := cmd.Flags().GetString("tags")
		dueStr, _ := cmd.Flags().GetString("due")
		repeat, _ := cmd.Flags().GetString("repeat")
		description, _ := cmd.Flags().GetString("notes")

		draft := task.Draft{
			Title:       strings.Join(args, " "),
			Description: description,
			Priority:    task.Priority(priority),
			Tags:        splitTags(tagsStr),
			Recurrence:  task.Recurrence(repeat),
		}
		if dueStr != "" {
			due, err := time.Parse(dueDateLayout, dueStr)
			if err != nil {
				return fmt.Errorf("--due must be YYYY-MM-DD")
			}
			draft.DueDate = &due
		}

		// Fail fast locally; the server re-checks the same rules.
		if errs := task.Validate(draft); len(errs) > 0 {
			return fmt.Errorf("%s", errs[0].Message)
		}

		client, _, err := newAPIClient()
		if err != nil {
			return err
		}

		created, err := checked(client.CreateTask(cmd.Context(), draft.Create()))
		if err != nil {
			return err
		}
		printSuccess("Added %q (%s)", created.Title, shortID(created.ID))
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List tasks",
	RunE: func(cmd *cobra.Command, args []string) error {
		status, _ := cmd.Flags().GetString("status")
		priority, _ := cmd.Flags().GetString("priority")
		tag, _ := cmd.Flags().GetString("tag")

		client, _, err := newAPIClient()
		if err != nil {
			return err
		}

		filter := task.Filter{
			Status:   status,
			Priority: priority,
			Tag:      tag,
		}
		env, err := client.ListTasks(cmd.Context(), filter)
		if err != nil {
			return err
		}
		if !env.Ok() {
			return env.Err
		}

		tasks := *env.Data
		if len(tasks) == 0 {
			if filter.IsZero() {
				fmt.Println("No tasks.")
			} else {
				fmt.Println("No tasks match.")
			}
			return nil
		}
		for _, t := range tasks {
			printTaskLine(t)
		}
		if env.Meta != nil && env.Meta.Total > len(tasks) {
			fmt.Println(colorize(colorGray, fmt.Sprintf("(%d of %d)", len(tasks), env.Meta.Total)))
		}
		return nil
	},
}

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a task in full",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, err := newAPIClient()
		if err != nil {
			return err
		}

		id, err := resolveTaskID(cmd.Context(), client, args[0])
		if err != nil {
			return err
		}

		t, err := checked(client.GetTask(cmd.Context(), id))
		if err != nil {
			return err
		}
		printTaskDetail(*t)
		return nil
	},
}

var doneCmd = &cobra.Command{
	Use:   "done <id>",
	Short: "Toggle a task between pending and completed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, err := newAPIClient()
		if err != nil {
			return err
		}

		id, err := resolveTaskID(cmd.Context(), client, args[0])
		if err != nil {
			return err
		}

		t, err := checked(client.ToggleTask(cmd.Context(), id))
		if err != nil {
			return err
		}
		printSuccess("%q is now %s", t.Title, t.Status)
		return nil
	},
}

var editCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Change fields of a task",
	Long: `Change fields of a task. Only the flags you pass are changed.

Examples:
  taskflow edit 4f2a --title "Buy oat milk"
  taskflow edit 4f2a --priority low --due 2026-10-01`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, err := newAPIClient()
		if err != nil {
			return err
		}

		id, err := resolveTaskID(cmd.Context(), client, args[0])
		if err != nil {
			return err
		}

		var update task.Update
		changed := false
		if cmd.Flags().Changed("title") {
			v, _ := cmd.Flags().GetString("title")
			update.Title = &v
			changed = true
		}
		if cmd.Flags().Changed("notes") {
			v, _ := cmd.Flags().GetString("notes")
			update.Description = &v
			changed = true
		}
		if cmd.Flags().Changed("priority") {
			v, _ := cmd.Flags().GetString("priority")
			p := task.Priority(v)
			update.Priority = &p
			changed = true
		}
		if cmd.Flags().Changed("tags") {
			v, _ := cmd.Flags().GetString("tags")
			tags := splitTags(v)
			update.Tags = &tags
			changed = true
		}
		if cmd.Flags().Changed("due") {
			v, _ := cmd.Flags().GetString("due")
			due, err := time.Parse(dueDateLayout, v)
			if err != nil {
				return fmt.Errorf("--due must be YYYY-MM-DD")
			}
			update.DueDate = &due
			changed = true
		}
		if cmd.Flags().Changed("repeat") {
			v, _ := cmd.Flags().GetString("repeat")
			r := task.Recurrence(v)
			update.Recurrence = &r
			changed = true
		}
		if !changed {
			return fmt.Errorf("nothing to change; pass at least one field flag")
		}

		t, err := checked(client.UpdateTask(cmd.Context(), id, update))
		if err != nil {
			return err
		}
		printSuccess("Updated %q", t.Title)
		return nil
	},
}

var rmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Delete a task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, err := newAPIClient()
		if err != nil {
			return err
		}

		id, err := resolveTaskID(cmd.Context(), client, args[0])
		if err != nil {
			return err
		}

		res, err := checked(client.DeleteTask(cmd.Context(), id))
		if err != nil {
			return err
		}
		printSuccess("Deleted %s", shortID(res.ID))
		return nil
	},
}

func init() {
	addCmd.Flags().String("priority", "medium", "low, medium, or high")
	addCmd.Flags().String("tags", "", "comma-separated tags")
	addCmd.Flags().String("due", "", "due date (YYYY-MM-DD)")
	addCmd.Flags().String("repeat", "none", "none, daily, weekly, or monthly")
	addCmd.Flags().String("notes", "", "longer description")

	listCmd.Flags().String("status", "", "filter by status (pending or completed)")
	listCmd.Flags().String("priority", "", "filter by priority")
	listCmd.Flags().String("tag", "", "filter by tag")

	editCmd.Flags().String("title", "", "new title")
	editCmd.Flags().String("notes", "", "new description")
	editCmd.Flags().String("priority", "", "new priority")
	editCmd.Flags().String("tags", "", "replace tags (comma-separated)")
	editCmd.Flags().String("due", "", "new due date (YYYY-MM-DD)")
	editCmd.Flags().String("repeat", "", "new recurrence")
}

func splitTags(raw string) []string {
	var tags []string
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// resolveTaskID accepts a full id or a unique prefix of one and returns the
// full id. Ambiguous prefixes are an error rather than a guess.
func resolveTaskID(ctx context.Context, client *api.Client, ref string) (string, error) {
	env, err := client.ListTasks(ctx, task.Filter{})
	if err != nil {
		return "", err
	}
	if !env.Ok() {
		return "", env.Err
	}

	var matches []string
	for _, t := range *env.Data {
		if t.ID == ref {
			return t.ID, nil
		}
		if strings.HasPrefix(t.ID, ref) {
			matches = append(matches, t.ID)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return "", fmt.Errorf("no task matches %q", ref)
	default:
		return "", fmt.Errorf("%q matches %d tasks; use more of the id", ref, len(matches))
	}
}
