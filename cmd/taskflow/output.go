package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/taskflowhq/taskflow-cli/internal/task"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
	colorBold   = "\033[1m"
)

func colorize(color, text string) string {
	if noColor {
		return text
	}
	return color + text + colorReset
}

func printSuccess(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(os.Stderr, colorize(colorGreen, "✓ "+msg))
}

func printWarning(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(os.Stderr, colorize(colorYellow, "⚠ "+msg))
}

// printTaskLine renders one task as a list row.
func printTaskLine(t task.Task) {
	check := "[ ]"
	title := t.Title
	if t.Status == task.StatusCompleted {
		check = colorize(colorGreen, "[x]")
		title = colorize(colorGray, title)
	}

	line := fmt.Sprintf("%s %s %s  %s", check, colorize(colorGray, shortID(t.ID)), title, formatPriority(t.Priority))
	if len(t.Tags) > 0 {
		line += "  " + colorize(colorCyan, "#"+strings.Join(t.Tags, " #"))
	}
	if t.DueDate != nil {
		line += "  " + colorize(colorGray, "due "+t.DueDate.Format("2006-01-02"))
	}
	fmt.Println(line)
}

// printTaskDetail renders the full task record.
func printTaskDetail(t task.Task) {
	fmt.Printf("%s %s\n", colorize(colorBold, t.Title), colorize(colorGray, "("+t.ID+")"))
	fmt.Printf("  status:   %s\n", t.Status)
	fmt.Printf("  priority: %s\n", formatPriority(t.Priority))
	if t.Description != "" {
		fmt.Printf("  notes:    %s\n", t.Description)
	}
	if len(t.Tags) > 0 {
		fmt.Printf("  tags:     %s\n", strings.Join(t.Tags, ", "))
	}
	if t.DueDate != nil {
		fmt.Printf("  due:      %s\n", t.DueDate.Format("2006-01-02"))
	}
	if t.Recurrence != task.RecurrenceNone && t.Recurrence != "" {
		fmt.Printf("  repeats:  %s\n", t.Recurrence)
	}
	if !t.CreatedAt.IsZero() {
		fmt.Printf("  created:  %s\n", t.CreatedAt.Local().Format(time.RFC822))
	}
}

func formatPriority(p task.Priority) string {
	switch p {
	case task.PriorityHigh:
		return colorize(colorRed, "high")
	case task.PriorityLow:
		return colorize(colorGray, "low")
	default:
		return colorize(colorYellow, "medium")
	}
}

// shortID returns the first id segment, enough to address a task on the CLI.
func shortID(id string) string {
	if i := strings.IndexByte(id, '-'); i > 0 {
		return id[:i]
	}
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
