package api

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/taskflowhq/taskflow-cli/internal/task"
)

// NewMCPServer creates an MCP server exposing the task API as tools, so an
// LLM host can manage the signed-in user's tasks over stdio.
func NewMCPServer(client *Client) *server.MCPServer {
	s := server.NewMCPServer(
		"taskflow",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions("taskflow manages the user's tasks: create, list, update, complete, and delete."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("create_task",
			mcp.WithDescription("Create a new task."),
			mcp.WithString("title", mcp.Description("Task title"), mcp.Required()),
			mcp.WithString("description", mcp.Description("Longer free-form description")),
			mcp.WithString("priority", mcp.Description("Priority: low, medium, or high")),
			mcp.WithArray("tags", mcp.Description("Tags for grouping")),
			mcp.WithString("due_date", mcp.Description("Due date in RFC 3339 format")),
			mcp.WithString("recurrence", mcp.Description("Recurrence: none, daily, weekly, or monthly")),
		),
		mcpCreateTask(client),
	)

	s.AddTool(
		mcp.NewTool("list_tasks",
			mcp.WithDescription("List tasks, optionally filtered."),
			mcp.WithString("status", mcp.Description("Filter by status: pending or completed")),
			mcp.WithString("priority", mcp.Description("Filter by priority: low, medium, or high")),
			mcp.WithString("tag", mcp.Description("Filter by tag")),
		),
		mcpListTasks(client),
	)

	s.AddTool(
		mcp.NewTool("update_task",
			mcp.WithDescription("Update fields of an existing task. Only the provided fields change."),
			mcp.WithString("id", mcp.Description("Task ID"), mcp.Required()),
			mcp.WithString("title", mcp.Description("New title")),
			mcp.WithString("description", mcp.Description("New description")),
			mcp.WithString("priority", mcp.Description("New priority: low, medium, or high")),
			mcp.WithString("due_date", mcp.Description("New due date in RFC 3339 format")),
		),
		mcpUpdateTask(client),
	)

	s.AddTool(
		mcp.NewTool("toggle_task",
			mcp.WithDescription("Flip a task between pending and completed."),
			mcp.WithString("id", mcp.Description("Task ID"), mcp.Required()),
		),
		mcpToggleTask(client),
	)

	s.AddTool(
		mcp.NewTool("delete_task",
			mcp.WithDescription("Delete a task permanently."),
			mcp.WithString("id", mcp.Description("Task ID"), mcp.Required()),
		),
		mcpDeleteTask(client),
	)

	return s
}

func mcpCreateTask(client *Client) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		title, err := req.RequireString("title")
		if err != nil {
			return mcpError("title is required"), nil
		}

		draft := task.Draft{
			Title:       title,
			Description: req.GetString("description", ""),
			Priority:    task.Priority(req.GetString("priority", string(task.PriorityMedium))),
			Tags:        req.GetStringSlice("tags", nil),
			Recurrence:  task.Recurrence(req.GetString("recurrence", string(task.RecurrenceNone))),
		}
		if raw := req.GetString("due_date", ""); raw != "" {
			due, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				return mcpError(fmt.Sprintf("invalid due_date: %v", err)), nil
			}
			draft.DueDate = &due
		}

		if errs := task.Validate(draft); len(errs) > 0 {
			return mcpError(errs[0].Message), nil
		}

		env, err := client.CreateTask(ctx, draft.Create())
		if err != nil {
			return mcpError(fmt.Sprintf("create failed: %v", err)), nil
		}
		if !env.Ok() {
			return mcpError(env.Err.Message), nil
		}
		return mcpJSON(env.Data)
	}
}

func mcpListTasks(client *Client) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		filter := task.Filter{
			Status:   req.GetString("status", ""),
			Priority: req.GetString("priority", ""),
			Tag:      req.GetString("tag", ""),
		}

		env, err := client.ListTasks(ctx, filter)
		if err != nil {
			return mcpError(fmt.Sprintf("list failed: %v", err)), nil
		}
		if !env.Ok() {
			return mcpError(env.Err.Message), nil
		}
		if len(*env.Data) == 0 {
			return mcpText("[]"), nil
		}
		return mcpJSON(env.Data)
	}
}

func mcpUpdateTask(client *Client) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireString("id")
		if err != nil {
			return mcpError("id is required"), nil
		}

		var update task.Update
		if v := req.GetString("title", ""); v != "" {
			update.Title = &v
		}
		if v := req.GetString("description", ""); v != "" {
			update.Description = &v
		}
		if v := req.GetString("priority", ""); v != "" {
			p := task.Priority(v)
			if !p.Valid() {
				return mcpError("Priority must be low, medium, or high"), nil
			}
			update.Priority = &p
		}
		if raw := req.GetString("due_date", ""); raw != "" {
			due, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				return mcpError(fmt.Sprintf("invalid due_date: %v", err)), nil
			}
			update.DueDate = &due
		}

		env, err := client.UpdateTask(ctx, id, update)
		if err != nil {
			return mcpError(fmt.Sprintf("update failed: %v", err)), nil
		}
		if !env.Ok() {
			return mcpError(env.Err.Message), nil
		}
		return mcpJSON(env.Data)
	}
}

func mcpToggleTask(client *Client) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireString("id")
		if err != nil {
			return mcpError("id is required"), nil
		}

		env, err := client.ToggleTask(ctx, id)
		if err != nil {
			return mcpError(fmt.Sprintf("toggle failed: %v", err)), nil
		}
		if !env.Ok() {
			return mcpError(env.Err.Message), nil
		}
		return mcpText(fmt.Sprintf("Task %s is now %s", env.Data.ID, env.Data.Status)), nil
	}
}

func mcpDeleteTask(client *Client) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireString("id")
		if err != nil {
			return mcpError("id is required"), nil
		}

		env, err := client.DeleteTask(ctx, id)
		if err != nil {
			return mcpError(fmt.Sprintf("delete failed: %v", err)), nil
		}
		if !env.Ok() {
			return mcpError(env.Err.Message), nil
		}
		return mcpText(fmt.Sprintf("Deleted task %s", env.Data.ID)), nil
	}
}

func mcpJSON(v any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return mcpError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcpText(string(b)), nil
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
