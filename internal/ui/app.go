// Package ui is the interactive task board built on Bubble Tea.
package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/taskflowhq/taskflow-cli/internal/conversation"
	"github.com/taskflowhq/taskflow-cli/internal/tasklist"
	"github.com/taskflowhq/taskflow-cli/internal/ui/views"
)

// Currently active view
type View int

const (
	ViewTasks View = iota
	ViewChat
)

type App struct {
	currentView View
	taskView    *views.TaskView
	chatView    *views.ChatView
	width       int
	height      int
}

// NewApp creates the application model
func NewApp(tasks *tasklist.Manager, chat *conversation.Manager) *App {
	return &App{
		currentView: ViewTasks,
		taskView:    views.NewTaskView(tasks),
		chatView:    views.NewChatView(chat),
	}
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(a.taskView.Init(), a.chatView.Init())
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.taskView.Update(msg)
		a.chatView.Update(msg)
		return a, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return a, tea.Quit
		case "q":
			// The chat input and the form need the q key; only quit from
			// the board list.
			if a.currentView == ViewTasks && !a.taskView.Editing() {
				return a, tea.Quit
			}
		case "esc":
			if a.currentView == ViewChat {
				return a, tea.Quit
			}
		case "tab":
			// While the task form is open, tab moves between its fields.
			if a.currentView == ViewTasks && a.taskView.Editing() {
				break
			}
			if a.currentView == ViewTasks {
				a.currentView = ViewChat
			} else {
				a.currentView = ViewTasks
			}
			return a, nil
		}
	}

	var cmd tea.Cmd
	switch a.currentView {
	case ViewTasks:
		_, cmd = a.taskView.Update(msg)
	case ViewChat:
		_, cmd = a.chatView.Update(msg)
	}
	return a, cmd
}

func (a *App) View() string {
	switch a.currentView {
	case ViewChat:
		return a.chatView.View()
	}
	return a.taskView.View()
}
