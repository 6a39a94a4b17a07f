package views

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/taskflowhq/taskflow-cli/internal/conversation"
	"github.com/taskflowhq/taskflow-cli/internal/ui/styles"
)

// ChatView is the assistant panel. The transcript, the in-flight flag, and
// the current error all live in the conversation manager; a failed send
// disappears from the history on the next render because the manager rolled
// it back.
type ChatView struct {
	manager *conversation.Manager
	styles  *styles.Styles

	width  int
	height int
	input  textinput.Model
}

// NewChatView creates the assistant view
func NewChatView(manager *conversation.Manager) *ChatView {
	input := textinput.New()
	input.Placeholder = "Ask the assistant… (ctrl+l clears)"
	input.CharLimit = 500

	return &ChatView{
		manager: manager,
		styles:  styles.NewStyles(),
		input:   input,
	}
}

type sentMsg struct{}

// Init initializes the view
func (v *ChatView) Init() tea.Cmd {
	return v.input.Focus()
}

func (v *ChatView) send(text string) tea.Cmd {
	return func() tea.Msg {
		v.manager.Send(context.Background(), text)
		return sentMsg{}
	}
}

func (v *ChatView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		return v, nil

	case sentMsg:
		return v, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "enter":
			text := strings.TrimSpace(v.input.Value())
			if text == "" || v.manager.Sending() {
				return v, nil
			}
			v.input.SetValue("")
			return v, v.send(text)
		case "ctrl+l":
			v.manager.Clear()
			return v, nil
		}
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *ChatView) View() string {
	var b strings.Builder
	b.WriteString(v.styles.Title.Render("Assistant"))
	b.WriteString("\n\n")

	msgs := v.manager.Messages()
	if len(msgs) == 0 {
		b.WriteString(v.styles.TitleMuted.Render("Ask me to add, list, complete, or delete tasks."))
		b.WriteString("\n")
	}
	for _, m := range msgs {
		switch m.Role {
		case conversation.RoleUser:
			b.WriteString(v.styles.UserMessage.Render("you › "))
			b.WriteString(m.Content)
		case conversation.RoleAssistant:
			b.WriteString(v.styles.AssistantMessage.Render(m.Content))
			for _, call := range m.ToolCalls {
				b.WriteString("\n")
				b.WriteString(v.styles.ToolCall.Render(fmt.Sprintf("  ⚙ %s", call.Tool)))
			}
		}
		b.WriteString("\n\n")
	}

	if v.manager.Sending() {
		b.WriteString(v.styles.TitleMuted.Render("thinking…"))
		b.WriteString("\n\n")
	}
	if err := v.manager.Err(); err != nil {
		b.WriteString(v.styles.StatusErr.Render(err.Error()))
		b.WriteString("\n\n")
	}

	b.WriteString(v.input.View())
	b.WriteString("\n")
	b.WriteString(v.styles.Help.Render("enter send · ctrl+l clear · tab tasks · esc quit"))
	return b.String()
}
