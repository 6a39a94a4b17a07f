package views

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/taskflowhq/taskflow-cli/internal/api"
	"github.com/taskflowhq/taskflow-cli/internal/task"
	"github.com/taskflowhq/taskflow-cli/internal/tasklist"
	"github.com/taskflowhq/taskflow-cli/internal/ui/styles"
)

// clamp returns val clamped between minVal and maxVal
func clamp(val, minVal, maxVal int) int {
	if val < minVal {
		return minVal
	}
	if val > maxVal {
		return maxVal
	}
	return val
}

const dueDateLayout = "2006-01-02"

// statusFilters cycles with the f key: everything, pending only, completed only.
var statusFilters = []string{"", "pending", "completed"}

// TaskView shows the task board. Toggle and delete paint immediately because
// the manager applies them optimistically; the view just re-reads the
// snapshot after every message.
type TaskView struct {
	manager *tasklist.Manager
	styles  *styles.Styles

	width  int
	height int
	cursor int

	filterIdx int

	// Task form (create)
	editing         bool
	focusIdx        int
	titleInput      textinput.Model
	descInput       textarea.Model
	priorityInput   textinput.Model
	tagsInput       textinput.Model
	dueInput        textinput.Model
	recurrenceInput textinput.Model
	fieldErrs       []task.FieldError

	// Delete confirmation
	confirmingDelete bool
	deleteTarget     task.Task

	errMsg string
}

// NewTaskView creates the task board view
func NewTaskView(manager *tasklist.Manager) *TaskView {
	title := textinput.New()
	title.Placeholder = "Task title"
	title.CharLimit = 300

	desc := textarea.New()
	desc.Placeholder = "Description"
	desc.SetWidth(50)
	desc.SetHeight(3)
	desc.ShowLineNumbers = false

	priority := textinput.New()
	priority.Placeholder = "low / medium / high"
	priority.CharLimit = 10

	tags := textinput.New()
	tags.Placeholder = "comma, separated, tags"
	tags.CharLimit = 200

	due := textinput.New()
	due.Placeholder = "YYYY-MM-DD"
	due.CharLimit = 10

	recurrence := textinput.New()
	recurrence.Placeholder = "none / daily / weekly / monthly"
	recurrence.CharLimit = 10

	return &TaskView{
		manager:         manager,
		styles:          styles.NewStyles(),
		titleInput:      title,
		descInput:       desc,
		priorityInput:   priority,
		tagsInput:       tags,
		dueInput:        due,
		recurrenceInput: recurrence,
	}
}

// Editing reports whether the task form is open, so the parent keeps its
// global keys out of the way.
func (v *TaskView) Editing() bool {
	return v.editing
}

type refreshedMsg struct{ err error }

type mutationDoneMsg struct{ err error }

type createdMsg struct{ err error }

// Init initializes the view
func (v *TaskView) Init() tea.Cmd {
	return v.refresh
}

func (v *TaskView) refresh() tea.Msg {
	return refreshedMsg{err: v.manager.Refetch(context.Background())}
}

func (v *TaskView) toggle(id string) tea.Cmd {
	return func() tea.Msg {
		return mutationDoneMsg{err: v.manager.Toggle(context.Background(), id)}
	}
}

func (v *TaskView) delete(id string) tea.Cmd {
	return func() tea.Msg {
		return mutationDoneMsg{err: v.manager.Delete(context.Background(), id)}
	}
}

func (v *TaskView) create(c task.Create) tea.Cmd {
	return func() tea.Msg {
		_, err := v.manager.Create(context.Background(), c)
		return createdMsg{err: err}
	}
}

func (v *TaskView) cycleFilter() tea.Cmd {
	v.filterIdx = (v.filterIdx + 1) % len(statusFilters)
	filter := task.Filter{Status: statusFilters[v.filterIdx]}
	return func() tea.Msg {
		return refreshedMsg{err: v.manager.SetFilter(context.Background(), filter)}
	}
}

func (v *TaskView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		return v, nil

	case refreshedMsg:
		v.setErr(msg.err)
		v.cursor = clamp(v.cursor, 0, max(0, len(v.manager.Tasks())-1))
		return v, nil

	case mutationDoneMsg:
		v.setErr(msg.err)
		v.cursor = clamp(v.cursor, 0, max(0, len(v.manager.Tasks())-1))
		return v, nil

	case createdMsg:
		if msg.err != nil {
			// Server-side validation comes back as field details; keep them
			// on the form so the user can fix and resubmit.
			var info *api.ErrorInfo
			if errors.As(msg.err, &info) && len(info.Details) > 0 {
				v.fieldErrs = nil
				for _, d := range info.Details {
					v.fieldErrs = append(v.fieldErrs, task.FieldError{Field: d.Field, Message: d.Message})
				}
			} else {
				v.errMsg = msg.err.Error()
			}
			return v, nil
		}
		v.closeForm()
		return v, nil

	case tea.KeyMsg:
		if v.editing {
			return v.updateForm(msg)
		}
		if v.confirmingDelete {
			return v.updateConfirm(msg)
		}
		return v.updateList(msg)
	}

	return v, nil
}

func (v *TaskView) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	tasks := v.manager.Tasks()

	switch msg.String() {
	case "j", "down":
		v.cursor = clamp(v.cursor+1, 0, max(0, len(tasks)-1))
	case "k", "up":
		v.cursor = clamp(v.cursor-1, 0, max(0, len(tasks)-1))
	case " ":
		if v.cursor < len(tasks) {
			return v, v.toggle(tasks[v.cursor].ID)
		}
	case "d":
		if v.cursor < len(tasks) {
			v.confirmingDelete = true
			v.deleteTarget = tasks[v.cursor]
		}
	case "n":
		v.openForm()
		return v, textinput.Blink
	case "f":
		return v, v.cycleFilter()
	case "r":
		return v, v.refresh
	}
	return v, nil
}

func (v *TaskView) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "enter":
		v.confirmingDelete = false
		return v, v.delete(v.deleteTarget.ID)
	case "n", "esc":
		v.confirmingDelete = false
	}
	return v, nil
}

const formFields = 6

func (v *TaskView) openForm() {
	v.editing = true
	v.focusIdx = 0
	v.fieldErrs = nil
	v.titleInput.SetValue("")
	v.descInput.SetValue("")
	v.priorityInput.SetValue(string(task.PriorityMedium))
	v.tagsInput.SetValue("")
	v.dueInput.SetValue("")
	v.recurrenceInput.SetValue(string(task.RecurrenceNone))
	v.titleInput.Focus()
}

func (v *TaskView) closeForm() {
	v.editing = false
	v.fieldErrs = nil
	v.blurAll()
}

func (v *TaskView) blurAll() {
	v.titleInput.Blur()
	v.descInput.Blur()
	v.priorityInput.Blur()
	v.tagsInput.Blur()
	v.dueInput.Blur()
	v.recurrenceInput.Blur()
}

func (v *TaskView) focusField(idx int) tea.Cmd {
	v.blurAll()
	v.focusIdx = idx
	switch idx {
	case 0:
		return v.titleInput.Focus()
	case 1:
		return v.descInput.Focus()
	case 2:
		return v.priorityInput.Focus()
	case 3:
		return v.tagsInput.Focus()
	case 4:
		return v.dueInput.Focus()
	case 5:
		return v.recurrenceInput.Focus()
	}
	return nil
}

func (v *TaskView) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		v.closeForm()
		return v, nil
	case "tab", "shift+tab":
		delta := 1
		if msg.String() == "shift+tab" {
			delta = formFields - 1
		}
		return v, v.focusField((v.focusIdx + delta) % formFields)
	case "enter":
		// The description textarea needs enter for newlines.
		if v.focusIdx != 1 {
			return v.submitForm()
		}
	}

	var cmd tea.Cmd
	switch v.focusIdx {
	case 0:
		v.titleInput, cmd = v.titleInput.Update(msg)
	case 1:
		v.descInput, cmd = v.descInput.Update(msg)
	case 2:
		v.priorityInput, cmd = v.priorityInput.Update(msg)
	case 3:
		v.tagsInput, cmd = v.tagsInput.Update(msg)
	case 4:
		v.dueInput, cmd = v.dueInput.Update(msg)
	case 5:
		v.recurrenceInput, cmd = v.recurrenceInput.Update(msg)
	}
	return v, cmd
}

// submitForm validates the draft and either surfaces the field errors or
// sends the create. Errors stay on screen until the next submit re-runs
// validation.
func (v *TaskView) submitForm() (tea.Model, tea.Cmd) {
	draft := task.Draft{
		Title:       v.titleInput.Value(),
		Description: v.descInput.Value(),
		Priority:    task.Priority(strings.TrimSpace(strings.ToLower(v.priorityInput.Value()))),
		Tags:        splitTags(v.tagsInput.Value()),
		Recurrence:  task.Recurrence(strings.TrimSpace(strings.ToLower(v.recurrenceInput.Value()))),
	}

	dueRaw := strings.TrimSpace(v.dueInput.Value())
	if dueRaw != "" {
		due, err := time.Parse(dueDateLayout, dueRaw)
		if err != nil {
			v.fieldErrs = []task.FieldError{{Field: "due_date", Message: "Due date must be YYYY-MM-DD"}}
			return v, nil
		}
		draft.DueDate = &due
	}

	v.fieldErrs = task.Validate(draft)
	if len(v.fieldErrs) > 0 {
		return v, nil
	}
	return v, v.create(draft.Create())
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

func (v *TaskView) setErr(err error) {
	if err != nil {
		v.errMsg = err.Error()
	} else {
		v.errMsg = ""
	}
}

func (v *TaskView) View() string {
	if v.editing {
		return v.viewForm()
	}
	if v.confirmingDelete {
		return v.styles.Dialog.Render(fmt.Sprintf("Delete %q?\n\n[y] delete  [n] keep", v.deleteTarget.Title))
	}
	return v.viewList()
}

func (v *TaskView) viewList() string {
	var b strings.Builder

	header := "Tasks"
	if f := statusFilters[v.filterIdx]; f != "" {
		header += " · " + f
	}
	if v.manager.Loading() {
		header += " · loading…"
	}
	b.WriteString(v.styles.Title.Render(header))
	b.WriteString("\n\n")

	tasks := v.manager.Tasks()
	if len(tasks) == 0 {
		b.WriteString(v.styles.TitleMuted.Render("No tasks. Press n to add one."))
		b.WriteString("\n")
	}
	for i, t := range tasks {
		b.WriteString(v.renderTask(t, i == v.cursor))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if v.errMsg != "" {
		b.WriteString(v.styles.StatusErr.Render(v.errMsg))
		b.WriteString("\n")
	}
	b.WriteString(v.styles.Help.Render("j/k move · space toggle · n new · d delete · f filter · r refresh · tab chat · q quit"))
	return b.String()
}

func (v *TaskView) renderTask(t task.Task, selected bool) string {
	check := "[ ]"
	if t.Status == task.StatusCompleted {
		check = "[x]"
	}

	title := t.Title
	if t.Status == task.StatusCompleted {
		title = v.styles.Completed.Render(title)
	}

	var prio string
	switch t.Priority {
	case task.PriorityHigh:
		prio = v.styles.PriorityHigh.Render("high")
	case task.PriorityLow:
		prio = v.styles.PriorityLow.Render("low")
	default:
		prio = v.styles.PriorityMedium.Render("med")
	}

	line := fmt.Sprintf("%s %s  %s", check, title, prio)
	if len(t.Tags) > 0 {
		line += "  " + v.styles.Tag.Render("#"+strings.Join(t.Tags, " #"))
	}
	if t.DueDate != nil {
		line += "  " + v.styles.TitleMuted.Render("due "+t.DueDate.Format(dueDateLayout))
	}

	if selected {
		return v.styles.ListSelected.Render("› " + line)
	}
	return v.styles.ListItem.Render("  " + line)
}

func (v *TaskView) viewForm() string {
	var b strings.Builder
	b.WriteString(v.styles.Title.Render("New task"))
	b.WriteString("\n\n")

	fields := []struct {
		label string
		field string
		view  string
	}{
		{"Title", "title", v.titleInput.View()},
		{"Description", "description", v.descInput.View()},
		{"Priority", "priority", v.priorityInput.View()},
		{"Tags", "tags", v.tagsInput.View()},
		{"Due date", "due_date", v.dueInput.View()},
		{"Repeat", "recurrence", v.recurrenceInput.View()},
	}
	for _, f := range fields {
		b.WriteString(v.styles.FormLabel.Render(f.label))
		b.WriteString("\n")
		b.WriteString(f.view)
		b.WriteString("\n")
		if msg := task.ErrorFor(v.fieldErrs, f.field); msg != "" {
			b.WriteString(v.styles.FieldError.Render(msg))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	b.WriteString(v.styles.Help.Render("tab next field · enter save · esc cancel"))
	return b.String()
}
