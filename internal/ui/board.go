// Package ui is the interactive board: four status columns over the live
// reconciliation engine, with keyboard-driven reordering and cross-column
// moves in place of the browser client's drag-and-drop.
package ui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/taskdeck/taskdeck/internal/api"
	"github.com/taskdeck/taskdeck/internal/models"
	"github.com/taskdeck/taskdeck/internal/state"
)

var bucketTitles = map[string]string{
	models.TaskStatusTodo:       "To Do",
	models.TaskStatusInProgress: "In Progress",
	models.TaskStatusReview:     "Review",
	models.TaskStatusDone:       "Done",
}

// Messages delivered from outside the program loop.
type (
	// EventMsg is a realtime push forwarded by the board command's bus
	// subscription.
	EventMsg struct {
		Kind models.ChangeKind
		Task models.Task
		// DeletedID is set instead of Task for deletions.
		DeletedID int64
	}
	// ReconnectedMsg reports a realtime gap; the model re-fetches the
	// snapshot since pushed events may have been missed.
	ReconnectedMsg struct{}
	// ConnStatusMsg mirrors the transport's connection transitions.
	ConnStatusMsg struct{ Status api.Status }

	tasksMsg struct{ tasks []models.Task }
	usersMsg struct{ users []models.User }
	errMsg   struct{ err error }
)

// mutationMsg settles an optimistic mutation: task carries the server echo on
// success, err triggers a rollback.
type mutationMsg struct {
	key  string
	task *models.Task
	err  error
}

type keyMap struct {
	Left      key.Binding
	Right     key.Binding
	Up        key.Binding
	Down      key.Binding
	MoveUp    key.Binding
	MoveDown  key.Binding
	MoveLeft  key.Binding
	MoveRight key.Binding
	Toggle    key.Binding
	Refresh   key.Binding
	Quit      key.Binding
}

var keys = keyMap{
	Left:      key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "prev column")),
	Right:     key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "next column")),
	Up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	MoveUp:    key.NewBinding(key.WithKeys("shift+up", "K"), key.WithHelp("K", "reorder up")),
	MoveDown:  key.NewBinding(key.WithKeys("shift+down", "J"), key.WithHelp("J", "reorder down")),
	MoveLeft:  key.NewBinding(key.WithKeys("shift+left", "H"), key.WithHelp("H", "move left")),
	MoveRight: key.NewBinding(key.WithKeys("shift+right", "L"), key.WithHelp("L", "move right")),
	Toggle:    key.NewBinding(key.WithKeys("x", " "), key.WithHelp("x", "toggle done")),
	Refresh:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
	Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

var (
	columnStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
	activeColumnStyle = columnStyle.
				BorderForeground(lipgloss.Color("62"))
	titleStyle    = lipgloss.NewStyle().Bold(true)
	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("229")).
			Background(lipgloss.Color("62"))
	doneStyle   = lipgloss.NewStyle().Faint(true).Strikethrough(true)
	footerStyle = lipgloss.NewStyle().Faint(true)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// Model is the bubbletea model for the board view.
type Model struct {
	board  *state.Board
	client *api.Client
	log    *slog.Logger

	// projectID scopes the board to one project; nil shows my tasks.
	projectID *int64

	users map[int64]string

	col, row int
	conn     string
	flash    string
	width    int
	height   int
}

// NewModel creates a board model over a fresh reconciliation engine.
func NewModel(client *api.Client, board *state.Board, projectID *int64, log *slog.Logger) Model {
	return Model{
		board:     board,
		client:    client,
		log:       log,
		projectID: projectID,
		users:     make(map[int64]string),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.fetchTasks(), m.fetchUsers())
}

func (m Model) fetchTasks() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		var (
			tasks []models.Task
			err   error
		)
		if m.projectID != nil {
			tasks, err = m.client.Projects.Tasks(ctx, *m.projectID)
		} else {
			tasks, err = m.client.Tasks.List(ctx, true)
		}
		if err != nil {
			return errMsg{err}
		}
		return tasksMsg{tasks}
	}
}

func (m Model) fetchUsers() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		users, err := m.client.Users.List(ctx)
		if err != nil {
			return errMsg{err}
		}
		return usersMsg{users}
	}
}

// updateStatus issues the server mutation backing an optimistic move or
// toggle; the result settles the staged row.
func (m Model) updateStatus(taskKey string, id int64, status string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		task, err := m.client.Tasks.Update(ctx, id, models.TaskUpdate{Status: &status})
		if err != nil {
			return mutationMsg{key: taskKey, err: err}
		}
		return mutationMsg{key: taskKey, task: &task}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case tasksMsg:
		m.board.ApplySnapshot(msg.tasks)
		m.clampCursor()
		return m, nil

	case usersMsg:
		for _, u := range msg.users {
			m.users[u.ID] = u.Name
		}
		return m, nil

	case EventMsg:
		switch msg.Kind {
		case models.ChangeCreated:
			m.board.ApplyCreated(msg.Task)
		case models.ChangeUpdated:
			m.board.ApplyUpdated(msg.Task)
		case models.ChangeDeleted:
			m.board.ApplyDeleted(msg.DeletedID)
		}
		m.clampCursor()
		return m, nil

	case ReconnectedMsg:
		m.flash = "event stream reconnected, refreshing"
		return m, m.fetchTasks()

	case ConnStatusMsg:
		if msg.Status == api.StatusReconnecting {
			m.conn = "reconnecting..."
		} else {
			m.conn = ""
		}
		return m, nil

	case mutationMsg:
		if msg.err != nil {
			m.board.Rollback(msg.key)
			m.flash = errorStyle.Render(fmt.Sprintf("update failed: %v", msg.err))
			m.clampCursor()
			return m, nil
		}
		m.board.Confirm(msg.key, msg.task)
		return m, nil

	case errMsg:
		m.flash = errorStyle.Render(msg.err.Error())
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, keys.Left):
		if m.col > 0 {
			m.col--
		}
	case key.Matches(msg, keys.Right):
		if m.col < len(models.TaskStatuses)-1 {
			m.col++
		}
	case key.Matches(msg, keys.Up):
		if m.row > 0 {
			m.row--
		}
	case key.Matches(msg, keys.Down):
		if m.row < len(m.currentBucket())-1 {
			m.row++
		}
	case key.Matches(msg, keys.MoveUp):
		if m.row > 0 {
			if err := m.board.Reorder(m.currentStatus(), m.row, m.row-1); err == nil {
				m.row--
			}
		}
	case key.Matches(msg, keys.MoveDown):
		if m.row < len(m.currentBucket())-1 {
			if err := m.board.Reorder(m.currentStatus(), m.row, m.row+1); err == nil {
				m.row++
			}
		}
	case key.Matches(msg, keys.MoveLeft):
		if m.col > 0 {
			return m.moveAcross(models.TaskStatuses[m.col-1])
		}
	case key.Matches(msg, keys.MoveRight):
		if m.col < len(models.TaskStatuses)-1 {
			return m.moveAcross(models.TaskStatuses[m.col+1])
		}
	case key.Matches(msg, keys.Toggle):
		return m.toggleDone()
	case key.Matches(msg, keys.Refresh):
		m.flash = ""
		return m, m.fetchTasks()
	}
	m.clampCursor()
	return m, nil
}

// moveAcross relocates the selected task to another column optimistically
// and issues the matching status update.
func (m Model) moveAcross(toStatus string) (tea.Model, tea.Cmd) {
	task, ok := m.selected()
	if !ok {
		return m, nil
	}
	taskKey := task.EntityKey()
	if task.ID == 0 {
		m.flash = "task not confirmed yet"
		return m, nil
	}
	if err := m.board.StageMove(taskKey, toStatus, len(m.board.Bucket(toStatus))); err != nil {
		m.flash = errorStyle.Render(err.Error())
		return m, nil
	}
	m.col = indexOfStatus(toStatus)
	m.row = len(m.board.Bucket(toStatus)) - 1
	m.clampCursor()
	return m, m.updateStatus(taskKey, task.ID, toStatus)
}

func (m Model) toggleDone() (tea.Model, tea.Cmd) {
	task, ok := m.selected()
	if !ok || task.ID == 0 {
		return m, nil
	}
	next := models.TaskStatusDone
	if task.Status == models.TaskStatusDone {
		next = models.TaskStatusTodo
	}
	taskKey := task.EntityKey()
	if err := m.board.StageMove(taskKey, next, len(m.board.Bucket(next))); err != nil {
		m.flash = errorStyle.Render(err.Error())
		return m, nil
	}
	m.clampCursor()
	return m, m.updateStatus(taskKey, task.ID, next)
}

func (m Model) currentStatus() string {
	return models.TaskStatuses[m.col]
}

func (m Model) currentBucket() []models.Task {
	return m.board.Bucket(m.currentStatus())
}

func (m Model) selected() (models.Task, bool) {
	bucket := m.currentBucket()
	if m.row < 0 || m.row >= len(bucket) {
		return models.Task{}, false
	}
	return bucket[m.row], true
}

func (m *Model) clampCursor() {
	if n := len(m.currentBucket()); m.row >= n {
		m.row = n - 1
	}
	if m.row < 0 {
		m.row = 0
	}
}

func indexOfStatus(status string) int {
	for i, s := range models.TaskStatuses {
		if s == status {
			return i
		}
	}
	return 0
}

func (m Model) View() string {
	colWidth := 28
	if m.width > 0 {
		if w := m.width/len(models.TaskStatuses) - 2; w > 20 {
			colWidth = w
		}
	}

	columns := make([]string, 0, len(models.TaskStatuses))
	for i, status := range models.TaskStatuses {
		columns = append(columns, m.renderColumn(i, status, colWidth))
	}
	board := lipgloss.JoinHorizontal(lipgloss.Top, columns...)

	footer := footerStyle.Render("←→ columns · ↑↓ select · J/K reorder · H/L move · x toggle · r refresh · q quit")
	lines := []string{board, footer}
	if m.conn != "" {
		lines = append(lines, footerStyle.Render(m.conn))
	}
	if m.flash != "" {
		lines = append(lines, m.flash)
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderColumn(i int, status string, width int) string {
	tasks := m.board.Bucket(status)
	var sb strings.Builder
	sb.WriteString(titleStyle.Render(fmt.Sprintf("%s (%d)", bucketTitles[status], len(tasks))))
	sb.WriteString("\n")

	for j, t := range tasks {
		line := taskLine(t, m.users, width-2)
		switch {
		case i == m.col && j == m.row:
			line = selectedStyle.Render(line)
		case t.Status == models.TaskStatusDone:
			line = doneStyle.Render(line)
		}
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	if len(tasks) == 0 {
		sb.WriteString(footerStyle.Render("(empty)"))
	}

	style := columnStyle
	if i == m.col {
		style = activeColumnStyle
	}
	return style.Width(width).Render(sb.String())
}

func taskLine(t models.Task, users map[int64]string, width int) string {
	marker := " "
	switch t.Priority {
	case models.PriorityHigh:
		marker = "!"
	case models.PriorityMedium:
		marker = "-"
	}
	line := fmt.Sprintf("%s %s", marker, t.Title)
	if t.ID == 0 {
		line += " (saving)"
	} else if t.AssigneeID != nil {
		if name, ok := users[*t.AssigneeID]; ok {
			line += " @" + name
		}
	}
	if len(line) > width && width > 3 {
		line = line[:width-3] + "..."
	}
	return line
}
