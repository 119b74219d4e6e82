// Package ui provides the terminal interface for the task list.
package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	log "github.com/sirupsen/logrus"

	"github.com/Mr-Cheen1/todo-list/domain"
)

// TaskService is the slice of the API client the interface needs.
type TaskService interface {
	ListTasks(ctx context.Context, q domain.ListQuery) ([]domain.Task, error)
	CreateTask(ctx context.Context, task domain.Task) error
	UpdateTask(ctx context.Context, task domain.Task) error
	DeleteTask(ctx context.Context, id int64) error
}

const (
	emptyListPlaceholder = "Нет задач для отображения."
	requestTimeout       = 10 * time.Second
)

type uiMode int

const (
	modeList uiMode = iota
	modeCreate
	modeEdit
)

type formField int

const (
	fieldText formField = iota
	fieldDate
	fieldStatus
)

// Run starts the TUI against the given service.
func Run(ctx context.Context, svc TaskService, logger *log.Logger) error {
	program := tea.NewProgram(newModel(svc, logger), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := program.Run()
	return err
}

// tasksLoadedMsg and refreshErrMsg carry the sequence number of the refresh
// that produced them. Responses from superseded refreshes are dropped so a
// slow fetch can never overwrite newer data.
type tasksLoadedMsg struct {
	seq   uint64
	tasks []domain.Task
}

type refreshErrMsg struct {
	seq uint64
	err error
}

type mutationDoneMsg struct {
	err error
}

type taskForm struct {
	text   string
	date   string
	status domain.Status
	field  formField
}

type model struct {
	svc    TaskService
	logger *log.Logger
	now    func() time.Time

	tasks  []domain.Task
	cursor int
	filter *domain.Status
	order  domain.SortOrder

	mode   uiMode
	form   taskForm
	editID int64
	edited domain.Task

	refreshSeq uint64
	notice     string
}

func newModel(svc TaskService, logger *log.Logger) *model {
	return &model{
		svc:    svc,
		logger: logger,
		now:    time.Now,
		order:  domain.SortAsc,
	}
}

func (m *model) Init() tea.Cmd {
	return m.refreshCmd()
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.mode == modeList {
			return m.updateList(msg)
		}
		return m.updateForm(msg)
	case tasksLoadedMsg:
		if msg.seq != m.refreshSeq {
			return m, nil
		}
		m.tasks = msg.tasks
		if m.cursor >= len(m.tasks) {
			m.cursor = len(m.tasks) - 1
		}
		if m.cursor < 0 {
			m.cursor = 0
		}
		return m, nil
	case refreshErrMsg:
		if msg.seq != m.refreshSeq {
			return m, nil
		}
		if m.logger != nil {
			m.logger.WithError(msg.err).Warn("task list refresh failed")
		}
		return m, nil
	case mutationDoneMsg:
		if msg.err != nil {
			m.notice = msg.err.Error()
			return m, nil
		}
		m.notice = ""
		m.mode = modeList
		m.form = taskForm{}
		return m, m.refreshCmd()
	}
	return m, nil
}

func (m *model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil
	case "down", "j":
		if m.cursor < len(m.tasks)-1 {
			m.cursor++
		}
		return m, nil
	case "r", "f5":
		return m, m.refreshCmd()
	case "o":
		if m.order == domain.SortDesc {
			m.order = domain.SortAsc
		} else {
			m.order = domain.SortDesc
		}
		return m, m.refreshCmd()
	case "a":
		m.mode = modeCreate
		m.form = taskForm{date: domain.DateOf(m.now()).AddDays(1).String()}
		m.notice = ""
		return m, nil
	case "e":
		task, ok := m.selected()
		if !ok {
			return m, nil
		}
		m.mode = modeEdit
		m.editID = task.ID
		m.edited = task
		m.form = taskForm{text: task.Text, date: task.ExpectedDate.String(), status: task.Status}
		m.notice = ""
		return m, nil
	case "s":
		task, ok := m.selected()
		if !ok {
			return m, nil
		}
		task.Status = task.Status.Next()
		return m, m.mutateCmd(func(ctx context.Context) error {
			return m.svc.UpdateTask(ctx, task)
		})
	case "d":
		task, ok := m.selected()
		if !ok {
			return m, nil
		}
		return m, m.mutateCmd(func(ctx context.Context) error {
			return m.svc.DeleteTask(ctx, task.ID)
		})
	case "0":
		m.filter = nil
		return m, m.refreshCmd()
	case "1", "2", "3", "4":
		status := domain.Status(msg.String()[0] - '1')
		m.filter = &status
		return m, m.refreshCmd()
	}
	return m, nil
}

func (m *model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit
	case tea.KeyEsc:
		m.mode = modeList
		m.form = taskForm{}
		m.notice = ""
		return m, nil
	case tea.KeyTab, tea.KeyShiftTab:
		m.form.field = (m.form.field + 1) % m.formFieldCount()
		return m, nil
	case tea.KeyEnter:
		return m.commitForm()
	case tea.KeyRight:
		if m.form.field == fieldStatus {
			m.form.status = m.form.status.Next()
		}
		return m, nil
	case tea.KeyBackspace:
		if m.form.field == fieldStatus {
			return m, nil
		}
		field := m.formValue()
		if runes := []rune(*field); len(runes) > 0 {
			*field = string(runes[:len(runes)-1])
		}
		return m, nil
	case tea.KeySpace:
		if m.form.field == fieldStatus {
			m.form.status = m.form.status.Next()
			return m, nil
		}
		*m.formValue() += " "
		return m, nil
	case tea.KeyRunes:
		if m.form.field == fieldStatus {
			return m, nil
		}
		*m.formValue() += string(msg.Runes)
		return m, nil
	}
	return m, nil
}

// formFieldCount reports how many Tab stops the active form has. New tasks
// always start InProgress, so the status stop exists only while editing.
func (m *model) formFieldCount() formField {
	if m.mode == modeEdit {
		return fieldStatus + 1
	}
	return fieldDate + 1
}

func (m *model) formValue() *string {
	if m.form.field == fieldDate {
		return &m.form.date
	}
	return &m.form.text
}

// commitForm validates the form locally. Invalid input keeps the form open
// with the typed values intact; a valid task goes to the server and the form
// closes only once the mutation succeeds.
func (m *model) commitForm() (tea.Model, tea.Cmd) {
	expected, err := domain.ParseDate(strings.TrimSpace(m.form.date))
	if err != nil {
		m.notice = "Неверный формат даты, ожидается ГГГГ-ММ-ДД."
		return m, nil
	}

	var task domain.Task
	if m.mode == modeEdit {
		task, err = domain.ValidateForUpdate(m.edited, m.form.text, expected, m.form.status)
	} else {
		task, err = domain.ValidateForCreate(m.form.text, expected, m.now())
	}
	if err != nil {
		m.notice = err.Error()
		return m, nil
	}

	if m.mode == modeEdit {
		return m, m.mutateCmd(func(ctx context.Context) error {
			return m.svc.UpdateTask(ctx, task)
		})
	}
	return m, m.mutateCmd(func(ctx context.Context) error {
		return m.svc.CreateTask(ctx, task)
	})
}

func (m *model) selected() (domain.Task, bool) {
	if m.cursor < 0 || m.cursor >= len(m.tasks) {
		return domain.Task{}, false
	}
	return m.tasks[m.cursor], true
}

func (m *model) refreshCmd() tea.Cmd {
	m.refreshSeq++
	seq := m.refreshSeq
	query := domain.ListQuery{Order: m.order}
	if m.filter != nil {
		status := *m.filter
		query.Status = &status
	}
	svc := m.svc
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		tasks, err := svc.ListTasks(ctx, query)
		if err != nil {
			return refreshErrMsg{seq: seq, err: err}
		}
		return tasksLoadedMsg{seq: seq, tasks: tasks}
	}
}

func (m *model) mutateCmd(op func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return mutationDoneMsg{err: op(ctx)}
	}
}

func (m *model) View() string {
	var b strings.Builder
	writeTitle(&b)

	if m.mode != modeList {
		m.writeForm(&b)
		if m.notice != "" {
			b.WriteString("\n! " + m.notice + "\n")
		}
		return b.String()
	}

	if m.filter != nil {
		b.WriteString(fmt.Sprintf("Фильтр: %s (0 для сброса)\n\n", m.filter.Label()))
	}

	if len(m.tasks) == 0 {
		b.WriteString(emptyListPlaceholder + "\n\n")
	} else {
		for i, task := range m.tasks {
			b.WriteString(formatTask(task, i == m.cursor))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if m.notice != "" {
		b.WriteString("! " + m.notice + "\n\n")
	}
	writeFooter(&b, m.order)
	return b.String()
}

func (m *model) writeForm(b *strings.Builder) {
	if m.mode == modeEdit {
		b.WriteString("Редактирование задачи\n\n")
	} else {
		b.WriteString("Новая задача\n\n")
	}
	b.WriteString(formLine("Текст", m.form.text, m.form.field == fieldText))
	b.WriteString(formLine("Срок", m.form.date, m.form.field == fieldDate))
	if m.mode == modeEdit {
		b.WriteString(formLine("Статус", m.form.status.Label(), m.form.field == fieldStatus))
		b.WriteString("\nTab переключает поле | Пробел меняет статус | Enter сохраняет | Esc отменяет\n")
		return
	}
	b.WriteString("\nTab переключает поле | Enter сохраняет | Esc отменяет\n")
}

func formLine(label, value string, active bool) string {
	marker := "  "
	if active {
		marker = "> "
	}
	return fmt.Sprintf("%s%s: %s\n", marker, label, value)
}

func writeTitle(b *strings.Builder) {
	title := "Список задач"
	b.WriteString(title + "\n")
	b.WriteString(strings.Repeat("=", len([]rune(title))) + "\n\n")
}

func writeFooter(b *strings.Builder, order domain.SortOrder) {
	direction := "по возрастанию"
	if order == domain.SortDesc {
		direction = "по убыванию"
	}
	b.WriteString(fmt.Sprintf("Сортировка по дате создания %s\n", direction))
	b.WriteString("a добавить | e изменить | s статус | d удалить | 1-4 фильтр | 0 сброс | o сортировка | r обновить | q выход\n")
}

func formatTask(t domain.Task, current bool) string {
	marker := "  "
	if current {
		marker = "> "
	}
	return fmt.Sprintf("%s[%s] %s (создана %s, срок %s)", marker, t.Status.Label(), t.Text, t.CreatedDate, t.ExpectedDate)
}
