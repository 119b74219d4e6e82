package ui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Mr-Cheen1/todo-list/domain"
)

type fakeService struct {
	listQueries []domain.ListQuery
	listResults [][]domain.Task
	listErr     error
	created     []domain.Task
	updated     []domain.Task
	deleted     []int64
	mutationErr error
}

func (f *fakeService) ListTasks(ctx context.Context, q domain.ListQuery) ([]domain.Task, error) {
	f.listQueries = append(f.listQueries, q)
	if f.listErr != nil {
		return nil, f.listErr
	}
	if len(f.listResults) == 0 {
		return []domain.Task{}, nil
	}
	next := f.listResults[0]
	f.listResults = f.listResults[1:]
	return next, nil
}

func (f *fakeService) CreateTask(ctx context.Context, task domain.Task) error {
	f.created = append(f.created, task)
	return f.mutationErr
}

func (f *fakeService) UpdateTask(ctx context.Context, task domain.Task) error {
	f.updated = append(f.updated, task)
	return f.mutationErr
}

func (f *fakeService) DeleteTask(ctx context.Context, id int64) error {
	f.deleted = append(f.deleted, id)
	return f.mutationErr
}

var testNow = time.Date(2026, time.August, 28, 12, 0, 0, 0, time.UTC)

func newTestModel(svc TaskService) *model {
	m := newModel(svc, nil)
	m.now = func() time.Time { return testNow }
	return m
}

// step feeds one message and synchronously executes the returned command,
// feeding its result back, until no command remains.
func step(t *testing.T, m *model, msg tea.Msg) {
	t.Helper()
	for msg != nil {
		next, cmd := m.Update(msg)
		if next != m {
			t.Fatal("model identity must be stable")
		}
		if cmd == nil {
			return
		}
		msg = cmd()
	}
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func typeText(t *testing.T, m *model, s string) {
	t.Helper()
	for _, r := range s {
		if r == ' ' {
			step(t, m, tea.KeyMsg{Type: tea.KeySpace})
			continue
		}
		step(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func sampleTask(id int64, text string, status domain.Status) domain.Task {
	created := domain.DateOf(testNow)
	return domain.Task{
		ID:           id,
		Text:         text,
		CreatedDate:  created,
		ExpectedDate: created.AddDays(3),
		Status:       status,
	}
}

func loadTasks(t *testing.T, m *model, svc *fakeService, tasks []domain.Task) {
	t.Helper()
	svc.listResults = append(svc.listResults, tasks)
	cmd := m.refreshCmd()
	step(t, m, cmd())
}

func TestInitLoadsTasks(t *testing.T) {
	svc := &fakeService{listResults: [][]domain.Task{{sampleTask(1, "A", domain.StatusInProgress)}}}
	m := newTestModel(svc)

	cmd := m.Init()
	if cmd == nil {
		t.Fatal("Init must schedule a refresh")
	}
	step(t, m, cmd())

	if len(m.tasks) != 1 || m.tasks[0].Text != "A" {
		t.Fatalf("unexpected tasks: %#v", m.tasks)
	}
	if len(svc.listQueries) != 1 {
		t.Fatalf("expected one list call, got %d", len(svc.listQueries))
	}
}

func TestEmptyListShowsPlaceholder(t *testing.T) {
	svc := &fakeService{}
	m := newTestModel(svc)
	loadTasks(t, m, svc, []domain.Task{})

	if view := m.View(); !strings.Contains(view, emptyListPlaceholder) {
		t.Fatalf("expected placeholder in view:\n%s", view)
	}
}

func TestInvalidCreateKeepsFormAndSkipsService(t *testing.T) {
	svc := &fakeService{}
	m := newTestModel(svc)
	loadTasks(t, m, svc, []domain.Task{})
	listCalls := len(svc.listQueries)

	step(t, m, key("a"))
	if m.mode != modeCreate {
		t.Fatal("expected create mode")
	}
	// Text left empty on purpose.
	step(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	if m.mode != modeCreate {
		t.Fatal("invalid input must keep the form open")
	}
	if m.notice == "" {
		t.Fatal("expected a validation notice")
	}
	if len(svc.created) != 0 {
		t.Fatalf("service must not be called, got %d creates", len(svc.created))
	}
	if len(svc.listQueries) != listCalls {
		t.Fatal("invalid input must not trigger a refresh")
	}
	if m.form.date == "" {
		t.Fatal("typed form values must survive a failed submit")
	}
}

func TestCreateFlowCallsCreateThenRefresh(t *testing.T) {
	svc := &fakeService{}
	m := newTestModel(svc)
	loadTasks(t, m, svc, []domain.Task{})
	listCalls := len(svc.listQueries)

	step(t, m, key("a"))
	typeText(t, m, "Buy milk")
	step(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	if len(svc.created) != 1 {
		t.Fatalf("expected one create call, got %d", len(svc.created))
	}
	created := svc.created[0]
	if created.Text != "Buy milk" {
		t.Fatalf("unexpected text: %q", created.Text)
	}
	if created.Status != domain.StatusInProgress {
		t.Fatalf("new task must be InProgress, got %v", created.Status)
	}
	if !created.CreatedDate.Equal(domain.DateOf(testNow)) {
		t.Fatalf("unexpected createdDate: %s", created.CreatedDate)
	}
	if len(svc.listQueries) != listCalls+1 {
		t.Fatalf("expected exactly one refresh after create, got %d extra", len(svc.listQueries)-listCalls)
	}
	if m.mode != modeList {
		t.Fatal("form must close after a successful create")
	}
}

func TestMutationErrorKeepsForm(t *testing.T) {
	svc := &fakeService{mutationErr: errors.New("boom")}
	m := newTestModel(svc)
	loadTasks(t, m, svc, []domain.Task{})

	step(t, m, key("a"))
	typeText(t, m, "X")
	step(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	if m.mode != modeCreate {
		t.Fatal("failed mutation must keep the form open")
	}
	if m.notice != "boom" {
		t.Fatalf("unexpected notice: %q", m.notice)
	}
	if m.form.text != "X" {
		t.Fatalf("typed text must survive, got %q", m.form.text)
	}
}

func TestStaleRefreshDiscarded(t *testing.T) {
	svc := &fakeService{}
	m := newTestModel(svc)

	stale := m.refreshCmd()
	fresh := m.refreshCmd()

	svc.listResults = [][]domain.Task{
		{sampleTask(1, "stale", domain.StatusInProgress)},
		{sampleTask(2, "fresh", domain.StatusInProgress)},
	}
	staleMsg := stale()
	freshMsg := fresh()

	step(t, m, freshMsg)
	step(t, m, staleMsg)

	if len(m.tasks) != 1 || m.tasks[0].Text != "fresh" {
		t.Fatalf("stale response must not win: %#v", m.tasks)
	}
}

func TestStatusKeyCyclesSelectedTask(t *testing.T) {
	svc := &fakeService{}
	m := newTestModel(svc)
	original := sampleTask(7, "A", domain.StatusInProgress)
	loadTasks(t, m, svc, []domain.Task{original})

	step(t, m, key("s"))

	if len(svc.updated) != 1 {
		t.Fatalf("expected one update call, got %d", len(svc.updated))
	}
	got := svc.updated[0]
	if got.Status != domain.StatusDone {
		t.Fatalf("expected Next status Done, got %v", got.Status)
	}
	if got.ID != original.ID || got.Text != original.Text {
		t.Fatalf("status cycle must not touch identity or text: %#v", got)
	}
	if !got.CreatedDate.Equal(original.CreatedDate) || !got.ExpectedDate.Equal(original.ExpectedDate) {
		t.Fatalf("status cycle must not touch dates: %#v", got)
	}
}

func TestDeleteKeyRemovesSelected(t *testing.T) {
	svc := &fakeService{}
	m := newTestModel(svc)
	loadTasks(t, m, svc, []domain.Task{sampleTask(3, "doomed", domain.StatusInProgress)})

	step(t, m, key("d"))

	if len(svc.deleted) != 1 || svc.deleted[0] != 3 {
		t.Fatalf("expected delete of id 3, got %#v", svc.deleted)
	}
}

func TestFilterKeysDriveQuery(t *testing.T) {
	svc := &fakeService{}
	m := newTestModel(svc)

	step(t, m, key("2"))
	if len(svc.listQueries) != 1 {
		t.Fatalf("expected one list call, got %d", len(svc.listQueries))
	}
	q := svc.listQueries[0]
	if q.Status == nil || *q.Status != domain.StatusDone {
		t.Fatalf("expected Done filter, got %#v", q.Status)
	}

	step(t, m, key("0"))
	q = svc.listQueries[len(svc.listQueries)-1]
	if q.Status != nil {
		t.Fatalf("expected cleared filter, got %#v", q.Status)
	}
}

func TestSortToggle(t *testing.T) {
	svc := &fakeService{}
	m := newTestModel(svc)

	step(t, m, key("o"))
	step(t, m, key("o"))

	if len(svc.listQueries) != 2 {
		t.Fatalf("expected two list calls, got %d", len(svc.listQueries))
	}
	if svc.listQueries[0].Order != domain.SortDesc || svc.listQueries[1].Order != domain.SortAsc {
		t.Fatalf("unexpected orders: %#v", svc.listQueries)
	}
}

func TestEditPreservesStatusAndCreatedDate(t *testing.T) {
	svc := &fakeService{}
	m := newTestModel(svc)
	original := sampleTask(9, "old", domain.StatusTesting)
	loadTasks(t, m, svc, []domain.Task{original})

	step(t, m, key("e"))
	if m.mode != modeEdit {
		t.Fatal("expected edit mode")
	}
	// Clear the prefilled text and type a new one.
	for range m.form.text {
		step(t, m, tea.KeyMsg{Type: tea.KeyBackspace})
	}
	typeText(t, m, "new")
	step(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	if len(svc.updated) != 1 {
		t.Fatalf("expected one update, got %d", len(svc.updated))
	}
	got := svc.updated[0]
	if got.ID != 9 || got.Text != "new" {
		t.Fatalf("unexpected update payload: %#v", got)
	}
	if got.Status != domain.StatusTesting {
		t.Fatalf("edit must keep the status, got %v", got.Status)
	}
	if !got.CreatedDate.Equal(original.CreatedDate) {
		t.Fatalf("edit must keep createdDate, got %s", got.CreatedDate)
	}
}

func TestEditStatusFieldCommitsNewStatus(t *testing.T) {
	svc := &fakeService{}
	m := newTestModel(svc)
	original := sampleTask(4, "A", domain.StatusInProgress)
	loadTasks(t, m, svc, []domain.Task{original})

	step(t, m, key("e"))
	step(t, m, tea.KeyMsg{Type: tea.KeyTab})
	step(t, m, tea.KeyMsg{Type: tea.KeyTab})
	if m.form.field != fieldStatus {
		t.Fatalf("expected the status stop, got field %d", m.form.field)
	}
	// Space cycles the status; runes must not leak into the text inputs.
	step(t, m, tea.KeyMsg{Type: tea.KeySpace})
	step(t, m, tea.KeyMsg{Type: tea.KeySpace})
	step(t, m, key("x"))
	step(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	if len(svc.updated) != 1 {
		t.Fatalf("expected one update, got %d", len(svc.updated))
	}
	got := svc.updated[0]
	if got.Status != domain.StatusTesting {
		t.Fatalf("expected status Testing after two cycles, got %v", got.Status)
	}
	if got.Text != original.Text || !got.ExpectedDate.Equal(original.ExpectedDate) {
		t.Fatalf("status stop must not touch text or dates: %#v", got)
	}
	if !got.CreatedDate.Equal(original.CreatedDate) {
		t.Fatalf("createdDate must survive the edit, got %s", got.CreatedDate)
	}
}

func TestCreateFormHasNoStatusStop(t *testing.T) {
	svc := &fakeService{}
	m := newTestModel(svc)
	loadTasks(t, m, svc, []domain.Task{})

	step(t, m, key("a"))
	step(t, m, tea.KeyMsg{Type: tea.KeyTab})
	step(t, m, tea.KeyMsg{Type: tea.KeyTab})

	if m.form.field != fieldText {
		t.Fatalf("create form must cycle over two stops, got field %d", m.form.field)
	}
}

func TestRefreshErrorKeepsTasks(t *testing.T) {
	svc := &fakeService{}
	m := newTestModel(svc)
	loadTasks(t, m, svc, []domain.Task{sampleTask(1, "kept", domain.StatusInProgress)})

	svc.listErr = errors.New("server down")
	step(t, m, key("r"))

	if len(m.tasks) != 1 || m.tasks[0].Text != "kept" {
		t.Fatalf("refresh failure must keep the last data: %#v", m.tasks)
	}
}
