package views

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tgienger/tdt/internal/models"
	"github.com/tgienger/tdt/internal/service"
	"github.com/tgienger/tdt/internal/todotxt"
)

const sampleTodo = "(A) Buy milk +home---errands\n" +
	"Rake leaves +home---garden @outside\n" +
	"Write report +work\n" +
	"x Pay rent +home\n" +
	"Fix homework +homework"

func newTaskList(t *testing.T, project string) (*TaskListView, *service.Service) {
	t.Helper()

	svc := openService(t, sampleTodo)
	v := NewTaskListView(svc, project, false)
	v.Update(windowSize)
	v.SetTasks(svc.FetchAll())
	return v, svc
}

func visibleSubjects(v *TaskListView) []string {
	var out []string
	for _, t := range v.Visible() {
		out = append(out, t.Subject)
	}
	return out
}

// apply runs cmd and feeds a resulting DataMsg back into the view.
func apply(t *testing.T, v *TaskListView, cmd tea.Cmd) {
	t.Helper()

	msg := exec(cmd)
	if errMsg, ok := msg.(ErrMsg); ok {
		t.Fatalf("unexpected error: %v", errMsg.Err)
	}
	data, ok := msg.(DataMsg)
	require.True(t, ok, "expected DataMsg, got %T", msg)
	v.SetTasks(data.Tasks)
}

func TestTaskListFiltersByProjectNode(t *testing.T) {
	v, _ := newTaskList(t, "home")

	assert.Equal(t, []string{"Buy milk +home---errands", "Rake leaves +home---garden @outside"}, visibleSubjects(v))
	assert.Equal(t, "home", v.Project())
}

func TestTaskListAllTasks(t *testing.T) {
	v, _ := newTaskList(t, "")

	assert.Equal(t, []string{
		"Buy milk +home---errands",
		"Rake leaves +home---garden @outside",
		"Write report +work",
		"Fix homework +homework",
	}, visibleSubjects(v))
}

func TestTaskListShowCompleted(t *testing.T) {
	v, _ := newTaskList(t, "home")

	v.Update(press("c"))
	assert.Equal(t, []string{"Pay rent +home"}, visibleSubjects(v))
	assert.Contains(t, v.View(), "(Completed)")

	v.Update(press("c"))
	assert.Len(t, v.Visible(), 2)
}

func TestTaskListToggle(t *testing.T) {
	v, svc := newTaskList(t, "home")

	_, cmd := v.Update(press("x"))
	apply(t, v, cmd)

	assert.Equal(t, []string{"Rake leaves +home---garden @outside"}, visibleSubjects(v))
	task, err := svc.Get(1)
	require.NoError(t, err)
	assert.True(t, task.Finished)
}

func TestTaskListCyclePriority(t *testing.T) {
	v, svc := newTaskList(t, "home")

	// Move to "Rake leaves", which has no priority.
	v.Update(press("down"))

	want := []string{"A", "B", "C", ""}
	for _, label := range want {
		_, cmd := v.Update(press("p"))
		apply(t, v, cmd)

		task, err := svc.Get(2)
		require.NoError(t, err)
		assert.Equal(t, label, task.PriorityLabel)
	}
}

func TestNextPriority(t *testing.T) {
	tests := []struct {
		name string
		pri  todotxt.Priority
		want todotxt.Priority
	}{
		{"none", todotxt.PriorityNone, 0},
		{"A", 0, 1},
		{"B", 1, 2},
		{"C", 2, todotxt.PriorityNone},
		{"Z", 25, todotxt.PriorityNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := nextPriority(models.Task{Priority: uint8(tt.pri)})
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTaskListAddPrefillsProject(t *testing.T) {
	v, svc := newTaskList(t, "home---garden")

	v.Update(press("n"))
	v.Update(press("Water plants"))
	_, cmd := v.Update(press("enter"))
	apply(t, v, cmd)

	assert.Equal(t, []string{
		"Rake leaves +home---garden @outside",
		"Water plants +home---garden",
	}, visibleSubjects(v))
	tasks := svc.FetchAll()
	assert.Equal(t, []string{"home---garden"}, tasks[len(tasks)-1].Projects)
}

func TestTaskListEdit(t *testing.T) {
	v, svc := newTaskList(t, "work")

	v.Update(press("e"))
	v.Update(press(" today"))
	_, cmd := v.Update(press("enter"))
	apply(t, v, cmd)

	task, err := svc.Get(3)
	require.NoError(t, err)
	assert.Equal(t, "Write report +work today", task.Raw)
}

func TestTaskListEditCancel(t *testing.T) {
	v, svc := newTaskList(t, "work")

	v.Update(press("e"))
	v.Update(press(" today"))
	_, cmd := v.Update(press("esc"))

	assert.Nil(t, cmd)
	task, err := svc.Get(3)
	require.NoError(t, err)
	assert.Equal(t, "Write report +work", task.Raw)
}

func TestTaskListDeleteAsksFirst(t *testing.T) {
	v, svc := newTaskList(t, "work")

	v.Update(press("d"))
	assert.Contains(t, v.View(), "Delete Task?")

	_, cmd := v.Update(press("n"))
	assert.Nil(t, cmd)
	assert.Len(t, svc.FetchAll(), 5)

	v.Update(press("d"))
	_, cmd = v.Update(press("y"))
	apply(t, v, cmd)

	assert.Empty(t, v.Visible())
	assert.Len(t, svc.FetchAll(), 4)
}

func TestTaskListFuzzySearch(t *testing.T) {
	v, _ := newTaskList(t, "")

	v.Update(press("/"))
	v.Update(press("rpt"))
	assert.Equal(t, []string{"Write report +work"}, visibleSubjects(v))

	// enter keeps the query, esc then clears it
	v.Update(press("enter"))
	assert.Len(t, v.Visible(), 1)

	_, cmd := v.Update(press("esc"))
	assert.Nil(t, cmd)
	assert.Len(t, v.Visible(), 4)
}

func TestTaskListBackToTree(t *testing.T) {
	v, _ := newTaskList(t, "home")

	_, cmd := v.Update(press("esc"))
	assert.Equal(t, BackToTree{}, exec(cmd))
}

func TestTaskListYank(t *testing.T) {
	var copied string
	orig := writeClipboard
	t.Cleanup(func() { writeClipboard = orig })

	writeClipboard = func(text string) error {
		copied = text
		return nil
	}

	v, _ := newTaskList(t, "home")
	_, cmd := v.Update(press("y"))

	assert.Equal(t, StatusMsg("copied: (A) Buy milk +home---errands"), exec(cmd))
	assert.Equal(t, "(A) Buy milk +home---errands", copied)

	writeClipboard = func(string) error { return errors.New("no clipboard") }
	_, cmd = v.Update(press("y"))

	msg, ok := exec(cmd).(ErrMsg)
	require.True(t, ok)
	assert.ErrorContains(t, msg.Err, "no clipboard")
}

func TestTaskListDetail(t *testing.T) {
	v, _ := newTaskList(t, "home")

	v.Update(press("down"))
	v.Update(press("enter"))

	view := v.View()
	assert.Contains(t, view, "Rake leaves")
	assert.Contains(t, view, "Contexts")
	assert.Contains(t, view, "@outside")

	v.Update(press("esc"))
	assert.Contains(t, v.View(), "+home")
}
