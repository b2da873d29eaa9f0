package service

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tgienger/tdt/internal/logging"
	"github.com/tgienger/tdt/internal/models"
	"github.com/tgienger/tdt/internal/todotxt"
)

func openTemp(t *testing.T, content string, opts ...Option) (*Service, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "todo.txt")
	if content != "" {
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}

	svc, err := Open(path, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })

	return svc, path
}

func readFile(t *testing.T, path string) string {
	t.Helper()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func subjects(tasks []models.Task) []string {
	out := make([]string, len(tasks))
	for i, task := range tasks {
		out[i] = task.Subject
	}
	return out
}

func TestOpenEmptyPath(t *testing.T) {
	_, err := Open("")

	require.ErrorIs(t, err, ErrEmptyPath)
}

func TestFetchAll(t *testing.T) {
	svc, _ := openTemp(t, "(A) Buy milk @shopping +home---errands\nx Clean desk @home")

	tasks := svc.FetchAll()
	require.Len(t, tasks, 2)

	assert.Equal(t, models.Task{
		ID:            1,
		Subject:       "Buy milk @shopping +home---errands",
		Priority:      0,
		PriorityLabel: "A",
		Contexts:      []string{"shopping"},
		Projects:      []string{"home---errands"},
		Raw:           "(A) Buy milk @shopping +home---errands",
	}, tasks[0])

	assert.True(t, tasks[1].Finished)
	assert.Equal(t, uint8(todotxt.PriorityNone), tasks[1].Priority)
	assert.False(t, tasks[1].HasPriority())
	assert.Equal(t, []string{}, tasks[1].Projects)
}

func TestMissingFileStartsEmptyAndIsCreatedOnAdd(t *testing.T) {
	svc, path := openTemp(t, "")

	assert.Empty(t, svc.FetchAll())
	_, err := os.Stat(path)
	require.ErrorIs(t, err, os.ErrNotExist)

	tasks, err := svc.Add("Call mom")
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, uint64(1), tasks[0].ID)
	assert.Equal(t, "Call mom", readFile(t, path))
}

func TestMutationsPersistBeforeReturning(t *testing.T) {
	svc, path := openTemp(t, "Call mom")

	tasks, err := svc.Add("Pay rent +home")
	require.NoError(t, err)
	assert.Equal(t, []string{"Call mom", "Pay rent +home"}, subjects(tasks))
	assert.Equal(t, "Call mom\nPay rent +home", readFile(t, path))

	tasks, err = svc.Delete(1)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, uint64(2), tasks[0].ID)
	assert.Equal(t, "Pay rent +home", readFile(t, path))

	tasks, err = svc.SetPriority(2, 1)
	require.NoError(t, err)
	assert.Equal(t, "B", tasks[0].PriorityLabel)
	assert.Equal(t, "(B) Pay rent +home", readFile(t, path))

	tasks, err = svc.Edit(2, "(C) Pay rent early +home---bills")
	require.NoError(t, err)
	assert.Equal(t, uint64(2), tasks[0].ID)
	assert.Equal(t, []string{"home---bills"}, tasks[0].Projects)
	assert.Equal(t, "(C) Pay rent early +home---bills", readFile(t, path))
}

func TestToggle(t *testing.T) {
	svc, path := openTemp(t, "(A) Write report")

	tasks, err := svc.Toggle(1)
	require.NoError(t, err)
	assert.True(t, tasks[0].Finished)
	today := time.Now().Format(todotxt.DateLayout)
	assert.Equal(t, "x "+today+" Write report pri:A", readFile(t, path))

	tasks, err = svc.Toggle(1)
	require.NoError(t, err)
	assert.False(t, tasks[0].Finished)
	assert.Equal(t, "(A) Write report", readFile(t, path))
}

func TestCompleteUncomplete(t *testing.T) {
	svc, _ := openTemp(t, "one")

	tasks, err := svc.Complete(1)
	require.NoError(t, err)
	assert.True(t, tasks[0].Finished)

	tasks, err = svc.Complete(1)
	require.NoError(t, err)
	assert.True(t, tasks[0].Finished)

	tasks, err = svc.Uncomplete(1)
	require.NoError(t, err)
	assert.False(t, tasks[0].Finished)
}

func TestNotFoundLeavesFileUntouched(t *testing.T) {
	svc, path := openTemp(t, "one\ntwo")
	before, err := os.Stat(path)
	require.NoError(t, err)

	_, err = svc.Toggle(9)
	require.ErrorIs(t, err, todotxt.ErrNotFound)
	_, err = svc.Delete(9)
	require.ErrorIs(t, err, todotxt.ErrNotFound)
	_, err = svc.Edit(9, "x")
	require.ErrorIs(t, err, todotxt.ErrNotFound)
	_, err = svc.SetPriority(9, 0)
	require.ErrorIs(t, err, todotxt.ErrNotFound)
	_, err = svc.Get(9)
	require.ErrorIs(t, err, todotxt.ErrNotFound)

	after, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, before.ModTime(), after.ModTime())
	assert.Equal(t, "one\ntwo", readFile(t, path))
	assert.Len(t, svc.FetchAll(), 2)
}

func TestTree(t *testing.T) {
	svc, _ := openTemp(t, "a +home---errands\nb +home---bills\nc +work")

	tree := svc.Tree()
	require.Len(t, tree, 2)
	assert.Equal(t, "home", tree[0].Name)
	assert.Equal(t, 0, tree[0].DirectCount)
	assert.Len(t, tree[0].Children, 2)
	assert.Equal(t, "work", tree[1].Name)
}

func TestReloadPicksUpExternalEdits(t *testing.T) {
	svc, path := openTemp(t, "one")

	require.NoError(t, os.WriteFile(path, []byte("one\ntwo\nthree"), 0o644))
	// Make sure the stamp differs even on coarse mtime filesystems.
	future := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(path, future, future))

	tasks, reloaded, err := svc.ReloadIfChanged()
	require.NoError(t, err)
	assert.True(t, reloaded)
	assert.Equal(t, []string{"one", "two", "three"}, subjects(tasks))

	_, reloaded, err = svc.ReloadIfChanged()
	require.NoError(t, err)
	assert.False(t, reloaded)

	tasks, err = svc.Reload()
	require.NoError(t, err)
	assert.Len(t, tasks, 3)
}

func TestOwnWritesDoNotTriggerReload(t *testing.T) {
	svc, _ := openTemp(t, "one")

	_, err := svc.Add("two")
	require.NoError(t, err)

	_, reloaded, err := svc.ReloadIfChanged()
	require.NoError(t, err)
	assert.False(t, reloaded)
}

func TestLockFileCreated(t *testing.T) {
	svc, path := openTemp(t, "one")

	_, err := svc.Add("two")
	require.NoError(t, err)

	_, err = os.Stat(path + lockSuffix)
	require.NoError(t, err)
}

func TestWithoutLock(t *testing.T) {
	_, path := openTemp(t, "one", WithoutLock())

	_, err := os.Stat(path + lockSuffix)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestTwoServicesMergeWrites(t *testing.T) {
	first, path := openTemp(t, "base")
	second, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = second.Close() })

	_, err = first.Add("from first")
	require.NoError(t, err)
	tasks, err := second.Add("from second")
	require.NoError(t, err)

	assert.Equal(t, "base\nfrom first\nfrom second", readFile(t, path))
	assert.Equal(t, []string{"base", "from first", "from second"}, subjects(tasks))
}

func TestTwoServicesAddingConcurrentlyKeepEveryTask(t *testing.T) {
	first, path := openTemp(t, "")
	second, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = second.Close() })

	var wg sync.WaitGroup
	for i := range 20 {
		svc := first
		if i%2 == 1 {
			svc = second
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Add(fmt.Sprintf("task %d", i))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	reloaded, err := todotxt.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 20, reloaded.Len())
}

func TestExternalEditKeepsIDsOfUntouchedTasks(t *testing.T) {
	svc, path := openTemp(t, "a\nb\nc")

	require.NoError(t, os.WriteFile(path, []byte("z\na\nb\nc"), 0o644))

	tasks, err := svc.Delete(3)
	require.NoError(t, err)
	assert.Equal(t, []string{"z", "a", "b"}, subjects(tasks))
	assert.Equal(t, "z\na\nb", readFile(t, path))

	ids := make([]uint64, len(tasks))
	for i, task := range tasks {
		ids[i] = task.ID
	}
	assert.Equal(t, []uint64{4, 1, 2}, ids)
}

func TestMutatingExternallyEditedTaskFails(t *testing.T) {
	svc, path := openTemp(t, "a\nb\nc")

	require.NoError(t, os.WriteFile(path, []byte("a\nb\nc edited"), 0o644))

	_, err := svc.Delete(3)
	require.ErrorIs(t, err, todotxt.ErrNotFound)
	assert.Equal(t, "a\nb\nc edited", readFile(t, path))
}

func TestReloadIfChangedDetectsSameSizeEdit(t *testing.T) {
	svc, path := openTemp(t, "aaa")

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, []byte("bbb"), 0o644))
	require.NoError(t, os.Chtimes(path, info.ModTime(), info.ModTime()))

	tasks, reloaded, err := svc.ReloadIfChanged()
	require.NoError(t, err)
	assert.True(t, reloaded)
	assert.Equal(t, []string{"bbb"}, subjects(tasks))
}

func TestReloadKeepsIDs(t *testing.T) {
	svc, path := openTemp(t, "a\nb")

	require.NoError(t, os.WriteFile(path, []byte("new\na\nb"), 0o644))

	tasks, err := svc.Reload()
	require.NoError(t, err)
	require.Len(t, tasks, 3)
	assert.Equal(t, uint64(3), tasks[0].ID)
	assert.Equal(t, uint64(1), tasks[1].ID)
	assert.Equal(t, uint64(2), tasks[2].ID)
}

func TestConcurrentCallsAreSerialized(t *testing.T) {
	svc, path := openTemp(t, "")

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Add("task")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	tasks := svc.FetchAll()
	require.Len(t, tasks, 20)
	seen := map[uint64]bool{}
	for _, task := range tasks {
		assert.False(t, seen[task.ID])
		seen[task.ID] = true
	}

	reloaded, err := todotxt.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 20, reloaded.Len())
}

func TestLogsSaves(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(&buf, "debug")
	require.NoError(t, err)

	svc, _ := openTemp(t, "one", WithLogger(logger))
	_, err = svc.Add("two")
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "saved")
	assert.Contains(t, buf.String(), "op=add")
}
