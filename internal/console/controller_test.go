package console

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baiirun/tasks/internal/config"
	"github.com/baiirun/tasks/internal/db"
	"github.com/baiirun/tasks/internal/model"
)

func setupTestDB(t *testing.T) *db.DB {
	t.Helper()
	cfg := config.Default()
	cfg.DataDir = filepath.Join(t.TempDir(), "data")
	cfg.Database = "console_test"

	database, err := db.Open(cfg)
	require.NoError(t, err)
	require.NoError(t, database.EnsureSchema(context.Background()))
	t.Cleanup(func() { _ = database.Close() })
	return database
}

// run feeds the given lines to a controller and returns everything it printed.
func run(t *testing.T, store Store, lines ...string) string {
	t.Helper()
	var out bytes.Buffer
	input := strings.Join(lines, "\n") + "\n"
	c := New(store, strings.NewReader(input), &out, nil)
	require.NoError(t, c.Run(context.Background()))
	return out.String()
}

func TestRun_Exit(t *testing.T) {
	out := run(t, setupTestDB(t), "5")

	assert.Contains(t, out, "Task Manager - Main Menu")
	assert.Contains(t, out, "Exiting the task manager.")
}

func TestRun_EndOfInput(t *testing.T) {
	var out bytes.Buffer
	c := New(setupTestDB(t), strings.NewReader(""), &out, nil)

	assert.NoError(t, c.Run(context.Background()))
	assert.Contains(t, out.String(), "Task Manager - Main Menu")
}

func TestRun_InvalidChoice(t *testing.T) {
	out := run(t, setupTestDB(t), "9", "", "add", "5")

	assert.Equal(t, 3, strings.Count(out, "Invalid choice. Enter a number between 1 and 5."))
	assert.Equal(t, 4, strings.Count(out, "Task Manager - Main Menu"))
}

func TestAddTask(t *testing.T) {
	store := setupTestDB(t)
	out := run(t, store, "1", "Finish project", "Write automated tests", "5")

	assert.Contains(t, out, "Task 'Finish project' was added")

	tasks, err := store.ListActiveTasks(context.Background())
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "Finish project", tasks[0].Name)
	assert.Equal(t, "Write automated tests", tasks[0].Description)
	assert.Equal(t, model.StatusNotStarted, tasks[0].Status)
}

func TestAddTask_EmptyFieldsReprompt(t *testing.T) {
	store := setupTestDB(t)
	out := run(t, store, "1", "", "   ", "Name", "", "Description", "5")

	assert.Equal(t, 2, strings.Count(out, "Task name must not be empty."))
	assert.Equal(t, 1, strings.Count(out, "Task description must not be empty."))
	// The description prompt is repeated, not the name prompt.
	assert.Equal(t, 3, strings.Count(out, "Task name: "))
	assert.Equal(t, 2, strings.Count(out, "Task description: "))

	tasks, err := store.ListTasks(context.Background())
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "Name", tasks[0].Name)
}

func TestAddTask_NameTooLong(t *testing.T) {
	store := setupTestDB(t)
	out := run(t, store, "1", strings.Repeat("n", db.MaxNameLength+1), "Short", "Desc", "5")

	assert.Contains(t, out, "Task name must be at most 100 characters.")

	tasks, err := store.ListTasks(context.Background())
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "Short", tasks[0].Name)
}

func TestAddTask_Abort(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
	}{
		{"at name", []string{"1", "0", "5"}},
		{"at description", []string{"1", "Name", "0", "5"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := setupTestDB(t)
			out := run(t, store, tt.lines...)

			assert.Contains(t, out, "Returning to the main menu.")
			tasks, err := store.ListTasks(context.Background())
			require.NoError(t, err)
			assert.Empty(t, tasks)
		})
	}
}

func TestListTasks(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	_, err := store.CreateTask(ctx, "Active", "A description that is clearly longer than thirty-five characters")
	require.NoError(t, err)
	doneID, err := store.CreateTask(ctx, "Finished", "done already")
	require.NoError(t, err)
	require.NoError(t, store.UpdateStatus(ctx, doneID, model.StatusDone))

	out := run(t, store, "2", "", "5")

	assert.Contains(t, out, "Active")
	assert.Contains(t, out, "A description that is clearly lo...")
	assert.NotContains(t, out, "thirty-five")
	assert.NotContains(t, out, "Finished")
	assert.Contains(t, out, "not_started")
	assert.Contains(t, out, "Press Enter to return to the main menu.")
}

func TestListTasks_Empty(t *testing.T) {
	out := run(t, setupTestDB(t), "2", "", "5")

	assert.Contains(t, out, "You have no stored tasks.")
	assert.NotContains(t, out, "Description")
}

func TestUpdateTask(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()
	id, err := store.CreateTask(ctx, "Task", "desc")
	require.NoError(t, err)

	out := run(t, store, "3", "abc", "999", fmt.Sprint(id), "7", "2", "5")

	assert.Contains(t, out, "Enter a valid numeric ID or '0' to return.")
	assert.Contains(t, out, "Task with this ID does not exist.")
	assert.Contains(t, out, "Invalid choice. Enter 1, 2 or 0.")
	assert.Contains(t, out, fmt.Sprintf("Status of task (ID: %d) changed to 'done'.", id))

	got, err := store.GetTask(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.StatusDone, got.Status)
}

func TestUpdateTask_InProgressStaysActive(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()
	id, err := store.CreateTask(ctx, "Task", "desc")
	require.NoError(t, err)

	run(t, store, "3", fmt.Sprint(id), "1", "5")

	active, err := store.ListActiveTasks(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, model.StatusInProgress, active[0].Status)
}

func TestUpdateTask_Abort(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()
	id, err := store.CreateTask(ctx, "Task", "desc")
	require.NoError(t, err)

	run(t, store, "3", "0", "5")
	run(t, store, "3", fmt.Sprint(id), "0", "5")

	got, err := store.GetTask(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.StatusNotStarted, got.Status)
}

func TestUpdateTask_ShowsDoneTasks(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()
	id, err := store.CreateTask(ctx, "Already done", "desc")
	require.NoError(t, err)
	require.NoError(t, store.UpdateStatus(ctx, id, model.StatusDone))

	out := run(t, store, "3", "0", "5")
	assert.Contains(t, out, "Already done")
}

func TestUpdateTask_NoTasks(t *testing.T) {
	out := run(t, setupTestDB(t), "3", "5")
	assert.Contains(t, out, "No stored tasks - nothing to update.")
}

func TestDeleteTask_Confirmed(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()
	id, err := store.CreateTask(ctx, "Doomed", "desc")
	require.NoError(t, err)

	out := run(t, store, "4", "x", "555", fmt.Sprint(id), "Y", "5")

	assert.Contains(t, out, "Enter a valid numeric ID or '0' to return.")
	assert.Contains(t, out, "Task with this ID does not exist.")
	assert.Contains(t, out, "Do you really want to delete task 'Doomed'? (y/n): ")
	assert.Contains(t, out, "Task 'Doomed' was permanently deleted.")

	_, err = store.GetTask(ctx, id)
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestDeleteTask_NotConfirmed(t *testing.T) {
	for _, answer := range []string{"n", "", "yes", "a"} {
		t.Run(answer, func(t *testing.T) {
			store := setupTestDB(t)
			ctx := context.Background()
			id, err := store.CreateTask(ctx, "Survivor", "desc")
			require.NoError(t, err)

			out := run(t, store, "4", fmt.Sprint(id), answer, "5")
			assert.Contains(t, out, "Deletion cancelled.")

			got, err := store.GetTask(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, "Survivor", got.Name)
			assert.Equal(t, model.StatusNotStarted, got.Status)
		})
	}
}

func TestDeleteTask_NoTasks(t *testing.T) {
	out := run(t, setupTestDB(t), "4", "5")
	assert.Contains(t, out, "There are no tasks to delete.")
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"short", "short"},
		{strings.Repeat("a", 35), strings.Repeat("a", 35)},
		{strings.Repeat("a", 36), strings.Repeat("a", 32) + "..."},
		{strings.Repeat("ž", 40), strings.Repeat("ž", 32) + "..."},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, truncate(tt.in))
	}
}
