package console

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/baiirun/tasks/internal/db"
	"github.com/baiirun/tasks/internal/model"
)

// addTask asks for a name and a description, then creates a not_started task.
func (c *Controller) addTask(ctx context.Context) error {
	c.println("")
	c.println(c.styles.title.Render("=== Add a new task ==="))
	c.println("Enter '0' at any prompt to return to the main menu.")

	name, ok, err := c.promptRequired("Task name: ", "Task name", func(s string) string {
		if db.ValidateName(s) != nil {
			return fmt.Sprintf("Task name must be at most %d characters.", db.MaxNameLength)
		}
		return ""
	})
	if err != nil || !ok {
		return err
	}

	description, ok, err := c.promptRequired("Task description: ", "Task description", nil)
	if err != nil || !ok {
		return err
	}

	id, err := c.store.CreateTask(ctx, name, description)
	if err != nil {
		c.reportStoreError("adding the task", err)
		return nil
	}

	c.logger.Info("task created", "id", id)
	c.successf("Task '%s' was added (ID: %d).", name, id)
	return nil
}

// promptRequired re-prompts until it gets a non-empty value that check does not
// complain about. ok is false when the user typed "0" to go back.
func (c *Controller) promptRequired(label, field string, check func(string) string) (string, bool, error) {
	for {
		value, err := c.prompt(label)
		if err != nil {
			return "", false, err
		}
		if value == "0" {
			c.backToMenu()
			return "", false, nil
		}
		if value == "" {
			c.errorln(field + " must not be empty. Please try again.")
			continue
		}
		if check != nil {
			if msg := check(value); msg != "" {
				c.errorln(msg + " Please try again.")
				continue
			}
		}
		return value, true, nil
	}
}

// listTasks shows the active tasks and waits for Enter.
func (c *Controller) listTasks(ctx context.Context) error {
	c.println("")
	c.println(c.styles.title.Render("=== Active tasks ==="))

	tasks, err := c.store.ListActiveTasks(ctx)
	if err != nil {
		c.reportStoreError("loading tasks", err)
		return nil
	}

	if len(tasks) == 0 {
		c.println("You have no stored tasks.")
	} else {
		c.renderTasks(tasks)
	}

	c.println("")
	_, err = c.prompt("Press Enter to return to the main menu.")
	return err
}

// updateTask moves a chosen task to in_progress or done.
func (c *Controller) updateTask(ctx context.Context) error {
	c.println("")
	c.println(c.styles.title.Render("=== Update a task ==="))

	tasks, err := c.store.ListTasks(ctx)
	if err != nil {
		c.reportStoreError("loading tasks", err)
		return nil
	}
	if len(tasks) == 0 {
		c.println("No stored tasks - nothing to update.")
		return nil
	}

	c.renderTaskStatuses(tasks)
	c.println("")
	c.println("Enter the ID of the task to update, or '0' to return to the main menu.")

	task, err := c.pickTask(ctx)
	if err != nil || task == nil {
		return err
	}

	status, err := c.pickStatus()
	if err != nil || status == "" {
		return err
	}

	err = c.store.UpdateStatus(ctx, task.ID, status)
	switch {
	case errors.Is(err, db.ErrNotFound):
		c.errorln(fmt.Sprintf("Task with ID %d no longer exists.", task.ID))
	case err != nil:
		c.reportStoreError("updating the task", err)
	default:
		c.logger.Info("task status changed", "id", task.ID, "status", status)
		c.successf("Status of task (ID: %d) changed to '%s'.", task.ID, status)
	}
	return nil
}

// pickStatus returns the chosen status, or "" if the user went back.
func (c *Controller) pickStatus() (model.Status, error) {
	for {
		c.println("")
		c.println("Choose the new status:")
		c.println("1. " + string(model.StatusInProgress))
		c.println("2. " + string(model.StatusDone))
		c.println("0. Return to the main menu")

		choice, err := c.prompt("Option: ")
		if err != nil {
			return "", err
		}

		switch choice {
		case "0":
			c.backToMenu()
			return "", nil
		case "1":
			return model.StatusInProgress, nil
		case "2":
			return model.StatusDone, nil
		default:
			c.errorln("Invalid choice. Enter 1, 2 or 0.")
		}
	}
}

// deleteTask removes a chosen task after an explicit "y".
func (c *Controller) deleteTask(ctx context.Context) error {
	c.println("")
	c.println(c.styles.title.Render("=== Delete a task ==="))

	tasks, err := c.store.ListTasks(ctx)
	if err != nil {
		c.reportStoreError("loading tasks", err)
		return nil
	}
	if len(tasks) == 0 {
		c.println("There are no tasks to delete.")
		return nil
	}

	c.renderTasks(tasks)
	c.println("")
	c.println("Enter the ID of the task to delete, or '0' to return to the main menu.")

	task, err := c.pickTask(ctx)
	if err != nil || task == nil {
		return err
	}

	answer, err := c.prompt(fmt.Sprintf("Do you really want to delete task '%s'? (y/n): ", task.Name))
	if err != nil {
		return err
	}
	if strings.ToLower(answer) != "y" {
		c.println("Deletion cancelled.")
		return nil
	}

	err = c.store.DeleteTask(ctx, task.ID)
	switch {
	case errors.Is(err, db.ErrNotFound):
		c.println(fmt.Sprintf("Task '%s' no longer exists; nothing was deleted.", task.Name))
	case err != nil:
		c.reportStoreError("deleting the task", err)
	default:
		c.logger.Info("task deleted", "id", task.ID)
		c.successf("Task '%s' was permanently deleted.", task.Name)
	}
	return nil
}

// pickTask asks for an existing task id. It returns nil when the user typed 0
// or the lookup itself failed.
func (c *Controller) pickTask(ctx context.Context) (*model.Task, error) {
	for {
		line, err := c.prompt("Task ID: ")
		if err != nil {
			return nil, err
		}

		id, err := strconv.ParseInt(line, 10, 64)
		if err != nil {
			c.errorln("Enter a valid numeric ID or '0' to return.")
			continue
		}
		if id == 0 {
			c.backToMenu()
			return nil, nil
		}

		task, err := c.store.GetTask(ctx, id)
		if errors.Is(err, db.ErrNotFound) {
			c.errorln("Task with this ID does not exist. Try again or enter '0' to return.")
			continue
		}
		if err != nil {
			c.reportStoreError("looking up the task", err)
			return nil, nil
		}
		return task, nil
	}
}
