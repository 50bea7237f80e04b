// Package console implements the interactive, numbered-menu front end of the
// tasks CLI. It reads one line at a time and drives a Store; every store error
// is reported and control returns to the menu.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/baiirun/tasks/internal/db"
	"github.com/baiirun/tasks/internal/model"
)

// Store is what the controller needs from the task repository.
type Store interface {
	CreateTask(ctx context.Context, name, description string) (int64, error)
	ListActiveTasks(ctx context.Context) ([]model.Task, error)
	ListTasks(ctx context.Context) ([]model.Task, error)
	GetTask(ctx context.Context, id int64) (*model.Task, error)
	UpdateStatus(ctx context.Context, id int64, status model.Status) error
	DeleteTask(ctx context.Context, id int64) error
}

// errInputClosed ends the session when stdin runs out.
var errInputClosed = errors.New("input closed")

// Controller runs the menu loop.
type Controller struct {
	store  Store
	in     *bufio.Reader
	out    io.Writer
	logger *slog.Logger
	styles styles
}

func New(store Store, in io.Reader, out io.Writer, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Controller{
		store:  store,
		in:     bufio.NewReader(in),
		out:    out,
		logger: logger,
		styles: newStyles(out),
	}
}

// Run shows the main menu until the user chooses exit or input ends.
func (c *Controller) Run(ctx context.Context) error {
	c.logger.Info("session started")
	defer c.logger.Info("session ended")

	for {
		c.printMenu()

		choice, err := c.prompt("Choose an option (1-5): ")
		if err != nil {
			c.println("")
			return c.finish(err)
		}

		switch choice {
		case "1":
			err = c.addTask(ctx)
		case "2":
			err = c.listTasks(ctx)
		case "3":
			err = c.updateTask(ctx)
		case "4":
			err = c.deleteTask(ctx)
		case "5":
			c.println("Exiting the task manager.")
			return nil
		default:
			c.errorln("Invalid choice. Enter a number between 1 and 5.")
		}
		if err != nil {
			return c.finish(err)
		}
	}
}

func (c *Controller) finish(err error) error {
	if errors.Is(err, errInputClosed) {
		return nil
	}
	return err
}

func (c *Controller) printMenu() {
	c.println("")
	c.println(c.styles.title.Render("Task Manager - Main Menu"))
	c.println("1. Add a new task")
	c.println("2. Show tasks")
	c.println("3. Update a task")
	c.println("4. Delete a task")
	c.println("5. Exit")
}

// prompt prints label and returns the next trimmed input line.
func (c *Controller) prompt(label string) (string, error) {
	fmt.Fprint(c.out, label)
	line, err := c.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimSpace(line), nil
		}
		if errors.Is(err, io.EOF) {
			return "", errInputClosed
		}
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func (c *Controller) println(s string) {
	fmt.Fprintln(c.out, s)
}

func (c *Controller) printf(format string, args ...any) {
	fmt.Fprintf(c.out, format+"\n", args...)
}

func (c *Controller) errorln(s string) {
	c.println(c.styles.err.Render(s))
}

func (c *Controller) successf(format string, args ...any) {
	c.println(c.styles.ok.Render(fmt.Sprintf(format, args...)))
}

// reportStoreError tells the user why an operation was aborted.
func (c *Controller) reportStoreError(action string, err error) {
	c.logger.Error("operation failed", "action", action, "error", err)
	if errors.Is(err, db.ErrConnection) {
		c.errorln("Cannot connect to the database.")
		return
	}
	c.errorln(fmt.Sprintf("Error while %s: %v", action, err))
}

func (c *Controller) backToMenu() {
	c.println("Returning to the main menu.")
}
