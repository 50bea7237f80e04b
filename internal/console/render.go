package console

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"

	"github.com/baiirun/tasks/internal/model"
)

// Descriptions longer than this are cut in listings.
const maxDescriptionWidth = 35

const ellipsis = "..."

type styles struct {
	title  lipgloss.Style
	header lipgloss.Style
	err    lipgloss.Style
	ok     lipgloss.Style
}

// newStyles binds styles to w so output that is not a terminal stays plain.
func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		title:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("205")),
		header: r.NewStyle().Bold(true),
		err:    r.NewStyle().Foreground(lipgloss.Color("196")),
		ok:     r.NewStyle().Foreground(lipgloss.Color("42")),
	}
}

// truncate shortens s to maxDescriptionWidth runes, ending with an ellipsis.
func truncate(s string) string {
	if utf8.RuneCountInString(s) <= maxDescriptionWidth {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxDescriptionWidth-len(ellipsis)]) + ellipsis
}

// renderTasks writes id, name, description and status columns.
func (c *Controller) renderTasks(tasks []model.Task) {
	c.println(c.styles.header.Render(fmt.Sprintf("%-5s %-25s %-40s %-15s", "ID", "Name", "Description", "Status")))
	c.println(strings.Repeat("-", 85))
	for _, t := range tasks {
		c.printf("%-5d %-25s %-40s %-15s", t.ID, t.Name, truncate(t.Description), t.Status)
	}
}

// renderTaskStatuses writes the narrower id, name and status table.
func (c *Controller) renderTaskStatuses(tasks []model.Task) {
	c.println(c.styles.header.Render(fmt.Sprintf("%-5s %-30s %-15s", "ID", "Name", "Status")))
	c.println(strings.Repeat("-", 50))
	for _, t := range tasks {
		c.printf("%-5d %-30s %-15s", t.ID, t.Name, t.Status)
	}
}
