package models

import (
	"github.com/tgienger/tdt/internal/todotxt"
)

// Task is the snapshot of a todo.txt line handed to the CLI and TUI.
type Task struct {
	ID       uint64 `json:"id" yaml:"id"`
	Subject  string `json:"subject" yaml:"subject"`
	Finished bool   `json:"finished" yaml:"finished"`
	// Priority is 0..25 for A..Z and 26 when unset.
	Priority      uint8    `json:"priority" yaml:"priority"`
	PriorityLabel string   `json:"priority_label,omitempty" yaml:"priority_label,omitempty"`
	Contexts      []string `json:"contexts" yaml:"contexts"`
	Projects      []string `json:"projects" yaml:"projects"`
	CreatedAt     string   `json:"created_at,omitempty" yaml:"created_at,omitempty"`
	FinishedAt    string   `json:"finished_at,omitempty" yaml:"finished_at,omitempty"`
	Raw           string   `json:"raw" yaml:"raw"`
}

// HasPriority reports whether the task carries a priority.
func (t Task) HasPriority() bool {
	return t.Priority < uint8(todotxt.PriorityNone)
}

// FromTask converts a parsed task into its snapshot.
func FromTask(t *todotxt.Task) Task {
	out := Task{
		ID:            t.ID,
		Subject:       t.Subject,
		Finished:      t.Finished,
		Priority:      uint8(t.Priority),
		PriorityLabel: t.Priority.String(),
		Contexts:      append([]string{}, t.Contexts...),
		Projects:      append([]string{}, t.Projects...),
		Raw:           t.String(),
	}
	if !t.CreatedAt.IsZero() {
		out.CreatedAt = t.CreatedAt.Format(todotxt.DateLayout)
	}
	if !t.FinishedAt.IsZero() {
		out.FinishedAt = t.FinishedAt.Format(todotxt.DateLayout)
	}
	return out
}

// FromTasks converts tasks in order.
func FromTasks(tasks []*todotxt.Task) []Task {
	out := make([]Task, len(tasks))
	for i, t := range tasks {
		out[i] = FromTask(t)
	}
	return out
}

// Projects returns every project tag of tasks, duplicates included.
func Projects(tasks []Task) []string {
	var tags []string
	for _, t := range tasks {
		tags = append(tags, t.Projects...)
	}
	return tags
}
