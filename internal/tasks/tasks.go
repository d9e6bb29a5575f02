// Package tasks loads the claimable task list and splits it against the
// rewards an account has already been granted.
package tasks

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
)

// Task is one claimable reward task.
type Task struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
}

// Read parses the task file.
func Read(path string) ([]Task, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tasks: %w", err)
	}
	var list []Task
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("parse tasks %s: %w", path, err)
	}
	return list, nil
}

// Load is Read that logs failures and returns an empty list instead, so a
// missing task file only disables claiming.
func Load(path string) []Task {
	list, err := Read(path)
	if err != nil {
		slog.Error("Unable to read tasks", "path", path, "error", err)
		return []Task{}
	}
	return list
}

// Split partitions tasks into pending and completed, keeping file order.
func Split(list []Task, granted []int) (pending, completed []Task) {
	done := make(map[int]struct{}, len(granted))
	for _, id := range granted {
		done[id] = struct{}{}
	}
	for _, t := range list {
		if _, ok := done[t.ID]; ok {
			completed = append(completed, t)
		} else {
			pending = append(pending, t)
		}
	}
	return pending, completed
}

// Pending returns tasks whose IDs are not in granted.
func Pending(list []Task, granted []int) []Task {
	pending, _ := Split(list, granted)
	return pending
}

// Completed returns tasks whose IDs are in granted.
func Completed(list []Task, granted []int) []Task {
	_, completed := Split(list, granted)
	return completed
}
