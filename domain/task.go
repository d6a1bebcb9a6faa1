package domain

import (
	"bytes"
	"errors"
	"time"

	"github.com/bytedance/sonic"
)

// TaskState is the completion state of a task.
type TaskState string

const (
	TaskPending  TaskState = "pending"
	TaskComplete TaskState = "complete"
)

// Task represents a single item of a project's task list.
type Task struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	State       TaskState `json:"state"`
	Project     TaskRef   `json:"project"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// TaskDraft carries the user editable fields of a task.
type TaskDraft struct {
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Project     TaskRef `json:"project"`
}

// TaskRef references the owning project by id.
//
// The remote service sometimes embeds the whole project instead of its id.
// Decoding accepts both shapes; encoding always writes the bare id.
type TaskRef string

var errBadTaskRef = errors.New("project reference must be an id or an object with an id")

// UnmarshalJSON implements json.Unmarshaler.
func (r *TaskRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*r = ""
		return nil
	}
	switch data[0] {
	case '"':
		var id string
		if err := sonic.Unmarshal(data, &id); err != nil {
			return err
		}
		*r = TaskRef(id)
		return nil
	case '{':
		var embedded struct {
			ID      string `json:"id"`
			MongoID string `json:"_id"`
		}
		if err := sonic.Unmarshal(data, &embedded); err != nil {
			return err
		}
		if embedded.ID == "" {
			embedded.ID = embedded.MongoID
		}
		*r = TaskRef(embedded.ID)
		return nil
	default:
		return errBadTaskRef
	}
}

// MarshalJSON implements json.Marshaler.
func (r TaskRef) MarshalJSON() ([]byte, error) {
	return sonic.Marshal(string(r))
}

// String returns the referenced project id.
func (r TaskRef) String() string { return string(r) }

// Newer reports whether t carries a strictly newer server revision than other.
// Tasks without a revision never win or lose on revision alone.
func (t Task) Newer(other Task) bool {
	if t.UpdatedAt.IsZero() || other.UpdatedAt.IsZero() {
		return false
	}
	return t.UpdatedAt.After(other.UpdatedAt)
}

// ReplaceTask returns a copy of tasks with the entry matching next.ID replaced.
// An existing entry with a newer revision is kept.
func ReplaceTask(tasks []Task, next Task) []Task {
	out := make([]Task, len(tasks))
	for i, t := range tasks {
		if t.ID == next.ID && !t.Newer(next) {
			out[i] = next
			continue
		}
		out[i] = t
	}
	return out
}

// UpsertTask replaces the task with the same id or appends it when absent.
func UpsertTask(tasks []Task, next Task) []Task {
	if ContainsTask(tasks, next.ID) {
		return ReplaceTask(tasks, next)
	}
	out := make([]Task, len(tasks), len(tasks)+1)
	copy(out, tasks)
	return append(out, next)
}

// RemoveTask returns a copy of tasks without the entry with the given id.
func RemoveTask(tasks []Task, id string) []Task {
	out := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if t.ID != id {
			out = append(out, t)
		}
	}
	return out
}

// ContainsTask reports whether a task with id is present.
func ContainsTask(tasks []Task, id string) bool {
	for _, t := range tasks {
		if t.ID == id {
			return true
		}
	}
	return false
}
