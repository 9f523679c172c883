package domain

import "time"

// EventKind - что произошло со списком задач
type EventKind string

const (
	EventTaskCreated    EventKind = "task_created"
	EventTaskUpdated    EventKind = "task_updated"
	EventTaskToggled    EventKind = "task_toggled"
	EventTaskDeleted    EventKind = "task_deleted"
	EventTasksCleared   EventKind = "tasks_cleared"
	EventFilterChanged  EventKind = "filter_changed"
	EventTasksLoaded    EventKind = "tasks_loaded"
	EventPersistWarning EventKind = "persist_warning"
)

// Notification variants, mirrored by the frontend toast styles.
const (
	VariantSuccess     = "success"
	VariantPrimary     = "primary"
	VariantDestructive = "destructive"
)

// Notification is a short-lived user-facing message. Fire-and-forget.
type Notification struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Variant     string `json:"variant"`
}

// Event is delivered to store subscribers after every change.
type Event struct {
	Kind         EventKind     `json:"type"`
	Task         *Task         `json:"task,omitempty"`
	Removed      int           `json:"removed,omitempty"`
	Filter       Filter        `json:"filter,omitempty"`
	Stats        Stats         `json:"stats"`
	Notification *Notification `json:"notification,omitempty"`
	At           time.Time     `json:"at"`
}
