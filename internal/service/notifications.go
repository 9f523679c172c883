package service

import (
	"fmt"

	"taskboard/internal/domain"
)

// Тексты уведомлений такие же, как в тостах фронтенда

func createdNotification(t *domain.Task) *domain.Notification {
	return &domain.Notification{
		Title:       "Task Created",
		Description: fmt.Sprintf("\"%s\" has been added to your tasks.", t.Title),
		Variant:     domain.VariantSuccess,
	}
}

func updatedNotification(t *domain.Task) *domain.Notification {
	return &domain.Notification{
		Title:       "Task Updated",
		Description: fmt.Sprintf("\"%s\" has been updated.", t.Title),
		Variant:     domain.VariantPrimary,
	}
}

func deletedNotification(t *domain.Task) *domain.Notification {
	return &domain.Notification{
		Title:       "Task Deleted",
		Description: fmt.Sprintf("\"%s\" has been removed.", t.Title),
		Variant:     domain.VariantDestructive,
	}
}

func toggledNotification(t *domain.Task) *domain.Notification {
	if t.Completed {
		return &domain.Notification{
			Title:       "Task Completed!",
			Description: fmt.Sprintf("\"%s\" marked as complete.", t.Title),
			Variant:     domain.VariantSuccess,
		}
	}
	return &domain.Notification{
		Title:       "Task Reopened",
		Description: fmt.Sprintf("\"%s\" marked as active.", t.Title),
		Variant:     domain.VariantPrimary,
	}
}

func clearedNotification(n int) *domain.Notification {
	plural := "s"
	if n == 1 {
		plural = ""
	}
	return &domain.Notification{
		Title:       "Completed Tasks Cleared",
		Description: fmt.Sprintf("%d completed task%s removed.", n, plural),
		Variant:     domain.VariantDestructive,
	}
}

func loadFailedNotification() domain.Notification {
	return domain.Notification{
		Title:       "Error",
		Description: "Failed to load your tasks. Please try again.",
		Variant:     domain.VariantDestructive,
	}
}

func saveFailedNotification() domain.Notification {
	return domain.Notification{
		Title:       "Error",
		Description: "Failed to save your tasks. Please try again.",
		Variant:     domain.VariantDestructive,
	}
}
