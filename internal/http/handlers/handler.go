package handlers

import (
	"errors"
	"net/http"
	"time"

	"taskboard/internal/domain"
	"taskboard/internal/service"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	Store        *service.TaskStore
	AuthPassword string
	Now          func() time.Time
}

func NewHandler(store *service.TaskStore, authPassword string) *Handler {
	return &Handler{
		Store:        store,
		AuthPassword: authPassword,
		Now:          time.Now,
	}
}

// taskView - задача как её видит клиент, с вычисленным флагом просрочки
type taskView struct {
	*domain.Task
	Overdue bool `json:"overdue"`
}

func (h *Handler) view(t *domain.Task) *taskView {
	return &taskView{Task: t, Overdue: t.Overdue(h.Now())}
}

func (h *Handler) views(tasks []*domain.Task) []*taskView {
	out := make([]*taskView, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, h.view(t))
	}
	return out
}

// writeError maps store errors to HTTP codes.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrEmptyTitle),
		errors.Is(err, service.ErrInvalidPriority),
		errors.Is(err, service.ErrInvalidFilter):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// warningOf returns the text for a non-fatal persistence error, or "".
// ok=false means err is a real failure the caller must report.
func warningOf(err error) (warning string, ok bool) {
	if err == nil {
		return "", true
	}
	if service.IsWarning(err) {
		return err.Error(), true
	}
	return "", false
}
