package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"taskboard/internal/domain"

	"github.com/gin-gonic/gin"
)

var errBadDueDate = errors.New("dueDate must be RFC3339 or YYYY-MM-DD")

type CreateTaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
	Priority    string `json:"priority"`
	DueDate     string `json:"dueDate"`
}

// UpdateTaskRequest - отсутствующее поле не меняется; dueDate "" снимает срок
type UpdateTaskRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Completed   *bool   `json:"completed"`
	Priority    *string `json:"priority"`
	DueDate     *string `json:"dueDate"`
}

type taskResponse struct {
	Task    *taskView    `json:"task"`
	Stats   domain.Stats `json:"stats"`
	Warning string       `json:"warning,omitempty"`
}

// parseDueDate accepts a full timestamp or a calendar date (date inputs send the latter).
func parseDueDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, nil
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return &t, nil
	}
	return nil, errBadDueDate
}

// ListTasks returns the visible tasks. ?filter= overrides the session filter
// for this request only.
func (h *Handler) ListTasks(c *gin.Context) {
	filter, tasks, err := h.visible(c)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"filter": filter,
		"tasks":  h.views(tasks),
		"stats":  h.Store.Statistics(),
	})
}

func (h *Handler) visible(c *gin.Context) (domain.Filter, []*domain.Task, error) {
	q := c.Query("filter")
	if q == "" {
		return h.Store.Filter(), h.Store.Visible(), nil
	}
	tasks, err := h.Store.VisibleWith(domain.Filter(q))
	return domain.Filter(q), tasks, err
}

func (h *Handler) CreateTask(c *gin.Context) {
	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}

	draft := domain.TaskDraft{
		Title:       req.Title,
		Description: req.Description,
		Completed:   req.Completed,
		Priority:    domain.Priority(req.Priority),
	}
	if req.DueDate != "" {
		due, err := parseDueDate(req.DueDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		draft.DueDate = due
	}

	task, err := h.Store.Add(c.Request.Context(), draft)
	h.respondTask(c, http.StatusCreated, task, err)
}

func (h *Handler) GetTask(c *gin.Context) {
	task := h.Store.Get(c.Param("id"))
	if task == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
		return
	}
	c.JSON(http.StatusOK, h.view(task))
}

func (h *Handler) UpdateTask(c *gin.Context) {
	var req UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}

	patch := domain.TaskPatch{
		Title:       req.Title,
		Description: req.Description,
		Completed:   req.Completed,
	}
	if req.Priority != nil {
		p := domain.Priority(*req.Priority)
		patch.Priority = &p
	}
	if req.DueDate != nil {
		if *req.DueDate == "" {
			patch.ClearDueDate = true
		} else {
			due, err := parseDueDate(*req.DueDate)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			patch.DueDate = due
		}
	}

	task, err := h.Store.Update(c.Request.Context(), c.Param("id"), patch)
	h.respondTask(c, http.StatusOK, task, err)
}

func (h *Handler) ToggleTask(c *gin.Context) {
	task, err := h.Store.Toggle(c.Request.Context(), c.Param("id"))
	h.respondTask(c, http.StatusOK, task, err)
}

func (h *Handler) DeleteTask(c *gin.Context) {
	task, err := h.Store.Delete(c.Request.Context(), c.Param("id"))
	h.respondTask(c, http.StatusOK, task, err)
}

func (h *Handler) ClearCompleted(c *gin.Context) {
	removed, err := h.Store.ClearCompleted(c.Request.Context())
	warning, ok := warningOf(err)
	if !ok {
		writeError(c, err)
		return
	}

	resp := gin.H{"removed": removed, "stats": h.Store.Statistics()}
	if warning != "" {
		resp["warning"] = warning
	}
	c.JSON(http.StatusOK, resp)
}

// respondTask handles the common tail of single-task mutations.
// A nil task with no error is the store's unknown-id no-op.
func (h *Handler) respondTask(c *gin.Context, status int, task *domain.Task, err error) {
	warning, ok := warningOf(err)
	if !ok {
		writeError(c, err)
		return
	}
	if task == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
		return
	}
	c.JSON(status, taskResponse{
		Task:    h.view(task),
		Stats:   h.Store.Statistics(),
		Warning: warning,
	})
}

type FilterRequest struct {
	Filter string `json:"filter"`
}

func (h *Handler) GetFilter(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"filter": h.Store.Filter()})
}

func (h *Handler) SetFilter(c *gin.Context) {
	var req FilterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}
	if err := h.Store.SetFilter(domain.Filter(req.Filter)); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"filter": h.Store.Filter(),
		"tasks":  h.views(h.Store.Visible()),
	})
}

func (h *Handler) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, h.Store.Statistics())
}
