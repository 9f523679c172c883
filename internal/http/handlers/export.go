package handlers

import (
	"fmt"
	"net/http"

	"taskboard/internal/export"

	"github.com/gin-gonic/gin"
)

// Export downloads the visible tasks, same selection as ListTasks.
// Stats always cover the whole list.
func (h *Handler) Export(c *gin.Context) {
	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	_, tasks, err := h.visible(c)
	if err != nil {
		writeError(c, err)
		return
	}

	now := h.Now()
	data, err := export.Export(tasks, h.Store.Statistics(), format, now)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "export failed"})
		return
	}

	name := fmt.Sprintf("tasks-%s.%s", now.Format("20060102-150405"), format)
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, format.ContentType(), data)
}
