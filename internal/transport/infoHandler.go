package transport

import (
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/ds124wfegd/skysight/internal/pkg/logview"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func (h *Handler) ConfigDocument(c *gin.Context) {
	if _, err := os.Stat(h.cfg.ConfigDocument); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Config document not found"})
		return
	}
	c.File(h.cfg.ConfigDocument)
}

func (h *Handler) History(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a number"})
		return
	}

	records, err := h.service.Recent(c.Request.Context(), limit)
	if err != nil {
		logrus.WithError(err).Error("failed to load history")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"results": records})
}

func (h *Handler) Logs(c *gin.Context) {
	level := strings.ToUpper(c.DefaultQuery("level", "ALL"))

	data := gin.H{
		"Levels":   logview.Levels,
		"Selected": level,
		"LogFile":  h.cfg.LogFile,
	}

	lines, err := logview.FilterFile(h.cfg.LogFile, level)
	switch {
	case os.IsNotExist(err):
		data["Error"] = "Log file '" + h.cfg.LogFile + "' not found!"
		c.HTML(http.StatusOK, "logs.html", data)
		return
	case err != nil:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	data["Lines"] = lines
	c.HTML(http.StatusOK, "logs.html", data)
}
