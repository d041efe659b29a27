package transport

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/ds124wfegd/skysight/internal/entity"
	"github.com/ds124wfegd/skysight/internal/view"
	"github.com/gin-gonic/gin"
)

func (h *Handler) Index(c *gin.Context) {
	v := h.currentView(c)

	c.HTML(http.StatusOK, "index.html", gin.H{
		"View": v.Render(),
	})
}

func (h *Handler) SelectFile(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.cfg.MaxUploadBytes)

	header, err := c.FormFile("image")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Image is too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "No image file provided"})
		return
	}

	src, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	file := entity.ImageFile{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}

	v := h.currentView(c)
	previewURL, err := h.service.Select(c.Request.Context(), v.ID(), file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if wantsJSON(c) {
		c.JSON(http.StatusAccepted, gin.H{
			"view_id":     v.ID(),
			"preview_url": previewURL,
		})
		return
	}
	c.Redirect(http.StatusSeeOther, "/")
}

func (h *Handler) State(c *gin.Context) {
	c.JSON(http.StatusOK, h.currentView(c).Render())
}

func (h *Handler) Preview(c *gin.Context) {
	p, err := h.service.Preview(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, entity.ErrPreviewNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Preview not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Header("Cache-Control", "private, max-age=300")
	c.Data(http.StatusOK, p.ContentType, p.Data)
}

// currentView returns the view bound to the session cookie, starting a new session when needed.
func (h *Handler) currentView(c *gin.Context) *view.UploadView {
	id, _ := c.Cookie(viewCookie)

	v := h.service.View(c.Request.Context(), id)
	if v.ID() != id {
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(viewCookie, v.ID(), 0, "/", "", false, true)
	}
	return v
}

func wantsJSON(c *gin.Context) bool {
	return strings.Contains(c.GetHeader("Accept"), "application/json")
}
