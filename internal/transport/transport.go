package transport

import (
	"embed"
	"html/template"
	"net/http"

	"github.com/ds124wfegd/skysight/internal/pkg/metrics"
	"github.com/ds124wfegd/skysight/internal/transport/middleware"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

//go:embed templates/*.html
var templatesFS embed.FS

func InitRoutes(h *Handler, uploadLimiter *rate.Limiter) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.Logger("/health", "/metrics", "/state"))

	router.SetHTMLTemplate(template.Must(template.ParseFS(templatesFS, "templates/*.html")))

	router.GET("/", h.Index)
	router.POST("/select", middleware.RateLimit(uploadLimiter), h.SelectFile)
	router.GET("/state", h.State)
	router.GET("/preview/:id", h.Preview)
	router.GET("/config.json", h.ConfigDocument)
	router.GET("/history", h.History)
	router.GET("/logs", h.Logs)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "skysight",
		})
	})
	return router
}
