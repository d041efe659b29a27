package transport

import (
	"github.com/ds124wfegd/skysight/internal/service"
)

const viewCookie = "skysight_view"

type HandlerConfig struct {
	LogFile        string
	ConfigDocument string
	MaxUploadBytes int64
}

type Handler struct {
	service *service.Service
	cfg     HandlerConfig
}

func NewHandler(service *service.Service, cfg HandlerConfig) *Handler {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 10 << 20
	}
	return &Handler{service: service, cfg: cfg}
}
