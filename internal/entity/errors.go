package entity

import (
	"errors"
	"fmt"
)

var (
	ErrBackendUnresolved = errors.New("backend location is not resolved")
	ErrTransport         = errors.New("transport failure")
	ErrDecode            = errors.New("response decoding failed")
	ErrPreviewNotFound   = errors.New("preview not found")
	ErrViewNotFound      = errors.New("view not found")
)

// StatusError reports a non-2xx answer from the analysis backend.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("image upload failed: status %d", e.Code)
}
