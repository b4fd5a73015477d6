package queueapi

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"ringq/internal/queue"
)

// StatusFor maps registry and queue errors onto HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, queue.ErrQueueNotFound):
		return http.StatusNotFound
	case errors.Is(err, queue.ErrQueueExists):
		return http.StatusConflict
	}
	switch queue.CodeOf(err) {
	case queue.Overflow:
		return http.StatusInsufficientStorage
	case queue.Underflow:
		return http.StatusNoContent
	case queue.UninitializedItem, queue.InvalidCapacity:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c echo.Context, err error) error {
	status := StatusFor(err)
	if status == http.StatusNoContent {
		return c.NoContent(status)
	}
	return c.String(status, err.Error())
}
