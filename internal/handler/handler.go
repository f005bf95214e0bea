// Package handler maps the catalog API onto HTTP. Handlers bind the
// request, call into the service or repository layer and translate the
// error category into a status code; store ordering stays below them.
package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"catalog-service/internal/apperr"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

func errorStatus(err error) int {
	switch {
	case errors.Is(err, apperr.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, apperr.ErrTransient),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondError logs err and writes the matching JSON error body. Client
// errors carry the cause back to the caller, server errors only the
// generic message.
func respondError(c echo.Context, log *zap.Logger, err error, msg string) error {
	status := errorStatus(err)
	if status >= http.StatusInternalServerError {
		log.Error(msg, zap.Error(err))
		return c.JSON(status, echo.Map{"error": msg})
	}
	log.Warn(msg, zap.Error(err))
	return c.JSON(status, echo.Map{"error": err.Error()})
}

func parseID(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%s must be a positive integer: %w", name, apperr.ErrInvalidArgument)
	}
	return uint(id), nil
}
