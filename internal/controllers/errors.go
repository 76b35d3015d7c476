package controllers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/osvaldoandrade/coffeeshop/internal/middleware"
	"github.com/osvaldoandrade/coffeeshop/internal/services"
	"github.com/osvaldoandrade/coffeeshop/pkg/domain"

	"github.com/gin-gonic/gin"
)

const maxBodyBytes = 1 << 20

var errBodyTooLarge = errors.New("request body too large")

func renderError(c *gin.Context, status int) {
	c.AbortWithStatusJSON(status, domain.NewErrorResponse(status))
}

// renderServiceError maps the service taxonomy onto statuses. Write
// failures answer 422 and keep their cause in the log only.
func renderServiceError(c *gin.Context, op string, err error) {
	logger := middleware.LoggerFrom(c)
	switch {
	case errors.Is(err, services.ErrValidation):
		logger.Info("drink request rejected", "op", op, "err", err)
		renderError(c, http.StatusUnprocessableEntity)
	case errors.Is(err, services.ErrNotFound):
		renderError(c, http.StatusNotFound)
	case errors.Is(err, services.ErrStorage):
		logger.Warn("drink storage failure", "op", op, "err", err)
		renderError(c, http.StatusUnprocessableEntity)
	default:
		logger.Error("drink operation failed", "op", op, "err", err)
		renderError(c, http.StatusInternalServerError)
	}
}

// drinkID parses the :id path parameter. Anything but a positive integer
// names no drink.
func drinkID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func readBody(c *gin.Context) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if len(body) > maxBodyBytes {
		return nil, errBodyTooLarge
	}
	return body, nil
}

// NoRoute answers requests for unknown paths.
func NoRoute(c *gin.Context) {
	renderError(c, http.StatusNotFound)
}

// NoMethod answers requests with an unsupported method on a known path.
func NoMethod(c *gin.Context) {
	renderError(c, http.StatusMethodNotAllowed)
}

// Recovered renders the 500 body after a handler panic.
func Recovered(c *gin.Context, recovered any) {
	middleware.LoggerFrom(c).Error("panic recovered", "panic", fmt.Sprint(recovered), "path", c.Request.URL.Path)
	renderError(c, http.StatusInternalServerError)
}
