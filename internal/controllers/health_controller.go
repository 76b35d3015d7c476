package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/osvaldoandrade/coffeeshop/internal/middleware"
	"github.com/osvaldoandrade/coffeeshop/internal/services"
	"github.com/osvaldoandrade/coffeeshop/pkg/domain"

	"github.com/gin-gonic/gin"
)

type healthController struct{ svc services.DrinkService }

func NewHealthController(svc services.DrinkService) *healthController {
	return &healthController{svc}
}

func (h *healthController) Handle(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := h.svc.Health(ctx); err != nil {
		middleware.LoggerFrom(c).Warn("health check failed", "err", err)
		renderError(c, http.StatusInternalServerError)
		return
	}
	c.JSON(http.StatusOK, domain.StatusResponse{Success: true})
}
