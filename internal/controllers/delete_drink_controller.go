package controllers

import (
	"net/http"

	"github.com/osvaldoandrade/coffeeshop/internal/services"
	"github.com/osvaldoandrade/coffeeshop/pkg/domain"

	"github.com/gin-gonic/gin"
)

type deleteDrinkController struct{ svc services.DrinkService }

func NewDeleteDrinkController(svc services.DrinkService) *deleteDrinkController {
	return &deleteDrinkController{svc}
}

func (h *deleteDrinkController) Handle(c *gin.Context) {
	id, ok := drinkID(c)
	if !ok {
		renderError(c, http.StatusNotFound)
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		renderServiceError(c, "delete", err)
		return
	}
	c.JSON(http.StatusOK, domain.DeleteResponse{Success: true, Delete: id})
}
