package controllers

import (
	"net/http"

	"github.com/osvaldoandrade/coffeeshop/internal/middleware"
	"github.com/osvaldoandrade/coffeeshop/internal/services"
	"github.com/osvaldoandrade/coffeeshop/pkg/domain"

	"github.com/gin-gonic/gin"
)

type createDrinkController struct{ svc services.DrinkService }

func NewCreateDrinkController(svc services.DrinkService) *createDrinkController {
	return &createDrinkController{svc}
}

func (h *createDrinkController) Handle(c *gin.Context) {
	body, err := readBody(c)
	if err != nil {
		middleware.LoggerFrom(c).Info("unreadable body", "err", err)
		renderError(c, http.StatusUnprocessableEntity)
		return
	}
	drink, err := h.svc.Create(c.Request.Context(), body)
	if err != nil {
		renderServiceError(c, "create", err)
		return
	}
	c.JSON(http.StatusOK, domain.DrinksResponse{Success: true, Drinks: []domain.LongDrink{drink.Long()}})
}
