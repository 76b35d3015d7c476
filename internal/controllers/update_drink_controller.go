package controllers

import (
	"net/http"

	"github.com/osvaldoandrade/coffeeshop/internal/middleware"
	"github.com/osvaldoandrade/coffeeshop/internal/services"
	"github.com/osvaldoandrade/coffeeshop/pkg/domain"

	"github.com/gin-gonic/gin"
)

type updateDrinkController struct{ svc services.DrinkService }

func NewUpdateDrinkController(svc services.DrinkService) *updateDrinkController {
	return &updateDrinkController{svc}
}

func (h *updateDrinkController) Handle(c *gin.Context) {
	id, ok := drinkID(c)
	if !ok {
		renderError(c, http.StatusNotFound)
		return
	}
	body, err := readBody(c)
	if err != nil {
		// an unknown id still answers 404 whatever the body
		if _, gerr := h.svc.Get(c.Request.Context(), id); gerr != nil {
			renderServiceError(c, "update", gerr)
			return
		}
		middleware.LoggerFrom(c).Info("unreadable body", "err", err)
		renderError(c, http.StatusUnprocessableEntity)
		return
	}
	drink, err := h.svc.Update(c.Request.Context(), id, body)
	if err != nil {
		renderServiceError(c, "update", err)
		return
	}
	c.JSON(http.StatusOK, domain.DrinksResponse{Success: true, Drinks: []domain.LongDrink{drink.Long()}})
}
