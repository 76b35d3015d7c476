package controllers

import (
	"net/http"

	"github.com/osvaldoandrade/coffeeshop/internal/services"
	"github.com/osvaldoandrade/coffeeshop/pkg/domain"

	"github.com/gin-gonic/gin"
)

type listDrinksController struct {
	svc    services.DrinkService
	detail bool
}

// NewListDrinksController serves the public menu with ingredient names
// withheld.
func NewListDrinksController(svc services.DrinkService) *listDrinksController {
	return &listDrinksController{svc: svc}
}

// NewListDrinksDetailController serves the menu with full recipes.
func NewListDrinksDetailController(svc services.DrinkService) *listDrinksController {
	return &listDrinksController{svc: svc, detail: true}
}

func (h *listDrinksController) Handle(c *gin.Context) {
	drinks, err := h.svc.List(c.Request.Context())
	if err != nil {
		renderServiceError(c, "list", err)
		return
	}
	var out any = domain.ShortList(drinks)
	if h.detail {
		out = domain.LongList(drinks)
	}
	c.JSON(http.StatusOK, domain.DrinksResponse{Success: true, Drinks: out})
}
