package app

import (
	"github.com/osvaldoandrade/coffeeshop/internal/controllers"
	"github.com/osvaldoandrade/coffeeshop/internal/middleware"
	"github.com/osvaldoandrade/coffeeshop/pkg/auth"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func SetupMappings(app *Application) {
	v := app.Validator
	e := app.Engine

	e.GET("/drinks", controllers.NewListDrinksController(app.Drinks).Handle)
	e.GET("/drinks-detail", middleware.RequireScope(v, auth.ScopeGetDrinksDetail), controllers.NewListDrinksDetailController(app.Drinks).Handle)
	e.POST("/drinks", middleware.RequireScope(v, auth.ScopePostDrinks), controllers.NewCreateDrinkController(app.Drinks).Handle)
	e.PATCH("/drinks/:id", middleware.RequireScope(v, auth.ScopePatchDrinks), controllers.NewUpdateDrinkController(app.Drinks).Handle)
	e.DELETE("/drinks/:id", middleware.RequireScope(v, auth.ScopeDeleteDrinks), controllers.NewDeleteDrinkController(app.Drinks).Handle)

	e.GET("/healthz", controllers.NewHealthController(app.Drinks).Handle)
	if app.Config.MetricsEnabled {
		e.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}
}
