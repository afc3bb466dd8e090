package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"milsabores/internal/auth"
	"milsabores/internal/middleware"
	returnsctrl "milsabores/internal/returns/controller"
	salectrl "milsabores/internal/sale/controller"
	settingsctrl "milsabores/internal/settings/controller"
)

type Controllers struct {
	Basket   *salectrl.BasketController
	Returns  *returnsctrl.ReturnsController
	Settings *settingsctrl.SettingsController
	Health   *HealthHandler
}

func NewRouter(ctrls Controllers, jwtSecret string, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(middleware.Trace(logger))

	r.Get("/health", ctrls.Health.ServeHTTP)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.JWTAuth(jwtSecret, logger))

		r.Route("/basket", func(r chi.Router) {
			r.Get("/", ctrls.Basket.Get)
			r.Delete("/", ctrls.Basket.Cancel)
			r.Post("/items", ctrls.Basket.AddItem)
			r.Patch("/items/{index}", ctrls.Basket.ChangeQuantity)
			r.Delete("/items/{index}", ctrls.Basket.RemoveItem)
			r.Patch("/lines/{lineId}", ctrls.Basket.ChangeLine)
			r.Delete("/lines/{lineId}", ctrls.Basket.RemoveLine)
			r.Post("/scan", ctrls.Basket.Scan)
			r.Post("/confirm", ctrls.Basket.Confirm)
		})

		r.Route("/ventas/{saleId}/devolucion", func(r chi.Router) {
			r.Use(middleware.RequireRole(logger, auth.RoleAdmin, auth.RoleSupervisor))
			r.Get("/preview", ctrls.Returns.Preview)
			r.Post("/completa", ctrls.Returns.SubmitFull)
			r.Post("/parcial", ctrls.Returns.SubmitPartial)
		})

		r.Get("/settings", ctrls.Settings.Get)
		r.With(middleware.RequireRole(logger, auth.RoleAdmin)).Put("/settings", ctrls.Settings.Update)
	})

	return r
}
