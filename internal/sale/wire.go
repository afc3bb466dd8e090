package sale

import (
	"go.uber.org/zap"

	"milsabores/internal/client/backend"
	"milsabores/internal/sale/controller"
	"milsabores/internal/sale/repository"
	"milsabores/internal/sale/usecase"
)

type Module struct {
	Store      *repository.BasketStore
	Controller *controller.BasketController
}

func NewModule(client *backend.Client, settings usecase.SettingsProvider, logger *zap.Logger) *Module {
	store := repository.NewBasketStore()
	uc := usecase.NewBasketUseCase(store, client, settings, logger)

	return &Module{
		Store:      store,
		Controller: controller.NewBasketController(uc, logger),
	}
}
