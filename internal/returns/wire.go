package returns

import (
	"go.uber.org/zap"

	"milsabores/internal/client/backend"
	"milsabores/internal/returns/controller"
	"milsabores/internal/returns/usecase"
)

func NewModule(client *backend.Client, settings usecase.SettingsProvider, logger *zap.Logger) *controller.ReturnsController {
	uc := usecase.NewReturnsUseCase(client, settings, logger)
	return controller.NewReturnsController(uc, logger)
}
