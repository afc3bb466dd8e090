package settings

import (
	"database/sql"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"milsabores/internal/config"
	"milsabores/internal/domain"
	"milsabores/internal/settings/controller"
	"milsabores/internal/settings/repository"
	"milsabores/internal/settings/service"
)

type Module struct {
	Service    *service.SettingsService
	Controller *controller.SettingsController
}

func NewModule(db *sql.DB, rdb *goredis.Client, cfg *config.Config, logger *zap.Logger) (*Module, error) {
	defaults, err := DefaultsFromConfig(cfg.Defaults)
	if err != nil {
		return nil, err
	}

	repo := repository.NewMySQLSettingsRepository(db)
	svc := service.NewSettingsService(repo, rdb, cfg.Redis.Channel, defaults, logger)

	return &Module{
		Service:    svc,
		Controller: controller.NewSettingsController(svc, logger),
	}, nil
}

func DefaultsFromConfig(cfg config.DefaultsConfig) (domain.Settings, error) {
	settings := domain.Settings{
		Currency:            cfg.Currency,
		DefaultIVA:          domain.DefaultIVA,
		StockAlertThreshold: cfg.StockAlertThreshold,
	}
	if cfg.IVA != "" {
		iva, err := decimal.NewFromString(cfg.IVA)
		if err != nil {
			return domain.Settings{}, fmt.Errorf("parsing default iva %q: %w", cfg.IVA, err)
		}
		settings.DefaultIVA = iva
	}
	return settings.WithDefaults(), nil
}
