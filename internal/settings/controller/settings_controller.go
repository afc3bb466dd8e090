package controller

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"milsabores/internal/commons"
	"milsabores/internal/domain"
	"milsabores/internal/dto"
	apperrors "milsabores/internal/errors"
	"milsabores/internal/settings/service"
)

type SettingsService interface {
	Current(ctx context.Context) domain.Settings
	Update(ctx context.Context, patch service.Patch) (domain.Settings, error)
}

type SettingsController struct {
	service SettingsService
	logger  *zap.Logger
}

func NewSettingsController(service SettingsService, logger *zap.Logger) *SettingsController {
	return &SettingsController{
		service: service,
		logger:  logger,
	}
}

func (c *SettingsController) Get(w http.ResponseWriter, r *http.Request) {
	commons.WriteJSON(w, http.StatusOK, toResponse(c.service.Current(r.Context())), c.logger)
}

func (c *SettingsController) Update(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		commons.WriteValidationError(w, r, "invalid JSON body", c.logger, apperrors.ValidationDetail{
			Field:   "body",
			Message: "request body must be valid JSON",
		})
		return
	}

	if req.Currency == nil && req.IVADefault == nil && req.StockAlertThreshold == nil {
		commons.WriteValidationError(w, r, "nothing to update", c.logger, apperrors.ValidationDetail{
			Field:   "body",
			Message: "at least one setting is required",
		})
		return
	}

	updated, err := c.service.Update(r.Context(), service.Patch{
		Currency:            req.Currency,
		DefaultIVA:          req.IVADefault,
		StockAlertThreshold: req.StockAlertThreshold,
	})
	if err != nil {
		commons.WriteError(w, r, err, c.logger)
		return
	}

	c.logger.Info("settings updated",
		zap.String("traceId", commons.TraceID(r.Context())),
		zap.String("currency", updated.Currency),
		zap.String("ivaDefault", updated.DefaultIVA.String()),
		zap.Int("stockAlertThreshold", updated.StockAlertThreshold),
	)
	commons.WriteJSON(w, http.StatusOK, toResponse(updated), c.logger)
}

func toResponse(s domain.Settings) dto.SettingsResponse {
	return dto.SettingsResponse{
		Currency:            s.Currency,
		IVADefault:          s.DefaultIVA,
		StockAlertThreshold: s.StockAlertThreshold,
	}
}
