package controller

import (
	"context"
	"time"

	"milsabores/internal/commons"
	"milsabores/internal/domain"
	"milsabores/internal/dto"
	"milsabores/internal/sale/usecase"
)

func toLotRef(lot *dto.LotDTO) *domain.LotRef {
	if lot == nil {
		return nil
	}
	return &domain.LotRef{
		ID:        lot.ID,
		Code:      lot.Code,
		ExpiresAt: lot.ExpiresAt,
		Available: lot.Available,
	}
}

func toLotDTO(lot *domain.LotRef) *dto.LotDTO {
	if lot == nil {
		return nil
	}
	return &dto.LotDTO{
		ID:        lot.ID,
		Code:      lot.Code,
		ExpiresAt: lot.ExpiresAt,
		Available: lot.Available,
	}
}

func toBasketResponse(ctx context.Context, view *usecase.BasketView) dto.BasketResponse {
	lines := make([]dto.LineDTO, len(view.Lines))
	for i, l := range view.Lines {
		lines[i] = dto.LineDTO{
			LineID:    uint64(l.ID),
			Index:     i,
			ProductID: l.ProductID,
			Name:      l.Name,
			UnitPrice: l.UnitPrice,
			Quantity:  l.Quantity,
			LineTotal: l.LineTotal(),
			Lot:       toLotDTO(l.Lot),
		}
	}

	var warnings []dto.StockWarningDTO
	for _, w := range view.Warnings {
		warnings = append(warnings, dto.StockWarningDTO{
			LineID:    uint64(w.LineID),
			Index:     w.Index,
			LotID:     w.LotID,
			Kind:      string(w.Kind),
			Available: w.Available,
			Requested: w.Requested,
		})
	}

	return dto.BasketResponse{
		TraceID:     commons.TraceID(ctx),
		Currency:    view.Summary.Currency,
		Lines:       lines,
		Units:       view.Summary.Units,
		Total:       view.Summary.Total,
		IVAIncluded: view.Summary.IVAIncluded,
		Warnings:    warnings,
		Submitting:  view.Submitting,
		Timestamp:   time.Now().UTC(),
	}
}
