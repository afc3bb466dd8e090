package usecase

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"milsabores/internal/domain"
	apperrors "milsabores/internal/errors"
)

// PreviewReason stands in for a reason the operator has not typed yet.
const PreviewReason = "vista previa"

type SaleService interface {
	GetSale(ctx context.Context, saleID int64) (*domain.ConfirmedSale, error)
	SubmitReturn(ctx context.Context, req domain.ReturnRequest, usuarioID *int64) (*domain.ReturnReceipt, error)
}

type SettingsProvider interface {
	Current(ctx context.Context) domain.Settings
}

// Result pairs the request that was built with the backend answer. Receipt is
// nil for previews.
type Result struct {
	Sale    *domain.ConfirmedSale
	Request *domain.ReturnRequest
	Receipt *domain.ReturnReceipt
}

type ReturnsUseCase struct {
	sales    SaleService
	settings SettingsProvider
	logger   *zap.Logger
}

func NewReturnsUseCase(sales SaleService, settings SettingsProvider, logger *zap.Logger) *ReturnsUseCase {
	return &ReturnsUseCase{
		sales:    sales,
		settings: settings,
		logger:   logger,
	}
}

// Preview builds a FULL request when selections is empty and a PARTIAL one
// otherwise, without submitting anything.
func (uc *ReturnsUseCase) Preview(ctx context.Context, saleID int64, selections []domain.ReturnSelection, reason string) (*Result, error) {
	sale, err := uc.loadSale(ctx, saleID)
	if err != nil {
		return nil, err
	}

	if reason == "" {
		reason = PreviewReason
	}

	builder := domain.NewReturnBuilder(uc.settings.Current(ctx))
	var req *domain.ReturnRequest
	if len(selections) == 0 {
		req, err = builder.BuildFullReturn(*sale, reason)
	} else {
		req, err = builder.BuildPartialReturn(*sale, selections, reason)
	}
	if err != nil {
		return nil, err
	}

	return &Result{Sale: sale, Request: req}, nil
}

func (uc *ReturnsUseCase) SubmitFull(ctx context.Context, saleID int64, reason string, usuarioID *int64) (*Result, error) {
	sale, err := uc.loadSale(ctx, saleID)
	if err != nil {
		return nil, err
	}

	req, err := domain.NewReturnBuilder(uc.settings.Current(ctx)).BuildFullReturn(*sale, reason)
	if err != nil {
		return nil, err
	}

	return uc.submit(ctx, sale, req, usuarioID)
}

func (uc *ReturnsUseCase) SubmitPartial(ctx context.Context, saleID int64, selections []domain.ReturnSelection, reason string, usuarioID *int64) (*Result, error) {
	sale, err := uc.loadSale(ctx, saleID)
	if err != nil {
		return nil, err
	}

	req, err := domain.NewReturnBuilder(uc.settings.Current(ctx)).BuildPartialReturn(*sale, selections, reason)
	if err != nil {
		return nil, err
	}

	return uc.submit(ctx, sale, req, usuarioID)
}

func (uc *ReturnsUseCase) loadSale(ctx context.Context, saleID int64) (*domain.ConfirmedSale, error) {
	sale, err := uc.sales.GetSale(ctx, saleID)
	if err != nil {
		if se, ok := apperrors.IsServiceError(err); ok && se.Kind == apperrors.ServiceNotFound {
			return nil, apperrors.NewNotFoundError(fmt.Sprintf("sale %d not found", saleID))
		}
		return nil, err
	}
	return sale, nil
}

func (uc *ReturnsUseCase) submit(ctx context.Context, sale *domain.ConfirmedSale, req *domain.ReturnRequest, usuarioID *int64) (*Result, error) {
	uc.logger.Info("submitting return",
		zap.Int64("saleId", req.SaleID),
		zap.String("kind", string(req.Kind)),
		zap.Int("items", len(req.Items)),
		zap.String("estimatedRefund", req.EstimatedRefund.Amount.String()),
	)

	receipt, err := uc.sales.SubmitReturn(ctx, *req, usuarioID)
	if err != nil {
		uc.logger.Warn("return rejected", zap.Int64("saleId", req.SaleID), zap.Error(err))
		return nil, err
	}

	if !receipt.RefundedAmount.Equal(req.EstimatedRefund.Amount) {
		uc.logger.Info("refund differs from estimate",
			zap.Int64("saleId", req.SaleID),
			zap.String("estimated", req.EstimatedRefund.Amount.String()),
			zap.String("refunded", receipt.RefundedAmount.String()),
		)
	}

	return &Result{Sale: sale, Request: req, Receipt: receipt}, nil
}
