package controller

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"milsabores/internal/auth"
	"milsabores/internal/commons"
	"milsabores/internal/domain"
	"milsabores/internal/dto"
	apperrors "milsabores/internal/errors"
	"milsabores/internal/returns/usecase"
)

type ReturnsUseCase interface {
	Preview(ctx context.Context, saleID int64, selections []domain.ReturnSelection, reason string) (*usecase.Result, error)
	SubmitFull(ctx context.Context, saleID int64, reason string, usuarioID *int64) (*usecase.Result, error)
	SubmitPartial(ctx context.Context, saleID int64, selections []domain.ReturnSelection, reason string, usuarioID *int64) (*usecase.Result, error)
}

type ReturnsController struct {
	useCase ReturnsUseCase
	logger  *zap.Logger
}

func NewReturnsController(useCase ReturnsUseCase, logger *zap.Logger) *ReturnsController {
	return &ReturnsController{
		useCase: useCase,
		logger:  logger,
	}
}

// Preview takes optional query params items=10:2,11:1 and reason.
func (c *ReturnsController) Preview(w http.ResponseWriter, r *http.Request) {
	saleID, ok := c.saleID(w, r)
	if !ok {
		return
	}

	selections, err := parseItems(r.URL.Query().Get("items"))
	if err != nil {
		commons.WriteValidationError(w, r, "invalid items", c.logger, apperrors.ValidationDetail{
			Field:   "items",
			Message: err.Error(),
		})
		return
	}

	res, err := c.useCase.Preview(r.Context(), saleID, selections, strings.TrimSpace(r.URL.Query().Get("reason")))
	if err != nil {
		commons.WriteError(w, r, err, c.logger)
		return
	}

	req := res.Request
	reason := req.Reason
	if reason == usecase.PreviewReason {
		reason = ""
	}
	commons.WriteJSON(w, http.StatusOK, dto.ReturnPreviewResponse{
		TraceID:         commons.TraceID(r.Context()),
		Kind:            string(req.Kind),
		SaleID:          req.SaleID,
		Reason:          reason,
		Items:           toItemDTOs(req.Items),
		EstimatedRefund: req.EstimatedRefund.Amount,
		Currency:        req.EstimatedRefund.Currency,
		Sale:            dto.NewSaleDetailDTOs(res.Sale.Details),
	}, c.logger)
}

func (c *ReturnsController) SubmitFull(w http.ResponseWriter, r *http.Request) {
	saleID, ok := c.saleID(w, r)
	if !ok {
		return
	}

	var req dto.FullReturnRequest
	if !c.decode(w, r, &req) {
		return
	}

	res, err := c.useCase.SubmitFull(r.Context(), saleID, req.Reason, usuarioID(r.Context()))
	c.writeReceipt(w, r, res, err)
}

func (c *ReturnsController) SubmitPartial(w http.ResponseWriter, r *http.Request) {
	saleID, ok := c.saleID(w, r)
	if !ok {
		return
	}

	var req dto.PartialReturnRequest
	if !c.decode(w, r, &req) {
		return
	}

	selections := make([]domain.ReturnSelection, len(req.Items))
	for i, it := range req.Items {
		selections[i] = domain.ReturnSelection{SaleDetailID: it.SaleDetailID, Quantity: it.Quantity}
	}

	res, err := c.useCase.SubmitPartial(r.Context(), saleID, selections, req.Reason, usuarioID(r.Context()))
	c.writeReceipt(w, r, res, err)
}

func (c *ReturnsController) writeReceipt(w http.ResponseWriter, r *http.Request, res *usecase.Result, err error) {
	if err != nil {
		commons.WriteError(w, r, err, c.logger)
		return
	}

	commons.WriteJSON(w, http.StatusCreated, dto.ReturnReceiptResponse{
		TraceID:         commons.TraceID(r.Context()),
		ReturnID:        res.Receipt.ReturnID,
		SaleID:          res.Receipt.SaleID,
		Kind:            string(res.Receipt.Kind),
		RefundedAmount:  res.Receipt.RefundedAmount,
		EstimatedRefund: res.Request.EstimatedRefund.Amount,
		Status:          res.Receipt.Status,
		Timestamp:       time.Now().UTC(),
	}, c.logger)
}

func (c *ReturnsController) saleID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "saleId"), 10, 64)
	if err != nil || id <= 0 {
		commons.WriteValidationError(w, r, "invalid saleId", c.logger, apperrors.ValidationDetail{
			Field:   "saleId",
			Message: "saleId must be a positive integer",
		})
		return 0, false
	}
	return id, true
}

func (c *ReturnsController) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		commons.WriteValidationError(w, r, "invalid JSON body", c.logger, apperrors.ValidationDetail{
			Field:   "body",
			Message: "request body must be valid JSON",
		})
		return false
	}
	return true
}

func usuarioID(ctx context.Context) *int64 {
	claims, ok := auth.ClaimsFromContext(ctx)
	if !ok {
		return nil
	}
	id, ok := claims.UserID()
	if !ok {
		return nil
	}
	return &id
}

// parseItems reads "detailId:quantity" pairs separated by commas.
func parseItems(raw string) ([]domain.ReturnSelection, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	parts := strings.Split(raw, ",")
	out := make([]domain.ReturnSelection, 0, len(parts))
	for _, p := range parts {
		idStr, qtyStr, found := strings.Cut(strings.TrimSpace(p), ":")
		if !found {
			return nil, fmt.Errorf("item %q must look like saleDetailId:quantity", p)
		}
		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("item %q has a non-numeric saleDetailId", p)
		}
		qty, err := strconv.Atoi(qtyStr)
		if err != nil {
			return nil, fmt.Errorf("item %q has a non-numeric quantity", p)
		}
		out = append(out, domain.ReturnSelection{SaleDetailID: id, Quantity: qty})
	}
	return out, nil
}

func toItemDTOs(items []domain.ReturnLine) []dto.ReturnItemDTO {
	if len(items) == 0 {
		return nil
	}
	out := make([]dto.ReturnItemDTO, len(items))
	for i, it := range items {
		out[i] = dto.ReturnItemDTO{SaleDetailID: it.SaleDetailID, Quantity: it.Quantity}
	}
	return out
}
