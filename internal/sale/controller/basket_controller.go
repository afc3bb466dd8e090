package controller

import (
	"context"
	"encoding/json"
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
	"milsabores/internal/sale/usecase"
)

type BasketUseCase interface {
	AddItem(ctx context.Context, sessionKey string, product domain.ProductRef, lot *domain.LotRef, quantity int) (domain.LineID, *usecase.BasketView, error)
	Scan(ctx context.Context, sessionKey, code string, quantity int) (domain.LineID, *usecase.BasketView, error)
	ChangeQuantity(ctx context.Context, sessionKey string, index, delta int) (*usecase.BasketView, error)
	RemoveItem(ctx context.Context, sessionKey string, index int) (*usecase.BasketView, error)
	ChangeLine(ctx context.Context, sessionKey string, id domain.LineID, delta int) (*usecase.BasketView, error)
	RemoveLine(ctx context.Context, sessionKey string, id domain.LineID) (*usecase.BasketView, error)
	View(ctx context.Context, sessionKey string) *usecase.BasketView
	Cancel(ctx context.Context, sessionKey string) (*usecase.BasketView, error)
	Confirm(ctx context.Context, sessionKey string) (*domain.ConfirmedSale, error)
}

type BasketController struct {
	useCase BasketUseCase
	logger  *zap.Logger
}

func NewBasketController(useCase BasketUseCase, logger *zap.Logger) *BasketController {
	return &BasketController{
		useCase: useCase,
		logger:  logger,
	}
}

func (c *BasketController) AddItem(w http.ResponseWriter, r *http.Request) {
	session, ok := c.sessionKey(w, r)
	if !ok {
		return
	}

	var req dto.AddItemRequest
	if !c.decode(w, r, &req) {
		return
	}

	var details []apperrors.ValidationDetail
	if req.ProductID <= 0 {
		details = append(details, apperrors.ValidationDetail{Field: "productId", Message: "productId must be a positive integer"})
	}
	if strings.TrimSpace(req.Name) == "" {
		details = append(details, apperrors.ValidationDetail{Field: "name", Message: "name is required"})
	}
	if req.UnitPrice == nil {
		details = append(details, apperrors.ValidationDetail{Field: "unitPrice", Message: "unitPrice is required"})
	}
	if req.Lot != nil && req.Lot.ID <= 0 {
		details = append(details, apperrors.ValidationDetail{Field: "lot.id", Message: "lot id must be a positive integer"})
	}
	if len(details) > 0 {
		commons.WriteValidationError(w, r, "validation failed", c.logger, details...)
		return
	}

	product := domain.ProductRef{ID: req.ProductID, Name: req.Name, UnitPrice: *req.UnitPrice}
	id, view, err := c.useCase.AddItem(r.Context(), session, product, toLotRef(req.Lot), quantityOrOne(req.Quantity))
	if err != nil {
		commons.WriteError(w, r, err, c.logger)
		return
	}

	commons.WriteJSON(w, http.StatusCreated, dto.AddItemResponse{
		LineID: uint64(id),
		Basket: toBasketResponse(r.Context(), view),
	}, c.logger)
}

func (c *BasketController) Scan(w http.ResponseWriter, r *http.Request) {
	session, ok := c.sessionKey(w, r)
	if !ok {
		return
	}

	var req dto.ScanRequest
	if !c.decode(w, r, &req) {
		return
	}

	code := strings.TrimSpace(req.Code)
	if code == "" {
		commons.WriteValidationError(w, r, "validation failed", c.logger, apperrors.ValidationDetail{
			Field:   "code",
			Message: "code is required",
		})
		return
	}
	id, view, err := c.useCase.Scan(r.Context(), session, code, quantityOrOne(req.Quantity))
	if err != nil {
		commons.WriteError(w, r, err, c.logger)
		return
	}

	commons.WriteJSON(w, http.StatusCreated, dto.AddItemResponse{
		LineID: uint64(id),
		Basket: toBasketResponse(r.Context(), view),
	}, c.logger)
}

func (c *BasketController) ChangeQuantity(w http.ResponseWriter, r *http.Request) {
	session, ok := c.sessionKey(w, r)
	if !ok {
		return
	}
	index, ok := c.intParam(w, r, "index")
	if !ok {
		return
	}
	delta, ok := c.delta(w, r)
	if !ok {
		return
	}

	view, err := c.useCase.ChangeQuantity(r.Context(), session, index, delta)
	c.writeBasket(w, r, view, err)
}

func (c *BasketController) RemoveItem(w http.ResponseWriter, r *http.Request) {
	session, ok := c.sessionKey(w, r)
	if !ok {
		return
	}
	index, ok := c.intParam(w, r, "index")
	if !ok {
		return
	}

	view, err := c.useCase.RemoveItem(r.Context(), session, index)
	c.writeBasket(w, r, view, err)
}

func (c *BasketController) ChangeLine(w http.ResponseWriter, r *http.Request) {
	session, ok := c.sessionKey(w, r)
	if !ok {
		return
	}
	id, ok := c.lineID(w, r)
	if !ok {
		return
	}
	delta, ok := c.delta(w, r)
	if !ok {
		return
	}

	view, err := c.useCase.ChangeLine(r.Context(), session, id, delta)
	c.writeBasket(w, r, view, err)
}

func (c *BasketController) RemoveLine(w http.ResponseWriter, r *http.Request) {
	session, ok := c.sessionKey(w, r)
	if !ok {
		return
	}
	id, ok := c.lineID(w, r)
	if !ok {
		return
	}

	view, err := c.useCase.RemoveLine(r.Context(), session, id)
	c.writeBasket(w, r, view, err)
}

func (c *BasketController) Get(w http.ResponseWriter, r *http.Request) {
	session, ok := c.sessionKey(w, r)
	if !ok {
		return
	}
	c.writeBasket(w, r, c.useCase.View(r.Context(), session), nil)
}

func (c *BasketController) Cancel(w http.ResponseWriter, r *http.Request) {
	session, ok := c.sessionKey(w, r)
	if !ok {
		return
	}

	view, err := c.useCase.Cancel(r.Context(), session)
	c.writeBasket(w, r, view, err)
}

func (c *BasketController) Confirm(w http.ResponseWriter, r *http.Request) {
	session, ok := c.sessionKey(w, r)
	if !ok {
		return
	}

	sale, err := c.useCase.Confirm(r.Context(), session)
	if err != nil {
		commons.WriteError(w, r, err, c.logger)
		return
	}

	commons.WriteJSON(w, http.StatusCreated, dto.ConfirmSaleResponse{
		TraceID:   commons.TraceID(r.Context()),
		SaleID:    sale.SaleID,
		Total:     sale.Total(),
		Details:   dto.NewSaleDetailDTOs(sale.Details),
		Timestamp: time.Now().UTC(),
	}, c.logger)
}

func (c *BasketController) sessionKey(w http.ResponseWriter, r *http.Request) (string, bool) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		commons.WriteError(w, r, apperrors.NewServiceError(apperrors.ServiceUnauthorized, http.StatusUnauthorized, "authentication required", nil), c.logger)
		return "", false
	}
	return claims.SessionKey(), true
}

func (c *BasketController) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		c.logger.Debug("invalid JSON body", zap.String("traceId", commons.TraceID(r.Context())), zap.Error(err))
		commons.WriteValidationError(w, r, "invalid JSON body", c.logger, apperrors.ValidationDetail{
			Field:   "body",
			Message: "request body must be valid JSON",
		})
		return false
	}
	return true
}

func (c *BasketController) intParam(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	v, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil {
		commons.WriteValidationError(w, r, "invalid "+name, c.logger, apperrors.ValidationDetail{
			Field:   name,
			Message: name + " must be an integer",
		})
		return 0, false
	}
	return v, true
}

func (c *BasketController) lineID(w http.ResponseWriter, r *http.Request) (domain.LineID, bool) {
	v, err := strconv.ParseUint(chi.URLParam(r, "lineId"), 10, 64)
	if err != nil || v == 0 {
		commons.WriteValidationError(w, r, "invalid lineId", c.logger, apperrors.ValidationDetail{
			Field:   "lineId",
			Message: "lineId must be a positive integer",
		})
		return 0, false
	}
	return domain.LineID(v), true
}

func (c *BasketController) delta(w http.ResponseWriter, r *http.Request) (int, bool) {
	var req dto.ChangeQuantityRequest
	if !c.decode(w, r, &req) {
		return 0, false
	}
	if req.Delta == 0 {
		commons.WriteValidationError(w, r, "validation failed", c.logger, apperrors.ValidationDetail{
			Field:   "delta",
			Message: "delta must not be zero",
		})
		return 0, false
	}
	return req.Delta, true
}

func (c *BasketController) writeBasket(w http.ResponseWriter, r *http.Request, view *usecase.BasketView, err error) {
	if err != nil {
		commons.WriteError(w, r, err, c.logger)
		return
	}
	commons.WriteJSON(w, http.StatusOK, toBasketResponse(r.Context(), view), c.logger)
}

func quantityOrOne(q *int) int {
	if q == nil {
		return 1
	}
	return *q
}
