package usecase

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"milsabores/internal/domain"
	"milsabores/internal/sale/repository"
)

type SaleService interface {
	ConfirmSale(ctx context.Context, req domain.ConfirmSaleRequest) (*domain.ConfirmedSale, error)
	LookupLot(ctx context.Context, code string) (domain.ProductRef, *domain.LotRef, error)
}

type SettingsProvider interface {
	Current(ctx context.Context) domain.Settings
}

type BasketStore interface {
	Session(key string, create func() *domain.Basket) *repository.Session
}

// sessionAttempts bounds how often a request re-fetches a session that was
// swept between lookup and use.
const sessionAttempts = 3

// BasketView is a consistent snapshot of a session's basket.
type BasketView struct {
	Lines      []domain.LineItem
	Summary    domain.BasketSummary
	Warnings   []domain.StockWarning
	Submitting bool
}

type BasketUseCase struct {
	store    BasketStore
	sales    SaleService
	settings SettingsProvider
	logger   *zap.Logger
}

func NewBasketUseCase(store BasketStore, sales SaleService, settings SettingsProvider, logger *zap.Logger) *BasketUseCase {
	return &BasketUseCase{
		store:    store,
		sales:    sales,
		settings: settings,
		logger:   logger,
	}
}

func (uc *BasketUseCase) AddItem(ctx context.Context, sessionKey string, product domain.ProductRef, lot *domain.LotRef, quantity int) (domain.LineID, *BasketView, error) {
	var id domain.LineID
	view, err := uc.mutate(ctx, sessionKey, func(b *domain.Basket) error {
		var err error
		id, err = b.AddItem(product, lot, quantity)
		return err
	})
	if err != nil {
		return 0, nil, err
	}

	uc.logger.Debug("line added",
		zap.String("session", sessionKey),
		zap.Uint64("lineId", uint64(id)),
		zap.Int64("productId", product.ID),
		zap.Int("quantity", quantity),
	)
	return id, view, nil
}

// Scan resolves code with the inventory service and adds the result as a new
// line. Nothing is added when the lookup fails.
func (uc *BasketUseCase) Scan(ctx context.Context, sessionKey, code string, quantity int) (domain.LineID, *BasketView, error) {
	product, lot, err := uc.sales.LookupLot(ctx, code)
	if err != nil {
		uc.logger.Info("scan lookup failed", zap.String("session", sessionKey), zap.String("code", code), zap.Error(err))
		return 0, nil, err
	}
	return uc.AddItem(ctx, sessionKey, product, lot, quantity)
}

func (uc *BasketUseCase) ChangeQuantity(ctx context.Context, sessionKey string, index, delta int) (*BasketView, error) {
	return uc.mutate(ctx, sessionKey, func(b *domain.Basket) error {
		return b.ChangeQuantity(index, delta)
	})
}

func (uc *BasketUseCase) RemoveItem(ctx context.Context, sessionKey string, index int) (*BasketView, error) {
	return uc.mutate(ctx, sessionKey, func(b *domain.Basket) error {
		return b.RemoveItem(index)
	})
}

func (uc *BasketUseCase) ChangeLine(ctx context.Context, sessionKey string, id domain.LineID, delta int) (*BasketView, error) {
	return uc.mutate(ctx, sessionKey, func(b *domain.Basket) error {
		return b.ChangeQuantityByID(id, delta)
	})
}

func (uc *BasketUseCase) RemoveLine(ctx context.Context, sessionKey string, id domain.LineID) (*BasketView, error) {
	return uc.mutate(ctx, sessionKey, func(b *domain.Basket) error {
		return b.RemoveByID(id)
	})
}

func (uc *BasketUseCase) View(ctx context.Context, sessionKey string) *BasketView {
	var view *BasketView
	_ = uc.withSession(ctx, sessionKey, func(sess *repository.Session) error {
		return sess.View(func(b *domain.Basket, submitting bool) {
			view = snapshot(b, submitting)
		})
	})
	if view == nil {
		view = snapshot(uc.newBasket(ctx), false)
	}
	return view
}

// Cancel empties the basket. A basket whose sale is being confirmed cannot be
// cancelled. The fresh basket picks up the current settings.
func (uc *BasketUseCase) Cancel(ctx context.Context, sessionKey string) (*BasketView, error) {
	fresh := uc.newBasket(ctx)
	view := snapshot(fresh, false)
	err := uc.withSession(ctx, sessionKey, func(sess *repository.Session) error {
		return sess.Renew(fresh)
	})
	if err != nil {
		return nil, err
	}
	uc.logger.Info("basket cancelled", zap.String("session", sessionKey))
	return view, nil
}

// Confirm sends the basket to the sale service. On success the basket is
// replaced by a fresh one built from the current settings. On failure it is
// left as it was so the operator can retry.
func (uc *BasketUseCase) Confirm(ctx context.Context, sessionKey string) (*domain.ConfirmedSale, error) {
	var (
		sess *repository.Session
		req  domain.ConfirmSaleRequest
	)
	err := uc.withSession(ctx, sessionKey, func(s *repository.Session) error {
		var err error
		req, err = s.BeginSubmit()
		sess = s
		return err
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("confirming sale",
		zap.String("session", sessionKey),
		zap.Int("lines", len(req.Lines)),
		zap.String("total", req.Total.String()),
	)

	sale, err := uc.sales.ConfirmSale(ctx, req)
	if err != nil {
		sess.EndSubmit(nil)
		uc.logger.Warn("sale confirmation failed, basket kept", zap.String("session", sessionKey), zap.Error(err))
		return nil, err
	}
	sess.EndSubmit(uc.newBasket(ctx))

	uc.logger.Info("sale confirmed", zap.String("session", sessionKey), zap.Int64("saleId", sale.SaleID))
	return sale, nil
}

func (uc *BasketUseCase) newBasket(ctx context.Context) *domain.Basket {
	return domain.NewBasket(uc.settings.Current(ctx))
}

// withSession runs fn against the session for key, fetching it again when it
// was swept in between.
func (uc *BasketUseCase) withSession(ctx context.Context, key string, fn func(sess *repository.Session) error) error {
	create := func() *domain.Basket { return uc.newBasket(ctx) }
	for attempt := 1; ; attempt++ {
		err := fn(uc.store.Session(key, create))
		if !errors.Is(err, repository.ErrSessionClosed) {
			return err
		}
		if attempt == sessionAttempts {
			return fmt.Errorf("basket session %s: %w", key, err)
		}
		uc.logger.Debug("basket session swept, retrying", zap.String("session", key))
	}
}

func (uc *BasketUseCase) mutate(ctx context.Context, key string, fn func(b *domain.Basket) error) (*BasketView, error) {
	var view *BasketView
	err := uc.withSession(ctx, key, func(sess *repository.Session) error {
		return sess.Mutate(func(b *domain.Basket) error {
			if err := fn(b); err != nil {
				return err
			}
			view = snapshot(b, false)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

func snapshot(b *domain.Basket, submitting bool) *BasketView {
	return &BasketView{
		Lines:      b.Lines(),
		Summary:    b.Summary(),
		Warnings:   b.Warnings(),
		Submitting: submitting,
	}
}
