package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"milsabores/internal/domain"
	apperrors "milsabores/internal/errors"
	"milsabores/internal/sale/repository"
)

type mockSaleService struct {
	ConfirmSaleFunc func(ctx context.Context, req domain.ConfirmSaleRequest) (*domain.ConfirmedSale, error)
	LookupLotFunc   func(ctx context.Context, code string) (domain.ProductRef, *domain.LotRef, error)
}

func (m *mockSaleService) ConfirmSale(ctx context.Context, req domain.ConfirmSaleRequest) (*domain.ConfirmedSale, error) {
	return m.ConfirmSaleFunc(ctx, req)
}

func (m *mockSaleService) LookupLot(ctx context.Context, code string) (domain.ProductRef, *domain.LotRef, error) {
	return m.LookupLotFunc(ctx, code)
}

type mockSettingsProvider struct {
	CurrentFunc func(ctx context.Context) domain.Settings
}

func (m *mockSettingsProvider) Current(ctx context.Context) domain.Settings {
	return m.CurrentFunc(ctx)
}

func defaultSettings() *mockSettingsProvider {
	return &mockSettingsProvider{CurrentFunc: func(ctx context.Context) domain.Settings { return domain.DefaultSettings() }}
}

func newTestBasketUseCase(sales SaleService, settings SettingsProvider) *BasketUseCase {
	return NewBasketUseCase(repository.NewBasketStore(), sales, settings, zap.NewNop())
}

var (
	torta  = domain.ProductRef{ID: 1, Name: "Torta de chocolate", UnitPrice: decimal.NewFromInt(15000)}
	kuchen = domain.ProductRef{ID: 2, Name: "Kuchen de manzana", UnitPrice: decimal.NewFromInt(4500)}
)

func TestBasketUseCase_AddAndView(t *testing.T) {
	uc := newTestBasketUseCase(&mockSaleService{}, defaultSettings())
	ctx := context.Background()

	id1, _, err := uc.AddItem(ctx, "cajero-1", torta, nil, 1)
	require.NoError(t, err)
	id2, view, err := uc.AddItem(ctx, "cajero-1", kuchen, &domain.LotRef{ID: 40}, 2)
	require.NoError(t, err)

	assert.NotEqual(t, id1, id2)
	require.Len(t, view.Lines, 2)
	assert.True(t, decimal.NewFromInt(24000).Equal(view.Summary.Total))
	assert.Equal(t, 3, view.Summary.Units)

	other := uc.View(ctx, "cajero-2")
	assert.Empty(t, other.Lines)
}

func TestBasketUseCase_AddInvalidQuantity(t *testing.T) {
	uc := newTestBasketUseCase(&mockSaleService{}, defaultSettings())

	_, _, err := uc.AddItem(context.Background(), "s", torta, nil, 0)
	_, ok := apperrors.IsContractError(err)
	assert.True(t, ok)
	assert.Empty(t, uc.View(context.Background(), "s").Lines)
}

func TestBasketUseCase_Scan(t *testing.T) {
	available := 3
	sales := &mockSaleService{
		LookupLotFunc: func(ctx context.Context, code string) (domain.ProductRef, *domain.LotRef, error) {
			assert.Equal(t, "LT-88", code)
			return kuchen, &domain.LotRef{ID: 88, Code: code, Available: &available}, nil
		},
	}
	uc := newTestBasketUseCase(sales, defaultSettings())

	_, view, err := uc.Scan(context.Background(), "s", "LT-88", 2)
	require.NoError(t, err)
	require.Len(t, view.Lines, 1)
	assert.Equal(t, int64(88), *view.Lines[0].LotID())
	require.Len(t, view.Warnings, 1)
	assert.Equal(t, domain.StockWarningLow, view.Warnings[0].Kind)
}

func TestBasketUseCase_ScanLookupFails(t *testing.T) {
	sales := &mockSaleService{
		LookupLotFunc: func(ctx context.Context, code string) (domain.ProductRef, *domain.LotRef, error) {
			return domain.ProductRef{}, nil, apperrors.NewServiceError(apperrors.ServiceNotFound, 404, "lote no encontrado", nil)
		},
	}
	uc := newTestBasketUseCase(sales, defaultSettings())

	_, _, err := uc.Scan(context.Background(), "s", "nope", 1)
	_, ok := apperrors.IsServiceError(err)
	assert.True(t, ok)
	assert.Empty(t, uc.View(context.Background(), "s").Lines)
}

func TestBasketUseCase_IndexAndLineOperations(t *testing.T) {
	uc := newTestBasketUseCase(&mockSaleService{}, defaultSettings())
	ctx := context.Background()

	first, _, err := uc.AddItem(ctx, "s", torta, nil, 1)
	require.NoError(t, err)
	second, _, err := uc.AddItem(ctx, "s", kuchen, nil, 1)
	require.NoError(t, err)

	view, err := uc.ChangeQuantity(ctx, "s", 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, view.Lines[1].Quantity)

	view, err = uc.RemoveItem(ctx, "s", 0)
	require.NoError(t, err)
	require.Len(t, view.Lines, 1)
	assert.Equal(t, second, view.Lines[0].ID)

	_, err = uc.ChangeLine(ctx, "s", first, 1)
	assert.IsType(t, &apperrors.LineNotFoundError{}, err)

	view, err = uc.ChangeLine(ctx, "s", second, -3)
	require.NoError(t, err)
	assert.Empty(t, view.Lines)

	_, err = uc.RemoveLine(ctx, "s", second)
	assert.IsType(t, &apperrors.LineNotFoundError{}, err)

	_, err = uc.RemoveItem(ctx, "s", 0)
	assert.IsType(t, &apperrors.IndexOutOfRangeError{}, err)
}

func TestBasketUseCase_ConfirmSuccessClearsBasket(t *testing.T) {
	var sent domain.ConfirmSaleRequest
	sales := &mockSaleService{
		ConfirmSaleFunc: func(ctx context.Context, req domain.ConfirmSaleRequest) (*domain.ConfirmedSale, error) {
			sent = req
			return &domain.ConfirmedSale{SaleID: 321}, nil
		},
	}
	uc := newTestBasketUseCase(sales, defaultSettings())
	ctx := context.Background()

	_, _, err := uc.AddItem(ctx, "s", torta, &domain.LotRef{ID: 7}, 2)
	require.NoError(t, err)

	sale, err := uc.Confirm(ctx, "s")
	require.NoError(t, err)
	assert.Equal(t, int64(321), sale.SaleID)

	require.Len(t, sent.Lines, 1)
	assert.Equal(t, int64(7), *sent.Lines[0].LotID)
	assert.True(t, decimal.NewFromInt(30000).Equal(sent.Total))
	assert.Empty(t, uc.View(ctx, "s").Lines)
}

func TestBasketUseCase_ConfirmFailureKeepsBasket(t *testing.T) {
	sales := &mockSaleService{
		ConfirmSaleFunc: func(ctx context.Context, req domain.ConfirmSaleRequest) (*domain.ConfirmedSale, error) {
			return nil, apperrors.NewServiceError(apperrors.ServiceServerError, 500, "stock insuficiente", nil)
		},
	}
	uc := newTestBasketUseCase(sales, defaultSettings())
	ctx := context.Background()

	_, _, err := uc.AddItem(ctx, "s", torta, nil, 1)
	require.NoError(t, err)

	_, err = uc.Confirm(ctx, "s")
	assert.Error(t, err)

	view := uc.View(ctx, "s")
	assert.Len(t, view.Lines, 1)
	assert.False(t, view.Submitting)
}

func TestBasketUseCase_ConfirmEmpty(t *testing.T) {
	uc := newTestBasketUseCase(&mockSaleService{}, defaultSettings())

	_, err := uc.Confirm(context.Background(), "s")
	assert.IsType(t, &apperrors.EmptyBasketError{}, err)
}

func TestBasketUseCase_ConfirmBlocksConcurrentChanges(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	sales := &mockSaleService{
		ConfirmSaleFunc: func(ctx context.Context, req domain.ConfirmSaleRequest) (*domain.ConfirmedSale, error) {
			close(entered)
			<-release
			return &domain.ConfirmedSale{SaleID: 1}, nil
		},
	}
	uc := newTestBasketUseCase(sales, defaultSettings())
	ctx := context.Background()

	_, _, err := uc.AddItem(ctx, "s", torta, nil, 1)
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := uc.Confirm(ctx, "s")
		assert.NoError(t, err)
	}()
	<-entered

	assert.True(t, uc.View(ctx, "s").Submitting)

	_, _, err = uc.AddItem(ctx, "s", kuchen, nil, 1)
	_, ok := apperrors.IsConflictError(err)
	assert.True(t, ok)

	_, err = uc.Confirm(ctx, "s")
	_, ok = apperrors.IsConflictError(err)
	assert.True(t, ok)

	_, err = uc.Cancel(ctx, "s")
	_, ok = apperrors.IsConflictError(err)
	assert.True(t, ok)

	close(release)
	wg.Wait()
}

func TestBasketUseCase_CancelPicksUpNewSettings(t *testing.T) {
	settings := domain.DefaultSettings()
	provider := &mockSettingsProvider{CurrentFunc: func(ctx context.Context) domain.Settings { return settings }}
	uc := newTestBasketUseCase(&mockSaleService{}, provider)
	ctx := context.Background()

	_, _, err := uc.AddItem(ctx, "s", torta, nil, 1)
	require.NoError(t, err)

	settings.Currency = "USD"
	assert.Equal(t, "CLP", uc.View(ctx, "s").Summary.Currency)

	view, err := uc.Cancel(ctx, "s")
	require.NoError(t, err)
	assert.Empty(t, view.Lines)
	assert.Equal(t, "USD", uc.View(ctx, "s").Summary.Currency)
}

// sweepingStore sweeps every idle session right after handing out the next
// one, so the caller holds a session that is no longer in the store.
type sweepingStore struct {
	*repository.BasketStore
	sweepNext bool
}

func (s *sweepingStore) Session(key string, create func() *domain.Basket) *repository.Session {
	sess := s.BasketStore.Session(key, create)
	if s.sweepNext {
		s.sweepNext = false
		s.BasketStore.Sweep(-time.Hour)
	}
	return sess
}

func TestBasketUseCase_SweptSessionIsFetchedAgain(t *testing.T) {
	store := &sweepingStore{BasketStore: repository.NewBasketStore()}
	uc := NewBasketUseCase(store, &mockSaleService{}, defaultSettings(), zap.NewNop())
	ctx := context.Background()

	store.sweepNext = true
	_, view, err := uc.AddItem(ctx, "s", torta, nil, 1)
	require.NoError(t, err)
	assert.Len(t, view.Lines, 1)

	assert.Len(t, uc.View(ctx, "s").Lines, 1)
	assert.Equal(t, 1, store.Len())
}

func TestBasketUseCase_ConfirmAfterSweep(t *testing.T) {
	store := &sweepingStore{BasketStore: repository.NewBasketStore()}
	sales := &mockSaleService{
		ConfirmSaleFunc: func(ctx context.Context, req domain.ConfirmSaleRequest) (*domain.ConfirmedSale, error) {
			t.Fatal("a swept basket must not be confirmed")
			return nil, nil
		},
	}
	uc := NewBasketUseCase(store, sales, defaultSettings(), zap.NewNop())
	ctx := context.Background()

	_, _, err := uc.AddItem(ctx, "s", torta, nil, 1)
	require.NoError(t, err)

	store.sweepNext = true
	_, err = uc.Confirm(ctx, "s")
	assert.IsType(t, &apperrors.EmptyBasketError{}, err)
}

func TestBasketUseCase_AddAfterConfirmLandsInNewBasket(t *testing.T) {
	settings := domain.DefaultSettings()
	provider := &mockSettingsProvider{CurrentFunc: func(ctx context.Context) domain.Settings { return settings }}
	sales := &mockSaleService{
		ConfirmSaleFunc: func(ctx context.Context, req domain.ConfirmSaleRequest) (*domain.ConfirmedSale, error) {
			settings.Currency = "USD"
			return &domain.ConfirmedSale{SaleID: 9}, nil
		},
	}
	store := repository.NewBasketStore()
	uc := NewBasketUseCase(store, sales, provider, zap.NewNop())
	ctx := context.Background()

	_, _, err := uc.AddItem(ctx, "s", torta, nil, 1)
	require.NoError(t, err)
	_, err = uc.Confirm(ctx, "s")
	require.NoError(t, err)

	_, added, err := uc.AddItem(ctx, "s", kuchen, nil, 2)
	require.NoError(t, err)
	require.Len(t, added.Lines, 1)

	view := uc.View(ctx, "s")
	require.Len(t, view.Lines, 1)
	assert.Equal(t, kuchen.ID, view.Lines[0].ProductID)
	assert.Equal(t, "USD", view.Summary.Currency)
	assert.Equal(t, 1, store.Len())
}
