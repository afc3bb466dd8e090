package repository

import (
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"milsabores/internal/domain"
	apperrors "milsabores/internal/errors"
)

func newBasket() *domain.Basket {
	return domain.NewBasket(domain.DefaultSettings())
}

func addOne(b *domain.Basket) error {
	_, err := b.AddItem(domain.ProductRef{ID: 1, Name: "Pie de limón", UnitPrice: decimal.NewFromInt(3000)}, nil, 1)
	return err
}

func TestBasketStore_SessionIsReusedPerKey(t *testing.T) {
	store := NewBasketStore()

	created := 0
	create := func() *domain.Basket { created++; return newBasket() }

	a := store.Session("user-1", create)
	b := store.Session("user-1", create)
	c := store.Session("user-2", create)

	assert.Same(t, a, b)
	assert.NotSame(t, a, c)
	assert.Equal(t, 2, created)
	assert.Equal(t, 2, store.Len())
}

func TestSession_SubmitFreezesBasket(t *testing.T) {
	store := NewBasketStore()
	sess := store.Session("user-1", newBasket)
	require.NoError(t, sess.Mutate(addOne))

	req, err := sess.BeginSubmit()
	require.NoError(t, err)
	require.Len(t, req.Lines, 1)

	err = sess.Mutate(addOne)
	_, ok := apperrors.IsConflictError(err)
	assert.True(t, ok)

	_, err = sess.BeginSubmit()
	_, ok = apperrors.IsConflictError(err)
	assert.True(t, ok)

	sess.View(func(b *domain.Basket, submitting bool) {
		assert.True(t, submitting)
		assert.Equal(t, 1, b.Len())
	})
}

func TestSession_EndSubmit(t *testing.T) {
	store := NewBasketStore()
	sess := store.Session("user-1", newBasket)
	require.NoError(t, sess.Mutate(addOne))

	_, err := sess.BeginSubmit()
	require.NoError(t, err)
	sess.EndSubmit(nil)

	sess.View(func(b *domain.Basket, submitting bool) {
		assert.False(t, submitting)
		assert.Equal(t, 1, b.Len())
	})

	_, err = sess.BeginSubmit()
	require.NoError(t, err)
	sess.EndSubmit(newBasket())

	require.NoError(t, sess.View(func(b *domain.Basket, submitting bool) {
		assert.False(t, submitting)
		assert.True(t, b.IsEmpty())
	}))
}

func TestSession_BeginSubmitEmpty(t *testing.T) {
	sess := NewBasketStore().Session("user-1", newBasket)

	_, err := sess.BeginSubmit()
	assert.IsType(t, &apperrors.EmptyBasketError{}, err)

	assert.NoError(t, sess.Mutate(addOne), "a failed begin must not freeze the basket")
}

func TestBasketStore_Sweep(t *testing.T) {
	now := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	store := NewBasketStore()
	store.now = func() time.Time { return now }

	store.Session("idle", newBasket)
	busy := store.Session("busy", newBasket)
	require.NoError(t, busy.Mutate(addOne))
	_, err := busy.BeginSubmit()
	require.NoError(t, err)

	now = now.Add(2 * time.Hour)
	store.Session("fresh", newBasket)

	removed := store.Sweep(time.Hour)
	assert.Equal(t, 1, removed)
	assert.Equal(t, 2, store.Len())
}

func TestBasketStore_SweptSessionRejectsWrites(t *testing.T) {
	now := time.Date(2026, 10, 1, 8, 0, 0, 0, time.UTC)
	store := NewBasketStore()
	store.now = func() time.Time { return now }

	held := store.Session("user-1", newBasket)

	now = now.Add(9 * time.Hour)
	require.Equal(t, 1, store.Sweep(8*time.Hour))

	assert.ErrorIs(t, held.Mutate(addOne), ErrSessionClosed)
	assert.ErrorIs(t, held.View(func(*domain.Basket, bool) {}), ErrSessionClosed)
	assert.ErrorIs(t, held.Renew(newBasket()), ErrSessionClosed)
	_, err := held.BeginSubmit()
	assert.ErrorIs(t, err, ErrSessionClosed)

	fresh := store.Session("user-1", newBasket)
	assert.NotSame(t, held, fresh)
	require.NoError(t, fresh.Mutate(addOne))
	require.NoError(t, fresh.View(func(b *domain.Basket, _ bool) {
		assert.Equal(t, 1, b.Len())
	}))
}

func TestBasketStore_SessionLookupCountsAsActivity(t *testing.T) {
	now := time.Date(2026, 10, 1, 8, 0, 0, 0, time.UTC)
	store := NewBasketStore()
	store.now = func() time.Time { return now }

	store.Session("user-1", newBasket)
	now = now.Add(9 * time.Hour)
	held := store.Session("user-1", newBasket)

	assert.Equal(t, 0, store.Sweep(8*time.Hour))
	assert.NoError(t, held.Mutate(addOne))
}

func TestSession_Renew(t *testing.T) {
	sess := NewBasketStore().Session("user-1", newBasket)
	require.NoError(t, sess.Mutate(addOne))

	usd := domain.DefaultSettings()
	usd.Currency = "USD"
	require.NoError(t, sess.Renew(domain.NewBasket(usd)))

	require.NoError(t, sess.View(func(b *domain.Basket, _ bool) {
		assert.True(t, b.IsEmpty())
		assert.Equal(t, "USD", b.Settings().Currency)
	}))

	require.NoError(t, sess.Mutate(addOne))
	_, err := sess.BeginSubmit()
	require.NoError(t, err)
	_, ok := apperrors.IsConflictError(sess.Renew(newBasket()))
	assert.True(t, ok)
}

func TestSession_ConcurrentMutations(t *testing.T) {
	sess := NewBasketStore().Session("user-1", newBasket)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = sess.Mutate(addOne)
		}()
	}
	wg.Wait()

	sess.View(func(b *domain.Basket, _ bool) {
		assert.Equal(t, 50, b.Len())
	})
}
