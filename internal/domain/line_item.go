package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// LineID identifies a basket line for the lifetime of its basket. IDs are
// never reused, even after Reset.
type LineID uint64

type ProductRef struct {
	ID        int64
	Name      string
	UnitPrice decimal.Decimal
}

// LotRef describes the inventory lot a line is drawn from. Available is the
// unit count the backend reported at scan time, if any.
type LotRef struct {
	ID        int64
	Code      string
	ExpiresAt *time.Time
	Available *int
}

type LineItem struct {
	ID        LineID
	ProductID int64
	Lot       *LotRef
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int
}

func (l LineItem) LotID() *int64 {
	if l.Lot == nil {
		return nil
	}
	id := l.Lot.ID
	return &id
}

func (l LineItem) LineTotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

type StockWarningKind string

const (
	StockWarningLow      StockWarningKind = "LOW_STOCK"
	StockWarningExceeded StockWarningKind = "EXCEEDS_LOT_STOCK"
)

type StockWarning struct {
	LineID    LineID
	Index     int
	LotID     int64
	Kind      StockWarningKind
	Available int
	Requested int
}

// stockWarning reports a lot whose known availability cannot cover the line,
// or sits at or below the alert threshold. The backend stays authoritative.
func (l LineItem) stockWarning(index, threshold int) *StockWarning {
	if l.Lot == nil || l.Lot.Available == nil {
		return nil
	}
	available := *l.Lot.Available
	w := &StockWarning{
		LineID:    l.ID,
		Index:     index,
		LotID:     l.Lot.ID,
		Available: available,
		Requested: l.Quantity,
	}
	switch {
	case l.Quantity > available:
		w.Kind = StockWarningExceeded
	case available-l.Quantity <= threshold:
		w.Kind = StockWarningLow
	default:
		return nil
	}
	return w
}

func copyLot(lot *LotRef) *LotRef {
	if lot == nil {
		return nil
	}
	c := *lot
	if lot.ExpiresAt != nil {
		t := *lot.ExpiresAt
		c.ExpiresAt = &t
	}
	if lot.Available != nil {
		a := *lot.Available
		c.Available = &a
	}
	return &c
}
