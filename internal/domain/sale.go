package domain

import "github.com/shopspring/decimal"

type ConfirmLine struct {
	ProductID int64
	LotID     *int64
	Quantity  int
	UnitPrice decimal.Decimal
}

// ConfirmSaleRequest is the confirm payload built from a basket.
type ConfirmSaleRequest struct {
	Lines []ConfirmLine
	Total decimal.Decimal
}

// ConfirmedSale is a sale persisted by the sale service. It is input only;
// nothing in this module mutates it.
type ConfirmedSale struct {
	SaleID  int64
	Details []SaleDetail
}

type SaleDetail struct {
	SaleDetailID int64
	ProductID    int64
	LotID        *int64
	Quantity     int
	UnitPrice    decimal.Decimal
}

func (s ConfirmedSale) Total() decimal.Decimal {
	total := decimal.Zero
	for _, d := range s.Details {
		total = total.Add(d.UnitPrice.Mul(decimal.NewFromInt(int64(d.Quantity))))
	}
	return total
}

func (s ConfirmedSale) detail(id int64) (SaleDetail, bool) {
	for _, d := range s.Details {
		if d.SaleDetailID == id {
			return d, true
		}
	}
	return SaleDetail{}, false
}
