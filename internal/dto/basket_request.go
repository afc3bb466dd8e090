package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// AddItemRequest.Quantity defaults to 1 when omitted. UnitPrice is required;
// an explicit 0 is a free item.
type AddItemRequest struct {
	ProductID int64            `json:"productId"`
	Name      string           `json:"name"`
	UnitPrice *decimal.Decimal `json:"unitPrice"`
	Quantity  *int             `json:"quantity"`
	Lot       *LotDTO          `json:"lot,omitempty"`
}

type LotDTO struct {
	ID        int64      `json:"id"`
	Code      string     `json:"code,omitempty"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
	Available *int       `json:"available,omitempty"`
}

// ScanRequest adds whatever the scanned code resolves to.
type ScanRequest struct {
	Code     string `json:"code"`
	Quantity *int   `json:"quantity"`
}

type ChangeQuantityRequest struct {
	Delta int `json:"delta"`
}
