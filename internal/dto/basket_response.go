package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"milsabores/internal/domain"
)

type LineDTO struct {
	LineID    uint64          `json:"lineId"`
	Index     int             `json:"index"`
	ProductID int64           `json:"productId"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"lineTotal"`
	Lot       *LotDTO         `json:"lot,omitempty"`
}

type StockWarningDTO struct {
	LineID    uint64 `json:"lineId"`
	Index     int    `json:"index"`
	LotID     int64  `json:"lotId"`
	Kind      string `json:"kind"`
	Available int    `json:"available"`
	Requested int    `json:"requested"`
}

type BasketResponse struct {
	TraceID     string            `json:"traceId"`
	Currency    string            `json:"currency"`
	Lines       []LineDTO         `json:"lines"`
	Units       int               `json:"units"`
	Total       decimal.Decimal   `json:"total"`
	IVAIncluded decimal.Decimal   `json:"ivaIncluded"`
	Warnings    []StockWarningDTO `json:"warnings,omitempty"`
	Submitting  bool              `json:"submitting"`
	Timestamp   time.Time         `json:"timestamp"`
}

// AddItemResponse returns the new line id with the updated basket.
type AddItemResponse struct {
	LineID uint64         `json:"lineId"`
	Basket BasketResponse `json:"basket"`
}

type SaleDetailDTO struct {
	SaleDetailID int64           `json:"saleDetailId"`
	ProductID    int64           `json:"productId"`
	LotID        *int64          `json:"lotId,omitempty"`
	Quantity     int             `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unitPrice"`
}

type ConfirmSaleResponse struct {
	TraceID   string          `json:"traceId"`
	SaleID    int64           `json:"saleId"`
	Total     decimal.Decimal `json:"total"`
	Details   []SaleDetailDTO `json:"details"`
	Timestamp time.Time       `json:"timestamp"`
}

func NewSaleDetailDTOs(details []domain.SaleDetail) []SaleDetailDTO {
	out := make([]SaleDetailDTO, len(details))
	for i, d := range details {
		out[i] = SaleDetailDTO{
			SaleDetailID: d.SaleDetailID,
			ProductID:    d.ProductID,
			LotID:        d.LotID,
			Quantity:     d.Quantity,
			UnitPrice:    d.UnitPrice,
		}
	}
	return out
}
