package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

type FullReturnRequest struct {
	Reason string `json:"reason"`
}

type ReturnItemDTO struct {
	SaleDetailID int64 `json:"saleDetailId"`
	Quantity     int   `json:"quantity"`
}

type PartialReturnRequest struct {
	Reason string          `json:"reason"`
	Items  []ReturnItemDTO `json:"items"`
}

// ReturnPreviewResponse shows what a return would send. EstimatedRefund is
// informational; the returns service decides the refunded amount.
type ReturnPreviewResponse struct {
	TraceID         string          `json:"traceId"`
	Kind            string          `json:"kind"`
	SaleID          int64           `json:"saleId"`
	Reason          string          `json:"reason,omitempty"`
	Items           []ReturnItemDTO `json:"items,omitempty"`
	EstimatedRefund decimal.Decimal `json:"estimatedRefund"`
	Currency        string          `json:"currency"`
	Sale            []SaleDetailDTO `json:"sale"`
}

type ReturnReceiptResponse struct {
	TraceID         string          `json:"traceId"`
	ReturnID        int64           `json:"returnId"`
	SaleID          int64           `json:"saleId"`
	Kind            string          `json:"kind"`
	RefundedAmount  decimal.Decimal `json:"refundedAmount"`
	EstimatedRefund decimal.Decimal `json:"estimatedRefund"`
	Status          string          `json:"status"`
	Timestamp       time.Time       `json:"timestamp"`
}
