package backend

import (
	"time"

	"github.com/shopspring/decimal"

	"milsabores/internal/domain"
)

type confirmLinePayload struct {
	ProductID int64           `json:"productId"`
	LotID     *int64          `json:"lotId,omitempty"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

type confirmSalePayload struct {
	Lines []confirmLinePayload `json:"lines"`
	Total decimal.Decimal      `json:"total"`
}

type saleDetailResponse struct {
	SaleDetailID int64           `json:"saleDetailId"`
	ProductID    int64           `json:"productId"`
	Quantity     int             `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unitPrice"`
	LotID        *int64          `json:"lotId,omitempty"`
}

type saleResponse struct {
	SaleID  int64                `json:"saleId"`
	Details []saleDetailResponse `json:"details"`
}

type fullReturnPayload struct {
	Reason    string `json:"reason"`
	UsuarioID *int64 `json:"usuarioId,omitempty"`
}

type partialReturnItem struct {
	DetalleVentaID int64 `json:"detalleVentaId"`
	Cantidad       int   `json:"cantidad"`
}

type partialReturnPayload struct {
	VentaID   int64               `json:"ventaId"`
	Items     []partialReturnItem `json:"items"`
	Reason    string              `json:"reason"`
	UsuarioID *int64              `json:"usuarioId,omitempty"`
}

type returnReceiptResponse struct {
	ID            int64           `json:"id"`
	VentaID       int64           `json:"ventaId"`
	MontoDevuelto decimal.Decimal `json:"montoDevuelto"`
	Estado        string          `json:"estado"`
}

type lotLookupResponse struct {
	ProductID   int64           `json:"productId"`
	ProductName string          `json:"productName"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	LotID       *int64          `json:"lotId"`
	LotCode     string          `json:"lotCode"`
	Available   *int            `json:"available"`
	ExpiresAt   *time.Time      `json:"expiresAt"`
}

// errorResponse covers the error bodies the backend emits.
type errorResponse struct {
	Message string `json:"message"`
	Detail  string `json:"detail"`
	Error   string `json:"error"`
}

func (e errorResponse) text() string {
	switch {
	case e.Message != "":
		return e.Message
	case e.Detail != "":
		return e.Detail
	default:
		return e.Error
	}
}

func toConfirmPayload(req domain.ConfirmSaleRequest) confirmSalePayload {
	lines := make([]confirmLinePayload, len(req.Lines))
	for i, l := range req.Lines {
		lines[i] = confirmLinePayload{
			ProductID: l.ProductID,
			LotID:     l.LotID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
		}
	}
	return confirmSalePayload{Lines: lines, Total: req.Total}
}

func (s saleResponse) toDomain() *domain.ConfirmedSale {
	details := make([]domain.SaleDetail, len(s.Details))
	for i, d := range s.Details {
		details[i] = domain.SaleDetail{
			SaleDetailID: d.SaleDetailID,
			ProductID:    d.ProductID,
			LotID:        d.LotID,
			Quantity:     d.Quantity,
			UnitPrice:    d.UnitPrice,
		}
	}
	return &domain.ConfirmedSale{SaleID: s.SaleID, Details: details}
}

func toPartialPayload(req domain.ReturnRequest, usuarioID *int64) partialReturnPayload {
	items := make([]partialReturnItem, len(req.Items))
	for i, it := range req.Items {
		items[i] = partialReturnItem{DetalleVentaID: it.SaleDetailID, Cantidad: it.Quantity}
	}
	return partialReturnPayload{
		VentaID:   req.SaleID,
		Items:     items,
		Reason:    req.Reason,
		UsuarioID: usuarioID,
	}
}

func (l lotLookupResponse) toDomain() (domain.ProductRef, *domain.LotRef) {
	product := domain.ProductRef{ID: l.ProductID, Name: l.ProductName, UnitPrice: l.UnitPrice}
	if l.LotID == nil {
		return product, nil
	}
	return product, &domain.LotRef{
		ID:        *l.LotID,
		Code:      l.LotCode,
		ExpiresAt: l.ExpiresAt,
		Available: l.Available,
	}
}
