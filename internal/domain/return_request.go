package domain

import (
	"strings"

	"github.com/shopspring/decimal"

	apperrors "milsabores/internal/errors"
)

type ReturnKind string

const (
	ReturnFull    ReturnKind = "FULL"
	ReturnPartial ReturnKind = "PARTIAL"
)

type ReturnSelection struct {
	SaleDetailID int64
	Quantity     int
}

type ReturnLine struct {
	SaleDetailID int64
	Quantity     int
}

// EstimatedAmount is a refund preview computed locally. The returns service
// recomputes the real amount; never store or submit this as final.
type EstimatedAmount struct {
	Amount   decimal.Decimal
	Currency string
}

type ReturnRequest struct {
	Kind            ReturnKind
	SaleID          int64
	Reason          string
	Items           []ReturnLine
	EstimatedRefund EstimatedAmount
}

// ReturnBuilder validates and builds return requests for confirmed sales. It
// keeps no state between builds.
type ReturnBuilder struct {
	settings Settings
}

func NewReturnBuilder(settings Settings) *ReturnBuilder {
	return &ReturnBuilder{settings: settings.WithDefaults()}
}

func (b *ReturnBuilder) BuildFullReturn(sale ConfirmedSale, reason string) (*ReturnRequest, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, &apperrors.InvalidReasonError{}
	}

	return &ReturnRequest{
		Kind:            ReturnFull,
		SaleID:          sale.SaleID,
		Reason:          reason,
		EstimatedRefund: b.estimate(sale.Total()),
	}, nil
}

// BuildPartialReturn checks reason, then emptiness, then each selection in
// order (existence, duplication, quantity). The first failure is returned.
func (b *ReturnBuilder) BuildPartialReturn(sale ConfirmedSale, selections []ReturnSelection, reason string) (*ReturnRequest, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, &apperrors.InvalidReasonError{}
	}
	if len(selections) == 0 {
		return nil, &apperrors.EmptySelectionError{}
	}

	seen := make(map[int64]struct{}, len(selections))
	items := make([]ReturnLine, 0, len(selections))
	refund := decimal.Zero

	for pos, sel := range selections {
		detail, ok := sale.detail(sel.SaleDetailID)
		if !ok {
			return nil, &apperrors.UnknownLineError{SaleID: sale.SaleID, SaleDetailID: sel.SaleDetailID}
		}
		if _, dup := seen[sel.SaleDetailID]; dup {
			return nil, &apperrors.DuplicateLineError{SaleDetailID: sel.SaleDetailID, Position: pos}
		}
		seen[sel.SaleDetailID] = struct{}{}

		if sel.Quantity <= 0 || sel.Quantity > detail.Quantity {
			return nil, &apperrors.QuantityExceedsSoldError{
				SaleDetailID: sel.SaleDetailID,
				Requested:    sel.Quantity,
				Sold:         detail.Quantity,
			}
		}

		items = append(items, ReturnLine{SaleDetailID: sel.SaleDetailID, Quantity: sel.Quantity})
		refund = refund.Add(detail.UnitPrice.Mul(decimal.NewFromInt(int64(sel.Quantity))))
	}

	return &ReturnRequest{
		Kind:            ReturnPartial,
		SaleID:          sale.SaleID,
		Reason:          reason,
		Items:           items,
		EstimatedRefund: b.estimate(refund),
	}, nil
}

func (b *ReturnBuilder) estimate(amount decimal.Decimal) EstimatedAmount {
	return EstimatedAmount{Amount: amount, Currency: b.settings.Currency}
}

// ReturnReceipt is the returns service's answer. RefundedAmount is the
// authoritative figure.
type ReturnReceipt struct {
	ReturnID       int64
	SaleID         int64
	Kind           ReturnKind
	RefundedAmount decimal.Decimal
	Status         string
}
