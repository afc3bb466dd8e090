package errors

import (
	"errors"
	"fmt"
)

// ContractError is an input-contract violation raised by the basket or the
// return builder. Code is stable and safe to show to API clients.
type ContractError interface {
	error
	Code() string
}

func IsContractError(err error) (ContractError, bool) {
	var ce ContractError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

type IndexOutOfRangeError struct {
	Index  int
	Length int
}

func (e *IndexOutOfRangeError) Error() string {
	return fmt.Sprintf("line index %d out of range (basket has %d lines)", e.Index, e.Length)
}

func (e *IndexOutOfRangeError) Code() string { return "INDEX_OUT_OF_RANGE" }

type LineNotFoundError struct {
	LineID uint64
}

func (e *LineNotFoundError) Error() string {
	return fmt.Sprintf("basket line %d not found", e.LineID)
}

func (e *LineNotFoundError) Code() string { return "LINE_NOT_FOUND" }

type InvalidQuantityError struct {
	Quantity int
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity must be at least 1, got %d", e.Quantity)
}

func (e *InvalidQuantityError) Code() string { return "INVALID_QUANTITY" }

type InvalidPriceError struct {
	ProductID int64
	UnitPrice string
}

func (e *InvalidPriceError) Error() string {
	return fmt.Sprintf("unit price for product %d must be non-negative, got %s", e.ProductID, e.UnitPrice)
}

func (e *InvalidPriceError) Code() string { return "INVALID_PRICE" }

type EmptyBasketError struct{}

func (e *EmptyBasketError) Error() string {
	return "basket has no lines"
}

func (e *EmptyBasketError) Code() string { return "EMPTY_BASKET" }

type InvalidReasonError struct{}

func (e *InvalidReasonError) Error() string {
	return "return reason must not be blank"
}

func (e *InvalidReasonError) Code() string { return "INVALID_REASON" }

type EmptySelectionError struct{}

func (e *EmptySelectionError) Error() string {
	return "partial return must select at least one line"
}

func (e *EmptySelectionError) Code() string { return "EMPTY_SELECTION" }

type UnknownLineError struct {
	SaleID       int64
	SaleDetailID int64
}

func (e *UnknownLineError) Error() string {
	return fmt.Sprintf("sale %d has no detail line %d", e.SaleID, e.SaleDetailID)
}

func (e *UnknownLineError) Code() string { return "UNKNOWN_LINE" }

type DuplicateLineError struct {
	SaleDetailID int64
	Position     int
}

func (e *DuplicateLineError) Error() string {
	return fmt.Sprintf("detail line %d selected more than once (position %d)", e.SaleDetailID, e.Position)
}

func (e *DuplicateLineError) Code() string { return "DUPLICATE_LINE" }

type QuantityExceedsSoldError struct {
	SaleDetailID int64
	Requested    int
	Sold         int
}

func (e *QuantityExceedsSoldError) Error() string {
	return fmt.Sprintf("detail line %d: requested %d, must be between 1 and %d", e.SaleDetailID, e.Requested, e.Sold)
}

func (e *QuantityExceedsSoldError) Code() string { return "QUANTITY_EXCEEDS_SOLD" }
