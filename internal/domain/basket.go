package domain

import (
	"math"

	"github.com/shopspring/decimal"

	apperrors "milsabores/internal/errors"
)

// Basket is the sale being built at the register. Lines live in an arena keyed
// by LineID; order holds insertion order. A Basket belongs to one sale workflow
// and is not safe for concurrent use.
type Basket struct {
	settings Settings
	lines    map[LineID]*LineItem
	order    []LineID
	nextID   LineID
}

func NewBasket(settings Settings) *Basket {
	return &Basket{
		settings: settings.WithDefaults(),
		lines:    make(map[LineID]*LineItem),
	}
}

func (b *Basket) Settings() Settings {
	return b.settings
}

// AddItem appends a new line, even if the same product and lot are already in
// the basket.
func (b *Basket) AddItem(product ProductRef, lot *LotRef, quantity int) (LineID, error) {
	if quantity < 1 {
		return 0, &apperrors.InvalidQuantityError{Quantity: quantity}
	}
	if product.UnitPrice.IsNegative() {
		return 0, &apperrors.InvalidPriceError{ProductID: product.ID, UnitPrice: product.UnitPrice.String()}
	}

	b.nextID++
	id := b.nextID
	b.lines[id] = &LineItem{
		ID:        id,
		ProductID: product.ID,
		Lot:       copyLot(lot),
		Name:      product.Name,
		UnitPrice: product.UnitPrice,
		Quantity:  quantity,
	}
	b.order = append(b.order, id)
	return id, nil
}

// ChangeQuantity adds delta to the line at index. A resulting quantity of zero
// or less removes the line.
func (b *Basket) ChangeQuantity(index, delta int) error {
	id, err := b.idAt(index)
	if err != nil {
		return err
	}
	return b.ChangeQuantityByID(id, delta)
}

func (b *Basket) RemoveItem(index int) error {
	id, err := b.idAt(index)
	if err != nil {
		return err
	}
	return b.RemoveByID(id)
}

func (b *Basket) ChangeQuantityByID(id LineID, delta int) error {
	line, ok := b.lines[id]
	if !ok {
		return &apperrors.LineNotFoundError{LineID: uint64(id)}
	}
	if delta > 0 && line.Quantity > math.MaxInt-delta {
		return &apperrors.InvalidQuantityError{Quantity: delta}
	}
	if line.Quantity+delta <= 0 {
		return b.RemoveByID(id)
	}
	line.Quantity += delta
	return nil
}

func (b *Basket) RemoveByID(id LineID) error {
	if _, ok := b.lines[id]; !ok {
		return &apperrors.LineNotFoundError{LineID: uint64(id)}
	}
	delete(b.lines, id)
	for i, lid := range b.order {
		if lid == id {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
	return nil
}

// Lines returns a copy of the current lines in insertion order.
func (b *Basket) Lines() []LineItem {
	out := make([]LineItem, 0, len(b.order))
	for _, id := range b.order {
		line := *b.lines[id]
		line.Lot = copyLot(line.Lot)
		out = append(out, line)
	}
	return out
}

func (b *Basket) Len() int {
	return len(b.order)
}

func (b *Basket) IsEmpty() bool {
	return len(b.order) == 0
}

// Units is the number of units across all lines.
func (b *Basket) Units() int {
	units := 0
	for _, id := range b.order {
		units += b.lines[id].Quantity
	}
	return units
}

func (b *Basket) Total() decimal.Decimal {
	total := decimal.Zero
	for _, id := range b.order {
		total = total.Add(b.lines[id].LineTotal())
	}
	return total
}

// ToConfirmRequest builds the payload for the sale service. The result does not
// share memory with the basket.
func (b *Basket) ToConfirmRequest() (ConfirmSaleRequest, error) {
	if b.IsEmpty() {
		return ConfirmSaleRequest{}, &apperrors.EmptyBasketError{}
	}

	lines := make([]ConfirmLine, 0, len(b.order))
	total := decimal.Zero
	for _, id := range b.order {
		line := b.lines[id]
		lines = append(lines, ConfirmLine{
			ProductID: line.ProductID,
			LotID:     line.LotID(),
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
		})
		total = total.Add(line.LineTotal())
	}

	return ConfirmSaleRequest{Lines: lines, Total: total}, nil
}

func (b *Basket) Reset() {
	b.lines = make(map[LineID]*LineItem)
	b.order = nil
}

// BasketSummary is display data. IVAIncluded is the tax portion contained in
// Total at the configured default rate, rounded to two decimals; it is an
// estimate, the backend computes the real figure.
type BasketSummary struct {
	Currency    string
	Lines       int
	Units       int
	Total       decimal.Decimal
	IVAIncluded decimal.Decimal
}

func (b *Basket) Summary() BasketSummary {
	total := b.Total()
	iva := decimal.Zero
	if b.settings.DefaultIVA.IsPositive() && !total.IsZero() {
		net := total.Div(decimal.NewFromInt(1).Add(b.settings.DefaultIVA))
		iva = total.Sub(net).Round(2)
	}
	return BasketSummary{
		Currency:    b.settings.Currency,
		Lines:       b.Len(),
		Units:       b.Units(),
		Total:       total,
		IVAIncluded: iva,
	}
}

func (b *Basket) Warnings() []StockWarning {
	var warnings []StockWarning
	for i, id := range b.order {
		if w := b.lines[id].stockWarning(i, b.settings.StockAlertThreshold); w != nil {
			warnings = append(warnings, *w)
		}
	}
	return warnings
}

func (b *Basket) idAt(index int) (LineID, error) {
	if index < 0 || index >= len(b.order) {
		return 0, &apperrors.IndexOutOfRangeError{Index: index, Length: len(b.order)}
	}
	return b.order[index], nil
}
