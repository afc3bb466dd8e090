package domain

import "github.com/shopspring/decimal"

const (
	DefaultCurrency            = "CLP"
	DefaultStockAlertThreshold = 5
)

var DefaultIVA = decimal.RequireFromString("0.19")

// Settings is a read-only snapshot of the console configuration handed to a
// basket or return builder when it is created.
type Settings struct {
	Currency            string
	DefaultIVA          decimal.Decimal
	StockAlertThreshold int
}

func DefaultSettings() Settings {
	return Settings{
		Currency:            DefaultCurrency,
		DefaultIVA:          DefaultIVA,
		StockAlertThreshold: DefaultStockAlertThreshold,
	}
}

// WithDefaults fills zero-valued fields from DefaultSettings.
func (s Settings) WithDefaults() Settings {
	def := DefaultSettings()
	if s.Currency == "" {
		s.Currency = def.Currency
	}
	if s.DefaultIVA.IsNegative() {
		s.DefaultIVA = def.DefaultIVA
	}
	if s.StockAlertThreshold < 0 {
		s.StockAlertThreshold = def.StockAlertThreshold
	}
	return s
}
