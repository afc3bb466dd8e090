package dto

import "github.com/shopspring/decimal"

type SettingsResponse struct {
	Currency            string          `json:"currency"`
	IVADefault          decimal.Decimal `json:"ivaDefault"`
	StockAlertThreshold int             `json:"stockAlertThreshold"`
}

// UpdateSettingsRequest fields are optional; omitted ones keep their value.
type UpdateSettingsRequest struct {
	Currency            *string          `json:"currency"`
	IVADefault          *decimal.Decimal `json:"ivaDefault"`
	StockAlertThreshold *int             `json:"stockAlertThreshold"`
}
