package settings

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"milsabores/internal/config"
)

func TestDefaultsFromConfig(t *testing.T) {
	s, err := DefaultsFromConfig(config.DefaultsConfig{Currency: "USD", IVA: "0.16", StockAlertThreshold: 3})
	require.NoError(t, err)
	assert.Equal(t, "USD", s.Currency)
	assert.True(t, decimal.RequireFromString("0.16").Equal(s.DefaultIVA))
	assert.Equal(t, 3, s.StockAlertThreshold)
}

func TestDefaultsFromConfig_EmptyUsesDefaults(t *testing.T) {
	s, err := DefaultsFromConfig(config.DefaultsConfig{StockAlertThreshold: -1})
	require.NoError(t, err)
	assert.Equal(t, "CLP", s.Currency)
	assert.True(t, decimal.RequireFromString("0.19").Equal(s.DefaultIVA))
	assert.Equal(t, 5, s.StockAlertThreshold)
}

func TestDefaultsFromConfig_BadIVA(t *testing.T) {
	_, err := DefaultsFromConfig(config.DefaultsConfig{IVA: "nineteen"})
	assert.ErrorContains(t, err, "parsing default iva")
}
