package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "8080", cfg.Server.Port)
	require.True(t, cfg.Checkout.Cart.FreeShippingThreshold.Equal(decimal.NewFromInt(100)),
		"cart threshold = %s", cfg.Checkout.Cart.FreeShippingThreshold)
	require.True(t, cfg.Checkout.Cart.TaxRate.Equal(decimal.NewFromFloat(0.05)),
		"cart tax rate = %s", cfg.Checkout.Cart.TaxRate)
	require.True(t, cfg.Checkout.Guest.FreeShippingThreshold.Equal(decimal.NewFromInt(1000)),
		"guest threshold = %s", cfg.Checkout.Guest.FreeShippingThreshold)
	require.True(t, cfg.Checkout.Guest.TaxRate.Equal(decimal.NewFromFloat(0.18)),
		"guest tax rate = %s", cfg.Checkout.Guest.TaxRate)
	require.Equal(t, "order-events", cfg.PubSub.OrderEventsTopic)
	require.Equal(t, "lumenmart-invoices", cfg.Invoices.Bucket)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("API_PORT", "9090")
	t.Setenv("API_READ_TIMEOUT", "5s")
	t.Setenv("API_CHECKOUT_CART_TAX_RATE", "0.07")
	t.Setenv("API_CHECKOUT_GUEST_FREE_SHIPPING_THRESHOLD", "500")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "9090", cfg.Server.Port)
	require.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	require.True(t, cfg.Checkout.Cart.TaxRate.Equal(decimal.NewFromFloat(0.07)),
		"cart tax rate = %s", cfg.Checkout.Cart.TaxRate)
	require.True(t, cfg.Checkout.Guest.FreeShippingThreshold.Equal(decimal.NewFromInt(500)),
		"guest threshold = %s", cfg.Checkout.Guest.FreeShippingThreshold)
}

func TestLoadRejectsBadPort(t *testing.T) {
	t.Setenv("API_PORT", "not-a-port")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadRejectsBadPolicyValue(t *testing.T) {
	t.Setenv("API_CHECKOUT_CART_TAX_RATE", "five percent")

	_, err := Load()
	require.Error(t, err)
}
