package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestOrderTotal(t *testing.T) {
	items := []OrderItem{
		{MovieID: 1, Quantity: 1, PriceAtOrder: d("9.99")},
		{MovieID: 2, Quantity: 2, PriceAtOrder: d("14.99")},
	}
	require.True(t, OrderTotal(items).Equal(d("39.97")))
}

func TestOrderTotalEmpty(t *testing.T) {
	require.True(t, OrderTotal(nil).Equal(decimal.Zero))
}

func TestOrderTotalClampsQuantity(t *testing.T) {
	items := []OrderItem{{MovieID: 1, Quantity: 0, PriceAtOrder: d("9.99")}}
	require.True(t, OrderTotal(items).Equal(d("9.99")))
}

func TestIsTerminalOrderStatus(t *testing.T) {
	require.False(t, IsTerminalOrderStatus(OrderStatusPending))
	require.True(t, IsTerminalOrderStatus(OrderStatusPaid))
	require.True(t, IsTerminalOrderStatus(OrderStatusFailed))
	require.True(t, IsTerminalOrderStatus(OrderStatusCancelled))
	require.False(t, IsTerminalOrderStatus("UNKNOWN"))
}
