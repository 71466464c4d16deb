package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestParseOrderStatus(t *testing.T) {
	status, ok := ParseOrderStatus(" cancelled ")
	assert.True(t, ok)
	assert.Equal(t, OrderStatusCancelled, status)

	_, ok = ParseOrderStatus("SHIPPED")
	assert.False(t, ok)
}

func TestOrderItemsTotal(t *testing.T) {
	order := Order{Items: []OrderItem{
		{Price: decimal.RequireFromString("19.99"), Quantity: 3},
		{Price: decimal.NewFromInt(100), Quantity: 1},
	}}
	assert.True(t, order.ItemsTotal().Equal(decimal.RequireFromString("159.97")))
}
