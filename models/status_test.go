package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderStatusTransitions(t *testing.T) {
	cases := []struct {
		from    OrderStatus
		to      OrderStatus
		allowed bool
	}{
		{OrderPending, OrderProcessing, true},
		{OrderPending, OrderCancelled, true},
		{OrderPending, OrderCompleted, false},
		{OrderProcessing, OrderCompleted, true},
		{OrderProcessing, OrderCancelled, true},
		{OrderProcessing, OrderPending, false},
		{OrderCompleted, OrderCancelled, false},
		{OrderCompleted, OrderPending, false},
		{OrderCancelled, OrderProcessing, false},
		{OrderCancelled, OrderCancelled, false},
	}

	for _, tc := range cases {
		assert.Equalf(t, tc.allowed, tc.from.CanTransition(tc.to),
			"%s -> %s", tc.from, tc.to)
	}
}

func TestParseOrderStatus(t *testing.T) {
	status, err := ParseOrderStatus("processing")
	assert.NoError(t, err)
	assert.Equal(t, OrderProcessing, status)

	_, err = ParseOrderStatus("cooking")
	assert.Error(t, err)
}

func TestParsePaymentMethod(t *testing.T) {
	method, err := ParsePaymentMethod("")
	assert.NoError(t, err)
	assert.Equal(t, MethodUnknown, method)

	method, err = ParsePaymentMethod("qris")
	assert.NoError(t, err)
	assert.Equal(t, MethodQRIS, method)

	_, err = ParsePaymentMethod("barter")
	assert.Error(t, err)
}
