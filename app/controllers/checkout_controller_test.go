package controllers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TobiasKrahl/Velora/internal/pkg/checkout"
)

func TestPickMethodHighestPriority(t *testing.T) {
	methods := []checkout.PaymentMethod{
		{Type: "banktransfer", Priority: 0},
		{Type: "paypal", Priority: 1},
	}

	got, ok := pickMethod(methods, "")
	require.True(t, ok)
	assert.Equal(t, "paypal", got.Type)
}

func TestPickMethodRequestedType(t *testing.T) {
	methods := []checkout.PaymentMethod{
		{Type: "banktransfer", Priority: 5},
		{Type: "paypal", Priority: 1},
	}

	got, ok := pickMethod(methods, "paypal")
	require.True(t, ok)
	assert.Equal(t, "paypal", got.Type)
}

func TestPickMethodUnknownRequestedType(t *testing.T) {
	methods := []checkout.PaymentMethod{
		{Type: "paypal", Priority: 1},
	}

	_, ok := pickMethod(methods, "giropay")
	assert.False(t, ok)
}

func TestPickMethodEmpty(t *testing.T) {
	_, ok := pickMethod(nil, "")
	assert.False(t, ok)
}

func TestPickMethodStablePriorityTie(t *testing.T) {
	methods := []checkout.PaymentMethod{
		{Type: "first", Priority: 1},
		{Type: "second", Priority: 1},
	}

	got, ok := pickMethod(methods, "")
	require.True(t, ok)
	assert.Equal(t, "first", got.Type, "tie must keep registration order")
}
