package money_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sergen116/food-ordering-system/pkg/money"
)

func TestSumMatchesAssociativeAddition(t *testing.T) {
	fifty, err := money.NewFromString("50.00")
	require.NoError(t, err)
	oneFifty, err := money.NewFromString("150.00")
	require.NoError(t, err)
	total, err := money.NewFromString("200.00")
	require.NoError(t, err)

	assert.True(t, money.Sum([]money.Money{fifty, oneFifty}).Equals(total))
}

func TestMultiplyByQuantity(t *testing.T) {
	unitPrice, err := money.NewFromString("50.00")
	require.NoError(t, err)
	subTotal, err := money.NewFromString("150.00")
	require.NoError(t, err)

	assert.True(t, unitPrice.MultiplyByQuantity(3).Equals(subTotal))
}

func TestEqualsIgnoresRepresentation(t *testing.T) {
	a, _ := money.NewFromString("1.0")
	b, _ := money.NewFromString("1.00")
	assert.True(t, a.Equals(b))
}

func TestZeroAndNegative(t *testing.T) {
	assert.True(t, money.Zero.IsZero())

	neg, err := money.NewFromString("-5.00")
	require.NoError(t, err)
	assert.True(t, neg.IsNegative())
	assert.False(t, neg.IsGreaterThanZero())
}

func TestGreaterThanOrEqual(t *testing.T) {
	ten, _ := money.NewFromString("10.00")
	five, _ := money.NewFromString("5.00")
	assert.True(t, ten.GreaterThanOrEqual(five))
	assert.False(t, five.GreaterThanOrEqual(ten))
	assert.True(t, ten.GreaterThanOrEqual(ten))
}

func TestSub(t *testing.T) {
	ten, _ := money.NewFromString("10.00")
	three, _ := money.NewFromString("3.00")
	seven, _ := money.NewFromString("7.00")
	assert.True(t, ten.Sub(three).Equals(seven))
}
