package restaurant_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sergen116/food-ordering-system/pkg/money"
	"github.com/sergen116/food-ordering-system/service/restaurant"
)

func mustMoney(t *testing.T, s string) money.Money {
	t.Helper()
	m, err := money.NewFromString(s)
	require.NoError(t, err)
	return m
}

func activeRestaurant(t *testing.T) restaurant.Restaurant {
	return restaurant.Restaurant{
		ID:     "rest-1",
		Active: true,
		Products: restaurant.Products{
			{ID: "product-1", Name: "Burger", Price: mustMoney(t, "10.00"), AvailableQuantity: 5},
		},
	}
}

func TestValidate_HappyPath(t *testing.T) {
	r := activeRestaurant(t)
	failures := r.Validate([]restaurant.RequestedProduct{{ID: "product-1", Quantity: 2}})
	assert.Empty(t, failures)
}

func TestValidate_InactiveRestaurant(t *testing.T) {
	r := activeRestaurant(t)
	r.Active = false
	failures := r.Validate([]restaurant.RequestedProduct{{ID: "product-1", Quantity: 1}})
	require.Len(t, failures, 1)
	assert.Contains(t, failures[0], "not active")
}

func TestValidate_ProductNotListed(t *testing.T) {
	r := activeRestaurant(t)
	failures := r.Validate([]restaurant.RequestedProduct{{ID: "unknown", Quantity: 1}})
	require.Len(t, failures, 1)
	assert.Contains(t, failures[0], "not listed")
}

func TestValidate_InsufficientQuantity(t *testing.T) {
	r := activeRestaurant(t)
	failures := r.Validate([]restaurant.RequestedProduct{{ID: "product-1", Quantity: 10}})
	require.Len(t, failures, 1)
	assert.Contains(t, failures[0], "not have enough available quantity")
}

func TestReserve_DecrementsAvailableQuantity(t *testing.T) {
	r := activeRestaurant(t)
	err := r.Reserve([]restaurant.RequestedProduct{{ID: "product-1", Quantity: 2}})
	require.NoError(t, err)
	assert.Equal(t, 3, r.Products[0].AvailableQuantity)
}

func TestReserve_OversellFails(t *testing.T) {
	r := activeRestaurant(t)
	err := r.Reserve([]restaurant.RequestedProduct{{ID: "product-1", Quantity: 99}})
	assert.Error(t, err)
	assert.Equal(t, 5, r.Products[0].AvailableQuantity)
}
