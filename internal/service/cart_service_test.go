package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddItem(t *testing.T) {
	st := newMemStore()
	st.addProduct(1, "Wireless Mouse", "19.99")
	svc := NewCartService(st)
	ctx := context.Background()

	cart, err := svc.AddItem(ctx, 7, 1, 2)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 2, cart.Items[0].Quantity)

	// adding again accumulates
	cart, err = svc.AddItem(ctx, 7, 1, 3)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 5, cart.Items[0].Quantity)
}

func TestAddItem_InvalidQuantity(t *testing.T) {
	st := newMemStore()
	st.addProduct(1, "Wireless Mouse", "19.99")
	svc := NewCartService(st)

	for _, qty := range []int{0, -1} {
		_, err := svc.AddItem(context.Background(), 7, 1, qty)
		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, "quantity", vErr.Field)
	}

	// nothing was persisted
	cart, err := svc.GetCart(context.Background(), 7)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
}

func TestAddItem_UnknownProduct(t *testing.T) {
	svc := NewCartService(newMemStore())

	_, err := svc.AddItem(context.Background(), 7, 42, 1)
	var nfErr *NotFoundError
	require.ErrorAs(t, err, &nfErr)
	assert.Equal(t, "product", nfErr.Resource)
}

func TestUpdateQuantity(t *testing.T) {
	st := newMemStore()
	st.addProduct(1, "Wireless Mouse", "19.99")
	svc := NewCartService(st)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, 7, 1, 2)
	require.NoError(t, err)

	cart, err := svc.UpdateQuantity(ctx, 7, 1, 9)
	require.NoError(t, err)
	assert.Equal(t, 9, cart.Items[0].Quantity)
}

func TestUpdateQuantity_ZeroRemoves(t *testing.T) {
	st := newMemStore()
	st.addProduct(1, "Wireless Mouse", "19.99")
	svc := NewCartService(st)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, 7, 1, 2)
	require.NoError(t, err)

	cart, err := svc.UpdateQuantity(ctx, 7, 1, 0)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)

	cart, err = svc.UpdateQuantity(ctx, 7, 1, -3)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
}

func TestRemoveItem_Idempotent(t *testing.T) {
	st := newMemStore()
	st.addProduct(1, "Wireless Mouse", "19.99")
	svc := NewCartService(st)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, 7, 1, 2)
	require.NoError(t, err)

	cart, err := svc.RemoveItem(ctx, 7, 1)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)

	// removing an absent item is a no-op
	cart, err = svc.RemoveItem(ctx, 7, 1)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
}

func TestGetCart_NeverFails(t *testing.T) {
	svc := NewCartService(newMemStore())

	cart, err := svc.GetCart(context.Background(), 999)
	require.NoError(t, err)
	assert.Equal(t, int64(999), cart.UserID)
	assert.Empty(t, cart.Items)
}

func TestClearCart(t *testing.T) {
	st := newMemStore()
	st.addProduct(1, "Wireless Mouse", "19.99")
	st.addProduct(2, "Notebook", "4.25")
	svc := NewCartService(st)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, 7, 1, 2)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, 7, 2, 1)
	require.NoError(t, err)

	require.NoError(t, svc.ClearCart(ctx, 7))
	cart, err := svc.GetCart(ctx, 7)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)

	// clearing an empty cart is a no-op
	require.NoError(t, svc.ClearCart(ctx, 7))
}

func TestCartQuantityAccumulation(t *testing.T) {
	st := newMemStore()
	st.addProduct(1, "Wireless Mouse", "19.99")
	svc := NewCartService(st)
	ctx := context.Background()

	adds := []int{2, 3, 1, 4}
	sum := 0
	for _, qty := range adds {
		_, err := svc.AddItem(ctx, 7, 1, qty)
		require.NoError(t, err)
		sum += qty
	}

	cart, err := svc.GetCart(ctx, 7)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, sum, cart.Items[0].Quantity)
}
