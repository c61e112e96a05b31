package services_test

import (
	"context"
	"testing"
	"time"

	"storefront/models"
	"storefront/services"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func newCartFixture() (*services.CartService, *mockCartStorage, *mockVariantRepo) {
	storage := newMockCartStorage()
	variants := newMockVariantRepo()
	svc := services.NewCartService(storage, variants, time.Hour, zap.NewNop())
	return svc, storage, variants
}

func TestCartService_AddItem_SumsQuantities(t *testing.T) {
	svc, _, variants := newCartFixture()
	variant := &models.Variant{ProductName: "Linen Shirt", Price: 500, StockQuantity: 10}
	variants.add(variant)

	userID := uuid.NewString()
	store := svc.StoreFor(userID, nil)

	cart, svcErr := svc.AddItem(context.Background(), store, models.CartItem{VariantID: variant.ID, Quantity: 2})
	assert.Nil(t, svcErr)
	assert.Len(t, cart.Items, 1)

	cart, svcErr = svc.AddItem(context.Background(), store, models.CartItem{VariantID: variant.ID, Quantity: 3})
	assert.Nil(t, svcErr)
	assert.Len(t, cart.Items, 1)
	assert.Equal(t, 5, cart.Items[0].Quantity)
}

func TestCartService_AddItem_UnknownVariant(t *testing.T) {
	svc, _, _ := newCartFixture()
	store := svc.StoreFor(uuid.NewString(), nil)

	_, svcErr := svc.AddItem(context.Background(), store, models.CartItem{VariantID: uuid.New(), Quantity: 1})
	assert.NotNil(t, svcErr)
	assert.Equal(t, services.KindValidation, svcErr.Kind)
}

func TestCartService_SetQuantity_ZeroRemovesItem(t *testing.T) {
	svc, _, variants := newCartFixture()
	variant := &models.Variant{ProductName: "Linen Shirt", Price: 500, StockQuantity: 10}
	variants.add(variant)

	store := svc.StoreFor(uuid.NewString(), nil)
	_, svcErr := svc.AddItem(context.Background(), store, models.CartItem{VariantID: variant.ID, Quantity: 2})
	assert.Nil(t, svcErr)

	cart, svcErr := svc.SetQuantity(context.Background(), store, variant.ID, 0)
	assert.Nil(t, svcErr)
	assert.Empty(t, cart.Items)
}

func TestCartService_SetQuantity_MissingItem(t *testing.T) {
	svc, _, _ := newCartFixture()
	store := svc.StoreFor(uuid.NewString(), nil)

	_, svcErr := svc.SetQuantity(context.Background(), store, uuid.New(), 2)
	assert.NotNil(t, svcErr)
	assert.Equal(t, services.KindValidation, svcErr.Kind)
}

func TestCartService_GuestCartIsRequestLocal(t *testing.T) {
	svc, storage, variants := newCartFixture()
	variant := &models.Variant{ProductName: "Linen Shirt", Price: 500, StockQuantity: 10}
	variants.add(variant)

	store := svc.StoreFor("", []models.CartItem{{VariantID: variant.ID, Quantity: 1}})
	cart, svcErr := svc.AddItem(context.Background(), store, models.CartItem{VariantID: variant.ID, Quantity: 1})

	assert.Nil(t, svcErr)
	assert.Equal(t, 2, cart.Items[0].Quantity)
	// Nothing persisted for guests.
	assert.Empty(t, storage.carts)
}

func TestCartService_View_PricesAtCurrentEffectivePrice(t *testing.T) {
	svc, _, variants := newCartFixture()
	discount := 400.0
	variant := &models.Variant{ProductName: "Linen Shirt", Price: 500, DiscountPrice: &discount, StockQuantity: 1}
	variants.add(variant)

	store := svc.StoreFor("", []models.CartItem{{VariantID: variant.ID, Quantity: 2}})
	view, svcErr := svc.View(context.Background(), store)

	assert.Nil(t, svcErr)
	assert.Len(t, view.Lines, 1)
	assert.Equal(t, 400.0, view.Lines[0].UnitPrice)
	assert.Equal(t, 800.0, view.Subtotal)
	assert.False(t, view.Lines[0].InStock)
}

func TestCartService_View_DropsVanishedVariants(t *testing.T) {
	svc, _, variants := newCartFixture()
	variant := &models.Variant{ProductName: "Linen Shirt", Price: 500, StockQuantity: 5}
	variants.add(variant)

	store := svc.StoreFor("", []models.CartItem{
		{VariantID: variant.ID, Quantity: 1},
		{VariantID: uuid.New(), Quantity: 1},
	})
	view, svcErr := svc.View(context.Background(), store)

	assert.Nil(t, svcErr)
	assert.Len(t, view.Lines, 1)
	assert.Equal(t, 500.0, view.Subtotal)
}

func TestCartService_MergeGuestCart_SumsQuantities(t *testing.T) {
	svc, storage, variants := newCartFixture()
	variant := &models.Variant{ProductName: "Linen Shirt", Price: 500, StockQuantity: 10}
	variants.add(variant)

	userID := uuid.NewString()
	_ = storage.SaveCart(context.Background(), &models.Cart{
		Owner: userID,
		Items: []models.CartItem{{VariantID: variant.ID, Quantity: 1}},
	})

	cart, svcErr := svc.MergeGuestCart(context.Background(), userID, []models.CartItem{
		{VariantID: variant.ID, Quantity: 2},
	})

	assert.Nil(t, svcErr)
	assert.Len(t, cart.Items, 1)
	assert.Equal(t, 3, cart.Items[0].Quantity)
}

func TestCartService_MergeGuestCart_SecondTriggerIsNoOp(t *testing.T) {
	svc, _, variants := newCartFixture()
	variant := &models.Variant{ProductName: "Linen Shirt", Price: 500, StockQuantity: 10}
	variants.add(variant)

	userID := uuid.NewString()
	guestItems := []models.CartItem{{VariantID: variant.ID, Quantity: 2}}

	first, svcErr := svc.MergeGuestCart(context.Background(), userID, guestItems)
	assert.Nil(t, svcErr)
	assert.Equal(t, 2, first.Items[0].Quantity)

	// A duplicated trigger for the same session must not double quantities.
	second, svcErr := svc.MergeGuestCart(context.Background(), userID, guestItems)
	assert.Nil(t, svcErr)
	assert.Equal(t, 2, second.Items[0].Quantity)
}

func TestCartService_MergeGuestCart_RetryAfterSaveFailure(t *testing.T) {
	svc, storage, variants := newCartFixture()
	variant := &models.Variant{ProductName: "Linen Shirt", Price: 500, StockQuantity: 10}
	variants.add(variant)

	userID := uuid.NewString()
	guestItems := []models.CartItem{{VariantID: variant.ID, Quantity: 2}}

	storage.saveFailures = 1
	_, svcErr := svc.MergeGuestCart(context.Background(), userID, guestItems)
	assert.NotNil(t, svcErr)

	// A failed merge must not burn the fence; the retry still merges.
	cart, svcErr := svc.MergeGuestCart(context.Background(), userID, guestItems)
	assert.Nil(t, svcErr)
	assert.Len(t, cart.Items, 1)
	assert.Equal(t, 2, cart.Items[0].Quantity)
}

func TestCartService_MergeGuestCart_RequiresUser(t *testing.T) {
	svc, _, _ := newCartFixture()

	_, svcErr := svc.MergeGuestCart(context.Background(), "", nil)
	assert.NotNil(t, svcErr)
	assert.Equal(t, services.KindValidation, svcErr.Kind)
}
