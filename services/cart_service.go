package services

import (
	"context"
	"time"

	"storefront/models"
	"storefront/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CartStorage is the persisted-cart surface CartService needs from Redis.
type CartStorage interface {
	GetCart(ctx context.Context, userID string) (*models.Cart, error)
	SaveCart(ctx context.Context, cart *models.Cart) error
	DeleteCart(ctx context.Context, userID string) error
	TryAcquireMergeFence(ctx context.Context, userID string, ttl time.Duration) (bool, error)
	ReleaseMergeFence(ctx context.Context, userID string) error
}

// CartStore is one logical cart: persisted and keyed by identity for
// signed-in users, held in the request for guests. CartService applies the
// same mutations to both.
type CartStore interface {
	Load(ctx context.Context) (*models.Cart, error)
	Save(ctx context.Context, cart *models.Cart) error
	Clear(ctx context.Context) error
}

// userCartStore persists the cart under the user's key.
type userCartStore struct {
	storage CartStorage
	userID  string
}

func (s *userCartStore) Load(ctx context.Context) (*models.Cart, error) {
	cart, err := s.storage.GetCart(ctx, s.userID)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		cart = &models.Cart{Owner: s.userID, Items: []models.CartItem{}}
	}
	return cart, nil
}

func (s *userCartStore) Save(ctx context.Context, cart *models.Cart) error {
	cart.Owner = s.userID
	return s.storage.SaveCart(ctx, cart)
}

func (s *userCartStore) Clear(ctx context.Context) error {
	return s.storage.DeleteCart(ctx, s.userID)
}

// guestCartStore holds the cart the client sent with the request; the mutated
// cart travels back in the response and the client keeps it.
type guestCartStore struct {
	cart *models.Cart
}

func (s *guestCartStore) Load(context.Context) (*models.Cart, error) {
	if s.cart == nil {
		s.cart = &models.Cart{Owner: models.GuestOwner, Items: []models.CartItem{}}
	}
	return s.cart, nil
}

func (s *guestCartStore) Save(_ context.Context, cart *models.Cart) error {
	s.cart = cart
	return nil
}

func (s *guestCartStore) Clear(context.Context) error {
	s.cart = &models.Cart{Owner: models.GuestOwner, Items: []models.CartItem{}}
	return nil
}

// CartService applies cart mutations identically to guest and user carts and
// prices cart views at read time.
type CartService struct {
	storage       CartStorage
	variants      repository.VariantRepository
	mergeFenceTTL time.Duration
	logger        *zap.Logger
}

func NewCartService(storage CartStorage, variants repository.VariantRepository, mergeFenceTTL time.Duration, logger *zap.Logger) *CartService {
	return &CartService{
		storage:       storage,
		variants:      variants,
		mergeFenceTTL: mergeFenceTTL,
		logger:        logger,
	}
}

// StoreFor selects the cart implementation by caller identity: persisted for
// signed-in users, request-local for guests.
func (s *CartService) StoreFor(userID string, guestItems []models.CartItem) CartStore {
	if userID != "" {
		return &userCartStore{storage: s.storage, userID: userID}
	}
	return &guestCartStore{cart: &models.Cart{Owner: models.GuestOwner, Items: guestItems}}
}

// AddItem inserts a new entry or sums quantities when the variant is already
// in the cart.
func (s *CartService) AddItem(ctx context.Context, store CartStore, item models.CartItem) (*models.Cart, *ServiceError) {
	if item.Quantity <= 0 {
		return nil, validationError("Quantity must be positive")
	}
	if item.VariantID == uuid.Nil {
		return nil, validationError("Variant is required")
	}
	if _, err := s.variants.FindByID(ctx, item.VariantID); err != nil {
		return nil, validationError("Variant not found")
	}

	cart, err := store.Load(ctx)
	if err != nil {
		s.logger.Error("Failed to load cart", zap.Error(err))
		return nil, internalError("Failed to load cart")
	}

	if i := cart.FindItem(item.VariantID); i >= 0 {
		cart.Items[i].Quantity += item.Quantity
	} else {
		cart.Items = append(cart.Items, item)
	}

	if err := store.Save(ctx, cart); err != nil {
		s.logger.Error("Failed to save cart", zap.Error(err))
		return nil, internalError("Failed to save cart")
	}
	return cart, nil
}

// SetQuantity replaces an entry's quantity. A quantity of zero or less
// removes the entry.
func (s *CartService) SetQuantity(ctx context.Context, store CartStore, variantID uuid.UUID, quantity int) (*models.Cart, *ServiceError) {
	if quantity <= 0 {
		return s.RemoveItem(ctx, store, variantID)
	}

	cart, err := store.Load(ctx)
	if err != nil {
		s.logger.Error("Failed to load cart", zap.Error(err))
		return nil, internalError("Failed to load cart")
	}

	i := cart.FindItem(variantID)
	if i < 0 {
		return nil, validationError("Item not in cart")
	}
	cart.Items[i].Quantity = quantity

	if err := store.Save(ctx, cart); err != nil {
		s.logger.Error("Failed to save cart", zap.Error(err))
		return nil, internalError("Failed to save cart")
	}
	return cart, nil
}

// RemoveItem deletes the entry for a variant, if present.
func (s *CartService) RemoveItem(ctx context.Context, store CartStore, variantID uuid.UUID) (*models.Cart, *ServiceError) {
	cart, err := store.Load(ctx)
	if err != nil {
		s.logger.Error("Failed to load cart", zap.Error(err))
		return nil, internalError("Failed to load cart")
	}

	kept := cart.Items[:0]
	for _, item := range cart.Items {
		if item.VariantID != variantID {
			kept = append(kept, item)
		}
	}
	cart.Items = kept

	if err := store.Save(ctx, cart); err != nil {
		s.logger.Error("Failed to save cart", zap.Error(err))
		return nil, internalError("Failed to save cart")
	}
	return cart, nil
}

// Clear empties the cart. Explicit user action only; order placement does not
// call this unless the clear-after-order policy is enabled.
func (s *CartService) Clear(ctx context.Context, store CartStore) *ServiceError {
	if err := store.Clear(ctx); err != nil {
		s.logger.Error("Failed to clear cart", zap.Error(err))
		return internalError("Failed to clear cart")
	}
	return nil
}

// View prices the cart at the variants' current effective prices. Lines whose
// variant has vanished from the catalog are dropped from the view.
func (s *CartService) View(ctx context.Context, store CartStore) (*models.CartView, *ServiceError) {
	cart, err := store.Load(ctx)
	if err != nil {
		s.logger.Error("Failed to load cart", zap.Error(err))
		return nil, internalError("Failed to load cart")
	}

	view := &models.CartView{Owner: cart.Owner, Lines: []models.CartLine{}}
	for _, item := range cart.Items {
		variant, err := s.variants.FindByID(ctx, item.VariantID)
		if err != nil {
			s.logger.Warn("Cart references missing variant",
				zap.String("variant_id", item.VariantID.String()))
			continue
		}
		unit := variant.EffectivePrice()
		view.Lines = append(view.Lines, models.CartLine{
			CartItem:    item,
			ProductName: variant.ProductName,
			Size:        variant.Size,
			Color:       variant.Color,
			UnitPrice:   unit,
			LineTotal:   unit * float64(item.Quantity),
			InStock:     variant.StockQuantity >= item.Quantity,
		})
		view.Subtotal += unit * float64(item.Quantity)
	}
	return view, nil
}

// MergeGuestCart folds a guest cart into the user's persisted cart on
// sign-in: matching variants sum quantities, the rest are inserted. The fence
// makes a duplicated trigger a no-op, so quantities cannot double.
func (s *CartService) MergeGuestCart(ctx context.Context, userID string, guestItems []models.CartItem) (*models.Cart, *ServiceError) {
	if userID == "" {
		return nil, validationError("User is required for cart merge")
	}

	acquired, err := s.storage.TryAcquireMergeFence(ctx, userID, s.mergeFenceTTL)
	if err != nil {
		s.logger.Error("Failed to check merge fence", zap.Error(err))
		return nil, internalError("Failed to merge cart")
	}

	store := &userCartStore{storage: s.storage, userID: userID}
	cart, loadErr := store.Load(ctx)
	if loadErr != nil {
		s.logger.Error("Failed to load cart", zap.Error(loadErr))
		if acquired {
			s.releaseMergeFence(ctx, userID)
		}
		return nil, internalError("Failed to merge cart")
	}

	if !acquired {
		// Merge already ran for this session; return the cart as-is.
		return cart, nil
	}

	for _, item := range guestItems {
		if item.Quantity <= 0 || item.VariantID == uuid.Nil {
			continue
		}
		if i := cart.FindItem(item.VariantID); i >= 0 {
			cart.Items[i].Quantity += item.Quantity
		} else {
			cart.Items = append(cart.Items, item)
		}
	}

	if err := store.Save(ctx, cart); err != nil {
		s.logger.Error("Failed to save merged cart", zap.Error(err))
		// Re-arm the fence so the client's retry can merge the guest items.
		s.releaseMergeFence(ctx, userID)
		return nil, internalError("Failed to merge cart")
	}

	s.logger.Info("Guest cart merged",
		zap.String("user_id", userID),
		zap.Int("guest_items", len(guestItems)))
	return cart, nil
}

func (s *CartService) releaseMergeFence(ctx context.Context, userID string) {
	if err := s.storage.ReleaseMergeFence(ctx, userID); err != nil {
		s.logger.Error("Failed to release merge fence",
			zap.String("user_id", userID),
			zap.Error(err))
	}
}
