package service

import (
	"context"
	"database/sql"
	stderrors "errors"
	"log/slog"
	"slices"
	"time"

	"github.com/arnavkapoor/stitchkart-commerce/internal/errors"
	"github.com/arnavkapoor/stitchkart-commerce/internal/models"
	repository "github.com/arnavkapoor/stitchkart-commerce/internal/repositories"
	"github.com/google/uuid"
)

// cartWriteAttempts bounds the optimistic-concurrency retry loop. Concurrent
// updates to the same cart from two devices are serialized by the version
// column; losers re-read and replay.
const cartWriteAttempts = 3

type CartService interface {
	GetCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	AddItem(ctx context.Context, userID uuid.UUID, req *models.AddItemRequest) (*models.Cart, error)
	UpdateQuantity(ctx context.Context, userID uuid.UUID, req *models.UpdateQuantityRequest) (*models.Cart, error)
	RemoveItem(ctx context.Context, userID uuid.UUID, req *models.RemoveItemRequest) (*models.Cart, error)
	ClearCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	MergeGuestCart(ctx context.Context, userID uuid.UUID, items []models.GuestLineItem) (*models.Cart, error)
}

type cartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
}

func NewCartService(cartRepo repository.CartRepository, productRepo repository.ProductRepository) CartService {
	return &cartService{cartRepo: cartRepo, productRepo: productRepo}
}

func (s *cartService) GetCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	return s.loadOrCreate(ctx, userID)
}

func (s *cartService) AddItem(ctx context.Context, userID uuid.UUID, req *models.AddItemRequest) (*models.Cart, error) {
	return s.mutate(ctx, userID, func(ctx context.Context, cart *models.Cart) error {
		product, err := s.lookupProduct(ctx, req.ProductID)
		if err != nil {
			return err
		}

		key := models.LineKey{ProductID: req.ProductID, Size: req.Size, Color: req.Color}
		idx := cart.FindItemIndex(key)

		// stock check is against the cumulative line quantity, not just the
		// increment being requested
		cumulative := req.Quantity
		if idx >= 0 {
			cumulative += cart.Items[idx].Quantity
		}

		if cumulative > product.StockQuantity {
			return errors.OutOfStockError(product.ID.String(), product.StockQuantity)
		}

		if idx >= 0 {
			// the line keeps the unit price snapshotted on first add; a
			// catalog price change must not silently alter the cart total
			cart.Items[idx].Quantity = cumulative

			return nil
		}

		cart.Items = append(cart.Items, models.LineItem{
			ProductID: req.ProductID,
			Quantity:  req.Quantity,
			UnitPrice: product.Price,
			Size:      req.Size,
			Color:     req.Color,
		})

		return nil
	})
}

func (s *cartService) UpdateQuantity(ctx context.Context, userID uuid.UUID, req *models.UpdateQuantityRequest) (*models.Cart, error) {
	if req.Quantity < 1 {
		// removal is a separate, explicit operation
		return nil, errors.InvalidQuantityError("Quantity must be at least 1")
	}

	return s.mutate(ctx, userID, func(ctx context.Context, cart *models.Cart) error {
		key := models.LineKey{ProductID: req.ProductID, Size: req.Size, Color: req.Color}

		idx := cart.FindItemIndex(key)
		if idx < 0 {
			return errors.NotFoundError("Item not found in the cart")
		}

		product, err := s.lookupProduct(ctx, req.ProductID)
		if err != nil {
			return err
		}

		if req.Quantity > product.StockQuantity {
			return errors.OutOfStockError(product.ID.String(), product.StockQuantity)
		}

		cart.Items[idx].Quantity = req.Quantity

		return nil
	})
}

func (s *cartService) RemoveItem(ctx context.Context, userID uuid.UUID, req *models.RemoveItemRequest) (*models.Cart, error) {
	return s.mutate(ctx, userID, func(ctx context.Context, cart *models.Cart) error {
		key := models.LineKey{ProductID: req.ProductID, Size: req.Size, Color: req.Color}

		idx := cart.FindItemIndex(key)
		if idx < 0 {
			// removing an absent line is a no-op
			return nil
		}

		cart.Items = slices.Delete(cart.Items, idx, idx+1)

		return nil
	})
}

func (s *cartService) ClearCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	return s.mutate(ctx, userID, func(ctx context.Context, cart *models.Cart) error {
		cart.Items = nil

		return nil
	})
}

// MergeGuestCart folds an anonymous client-side cart into the user's durable
// cart at login. Lines sharing a (product, size, color) key sum their
// quantities, capped at current stock rather than failing the whole merge.
// New lines re-snapshot the price from the catalog since guest-side prices
// were taken without a server round trip. The client clears its guest cart on
// success, which is what makes a repeated merge harmless.
func (s *cartService) MergeGuestCart(ctx context.Context, userID uuid.UUID, items []models.GuestLineItem) (*models.Cart, error) {
	return s.mutate(ctx, userID, func(ctx context.Context, cart *models.Cart) error {
		for _, guest := range items {
			product, err := s.lookupProduct(ctx, guest.ProductID)
			if err != nil {
				if errors.IsCode(err, errors.ErrCodeNotFound) {
					// the product vanished from the catalog while the guest
					// cart sat in local storage; drop the line
					slog.Warn("Dropping unknown product from guest cart merge",
						slog.String("productId", guest.ProductID.String()))

					continue
				}

				return err
			}

			if product.StockQuantity < 1 {
				continue
			}

			key := models.LineKey{ProductID: guest.ProductID, Size: guest.Size, Color: guest.Color}

			if idx := cart.FindItemIndex(key); idx >= 0 {
				merged := cart.Items[idx].Quantity + guest.Quantity
				if merged > product.StockQuantity {
					merged = product.StockQuantity
				}

				cart.Items[idx].Quantity = merged

				continue
			}

			quantity := guest.Quantity
			if quantity > product.StockQuantity {
				quantity = product.StockQuantity
			}

			cart.Items = append(cart.Items, models.LineItem{
				ProductID: guest.ProductID,
				Quantity:  quantity,
				UnitPrice: product.Price,
				Size:      guest.Size,
				Color:     guest.Color,
			})
		}

		return nil
	})
}

// mutate runs a read-modify-write against the user's cart under the
// optimistic version check, replaying the mutation on conflict.
func (s *cartService) mutate(ctx context.Context, userID uuid.UUID, fn func(ctx context.Context, cart *models.Cart) error) (*models.Cart, error) {
	for attempt := 0; attempt < cartWriteAttempts; attempt++ {
		cart, err := s.loadOrCreate(ctx, userID)
		if err != nil {
			return nil, err
		}

		if err := fn(ctx, cart); err != nil {
			return nil, err
		}

		err = s.cartRepo.UpdateCart(ctx, cart)
		if err == nil {
			return cart, nil
		}

		if !stderrors.Is(err, repository.ErrVersionConflict) {
			return nil, errors.DatabaseError("Failed to update cart").WithError(err)
		}
	}

	return nil, errors.ConflictError("Cart was modified concurrently, please retry")
}

func (s *cartService) loadOrCreate(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	cart, err := s.cartRepo.GetCartByUserID(ctx, userID)
	if err == nil {
		return cart, nil
	}

	if !stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.DatabaseError("Failed to fetch cart").WithError(err)
	}

	cart = &models.Cart{
		ID:        uuid.New(),
		UserID:    userID,
		Items:     nil,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	if err := s.cartRepo.CreateCart(ctx, cart); err != nil {
		return nil, errors.DatabaseError("Failed to create cart").WithError(err)
	}

	return cart, nil
}

func (s *cartService) lookupProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := s.productRepo.GetProductByID(ctx, id)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NotFoundError("Product not found: " + id.String()).WithError(err)
		}

		return nil, errors.DatabaseError("Failed to fetch product").WithError(err)
	}

	return product, nil
}
