package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"

	"gorm.io/gorm"

	"github.com/Skotchmaster/shirin_shop/internal/models"
	"github.com/Skotchmaster/shirin_shop/internal/repo"
	"github.com/Skotchmaster/shirin_shop/pkg/logging"
	"github.com/Skotchmaster/shirin_shop/pkg/metrics"
)

type CartService struct {
	Repo    *repo.GormRepo
	Events  EventPublisher
	Metrics *metrics.Metrics
}

// CartView is a cart priced at read time. Lines whose product no longer
// exists are left out of Items and Total and listed in Unavailable.
type CartView struct {
	Items       []models.CartItem `json:"items"`
	Total       float64           `json:"total"`
	Unavailable []uint            `json:"unavailable"`
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

func (s *CartService) View(ctx context.Context, userID uint) (*CartView, error) {
	items, err := s.Repo.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	view := &CartView{
		Items:       make([]models.CartItem, 0, len(items)),
		Unavailable: make([]uint, 0),
	}
	var total float64
	for _, it := range items {
		if it.Product == nil {
			view.Unavailable = append(view.Unavailable, it.ID)
			continue
		}
		total += it.Product.Price * float64(it.Quantity)
		view.Items = append(view.Items, it)
	}
	view.Total = roundCents(total)

	if len(view.Unavailable) > 0 {
		logging.FromContext(ctx).Warn("cart_view", "status", "partial", "reason", "product missing", "item_ids", view.Unavailable)
	}
	return view, nil
}

func (s *CartService) Add(ctx context.Context, userID, productID uint, quantity int) (item *models.CartItem, err error) {
	defer func() { s.Metrics.ObserveCart("add", err) }()

	if productID == 0 {
		return nil, fmt.Errorf("product_id is required: %w", ErrValidation)
	}
	if quantity <= 0 {
		return nil, fmt.Errorf("quantity must be more than zero: %w", ErrValidation)
	}

	item = &models.CartItem{UserID: userID, ProductID: productID, Quantity: quantity}
	if err := s.Repo.AddToCart(ctx, item); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}

	publish(ctx, s.Events, s.Metrics, TopicCartEvents, userKey(userID), "cart_item_added", map[string]any{
		"user_id":    userID,
		"product_id": productID,
		"added":      quantity,
		"quantity":   item.Quantity,
	})
	return item, nil
}

// SetQuantity reports removed=true when quantity <= 0 deleted the line.
func (s *CartService) SetQuantity(ctx context.Context, userID, itemID uint, quantity int) (removed bool, err error) {
	defer func() { s.Metrics.ObserveCart("set_quantity", err) }()

	removed, err = s.Repo.SetCartQuantity(ctx, userID, itemID, quantity)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, fmt.Errorf("cart item not found: %w", ErrNotFound)
		}
		return false, err
	}

	typ := "cart_item_updated"
	if removed {
		typ = "cart_item_removed"
	}
	publish(ctx, s.Events, s.Metrics, TopicCartEvents, userKey(userID), typ, map[string]any{
		"user_id":  userID,
		"item_id":  itemID,
		"quantity": max(quantity, 0),
	})
	return removed, nil
}

func (s *CartService) Remove(ctx context.Context, userID, itemID uint) (err error) {
	defer func() { s.Metrics.ObserveCart("remove", err) }()

	if err := s.Repo.RemoveCartItem(ctx, userID, itemID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("cart item not found: %w", ErrNotFound)
		}
		return err
	}
	publish(ctx, s.Events, s.Metrics, TopicCartEvents, userKey(userID), "cart_item_removed", map[string]any{
		"user_id": userID,
		"item_id": itemID,
	})
	return nil
}

// Clear empties the cart. An already empty cart is not an error.
func (s *CartService) Clear(ctx context.Context, userID uint) (n int64, err error) {
	defer func() { s.Metrics.ObserveCart("clear", err) }()

	n, err = s.Repo.ClearCart(ctx, userID)
	if err != nil {
		return 0, err
	}
	publish(ctx, s.Events, s.Metrics, TopicCartEvents, userKey(userID), "cart_cleared", map[string]any{
		"user_id": userID,
		"removed": n,
	})
	return n, nil
}

func userKey(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
