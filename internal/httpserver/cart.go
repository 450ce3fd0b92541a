package httpserver

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/shirin_shop/internal/middleware/auth"
	"github.com/Skotchmaster/shirin_shop/internal/service"
	"github.com/Skotchmaster/shirin_shop/internal/transport"
	"github.com/Skotchmaster/shirin_shop/pkg/logging"
)

type CartHTTP struct {
	Svc *service.CartService
}

func userID(c echo.Context) (uint, error) {
	u, ok := auth.CurrentUser(c)
	if !ok {
		return 0, echo.NewHTTPError(http.StatusUnauthorized, "Could not validate credentials")
	}
	return u.ID, nil
}

func (h *CartHTTP) GetCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "get.cart")

	uid, err := userID(c)
	if err != nil {
		return err
	}

	view, err := h.Svc.View(ctx, uid)
	if err != nil {
		l.Error("get_cart_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, view)
}

func (h *CartHTTP) AddToCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "add.cart")

	uid, err := userID(c)
	if err != nil {
		return err
	}

	var req transport.AddToCartRequest
	if err := bindValid(c, l, "add_to_cart_error", &req); err != nil {
		return err
	}

	item, err := h.Svc.Add(ctx, uid, req.ProductID, req.Quantity)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			l.Warn("add_to_cart_error", "status", 400, "error", err)
			return echo.NewHTTPError(http.StatusBadRequest, reason(err, service.ErrValidation))
		case errors.Is(err, service.ErrNotFound):
			l.Warn("add_to_cart_error", "status", 404, "product_id", req.ProductID)
			return echo.NewHTTPError(http.StatusNotFound, "Product not found")
		}
		l.Error("add_to_cart_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	l.Info("add_to_cart_success", "item_id", item.ID, "quantity", item.Quantity)
	return c.JSON(http.StatusOK, item)
}

// quantityFrom reads the quantity query parameter, falling back to a JSON body.
func quantityFrom(c echo.Context) (int, error) {
	if raw := c.QueryParam("quantity"); raw != "" {
		q, err := strconv.Atoi(raw)
		if err != nil {
			return 0, errors.New("quantity must be an integer")
		}
		return q, nil
	}
	var req transport.SetQuantityRequest
	if err := c.Bind(&req); err != nil {
		return 0, errors.New("invalid body")
	}
	if req.Quantity == nil {
		return 0, errors.New("quantity is required")
	}
	return *req.Quantity, nil
}

func (h *CartHTTP) UpdateCartItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "update.cart.item")

	uid, err := userID(c)
	if err != nil {
		return err
	}
	itemID, err := parseID(c)
	if err != nil {
		l.Warn("update_cart_item_error", "status", 400, "reason", "bad id", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	quantity, err := quantityFrom(c)
	if err != nil {
		l.Warn("update_cart_item_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	removed, err := h.Svc.SetQuantity(ctx, uid, itemID, quantity)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			l.Warn("update_cart_item_error", "status", 404, "item_id", itemID)
			return echo.NewHTTPError(http.StatusNotFound, "Cart item not found")
		}
		l.Error("update_cart_item_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	l.Info("update_cart_item_success", "item_id", itemID, "removed", removed)
	return c.JSON(http.StatusOK, transport.MessageResponse{Message: "Cart updated successfully"})
}

func (h *CartHTTP) RemoveCartItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "delete.one.from.cart")

	uid, err := userID(c)
	if err != nil {
		return err
	}
	itemID, err := parseID(c)
	if err != nil {
		l.Warn("delete_one_from_cart_error", "status", 400, "reason", "bad id", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.Svc.Remove(ctx, uid, itemID); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			l.Warn("delete_one_from_cart_not_found", "status", 404, "item_id", itemID)
			return echo.NewHTTPError(http.StatusNotFound, "Cart item not found")
		}
		l.Error("delete_one_from_cart_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	l.Info("delete_one_from_cart_success", "item_id", itemID)
	return c.JSON(http.StatusOK, transport.MessageResponse{Message: "Item removed from cart"})
}

func (h *CartHTTP) ClearCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "delete.all.from.cart")

	uid, err := userID(c)
	if err != nil {
		return err
	}

	n, err := h.Svc.Clear(ctx, uid)
	if err != nil {
		l.Error("delete_all_from_cart_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	l.Info("cart successfully cleared", "removed", n)
	return c.JSON(http.StatusOK, transport.MessageResponse{Message: "Cart cleared successfully"})
}
