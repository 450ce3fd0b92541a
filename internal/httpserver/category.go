package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/shirin_shop/internal/service"
	"github.com/Skotchmaster/shirin_shop/internal/transport"
	"github.com/Skotchmaster/shirin_shop/pkg/logging"
)

type CatalogHTTP struct {
	Svc *service.CatalogService
}

func (h *CatalogHTTP) GetCategories(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "category.get_categories")

	items, err := h.Svc.ListCategories(ctx)
	if err != nil {
		l.Error("get_categories_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot list categories")
	}
	return c.JSON(http.StatusOK, items)
}

func (h *CatalogHTTP) CreateCategory(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "create_category")

	var req transport.CategoryInput
	if err := bindValid(c, l, "category_create_error", &req); err != nil {
		return err
	}

	cat, err := h.Svc.CreateCategory(ctx, req)
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			l.Warn("category_create_error", "status", 400, "error", err)
			return echo.NewHTTPError(http.StatusBadRequest, reason(err, service.ErrValidation))
		}
		l.Error("category_create_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot create category")
	}

	l.Info("create_category_success", "category_id", cat.ID)
	return c.JSON(http.StatusOK, cat)
}

func (h *CatalogHTTP) UpdateCategory(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "update_category")

	id, err := parseID(c)
	if err != nil {
		l.Warn("category_update_error", "status", 400, "reason", "bad id", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	var req transport.CategoryInput
	if err := bindValid(c, l, "category_update_error", &req); err != nil {
		return err
	}

	cat, err := h.Svc.UpdateCategory(ctx, id, req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			l.Warn("category_update_error", "status", 404, "category_id", id)
			return echo.NewHTTPError(http.StatusNotFound, "Category not found")
		case errors.Is(err, service.ErrValidation):
			l.Warn("category_update_error", "status", 400, "error", err)
			return echo.NewHTTPError(http.StatusBadRequest, reason(err, service.ErrValidation))
		}
		l.Error("category_update_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot update category")
	}

	l.Info("update_category_success", "category_id", cat.ID)
	return c.JSON(http.StatusOK, cat)
}

func (h *CatalogHTTP) DeleteCategory(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "delete_category")

	id, err := parseID(c)
	if err != nil {
		l.Warn("category_delete_error", "status", 400, "reason", "bad id", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.Svc.DeleteCategory(ctx, id); err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			l.Warn("category_delete_error", "status", 404, "category_id", id)
			return echo.NewHTTPError(http.StatusNotFound, "Category not found")
		case errors.Is(err, service.ErrConflict):
			l.Warn("category_delete_error", "status", 400, "reason", "category in use", "category_id", id)
			return echo.NewHTTPError(http.StatusBadRequest, "Category has products")
		}
		l.Error("category_delete_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot delete category")
	}

	l.Info("delete_category_success", "category_id", id)
	return c.JSON(http.StatusOK, transport.MessageResponse{Message: "Category deleted successfully"})
}
