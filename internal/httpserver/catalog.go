package httpserver

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/brewhaven/internal/logging"
	"github.com/Skotchmaster/brewhaven/internal/service"
	"github.com/Skotchmaster/brewhaven/internal/transport"
)

type CatalogHTTP struct {
	Svc *service.CatalogService
}

func (h *CatalogHTTP) ListProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "list.products")

	items, err := h.Svc.ListProducts(ctx, c.QueryParam("category"))
	if err != nil {
		return respondError(c, l, "list_products_error", err)
	}
	return c.JSON(http.StatusOK, transport.ProductsResponse{Items: items, Count: len(items)})
}

func (h *CatalogHTTP) GetProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "get.product")

	item, err := h.Svc.GetProduct(ctx, c.Param("id"))
	if err != nil {
		return respondError(c, l, "get_product_error", err)
	}
	return c.JSON(http.StatusOK, item)
}

func (h *CatalogHTTP) ListCategories(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "list.categories")

	cats, err := h.Svc.ListCategories(ctx)
	if err != nil {
		return respondError(c, l, "list_categories_error", err)
	}
	return c.JSON(http.StatusOK, transport.CategoriesResponse{Categories: cats})
}

func (h *CatalogHTTP) Search(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "search.products")

	page, err := intQuery(c, "page", 1)
	if err != nil {
		return badRequest(c, l, "search_error", "page must be a number", err)
	}
	size, err := intQuery(c, "size", 0)
	if err != nil {
		return badRequest(c, l, "search_error", "size must be a number", err)
	}

	res, err := h.Svc.Search(ctx, c.QueryParam("q"), page, size)
	if err != nil {
		return respondError(c, l, "search_error", err)
	}
	l.Info("search_done", "query", res.Query, "source", res.Source, "total", res.Total)
	return c.JSON(http.StatusOK, res)
}

func intQuery(c echo.Context, name string, def int) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
