package httpserver

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/brewhaven/internal/logging"
	"github.com/Skotchmaster/brewhaven/internal/service"
	"github.com/Skotchmaster/brewhaven/internal/transport"
	middleware "github.com/Skotchmaster/brewhaven/pkg/middleware/auth"
)

type BasketHTTP struct {
	Svc *service.BasketService
}

func userID(c echo.Context) (string, error) {
	id := middleware.UserID(c)
	if id == "" {
		return "", fmt.Errorf("%w: no user in request", service.ErrUnauthorized)
	}
	return id, nil
}

func (h *BasketHTTP) GetCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "get.cart")

	uid, err := userID(c)
	if err != nil {
		return respondError(c, l, "get_cart_error", err)
	}

	b, err := h.Svc.GetBasket(ctx, uid)
	if err != nil {
		return respondError(c, l, "get_cart_error", err)
	}
	return c.JSON(http.StatusOK, transport.NewBasketView(b))
}

func (h *BasketHTTP) UpsertItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "upsert.cart_item")

	uid, err := userID(c)
	if err != nil {
		return respondError(c, l, "upsert_cart_item_error", err)
	}

	var req transport.UpsertItemRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, l, "upsert_cart_item_error", "invalid body", err)
	}
	req.ProductID = strings.TrimSpace(req.ProductID)
	if req.ProductID == "" || req.Quantity == nil {
		return badRequest(c, l, "upsert_cart_item_error", "product_id and quantity required",
			errors.New("missing product_id or quantity"))
	}

	b, err := h.Svc.UpsertItem(ctx, uid, req.ProductID, *req.Quantity)
	if err != nil {
		return respondError(c, l, "upsert_cart_item_error", err)
	}

	l.Info("cart_item_saved", "user_id", uid, "product_id", req.ProductID, "quantity", *req.Quantity)
	return c.JSON(http.StatusOK, transport.BasketResponse{
		Message: "Saved successfully",
		Cart:    transport.NewBasketView(b),
	})
}

func (h *BasketHTTP) RemoveItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "remove.cart_item")

	uid, err := userID(c)
	if err != nil {
		return respondError(c, l, "remove_cart_item_error", err)
	}

	id := c.Param("id")
	b, err := h.Svc.RemoveItem(ctx, uid, id)
	if err != nil {
		return respondError(c, l, "remove_cart_item_error", err)
	}

	l.Info("cart_item_removed", "user_id", uid, "product_id", id)
	return c.JSON(http.StatusOK, transport.BasketResponse{
		Message: "Removed successfully",
		Cart:    transport.NewBasketView(b),
	})
}
