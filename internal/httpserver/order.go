package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/brewhaven/internal/logging"
	"github.com/Skotchmaster/brewhaven/internal/service"
	"github.com/Skotchmaster/brewhaven/internal/transport"
)

type OrderHTTP struct {
	Svc *service.OrderService
}

func (h *OrderHTTP) PlaceOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "place.order")

	uid, err := userID(c)
	if err != nil {
		return respondError(c, l, "place_order_error", err)
	}

	order, err := h.Svc.PlaceOrder(ctx, uid)
	if err != nil {
		return respondError(c, l, "place_order_error", err)
	}
	return c.JSON(http.StatusCreated, order)
}

func (h *OrderHTTP) ListOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "list.orders")

	uid, err := userID(c)
	if err != nil {
		return respondError(c, l, "list_orders_error", err)
	}

	orders, err := h.Svc.ListOrders(ctx, uid)
	if err != nil {
		return respondError(c, l, "list_orders_error", err)
	}
	return c.JSON(http.StatusOK, transport.OrdersResponse{Orders: orders, Count: len(orders)})
}

func (h *OrderHTTP) GetOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "get.order")

	uid, err := userID(c)
	if err != nil {
		return respondError(c, l, "get_order_error", err)
	}

	order, err := h.Svc.GetOrder(ctx, uid, c.Param("id"))
	if err != nil {
		return respondError(c, l, "get_order_error", err)
	}
	return c.JSON(http.StatusOK, order)
}
