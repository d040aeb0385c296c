package httpserver

import (
	"github.com/labstack/echo/v4"

	middleware "github.com/Skotchmaster/brewhaven/pkg/middleware/auth"
	"github.com/Skotchmaster/brewhaven/pkg/middleware/csrf"
)

type Deps struct {
	AuthHandler    *AuthHTTP
	CatalogHandler *CatalogHTTP
	BasketHandler  *BasketHTTP
	OrderHandler   *OrderHTTP
	HealthHandler  *HealthHTTP
	Resolver       middleware.Resolver
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health", d.HealthHandler.Health)
	e.GET("/health/live", d.HealthHandler.Live)
	e.GET("/health/ready", d.HealthHandler.Ready)

	e.POST("/auth/login", d.AuthHandler.Login)

	authMW := middleware.NewSimpleAuth(d.Resolver)
	csrfMW := csrf.Middleware(csrf.DefaultConfig())

	api := e.Group("/api/v1")
	api.GET("/products", d.CatalogHandler.ListProducts)
	api.GET("/products/:id", d.CatalogHandler.GetProduct)
	api.GET("/search", d.CatalogHandler.Search)
	api.GET("/categories", d.CatalogHandler.ListCategories)

	cart := api.Group("/cart")
	cart.Use(authMW.RequireAuth, csrfMW)
	cart.GET("", d.BasketHandler.GetCart)
	cart.POST("/items", d.BasketHandler.UpsertItem)
	cart.DELETE("/items/:id", d.BasketHandler.RemoveItem)

	orders := api.Group("/orders")
	orders.Use(authMW.RequireAuth, csrfMW)
	orders.POST("", d.OrderHandler.PlaceOrder)
	orders.GET("", d.OrderHandler.ListOrders)
	orders.GET("/:id", d.OrderHandler.GetOrder)
}
