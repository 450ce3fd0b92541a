package httpserver

import (
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/Skotchmaster/shirin_shop/internal/middleware/auth"
	"github.com/Skotchmaster/shirin_shop/pkg/metrics"
	loggingmw "github.com/Skotchmaster/shirin_shop/pkg/middleware/logging"
	"github.com/Skotchmaster/shirin_shop/pkg/middleware/ratelimit"
	"github.com/Skotchmaster/shirin_shop/pkg/validation"
)

type Deps struct {
	AuthHandler    *AuthHTTP
	CatalogHandler *CatalogHTTP
	CartHandler    *CartHTTP
	HealthHandler  *HealthHTTP

	Guard        *auth.Guard
	LoginLimiter *ratelimit.Limiter
	Metrics      *metrics.Metrics
}

// NewEcho returns an echo instance with the shared middleware chain installed.
func NewEcho(base *slog.Logger, m *metrics.Metrics, corsOrigins []string) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validation.New()

	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.RequestID())
	e.Use(loggingmw.RequestLogger(base))
	if m != nil {
		e.Use(m.Middleware())
	}
	e.Use(middleware.Recover())
	if len(corsOrigins) == 0 {
		corsOrigins = []string{"*"}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: corsOrigins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	return e
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", d.HealthHandler.Live)
	e.GET("/health/ready", d.HealthHandler.Ready)
	if d.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(d.Metrics.Handler()))
	}

	authGroup := e.Group("/auth")
	authGroup.POST("/register", d.AuthHandler.Register)
	authGroup.POST("/login", d.AuthHandler.Login, d.LoginLimiter.Middleware(ratelimit.KeyByIP("login")))
	authGroup.GET("/me", d.AuthHandler.Me, d.Guard.RequireAuth)

	categories := e.Group("/categories")
	categories.GET("", d.CatalogHandler.GetCategories)
	categories.POST("", d.CatalogHandler.CreateCategory, d.Guard.RequireAdmin)
	categories.PUT("/:id", d.CatalogHandler.UpdateCategory, d.Guard.RequireAdmin)
	categories.DELETE("/:id", d.CatalogHandler.DeleteCategory, d.Guard.RequireAdmin)

	products := e.Group("/products")
	products.GET("", d.CatalogHandler.GetProducts)
	products.GET("/search", d.CatalogHandler.SearchProducts)
	products.GET("/:id", d.CatalogHandler.GetProduct)
	products.POST("", d.CatalogHandler.CreateProduct, d.Guard.RequireAdmin)
	products.PUT("/:id", d.CatalogHandler.UpdateProduct, d.Guard.RequireAdmin)
	products.DELETE("/:id", d.CatalogHandler.DeleteProduct, d.Guard.RequireAdmin)

	cart := e.Group("/cart", d.Guard.RequireAuth)
	cart.GET("", d.CartHandler.GetCart)
	cart.POST("", d.CartHandler.AddToCart)
	cart.DELETE("", d.CartHandler.ClearCart)
	cart.PUT("/:id", d.CartHandler.UpdateCartItem)
	cart.DELETE("/:id", d.CartHandler.RemoveCartItem)
}
