package server

import (
	"app/internal/config"
	"app/internal/handler"

	"github.com/labstack/echo/v4"
)

// Handlersはルート登録に必要なハンドラ一式
type Handlers struct {
	Auth       *handler.AuthHandler
	Album      *handler.AlbumHandler
	Cart       *handler.CartHandler
	Checkout   *handler.CheckoutHandler
	Settlement *handler.SettlementHandler
	Purchase   *handler.PurchaseHandler
}

func RegisterRoutes(e *echo.Echo, cfg config.Config, h Handlers) {
	h.Auth.RegisterRoutes(e)
	h.Album.RegisterRoutes(e, cfg)
	h.Cart.RegisterRoutes(e, cfg)
	h.Checkout.RegisterRoutes(e, cfg)
	h.Settlement.RegisterRoutes(e, cfg)
	h.Purchase.RegisterRoutes(e, cfg)
}
