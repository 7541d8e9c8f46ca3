package handler

import (
	"net/http"

	"app/internal/config"
	"app/internal/middleware"
	"app/internal/usecase"

	"github.com/labstack/echo/v4"
)

// 購入履歴とダウンロードURL解決のHTTP
type PurchaseHandler struct {
	uc *usecase.AccessUsecase
}

// DI
func NewPurchaseHandler(uc *usecase.AccessUsecase) *PurchaseHandler {
	return &PurchaseHandler{uc: uc}
}

func (h *PurchaseHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	g := e.Group("/purchases")
	//ゲストは?ref=<payment_ref>で自分の取引にだけ届く
	g.Use(middleware.OptionalAuthJWT(cfg))

	g.GET("", h.listPurchases)
	g.GET("/:id/downloads", h.resolveDownloads)
}

func (h *PurchaseHandler) listPurchases(c echo.Context) error {
	buyerID := optionalUserID(c)
	ref := c.QueryParam("ref")

	out, err := h.uc.ListPurchases(c.Request().Context(), buyerID, ref)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *PurchaseHandler) resolveDownloads(c echo.Context) error {
	buyerID := optionalUserID(c)
	ref := c.QueryParam("ref")

	out, err := h.uc.ResolveDownloads(c.Request().Context(), buyerID, ref, c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func optionalUserID(c echo.Context) *int64 {
	if id, ok := getUserIDFromContext(c); ok {
		return &id
	}
	return nil
}
