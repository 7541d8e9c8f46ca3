package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"app/internal/config"
	"app/internal/middleware"
	"app/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// ゲストカートのトークンを運ぶヘッダ
const CartTokenHeader = "X-Cart-Token"

// /cartのHTTP
type CartHandler struct {
	uc *usecase.CartUsecase
}

// DI
func NewCartHandler(uc *usecase.CartUsecase) *CartHandler {
	return &CartHandler{uc: uc}
}

type AddCartItemRequest struct {
	PhotoID int64 `json:"photo_id"`
}

func (h *CartHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	g := e.Group("/cart")
	//カートはゲストでも使える
	g.Use(middleware.OptionalAuthJWT(cfg))

	g.GET("", h.getCart)
	g.POST("/items", h.addItem)
	g.DELETE("/items/:photoID", h.removeItem)
	g.DELETE("", h.clear)
}

func (h *CartHandler) getCart(c echo.Context) error {
	key, _ := resolveCartKey(c, false)
	if key == "" {
		return c.JSON(http.StatusOK, usecase.CartQuoteOutput{Groups: []usecase.CartGroupOutput{}})
	}

	out, err := h.uc.GetQuote(c.Request().Context(), key)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CartHandler) addItem(c echo.Context) error {
	var req AddCartItemRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	key, created := resolveCartKey(c, true)

	out, err := h.uc.AddItem(c.Request().Context(), key, req.PhotoID)
	if err != nil {
		return writeError(c, err)
	}

	//新規発行したゲストトークンはヘッダで返す
	if created {
		c.Response().Header().Set(CartTokenHeader, key)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CartHandler) removeItem(c echo.Context) error {
	photoID, err := strconv.ParseInt(c.Param("photoID"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	key, _ := resolveCartKey(c, false)
	if key == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "no cart"})
	}

	out, err := h.uc.RemoveItem(c.Request().Context(), key, photoID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CartHandler) clear(c echo.Context) error {
	key, _ := resolveCartKey(c, false)
	if key == "" {
		return c.NoContent(http.StatusNoContent)
	}

	if err := h.uc.Clear(c.Request().Context(), key); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

//middleware.AuthJWT が c.Set("user_id", int64) した値を取り出す

func getUserIDFromContext(c echo.Context) (int64, bool) {
	v := c.Get(middleware.CtxUserIDKey)
	if v == nil {
		return 0, false
	}

	id, ok := v.(int64)
	if !ok {
		return 0, false
	}

	return id, true
}

// カートのキーを決める。ログイン済みはuser:<id>、ゲストはヘッダのトークン。
// generate=trueならトークンが無いとき新規発行する（戻り値の2つ目がtrue）。
func resolveCartKey(c echo.Context, generate bool) (string, bool) {
	if userID, ok := getUserIDFromContext(c); ok {
		return fmt.Sprintf("user:%d", userID), false
	}

	if tok := c.Request().Header.Get(CartTokenHeader); tok != "" {
		return tok, false
	}

	if generate {
		return uuid.NewString(), true
	}
	return "", false
}
