package handler

import (
	"net/http"
	"strconv"
	"strings"

	"app/internal/config"
	"app/internal/middleware"
	"app/internal/usecase"

	"github.com/labstack/echo/v4"
)

// 決済リダイレクトの着地と、銀行振込の販売者確認のHTTP
type SettlementHandler struct {
	uc *usecase.SettlementUsecase
}

// DI
func NewSettlementHandler(uc *usecase.SettlementUsecase) *SettlementHandler {
	return &SettlementHandler{uc: uc}
}

type SettleRequest struct {
	Success   bool   `json:"success"`
	SessionID string `json:"session_id"`
	AlbumID   int64  `json:"album_id"`
	SellerID  int64  `json:"seller_id"`
	Amount    int64  `json:"amount"`
	//カンマ区切り。空文字はアルバム全体。
	PhotoIDs string `json:"photo_ids"`
}

type ConfirmManualTransferRequest struct {
	ProofReference string `json:"proof_reference"`
}

func (h *SettlementHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	//リダイレクト規格のクエリをそのままPOSTで受ける（ゲスト購入もあるため任意認証）
	e.POST("/checkout/settle", h.settle, middleware.OptionalAuthJWT(cfg))

	e.GET("/sales", h.listSales,
		middleware.AuthJWT(cfg), middleware.PhotographerGuard())
	e.POST("/transactions/:id/confirm", h.confirmManualTransfer,
		middleware.AuthJWT(cfg), middleware.PhotographerGuard())
}

func (h *SettlementHandler) listSales(c echo.Context) error {
	sellerID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	sales, err := h.uc.ListSales(c.Request().Context(), sellerID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, sales)
}

func (h *SettlementHandler) settle(c echo.Context) error {
	var req SettleRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	photoIDs, err := parsePhotoIDs(req.PhotoIDs)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid photo_ids"})
	}

	in := usecase.SettleInput{
		Success:     req.Success,
		PaymentRef:  req.SessionID,
		AlbumID:     req.AlbumID,
		SellerID:    req.SellerID,
		AmountCents: req.Amount,
		PhotoIDs:    photoIDs,
	}
	if userID, ok := getUserIDFromContext(c); ok {
		in.BuyerID = &userID
	}
	in.CartKey, _ = resolveCartKey(c, false)

	out, err := h.uc.Settle(c.Request().Context(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *SettlementHandler) confirmManualTransfer(c echo.Context) error {
	sellerID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	var req ConfirmManualTransferRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	t, err := h.uc.ConfirmManualTransfer(c.Request().Context(), sellerID, c.Param("id"), req.ProofReference)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, t)
}

// "12,34,56"を[]int64へ。空文字はnil（アルバム全体の購入）。
func parsePhotoIDs(s string) ([]int64, error) {
	if s == "" {
		return nil, nil
	}

	parts := strings.Split(s, ",")
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
