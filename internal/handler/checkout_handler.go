package handler

import (
	"net/http"

	"app/internal/config"
	"app/internal/domain/model"
	"app/internal/middleware"
	"app/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /checkoutのHTTP
type CheckoutHandler struct {
	uc *usecase.CheckoutUsecase

	//埋め込みチェックアウトをマウントするのに必要な公開キー
	stripePublishableKey string
}

// DI
func NewCheckoutHandler(uc *usecase.CheckoutUsecase, stripePublishableKey string) *CheckoutHandler {
	return &CheckoutHandler{uc: uc, stripePublishableKey: stripePublishableKey}
}

type CheckoutSessionResponse struct {
	usecase.CheckoutSessionOutput
	//client_secretがある応答にだけ載せる
	PublishableKey string `json:"publishable_key,omitempty"`
}

func (h *CheckoutHandler) session(c echo.Context, status int, out usecase.CheckoutSessionOutput) error {
	resp := CheckoutSessionResponse{CheckoutSessionOutput: out}
	if out.ClientSecret != "" {
		resp.PublishableKey = h.stripePublishableKey
	}
	return c.JSON(status, resp)
}

type StartCheckoutRequest struct {
	AlbumID int64 `json:"album_id"`
}

type SubmitIdentityRequest struct {
	Mode     string `json:"mode"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SelectMethodRequest struct {
	Method string `json:"method"`
}

type ConfirmTransferRequest struct {
	Acknowledged bool   `json:"acknowledged"`
	Message      string `json:"message"`
}

func (h *CheckoutHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	g := e.Group("/checkout")
	//ログイン済みならIdentityステップを飛ばすため、任意認証
	g.Use(middleware.OptionalAuthJWT(cfg))

	g.POST("", h.start)
	g.GET("/:id", h.get)
	g.POST("/:id/identity", h.submitIdentity)
	g.POST("/:id/method", h.selectMethod)
	g.POST("/:id/back", h.back)
	g.POST("/:id/confirm-transfer", h.confirmTransfer)
}

func (h *CheckoutHandler) start(c echo.Context) error {
	var req StartCheckoutRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	key, _ := resolveCartKey(c, false)

	in := usecase.StartCheckoutInput{
		CartKey: key,
		AlbumID: req.AlbumID,
	}
	if userID, ok := getUserIDFromContext(c); ok {
		in.BuyerID = &userID
	}

	out, err := h.uc.Start(c.Request().Context(), in)
	if err != nil {
		return writeError(c, err)
	}
	return h.session(c, http.StatusCreated, out)
}

func (h *CheckoutHandler) get(c echo.Context) error {
	out, err := h.uc.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return h.session(c, http.StatusOK, out)
}

func (h *CheckoutHandler) submitIdentity(c echo.Context) error {
	var req SubmitIdentityRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.SubmitIdentity(c.Request().Context(), usecase.SubmitIdentityInput{
		SessionID: c.Param("id"),
		Mode:      req.Mode,
		Name:      req.Name,
		Email:     req.Email,
		Password:  req.Password,
	})
	if err != nil {
		return writeError(c, err)
	}
	return h.session(c, http.StatusOK, out)
}

func (h *CheckoutHandler) selectMethod(c echo.Context) error {
	var req SelectMethodRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.SelectMethod(c.Request().Context(), usecase.SelectMethodInput{
		SessionID: c.Param("id"),
		Method:    model.PaymentMethod(req.Method),
	})
	if err != nil {
		return writeError(c, err)
	}
	return h.session(c, http.StatusOK, out)
}

func (h *CheckoutHandler) back(c echo.Context) error {
	out, err := h.uc.Back(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return h.session(c, http.StatusOK, out)
}

func (h *CheckoutHandler) confirmTransfer(c echo.Context) error {
	var req ConfirmTransferRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.ConfirmTransfer(c.Request().Context(), usecase.ConfirmTransferInput{
		SessionID:    c.Param("id"),
		Acknowledged: req.Acknowledged,
		Message:      req.Message,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
