package payment

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"app/internal/usecase"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/checkout/session"
)

// Stripe Checkout（embedded）でhosted paymentセッションを作る。
// リダイレクトのreturn URLに精算用のコンテキストを載せて戻す。
type StripeGateway struct {
	returnBaseURL string
}

func NewStripeGateway(secretKey string, returnBaseURL string) *StripeGateway {
	stripe.Key = secretKey
	return &StripeGateway{returnBaseURL: returnBaseURL}
}

func (g *StripeGateway) CreateSession(ctx context.Context, in usecase.CreatePaymentSessionInput) (usecase.CreatePaymentSessionOutput, error) {
	if in.SellerRoutingID == "" {
		return usecase.CreatePaymentSessionOutput{}, fmt.Errorf("seller has no payment routing id")
	}

	ids := make([]string, 0, len(in.PhotoIDs))
	for _, id := range in.PhotoIDs {
		ids = append(ids, strconv.FormatInt(id, 10))
	}
	encodedIDs := strings.Join(ids, ",")

	//{CHECKOUT_SESSION_ID}はStripe側が実IDへ差し替える
	returnURL := fmt.Sprintf(
		"%s/checkout/return?success=true&session_id={CHECKOUT_SESSION_ID}&album_id=%d&seller_id=%d&amount=%d&photo_ids=%s",
		g.returnBaseURL, in.AlbumID, in.SellerID, in.AmountCents, encodedIDs,
	)

	params := &stripe.CheckoutSessionParams{
		Mode:      stripe.String(string(stripe.CheckoutSessionModePayment)),
		UIMode:    stripe.String("embedded"),
		ReturnURL: stripe.String(returnURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String("usd"),
					UnitAmount: stripe.Int64(in.AmountCents),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(fmt.Sprintf("Photos (%d)", len(in.PhotoIDs))),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			ApplicationFeeAmount: stripe.Int64(in.CommissionCents),
			TransferData: &stripe.CheckoutSessionPaymentIntentDataTransferDataParams{
				Destination: stripe.String(in.SellerRoutingID),
			},
		},
	}
	if in.BuyerEmail != "" {
		params.CustomerEmail = stripe.String(in.BuyerEmail)
	}
	params.Context = ctx
	params.AddMetadata("album_id", strconv.FormatInt(in.AlbumID, 10))
	params.AddMetadata("seller_id", strconv.FormatInt(in.SellerID, 10))
	params.AddMetadata("photo_ids", encodedIDs)
	params.AddMetadata("commission_cents", strconv.FormatInt(in.CommissionCents, 10))

	s, err := session.New(params)
	if err != nil {
		return usecase.CreatePaymentSessionOutput{}, fmt.Errorf("create checkout session failed: %w", err)
	}
	if s.ClientSecret == "" {
		return usecase.CreatePaymentSessionOutput{}, fmt.Errorf("no client secret returned")
	}

	return usecase.CreatePaymentSessionOutput{
		SessionID:    s.ID,
		ClientSecret: s.ClientSecret,
	}, nil
}
