// Package payment implements checkout-time payment initiation and
// verification against the PhonePe gateway.
package payment

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strings"

	validator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/glowmart/backend-store/internal/common"
	"github.com/glowmart/backend-store/internal/notify"
	"github.com/glowmart/backend-store/internal/obs"
	"github.com/glowmart/backend-store/internal/phonepe"
	"github.com/glowmart/backend-store/internal/resilience"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// InitiateParams carries the order attributes a checkout attempt starts with.
type InitiateParams struct {
	Amount        json.Number
	TransactionID string `validate:"required"`
	RedirectURL   string `validate:"required"`
}

// InitiateResult is the signed envelope the browser forwards to the gateway.
// This service runs in client-redirect mode: it never calls the pay endpoint
// itself.
type InitiateResult struct {
	URL     string
	Payload string
	XVerify string
}

// VerifyParams identifies the transaction to check and where to send the
// confirmation on success.
type VerifyParams struct {
	TransactionID string `validate:"required"`
	UserEmail     string `validate:"required,email"`
	OrderDetails  json.RawMessage
}

// VerifyResult reports the gateway's verdict.
type VerifyResult struct {
	Status   phonepe.TxStatus
	Notified bool
}

// Service coordinates signing, gateway queries and notification dispatch.
type Service struct {
	Gateway  *phonepe.Client
	Notifier *notify.Dispatcher
	Logger   zerolog.Logger
}

// Initiate validates the checkout attempt, converts the amount to minor
// units, and returns the signed pay envelope. No network calls are made.
func (s *Service) Initiate(ctx context.Context, p InitiateParams) (InitiateResult, error) {
	if s == nil || s.Gateway == nil {
		return InitiateResult{}, errors.New("payment service not configured")
	}
	p.TransactionID = strings.TrimSpace(p.TransactionID)
	p.RedirectURL = strings.TrimSpace(p.RedirectURL)
	if err := validate.StructCtx(ctx, p); err != nil {
		obs.IncPaymentInitiate("invalid")
		return InitiateResult{}, common.ValidationError("amount, transactionId and redirectUrl are required", err)
	}
	if u, err := url.Parse(p.RedirectURL); err != nil || !u.IsAbs() || u.Host == "" {
		obs.IncPaymentInitiate("invalid")
		return InitiateResult{}, common.ValidationError("redirectUrl must be an absolute URL", err)
	}
	minor, err := MinorUnits(p.Amount)
	if err != nil {
		obs.IncPaymentInitiate("invalid")
		return InitiateResult{}, common.ValidationError(err.Error(), err)
	}

	req := phonepe.PayRequest{
		MerchantID:     s.Gateway.MerchantID,
		TransactionID:  p.TransactionID,
		Amount:         minor,
		MerchantUserID: "guest_" + uuid.NewString(),
		RedirectURL:    p.RedirectURL,
		RedirectMode:   "POST",
		CallbackURL:    p.RedirectURL,
		Instrument:     phonepe.Instrument{Type: phonepe.InstrumentPayPage},
	}
	env, err := s.Gateway.SignPayRequest(req)
	if err != nil {
		obs.IncPaymentInitiate("error")
		return InitiateResult{}, err
	}
	obs.IncPaymentInitiate("ok")
	s.Logger.Info().
		Str("transaction_id", p.TransactionID).
		Int64("amount_minor", minor).
		Msg("payment initiated")
	return InitiateResult{
		URL:     s.Gateway.PayURL(),
		Payload: env.Base64Body,
		XVerify: env.XVerify,
	}, nil
}

// Verify checks the transaction status with the gateway and, exactly once per
// successful transaction, schedules the confirmation email. Notification is
// best-effort: a dispatch failure is logged and never downgrades the payment
// outcome.
func (s *Service) Verify(ctx context.Context, p VerifyParams) (VerifyResult, error) {
	if s == nil || s.Gateway == nil {
		return VerifyResult{}, errors.New("payment service not configured")
	}
	p.TransactionID = strings.TrimSpace(p.TransactionID)
	p.UserEmail = strings.TrimSpace(p.UserEmail)
	if err := validate.StructCtx(ctx, p); err != nil {
		obs.IncPaymentVerify("invalid")
		return VerifyResult{}, common.ValidationError("transactionId and a valid userEmail are required", err)
	}
	if len(p.OrderDetails) == 0 || string(p.OrderDetails) == "null" {
		obs.IncPaymentVerify("invalid")
		return VerifyResult{}, common.ValidationError("orderDetails is required", nil)
	}

	status, err := s.Gateway.TransactionStatus(ctx, p.TransactionID)
	if err != nil {
		obs.IncPaymentVerify("gateway_error")
		s.Logger.Error().Err(err).
			Str("transaction_id", p.TransactionID).
			Str("endpoint", "verify-payment").
			Msg("gateway status query failed")
		if errors.Is(err, resilience.ErrOpenCircuit) {
			return VerifyResult{}, common.GatewayError("payment gateway temporarily unavailable", err)
		}
		return VerifyResult{}, common.GatewayError("could not reach payment gateway", err)
	}

	if status != phonepe.StatusSuccess {
		obs.IncPaymentVerify(strings.ToLower(string(status)))
		s.Logger.Info().
			Str("transaction_id", p.TransactionID).
			Str("status", string(status)).
			Msg("payment not successful")
		return VerifyResult{Status: status}, nil
	}

	obs.IncPaymentVerify("success")
	notified := false
	if s.Notifier != nil {
		notified, err = s.Notifier.Dispatch(ctx, notify.OrderConfirmationPayload{
			TransactionID: p.TransactionID,
			Email:         p.UserEmail,
			OrderDetails:  string(p.OrderDetails),
		})
		if err != nil {
			s.Logger.Error().Err(err).
				Str("transaction_id", p.TransactionID).
				Msg("confirmation dispatch failed")
			err = nil
		}
	}
	return VerifyResult{Status: phonepe.StatusSuccess, Notified: notified}, nil
}
