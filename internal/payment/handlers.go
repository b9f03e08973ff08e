package payment

import (
	"encoding/json"
	"net/http"

	"github.com/glowmart/backend-store/internal/common"
	"github.com/glowmart/backend-store/internal/phonepe"
)

// Handler exposes the payment initiation and verification endpoints.
type Handler struct {
	Svc *Service
}

type initiateReq struct {
	Amount        json.Number `json:"amount"`
	TransactionID string      `json:"transactionId"`
	RedirectURL   string      `json:"redirectUrl"`
}

type initiateResp struct {
	URL     string `json:"url"`
	Payload string `json:"payload"`
	XVerify string `json:"xVerify"`
}

type verifyReq struct {
	TransactionID string          `json:"transactionId"`
	UserEmail     string          `json:"userEmail"`
	OrderDetails  json.RawMessage `json:"orderDetails"`
}

// Initiate handles POST /api/initiate-payment.
func (h *Handler) Initiate(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "payment handler unavailable", nil)
		return
	}
	var req initiateReq
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "invalid request body", nil)
		return
	}
	result, err := h.Svc.Initiate(r.Context(), InitiateParams{
		Amount:        req.Amount,
		TransactionID: req.TransactionID,
		RedirectURL:   req.RedirectURL,
	})
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, initiateResp{
		URL:     result.URL,
		Payload: result.Payload,
		XVerify: result.XVerify,
	})
}

// Verify handles POST /api/verify-payment.
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "payment handler unavailable", nil)
		return
	}
	var req verifyReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "invalid request body", nil)
		return
	}
	result, err := h.Svc.Verify(r.Context(), VerifyParams{
		TransactionID: req.TransactionID,
		UserEmail:     req.UserEmail,
		OrderDetails:  req.OrderDetails,
	})
	if err != nil {
		common.WriteError(w, err)
		return
	}
	if result.Status != phonepe.StatusSuccess {
		common.JSONError(w, http.StatusBadRequest, common.CodePaymentFailed, "Payment failed.", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Payment verified. Confirmation email on its way.",
	})
}
