package payment_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/glowmart/backend-store/internal/payment"
)

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body
}

func TestInitiateHandlerReturnsEnvelope(t *testing.T) {
	t.Parallel()

	handler := &payment.Handler{Svc: &payment.Service{Gateway: newGateway("https://gateway.example"), Logger: zerolog.Nop()}}
	req := httptest.NewRequest(http.MethodPost, "/api/initiate-payment",
		strings.NewReader(`{"amount":199.99,"transactionId":"TXN-1","redirectUrl":"https://shop.example/return"}`))
	rr := httptest.NewRecorder()
	handler.Initiate(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	body := decodeBody(t, rr)
	require.Equal(t, "https://gateway.example/pg/v1/pay", body["url"])
	require.NotEmpty(t, body["payload"])
	require.Contains(t, body["xVerify"], "###")
}

func TestInitiateHandlerRejectsMalformedJSON(t *testing.T) {
	t.Parallel()

	handler := &payment.Handler{Svc: &payment.Service{Gateway: newGateway("https://gateway.example"), Logger: zerolog.Nop()}}
	req := httptest.NewRequest(http.MethodPost, "/api/initiate-payment", strings.NewReader(`{"amount":`))
	rr := httptest.NewRecorder()
	handler.Initiate(rr, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)
	body := decodeBody(t, rr)
	require.Equal(t, false, body["success"])
}

func TestVerifyHandlerRejectsMissingEmail(t *testing.T) {
	t.Parallel()

	handler := &payment.Handler{Svc: &payment.Service{Gateway: newGateway("https://gateway.example"), Logger: zerolog.Nop()}}
	req := httptest.NewRequest(http.MethodPost, "/api/verify-payment",
		strings.NewReader(`{"transactionId":"TXN-1","orderDetails":{}}`))
	rr := httptest.NewRecorder()
	handler.Verify(rr, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)
	body := decodeBody(t, rr)
	require.Equal(t, false, body["success"])
	errBody, ok := body["error"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "VALIDATION_ERROR", errBody["code"])
}

func TestVerifyHandlerMapsFailedPayment(t *testing.T) {
	t.Parallel()

	srv := statusServer(t, "FAILED")
	handler := &payment.Handler{Svc: &payment.Service{Gateway: newGateway(srv.URL), Logger: zerolog.Nop()}}
	req := httptest.NewRequest(http.MethodPost, "/api/verify-payment",
		strings.NewReader(`{"transactionId":"TXN-1","userEmail":"buyer@example.com","orderDetails":{"items":[]}}`))
	rr := httptest.NewRecorder()
	handler.Verify(rr, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)
	body := decodeBody(t, rr)
	require.Equal(t, false, body["success"])
	errBody, ok := body["error"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "PAYMENT_FAILED", errBody["code"])
}

func TestVerifyHandlerSuccess(t *testing.T) {
	t.Parallel()

	srv := statusServer(t, "SUCCESS")
	queue := &fakeEnqueuer{}
	handler := &payment.Handler{Svc: &payment.Service{
		Gateway:  newGateway(srv.URL),
		Notifier: newDispatcher(t, queue),
		Logger:   zerolog.Nop(),
	}}
	req := httptest.NewRequest(http.MethodPost, "/api/verify-payment",
		strings.NewReader(`{"transactionId":"TXN-1","userEmail":"buyer@example.com","orderDetails":{"items":[]}}`))
	rr := httptest.NewRecorder()
	handler.Verify(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	body := decodeBody(t, rr)
	require.Equal(t, true, body["success"])
	require.Len(t, queue.tasks, 1)
}

func TestVerifyHandlerGatewayDown(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	handler := &payment.Handler{Svc: &payment.Service{Gateway: newGateway(srv.URL), Logger: zerolog.Nop()}}
	req := httptest.NewRequest(http.MethodPost, "/api/verify-payment",
		strings.NewReader(`{"transactionId":"TXN-1","userEmail":"buyer@example.com","orderDetails":{}}`))
	rr := httptest.NewRecorder()
	handler.Verify(rr, req)

	require.Equal(t, http.StatusBadGateway, rr.Code)
	body := decodeBody(t, rr)
	require.Equal(t, false, body["success"])
}
