package payment_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/hibiken/asynq"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/glowmart/backend-store/internal/common"
	"github.com/glowmart/backend-store/internal/notify"
	"github.com/glowmart/backend-store/internal/payment"
	"github.com/glowmart/backend-store/internal/phonepe"
	"github.com/glowmart/backend-store/internal/resilience"
)

type fakeEnqueuer struct {
	tasks []*asynq.Task
	err   error
}

func (f *fakeEnqueuer) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.tasks = append(f.tasks, task)
	return &asynq.TaskInfo{ID: task.Type()}, nil
}

func newGateway(baseURL string) *phonepe.Client {
	return &phonepe.Client{
		BaseURL:    baseURL,
		MerchantID: "MERCHANT1",
		SaltKey:    "salt-key",
		SaltIndex:  "1",
		HTTP: &resilience.HTTPClient{
			Client:      &http.Client{},
			Breaker:     resilience.NewBreaker("gateway-test", 100, 0.5, time.Second, zerolog.Nop()),
			BaseBackoff: time.Millisecond,
			MaxAttempts: 1,
			Timeout:     time.Second,
		},
	}
}

func statusServer(t *testing.T, verdict string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": verdict == "SUCCESS",
			"data":    map[string]any{"status": verdict},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newDispatcher(t *testing.T, queue notify.Enqueuer) *notify.Dispatcher {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return &notify.Dispatcher{
		Queue:    queue,
		Dedup:    &notify.Dedup{R: client, TTL: time.Hour},
		MaxRetry: 3,
		Logger:   zerolog.Nop(),
	}
}

func TestInitiateBuildsSignedEnvelope(t *testing.T) {
	t.Parallel()

	svc := &payment.Service{Gateway: newGateway("https://gateway.example"), Logger: zerolog.Nop()}
	result, err := svc.Initiate(context.Background(), payment.InitiateParams{
		Amount:        json.Number("199.99"),
		TransactionID: "TXN-1",
		RedirectURL:   "https://shop.example/return",
	})
	require.NoError(t, err)
	require.Equal(t, "https://gateway.example/pg/v1/pay", result.URL)
	require.NotEmpty(t, result.XVerify)

	raw, err := base64.StdEncoding.DecodeString(result.Payload)
	require.NoError(t, err)
	var req phonepe.PayRequest
	require.NoError(t, json.Unmarshal(raw, &req))
	require.Equal(t, int64(19999), req.Amount)
	require.Equal(t, "TXN-1", req.TransactionID)
	require.Equal(t, "MERCHANT1", req.MerchantID)
	require.Equal(t, phonepe.InstrumentPayPage, req.Instrument.Type)
}

func TestInitiateRejectsBadInput(t *testing.T) {
	t.Parallel()

	svc := &payment.Service{Gateway: newGateway("https://gateway.example"), Logger: zerolog.Nop()}
	cases := []payment.InitiateParams{
		{Amount: json.Number("199.99"), RedirectURL: "https://shop.example/return"},
		{Amount: json.Number("199.99"), TransactionID: "TXN-1"},
		{Amount: json.Number("0"), TransactionID: "TXN-1", RedirectURL: "https://shop.example/return"},
		{Amount: json.Number("1e2"), TransactionID: "TXN-1", RedirectURL: "https://shop.example/return"},
		{Amount: json.Number("199.99"), TransactionID: "TXN-1", RedirectURL: "/relative"},
	}
	for i, params := range cases {
		_, err := svc.Initiate(context.Background(), params)
		require.Error(t, err, "case %d", i)
		var appErr *common.AppError
		require.ErrorAs(t, err, &appErr, "case %d", i)
		require.Equal(t, common.CodeValidation, appErr.Code, "case %d", i)
	}
}

func TestVerifySuccessDispatchesExactlyOnce(t *testing.T) {
	t.Parallel()

	srv := statusServer(t, "SUCCESS")
	queue := &fakeEnqueuer{}
	svc := &payment.Service{
		Gateway:  newGateway(srv.URL),
		Notifier: newDispatcher(t, queue),
		Logger:   zerolog.Nop(),
	}
	params := payment.VerifyParams{
		TransactionID: "TXN-9",
		UserEmail:     "buyer@example.com",
		OrderDetails:  json.RawMessage(`{"items":[{"name":"Serum","qty":1}]}`),
	}

	result, err := svc.Verify(context.Background(), params)
	require.NoError(t, err)
	require.Equal(t, phonepe.StatusSuccess, result.Status)
	require.True(t, result.Notified)
	require.Len(t, queue.tasks, 1)

	// A second verify for the same transaction is a no-op.
	result, err = svc.Verify(context.Background(), params)
	require.NoError(t, err)
	require.False(t, result.Notified)
	require.Len(t, queue.tasks, 1)
}

func TestVerifyFailedStatusDoesNotDispatch(t *testing.T) {
	t.Parallel()

	srv := statusServer(t, "FAILED")
	queue := &fakeEnqueuer{}
	svc := &payment.Service{
		Gateway:  newGateway(srv.URL),
		Notifier: newDispatcher(t, queue),
		Logger:   zerolog.Nop(),
	}

	result, err := svc.Verify(context.Background(), payment.VerifyParams{
		TransactionID: "TXN-9",
		UserEmail:     "buyer@example.com",
		OrderDetails:  json.RawMessage(`{}`),
	})
	require.NoError(t, err)
	require.Equal(t, phonepe.StatusFailed, result.Status)
	require.False(t, result.Notified)
	require.Empty(t, queue.tasks)
}

func TestVerifyRejectsMissingEmail(t *testing.T) {
	t.Parallel()

	svc := &payment.Service{Gateway: newGateway("https://gateway.example"), Logger: zerolog.Nop()}
	_, err := svc.Verify(context.Background(), payment.VerifyParams{
		TransactionID: "TXN-9",
		OrderDetails:  json.RawMessage(`{}`),
	})
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, common.CodeValidation, appErr.Code)
}

func TestVerifyGatewayOutageReturnsGatewayError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	svc := &payment.Service{Gateway: newGateway(srv.URL), Logger: zerolog.Nop()}
	_, err := svc.Verify(context.Background(), payment.VerifyParams{
		TransactionID: "TXN-9",
		UserEmail:     "buyer@example.com",
		OrderDetails:  json.RawMessage(`{}`),
	})
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, common.CodeGateway, appErr.Code)
	require.Equal(t, http.StatusBadGateway, appErr.HTTPStatus)
}

func TestVerifyDispatchFailureDoesNotFailVerify(t *testing.T) {
	t.Parallel()

	srv := statusServer(t, "SUCCESS")
	queue := &fakeEnqueuer{err: context.DeadlineExceeded}
	svc := &payment.Service{
		Gateway:  newGateway(srv.URL),
		Notifier: newDispatcher(t, queue),
		Logger:   zerolog.Nop(),
	}

	result, err := svc.Verify(context.Background(), payment.VerifyParams{
		TransactionID: "TXN-9",
		UserEmail:     "buyer@example.com",
		OrderDetails:  json.RawMessage(`{}`),
	})
	require.NoError(t, err)
	require.Equal(t, phonepe.StatusSuccess, result.Status)
	require.False(t, result.Notified)
}
