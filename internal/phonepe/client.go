package phonepe

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/glowmart/backend-store/internal/resilience"
)

// TxStatus is the gateway's verdict on a transaction.
type TxStatus string

const (
	StatusSuccess TxStatus = "SUCCESS"
	StatusFailed  TxStatus = "FAILED"
	StatusPending TxStatus = "PENDING"
	StatusUnknown TxStatus = "UNKNOWN"
)

// PayRequest is the envelope posted (by the browser, after redirect) to the
// gateway's pay endpoint.
type PayRequest struct {
	MerchantID     string     `json:"merchantId"`
	TransactionID  string     `json:"merchantTransactionId"`
	Amount         int64      `json:"amount"`
	MerchantUserID string     `json:"merchantUserId"`
	RedirectURL    string     `json:"redirectUrl"`
	RedirectMode   string     `json:"redirectMode"`
	CallbackURL    string     `json:"callbackUrl"`
	Instrument     Instrument `json:"paymentInstrument"`
}

// Instrument names the payment instrument the hosted page should offer.
type Instrument struct {
	Type string `json:"type"`
}

// InstrumentPayPage is the hosted payment page instrument.
const InstrumentPayPage = "PAY_PAGE"

type statusEnvelope struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Data    struct {
		Status string `json:"status"`
	} `json:"data"`
}

// Client signs and issues requests against one merchant account.
type Client struct {
	BaseURL    string
	MerchantID string
	SaltKey    string
	SaltIndex  string
	HTTP       *resilience.HTTPClient
}

// SignedEnvelope is a base64 payload plus the X-VERIFY header proving it.
type SignedEnvelope struct {
	Base64Body string
	XVerify    string
}

// SignPayRequest serialises and signs a pay request. The returned envelope is
// immutable with respect to the signature: callers must forward Base64Body
// byte-for-byte.
func (c *Client) SignPayRequest(req PayRequest) (SignedEnvelope, error) {
	raw, err := json.Marshal(req)
	if err != nil {
		return SignedEnvelope{}, fmt.Errorf("phonepe: marshal pay request: %w", err)
	}
	b64 := base64.StdEncoding.EncodeToString(raw)
	digest := Sign(b64, PayPath, c.SaltKey)
	return SignedEnvelope{Base64Body: b64, XVerify: XVerify(digest, c.SaltIndex)}, nil
}

// PayURL returns the gateway endpoint the signed payload must be posted to.
func (c *Client) PayURL() string {
	return strings.TrimRight(c.BaseURL, "/") + PayPath
}

// TransactionStatus queries the gateway for the current state of a
// transaction. Transport failures, exhausted retries, an open breaker and
// non-2xx responses come back as errors; a well-formed response maps onto a
// TxStatus with anything other than SUCCESS treated as its literal value or
// UNKNOWN.
func (c *Client) TransactionStatus(ctx context.Context, transactionID string) (TxStatus, error) {
	payload := map[string]string{
		"merchantId":    c.MerchantID,
		"transactionId": transactionID,
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return StatusUnknown, fmt.Errorf("phonepe: marshal status payload: %w", err)
	}
	b64 := base64.StdEncoding.EncodeToString(raw)
	digest := Sign(b64, StatusPath, c.SaltKey)

	url := fmt.Sprintf("%s%s/%s", strings.TrimRight(c.BaseURL, "/"), StatusPath, transactionID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return StatusUnknown, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-VERIFY", XVerify(digest, c.SaltIndex))
	req.Header.Set("X-MERCHANT-ID", c.MerchantID)

	resp, err := c.HTTP.Do(ctx, req)
	if err != nil {
		return StatusUnknown, fmt.Errorf("phonepe: status call: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return StatusUnknown, fmt.Errorf("phonepe: status endpoint returned %s", resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return StatusUnknown, fmt.Errorf("phonepe: read status body: %w", err)
	}
	var envelope statusEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return StatusUnknown, fmt.Errorf("phonepe: decode status body: %w", err)
	}
	switch TxStatus(strings.ToUpper(strings.TrimSpace(envelope.Data.Status))) {
	case StatusSuccess:
		return StatusSuccess, nil
	case StatusFailed:
		return StatusFailed, nil
	case StatusPending:
		return StatusPending, nil
	default:
		return StatusUnknown, nil
	}
}
