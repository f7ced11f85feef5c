package billing

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/onelinediary/server/internal/config"
	log "github.com/sirupsen/logrus"
)

const tossStatusDone = "DONE"

// Toss webhook event types.
const (
	TossEventPaymentConfirmed     = "PAYMENT_CONFIRMED"
	TossEventPaymentStatusChanged = "PAYMENT_STATUS_CHANGED"
	TossStatusCanceled            = "CANCELED"
)

// TossClaim is a client- or webhook-reported Toss payment.
type TossClaim struct {
	OrderID    string `json:"orderId"`
	PaymentKey string `json:"paymentKey"`
	Amount     int64  `json:"amount"`
}

// TossPayment is the subset of the Toss payment object used for verification.
type TossPayment struct {
	PaymentKey  string `json:"paymentKey"`
	OrderID     string `json:"orderId"`
	Status      string `json:"status"`
	TotalAmount int64  `json:"totalAmount"`
}

type tossError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// TossVerifier confirms Toss payments against the Toss Payments API.
type TossVerifier struct {
	baseURL   string
	secretKey string
	client    *http.Client
}

// NewTossVerifier constructs a verifier, or nil when Toss is not configured.
func NewTossVerifier(cfg config.TossConfig, client *http.Client) *TossVerifier {
	if !cfg.Enabled() {
		return nil
	}
	if client == nil {
		client = &http.Client{Timeout: defaultProviderTimeout}
	}
	return &TossVerifier{
		baseURL:   strings.TrimRight(strings.TrimSpace(cfg.APIURL), "/"),
		secretKey: strings.TrimSpace(cfg.SecretKey),
		client:    client,
	}
}

// Verify looks up claim.PaymentKey and checks status, order and amount.
func (v *TossVerifier) Verify(ctx context.Context, claim TossClaim) (Proof, error) {
	if v == nil {
		return Proof{}, ErrProviderDisabled
	}
	if strings.TrimSpace(claim.PaymentKey) == "" || strings.TrimSpace(claim.OrderID) == "" {
		return Proof{}, ErrVerificationFailed
	}
	payment, errLookup := v.Payment(ctx, claim.PaymentKey)
	if errLookup != nil {
		log.WithError(errLookup).WithField("payment_key", claim.PaymentKey).Warn("billing: toss lookup failed")
		return Proof{}, ErrVerificationFailed
	}
	if payment.Status != tossStatusDone {
		return Proof{}, ErrPaymentNotCompleted
	}
	if payment.OrderID != claim.OrderID {
		return Proof{}, ErrOrderMismatch
	}
	if payment.TotalAmount != claim.Amount {
		log.WithFields(log.Fields{"expected": claim.Amount, "actual": payment.TotalAmount}).Warn("billing: toss amount mismatch")
		return Proof{}, ErrAmountMismatch
	}
	plan, ok := PlanForAmount(payment.TotalAmount)
	if !ok {
		return Proof{}, ErrAmountMismatch
	}
	return verified(Proof{
		Provider:       ProviderToss,
		Plan:           plan,
		Amount:         payment.TotalAmount,
		TossOrderID:    payment.OrderID,
		TossPaymentKey: payment.PaymentKey,
	}), nil
}

// Payment fetches a payment by payment key.
func (v *TossVerifier) Payment(ctx context.Context, paymentKey string) (TossPayment, error) {
	req, errReq := http.NewRequestWithContext(ctx, http.MethodGet, v.baseURL+"/v1/payments/"+url.PathEscape(paymentKey), nil)
	if errReq != nil {
		return TossPayment{}, fmt.Errorf("toss: build request: %w", errReq)
	}
	req.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(v.secretKey+":")))

	resp, errDo := v.client.Do(req)
	if errDo != nil {
		return TossPayment{}, fmt.Errorf("toss: request failed: %w", errDo)
	}
	defer func() {
		if errClose := resp.Body.Close(); errClose != nil {
			log.WithError(errClose).Warn("toss: close response body failed")
		}
	}()
	raw, errRead := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if errRead != nil {
		return TossPayment{}, fmt.Errorf("toss: read response: %w", errRead)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		var apiErr tossError
		_ = json.Unmarshal(raw, &apiErr)
		return TossPayment{}, fmt.Errorf("toss: unexpected status %d: %s", resp.StatusCode, apiErr.Code)
	}
	var payment TossPayment
	if errDecode := json.Unmarshal(raw, &payment); errDecode != nil {
		return TossPayment{}, fmt.Errorf("toss: decode payment: %w", errDecode)
	}
	return payment, nil
}

// TossWebhook is the Toss notification body.
type TossWebhook struct {
	EventType string          `json:"eventType"`
	Data      json.RawMessage `json:"data"`
}

// TossWebhookData carries the fields of both handled Toss event types.
type TossWebhookData struct {
	OrderID       string `json:"orderId"`
	PaymentKey    string `json:"paymentKey"`
	Amount        int64  `json:"amount"`
	CustomerEmail string `json:"customerEmail"`
	Status        string `json:"status"`
}

// TossEventKey returns the replay key for a Toss notification.
func TossEventKey(eventType string, data TossWebhookData) string {
	key := data.PaymentKey
	if key == "" {
		key = data.OrderID
	}
	if eventType == TossEventPaymentStatusChanged {
		return key + ":" + data.Status
	}
	return key
}
