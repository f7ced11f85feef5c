package billing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/onelinediary/server/internal/config"
	log "github.com/sirupsen/logrus"
)

const (
	defaultProviderTimeout = 15 * time.Second
	iamportStatusPaid      = "paid"
)

var (
	// ErrPaymentNotCompleted indicates the provider reports the payment as unpaid.
	ErrPaymentNotCompleted = errors.New("결제 미완료")
	// ErrVerificationFailed indicates the provider lookup failed.
	ErrVerificationFailed = errors.New("결제 검증 실패")
	// ErrAmountMismatch indicates the looked-up amount differs from the claim or the price table.
	ErrAmountMismatch = errors.New("결제 금액 불일치")
	// ErrOrderMismatch indicates the looked-up payment belongs to a different order.
	ErrOrderMismatch = errors.New("order id mismatch")
)

// IamportReceipt is the client-reported payment the Iamport route receives.
type IamportReceipt struct {
	ImpUID      string `json:"imp_uid"`
	MerchantUID string `json:"merchant_uid"`
	Amount      int64  `json:"amount"`
	Status      string `json:"status"`
	BuyerEmail  string `json:"buyer_email"`
}

// IamportPayment is the subset of the Iamport payment lookup used for verification.
type IamportPayment struct {
	ImpUID      string `json:"imp_uid"`
	MerchantUID string `json:"merchant_uid"`
	Amount      int64  `json:"amount"`
	Status      string `json:"status"`
	BuyerEmail  string `json:"buyer_email"`
}

type iamportEnvelope struct {
	Code     int             `json:"code"`
	Message  *string         `json:"message"`
	Response json.RawMessage `json:"response"`
}

// IamportVerifier confirms Iamport receipts against the Iamport REST API.
type IamportVerifier struct {
	baseURL     string
	accessToken string
	apiKey      string
	apiSecret   string
	client      *http.Client
}

// NewIamportVerifier constructs a verifier, or nil when Iamport is not configured.
func NewIamportVerifier(cfg config.IamportConfig, client *http.Client) *IamportVerifier {
	if !cfg.Enabled() {
		return nil
	}
	if client == nil {
		client = &http.Client{Timeout: defaultProviderTimeout}
	}
	return &IamportVerifier{
		baseURL:     strings.TrimRight(strings.TrimSpace(cfg.APIURL), "/"),
		accessToken: strings.TrimSpace(cfg.AccessToken),
		apiKey:      strings.TrimSpace(cfg.APIKey),
		apiSecret:   strings.TrimSpace(cfg.APISecret),
		client:      client,
	}
}

// Verify checks receipt against the server-side payment record and returns a
// verified proof along with the buyer email Iamport reports.
func (v *IamportVerifier) Verify(ctx context.Context, receipt IamportReceipt) (Proof, string, error) {
	if v == nil {
		return Proof{}, "", ErrProviderDisabled
	}
	if receipt.Status != iamportStatusPaid {
		return Proof{}, "", ErrPaymentNotCompleted
	}
	if strings.TrimSpace(receipt.ImpUID) == "" {
		return Proof{}, "", ErrVerificationFailed
	}
	payment, errLookup := v.Payment(ctx, receipt.ImpUID)
	if errLookup != nil {
		log.WithError(errLookup).WithField("imp_uid", receipt.ImpUID).Warn("billing: iamport lookup failed")
		return Proof{}, "", ErrVerificationFailed
	}
	if payment.Status != iamportStatusPaid {
		return Proof{}, "", ErrPaymentNotCompleted
	}
	if payment.Amount != receipt.Amount {
		log.WithFields(log.Fields{"expected": receipt.Amount, "actual": payment.Amount}).Warn("billing: iamport amount mismatch")
		return Proof{}, "", ErrAmountMismatch
	}
	plan, ok := PlanForAmount(payment.Amount)
	if !ok {
		return Proof{}, "", ErrAmountMismatch
	}
	email := strings.TrimSpace(payment.BuyerEmail)
	if email == "" {
		email = strings.TrimSpace(receipt.BuyerEmail)
	}
	merchantUID := payment.MerchantUID
	if merchantUID == "" {
		merchantUID = receipt.MerchantUID
	}
	return verified(Proof{
		Provider:       ProviderIamport,
		Plan:           plan,
		Amount:         payment.Amount,
		ImpUID:         receipt.ImpUID,
		ImpMerchantUID: merchantUID,
	}), email, nil
}

// Payment looks up a payment by imp_uid.
func (v *IamportVerifier) Payment(ctx context.Context, impUID string) (IamportPayment, error) {
	token, errToken := v.token(ctx)
	if errToken != nil {
		return IamportPayment{}, errToken
	}
	req, errReq := http.NewRequestWithContext(ctx, http.MethodGet, v.baseURL+"/payments/"+url.PathEscape(impUID), nil)
	if errReq != nil {
		return IamportPayment{}, fmt.Errorf("iamport: build request: %w", errReq)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	var payment IamportPayment
	if errDo := v.do(req, &payment); errDo != nil {
		return IamportPayment{}, errDo
	}
	return payment, nil
}

func (v *IamportVerifier) token(ctx context.Context) (string, error) {
	if v.accessToken != "" {
		return v.accessToken, nil
	}
	body, errMarshal := json.Marshal(map[string]string{"imp_key": v.apiKey, "imp_secret": v.apiSecret})
	if errMarshal != nil {
		return "", fmt.Errorf("iamport: encode token request: %w", errMarshal)
	}
	req, errReq := http.NewRequestWithContext(ctx, http.MethodPost, v.baseURL+"/users/getToken", bytes.NewReader(body))
	if errReq != nil {
		return "", fmt.Errorf("iamport: build token request: %w", errReq)
	}
	req.Header.Set("Content-Type", "application/json")
	var out struct {
		AccessToken string `json:"access_token"`
	}
	if errDo := v.do(req, &out); errDo != nil {
		return "", errDo
	}
	if out.AccessToken == "" {
		return "", fmt.Errorf("iamport: empty access token")
	}
	return out.AccessToken, nil
}

func (v *IamportVerifier) do(req *http.Request, dst any) error {
	resp, errDo := v.client.Do(req)
	if errDo != nil {
		return fmt.Errorf("iamport: request failed: %w", errDo)
	}
	defer func() {
		if errClose := resp.Body.Close(); errClose != nil {
			log.WithError(errClose).Warn("iamport: close response body failed")
		}
	}()
	raw, errRead := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if errRead != nil {
		return fmt.Errorf("iamport: read response: %w", errRead)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("iamport: unexpected status %d", resp.StatusCode)
	}
	var env iamportEnvelope
	if errDecode := json.Unmarshal(raw, &env); errDecode != nil {
		return fmt.Errorf("iamport: decode response: %w", errDecode)
	}
	if env.Code != 0 {
		msg := ""
		if env.Message != nil {
			msg = *env.Message
		}
		return fmt.Errorf("iamport: api error %d: %s", env.Code, msg)
	}
	if len(env.Response) == 0 || string(env.Response) == "null" {
		return fmt.Errorf("iamport: empty response")
	}
	if errDecode := json.Unmarshal(env.Response, dst); errDecode != nil {
		return fmt.Errorf("iamport: decode payload: %w", errDecode)
	}
	return nil
}
