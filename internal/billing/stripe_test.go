package billing

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/onelinediary/server/internal/config"
	"github.com/onelinediary/server/internal/models"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/webhook"
)

const testWebhookSecret = "whsec_test_secret"

func signStripePayload(t *testing.T, payload string) string {
	t.Helper()
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload: []byte(payload),
		Secret:  testWebhookSecret,
	})
	return signed.Header
}

func newTestStripe(backend stripe.Backend) *StripeProvider {
	return NewStripeProvider(config.StripeConfig{
		SecretKey:     "sk_test_key",
		WebhookSecret: testWebhookSecret,
		PriceID:       "price_monthly",
	}, "https://diary.example.com/", backend)
}

func TestNewStripeProvider_DisabledWithoutSecrets(t *testing.T) {
	if p := NewStripeProvider(config.StripeConfig{}, "", nil); p != nil {
		t.Fatalf("expected nil provider without credentials")
	}
}

func TestHandleStripeWebhook_CheckoutCompletedGrantsPremium(t *testing.T) {
	conn, svc := openTestService(t)
	payments := NewPayments(svc, newTestStripe(nil), nil, nil, nil)

	payload := `{"id":"evt_1","object":"event","type":"checkout.session.completed","data":{"object":{"id":"cs_1","object":"checkout.session","payment_status":"paid","amount_total":1900,"metadata":{"userId":"7"},"customer":"cus_1","subscription":"sub_1"}}}`
	for i := 0; i < 2; i++ {
		if err := payments.HandleStripeWebhook(context.Background(), []byte(payload), signStripePayload(t, payload)); err != nil {
			t.Fatalf("delivery %d: %v", i+1, err)
		}
	}

	var sub models.Subscription
	if err := conn.Where("user_id = ? AND status = ?", 7, models.SubscriptionActive).Take(&sub).Error; err != nil {
		t.Fatalf("load subscription: %v", err)
	}
	if sub.PlanType != models.PlanPremium || sub.StripeSubscriptionID != "sub_1" || sub.StripeCustomerID != "cus_1" {
		t.Fatalf("unexpected subscription: %+v", sub)
	}
	var events int64
	if err := conn.Model(&models.PaymentEvent{}).Where("provider = ?", ProviderStripe).Count(&events).Error; err != nil {
		t.Fatalf("count events: %v", err)
	}
	if events != 1 {
		t.Fatalf("expected one recorded event, got %d", events)
	}

	deleted := `{"id":"evt_2","object":"event","type":"customer.subscription.deleted","data":{"object":{"id":"sub_1","object":"subscription"}}}`
	if err := payments.HandleStripeWebhook(context.Background(), []byte(deleted), signStripePayload(t, deleted)); err != nil {
		t.Fatalf("subscription deleted: %v", err)
	}
	if err := conn.Where("id = ?", sub.ID).Take(&sub).Error; err != nil {
		t.Fatalf("reload subscription: %v", err)
	}
	if sub.Status != models.SubscriptionCancelled {
		t.Fatalf("expected cancelled, got %s", sub.Status)
	}
}

func TestHandleStripeWebhook_UnpaidSessionIgnored(t *testing.T) {
	conn, svc := openTestService(t)
	payments := NewPayments(svc, newTestStripe(nil), nil, nil, nil)

	payload := `{"id":"evt_3","object":"event","type":"checkout.session.completed","data":{"object":{"id":"cs_3","object":"checkout.session","payment_status":"unpaid","metadata":{"userId":"8"}}}}`
	if err := payments.HandleStripeWebhook(context.Background(), []byte(payload), signStripePayload(t, payload)); err != nil {
		t.Fatalf("webhook: %v", err)
	}
	if n := countSubscriptions(t, conn, 8, ""); n != 0 {
		t.Fatalf("expected no grant for unpaid session, got %d rows", n)
	}
}

func TestHandleStripeWebhook_RejectsBadSignature(t *testing.T) {
	_, svc := openTestService(t)
	payments := NewPayments(svc, newTestStripe(nil), nil, nil, nil)

	payload := `{"id":"evt_4","object":"event","type":"checkout.session.completed","data":{"object":{"id":"cs_4","object":"checkout.session","metadata":{"userId":"9"}}}}`
	err := payments.HandleStripeWebhook(context.Background(), []byte(payload), "t=1,v1=deadbeef")
	if !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
}

func TestCreateCheckout_SendsSubscriptionSession(t *testing.T) {
	var form map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/checkout/sessions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		form = map[string]string{
			"mode":            r.PostForm.Get("mode"),
			"userId":          r.PostForm.Get("metadata[userId]"),
			"customer_email":  r.PostForm.Get("customer_email"),
			"cancel_url":      r.PostForm.Get("cancel_url"),
			"line_item_price": r.PostForm.Get("line_items[0][price]"),
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"cs_test_1","object":"checkout.session","url":"https://checkout.stripe.com/c/pay/cs_test_1"}`))
	}))
	defer server.Close()

	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		URL:               stripe.String(server.URL),
		HTTPClient:        server.Client(),
		MaxNetworkRetries: stripe.Int64(0),
	})
	provider := newTestStripe(backend)

	sess, err := provider.CreateCheckout(context.Background(), 42, "user@example.com", provider.DefaultPriceID())
	if err != nil {
		t.Fatalf("create checkout: %v", err)
	}
	if sess.ID != "cs_test_1" {
		t.Fatalf("expected session id cs_test_1, got %q", sess.ID)
	}
	if form["mode"] != "subscription" || form["userId"] != "42" || form["customer_email"] != "user@example.com" {
		t.Fatalf("unexpected checkout params: %+v", form)
	}
	if form["cancel_url"] != "https://diary.example.com/payment/cancel" || form["line_item_price"] != "price_monthly" {
		t.Fatalf("unexpected urls or price: %+v", form)
	}
}
