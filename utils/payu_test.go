package utils

import (
	"os"
	"strings"
	"testing"
)

func TestNewPayUConfigFromEnv(t *testing.T) {
	t.Setenv("PAYU_KEY", "gtKFFx")
	t.Setenv("PAYU_SALT", "eCwWELxi")
	t.Setenv("APP_BASE_URL", "https://tickets.example.com/")
	t.Setenv("PAYU_ENV", "test")
	os.Unsetenv("PAYU_PAYMENT_URL")
	os.Unsetenv("PAYU_API_URL")

	cfg, err := NewPayUConfigFromEnv()
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	if cfg.PaymentURL != "https://test.payu.in/_payment" {
		t.Fatalf("unexpected payment url %q", cfg.PaymentURL)
	}
	if cfg.AppBaseURL != "https://tickets.example.com" {
		t.Fatalf("trailing slash must be trimmed, got %q", cfg.AppBaseURL)
	}
	if got := cfg.SuccessURL("TIX-a b"); got != "https://tickets.example.com/v1/payments/callback/success/TIX-a%20b" {
		t.Fatalf("unexpected surl %q", got)
	}

	t.Setenv("PAYU_KEY", "")
	if _, err := NewPayUConfigFromEnv(); err == nil {
		t.Fatalf("expected error when key missing")
	}
}

func TestBuildPaymentFormEscapes(t *testing.T) {
	cfg := PayUConfig{
		Key:        "gtKFFx",
		Salt:       "eCwWELxi",
		PaymentURL: "https://test.payu.in/_payment",
		AppBaseURL: "https://tickets.example.com",
	}
	r := &PaymentRequest{
		TxnID:       "TIX-abc",
		Amount:      "500.00",
		ProductInfo: `{"name":"<script>alert(1)</script>"}`,
		Firstname:   "Asha",
		Email:       "asha@example.com",
		Phone:       "9876543210",
		SURL:        cfg.SuccessURL("TIX-abc"),
		FURL:        cfg.FailureURL("TIX-abc"),
	}
	hash, err := SignRequest(cfg.Key, cfg.Salt, r)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	form := BuildPaymentForm(cfg, r, hash)
	if strings.Contains(form, "<script>alert(1)</script>") {
		t.Fatalf("productinfo not escaped")
	}
	if !strings.Contains(form, `action="https://test.payu.in/_payment"`) {
		t.Fatalf("gateway action missing")
	}
	if !strings.Contains(form, `name="service_provider" value="payu_paisa"`) {
		t.Fatalf("service_provider field missing")
	}
	if !strings.Contains(form, `name="hash" value="`+hash+`"`) {
		t.Fatalf("hash field missing")
	}
}
