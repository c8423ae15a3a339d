package utils

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
)

const verifyCommand = "verify_payment"

// PayUConfig carries the gateway credentials and endpoints for one merchant
// environment. Built once at startup and passed explicitly.
type PayUConfig struct {
	Key        string
	Salt       string
	PaymentURL string // hosted payment page the browser is redirected to
	APIBaseURL string // server-to-server API host (verify_payment)
	AppBaseURL string // our own origin; return URLs and result redirects live here
}

// NewPayUConfigFromEnv loads the gateway config. PAYU_KEY, PAYU_SALT and
// APP_BASE_URL are mandatory; PAYU_ENV ("test" or "live", default test)
// selects endpoint defaults, overridable via PAYU_PAYMENT_URL / PAYU_API_URL.
func NewPayUConfigFromEnv() (PayUConfig, error) {
	cfg := PayUConfig{
		Key:        strings.TrimSpace(os.Getenv("PAYU_KEY")),
		Salt:       strings.TrimSpace(os.Getenv("PAYU_SALT")),
		AppBaseURL: strings.TrimRight(strings.TrimSpace(os.Getenv("APP_BASE_URL")), "/"),
	}
	if cfg.Key == "" || cfg.Salt == "" || cfg.AppBaseURL == "" {
		return PayUConfig{}, fmt.Errorf("PAYU_KEY, PAYU_SALT and APP_BASE_URL are required")
	}

	env := strings.ToLower(strings.TrimSpace(os.Getenv("PAYU_ENV")))
	if env == "live" {
		cfg.PaymentURL = "https://secure.payu.in/_payment"
		cfg.APIBaseURL = "https://info.payu.in"
	} else {
		cfg.PaymentURL = "https://test.payu.in/_payment"
		cfg.APIBaseURL = "https://test.payu.in"
	}
	if v := os.Getenv("PAYU_PAYMENT_URL"); v != "" {
		cfg.PaymentURL = v
	}
	if v := os.Getenv("PAYU_API_URL"); v != "" {
		cfg.APIBaseURL = strings.TrimRight(v, "/")
	}
	return cfg, nil
}

// SuccessURL returns the callback return URL the gateway redirects to on a
// successful payment for the given txnid. FailureURL is its counterpart.
func (c PayUConfig) SuccessURL(txnid string) string {
	return c.AppBaseURL + "/v1/payments/callback/success/" + url.PathEscape(txnid)
}

func (c PayUConfig) FailureURL(txnid string) string {
	return c.AppBaseURL + "/v1/payments/callback/failure/" + url.PathEscape(txnid)
}

// formFieldOrder is the gateway's fixed field order for the hosted-page form
// post. Casing and order must match byte-for-byte what was hashed.
var formFieldOrder = []string{
	"key", "txnid", "amount", "productinfo", "firstname", "email", "phone",
	"surl", "furl", "hash", "service_provider",
}

// GatewayFormValues lays out the signed outbound request as the flat field
// set the hosted payment page expects.
func GatewayFormValues(cfg PayUConfig, r *PaymentRequest, hash string) map[string]string {
	return map[string]string{
		"key":              cfg.Key,
		"txnid":            r.TxnID,
		"amount":           r.Amount,
		"productinfo":      r.ProductInfo,
		"firstname":        r.Firstname,
		"email":            r.Email,
		"phone":            r.Phone,
		"surl":             r.SURL,
		"furl":             r.FURL,
		"hash":             hash,
		"service_provider": "payu_paisa",
	}
}

// BuildPaymentForm renders the self-submitting HTML form that hands the
// browser over to the gateway's hosted payment page.
func BuildPaymentForm(cfg PayUConfig, r *PaymentRequest, hash string) string {
	values := GatewayFormValues(cfg, r, hash)
	var b strings.Builder
	b.WriteString("<!DOCTYPE html><html><head><title>Redirecting to payment...</title></head>")
	b.WriteString(`<body onload="document.forms[0].submit()">`)
	fmt.Fprintf(&b, `<form method="post" action="%s">`, html.EscapeString(cfg.PaymentURL))
	for _, name := range formFieldOrder {
		fmt.Fprintf(&b, `<input type="hidden" name="%s" value="%s" />`,
			html.EscapeString(name), html.EscapeString(values[name]))
	}
	b.WriteString(`<noscript><input type="submit" value="Continue to payment" /></noscript>`)
	b.WriteString("</form></body></html>")
	return b.String()
}

// VerifiedTransaction is the per-transaction record returned by the
// gateway's verify_payment API.
type VerifiedTransaction struct {
	MihpayID     string `json:"mihpayid"`
	TxnID        string `json:"txnid"`
	Status       string `json:"status"`
	Amount       string `json:"amt"`
	Mode         string `json:"mode"`
	BankRefNum   string `json:"bank_ref_num"`
	ErrorCode    string `json:"error_code"`
	ErrorMessage string `json:"error_Message"`
}

type verifyPaymentResponse struct {
	Status             int                            `json:"status"`
	Msg                string                         `json:"msg"`
	TransactionDetails map[string]VerifiedTransaction `json:"transaction_details"`
}

// VerifyPayment performs the out-of-band status query against the gateway's
// verification API. A definitive response here carries the same trust as a
// matched callback hash. The caller bounds the call via ctx / client timeout.
func VerifyPayment(ctx context.Context, client *http.Client, cfg PayUConfig, txnid string) (*VerifiedTransaction, error) {
	endpoint := cfg.APIBaseURL + "/merchant/postservice.php?form=2"

	form := url.Values{}
	form.Set("key", cfg.Key)
	form.Set("command", verifyCommand)
	form.Set("var1", txnid)
	form.Set("hash", SignCommand(cfg.Key, cfg.Salt, verifyCommand, txnid))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(resp.Body)

	var result verifyPaymentResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("parse verify response: %w", err)
	}
	if result.Status != 1 {
		return nil, fmt.Errorf("verify_payment rejected: %s", result.Msg)
	}
	txn, ok := result.TransactionDetails[txnid]
	if !ok {
		return nil, fmt.Errorf("verify_payment: no record for %s", txnid)
	}
	return &txn, nil
}

// IsDefinitiveGatewayStatus reports whether an out-of-band status is
// authoritative enough to finalize on. "pending"/"in progress" answers are
// not; the transaction stays as it is.
func IsDefinitiveGatewayStatus(status string) bool {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "success", "failure", "failed":
		return true
	}
	return false
}

// IsGatewaySuccessStatus maps a definitive gateway status onto our
// success/failure axis.
func IsGatewaySuccessStatus(status string) bool {
	return strings.EqualFold(strings.TrimSpace(status), "success")
}
