package payments

import (
	"net/url"
	"strings"
	"testing"

	"eventix/utils"
)

func TestBuildResultRedirectDropsSecrets(t *testing.T) {
	fields := utils.CallbackFields{}
	fields.Set("status", "success")
	fields.Set("txnid", "TIX-abc")
	fields.Set("mihpayid", "40399371")
	fields.Set("hash", "deadbeef")
	fields.Set("key", "gtKFFx")

	loc := BuildResultRedirect("https://tickets.example.com", "success", "TIX-abc", fields)
	u, err := url.Parse(loc)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if u.Path != "/payment/success/TIX-abc" {
		t.Fatalf("unexpected path %q", u.Path)
	}
	q := u.Query()
	if q.Get("hash") != "" || q.Get("key") != "" {
		t.Fatalf("hash/key leaked into redirect: %s", loc)
	}
	if q.Get("mihpayid") != "40399371" || q.Get("status") != "success" {
		t.Fatalf("expected gateway fields forwarded, got %s", loc)
	}
}

func TestBuildResultRedirectFixedOrigin(t *testing.T) {
	// A hostile txnid cannot steer the redirect off our origin.
	fields := utils.CallbackFields{}
	loc := BuildResultRedirect("https://tickets.example.com", "failure", "../..//evil.example.com", fields)
	if !strings.HasPrefix(loc, "https://tickets.example.com/payment/failure/") {
		t.Fatalf("redirect escaped fixed origin: %s", loc)
	}
	if strings.Contains(loc, "//evil.example.com") {
		t.Fatalf("txnid not escaped: %s", loc)
	}
}

func TestBuildResultRedirectNoFields(t *testing.T) {
	loc := BuildResultRedirect("https://tickets.example.com", "failure", "TIX-x", utils.CallbackFields{})
	if loc != "https://tickets.example.com/payment/failure/TIX-x" {
		t.Fatalf("unexpected redirect %q", loc)
	}
}
