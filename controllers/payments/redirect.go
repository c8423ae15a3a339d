package payments

import (
	"net/url"

	"eventix/utils"
)

// BuildResultRedirect computes the browser redirect target for a handled
// callback: always the application's own result page for the txnid, with the
// normalized gateway fields forwarded as query parameters.
//
// The base origin comes from server configuration only, so nothing
// client-controlled can change where the redirect points. The gateway hash
// and the merchant key are dropped from the forwarded set.
func BuildResultRedirect(appBaseURL, outcome, txnid string, fields utils.CallbackFields) string {
	q := url.Values{}
	for k, v := range fields {
		if k == "hash" || k == "key" {
			continue
		}
		q.Set(k, v)
	}
	target := appBaseURL + "/payment/" + outcome + "/" + url.PathEscape(txnid)
	if encoded := q.Encode(); encoded != "" {
		target += "?" + encoded
	}
	return target
}
