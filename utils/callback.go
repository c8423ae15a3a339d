package utils

import (
	"io"
	"net/http"
	"net/url"
	"strings"
)

// CallbackFields is the canonical, case-insensitive view of whatever the
// gateway sent. All keys are lower-cased at the boundary; everything
// downstream works on canonical keys only.
type CallbackFields map[string]string

func (f CallbackFields) Get(key string) string {
	return f[strings.ToLower(key)]
}

func (f CallbackFields) Set(key, value string) {
	f[strings.ToLower(key)] = value
}

// NormalizeCallback flattens a gateway callback into canonical fields. The
// gateway may deliver either verb: query parameters are always merged, and a
// POST form body is merged on top.
//
// pathTxnID is the authoritative lookup key and is only written into the map
// when the payload itself carried no txnid. A body txnid that disagrees with
// the path is evidence for the verifier, not something to paper over.
//
// Parse failures never abort: the returned map always carries at least the
// path txnid. The raw body is returned for the audit trail when readable.
func NormalizeCallback(r *http.Request, pathTxnID string) (CallbackFields, string) {
	fields := make(CallbackFields)

	for k, vals := range r.URL.Query() {
		if len(vals) > 0 {
			fields.Set(k, vals[0])
		}
	}

	raw := ""
	if r.Method == http.MethodPost && r.Body != nil {
		body, err := io.ReadAll(r.Body)
		if err == nil {
			raw = string(body)
			if vals, perr := url.ParseQuery(raw); perr == nil {
				for k, vs := range vals {
					if len(vs) > 0 {
						fields.Set(k, vs[0])
					}
				}
			}
		}
	}

	if fields.Get("txnid") == "" {
		fields.Set("txnid", pathTxnID)
	}

	return fields, raw
}
