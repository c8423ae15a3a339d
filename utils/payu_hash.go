package utils

import (
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// The gateway fixes two DIFFERENT positional field orders, one per direction.
// This is the gateway's own convention, not a bug. Keep them as two separate
// builders and never assume one is the mirror image of the other.
//
// Outbound (request signing):
//
//	key|txnid|amount|productinfo|firstname|email|udf1|udf2|udf3|udf4|udf5||||||SALT
//
// Inbound (callback verification):
//
//	SALT|status||||||udf5|udf4|udf3|udf2|udf1|email|firstname|productinfo|amount|txnid|key
//
// When the gateway applied additional charges it prefixes them to the inbound
// string: additionalCharges|SALT|status|... (the legacy variant below).

var (
	ErrHashMismatch = errors.New("callback hash mismatch")
	ErrHashMissing  = errors.New("callback hash not recomputable")
)

// PaymentRequest holds the outbound initiation fields in their protocol
// meaning. Amount is kept as the exact string submitted to the gateway so the
// echoed value hashes byte-for-byte on the way back.
type PaymentRequest struct {
	TxnID       string
	Amount      string
	ProductInfo string
	Firstname   string
	Email       string
	Phone       string
	SURL        string
	FURL        string
	UDF1        string
	UDF2        string
	UDF3        string
	UDF4        string
	UDF5        string
}

func sha512hex(s string) string {
	sum := sha512.Sum512([]byte(s))
	return hex.EncodeToString(sum[:])
}

// SignRequest computes the outbound request hash. Every field the gateway
// treats as mandatory must be non-empty; a request must never be sent to the
// gateway without a valid signature.
func SignRequest(key, salt string, r *PaymentRequest) (string, error) {
	required := map[string]string{
		"key":         key,
		"salt":        salt,
		"txnid":       r.TxnID,
		"amount":      r.Amount,
		"productinfo": r.ProductInfo,
		"firstname":   r.Firstname,
		"email":       r.Email,
	}
	for name, v := range required {
		if strings.TrimSpace(v) == "" {
			return "", fmt.Errorf("sign request: missing %s", name)
		}
	}
	input := strings.Join([]string{
		key, r.TxnID, r.Amount, r.ProductInfo, r.Firstname, r.Email,
		r.UDF1, r.UDF2, r.UDF3, r.UDF4, r.UDF5,
		"", "", "", "", "",
		salt,
	}, "|")
	return sha512hex(input), nil
}

// reverseHashInput builds the inbound verification string from canonical
// callback fields. Field order here is the gateway's inbound contract.
func reverseHashInput(salt string, f CallbackFields, key string) string {
	return strings.Join([]string{
		salt, f.Get("status"),
		"", "", "", "", "",
		f.Get("udf5"), f.Get("udf4"), f.Get("udf3"), f.Get("udf2"), f.Get("udf1"),
		f.Get("email"), f.Get("firstname"), f.Get("productinfo"), f.Get("amount"), f.Get("txnid"),
		key,
	}, "|")
}

// VerifyCallbackHash recomputes the inbound hash from the canonical callback
// fields and compares it against the gateway-supplied one in constant time.
// Returns nil on a match, ErrHashMismatch when the recomputed digest differs
// (tampered fields or wrong salt), and ErrHashMissing when the callback does
// not carry enough to recompute at all.
func VerifyCallbackHash(key, salt string, f CallbackFields) error {
	supplied := strings.ToLower(strings.TrimSpace(f.Get("hash")))
	if supplied == "" || f.Get("status") == "" || f.Get("txnid") == "" {
		return ErrHashMissing
	}

	expected := sha512hex(reverseHashInput(salt, f, key))
	if subtle.ConstantTimeCompare([]byte(expected), []byte(supplied)) == 1 {
		return nil
	}

	// Legacy variant: gateways that add charges prefix them to the string.
	if ac := f.Get("additionalcharges"); ac != "" {
		alt := sha512hex(ac + "|" + reverseHashInput(salt, f, key))
		if subtle.ConstantTimeCompare([]byte(alt), []byte(supplied)) == 1 {
			return nil
		}
	}

	return ErrHashMismatch
}

// SignCommand computes the hash for server-to-server API commands
// (key|command|var1|SALT), used by the out-of-band verify_payment call.
func SignCommand(key, salt, command, var1 string) string {
	return sha512hex(strings.Join([]string{key, command, var1, salt}, "|"))
}
