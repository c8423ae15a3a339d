package utils

import (
	"strings"

	"github.com/google/uuid"
)

// GenerateTxnID issues a fresh transaction id. The id is generated exactly
// once, before the first outbound request, and is never reused; the gateway
// treats it as an opaque string.
func GenerateTxnID() string {
	return "TIX-" + strings.ReplaceAll(uuid.NewString(), "-", "")
}
