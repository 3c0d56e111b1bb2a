package utils

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"
)

// WebhookSignaturePayload builds the canonical string the gateway signs:
// transactionId|orderId|amount|status|timestamp. Amount is fixed to two
// decimals so both sides format it identically.
func WebhookSignaturePayload(transactionID, orderID string, amount float64, status, timestamp string) string {
	return fmt.Sprintf("%s|%s|%.2f|%s|%s", transactionID, orderID, amount, status, timestamp)
}

// ComputeWebhookSignature returns the hex HMAC-SHA256 of the payload
func ComputeWebhookSignature(secret, payload string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyWebhookSignature recomputes the expected signature and compares in
// constant time.
func VerifyWebhookSignature(secret, payload, signature string) bool {
	expected := ComputeWebhookSignature(secret, payload)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(signature)) == 1
}

// ParseWebhookTimestamp accepts RFC3339 or unix seconds. Gateways are not
// consistent about the format, so an unparseable timestamp returns ok=false
// rather than an error; the caller decides how strict to be.
func ParseWebhookTimestamp(timestamp string) (time.Time, bool) {
	if ts, err := time.Parse(time.RFC3339, timestamp); err == nil {
		return ts, true
	}
	if secs, err := strconv.ParseInt(timestamp, 10, 64); err == nil && secs > 0 {
		return time.Unix(secs, 0), true
	}
	return time.Time{}, false
}

// WithinSkew reports whether the event timestamp falls within maxSkew of the
// current time. maxSkew <= 0 disables the window.
func WithinSkew(ts time.Time, maxSkew time.Duration) bool {
	if maxSkew <= 0 {
		return true
	}
	diff := time.Since(ts)
	if diff < 0 {
		diff = -diff
	}
	return diff <= maxSkew
}
