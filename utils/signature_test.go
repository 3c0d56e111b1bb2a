package utils

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWebhookSignaturePayloadFormat(t *testing.T) {
	payload := WebhookSignaturePayload("PAY123", "42", 499, "SUCCESS", "2026-08-30T10:00:00Z")
	assert.Equal(t, "PAY123|42|499.00|SUCCESS|2026-08-30T10:00:00Z", payload)
}

func TestVerifyWebhookSignatureRoundTrip(t *testing.T) {
	payload := WebhookSignaturePayload("PAY123", "42", 499.5, "SUCCESS", "1756500000")
	sig := ComputeWebhookSignature("secret", payload)

	assert.True(t, VerifyWebhookSignature("secret", payload, sig))
	assert.False(t, VerifyWebhookSignature("other-secret", payload, sig))
	assert.False(t, VerifyWebhookSignature("secret", payload, "deadbeef"))

	tampered := WebhookSignaturePayload("PAY123", "42", 400, "SUCCESS", "1756500000")
	assert.False(t, VerifyWebhookSignature("secret", tampered, sig))
}

func TestParseWebhookTimestamp(t *testing.T) {
	ts, ok := ParseWebhookTimestamp("2026-08-30T10:00:00Z")
	assert.True(t, ok)
	assert.Equal(t, 2026, ts.Year())

	unix := time.Now().Unix()
	ts, ok = ParseWebhookTimestamp(strconv.FormatInt(unix, 10))
	assert.True(t, ok)
	assert.Equal(t, unix, ts.Unix())

	_, ok = ParseWebhookTimestamp("yesterday-ish")
	assert.False(t, ok)

	_, ok = ParseWebhookTimestamp("")
	assert.False(t, ok)
}

func TestWithinSkew(t *testing.T) {
	now := time.Now()

	assert.True(t, WithinSkew(now, 10*time.Minute))
	assert.True(t, WithinSkew(now.Add(-9*time.Minute), 10*time.Minute))
	assert.True(t, WithinSkew(now.Add(5*time.Minute), 10*time.Minute)) // future skew tolerated too
	assert.False(t, WithinSkew(now.Add(-11*time.Minute), 10*time.Minute))

	// Disabled window accepts anything
	assert.True(t, WithinSkew(now.Add(-24*time.Hour), 0))
}
