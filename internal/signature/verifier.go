package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// version is the Slack signing scheme version prefix.
const version = "v0"

// Sign computes the signature for a payload:
// "v0=" + hex(HMAC-SHA256(secret, "v0:{timestamp}:{body}")).
func Sign(secret, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(version + ":" + timestamp + ":"))
	mac.Write(body)
	return version + "=" + hex.EncodeToString(mac.Sum(nil))
}

// Verifier authenticates inbound webhook payloads against the shared signing
// secret. It is the sole authentication boundary and runs before any parsing.
type Verifier struct {
	secret string
}

// NewVerifier creates a verifier for the given signing secret.
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: secret}
}

// Verify reports whether signature matches the expected signature for body and
// timestamp. The comparison is constant-time. Any missing input (secret, body,
// timestamp, or signature) short-circuits to false.
func (v *Verifier) Verify(body []byte, timestamp, signature string) bool {
	if v.secret == "" || len(body) == 0 || timestamp == "" || signature == "" {
		return false
	}
	expected := Sign(v.secret, timestamp, body)
	return hmac.Equal([]byte(expected), []byte(signature))
}
