package webhooks

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

const sigPrefix = "sha256="

// Sign returns "sha256=<hex>" of HMAC-SHA256 over timestamp + "." + body.
func Sign(secret, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp))
	mac.Write([]byte{'.'})
	mac.Write(body)
	return sigPrefix + hex.EncodeToString(mac.Sum(nil))
}

// Verify checks a signature produced by Sign. Receivers call it with the
// X-Timestamp header and the raw body.
func Verify(secret, timestamp string, body []byte, provided string) bool {
	got, err := hex.DecodeString(strings.TrimPrefix(provided, sigPrefix))
	if err != nil || !strings.HasPrefix(provided, sigPrefix) {
		return false
	}
	want, _ := hex.DecodeString(strings.TrimPrefix(Sign(secret, timestamp, body), sigPrefix))
	return hmac.Equal(want, got)
}
