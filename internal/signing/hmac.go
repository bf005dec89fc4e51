package signing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
)

// HeaderName carries the signature on every webhook request.
const HeaderName = "X-Line-Signature"

// Sign returns the base64 encoded HMAC-SHA256 of body keyed by the channel secret.
func Sign(secret string, body []byte) string {
	return base64.StdEncoding.EncodeToString(digest(secret, body))
}

// Verify reports whether signature matches body. The comparison runs in
// constant time.
func Verify(secret string, body []byte, signature string) bool {
	if secret == "" || signature == "" {
		return false
	}
	got, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return false
	}
	return hmac.Equal(digest(secret, body), got)
}

func digest(secret string, body []byte) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return mac.Sum(nil)
}
