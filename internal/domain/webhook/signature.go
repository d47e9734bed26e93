package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
)

// VerifySignature checks a webhook delivery's HMAC-SHA256 signature.
//
// Shopify sends an X-Shopify-Hmac-Sha256 header containing the
// base64-encoded HMAC-SHA256 digest of the raw request body, keyed with the
// tenant's webhook secret. The digest must be computed over the exact bytes
// received: a parsed-and-reserialized body is not guaranteed byte-identical.
//
// Returns false, never an error, on missing signature, empty secret,
// empty body, or mismatch. The comparison is constant time.
func VerifySignature(secret string, rawBody []byte, signature string) bool {
	if secret == "" || len(rawBody) == 0 || signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(rawBody)
	computed := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(computed), []byte(signature))
}

// ComputeSignature produces the signature Shopify would send for a body
func ComputeSignature(secret string, rawBody []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(rawBody)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
