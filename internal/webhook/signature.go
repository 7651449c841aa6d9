package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// signaturePrefix is the scheme tag Meta puts in front of the hex
// digest in X-Hub-Signature-256.
const signaturePrefix = "sha256="

// ValidSignature reports whether header is a well-formed
// X-Hub-Signature-256 value matching HMAC-SHA256(appSecret, body).
// Comparison is constant-time.
func ValidSignature(appSecret string, body []byte, header string) bool {
	if !strings.HasPrefix(header, signaturePrefix) {
		return false
	}

	got, err := hex.DecodeString(header[len(signaturePrefix):])
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, []byte(appSecret))
	mac.Write(body)
	return hmac.Equal(got, mac.Sum(nil))
}

// SignBody computes the X-Hub-Signature-256 header value for body.
// Used by tests and never by the production path.
func SignBody(appSecret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(appSecret))
	mac.Write(body)
	return signaturePrefix + hex.EncodeToString(mac.Sum(nil))
}
