package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

const signaturePrefix = "sha256="

// Sign returns the X-Ponto-Signature value for payload: the hex HMAC-SHA256
// of the body under secret, prefixed with the algorithm.
func Sign(secret string, payload []byte) string {
	return signaturePrefix + hex.EncodeToString(digest(secret, payload))
}

// Verify checks a received signature header. Receivers may strip the prefix.
func Verify(secret string, payload []byte, signature string) bool {
	got, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(signature), signaturePrefix))
	if err != nil || len(got) != sha256.Size {
		return false
	}
	return hmac.Equal(got, digest(secret, payload))
}

func digest(secret string, payload []byte) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return mac.Sum(nil)
}
