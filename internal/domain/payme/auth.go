package payme

import (
	"crypto/subtle"
	"encoding/base64"
	"strings"
)

// MerchantLogin is the fixed login Payme sends in Basic auth.
const MerchantLogin = "Paycom"

// Authenticator verifies the Basic credentials of Payme requests.
type Authenticator struct {
	key string
}

// NewAuthenticator creates an authenticator for the merchant key.
func NewAuthenticator(key string) *Authenticator {
	return &Authenticator{key: key}
}

// Verify reports whether the Authorization header carries the merchant
// credentials. Any decoding failure is reported as false.
func (a *Authenticator) Verify(header string) bool {
	if a.key == "" {
		return false
	}
	const prefix = "Basic "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return false
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(header[len(prefix):]))
	if err != nil {
		return false
	}
	login, password, ok := strings.Cut(string(raw), ":")
	if !ok {
		return false
	}
	loginOK := subtle.ConstantTimeCompare([]byte(login), []byte(MerchantLogin))
	keyOK := subtle.ConstantTimeCompare([]byte(password), []byte(a.key))
	return loginOK&keyOK == 1
}
