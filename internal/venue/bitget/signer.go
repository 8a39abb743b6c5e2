package bitget

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strconv"
	"time"
)

// Signer produces the ACCESS-* authentication headers for the Bitget v2 API.
type Signer struct {
	accessKey  string
	secretKey  string
	passphrase string
	now        func() time.Time
}

// NewSigner creates a signer for one credential triple.
func NewSigner(accessKey, secretKey, passphrase string) *Signer {
	return &Signer{
		accessKey:  accessKey,
		secretKey:  secretKey,
		passphrase: passphrase,
		now:        time.Now,
	}
}

// Headers signs one request. The pre-signature string is
// timestamp + method + requestPath(+ "?" + query) + body.
func (s *Signer) Headers(method, path, query, body string) map[string]string {
	timestamp := strconv.FormatInt(s.now().UnixMilli(), 10)

	requestPath := path
	if query != "" {
		requestPath += "?" + query
	}

	return map[string]string{
		"ACCESS-KEY":        s.accessKey,
		"ACCESS-SIGN":       s.Sign(timestamp, method, requestPath, body),
		"ACCESS-TIMESTAMP":  timestamp,
		"ACCESS-PASSPHRASE": s.passphrase,
		"Content-Type":      "application/json",
		"locale":            "en-US",
	}
}

// Sign computes base64(HMAC-SHA256(payload)) over the concatenated parts.
func (s *Signer) Sign(timestamp, method, requestPath, body string) string {
	mac := hmac.New(sha256.New, []byte(s.secretKey))
	mac.Write([]byte(timestamp + method + requestPath + body))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
