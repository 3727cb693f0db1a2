package sign

import (
	"crypto/hmac"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"strings"
)

var (
	ErrSignatureMissing = errors.New("webhook signature missing")
	ErrSignatureInvalid = errors.New("webhook signature invalid")
)

// VerifyWebhook checks an inbound webhook signature against the raw request
// body exactly as received. The upstream vendor has not kept a stable
// canonicalization across integrations, so up to three signed-content
// schemes are tried: body alone, timestamp+body, body+timestamp (the latter
// two only when a timestamp header was supplied). Every comparison is
// constant time; the first matching candidate accepts.
//
// An empty secret skips verification entirely. Callers must log that
// bypass, it is only meant for development.
func VerifyWebhook(body []byte, signature, timestamp, secret string) error {
	if secret == "" {
		return nil
	}

	signature = strings.TrimSpace(signature)
	if signature == "" {
		return ErrSignatureMissing
	}

	// Tolerate algorithm-prefixed headers such as "sha256=<hex>".
	for _, prefix := range []string{"sha256=", "sha256:"} {
		if strings.HasPrefix(signature, prefix) {
			signature = signature[len(prefix):]
			break
		}
	}

	candidates := [][]byte{body}
	if timestamp != "" {
		candidates = append(candidates,
			append([]byte(timestamp), body...),
			append(append([]byte{}, body...), []byte(timestamp)...),
		)
	}

	signer := NewHMACSign([]byte(secret))
	lowered := strings.ToLower(signature)

	for _, content := range candidates {
		hexDigest := signer.Sign(string(content))
		if hmac.Equal([]byte(hexDigest), []byte(lowered)) {
			return nil
		}

		digest, _ := hex.DecodeString(hexDigest)
		if hmac.Equal([]byte(base64.StdEncoding.EncodeToString(digest)), []byte(signature)) {
			return nil
		}
	}

	return ErrSignatureInvalid
}
