package sign

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

var (
	ErrSignInvalid = errors.New("sign invalid")
)

type ISign interface {
	Sign(data string) string
	Verify(data, sign string) error
}

// HMACSign signs and verifies opaque strings with HMAC-SHA256, hex encoded.
type HMACSign struct {
	secret []byte
}

func NewHMACSign(secret []byte) *HMACSign {
	return &HMACSign{secret: secret}
}

func (s *HMACSign) Sign(data string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(data))
	return hex.EncodeToString(mac.Sum(nil))
}

func (s *HMACSign) Verify(data, sign string) error {
	expected := s.Sign(data)
	if !hmac.Equal([]byte(expected), []byte(sign)) {
		return ErrSignInvalid
	}
	return nil
}
