package storefs

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strconv"
	"time"

	"github.com/goliatone/go-cvwizard/cv"
)

// SignedURLInput describes a signed URL request.
type SignedURLInput struct {
	BaseURL   string
	Key       string
	ExpiresAt time.Time
}

// SignedURLSigner signs download URLs.
type SignedURLSigner interface {
	SignURL(input SignedURLInput) (string, error)
}

// HMACSigner signs download URLs with an HMAC-SHA256 over key and expiry.
type HMACSigner struct {
	Secret []byte
	Now    func() time.Time
}

// SignURL appends expires and sig query parameters.
func (s HMACSigner) SignURL(input SignedURLInput) (string, error) {
	if len(s.Secret) == 0 {
		return "", cv.NewError(cv.KindValidation, "signing secret is required", nil)
	}
	expires := strconv.FormatInt(input.ExpiresAt.Unix(), 10)
	query := url.Values{}
	query.Set("expires", expires)
	query.Set("sig", s.signature(input.Key, expires))
	return input.BaseURL + "/" + input.Key + "?" + query.Encode(), nil
}

// Verify checks a signature produced by SignURL.
func (s HMACSigner) Verify(key, expires, sig string) error {
	if len(s.Secret) == 0 {
		return cv.NewError(cv.KindValidation, "signing secret is required", nil)
	}
	unix, err := strconv.ParseInt(expires, 10, 64)
	if err != nil {
		return cv.NewError(cv.KindValidation, "invalid expiry", err)
	}
	if !hmac.Equal([]byte(sig), []byte(s.signature(key, expires))) {
		return cv.NewError(cv.KindValidation, "invalid signature", nil)
	}
	if s.now().After(time.Unix(unix, 0)) {
		return cv.NewError(cv.KindTimeout, "download link expired", nil)
	}
	return nil
}

func (s HMACSigner) signature(key, expires string) string {
	mac := hmac.New(sha256.New, s.Secret)
	_, _ = mac.Write([]byte(key))
	_, _ = mac.Write([]byte{'\n'})
	_, _ = mac.Write([]byte(expires))
	return hex.EncodeToString(mac.Sum(nil))
}

func (s HMACSigner) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}
