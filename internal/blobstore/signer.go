package blobstore

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"
)

var (
	ErrExpiredURL       = errors.New("playback url expired")
	ErrInvalidSignature = errors.New("invalid playback signature")
)

// URLSigner mints expiring HMAC-signed playback URLs. This is the
// server-side stand-in for a browser blob URL: valid only for a
// bounded window, recreated from the stored binary on every resolve.
type URLSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewURLSigner(secret string, ttl time.Duration) *URLSigner {
	return &URLSigner{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Sign appends an expiry and signature to the given path.
func (s *URLSigner) Sign(path string) string {
	exp := s.now().Add(s.ttl).Unix()
	sig := s.compute(path, exp)
	return fmt.Sprintf("%s?exp=%d&sig=%s", path, exp, sig)
}

// Verify checks the expiry and signature for a previously signed path.
func (s *URLSigner) Verify(path, expStr, sig string) error {
	exp, err := strconv.ParseInt(expStr, 10, 64)
	if err != nil {
		return ErrInvalidSignature
	}

	expected := s.compute(path, exp)
	if !hmac.Equal([]byte(expected), []byte(sig)) {
		return ErrInvalidSignature
	}

	if s.now().Unix() > exp {
		return ErrExpiredURL
	}
	return nil
}

func (s *URLSigner) compute(path string, exp int64) string {
	mac := hmac.New(sha256.New, s.secret)
	fmt.Fprintf(mac, "%s|%d", path, exp)
	return hex.EncodeToString(mac.Sum(nil))
}
