package blobstore

import (
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"
)

func splitSigned(t *testing.T, signed string) (path, exp, sig string) {
	t.Helper()

	u, err := url.Parse(signed)
	if err != nil {
		t.Fatalf("Failed to parse signed url: %v", err)
	}
	return u.Path, u.Query().Get("exp"), u.Query().Get("sig")
}

func TestURLSigner_RoundTrip(t *testing.T) {
	signer := NewURLSigner("secret", time.Hour)

	signed := signer.Sign("/media/abc")
	if !strings.HasPrefix(signed, "/media/abc?") {
		t.Fatalf("Unexpected signed url: %s", signed)
	}

	path, exp, sig := splitSigned(t, signed)
	if err := signer.Verify(path, exp, sig); err != nil {
		t.Errorf("Expected valid signature, got %v", err)
	}
}

func TestURLSigner_TamperedPath(t *testing.T) {
	signer := NewURLSigner("secret", time.Hour)

	_, exp, sig := splitSigned(t, signer.Sign("/media/abc"))
	if err := signer.Verify("/media/other", exp, sig); !errors.Is(err, ErrInvalidSignature) {
		t.Errorf("Expected ErrInvalidSignature for tampered path, got %v", err)
	}
}

func TestURLSigner_Expired(t *testing.T) {
	signer := NewURLSigner("secret", time.Minute)
	signer.now = func() time.Time { return time.Unix(1000, 0) }

	signed := signer.Sign("/media/abc")
	path, exp, sig := splitSigned(t, signed)

	signer.now = func() time.Time { return time.Unix(1000+61, 0) }
	if err := signer.Verify(path, exp, sig); !errors.Is(err, ErrExpiredURL) {
		t.Errorf("Expected ErrExpiredURL, got %v", err)
	}
}

func TestURLSigner_WrongSecret(t *testing.T) {
	signer := NewURLSigner("secret", time.Hour)
	other := NewURLSigner("different", time.Hour)

	path, exp, sig := splitSigned(t, signer.Sign("/media/abc"))
	if err := other.Verify(path, exp, sig); !errors.Is(err, ErrInvalidSignature) {
		t.Errorf("Expected ErrInvalidSignature across secrets, got %v", err)
	}
}
