package storage

import (
	"context"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

// ErrTampered is returned when a sealed value fails authentication.
var ErrTampered = errors.New("storage: sealed value failed authentication")

var sealSalt = []byte("spinlog/session/v1")

// Sealed encrypts values before they reach the wrapped store. Each value is
// bound to its key, so swapping entries fails authentication.
type Sealed struct {
	inner KV
	aead  cipher.AEAD
}

// NewSealed derives an XChaCha20-Poly1305 key from secret.
func NewSealed(inner KV, secret string) (*Sealed, error) {
	if secret == "" {
		return nil, errors.New("storage: sealing secret is required")
	}
	key := argon2.IDKey([]byte(secret), sealSalt, 1, 64*1024, 4, chacha20poly1305.KeySize)
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", err)
	}
	return &Sealed{inner: inner, aead: aead}, nil
}

// Get implements KV.
func (s *Sealed) Get(ctx context.Context, key string) (string, bool, error) {
	raw, ok, err := s.inner.Get(ctx, key)
	if err != nil || !ok {
		return "", ok, err
	}

	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil || len(data) < s.aead.NonceSize() {
		return "", false, fmt.Errorf("open %q: %w", key, ErrTampered)
	}
	nonce, ciphertext := data[:s.aead.NonceSize()], data[s.aead.NonceSize():]
	plain, err := s.aead.Open(nil, nonce, ciphertext, []byte(key))
	if err != nil {
		return "", false, fmt.Errorf("open %q: %w", key, ErrTampered)
	}
	return string(plain), true, nil
}

// Set implements KV.
func (s *Sealed) Set(ctx context.Context, key, value string) error {
	nonce := make([]byte, s.aead.NonceSize(), s.aead.NonceSize()+len(value)+s.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return fmt.Errorf("generate nonce: %w", err)
	}
	sealed := s.aead.Seal(nonce, nonce, []byte(value), []byte(key))
	return s.inner.Set(ctx, key, base64.StdEncoding.EncodeToString(sealed))
}

// Delete implements KV.
func (s *Sealed) Delete(ctx context.Context, keys ...string) error {
	return s.inner.Delete(ctx, keys...)
}

// Close implements KV.
func (s *Sealed) Close() error {
	return s.inner.Close()
}
