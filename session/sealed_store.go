package session

import (
	"context"
	"crypto/rand"
	"fmt"
	"time"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

const (
	sealSaltSize = 16

	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 2
)

// SealedStore encrypts values with XChaCha20-Poly1305 before handing them to
// the wrapped Store. Each record gets a fresh salt; the key is derived from
// the passphrase with Argon2id. Layout: salt | nonce | ciphertext.
//
// Values that fail authentication (tampering, wrong passphrase, truncation)
// read as ErrCorrupt.
type SealedStore struct {
	inner      Store
	passphrase []byte
}

// NewSealedStore wraps inner.
func NewSealedStore(inner Store, passphrase string) *SealedStore {
	return &SealedStore{inner: inner, passphrase: []byte(passphrase)}
}

func (s *SealedStore) deriveKey(salt []byte) []byte {
	return argon2.IDKey(s.passphrase, salt, argonTime, argonMemory, argonThreads, chacha20poly1305.KeySize)
}

// Get reads and opens the value for key. The key name is bound as
// associated data so a record cannot be replayed under another key.
func (s *SealedStore) Get(ctx context.Context, key string) ([]byte, error) {
	sealed, err := s.inner.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	if len(sealed) < sealSaltSize+chacha20poly1305.NonceSizeX+chacha20poly1305.Overhead {
		return nil, fmt.Errorf("%w: sealed value too short", ErrCorrupt)
	}
	salt := sealed[:sealSaltSize]
	nonce := sealed[sealSaltSize : sealSaltSize+chacha20poly1305.NonceSizeX]
	ct := sealed[sealSaltSize+chacha20poly1305.NonceSizeX:]

	aead, err := chacha20poly1305.NewX(s.deriveKey(salt))
	if err != nil {
		return nil, err
	}
	plain, err := aead.Open(nil, nonce, ct, []byte(key))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return plain, nil
}

// Set seals value and stores it under key.
func (s *SealedStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	buf := make([]byte, sealSaltSize+chacha20poly1305.NonceSizeX, sealSaltSize+chacha20poly1305.NonceSizeX+len(value)+chacha20poly1305.Overhead)
	if _, err := rand.Read(buf); err != nil {
		return err
	}
	salt := buf[:sealSaltSize]
	nonce := buf[sealSaltSize:]

	aead, err := chacha20poly1305.NewX(s.deriveKey(salt))
	if err != nil {
		return err
	}
	sealed := aead.Seal(buf, nonce, value, []byte(key))
	return s.inner.Set(ctx, key, sealed, ttl)
}

// Delete removes key from the wrapped store.
func (s *SealedStore) Delete(ctx context.Context, key string) error {
	return s.inner.Delete(ctx, key)
}
