// Package signature verifies the authenticity envelope wrapping telemetry
// payloads submitted by device firmware.
package signature

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"

	domainerrors "puffsocial/internal/domain/errors"

	"github.com/pkg/errors"
)

// Codec decrypts and verifies signed telemetry bodies. The construction is
// AES-256-CBC with an all-zero IV and a SHA-256-over-plaintext signature;
// it is kept bit-compatible with existing firmware and must not be changed.
type Codec struct {
	key []byte
}

// New creates a Codec from the shared metrics key. The key must be exactly
// 32 bytes.
func New(metricsKey string) (*Codec, error) {
	if len(metricsKey) != 32 {
		return nil, errors.Errorf("metrics key must be 32 bytes, got %d", len(metricsKey))
	}

	return &Codec{key: []byte(metricsKey)}, nil
}

// Verify decrypts the ciphertext and checks the supplied base64 SHA-256
// signature against the plaintext. Every failure mode, including malformed
// ciphertext, surfaces as the same invalid_signature error so cipher
// internals never leak to the caller.
func (c *Codec) Verify(ciphertext []byte, sig string) ([]byte, error) {
	plaintext, err := c.decrypt(ciphertext)
	if err != nil {
		return nil, domainerrors.ErrInvalidSignature
	}

	sum := sha256.Sum256(plaintext)
	expected := base64.StdEncoding.EncodeToString(sum[:])

	if subtle.ConstantTimeCompare([]byte(expected), []byte(sig)) != 1 {
		return nil, domainerrors.ErrInvalidSignature
	}

	return plaintext, nil
}

func (c *Codec) decrypt(ciphertext []byte) ([]byte, error) {
	block, err := aes.NewCipher(c.key)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	if len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return nil, errors.New("ciphertext is not a whole number of blocks")
	}

	iv := make([]byte, aes.BlockSize)
	plaintext := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plaintext, ciphertext)

	return unpadPKCS7(plaintext)
}

func unpadPKCS7(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, errors.New("empty plaintext")
	}

	pad := int(data[len(data)-1])
	if pad == 0 || pad > aes.BlockSize || pad > len(data) {
		return nil, errors.New("invalid padding")
	}

	for _, b := range data[len(data)-pad:] {
		if int(b) != pad {
			return nil, errors.New("invalid padding")
		}
	}

	return data[:len(data)-pad], nil
}
