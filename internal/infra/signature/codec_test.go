package signature

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"encoding/base64"
	"testing"

	domainerrors "puffsocial/internal/domain/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "0123456789abcdef0123456789abcdef"

// encrypt mirrors what device firmware does: PKCS#7 pad, AES-256-CBC with a
// zero IV, signature = base64(SHA-256(plaintext)).
func encrypt(t *testing.T, plaintext []byte) (ciphertext []byte, sig string) {
	t.Helper()

	block, err := aes.NewCipher([]byte(testKey))
	require.NoError(t, err)

	pad := aes.BlockSize - len(plaintext)%aes.BlockSize
	padded := make([]byte, len(plaintext)+pad)
	copy(padded, plaintext)
	for i := len(plaintext); i < len(padded); i++ {
		padded[i] = byte(pad)
	}

	iv := make([]byte, aes.BlockSize)
	ciphertext = make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, padded)

	sum := sha256.Sum256(plaintext)

	return ciphertext, base64.StdEncoding.EncodeToString(sum[:])
}

func TestNew_RejectsWrongKeyLength(t *testing.T) {
	_, err := New("short")
	assert.Error(t, err)
}

func TestVerify_RoundTrip(t *testing.T) {
	codec, err := New(testKey)
	require.NoError(t, err)

	payload := []byte(`{"device":{"mac":"AA:BB:CC:DD:EE:FF","totalDabs":10}}`)
	ciphertext, sig := encrypt(t, payload)

	plaintext, err := codec.Verify(ciphertext, sig)
	require.NoError(t, err)
	assert.Equal(t, payload, plaintext)
}

func TestVerify_CiphertextMutation(t *testing.T) {
	codec, err := New(testKey)
	require.NoError(t, err)

	ciphertext, sig := encrypt(t, []byte("some payload"))

	for i := range ciphertext {
		mutated := make([]byte, len(ciphertext))
		copy(mutated, ciphertext)
		mutated[i] ^= 0x01

		_, err := codec.Verify(mutated, sig)
		assert.ErrorIs(t, err, domainerrors.ErrInvalidSignature, "flipped byte %d", i)
	}
}

func TestVerify_SignatureMutation(t *testing.T) {
	codec, err := New(testKey)
	require.NoError(t, err)

	ciphertext, sig := encrypt(t, []byte("some payload"))

	mutated := []byte(sig)
	mutated[0] ^= 0x01

	_, err = codec.Verify(ciphertext, string(mutated))
	assert.ErrorIs(t, err, domainerrors.ErrInvalidSignature)
}

func TestVerify_MalformedCiphertext(t *testing.T) {
	codec, err := New(testKey)
	require.NoError(t, err)

	cases := map[string][]byte{
		"empty":          {},
		"partial block":  make([]byte, aes.BlockSize-1),
		"not block size": make([]byte, aes.BlockSize+3),
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := codec.Verify(body, "sig")
			assert.ErrorIs(t, err, domainerrors.ErrInvalidSignature)
		})
	}
}
