package service

// PayloadVerifier authenticates and opens the envelope wrapping signed
// telemetry bodies.
type PayloadVerifier interface {
	// Verify decrypts the ciphertext and checks its signature, returning the
	// plaintext payload. Any tampering or malformed envelope fails.
	Verify(ciphertext []byte, sig string) ([]byte, error)
}
