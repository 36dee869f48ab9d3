package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// EncryptedEnvelope is the hybrid-encryption bundle for end-to-end secured
// user data. The message body is encrypted with a throwaway symmetric key;
// that key is itself wrapped using a shared secret derived via ECDH between
// a per-message ephemeral keypair and the recipient's public key. The
// recipient's private key never travels, and a fresh ephemeral key per
// message gives forward secrecy even if one shared secret later leaks.
//
// All fields are hex-encoded.
type EncryptedEnvelope struct {
	EphemeralPublicKey string `json:"epk"`
	IV                 string `json:"iv"`
	EncryptedKey       string `json:"key"`
	Ciphertext         string `json:"ct"`
}

// DecryptionError reports a malformed envelope or a cipher/authentication
// failure. Unlike signature verification it is always propagated, never
// swallowed: the caller must know its payload did not open.
type DecryptionError struct {
	Reason string
	Err    error
}

func (e *DecryptionError) Error() string {
	if e.Err != nil {
		return "cryptox: decryption failed: " + e.Reason + ": " + e.Err.Error()
	}
	return "cryptox: decryption failed: " + e.Reason
}

func (e *DecryptionError) Unwrap() error { return e.Err }

const (
	symmetricKeyLength = 32 // AES-256
	ivLength           = aes.BlockSize
	envelopeSeparator  = "."
	envelopeParts      = 4
)

// Encrypt seals a message for the holder of recipientPublicKey. Zero-length
// messages are valid input and round-trip to zero-length plaintext.
func Encrypt(message, recipientPublicKey string) (EncryptedEnvelope, error) {
	pub, err := parsePublicKey(recipientPublicKey)
	if err != nil {
		return EncryptedEnvelope{}, err
	}

	symKey := make([]byte, symmetricKeyLength)
	if _, err := io.ReadFull(rand.Reader, symKey); err != nil {
		return EncryptedEnvelope{}, fmt.Errorf("cryptox: failed to generate symmetric key: %w", err)
	}
	iv := make([]byte, ivLength)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return EncryptedEnvelope{}, fmt.Errorf("cryptox: failed to generate IV: %w", err)
	}

	// Encrypt the message body. Plain CTR is enough here: when integrity
	// matters the caller applies an ECDSA signature separately, and the
	// wrapped key below is authenticated.
	block, err := aes.NewCipher(symKey)
	if err != nil {
		return EncryptedEnvelope{}, fmt.Errorf("cryptox: failed to create cipher: %w", err)
	}
	ciphertext := make([]byte, len(message))
	cipher.NewCTR(block, iv).XORKeyStream(ciphertext, []byte(message))

	// Ephemeral keypair, used for exactly this one message.
	ephemeral, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return EncryptedEnvelope{}, fmt.Errorf("cryptox: failed to generate ephemeral key: %w", err)
	}

	wrapped, err := wrapKey(symKey, ephemeral, pub)
	if err != nil {
		return EncryptedEnvelope{}, err
	}

	return EncryptedEnvelope{
		EphemeralPublicKey: hex.EncodeToString(ephemeral.PubKey().SerializeCompressed()),
		IV:                 hex.EncodeToString(iv),
		EncryptedKey:       hex.EncodeToString(wrapped),
		Ciphertext:         hex.EncodeToString(ciphertext),
	}, nil
}

// Decrypt opens an envelope using the recipient's private key. It fails
// with *DecryptionError on malformed envelopes or key-unwrap failure.
func Decrypt(envelope EncryptedEnvelope, recipientPrivateKey string) (string, error) {
	priv, err := parsePrivateKey(recipientPrivateKey)
	if err != nil {
		return "", err
	}

	ephemeralRaw, err := hex.DecodeString(envelope.EphemeralPublicKey)
	if err != nil {
		return "", &DecryptionError{Reason: "bad ephemeral public key", Err: err}
	}
	ephemeral, err := secp256k1.ParsePubKey(ephemeralRaw)
	if err != nil {
		return "", &DecryptionError{Reason: "bad ephemeral public key", Err: err}
	}

	iv, err := hex.DecodeString(envelope.IV)
	if err != nil {
		return "", &DecryptionError{Reason: "bad IV", Err: err}
	}
	if len(iv) != ivLength {
		return "", &DecryptionError{Reason: "bad IV length"}
	}

	wrapped, err := hex.DecodeString(envelope.EncryptedKey)
	if err != nil {
		return "", &DecryptionError{Reason: "bad encrypted key", Err: err}
	}
	ciphertext, err := hex.DecodeString(envelope.Ciphertext)
	if err != nil {
		return "", &DecryptionError{Reason: "bad ciphertext", Err: err}
	}

	symKey, err := unwrapKey(wrapped, priv, ephemeral)
	if err != nil {
		return "", err
	}

	block, err := aes.NewCipher(symKey)
	if err != nil {
		return "", &DecryptionError{Reason: "bad symmetric key", Err: err}
	}
	plaintext := make([]byte, len(ciphertext))
	cipher.NewCTR(block, iv).XORKeyStream(plaintext, ciphertext)

	return string(plaintext), nil
}

// Encode renders the envelope as a compact dot-separated string suitable
// for storage in a single column or header.
func (e EncryptedEnvelope) Encode() string {
	return strings.Join([]string{
		e.EphemeralPublicKey, e.IV, e.EncryptedKey, e.Ciphertext,
	}, envelopeSeparator)
}

// ParseEnvelope parses the compact form produced by Encode. Structurally
// invalid input fails with *DecryptionError so callers see one error type
// for "this did not open" regardless of where it fell apart.
func ParseEnvelope(s string) (EncryptedEnvelope, error) {
	parts := strings.Split(s, envelopeSeparator)
	if len(parts) != envelopeParts {
		return EncryptedEnvelope{}, &DecryptionError{Reason: "malformed envelope"}
	}
	return EncryptedEnvelope{
		EphemeralPublicKey: parts[0],
		IV:                 parts[1],
		EncryptedKey:       parts[2],
		Ciphertext:         parts[3],
	}, nil
}

// DecryptString is Decrypt over the compact string form.
func DecryptString(s, recipientPrivateKey string) (string, error) {
	envelope, err := ParseEnvelope(s)
	if err != nil {
		return "", err
	}
	return Decrypt(envelope, recipientPrivateKey)
}

// wrapKey encrypts the symmetric key with AES-256-GCM under a key-encryption
// key derived from ECDH between the ephemeral private key and the recipient's
// public key.
func wrapKey(symKey []byte, ephemeral *secp256k1.PrivateKey, recipient *secp256k1.PublicKey) ([]byte, error) {
	kek := sha256.Sum256(secp256k1.GenerateSharedSecret(ephemeral, recipient))

	block, err := aes.NewCipher(kek[:])
	if err != nil {
		return nil, fmt.Errorf("cryptox: failed to create key cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("cryptox: failed to create GCM: %w", err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("cryptox: failed to generate nonce: %w", err)
	}

	// gcm.Seal appends the sealed key and auth tag to the nonce
	return gcm.Seal(nonce, nonce, symKey, nil), nil
}

// unwrapKey re-derives the same shared secret from the recipient's private
// key and the embedded ephemeral public key, then opens the wrapped key.
func unwrapKey(wrapped []byte, recipient *secp256k1.PrivateKey, ephemeral *secp256k1.PublicKey) ([]byte, error) {
	kek := sha256.Sum256(secp256k1.GenerateSharedSecret(recipient, ephemeral))

	block, err := aes.NewCipher(kek[:])
	if err != nil {
		return nil, &DecryptionError{Reason: "key unwrap failed", Err: err}
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, &DecryptionError{Reason: "key unwrap failed", Err: err}
	}

	if len(wrapped) < gcm.NonceSize() {
		return nil, &DecryptionError{Reason: "encrypted key too short"}
	}

	nonce, sealed := wrapped[:gcm.NonceSize()], wrapped[gcm.NonceSize():]
	symKey, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, &DecryptionError{Reason: "key unwrap failed", Err: err}
	}

	return symKey, nil
}
