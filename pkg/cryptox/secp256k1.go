package cryptox

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	secpecdsa "github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
)

// KeyPair is a user's secp256k1 keypair. Both halves are hex-encoded: the
// public key in compressed SEC1 form (33 bytes), the private key as the raw
// 32-byte scalar.
type KeyPair struct {
	PublicKey  string
	PrivateKey string
}

const privateKeyLength = 32

// GenerateKeyPair generates a fresh secp256k1 keypair. Every call draws
// independent randomness; two calls never share key material.
func GenerateKeyPair() (KeyPair, error) {
	priv, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return KeyPair{}, fmt.Errorf("cryptox: failed to generate secp256k1 key: %w", err)
	}

	return KeyPair{
		PublicKey:  hex.EncodeToString(priv.PubKey().SerializeCompressed()),
		PrivateKey: hex.EncodeToString(priv.Serialize()),
	}, nil
}

// Sign hashes the message with SHA-256 and signs the digest with the
// signer's private key. The signature is returned as DER-encoded hex.
func Sign(message, privateKey string) (string, error) {
	priv, err := parsePrivateKey(privateKey)
	if err != nil {
		return "", err
	}

	digest := sha256.Sum256([]byte(message))
	sig := secpecdsa.Sign(priv, digest[:])

	return hex.EncodeToString(sig.Serialize()), nil
}

// VerifySignature recomputes the message digest and checks the signature
// against the claimed public key. It is a predicate, not a control-flow
// trigger: malformed signatures, wrong key formats and any other internal
// failure all report false, never an error.
func VerifySignature(message, signature, publicKey string) bool {
	pub, err := parsePublicKey(publicKey)
	if err != nil {
		return false
	}

	der, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}

	sig, err := secpecdsa.ParseDERSignature(der)
	if err != nil {
		return false
	}

	digest := sha256.Sum256([]byte(message))
	return sig.Verify(digest[:], pub)
}

// parsePrivateKey decodes a hex private key into a secp256k1 scalar.
func parsePrivateKey(hexKey string) (*secp256k1.PrivateKey, error) {
	raw, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("cryptox: invalid private key hex: %w", err)
	}
	if len(raw) != privateKeyLength {
		return nil, errors.New("cryptox: invalid private key length")
	}
	return secp256k1.PrivKeyFromBytes(raw), nil
}

// parsePublicKey decodes a hex public key (compressed or uncompressed SEC1).
func parsePublicKey(hexKey string) (*secp256k1.PublicKey, error) {
	raw, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("cryptox: invalid public key hex: %w", err)
	}
	pub, err := secp256k1.ParsePubKey(raw)
	if err != nil {
		return nil, fmt.Errorf("cryptox: invalid public key: %w", err)
	}
	return pub, nil
}
