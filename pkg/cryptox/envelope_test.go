package cryptox_test

import (
	"strings"
	"testing"

	"github.com/relaysuite/trustcore/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	t.Parallel()

	kp, err := cryptox.GenerateKeyPair()
	require.NoError(t, err)

	messages := []string{
		"hello world",
		"", // zero-length plaintext is valid input
		strings.Repeat("long payload ", 512),
		"unicode: éèê 世界",
	}

	for _, message := range messages {
		envelope, err := cryptox.Encrypt(message, kp.PublicKey)
		require.NoError(t, err)

		plaintext, err := cryptox.Decrypt(envelope, kp.PrivateKey)
		require.NoError(t, err)
		require.Equal(t, message, plaintext)
	}
}

func TestEncryptEnvelopeShape(t *testing.T) {
	t.Parallel()

	kp, err := cryptox.GenerateKeyPair()
	require.NoError(t, err)

	a, err := cryptox.Encrypt("same message", kp.PublicKey)
	require.NoError(t, err)
	b, err := cryptox.Encrypt("same message", kp.PublicKey)
	require.NoError(t, err)

	// Fresh ephemeral key, symmetric key and IV per message.
	require.NotEqual(t, a.EphemeralPublicKey, b.EphemeralPublicKey)
	require.NotEqual(t, a.IV, b.IV)
	require.NotEqual(t, a.Ciphertext, b.Ciphertext)
}

func TestDecryptFailures(t *testing.T) {
	t.Parallel()

	kp, err := cryptox.GenerateKeyPair()
	require.NoError(t, err)

	envelope, err := cryptox.Encrypt("secret", kp.PublicKey)
	require.NoError(t, err)

	t.Run("wrong private key", func(t *testing.T) {
		other, err := cryptox.GenerateKeyPair()
		require.NoError(t, err)

		_, err = cryptox.Decrypt(envelope, other.PrivateKey)
		var decErr *cryptox.DecryptionError
		require.ErrorAs(t, err, &decErr)
	})

	t.Run("corrupted encrypted key", func(t *testing.T) {
		bad := envelope
		bad.EncryptedKey = strings.Repeat("00", 12)

		_, err := cryptox.Decrypt(bad, kp.PrivateKey)
		var decErr *cryptox.DecryptionError
		require.ErrorAs(t, err, &decErr)
	})

	t.Run("garbage ephemeral key", func(t *testing.T) {
		bad := envelope
		bad.EphemeralPublicKey = "zz"

		_, err := cryptox.Decrypt(bad, kp.PrivateKey)
		var decErr *cryptox.DecryptionError
		require.ErrorAs(t, err, &decErr)
	})
}

func TestEnvelopeStringCodec(t *testing.T) {
	t.Parallel()

	kp, err := cryptox.GenerateKeyPair()
	require.NoError(t, err)

	t.Run("round trips through compact form", func(t *testing.T) {
		envelope, err := cryptox.Encrypt("compact me", kp.PublicKey)
		require.NoError(t, err)

		plaintext, err := cryptox.DecryptString(envelope.Encode(), kp.PrivateKey)
		require.NoError(t, err)
		require.Equal(t, "compact me", plaintext)
	})

	t.Run("structurally invalid string fails with DecryptionError", func(t *testing.T) {
		var decErr *cryptox.DecryptionError

		_, err := cryptox.DecryptString("definitely not an envelope", kp.PrivateKey)
		require.ErrorAs(t, err, &decErr)

		_, err = cryptox.DecryptString("a.b", kp.PrivateKey)
		require.ErrorAs(t, err, &decErr)
	})
}
