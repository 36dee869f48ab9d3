package app

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/relaysuite/trustcore/pkg/cryptox"
	"github.com/relaysuite/trustcore/pkg/jwtx"
)

// initSigner builds the JWT signer from config. A configured key file is
// loaded; otherwise an ephemeral key is generated, which means every token
// dies with the process.
func initSigner(cfg Config, logger *slog.Logger) (jwtx.Signer, error) {
	pemKey, err := loadOrGenerateKey(cfg, logger)
	if err != nil {
		return nil, err
	}

	switch cfg.Algorithm {
	case "ES256":
		return jwtx.NewSignerES256(pemKey)
	case "EdDSA":
		return jwtx.NewSignerEdDSA(pemKey)
	default:
		return nil, fmt.Errorf("unsupported signing algorithm %q (want ES256 or EdDSA)", cfg.Algorithm)
	}
}

func loadOrGenerateKey(cfg Config, logger *slog.Logger) ([]byte, error) {
	if cfg.SigningKeyFile != "" {
		pemKey, err := os.ReadFile(cfg.SigningKeyFile)
		if err != nil {
			return nil, fmt.Errorf("read signing key: %w", err)
		}
		logger.Info("signing key loaded", "file", cfg.SigningKeyFile, "alg", cfg.Algorithm)
		return pemKey, nil
	}

	logger.Warn("no signing key configured, generating ephemeral key; tokens will not survive restarts",
		"alg", cfg.Algorithm)

	switch cfg.Algorithm {
	case "ES256":
		return cryptox.GenerateES256Key()
	case "EdDSA":
		return cryptox.GenerateEd25519Key()
	default:
		return nil, fmt.Errorf("unsupported signing algorithm %q (want ES256 or EdDSA)", cfg.Algorithm)
	}
}
