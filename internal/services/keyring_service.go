package services

import (
	"errors"
	"strings"

	"github.com/99designs/keyring"
	"go.uber.org/zap"

	"airender/internal/logging"
)

const serviceName = "airender"

// Vault key names for the two cloud endpoints.
const (
	VaultGemini = "gemini"
	VaultVertex = "vertex"
)

// OpenKeyring opens the OS credential store, falling back to an in-memory
// ring when none is available (headless Linux, CI).
func OpenKeyring(log *zap.Logger) keyring.Keyring {
	ring, err := keyring.Open(keyring.Config{
		ServiceName:              serviceName,
		KeychainTrustApplication: true,
		LibSecretCollectionName:  "login",
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.WinCredBackend,
			keyring.SecretServiceBackend,
			keyring.KWalletBackend,
		},
	})
	if err != nil {
		logging.OrNop(log).Warn("no OS keyring available, API keys stored in keyring will not persist", zap.Error(err))
		return keyring.NewArrayKeyring(nil)
	}
	return ring
}

type KeyringService struct {
	ring keyring.Keyring
}

func NewKeyringService(ring keyring.Keyring) *KeyringService {
	return &KeyringService{ring: ring}
}

func (s *KeyringService) StoreApiKey(provider string, apiKey string) error {
	provider = strings.TrimSpace(provider)
	if strings.TrimSpace(apiKey) == "" {
		return errors.New("API key is empty")
	}
	if provider == "" {
		return errors.New("provider is required")
	}

	return s.ring.Set(keyring.Item{
		Key:         provider,
		Data:        []byte(strings.TrimSpace(apiKey)),
		Label:       provider + " API key",
		Description: "API key for " + provider + " used by AI Render Panel",
	})
}

// GetApiKey returns "" with a nil error when no key is stored.
func (s *KeyringService) GetApiKey(provider string) (string, error) {
	if provider == "" {
		return "", errors.New("provider is required")
	}
	item, err := s.ring.Get(provider)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return string(item.Data), nil
}

func (s *KeyringService) DeleteApiKey(provider string) error {
	if provider == "" {
		return errors.New("provider is required")
	}
	err := s.ring.Remove(provider)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return nil
	}
	return err
}

func (s *KeyringService) ListApiKeys() ([]map[string]string, error) {
	keys, err := s.ring.Keys()
	if err != nil {
		return nil, err
	}

	results := make([]map[string]string, 0, len(keys))
	for _, provider := range keys {
		results = append(results, map[string]string{
			"provider":    provider,
			"label":       provider + " API key",
			"description": "API key for " + provider + " used by AI Render Panel",
		})
	}
	return results, nil
}
