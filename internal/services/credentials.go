package services

import (
	"os"
	"strings"

	"airender/internal/models"
)

// PrimaryKeyEnv overrides the stored primary credential.
const PrimaryKeyEnv = "GEMINI_API_KEY"

type CredentialVault interface {
	GetApiKey(provider string) (string, error)
}

// Credentials are the resolved keys for the primary (developer API) and
// secondary (Vertex express) endpoints.
type Credentials struct {
	Primary   string
	Secondary string
}

// ResolveCredentials applies env > settings > vault for the primary key and
// settings > vault for the secondary key. vault may be nil.
func ResolveCredentials(s models.Settings, vault CredentialVault) Credentials {
	creds := Credentials{
		Primary:   strings.TrimSpace(os.Getenv(PrimaryKeyEnv)),
		Secondary: strings.TrimSpace(s.VertexAPIKey),
	}
	if creds.Primary == "" {
		creds.Primary = strings.TrimSpace(s.APIKey)
	}
	if creds.Primary == "" {
		creds.Primary = fromVault(vault, VaultGemini)
	}
	if creds.Secondary == "" {
		creds.Secondary = fromVault(vault, VaultVertex)
	}
	return creds
}

func fromVault(vault CredentialVault, key string) string {
	if vault == nil {
		return ""
	}
	v, err := vault.GetApiKey(key)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(v)
}
