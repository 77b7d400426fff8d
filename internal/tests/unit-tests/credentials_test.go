package unit_tests

import (
	"testing"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"

	"airender/internal/models"
	"airender/internal/services"
	"airender/internal/tests/mocks"
)

func vault(keys map[string]string) *mocks.CredentialVaultMock {
	return &mocks.CredentialVaultMock{
		GetApiKeyFunc: func(provider string) (string, error) {
			return keys[provider], nil
		},
	}
}

func TestResolveCredentials_Precedence(t *testing.T) {
	v := vault(map[string]string{services.VaultGemini: "ring-primary", services.VaultVertex: "ring-secondary"})

	t.Setenv(services.PrimaryKeyEnv, "")
	creds := services.ResolveCredentials(models.Settings{}, v)
	assert.Equal(t, "ring-primary", creds.Primary)
	assert.Equal(t, "ring-secondary", creds.Secondary)

	creds = services.ResolveCredentials(models.Settings{APIKey: "stored", VertexAPIKey: "stored-v"}, v)
	assert.Equal(t, "stored", creds.Primary)
	assert.Equal(t, "stored-v", creds.Secondary)

	t.Setenv(services.PrimaryKeyEnv, " from-env ")
	creds = services.ResolveCredentials(models.Settings{APIKey: "stored"}, v)
	assert.Equal(t, "from-env", creds.Primary)
}

func TestResolveCredentials_SecondaryNeverBorrowsPrimary(t *testing.T) {
	t.Setenv(services.PrimaryKeyEnv, "env")
	creds := services.ResolveCredentials(models.Settings{APIKey: "stored"}, nil)
	assert.Empty(t, creds.Secondary)
}

func TestKeyringService_RoundTrip(t *testing.T) {
	service := services.NewKeyringService(keyring.NewArrayKeyring(nil))

	key, err := service.GetApiKey(services.VaultGemini)
	assert.NoError(t, err)
	assert.Empty(t, key)

	assert.NoError(t, service.StoreApiKey(services.VaultGemini, "  secret  "))
	key, err = service.GetApiKey(services.VaultGemini)
	assert.NoError(t, err)
	assert.Equal(t, "secret", key)

	listed, err := service.ListApiKeys()
	assert.NoError(t, err)
	assert.Len(t, listed, 1)
	assert.Equal(t, services.VaultGemini, listed[0]["provider"])

	assert.Error(t, service.StoreApiKey(services.VaultVertex, " "))
	assert.NoError(t, service.DeleteApiKey(services.VaultGemini))
	assert.NoError(t, service.DeleteApiKey(services.VaultGemini))

	key, _ = service.GetApiKey(services.VaultGemini)
	assert.Empty(t, key)
}
