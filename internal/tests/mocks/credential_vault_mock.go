package mocks

type CredentialVaultMock struct {
	GetApiKeyFunc func(provider string) (string, error)
}

func (m *CredentialVaultMock) GetApiKey(provider string) (string, error) {
	if m.GetApiKeyFunc != nil {
		return m.GetApiKeyFunc(provider)
	}
	return "", nil
}
