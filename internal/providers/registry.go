package providers

import (
	"strings"
	"sync"

	"go.uber.org/zap"

	"airender/internal/logging"
	"airender/internal/models"
	"airender/internal/services"
)

// Kind names a provider implementation as stored in settings.
type Kind string

const (
	KindMock   Kind = "mock"
	KindGemini Kind = "gemini"
)

// ParseKind is case-insensitive; anything unknown selects the mock provider.
func ParseKind(s string) Kind {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindGemini:
		return KindGemini
	default:
		return KindMock
	}
}

// SettingsSource is the part of the settings store the registry reads.
type SettingsSource interface {
	Load() models.Settings
}

type RegistryOptions struct {
	Cloud     CloudConfig
	Settings  SettingsSource
	Vault     services.CredentialVault
	Transport *Transport
	OnAttempt AttemptFunc
	Logger    *zap.Logger
}

// Registry builds providers on demand and keeps one instance per kind.
type Registry struct {
	opts      RegistryOptions
	transport *Transport
	log       *zap.Logger

	mu        sync.Mutex
	instances map[Kind]Provider
}

func NewRegistry(opts RegistryOptions) *Registry {
	r := &Registry{opts: opts, log: logging.OrNop(opts.Logger).Named("providers"), instances: map[Kind]Provider{}}
	r.transport = opts.Transport
	if r.transport == nil {
		r.transport = NewTransport(func() string { return r.settings().ProxyURL }, 0, opts.Logger)
	}
	return r
}

func (r *Registry) settings() models.Settings {
	if r.opts.Settings == nil {
		return models.DefaultSettings()
	}
	return r.opts.Settings.Load()
}

// Env snapshots settings and resolved credentials.
func (r *Registry) Env() CloudEnv {
	s := r.settings()
	return CloudEnv{Settings: s, Credentials: services.ResolveCredentials(s, r.opts.Vault)}
}

// Get returns the provider for kind, building it on first use.
func (r *Registry) Get(kind Kind) Provider {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.instances[kind]; ok {
		return p
	}
	p := r.build(kind)
	r.instances[kind] = p
	return p
}

func (r *Registry) build(kind Kind) Provider {
	switch kind {
	case KindGemini:
		return NewCloudProvider(r.opts.Cloud, r.Env, r.transport, r.opts.OnAttempt, r.opts.Logger)
	default:
		return NewMockProvider()
	}
}

// Active is the provider selected by the current settings.
func (r *Registry) Active() Provider {
	return r.Get(ParseKind(r.settings().Provider))
}

// RefreshTransport rebuilds the shared HTTP client.
func (r *Registry) RefreshTransport() {
	r.transport.Refresh()
	r.log.Debug("transport refreshed")
}

// Register installs p for kind, replacing any built instance.
func (r *Registry) Register(kind Kind, p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.instances[kind] = p
}
