package providers

import (
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"airender/internal/logging"
)

// ProxyFunc reports the configured proxy URL ("" for none).
type ProxyFunc func() string

// Transport hands out the shared *http.Client. Rebuilds swap in a new client
// atomically; requests already running keep the client they started with.
type Transport struct {
	client  atomic.Pointer[http.Client]
	buildMu sync.Mutex
	proxy   ProxyFunc
	timeout time.Duration
	log     *zap.Logger
}

func NewTransport(proxy ProxyFunc, timeout time.Duration, log *zap.Logger) *Transport {
	if proxy == nil {
		proxy = func() string { return "" }
	}
	return &Transport{proxy: proxy, timeout: timeout, log: logging.OrNop(log).Named("transport")}
}

// Client returns the current client, building it on first use.
func (t *Transport) Client() *http.Client {
	if c := t.client.Load(); c != nil {
		return c
	}
	t.buildMu.Lock()
	defer t.buildMu.Unlock()
	if c := t.client.Load(); c != nil {
		return c
	}
	c := t.build()
	t.client.Store(c)
	return c
}

// Refresh rebuilds the client from the current proxy setting.
func (t *Transport) Refresh() {
	t.buildMu.Lock()
	defer t.buildMu.Unlock()
	old := t.client.Swap(t.build())
	if old != nil {
		old.CloseIdleConnections()
	}
}

func (t *Transport) build() *http.Client {
	proxy, mode := ProxyFor(t.proxy())
	switch mode {
	case ProxyInvalid:
		t.log.Warn("proxy URL is malformed, connecting directly")
	case ProxyExplicit:
		t.log.Info("using configured proxy")
	}

	base := &http.Transport{
		Proxy: proxy,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          32,
		MaxIdleConnsPerHost:   8,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: time.Second,
	}
	return &http.Client{Transport: base, Timeout: t.timeout}
}

type ProxyMode int

const (
	ProxyEnvironment ProxyMode = iota
	ProxyExplicit
	ProxyInvalid
)

// ProxyFor maps a configured proxy string to an http.Transport proxy func.
// Empty means environment discovery; anything unparsable means no proxy.
func ProxyFor(raw string) (func(*http.Request) (*url.URL, error), ProxyMode) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return http.ProxyFromEnvironment, ProxyEnvironment
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return nil, ProxyInvalid
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https", "socks5", "socks5h":
	default:
		return nil, ProxyInvalid
	}
	return http.ProxyURL(u), ProxyExplicit
}
