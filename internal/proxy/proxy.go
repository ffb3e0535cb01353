package proxy

import (
	"fmt"
	"math/rand/v2"
	"net/http"
	"net/url"

	"github.com/williampepple1/dspace-site-finder/internal/config"
)

// Manager picks the outbound proxy for site probes and registry queries
type Manager struct {
	Config *config.ProxyConfig
}

// NewManager creates a new proxy manager
func NewManager(config *config.ProxyConfig) *Manager {
	return &Manager{
		Config: config,
	}
}

// GetProxyURL returns the proxy to use for the next request, or nil when
// proxies are disabled. With rotation on, a random entry is chosen each call.
func (m *Manager) GetProxyURL() (*url.URL, error) {
	if m == nil || m.Config == nil || !m.Config.Enabled || len(m.Config.List) == 0 {
		return nil, nil
	}

	proxyStr := m.Config.List[0]
	if m.Config.Rotate && len(m.Config.List) > 1 {
		proxyStr = m.Config.List[rand.IntN(len(m.Config.List))]
	}

	proxyURL, err := url.Parse(proxyStr)
	if err != nil {
		return nil, fmt.Errorf("parse proxy %q: %w", proxyStr, err)
	}

	if m.Config.Auth.Username != "" && m.Config.Auth.Password != "" {
		proxyURL.User = url.UserPassword(m.Config.Auth.Username, m.Config.Auth.Password)
	}

	return proxyURL, nil
}

// ProxyFunc is suitable for http.Transport.Proxy. It re-selects the proxy
// for every request so rotation applies across redirect hops.
func (m *Manager) ProxyFunc() func(*http.Request) (*url.URL, error) {
	return func(*http.Request) (*url.URL, error) {
		return m.GetProxyURL()
	}
}

// ApplyToTransport installs the manager on an HTTP transport
func (m *Manager) ApplyToTransport(transport *http.Transport) {
	if m == nil || m.Config == nil || !m.Config.Enabled {
		return
	}
	transport.Proxy = m.ProxyFunc()
}
