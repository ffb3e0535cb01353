package proxy_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/williampepple1/dspace-site-finder/internal/config"
	"github.com/williampepple1/dspace-site-finder/internal/proxy"
)

func TestGetProxyURL_Disabled(t *testing.T) {
	t.Parallel()

	m := proxy.NewManager(&config.ProxyConfig{List: []string{"http://p:8080"}})
	u, err := m.GetProxyURL()
	require.NoError(t, err)
	assert.Nil(t, u)

	transport := &http.Transport{}
	m.ApplyToTransport(transport)
	assert.Nil(t, transport.Proxy)
}

func TestGetProxyURL_WithAuth(t *testing.T) {
	t.Parallel()

	cfg := &config.ProxyConfig{Enabled: true, List: []string{"http://p:8080"}}
	cfg.Auth.Username = "user"
	cfg.Auth.Password = "secret"

	u, err := proxy.NewManager(cfg).GetProxyURL()
	require.NoError(t, err)
	assert.Equal(t, "p:8080", u.Host)
	assert.Equal(t, "user", u.User.Username())
}

func TestGetProxyURL_RotatesWithinList(t *testing.T) {
	t.Parallel()

	list := []string{"http://a:1", "http://b:2", "http://c:3"}
	m := proxy.NewManager(&config.ProxyConfig{Enabled: true, Rotate: true, List: list})

	transport := &http.Transport{}
	m.ApplyToTransport(transport)
	require.NotNil(t, transport.Proxy)

	for range 20 {
		u, err := transport.Proxy(&http.Request{})
		require.NoError(t, err)
		assert.Contains(t, list, u.String())
	}
}

func TestGetProxyURL_BadEntry(t *testing.T) {
	t.Parallel()

	m := proxy.NewManager(&config.ProxyConfig{Enabled: true, List: []string{"http://bad host:%zz"}})
	_, err := m.GetProxyURL()
	require.Error(t, err)
}
