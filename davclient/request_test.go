package davclient

import (
	"crypto/tls"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testHost = "example-sitegenesis-dw.demandware.net"

func newTestConfig(opts ...Option) *config {
	c := &config{
		Username: defaultUsername,
		Password: defaultPassword,
		Folder:   defaultFolder,
		Version:  defaultVersion,
		Root:     defaultRoot,
		Hostname: testHost,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func TestBaseURL(t *testing.T) {
	for _, host := range []string{"h", testHost, "cert.sandbox.example.com"} {
		c := newTestConfig(WithHostname(host))
		assert.Equal(t, "https://"+host+"/on/demandware.servlet/webdav/Sites/Cartridges/version1", buildBaseURL(c))
		c = newTestConfig(WithHostname(host), WithVersion("v2"))
		assert.Equal(t, "https://"+host+"/on/demandware.servlet/webdav/Sites/Cartridges/v2", buildBaseURL(c))
		c = newTestConfig(WithHostname(host), WithFolder("Impex"), WithVersion("v2"))
		assert.Equal(t, "https://"+host+"/on/demandware.servlet/webdav/Sites/Impex/", buildBaseURL(c))
	}
}

func TestAuthSelect(t *testing.T) {
	c := newTestConfig(WithAuth("", "p"))
	assert.Equal(t, &Auth{User: "admin", Password: "p"}, buildAuth(c))

	c = newTestConfig(WithAuth("foo", "bar"), WithBearer("__token__"))
	assert.Equal(t, &Auth{Bearer: "__token__"}, buildAuth(c))

	c = newTestConfig()
	assert.Equal(t, &Auth{User: "admin", Password: "password"}, buildAuth(c))
}

func TestRequestOptionsDefault(t *testing.T) {
	c := newTestConfig(WithAuth("", "p"))
	spec, err := buildRequestOptions(c)
	require.NoError(t, err)
	assert.Equal(t, &RequestSpec{
		BaseURL: "https://" + testHost + "/on/demandware.servlet/webdav/Sites/Cartridges/version1",
		URI:     "/",
		Auth:    &Auth{User: "admin", Password: "p"},
		TLS:     &TLSOptions{},
	}, spec)
}

func TestRequestOptionsCert(t *testing.T) {
	dir := t.TempDir()
	p12 := filepath.Join(dir, "client.p12")
	require.NoError(t, os.WriteFile(p12, []byte("pfx-data"), 0600))

	// cert options are ignored unless the hostname starts with "cert"
	c := newTestConfig(WithClientCert(p12, "secret"))
	spec, err := buildRequestOptions(c)
	require.NoError(t, err)
	assert.Equal(t, &TLSOptions{}, spec.TLS)

	c = newTestConfig(WithHostname("cert.staging.example.com"), WithClientCert(p12, "secret"))
	spec, err = buildRequestOptions(c)
	require.NoError(t, err)
	assert.Equal(t, &TLSOptions{
		StrictSSL:          true,
		PFX:                []byte("pfx-data"),
		Passphrase:         "secret",
		MinVersion:         tls.VersionTLS12,
		MaxVersion:         tls.VersionTLS12,
		RelaxedHostname:    true,
		RejectUnauthorized: true,
	}, spec.TLS)

	c = newTestConfig(WithHostname("cert.staging.example.com"), WithClientCert(p12, "secret"), WithSelfSigned(true))
	spec, err = buildRequestOptions(c)
	require.NoError(t, err)
	assert.False(t, spec.TLS.RejectUnauthorized)

	c = newTestConfig(WithHostname("cert.staging.example.com"), WithClientCert(filepath.Join(dir, "missing.p12"), ""))
	_, err = buildRequestOptions(c)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestTLSConfig(t *testing.T) {
	cfg, err := buildTLSConfig(&TLSOptions{})
	require.NoError(t, err)
	assert.True(t, cfg.InsecureSkipVerify)

	cfg, err = buildTLSConfig(&TLSOptions{StrictSSL: true})
	require.NoError(t, err)
	assert.False(t, cfg.InsecureSkipVerify)

	_, err = buildTLSConfig(&TLSOptions{StrictSSL: true, PFX: []byte("not a pkcs12 bundle")})
	assert.Error(t, err)
}

func TestTLSProfileKey(t *testing.T) {
	a := &TLSOptions{StrictSSL: true, PFX: []byte("a"), Passphrase: "x"}
	b := &TLSOptions{StrictSSL: true, PFX: []byte("a"), Passphrase: "x"}
	assert.Equal(t, tlsProfileKey(a), tlsProfileKey(b))
	b.Passphrase = "y"
	assert.NotEqual(t, tlsProfileKey(a), tlsProfileKey(b))
	assert.NotEqual(t, tlsProfileKey(&TLSOptions{}), tlsProfileKey(&TLSOptions{StrictSSL: true}))
}

func TestJoinURL(t *testing.T) {
	link, err := joinURL("https://h/on/demandware.servlet/webdav/Sites/Cartridges/version1", "/")
	require.NoError(t, err)
	assert.Equal(t, "https://h/on/demandware.servlet/webdav/Sites/Cartridges/version1/", link)
	link, err = joinURL("https://h/on/demandware.servlet/webdav/Sites/Impex/", "/src/my file.xml")
	require.NoError(t, err)
	assert.Equal(t, "https://h/on/demandware.servlet/webdav/Sites/Impex/src/my%20file.xml", link)
}
