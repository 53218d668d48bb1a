package davclient

import (
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
)

const (
	webdavPathPrefix = "/on/demandware.servlet/webdav/Sites/"
	certHostPrefix   = "cert"
)

// Auth carries the credentials of one request. Bearer wins over User/Password.
type Auth struct {
	User     string
	Password string
	Bearer   string
}

// TLSOptions describes how the transport should set up tls for one request.
type TLSOptions struct {
	StrictSSL bool
	// client identity, only set for certificate auth
	PFX        []byte
	Passphrase string
	MinVersion uint16
	MaxVersion uint16
	// RelaxedHostname skips hostname matching but still verifies the chain.
	RelaxedHostname bool
	// RejectUnauthorized=false accepts any server chain.
	RejectUnauthorized bool
	// PEM encoded roots used to verify the server, system roots when empty.
	RootCAs []byte
}

// RequestSpec is everything the transport needs to send one request.
type RequestSpec struct {
	BaseURL       string
	URI           string
	Method        string
	Header        http.Header
	Body          io.Reader
	ContentLength int64
	Form          url.Values
	Auth          *Auth
	TLS           *TLSOptions
}

func buildBaseURL(c *config) string {
	base := "https://" + c.Hostname + webdavPathPrefix + c.Folder + "/"
	if c.Folder == defaultFolder {
		base += c.Version
	}
	return base
}

func buildAuth(c *config) *Auth {
	if len(c.Bearer) > 0 {
		return &Auth{Bearer: c.Bearer}
	}
	return &Auth{User: c.Username, Password: c.Password}
}

func isCertAuth(c *config) bool {
	return len(c.P12) > 0 && strings.HasPrefix(c.Hostname, certHostPrefix)
}

func buildTLSOptions(c *config) (*TLSOptions, error) {
	var roots []byte
	if len(c.RootCA) > 0 {
		raw, err := os.ReadFile(c.RootCA)
		if err != nil {
			return nil, fmt.Errorf("read root ca failed, path:%s, err:%w", c.RootCA, err)
		}
		roots = raw
	}
	if !isCertAuth(c) {
		return &TLSOptions{StrictSSL: c.StrictSSL, RootCAs: roots}, nil
	}
	pfx, err := os.ReadFile(c.P12)
	if err != nil {
		return nil, fmt.Errorf("read client cert failed, path:%s, err:%w", c.P12, err)
	}
	return &TLSOptions{
		StrictSSL:          true,
		PFX:                pfx,
		Passphrase:         c.Passphrase,
		MinVersion:         tls.VersionTLS12,
		MaxVersion:         tls.VersionTLS12,
		RelaxedHostname:    true,
		RejectUnauthorized: !c.SelfSigned,
		RootCAs:            roots,
	}, nil
}

// buildRequestOptions derives the per call base url, auth and tls settings.
func buildRequestOptions(c *config) (*RequestSpec, error) {
	tlsOpts, err := buildTLSOptions(c)
	if err != nil {
		return nil, err
	}
	return &RequestSpec{
		BaseURL: buildBaseURL(c),
		URI:     "/",
		Auth:    buildAuth(c),
		TLS:     tlsOpts,
	}, nil
}
