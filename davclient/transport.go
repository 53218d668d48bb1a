package davclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

const (
	defaultClientCacheSize = 8
)

// Response is the outcome of one exchange. Status is the reason phrase, e.g. "Not Found".
type Response struct {
	StatusCode int
	Status     string
	Body       []byte
}

// ITransport sends a single request. Network failures are returned as error,
// http failures are returned as a normal Response.
type ITransport interface {
	Do(ctx context.Context, spec *RequestSpec) (*Response, error)
}

type transportConfig struct {
	Timeout time.Duration
}

type TransportOption func(*transportConfig)

// WithTimeout bounds each exchange, zero means no limit.
func WithTimeout(t time.Duration) TransportOption {
	return func(c *transportConfig) {
		c.Timeout = t
	}
}

type httpTransport struct {
	c       *transportConfig
	clients *lru.Cache[uint64, *http.Client]
}

// NewHTTPTransport returns a net/http based transport. One http client is kept per
// distinct tls profile so connections are reused across calls.
func NewHTTPTransport(opts ...TransportOption) (ITransport, error) {
	c := &transportConfig{}
	for _, opt := range opts {
		opt(c)
	}
	cache, err := lru.NewWithEvict(defaultClientCacheSize, func(_ uint64, cli *http.Client) {
		cli.CloseIdleConnections()
	})
	if err != nil {
		return nil, err
	}
	return &httpTransport{c: c, clients: cache}, nil
}

func tlsProfileKey(o *TLSOptions) uint64 {
	if o == nil {
		return 0
	}
	d := xxhash.New()
	_, _ = d.WriteString(fmt.Sprintf("%t|%t|%t|%d|%d|", o.StrictSSL, o.RelaxedHostname, o.RejectUnauthorized, o.MinVersion, o.MaxVersion))
	_, _ = d.WriteString(o.Passphrase)
	_, _ = d.Write([]byte{0})
	_, _ = d.Write(o.PFX)
	_, _ = d.Write([]byte{0})
	_, _ = d.Write(o.RootCAs)
	return d.Sum64()
}

func (t *httpTransport) client(o *TLSOptions) (*http.Client, error) {
	key := tlsProfileKey(o)
	if cli, ok := t.clients.Get(key); ok {
		return cli, nil
	}
	tlsCfg, err := buildTLSConfig(o)
	if err != nil {
		return nil, err
	}
	cli := &http.Client{
		Timeout: t.c.Timeout,
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			TLSClientConfig:     tlsCfg,
			IdleConnTimeout:     20 * time.Second,
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 4,
		},
	}
	_ = t.clients.Add(key, cli)
	return cli, nil
}

func joinURL(base string, uri string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse base url failed, err:%w", err)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/" + strings.TrimPrefix(uri, "/")
	u.RawPath = ""
	return u.String(), nil
}

func (t *httpTransport) buildRequest(ctx context.Context, spec *RequestSpec) (*http.Request, error) {
	link, err := joinURL(spec.BaseURL, spec.URI)
	if err != nil {
		return nil, err
	}
	body := spec.Body
	if spec.Form != nil {
		body = strings.NewReader(spec.Form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, spec.Method, link, body)
	if err != nil {
		return nil, err
	}
	if spec.Body != nil && spec.ContentLength > 0 {
		req.ContentLength = spec.ContentLength
	}
	for k, vs := range spec.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if spec.Form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if spec.Auth != nil {
		if len(spec.Auth.Bearer) > 0 {
			req.Header.Set("Authorization", "Bearer "+spec.Auth.Bearer)
		} else {
			req.SetBasicAuth(spec.Auth.User, spec.Auth.Password)
		}
	}
	return req, nil
}

func statusText(rsp *http.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(rsp.Status, strconv.Itoa(rsp.StatusCode)))
	if len(text) == 0 {
		return http.StatusText(rsp.StatusCode)
	}
	return text
}

func (t *httpTransport) Do(ctx context.Context, spec *RequestSpec) (*Response, error) {
	cli, err := t.client(spec.TLS)
	if err != nil {
		return nil, err
	}
	req, err := t.buildRequest(ctx, spec)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	rsp, err := cli.Do(req)
	if err != nil {
		return nil, err
	}
	defer rsp.Body.Close()
	raw, err := io.ReadAll(rsp.Body)
	if err != nil {
		return nil, err
	}
	logutil.GetLogger(ctx).Debug("webdav request finish", zap.String("method", spec.Method), zap.String("uri", spec.URI),
		zap.Int("status", rsp.StatusCode), zap.Int("body_size", len(raw)), zap.Duration("cost", time.Since(start)))
	return &Response{
		StatusCode: rsp.StatusCode,
		Status:     statusText(rsp),
		Body:       raw,
	}, nil
}
