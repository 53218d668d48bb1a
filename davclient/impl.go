package davclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"

	"github.com/xxxsen/cartdav/multistatus"
)

const (
	MethodPropfind = "PROPFIND"
	MethodMkcol    = "MKCOL"

	unzipFormKey   = "method"
	unzipFormValue = "UNZIP"
)

type defaultClient struct {
	c *config
}

func New(opts ...Option) (IClient, error) {
	c := &config{
		Username: defaultUsername,
		Password: defaultPassword,
		Folder:   defaultFolder,
		Version:  defaultVersion,
		Root:     defaultRoot,
	}
	for _, opt := range opts {
		opt(c)
	}
	if len(c.Hostname) == 0 {
		return nil, &ConfigError{Field: "hostname", Reason: "hostname is required"}
	}
	if len(c.WorkDir) == 0 {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("read work dir failed, err:%w", err)
		}
		c.WorkDir = wd
	}
	if c.Transport == nil {
		t, err := NewHTTPTransport()
		if err != nil {
			return nil, err
		}
		c.Transport = t
	}
	return &defaultClient{c: c}, nil
}

func (d *defaultClient) buildSpec(method string, path string, root string) (*RequestSpec, error) {
	if len(root) == 0 {
		root = d.c.Root
	}
	uri, err := buildURI(d.c.WorkDir, root, path)
	if err != nil {
		return nil, err
	}
	spec, err := buildRequestOptions(d.c)
	if err != nil {
		return nil, err
	}
	spec.URI = uri
	spec.Method = method
	return spec, nil
}

func isSuccess(code int) bool {
	return code < http.StatusBadRequest
}

func isDeleteSuccess(code int) bool {
	return code < http.StatusBadRequest || code == http.StatusNotFound
}

func (d *defaultClient) send(ctx context.Context, spec *RequestSpec, accept func(int) bool) ([]byte, error) {
	rsp, err := d.c.Transport.Do(ctx, spec)
	if err != nil {
		return nil, err
	}
	if !accept(rsp.StatusCode) {
		return nil, &ProtocolError{
			StatusCode: rsp.StatusCode,
			Status:     rsp.Status,
			Method:     spec.Method,
			URI:        spec.URI,
		}
	}
	return rsp.Body, nil
}

func (d *defaultClient) simpleCall(ctx context.Context, method string, path string, root string, accept func(int) bool) ([]byte, error) {
	spec, err := d.buildSpec(method, path, root)
	if err != nil {
		return nil, err
	}
	return d.send(ctx, spec, accept)
}

func (d *defaultClient) Propfind(ctx context.Context, path string, root string) ([]*multistatus.DirectoryEntry, error) {
	spec, err := d.buildSpec(MethodPropfind, path, root)
	if err != nil {
		return nil, err
	}
	spec.Header = http.Header{"Depth": []string{"1"}}
	body, err := d.send(ctx, spec, isSuccess)
	if err != nil {
		return nil, err
	}
	return multistatus.Parse(bytes.NewReader(body))
}

func (d *defaultClient) Get(ctx context.Context, path string, root string) ([]byte, error) {
	return d.simpleCall(ctx, http.MethodGet, path, root, isSuccess)
}

func (d *defaultClient) Post(ctx context.Context, path string, root string) ([]byte, error) {
	info, err := os.Stat(absFrom(d.c.WorkDir, path))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &LocalFileError{Path: path}
		}
		return nil, err
	}
	if info.IsDir() {
		return nil, &ConfigError{Field: "path", Reason: fmt.Sprintf("%s is a directory", path)}
	}
	spec, err := d.buildSpec(http.MethodPut, path, root)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(absFrom(d.c.WorkDir, path))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	spec.Body = f
	spec.ContentLength = info.Size()
	return d.send(ctx, spec, isSuccess)
}

func (d *defaultClient) Unzip(ctx context.Context, path string, root string) ([]byte, error) {
	spec, err := d.buildSpec(http.MethodPost, path, root)
	if err != nil {
		return nil, err
	}
	spec.Form = url.Values{unzipFormKey: []string{unzipFormValue}}
	return d.send(ctx, spec, isSuccess)
}

func (d *defaultClient) PostAndUnzip(ctx context.Context, path string, root string) ([]byte, error) {
	if _, err := d.Post(ctx, path, root); err != nil {
		return nil, err
	}
	return d.Unzip(ctx, path, root)
}

func (d *defaultClient) Delete(ctx context.Context, path string, root string) ([]byte, error) {
	return d.simpleCall(ctx, http.MethodDelete, path, root, isDeleteSuccess)
}

func (d *defaultClient) Mkcol(ctx context.Context, path string, root string) ([]byte, error) {
	return d.simpleCall(ctx, MethodMkcol, path, root, isSuccess)
}
