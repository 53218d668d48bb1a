package deploy

import (
	"archive/zip"
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xxxsen/cartdav/davclient"
	"github.com/xxxsen/cartdav/multistatus"
	"github.com/xxxsen/common/logger"
)

type call struct {
	method string
	path   string
	root   string
}

type fakeClient struct {
	mu       sync.Mutex
	calls    []call
	existDir map[string]bool
	failPut  int
	archive  []string
	getData  []byte
	entries  []*multistatus.DirectoryEntry
}

func newFakeClient() *fakeClient {
	return &fakeClient{existDir: make(map[string]bool)}
}

func (f *fakeClient) record(method, path, root string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{method: method, path: path, root: root})
}

func (f *fakeClient) methods() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	rs := make([]string, 0, len(f.calls))
	for _, c := range f.calls {
		rs = append(rs, c.method)
	}
	return rs
}

func (f *fakeClient) Propfind(ctx context.Context, path string, root string) ([]*multistatus.DirectoryEntry, error) {
	f.record("PROPFIND", path, root)
	return f.entries, nil
}

func (f *fakeClient) Get(ctx context.Context, path string, root string) ([]byte, error) {
	f.record("GET", path, root)
	return f.getData, nil
}

func (f *fakeClient) Post(ctx context.Context, path string, root string) ([]byte, error) {
	f.record("PUT", path, root)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failPut > 0 {
		f.failPut--
		return nil, &davclient.ProtocolError{StatusCode: 503, Status: "Service Unavailable"}
	}
	return nil, nil
}

func (f *fakeClient) Unzip(ctx context.Context, path string, root string) ([]byte, error) {
	f.record("UNZIP", path, root)
	return nil, nil
}

func (f *fakeClient) PostAndUnzip(ctx context.Context, path string, root string) ([]byte, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	names := make([]string, 0, len(zr.File))
	for _, zf := range zr.File {
		names = append(names, zf.Name)
	}
	f.mu.Lock()
	f.archive = names
	f.mu.Unlock()
	if _, err := f.Post(ctx, path, root); err != nil {
		return nil, err
	}
	return f.Unzip(ctx, path, root)
}

func (f *fakeClient) Delete(ctx context.Context, path string, root string) ([]byte, error) {
	f.record("DELETE", path, root)
	return nil, nil
}

func (f *fakeClient) Mkcol(ctx context.Context, path string, root string) ([]byte, error) {
	f.record("MKCOL", path, root)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.existDir[filepath.ToSlash(path)] {
		return nil, &davclient.ProtocolError{StatusCode: http.StatusMethodNotAllowed, Status: "Method Not Allowed"}
	}
	f.existDir[filepath.ToSlash(path)] = true
	return nil, nil
}

func writeFile(t *testing.T, p string, data string) {
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
	require.NoError(t, os.WriteFile(p, []byte(data), 0644))
}

func TestNewNoClient(t *testing.T) {
	_, err := New()
	assert.Error(t, err)
}

func TestParentDirs(t *testing.T) {
	root := t.TempDir()
	files := []string{
		filepath.Join(root, "a", "b", "c.js"),
		filepath.Join(root, "a", "d.js"),
		filepath.Join(root, "e.js"),
		filepath.Join(root, "x", "y.js"),
	}
	dirs, err := parentDirs("", root, files)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "x", "a/b"}, dirs)

	_, err = parentDirs("", filepath.Join(root, "a"), []string{filepath.Join(root, "x", "y.js")})
	assert.Error(t, err)

	// relative paths follow the work dir, not the process cwd
	dirs, err = parentDirs(root, "a", []string{"a/b/c.js", "a/d.js"})
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, dirs)
}

func TestUploadFiles(t *testing.T) {
	logger.Init("", "debug", 0, 0, 0, true)
	root := t.TempDir()
	files := []string{
		filepath.Join(root, "app_core", "cartridge", "a.js"),
		filepath.Join(root, "app_core", "cartridge", "b.js"),
		filepath.Join(root, "app_core", "package.json"),
	}
	for _, f := range files {
		writeFile(t, f, "data")
	}
	fc := newFakeClient()
	fc.existDir[filepath.ToSlash(filepath.Join(root, "app_core"))] = true
	dp, err := New(WithClient(fc), WithThread(2))
	require.NoError(t, err)
	require.NoError(t, dp.UploadFiles(context.Background(), root, files))

	ms := fc.methods()
	require.Equal(t, 5, len(ms))
	assert.Equal(t, []string{"MKCOL", "MKCOL"}, ms[:2])
	assert.Equal(t, filepath.Join(root, "app_core"), fc.calls[0].path)
	assert.Equal(t, filepath.Join(root, "app_core", "cartridge"), fc.calls[1].path)
	puts := make([]string, 0, 3)
	for _, c := range fc.calls[2:] {
		assert.Equal(t, "PUT", c.method)
		assert.Equal(t, root, c.root)
		puts = append(puts, c.path)
	}
	sort.Strings(puts)
	sort.Strings(files)
	assert.Equal(t, files, puts)
}

func TestUploadFilesMissing(t *testing.T) {
	fc := newFakeClient()
	dp, err := New(WithClient(fc))
	require.NoError(t, err)
	err = dp.UploadFiles(context.Background(), t.TempDir(), []string{"not-exist.js"})
	var lerr *davclient.LocalFileError
	assert.True(t, errors.As(err, &lerr))
	assert.Equal(t, 0, len(fc.methods()))
}

func TestUploadFilesWorkDir(t *testing.T) {
	wd := t.TempDir()
	writeFile(t, filepath.Join(wd, "cartridges", "app_core", "a.js"), "data")

	fc := newFakeClient()
	dp, err := New(WithClient(fc), WithWorkDir(wd))
	require.NoError(t, err)
	require.NoError(t, dp.UploadFiles(context.Background(), "cartridges", []string{"cartridges/app_core/a.js"}))

	require.Equal(t, []string{"MKCOL", "PUT"}, fc.methods())
	root := filepath.Join(wd, "cartridges")
	assert.Equal(t, filepath.Join(root, "app_core"), fc.calls[0].path)
	assert.Equal(t, filepath.Join(root, "app_core", "a.js"), fc.calls[1].path)
	for _, c := range fc.calls {
		assert.Equal(t, root, c.root)
	}

	err = dp.UploadFiles(context.Background(), "cartridges", []string{"cartridges/app_core/missing.js"})
	var lerr *davclient.LocalFileError
	assert.True(t, errors.As(err, &lerr))
}

func TestDeployCartridgesWorkDir(t *testing.T) {
	wd := t.TempDir()
	writeFile(t, filepath.Join(wd, "app_core", "cartridge", "a.js"), "a")

	fc := newFakeClient()
	dp, err := New(WithClient(fc), WithWorkDir(wd))
	require.NoError(t, err)
	require.NoError(t, dp.DeployCartridges(context.Background(), "release", []string{"app_core"}))
	assert.Contains(t, fc.archive, "app_core/cartridge/a.js")
}

func TestUploadFilesRetry(t *testing.T) {
	root := t.TempDir()
	f := filepath.Join(root, "a.js")
	writeFile(t, f, "data")

	fc := newFakeClient()
	fc.failPut = 1
	dp, err := New(WithClient(fc), WithRetry(true, 10*time.Millisecond))
	require.NoError(t, err)
	require.NoError(t, dp.UploadFiles(context.Background(), root, []string{f}))
	assert.Equal(t, []string{"PUT", "PUT"}, fc.methods())

	fc = newFakeClient()
	fc.failPut = 1
	dp, err = New(WithClient(fc))
	require.NoError(t, err)
	err = dp.UploadFiles(context.Background(), root, []string{f})
	var perr *davclient.ProtocolError
	assert.True(t, errors.As(err, &perr))
}

func TestDeployCartridges(t *testing.T) {
	src := t.TempDir()
	writeFile(t, filepath.Join(src, "app_core", "cartridge", "scripts", "a.js"), "a")
	writeFile(t, filepath.Join(src, "int_pay", "cartridge", "b.js"), "b")

	fc := newFakeClient()
	dp, err := New(WithClient(fc))
	require.NoError(t, err)
	err = dp.DeployCartridges(context.Background(), "release", []string{
		filepath.Join(src, "app_core"),
		filepath.Join(src, "int_pay"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"PUT", "UNZIP", "DELETE"}, fc.methods())
	for _, c := range fc.calls {
		assert.Equal(t, "release.zip", filepath.Base(c.path))
		assert.Equal(t, filepath.Dir(c.path), c.root)
	}
	assert.Contains(t, fc.archive, "app_core/cartridge/scripts/a.js")
	assert.Contains(t, fc.archive, "int_pay/cartridge/b.js")
	assert.Contains(t, fc.archive, "app_core/")

	// temp archive is gone
	_, err = os.Stat(fc.calls[0].root)
	assert.True(t, os.IsNotExist(err))
}

func TestDeployCartridgesInvalid(t *testing.T) {
	fc := newFakeClient()
	dp, err := New(WithClient(fc))
	require.NoError(t, err)
	assert.Error(t, dp.DeployCartridges(context.Background(), "release", nil))
	assert.Error(t, dp.DeployCartridges(context.Background(), "", []string{t.TempDir()}))

	src := t.TempDir()
	writeFile(t, filepath.Join(src, "a", "app_core", "x.js"), "x")
	writeFile(t, filepath.Join(src, "b", "app_core", "y.js"), "y")
	err = dp.DeployCartridges(context.Background(), "release", []string{
		filepath.Join(src, "a", "app_core"),
		filepath.Join(src, "b", "app_core"),
	})
	assert.Error(t, err)
	assert.Equal(t, 0, len(fc.methods()))
}

func TestDownload(t *testing.T) {
	fc := newFakeClient()
	fc.getData = []byte{0x00, 0x01, 0xff}
	dp, err := New(WithClient(fc))
	require.NoError(t, err)
	dst := filepath.Join(t.TempDir(), "out", "a.bin")
	require.NoError(t, dp.Download(context.Background(), "app_core/a.bin", dst))
	raw, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, fc.getData, raw)
}

func TestList(t *testing.T) {
	fc := newFakeClient()
	fc.entries = []*multistatus.DirectoryEntry{{Href: "/dir/"}, {Href: "/dir/a.js", Name: "a.js"}}
	dp, err := New(WithClient(fc))
	require.NoError(t, err)
	rs, err := dp.List(context.Background(), "dir")
	require.NoError(t, err)
	require.Equal(t, 1, len(rs))
	assert.Equal(t, "a.js", rs[0].Name)

	fc.entries = nil
	rs, err = dp.List(context.Background(), "dir")
	require.NoError(t, err)
	assert.Equal(t, 0, len(rs))
}

func TestBuildArchive(t *testing.T) {
	src := t.TempDir()
	writeFile(t, filepath.Join(src, "app_core", "cartridge", "a.js"), "hello")
	dst := filepath.Join(t.TempDir(), "x.zip")
	size, err := BuildArchive(dst, []string{filepath.Join(src, "app_core")})
	require.NoError(t, err)
	assert.True(t, size > 0)
	zr, err := zip.OpenReader(dst)
	require.NoError(t, err)
	defer zr.Close()
	names := make([]string, 0, len(zr.File))
	for _, zf := range zr.File {
		names = append(names, zf.Name)
	}
	assert.Equal(t, []string{"app_core/", "app_core/cartridge/", "app_core/cartridge/a.js"}, names)

	_, err = BuildArchive(dst, []string{filepath.Join(src, "app_core", "cartridge", "a.js")})
	assert.Error(t, err)
}
