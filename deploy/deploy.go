package deploy

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/xxxsen/cartdav/davclient"
	"github.com/xxxsen/cartdav/multistatus"
	"github.com/xxxsen/cartdav/utils"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/retry"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	defaultRetryTimes    = 3
	defaultRetryInterval = 2 * time.Second
	defaultThread        = 4
)

type Deployer struct {
	c *config
}

func New(opts ...Option) (*Deployer, error) {
	c := &config{
		Thread:        defaultThread,
		RetryInterval: defaultRetryInterval,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.Client == nil {
		return nil, fmt.Errorf("no webdav client found")
	}
	if len(c.WorkDir) == 0 {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("get work dir failed, err:%w", err)
		}
		c.WorkDir = wd
	}
	return &Deployer{c: c}, nil
}

func absFrom(workDir string, p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(workDir, p)
}

func (d *Deployer) withRetry(ctx context.Context, fn func(ctx context.Context) error) error {
	if !d.c.Retry {
		return fn(ctx)
	}
	return retry.RetryDo(ctx, defaultRetryTimes, d.c.RetryInterval, fn)
}

func isCollectionExist(err error) bool {
	var perr *davclient.ProtocolError
	return errors.As(err, &perr) && perr.StatusCode == http.StatusMethodNotAllowed
}

// parentDirs returns every directory between root (exclusive) and the files, parents first.
// Relative root and files are resolved against workDir.
func parentDirs(workDir string, root string, files []string) ([]string, error) {
	absRoot := absFrom(workDir, root)
	seen := make(map[string]struct{})
	for _, f := range files {
		absFile := absFrom(workDir, f)
		rel, err := filepath.Rel(absRoot, filepath.Dir(absFile))
		if err != nil {
			return nil, err
		}
		rel = filepath.ToSlash(rel)
		if rel == ".." || strings.HasPrefix(rel, "../") {
			return nil, fmt.Errorf("file is outside of root, file:%s, root:%s", f, root)
		}
		for rel != "." && rel != "" {
			seen[rel] = struct{}{}
			rel = filepath.ToSlash(filepath.Dir(rel))
		}
	}
	rs := make([]string, 0, len(seen))
	for dir := range seen {
		rs = append(rs, dir)
	}
	sort.Slice(rs, func(i, j int) bool {
		li, lj := strings.Count(rs[i], "/"), strings.Count(rs[j], "/")
		if li != lj {
			return li < lj
		}
		return rs[i] < rs[j]
	})
	return rs, nil
}

func (d *Deployer) ensureDirs(ctx context.Context, root string, dirs []string) error {
	for _, dir := range dirs {
		local := filepath.Join(root, filepath.FromSlash(dir))
		err := d.withRetry(ctx, func(ctx context.Context) error {
			_, err := d.c.Client.Mkcol(ctx, local, root)
			if err != nil && !isCollectionExist(err) {
				return err
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("create remote dir failed, dir:%s, err:%w", dir, err)
		}
	}
	return nil
}

func (d *Deployer) uploadOne(ctx context.Context, root string, file string) error {
	start := time.Now()
	info, err := os.Stat(file)
	if err != nil {
		return err
	}
	if err := d.withRetry(ctx, func(ctx context.Context) error {
		if _, err := d.c.Client.Post(ctx, file, root); err != nil {
			logutil.GetLogger(ctx).Error("upload file failed", zap.Error(err), zap.String("file", file))
			return err
		}
		return nil
	}); err != nil {
		return err
	}
	cost := time.Since(start)
	speed := "-"
	if ms := int64(cost / time.Millisecond); ms > 0 {
		speed = humanize.IBytes(uint64(float64(info.Size())*1000/float64(ms))) + "/s"
	}
	logutil.GetLogger(ctx).Debug("file upload finish", zap.String("file", file), zap.String("size", humanize.IBytes(uint64(info.Size()))),
		zap.Duration("cost", cost), zap.String("speed", speed))
	return nil
}

// UploadFiles puts files below root onto the remote folder, creating missing collections first.
// An empty root means the work dir. Paths handed to the client are absolute, so the
// client work dir does not matter.
func (d *Deployer) UploadFiles(ctx context.Context, root string, files []string) error {
	if len(root) == 0 {
		root = "."
	}
	absFiles := make([]string, 0, len(files))
	for _, f := range files {
		absFile := absFrom(d.c.WorkDir, f)
		if _, err := os.Stat(absFile); err != nil {
			return &davclient.LocalFileError{Path: f}
		}
		absFiles = append(absFiles, absFile)
	}
	dirs, err := parentDirs(d.c.WorkDir, root, files)
	if err != nil {
		return err
	}
	root = absFrom(d.c.WorkDir, root)
	files = absFiles
	if err := d.ensureDirs(ctx, root, dirs); err != nil {
		return err
	}
	eg, subctx := errgroup.WithContext(ctx)
	eg.SetLimit(d.c.Thread)
	logutil.GetLogger(ctx).Debug("start upload files", zap.Int("file_cnt", len(files)), zap.Int("dir_cnt", len(dirs)), zap.Int("thread", d.c.Thread))
	for _, f := range files {
		file := f
		eg.Go(func() error {
			return d.uploadOne(subctx, root, file)
		})
	}
	if err := eg.Wait(); err != nil {
		logutil.GetLogger(ctx).Error("upload files failed", zap.Error(err))
		return err
	}
	return nil
}

// DeployCartridges zips the cartridge directories, uploads and expands the archive
// on the server, then removes the remote archive. Relative directories are resolved
// against the work dir.
func (d *Deployer) DeployCartridges(ctx context.Context, archiveName string, dirs []string) error {
	if len(dirs) == 0 {
		return fmt.Errorf("no cartridge found")
	}
	if len(archiveName) == 0 {
		return fmt.Errorf("no archive name found")
	}
	tmp, err := os.MkdirTemp("", "cartdav-")
	if err != nil {
		return fmt.Errorf("create temp dir failed, err:%w", err)
	}
	defer os.RemoveAll(tmp)
	archive := filepath.Join(tmp, strings.TrimSuffix(archiveName, ".zip")+".zip")
	absDirs := make([]string, 0, len(dirs))
	for _, dir := range dirs {
		absDirs = append(absDirs, absFrom(d.c.WorkDir, dir))
	}
	size, err := BuildArchive(archive, absDirs)
	if err != nil {
		return fmt.Errorf("build archive failed, err:%w", err)
	}
	logutil.GetLogger(ctx).Info("build archive succ", zap.String("archive", filepath.Base(archive)),
		zap.Int("cartridge_cnt", len(dirs)), zap.String("size", humanize.IBytes(uint64(size))))
	start := time.Now()
	if err := d.withRetry(ctx, func(ctx context.Context) error {
		_, err := d.c.Client.PostAndUnzip(ctx, archive, tmp)
		return err
	}); err != nil {
		return fmt.Errorf("upload and unzip archive failed, err:%w", err)
	}
	logutil.GetLogger(ctx).Info("upload and unzip archive succ", zap.Duration("cost", time.Since(start)))
	if err := d.withRetry(ctx, func(ctx context.Context) error {
		_, err := d.c.Client.Delete(ctx, archive, tmp)
		return err
	}); err != nil {
		return fmt.Errorf("remove remote archive failed, err:%w", err)
	}
	return nil
}

// Download fetches a remote file and saves it to dst.
func (d *Deployer) Download(ctx context.Context, remote string, dst string) error {
	var body []byte
	if err := d.withRetry(ctx, func(ctx context.Context) error {
		raw, err := d.c.Client.Get(ctx, remote, "")
		if err != nil {
			return err
		}
		body = raw
		return nil
	}); err != nil {
		return fmt.Errorf("download file failed, remote:%s, err:%w", remote, err)
	}
	if err := utils.SafeSaveIOToFile(dst, bytes.NewReader(body), 0644); err != nil {
		return err
	}
	logutil.GetLogger(ctx).Debug("download file finish", zap.String("remote", remote), zap.String("dst", dst),
		zap.String("size", humanize.IBytes(uint64(len(body)))))
	return nil
}

// List returns the members of a remote collection. The first PROPFIND entry
// describes the collection itself and is dropped.
func (d *Deployer) List(ctx context.Context, dir string) ([]*multistatus.DirectoryEntry, error) {
	var rs []*multistatus.DirectoryEntry
	if err := d.withRetry(ctx, func(ctx context.Context) error {
		ents, err := d.c.Client.Propfind(ctx, dir, "")
		if err != nil {
			return err
		}
		rs = ents
		return nil
	}); err != nil {
		return nil, err
	}
	if len(rs) == 0 {
		return rs, nil
	}
	return rs[1:], nil
}
