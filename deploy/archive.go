package deploy

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// BuildArchive zips every cartridge directory into dst. Entries are prefixed by
// the cartridge directory name so the archive expands into one folder per cartridge.
func BuildArchive(dst string, dirs []string) (int64, error) {
	names := make(map[string]string, len(dirs))
	for _, dir := range dirs {
		info, err := os.Stat(dir)
		if err != nil {
			return 0, fmt.Errorf("stat cartridge failed, dir:%s, err:%w", dir, err)
		}
		if !info.IsDir() {
			return 0, fmt.Errorf("cartridge is not a directory, path:%s", dir)
		}
		abs, err := filepath.Abs(dir)
		if err != nil {
			return 0, err
		}
		name := filepath.Base(abs)
		if exist, ok := names[name]; ok {
			return 0, fmt.Errorf("duplicate cartridge name:%s, dirs:[%s, %s]", name, exist, dir)
		}
		names[name] = dir
	}
	f, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return 0, fmt.Errorf("create archive failed, err:%w", err)
	}
	zw := zip.NewWriter(f)
	for _, dir := range dirs {
		if err := addDir(zw, dir); err != nil {
			_ = zw.Close()
			_ = f.Close()
			return 0, err
		}
	}
	if err := zw.Close(); err != nil {
		_ = f.Close()
		return 0, fmt.Errorf("finish archive failed, err:%w", err)
	}
	if err := f.Close(); err != nil {
		return 0, fmt.Errorf("close archive failed, err:%w", err)
	}
	info, err := os.Stat(dst)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

func addDir(zw *zip.Writer, dir string) error {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return err
	}
	parent := filepath.Dir(dir)
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(parent, p)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(rel)
		if d.IsDir() {
			_, err := zw.Create(name + "/")
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		return addFile(zw, p, name)
	})
}

func addFile(zw *zip.Writer, src string, name string) error {
	f, err := os.Open(src)
	if err != nil {
		return err
	}
	defer f.Close()
	w, err := zw.Create(name)
	if err != nil {
		return err
	}
	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("write archive entry failed, name:%s, err:%w", name, err)
	}
	return nil
}
