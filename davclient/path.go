package davclient

import (
	"fmt"
	"path/filepath"
	"strings"
)

func absFrom(workDir string, p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(workDir, p)
}

// relativePath maps a local file to its path below the remote folder, using forward slashes.
// Empty or "." file paths map to the root itself, which yields "".
func relativePath(workDir string, localRoot string, filePath string) (string, error) {
	if len(filePath) == 0 {
		filePath = "."
	}
	root := absFrom(workDir, localRoot)
	target := absFrom(workDir, filePath)
	rel, err := filepath.Rel(root, target)
	if err != nil {
		return "", &ConfigError{Field: "path", Reason: fmt.Sprintf("resolve %s against root %s failed, err:%v", filePath, localRoot, err)}
	}
	rel = filepath.ToSlash(rel)
	if rel == "." {
		return "", nil
	}
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", &ConfigError{Field: "path", Reason: fmt.Sprintf("%s is outside of root %s", filePath, localRoot)}
	}
	return rel, nil
}

// buildURI returns the request uri of a local file, always rooted at "/".
func buildURI(workDir string, localRoot string, filePath string) (string, error) {
	rel, err := relativePath(workDir, localRoot, filePath)
	if err != nil {
		return "", err
	}
	return "/" + rel, nil
}
