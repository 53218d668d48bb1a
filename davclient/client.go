package davclient

import (
	"context"

	"github.com/xxxsen/cartdav/multistatus"
)

// IClient maps local paths below a root onto the remote cartridge folder.
// An empty root means the root the client was built with.
type IClient interface {
	Propfind(ctx context.Context, path string, root string) ([]*multistatus.DirectoryEntry, error)
	Get(ctx context.Context, path string, root string) ([]byte, error)
	Post(ctx context.Context, path string, root string) ([]byte, error)
	Unzip(ctx context.Context, path string, root string) ([]byte, error)
	PostAndUnzip(ctx context.Context, path string, root string) ([]byte, error)
	Delete(ctx context.Context, path string, root string) ([]byte, error)
	Mkcol(ctx context.Context, path string, root string) ([]byte, error)
}
