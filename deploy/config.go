package deploy

import (
	"time"

	"github.com/xxxsen/cartdav/davclient"
)

type config struct {
	Thread        int
	Client        davclient.IClient
	Retry         bool
	RetryInterval time.Duration
	WorkDir       string
}

type Option func(*config)

func WithClient(cli davclient.IClient) Option {
	return func(c *config) {
		c.Client = cli
	}
}

func WithThread(t int) Option {
	return func(c *config) {
		if t > 0 {
			c.Thread = t
		}
	}
}

// WithRetry retries failed remote steps a few times, waiting interval between tries.
func WithRetry(enable bool, interval time.Duration) Option {
	return func(c *config) {
		c.Retry = enable
		if interval > 0 {
			c.RetryInterval = interval
		}
	}
}

// WithWorkDir sets the directory relative roots and files are resolved against.
// It should match the work dir of the client, the process cwd is used when unset.
func WithWorkDir(d string) Option {
	return func(c *config) {
		c.WorkDir = d
	}
}
