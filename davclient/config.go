package davclient

const (
	defaultUsername = "admin"
	defaultPassword = "password"
	defaultFolder   = "Cartridges"
	defaultVersion  = "version1"
	defaultRoot     = "."
)

type config struct {
	Hostname   string
	Username   string
	Password   string
	Bearer     string
	Folder     string
	Version    string
	Root       string
	WorkDir    string
	P12        string
	Passphrase string
	RootCA     string
	SelfSigned bool
	StrictSSL  bool
	Transport  ITransport
}

type Option func(*config)

func WithHostname(h string) Option {
	return func(c *config) {
		c.Hostname = h
	}
}

// WithAuth sets the basic credentials, they are ignored once a bearer token is set.
func WithAuth(user string, pwd string) Option {
	return func(c *config) {
		if len(user) > 0 {
			c.Username = user
		}
		if len(pwd) > 0 {
			c.Password = pwd
		}
	}
}

func WithBearer(token string) Option {
	return func(c *config) {
		c.Bearer = token
	}
}

func WithFolder(f string) Option {
	return func(c *config) {
		if len(f) > 0 {
			c.Folder = f
		}
	}
}

// WithVersion sets the code version, only used when the folder is Cartridges.
func WithVersion(v string) Option {
	return func(c *config) {
		if len(v) > 0 {
			c.Version = v
		}
	}
}

// WithRoot sets the local directory that maps to the remote folder.
func WithRoot(r string) Option {
	return func(c *config) {
		if len(r) > 0 {
			c.Root = r
		}
	}
}

// WithWorkDir sets the directory relative roots and paths are resolved against.
func WithWorkDir(d string) Option {
	return func(c *config) {
		c.WorkDir = d
	}
}

// WithClientCert enables certificate auth for hostnames starting with "cert".
func WithClientCert(p12 string, passphrase string) Option {
	return func(c *config) {
		c.P12 = p12
		c.Passphrase = passphrase
	}
}

// WithRootCA trusts the pem certificates in file when verifying the server, instead of the system roots.
func WithRootCA(file string) Option {
	return func(c *config) {
		c.RootCA = file
	}
}

// WithSelfSigned accepts any server chain during certificate auth.
func WithSelfSigned(v bool) Option {
	return func(c *config) {
		c.SelfSigned = v
	}
}

// WithStrictSSL turns on server certificate verification for ordinary calls.
func WithStrictSSL(v bool) Option {
	return func(c *config) {
		c.StrictSSL = v
	}
}

func WithTransport(t ITransport) Option {
	return func(c *config) {
		c.Transport = t
	}
}
