package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/xxxsen/cartdav/cmd/cartdav/config"
	"github.com/xxxsen/cartdav/davclient"
	"github.com/xxxsen/cartdav/deploy"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

const (
	defaultConfigFileEnv = "CARTDAV_CONFIG"
	defaultConfigFile    = "dw.json"
)

var cmds []CreateFunc

type Context struct {
	Client   davclient.IClient
	Deployer *deploy.Deployer
	Config   *config.Config
}

type CreateFunc func(ctx *Context) *cobra.Command

func register(cr CreateFunc) {
	cmds = append(cmds, cr)
}

type rootArgs struct {
	configFile string
	hostname   string
	bearer     string
}

func loadConfig(cfgs []string) (*config.Config, error) {
	var lastErr error = fmt.Errorf("no config file given")
	for _, cfg := range cfgs {
		if len(cfg) == 0 {
			continue
		}
		c, err := config.Parse(cfg)
		if err != nil {
			lastErr = err
			continue
		}
		return c, nil
	}
	return nil, fmt.Errorf("no valid config file found, last err:%w", lastErr)
}

func checkBearer(ctx context.Context, token string) {
	if len(token) == 0 {
		return
	}
	info, ok, err := davclient.InspectBearer(token)
	if err != nil {
		logutil.GetLogger(ctx).Warn("bearer looks like a jwt but can not be decoded", zap.Error(err))
		return
	}
	if !ok {
		return
	}
	if info.Expired(time.Now()) {
		logutil.GetLogger(ctx).Warn("bearer token expired", zap.String("subject", info.Subject), zap.Time("expires_at", info.ExpiresAt))
		return
	}
	logutil.GetLogger(ctx).Debug("use bearer token", zap.String("subject", info.Subject), zap.Time("expires_at", info.ExpiresAt))
}

func buildClient(c *config.Config, workDir string) (davclient.IClient, error) {
	tr, err := davclient.NewHTTPTransport(davclient.WithTimeout(time.Duration(c.Timeout) * time.Second))
	if err != nil {
		return nil, err
	}
	return davclient.New(
		davclient.WithHostname(c.Hostname),
		davclient.WithAuth(c.Username, c.Password),
		davclient.WithBearer(c.Bearer),
		davclient.WithFolder(c.Folder),
		davclient.WithVersion(c.Version),
		davclient.WithRoot(c.Root),
		davclient.WithWorkDir(workDir),
		davclient.WithClientCert(c.P12, c.Passphrase),
		davclient.WithRootCA(c.RootCA),
		davclient.WithSelfSigned(c.SelfSigned),
		davclient.WithStrictSSL(c.StrictSSL),
		davclient.WithTransport(tr),
	)
}

func initContext(ctx *Context, args *rootArgs) error {
	envConfigFile, _ := os.LookupEnv(defaultConfigFileEnv)
	c, err := loadConfig([]string{args.configFile, envConfigFile, defaultConfigFile})
	if err != nil {
		return err
	}
	if len(args.hostname) > 0 {
		c.Hostname = args.hostname
	}
	if len(args.bearer) > 0 {
		c.Bearer = args.bearer
	}
	ctx.Config = c
	logger.Init("", c.LogLevel, 0, 0, 0, true)
	checkBearer(context.Background(), c.Bearer)
	wd, err := os.Getwd()
	if err != nil {
		return err
	}
	cli, err := buildClient(c, wd)
	if err != nil {
		return err
	}
	ctx.Client = cli
	ctx.Deployer, err = deploy.New(
		deploy.WithClient(cli),
		deploy.WithWorkDir(wd),
		deploy.WithThread(c.Thread),
		deploy.WithRetry(c.Retry, time.Duration(c.RetryInterval)*time.Second),
	)
	if err != nil {
		return err
	}
	return nil
}

func NewRoot() *cobra.Command {
	args := &rootArgs{}
	ctx := &Context{}
	var rootCmd = &cobra.Command{
		Use:           "cartdav",
		Short:         "Cartridge WebDAV CLI tool",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	for _, cr := range cmds {
		rootCmd.AddCommand(cr(ctx))
	}
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		return initContext(ctx, args)
	}
	rootCmd.PersistentFlags().StringVarP(&args.configFile, "config", "c", "", "config file, dw.json style")
	rootCmd.PersistentFlags().StringVar(&args.hostname, "hostname", "", "override hostname from config")
	rootCmd.PersistentFlags().StringVar(&args.bearer, "bearer", "", "override bearer token from config")
	return rootCmd
}
