package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

const (
	defaultArchiveName = "cartridges"
)

type deployArgs struct {
	name string
}

func NewDeployCmd(c *Context) *cobra.Command {
	args := &deployArgs{}
	ctx := context.Background()
	subc := &cobra.Command{
		Use:   "deploy <cartridge dir>...",
		Short: "Zip cartridges, upload and expand them on the server",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, dirs []string) error {
			return onRunDeploy(ctx, c, args, dirs)
		},
	}
	subc.PersistentFlags().StringVarP(&args.name, "name", "n", "", "archive name, default to code version")
	return subc
}

func onRunDeploy(ctx context.Context, c *Context, args *deployArgs, dirs []string) error {
	name := args.name
	if len(name) == 0 {
		name = c.Config.Version
	}
	if len(name) == 0 {
		name = defaultArchiveName
	}
	start := time.Now()
	if err := c.Deployer.DeployCartridges(ctx, name, dirs); err != nil {
		return fmt.Errorf("deploy cartridges failed, err:%w", err)
	}
	logutil.GetLogger(ctx).Info("deploy cartridges succ", zap.Strings("cartridges", dirs), zap.String("hostname", c.Config.Hostname),
		zap.Duration("cost", time.Since(start)))
	return nil
}

func init() {
	register(NewDeployCmd)
}
