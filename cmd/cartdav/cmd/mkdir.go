package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

func NewMkdirCmd(c *Context) *cobra.Command {
	var dir string
	ctx := context.Background()
	subc := &cobra.Command{
		Use:   "mkdir",
		Short: "Create a remote directory",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if len(dir) == 0 {
				return fmt.Errorf("no dir found")
			}
			if _, err := c.Client.Mkcol(ctx, dir, ""); err != nil {
				return fmt.Errorf("mkcol failed, dir:%s, err:%w", dir, err)
			}
			logutil.GetLogger(ctx).Info("mkdir succ", zap.String("dir", dir))
			return nil
		},
	}
	subc.PersistentFlags().StringVarP(&dir, "dir", "d", "", "directory to create, relative to root")
	return subc
}

func init() {
	register(NewMkdirCmd)
}
