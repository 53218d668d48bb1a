package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

func NewUnzipCmd(c *Context) *cobra.Command {
	var file string
	ctx := context.Background()
	subc := &cobra.Command{
		Use:   "unzip",
		Short: "Expand an archive already on the server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if len(file) == 0 {
				return fmt.Errorf("no archive found")
			}
			if _, err := c.Client.Unzip(ctx, file, ""); err != nil {
				return fmt.Errorf("unzip failed, file:%s, err:%w", file, err)
			}
			logutil.GetLogger(ctx).Info("unzip succ", zap.String("file", file))
			return nil
		},
	}
	subc.PersistentFlags().StringVarP(&file, "file", "f", "", "archive path, relative to root")
	return subc
}

func init() {
	register(NewUnzipCmd)
}
