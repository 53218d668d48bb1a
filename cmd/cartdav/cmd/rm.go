package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

func NewRmCmd(c *Context) *cobra.Command {
	var files []string
	ctx := context.Background()
	subc := &cobra.Command{
		Use:   "rm",
		Short: "Delete remote files or directories, missing ones are ignored",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if len(files) == 0 {
				return fmt.Errorf("no file to delete")
			}
			for _, f := range files {
				if _, err := c.Client.Delete(ctx, f, ""); err != nil {
					return fmt.Errorf("delete failed, file:%s, err:%w", f, err)
				}
				logutil.GetLogger(ctx).Info("delete succ", zap.String("file", f))
			}
			return nil
		},
	}
	subc.PersistentFlags().StringSliceVarP(&files, "file", "f", nil, "paths to delete, relative to root")
	return subc
}

func init() {
	register(NewRmCmd)
}
