package cmd

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

type getArgs struct {
	file   string
	output string
}

func NewGetCmd(c *Context) *cobra.Command {
	args := &getArgs{}
	ctx := context.Background()
	subc := &cobra.Command{
		Use:   "get",
		Short: "Download a remote file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return onRunGet(ctx, c, args)
		},
	}
	subc.PersistentFlags().StringVarP(&args.file, "file", "f", "", "file to download, relative to root")
	subc.PersistentFlags().StringVarP(&args.output, "output", "o", "", "local destination, default to file name in current dir")
	return subc
}

func onRunGet(ctx context.Context, c *Context, args *getArgs) error {
	if len(args.file) == 0 {
		return fmt.Errorf("no download file found")
	}
	dst := args.output
	if len(dst) == 0 {
		dst = path.Base(filepath.ToSlash(args.file))
	}
	start := time.Now()
	if err := c.Deployer.Download(ctx, args.file, dst); err != nil {
		return err
	}
	logutil.GetLogger(ctx).Info("download file succ", zap.String("file", args.file), zap.String("dst", dst), zap.Duration("cost", time.Since(start)))
	return nil
}

func init() {
	register(NewGetCmd)
}
