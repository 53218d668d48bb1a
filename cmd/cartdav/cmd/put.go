package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

type putArgs struct {
	files []string
	unzip bool
}

func NewPutCmd(c *Context) *cobra.Command {
	args := &putArgs{}
	ctx := context.Background()
	subc := &cobra.Command{
		Use:   "put",
		Short: "Upload local files",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return onRunPut(ctx, c, args)
		},
	}
	subc.PersistentFlags().StringSliceVarP(&args.files, "file", "f", nil, "local files to upload")
	subc.PersistentFlags().BoolVar(&args.unzip, "unzip", false, "expand the uploaded archive on server, single file only")
	return subc
}

func onRunPut(ctx context.Context, c *Context, args *putArgs) error {
	if len(args.files) == 0 {
		return fmt.Errorf("no upload file found")
	}
	start := time.Now()
	if args.unzip {
		if len(args.files) != 1 {
			return fmt.Errorf("unzip needs exactly one file, got:%d", len(args.files))
		}
		if _, err := c.Client.PostAndUnzip(ctx, args.files[0], ""); err != nil {
			return fmt.Errorf("upload and unzip failed, err:%w", err)
		}
		logutil.GetLogger(ctx).Info("upload and unzip succ", zap.String("file", args.files[0]), zap.Duration("cost", time.Since(start)))
		return nil
	}
	if err := c.Deployer.UploadFiles(ctx, c.Config.Root, args.files); err != nil {
		return fmt.Errorf("upload file failed, err:%w", err)
	}
	logutil.GetLogger(ctx).Info("upload file succ", zap.Int("file_cnt", len(args.files)), zap.Duration("cost", time.Since(start)))
	return nil
}

func init() {
	register(NewPutCmd)
}
