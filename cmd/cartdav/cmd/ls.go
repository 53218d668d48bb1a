package cmd

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/xxxsen/cartdav/multistatus"
)

func NewLsCmd(c *Context) *cobra.Command {
	ctx := context.Background()
	subc := &cobra.Command{
		Use:   "ls [dir]",
		Short: "List a remote directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := ""
			if len(args) > 0 {
				dir = args[0]
			}
			return onRunLs(ctx, c, dir, cmd.OutOrStdout())
		},
	}
	return subc
}

func formatSize(length string) string {
	if len(length) == 0 {
		return "-"
	}
	n, err := strconv.ParseUint(length, 10, 64)
	if err != nil {
		return length
	}
	return humanize.IBytes(n)
}

func printEntries(w io.Writer, ents []*multistatus.DirectoryEntry) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tSIZE\tLAST MODIFIED\tHREF")
	for _, ent := range ents {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", ent.Name, formatSize(ent.ContentLength), ent.LastModified, ent.Href)
	}
	return tw.Flush()
}

func onRunLs(ctx context.Context, c *Context, dir string, w io.Writer) error {
	ents, err := c.Deployer.List(ctx, dir)
	if err != nil {
		return fmt.Errorf("list dir failed, dir:%s, err:%w", dir, err)
	}
	return printEntries(w, ents)
}

func init() {
	register(NewLsCmd)
}
