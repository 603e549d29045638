package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/picontrol/panelctl/pkg/panelctl/output"
)

func NewFileCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "file",
		Short: "Browse the panel's managed files",
	}
	cmd.AddCommand(
		newFileListCommand(),
		newFileDeleteCommand(),
	)
	return cmd
}

func newFileListCommand() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List files in a managed directory",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			apiClient, err := buildClient(rt)
			if err != nil {
				return err
			}
			entries, err := apiClient.Files().List(context.Background(), dir)
			if err != nil {
				return err
			}
			format := output.Format(rt.OutputFormat())
			if format != output.FormatTable {
				return output.WriteObject(rt.Writer(), format, entries)
			}
			tw := tabwriter.NewWriter(rt.Writer(), 2, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(tw, "NAME\tSIZE\tDIR\tMODIFIED")
			for _, entry := range entries {
				modified := entry.ModifiedAt
				if modified == "" {
					modified = "-"
				}
				_, _ = fmt.Fprintf(tw, "%s\t%d\t%t\t%s\n", entry.Name, entry.Size, entry.IsDir, modified)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&dir, "path", "", "Directory to list")
	return cmd
}

func newFileDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <path>",
		Short: "Delete a managed file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			apiClient, err := buildClient(rt)
			if err != nil {
				return err
			}
			if err := apiClient.Files().Delete(context.Background(), args[0]); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(rt.Writer(), "Deleted %s\n", args[0])
			return nil
		},
	}
}
