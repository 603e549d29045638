package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/picontrol/panelctl/pkg/panelctl/output"
)

func NewNetworkCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "network",
		Short: "Inspect host network state",
	}
	cmd.AddCommand(newNetworkInterfacesCommand())
	return cmd
}

func newNetworkInterfacesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "interfaces",
		Short: "List host network interfaces",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			apiClient, err := buildClient(rt)
			if err != nil {
				return err
			}
			interfaces, err := apiClient.Network().Interfaces(context.Background())
			if err != nil {
				return err
			}
			format := output.Format(rt.OutputFormat())
			if format == output.FormatTable {
				output.WriteInterfaceTable(rt.Writer(), interfaces)
				return nil
			}
			return output.WriteObject(rt.Writer(), format, interfaces)
		},
	}
}
