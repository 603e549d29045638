package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/picontrol/panelctl/pkg/panelctl/client"
	"github.com/picontrol/panelctl/pkg/panelctl/output"
)

func NewAlertCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "alert",
		Short: "List and acknowledge alerts",
	}
	cmd.AddCommand(
		newAlertListCommand(),
		newAlertAckCommand(),
	)
	return cmd
}

func newAlertListCommand() *cobra.Command {
	var (
		state    string
		severity string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List alerts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			apiClient, err := buildClient(rt)
			if err != nil {
				return err
			}
			alerts, err := apiClient.Alerts().List(context.Background(), client.AlertListOptions{
				State:    state,
				Severity: severity,
			})
			if err != nil {
				return err
			}
			format := output.Format(rt.OutputFormat())
			if format == output.FormatTable {
				output.WriteAlertTable(rt.Writer(), alerts)
				return nil
			}
			return output.WriteObject(rt.Writer(), format, alerts)
		},
	}
	cmd.Flags().StringVar(&state, "state", "", "Filter by state (firing, resolved)")
	cmd.Flags().StringVar(&severity, "severity", "", "Filter by severity (info, warning, critical)")
	return cmd
}

func newAlertAckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ack <id>",
		Short: "Acknowledge an alert",
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
			if err := apiClient.Alerts().Acknowledge(context.Background(), args[0]); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(rt.Writer(), "Acknowledged")
			return nil
		},
	}
}
