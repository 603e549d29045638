package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/picontrol/panelctl/pkg/panelctl/client"
	"github.com/picontrol/panelctl/pkg/panelctl/output"
)

func NewDeviceCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "device",
		Short: "Inspect and control discovered devices",
	}
	cmd.AddCommand(
		newDeviceListCommand(),
		newDeviceGetCommand(),
		newDeviceCommandCommand(),
		newDeviceRestartCommand(),
	)
	return cmd
}

func newDeviceListCommand() *cobra.Command {
	var (
		deviceType string
		state      string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List discovered devices",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			apiClient, err := buildClient(rt)
			if err != nil {
				return err
			}
			devices, err := apiClient.Devices().List(context.Background(), client.DeviceListOptions{
				Type:  deviceType,
				State: state,
			})
			if err != nil {
				return err
			}
			format := output.Format(rt.OutputFormat())
			if format == output.FormatTable {
				output.WriteDeviceTable(rt.Writer(), devices)
				return nil
			}
			return output.WriteObject(rt.Writer(), format, devices)
		},
	}
	cmd.Flags().StringVar(&deviceType, "type", "", "Filter by device type (usb, serial, gpio, esp, bluetooth)")
	cmd.Flags().StringVar(&state, "state", "", "Filter by device state")
	return cmd
}

func newDeviceGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one device",
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
			device, err := apiClient.Devices().Get(context.Background(), args[0])
			if err != nil {
				return err
			}
			format := output.Format(rt.OutputFormat())
			if format == output.FormatTable {
				format = output.FormatYAML
			}
			return output.WriteObject(rt.Writer(), format, device)
		},
	}
}

func newDeviceRestartCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "restart <id>",
		Short: "Restart a device",
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
			if _, err := apiClient.Devices().Command(context.Background(), args[0], client.DeviceCommand{
				Command: "restart",
			}); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(rt.Writer(), "Restarted %s\n", args[0])
			return nil
		},
	}
}

func newDeviceCommandCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "command <id> <command>",
		Short: "Send a command to a device",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			apiClient, err := buildClient(rt)
			if err != nil {
				return err
			}
			result, err := apiClient.Devices().Command(context.Background(), args[0], client.DeviceCommand{
				Command: args[1],
			})
			if err != nil {
				return err
			}
			if len(result) == 0 {
				_, _ = fmt.Fprintln(rt.Writer(), "OK")
				return nil
			}
			return output.WriteObject(rt.Writer(), output.FormatJSON, result)
		},
	}
}
