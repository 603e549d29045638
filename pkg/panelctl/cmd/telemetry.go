package cmd

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/picontrol/panelctl/pkg/panelctl/output"
	"github.com/picontrol/panelctl/pkg/panelctl/poll"
	"github.com/picontrol/panelctl/pkg/panelctl/stream"
)

func NewTelemetryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "telemetry",
		Short: "Read host telemetry",
	}
	cmd.AddCommand(
		newTelemetryShowCommand(),
		newTelemetryHistoryCommand(),
		newTelemetryWatchCommand(),
		newTelemetryStreamCommand(),
	)
	return cmd
}

func newTelemetryShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current system metrics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			apiClient, err := buildClient(rt)
			if err != nil {
				return err
			}
			metrics, err := apiClient.Telemetry().Current(context.Background())
			if err != nil {
				return err
			}
			format := output.Format(rt.OutputFormat())
			if format == output.FormatTable {
				output.WriteMetrics(rt.Writer(), metrics)
				return nil
			}
			return output.WriteObject(rt.Writer(), format, metrics)
		},
	}
}

func newTelemetryHistoryCommand() *cobra.Command {
	var since time.Duration
	cmd := &cobra.Command{
		Use:   "history <metric>",
		Short: "Show history for one metric",
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
			resp, err := apiClient.Telemetry().History(context.Background(), args[0], since)
			if err != nil {
				return err
			}
			format := output.Format(rt.OutputFormat())
			if format != output.FormatTable {
				return output.WriteObject(rt.Writer(), format, resp)
			}
			for _, p := range resp.Points {
				_, _ = fmt.Fprintf(rt.Writer(), "%s\t%.2f\n", time.Unix(p.TS, 0).UTC().Format(time.RFC3339), p.Value)
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&since, "since", time.Hour, "History window")
	return cmd
}

func newTelemetryWatchCommand() *cobra.Command {
	var interval time.Duration
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Poll current metrics at an interval",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			apiClient, err := buildClient(rt)
			if err != nil {
				return err
			}
			runner := poll.NewRunner(interval)
			runner.Start(cmd.Context(), func(ctx context.Context) bool {
				metrics, err := apiClient.Telemetry().Current(ctx)
				if err != nil {
					rt.logf("telemetry poll failed: %v", err)
					return true
				}
				output.WriteMetrics(rt.Writer(), metrics)
				return true
			})
			defer runner.Stop()
			runner.Wait()
			return nil
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", 5*time.Second, "Polling interval")
	return cmd
}

func newTelemetryStreamCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stream",
		Short: "Follow the live telemetry event stream",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			apiClient, err := buildClient(rt)
			if err != nil {
				return err
			}
			ctxCfg, err := rt.ResolveContext()
			if err != nil && rt.serverOverride == "" {
				return err
			}
			server := rt.resolveServer(ctxCfg)
			streamURL, err := url.JoinPath(server, "sse", "telemetry")
			if err != nil {
				return err
			}
			// The SSE connection must outlive any request timeout.
			events := stream.Subscribe(cmd.Context(), stream.Config{
				URL:        streamURL,
				Token:      apiClient.Token(),
				HTTPClient: &http.Client{},
				Logf:       rt.logf,
			})
			for ev := range events {
				if ev.Event != "" && ev.Event != "telemetry" {
					continue
				}
				_, _ = fmt.Fprintln(rt.Writer(), strings.TrimSpace(ev.Data))
			}
			return nil
		},
	}
}
