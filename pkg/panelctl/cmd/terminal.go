package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/picontrol/panelctl/pkg/panelctl/breakglass"
	"github.com/picontrol/panelctl/pkg/panelctl/output"
)

func NewTerminalCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "terminal",
		Short: "Run commands and manage break-glass access",
	}
	cmd.AddCommand(
		newTerminalExecCommand(),
		newBreakglassCommand(),
	)
	return cmd
}

func newTerminalExecCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "exec <command>",
		Short: "Execute a command on the host",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			apiClient, err := buildClient(rt)
			if err != nil {
				return err
			}
			result, err := apiClient.Terminal().Exec(context.Background(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			_, _ = fmt.Fprint(rt.Writer(), result.Output)
			if result.ExitCode != 0 {
				return fmt.Errorf("command exited with code %d", result.ExitCode)
			}
			return nil
		},
	}
}

func newBreakglassCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "breakglass",
		Short: "Manage the elevated break-glass session",
	}
	cmd.AddCommand(
		newBreakglassStatusCommand(),
		newBreakglassStartCommand(),
		newBreakglassStopCommand(),
	)
	return cmd
}

func newBreakglassStatusCommand() *cobra.Command {
	var watch bool
	var interval time.Duration
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show break-glass session status",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			apiClient, err := buildClient(rt)
			if err != nil {
				return err
			}
			status, err := apiClient.Terminal().BreakglassStatus(context.Background())
			if err != nil {
				return err
			}
			format := output.Format(rt.OutputFormat())
			if format != output.FormatTable {
				return output.WriteObject(rt.Writer(), format, status)
			}
			output.WriteBreakglassStatus(rt.Writer(), status)
			if !watch || !status.Active {
				return nil
			}

			manager := breakglass.NewManager(apiClient.Terminal(), breakglass.WithLogger(rt.logf))
			runner := manager.Watch(context.Background(), interval, func(remaining int64, _ time.Time) {
				if remaining > 0 {
					_, _ = fmt.Fprintf(rt.Writer(), "%ds remaining\n", remaining)
				} else {
					_, _ = fmt.Fprintln(rt.Writer(), "Break-glass session ended")
				}
			})
			defer runner.Stop()
			runner.Wait()
			return nil
		},
	}
	cmd.Flags().BoolVar(&watch, "watch", false, "Poll until the session expires")
	cmd.Flags().DurationVar(&interval, "interval", 5*time.Second, "Polling interval with --watch")
	return cmd
}

func newBreakglassStartCommand() *cobra.Command {
	var (
		password string
		totpCode string
		reuse    bool
	)
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start (or continue) an elevated session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			apiClient, err := buildClient(rt)
			if err != nil {
				return err
			}

			requireTOTP := false
			if user, meErr := apiClient.Auth().Me(context.Background()); meErr == nil {
				requireTOTP = user.HasTOTP
			}
			manager := breakglass.NewManager(apiClient.Terminal(),
				breakglass.WithTOTPRequired(requireTOTP),
				breakglass.WithLogger(rt.logf),
			)

			state, err := manager.Open(context.Background())
			if err != nil {
				return err
			}
			if state == breakglass.StateActive {
				if reuse || rt.nonInteractive {
					grant, contErr := manager.ContinueSession()
					if contErr != nil {
						return contErr
					}
					_, _ = fmt.Fprintf(rt.Writer(), "Reusing active break-glass session, %ds remaining\n", grant.TTLSeconds)
					return nil
				}
				answer, promptErr := promptLine(rt.Writer(), cmd.InOrStdin(), "Session already active; continue or end? [c/e]")
				if promptErr != nil {
					return promptErr
				}
				if strings.EqualFold(answer, "c") || answer == "" {
					grant, contErr := manager.ContinueSession()
					if contErr != nil {
						return contErr
					}
					_, _ = fmt.Fprintf(rt.Writer(), "Reusing active break-glass session, %ds remaining\n", grant.TTLSeconds)
					return nil
				}
				manager.End(context.Background(), "superseded")
			}

			if password == "" {
				if rt.nonInteractive {
					return errors.New("password is required in non-interactive mode")
				}
				password, err = promptLine(rt.Writer(), cmd.InOrStdin(), "Password")
				if err != nil {
					return err
				}
			}
			if requireTOTP && totpCode == "" {
				if rt.nonInteractive {
					return errors.New("one-time code is required in non-interactive mode")
				}
				totpCode, err = promptLine(rt.Writer(), cmd.InOrStdin(), "One-time code")
				if err != nil {
					return err
				}
			}

			grant, err := manager.Submit(context.Background(), password, totpCode)
			if err != nil {
				if errors.Is(err, breakglass.ErrCodeIncomplete) {
					return err
				}
				return fmt.Errorf("authentication failed: %w", err)
			}
			_, _ = fmt.Fprintf(rt.Writer(), "Break-glass session granted for %ds (expires %s)\n",
				grant.TTLSeconds, grant.ExpiresAt.UTC().Format(time.RFC3339))
			return nil
		},
	}
	cmd.Flags().StringVarP(&password, "password", "p", "", "Account password (prompted when omitted)")
	cmd.Flags().StringVar(&totpCode, "totp", "", "One-time code when two-factor is enabled")
	cmd.Flags().BoolVar(&reuse, "reuse", false, "Reuse an already-active session without prompting")
	return cmd
}

func newBreakglassStopCommand() *cobra.Command {
	var reason string
	cmd := &cobra.Command{
		Use:   "stop",
		Short: "End the elevated session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			apiClient, err := buildClient(rt)
			if err != nil {
				return err
			}
			manager := breakglass.NewManager(apiClient.Terminal(), breakglass.WithLogger(rt.logf))
			manager.End(context.Background(), reason)
			_, _ = fmt.Fprintln(rt.Writer(), "Break-glass session ended")
			return nil
		},
	}
	cmd.Flags().StringVar(&reason, "reason", "user_requested", "Reason code recorded with the stop")
	return cmd
}
