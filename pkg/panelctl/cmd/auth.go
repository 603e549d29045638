package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/picontrol/panelctl/pkg/panelctl/client"
	"github.com/picontrol/panelctl/pkg/panelctl/output"
	"github.com/picontrol/panelctl/pkg/panelctl/session"
)

func NewAuthCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authenticate with the panel",
	}
	cmd.AddCommand(
		newAuthLoginCommand(),
		newAuthStatusCommand(),
		newAuthWhoamiCommand(),
		newAuthLogoutCommand(),
	)
	return cmd
}

func newAuthLoginCommand() *cobra.Command {
	var (
		username string
		password string
		totpCode string
	)
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Login with username and password",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			if username == "" || password == "" {
				if rt.nonInteractive {
					return errors.New("username and password are required in non-interactive mode")
				}
				if username == "" {
					username, err = promptLine(rt.Writer(), cmd.InOrStdin(), "Username")
					if err != nil {
						return err
					}
				}
				if password == "" {
					password, err = promptLine(rt.Writer(), cmd.InOrStdin(), "Password")
					if err != nil {
						return err
					}
				}
			}
			apiClient, err := buildClient(rt)
			if err != nil {
				return err
			}
			result, err := apiClient.Auth().Login(context.Background(), client.LoginRequest{
				Username: username,
				Password: password,
				TOTPCode: totpCode,
			})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(rt.Writer(), "Logged in as %s (%s)\n", result.User.Username, result.User.Role)
			if expiry, expErr := session.Expiry(result.AccessToken); expErr == nil {
				_, _ = fmt.Fprintf(rt.Writer(), "Token expires at %s\n", expiry.UTC().Format(time.RFC3339))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "Username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password (prompted when omitted)")
	cmd.Flags().StringVar(&totpCode, "totp", "", "One-time code when two-factor is enabled")
	return cmd
}

func newAuthStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show authentication status",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			apiClient, err := buildClient(rt)
			if err != nil {
				return err
			}
			token := apiClient.Token()
			if token == "" {
				_, _ = fmt.Fprintln(rt.Writer(), "Not authenticated")
				return nil
			}
			expiry, expErr := session.Expiry(token)
			switch {
			case expErr != nil:
				_, _ = fmt.Fprintln(rt.Writer(), "Authenticated (token expiry unknown)")
			case session.ExpiresWithin(token, 0):
				_, _ = fmt.Fprintf(rt.Writer(), "Token expired at %s; run 'panelctl auth login'\n", expiry.UTC().Format(time.RFC3339))
			default:
				_, _ = fmt.Fprintf(rt.Writer(), "Authenticated. Token expires at %s\n", expiry.UTC().Format(time.RFC3339))
			}
			return nil
		},
	}
}

func newAuthWhoamiCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			apiClient, err := buildClient(rt)
			if err != nil {
				return err
			}
			user, err := apiClient.Auth().Me(context.Background())
			if err != nil {
				return err
			}
			format := output.Format(rt.OutputFormat())
			if format == output.FormatTable {
				_, _ = fmt.Fprintf(rt.Writer(), "%s (%s)\n", user.Username, user.Role)
				return nil
			}
			return output.WriteObject(rt.Writer(), format, user)
		},
	}
}

func newAuthLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke the session and clear the stored token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			apiClient, err := buildClient(rt)
			if err != nil {
				return err
			}
			apiClient.Auth().Logout(context.Background())
			_, _ = fmt.Fprintln(rt.Writer(), "Logged out")
			return nil
		},
	}
}
