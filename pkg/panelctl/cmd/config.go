package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/picontrol/panelctl/pkg/panelctl/config"
	"github.com/picontrol/panelctl/pkg/panelctl/output"
)

func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage panelctl configuration",
	}
	cmd.AddCommand(
		newConfigInitCommand(),
		newConfigViewCommand(),
		newConfigUseContextCommand(),
	)
	return cmd
}

func newConfigInitCommand() *cobra.Command {
	var (
		name         string
		server       string
		tokenStorage string
	)
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with one context",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			cfg := config.DefaultConfig()
			cfg.CurrentContext = name
			cfg.Contexts = []config.Context{{
				Name:         name,
				Server:       server,
				TokenStorage: tokenStorage,
			}}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if err := config.Save(rt.configPath, &cfg); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(rt.Writer(), "Wrote %s\n", rt.configPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "default", "Context name")
	cmd.Flags().StringVar(&server, "server", "", "Panel API base URL, e.g. https://pi.local/api")
	cmd.Flags().StringVar(&tokenStorage, "token-storage", "", "Token storage backend: keychain or file")
	_ = cmd.MarkFlagRequired("server")
	return cmd
}

func newConfigViewCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "view",
		Short: "Print the active configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			if err := rt.EnsureConfigLoaded(); err != nil {
				return err
			}
			return output.WriteObject(rt.Writer(), output.FormatYAML, rt.cfg)
		},
	}
}

func newConfigUseContextCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "use-context <name>",
		Short: "Set the current context",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			if err := rt.EnsureConfigLoaded(); err != nil {
				return err
			}
			if _, err := rt.cfg.FindContext(args[0]); err != nil {
				return err
			}
			rt.cfg.CurrentContext = args[0]
			if err := config.Save(rt.configPath, rt.cfg); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(rt.Writer(), "Switched to context %s\n", args[0])
			return nil
		},
	}
}
