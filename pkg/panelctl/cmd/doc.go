// Package cmd implements the cobra command tree for the panelctl CLI,
// including subcommands for authentication, break-glass terminal access,
// device control, telemetry, alerts, configuration, and shell completion.
package cmd
