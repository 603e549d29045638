package output

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/picontrol/panelctl/pkg/panelctl/client"
)

func WriteDeviceTable(w io.Writer, devices []client.Device) {
	tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tNAME\tTYPE\tSTATE\tLAST_SEEN")
	for _, d := range devices {
		lastSeen := d.LastSeen
		if lastSeen == "" {
			lastSeen = "-"
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", d.ID, d.Name, d.Type, d.State, lastSeen)
	}
	_ = tw.Flush()
}

func WriteAlertTable(w io.Writer, alerts []client.Alert) {
	tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tRULE\tSEVERITY\tSTATE\tFIRED\tMESSAGE")
	for _, a := range alerts {
		rule := a.RuleName
		if rule == "" {
			rule = a.RuleID
		}
		fired := a.FiredAt
		if fired == "" {
			fired = "-"
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", a.ID, rule, a.Severity, a.State, fired, a.Message)
	}
	_ = tw.Flush()
}

func WriteInterfaceTable(w io.Writer, interfaces []client.NetworkInterface) {
	tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "NAME\tADDRESS\tMAC\tUP\tRX_BYTES\tTX_BYTES")
	for _, iface := range interfaces {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%t\t%d\t%d\n", iface.Name, iface.Address, iface.MAC, iface.Up, iface.RxBytes, iface.TxBytes)
	}
	_ = tw.Flush()
}

func WriteMetrics(w io.Writer, m *client.SystemMetrics) {
	tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)
	_, _ = fmt.Fprintf(tw, "CPU\t%.1f%%\n", m.CPUPct)
	_, _ = fmt.Fprintf(tw, "MEMORY\t%.1f%% (%.0f/%.0f MB)\n", m.MemoryPct, m.MemoryUsedMB, m.MemoryTotalMB)
	_, _ = fmt.Fprintf(tw, "DISK\t%.1f%% (%.1f/%.1f GB)\n", m.DiskPct, m.DiskUsedGB, m.DiskTotalGB)
	if m.TemperatureC != nil {
		_, _ = fmt.Fprintf(tw, "TEMP\t%.1f°C\n", *m.TemperatureC)
	}
	_, _ = fmt.Fprintf(tw, "LOAD\t%.2f %.2f %.2f\n", m.Load1m, m.Load5m, m.Load15m)
	_ = tw.Flush()
}

func WriteBreakglassStatus(w io.Writer, status *client.BreakglassStatus) {
	if !status.Active {
		_, _ = fmt.Fprintln(w, "No active break-glass session")
		return
	}
	_, _ = fmt.Fprintf(w, "Break-glass session active, %s remaining (expires %s)\n",
		formatRemaining(status.RemainingSeconds), status.ExpiresAt.UTC().Format(time.RFC3339))
}

func formatRemaining(seconds int64) string {
	d := time.Duration(seconds) * time.Second
	return d.String()
}
