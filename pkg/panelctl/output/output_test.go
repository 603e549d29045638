package output

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/picontrol/panelctl/pkg/panelctl/client"
)

func TestWriteObjectJSON(t *testing.T) {
	var buf bytes.Buffer
	err := WriteObject(&buf, FormatJSON, map[string]string{"status": "ok"})
	require.NoError(t, err)
	require.Contains(t, buf.String(), `"status": "ok"`)
}

func TestWriteObjectYAML(t *testing.T) {
	var buf bytes.Buffer
	err := WriteObject(&buf, FormatYAML, map[string]string{"status": "ok"})
	require.NoError(t, err)
	require.Contains(t, buf.String(), "status: ok")
}

func TestWriteObjectUnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	require.Error(t, WriteObject(&buf, Format("xml"), nil))
	require.Error(t, WriteObject(&buf, FormatTable, nil))
}

func TestWriteDeviceTable(t *testing.T) {
	var buf bytes.Buffer
	WriteDeviceTable(&buf, []client.Device{
		{ID: "relay-1", Name: "Garden pump", Type: "relay", State: "on", LastSeen: "2026-08-30T10:00:00Z"},
		{ID: "cam-1", Name: "Door cam", Type: "camera", State: "idle"},
	})

	out := buf.String()
	require.Contains(t, out, "ID")
	require.Contains(t, out, "relay-1")
	require.Contains(t, out, "Garden pump")
	// Missing timestamps render as a dash.
	require.Contains(t, out, "-")
}

func TestWriteMetrics(t *testing.T) {
	temp := 48.2
	var buf bytes.Buffer
	WriteMetrics(&buf, &client.SystemMetrics{
		CPUPct:        12.5,
		MemoryPct:     40.0,
		MemoryUsedMB:  1638,
		MemoryTotalMB: 4096,
		DiskPct:       55.5,
		DiskUsedGB:    17.2,
		DiskTotalGB:   31.0,
		TemperatureC:  &temp,
		Load1m:        0.42,
	})

	out := buf.String()
	require.Contains(t, out, "12.5%")
	require.Contains(t, out, "48.2°C")

	// No temperature probe, no TEMP row.
	buf.Reset()
	WriteMetrics(&buf, &client.SystemMetrics{})
	require.NotContains(t, buf.String(), "TEMP")
}

func TestWriteBreakglassStatus(t *testing.T) {
	var buf bytes.Buffer
	WriteBreakglassStatus(&buf, &client.BreakglassStatus{Active: false})
	require.Contains(t, buf.String(), "No active break-glass session")

	buf.Reset()
	WriteBreakglassStatus(&buf, &client.BreakglassStatus{
		Active:           true,
		RemainingSeconds: 90,
		ExpiresAt:        time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC),
	})
	require.Contains(t, buf.String(), "1m30s remaining")
	require.Contains(t, buf.String(), "2026-08-31T12:00:00Z")
}
