package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexscan/nexscan/internal/engine"
	"github.com/nexscan/nexscan/internal/probe"
)

// fixtureSession builds a finalized session with one result per state.
func fixtureSession(t *testing.T) *engine.ScanSession {
	t.Helper()

	session := engine.NewSession(engine.ScanRequest{
		Target:      "192.0.2.10",
		Hostname:    "target.test",
		Ports:       []uint16{22, 25, 80, 111, 161},
		Mode:        probe.ModeConnect,
		Timeout:     time.Second,
		Concurrency: 2,
	})
	session.Record(engine.PortResult{Port: 22, Protocol: "tcp", State: probe.StateOpen, Service: "ssh", Banner: "SSH-2.0-OpenSSH_9.6"})
	session.Record(engine.PortResult{Port: 25, Protocol: "tcp", State: probe.StateClosed, Reason: "connection refused"})
	session.Record(engine.PortResult{Port: 80, Protocol: "tcp", State: probe.StateFiltered, Reason: "timeout"})
	session.Record(engine.PortResult{Port: 111, Protocol: "tcp", State: probe.StateOpenFiltered, Reason: "no response"})
	session.Record(engine.PortResult{Port: 161, Protocol: "tcp", State: probe.StateError, Reason: "socket: too many open files"})
	session.Finalize()
	return session
}

func TestParseFormat(t *testing.T) {
	for input, expected := range map[string]Format{
		"":     FormatText,
		"text": FormatText,
		"json": FormatJSON,
		"csv":  FormatCSV,
	} {
		got, err := ParseFormat(input)
		require.NoError(t, err)
		assert.Equal(t, expected, got)
	}

	_, err := ParseFormat("xml")
	assert.Error(t, err)
}

func TestWriteTextDefaultHidesClosed(t *testing.T) {
	var buf bytes.Buffer
	err := Write(&buf, fixtureSession(t), Options{Format: FormatText})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "target.test")
	assert.Contains(t, out, "22")
	assert.Contains(t, out, "ssh")
	assert.Contains(t, out, "open|filtered")
	assert.NotContains(t, out, "connection refused")
	assert.Contains(t, out, "5 ports scanned")
}

func TestWriteTextShowAll(t *testing.T) {
	var buf bytes.Buffer
	err := Write(&buf, fixtureSession(t), Options{Format: FormatText, ShowAll: true})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "closed")
	assert.Contains(t, out, "filtered")
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	err := Write(&buf, fixtureSession(t), Options{Format: FormatJSON, ShowAll: true})
	require.NoError(t, err)

	var report struct {
		Target   string `json:"target"`
		Hostname string `json:"hostname"`
		ScanType string `json:"scan_type"`
		Complete bool   `json:"complete"`
		Stats    struct {
			Total int `json:"total"`
			Open  int `json:"open"`
		} `json:"stats"`
		Results []struct {
			Port  uint16 `json:"port"`
			State string `json:"state"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &report))

	assert.Equal(t, "192.0.2.10", report.Target)
	assert.Equal(t, "target.test", report.Hostname)
	assert.Equal(t, "connect", report.ScanType)
	assert.True(t, report.Complete)
	assert.Equal(t, 5, report.Stats.Total)
	assert.Equal(t, 1, report.Stats.Open)
	require.Len(t, report.Results, 5)
	assert.Equal(t, uint16(22), report.Results[0].Port)
	assert.Equal(t, "open", report.Results[0].State)
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	err := Write(&buf, fixtureSession(t), Options{Format: FormatCSV, ShowAll: true})
	require.NoError(t, err)

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 6, "header plus five rows")
	assert.Equal(t, csvHeader, records[0])
	assert.Equal(t, "22", records[1][0])
	assert.Equal(t, "open", records[1][2])
	assert.Equal(t, "SSH-2.0-OpenSSH_9.6", records[1][4])
}

func TestSaveWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.json")
	err := Save(path, fixtureSession(t), Options{Format: FormatJSON, ShowAll: true})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, json.Valid(data))
}

func TestVisibleFilter(t *testing.T) {
	results := fixtureSession(t).Results()

	filtered := visible(results, false)
	require.Len(t, filtered, 3)
	for _, r := range filtered {
		assert.NotEqual(t, probe.StateClosed, r.State)
		assert.NotEqual(t, probe.StateFiltered, r.State)
	}

	assert.Len(t, visible(results, true), len(results))
}
