package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/aether/internal/telemetry"
)

// writeTestConfig writes a small-grid config so tests stay quick, returning
// its path. Extra YAML lines are appended verbatim.
func writeTestConfig(t *testing.T, extra string) string {
	t.Helper()

	content := "delay_tau: 100\ngrid_size: 1024\n" + extra
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestCycleTextOutput(t *testing.T) {
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text", ConfigPath: writeTestConfig(t, "")}
	cmd := NewCycleCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"0.5", "0.25"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "run=")
	assert.Contains(t, buf.String(), "packets=2")
}

func TestCycleJSONOutput(t *testing.T) {
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "json", ConfigPath: writeTestConfig(t, "")}
	cmd := NewCycleCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--count", "4"})

	require.NoError(t, cmd.Execute())

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)

	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.EqualValues(t, 4, data["packet_count"])
	assert.NotEmpty(t, data["run_token"])
}

func TestCycleInvalidSignal(t *testing.T) {
	rootOpts := &RootOptions{Format: "text", ConfigPath: writeTestConfig(t, "")}
	cmd := NewCycleCommand(rootOpts)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"not-a-number"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid signal")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestCycleRejectsNonPositiveCount(t *testing.T) {
	rootOpts := &RootOptions{Format: "text", ConfigPath: writeTestConfig(t, "")}
	cmd := NewCycleCommand(rootOpts)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"--count", "0"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "count must be positive")
}

func TestCycleBadConfigPath(t *testing.T) {
	rootOpts := &RootOptions{Format: "text", ConfigPath: "/nonexistent/config.yaml"}
	cmd := NewCycleCommand(rootOpts)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"0.5"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load config")
}

func TestCyclePersistsTelemetry(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "aether.db")
	rootOpts := &RootOptions{
		Format:     "text",
		ConfigPath: writeTestConfig(t, "telemetry_path: "+dbPath+"\n"),
	}
	cmd := NewCycleCommand(rootOpts)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"0.5", "0.25", "0.125"})

	require.NoError(t, cmd.Execute())

	store, err := telemetry.Open(dbPath)
	require.NoError(t, err)
	defer store.Close()

	records, err := store.ReadCycles(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 3, records[0].PacketCount)
}
