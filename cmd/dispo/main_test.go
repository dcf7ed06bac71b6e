package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/disposition-engine/api"
)

const testConfig = `
[[employees]]
personnel_no = "MA004"
first_name = "Lena"
last_name = "Koch"
hourly_rate = "85.00"
qualification = "Developer"
`

const testInput = `03.11.2025|MA004|10:00|14:00|Projekt Alpha|Deployment|UE|0
broken line
03.11.2025|MA999|10:00|14:00|Projekt Alpha|Deployment|UE|0
`

// execute runs the root command. Flags are package globals, so every call
// passes the full flag set it relies on.
func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	rootCmd.SetArgs(args)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	err := rootCmd.Execute()
	return out.String(), errOut.String(), err
}

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParseCommand(t *testing.T) {
	out, _, err := execute(t, "", "parse", "--csv=false", writeTemp(t, "in.txt", testInput))
	require.NoError(t, err)

	var resp api.ParseResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "delimited", resp.Format)
	assert.Len(t, resp.Assignments, 2)
	require.Len(t, resp.Skipped, 1)
	assert.Equal(t, 2, resp.Skipped[0].Line)
}

func TestParseCommand_CSVFromStdin(t *testing.T) {
	in := "date,no,start,end,project,activity,type,surcharge\n03.11.2025,MA004,10:00,14:00,Alpha,Dev,UE,0\n"
	out, _, err := execute(t, in, "parse", "--csv=true", "-")
	require.NoError(t, err)

	var resp api.ParseResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "csv", resp.Format)
	assert.Len(t, resp.Assignments, 1)
}

func TestSettleCommand(t *testing.T) {
	cfg := writeTemp(t, "dispo.toml", testConfig)
	out, errOut, err := execute(t, "", "settle", "--config", cfg, "--csv=false", "--report=false", writeTemp(t, "in.txt", testInput))
	require.NoError(t, err)

	var resp api.SettlementsResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Settlements, 1)
	assert.Equal(t, "425.00", resp.Settlements[0].TotalAmount)
	require.Len(t, resp.Rejected, 1)
	assert.Contains(t, errOut, "MA999")
}

func TestSettleCommand_Report(t *testing.T) {
	cfg := writeTemp(t, "dispo.toml", testConfig)
	out, _, err := execute(t, "", "settle", "--config", cfg, "--csv=false", "--report=true", writeTemp(t, "in.txt", testInput))
	require.NoError(t, err)

	var resp api.ReportDTO
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, 1, resp.Count)
	assert.Equal(t, "425.00", resp.TotalAmount)
	require.Len(t, resp.ByEmployee, 1)
	assert.Equal(t, "Lena Koch", resp.ByEmployee[0].Name)
}

func TestSettleCommand_MissingFile(t *testing.T) {
	_, _, err := execute(t, "", "settle", "--config", "", "--csv=false", "--report=false", filepath.Join(t.TempDir(), "missing.txt"))
	assert.ErrorContains(t, err, "reading input")
}

func TestParseCommand_NeedsFile(t *testing.T) {
	_, _, err := execute(t, "", "parse")
	assert.Error(t, err)
}
