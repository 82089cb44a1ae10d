package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func run(t *testing.T, cmdArgs ...string) (string, error) {
	t.Helper()
	t.Setenv("PHLEB_LOGGING_LEVEL", "error")
	t.Setenv("PHLEB_STORAGE_DRIVER", "memory")

	var out bytes.Buffer
	cmd := calcCmd()
	if cmdArgs[0] == "lint" {
		cmd = lintCmd()
	}
	cmd.SetArgs(cmdArgs[1:])
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

const sampleState = `{"patient":{"weightKg":10,"ebvPresetId":"child"},"days":[{"hd":1,"dateISO":"2026-01-13","orderables":["cbc","bmp"],"lineWasteMl":0}]}`

func TestCalcCmd_Text(t *testing.T) {
	out, err := run(t, "calc", "--state", writeFile(t, "state.json", sampleState))
	require.NoError(t, err)

	assert.Contains(t, out, "Generic US Inpatient Defaults — schema v2")
	assert.Contains(t, out, "13JAN")
	assert.Contains(t, out, "6.5")
	assert.Contains(t, out, "[good] No warnings triggered by current thresholds.")
}

func TestCalcCmd_JSON(t *testing.T) {
	out, err := run(t, "calc", "--state", writeFile(t, "state.json", sampleState), "--json")
	require.NoError(t, err)

	var doc struct {
		Report struct {
			CumulativeMl float64 `json:"cumulativeMl"`
			EBVMl        float64 `json:"ebvMl"`
		} `json:"report"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, 6.5, doc.Report.CumulativeMl)
	assert.Equal(t, 720.0, doc.Report.EBVMl)
}

func TestCalcCmd_InvalidState(t *testing.T) {
	_, err := run(t, "calc", "--state", writeFile(t, "state.json", `{"days":[]}`))
	assert.Error(t, err)
}

func TestLintCmd(t *testing.T) {
	clean := writeFile(t, "clean.json", `{"ebvPresets":[{"id":"p","mlPerKg":80}],"tubes":[{"id":"t1","ml":2}],"orderables":[{"id":"o1","requirements":[{"tubeId":"t1","count":1}]}]}`)
	out, err := run(t, "lint", clean)
	require.NoError(t, err)
	assert.Contains(t, out, "No problems found.")

	dangling := writeFile(t, "dangling.json", `{"ebvPresets":[{"id":"p","mlPerKg":80}],"tubes":[],"orderables":[{"id":"o1","requirements":[{"tubeId":"gone","count":1}]}]}`)
	out, err = run(t, "lint", dangling)
	require.Error(t, err)
	assert.Contains(t, out, `orderable "o1" references unknown tube "gone"`)
}
