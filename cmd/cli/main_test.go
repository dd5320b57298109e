package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "main.hcl")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o600), "failed to set up test file")
	return path
}

func TestRun_InvalidTree(t *testing.T) {
	// --- Arrange ---
	filePath := writeTree(t, `
		group "g" {
			synth "a" {
		// Missing closing braces here
	`)
	out := &bytes.Buffer{}

	// --- Act ---
	runErr := run(context.Background(), out, []string{filePath})

	// --- Assert ---
	require.Error(t, runErr)
	require.Contains(t, runErr.Error(), "failed to load tree")
	require.Contains(t, runErr.Error(), "failed to parse HCL file")
}

func TestRun_DumpJSON(t *testing.T) {
	// --- Arrange ---
	filePath := writeTree(t, `
synth "a" { def = "sine" }
parallel_group "p" {
  synth "b" { def = "noise" }
  synth "c" { def = "noise" }
}
synth "d" { def = "sine" }
`)
	out := &bytes.Buffer{}

	// --- Act ---
	err := run(context.Background(), out, []string{"-check", "-dump", "json", "-log-level", "error", filePath})

	// --- Assert ---
	require.NoError(t, err)
	var report struct {
		Items []struct {
			ActivationLimit int32 `json:"activation_limit"`
		} `json:"items"`
		Runnable []int32 `json:"runnable"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &report), out.String())
	require.Len(t, report.Items, 4)
	require.Len(t, report.Runnable, 1)

	limits := 0
	for _, it := range report.Items {
		limits += int(it.ActivationLimit)
	}
	// b and c wait for a, d waits for both.
	require.Equal(t, 4, limits)
}

func TestRun_Processes(t *testing.T) {
	filePath := writeTree(t, `synth "a" { def = "sine" }`)
	out := &bytes.Buffer{}

	err := run(context.Background(), out, []string{"-blocks", "4", "-log-format", "text", filePath})

	require.NoError(t, err)
	require.True(t, strings.Contains(out.String(), "Processing finished."), out.String())
}

func TestRun_ShouldExit(t *testing.T) {
	// --- Arrange ---
	// The "-h" (help) flag should cause cli.Parse to return `shouldExit=true`.
	out := &bytes.Buffer{}

	// --- Act ---
	err := run(context.Background(), out, []string{"-h"})

	// --- Assert ---
	require.NoError(t, err, "run() should return a nil error when shouldExit is true")
	require.Contains(t, out.String(), "Usage:", "Expected help text to be printed to the output buffer")
}

func TestRun_ParseError(t *testing.T) {
	// --- Arrange ---
	// Providing an unknown flag will cause cli.Parse to return an error.
	out := &bytes.Buffer{}

	// --- Act ---
	err := run(context.Background(), out, []string{"--this-is-not-a-valid-flag"})

	// --- Assert ---
	require.Error(t, err, "run() should return an error when argument parsing fails")
	require.Contains(t, err.Error(), "flag provided but not defined: -this-is-not-a-valid-flag")
}

func TestRun_InvalidReportURL(t *testing.T) {
	filePath := writeTree(t, `synth "a" { def = "sine" }`)
	err := run(context.Background(), &bytes.Buffer{}, []string{"-report-url", "nowhere", filePath})
	require.ErrorContains(t, err, "application startup failed")
}
