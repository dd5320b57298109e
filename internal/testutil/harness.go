package testutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/specialistvlad/dspgrid/internal/app"
	"github.com/specialistvlad/dspgrid/internal/hcltree"
	"github.com/specialistvlad/dspgrid/internal/units"
	"github.com/stretchr/testify/require"
)

// HarnessResult holds the outcomes of an integration test run.
type HarnessResult struct {
	LogOutput string
	Err       error
	App       *app.App
}

// RunIntegrationTest provides a standardized harness for running integration tests
// using a default background context.
func RunIntegrationTest(t *testing.T, files map[string]string, cfg app.Config, registry *units.Registry) *HarnessResult {
	t.Helper()
	return RunIntegrationTestWithContext(context.Background(), t, files, cfg, registry)
}

// RunIntegrationTestWithContext writes files into a temporary tree directory
// and runs the full application against it. Zero audio settings in cfg get
// small defaults.
func RunIntegrationTestWithContext(ctx context.Context, t *testing.T, files map[string]string, cfg app.Config, registry *units.Registry) *HarnessResult {
	t.Helper()

	treeDir := filepath.Join(t.TempDir(), "tree")
	require.NoError(t, os.Mkdir(treeDir, 0o755))
	for name, content := range files {
		filePath := filepath.Join(treeDir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(filePath), 0o755))
		require.NoError(t, os.WriteFile(filePath, []byte(content), 0o644))
	}

	cfg.TreePaths = []string{treeDir}
	cfg.LogLevel = "debug"
	cfg.LogFormat = "text"
	if cfg.BlockSize == 0 {
		cfg.BlockSize = 16
	}
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 48000
	}
	if cfg.Blocks == 0 {
		cfg.Blocks = 1
	}
	config, err := app.NewConfig(cfg)
	require.NoError(t, err)

	logBuffer := &app.SafeBuffer{}
	testApp, err := app.NewApp(logBuffer, config, hcltree.NewLoader(), registry)
	require.NoError(t, err)

	runErr := testApp.Run(ctx)

	t.Cleanup(func() {
		if os.Getenv("DSPGRID_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
		}
	})

	return &HarnessResult{
		LogOutput: logBuffer.String(),
		Err:       runErr,
		App:       testApp,
	}
}
