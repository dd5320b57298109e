package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/specialistvlad/dspgrid/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
// Flag defaults come from DSPGRID_* environment variables, which may be
// set in a .env file.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	if err := loadDotEnv(); err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	env := &envDefaults{}

	flagSet := flag.NewFlagSet("dspgrid", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
dspgrid - Parallel block scheduler for hierarchical DSP node trees.

Usage:
  dspgrid [options] [TREE_PATH...]

Arguments:
  TREE_PATH
    Path to a single .hcl file or a directory containing .hcl files.

Every option can also be set through the environment as DSPGRID_<NAME>,
e.g. DSPGRID_BLOCK_SIZE=128, or in a .env file in the working directory.

Options:
`)
		flagSet.PrintDefaults()
	}

	treeFlag := flagSet.String("tree", env.lookupString("TREE", ""), "Path to the tree file or directory.")
	tFlag := flagSet.String("t", "", "Path to the tree file or directory (shorthand).")
	workersFlag := flagSet.Int("workers", env.lookupInt("WORKERS", 0), "Number of executor workers. 0 uses GOMAXPROCS.")
	blocksFlag := flagSet.Int("blocks", env.lookupInt("BLOCKS", 1000), "Number of blocks to process.")
	blockSizeFlag := flagSet.Int("block-size", env.lookupInt("BLOCK_SIZE", 64), "Samples per block.")
	sampleRateFlag := flagSet.Float64("sample-rate", env.lookupFloat("SAMPLE_RATE", 48000), "Sample rate in Hz.")
	healthPortFlag := flagSet.Int("healthcheck-port", env.lookupInt("HEALTHCHECK_PORT", 0), "Port for the HTTP health check server. 0 is disabled.")
	logFormatFlag := flagSet.String("log-format", env.lookupString("LOG_FORMAT", "json"), "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", env.lookupString("LOG_LEVEL", "info"), "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	dumpFlag := flagSet.String("dump", env.lookupString("DUMP", ""), "Print the work graph after building it. Options: 'hcl' or 'json'.")
	checkFlag := flagSet.Bool("check", env.lookupBool("CHECK", false), "Load the tree and verify its work graph without processing.")
	reportURLFlag := flagSet.String("report-url", env.lookupString("REPORT_URL", ""), "socket.io URL that receives the topology after every rebuild.")

	if env.err != nil {
		return nil, false, &ExitError{Code: 2, Message: env.err.Error()}
	}

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	var paths []string
	switch {
	case *tFlag != "":
		paths = []string{*tFlag}
	case flagSet.NArg() > 0:
		paths = flagSet.Args()
	case *treeFlag != "":
		paths = []string{*treeFlag}
	}
	slog.Debug("Tree paths determined.", "paths", paths)

	if len(paths) == 0 {
		slog.Debug("No tree path provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}
	slog.Debug("CLI parameter validation complete.")

	config, err := app.NewConfig(app.Config{
		TreePaths:       paths,
		Workers:         *workersFlag,
		Blocks:          *blocksFlag,
		BlockSize:       *blockSizeFlag,
		SampleRate:      *sampleRateFlag,
		LogFormat:       logFormat,
		LogLevel:        logLevel,
		HealthcheckPort: *healthPortFlag,
		Dump:            strings.ToLower(*dumpFlag),
		CheckOnly:       *checkFlag,
		ReportURL:       *reportURLFlag,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}
