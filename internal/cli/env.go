package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// envPrefix prefixes every environment variable that provides a flag
// default.
const envPrefix = "DSPGRID_"

// loadDotEnv reads .env from the working directory into the process
// environment. Variables already set win, and a missing file is fine.
func loadDotEnv() error {
	err := godotenv.Load()
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("failed to read .env: %w", err)
}

// envDefaults resolves flag defaults from DSPGRID_* variables, collecting
// the first malformed value as an error.
type envDefaults struct {
	err error
}

func (e *envDefaults) lookupString(key, def string) string {
	if v, ok := os.LookupEnv(envPrefix + key); ok && v != "" {
		return v
	}
	return def
}

func (e *envDefaults) lookupInt(key string, def int) int {
	v := e.lookupString(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.fail(key, v)
		return def
	}
	return n
}

func (e *envDefaults) lookupFloat(key string, def float64) float64 {
	v := e.lookupString(key, "")
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		e.fail(key, v)
		return def
	}
	return f
}

func (e *envDefaults) lookupBool(key string, def bool) bool {
	v := e.lookupString(key, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.fail(key, v)
		return def
	}
	return b
}

func (e *envDefaults) fail(key, value string) {
	if e.err == nil {
		e.err = fmt.Errorf("invalid value %q in %s%s", value, envPrefix, key)
	}
}
