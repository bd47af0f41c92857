package cli

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/vk/exprun/internal/app"
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

// Parse processes command-line arguments. It returns a populated
// app.Config, a boolean indicating the program should exit cleanly, or an
// ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	flagSet := flag.NewFlagSet("exprun", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
exprun - Run an experiment from a layered YAML configuration file.

Usage:
  exprun [options] CONFIG_PATH [--my.entire.key value ...]

Arguments:
  CONFIG_PATH
    Path to a YAML configuration file containing a __run__ section.
  --my.entire.key value
    Overrides for configuration keys, applied before variable resolution.
    Sequence values take a comma-separated list: --my.key v1,v2,v3.
    Types are inferred from the configuration file; new keys are rejected.

Options:
`)
		flagSet.PrintDefaults()
	}

	configFlag := flagSet.String("config", "", "Path to the configuration file.")
	cFlag := flagSet.String("c", "", "Path to the configuration file (shorthand).")
	debugFlag := flagSet.Bool("debug", false, "Debug mode: run in place, without a code snapshot.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	path := *configFlag
	if path == "" {
		path = *cFlag
	}

	rest := flagSet.Args()
	if path == "" && len(rest) > 0 && !strings.HasPrefix(rest[0], "--") {
		path = rest[0]
		rest = rest[1:]
	}
	if path == "" {
		flagSet.Usage()
		return nil, true, nil
	}

	debug := *debugFlag
	overrides := map[string]string{}
	for len(rest) > 0 {
		arg := rest[0]
		// Flag parsing stops at the config path, so a trailing --debug
		// lands in the override remainder; honor it there too.
		if arg == "--debug" {
			debug = true
			rest = rest[1:]
			continue
		}
		if !strings.HasPrefix(arg, "--") || len(arg) == 2 {
			return nil, false, &ExitError{Code: 2, Message: fmt.Sprintf("expected override key of the form --my.entire.key, got %q", arg)}
		}
		if len(rest) < 2 {
			return nil, false, &ExitError{Code: 2, Message: fmt.Sprintf("missing value for override %s", arg)}
		}
		overrides[arg[2:]] = rest[1]
		rest = rest[2:]
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

	appConfig, err := app.NewConfig(app.Config{
		ConfigPath: path,
		Overrides:  overrides,
		Debug:      debug,
		LogFormat:  logFormat,
		LogLevel:   logLevel,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	return appConfig, false, nil
}
