package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/vk/formweave/internal/app"
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
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("formweave", flag.ContinueOnError)
	flagSet.SetOutput(output)

	// Custom usage/help text function
	flagSet.Usage = func() {
		fmt.Fprint(output, `
Formweave - A schema-driven form engine with reactive data binding.

Usage:
  formweave [options] serve
  formweave [options] validate FORM_PATH [DATA_PATH]
  formweave [options] inspect FORM_PATH

Commands:
  serve
    Start the HTTP viewer API.
  validate FORM_PATH [DATA_PATH]
    Load a form envelope, apply the optional data document and report
    validation failures. Exits non-zero when the form is invalid.
  inspect FORM_PATH
    Print a summary of a form envelope's component tree.

Options:
`)
		flagSet.PrintDefaults()
	}

	listenFlag := flagSet.String("listen", ":8080", "Address for the HTTP viewer API.")
	dbFlag := flagSet.String("db", "", "Path to the sqlite form database. Empty disables persistence.")
	langFlag := flagSet.String("lang", "", "Language tag for localized output, e.g. 'de' or 'en-US'.")
	logFormatFlag := flagSet.String("log-format", "json", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	if flagSet.NArg() == 0 {
		slog.Debug("No command provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}
	command := flagSet.Arg(0)

	formPath := ""
	dataPath := ""
	switch command {
	case app.CommandValidate:
		formPath = flagSet.Arg(1)
		dataPath = flagSet.Arg(2)
	case app.CommandInspect:
		formPath = flagSet.Arg(1)
	case app.CommandServe:
		// no positional arguments
	default:
		return nil, false, &ExitError{Code: 2, Message: fmt.Sprintf("unknown command %q: must be 'serve', 'validate' or 'inspect'", command)}
	}
	slog.Debug("Command determined.", "command", command, "form", formPath)

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
		Command:    command,
		FormPath:   formPath,
		DataPath:   dataPath,
		ListenAddr: *listenFlag,
		DBPath:     *dbFlag,
		Language:   *langFlag,
		LogFormat:  logFormat,
		LogLevel:   logLevel,
	})

	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}
