// Package cli parses command-line arguments into an app.Config and owns
// process-level concerns like usage text and exit codes. Everything past
// argument handling lives in the app package.
package cli
