// Package exitcode defines exit codes for the CLI.
package exitcode

// Exit codes returned by the CLI.
const (
	// Success indicates successful completion.
	Success = 0

	// UserError indicates bad arguments or an unknown task.
	UserError = 1

	// AuthError indicates a missing session or bad config.
	AuthError = 2

	// BackendError indicates a backend failure.
	BackendError = 3
)
