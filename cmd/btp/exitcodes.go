package main

// Exit codes
const (
	ExitSuccess     = 0 // Success
	ExitError       = 1 // General error (invalid arguments, runtime failure)
	ExitConfigError = 2 // Configuration error (no vault, invalid config)
	ExitDataError   = 3 // Data error (unbalanced braces, unreadable input, storage failures)
)
