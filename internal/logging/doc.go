// Package logging provides structured logging for scheduler runs.
//
// This package wraps Go's log/slog to provide JSON-formatted logs that carry
// the phase, command and cycle a message relates to, so a run can be traced
// after the fact.
//
// # Basic Usage
//
//	logger, err := logging.NewLogger("/path/to/logs", "INFO")
//	if err != nil {
//	    return err
//	}
//	defer logger.Close()
//
//	logger.WithPhase("phase-execution").WithCommand("build").Info("executed")
//
// Child loggers created via With* methods share the underlying writer and
// never modify their parent.
//
// Use [NopLogger] in tests or when logging is disabled.
package logging
