/*
Package log provides structured logging for FlashFlood using zerolog.

The log package wraps the zerolog library to provide JSON-structured logging with
component-specific loggers, configurable log levels, and helper functions for
common logging patterns. All logs include timestamps and support filtering by
severity level for production debugging.

# Core Components

Global Logger:
  - Package-level zerolog.Logger instance
  - Initialized once via log.Init()
  - Accessible from all FlashFlood packages
  - Thread-safe concurrent writes

Log Levels:
  - Debug: Detailed debugging information
  - Info: General informational messages
  - Warn: Warning messages (potential issues)
  - Error: Error messages (operation failed)
  - Fatal: Critical errors (process exits)

Configuration:
  - Level: Filter messages below threshold
  - JSONOutput: JSON vs human-readable console
  - Output: io.Writer for log destination (stdout, file)

Context Loggers:
  - WithComponent: Add component name to all logs (e.g. "engine", "compactor")
  - WithJournalID: Add journal id context
  - WithEventID: Add event id context

# Usage

A config.Config loaded from YAML calls log.Init on every caller's behalf via
Config.InitLogging, which NewEngine runs before wiring the store and engine:

	logging:
	  level: debug
	  json_output: true

Calling log.Init directly still works for callers that build a FlashFlood
engine without going through pkg/config:

	import "github.com/cuemby/flashflood/pkg/log"

	log.Init(log.Config{
		Level:      log.InfoLevel,
		JSONOutput: true,
		Output:     os.Stdout,
	})

	log.Info("engine started")

	journalLog := log.WithJournalID(j.ID().String())
	journalLog.Info().Msg("journal uploaded")

	eventLog := log.WithComponent("compactor").With().Str("event_id", eventID).Logger()
	eventLog.Error().Err(err).Msg("update application failed")

# Design Patterns

Global Logger Pattern:
  - Single package-level Logger instance
  - Initialized once at application start
  - Accessible from all packages without passing
  - Simplifies logging in deeply nested calls

Context Logger Pattern:
  - Create child loggers with context fields
  - Pass context loggers to functions
  - Automatically includes context in all logs
  - Avoids repetitive field specification

# Best Practices

Do:
  - Use Info level for production
  - Use structured fields for queryable data
  - Create component-specific loggers
  - Log errors with .Err() for stack traces
  - Include context (journal ID, event ID)

Don't:
  - Log blob bytes or event payloads
  - Use Debug level in production
  - Log in tight loops (use sampling)
  - Concatenate strings (use .Str, .Int)
*/
package log
