/*
Package log provides structured logging for CrewSync using zerolog.

The log package wraps the zerolog library to provide JSON-structured logging
with component-specific loggers, configurable log levels, and helper functions
for common logging patterns. All logs include timestamps and support filtering
by severity level.

# Usage

Initialize once at startup:

	log.Init(log.Config{
		Level:      log.InfoLevel,
		JSONOutput: true,
	})

Then obtain component loggers wherever structured context helps:

	logger := log.WithComponent("batch-processor")
	logger.Warn().Str("event_id", ev.ID).Msg("processing failed, parked for retry")

WithEventID, WithClientID, and WithStream attach the fields the engine's hot
paths log most often.
*/
package log
