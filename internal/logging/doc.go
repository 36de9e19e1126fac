// Package logging builds the slog loggers used across taggenius.
//
// Loggers are constructed once at process startup (daemon or CLI) and handed
// down to components via NewComponentLogger. Handlers support a human console
// format and a JSON format suitable for log shipping. Field name constants
// keep structured output consistent between the worker, the stores, and the
// classifier gateway.
package logging
