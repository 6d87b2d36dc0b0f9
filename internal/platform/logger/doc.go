// Package logger provides structured logging for the application.
//
// It builds log/slog loggers from server configuration and carries a
// request-scoped logger through context.Context so that handlers, services
// and stores log with the same trace attributes.
package logger
