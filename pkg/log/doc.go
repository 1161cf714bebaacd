// Package log provides structured logging for sentinel built on zerolog.
//
// Init configures the global logger once at startup; components then derive
// child loggers via WithComponent/WithProbe/WithService so every line carries
// its origin. Logging is a side channel only: the state store, not the log
// stream, is the authoritative observability surface.
package log
