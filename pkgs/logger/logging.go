package logger

// Logger is the logging interface used throughout the core. Components
// depend on this interface rather than a concrete logging library so the
// backend (currently logrus) can be swapped without touching call sites.
type Logger interface {
	SetToDebug()
	SetToInfo()
	SetToError()

	// Module returns a child logger that tags every entry with ns,
	// mirroring how sub-components (store, loader, updater, streamer)
	// identify themselves in the log output.
	Module(ns string) Logger

	Debug(msg string, keyValues ...interface{})
	Info(msg string, keyValues ...interface{})
	Warn(msg string, keyValues ...interface{})
	Error(msg string, keyValues ...interface{})
	Fatal(msg string, keyValues ...interface{})
}
