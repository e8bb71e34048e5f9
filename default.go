package tlgr

import "sync/atomic"

// Process-wide logger used by the package-level Logf.
var std atomic.Pointer[Logger]

// SetDefault installs l as the package default logger (nil removes it).
func SetDefault(l *Logger) {
	std.Store(l)
}

// Default returns the package default logger or nil.
func Default() *Logger {
	return std.Load()
}

// Logf logs through the default logger from its main thread. Without a
// default logger the call does nothing.
func Logf(level LogLevel, msg string, args ...any) {
	if l := std.Load(); l != nil {
		l.output(level, "", callerSite(1), l.mainThread, "", msg, args)
	}
}
