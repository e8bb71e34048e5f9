package tlgr

import (
	"time"
)

/*
clients.go

Lightweight per-goroutine handles for producing log messages. A LogClient
carries the thread id the logger routes by (own file in per-thread mode, $P in
templates) and forwards every call to Logger.Output with the caller of the
client method as call site.

Functions suffixed with _with_err return ErrLoggerInactive after Shutdown;
the other helpers report that error to the logger's fallback writer instead.

Usage example:

	func worker(logger *tlgr.Logger, n int) {
	    client := logger.NewClient("worker" + strconv.Itoa(n))
	    defer client.Release()
	    client.LogInfo("started")
	    ...
	}
*/

// NewClient creates a client with a fresh thread id. A non-empty name is
// registered for the id right away.
func (l *Logger) NewClient(name string) *LogClient {
	thread := ThreadID(l.nextThread.Add(1))
	if thread == l.mainThread {
		thread = ThreadID(l.nextThread.Add(1))
	}
	return l.NewClientWithID(thread, name)
}

// NewClientWithID creates a client for a thread id chosen by the caller, for
// example an OS thread id. A non-empty name is registered for the id; a
// registration failure is reported to the fallback writer.
func (l *Logger) NewClientWithID(thread ThreadID, name string) *LogClient {
	lc := &LogClient{logger: l, thread: thread, curLevel: LVL_INFO}
	if name != "" {
		if _, err := l.RegisterThread(thread, name); err != nil {
			l.handleLogWriteError(err.Error())
		}
	}
	return lc
}

// MainClient returns a client for the main thread (primary file).
func (l *Logger) MainClient() *LogClient {
	return &LogClient{logger: l, thread: l.mainThread, curLevel: LVL_INFO}
}

// Thread returns the client's thread id.
func (lc *LogClient) Thread() ThreadID {
	return lc.thread
}

// Logger returns the owning logger.
func (lc *LogClient) Logger() *Logger {
	return lc.logger
}

// SetName registers (or renames) the client's thread, see Logger.RegisterThread.
func (lc *LogClient) SetName(name string) error {
	_, err := lc.logger.RegisterThread(lc.thread, name)
	return err
}

// Release forgets the client's thread name. The client stays usable.
func (lc *LogClient) Release() {
	lc.logger.UnregisterThread(lc.thread)
}

/////////////////////////////////////////////////////////////////////////////////////

// send is the single path from a client into the logger.
func (lc *LogClient) send(site CallSite, level LogLevel, prefix, msg string, args []any) error {
	return lc.logger.output(level, prefix, site, lc.thread, "", msg, args)
}

// report forwards an error to the fallback writer.
func (lc *LogClient) report(err error) {
	if err != nil {
		lc.logger.handleLogWriteError(err.Error())
	}
}

// Log_with_err writes a message at the provided level and returns
// ErrLoggerInactive if the logger has been shut down. Filtered messages are
// not an error.
func (lc *LogClient) Log_with_err(level LogLevel, s string) error {
	return lc.send(callerSite(1), level, "", s, nil)
}

// Log is Log_with_err without the error: failures go to the fallback writer.
func (lc *LogClient) Log(level LogLevel, s string) {
	lc.report(lc.send(callerSite(1), level, "", s, nil))
}

// Logf formats the message with fmt.Sprintf when args are given.
func (lc *LogClient) Logf(level LogLevel, format string, args ...any) {
	lc.report(lc.send(callerSite(1), level, "", format, args))
}

// Level-specific helpers, all behave like Log.

func (lc *LogClient) LogFatal(s string) {
	lc.report(lc.send(callerSite(1), LVL_FATAL, "", s, nil))
}

func (lc *LogClient) LogError(s string) {
	lc.report(lc.send(callerSite(1), LVL_ERROR, "", s, nil))
}

func (lc *LogClient) LogWarn(s string) {
	lc.report(lc.send(callerSite(1), LVL_WARN, "", s, nil))
}

func (lc *LogClient) LogInfo(s string) {
	lc.report(lc.send(callerSite(1), LVL_INFO, "", s, nil))
}

func (lc *LogClient) LogDebug(s string) {
	lc.report(lc.send(callerSite(1), LVL_DEBUG, "", s, nil))
}

func (lc *LogClient) LogTrace(s string) {
	lc.report(lc.send(callerSite(1), LVL_TRACE, "", s, nil))
}

// LogErr logs an error value at ERROR level. nil is ignored.
func (lc *LogClient) LogErr(e error) {
	if e == nil {
		return
	}
	lc.report(lc.send(callerSite(1), LVL_ERROR, "", e.Error(), nil))
}

// FuncStart marks the entry of a function with a DEBUG record prefixed
// "START ". The function name comes from the call site ($F).
//
//	func load() {
//	    client.FuncStart("")
//	    defer client.FuncEnd("")
//	    ...
//	}
func (lc *LogClient) FuncStart(s string) {
	lc.report(lc.send(callerSite(1), LVL_DEBUG, FUNC_START_PREFIX, s, nil))
}

// FuncEnd is the counterpart of FuncStart, prefixed "END ".
func (lc *LogClient) FuncEnd(s string) {
	lc.report(lc.send(callerSite(1), LVL_DEBUG, FUNC_END_PREFIX, s, nil))
}

// Measure logs a TRACE record now and returns a func that logs the time
// elapsed since then, also at TRACE:
//
//	defer client.Measure("reload")()
func (lc *LogClient) Measure(name string) func() {
	start := lc.logger.clock()
	lc.report(lc.send(callerSite(1), LVL_TRACE, "", "Starting time measurement", nil))
	return func() {
		elapsed := lc.logger.clock().Sub(start)
		lc.report(lc.send(callerSite(1), LVL_TRACE, "", "Ending %s: %s", []any{name, elapsed.Round(time.Microsecond)}))
	}
}
