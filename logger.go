// Package tlgr is a template-driven, buffered file logger. Lines are built from a small
// `$`-directive template language, echoed to a colored console and kept in
// a short in-memory buffer that is flushed to one file, or to one file per
// thread, when it fills up or an important record arrives.
package tlgr

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-colorable"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// DefaultConfig returns sane settings for a single log file. Empty fileName
// and template fall back to DEFAULT_FILE_NAME and DEFAULT_TEMPLATE.
//
// The console is the (Windows-safe) standard output, colored unless it is
// not a terminal or NO_COLOR is set.
func DefaultConfig(fileName, template string) Config {
	if fileName == "" {
		fileName = DEFAULT_FILE_NAME
	}
	if template == "" {
		template = DEFAULT_TEMPLATE
	}
	return Config{
		FileName:        fileName,
		Template:        template,
		Ceiling:         COMPILED_CEILING,
		MinLevel:        DEFAULT_MIN_LEVEL,
		BufferLevel:     DEFAULT_BUFFER_LEVEL,
		BufferCapacity:  DEFAULT_BUF_CAPACITY,
		MaxLineLength:   DEFAULT_MAX_LINE_LEN,
		LogDir:          DEFAULT_LOG_DIR,
		ColorizeConsole: !color.NoColor,
		Console:         colorable.NewColorableStdout(),
		Fallback:        os.Stderr,
		Clock:           SystemClock,
	}
}

// Short form of InitWithParams: one log file, default settings.
//
// Preferred usage example:
//
//	func main() {
//	    logger, err := tlgr.Init("app.log", "[$T] $L$X $C$Z")
//	    if err != nil {
//	        ...
//	    }
//	    defer logger.Shutdown()
//	    ...
//	}
func Init(fileName, template string) (*Logger, error) {
	return InitWithParams(DefaultConfig(fileName, template))
}

// Short form of InitWithParams for per-thread files: lines of mainThread go to
// fileName, lines of every other thread to their own file in DEFAULT_LOG_DIR.
func InitPerThread(fileName, template string, mainThread ThreadID) (*Logger, error) {
	cfg := DefaultConfig(fileName, template)
	cfg.PerThreadFiles = true
	cfg.MainThread = mainThread
	return InitWithParams(cfg)
}

// InitWithParams validates cfg, truncates (or creates) the primary file and
// writes its header. Errors match ErrInvalidConfigValue or ErrCannotOpenFile
// with errors.Is; no logger is returned in that case.
func InitWithParams(cfg Config) (*Logger, error) {
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	l := new(Logger)
	l.tmpl.active = cfg.Template
	l.tmpl.backup = cfg.Template
	l.ceiling = cfg.Ceiling
	l.level = cfg.MinLevel
	l.bufferLevel = cfg.BufferLevel
	l.maxLineLen = cfg.MaxLineLength
	l.colorFile = cfg.ColorizeFile
	l.colorCons = cfg.ColorizeConsole
	l.console = cfg.Console
	l.fallbck = cfg.Fallback
	l.clock = cfg.Clock
	l.mainThread = cfg.MainThread
	l.buffer = newMsgBuffer(cfg.BufferCapacity)
	l.registry = newThreadRegistry()
	l.sink = fileSink{
		primary:    cfg.FileName,
		perThread:  cfg.PerThreadFiles,
		mainThread: cfg.MainThread,
		dir:        cfg.LogDir,
		registry:   &l.registry,
		clock:      cfg.Clock,
	}
	if err := l.sink.create(cfg.Template, cfg.Ceiling); err != nil {
		return nil, err
	}
	l.setState(_STATE_ACTIVE)
	l.output(LVL_TRACE, "", callerSite(1), l.mainThread, "", "Initialize", nil)
	return l, nil
}

// normalize fills defaults and rejects out-of-range values.
func (cfg *Config) normalize() error {
	if cfg.FileName == "" {
		return errors.Wrap(ErrInvalidConfigValue, "empty file name")
	}
	if !validThreshold(cfg.MinLevel) {
		return errors.Wrapf(ErrInvalidConfigValue, "min level %d out of bounds (%d < level < %d)",
			cfg.MinLevel, LVL_FATAL, _LVL_MAX_for_checks_only)
	}
	if !validBufferLevel(cfg.BufferLevel) {
		return errors.Wrapf(ErrInvalidConfigValue, "buffer level %d out of bounds (0 <= level <= %d)",
			cfg.BufferLevel, MAX_BUFFER_LEVEL)
	}
	if cfg.Ceiling > COMPILED_CEILING {
		cfg.Ceiling = COMPILED_CEILING
	}
	if cfg.BufferCapacity <= 0 {
		cfg.BufferCapacity = DEFAULT_BUF_CAPACITY
	}
	if cfg.MaxLineLength <= 0 {
		cfg.MaxLineLength = DEFAULT_MAX_LINE_LEN
	}
	if cfg.LogDir == "" {
		cfg.LogDir = DEFAULT_LOG_DIR
	}
	if cfg.Fallback == nil {
		cfg.Fallback = io.Discard
	}
	if cfg.Clock == nil {
		cfg.Clock = SystemClock
	}
	return nil
}

// Shutdown logs a final TRACE record, writes everything still buffered and
// stops the logger. Further Output calls return ErrLoggerInactive. Nothing is
// flushed automatically at process exit, so Shutdown has to be called.
func (l *Logger) Shutdown() {
	if !l.IsActive() {
		return
	}
	l.output(LVL_TRACE, "", callerSite(1), l.mainThread, "", "Shutdown", nil)
	l.Flush()
	l.setState(_STATE_STOPPED)
}

// True if the logger is in active state (between Init and Shutdown).
func (l *Logger) IsActive() bool {
	return lgrState(l.state.Load()) == _STATE_ACTIVE
}

func (l *Logger) setState(newstate lgrState) {
	l.state.Store(uint32(normState(newstate)))
}

/////////////////////////////////////////////////////////////////////////////////////////
// Logging

// Output is the complete logging entry point with explicit call-site
// metadata and thread id. msg is used as a fmt format only when args are
// given. Records above the ceiling or the runtime threshold, and records with
// both prefix and message empty, are silently ignored.
//
// The line is echoed to the console before it enters the buffer, outside the
// buffer lock, so with concurrent threads the console order may differ from
// the file order. The file order always follows the buffer order.
//
// The only error is ErrLoggerInactive; write failures go to the fallback.
func (l *Logger) Output(level LogLevel, prefix string, site CallSite, thread ThreadID, msg string, args ...any) error {
	return l.output(level, prefix, site, thread, "", msg, args)
}

// Logf logs from the main thread with the caller of Logf as call site.
func (l *Logger) Logf(level LogLevel, msg string, args ...any) {
	l.output(level, "", callerSite(1), l.mainThread, "", msg, args)
}

// output does the work of Output. A non-empty tmpl replaces the configured
// template for this record only. Console echo happens before bufMtx is taken.
func (l *Logger) output(level LogLevel, prefix string, site CallSite, thread ThreadID, tmpl string, msg string, args []any) error {
	if !l.IsActive() {
		return ErrLoggerInactive
	}
	if msg == "" && prefix == "" {
		return nil
	}

	l.sync.chngMtx.RLock()
	if level > l.ceiling || level > l.level {
		l.sync.chngMtx.RUnlock()
		return nil
	}
	if tmpl == "" {
		tmpl = l.tmpl.forLevel(level)
	}
	colorFile, colorCons := l.colorFile, l.colorCons
	maxLen, bufferLevel := l.maxLineLen, l.bufferLevel
	l.sync.chngMtx.RUnlock()

	if len(args) > 0 {
		msg = fmt.Sprintf(msg, args...)
	}
	rec := Record{
		Level:  level,
		Prefix: prefix,
		Site:   site,
		Thread: thread,
		Text:   msg,
		Time:   l.clock(),
	}
	line := formatLine(tmpl, &rec, colorFile, maxLen)
	consoleLine := line
	if colorCons != colorFile {
		consoleLine = formatLine(tmpl, &rec, colorCons, maxLen)
	}
	l.echo(consoleLine)

	l.sync.bufMtx.Lock()
	defer l.sync.bufMtx.Unlock()
	l.buffer.push(line, thread)
	if l.buffer.needsFlush(level, bufferLevel) {
		l.flushLocked()
	}
	return nil
}

// Flush writes all buffered lines now.
func (l *Logger) Flush() {
	l.sync.bufMtx.Lock()
	defer l.sync.bufMtx.Unlock()
	l.flushLocked()
}

// flushLocked drains the buffer into the sink. Lines that could not be
// written are reported to the fallback and dropped. Caller holds bufMtx.
func (l *Logger) flushLocked() {
	if l.buffer.size() == 0 {
		return
	}
	err := l.sink.writeEntries(l.buffer.pending())
	l.buffer.reset()
	for _, e := range multierr.Errors(err) {
		l.handleLogWriteError("error writing log: " + e.Error())
	}
}

// echo writes a line to the console. A panicking console is disabled.
func (l *Logger) echo(line string) {
	l.sync.consMtx.Lock()
	defer l.sync.consMtx.Unlock()
	if l.console == nil || line == "" {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			l.console = nil
			l.handleLogWriteError("panic writing log to console" + panicDesc(r))
		}
	}()
	if _, err := io.WriteString(l.console, line); err != nil {
		l.handleLogWriteError("error writing log to console: " + err.Error())
	}
}

// handleLogWriteError writes a human-readable error message to the fallback
// writer.
func (l *Logger) handleLogWriteError(errormsg string) {
	l.sync.fbckMtx.Lock()
	defer l.sync.fbckMtx.Unlock()
	if l.fallbck != nil {
		// nowhere left to report a failing fallback
		_, _ = l.fallbck.Write([]byte(errormsg + "\n"))
	}
}

// reject logs an ERROR record about a refused setting on behalf of the
// caller at site and returns the matching ErrInvalidConfigValue.
func (l *Logger) reject(site CallSite, format string, args ...any) error {
	err := errors.Wrapf(ErrInvalidConfigValue, format, args...)
	l.output(LVL_ERROR, "", site, l.mainThread, "", err.Error(), nil)
	return err
}

// callerSite describes the caller skip frames above callerSite's caller.
func callerSite(skip int) CallSite {
	var pcs [1]uintptr
	if runtime.Callers(skip+2, pcs[:]) == 0 {
		return CallSite{}
	}
	frame, _ := runtime.CallersFrames(pcs[:]).Next()
	return CallSite{Func: shortFuncName(frame.Function), File: frame.File, Line: frame.Line}
}

// "github.com/a/b.(*T).Method" -> "(*T).Method", "main.main" -> "main"
func shortFuncName(name string) string {
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.IndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	return name
}

/////////////////////////////////////////////////////////////////////////////////////////
// Settings

// forLevel picks the per-level override if set, the active template otherwise.
func (t *templates) forLevel(level LogLevel) string {
	if level < _LVL_MAX_for_checks_only && t.override[level] {
		return t.perLevel[level]
	}
	return t.active
}

// SetTemplate makes tmpl the active template and keeps the previous one in
// the single backup slot. Two calls in a row lose the older template.
func (l *Logger) SetTemplate(tmpl string) *Logger {
	l.sync.chngMtx.Lock()
	defer l.sync.chngMtx.Unlock()
	l.tmpl.backup = l.tmpl.active
	l.tmpl.active = tmpl
	return l
}

// RestoreTemplate makes the backup template active again. The backup slot
// keeps its value.
func (l *Logger) RestoreTemplate() *Logger {
	l.sync.chngMtx.Lock()
	defer l.sync.chngMtx.Unlock()
	l.tmpl.active = l.tmpl.backup
	return l
}

// Template returns the active template.
func (l *Logger) Template() string {
	l.sync.chngMtx.RLock()
	defer l.sync.chngMtx.RUnlock()
	return l.tmpl.active
}

// SetLevelTemplate sets a template used only for records of one level,
// instead of the active template.
func (l *Logger) SetLevelTemplate(level LogLevel, tmpl string) error {
	if level >= _LVL_MAX_for_checks_only {
		return l.reject(callerSite(1), "level %d out of bounds for a level template", level)
	}
	l.sync.chngMtx.Lock()
	defer l.sync.chngMtx.Unlock()
	l.tmpl.perLevel[level] = tmpl
	l.tmpl.override[level] = true
	return nil
}

// ClearLevelTemplate makes a level use the active template again.
func (l *Logger) ClearLevelTemplate(level LogLevel) error {
	if level >= _LVL_MAX_for_checks_only {
		return l.reject(callerSite(1), "level %d out of bounds for a level template", level)
	}
	l.sync.chngMtx.Lock()
	defer l.sync.chngMtx.Unlock()
	l.tmpl.perLevel[level] = ""
	l.tmpl.override[level] = false
	return nil
}

// SetMinLevel sets the runtime threshold: records less important than level
// are ignored. Accepted range is LVL_ERROR..LVL_TRACE; anything else is
// logged as an error and leaves the threshold unchanged.
func (l *Logger) SetMinLevel(level LogLevel) error {
	if !validThreshold(level) {
		return l.reject(callerSite(1), "selected log level is out of bounds (%d < [level: %d] < %d)",
			LVL_FATAL, level, _LVL_MAX_for_checks_only)
	}
	l.output(LVL_WARN, "", callerSite(1), l.mainThread, "", "Setting [log_level: %d]", []any{level})
	l.sync.chngMtx.Lock()
	defer l.sync.chngMtx.Unlock()
	l.level = level
	return nil
}

// MinLevel returns the runtime threshold.
func (l *Logger) MinLevel() LogLevel {
	l.sync.chngMtx.RLock()
	defer l.sync.chngMtx.RUnlock()
	return l.level
}

// SetBufferLevel chooses how many of the least important levels are kept in
// memory until the buffer fills up (0 - none, 4 - everything below ERROR).
// Values outside 0..4 are logged as an error and ignored.
func (l *Logger) SetBufferLevel(n int) error {
	if !validBufferLevel(n) {
		return l.reject(callerSite(1), "input invalid level (0 <= level <= %d), input: %d", MAX_BUFFER_LEVEL, n)
	}
	l.sync.chngMtx.Lock()
	defer l.sync.chngMtx.Unlock()
	l.bufferLevel = n
	return nil
}

// BufferLevel returns the buffer level set by SetBufferLevel.
func (l *Logger) BufferLevel() int {
	l.sync.chngMtx.RLock()
	defer l.sync.chngMtx.RUnlock()
	return l.bufferLevel
}

// Sets whether color escape sequences are written to files.
func (l *Logger) SetColorizeFile(on bool) *Logger {
	l.sync.chngMtx.Lock()
	defer l.sync.chngMtx.Unlock()
	l.colorFile = on
	return l
}

// Sets the console writer (nil disables echo) and whether it gets colors.
func (l *Logger) SetConsole(w io.Writer, colored bool) *Logger {
	l.sync.consMtx.Lock()
	l.console = w
	l.sync.consMtx.Unlock()
	l.sync.chngMtx.Lock()
	l.colorCons = colored
	l.sync.chngMtx.Unlock()
	return l
}

// Sets the fallback output used to report internal errors, io.Discard is used
// instead of nil to silently drop fallback messages.
func (l *Logger) SetFallback(f io.Writer) *Logger {
	l.sync.fbckMtx.Lock()
	defer l.sync.fbckMtx.Unlock()
	if f != nil {
		l.fallbck = f
	} else {
		l.fallbck = io.Discard
	}
	return l
}

/////////////////////////////////////////////////////////////////////////////////////////
// Threads

// RegisterThread names a thread. In per-thread mode its existing file is
// renamed from thread_log_<id>.log (or its previous name) to <name>.log.
// A failed rename is reported to the fallback and returned, but the name
// stays registered. Names must be non-empty, free of path separators and not
// held by another thread.
func (l *Logger) RegisterThread(thread ThreadID, name string) (ThreadEntry, error) {
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return ThreadEntry{}, l.reject(callerSite(1), "%s or not a file name: %q (thread %s)",
			_ERROR_MESSAGE_EMPTY_NAME, name, thread)
	}
	l.sync.bufMtx.Lock()
	if owner, taken := l.registry.owner(name); taken && owner != thread {
		l.sync.bufMtx.Unlock()
		return ThreadEntry{}, l.reject(callerSite(1), "thread name %q is already used by thread %s (thread %s)",
			name, owner, thread)
	}
	defer l.sync.bufMtx.Unlock()
	old := l.sink.threadPath(thread)
	entry := l.registry.register(thread, name)
	if l.sink.perThread && thread != l.mainThread {
		if err := l.sink.move(old, l.sink.namedPath(name)); err != nil {
			l.handleLogWriteError(err.Error())
			return entry, err
		}
	}
	return entry, nil
}

// UnregisterThread forgets the name of a thread; its next lines go to the
// default thread file again. Unknown threads are ignored.
func (l *Logger) UnregisterThread(thread ThreadID) {
	l.sync.bufMtx.Lock()
	defer l.sync.bufMtx.Unlock()
	l.registry.remove(thread)
}

// ThreadName returns the registered name of a thread.
func (l *Logger) ThreadName(thread ThreadID) (string, bool) {
	l.sync.bufMtx.Lock()
	defer l.sync.bufMtx.Unlock()
	entry, ok := l.registry.find(thread)
	return entry.Name, ok
}

// ThreadFile returns the file the lines of a thread are written to.
func (l *Logger) ThreadFile(thread ThreadID) string {
	l.sync.bufMtx.Lock()
	defer l.sync.bufMtx.Unlock()
	if !l.sink.perThread || thread == l.mainThread {
		return l.sink.primary
	}
	return l.sink.threadPath(thread)
}

// MainThread returns the thread id whose lines go to the primary file.
func (l *Logger) MainThread() ThreadID {
	return l.mainThread
}

/////////////////////////////////////////////////////////////////////////////////////////
// Helpers

// Separator writes a line of '-' (or '=' if big) at the given level. The
// separator uses its own template and leaves the active and backup templates
// untouched.
func (l *Logger) Separator(level LogLevel, big bool) {
	sep := separatorSmall
	if big {
		sep = separatorBig
	}
	l.output(level, "", callerSite(1), l.mainThread, SEPARATOR_TEMPLATE, sep, nil)
}

// Validate logs success at TRACE when ok (if success is not empty) and
// failure at ERROR otherwise. args format whichever message is logged.
// Returns ok so it can guard the following code:
//
//	if !logger.Validate(n > 0, "", "bad count %d", n) {
//	    return
//	}
func (l *Logger) Validate(ok bool, success, failure string, args ...any) bool {
	l.check(ok, LVL_ERROR, success, failure, args)
	return ok
}

// Assert is Validate with a FATAL record on failure. It never stops the
// program.
func (l *Logger) Assert(ok bool, success, failure string, args ...any) bool {
	l.check(ok, LVL_FATAL, success, failure, args)
	return ok
}

func (l *Logger) check(ok bool, failLevel LogLevel, success, failure string, args []any) {
	site := callerSite(2)
	if ok {
		if success != "" {
			l.output(LVL_TRACE, "", site, l.mainThread, "", success, args)
		}
		return
	}
	l.output(failLevel, "", site, l.mainThread, "", failure, args)
}
