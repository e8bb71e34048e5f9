package tlgr

/*
Package-wide constants, enums and helper utilities used by the logger:
  - default sizes and values
  - ANSI/color related constants and the level color table
  - enums for levels/state
  - normalization helpers and error values
*/

import (
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/pkg/errors"
)

const (
	// Log level values, most important first. The trailing
	// _LVL_MAX_for_checks_only is used as an exclusive upper bound for
	// normalization checks.
	LVL_FATAL LogLevel = iota
	LVL_ERROR
	LVL_WARN
	LVL_INFO
	LVL_DEBUG
	LVL_TRACE
	_LVL_MAX_for_checks_only
)

// COMPILED_CEILING is the least important level this build ever processes.
// Config.Ceiling can lower it for a single logger but never raise it.
const COMPILED_CEILING = LVL_TRACE

const (
	// Default values for short init forms
	DEFAULT_TEMPLATE      = "[$B$L$X$E] [$B$F: $G$E] - $B$C$E$Z"
	DEFAULT_FILE_NAME     = "unknown.txt"
	DEFAULT_LOG_DIR       = "Logs"
	DEFAULT_MIN_LEVEL     = LVL_TRACE
	DEFAULT_BUFFER_LEVEL  = 3    // buffer TRACE + DEBUG + INFO
	DEFAULT_BUF_CAPACITY  = 10   // buffered lines
	DEFAULT_MAX_LINE_LEN  = 2048 // bytes of one formatted line
	MAX_BUFFER_LEVEL      = 4
	THREAD_FILE_PREFIX    = "thread_log_"
	LOG_FILE_EXT          = ".log"
	SEPARATOR_TEMPLATE    = "$C$Z"
	FUNC_START_PREFIX     = "START "
	FUNC_END_PREFIX       = "END "
	DEFAULT_HEADER_LENGTH = 103
)

const (
	// ANSI colored text fragments prefix/suffix used when colors are requested.
	// For a colored piece of text the sequence will be:
	// ANSI_COL_PRFX + colorSpec + ANSI_COL_SUFX + text + ANSI_COL_RESET
	ANSI_COL_PRFX  = "\033["
	ANSI_COL_SUFX  = "m"
	ANSI_COL_RESET = ANSI_COL_PRFX + "0;39" + ANSI_COL_SUFX
)

const (
	// Logger lifecycle states.
	_STATE_UNKNOWN lgrState = iota
	_STATE_ACTIVE
	_STATE_STOPPED
	_STATE_MAX_for_checks_only
)

const (
	// Error messages used across logger operations (used for testing).
	_ERROR_MESSAGE_LOGGER_INACTIVE = "logger is not active"
	_ERROR_MESSAGE_CANNOT_OPEN     = "cannot open log file"
	_ERROR_MESSAGE_INVALID_CONFIG  = "invalid config value"
	_ERROR_MESSAGE_EMPTY_NAME      = "thread name is empty"
	_ERROR_UNKNOWN_PANIC_TEXT      = "[no panic description]"
)

var (
	// ErrLoggerInactive is returned by Output after Shutdown.
	ErrLoggerInactive = errors.New(_ERROR_MESSAGE_LOGGER_INACTIVE)
	// ErrCannotOpenFile wraps every failure to create or append a log file.
	ErrCannotOpenFile = errors.New(_ERROR_MESSAGE_CANNOT_OPEN)
	// ErrInvalidConfigValue is returned for out-of-range settings.
	ErrInvalidConfigValue = errors.New(_ERROR_MESSAGE_INVALID_CONFIG)
)

/////////////////////////////////////////////////////////////////////////////////////////

// Predefined log level full names map
var LevelFullNames = &LevelMap{
	"FATAL", //LVL_FATAL
	"ERROR", //LVL_ERROR
	"WARN",  //LVL_WARN
	"INFO",  //LVL_INFO
	"DEBUG", //LVL_DEBUG
	"TRACE", //LVL_TRACE
}

// Color attributes of every level, rendered as ANSI CSI fragments in
// LevelColorMap.
var levelColorAttrs = [_LVL_MAX_for_checks_only][]color.Attribute{
	{color.Bold, color.BgRed},      //LVL_FATAL
	{color.Bold, color.FgRed},      //LVL_ERROR
	{color.Bold, color.FgHiYellow}, //LVL_WARN
	{color.Bold, color.FgGreen},    //LVL_INFO
	{color.Bold, color.FgHiBlue},   //LVL_DEBUG
	{color.Reset, color.FgWhite},   //LVL_TRACE
}

// Predefined level color map: complete escape sequences that start the color
// of a level (what $B expands to).
var LevelColorMap = buildColorMap(levelColorAttrs)

func buildColorMap(attrs [_LVL_MAX_for_checks_only][]color.Attribute) *LevelMap {
	m := &LevelMap{}
	for level, set := range attrs {
		parts := make([]string, len(set))
		for i, a := range set {
			parts[i] = strconv.Itoa(int(a))
		}
		m[level] = ANSI_COL_PRFX + strings.Join(parts, ";") + ANSI_COL_SUFX
	}
	return m
}

// Separator lines written by Logger.Separator and the init header.
var (
	separatorSmall = strings.Repeat("-", DEFAULT_HEADER_LENGTH)
	separatorBig   = strings.Repeat("=", DEFAULT_HEADER_LENGTH)
)

/////////////////////////////////////////////////////////////////////////////////////////

// Generic byte normalization helper.
func norm_byte[T ~byte](val, overlimit, def T) T {
	if val < overlimit {
		return val
	} else {
		return def
	}
}

// Ensures a provided lgrState is within the valid range
func normState(state lgrState) lgrState {
	return norm_byte(state, _STATE_MAX_for_checks_only, _STATE_UNKNOWN)
}

// Ensures a provided LogLevel is within the valid range (out of range values
// become the least important level)
func normLevel(level LogLevel) LogLevel {
	return norm_byte(level, _LVL_MAX_for_checks_only, LVL_TRACE)
}

// String returns the full level name or "LEVEL(n)" for unknown values.
func (level LogLevel) String() string {
	if level < _LVL_MAX_for_checks_only {
		return LevelFullNames[level]
	}
	return "LEVEL(" + strconv.Itoa(int(level)) + ")"
}

// True for levels that a runtime threshold may be set to. LVL_FATAL is
// excluded: fatal records can not be filtered out.
func validThreshold(level LogLevel) bool {
	return level > LVL_FATAL && level < _LVL_MAX_for_checks_only
}

// True for buffer levels accepted by SetBufferLevel.
func validBufferLevel(n int) bool {
	return n >= 0 && n <= MAX_BUFFER_LEVEL
}

// Converts a panic value into a compact readable string (used when
// translating panics into errors or fallback messages)
func panicDesc(panic any) (errtext string) {
	switch v := panic.(type) {
	case string:
		errtext = ": `" + v + "`"
	case error:
		errtext = ": (error) `" + v.Error() + "`"
	default:
		errtext = " " + _ERROR_UNKNOWN_PANIC_TEXT
	}
	return errtext
}

// Lowercase hexadecimal form of a thread id, used by $P and thread file names.
func (tid ThreadID) String() string {
	return strconv.FormatUint(uint64(tid), 16)
}
