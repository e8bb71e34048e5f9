package tlgr

/*
Defines the core data types used by the logger:
  - basetype and a small set of typed aliases for clarity
  - Record: one log call, alive only until it is formatted
  - bufEntry/msgBuffer: formatted lines waiting for the file sink
  - ThreadEntry/threadRegistry: thread id to file name mapping
  - LogClient: lightweight per-goroutine handle that callers log through
  - Logger: the central state object that owns configuration, buffer,
    registry and sink.
*/

import (
	"io"
	"sync"
	"sync/atomic"
	"time"
)

type basetype byte // basetype is the underlying byte-sized representation used for enums

type LogLevel basetype // Logger levels (alias for byte), lower value is more important
type lgrState basetype

// ThreadID identifies the producer of a record. Goroutines have no public
// identity, so ids are handed out by the logger (see NewClient) or chosen by
// the caller of Output.
type ThreadID uint64

// Clock returns the wall-clock time used to stamp records.
type Clock func() time.Time

// CallSite is the call-site metadata rendered by $F, $A, $I and $G.
type CallSite struct {
	Func string // calling function name
	File string // calling file path as given
	Line int    // calling line number
}

// Record is a single log call. It is never stored, only formatted.
type Record struct {
	Level  LogLevel
	Prefix string
	Site   CallSite
	Thread ThreadID
	Text   string    // user message with arguments already interpolated
	Time   time.Time // moment the record was created
}

// LevelMap is a fixed-size array with one entry per log level. Used for
// level names and colors.
type LevelMap [_LVL_MAX_for_checks_only]string

// bufEntry is a finished line plus the thread that produced it.
type bufEntry struct {
	text   string
	thread ThreadID
}

// msgBuffer keeps finished lines until the next flush. Entries always occupy
// slots [0, count).
type msgBuffer struct {
	entries []bufEntry
	count   int
}

// ThreadEntry is a registered (thread id, name) pair.
type ThreadEntry struct {
	Thread ThreadID
	Name   string
}

// threadRegistry maps thread ids to indexes in an entry arena.
type threadRegistry struct {
	entries []ThreadEntry
	index   map[ThreadID]int
}

// templates holds the active template, its single backup slot and the
// per-level overrides (empty string and false flag mean "not set").
type templates struct {
	active   string
	backup   string
	perLevel [_LVL_MAX_for_checks_only]string
	override [_LVL_MAX_for_checks_only]bool
}

// Config holds everything needed to build a Logger. Start from DefaultConfig.
type Config struct {
	FileName        string    // primary log file, truncated at init
	Template        string    // starting template
	Ceiling         LogLevel  // least important level ever processed (clamped to COMPILED_CEILING)
	MinLevel        LogLevel  // runtime threshold, LVL_FATAL < MinLevel < _LVL_MAX
	BufferLevel     int       // 0..4, how many of the least important levels are buffered
	BufferCapacity  int       // number of buffered lines
	MaxLineLength   int       // formatted lines are cut to this many bytes
	PerThreadFiles  bool      // route non-main threads to their own files
	MainThread      ThreadID  // thread whose lines go to FileName in per-thread mode
	LogDir          string    // directory of per-thread files
	ColorizeFile    bool      // keep $B/$E escape sequences in files
	ColorizeConsole bool      // keep $B/$E escape sequences on the console
	Console         io.Writer // console echo, nil means no echo
	Fallback        io.Writer // internal error reports, nil means io.Discard
	Clock           Clock     // nil means SystemClock
}

// Logger is the central state holder. It contains synchronization primitives,
// configuration, the message buffer, the thread registry and the file sink.
//
// Lock order: sync.chngMtx is never held while sync.bufMtx is taken.
type Logger struct {
	sync struct {
		bufMtx  sync.Mutex   // guards buffer, registry and every file write
		chngMtx sync.RWMutex // guards templates, levels and flags
		consMtx sync.Mutex   // serializes console echo
		fbckMtx sync.Mutex   // guards access to fallback writer
	}
	tmpl        templates
	ceiling     LogLevel
	level       LogLevel // runtime threshold
	bufferLevel int
	maxLineLen  int
	colorFile   bool
	colorCons   bool
	console     io.Writer
	fallbck     io.Writer
	clock       Clock
	buffer      msgBuffer
	registry    threadRegistry
	sink        fileSink
	mainThread  ThreadID
	nextThread  atomic.Uint64
	state       atomic.Uint32 // lgrState
}

// LogClient represents one producer of log messages, normally one goroutine.
// Each client carries its own thread id which selects the output file in
// per-thread mode and is rendered by $P.
//
// Clients are lightweight and intended to be created by Logger.NewClient...().
type LogClient struct {
	logger   *Logger  // owning logger
	thread   ThreadID // id of this client in the registry
	curLevel LogLevel // current level used by Write / fmt.Fprintf helpers
}
