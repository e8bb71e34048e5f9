package tlgr

/*
File sink: the only place that touches the file system. Every write opens
the destination in append mode and closes it right away, so no handle is
held between flushes and other tools may read the files at any time.

Routing of a buffered line:
  - single file mode: always the primary file;
  - per-thread mode: the main thread goes to the primary file, every other
    thread to <dir>/<registered name>.log or, if it has no name,
    <dir>/thread_log_<hex id>.log. A missing thread file is created with a
    short header first.
*/

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

const LOG_FILE_PERM = 0o644
const LOG_DIR_PERM = 0o755

type fileSink struct {
	primary    string          // main log file
	perThread  bool            // route threads to their own files
	mainThread ThreadID        // thread written to primary in per-thread mode
	dir        string          // directory of thread files
	registry   *threadRegistry // thread names, owned by the logger
	clock      Clock
}

// Wraps a file system error so callers can match ErrCannotOpenFile.
func fileError(err error) error {
	return errors.Wrap(ErrCannotOpenFile, err.Error())
}

// create truncates (or creates) the primary file and writes the init header.
func (s *fileSink) create(template string, ceiling LogLevel) (err error) {
	if s.perThread {
		if err = os.MkdirAll(s.dir, LOG_DIR_PERM); err != nil {
			return fileError(err)
		}
	}
	f, err := os.Create(s.primary)
	if err != nil {
		return fileError(err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fileError(cerr)
		}
	}()
	if _, err = f.WriteString(primaryHeader(s.clock(), s.primary, template, ceiling)); err != nil {
		err = fileError(err)
	}
	return err
}

// writeEntries writes every entry to its destination in order. A failing
// entry is skipped; all failures are combined into the returned error.
func (s *fileSink) writeEntries(entries []bufEntry) (err error) {
	for i := range entries {
		path, rerr := s.resolve(entries[i].thread)
		if rerr != nil {
			err = multierr.Append(err, rerr)
			continue
		}
		err = multierr.Append(err, appendTo(path, entries[i].text))
	}
	return err
}

// resolve returns the destination of a thread, creating a missing thread
// file with its header.
func (s *fileSink) resolve(thread ThreadID) (string, error) {
	if !s.perThread || thread == s.mainThread {
		return s.primary, nil
	}
	path := s.threadPath(thread)
	if _, err := os.Stat(path); err == nil {
		return path, nil
	} else if !os.IsNotExist(err) {
		return "", fileError(err)
	}
	if err := appendTo(path, threadHeader(s.clock(), thread, path)); err != nil {
		return "", err
	}
	return path, nil
}

// threadPath is the file of a thread according to the registry.
func (s *fileSink) threadPath(thread ThreadID) string {
	if entry, ok := s.registry.find(thread); ok {
		return s.namedPath(entry.Name)
	}
	return s.defaultPath(thread)
}

func (s *fileSink) namedPath(name string) string {
	return filepath.Join(s.dir, name+LOG_FILE_EXT)
}

func (s *fileSink) defaultPath(thread ThreadID) string {
	return filepath.Join(s.dir, THREAD_FILE_PREFIX+thread.String()+LOG_FILE_EXT)
}

// move renames an existing thread file. A missing source is not an error:
// the thread simply has not written anything yet.
func (s *fileSink) move(from, to string) error {
	if from == to {
		return nil
	}
	if _, err := os.Stat(from); os.IsNotExist(err) {
		return nil
	}
	if err := os.Rename(from, to); err != nil {
		return errors.Wrapf(err, "rename thread log %s", from)
	}
	return nil
}

// appendTo opens path for appending, writes text and closes the file. Panics
// are recovered and returned as errors.
func appendTo(path, text string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.New("panic writing log to " + path + panicDesc(r))
		}
	}()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, LOG_FILE_PERM)
	if err != nil {
		return fileError(err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fileError(cerr)
		}
	}()
	if _, err = f.WriteString(text); err != nil {
		err = fileError(err)
	}
	return err
}

/////////////////////////////////////////////////////////////////////////////////////////

// primaryHeader is the block written once at the top of the primary file.
func primaryHeader(now time.Time, name, template string, ceiling LogLevel) string {
	cal := calendarOf(now)
	var sb strings.Builder
	sb.WriteString("[" + cal.date() + " - " + cal.clock() + "] Log initialized\n")
	sb.WriteString("    Output-file: [" + name + "]\n")
	sb.WriteString("    Starting-format: " + template + "\n")
	sb.WriteString("    Enabled-levels: " + strconv.Itoa(int(ceiling)+1) + "    enabled: " + enabledLevels(ceiling) + "\n")
	sb.WriteString(separatorBig + "\n")
	return sb.String()
}

// threadHeader is the block written at the top of a new thread file.
func threadHeader(now time.Time, thread ThreadID, path string) string {
	cal := calendarOf(now)
	return "[" + cal.date() + " - " + cal.clock() + "] Thread log initialized\n" +
		"    Thread: [" + thread.String() + "]\n" +
		"    Output-file: [" + path + "]\n" +
		separatorBig + "\n"
}

// "FATAL + ERROR + ..." up to and including ceiling.
func enabledLevels(ceiling LogLevel) string {
	names := make([]string, 0, _LVL_MAX_for_checks_only)
	for level := LVL_FATAL; level <= normLevel(ceiling); level++ {
		names = append(names, LevelFullNames[level])
	}
	return strings.Join(names, " + ")
}
