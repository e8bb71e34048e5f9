package tlgr

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Init(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	l, err := Init(path, "$C$Z")
	assert.NoError(t, err)
	if !assert.NotNil(t, l) {
		return
	}
	l.SetConsole(nil, false)
	defer l.Shutdown()

	assert.True(t, l.IsActive())
	assert.Equal(t, "$C$Z", l.Template())
	assert.Equal(t, DEFAULT_MIN_LEVEL, l.MinLevel())
	assert.Equal(t, DEFAULT_BUFFER_LEVEL, l.BufferLevel())
	content := readFile(t, path)
	assert.True(t, strings.HasPrefix(content, "["))
	assert.Contains(t, content, "] Log initialized\n")
	assert.Contains(t, content, "    Output-file: ["+path+"]\n")
	assert.Contains(t, content, "    Starting-format: $C$Z\n")
	assert.Contains(t, content, "Enabled-levels: 6")
	assert.True(t, strings.HasSuffix(content, separatorBig+"\n"), "only the header before the first flush")
}

func Test_Init_DefaultTemplate(t *testing.T) {
	cfg := DefaultConfig("", "")
	assert.Equal(t, DEFAULT_FILE_NAME, cfg.FileName)
	assert.Equal(t, DEFAULT_TEMPLATE, cfg.Template)
	assert.Equal(t, COMPILED_CEILING, cfg.Ceiling)
	assert.NotNil(t, cfg.Console)
	assert.Equal(t, os.Stderr, cfg.Fallback)
}

func Test_InitPerThread(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	l, err := InitPerThread("main.log", "$C$Z", 1)
	if !assert.NoError(t, err) {
		return
	}
	l.SetConsole(nil, false)
	assert.DirExists(t, filepath.Join(dir, DEFAULT_LOG_DIR))
	assert.Equal(t, ThreadID(1), l.MainThread())
	assert.Equal(t, filepath.Join(DEFAULT_LOG_DIR, "thread_log_2.log"), l.ThreadFile(2))
	l.Shutdown()
}

func Test_InitWithParams_Errors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"missing_dir", func(c *Config) { c.FileName = filepath.Join(dir, "no", "x.log") }, ErrCannotOpenFile},
		{"empty_name", func(c *Config) { c.FileName = "" }, ErrInvalidConfigValue},
		{"fatal_threshold", func(c *Config) { c.MinLevel = LVL_FATAL }, ErrInvalidConfigValue},
		{"threshold_too_big", func(c *Config) { c.MinLevel = _LVL_MAX_for_checks_only }, ErrInvalidConfigValue},
		{"buffer_level_big", func(c *Config) { c.BufferLevel = 5 }, ErrInvalidConfigValue},
		{"buffer_level_negative", func(c *Config) { c.BufferLevel = -1 }, ErrInvalidConfigValue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig(filepath.Join(dir, tt.name+".log"), "$C$Z")
			cfg.Console = nil
			tt.mutate(&cfg)
			l, err := InitWithParams(cfg)
			assert.ErrorIs(t, err, tt.want)
			assert.Nil(t, l)
		})
	}
}

func Test_InitWithParams_Normalize(t *testing.T) {
	env := newTestLogger(t, func(c *Config) {
		c.Ceiling = 9
		c.BufferCapacity = 0
		c.MaxLineLength = -1
		c.LogDir = ""
		c.Fallback = nil
		c.Clock = nil
	})
	l := env.logger
	assert.Equal(t, LVL_TRACE, l.ceiling)
	assert.Equal(t, DEFAULT_BUF_CAPACITY, l.buffer.capacity())
	assert.Equal(t, DEFAULT_MAX_LINE_LEN, l.maxLineLen)
	assert.Equal(t, DEFAULT_LOG_DIR, l.sink.dir)
	assert.NotNil(t, l.fallbck)
	assert.NotNil(t, l.clock)
}

func Test_Logger_Buffering(t *testing.T) {
	env := newTestLogger(t, nil)
	l := env.logger
	assert.Equal(t, 1, l.buffer.size(), "Initialize is buffered")

	l.Logf(LVL_INFO, "a")
	assert.Equal(t, "", body(t, env.file))
	assert.Equal(t, "Initialize\na\n", env.cons.String(), "console gets lines before buffering")

	l.Logf(LVL_WARN, "b")
	assert.Equal(t, "Initialize\na\nb\n", body(t, env.file))
	assert.Zero(t, l.buffer.size())
}

func Test_Logger_FlushOnCapacity(t *testing.T) {
	env := newTestLogger(t, nil)
	l := env.logger
	for range DEFAULT_BUF_CAPACITY - 3 {
		l.Logf(LVL_DEBUG, "d")
	}
	assert.Equal(t, DEFAULT_BUF_CAPACITY-2, l.buffer.size())
	assert.Equal(t, "", body(t, env.file))

	l.Logf(LVL_DEBUG, "d")
	assert.Zero(t, l.buffer.size())
	assert.Equal(t, "Initialize\n"+strings.Repeat("d\n", DEFAULT_BUF_CAPACITY-2), body(t, env.file))
}

func Test_Logger_Flush(t *testing.T) {
	env := newTestLogger(t, nil)
	env.logger.Logf(LVL_TRACE, "t")
	env.logger.Flush()
	assert.Equal(t, "Initialize\nt\n", body(t, env.file))
	env.logger.Flush()
	assert.Equal(t, "Initialize\nt\n", body(t, env.file), "empty flush writes nothing")
}

func Test_Logger_BufferLevelZero(t *testing.T) {
	env := newTestLogger(t, func(c *Config) { c.BufferLevel = 0 })
	assert.Equal(t, "Initialize\n", body(t, env.file))
	env.logger.Logf(LVL_TRACE, "t")
	assert.Equal(t, "Initialize\nt\n", body(t, env.file))
}

func Test_Logger_Threshold(t *testing.T) {
	for threshold := LVL_ERROR; threshold <= LVL_TRACE; threshold++ {
		t.Run(threshold.String(), func(t *testing.T) {
			env := newTestLogger(t, nil)
			l := env.logger
			assert.NoError(t, l.SetMinLevel(threshold))
			assert.Equal(t, threshold, l.MinLevel())
			env.cons.Clear()
			for level := range _LVL_MAX_for_checks_only {
				l.Logf(level, "%s", level)
			}
			lines := strings.Split(strings.TrimSuffix(env.cons.String(), "\n"), "\n")
			assert.Len(t, lines, int(threshold)+1)
			for i, line := range lines {
				assert.Equal(t, LogLevel(i).String(), line)
			}
		})
	}
}

func Test_Logger_Ceiling(t *testing.T) {
	env := newTestLogger(t, func(c *Config) { c.Ceiling = LVL_INFO })
	l := env.logger
	assert.NoError(t, l.SetMinLevel(LVL_TRACE))
	env.cons.Clear()
	l.Logf(LVL_DEBUG, "debug")
	l.Logf(LVL_TRACE, "trace")
	l.Logf(LVL_INFO, "info")
	l.Logf(LogLevel(77), "bogus")
	assert.Equal(t, "info\n", env.cons.String())
	assert.Contains(t, readFile(t, env.file), "Enabled-levels: 4    enabled: FATAL + ERROR + WARN + INFO\n")
}

func Test_Logger_SetMinLevel(t *testing.T) {
	env := newTestLogger(t, func(c *Config) { c.Template = "$L $C$Z" })
	l := env.logger
	t.Run("accepted", func(t *testing.T) {
		env.cons.Clear()
		assert.NoError(t, l.SetMinLevel(LVL_WARN))
		assert.Equal(t, LVL_WARN, l.MinLevel())
		assert.Equal(t, "WARN Setting [log_level: 2]\n", env.cons.String())
	})
	for _, bad := range []LogLevel{LVL_FATAL, _LVL_MAX_for_checks_only, 200} {
		t.Run("rejected_"+bad.String(), func(t *testing.T) {
			env.cons.Clear()
			err := l.SetMinLevel(bad)
			assert.ErrorIs(t, err, ErrInvalidConfigValue)
			assert.Equal(t, LVL_WARN, l.MinLevel())
			assert.True(t, strings.HasPrefix(env.cons.String(), "ERROR "))
			assert.Contains(t, env.cons.String(), "out of bounds")
		})
	}
}

func Test_Logger_SetBufferLevel(t *testing.T) {
	env := newTestLogger(t, nil)
	l := env.logger
	for _, bad := range []int{-1, 5, 100} {
		env.cons.Clear()
		assert.ErrorIs(t, l.SetBufferLevel(bad), ErrInvalidConfigValue)
		assert.Equal(t, DEFAULT_BUFFER_LEVEL, l.BufferLevel())
		assert.Contains(t, env.cons.String(), "input invalid level")
	}
	// the rejections above were ERROR records, written immediately
	env.cons.Clear()
	assert.NoError(t, l.SetBufferLevel(MAX_BUFFER_LEVEL))
	assert.Equal(t, MAX_BUFFER_LEVEL, l.BufferLevel())
	assert.Empty(t, env.cons.String())
	before := body(t, env.file)
	l.Logf(LVL_WARN, "kept in memory")
	assert.Equal(t, before, body(t, env.file))
	assert.NoError(t, l.SetBufferLevel(0))
	l.Logf(LVL_TRACE, "written")
	assert.Equal(t, before+"kept in memory\nwritten\n", body(t, env.file))
}

func Test_Logger_Templates(t *testing.T) {
	env := newTestLogger(t, nil)
	l := env.logger
	t.Run("backup", func(t *testing.T) {
		assert.Equal(t, l, l.SetTemplate("A$C$Z"))
		l.SetTemplate("B$C$Z")
		assert.Equal(t, "B$C$Z", l.Template())
		assert.Equal(t, "A$C$Z", l.RestoreTemplate().Template())
		assert.Equal(t, "A$C$Z", l.RestoreTemplate().Template(), "backup is kept")
		env.cons.Clear()
		l.Logf(LVL_INFO, "x")
		assert.Equal(t, "Ax\n", env.cons.String())
	})
	t.Run("per_level", func(t *testing.T) {
		l.SetTemplate("$C$Z")
		assert.NoError(t, l.SetLevelTemplate(LVL_ERROR, "E:$C$Z"))
		env.cons.Clear()
		l.Logf(LVL_ERROR, "x")
		l.Logf(LVL_INFO, "y")
		assert.Equal(t, "E:x\ny\n", env.cons.String())

		assert.NoError(t, l.ClearLevelTemplate(LVL_ERROR))
		env.cons.Clear()
		l.Logf(LVL_ERROR, "x")
		assert.Equal(t, "x\n", env.cons.String())

		assert.ErrorIs(t, l.SetLevelTemplate(_LVL_MAX_for_checks_only, "$C"), ErrInvalidConfigValue)
		assert.ErrorIs(t, l.ClearLevelTemplate(9), ErrInvalidConfigValue)
	})
}

func Test_Logger_Output(t *testing.T) {
	env := newTestLogger(t, func(c *Config) { c.Template = "$P|$F|$A|$G|$C$Z" })
	l := env.logger
	site := CallSite{Func: "handler", File: "srv/http.go", Line: 17}
	tests := []struct {
		name   string
		prefix string
		msg    string
		args   []any
		want   string
	}{
		{"plain", "", "hello", nil, "ff|handler|srv/http.go|17|hello\n"},
		{"prefix_only", "p:", "", nil, "ff|handler|srv/http.go|17|p:\n"},
		{"prefix_and_message", "p:", "m", nil, "ff|handler|srv/http.go|17|p:m\n"},
		{"no_args_no_format", "", "100%d", nil, "ff|handler|srv/http.go|17|100%d\n"},
		{"args", "", "%d%%", []any{5}, "ff|handler|srv/http.go|17|5%\n"},
		{"empty", "", "", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env.cons.Clear()
			assert.NoError(t, l.Output(LVL_INFO, tt.prefix, site, 0xff, tt.msg, tt.args...))
			assert.Equal(t, tt.want, env.cons.String())
		})
	}
}

func Test_Logger_CallSite(t *testing.T) {
	env := newTestLogger(t, func(c *Config) { c.Template = "$F $I$Z" })
	env.cons.Clear()
	env.logger.Logf(LVL_INFO, "x")
	assert.Equal(t, "Test_Logger_CallSite logger_test.go\n", env.cons.String())
}

func Test_shortFuncName(t *testing.T) {
	tests := map[string]string{
		"github.com/abyssdigger/tlgr.Test_X":        "Test_X",
		"github.com/abyssdigger/tlgr.(*Logger).Logf": "(*Logger).Logf",
		"main.main":         "main",
		"main.run.func1":    "run.func1",
		"runtime.goexit":    "goexit",
		"noPackageFunction": "noPackageFunction",
	}
	for in, want := range tests {
		assert.Equal(t, want, shortFuncName(in), in)
	}
}

func Test_Logger_Colors(t *testing.T) {
	env := newTestLogger(t, func(c *Config) {
		c.Template = "$B$L$E$Z"
		c.ColorizeConsole = true
		c.BufferLevel = 0
	})
	env.cons.Clear()
	env.logger.Logf(LVL_ERROR, "x")
	assert.Equal(t, "\033[1;31mERROR\033[0;39m\n", env.cons.String())
	assert.Equal(t, "TRACE\nERROR\n", body(t, env.file))

	env.logger.SetColorizeFile(true)
	env.logger.Logf(LVL_WARN, "x")
	assert.Equal(t, "TRACE\nERROR\n\033[1;93mWARN\033[0;39m\n", body(t, env.file))
}

func Test_Logger_ConsoleErrors(t *testing.T) {
	env := newTestLogger(t, nil)
	l := env.logger
	t.Run("error", func(t *testing.T) {
		env.ferr.Clear()
		l.SetConsole(&ErrorWriter{}, false)
		l.Logf(LVL_INFO, "x")
		assert.Equal(t, "error writing log to console: "+errorStr+"\n", env.ferr.String())
	})
	t.Run("panic", func(t *testing.T) {
		env.ferr.Clear()
		l.SetConsole(&PanicWriter{}, false)
		assert.NotPanics(t, func() { l.Logf(LVL_INFO, "x") })
		assert.Equal(t, "panic writing log to console: `"+panicStr+"`\n", env.ferr.String())
		assert.Nil(t, l.console, "panicking console is disabled")
		env.ferr.Clear()
		l.Logf(LVL_INFO, "y")
		assert.Empty(t, env.ferr.String())
	})
	t.Run("zero_panic", func(t *testing.T) {
		env.ferr.Clear()
		l.SetConsole(&ZeroPanicWriter{}, false)
		l.Logf(LVL_INFO, "x")
		assert.Equal(t, "panic writing log to console "+_ERROR_UNKNOWN_PANIC_TEXT+"\n", env.ferr.String())
	})
	t.Run("failing_fallback", func(t *testing.T) {
		l.SetFallback(&ErrorWriter{})
		l.SetConsole(&ErrorWriter{}, false)
		assert.NotPanics(t, func() { l.Logf(LVL_INFO, "x") })
	})
	t.Run("nil_fallback", func(t *testing.T) {
		l.SetFallback(nil)
		l.SetConsole(&ErrorWriter{}, false)
		assert.NotPanics(t, func() { l.Logf(LVL_INFO, "x") })
	})
}

func Test_Logger_FlushErrors(t *testing.T) {
	env := newTestLogger(t, nil)
	l := env.logger
	assert.NoError(t, os.RemoveAll(env.dir))
	l.Logf(LVL_ERROR, "lost")
	assert.Zero(t, l.buffer.size(), "failed lines are dropped")
	assert.Equal(t, 2, strings.Count(env.ferr.String(), _ERROR_MESSAGE_CANNOT_OPEN))
	assert.True(t, strings.HasPrefix(env.ferr.String(), "error writing log: "))
}

func Test_Logger_Shutdown(t *testing.T) {
	env := newTestLogger(t, nil)
	l := env.logger
	l.Logf(LVL_DEBUG, "pending")
	l.Shutdown()
	assert.False(t, l.IsActive())
	assert.Equal(t, "Initialize\npending\nShutdown\n", body(t, env.file))

	assert.ErrorIs(t, l.Output(LVL_FATAL, "", CallSite{}, 0, "late"), ErrLoggerInactive)
	assert.NotPanics(t, l.Shutdown)
	assert.Equal(t, "Initialize\npending\nShutdown\n", body(t, env.file))
}

func Test_Logger_Separator(t *testing.T) {
	env := newTestLogger(t, func(c *Config) { c.Template = "[$L] $C$Z" })
	l := env.logger
	l.SetTemplate("<$C>$Z")
	env.cons.Clear()
	l.Separator(LVL_INFO, false)
	l.Separator(LVL_INFO, true)
	assert.Equal(t, separatorSmall+"\n"+separatorBig+"\n", env.cons.String())
	assert.Equal(t, "<$C>$Z", l.Template())
	assert.Equal(t, "[$L] $C$Z", l.RestoreTemplate().Template(), "backup is untouched")

	env.cons.Clear()
	assert.NoError(t, l.SetMinLevel(LVL_ERROR))
	env.cons.Clear()
	l.Separator(LVL_INFO, true)
	assert.Empty(t, env.cons.String(), "separators are filtered like any record")
}

func Test_Logger_Validate(t *testing.T) {
	env := newTestLogger(t, func(c *Config) { c.Template = "$L $C$Z" })
	l := env.logger
	tests := []struct {
		name    string
		check   func() bool
		ok      bool
		console string
	}{
		{"validate_ok", func() bool { return l.Validate(true, "ok %d", "bad %d", 1) }, true, "TRACE ok 1\n"},
		{"validate_ok_silent", func() bool { return l.Validate(true, "", "bad") }, true, ""},
		{"validate_fail", func() bool { return l.Validate(false, "ok", "bad %d", 2) }, false, "ERROR bad 2\n"},
		{"assert_ok", func() bool { return l.Assert(true, "fine", "broken") }, true, "TRACE fine\n"},
		{"assert_fail", func() bool { return l.Assert(false, "fine", "broken") }, false, "FATAL broken\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env.cons.Clear()
			assert.Equal(t, tt.ok, tt.check())
			assert.Equal(t, tt.console, env.cons.String())
		})
	}
}

func Test_Logger_ValidateCallSite(t *testing.T) {
	env := newTestLogger(t, func(c *Config) { c.Template = "$F$Z" })
	env.cons.Clear()
	env.logger.Validate(false, "", "bad")
	assert.Equal(t, "Test_Logger_ValidateCallSite\n", env.cons.String())
}

func Test_Logger_PerThreadFiles(t *testing.T) {
	env := newTestLogger(t, func(c *Config) {
		c.PerThreadFiles = true
		c.MainThread = 1
		c.BufferLevel = 0
	})
	l := env.logger
	logDir := filepath.Join(env.dir, DEFAULT_LOG_DIR)
	defaultFile := filepath.Join(logDir, "thread_log_7.log")
	c := l.NewClientWithID(7, "")

	t.Run("default_file", func(t *testing.T) {
		c.LogWarn("w1")
		assert.Equal(t, "w1\n", body(t, defaultFile))
		assert.Equal(t, "Initialize\n", body(t, env.file))
		assert.Equal(t, defaultFile, l.ThreadFile(7))
	})
	t.Run("register_renames", func(t *testing.T) {
		entry, err := l.RegisterThread(7, "net")
		assert.NoError(t, err)
		assert.Equal(t, ThreadEntry{Thread: 7, Name: "net"}, entry)
		assert.NoFileExists(t, defaultFile)
		c.LogWarn("w2")
		assert.Equal(t, "w1\nw2\n", body(t, filepath.Join(logDir, "net.log")))
	})
	t.Run("rename_again", func(t *testing.T) {
		_, err := l.RegisterThread(7, "db")
		assert.NoError(t, err)
		assert.NoFileExists(t, filepath.Join(logDir, "net.log"))
		assert.Equal(t, "w1\nw2\n", body(t, filepath.Join(logDir, "db.log")))
		name, ok := l.ThreadName(7)
		assert.True(t, ok)
		assert.Equal(t, "db", name)
	})
	t.Run("unregister", func(t *testing.T) {
		l.UnregisterThread(7)
		_, ok := l.ThreadName(7)
		assert.False(t, ok)
		c.LogWarn("w3")
		assert.Equal(t, "w3\n", body(t, defaultFile))
		assert.Equal(t, "w1\nw2\n", body(t, filepath.Join(logDir, "db.log")))
	})
	t.Run("main_thread", func(t *testing.T) {
		l.MainClient().LogWarn("m")
		assert.Equal(t, "Initialize\nm\n", body(t, env.file))
		assert.Equal(t, env.file, l.ThreadFile(1))
	})
	t.Run("register_before_writing", func(t *testing.T) {
		_, err := l.RegisterThread(8, "quiet")
		assert.NoError(t, err)
		assert.NoFileExists(t, filepath.Join(logDir, "quiet.log"))
	})
	t.Run("name_taken_by_other_thread", func(t *testing.T) {
		owner := l.NewClientWithID(10, "shared")
		owner.LogWarn("from-10")
		other := l.NewClientWithID(11, "")
		other.LogWarn("from-11")
		otherFile := filepath.Join(logDir, "thread_log_b.log")

		env.cons.Clear()
		_, err := l.RegisterThread(11, "shared")
		assert.ErrorIs(t, err, ErrInvalidConfigValue)
		assert.Contains(t, env.cons.String(), "already used by thread a")
		assert.Equal(t, "from-10\n", body(t, filepath.Join(logDir, "shared.log")))
		assert.Equal(t, "from-11\n", body(t, otherFile))
		_, ok := l.ThreadName(11)
		assert.False(t, ok)

		_, err = l.RegisterThread(10, "shared")
		assert.NoError(t, err, "same thread may repeat its own name")
	})
	t.Run("rename_failure", func(t *testing.T) {
		c9 := l.NewClientWithID(9, "")
		c9.LogWarn("x")
		assert.NoError(t, os.Mkdir(filepath.Join(logDir, "busy.log"), LOG_DIR_PERM))
		assert.NoError(t, os.WriteFile(filepath.Join(logDir, "busy.log", "f"), nil, LOG_FILE_PERM))
		env.ferr.Clear()
		_, err := l.RegisterThread(9, "busy")
		assert.Error(t, err)
		assert.Contains(t, env.ferr.String(), "rename thread log")
		name, ok := l.ThreadName(9)
		assert.True(t, ok, "name stays registered")
		assert.Equal(t, "busy", name)
	})
}

func Test_Logger_RegisterThread_BadNames(t *testing.T) {
	env := newTestLogger(t, nil)
	for _, name := range []string{"", "a/b", `a\b`, ".", ".."} {
		env.cons.Clear()
		_, err := env.logger.RegisterThread(3, name)
		assert.ErrorIs(t, err, ErrInvalidConfigValue, name)
		assert.Contains(t, env.cons.String(), _ERROR_MESSAGE_EMPTY_NAME)
		_, ok := env.logger.ThreadName(3)
		assert.False(t, ok)
	}
}

func Test_Logger_SingleFileThreads(t *testing.T) {
	env := newTestLogger(t, func(c *Config) { c.BufferLevel = 0 })
	l := env.logger
	_, err := l.RegisterThread(5, "worker")
	assert.NoError(t, err)
	l.NewClientWithID(5, "").LogInfo("from worker")
	assert.Equal(t, "Initialize\nfrom worker\n", body(t, env.file))
	assert.Equal(t, env.file, l.ThreadFile(5))
	assert.NoDirExists(t, filepath.Join(env.dir, DEFAULT_LOG_DIR))
}
