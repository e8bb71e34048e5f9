package tlgr

/*
Template expansion. A template is literal text with two-character
directives `$<code>`:

	$B color start      $E color end        $C prefix + message
	$L level name       $X space for INFO/WARN alignment
	$F function         $A file path        $I file base name
	$G line             $P thread id (hex)  $Z new line
	$T hh:mm:ss         $H hour   $M minute   $S second   $J milliseconds
	$N yyyy/mm/dd       $Y year   $O month    $D day

An unknown code drops both characters, a lone `$` at the very end of the
template is copied as is. The result never exceeds the line length limit.
*/

import (
	"strconv"
	"strings"
)

const DIRECTIVE_MARK = '$'

// lineBuffer is an append-only byte buffer that silently stops growing at max.
type lineBuffer struct {
	buf []byte
	max int
}

func newLineBuffer(limit int) *lineBuffer {
	return &lineBuffer{buf: make([]byte, 0, min(limit, DEFAULT_MAX_LINE_LEN)), max: limit}
}

// full reports whether nothing more can be appended.
func (b *lineBuffer) full() bool {
	return len(b.buf) >= b.max
}

func (b *lineBuffer) writeString(s string) {
	if room := b.max - len(b.buf); room < len(s) {
		s = s[:max(room, 0)]
	}
	b.buf = append(b.buf, s...)
}

func (b *lineBuffer) writeByte(c byte) {
	if !b.full() {
		b.buf = append(b.buf, c)
	}
}

func (b *lineBuffer) String() string {
	return string(b.buf)
}

// formatLine expands tmpl for rec. With colored == false the $B and $E
// directives expand to nothing. maxLen <= 0 means DEFAULT_MAX_LINE_LEN.
func formatLine(tmpl string, rec *Record, colored bool, maxLen int) string {
	if maxLen <= 0 {
		maxLen = DEFAULT_MAX_LINE_LEN
	}
	out := newLineBuffer(maxLen)
	cal := calendarOf(rec.Time)
	level := normLevel(rec.Level)
	for i := 0; i < len(tmpl) && !out.full(); i++ {
		if tmpl[i] != DIRECTIVE_MARK || i+1 >= len(tmpl) {
			out.writeByte(tmpl[i])
			continue
		}
		i++
		expandDirective(out, tmpl[i], rec, level, &cal, colored)
	}
	return out.String()
}

// expandDirective appends the expansion of a single directive code.
func expandDirective(out *lineBuffer, code byte, rec *Record, level LogLevel, cal *calendar, colored bool) {
	switch code {
	// Basic info
	case 'B':
		if colored {
			out.writeString(LevelColorMap[level])
		}
	case 'E':
		if colored {
			out.writeString(ANSI_COL_RESET)
		}
	case 'C':
		out.writeString(rec.Prefix)
		out.writeString(rec.Text)
	case 'L':
		out.writeString(LevelFullNames[level])
	case 'X':
		if level == LVL_INFO || level == LVL_WARN {
			out.writeByte(' ')
		}
	case 'F':
		out.writeString(rec.Site.Func)
	case 'A':
		out.writeString(rec.Site.File)
	case 'I':
		out.writeString(baseName(rec.Site.File))
	case 'G':
		out.writeString(strconv.Itoa(rec.Site.Line))
	case 'P':
		out.writeString(rec.Thread.String())
	case 'Z':
		out.writeByte('\n')
	// Time
	case 'T':
		out.writeString(cal.clock())
	case 'H':
		out.writeString(pad(cal.hour, 2))
	case 'M':
		out.writeString(pad(cal.minute, 2))
	case 'S':
		out.writeString(pad(cal.second, 2))
	case 'J':
		out.writeString(pad(cal.millis, 3))
	// Date
	case 'N':
		out.writeString(cal.date())
	case 'Y':
		out.writeString(pad(cal.year, 4))
	case 'O':
		out.writeString(pad(cal.month, 2))
	case 'D':
		out.writeString(pad(cal.day, 2))
	default:
		// unknown directive, dropped
	}
}

// baseName strips everything up to the last slash or backslash, so paths from
// any platform are shortened the same way.
func baseName(path string) string {
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		return path[i+1:]
	}
	return path
}
