package tlgr

import "time"

// SystemClock returns the local wall-clock time.
func SystemClock() time.Time {
	return time.Now()
}

// calendar is the broken-down local time the formatter and the file headers
// read their fields from.
type calendar struct {
	year, month, day     int
	hour, minute, second int
	millis               int
}

func calendarOf(t time.Time) calendar {
	t = t.Local()
	return calendar{
		year:   t.Year(),
		month:  int(t.Month()),
		day:    t.Day(),
		hour:   t.Hour(),
		minute: t.Minute(),
		second: t.Second(),
		millis: t.Nanosecond() / int(time.Millisecond),
	}
}

// "YYYY/MM/DD"
func (c calendar) date() string {
	return pad(c.year, 4) + "/" + pad(c.month, 2) + "/" + pad(c.day, 2)
}

// "HH:MM:SS"
func (c calendar) clock() string {
	return pad(c.hour, 2) + ":" + pad(c.minute, 2) + ":" + pad(c.second, 2)
}

// Zero-padded decimal of at least width digits (fmt is avoided on the hot path).
func pad(v, width int) string {
	var digits [20]byte
	i := len(digits)
	neg := v < 0
	if neg {
		v = -v
	}
	for v > 0 || i == len(digits) {
		i--
		digits[i] = byte('0' + v%10)
		v /= 10
	}
	for len(digits)-i < width && i > 0 {
		i--
		digits[i] = '0'
	}
	if neg {
		return "-" + string(digits[i:])
	}
	return string(digits[i:])
}
