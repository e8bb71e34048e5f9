package tlgr

import "bytes"

/*
io.Writer interface implementation

LogClient implements io.Writer so it can be used with fmt.Fprintf, log.New
and other formatting helpers:
  - Lvl(level) sets the level used by subsequent Write calls (INFO by default).
  - Write(p) logs p as one message at that level. A single trailing newline
    is dropped because templates end lines with $Z themselves.
*/

// Lvl sets the client's current level (used by Write/fmt.Fprintf) and returns
// the same client for convenient chaining.
func (lc *LogClient) Lvl(level LogLevel) *LogClient {
	lc.curLevel = normLevel(level)
	return lc
}

// Write implements io.Writer. On success it returns n=len(p) and err==nil,
// after Shutdown it returns 0 and ErrLoggerInactive. This allows patterns like:
//
//	fmt.Fprintf(client.Lvl(LVL_WARN), "disk low: %d%%", percent)
//
// but remember that a client is not meant to be shared between goroutines
// while its level is changed!
func (lc *LogClient) Write(p []byte) (n int, err error) {
	if p == nil {
		return 0, nil
	}
	msg := string(bytes.TrimSuffix(p, []byte{'\n'}))
	if err = lc.send(callerSite(1), lc.curLevel, "", msg, nil); err != nil {
		return 0, err
	}
	return len(p), nil
}
