package tlgr

// newMsgBuffer allocates a buffer with room for capacity lines.
func newMsgBuffer(capacity int) msgBuffer {
	if capacity <= 0 {
		capacity = DEFAULT_BUF_CAPACITY
	}
	return msgBuffer{entries: make([]bufEntry, capacity)}
}

// push stores a line in the next free slot. The caller must hold bufMtx and
// flush when needsFlush says so, which keeps count below capacity.
func (b *msgBuffer) push(text string, thread ThreadID) {
	if b.count >= len(b.entries) {
		// Unreachable while callers honour needsFlush, kept to never
		// index out of range.
		return
	}
	b.entries[b.count] = bufEntry{text: text, thread: thread}
	b.count++
}

// needsFlush is the flush trigger evaluated after every push: the buffer is
// one slot short of full, or the record is important enough to be written
// immediately.
func (b *msgBuffer) needsFlush(level LogLevel, bufferLevel int) bool {
	return b.count >= len(b.entries)-1 || isImmediate(level, bufferLevel)
}

// isImmediate tells whether a level bypasses buffering. Buffer level n keeps
// the n least important levels in memory:
//
//	0 - nothing is buffered
//	1 - TRACE
//	2 - TRACE + DEBUG
//	3 - TRACE + DEBUG + INFO
//	4 - TRACE + DEBUG + INFO + WARN
func isImmediate(level LogLevel, bufferLevel int) bool {
	return int(level) < int(_LVL_MAX_for_checks_only)-bufferLevel
}

// pending returns the buffered entries in append order. The slice aliases the
// buffer storage and is valid until the next push.
func (b msgBuffer) pending() []bufEntry {
	return b.entries[:b.count]
}

func (b *msgBuffer) reset() {
	clear(b.entries[:b.count])
	b.count = 0
}

func (b msgBuffer) size() int {
	return b.count
}

func (b msgBuffer) capacity() int {
	return len(b.entries)
}
