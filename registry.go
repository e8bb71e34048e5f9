package tlgr

// Thread-name registry. Entries live in a slice; the map points from thread
// id to slot. Removal moves the last entry into the freed slot, so the
// slice stays dense. Callers hold Logger.sync.bufMtx.

func newThreadRegistry() threadRegistry {
	return threadRegistry{index: map[ThreadID]int{}}
}

// register names a thread, overwriting the name in place if the thread is
// already known. Returns the stored entry.
func (r *threadRegistry) register(thread ThreadID, name string) ThreadEntry {
	if i, ok := r.index[thread]; ok {
		r.entries[i].Name = name
		return r.entries[i]
	}
	r.entries = append(r.entries, ThreadEntry{Thread: thread, Name: name})
	r.index[thread] = len(r.entries) - 1
	return r.entries[len(r.entries)-1]
}

func (r *threadRegistry) find(thread ThreadID) (ThreadEntry, bool) {
	if i, ok := r.index[thread]; ok {
		return r.entries[i], true
	}
	return ThreadEntry{}, false
}

// owner returns the thread a name is registered for.
func (r *threadRegistry) owner(name string) (ThreadID, bool) {
	for i := range r.entries {
		if r.entries[i].Name == name {
			return r.entries[i].Thread, true
		}
	}
	return 0, false
}

// remove forgets a thread. No-op for unknown ids.
func (r *threadRegistry) remove(thread ThreadID) {
	i, ok := r.index[thread]
	if !ok {
		return
	}
	last := len(r.entries) - 1
	if i != last {
		r.entries[i] = r.entries[last]
		r.index[r.entries[i].Thread] = i
	}
	r.entries[last] = ThreadEntry{}
	r.entries = r.entries[:last]
	delete(r.index, thread)
}

func (r *threadRegistry) size() int {
	return len(r.entries)
}
