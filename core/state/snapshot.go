package state

// Snapshot is a saved copy of the session state a subshell may change.
// Restoring writes the saved values back into the same objects, so
// references held by callers, such as the frames of running function calls,
// stay valid.
type Snapshot struct {
	vars       map[string]string
	exported   map[string]bool
	options    map[string]string
	traps      map[string]string
	bookmarks  map[string]string
	dirs       []string
	frames     []frameState
	positional []string
	optind     int
	optpos     int
}

type frameState struct {
	frame           *Frame
	args            []string
	locals          map[string]string
	returnRequested bool
	returnCode      int
}

func copyMap[V any](m map[string]V) map[string]V {
	out := make(map[string]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Snapshot saves everything except the command hash, which is a cache
// shared by the whole session.
func (s *Store) Snapshot() *Snapshot {
	snap := &Snapshot{
		vars:       s.Vars.snapshot(),
		exported:   copyMap(s.exported),
		options:    copyMap(s.Options.entries),
		traps:      copyMap(s.Traps.entries),
		bookmarks:  copyMap(s.Bookmarks.entries),
		dirs:       s.Dirs.Entries(),
		positional: append([]string(nil), s.Positional...),
		optind:     s.optind,
		optpos:     s.optpos,
	}
	for _, f := range s.Frames.frames {
		snap.frames = append(snap.frames, frameState{
			frame:           f,
			args:            append([]string(nil), f.Args...),
			locals:          copyMap(f.locals),
			returnRequested: f.ReturnRequested,
			returnCode:      f.ReturnCode,
		})
	}
	return snap
}

// Restore puts the state saved by Snapshot back.
func (s *Store) Restore(snap *Snapshot) {
	s.Vars.restore(snap.vars)
	s.exported = copyMap(snap.exported)
	s.Options.entries = copyMap(snap.options)
	s.Traps.entries = copyMap(snap.traps)
	s.Bookmarks.entries = copyMap(snap.bookmarks)
	s.Dirs.dirs = append([]string(nil), snap.dirs...)
	s.Positional = append([]string(nil), snap.positional...)
	s.optind, s.optpos = snap.optind, snap.optpos

	s.Frames.frames = s.Frames.frames[:0]
	for _, saved := range snap.frames {
		f := saved.frame
		f.Args = append([]string(nil), saved.args...)
		f.locals = copyMap(saved.locals)
		f.ReturnRequested = saved.returnRequested
		f.ReturnCode = saved.returnCode
		s.Frames.frames = append(s.Frames.frames, f)
	}
}

func (m *MapEnv) snapshot() map[string]string {
	m.rw.RLock()
	defer m.rw.RUnlock()
	return copyMap(m.env)
}

func (m *MapEnv) restore(env map[string]string) {
	m.rw.Lock()
	defer m.rw.Unlock()
	m.env = copyMap(env)
}
