package logger

import "sync"

// Entry is a single captured log record.
type Entry struct {
	Level   Level
	Message string
	KVs     []any
}

// Recorder is a Logger that captures entries in memory. Intended for tests
// that assert on logged warnings or debug output.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
	baseKVs []any
}

// NewRecorder creates a new Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Debug captures a debug-level entry.
func (r *Recorder) Debug(msg string, keysAndValues ...any) {
	r.record(LevelDebug, msg, keysAndValues)
}

// Info captures an info-level entry.
func (r *Recorder) Info(msg string, keysAndValues ...any) {
	r.record(LevelInfo, msg, keysAndValues)
}

// Warn captures a warning-level entry.
func (r *Recorder) Warn(msg string, keysAndValues ...any) {
	r.record(LevelWarn, msg, keysAndValues)
}

// Error captures an error-level entry.
func (r *Recorder) Error(msg string, keysAndValues ...any) {
	r.record(LevelError, msg, keysAndValues)
}

// With returns the same recorder with additional base key-value pairs.
//
//nolint:ireturn // With is intended to return an interface for chaining
func (r *Recorder) With(keysAndValues ...any) Logger {
	r.mu.Lock()
	defer r.mu.Unlock()

	newKVs := make([]any, len(r.baseKVs)+len(keysAndValues))
	copy(newKVs, r.baseKVs)
	copy(newKVs[len(r.baseKVs):], keysAndValues)

	return &Recorder{entries: r.entries, baseKVs: newKVs}
}

// Entries returns a copy of all captured entries.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Entry, len(r.entries))
	copy(out, r.entries)

	return out
}

// Messages returns the messages captured at the given level.
func (r *Recorder) Messages(level Level) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var msgs []string

	for _, e := range r.entries {
		if e.Level == level {
			msgs = append(msgs, e.Message)
		}
	}

	return msgs
}

func (r *Recorder) record(level Level, msg string, kvs []any) {
	r.mu.Lock()
	defer r.mu.Unlock()

	all := make([]any, 0, len(r.baseKVs)+len(kvs))
	all = append(all, r.baseKVs...)
	all = append(all, kvs...)

	r.entries = append(r.entries, Entry{Level: level, Message: msg, KVs: all})
}
