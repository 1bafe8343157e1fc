package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"go.uber.org/zap/zapcore"
)

// DefaultSinkCapacity is the number of entries a Sink keeps when Init is
// given no positive capacity.
const DefaultSinkCapacity = 500

// Entry is one buffered log entry.
type Entry struct {
	Time    time.Time      `json:"ts"`
	Level   string         `json:"level"`
	Logger  string         `json:"logger,omitempty"`
	Message string         `json:"msg"`
	Fields  map[string]any `json:"fields,omitempty"`
}

// ring is the bounded buffer shared by a Sink and its With-children.
type ring struct {
	mu      sync.Mutex
	entries []Entry
	start   int
	n       int
	pushed  uint64 // entries accepted since creation; the newest has this sequence
}

func (r *ring) active() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.entries != nil
}

func (r *ring) push(e Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.entries == nil {
		return
	}
	r.pushed++
	c := len(r.entries)
	if r.n < c {
		r.entries[(r.start+r.n)%c] = e
		r.n++
		return
	}
	r.entries[r.start] = e
	r.start = (r.start + 1) % c
}

// snapshot copies the buffered entries, oldest first, and returns the
// sequence of the newest one.
func (r *ring) snapshot() ([]Entry, uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, r.n)
	for i := range out {
		out[i] = r.entries[(r.start+i)%len(r.entries)]
	}
	return out, r.pushed
}

// discard drops the buffered entries with a sequence up to seq. Entries
// pushed after the snapshot that produced seq stay.
func (r *ring) discard(seq uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	oldest := r.pushed - uint64(r.n) // sequence just before the oldest entry
	if seq <= oldest {
		return
	}
	k := int(min(seq-oldest, uint64(r.n)))
	for i := 0; i < k; i++ {
		r.entries[(r.start+i)%len(r.entries)] = Entry{}
	}
	r.start = (r.start + k) % len(r.entries)
	r.n -= k
}

func (r *ring) reset() {
	for i := range r.entries {
		r.entries[i] = Entry{}
	}
	r.start, r.n = 0, 0
}

// Sink is a bounded in-memory log buffer implemented as a zapcore.Core.
// It keeps the most recent entries and drops the oldest when full.
// Entries written before Init are discarded.
type Sink struct {
	ring    *ring
	level   zapcore.LevelEnabler
	context []zapcore.Field
}

var _ zapcore.Core = (*Sink)(nil)

// NewSink creates an uninitialised sink recording entries at or above level.
func NewSink(level zapcore.LevelEnabler) *Sink {
	return &Sink{ring: &ring{}, level: level}
}

// Init allocates the buffer and starts recording. Calling Init again
// resizes the buffer and drops what was recorded.
func (s *Sink) Init(capacity int) {
	if capacity <= 0 {
		capacity = DefaultSinkCapacity
	}
	s.ring.mu.Lock()
	defer s.ring.mu.Unlock()
	s.ring.entries = make([]Entry, capacity)
	s.ring.start, s.ring.n = 0, 0
}

// Entries returns the buffered entries, oldest first.
func (s *Sink) Entries() []Entry {
	entries, _ := s.ring.snapshot()
	return entries
}

// Clear drops every buffered entry; recording continues.
func (s *Sink) Clear() {
	s.ring.mu.Lock()
	defer s.ring.mu.Unlock()
	s.ring.reset()
}

// Flush writes the buffered entries to w as JSON lines and drops the ones
// written. On error the entry that failed and everything after it stay
// buffered.
func (s *Sink) Flush(w io.Writer) error {
	entries, last := s.ring.snapshot()
	first := last - uint64(len(entries))
	enc := json.NewEncoder(w)
	for i, e := range entries {
		if err := enc.Encode(e); err != nil {
			s.ring.discard(first + uint64(i))
			return fmt.Errorf("flush log entry: %w", err)
		}
	}
	s.ring.discard(last)
	return nil
}

// Enabled implements zapcore.LevelEnabler.
func (s *Sink) Enabled(l zapcore.Level) bool {
	return s.level.Enabled(l) && s.ring.active()
}

// With implements zapcore.Core; the child shares the buffer.
func (s *Sink) With(fields []zapcore.Field) zapcore.Core {
	ctx := make([]zapcore.Field, 0, len(s.context)+len(fields))
	ctx = append(ctx, s.context...)
	ctx = append(ctx, fields...)
	return &Sink{ring: s.ring, level: s.level, context: ctx}
}

// Check implements zapcore.Core.
func (s *Sink) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if s.Enabled(ent.Level) {
		return ce.AddCore(ent, s)
	}
	return ce
}

// Write implements zapcore.Core.
func (s *Sink) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	enc := zapcore.NewMapObjectEncoder()
	for _, f := range s.context {
		f.AddTo(enc)
	}
	for _, f := range fields {
		f.AddTo(enc)
	}
	var fm map[string]any
	if len(enc.Fields) > 0 {
		fm = enc.Fields
	}
	s.ring.push(Entry{
		Time:    ent.Time,
		Level:   ent.Level.String(),
		Logger:  ent.LoggerName,
		Message: ent.Message,
		Fields:  fm,
	})
	return nil
}

// Sync implements zapcore.Core.
func (s *Sink) Sync() error { return nil }
