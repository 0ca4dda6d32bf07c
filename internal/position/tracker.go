// Package position owns the single source of truth for where the reader
// is in a book: a character offset and its derived [0,1] progress.
//
// Three input sources mutate the position — manual navigation, narration
// boundary events, and narration elapsed-time estimation. While a
// narration session is live they are serialized through a forward-only
// ratchet: any candidate that would move the position backward is
// discarded, observably, never applied.
package position

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/tomeapp/tome/internal/narration"
)

// State is the tracker's mode.
type State int

const (
	// Idle means no narration session exists.
	Idle State = iota
	// Narrating means a session is live and ticks advance the position.
	Narrating
	// Seeking means the user grabbed the position control; narration is
	// stopped on entry.
	Seeking
)

func (s State) String() string {
	switch s {
	case Narrating:
		return "narrating"
	case Seeking:
		return "seeking"
	default:
		return "idle"
	}
}

// session is the ephemeral narration bookkeeping. lastConfirmed is the
// high-water mark the monotonicity gate is enforced against; boundaryHW
// tracks engine-reported boundaries, which participate in the same gate.
type session struct {
	startOffset    int
	startTime      time.Time
	remainingUnits int
	boundaryHW     int
	lastConfirmed  int
}

// Tracker is safe for concurrent use: timer ticks and out-of-band
// boundary callbacks both funnel through the internal mutex and the
// max-wins gate.
type Tracker struct {
	mu         sync.Mutex
	contentLen int
	offset     int
	state      State
	sess       *session
	wpm        float64
	blocked    int
	log        *zap.Logger
}

// NewTracker creates a tracker over content of contentLen runes.
func NewTracker(contentLen int, wpm float64, log *zap.Logger) *Tracker {
	if log == nil {
		log = zap.NewNop()
	}
	return &Tracker{contentLen: contentLen, wpm: wpm, log: log}
}

// Offset returns the current character offset.
func (t *Tracker) Offset() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.offset
}

// Progress returns the normalized fraction read, always derived from the
// offset and content length, never stored separately.
func (t *Tracker) Progress() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.contentLen == 0 {
		return 0
	}
	return float64(t.offset) / float64(t.contentLen)
}

// State returns the current mode.
func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Blocked returns how many candidate updates the monotonicity gate has
// discarded. Diagnostic only; discards are normal under jitter.
func (t *Tracker) Blocked() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.blocked
}

// SetWPM adjusts the estimated narration rate used by progress ticks.
func (t *Tracker) SetWPM(wpm float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if wpm > 0 {
		t.wpm = wpm
	}
}

// WPM returns the current estimated narration rate.
func (t *Tracker) WPM() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.wpm
}

// StartNarration opens a session from the current offset. remainingUnits
// is the unit count of the unread tail. A zero remainder or an offset at
// the end of the book is a degenerate no-op: the tracker logs and stays
// Idle, and the return value reports whether a session began.
func (t *Tracker) StartNarration(remainingUnits int, now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if remainingUnits <= 0 || t.offset >= t.contentLen {
		t.log.Info("narration start is a no-op",
			zap.Int("remainingUnits", remainingUnits),
			zap.Int("offset", t.offset),
			zap.Int("contentLen", t.contentLen))
		return false
	}
	t.sess = &session{
		startOffset:    t.offset,
		startTime:      now,
		remainingUnits: remainingUnits,
		boundaryHW:     t.offset,
		lastConfirmed:  t.offset,
	}
	t.state = Narrating
	return true
}

// Tick advances the position by elapsed-time estimation. It returns the
// resulting offset and whether this tick committed forward progress; a
// non-forward candidate is discarded and counted, never applied.
func (t *Tracker) Tick(now time.Time) (int, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != Narrating || t.sess == nil {
		return t.offset, false
	}

	elapsed := now.Sub(t.sess.startTime)
	unitsRead := elapsed.Minutes() * t.wpm
	frac := unitsRead / float64(t.sess.remainingUnits)
	if frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}
	candidate := t.sess.startOffset + int(frac*float64(t.contentLen-t.sess.startOffset))

	return t.commit(candidate)
}

// HandleBoundary folds an engine boundary event into the gate. rel is
// the boundary's rune offset relative to the narrated tail. Boundary
// truth is preferred over time estimation: it raises the boundary
// high-water mark and commits immediately when it moves forward.
func (t *Tracker) HandleBoundary(rel int) (int, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != Narrating || t.sess == nil {
		return t.offset, false
	}
	abs := t.sess.startOffset + rel
	if abs > t.sess.boundaryHW {
		t.sess.boundaryHW = abs
	}
	return t.commit(abs)
}

// commit applies the max-wins gate. Callers hold the mutex.
func (t *Tracker) commit(candidate int) (int, bool) {
	gated := candidate
	if t.sess.boundaryHW > gated {
		gated = t.sess.boundaryHW
	}
	if gated > t.contentLen {
		gated = t.contentLen
	}
	if gated <= t.sess.lastConfirmed {
		t.blocked++
		t.log.Debug("discarding non-forward position candidate",
			zap.Int("candidate", candidate),
			zap.Int("lastConfirmed", t.sess.lastConfirmed))
		return t.offset, false
	}
	t.sess.lastConfirmed = gated
	t.offset = gated
	return t.offset, true
}

// StopNarration freezes the position at the last confirmed offset and
// tears the session down. The position is never adjusted on this
// transition.
func (t *Tracker) StopNarration() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
}

func (t *Tracker) stopLocked() {
	if t.sess != nil {
		t.offset = t.sess.lastConfirmed
		t.sess = nil
	}
	if t.state == Narrating {
		t.state = Idle
	}
}

// CompleteNarration handles natural completion: the one transition
// allowed to set the position directly to the end of the book. It only
// applies to a live session — a completion event delivered after the
// session was torn down (a jump raced against the engine's final event)
// is stale and must not move the position.
func (t *Tracker) CompleteNarration() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != Narrating || t.sess == nil {
		t.log.Debug("ignoring completion without a live session",
			zap.Int("offset", t.offset))
		return
	}
	t.sess = nil
	t.state = Idle
	t.offset = t.contentLen
}

// FailNarration tears the session down exactly like a stop; the frozen
// position is the retry point.
func (t *Tracker) FailNarration(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.log.Warn("narration engine error, freezing position",
		zap.Error(err), zap.Int("offset", t.offset))
	t.stopLocked()
}

// ApplyEvent folds a narration engine event into the tracker.
func (t *Tracker) ApplyEvent(ev narration.Event) {
	switch ev.Kind {
	case narration.Boundary:
		t.HandleBoundary(ev.CharIndex)
	case narration.Done:
		t.CompleteNarration()
	case narration.Stopped:
		t.StopNarration()
	case narration.Error:
		t.FailNarration(ev.Err)
	}
}

// BeginSeek enters Seeking, stopping any live narration first so no
// in-flight tick lands after the user grabs the control.
func (t *Tracker) BeginSeek() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
	t.state = Seeking
}

// EndSeek releases the control: the offset is set directly and exactly
// to the user's choice, no smoothing or interpolation. Any session that
// somehow survived to this point is torn down first so a stale tick
// cannot yank the offset away from the chosen target.
func (t *Tracker) EndSeek(offset int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
	t.offset = clamp(offset, 0, t.contentLen)
	t.state = Idle
}

// JumpTo is the direct-jump contract shared by chapter selection and
// manual skips: stop narration, then set the offset exactly.
func (t *Tracker) JumpTo(offset int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
	t.offset = clamp(offset, 0, t.contentLen)
}

// Skip moves the offset by delta with the same contract as JumpTo.
func (t *Tracker) Skip(delta int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
	t.offset = clamp(t.offset+delta, 0, t.contentLen)
}

// Run drives progress ticks on a fixed cadence until ctx is cancelled.
// The ticker is owned by this call and stopped on every exit path.
func (t *Tracker) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			t.Tick(now)
		}
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
