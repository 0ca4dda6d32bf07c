// Package narration defines the contract between the reading engine and
// a speech engine, plus a rate-based simulator used in place of platform
// TTS.
package narration

import (
	"context"

	"golang.org/x/text/language"
)

// EventKind discriminates narration engine events.
type EventKind int

const (
	// Boundary reports the engine reached a position within the spoken
	// text. CharIndex is a rune offset relative to the text passed to
	// Speak. Boundaries may be approximate and may not arrive at all.
	Boundary EventKind = iota
	// Done is the terminal event for natural completion.
	Done
	// Stopped is the terminal event after cancellation.
	Stopped
	// Error is the terminal event for a mid-playback failure.
	Error
)

func (k EventKind) String() string {
	switch k {
	case Boundary:
		return "boundary"
	case Done:
		return "done"
	case Stopped:
		return "stopped"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// Event is a tagged union: CharIndex is meaningful only for Boundary,
// Err only for Error.
type Event struct {
	Kind      EventKind
	CharIndex int
	Err       error
}

// Engine speaks text at a words-per-minute rate. The returned channel
// carries zero or more Boundary events followed by exactly one terminal
// event (Done, Stopped or Error), then closes. Cancelling ctx stops
// playback.
type Engine interface {
	Speak(ctx context.Context, text string, rate float64, tag language.Tag) (<-chan Event, error)
}
