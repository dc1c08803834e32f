// Package block defines the three roles every node in the signal graph
// plays - Source, Transformer, Sink - and the per-cycle state the runner
// hands to each of them.
package block

import (
	"github.com/bwoodbury3/looper/keyboard"
	"github.com/bwoodbury3/looper/tempo"
)

// PlaybackState is the read-only view of the engine's global clock and
// keyboard state, handed to every block on every cycle. Blocks must not
// mutate the Tempo or Keyboard through this struct - only the runner
// advances them.
type PlaybackState struct {
	Tempo    *tempo.Tempo
	Keyboard *keyboard.Keyboard
}

// Source produces audio data with no stream input, e.g. an instrument or an
// audio input device.
type Source interface {
	// Read fully (over)writes the source's declared output buffer.
	Read(state *PlaybackState)

	// Cleanup runs exactly once, at shutdown.
	Cleanup()

	// IsBlockingIO reports whether Read may block on external I/O. The
	// runner pauses its compute timer around calls where this is true.
	IsBlockingIO() bool
}

// Transformer consumes one or more input streams and produces one or more
// output streams.
type Transformer interface {
	// Transform fully (over)writes the transformer's declared output
	// buffer(s). The typical idiom is to zero the output then mix inputs
	// into it.
	Transform(state *PlaybackState)

	// Cleanup runs exactly once, at shutdown.
	Cleanup()
}

// Sink consumes an input stream with no further stream output, e.g. a
// recorder or an audio output device.
type Sink interface {
	// Write consumes the sink's declared input buffer.
	Write(state *PlaybackState)

	// Cleanup runs exactly once, at shutdown.
	Cleanup()

	// IsBlockingIO reports whether Write may block on external I/O. The
	// runner pauses its compute timer around calls where this is true.
	IsBlockingIO() bool
}

// NonBlocking is embeddable by blocks that never perform blocking I/O, so
// they don't each have to redeclare the trivial IsBlockingIO() bool { return
// false } method.
type NonBlocking struct{}

// IsBlockingIO always returns false.
func (NonBlocking) IsBlockingIO() bool { return false }

// NoCleanup is embeddable by blocks with nothing to flush at shutdown.
type NoCleanup struct{}

// Cleanup is a no-op.
func (NoCleanup) Cleanup() {}
