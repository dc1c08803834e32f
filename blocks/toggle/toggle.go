// Package toggle implements the Toggle transformer: passes its input
// through unchanged during any of its configured output segments, and
// zeroes it otherwise.
package toggle

import (
	"fmt"

	"github.com/bwoodbury3/looper/block"
	"github.com/bwoodbury3/looper/config"
	"github.com/bwoodbury3/looper/segment"
	"github.com/bwoodbury3/looper/stream"
)

// Toggle gates its input stream on or off according to a set of output
// segments.
type Toggle struct {
	block.NoCleanup
	block.NonBlocking

	input    *stream.Reader
	output   *stream.Writer
	segments []segment.Segment
}

// New constructs a Toggle from its block configuration.
func New(cfg *config.BlockConfig, catalog *stream.Catalog) (*Toggle, error) {
	inputChannel, err := cfg.GetStr("input_channel")
	if err != nil {
		return nil, err
	}
	outputChannel, err := cfg.GetStr("output_channel")
	if err != nil {
		return nil, err
	}
	segs, err := cfg.GetSegments()
	if err != nil {
		return nil, err
	}
	for _, s := range segs {
		if s.Kind != segment.Output {
			return nil, fmt.Errorf("toggle: all segments must have type=\"output\"")
		}
	}

	input, err := catalog.BindSink(inputChannel)
	if err != nil {
		return nil, err
	}
	output, err := catalog.CreateSource(outputChannel)
	if err != nil {
		return nil, err
	}

	return &Toggle{input: input, output: output, segments: segs}, nil
}

// Transform copies the input buffer to the output buffer while the current
// measure lies in any configured segment, and zeroes the output otherwise.
func (t *Toggle) Transform(state *block.PlaybackState) {
	out := t.output.Borrow()
	defer t.output.Release()

	cur := state.Tempo.CurrentMeasure()
	for _, s := range t.segments {
		if s.Contains(cur) {
			in := t.input.Borrow()
			*out = *in
			t.input.Release()
			return
		}
	}

	out.Fill(0)
}
