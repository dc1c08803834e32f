// Package recorder implements the Recorder sink: accumulates its input
// stream into a growing clip while inside its one configured input segment,
// and writes the result to a WAV file at shutdown.
package recorder

import (
	"fmt"
	"log"
	"path/filepath"

	"github.com/bwoodbury3/looper/block"
	"github.com/bwoodbury3/looper/config"
	"github.com/bwoodbury3/looper/segment"
	"github.com/bwoodbury3/looper/stream"
	"github.com/bwoodbury3/looper/wav"
)

// Recorder accumulates its input into a clip for the duration of its input
// segment and flushes it to disk on Cleanup.
type Recorder struct {
	block.NonBlocking

	name     string
	input    *stream.Reader
	segment  segment.Segment
	filename string

	clip     []stream.Sample
	complete bool
	disabled bool
}

// New constructs a Recorder from its block configuration.
func New(cfg *config.BlockConfig, catalog *stream.Catalog) (*Recorder, error) {
	inputChannel, err := cfg.GetStr("input_channel")
	if err != nil {
		return nil, err
	}
	directory, err := cfg.GetStr("directory")
	if err != nil {
		return nil, err
	}
	disabled, err := cfg.GetBoolOpt("disabled", false)
	if err != nil {
		return nil, err
	}
	segs, err := cfg.GetSegments()
	if err != nil {
		return nil, err
	}
	if len(segs) != 1 {
		return nil, fmt.Errorf("recorder: requires exactly 1 segment")
	}
	seg := segs[0]
	if seg.Kind != segment.Input {
		return nil, fmt.Errorf("recorder: only accepts \"input\" segments")
	}

	input, err := catalog.BindSink(inputChannel)
	if err != nil {
		return nil, err
	}

	return &Recorder{
		name:     cfg.Name,
		input:    input,
		segment:  seg,
		filename: filepath.Join(directory, cfg.Name+".wav"),
		disabled: disabled,
	}, nil
}

// Write accumulates the input buffer into the recording while inside the
// segment, and marks the recording complete once the segment has passed.
func (r *Recorder) Write(state *block.PlaybackState) {
	if r.complete || r.disabled {
		return
	}

	cur := state.Tempo.CurrentMeasure()
	if r.segment.Contains(cur) {
		if len(r.clip) == 0 {
			log.Printf("Recording started: %s", r.name)
		}
		in := r.input.Borrow()
		r.clip = append(r.clip, in[:]...)
		r.input.Release()
	} else if cur > r.segment.Stop {
		log.Printf("Recording complete: %s", r.name)
		r.complete = true
	}
}

// Cleanup writes the accumulated recording to disk, iff the segment
// completed and the block was not disabled.
func (r *Recorder) Cleanup() {
	if !r.complete {
		log.Printf("Abandoning recording %q because the segment wasn't complete.", r.name)
		return
	}
	if r.disabled {
		log.Printf("Recorder %q is disabled, nothing to do.", r.name)
		return
	}

	if err := wav.WriteFile(r.filename, r.clip, stream.SampleRate); err != nil {
		log.Printf("Could not write recording to disk %q => %s: %v", r.name, r.filename, err)
		return
	}
	log.Printf("Saved %q recording to => %s", r.name, r.filename)
}
