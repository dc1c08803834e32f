// Package metronome implements the Metronome source: triggers a one-shot
// tick sound on every beat, optionally restricted to a set of output
// segments.
package metronome

import (
	"fmt"

	"github.com/bwoodbury3/looper/block"
	"github.com/bwoodbury3/looper/config"
	"github.com/bwoodbury3/looper/sampler"
	"github.com/bwoodbury3/looper/segment"
	"github.com/bwoodbury3/looper/stream"
	"github.com/bwoodbury3/looper/wav"
)

// defaultSound is played when no "sound" key is configured.
const defaultSound = "hihat-closed1"

// clipLoader loads a clip by name, overridable in tests.
type clipLoader func(name string) (*stream.Clip, error)

// Metronome plays a one-shot click clip on every beat, gated by an optional
// set of output segments.
type Metronome struct {
	block.NoCleanup
	block.NonBlocking

	output   *stream.Writer
	clip     *stream.Clip
	sampler  *sampler.Sampler
	segments []segment.Segment
}

// New constructs a Metronome from its block configuration, loading the tick
// clip from assets/clips.
func New(cfg *config.BlockConfig, catalog *stream.Catalog) (*Metronome, error) {
	return newWithLoader(cfg, catalog, loadClip)
}

func newWithLoader(cfg *config.BlockConfig, catalog *stream.Catalog, load clipLoader) (*Metronome, error) {
	outputChannel, err := cfg.GetStr("output_channel")
	if err != nil {
		return nil, err
	}
	sound, err := cfg.GetStrOpt("sound", defaultSound)
	if err != nil {
		return nil, err
	}
	segs, err := cfg.GetSegments()
	if err != nil {
		return nil, err
	}
	for _, s := range segs {
		if s.Kind != segment.Output {
			return nil, fmt.Errorf("metronome: all segments must have type=\"output\"")
		}
	}

	output, err := catalog.CreateSource(outputChannel)
	if err != nil {
		return nil, err
	}

	clip, err := load(sound)
	if err != nil {
		return nil, fmt.Errorf("metronome: failed to find clip %s: %w", sound, err)
	}

	return &Metronome{
		output:   output,
		clip:     clip,
		sampler:  sampler.New(),
		segments: segs,
	}, nil
}

// loadClip reads a clip's samples from assets/clips/<name>.wav.
func loadClip(name string) (*stream.Clip, error) {
	samples, _, err := wav.ReadFile("assets/clips/" + name + ".wav")
	if err != nil {
		return nil, err
	}
	return stream.ClipFromSamples(samples), nil
}

// inAnySegment reports whether measure lies in any of segs, or true if segs
// is empty (the metronome runs forever when no segments are configured).
func inAnySegment(segs []segment.Segment, measure float64) bool {
	if len(segs) == 0 {
		return true
	}
	for _, s := range segs {
		if s.Contains(measure) {
			return true
		}
	}
	return false
}

// Read triggers the tick clip on every beat boundary inside an active
// segment, then mixes the sampler into the output buffer.
func (m *Metronome) Read(state *block.PlaybackState) {
	out := m.output.Borrow()
	defer m.output.Release()

	out.Fill(0)

	if state.Tempo.OnBeat(0) && inAnySegment(m.segments, state.Tempo.CurrentMeasure()) {
		m.sampler.Play(m.clip, false)
	}

	m.sampler.Next(out)
}
