// Package looper implements the Loop transformer: records its input
// streams during one input segment, then loops the recording back during
// each of a set of output segments.
package looper

import (
	"fmt"
	"log"
	"sort"

	"github.com/bwoodbury3/looper/block"
	"github.com/bwoodbury3/looper/config"
	"github.com/bwoodbury3/looper/sampler"
	"github.com/bwoodbury3/looper/segment"
	"github.com/bwoodbury3/looper/stream"
	"github.com/bwoodbury3/looper/wav"
)

// Looper records a mix of its input streams during a single input segment,
// then plays the recording back, looped, during each output segment.
type Looper struct {
	block.NonBlocking

	name    string
	inputs  []*stream.Reader
	output  *stream.Writer
	sampler *sampler.Sampler

	recording []stream.Sample

	recordingSegment  segment.Segment
	playbackSegments  []segment.Segment
	recordingComplete bool

	curInterval int
	isPlaying   bool
}

// New constructs a Looper from its block configuration.
func New(cfg *config.BlockConfig, catalog *stream.Catalog) (*Looper, error) {
	return newWithLoader(cfg, catalog, loadClip)
}

func newWithLoader(cfg *config.BlockConfig, catalog *stream.Catalog, load func(path string) ([]stream.Sample, error)) (*Looper, error) {
	inputChannels, err := cfg.GetStrList("input_channels")
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
	clipOverride, err := cfg.GetStrOpt("clip_override", "")
	if err != nil {
		return nil, err
	}

	// Bind inputs before creating the output so a Looper can never
	// accidentally bind to its own output stream.
	inputs := make([]*stream.Reader, 0, len(inputChannels))
	for _, ch := range inputChannels {
		r, err := catalog.BindSink(ch)
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, r)
	}
	output, err := catalog.CreateSource(outputChannel)
	if err != nil {
		return nil, err
	}
	out := output.Borrow()
	out.Fill(0)
	output.Release()

	var recordingSegment *segment.Segment
	playbackSegments := make([]segment.Segment, 0, len(segs))
	for _, s := range segs {
		if s.Kind == segment.Input {
			if recordingSegment != nil {
				return nil, fmt.Errorf("looper: may only have one input segment")
			}
			s := s
			recordingSegment = &s
		} else if s.Kind == segment.Output {
			playbackSegments = append(playbackSegments, s)
		} else {
			return nil, fmt.Errorf("looper: segments must have type=\"input\" or \"output\"")
		}
	}
	if recordingSegment == nil {
		return nil, fmt.Errorf("looper: may only have one input segment")
	}

	sort.Slice(playbackSegments, func(i, j int) bool {
		return playbackSegments[i].Start < playbackSegments[j].Start
	})
	for _, s := range playbackSegments {
		if s.Start < recordingSegment.Stop {
			return nil, fmt.Errorf("looper: output [playback] segments must be after the input [recording] segment")
		}
	}

	var recording []stream.Sample
	recordingComplete := false
	if clipOverride != "" {
		recording, err = load(clipOverride)
		if err != nil {
			return nil, fmt.Errorf("looper: failed to load clip_override %q: %w", clipOverride, err)
		}
		recordingComplete = true
		// Treat the input segment as an additional output segment. It starts
		// before every other playback segment, so it goes first to keep the
		// list in ascending start order.
		playbackSegments = append([]segment.Segment{*recordingSegment}, playbackSegments...)
	}

	return &Looper{
		name:              cfg.Name,
		inputs:            inputs,
		output:            output,
		sampler:           sampler.New(),
		recording:         recording,
		recordingSegment:  *recordingSegment,
		playbackSegments:  playbackSegments,
		recordingComplete: recordingComplete,
	}, nil
}

func loadClip(path string) ([]stream.Sample, error) {
	samples, _, err := wav.ReadFile(path)
	return samples, err
}

// Transform runs one step of the record/playback state machine.
func (l *Looper) Transform(state *block.PlaybackState) {
	curMeasure := state.Tempo.CurrentMeasure()

	if !l.recordingComplete {
		if l.recordingSegment.Contains(curMeasure) {
			if len(l.recording) == 0 {
				log.Printf("Loop recording started: %s", l.name)
			}

			startIndex := len(l.recording)
			l.recording = append(l.recording, make([]stream.Sample, stream.SamplesPerBuffer)...)

			for _, r := range l.inputs {
				in := r.Borrow()
				for i := 0; i < stream.SamplesPerBuffer; i++ {
					l.recording[startIndex+i] += in[i]
				}
				r.Release()
			}
		}

		if curMeasure >= l.recordingSegment.Stop {
			log.Printf("Loop recording complete: %s", l.name)
			l.recordingComplete = true
		}
	}

	if !l.recordingComplete {
		return
	}

	shouldPlay := false
	nextInterval := l.curInterval
	for nextInterval < len(l.playbackSegments) {
		seg := l.playbackSegments[nextInterval]

		if curMeasure < seg.Start {
			break
		}
		if curMeasure < seg.Stop {
			shouldPlay = true
			break
		}
		nextInterval++
	}

	clip := stream.ClipFromSamples(l.recording)
	if shouldPlay && (nextInterval != l.curInterval || !l.isPlaying) {
		log.Printf("Playing loop: %s", l.name)
		l.sampler.Play(clip, true)
	} else if !shouldPlay {
		l.sampler.Stop()
	}

	// Zero the output every cycle during the playback phase, then let the
	// sampler mix in - unconditional zeroing avoids double-mixing stale
	// samples on the first cycle of a newly entered playback segment.
	out := l.output.Borrow()
	out.Fill(0)
	l.sampler.Next(out)
	l.output.Release()

	l.curInterval = nextInterval
	l.isPlaying = shouldPlay
}

// Cleanup is a no-op; the looper's recording lives only in memory.
func (l *Looper) Cleanup() {}
