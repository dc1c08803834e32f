// Package reverb implements a comb-filter Reverb transformer: each input
// sample is added, delayed and decayed, to a sample further ahead in the
// stream. Adapted from the teacher's incremental CombAdd filter, fed one
// buffer at a time instead of the whole clip at once.
package reverb

import (
	"fmt"

	"github.com/bwoodbury3/looper/block"
	"github.com/bwoodbury3/looper/config"
	"github.com/bwoodbury3/looper/stream"
)

// Reverb applies an incremental comb filter to its input stream.
type Reverb struct {
	block.NoCleanup
	block.NonBlocking

	input  *stream.Reader
	output *stream.Writer

	decay       stream.Sample
	delayOffset int

	// audio accumulates every sample ever seen; delayed feedback is applied
	// against it in place, and completed samples are drained into the
	// output stream as they fall out of the delay window. writePos tracks
	// how far the feedback pass has already run, so each sample is only
	// ever decayed into its delayed partner once.
	audio    []stream.Sample
	writePos int
	readPos  int
}

// New constructs a Reverb from its block configuration.
func New(cfg *config.BlockConfig, catalog *stream.Catalog) (*Reverb, error) {
	inputChannel, err := cfg.GetStr("input_channel")
	if err != nil {
		return nil, err
	}
	outputChannel, err := cfg.GetStr("output_channel")
	if err != nil {
		return nil, err
	}
	decay, err := cfg.GetF32("decay")
	if err != nil {
		return nil, err
	}
	delayMs, err := cfg.GetInt("delay_ms")
	if err != nil {
		return nil, err
	}
	if delayMs < 0 {
		return nil, fmt.Errorf("reverb: delay_ms must be >= 0")
	}

	input, err := catalog.BindSink(inputChannel)
	if err != nil {
		return nil, err
	}
	output, err := catalog.CreateSource(outputChannel)
	if err != nil {
		return nil, err
	}

	return &Reverb{
		input:       input,
		output:      output,
		decay:       decay,
		delayOffset: delayMs * stream.SampleRate / 1000,
	}, nil
}

// Transform feeds one buffer of input into the comb filter and drains
// whatever output has fallen out of the delay window.
func (r *Reverb) Transform(state *block.PlaybackState) {
	in := r.input.Borrow()
	r.audio = append(r.audio, in[:]...)
	r.input.Release()

	if len(r.audio) > r.delayOffset {
		ns := len(r.audio) - (r.delayOffset + r.writePos)
		for i := 0; i < ns; i++ {
			r.audio[i+r.delayOffset+r.writePos] += r.audio[i+r.writePos] * r.decay
		}
		r.writePos += ns
	}

	out := r.output.Borrow()
	out.Fill(0)
	have := len(r.audio) - r.readPos
	want := stream.SamplesPerBuffer
	if have < want {
		want = have
	}
	if want > 0 {
		copy(out[:want], r.audio[r.readPos:r.readPos+want])
		r.readPos += want
	}
	r.output.Release()
}
