// Package combiner implements the Combiner transformer: sums any number of
// input streams into one output stream.
package combiner

import (
	"github.com/bwoodbury3/looper/block"
	"github.com/bwoodbury3/looper/config"
	"github.com/bwoodbury3/looper/stream"
)

// Combiner sums its input streams, element-wise, into its output stream.
type Combiner struct {
	block.NoCleanup
	block.NonBlocking

	inputs []*stream.Reader
	output *stream.Writer
}

// New constructs a Combiner from its block configuration.
func New(cfg *config.BlockConfig, catalog *stream.Catalog) (*Combiner, error) {
	inputChannels, err := cfg.GetStrList("input_channels")
	if err != nil {
		return nil, err
	}
	outputChannel, err := cfg.GetStr("output_channel")
	if err != nil {
		return nil, err
	}

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

	return &Combiner{inputs: inputs, output: output}, nil
}

// Transform sums every input buffer into the output buffer.
func (c *Combiner) Transform(state *block.PlaybackState) {
	out := c.output.Borrow()
	out.Fill(0)

	for _, r := range c.inputs {
		in := r.Borrow()
		for i := range out {
			out[i] += in[i]
		}
		r.Release()
	}

	c.output.Release()
}
