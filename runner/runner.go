// Package runner drives the block graph: construction from a parsed project
// config, a warm-up pass, the per-cycle main loop, and ordered shutdown.
package runner

import (
	"fmt"

	"github.com/fatih/color"

	"github.com/bwoodbury3/looper/block"
	"github.com/bwoodbury3/looper/blocks/audioio"
	"github.com/bwoodbury3/looper/blocks/combiner"
	"github.com/bwoodbury3/looper/blocks/instrument"
	"github.com/bwoodbury3/looper/blocks/looper"
	"github.com/bwoodbury3/looper/blocks/lowpass"
	"github.com/bwoodbury3/looper/blocks/metronome"
	"github.com/bwoodbury3/looper/blocks/recorder"
	"github.com/bwoodbury3/looper/blocks/reverb"
	"github.com/bwoodbury3/looper/blocks/toggle"
	"github.com/bwoodbury3/looper/config"
	"github.com/bwoodbury3/looper/keyboard"
	"github.com/bwoodbury3/looper/stream"
	"github.com/bwoodbury3/looper/tempo"
	"github.com/bwoodbury3/looper/timer"
)

// warmupReads is the number of discarded Source.Read calls the runner
// performs before entering the main loop, to drain device input queues that
// filled while the rest of the graph was being constructed.
const warmupReads = 3

// Runner owns the tempo, keyboard, stream catalog and every constructed
// block, and drives them through one cycle at a time.
type Runner struct {
	tempo    *tempo.Tempo
	keyboard *keyboard.Keyboard
	catalog  *stream.Catalog

	sources      []block.Source
	transformers []block.Transformer
	sinks        []block.Sink

	startMeasure int
	stopMeasure  float64
}

// New constructs the full block graph from a parsed project config,
// dispatching each device entry's block_type to its constructor in
// declared order.
func New(pc *config.ProjectConfig) (*Runner, error) {
	r := &Runner{
		tempo: tempo.New(tempo.Config{
			BPM:             pc.Tempo.BPM,
			BeatsPerMeasure: pc.Tempo.BeatsPerMeasure,
			BeatDuration:    pc.Tempo.BeatDuration,
		}),
		keyboard:     keyboard.New(),
		catalog:      stream.NewCatalog(),
		startMeasure: pc.StartMeasure,
		stopMeasure:  pc.StopMeasure,
	}

	for _, bc := range pc.Blocks {
		if err := r.addBlock(bc); err != nil {
			return nil, fmt.Errorf("runner: device %q: %w", bc.Name, err)
		}
	}

	return r, nil
}

// addBlock dispatches one device config entry to its constructor and
// appends the result to the matching Source/Transformer/Sink collection.
func (r *Runner) addBlock(bc *config.BlockConfig) error {
	switch bc.BlockType {
	case "AudioSource":
		b, err := audioio.New(bc, r.catalog)
		if err != nil {
			return err
		}
		r.sources = append(r.sources, b)

	case "AudioSink":
		b, err := audioio.NewSink(bc, r.catalog)
		if err != nil {
			return err
		}
		r.sinks = append(r.sinks, b)

	case "VirtualInstrument":
		b, err := instrument.New(bc, r.catalog)
		if err != nil {
			return err
		}
		r.sources = append(r.sources, b)

	case "Metronome":
		b, err := metronome.New(bc, r.catalog)
		if err != nil {
			return err
		}
		r.sources = append(r.sources, b)

	case "Combiner":
		b, err := combiner.New(bc, r.catalog)
		if err != nil {
			return err
		}
		r.transformers = append(r.transformers, b)

	case "Toggle":
		b, err := toggle.New(bc, r.catalog)
		if err != nil {
			return err
		}
		r.transformers = append(r.transformers, b)

	case "LowPass":
		b, err := lowpass.New(bc, r.catalog)
		if err != nil {
			return err
		}
		r.transformers = append(r.transformers, b)

	case "Reverb":
		b, err := reverb.New(bc, r.catalog)
		if err != nil {
			return err
		}
		r.transformers = append(r.transformers, b)

	case "Loop":
		b, err := looper.New(bc, r.catalog)
		if err != nil {
			return err
		}
		r.transformers = append(r.transformers, b)

	case "Recorder":
		b, err := recorder.New(bc, r.catalog)
		if err != nil {
			return err
		}
		r.sinks = append(r.sinks, b)

	default:
		return fmt.Errorf("unknown block_type %q", bc.BlockType)
	}

	return nil
}

// Run executes the warm-up pass, the main loop until stop_measure (if set)
// is reached, and then ordered shutdown. It blocks until the loop exits.
func (r *Runner) Run() {
	r.warmup()

	total := timer.Start()
	compute := timer.Start()

	r.tempo.Skip(r.startMeasure)

	for !r.stopReached() {
		r.cycle(compute)
	}

	r.report(total, compute)
	r.cleanup()
}

func (r *Runner) stopReached() bool {
	return r.stopMeasure >= 0 && r.tempo.CurrentMeasure() >= r.stopMeasure
}

func (r *Runner) warmup() {
	state := &block.PlaybackState{Tempo: r.tempo, Keyboard: r.keyboard}
	for _, s := range r.sources {
		for i := 0; i < warmupReads; i++ {
			s.Read(state)
		}
	}
}

// cycle runs one full Source -> Transformer -> Sink pass, pausing compute
// around any block whose IsBlockingIO reports true.
func (r *Runner) cycle(compute *timer.Timer) {
	state := &block.PlaybackState{Tempo: r.tempo, Keyboard: r.keyboard}

	for _, s := range r.sources {
		if s.IsBlockingIO() {
			compute.Pause()
			s.Read(state)
			compute.Resume()
		} else {
			s.Read(state)
		}
	}

	for _, t := range r.transformers {
		t.Transform(state)
	}

	for _, s := range r.sinks {
		if s.IsBlockingIO() {
			compute.Pause()
			s.Write(state)
			compute.Resume()
		} else {
			s.Write(state)
		}
	}

	r.tempo.Step(1)
	r.keyboard.Reset()
}

func (r *Runner) report(total, compute *timer.Timer) {
	totalElapsed := total.Stop()
	computeElapsed := compute.Stop()
	blockingElapsed := totalElapsed - computeElapsed

	yellow := color.New(color.FgYellow).SprintfFunc()
	fmt.Printf("%s %v\n", yellow("total:"), totalElapsed.Milliseconds())
	fmt.Printf("%s %v\n", yellow("compute:"), computeElapsed.Milliseconds())
	fmt.Printf("%s %v\n", yellow("blocking I/O:"), blockingElapsed.Milliseconds())
}

// cleanup calls Cleanup on every block in Source, Transformer, Sink order.
func (r *Runner) cleanup() {
	for _, s := range r.sources {
		s.Cleanup()
	}
	for _, t := range r.transformers {
		t.Cleanup()
	}
	for _, s := range r.sinks {
		s.Cleanup()
	}
}
