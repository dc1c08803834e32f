// Package tempo maps buffer ticks to beats and measures and answers the
// boolean scheduling predicates (on_beat, in_measure) every gating block is
// built on.
package tempo

import "github.com/bwoodbury3/looper/stream"

// Config holds the parsed time-signature parameters. Zero values are not
// valid configuration; use DefaultConfig or fill in every field.
type Config struct {
	// BPM is the number of beats per minute.
	BPM int

	// BeatsPerMeasure is the numerator of the time signature.
	BeatsPerMeasure int

	// BeatDuration is the denominator of the time signature.
	BeatDuration int
}

// DefaultConfig returns the spec-mandated defaults: 120 bpm, 4/4 time.
func DefaultConfig() Config {
	return Config{BPM: 120, BeatsPerMeasure: 4, BeatDuration: 4}
}

// Tempo maps a monotonic buffer-tick counter to beats and measures. All
// derived constants are fixed at construction; current_step is the only
// mutable state, and it is mutated only by the runner.
type Tempo struct {
	cfg Config

	stepsPerBeat    int
	stepsPerMeasure int

	currentStep int
}

// New parses a tempo configuration and derives the integer stepping
// constants. steps_per_beat is obtained by truncating integer division -
// this is the discretisation choice the engine pins: beat alignment is
// buffer-quantised, and in_measure compares against a float current_measure
// derived from the integer step count, so there is no cumulative float
// drift.
func New(cfg Config) *Tempo {
	secondsPerStep := float64(stream.SamplesPerBuffer) / float64(stream.SampleRate)
	secondsPerBeat := 60.0 / float64(cfg.BPM)
	stepsPerBeat := int(secondsPerBeat / secondsPerStep)
	if stepsPerBeat < 1 {
		stepsPerBeat = 1
	}

	return &Tempo{
		cfg:             cfg,
		stepsPerBeat:    stepsPerBeat,
		stepsPerMeasure: stepsPerBeat * cfg.BeatsPerMeasure,
	}
}

// StepsPerBeat returns the number of buffer ticks in one beat.
func (t *Tempo) StepsPerBeat() int {
	return t.stepsPerBeat
}

// StepsPerMeasure returns the number of buffer ticks in one measure.
func (t *Tempo) StepsPerMeasure() int {
	return t.stepsPerMeasure
}

// CurrentStep returns the raw monotonic tick counter.
func (t *Tempo) CurrentStep() int {
	return t.currentStep
}

// CurrentBeat returns the current beat as an integer (truncated).
func (t *Tempo) CurrentBeat() int {
	return t.currentStep / t.stepsPerBeat
}

// CurrentBeatF returns the current beat as a float, for measure derivation.
func (t *Tempo) CurrentBeatF() float64 {
	return float64(t.currentStep) / float64(t.stepsPerBeat)
}

// CurrentMeasure returns the current measure position.
func (t *Tempo) CurrentMeasure() float64 {
	return t.CurrentBeatF() / float64(t.cfg.BeatsPerMeasure)
}

// Step advances current_step by n buffer ticks. n must be non-negative.
// Called exactly once per cycle by the runner with n=1, and once by Skip.
//
// DANGER: this should only be called by the runner. Blocks only ever see a
// Tempo through a read-only PlaybackState.
func (t *Tempo) Step(n int) {
	if n < 0 {
		panic("tempo: Step requires n >= 0")
	}
	t.currentStep += n
}

// Skip advances the tempo by numMeasures whole measures.
func (t *Tempo) Skip(numMeasures int) {
	t.Step(t.stepsPerMeasure * numMeasures)
}

// OnBeat reports whether (current_step + offset) lands exactly on a beat
// boundary.
func (t *Tempo) OnBeat(offset int) bool {
	return mod(t.currentStep+offset, t.stepsPerBeat) == 0
}

// InMeasure reports whether the current measure lies in the half-open
// window [m1, m2).
func (t *Tempo) InMeasure(m1, m2 float64) bool {
	cur := t.CurrentMeasure()
	return m1 <= cur && cur < m2
}

// mod is floor-mod for non-negative moduli, matching the spec's "mod"
// operator (current_step and offset are always non-negative in practice,
// but this keeps OnBeat well-defined for a negative offset too).
func mod(a, n int) int {
	m := a % n
	if m < 0 {
		m += n
	}
	return m
}
