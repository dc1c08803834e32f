package runner

import (
	"testing"

	"github.com/bwoodbury3/looper/block"
	"github.com/bwoodbury3/looper/config"
	"github.com/bwoodbury3/looper/keyboard"
	"github.com/bwoodbury3/looper/stream"
	"github.com/bwoodbury3/looper/tempo"
	"github.com/bwoodbury3/looper/timer"
)

// fakeSource counts Read/Cleanup calls and optionally records them into a
// shared trace for ordering assertions.
type fakeSource struct {
	name    string
	reads   int
	trace   *[]string
	blocker bool
}

func (f *fakeSource) Read(state *block.PlaybackState) {
	f.reads++
	if f.trace != nil {
		*f.trace = append(*f.trace, "read:"+f.name)
	}
}
func (f *fakeSource) Cleanup() {
	if f.trace != nil {
		*f.trace = append(*f.trace, "cleanup:"+f.name)
	}
}
func (f *fakeSource) IsBlockingIO() bool { return f.blocker }

type fakeTransformer struct {
	name  string
	trace *[]string
}

func (f *fakeTransformer) Transform(state *block.PlaybackState) {
	if f.trace != nil {
		*f.trace = append(*f.trace, "transform:"+f.name)
	}
}
func (f *fakeTransformer) Cleanup() {
	if f.trace != nil {
		*f.trace = append(*f.trace, "cleanup:"+f.name)
	}
}

type fakeSink struct {
	name  string
	trace *[]string
}

func (f *fakeSink) Write(state *block.PlaybackState) {
	if f.trace != nil {
		*f.trace = append(*f.trace, "write:"+f.name)
	}
}
func (f *fakeSink) Cleanup() {
	if f.trace != nil {
		*f.trace = append(*f.trace, "cleanup:"+f.name)
	}
}
func (f *fakeSink) IsBlockingIO() bool { return false }

func newTestRunner() *Runner {
	return &Runner{
		tempo:    tempo.New(tempo.Config{BPM: 100, BeatsPerMeasure: 3, BeatDuration: 4}),
		keyboard: &keyboard.Keyboard{},
		catalog:  stream.NewCatalog(),
	}
}

func TestWarmupReadsThreeTimesPerSource(t *testing.T) {
	r := newTestRunner()
	src := &fakeSource{name: "s1"}
	r.sources = []block.Source{src}

	r.warmup()

	if src.reads != warmupReads {
		t.Fatalf("reads = %d, want %d", src.reads, warmupReads)
	}
}

func TestCycleOrderSourceTransformerSink(t *testing.T) {
	r := newTestRunner()
	var trace []string
	r.sources = []block.Source{&fakeSource{name: "s1", trace: &trace}}
	r.transformers = []block.Transformer{&fakeTransformer{name: "t1", trace: &trace}}
	r.sinks = []block.Sink{&fakeSink{name: "k1", trace: &trace}}

	startStep := r.tempo.CurrentStep()
	r.cycle(timer.Start())

	want := []string{"read:s1", "transform:t1", "write:k1"}
	if len(trace) != len(want) {
		t.Fatalf("trace = %v, want %v", trace, want)
	}
	for i := range want {
		if trace[i] != want[i] {
			t.Fatalf("trace = %v, want %v", trace, want)
		}
	}

	if r.tempo.CurrentStep() != startStep+1 {
		t.Fatalf("tempo step = %d, want %d", r.tempo.CurrentStep(), startStep+1)
	}
}

func TestRunStopsAtStopMeasure(t *testing.T) {
	r := newTestRunner()
	// BeatsPerMeasure=1 with this BPM/buffer size yields stepsPerMeasure=1,
	// so each cycle advances exactly one measure - a fast, deterministic
	// termination check.
	r.tempo = tempo.New(tempo.Config{BPM: 100000, BeatsPerMeasure: 1, BeatDuration: 4})
	if r.tempo.StepsPerMeasure() != 1 {
		t.Fatalf("StepsPerMeasure() = %d, want 1", r.tempo.StepsPerMeasure())
	}

	r.stopMeasure = 3
	r.sources = []block.Source{&fakeSource{name: "s1"}}

	r.Run()

	if r.tempo.CurrentMeasure() < 3 {
		t.Fatalf("CurrentMeasure() = %v, want >= 3", r.tempo.CurrentMeasure())
	}
}

func TestCleanupRunsSourceThenTransformerThenSink(t *testing.T) {
	r := newTestRunner()
	var trace []string
	r.sources = []block.Source{&fakeSource{name: "s1", trace: &trace}}
	r.transformers = []block.Transformer{&fakeTransformer{name: "t1", trace: &trace}}
	r.sinks = []block.Sink{&fakeSink{name: "k1", trace: &trace}}

	r.cleanup()

	want := []string{"cleanup:s1", "cleanup:t1", "cleanup:k1"}
	if len(trace) != len(want) {
		t.Fatalf("trace = %v, want %v", trace, want)
	}
	for i := range want {
		if trace[i] != want[i] {
			t.Fatalf("trace = %v, want %v", trace, want)
		}
	}
}

func TestUnknownBlockTypeErrors(t *testing.T) {
	pc, err := config.Parse([]byte(`
devices:
  - name: mystery
    type: Bogus
`))
	if err != nil {
		t.Fatalf("config.Parse: %v", err)
	}

	if _, err := New(pc); err == nil {
		t.Fatal("expected an error constructing an unknown block_type")
	}
}
