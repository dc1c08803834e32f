package toggle

import (
	"testing"

	"github.com/bwoodbury3/looper/config"
	"github.com/bwoodbury3/looper/stream"
	"github.com/bwoodbury3/looper/tempo"
	"github.com/bwoodbury3/looper/block"
)

func newBlockConfig(t *testing.T) *config.BlockConfig {
	t.Helper()
	pc, err := config.Parse([]byte(`
devices:
  - name: t1
    type: Toggle
    input_channel: in
    output_channel: out
    segments:
      - type: output
        start: 1.0
        stop: 2.0
`))
	if err != nil {
		t.Fatalf("config.Parse: %v", err)
	}
	return pc.Blocks[0]
}

func stateAtMeasure(tm *tempo.Tempo, measure float64) *block.PlaybackState {
	// Advance a fresh tempo by enough steps to reach the target measure.
	stepsNeeded := int(measure * float64(tm.StepsPerMeasure()))
	tm.Step(stepsNeeded)
	return &block.PlaybackState{Tempo: tm}
}

func TestToggleGating(t *testing.T) {
	catalog := stream.NewCatalog()
	in, _ := catalog.CreateSource("in")

	cfg := newBlockConfig(t)
	tg, err := New(cfg, catalog)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	inBuf := in.Borrow()
	inBuf.Fill(0.9)
	in.Release()

	reader, _ := catalog.BindSink("out")

	tm := tempo.New(tempo.Config{BPM: 100, BeatsPerMeasure: 3, BeatDuration: 4})
	state := stateAtMeasure(tm, 0.5)
	tg.Transform(state)
	out := reader.Borrow()
	for i, v := range out {
		if v != 0 {
			t.Fatalf("out[%d] = %v at measure 0.5, want 0 (outside segment)", i, v)
		}
	}
	reader.Release()

	tm2 := tempo.New(tempo.Config{BPM: 100, BeatsPerMeasure: 3, BeatDuration: 4})
	state2 := stateAtMeasure(tm2, 1.5)
	tg.Transform(state2)
	out2 := reader.Borrow()
	for i, v := range out2 {
		if v != 0.9 {
			t.Fatalf("out[%d] = %v at measure 1.5, want 0.9 (inside segment)", i, v)
		}
	}
	reader.Release()
}
