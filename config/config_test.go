package config

import (
	"testing"

	clone "github.com/huandu/go-clone/generic"
)

const sampleProject = `
config:
  tempo:
    bpm: 100
    beats_per_measure: 3
    beat_duration: 4
  start_measure: 1
  stop_measure: 5.0

devices:
  - name: mic
    type: AudioSource
    device: default
    output_channel: mic_out

  - name: combine
    type: Combiner
    input_channels: [mic_out, synth_out]
    output_channel: mixed

  - name: loop1
    type: Loop
    input_channels: [mixed]
    output_channel: loop_out
    segments:
      - type: input
        start: 0
        stop: 1
      - type: output
        start: 1
        stop: 2
`

func TestParseGlobalConfig(t *testing.T) {
	pc, err := Parse([]byte(sampleProject))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if pc.Tempo.BPM != 100 || pc.Tempo.BeatsPerMeasure != 3 || pc.Tempo.BeatDuration != 4 {
		t.Errorf("Tempo = %+v, want bpm=100 beats_per_measure=3 beat_duration=4", pc.Tempo)
	}
	if pc.StartMeasure != 1 {
		t.Errorf("StartMeasure = %d, want 1", pc.StartMeasure)
	}
	if pc.StopMeasure != 5.0 {
		t.Errorf("StopMeasure = %v, want 5.0", pc.StopMeasure)
	}
	if len(pc.Blocks) != 3 {
		t.Fatalf("len(Blocks) = %d, want 3", len(pc.Blocks))
	}
}

func TestDefaultsWhenConfigOmitted(t *testing.T) {
	pc, err := Parse([]byte("devices: []\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if pc.Tempo.BPM != 120 || pc.Tempo.BeatsPerMeasure != 4 || pc.Tempo.BeatDuration != 4 {
		t.Errorf("Tempo = %+v, want the 120/4/4 defaults", pc.Tempo)
	}
	if pc.StopMeasure != -1 {
		t.Errorf("StopMeasure = %v, want -1 (unbounded)", pc.StopMeasure)
	}
}

func TestBlockAccessors(t *testing.T) {
	pc, err := Parse([]byte(sampleProject))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	combine := pc.Blocks[1]
	if combine.BlockType != "Combiner" {
		t.Fatalf("BlockType = %q, want Combiner", combine.BlockType)
	}
	ins, err := combine.GetStrList("input_channels")
	if err != nil {
		t.Fatalf("GetStrList: %v", err)
	}
	if len(ins) != 2 || ins[0] != "mic_out" || ins[1] != "synth_out" {
		t.Errorf("input_channels = %v, want [mic_out synth_out]", ins)
	}

	out, err := combine.GetStr("output_channel")
	if err != nil || out != "mixed" {
		t.Errorf("GetStr(output_channel) = %q, %v, want mixed, nil", out, err)
	}
}

func TestMissingRequiredKeyErrors(t *testing.T) {
	pc, err := Parse([]byte(sampleProject))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if _, err := pc.Blocks[0].GetStr("nonexistent"); err == nil {
		t.Error("expected error reading a missing required key")
	}
}

func TestOptionalAccessorsDefault(t *testing.T) {
	pc, err := Parse([]byte(sampleProject))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	v, err := pc.Blocks[0].GetF32Opt("volume", 1.0)
	if err != nil || v != 1.0 {
		t.Errorf("GetF32Opt = %v, %v, want 1.0, nil", v, err)
	}
	b, err := pc.Blocks[0].GetBoolOpt("disabled", false)
	if err != nil || b != false {
		t.Errorf("GetBoolOpt = %v, %v, want false, nil", b, err)
	}
}

func TestSegmentsParsed(t *testing.T) {
	pc, err := Parse([]byte(sampleProject))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	segs, err := pc.Blocks[2].GetSegments()
	if err != nil {
		t.Fatalf("GetSegments: %v", err)
	}
	if len(segs) != 2 {
		t.Fatalf("len(segs) = %d, want 2", len(segs))
	}
	if segs[0].Stop != 1 || segs[1].Start != 1 || segs[1].Stop != 2 {
		t.Errorf("segs = %+v", segs)
	}
}

func TestGetSegmentsReturnsAnIndependentCopy(t *testing.T) {
	pc, err := Parse([]byte(sampleProject))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	segs, err := pc.Blocks[2].GetSegments()
	if err != nil {
		t.Fatalf("GetSegments: %v", err)
	}

	// A deep clone of the block config must read back identical segments -
	// GetSegments must not be handing out a slice aliased to internal yaml
	// node state that a clone (or a caller) could then mutate out from
	// under the config.
	cloned := clone.Clone(pc.Blocks[2])
	clonedSegs, err := cloned.GetSegments()
	if err != nil {
		t.Fatalf("GetSegments on clone: %v", err)
	}

	clonedSegs[0].Start = 99
	if segs[0].Start == 99 {
		t.Fatal("mutating a clone's segments affected the original config")
	}
}

func TestMissingNameOrTypeErrors(t *testing.T) {
	if _, err := Parse([]byte("devices:\n  - type: Combiner\n")); err == nil {
		t.Error("expected error for device missing name")
	}
	if _, err := Parse([]byte("devices:\n  - name: foo\n")); err == nil {
		t.Error("expected error for device missing type")
	}
}
