// Package instrument implements the VirtualInstrument source: a set of
// keyboard-triggered clips, grouped so that two sounds in the same group
// interrupt one another (e.g. two frets on the same guitar string).
package instrument

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/bwoodbury3/looper/block"
	"github.com/bwoodbury3/looper/config"
	"github.com/bwoodbury3/looper/sampler"
	"github.com/bwoodbury3/looper/stream"
	"github.com/bwoodbury3/looper/wav"
)

// sound pairs a clip with the sampler group it plays in.
type sound struct {
	clip         *stream.Clip
	samplerGroup int
}

// rawSound is the YAML shape of one "sounds" list entry.
type rawSound struct {
	Key   string `yaml:"key"`
	File  string `yaml:"file"`
	Group int    `yaml:"group"`
}

// VirtualInstrument maps keyboard keys to sampled clips, playing whichever
// clip's key was pressed since the last cycle.
type VirtualInstrument struct {
	block.NoCleanup
	block.NonBlocking

	output   *stream.Writer
	clips    map[rune]sound
	samplers map[int]*sampler.Sampler
}

// clipLoaderFn loads a named clip's samples, overridable in tests.
type clipLoaderFn func(name string) ([]stream.Sample, error)

// New constructs a VirtualInstrument from its block configuration. One of
// the "instrument" or "sounds" keys must be present; when both are,
// "instrument" is used and "sounds" is ignored.
func New(cfg *config.BlockConfig, catalog *stream.Catalog) (*VirtualInstrument, error) {
	return newWithLoader(cfg, catalog, loadClipSamples)
}

func newWithLoader(cfg *config.BlockConfig, catalog *stream.Catalog, load clipLoaderFn) (*VirtualInstrument, error) {
	outputChannel, err := cfg.GetStr("output_channel")
	if err != nil {
		return nil, err
	}
	instrumentName, err := cfg.GetStrOpt("instrument", "")
	if err != nil {
		return nil, err
	}
	volume, err := cfg.GetF32Opt("volume", 1.0)
	if err != nil {
		return nil, err
	}

	output, err := catalog.CreateSource(outputChannel)
	if err != nil {
		return nil, err
	}

	var rawSounds []rawSound
	if instrumentName != "" {
		rawSounds, err = loadInstrumentFile(instrumentName)
	} else {
		node := cfg.Node("sounds")
		if node == nil {
			return nil, fmt.Errorf("instrument: must specify either \"instrument\" or \"sounds\"")
		}
		err = node.Decode(&rawSounds)
	}
	if err != nil {
		return nil, err
	}

	clips := make(map[rune]sound, len(rawSounds))
	for _, rs := range rawSounds {
		if len([]rune(rs.Key)) != 1 {
			return nil, fmt.Errorf("instrument: invalid key %q, must be a single character", rs.Key)
		}
		samples, err := load(rs.File)
		if err != nil {
			return nil, fmt.Errorf("instrument: failed to load clip %q: %w", rs.File, err)
		}
		clip := stream.ClipFromSamples(samples)
		clip.Scale(volume)

		keyChar := []rune(rs.Key)[0]
		clips[keyChar] = sound{clip: clip, samplerGroup: rs.Group}
	}

	samplers := make(map[int]*sampler.Sampler)
	for _, s := range clips {
		if _, ok := samplers[s.samplerGroup]; !ok {
			samplers[s.samplerGroup] = sampler.New()
		}
	}

	return &VirtualInstrument{
		output:   output,
		clips:    clips,
		samplers: samplers,
	}, nil
}

// instrumentFile is the YAML shape of assets/instruments/<name>.yaml.
type instrumentFile struct {
	Sounds []rawSound `yaml:"sounds"`
}

func loadInstrumentFile(name string) ([]rawSound, error) {
	path := "assets/instruments/" + name + ".yaml"
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("instrument: invalid instrument %q (tried to load from %s): %w", name, path, err)
	}
	var f instrumentFile
	if err := yaml.Unmarshal(contents, &f); err != nil {
		return nil, fmt.Errorf("instrument: invalid instrument %q: %w", name, err)
	}
	return f.Sounds, nil
}

func loadClipSamples(name string) ([]stream.Sample, error) {
	samples, _, err := wav.ReadFile("assets/clips/" + name + ".wav")
	return samples, err
}

// Read plays the clip mapped to each key pressed since the last cycle, then
// mixes every active sampler into the output buffer.
func (vi *VirtualInstrument) Read(state *block.PlaybackState) {
	for _, key := range state.Keyboard.Keys {
		s, ok := vi.clips[key]
		if !ok {
			continue
		}
		vi.samplers[s.samplerGroup].Play(s.clip, false)
	}

	out := vi.output.Borrow()
	defer vi.output.Release()

	out.Fill(0)
	for _, s := range vi.samplers {
		s.Next(out)
	}
}
