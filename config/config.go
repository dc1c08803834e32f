// Package config loads the YAML project file into typed accessors, mirroring
// the shape of the engine's original JSON-backed configuration loader but
// built on gopkg.in/yaml.v3.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/bwoodbury3/looper/segment"
)

// TempoConfig is the parsed "config.tempo" key, with the spec's defaults.
type TempoConfig struct {
	BPM             int `yaml:"bpm"`
	BeatsPerMeasure int `yaml:"beats_per_measure"`
	BeatDuration    int `yaml:"beat_duration"`
}

// DefaultTempoConfig returns the spec-mandated 120bpm, 4/4 defaults.
func DefaultTempoConfig() TempoConfig {
	return TempoConfig{BPM: 120, BeatsPerMeasure: 4, BeatDuration: 4}
}

// globalConfig is the raw shape of the top-level "config" key.
type globalConfig struct {
	Tempo        TempoConfig `yaml:"tempo"`
	StartMeasure int         `yaml:"start_measure"`
	StopMeasure  *float64    `yaml:"stop_measure"`
}

// projectFile is the raw shape of the whole project YAML document.
type projectFile struct {
	Config    globalConfig `yaml:"config"`
	Variables yaml.Node    `yaml:"variables"`
	Devices   []yaml.Node  `yaml:"devices"`
}

// ProjectConfig is a fully parsed project file: global settings plus the
// ordered list of block configurations.
type ProjectConfig struct {
	Tempo        TempoConfig
	StartMeasure int
	StopMeasure  float64
	Blocks       []*BlockConfig
}

// BlockConfig is one entry of the "devices" list: a name, a registered
// block_type string, and the type-specific keys under it.
type BlockConfig struct {
	Name      string
	BlockType string

	root yaml.Node
}

// Load reads and parses a project file from disk.
func Load(filename string) (*ProjectConfig, error) {
	contents, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return Parse(contents)
}

// Parse parses a project file already read into memory.
func Parse(contents []byte) (*ProjectConfig, error) {
	var pf projectFile
	pf.Config.Tempo = DefaultTempoConfig()
	pf.Config.StartMeasure = 0

	if err := yaml.Unmarshal(contents, &pf); err != nil {
		return nil, fmt.Errorf("config: failed to parse project file: %w", err)
	}

	stopMeasure := -1.0
	if pf.Config.StopMeasure != nil {
		stopMeasure = *pf.Config.StopMeasure
	}

	pc := &ProjectConfig{
		Tempo:        pf.Config.Tempo,
		StartMeasure: pf.Config.StartMeasure,
		StopMeasure:  stopMeasure,
	}

	for _, dev := range pf.Devices {
		bc, err := newBlockConfig(dev)
		if err != nil {
			return nil, err
		}
		pc.Blocks = append(pc.Blocks, bc)
	}

	return pc, nil
}

func newBlockConfig(node yaml.Node) (*BlockConfig, error) {
	var header struct {
		Name string `yaml:"name"`
		Type string `yaml:"type"`
	}
	if err := node.Decode(&header); err != nil {
		return nil, fmt.Errorf("config: device entry: %w", err)
	}
	if header.Name == "" {
		return nil, fmt.Errorf("config: device did not contain a valid \"name\"")
	}
	if header.Type == "" {
		return nil, fmt.Errorf("config: device %q did not contain a valid \"type\"", header.Name)
	}

	return &BlockConfig{
		Name:      header.Name,
		BlockType: header.Type,
		root:      node,
	}, nil
}

// value returns the yaml.Node mapped to key under this block's root, or nil
// if the key is absent.
func (bc *BlockConfig) value(key string) *yaml.Node {
	if bc.root.Kind != yaml.MappingNode {
		return nil
	}
	content := bc.root.Content
	for i := 0; i+1 < len(content); i += 2 {
		if content[i].Value == key {
			return content[i+1]
		}
	}
	return nil
}

// Node returns the raw yaml.Node mapped to key, or nil if the key is
// absent. An escape hatch for blocks (e.g. VirtualInstrument's "sounds")
// whose config shape is richer than the typed accessors below.
func (bc *BlockConfig) Node(key string) *yaml.Node {
	return bc.value(key)
}

func (bc *BlockConfig) errf(key, msg string) error {
	return fmt.Errorf("config: device=%q key=%q: %s", bc.Name, key, msg)
}

// GetStr returns a required string value.
func (bc *BlockConfig) GetStr(key string) (string, error) {
	v := bc.value(key)
	if v == nil {
		return "", bc.errf(key, "missing required parameter")
	}
	var s string
	if err := v.Decode(&s); err != nil {
		return "", bc.errf(key, "expected a string value")
	}
	return s, nil
}

// GetStrOpt returns an optional string value, defaulting if absent.
func (bc *BlockConfig) GetStrOpt(key, def string) (string, error) {
	if bc.value(key) == nil {
		return def, nil
	}
	return bc.GetStr(key)
}

// GetInt returns a required integer value.
func (bc *BlockConfig) GetInt(key string) (int, error) {
	v := bc.value(key)
	if v == nil {
		return 0, bc.errf(key, "missing required parameter")
	}
	var i int
	if err := v.Decode(&i); err != nil {
		return 0, bc.errf(key, "expected a number")
	}
	return i, nil
}

// GetIntOpt returns an optional integer value, defaulting if absent.
func (bc *BlockConfig) GetIntOpt(key string, def int) (int, error) {
	if bc.value(key) == nil {
		return def, nil
	}
	return bc.GetInt(key)
}

// GetF32 returns a required float32 value.
func (bc *BlockConfig) GetF32(key string) (float32, error) {
	v := bc.value(key)
	if v == nil {
		return 0, bc.errf(key, "missing required parameter")
	}
	var f float64
	if err := v.Decode(&f); err != nil {
		return 0, bc.errf(key, "expected a number")
	}
	return float32(f), nil
}

// GetF32Opt returns an optional float32 value, defaulting if absent.
func (bc *BlockConfig) GetF32Opt(key string, def float32) (float32, error) {
	if bc.value(key) == nil {
		return def, nil
	}
	return bc.GetF32(key)
}

// GetBoolOpt returns an optional bool value, defaulting if absent.
func (bc *BlockConfig) GetBoolOpt(key string, def bool) (bool, error) {
	v := bc.value(key)
	if v == nil {
		return def, nil
	}
	var b bool
	if err := v.Decode(&b); err != nil {
		return def, bc.errf(key, "expected a boolean")
	}
	return b, nil
}

// GetStrList returns a required list of strings, e.g. input_channels.
func (bc *BlockConfig) GetStrList(key string) ([]string, error) {
	v := bc.value(key)
	if v == nil {
		return nil, bc.errf(key, "missing required parameter")
	}
	if v.Kind != yaml.SequenceNode {
		return nil, bc.errf(key, "must be a list")
	}
	var list []string
	if err := v.Decode(&list); err != nil {
		return nil, bc.errf(key, "all list items must be strings")
	}
	return list, nil
}

// rawSegment is the YAML shape of one "segments" list entry.
type rawSegment struct {
	Start float64 `yaml:"start"`
	Stop  float64 `yaml:"stop"`
	Type  string  `yaml:"type"`
	Name  string  `yaml:"name"`
}

// GetSegments returns the parsed "segments" list, or an empty slice if the
// key is absent (segments are optional on most block types).
func (bc *BlockConfig) GetSegments() ([]segment.Segment, error) {
	v := bc.value("segments")
	if v == nil {
		return nil, nil
	}
	if v.Kind != yaml.SequenceNode {
		return nil, bc.errf("segments", "must be a list")
	}

	var raws []rawSegment
	if err := v.Decode(&raws); err != nil {
		return nil, bc.errf("segments", "malformed segment entry")
	}

	segs := make([]segment.Segment, 0, len(raws))
	for _, r := range raws {
		if r.Start > r.Stop {
			return nil, bc.errf("segments", fmt.Sprintf("segment start %v must be <= stop %v", r.Start, r.Stop))
		}
		segs = append(segs, segment.Segment{
			Start: r.Start,
			Stop:  r.Stop,
			Kind:  segment.ParseKind(r.Type),
			Name:  r.Name,
		})
	}
	return segs, nil
}
