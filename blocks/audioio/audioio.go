// Package audioio implements the AudioSource and AudioSink blocks: the
// boundary between the stream graph and real hardware, built on blocking
// PortAudio streams so that one Read/Write call always produces or consumes
// exactly one buffer's worth of samples.
package audioio

import (
	"fmt"
	"log"
	"strings"

	"github.com/gordonklaus/portaudio"

	"github.com/bwoodbury3/looper/block"
	"github.com/bwoodbury3/looper/config"
	"github.com/bwoodbury3/looper/stream"
)

// deviceLister enumerates the available PortAudio devices, overridable in
// tests so findDevice can be exercised without an initialized PortAudio
// runtime.
type deviceLister func() ([]*portaudio.DeviceInfo, error)

// findDevice returns the first device whose name contains name and which
// offers the requested direction of I/O. Mirrors the substring match and
// "print every device we saw" fallback of the original audio device lookup.
func findDevice(devices []*portaudio.DeviceInfo, name string, wantInput, wantOutput bool) (*portaudio.DeviceInfo, error) {
	for _, d := range devices {
		if !strings.Contains(d.Name, name) {
			continue
		}
		if wantInput && d.MaxInputChannels < 1 {
			log.Printf("audioio: %q is not an input device", d.Name)
			continue
		}
		if wantOutput && d.MaxOutputChannels < 1 {
			log.Printf("audioio: %q is not an output device", d.Name)
			continue
		}
		return d, nil
	}

	log.Printf("audioio: could not find audio device %q", name)
	log.Printf("audioio: available devices:")
	for _, d := range devices {
		log.Printf("audioio:   - %q", d.Name)
	}
	return nil, fmt.Errorf("audioio: no matching device for %q", name)
}

// AudioSource reads one buffer of microphone/line-in audio per cycle from a
// hardware device into a published stream.
type AudioSource struct {
	name   string
	pa     *portaudio.Stream
	in     []stream.Sample
	output *stream.Writer
}

// New constructs an AudioSource from its block configuration.
func New(cfg *config.BlockConfig, catalog *stream.Catalog) (*AudioSource, error) {
	return newSourceWithDevices(cfg, catalog, portaudio.Devices)
}

func newSourceWithDevices(cfg *config.BlockConfig, catalog *stream.Catalog, listDevices deviceLister) (*AudioSource, error) {
	outputChannel, err := cfg.GetStr("output_channel")
	if err != nil {
		return nil, err
	}
	deviceName, err := cfg.GetStr("device")
	if err != nil {
		return nil, err
	}

	output, err := catalog.CreateSource(outputChannel)
	if err != nil {
		return nil, err
	}

	devices, err := listDevices()
	if err != nil {
		return nil, fmt.Errorf("audioio: failed to enumerate devices: %w", err)
	}
	device, err := findDevice(devices, deviceName, true, false)
	if err != nil {
		return nil, err
	}

	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   device,
			Channels: 1,
			Latency:  device.DefaultLowInputLatency,
		},
		SampleRate:      stream.SampleRate,
		FramesPerBuffer: stream.SamplesPerBuffer,
	}

	in := make([]stream.Sample, stream.SamplesPerBuffer)
	pa, err := portaudio.OpenStream(params, in)
	if err != nil {
		return nil, fmt.Errorf("audioio: failed to open input device %q: %w", deviceName, err)
	}
	if err := pa.Start(); err != nil {
		pa.Close()
		return nil, fmt.Errorf("audioio: failed to start input device %q: %w", deviceName, err)
	}

	return &AudioSource{
		name:   cfg.Name,
		pa:     pa,
		in:     in,
		output: output,
	}, nil
}

// IsBlockingIO reports that reading from hardware can block on real time.
func (s *AudioSource) IsBlockingIO() bool { return true }

// Read blocks until one full buffer of hardware input is available and
// publishes it to the output stream.
func (s *AudioSource) Read(state *block.PlaybackState) {
	if err := s.pa.Read(); err != nil {
		log.Printf("audioio: %s: failed to read audio input: %v", s.name, err)
		return
	}

	out := s.output.Borrow()
	copy(out[:], s.in)
	s.output.Release()
}

// Cleanup stops and closes the underlying PortAudio stream.
func (s *AudioSource) Cleanup() {
	s.pa.Stop()
	s.pa.Close()
}

// AudioSink writes one buffer of its input stream per cycle to a hardware
// playback device.
type AudioSink struct {
	name  string
	pa    *portaudio.Stream
	out   []stream.Sample
	input *stream.Reader
}

// NewSink constructs an AudioSink from its block configuration.
func NewSink(cfg *config.BlockConfig, catalog *stream.Catalog) (*AudioSink, error) {
	return newSinkWithDevices(cfg, catalog, portaudio.Devices)
}

func newSinkWithDevices(cfg *config.BlockConfig, catalog *stream.Catalog, listDevices deviceLister) (*AudioSink, error) {
	inputChannel, err := cfg.GetStr("input_channel")
	if err != nil {
		return nil, err
	}
	deviceName, err := cfg.GetStr("device")
	if err != nil {
		return nil, err
	}

	input, err := catalog.BindSink(inputChannel)
	if err != nil {
		return nil, err
	}

	devices, err := listDevices()
	if err != nil {
		return nil, fmt.Errorf("audioio: failed to enumerate devices: %w", err)
	}
	device, err := findDevice(devices, deviceName, false, true)
	if err != nil {
		return nil, err
	}

	params := portaudio.StreamParameters{
		Output: portaudio.StreamDeviceParameters{
			Device:   device,
			Channels: 1,
			Latency:  device.DefaultLowOutputLatency,
		},
		SampleRate:      stream.SampleRate,
		FramesPerBuffer: stream.SamplesPerBuffer,
	}

	out := make([]stream.Sample, stream.SamplesPerBuffer)
	pa, err := portaudio.OpenStream(params, out)
	if err != nil {
		return nil, fmt.Errorf("audioio: failed to open output device %q: %w", deviceName, err)
	}
	if err := pa.Start(); err != nil {
		pa.Close()
		return nil, fmt.Errorf("audioio: failed to start output device %q: %w", deviceName, err)
	}

	return &AudioSink{
		name:  cfg.Name,
		pa:    pa,
		out:   out,
		input: input,
	}, nil
}

// IsBlockingIO reports that writing to hardware can block on real time.
func (s *AudioSink) IsBlockingIO() bool { return true }

// Write copies the input stream into the device's output buffer and blocks
// until PortAudio has accepted it.
func (s *AudioSink) Write(state *block.PlaybackState) {
	in := s.input.Borrow()
	copy(s.out, in[:])
	s.input.Release()

	if err := s.pa.Write(); err != nil {
		log.Printf("audioio: %s: failed to write audio output: %v", s.name, err)
	}
}

// Cleanup stops and closes the underlying PortAudio stream.
func (s *AudioSink) Cleanup() {
	s.pa.Stop()
	s.pa.Close()
}
