// A very simple WAVE file writer.
// Wrote my own after trying out a couple of others I found but
// both required me to know the quantity of audio data before I
// write it. The same constraint applies to a recorder that streams
// samples as they arrive, so the reader added alongside it stays on
// encoding/binary too rather than mixing codec libraries.
// See http://soundfile.sapp.org/doc/WaveFormat/ for format
// documentation.

package wav

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
)

const (
	formatPCM   = 1
	formatFloat = 3
)

// Format is the 16-byte "fmt " chunk body.
type Format struct {
	AudioFormat   uint16
	Channels      uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
}

// Writer streams mono, 16-bit PCM samples to a WriteSeeker, patching the
// RIFF/data chunk sizes in Finish once the total length is known.
type Writer struct {
	WS io.WriteSeeker
}

// NewWriter writes the RIFF/WAVE header and a mono 16-bit PCM format chunk,
// then opens the data chunk for streaming writes.
func NewWriter(ws io.WriteSeeker, sampleRate int) (*Writer, error) {
	writer := &Writer{WS: ws}

	if _, err := ws.Write([]byte("RIFF")); err != nil {
		return nil, err
	}

	// Write out zero for now, come back and fill this later.
	if err := binary.Write(ws, binary.LittleEndian, int32(0)); err != nil {
		return nil, err
	}

	if _, err := ws.Write([]byte("WAVE")); err != nil {
		return nil, err
	}

	if _, err := ws.Write([]byte("fmt ")); err != nil {
		return nil, err
	}
	if err := binary.Write(ws, binary.LittleEndian, int32(16)); err != nil {
		return nil, err
	}
	format := Format{AudioFormat: formatPCM, Channels: 1, SampleRate: uint32(sampleRate), BitsPerSample: 16}
	format.ByteRate = uint32(sampleRate) * 1 * (16 / 8)
	format.BlockAlign = 1 * (16 / 8)
	if err := binary.Write(ws, binary.LittleEndian, format); err != nil {
		return nil, err
	}

	if _, err := ws.Write([]byte("data")); err != nil {
		return nil, err
	}
	// Write out zero for the data size for now, come back and fill this
	// later.
	if err := binary.Write(ws, binary.LittleEndian, int32(0)); err != nil {
		return nil, err
	}

	return writer, nil
}

// WriteSamples writes mono float32 samples, quantized to 16-bit PCM.
func (w *Writer) WriteSamples(samples []float32) error {
	pcm := make([]int16, len(samples))
	for i, s := range samples {
		pcm[i] = floatToPCM16(s)
	}
	return binary.Write(w.WS, binary.LittleEndian, pcm)
}

// Finish patches the RIFF and data chunk sizes now that the total length is
// known, and returns the total file length.
func (w *Writer) Finish() (int64, error) {
	wlen, err := w.WS.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, err
	}

	offset, err := w.WS.Seek(4, io.SeekStart)
	if offset != 4 || err != nil {
		return 0, err
	}
	if err := binary.Write(w.WS, binary.LittleEndian, int32(wlen-8)); err != nil {
		return 0, err
	}
	offset, err = w.WS.Seek(40, io.SeekStart)
	if offset != 40 || err != nil {
		return 0, err
	}
	if err := binary.Write(w.WS, binary.LittleEndian, int32(wlen-44)); err != nil {
		return 0, err
	}

	return wlen, nil
}

// WriteFile writes a complete mono 16-bit PCM WAV file in one call.
func WriteFile(path string, samples []float32, sampleRate int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w, err := NewWriter(f, sampleRate)
	if err != nil {
		return err
	}
	if err := w.WriteSamples(samples); err != nil {
		return err
	}
	_, err = w.Finish()
	return err
}

func floatToPCM16(s float32) int16 {
	v := float64(s) * 32767.0
	if v > 32767 {
		v = 32767
	}
	if v < -32768 {
		v = -32768
	}
	return int16(math.Round(v))
}

type chunkHeader struct {
	ID   [4]byte
	Size uint32
}

// ReadFile reads a WAV file and returns channel 0 as float32 samples in
// [-1.0, 1.0], alongside its sample rate. Any integer PCM bit depth and
// IEEE float format are supported; any channels beyond the first are
// discarded.
func ReadFile(path string) ([]float32, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	var riffID [4]byte
	if _, err := io.ReadFull(f, riffID[:]); err != nil {
		return nil, 0, err
	}
	if string(riffID[:]) != "RIFF" {
		return nil, 0, fmt.Errorf("wav: not a RIFF file")
	}
	var riffSize uint32
	if err := binary.Read(f, binary.LittleEndian, &riffSize); err != nil {
		return nil, 0, err
	}
	var waveID [4]byte
	if _, err := io.ReadFull(f, waveID[:]); err != nil {
		return nil, 0, err
	}
	if string(waveID[:]) != "WAVE" {
		return nil, 0, fmt.Errorf("wav: not a WAVE file")
	}

	var format Format
	var dataOffset int64
	var dataSize uint32
	haveFormat := false

	for {
		var hdr chunkHeader
		if err := binary.Read(f, binary.LittleEndian, &hdr); err != nil {
			if err == io.EOF {
				break
			}
			return nil, 0, err
		}

		switch string(hdr.ID[:]) {
		case "fmt ":
			if err := binary.Read(f, binary.LittleEndian, &format); err != nil {
				return nil, 0, err
			}
			haveFormat = true
			// Skip any extension bytes beyond the 16-byte PCM body.
			if hdr.Size > 16 {
				if _, err := f.Seek(int64(hdr.Size-16), io.SeekCurrent); err != nil {
					return nil, 0, err
				}
			}
		case "data":
			off, err := f.Seek(0, io.SeekCurrent)
			if err != nil {
				return nil, 0, err
			}
			dataOffset = off
			dataSize = hdr.Size
			if _, err := f.Seek(int64(hdr.Size), io.SeekCurrent); err != nil {
				return nil, 0, err
			}
		default:
			if _, err := f.Seek(int64(hdr.Size), io.SeekCurrent); err != nil {
				return nil, 0, err
			}
		}

		// Chunks are word-aligned.
		if hdr.Size%2 == 1 {
			if _, err := f.Seek(1, io.SeekCurrent); err != nil {
				return nil, 0, err
			}
		}
	}

	if !haveFormat {
		return nil, 0, fmt.Errorf("wav: missing fmt chunk")
	}
	if dataOffset == 0 {
		return nil, 0, fmt.Errorf("wav: missing data chunk")
	}
	if format.Channels == 0 {
		return nil, 0, fmt.Errorf("wav: invalid channel count")
	}

	if _, err := f.Seek(dataOffset, io.SeekStart); err != nil {
		return nil, 0, err
	}
	raw := make([]byte, dataSize)
	if _, err := io.ReadFull(f, raw); err != nil {
		return nil, 0, err
	}

	samples, err := decodeChannel0(raw, format)
	if err != nil {
		return nil, 0, err
	}
	return samples, int(format.SampleRate), nil
}

// decodeChannel0 extracts only channel 0 out of an interleaved sample
// block, converting to float32 in [-1.0, 1.0].
func decodeChannel0(raw []byte, format Format) ([]float32, error) {
	bytesPerSample := int(format.BitsPerSample) / 8
	if bytesPerSample == 0 {
		return nil, fmt.Errorf("wav: unsupported bits per sample %d", format.BitsPerSample)
	}
	frameSize := bytesPerSample * int(format.Channels)
	if frameSize == 0 {
		return nil, fmt.Errorf("wav: invalid frame size")
	}

	numFrames := len(raw) / frameSize
	samples := make([]float32, numFrames)

	for i := 0; i < numFrames; i++ {
		frame := raw[i*frameSize : i*frameSize+bytesPerSample]
		s, err := decodeSample(frame, format)
		if err != nil {
			return nil, err
		}
		samples[i] = s
	}
	return samples, nil
}

func decodeSample(b []byte, format Format) (float32, error) {
	switch format.AudioFormat {
	case formatFloat:
		switch len(b) {
		case 4:
			bits := binary.LittleEndian.Uint32(b)
			return math.Float32frombits(bits), nil
		case 8:
			bits := binary.LittleEndian.Uint64(b)
			return float32(math.Float64frombits(bits)), nil
		default:
			return 0, fmt.Errorf("wav: unsupported float sample width %d bytes", len(b))
		}
	case formatPCM:
		switch len(b) {
		case 1:
			// 8-bit PCM is conventionally unsigned.
			return (float32(b[0]) - 128) / 128, nil
		case 2:
			v := int16(binary.LittleEndian.Uint16(b))
			return float32(v) / 32768, nil
		case 3:
			v := int32(b[0]) | int32(b[1])<<8 | int32(b[2])<<16
			if v&0x800000 != 0 {
				v |= -(1 << 24)
			}
			return float32(v) / 8388608, nil
		case 4:
			v := int32(binary.LittleEndian.Uint32(b))
			return float32(v) / 2147483648, nil
		default:
			return 0, fmt.Errorf("wav: unsupported PCM sample width %d bytes", len(b))
		}
	default:
		return 0, fmt.Errorf("wav: unsupported audio format %d", format.AudioFormat)
	}
}
