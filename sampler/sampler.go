// Package sampler implements the additive-mixing clip player shared by
// every block that plays pre-recorded audio (instrument, metronome, looper).
package sampler

import "github.com/bwoodbury3/looper/stream"

// Sampler plays a single stream.Clip at a time, mixing it into caller-owned
// buffers rather than overwriting them. A Sampler never clears the buffer it
// is handed - zeroing, if wanted, is the caller's job.
type Sampler struct {
	clip      *stream.Clip
	clipIndex int
	isPlaying bool
	isLoop    bool
}

// New returns an idle sampler.
func New() *Sampler {
	return &Sampler{}
}

// Play starts playback of clip from its first sample. If loop is true, the
// clip restarts from the beginning each time it runs out instead of
// stopping.
func (s *Sampler) Play(clip *stream.Clip, loop bool) {
	s.clip = clip
	s.isLoop = loop
	s.isPlaying = true
	s.clipIndex = 0
}

// Skip advances the playback cursor by numSamples without emitting them. A
// no-op if nothing is playing.
func (s *Sampler) Skip(numSamples int) {
	if s.clip == nil {
		return
	}
	s.clipIndex = min(s.clipIndex+numSamples, s.clip.Len())
}

// IsPlaying reports whether a clip is currently playing.
func (s *Sampler) IsPlaying() bool {
	return s.isPlaying
}

// Stop halts playback and releases the clip reference.
func (s *Sampler) Stop() {
	s.clip = nil
	s.isPlaying = false
	s.clipIndex = 0
}

// Next mixes the next SamplesPerBuffer samples of the current clip into buf,
// advancing the playback cursor. A no-op if nothing is playing. Panics if
// is_playing is true but no clip is set - that combination is a contract
// violation, not a recoverable runtime condition.
func (s *Sampler) Next(buf *stream.Buffer) {
	if !s.isPlaying {
		return
	}
	if s.clip == nil {
		panic("sampler: playing without a valid clip")
	}

	startIndex := s.clipIndex
	stopIndex := min(startIndex+len(buf), s.clip.Len())

	for i := startIndex; i < stopIndex; i++ {
		buf[i-startIndex] += s.clip.Samples[i]
	}

	s.clipIndex = stopIndex
	shouldStop := stopIndex == s.clip.Len()

	if shouldStop {
		s.clipIndex = 0
		if !s.isLoop {
			s.Stop()
		}
	}
}
