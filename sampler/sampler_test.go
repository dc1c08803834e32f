package sampler

import (
	"testing"

	"github.com/bwoodbury3/looper/stream"
)

func fill(n int, v stream.Sample) []stream.Sample {
	s := make([]stream.Sample, n)
	for i := range s {
		s[i] = v
	}
	return s
}

func TestPlayMixesAdditively(t *testing.T) {
	s := New()
	clip := stream.ClipFromSamples(fill(stream.SamplesPerBuffer, 0.25))
	s.Play(clip, false)

	var buf stream.Buffer
	buf.Fill(0.1)
	s.Next(&buf)

	for i, v := range buf {
		if v != 0.35 {
			t.Fatalf("buf[%d] = %v, want 0.35", i, v)
		}
	}
}

func TestShortClipStopsWhenNotLooping(t *testing.T) {
	s := New()
	clip := stream.ClipFromSamples(fill(10, 1.0))
	s.Play(clip, false)

	var buf stream.Buffer
	s.Next(&buf)

	if s.IsPlaying() {
		t.Error("expected sampler to stop after exhausting a short non-looping clip")
	}
	for i := 0; i < 10; i++ {
		if buf[i] != 1.0 {
			t.Errorf("buf[%d] = %v, want 1.0", i, buf[i])
		}
	}
	for i := 10; i < stream.SamplesPerBuffer; i++ {
		if buf[i] != 0 {
			t.Errorf("buf[%d] = %v, want 0 (untouched past clip end)", i, buf[i])
		}
	}
}

func TestLoopingClipRestarts(t *testing.T) {
	s := New()
	clip := stream.ClipFromSamples(fill(10, 1.0))
	s.Play(clip, true)

	var buf1 stream.Buffer
	s.Next(&buf1)
	if !s.IsPlaying() {
		t.Fatal("expected looping sampler to keep playing past clip end")
	}

	var buf2 stream.Buffer
	s.Next(&buf2)
	if buf2[0] != 1.0 {
		t.Errorf("buf2[0] = %v, want 1.0 (clip restarted)", buf2[0])
	}
}

func TestStopClearsState(t *testing.T) {
	s := New()
	clip := stream.ClipFromSamples(fill(10, 1.0))
	s.Play(clip, true)
	s.Stop()

	if s.IsPlaying() {
		t.Error("expected Stop to clear is_playing")
	}

	var buf stream.Buffer
	s.Next(&buf)
	for i, v := range buf {
		if v != 0 {
			t.Fatalf("buf[%d] = %v, want 0 after Stop (Next should be a no-op)", i, v)
		}
	}
}

func TestNextWithoutClipPanics(t *testing.T) {
	s := New()
	s.isPlaying = true

	defer func() {
		if recover() == nil {
			t.Error("expected panic when playing without a clip")
		}
	}()
	var buf stream.Buffer
	s.Next(&buf)
}

func TestSkipAdvancesCursor(t *testing.T) {
	s := New()
	clip := stream.ClipFromSamples([]stream.Sample{1, 2, 3, 4, 5})
	s.Play(clip, false)
	s.Skip(3)

	var buf stream.Buffer
	s.Next(&buf)
	if buf[0] != 4 || buf[1] != 5 {
		t.Fatalf("buf[0:2] = %v, %v, want 4, 5", buf[0], buf[1])
	}
}
