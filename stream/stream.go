// Package stream implements the fixed-buffer stream catalog: the
// single-writer/many-reader contract that every block in the graph is built
// on top of.
package stream

import "fmt"

// Sample is the root audio sample type. Nominally in [-1.0, +1.0]; values
// outside that range are permitted internally for headroom and are clamped
// only at sink boundaries that require it.
type Sample = float32

// SamplesPerBuffer is the number of samples exchanged between blocks in a
// single cycle.
const SamplesPerBuffer = 256

// SampleRate is the sample rate of the audio pipeline, in samples/second.
const SampleRate = 44100

// Buffer is a fixed-length ordered sequence of samples, the atomic unit of
// scheduling. Every stream exchange between blocks in one cycle is exactly
// one Buffer.
type Buffer [SamplesPerBuffer]Sample

// Fill overwrites every sample in the buffer with v.
func (b *Buffer) Fill(v Sample) {
	for i := range b {
		b[i] = v
	}
}

// Clip is a variable-length ordered sequence of samples owned by whichever
// block created it (recordings, instrument samples). Clips are not published
// through the Catalog; they may be shared by reference among a block's
// internal samplers.
type Clip struct {
	Samples []Sample
}

// NewClip returns an empty, growable clip.
func NewClip() *Clip {
	return &Clip{}
}

// ClipFromSamples wraps a slice of samples as a clip without copying.
func ClipFromSamples(samples []Sample) *Clip {
	return &Clip{Samples: samples}
}

// Len returns the number of samples in the clip.
func (c *Clip) Len() int {
	return len(c.Samples)
}

// Scale multiplies every sample in the clip by volume, in place.
func (c *Clip) Scale(volume Sample) {
	for i := range c.Samples {
		c.Samples[i] *= volume
	}
}

// borrowState tracks the single-writer/many-reader discipline for one
// stream. It is not safe for concurrent use - the runner is single-threaded
// by design (spec §5), so a simple counter is sufficient.
type borrowState struct {
	writerBorrowed bool
	readerBorrows  int
}

// stream is the catalog's internal representation of one named buffer.
type stream struct {
	buffer  Buffer
	borrows borrowState
}

// Writer is the exclusive, cycle-scoped handle a block holds to mutate a
// stream it is the source of.
type Writer struct {
	s *stream
}

// Reader is the shared, cycle-scoped handle a block holds to read a stream
// it binds as a sink.
type Reader struct {
	s *stream
}

// Borrow acquires the exclusive write borrow for this cycle and returns the
// buffer to mutate. Release must be called before the block's tick method
// returns.
func (w *Writer) Borrow() *Buffer {
	if w.s.borrows.writerBorrowed {
		panic("stream: double mutable borrow of a writer stream")
	}
	if w.s.borrows.readerBorrows > 0 {
		panic("stream: writer borrowed while a reader borrow is outstanding")
	}
	w.s.borrows.writerBorrowed = true
	return &w.s.buffer
}

// Release gives up the exclusive write borrow.
func (w *Writer) Release() {
	if !w.s.borrows.writerBorrowed {
		panic("stream: released a writer borrow that was never acquired")
	}
	w.s.borrows.writerBorrowed = false
}

// Borrow acquires a shared read borrow for this cycle and returns the
// buffer to read. Release must be called before the block's tick method
// returns.
func (r *Reader) Borrow() *Buffer {
	if r.s.borrows.writerBorrowed {
		panic("stream: reader borrowed while a writer borrow is outstanding")
	}
	r.s.borrows.readerBorrows++
	return &r.s.buffer
}

// Release gives up one shared read borrow.
func (r *Reader) Release() {
	if r.s.borrows.readerBorrows == 0 {
		panic("stream: released a reader borrow that was never acquired")
	}
	r.s.borrows.readerBorrows--
}

// Catalog is a mapping from stream name to stream handle. Names are unique
// across a run: a second CreateSource with the same name fails, and
// BindSink on an unknown name fails.
type Catalog struct {
	streams map[string]*stream
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{streams: make(map[string]*stream)}
}

// CreateSource registers a new zero-initialized stream and returns the
// exclusive writer handle for it. Fails if name is already registered.
func (c *Catalog) CreateSource(name string) (*Writer, error) {
	if name == "" {
		return nil, fmt.Errorf("stream: name must not be empty")
	}
	if _, ok := c.streams[name]; ok {
		return nil, fmt.Errorf("stream: duplicate stream %q", name)
	}
	s := &stream{}
	c.streams[name] = s
	return &Writer{s: s}, nil
}

// BindSink returns a shared reader handle to an existing stream. Fails if
// name is not registered.
func (c *Catalog) BindSink(name string) (*Reader, error) {
	s, ok := c.streams[name]
	if !ok {
		return nil, fmt.Errorf("stream: unknown stream %q", name)
	}
	return &Reader{s: s}, nil
}
