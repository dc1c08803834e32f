// Package segment implements the measure-windowed gating primitive used to
// tell a block when it should be listening (Input) or playing (Output).
package segment

// Kind identifies what a Segment is used for.
type Kind int

const (
	// Input marks a window during which a block should be recording or
	// otherwise consuming its input stream.
	Input Kind = iota

	// Output marks a window during which a block should be producing
	// output.
	Output

	// Invalid marks a segment whose type string didn't match a known
	// kind - a user configuration error, not rejected at parse time so
	// the offending block can decide how to report it.
	Invalid
)

// String renders the kind the way it appears in project files.
func (k Kind) String() string {
	switch k {
	case Input:
		return "input"
	case Output:
		return "output"
	default:
		return "invalid"
	}
}

// ParseKind maps a configuration string to a Kind, per the "type" key under
// a segment entry. Anything other than "input"/"output" yields Invalid
// rather than an error - segment kind is checked by the consuming block.
func ParseKind(s string) Kind {
	switch s {
	case "input":
		return Input
	case "output":
		return Output
	default:
		return Invalid
	}
}

// Segment is a half-open window of time, in measures, during which a block
// should operate in a particular way.
type Segment struct {
	// Start is the first measure the segment covers, inclusive.
	Start float64

	// Stop is the measure the segment ends at, exclusive.
	Stop float64

	// Kind identifies what the segment is used for.
	Kind Kind

	// Name optionally labels the segment. Empty string means unnamed.
	Name string
}

// Contains reports whether measure lies within the segment's half-open
// [Start, Stop) window.
func (s Segment) Contains(measure float64) bool {
	return s.Start <= measure && measure < s.Stop
}
