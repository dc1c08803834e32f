// Package lowpass implements the LowPass transformer: an IIR filter whose
// coefficients are looked up from a frequency/coefficient table on disk.
package lowpass

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/bwoodbury3/looper/block"
	"github.com/bwoodbury3/looper/config"
	"github.com/bwoodbury3/looper/stream"
)

// defaultFilterTable is where the coefficient table is loaded from when a
// block doesn't override it.
const defaultFilterTable = "assets/filters/low_pass.txt"

// LowPass is a direct-form IIR filter whose order and coefficients are
// chosen by looking up the requested cutoff frequency in a coefficient
// table.
type LowPass struct {
	block.NoCleanup
	block.NonBlocking

	input  *stream.Reader
	output *stream.Writer

	numerator   []float32
	denominator []float32

	inHistory  []stream.Sample
	outHistory []stream.Sample
	ringIndex  int
}

// New constructs a LowPass filter from its block configuration, loading
// coefficients from the canonical filter table.
func New(cfg *config.BlockConfig, catalog *stream.Catalog) (*LowPass, error) {
	return newWithTable(cfg, catalog, defaultFilterTable)
}

func newWithTable(cfg *config.BlockConfig, catalog *stream.Catalog, tablePath string) (*LowPass, error) {
	inputChannel, err := cfg.GetStr("input_channel")
	if err != nil {
		return nil, err
	}
	outputChannel, err := cfg.GetStr("output_channel")
	if err != nil {
		return nil, err
	}
	freq, err := cfg.GetF32("cutoff")
	if err != nil {
		return nil, err
	}

	input, err := catalog.BindSink(inputChannel)
	if err != nil {
		return nil, err
	}
	output, err := catalog.CreateSource(outputChannel)
	if err != nil {
		return nil, err
	}

	numerator, denominator, err := loadCoefficients(tablePath, freq)
	if err != nil {
		return nil, fmt.Errorf("lowpass: no filter found for freq=%v: %w", freq, err)
	}
	order := len(numerator)

	return &LowPass{
		input:       input,
		output:      output,
		numerator:   numerator,
		denominator: denominator,
		inHistory:   make([]stream.Sample, order),
		outHistory:  make([]stream.Sample, order),
	}, nil
}

// loadCoefficients scans the table for the first freq-tagged entry whose
// frequency is greater than or equal to the requested cutoff, returning its
// numerator/denominator coefficient rows.
func loadCoefficients(path string, cutoff float32) ([]float32, []float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	const (
		stateSeekFreq = iota
		stateNumerator
		stateDenominator
	)

	state := stateSeekFreq
	var numerator []float32

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()

		switch state {
		case stateSeekFreq:
			if !strings.HasPrefix(line, "freq") {
				continue
			}
			freqVal, err := strconv.ParseFloat(strings.TrimSpace(line[4:]), 32)
			if err != nil {
				return nil, nil, fmt.Errorf("lowpass: malformed freq line %q: %w", line, err)
			}
			if float32(freqVal) >= cutoff {
				state = stateNumerator
			}
		case stateNumerator:
			numerator, err = parseCoeffs(line)
			if err != nil {
				return nil, nil, err
			}
			state = stateDenominator
		case stateDenominator:
			denominator, err := parseCoeffs(line)
			if err != nil {
				return nil, nil, err
			}
			return numerator, denominator, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, err
	}

	return nil, nil, fmt.Errorf("lowpass: no entry in %s covers cutoff %v", path, cutoff)
}

func parseCoeffs(line string) ([]float32, error) {
	fields := strings.Fields(line)
	coeffs := make([]float32, len(fields))
	for i, s := range fields {
		v, err := strconv.ParseFloat(s, 32)
		if err != nil {
			return nil, fmt.Errorf("lowpass: malformed coefficient %q: %w", s, err)
		}
		coeffs[i] = float32(v)
	}
	return coeffs, nil
}

// Transform applies the filter over the input buffer, producing the output
// buffer sample-by-sample.
func (lp *LowPass) Transform(state *block.PlaybackState) {
	in := lp.input.Borrow()
	out := lp.output.Borrow()
	defer lp.input.Release()
	defer lp.output.Release()

	order := len(lp.numerator)

	for m := range out {
		out[m] = lp.numerator[0] * in[m]

		for i := 1; i < order; i++ {
			prevIndex := mod(lp.ringIndex-i, order)
			out[m] += lp.denominator[i]*lp.outHistory[prevIndex] + lp.numerator[i]*lp.inHistory[prevIndex]
		}

		lp.inHistory[lp.ringIndex] = in[m]
		lp.outHistory[lp.ringIndex] = out[m]
		lp.ringIndex = (lp.ringIndex + 1) % order
	}
}

func mod(a, n int) int {
	m := a % n
	if m < 0 {
		m += n
	}
	return m
}
