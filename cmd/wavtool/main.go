// Command wavtool applies a single transform - trim, volume or fade - to a
// mono WAV file and writes the result to a new file.
package main

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/bwoodbury3/looper/stream"
	"github.com/bwoodbury3/looper/wav"
)

func usage() {
	fmt.Println("~ WAV TOOL ~")
	fmt.Println()
	fmt.Println("usage:")
	fmt.Println("  wavtool input_file.wav output_file.wav CMD [arg]")
	fmt.Println()
	fmt.Println("available commands:")
	fmt.Println("    trim <duration>      Trim the wav file to the specified duration, in seconds")
	fmt.Println("    volume <amplitude>   Scale the volume of the input file")
	fmt.Println("    fade <duration>      Apply a linear fade-out over the last <duration> seconds")
}

func trim(samples []stream.Sample, duration float32) []stream.Sample {
	n := int(duration * stream.SampleRate)
	if n > len(samples) {
		n = len(samples)
	}
	return samples[:n]
}

func scale(samples []stream.Sample, volume float32) []stream.Sample {
	for i := range samples {
		samples[i] *= volume
	}
	return samples
}

func fade(samples []stream.Sample, duration float32) []stream.Sample {
	fadeLen := int(duration * stream.SampleRate)
	if fadeLen >= len(samples) {
		log.Fatal("wavtool: fade duration is longer than the clip")
	}

	begin := len(samples) - fadeLen
	for i := 0; i < fadeLen; i++ {
		ratio := float32(fadeLen-i) / float32(fadeLen)
		samples[begin+i] *= ratio
	}
	return samples
}

func main() {
	log.SetFlags(0)
	log.SetPrefix("wavtool: ")

	if len(os.Args) < 4 {
		usage()
		os.Exit(1)
	}

	inputFile, outputFile, cmd := os.Args[1], os.Args[2], os.Args[3]

	samples, _, err := wav.ReadFile(inputFile)
	if err != nil {
		log.Fatal(err)
	}

	var arg float32
	if len(os.Args) > 4 {
		v, err := strconv.ParseFloat(os.Args[4], 32)
		if err != nil {
			log.Fatalf("argument must be a float: %v", err)
		}
		arg = float32(v)
	}

	var transformed []stream.Sample
	switch cmd {
	case "trim":
		transformed = trim(samples, arg)
	case "volume":
		transformed = scale(samples, arg)
	case "fade":
		transformed = fade(samples, arg)
	default:
		fmt.Printf("Command not recognized: %s\n", cmd)
		usage()
		os.Exit(1)
	}

	if err := wav.WriteFile(outputFile, transformed, stream.SampleRate); err != nil {
		log.Fatal(err)
	}
}
