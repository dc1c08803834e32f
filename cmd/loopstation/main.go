// Command loopstation is the primary entry point: it loads a project file,
// builds the block graph and drives it until stop_measure is reached or the
// process is terminated.
package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/bwoodbury3/looper/config"
	"github.com/bwoodbury3/looper/runner"
)

const (
	escape     = "\x1b["
	hideCursor = escape + "?25l"
	showCursor = escape + "?25h"
)

// flagProject overrides the positional project file argument; the
// positional form is the documented invocation.
var flagProject = pflag.StringP("project", "p", "", "path to the project YAML file (overrides the positional argument)")

func main() {
	log.SetFlags(0)
	log.SetPrefix("loopstation: ")
	pflag.Parse()

	projectFile := *flagProject
	if projectFile == "" {
		if len(pflag.Args()) == 0 {
			fmt.Fprintln(os.Stderr, "loopstation: usage: loopstation PROJECT_FILE")
			os.Exit(1)
		}
		projectFile = pflag.Args()[0]
	}

	pc, err := config.Load(projectFile)
	if err != nil {
		log.Fatal(err)
	}

	r, err := runner.New(pc)
	if err != nil {
		log.Fatal(err)
	}

	// There is no graceful cancellation: a SIGINT is process termination,
	// same as a power loss. Recordings only flush on an orderly shutdown
	// reached via stop_measure - that's documented, intentional behaviour,
	// not a bug to patch around here.
	sigch := make(chan os.Signal, 1)
	signal.Notify(sigch, syscall.SIGINT)
	go func() {
		<-sigch
		fmt.Print(showCursor)
		os.Exit(0)
	}()

	fmt.Print(hideCursor)
	defer fmt.Print(showCursor)

	r.Run()
}
