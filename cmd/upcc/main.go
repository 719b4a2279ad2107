// upcc - parallel Pearson correlation over delimited numeric tables.
//
// Uses manual argument parsing so numeric option values can be
// validated strictly (base-10, unsigned, no leading zeros or signs).
package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/kolkov/upcc"
)

// version is set at build time via -ldflags.
// For development builds, it will be "dev".
var version = "dev"

const (
	shortUsage = "usage: upcc [--workers N] [--rows N] [--single] [--naive] <input-file>"
	longUsage  = `Options:
  --workers N       extra worker goroutines (default: number of CPUs - 1);
                    one more worker always runs on the main goroutine
  --rows N          rows per chunk (default 100)
  --single          compute in single precision (float32)
  --naive           use the per-pair reference accumulator

Other:
  -h, --help        show this help message
  --version         show upcc version and exit

The input file's first row is a header and only determines the column
count; every following row must hold exactly that many decimal values
separated by commas. One line is printed per column pair:

  (c1,c2) <pcc>
`
)

func main() {
	var inputFile string
	workers := -1 // -1 = default
	rows := 0     // 0 = default
	single := false
	naive := false

	args := os.Args[1:]
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "-h" || arg == "--help":
			usageExit()
		case arg == "--version":
			fmt.Printf("upcc version %s (library %s)\n", version, upcc.Version)
			os.Exit(0)
		case arg == "--workers":
			i++
			workers = int(optionValue(args, i, "--workers"))
		case strings.HasPrefix(arg, "--workers="):
			workers = int(parseCount("--workers", arg[len("--workers="):]))
		case arg == "--rows":
			i++
			rows = int(optionValue(args, i, "--rows"))
		case strings.HasPrefix(arg, "--rows="):
			rows = int(parseCount("--rows", arg[len("--rows="):]))
		case arg == "--single":
			single = true
		case arg == "--naive":
			naive = true
		case strings.HasPrefix(arg, "-") && arg != "-":
			errorExitf("flag provided but not defined: %s", arg)
		default:
			if inputFile != "" {
				errorExitf("unexpected argument: %s", arg)
			}
			inputFile = arg
		}
	}

	if inputFile == "" {
		errorExitf("missing input file\n%s", shortUsage)
	}

	file, err := os.Open(inputFile)
	if err != nil {
		errorExitf("cannot open file %s: %v", inputFile, err)
	}
	defer file.Close()

	config := &upcc.Config{
		RowsPerChunk: rows,
		Single:       single,
		Naive:        naive,
		Output:       os.Stdout,
	}
	if workers >= 0 {
		// --workers counts extra goroutines; one more runs here
		config.Workers = workers + 1
	}

	if err := upcc.Run(file, config); err != nil {
		errorExit(err)
	}
}

// optionValue returns the strictly validated numeric value of the
// option at position i, exiting when it is missing.
func optionValue(args []string, i int, flag string) uint64 {
	if i >= len(args) {
		errorExitf("flag needs an argument: %s", flag)
	}
	return parseCount(flag, args[i])
}

// parseCount accepts only canonical base-10 unsigned integers: the
// parse-then-format round trip rejects signs, leading zeros, spaces
// and any other non-canonical spelling.
func parseCount(flag, s string) uint64 {
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil || strconv.FormatUint(n, 10) != s {
		errorExitf("invalid value for %s: %s", flag, s)
	}
	return n
}

// usageExit prints usage and exits non-zero, as for any argument error.
func usageExit() {
	fmt.Fprintf(os.Stderr, "upcc %s - parallel Pearson correlation\n\n%s\n\n%s", version, shortUsage, longUsage)
	os.Exit(1)
}

// errorExitf prints formatted error message and exits with code 1
func errorExitf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "upcc: "+format+"\n", args...)
	os.Exit(1)
}

// errorExit prints error and exits with code 1
func errorExit(err error) {
	fmt.Fprintf(os.Stderr, "upcc: %v\n", err)
	os.Exit(1)
}
