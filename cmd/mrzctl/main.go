// Command mrzctl encodes and checks machine-readable zones offline.
//
//	mrzctl generate --type=passport --country=UTO --doc-number=L898902C3 \
//	    --last-name=Eriksson --first-name="Anna Maria" --dob=1974-08-12 --gender=F
//	mrzctl check scans.txt
//	cat scans.txt | mrzctl check --json
//
// check reads blocks of MRZ lines separated by blank lines and exits 1 when
// any block fails verification.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kong"
)

var errInvalidMRZ = errors.New("one or more MRZ blocks are invalid")

// streams carries the process I/O into commands so tests can capture it.
type streams struct {
	in  io.Reader
	out io.Writer
}

// CLI defines the command-line interface using Kong
type CLI struct {
	Generate GenerateCmd `cmd:"" help:"Encode an identity record into MRZ lines"`
	Check    CheckCmd    `cmd:"" help:"Verify MRZ blocks and print corrections"`
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var cli CLI
	exitCode := -1
	parser, err := kong.New(&cli,
		kong.Name("mrzctl"),
		kong.Description("ICAO 9303 machine-readable zone toolkit"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{Compact: true}),
		kong.Writers(stdout, stderr),
		kong.Exit(func(code int) { exitCode = code }),
		kong.Bind(&streams{in: stdin, out: stdout}),
	)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}

	ctx, err := parser.Parse(args)
	if exitCode >= 0 {
		// --help and friends
		return exitCode
	}
	if err != nil {
		parser.Errorf("%s", err)
		return 2
	}

	if err := ctx.Run(); err != nil {
		if errors.Is(err, errInvalidMRZ) {
			return 1
		}
		fmt.Fprintf(stderr, "mrzctl: %v\n", err)
		return 2
	}
	return 0
}
