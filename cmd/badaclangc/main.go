package main

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/badaclang/badaclang/pkg/cparse"
	"github.com/badaclang/badaclang/pkg/lower"
	"github.com/badaclang/badaclang/pkg/resolve"

	"github.com/teris-io/cli"
)

var Description = strings.ReplaceAll(`
The badaclang compiler lowers a restricted subset of C (void/char/int,
pointers, arrays, structs, enums; no typedefs, floats, unions, or goto)
directly to LLVM IR text, one .ll file per input translation unit.
`, "\n", " ")

var Badaclangc = cli.New(Description).
	// 'AsOptional()' allows more than one input .c file
	WithArg(cli.NewArg("inputs", "The source (.c) files to be compiled").
		AsOptional().WithType(cli.TypeString)).
	WithOption(cli.NewOption("o", "Output path for a single input file (defaults to replacing .c with .ll)").
		WithType(cli.TypeString)).
	WithAction(Handler)

func Handler(args []string, options map[string]string) int {
	if len(args) < 1 {
		fmt.Printf("ERROR: Not enough arguments provided, use --help\n")
		return -1
	}

	// As in the teacher's driver, a mix of file and directory arguments is
	// accepted; directories are walked for every .c file found beneath them.
	TUs := []string{}
	for _, input := range args {
		filepath.Walk(input, func(p string, info fs.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() || filepath.Ext(p) != ".c" {
				return nil
			}
			TUs = append(TUs, p)
			return nil
		})
	}

	if out, explicit := options["o"]; explicit {
		if len(TUs) != 1 {
			fmt.Printf("ERROR: -o may only be used with a single input file\n")
			return -1
		}
		return compileOne(TUs[0], out)
	}

	for _, tu := range TUs {
		extension := path.Ext(tu)
		out := strings.TrimSuffix(tu, extension) + ".ll"
		if code := compileOne(tu, out); code != 0 {
			return code
		}
	}
	return 0
}

// compileOne runs the full Parse -> Resolve -> Lower -> write pipeline for
// a single translation unit. A Resolve or Lower error is printed to stderr
// as "<coord>: <message>"; a parse or output-file failure is printed to
// stderr with an "ERROR:" prefix. Any failure returns a non-zero exit code.
func compileOne(input, output string) int {
	tu, err := cparse.Parse(input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: Unable to complete 'parsing' pass: %s\n", err)
		return -1
	}

	scopes, err := resolve.Resolve(tu)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		return -1
	}

	module, err := lower.Lower(input, tu, scopes)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		return -1
	}

	f, err := os.Create(output)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: Unable to open output file: %s\n", err)
		return -1
	}
	defer f.Close()

	if _, err := fmt.Fprint(f, module.String()); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: Unable to write output file: %s\n", err)
		return -1
	}
	return 0
}

func main() { os.Exit(Badaclangc.Run(os.Args, os.Stdout)) }
